package walker

import "strings"

// Value leaves of a simple extension.
var simpleExtensionSuffixes = []string{".url", ".value[x]", ".value"}

// IsExtensionPath reports whether path names an extension element
// ("Patient.extension", "Extension.extension").
func IsExtensionPath(path string) bool {
	return strings.HasSuffix(path, "extension")
}

// IsExtensionContainerPath reports whether path is a plain ".extension"
// element.
func IsExtensionContainerPath(path string) bool {
	return strings.HasSuffix(path, ".extension")
}

// LastSegment returns the part of path after the last dot.
// Example: "Patient.name.family" -> "family"
func LastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// NormalizeSlicePath removes a slice marker from a path so it can be
// compared with the unsliced path.
//
//	"Patient.name:official.family" -> "Patient.name.family"
//	"Patient.name:official"        -> "Patient.name"
//	"Patient.name.family"          -> "Patient.name.family"
func NormalizeSlicePath(path string) string {
	colon := strings.IndexByte(path, ':')
	if colon < 0 {
		return path
	}
	rest := path[colon+1:]
	if dot := strings.IndexByte(rest, '.'); dot >= 0 {
		return path[:colon] + rest[dot:]
	}
	return path[:colon]
}

// AncestorPaths returns every proper prefix of path, shortest first.
// Example: "Patient.name.family" -> ["Patient", "Patient.name"]
func AncestorPaths(path string) []string {
	if path == "" {
		return nil
	}
	var out []string
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			out = append(out, path[:i])
		}
	}
	return out
}

// SplitPath splits a dotted path into segments.
// Example: "Patient.name.family" -> ["Patient", "name", "family"]
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func isSimpleExtensionLeaf(path string) bool {
	for _, suffix := range simpleExtensionSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

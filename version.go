package profiletree

// FHIRVersion represents a FHIR specification version.
type FHIRVersion string

// Supported FHIR versions.
const (
	// R4 is FHIR Release 4 (4.0.1)
	R4 FHIRVersion = "R4"
	// R4B is FHIR Release 4B (4.3.0)
	R4B FHIRVersion = "R4B"
	// R5 is FHIR Release 5 (5.0.0)
	R5 FHIRVersion = "R5"
)

// String returns the version string.
func (v FHIRVersion) String() string {
	return string(v)
}

// IsValid returns true if this is a known FHIR version.
func (v FHIRVersion) IsValid() bool {
	switch v {
	case R4, R4B, R5:
		return true
	default:
		return false
	}
}

// StructureDefinitionsSupported reports whether StructureDefinition
// documents of this version can be converted. Raw element documents are
// version independent.
func (v FHIRVersion) StructureDefinitionsSupported() bool {
	return v == R4 || v == R4B
}

// ParseFHIRVersion parses a version name or number such as "R4" or
// "4.0.1". It returns "" for unknown input.
func ParseFHIRVersion(s string) FHIRVersion {
	switch s {
	case "R4", "r4", "4.0", "4.0.1":
		return R4
	case "R4B", "r4b", "4.3", "4.3.0":
		return R4B
	case "R5", "r5", "5.0", "5.0.0":
		return R5
	default:
		return ""
	}
}

package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/profiletree/element"
)

// ErrNotFound is returned when a source has no document for a key.
var ErrNotFound = errors.New("profile not found")

// ErrUnsupportedResource is returned for FHIR resources other than
// StructureDefinition or a Bundle containing one.
var ErrUnsupportedResource = errors.New("unsupported resource type")

// Format is a document encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromName guesses the format from a file name or content type.
// Anything not recognizably YAML is JSON.
func FormatFromName(name string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "yaml"), filepath.Ext(lower) == ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

type resourceProbe struct {
	ResourceType string `json:"resourceType"`
}

// DecodeDocument decodes a profile document into its raw root element.
func DecodeDocument(data []byte, format Format) (*element.Raw, error) {
	if format == FormatYAML {
		converted, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("convert YAML document: %w", err)
		}
		data = converted
	}

	var probe resourceProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	switch probe.ResourceType {
	case "":
		return element.DecodeRaw(data)
	case "StructureDefinition":
		return decodeStructureDefinition(data)
	case "Bundle":
		return decodeBundle(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedResource, probe.ResourceType)
	}
}

// decodeBundle converts the first StructureDefinition entry of a Bundle.
func decodeBundle(data []byte) (*element.Raw, error) {
	var bundle struct {
		Entry []struct {
			Resource json.RawMessage `json:"resource"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse Bundle: %w", err)
	}
	for _, entry := range bundle.Entry {
		if entry.Resource == nil {
			continue
		}
		var probe resourceProbe
		if err := json.Unmarshal(entry.Resource, &probe); err != nil {
			continue
		}
		if probe.ResourceType == "StructureDefinition" {
			return decodeStructureDefinition(entry.Resource)
		}
	}
	return nil, fmt.Errorf("%w: Bundle without StructureDefinition", ErrUnsupportedResource)
}

func decodeStructureDefinition(data []byte) (*element.Raw, error) {
	var sd r4.StructureDefinition
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, fmt.Errorf("failed to parse StructureDefinition: %w", err)
	}
	return NewR4Converter().ConvertStructureDefinition(&sd)
}

package module

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/errors"
)

// ManifestName is the entry every module archive must carry
const ManifestName = "module.yaml"

// Manifest lists the units an archive provides
type Manifest struct {
	Units []ManifestUnit `yaml:"units"`
}

// ManifestUnit describes one unit. Name, version and kind override what the
// unit's About reports.
type ManifestUnit struct {
	Identifier string `yaml:"identifier"`
	Name       string `yaml:"name,omitempty"`
	Version    string `yaml:"version,omitempty"`
	Kind       string `yaml:"kind,omitempty"`
	URL        string `yaml:"url,omitempty"`
}

const manifestSchema = `{
  "type": "object",
  "required": ["units"],
  "properties": {
    "units": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["identifier"],
        "additionalProperties": false,
        "properties": {
          "identifier": {"type": "string", "minLength": 1},
          "name":       {"type": "string"},
          "version":    {"type": "string", "pattern": "^\\s*\\d+\\s*\\.\\s*\\d+\\s*\\.\\s*\\d+\\s*$"},
          "kind":       {"type": "string", "enum": ["data", "algorithm"]},
          "url":        {"type": "string"}
        }
      }
    }
  }
}`

var manifestSchemaLoader = gojsonschema.NewStringLoader(manifestSchema)

// ParseManifest decodes and validates a manifest document
func ParseManifest(data []byte) (*Manifest, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %w", errors.ErrInvalidManifest, err), "Manifest", "Parse", "yaml decoding")
	}
	if doc == nil {
		doc = map[string]any{}
	}

	result, err := gojsonschema.Validate(manifestSchemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %w", errors.ErrInvalidManifest, err), "Manifest", "Parse", "schema validation")
	}
	if !result.Valid() {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrInvalidManifest, result.Errors()[0]), "Manifest", "Parse", "schema validation")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %w", errors.ErrInvalidManifest, err), "Manifest", "Parse", "yaml decoding")
	}
	return &m, nil
}

// apply overlays the manifest metadata onto a descriptor built from About
func (u ManifestUnit) apply(d *Descriptor) error {
	if u.Name != "" {
		d.Name = u.Name
	}
	if u.Version != "" {
		v, err := component.ParseVersion(u.Version)
		if err != nil {
			return err
		}
		d.Version = v
	}
	if u.Kind != "" {
		kind, err := component.ParseKind(u.Kind)
		if err != nil {
			return errors.WrapInvalid(
				fmt.Errorf("%w: %w", errors.ErrInvalidManifest, err), "Manifest", "apply", "kind parsing")
		}
		d.Kind = kind
	}
	if u.URL != "" {
		d.URL = u.URL
	}
	return nil
}

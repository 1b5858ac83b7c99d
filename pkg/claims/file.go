package claims

import (
	"fmt"
	"os"

	"github.com/tendant/simple-oidc/pkg/scope"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk claims configuration.
//
//	translate:
//	  sub: [uid]
//	  updated_at: {type: int, attributes: [modifyTimestamp]}
//	  address:
//	    type: json
//	    claims:
//	      formatted: [postalAddress]
//	allowed_multi_value_claims: [groups]
//	scopes:
//	  national:
//	    description: National identity
//	    claim_name_prefix: nat_
//	    attributes: [document_id]
type FileConfig struct {
	Translate               Table                       `yaml:"translate"`
	AllowedMultiValueClaims []string                    `yaml:"allowed_multi_value_claims"`
	Scopes                  map[string]scope.Definition `yaml:"scopes"`
}

// Parse decodes a claims configuration document (YAML or JSON).
func Parse(data []byte) (*FileConfig, error) {
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse claims configuration: %w", err)
	}
	return &cfg, nil
}

// LoadFile reads a claims configuration file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read claims configuration %s: %w", path, err)
	}
	return Parse(data)
}

// Build creates the scope catalog and translator described by the file, on top
// of DefaultTable. A nil FileConfig yields the defaults.
func (c *FileConfig) Build(userIDAttribute string) (*scope.Catalog, *Translator, error) {
	table := DefaultTable()
	var defs map[string]scope.Definition
	var multi []string
	if c != nil {
		table = table.Merge(c.Translate)
		defs = c.Scopes
		multi = c.AllowedMultiValueClaims
	}

	catalog, err := scope.NewCatalogFromDefinitions(defs)
	if err != nil {
		return nil, nil, err
	}

	translator := New(catalog, table,
		WithUserIDAttribute(userIDAttribute),
		WithAllowedMultiValueClaims(multi...),
	)
	return catalog, translator, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/content-engine/pkg/types"
)

// LoadFile reads a raw product record from a JSON or YAML file. The format
// is chosen by extension; anything other than .yaml/.yml is read as JSON.
// A file that is not a mapping fails with a validation error.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading product file: %w", err)
	}
	return Decode(data, filepath.Ext(path))
}

// Decode parses raw record bytes. ext selects YAML (".yaml", ".yml") or JSON.
func Decode(data []byte, ext string) (map[string]any, error) {
	var raw map[string]any
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, types.Validationf("parsing product YAML: %v", err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, types.Validationf("parsing product JSON: %v", err)
		}
	}
	if raw == nil {
		return nil, types.Validationf("product file does not contain a record")
	}
	return raw, nil
}

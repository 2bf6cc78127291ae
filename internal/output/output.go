// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output writes pages and enriched state to disk and reads state
// back for later publishing.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/content-engine/pkg/types"
)

// StateFile is the file name of the saved enriched state.
const StateFile = "state.json"

// WritePages writes each page as <template>.json in dir, and as
// <template>.md when markdown is set. It returns the written paths in page
// order.
func WritePages(dir string, pages []types.PageOutput, markdown bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	var paths []string
	for _, page := range pages {
		path := filepath.Join(dir, page.Template+".json")
		if err := writeJSON(path, page); err != nil {
			return paths, err
		}
		paths = append(paths, path)

		if !markdown {
			continue
		}
		var buf bytes.Buffer
		if err := NewMarkdownWriter(&buf).Write(page); err != nil {
			return paths, fmt.Errorf("rendering %s markdown: %w", page.Template, err)
		}
		mdPath := filepath.Join(dir, page.Template+".md")
		if err := os.WriteFile(mdPath, buf.Bytes(), 0o644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", mdPath, err)
		}
		paths = append(paths, mdPath)
	}
	return paths, nil
}

// ReadPage reads a page written by WritePages.
func ReadPage(path string) (types.PageOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.PageOutput{}, fmt.Errorf("reading page %s: %w", path, err)
	}
	var page types.PageOutput
	if err := json.Unmarshal(data, &page); err != nil {
		return types.PageOutput{}, fmt.Errorf("parsing page %s: %w", path, err)
	}
	return page, nil
}

// WriteState writes the enriched state as JSON, or YAML when path ends in
// .yaml or .yml.
func WriteState(path string, s *types.EnrichedState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	if isYAML(path) {
		data, err := yaml.Marshal(s)
		if err != nil {
			return fmt.Errorf("encoding state: %w", err)
		}
		return os.WriteFile(path, data, 0o644)
	}
	return writeJSON(path, s)
}

// LoadState reads a state written by WriteState and checks its invariants.
// A state that fails them is a validation error.
func LoadState(path string) (*types.EnrichedState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewError(types.KindValidation, types.StageInput, fmt.Errorf("reading state %s: %w", path, err))
	}
	var s types.EnrichedState
	if isYAML(path) {
		err = yaml.Unmarshal(data, &s)
	} else {
		err = json.Unmarshal(data, &s)
	}
	if err != nil {
		return nil, types.Validationf("parsing state %s: %v", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, types.Validationf("state %s: %v", path, err)
	}
	return &s, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads model API keys from a directory of plain-text files.
// Each file holds one secret: the file name is the key and the trimmed
// contents are the value.
//
// Recognized key files: gemini-api-key, openai-api-key, anthropic-api-key.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDir is where secrets are looked up when no directory is configured.
const DefaultDir = ".secrets"

// Store maps key names to values.
type Store map[string]string

// Load reads all files in dir. A missing directory is not an error and
// yields an empty Store. Unreadable files are logged and skipped.
func Load(dir string, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Store)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", "name", name, "error", err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}

// Lookup returns the value of envVar when set, otherwise the value of the
// key file. It returns "" when neither is present.
func (s Store) Lookup(envVar, file string) string {
	if envVar != "" {
		if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
			return v
		}
	}
	if file == "" {
		return ""
	}
	return s[file]
}

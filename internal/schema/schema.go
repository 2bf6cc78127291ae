// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schema validates structured model responses against JSON Schema
// documents compiled once at startup.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// MustCompile compiles src under the resource name and panics on error. It
// is meant for package-level schemas that are part of the binary.
func MustCompile(name, src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	url := "mem://" + name + ".json"
	if err := compiler.AddResource(url, bytes.NewReader([]byte(src))); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	s, err := compiler.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return s
}

// Check decodes raw and validates it against s.
func Check(s *jsonschema.Schema, raw json.RawMessage) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return nil
}

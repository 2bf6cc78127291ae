// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

const personSchema = `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "age": {"type": "number", "minimum": 0}
  }
}`

func TestCheck(t *testing.T) {
	s := MustCompile("person", personSchema)

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"name":"Ada","age":36}`, false},
		{"missing name", `{"age":36}`, true},
		{"empty name", `{"name":""}`, true},
		{"negative age", `{"name":"Ada","age":-1}`, true},
		{"not an object", `["Ada"]`, true},
		{"not json", `{name:`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(s, json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMustCompilePanicsOnBadSchema(t *testing.T) {
	assert.Panics(t, func() { MustCompile("bad", `{"type": 12}`) })
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package invoke

import (
	"encoding/json"
	"strings"
)

// CoerceJSON returns text as JSON. If text is not valid JSON as a whole, it
// strips Markdown code fences and then looks for the first balanced object
// or array fragment that is valid JSON. extracted reports whether recovery
// was needed; ok is false when nothing decodable was found.
func CoerceJSON(text string) (raw json.RawMessage, extracted, ok bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), false, true
	}

	if fenced := stripCodeFence(trimmed); fenced != trimmed && json.Valid([]byte(fenced)) {
		return json.RawMessage(fenced), true, true
	}

	if frag, found := FirstFragment(trimmed); found {
		return json.RawMessage(frag), true, true
	}
	return nil, false, false
}

// stripCodeFence removes a surrounding ```json ... ``` or ``` ... ``` block.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// FirstFragment scans s for the first balanced {...} or [...] span that is
// valid JSON. Brackets inside string literals are ignored.
func FirstFragment(s string) (string, bool) {
	for start := 0; start < len(s); start++ {
		if s[start] != '{' && s[start] != '[' {
			continue
		}
		end := matchClose(s, start)
		if end < 0 {
			continue
		}
		frag := s[start : end+1]
		if json.Valid([]byte(frag)) {
			return frag, true
		}
	}
	return "", false
}

// matchClose returns the index of the bracket closing s[start], or -1.
func matchClose(s string, start int) int {
	var stack []byte
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ContentKind identifies which variant a SectionContent holds.
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentBlock ContentKind = "block"
	ContentQA    ContentKind = "qa"
)

// ComparisonRow is one attribute compared between the product and its competitor.
type ComparisonRow struct {
	Attribute  string `json:"attribute" yaml:"attribute"`
	Product    string `json:"product" yaml:"product"`
	Competitor string `json:"competitor" yaml:"competitor"`
}

// BlockResult is the structured output of a logic block.
type BlockResult struct {
	// Block is the logic block identifier that produced the result.
	Block string `json:"block" yaml:"block"`

	// Summary is a one-line human-readable statement of the result.
	Summary string `json:"summary" yaml:"summary"`

	// Items lists bullet entries (features, benefits, steps).
	Items []string `json:"items,omitempty" yaml:"items,omitempty"`

	// Rows holds side-by-side comparison data.
	Rows []ComparisonRow `json:"rows,omitempty" yaml:"rows,omitempty"`

	// Available is false when the block fell back because inputs were missing.
	Available bool `json:"available" yaml:"available"`
}

// SectionContent is a closed union of the three content shapes a section can
// carry: plain text, a logic block result, or a list of answered questions.
// It encodes to JSON as a bare string, object, or array respectively.
type SectionContent struct {
	Kind  ContentKind
	Text  string
	Block *BlockResult
	QA    []QAPair
}

// TextContent wraps a string.
func TextContent(s string) SectionContent {
	return SectionContent{Kind: ContentText, Text: s}
}

// BlockContent wraps a logic block result.
func BlockContent(b BlockResult) SectionContent {
	return SectionContent{Kind: ContentBlock, Block: &b}
}

// QAContent wraps answered questions. A nil slice becomes an empty list so
// the section always encodes as an array.
func QAContent(pairs []QAPair) SectionContent {
	if pairs == nil {
		pairs = []QAPair{}
	}
	return SectionContent{Kind: ContentQA, QA: pairs}
}

// MarshalJSON encodes the active variant without a wrapper.
func (c SectionContent) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case ContentText:
		return json.Marshal(c.Text)
	case ContentBlock:
		if c.Block == nil {
			return []byte("null"), nil
		}
		return json.Marshal(c.Block)
	case ContentQA:
		if c.QA == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(c.QA)
	default:
		return nil, fmt.Errorf("unknown section content kind %q", c.Kind)
	}
}

// UnmarshalJSON picks the variant from the first JSON token.
func (c *SectionContent) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty section content")
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*c = TextContent(s)
	case '{':
		var b BlockResult
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		*c = BlockContent(b)
	case '[':
		var qa []QAPair
		if err := json.Unmarshal(trimmed, &qa); err != nil {
			return err
		}
		*c = QAContent(qa)
	default:
		return fmt.Errorf("unsupported section content %s", trimmed)
	}
	return nil
}

// PageSection is one rendered section of a page.
type PageSection struct {
	Heading string         `json:"heading"`
	Content SectionContent `json:"content"`

	// Degraded marks a section filled with placeholder content because its
	// model call failed after retries.
	Degraded bool `json:"degraded,omitempty"`
}

// PageMetadata is derived deterministically from the state and template.
type PageMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PageOutput is the machine-readable page produced for one template.
type PageOutput struct {
	Template string        `json:"template"`
	Sections []PageSection `json:"sections"`
	Metadata PageMetadata  `json:"metadata"`

	// Degraded is true when at least one section is degraded.
	Degraded bool `json:"degraded,omitempty"`
}

// DegradedSections returns the headings of degraded sections in page order.
func (p *PageOutput) DegradedSections() []string {
	var headings []string
	for _, s := range p.Sections {
		if s.Degraded {
			headings = append(headings, s.Heading)
		}
	}
	return headings
}

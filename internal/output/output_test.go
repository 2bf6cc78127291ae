// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/content-engine/pkg/types"
)

func samplePages() []types.PageOutput {
	return []types.PageOutput{
		{
			Template: "faq",
			Metadata: types.PageMetadata{Title: "Acme Kettle FAQ", Description: "Questions."},
			Sections: []types.PageSection{{
				Heading: "Pricing",
				Content: types.QAContent([]types.QAPair{{Question: "How much?", Answer: "USD 49.99.", Category: types.CategoryPricing}}),
			}},
		},
		{
			Template: "comparison",
			Metadata: types.PageMetadata{Title: "Acme Kettle vs Rival"},
			Degraded: true,
			Sections: []types.PageSection{
				{Heading: "Summary", Content: types.TextContent("unavailable"), Degraded: true},
				{Heading: "Side by Side", Content: types.BlockContent(types.BlockResult{
					Block:     "comparison_table",
					Summary:   "Acme Kettle compared with Rival",
					Rows:      []types.ComparisonRow{{Attribute: "price", Product: "USD 49.99", Competitor: "n/a"}},
					Available: true,
				})},
			},
		},
	}
}

func sampleState() *types.EnrichedState {
	var qs []types.UserQuestion
	for _, c := range types.Categories() {
		for i := 0; i < 3; i++ {
			qs = append(qs, types.UserQuestion{Text: string(c) + "?", Category: c})
		}
	}
	return &types.EnrichedState{
		RunID:     "run-1",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Product:   types.ProductRecord{Name: "Acme Kettle", Price: types.Float(49.99), Currency: "USD"},
		Questions: qs,
		Competitor: types.CompetitorProduct{
			ProductRecord: types.ProductRecord{Name: "Rival"},
			Synthetic:     true,
		},
	}
}

func TestWritePagesRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	pages := samplePages()

	paths, err := WritePages(dir, pages, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "faq.json"), filepath.Join(dir, "comparison.json")}, paths)

	for i, path := range paths {
		got, err := ReadPage(path)
		require.NoError(t, err)
		assert.Equal(t, pages[i], got)
	}
}

func TestWritePagesJSONShape(t *testing.T) {
	dir := t.TempDir()
	_, err := WritePages(dir, samplePages()[:1], false)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "faq.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"template": "faq",
		"sections": [{"heading": "Pricing", "content": [{"question": "How much?", "answer": "USD 49.99.", "category": "pricing"}]}],
		"metadata": {"title": "Acme Kettle FAQ", "description": "Questions."}
	}`, string(data))
}

func TestWritePagesMarkdown(t *testing.T) {
	dir := t.TempDir()
	paths, err := WritePages(dir, samplePages(), true)
	require.NoError(t, err)
	assert.Len(t, paths, 4)

	data, err := os.ReadFile(filepath.Join(dir, "comparison.md"))
	require.NoError(t, err)
	md := string(data)
	assert.Contains(t, md, "# Acme Kettle vs Rival")
	assert.Contains(t, md, "## Side by Side")
	assert.Contains(t, md, "USD 49.99")
	assert.Contains(t, md, "[!WARNING]")
}

func TestMarkdownWriterQA(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownWriter(&buf).Write(samplePages()[0]))
	assert.Contains(t, buf.String(), "### How much?")
	assert.Contains(t, buf.String(), "USD 49.99.")
}

func TestStateRoundTrip(t *testing.T) {
	for _, name := range []string{"state.json", "state.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			want := sampleState()
			require.NoError(t, WriteState(path, want))

			got, err := LoadState(path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadStateErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadState(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, types.ErrValidation))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadState(bad)
	assert.True(t, errors.Is(err, types.ErrValidation))

	short := sampleState()
	short.Questions = short.Questions[:10]
	path := filepath.Join(dir, "short.json")
	require.NoError(t, WriteState(path, short))
	_, err = LoadState(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrValidation))
	assert.Contains(t, err.Error(), "expected 15 questions")
}

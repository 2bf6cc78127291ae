// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"io"

	"github.com/nao1215/markdown"

	"github.com/pdiddy/content-engine/pkg/types"
)

// MarkdownWriter renders a page as GitHub-flavored Markdown.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter returns a writer over w.
func NewMarkdownWriter(w io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: w}
}

// Write renders page.
func (w *MarkdownWriter) Write(page types.PageOutput) error {
	md := markdown.NewMarkdown(w.output)

	md.H1(page.Metadata.Title)
	md.PlainText("")
	if page.Metadata.Description != "" {
		md.PlainText(page.Metadata.Description)
		md.PlainText("")
	}
	if page.Degraded {
		md.Warningf("Some sections could not be generated: %d of %d.", len(page.DegradedSections()), len(page.Sections))
		md.PlainText("")
	}

	for _, sec := range page.Sections {
		md.H2(sec.Heading)
		md.PlainText("")
		w.writeContent(md, sec.Content)
	}
	return md.Build()
}

func (w *MarkdownWriter) writeContent(md *markdown.Markdown, c types.SectionContent) {
	switch c.Kind {
	case types.ContentText:
		md.PlainText(c.Text)
		md.PlainText("")

	case types.ContentBlock:
		if c.Block == nil {
			return
		}
		md.PlainText(c.Block.Summary)
		md.PlainText("")
		if len(c.Block.Items) > 0 {
			md.BulletList(c.Block.Items...)
			md.PlainText("")
		}
		if len(c.Block.Rows) > 0 {
			rows := make([][]string, 0, len(c.Block.Rows))
			for _, r := range c.Block.Rows {
				rows = append(rows, []string{r.Attribute, r.Product, r.Competitor})
			}
			md.Table(markdown.TableSet{
				Header: []string{"Attribute", "Product", "Competitor"},
				Rows:   rows,
			})
			md.PlainText("")
		}

	case types.ContentQA:
		if len(c.QA) == 0 {
			md.PlainText("No questions in this category.")
			md.PlainText("")
			return
		}
		for _, qa := range c.QA {
			md.H3(qa.Question)
			md.PlainText("")
			md.PlainText(qa.Answer)
			md.PlainText("")
		}
	}
}

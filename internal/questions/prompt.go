// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package questions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/pdiddy/content-engine/pkg/types"
)

const systemPrompt = "You are a product content analyst. You write the questions real shoppers ask and answer them only from the facts you are given."

// generatePromptTmpl asks for the full question set in one structured call.
var generatePromptTmpl = template.Must(template.New("questions").Parse(`Product record:
{{.Product}}

Write exactly {{.Count}} distinct questions a shopper might ask about this product, {{.PerCategory}} in each of these categories:
{{- range .Categories}}
- {{.}}
{{- end}}

Respond with a JSON object containing a "questions" array. Each element has:
- text: the question, phrased as the shopper would ask it
- category: one of the categories above, lowercase
{{- if .Correction}}

Your previous answer was rejected: {{.Correction}}. Follow the format exactly.
{{- end}}
`))

// answerPromptTmpl asks for one answer as plain text.
var answerPromptTmpl = template.Must(template.New("answer").Parse(`Product record:
{{.Product}}

Question: {{.Question}}
Category: {{.Category}}

Answer the question in two to four sentences using only the product record. If the record does not contain the answer, say what is known and suggest checking with the seller.
`))

func productJSON(p types.ProductRecord) (string, error) {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding product: %w", err)
	}
	return string(b), nil
}

func renderGenerate(p types.ProductRecord, correction string) (string, error) {
	product, err := productJSON(p)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = generatePromptTmpl.Execute(&buf, struct {
		Product     string
		Count       int
		PerCategory int
		Categories  []types.Category
		Correction  string
	}{product, types.QuestionCount, perCategory(), types.Categories(), correction})
	return buf.String(), err
}

func renderAnswer(q types.UserQuestion, p types.ProductRecord) (string, error) {
	product, err := productJSON(p)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = answerPromptTmpl.Execute(&buf, struct {
		Product  string
		Question string
		Category types.Category
	}{product, q.Text, q.Category})
	return buf.String(), err
}

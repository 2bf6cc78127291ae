// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// EnrichedState is the bundle the Analyst stage produces and the Publisher
// stage reads. It is built once per run through NewEnrichedState and treated
// as read-only afterwards; nothing downstream writes to it.
type EnrichedState struct {
	// RunID identifies the run that produced the state.
	RunID string `json:"run_id" yaml:"run_id"`

	// CreatedAt is when the state was assembled (UTC).
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// Product is the normalized input record.
	Product ProductRecord `json:"product" yaml:"product"`

	// Questions holds exactly QuestionCount questions covering every category.
	Questions []UserQuestion `json:"questions" yaml:"questions"`

	// Competitor is the fabricated comparison product.
	Competitor CompetitorProduct `json:"competitor" yaml:"competitor"`
}

// NewEnrichedState assembles a state and checks its invariants: a named
// product, exactly QuestionCount questions with valid categories covering the
// whole set, and a named synthetic competitor. The questions slice is copied.
func NewEnrichedState(runID string, product ProductRecord, questions []UserQuestion, competitor CompetitorProduct) (*EnrichedState, error) {
	s := &EnrichedState{
		RunID:      runID,
		CreatedAt:  time.Now().UTC(),
		Product:    product,
		Questions:  append([]UserQuestion(nil), questions...),
		Competitor: competitor,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the state invariants. It is also used after loading a
// state from disk.
func (s *EnrichedState) Validate() error {
	if s.Product.Name == "" {
		return fmt.Errorf("product name is empty")
	}
	if len(s.Questions) != QuestionCount {
		return fmt.Errorf("expected %d questions, got %d", QuestionCount, len(s.Questions))
	}
	seen := make(map[Category]bool)
	for i, q := range s.Questions {
		if !q.Category.Valid() {
			return fmt.Errorf("question %d: invalid category %q", i, q.Category)
		}
		if q.Text == "" {
			return fmt.Errorf("question %d: empty text", i)
		}
		seen[q.Category] = true
	}
	for _, c := range Categories() {
		if !seen[c] {
			return fmt.Errorf("no question in category %q", c)
		}
	}
	if s.Competitor.Name == "" {
		return fmt.Errorf("competitor name is empty")
	}
	if !s.Competitor.Synthetic {
		return fmt.Errorf("competitor is not marked synthetic")
	}
	return nil
}

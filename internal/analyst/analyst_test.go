// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyst

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/content-engine/internal/competitor"
	"github.com/pdiddy/content-engine/internal/invoke"
	"github.com/pdiddy/content-engine/internal/llm"
	"github.com/pdiddy/content-engine/internal/questions"
	"github.com/pdiddy/content-engine/pkg/types"
)

type stubQuestions struct {
	qs    []types.UserQuestion
	err   error
	calls int
}

func (s *stubQuestions) Generate(context.Context, types.ProductRecord) ([]types.UserQuestion, error) {
	s.calls++
	return s.qs, s.err
}

type stubCompetitor struct {
	c     types.CompetitorProduct
	err   error
	calls int
}

func (s *stubCompetitor) Fabricate(context.Context, types.ProductRecord) (types.CompetitorProduct, error) {
	s.calls++
	return s.c, s.err
}

func fifteen() []types.UserQuestion {
	var qs []types.UserQuestion
	for _, c := range types.Categories() {
		for i := 0; i < 3; i++ {
			qs = append(qs, types.UserQuestion{Text: string(c) + " question", Category: c})
		}
	}
	return qs
}

func rival() types.CompetitorProduct {
	return types.CompetitorProduct{ProductRecord: types.ProductRecord{Name: "Rival", Price: types.Float(39.99)}, Synthetic: true}
}

func kettleInput() map[string]any {
	return map[string]any{
		"name":     "Acme Kettle",
		"price":    "$49.99",
		"features": []any{"fast boil", "auto shutoff"},
	}
}

// Acme Kettle through the offline backend: numeric price, 15 questions over
// five categories, and a competitor with a price.
func TestRunScenarioOffline(t *testing.T) {
	inv := invoke.New(llm.Offline{})
	stage := New(questions.New(inv), competitor.New(inv), WithRunID(func() string { return "run-1" }))

	state, err := stage.Run(context.Background(), kettleInput())
	require.NoError(t, err)

	assert.Equal(t, "run-1", state.RunID)
	require.NotNil(t, state.Product.Price)
	assert.InDelta(t, 49.99, *state.Product.Price, 1e-9)
	assert.Equal(t, "USD", state.Product.Currency)
	assert.Equal(t, []string{"fast boil", "auto shutoff"}, state.Product.Features)

	require.Len(t, state.Questions, types.QuestionCount)
	seen := map[types.Category]int{}
	for _, q := range state.Questions {
		seen[q.Category]++
		assert.Empty(t, q.Answer)
	}
	assert.Len(t, seen, len(types.Categories()))

	assert.True(t, state.Competitor.Synthetic)
	assert.NotEmpty(t, state.Competitor.Name)
	assert.NotNil(t, state.Competitor.Price)
	assert.NoError(t, state.Validate())
}

func TestRunValidationErrorBeforeModelCalls(t *testing.T) {
	q, c := &stubQuestions{qs: fifteen()}, &stubCompetitor{c: rival()}
	_, err := New(q, c).Run(context.Background(), map[string]any{"price": "$5"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrValidation))
	assert.Equal(t, types.StageInput, types.StageOf(err))
	assert.Zero(t, q.calls)
	assert.Zero(t, c.calls)
}

func TestRunQuestionFailureAborts(t *testing.T) {
	q := &stubQuestions{err: &invoke.Failure{Attempts: 5, Cause: errors.New("429")}}
	c := &stubCompetitor{c: rival()}
	state, err := New(q, c).Run(context.Background(), kettleInput())
	require.Error(t, err)
	assert.Nil(t, state)
	assert.True(t, errors.Is(err, types.ErrModelFatal))
	assert.Equal(t, types.StageAnalyst, types.StageOf(err))
	assert.Zero(t, c.calls)
}

func TestRunCompetitorFailureAborts(t *testing.T) {
	q := &stubQuestions{qs: fifteen()}
	c := &stubCompetitor{err: types.NewError(types.KindModelFatal, types.StageAnalyst, errors.New("bad shape"))}
	state, err := New(q, c).Run(context.Background(), kettleInput())
	require.Error(t, err)
	assert.Nil(t, state)
	assert.True(t, errors.Is(err, types.ErrModelFatal))
	assert.Equal(t, types.StageAnalyst, types.StageOf(err))
}

func TestRunInvalidAssemblyIsNotReturned(t *testing.T) {
	q := &stubQuestions{qs: fifteen()[:14]}
	state, err := New(q, &stubCompetitor{c: rival()}).Run(context.Background(), kettleInput())
	require.Error(t, err)
	assert.Nil(t, state)
	assert.Equal(t, types.StageAnalyst, types.StageOf(err))
}

func TestRunGeneratesRunIDs(t *testing.T) {
	stage := New(&stubQuestions{qs: fifteen()}, &stubCompetitor{c: rival()})
	a, err := stage.Run(context.Background(), kettleInput())
	require.NoError(t, err)
	b, err := stage.Run(context.Background(), kettleInput())
	require.NoError(t, err)
	assert.NotEmpty(t, a.RunID)
	assert.NotEqual(t, a.RunID, b.RunID)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package competitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/content-engine/internal/invoke"
	"github.com/pdiddy/content-engine/pkg/types"
)

type fakeInvoker struct {
	replies []string
	errs    []error
	prompts []invoke.Prompt
}

func (f *fakeInvoker) Invoke(_ context.Context, p invoke.Prompt, _ bool) (invoke.Result, error) {
	i := len(f.prompts)
	f.prompts = append(f.prompts, p)
	if i < len(f.errs) && f.errs[i] != nil {
		return invoke.Result{}, f.errs[i]
	}
	if i >= len(f.replies) {
		return invoke.Result{}, errors.New("no scripted reply")
	}
	raw, _, ok := invoke.CoerceJSON(f.replies[i])
	if !ok {
		return invoke.Result{}, &invoke.Failure{Attempts: 5, Cause: invoke.ErrMalformedResponse}
	}
	return invoke.Result{Text: f.replies[i], JSON: raw, Attempts: 1}, nil
}

var kettle = types.ProductRecord{Name: "Acme Kettle", Price: types.Float(49.99), Currency: "USD"}

func TestFabricate(t *testing.T) {
	inv := &fakeInvoker{replies: []string{
		`{"name":"BoilMaster 2000","brand":"Rival Co","price":"$39.99","features":"fast boil, keep warm"}`,
	}}
	c, err := New(inv).Fabricate(context.Background(), kettle)
	require.NoError(t, err)
	assert.True(t, c.Synthetic)
	assert.Equal(t, "BoilMaster 2000", c.Name)
	require.NotNil(t, c.Price)
	assert.InDelta(t, 39.99, *c.Price, 1e-9)
	assert.Equal(t, "USD", c.Currency)
	assert.Equal(t, []string{"fast boil", "keep warm"}, c.Features)
	require.Len(t, inv.prompts, 1)
	assert.Equal(t, "competitor", inv.prompts[0].Task)
}

func TestFabricateInheritsCurrencyForBareNumber(t *testing.T) {
	inv := &fakeInvoker{replies: []string{`{"name":"Rival","price":39.5}`}}
	c, err := New(inv).Fabricate(context.Background(), kettle)
	require.NoError(t, err)
	assert.Equal(t, "USD", c.Currency)
}

func TestFabricateReRequestsOnce(t *testing.T) {
	tests := []struct {
		name  string
		first string
	}{
		{"missing name", `{"brand":"X","price":10}`},
		{"wrong type", `{"name":"Rival","features":42}`},
		{"same name as product", `{"name":"Acme Kettle","price":10}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &fakeInvoker{replies: []string{tt.first, `{"name":"Rival","price":10}`}}
			c, err := New(inv).Fabricate(context.Background(), kettle)
			require.NoError(t, err)
			assert.Equal(t, "Rival", c.Name)
			require.Len(t, inv.prompts, 2)
			assert.Contains(t, inv.prompts[1].User, "previous answer was rejected")
		})
	}
}

func TestFabricateInvalidTwiceIsFatal(t *testing.T) {
	inv := &fakeInvoker{replies: []string{`{"brand":"X"}`, `{"name":""}`}}
	_, err := New(inv).Fabricate(context.Background(), kettle)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrModelFatal))
	assert.Len(t, inv.prompts, 2)
}

func TestFabricateInvokerFailureIsFatal(t *testing.T) {
	inv := &fakeInvoker{errs: []error{&invoke.Failure{Attempts: 5, Class: invoke.ClassRateLimited, Cause: errors.New("429")}}}
	_, err := New(inv).Fabricate(context.Background(), kettle)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrModelFatal))
	assert.Len(t, inv.prompts, 1)
}

func TestFabricateUnparseablePriceIsAbsent(t *testing.T) {
	inv := &fakeInvoker{replies: []string{`{"name":"Rival","price":"call for price"}`}}
	c, err := New(inv).Fabricate(context.Background(), kettle)
	require.NoError(t, err)
	assert.Nil(t, c.Price)
	assert.Empty(t, c.Currency)
}

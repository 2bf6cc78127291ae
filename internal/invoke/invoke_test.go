// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package invoke

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/content-engine/pkg/types"
)

// --- fake model client ---

// scriptedClient returns errs[i] on call i, then resp for every later call.
type scriptedClient struct {
	mu    sync.Mutex
	errs  []error
	resp  []string
	calls int
	reqs  []Request
}

func (s *scriptedClient) Call(_ context.Context, req Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	s.reqs = append(s.reqs, req)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if len(s.resp) == 0 {
		return "ok", nil
	}
	if i < len(s.resp) {
		return s.resp[i], nil
	}
	return s.resp[len(s.resp)-1], nil
}

func repeat(err error, n int) []error {
	out := make([]error, n)
	for i := range out {
		out[i] = err
	}
	return out
}

// recorder captures backoff waits instead of sleeping.
type recorder struct {
	delays []time.Duration
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func testPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   100 * time.Millisecond,
		Multiplier:  2,
		MaxDelay:    time.Minute,
		Jitter:      0.25,
		CallTimeout: time.Second,
	}
}

func newTestInvoker(c ModelClient, rec *recorder, jitter float64) *Invoker {
	return New(c,
		WithPolicy(testPolicy()),
		WithSleep(rec.sleep),
		WithJitterSource(func() float64 { return jitter }),
	)
}

var errRateLimited = RateLimited(errors.New("429 too many requests"))

func TestInvoke_ImmediateSuccess(t *testing.T) {
	c := &scriptedClient{resp: []string{"hello"}}
	rec := &recorder{}

	res, err := newTestInvoker(c, rec, 0).Invoke(context.Background(), Prompt{User: "hi"}, false)
	require.NoError(t, err)

	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, 1, res.Attempts)
	assert.Empty(t, rec.delays)
}

func TestInvoke_RateLimitedExhaustsFiveAttempts(t *testing.T) {
	c := &scriptedClient{errs: repeat(errRateLimited, 10)}
	rec := &recorder{}

	_, err := newTestInvoker(c, rec, 0).Invoke(context.Background(), Prompt{User: "hi", Task: "questions"}, false)
	require.Error(t, err)

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, 5, f.Attempts)
	assert.Equal(t, ClassRateLimited, f.Class)
	assert.Equal(t, 5, c.calls)
	assert.ErrorIs(t, err, types.ErrModelFatal)
	assert.Contains(t, err.Error(), "questions failed after 5 attempt(s)")

	// One wait between each pair of attempts, strictly increasing.
	require.Len(t, rec.delays, 4)
	for i := 1; i < len(rec.delays); i++ {
		assert.Greater(t, rec.delays[i], rec.delays[i-1])
	}
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
	}, rec.delays)
}

func TestInvoke_SucceedsOnFourthAttempt(t *testing.T) {
	c := &scriptedClient{errs: repeat(errRateLimited, 3), resp: []string{"", "", "", "finally"}}
	rec := &recorder{}

	res, err := newTestInvoker(c, rec, 0).Invoke(context.Background(), Prompt{User: "hi"}, false)
	require.NoError(t, err)

	assert.Equal(t, "finally", res.Text)
	assert.Equal(t, 4, res.Attempts)
	assert.Equal(t, 4, c.calls)
	assert.Len(t, rec.delays, 3)
}

func TestInvoke_FatalFailsImmediately(t *testing.T) {
	c := &scriptedClient{errs: []error{Fatal(errors.New("401 invalid api key"))}}
	rec := &recorder{}

	_, err := newTestInvoker(c, rec, 0).Invoke(context.Background(), Prompt{User: "hi"}, false)

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, 1, f.Attempts)
	assert.Equal(t, ClassFatal, f.Class)
	assert.Equal(t, 1, c.calls)
	assert.Empty(t, rec.delays)
}

func TestInvoke_UnclassifiedErrorsAreRetried(t *testing.T) {
	c := &scriptedClient{errs: []error{errors.New("connection reset"), errors.New("EOF")}, resp: []string{"", "", "done"}}
	rec := &recorder{}

	res, err := newTestInvoker(c, rec, 0).Invoke(context.Background(), Prompt{User: "hi"}, false)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
}

func TestInvoke_JitterStaysWithinBounds(t *testing.T) {
	c := &scriptedClient{errs: repeat(errRateLimited, 1), resp: []string{"", "ok"}}
	rec := &recorder{}

	_, err := newTestInvoker(c, rec, 0.999).Invoke(context.Background(), Prompt{User: "hi"}, false)
	require.NoError(t, err)

	require.Len(t, rec.delays, 1)
	base := 100 * time.Millisecond
	assert.GreaterOrEqual(t, rec.delays[0], base)
	assert.Less(t, rec.delays[0], base+base/4)
}

func TestInvoke_RetryAfterHintWins(t *testing.T) {
	hinted := &CallError{Class: ClassRateLimited, Err: errors.New("slow down"), RetryAfter: 5 * time.Second}
	c := &scriptedClient{errs: []error{hinted}, resp: []string{"", "ok"}}
	rec := &recorder{}

	_, err := newTestInvoker(c, rec, 0).Invoke(context.Background(), Prompt{User: "hi"}, false)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{5 * time.Second}, rec.delays)
}

func TestInvoke_DelaysNeverExceedMaxDelay(t *testing.T) {
	p := testPolicy()
	p.BaseDelay = 40 * time.Second
	p.MaxDelay = time.Minute
	hinted := &CallError{Class: ClassRateLimited, Err: errors.New("slow down"), RetryAfter: time.Hour}
	c := &scriptedClient{errs: []error{errRateLimited, errRateLimited, hinted}, resp: []string{"", "", "", "ok"}}
	rec := &recorder{}

	inv := New(c, WithPolicy(p), WithSleep(rec.sleep), WithJitterSource(func() float64 { return 0.999 }))
	_, err := inv.Invoke(context.Background(), Prompt{User: "hi"}, false)
	require.NoError(t, err)

	require.Len(t, rec.delays, 3)
	assert.Greater(t, rec.delays[0], 40*time.Second, "jitter below the cap is kept")
	for _, d := range rec.delays {
		assert.LessOrEqual(t, d, time.Minute)
	}
	assert.Equal(t, time.Minute, rec.delays[2], "Retry-After is capped")
}

func TestInvoke_AttemptsCappedAtFive(t *testing.T) {
	c := &scriptedClient{errs: repeat(errRateLimited, 20)}
	rec := &recorder{}
	p := testPolicy()
	p.MaxAttempts = 12

	inv := New(c, WithPolicy(p), WithSleep(rec.sleep), WithJitterSource(func() float64 { return 0 }))
	_, err := inv.Invoke(context.Background(), Prompt{User: "hi"}, false)
	require.Error(t, err)

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, types.MaxAttemptsLimit, f.Attempts)
	assert.Equal(t, types.MaxAttemptsLimit, c.calls)
}

func TestInvoke_JSONExpected(t *testing.T) {
	tests := []struct {
		name          string
		resp          []string
		wantAttempts  int
		wantExtracted bool
		wantName      string
	}{
		{
			name:         "clean json",
			resp:         []string{`{"name":"Rival"}`},
			wantAttempts: 1,
			wantName:     "Rival",
		},
		{
			name:          "code fenced",
			resp:          []string{"```json\n{\"name\":\"Fenced\"}\n```"},
			wantAttempts:  1,
			wantExtracted: true,
			wantName:      "Fenced",
		},
		{
			name:          "prose around object",
			resp:          []string{`Sure! Here it is: {"name":"Embedded {braces}"} hope that helps`},
			wantAttempts:  1,
			wantExtracted: true,
			wantName:      "Embedded {braces}",
		},
		{
			name:         "malformed then valid",
			resp:         []string{"no json here", `{"name":`, `{"name":"Third"}`},
			wantAttempts: 3,
			wantName:     "Third",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &scriptedClient{resp: tt.resp}
			rec := &recorder{}

			res, err := newTestInvoker(c, rec, 0).Invoke(context.Background(), Prompt{User: "x"}, true)
			require.NoError(t, err)

			assert.Equal(t, tt.wantAttempts, res.Attempts)
			assert.Equal(t, tt.wantExtracted, res.Extracted)

			var got struct {
				Name string `json:"name"`
			}
			require.NoError(t, res.Decode(&got))
			assert.Equal(t, tt.wantName, got.Name)
			assert.True(t, c.reqs[0].Structured)
		})
	}
}

func TestInvoke_MalformedExhausts(t *testing.T) {
	c := &scriptedClient{resp: []string{"never json"}}
	rec := &recorder{}

	_, err := newTestInvoker(c, rec, 0).Invoke(context.Background(), Prompt{User: "x"}, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, 5, c.calls)
}

func TestInvoke_AttemptTimeoutIsRetryable(t *testing.T) {
	var calls int
	blocking := ModelClientFunc(func(ctx context.Context, _ Request) (string, error) {
		calls++
		if calls < 3 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "late but fine", nil
	})
	rec := &recorder{}
	p := testPolicy()
	p.CallTimeout = 10 * time.Millisecond

	inv := New(blocking, WithPolicy(p), WithSleep(rec.sleep), WithJitterSource(func() float64 { return 0 }))
	res, err := inv.Invoke(context.Background(), Prompt{User: "x"}, false)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, "late but fine", res.Text)
}

func TestInvoke_AttemptTimeoutExhausts(t *testing.T) {
	blocking := ModelClientFunc(func(ctx context.Context, _ Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	p := testPolicy()
	p.MaxAttempts = 2
	p.CallTimeout = 5 * time.Millisecond
	rec := &recorder{}

	_, err := New(blocking, WithPolicy(p), WithSleep(rec.sleep)).Invoke(context.Background(), Prompt{User: "x"}, false)

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, 2, f.Attempts)
	assert.Equal(t, ClassTransient, f.Class)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInvoke_ContextCancelledDuringBackoff(t *testing.T) {
	c := &scriptedClient{errs: repeat(errRateLimited, 10)}
	ctx, cancel := context.WithCancel(context.Background())

	sleep := func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}
	_, err := New(c, WithPolicy(testPolicy()), WithSleep(sleep)).Invoke(ctx, Prompt{User: "x"}, false)

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, 1, f.Attempts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolicy_DelayGrowsAndCaps(t *testing.T) {
	p := Policy{BaseDelay: time.Second, Multiplier: 2, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Duration(0), p.Delay(0))
	assert.Equal(t, time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
	assert.Equal(t, 4*time.Second, p.Delay(3))
	assert.Equal(t, 5*time.Second, p.Delay(4))
}

func TestPolicyFrom_FillsDefaults(t *testing.T) {
	p := PolicyFrom(types.RetryConfig{})
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, time.Second, p.BaseDelay)
	assert.Equal(t, 2.0, p.Multiplier)
	assert.Equal(t, 60*time.Second, p.CallTimeout)

	p = PolicyFrom(types.RetryConfig{MaxAttempts: 12})
	assert.Equal(t, types.MaxAttemptsLimit, p.MaxAttempts)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Class
	}{
		{RateLimited(errors.New("x")), ClassRateLimited},
		{fmt.Errorf("wrapped: %w", Fatal(errors.New("auth"))), ClassFatal},
		{Transient(errors.New("x")), ClassTransient},
		{context.Canceled, ClassFatal},
		{context.DeadlineExceeded, ClassTransient},
		{errors.New("socket closed"), ClassTransient},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), tt.err.Error())
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package invoke wraps every call to the generative model with bounded
// retry, exponential backoff with jitter, per-attempt timeouts, and
// coercion of the response into JSON or free text.
package invoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/pdiddy/content-engine/pkg/types"
)

// Policy bounds the retries of one Invoke call.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
	Jitter      float64
	CallTimeout time.Duration
}

// PolicyFrom converts configuration into a Policy, filling zero values with
// the defaults. MaxAttempts is capped at types.MaxAttemptsLimit.
func PolicyFrom(cfg types.RetryConfig) Policy {
	def := types.DefaultRetryConfig()
	p := Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay,
		Multiplier:  cfg.Multiplier,
		MaxDelay:    cfg.MaxDelay,
		Jitter:      cfg.Jitter,
		CallTimeout: cfg.CallTimeout,
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	p.MaxAttempts = min(p.MaxAttempts, types.MaxAttemptsLimit)
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.Multiplier <= 1 {
		p.Multiplier = def.Multiplier
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.Jitter < 0 || p.Jitter > 1 {
		p.Jitter = def.Jitter
	}
	if p.CallTimeout <= 0 {
		p.CallTimeout = def.CallTimeout
	}
	return p
}

// DefaultPolicy returns the policy built from DefaultRetryConfig.
func DefaultPolicy() Policy {
	return PolicyFrom(types.DefaultRetryConfig())
}

// Delay returns the wait before retry n (n >= 1) without jitter:
// BaseDelay * Multiplier^(n-1), capped at MaxDelay.
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(n-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Result is a successful model response.
type Result struct {
	// Text is the raw response text.
	Text string

	// JSON holds the decoded structured payload when JSON was expected.
	JSON json.RawMessage

	// Attempts is the number of calls made, including the successful one.
	Attempts int

	// Extracted is true when JSON had to be recovered from surrounding text.
	Extracted bool
}

// Decode unmarshals the structured payload into v.
func (r Result) Decode(v any) error {
	if len(r.JSON) == 0 {
		return fmt.Errorf("response has no structured payload")
	}
	return json.Unmarshal(r.JSON, v)
}

// Failure is returned when a call could not succeed: retries were exhausted,
// the error was non-retryable, or the caller's context ended. It matches
// types.ErrModelFatal under errors.Is.
type Failure struct {
	Task     string
	Attempts int
	Class    Class
	Cause    error
}

func (f *Failure) Error() string {
	task := f.Task
	if task == "" {
		task = "model call"
	}
	return fmt.Sprintf("%s failed after %d attempt(s): %v", task, f.Attempts, f.Cause)
}

func (f *Failure) Unwrap() error { return f.Cause }

// Is reports a match for the model_fatal sentinel.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*types.Error)
	return ok && t.Kind == types.KindModelFatal && t.Stage == ""
}

// Invoker issues model calls through a ModelClient with the retry policy.
// It keeps no state between Invoke calls and is safe for concurrent use.
type Invoker struct {
	client ModelClient
	policy Policy
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithPolicy sets the retry policy.
func WithPolicy(p Policy) Option {
	return func(i *Invoker) { i.policy = p }
}

// WithLogger sets the logger used for retry messages.
func WithLogger(l *slog.Logger) Option {
	return func(i *Invoker) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithSleep replaces the backoff wait. Tests use it to record delays
// without sleeping.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(i *Invoker) { i.sleep = fn }
}

// WithJitterSource replaces the random source used for jitter. fn must
// return values in [0,1).
func WithJitterSource(fn func() float64) Option {
	return func(i *Invoker) { i.jitter = fn }
}

// New returns an Invoker over client.
func New(client ModelClient, opts ...Option) *Invoker {
	inv := &Invoker{
		client: client,
		policy: DefaultPolicy(),
		logger: slog.Default(),
		sleep:  sleepContext,
		jitter: rand.Float64,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Policy returns the invoker's retry policy.
func (i *Invoker) Policy() Policy { return i.policy }

// Invoke calls the model until it succeeds, hits a non-retryable error, or
// uses up the attempt budget. With expectJSON the response must decode as
// JSON, directly or after fragment extraction; otherwise it counts as a
// malformed, retryable response. Rate limits and transient faults are
// retried after BaseDelay*Multiplier^(n-1) plus jitter. Each attempt runs
// under CallTimeout; an attempt timeout is retryable.
func (i *Invoker) Invoke(ctx context.Context, p Prompt, expectJSON bool) (Result, error) {
	req := Request{Prompt: p, Structured: expectJSON}
	maxAttempts := min(max(1, i.policy.MaxAttempts), types.MaxAttemptsLimit)
	var lastErr error
	lastClass := ClassTransient

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, &Failure{Task: p.Task, Attempts: attempt - 1, Class: ClassFatal, Cause: err}
		}

		res, err := i.attempt(ctx, req)
		if err == nil {
			res.Attempts = attempt
			if attempt > 1 {
				i.logger.Debug("model call recovered", "task", p.Task, "attempts", attempt)
			}
			return res, nil
		}

		lastErr = err
		lastClass = Classify(err)
		if ctx.Err() != nil {
			lastClass = ClassFatal
			lastErr = fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		}
		if !lastClass.Retryable() {
			return Result{}, &Failure{Task: p.Task, Attempts: attempt, Class: lastClass, Cause: lastErr}
		}
		if attempt == maxAttempts {
			break
		}

		delay := i.backoff(attempt, err)
		i.logger.Warn("model call failed, retrying",
			"task", p.Task,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"class", string(lastClass),
			"delay", delay,
			"error", err,
		)
		if err := i.sleep(ctx, delay); err != nil {
			return Result{}, &Failure{Task: p.Task, Attempts: attempt, Class: ClassFatal, Cause: err}
		}
	}

	return Result{}, &Failure{Task: p.Task, Attempts: maxAttempts, Class: lastClass, Cause: lastErr}
}

// attempt runs one call under the per-attempt timeout and coerces the response.
func (i *Invoker) attempt(ctx context.Context, req Request) (Result, error) {
	callCtx := ctx
	if i.policy.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, i.policy.CallTimeout)
		defer cancel()
	}

	text, err := i.client.Call(callCtx, req)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return Result{}, Transient(fmt.Errorf("attempt timed out after %v: %w", i.policy.CallTimeout, err))
		}
		return Result{}, err
	}

	if !req.Structured {
		return Result{Text: text}, nil
	}

	raw, extracted, ok := CoerceJSON(text)
	if !ok {
		return Result{}, Transient(fmt.Errorf("%w: %s", ErrMalformedResponse, snippet(text, 120)))
	}
	return Result{Text: text, JSON: raw, Extracted: extracted}, nil
}

// backoff returns the delay before the retry following attempt n. A server
// Retry-After hint longer than the computed delay wins. The result, jitter
// and hint included, never exceeds MaxDelay.
func (i *Invoker) backoff(n int, err error) time.Duration {
	base := i.policy.Delay(n)
	d := base
	if i.policy.Jitter > 0 && i.jitter != nil {
		d += time.Duration(i.jitter() * i.policy.Jitter * float64(base))
	}
	var ce *CallError
	if errors.As(err, &ce) && ce.RetryAfter > d {
		d = ce.RetryAfter
	}
	if i.policy.MaxDelay > 0 && d > i.policy.MaxDelay {
		d = i.policy.MaxDelay
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

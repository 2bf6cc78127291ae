// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"github.com/pdiddy/content-engine/internal/httputil"
	"github.com/pdiddy/content-engine/internal/invoke"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Gemini calls the Gemini API through the generative-ai-go SDK.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

// NewGemini opens a Gemini client for cfg.
func NewGemini(ctx context.Context, cfg types.AIConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, missingKey(types.ProviderGemini)
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, types.NewError(types.KindConfiguration, types.StageConfig,
			fmt.Errorf("creating gemini client: %w", err))
	}
	return &Gemini{
		client:      client,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
	}, nil
}

// Call sends one GenerateContent request. Structured requests ask for the
// application/json response type.
func (g *Gemini) Call(ctx context.Context, req invoke.Request) (string, error) {
	m := g.client.GenerativeModel(g.model)
	m.SetTemperature(g.temperature)
	if g.maxTokens > 0 {
		m.SetMaxOutputTokens(g.maxTokens)
	}
	if req.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.Structured {
		m.ResponseMIMEType = "application/json"
	}

	resp, err := m.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		return "", classifyGemini(err)
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		break
	}
	if b.Len() == 0 {
		return "", invoke.Transient(errors.New("gemini returned no text"))
	}
	return b.String(), nil
}

// Close releases the underlying connection.
func (g *Gemini) Close() error { return g.client.Close() }

// classifyGemini maps SDK errors onto retry classes. Blocked prompts and
// auth or argument errors are fatal; quota exhaustion is a rate limit.
// Anything unrecognized is returned as is and counts as transient.
func classifyGemini(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return invoke.Fatal(err)
	}

	var ae *apierror.APIError
	if errors.As(err, &ae) {
		if code := ae.HTTPCode(); code > 0 {
			return &invoke.CallError{Class: httputil.ClassifyStatus(code), Err: err}
		}
		if st := ae.GRPCStatus(); st != nil {
			return &invoke.CallError{Class: classifyCode(st.Code()), Err: err}
		}
	}

	var ge *googleapi.Error
	if errors.As(err, &ge) {
		return &invoke.CallError{Class: httputil.ClassifyStatus(ge.Code), Err: err}
	}
	return err
}

func classifyCode(c codes.Code) invoke.Class {
	switch c {
	case codes.ResourceExhausted:
		return invoke.ClassRateLimited
	case codes.Unavailable, codes.DeadlineExceeded, codes.Internal, codes.Aborted, codes.Unknown:
		return invoke.ClassTransient
	default:
		return invoke.ClassFatal
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/pdiddy/content-engine/internal/httputil"
	"github.com/pdiddy/content-engine/internal/invoke"
	"github.com/pdiddy/content-engine/pkg/types"
)

// OpenAI calls the Chat Completions API of OpenAI or a compatible gateway.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewOpenAI returns an OpenAI backend. SDK retries are disabled because the
// invoker owns the retry policy.
func NewOpenAI(cfg types.AIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, missingKey(types.ProviderOpenAI)
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Call sends one chat completion. Structured requests use the json_object
// response format.
func (o *OpenAI) Call(ctx context.Context, req invoke.Request) (string, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    msgs,
		Temperature: openai.Float(o.temperature),
	}
	if o.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(o.maxTokens))
	}
	if req.Structured {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyOpenAI(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", invoke.Transient(errors.New("openai returned no content"))
	}
	return resp.Choices[0].Message.Content, nil
}

// Close implements Client.
func (o *OpenAI) Close() error { return nil }

func classifyOpenAI(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &invoke.CallError{Class: httputil.ClassifyStatus(apiErr.StatusCode), Err: err}
	}
	return err
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicClient struct {
	client sdk.Client
	apiKey string
}

func NewAnthropicClient(apiKey string, opts ...option.RequestOption) *AnthropicClient {
	base := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	return &AnthropicClient{client: sdk.NewClient(append(base, opts...)...), apiKey: apiKey}
}

func (c *AnthropicClient) Name() string { return "anthropic" }

func (c *AnthropicClient) Do(ctx context.Context, req Request) (Response, error) {
	if c.apiKey == "" {
		return Response{}, fmt.Errorf("anthropic: %w", ErrMissingKey)
	}
	maxOut := req.MaxOutputTokens
	if maxOut <= 0 {
		maxOut = defaultMaxOutputTokens
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: maxOut,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.Text))},
	}
	if req.SystemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: req.SystemPrompt}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return Response{}, statusError(c.Name(), apiErr.StatusCode, err)
		}
		return Response{}, fmt.Errorf("anthropic: %w", err)
	}
	if msg.StopReason == sdk.StopReasonRefusal {
		return Response{}, fmt.Errorf("anthropic: %w", ErrContentRefused)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return Response{}, fmt.Errorf("anthropic: %w", ErrEmptyOutput)
	}
	return Response{
		Text:      text,
		TokensIn:  int(msg.Usage.InputTokens),
		TokensOut: int(msg.Usage.OutputTokens),
	}, nil
}

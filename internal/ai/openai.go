package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const defaultMaxOutputTokens int64 = 1024

type OpenAIClient struct {
	client openai.Client
	apiKey string
}

// NewOpenAIClient builds a client; extra options are used by tests to point at a local server.
func NewOpenAIClient(apiKey string, opts ...option.RequestOption) *OpenAIClient {
	base := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	return &OpenAIClient{client: openai.NewClient(append(base, opts...)...), apiKey: apiKey}
}

func (c *OpenAIClient) Name() string { return "openai" }

func (c *OpenAIClient) Do(ctx context.Context, req Request) (Response, error) {
	if c.apiKey == "" {
		return Response{}, fmt.Errorf("openai: %w", ErrMissingKey)
	}
	maxOut := req.MaxOutputTokens
	if maxOut <= 0 {
		maxOut = defaultMaxOutputTokens
	}
	if req.ImageBase64 != "" {
		return c.doVision(ctx, req, maxOut)
	}

	params := responses.ResponseNewParams{
		Model:           req.Model,
		MaxOutputTokens: openai.Int(maxOut),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(req.Text),
		},
	}
	if req.SystemPrompt != "" {
		params.Instructions = openai.String(req.SystemPrompt)
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return Response{}, c.mapErr(err)
	}
	text := strings.TrimSpace(resp.OutputText())
	if text == "" {
		return Response{}, fmt.Errorf("openai (status = %s): %w", resp.Status, ErrEmptyOutput)
	}
	return Response{
		Text:      text,
		TokensIn:  int(resp.Usage.InputTokens),
		TokensOut: int(resp.Usage.OutputTokens),
	}, nil
}

// doVision sends an inline image with the text prompt over chat completions.
func (c *OpenAIClient) doVision(ctx context.Context, req Request, maxOut int64) (Response, error) {
	imageURL := fmt.Sprintf("data:%s;base64,%s", req.ImageMIME, req.ImageBase64)
	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(req.Text),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: imageURL}),
	}))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               req.Model,
		Messages:            messages,
		MaxCompletionTokens: openai.Int(maxOut),
		Temperature:         openai.Float(0),
	})
	if err != nil {
		return Response{}, c.mapErr(err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("openai: no choices: %w", ErrEmptyOutput)
	}
	if resp.Choices[0].Message.Refusal != "" {
		return Response{}, fmt.Errorf("openai: %s: %w", resp.Choices[0].Message.Refusal, ErrContentRefused)
	}
	return Response{
		Text:      strings.TrimSpace(resp.Choices[0].Message.Content),
		TokensIn:  int(resp.Usage.PromptTokens),
		TokensOut: int(resp.Usage.CompletionTokens),
	}, nil
}

func (c *OpenAIClient) mapErr(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return statusError(c.Name(), apiErr.StatusCode, err)
	}
	return fmt.Errorf("openai: %w", err)
}

package ocr

import (
	"context"
	"fmt"

	"github.com/local/docsummarizer/internal/ai"
	"github.com/local/docsummarizer/internal/imagerender"
)

const visionPrompt = `You are an OCR engine. Return the exact text visible on the page image.

Rules:
- Keep reading order and line breaks.
- No commentary, no markdown, no translation.
- Return an empty answer for a blank page.`

// Vision sends page images to a multimodal model.
type Vision struct {
	client ai.Client
	model  string
}

func NewVision(client ai.Client, model string) *Vision {
	return &Vision{client: client, model: model}
}

func (v *Vision) Name() string { return "vision:" + v.client.Name() }

func (v *Vision) Recognize(ctx context.Context, png []byte) (string, error) {
	resp, err := v.client.Do(ctx, ai.Request{
		Model:           v.model,
		SystemPrompt:    visionPrompt,
		Text:            "Transcribe this page.",
		MaxOutputTokens: 4096,
		ImageBase64:     imagerender.EncodeToBase64(png),
		ImageMIME:       "image/png",
	})
	if err != nil {
		return "", fmt.Errorf("vision ocr: %w", err)
	}
	return resp.Text, nil
}

// Package ocr turns rendered page images into text.
package ocr

import (
	"context"
	"fmt"

	"github.com/local/docsummarizer/internal/ai"
	cfgpkg "github.com/local/docsummarizer/internal/config"
)

// Engine recognizes text in one PNG page image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, png []byte) (string, error)
}

// New picks the engine named in conf. "none" returns nil, which disables OCR.
func New(conf cfgpkg.OCRConfig, vision ai.Client) (Engine, error) {
	switch conf.Engine {
	case "", "tesseract":
		return NewTesseract(conf.TesseractPath, conf.Language), nil
	case "openai":
		if vision == nil {
			return nil, fmt.Errorf("ocr engine %q needs an OpenAI client", conf.Engine)
		}
		return NewVision(vision, conf.VisionModel), nil
	case "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown ocr engine %q", conf.Engine)
}

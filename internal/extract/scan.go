package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	mpkg "github.com/local/docsummarizer/internal/metrics"
	"github.com/rs/zerolog/log"
)

// hasTextLayer reports whether a text layer is long enough to skip OCR.
func hasTextLayer(text string, minChars int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) > minChars
}

// extractPDF reads the text layer and falls back to OCR on every page when
// the layer is empty or implausibly short.
func (e *Extractor) extractPDF(ctx context.Context, path string) (string, string, error) {
	doc, err := e.opener.Open(path)
	if err != nil {
		return "", "pdf_text", err
	}
	defer doc.Close()

	total := doc.NumPage()
	var sb strings.Builder
	for i := 0; i < total; i++ {
		text, err := doc.Text(i)
		if err != nil {
			log.Warn().Err(err).Int("page", i+1).Msg("failed to extract text from page")
			continue
		}
		sb.WriteString(text)
	}
	layer := sb.String()
	if hasTextLayer(layer, e.conf.MinTextChars) {
		return layer, "pdf_text", nil
	}

	log.Warn().Str("path", path).Int("chars", utf8.RuneCountInString(strings.TrimSpace(layer))).Msg("PDF text empty or too short, falling back to OCR")
	if e.ocr == nil {
		return "", "ocr", fmt.Errorf("scanned PDF and OCR is disabled")
	}

	pages := total
	if e.countPages != nil {
		if n, err := e.countPages(path); err != nil {
			log.Warn().Err(err).Msg("page count preflight failed, using renderer count")
		} else if n < pages {
			pages = n
		}
	}
	if e.conf.MaxPages > 0 && pages > e.conf.MaxPages {
		log.Warn().Int("pages", pages).Int("max", e.conf.MaxPages).Msg("OCR page limit reached, truncating")
		pages = e.conf.MaxPages
	}

	var out strings.Builder
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", "ocr", err
		}
		img, err := doc.RenderPNG(i, e.conf.DPI)
		if err != nil {
			log.Warn().Err(err).Int("page", i+1).Msg("failed to render page")
			mpkg.IncOCRPage(e.ocr.Name(), "render_error")
			continue
		}
		text, err := e.ocr.Recognize(ctx, img)
		if err != nil {
			log.Warn().Err(err).Int("page", i+1).Msg("OCR failed on page")
			mpkg.IncOCRPage(e.ocr.Name(), "error")
			continue
		}
		mpkg.IncOCRPage(e.ocr.Name(), "ok")
		log.Debug().Int("page", i+1).Int("chars", len(text)).Msg("OCR page done")
		out.WriteString(text)
		out.WriteString("\n")
	}
	return out.String(), "ocr", nil
}

// Package extract turns uploaded PDF, DOCX and TXT files into plain text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	cfgpkg "github.com/local/docsummarizer/internal/config"
	mpkg "github.com/local/docsummarizer/internal/metrics"
	"github.com/local/docsummarizer/internal/ocr"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"
)

// Extractor picks an extraction strategy by file extension.
type Extractor struct {
	conf       cfgpkg.OCRConfig
	opener     Opener
	ocr        ocr.Engine
	countPages func(path string) (int, error)
}

// New returns an Extractor reading PDFs with go-fitz. engine may be nil,
// in which case scanned PDFs yield no text.
func New(conf cfgpkg.OCRConfig, engine ocr.Engine) *Extractor {
	if conf.MinTextChars <= 0 {
		conf.MinTextChars = 100
	}
	if conf.DPI <= 0 {
		conf.DPI = 300
	}
	return &Extractor{conf: conf, opener: FitzOpener{}, ocr: engine, countPages: pdfcpuPageCount}
}

// Supported reports whether the extension has an extraction strategy.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".docx", ".txt":
		return true
	}
	return false
}

// Extract returns the document text, or "" when nothing could be extracted.
// Errors are logged, never returned.
func (e *Extractor) Extract(ctx context.Context, path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	format := strings.TrimPrefix(ext, ".")

	info, err := os.Stat(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("file not found")
		mpkg.IncExtraction(format, "stat", "missing")
		return ""
	}
	if info.Size() == 0 {
		log.Warn().Str("path", path).Msg("empty file")
		mpkg.IncExtraction(format, "stat", "empty")
		return ""
	}

	var (
		text   string
		method string
	)
	switch ext {
	case ".pdf":
		text, method, err = e.extractPDF(ctx, path)
	case ".docx":
		method = "docx"
		text, err = extractDocx(path)
	case ".txt":
		method = "txt"
		text, err = extractTxt(path)
	default:
		log.Warn().Str("path", path).Str("ext", ext).Msg("unsupported file type")
		mpkg.IncExtraction("other", "none", "unsupported")
		return ""
	}
	if err != nil {
		log.Error().Err(err).Str("path", path).Str("method", method).Msg("text extraction failed")
		mpkg.IncExtraction(format, method, "error")
		return ""
	}

	text = strings.TrimSpace(norm.NFC.String(text))
	result := "ok"
	if text == "" {
		result = "empty"
	}
	mpkg.IncExtraction(format, method, result)
	log.Info().Str("path", filepath.Base(path)).Str("method", method).Int("chars", utf8.RuneCountInString(text)).Msg("text extracted")
	return text
}

func extractTxt(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read txt: %w", err)
	}
	b = []byte(strings.TrimPrefix(string(b), "\ufeff"))
	if !utf8.Valid(b) {
		return "", errors.New("txt file is not valid UTF-8")
	}
	return string(b), nil
}

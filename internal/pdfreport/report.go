// Package pdfreport renders summaries as downloadable PDF documents.
package pdfreport

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
)

const bodyFont = "body"

// Renderer builds summary PDFs. With a UTF-8 TrueType font configured,
// non-Latin translations render natively; otherwise text is mapped to cp1252.
type Renderer struct {
	fontPath string
}

func New(fontPath string) *Renderer { return &Renderer{fontPath: fontPath} }

// Summary renders the summary of filename. Each stored line becomes its own paragraph.
func (r *Renderer) Summary(filename, summary string) ([]byte, error) {
	return r.render(fmt.Sprintf("Document Summary: %s", filename), splitParagraphs(summary))
}

// Translated renders translated bullet points for lang.
func (r *Renderer) Translated(filename, lang string, points []string) ([]byte, error) {
	title := fmt.Sprintf("Translated Summary (%s): %s", strings.ToUpper(lang), filename)
	return r.render(title, points)
}

func (r *Renderer) render(title string, paragraphs []string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(title, true)

	family := "Arial"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if r.fontPath != "" {
		pdf.AddUTF8Font(bodyFont, "", r.fontPath)
		family = bodyFont
		tr = func(s string) string { return s }
	}
	pdf.AddPage()

	pdf.SetFont(family, "", 12)
	pdf.MultiCell(0, 8, tr(title), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont(family, "", 10)
	for _, p := range paragraphs {
		pdf.MultiCell(0, 5, tr(p), "", "L", false)
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func splitParagraphs(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// SummaryFilename returns the attachment name for a summary of filename.
func SummaryFilename(filename, lang string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" || base == "." || base == "/" {
		base = "summary"
	}
	if lang != "" {
		return fmt.Sprintf("%s_%s_summary.pdf", base, strings.ToUpper(lang))
	}
	return base + "_summary.pdf"
}

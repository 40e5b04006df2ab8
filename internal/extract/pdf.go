package extract

import (
	"fmt"

	fitz "github.com/gen2brain/go-fitz"
	"github.com/local/docsummarizer/internal/imagerender"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Doc abstracts an open PDF document.
type Doc interface {
	NumPage() int
	Text(i int) (string, error)
	RenderPNG(i, dpi int) ([]byte, error)
	Close() error
}

// Opener abstracts opening a PDF path into a Doc.
type Opener interface {
	Open(path string) (Doc, error)
}

// FitzOpener opens PDFs with go-fitz.
type FitzOpener struct{}

func (FitzOpener) Open(path string) (Doc, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return fitzDoc{doc}, nil
}

type fitzDoc struct{ *fitz.Document }

func (d fitzDoc) RenderPNG(i, dpi int) ([]byte, error) {
	return imagerender.RenderPagePNG(d.Document, i, dpi, imagerender.ColorGray)
}

// pdfcpuPageCount reads the page tree without rendering.
func pdfcpuPageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}

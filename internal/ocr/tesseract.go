package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Tesseract runs the tesseract CLI, feeding the image on stdin.
type Tesseract struct {
	bin  string
	lang string
}

func NewTesseract(bin, lang string) *Tesseract {
	if bin == "" {
		bin = "tesseract"
	}
	if lang == "" {
		lang = "eng"
	}
	return &Tesseract{bin: bin, lang: lang}
}

func (t *Tesseract) Name() string { return "tesseract" }

// Available reports whether the binary can be found.
func (t *Tesseract) Available() bool {
	_, err := exec.LookPath(t.bin)
	return err == nil
}

func (t *Tesseract) Recognize(ctx context.Context, png []byte) (string, error) {
	cmd := exec.CommandContext(ctx, t.bin, "stdin", "stdout", "-l", t.lang, "--psm", "3")
	cmd.Stdin = bytes.NewReader(png)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(out.String()), nil
}

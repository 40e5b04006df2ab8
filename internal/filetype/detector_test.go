package filetype

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func zipWith(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = w.Write([]byte(body))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectBytes(t *testing.T) {
	d := New()

	pdf := d.DetectBytes([]byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n"), "a.bin")
	assert.True(t, pdf.Supported)
	assert.Equal(t, ".pdf", pdf.Extension)

	txt := d.DetectBytes([]byte("This agreement is made between the parties.\n"), "notes")
	assert.True(t, txt.Supported)
	assert.Equal(t, ".txt", txt.Extension)
	assert.Equal(t, MIMEText, txt.MIMEType)

	png := d.DetectBytes([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), "scan.png")
	assert.False(t, png.Supported)
}

func TestDetectZipByExtension(t *testing.T) {
	d := New()
	data := zipWith(t, map[string]string{"readme.md": "hi"})

	assert.False(t, d.DetectBytes(data, "archive.zip").Supported)

	doc := d.DetectBytes(data, "Contract.DOCX")
	assert.True(t, doc.Supported)
	assert.Equal(t, ".docx", doc.Extension)
}

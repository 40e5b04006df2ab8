package filetype

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEText = "text/plain"
)

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string // canonical extension understood by the extractor
	Supported   bool
	Description string
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect detects the actual file type of a file on disk using magic bytes.
func (d *Detector) Detect(filePath string) (*FileTypeInfo, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	return d.resolve(mtype, filePath), nil
}

// DetectBytes detects the type of an upload from its leading bytes.
// The client filename only disambiguates generic ZIP containers.
func (d *Detector) DetectBytes(data []byte, filename string) *FileTypeInfo {
	return d.resolve(mimetype.Detect(data), filename)
}

func (d *Detector) resolve(mtype *mimetype.MIME, name string) *FileTypeInfo {
	mimeType := mtype.String()
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	log.Debug().Str("mime", mimeType).Str("ext", mtype.Extension()).Str("file", name).Msg("detected file type")

	// Some DOCX writers produce archives mimetype only recognizes as ZIP.
	if mimeType == "application/zip" {
		if strings.EqualFold(filepath.Ext(name), ".docx") {
			log.Debug().Str("original", mimeType).Str("override", MIMEDOCX).Msg("overriding ZIP detection based on extension")
			mimeType = MIMEDOCX
		}
	}

	info := &FileTypeInfo{MIMEType: mimeType}
	switch {
	case mimeType == MIMEPDF:
		info.Extension, info.Supported, info.Description = ".pdf", true, "PDF document"
	case mimeType == MIMEDOCX:
		info.Extension, info.Supported, info.Description = ".docx", true, "Microsoft Word document"
	case mtype.Is(MIMEText) || mimeType == MIMEText:
		info.Extension, info.Supported, info.Description = ".txt", true, "Plain text file"
	default:
		info.Description = fmt.Sprintf("Unsupported file type: %s", mimeType)
	}
	return info
}

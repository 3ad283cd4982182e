package internship

import (
	"encoding/base64"
	"errors"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const fallbackMimeType = "application/octet-stream"

// Document is an attached file carried as base64 text.
type Document struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Empty reports whether there is no payload to send.
func (d *Document) Empty() bool {
	return d == nil || strings.TrimSpace(d.Data) == ""
}

// Bytes decodes the payload.
func (d *Document) Bytes() ([]byte, error) {
	if d.Empty() {
		return nil, errors.New("document is empty")
	}
	return base64.StdEncoding.DecodeString(d.Data)
}

// EncodeDocument turns raw file content into a Document. The MIME type is
// sniffed from the content and falls back to the file extension.
func EncodeDocument(raw []byte, filename string) (*Document, error) {
	if len(raw) == 0 {
		return nil, errors.New("could not encode an empty file")
	}

	mimeType := detectMimeType(raw, filename)

	return &Document{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(raw),
	}, nil
}

func detectMimeType(raw []byte, filename string) string {
	detected := mimetype.Detect(raw)
	if detected != nil && !detected.Is(fallbackMimeType) && !detected.Is("text/plain") {
		return detected.String()
	}

	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}

	if detected != nil {
		return detected.String()
	}
	return fallbackMimeType
}

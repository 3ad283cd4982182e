package local

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/spigell/internify/internal/internship"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// maxResumeText caps the extracted text; resumes are a few pages at most.
const maxResumeText = 1 << 20

// resumeText extracts plain text from a PDF, DOCX or text resume.
func resumeText(doc *internship.Document) (string, error) {
	raw, err := doc.Bytes()
	if err != nil {
		return "", fmt.Errorf("decode resume: %w", err)
	}

	mimeType := strings.ToLower(strings.TrimSpace(strings.SplitN(doc.MimeType, ";", 2)[0]))
	switch {
	case mimeType == mimePDF:
		return pdfText(raw)
	case mimeType == mimeDOCX, mimeType == "application/zip":
		return docxText(raw)
	case strings.HasPrefix(mimeType, "text/"):
		return string(raw), nil
	default:
		return "", fmt.Errorf("unsupported resume type: %s", doc.MimeType)
	}
}

func pdfText(raw []byte) (text string, err error) {
	// The pdf reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	data, err := io.ReadAll(io.LimitReader(plain, maxResumeText))
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return string(data), nil
}

// docxText collects the text runs of word/document.xml.
func docxText(raw []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open docx body: %w", err)
		}
		defer rc.Close()

		return xmlText(io.LimitReader(rc, maxResumeText))
	}

	return "", errors.New("docx has no word/document.xml")
}

func xmlText(r io.Reader) (string, error) {
	var b strings.Builder
	decoder := xml.NewDecoder(r)
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("parse docx body: %w", err)
		}

		switch t := token.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			// paragraph end
			if t.Name.Local == "p" {
				b.WriteByte('\n')
			}
		}
	}
}

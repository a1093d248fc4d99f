package ingestion

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// Media types accepted for uploaded documents.
const (
	MediaPDF   = "application/pdf"
	MediaDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaPlain = "text/plain"
)

// ErrUnsupportedMedia is returned by a TextExtractor for media types it cannot read.
var ErrUnsupportedMedia = errors.New("unsupported media type")

// TextExtractor turns document bytes into text.
type TextExtractor interface {
	ExtractText(data []byte, mediaType string) (string, error)
}

// DocumentExtractor reads PDF, DOCX and plain text uploads.
type DocumentExtractor struct{}

// ExtractText dispatches on the declared media type, sniffing the bytes when the
// declaration is missing or generic.
func (DocumentExtractor) ExtractText(data []byte, mediaType string) (string, error) {
	switch ResolveMediaType(mediaType, data) {
	case MediaPDF:
		return extractPDF(data)
	case MediaDOCX:
		return extractDOCX(data)
	case MediaPlain:
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, mediaType)
	}
}

// ResolveMediaType normalizes a declared media type, falling back to content sniffing.
func ResolveMediaType(declared string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	switch clean {
	case MediaPDF, MediaDOCX, MediaPlain:
		return clean
	case "", "application/octet-stream", "application/zip", "binary/octet-stream":
	default:
		return clean
	}

	detected := mimetype.Detect(data)
	switch {
	case detected.Is(MediaPDF):
		return MediaPDF
	case detected.Is(MediaDOCX):
		return MediaDOCX
	case detected.Is(MediaPlain):
		return MediaPlain
	default:
		return clean
	}
}

// extractPDF reads the text layer of a PDF. The pdf package panics on some malformed
// objects; those panics are returned as errors.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open docx body: %w", err)
		}
		defer rc.Close()
		return docxText(rc)
	}
	return "", errors.New("docx has no word/document.xml")
}

// docxText keeps character data and turns paragraph, break and tab elements into whitespace.
func docxText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var sb strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx body: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			if t.Name.Local == "tab" {
				sb.WriteString(" ")
			}
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String(), nil
}

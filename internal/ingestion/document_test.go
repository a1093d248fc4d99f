package ingestion

import (
	"archive/zip"
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/trade-hire/internal/schema"
)

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDocumentExtractor_DOCX(t *testing.T) {
	data := buildDOCX(t,
		`<w:p><w:r><w:t>Maria Lopez</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>HVAC</w:t></w:r><w:r><w:tab/><w:t>Technician</w:t></w:r></w:p>`)

	text, err := DocumentExtractor{}.ExtractText(data, MediaDOCX)
	require.NoError(t, err)
	assert.Equal(t, "Maria Lopez\nHVAC Technician\n", text)
}

func TestDocumentExtractor_DOCXWithoutBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = DocumentExtractor{}.ExtractText(buf.Bytes(), MediaDOCX)
	assert.Error(t, err)
}

func TestDocumentExtractor_PlainText(t *testing.T) {
	text, err := DocumentExtractor{}.ExtractText([]byte("plain resume"), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "plain resume", text)
}

func TestDocumentExtractor_Unsupported(t *testing.T) {
	_, err := DocumentExtractor{}.ExtractText([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, "image/png")
	assert.ErrorIs(t, err, ErrUnsupportedMedia)
}

// buildPDF writes a one-page PDF showing text in Helvetica, with a correct xref table.
func buildPDF(t *testing.T, text string) []byte {
	t.Helper()
	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestDocumentExtractor_PDF(t *testing.T) {
	data := buildPDF(t, "Maria Lopez Journeyman Electrician")

	text, err := DocumentExtractor{}.ExtractText(data, MediaPDF)
	require.NoError(t, err)
	assert.Contains(t, text, "Maria Lopez Journeyman Electrician")

	// Sniffed when the upload carries no usable media type.
	text, err = DocumentExtractor{}.ExtractText(data, "application/octet-stream")
	require.NoError(t, err)
	assert.Contains(t, text, "Journeyman")
}

func TestDocumentExtractor_CorruptPDF(t *testing.T) {
	valid := buildPDF(t, "Maria Lopez Journeyman Electrician")
	tests := []struct {
		name string
		data []byte
	}{
		{name: "truncated", data: []byte("%PDF-1.4 truncated")},
		{name: "cut before trailer", data: valid[:len(valid)/2]},
		{name: "broken dictionary key", data: bytes.Replace(valid, []byte("/Type /Catalog"), []byte("\xffType /Catalog"), 1)},
		{name: "no xref", data: []byte("%PDF-1.4\nnot really a pdf\n%%EOF\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				_, err = DocumentExtractor{}.ExtractText(tt.data, MediaPDF)
			})
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrUnsupportedMedia)
		})
	}
}

func TestDocumentExtractor_MutatedPDFNeverPanics(t *testing.T) {
	valid := buildPDF(t, "Maria Lopez Journeyman Electrician")
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		data := bytes.Clone(valid)
		for n := 1 + rng.Intn(4); n > 0; n-- {
			data[rng.Intn(len(data))] = byte(rng.Intn(256))
		}
		require.NotPanics(t, func() {
			_, _ = DocumentExtractor{}.ExtractText(data, MediaPDF)
		}, "mutation %d", i)
	}
}

func TestNormalize_CorruptPDFIsUnreadable(t *testing.T) {
	valid := buildPDF(t, strings.Repeat("Journeyman electrician ", 4))
	corrupt := bytes.Replace(valid, []byte("/Type /Catalog"), []byte("\xffType /Catalog"), 1)

	_, err := Normalize(Source{Kind: schema.SourceDocument, Data: corrupt, MediaType: MediaPDF}, 1000)
	requireReason(t, err, ReasonExtractFailed)
}

func TestResolveMediaType(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		data     []byte
		want     string
	}{
		{name: "declared pdf", declared: "application/pdf", data: nil, want: MediaPDF},
		{name: "declared with params", declared: "Text/Plain; charset=utf-8", data: nil, want: MediaPlain},
		{name: "sniffed pdf", declared: "application/octet-stream", data: []byte("%PDF-1.7\n%âãÏÓ\n1 0 obj"), want: MediaPDF},
		{name: "sniffed text", declared: "", data: []byte("Journeyman plumber, 12 years"), want: MediaPlain},
		{name: "declared other kept", declared: "image/png", data: []byte("%PDF-1.7"), want: "image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveMediaType(tt.declared, tt.data))
		})
	}
}

package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPDF struct {
	text  string
	err   error
	calls int
}

func (s *stubPDF) ExtractPDF(ctx context.Context, name string, data []byte) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestNewEinoPDFExtractor(t *testing.T) {
	extractor, err := NewEinoPDFExtractor(context.Background())
	require.NoError(t, err, "创建PDF提取器不应返回错误")
	require.NotNil(t, extractor.parser)
	assert.Equal(t, defaultPDFTimeout, extractor.timeout)
}

func TestDocumentTextExtractor_PlainText(t *testing.T) {
	d := NewDocumentTextExtractor(&stubPDF{})
	text, err := d.ExtractText(context.Background(), "cv.TXT", []byte("Go developer"))
	require.NoError(t, err)
	assert.Equal(t, "Go developer", text)

	_, err = d.ExtractText(context.Background(), "cv.md", []byte("   "))
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestDocumentTextExtractor_Unsupported(t *testing.T) {
	d := NewDocumentTextExtractor(&stubPDF{})
	_, err := d.ExtractText(context.Background(), "cv.xls", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedDocument)
}

func TestDocumentTextExtractor_PDFFallback(t *testing.T) {
	primary := &stubPDF{err: errors.New("bad xref")}
	fallback := &stubPDF{text: "recovered text"}
	d := NewDocumentTextExtractor(primary, WithPDFFallback(fallback))

	text, err := d.ExtractText(context.Background(), "cv.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "recovered text", text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestDocumentTextExtractor_PDFEmptyTriggersFallback(t *testing.T) {
	primary := &stubPDF{text: "  "}
	fallback := &stubPDF{err: errors.New("also broken")}
	d := NewDocumentTextExtractor(primary, WithPDFFallback(fallback))

	_, err := d.ExtractText(context.Background(), "cv.pdf", []byte("%PDF"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "also broken")
}

func TestDocumentTextExtractor_PrimaryOnly(t *testing.T) {
	d := NewDocumentTextExtractor(&stubPDF{text: "hello"})
	text, err := d.ExtractText(context.Background(), "cv.pdf", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestDocumentTextExtractor_DOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document xmlns:w="x"><w:body><w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p><w:p><w:r><w:t>Go, Kafka</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	d := NewDocumentTextExtractor(nil)
	text, err := d.ExtractText(context.Background(), "cv.docx", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nGo, Kafka", text)
}

func TestDocumentTextExtractor_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDocumentTextExtractor(nil).ExtractText(ctx, "cv.txt", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

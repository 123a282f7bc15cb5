package extract

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakePDF(text string, err error) *Extractor {
	return &Extractor{readPDF: func(string) (string, error) { return text, err }}
}

func TestExtractTextPDF(t *testing.T) {
	long := strings.Repeat("Experienced Go developer. ", 5)

	got, err := fakePDF("\n"+long+"\n", nil).ExtractText("resume.pdf", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(long), got)
}

func TestExtractTextPDFTooShort(t *testing.T) {
	_, err := fakePDF("   page 1  ", nil).ExtractText("scan.pdf", "application/pdf")
	assert.ErrorIs(t, err, ErrEmptyOrImageOnlyPDF)

	_, err = fakePDF(strings.Repeat("x", MinPDFTextLength-1), nil).ExtractText("scan.pdf", "application/pdf")
	assert.ErrorIs(t, err, ErrEmptyOrImageOnlyPDF)

	_, err = fakePDF(strings.Repeat("x", MinPDFTextLength), nil).ExtractText("ok.pdf", "application/pdf")
	assert.NoError(t, err)
}

func TestExtractTextPDFReaderError(t *testing.T) {
	cause := errors.New("xref table broken")
	_, err := fakePDF("", cause).ExtractText("bad.pdf", "application/pdf")
	assert.ErrorIs(t, err, cause)
}

func TestExtractTextPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("lecture notes\nline two"), 0o600))

	got, err := NewExtractor().ExtractText(path, "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "lecture notes\nline two", got)

	got, err = NewExtractor().ExtractText(path, "text/markdown")
	require.NoError(t, err)
	assert.Equal(t, "lecture notes\nline two", got)
}

func TestExtractTextUnsupported(t *testing.T) {
	for _, mt := range []string{"image/png", "application/msword", ""} {
		_, err := NewExtractor().ExtractText("file", mt)
		assert.ErrorIs(t, err, ErrUnsupportedFileType, mt)
	}
}

func TestExtractTextRealPDFParserRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 not really a pdf"), 0o600))

	_, err := NewExtractor().ExtractText(path, "application/pdf")
	assert.Error(t, err)
}

func TestSaveTempAndRelease(t *testing.T) {
	dir := t.TempDir()

	tmp, err := SaveTemp(strings.NewReader("plain body"), dir, "Notes.TXT", "text/plain")
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(tmp.Path))
	assert.Equal(t, ".txt", filepath.Ext(tmp.Path))
	assert.Equal(t, "text/plain", tmp.MimeType)
	assert.Equal(t, int64(len("plain body")), tmp.Size)

	data, err := os.ReadFile(tmp.Path)
	require.NoError(t, err)
	assert.Equal(t, "plain body", string(data))

	tmp.Release()
	_, err = os.Stat(tmp.Path)
	assert.True(t, os.IsNotExist(err))

	tmp.Release()
}

func TestSaveTempSniffsGenericType(t *testing.T) {
	tmp, err := SaveTemp(strings.NewReader("%PDF-1.7\n..."), t.TempDir(), "upload", "application/octet-stream")
	require.NoError(t, err)
	defer tmp.Release()

	assert.Equal(t, "application/pdf", tmp.MimeType)
}

func TestSaveTempUniqueNames(t *testing.T) {
	dir := t.TempDir()
	a, err := SaveTemp(strings.NewReader("a"), dir, "x.txt", "text/plain")
	require.NoError(t, err)
	defer a.Release()
	b, err := SaveTemp(strings.NewReader("b"), dir, "x.txt", "text/plain")
	require.NoError(t, err)
	defer b.Release()

	assert.NotEqual(t, a.Path, b.Path)
}

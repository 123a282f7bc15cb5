// Package extract turns uploaded files into plain text for the summarizers.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

// MinPDFTextLength is the shortest extracted text accepted from a PDF. Anything
// shorter is almost always a scanned, image-only document.
const MinPDFTextLength = 50

var (
	ErrUnsupportedFileType = errors.New("Unsupported file type. Please upload a PDF or text file.")
	ErrEmptyOrImageOnlyPDF = errors.New("Could not extract text from the PDF. It may be empty or contain only images.")
)

// PDFReader returns the plain text of the PDF at path.
type PDFReader func(path string) (string, error)

type Extractor struct {
	readPDF PDFReader
}

func NewExtractor() *Extractor {
	return NewExtractorWithReader(readPDFText)
}

// NewExtractorWithReader uses readPDF for PDF files instead of the built-in parser.
func NewExtractorWithReader(readPDF PDFReader) *Extractor {
	return &Extractor{readPDF: readPDF}
}

// ExtractText returns the text content of the file at path based on its MIME type.
func (e *Extractor) ExtractText(path, mimeType string) (string, error) {
	mediaType := normalizeMediaType(mimeType)

	switch {
	case mediaType == "application/pdf":
		text, err := e.readPDF(path)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf: %w", err)
		}
		text = strings.TrimSpace(text)
		if utf8.RuneCountInString(text) < MinPDFTextLength {
			return "", ErrEmptyOrImageOnlyPDF
		}
		return text, nil

	case strings.HasPrefix(mediaType, "text/"):
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read text file: %w", err)
		}
		return strings.ToValidUTF8(string(data), ""), nil

	default:
		return "", ErrUnsupportedFileType
	}
}

func normalizeMediaType(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mediaType
}

func readPDFText(path string) (text string, err error) {
	// The parser panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// TempFile is an upload spooled to disk. Release must be called on every exit path.
type TempFile struct {
	Path     string
	MimeType string
	Size     int64
}

// Release removes the file. It is safe to call more than once.
func (f *TempFile) Release() {
	if f == nil || f.Path == "" {
		return
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", f.Path).Msg("Failed to remove upload")
	}
}

// SaveTemp copies src into dir under a random name. declaredType is the
// client-supplied Content-Type; when it is missing or generic the type is
// sniffed from the first bytes.
func SaveTemp(src io.Reader, dir, originalName, declaredType string) (*TempFile, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	mimeType := declaredType
	if mimeType == "" || normalizeMediaType(mimeType) == "application/octet-stream" {
		mimeType = http.DetectContentType(head)
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := &TempFile{Path: f.Name(), MimeType: mimeType}

	size, err := io.Copy(f, io.MultiReader(bytes.NewReader(head), src))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		tmp.Release()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}

	tmp.Size = size
	return tmp, nil
}

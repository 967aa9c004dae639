// Package extract turns uploaded resume and job files into plain text.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"resumefit/internal/errors"

	"github.com/ledongthuc/pdf"
)

// Format identifies a supported document type
type Format string

const (
	FormatText    Format = "text"
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatUnknown Format = "unknown"
)

const docxBody = "word/document.xml"

var textExtensions = map[string]bool{".txt": true, ".text": true, ".md": true, ".markdown": true}

// DetectFormat picks a format from the file extension, falling back to content sniffing
func DetectFormat(name string, data []byte) Format {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case textExtensions[ext]:
		return FormatText
	case ext == ".pdf":
		return FormatPDF
	case ext == ".docx":
		return FormatDOCX
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return FormatPDF
	case bytes.HasPrefix(data, []byte("PK\x03\x04")) && zipHasEntry(data, docxBody):
		return FormatDOCX
	case ext == "" && utf8.Valid(data) && !bytes.ContainsRune(data, 0):
		return FormatText
	}
	return FormatUnknown
}

// Text extracts plain text from an in-memory document.
// The result is normalized to LF line endings and never blank.
func Text(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	format := DetectFormat(name, data)

	var (
		text string
		err  error
	)
	switch format {
	case FormatText:
		text, err = decodeText(data)
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	default:
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedFile,
			fmt.Sprintf("Unsupported file type: %s", displayName(name)), nil).
			WithContext("filename", name)
	}
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to read %s document: %s", format, displayName(name)), err).
			WithContext("filename", name)
	}

	text = normalize(text)
	if strings.TrimSpace(text) == "" {
		return "", errors.NewValidationError(errors.ErrCodeEmptyDocument,
			fmt.Sprintf("No text found in %s", displayName(name)), nil).
			WithContext("filename", name)
	}
	return text, nil
}

// ReadFile reads and extracts a document from disk, rejecting files above maxSize bytes.
// A maxSize of zero disables the limit.
func ReadFile(ctx context.Context, filename string, maxSize int64) (string, error) {
	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot access file: %s", filename), err)
	}
	if info.IsDir() {
		return "", errors.NewValidationError(errors.ErrCodeInvalidInput,
			fmt.Sprintf("Path is a directory, not a file: %s", filename), nil)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return "", errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("File %s is %s, limit is %s", filename, FormatFileSize(info.Size()), FormatFileSize(maxSize)), nil)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	return Text(ctx, filename, data)
}

// ReadAll reads at most maxSize bytes from r and extracts its text
func ReadAll(ctx context.Context, name string, r io.Reader, maxSize int64) (string, error) {
	if maxSize > 0 {
		r = io.LimitReader(r, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to read input", err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return "", errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("Input exceeds the %s limit", FormatFileSize(maxSize)), nil)
	}
	return Text(ctx, name, data)
}

func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("text is not valid UTF-8")
	}
	return string(data), nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") != docxBody {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return docxText(rc)
	}
	return "", fmt.Errorf("%s not found", docxBody)
}

// docxText keeps character data and breaks lines at paragraphs, breaks and tabs
func docxText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.StartElement:
			if t.Name.Local == "tab" {
				buf.WriteByte('\t')
			}
		case xml.EndElement:
			if (t.Name.Local == "p" || t.Name.Local == "br") && buf.Len() > 0 {
				buf.WriteByte('\n')
			}
		}
	}
	return buf.String(), nil
}

func zipHasEntry(data []byte, name string) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == name {
			return true
		}
	}
	return false
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(text)
}

func displayName(name string) string {
	if name == "" || name == "-" {
		return "input"
	}
	return filepath.Base(name)
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

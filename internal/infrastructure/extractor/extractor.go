package extractor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
	"github.com/kirillkom/compliance-assistant/internal/core/ports"
)

// maxSourceBytes caps how much of a stored document is read into memory.
const maxSourceBytes = 64 << 20

type format string

const (
	formatPDF       format = "pdf"
	formatXLSX      format = "xlsx"
	formatPlaintext format = "plaintext"
)

// Extractor reads a stored corpus document and turns it into plain text,
// choosing the parser from the file extension and then the mime type.
type Extractor struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(io.LimitReader(reader, maxSourceBytes+1))
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}
	if len(raw) > maxSourceBytes {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract", fmt.Errorf("%s exceeds %d bytes", doc.Filename, maxSourceBytes))
	}

	var text string
	switch detectFormat(doc.Filename, doc.MimeType) {
	case formatPDF:
		text, err = extractPDF(raw)
	case formatXLSX:
		text, err = extractXLSX(raw)
	default:
		text, err = extractPlaintext(raw, doc.Filename)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func detectFormat(filename, mimeType string) format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return formatPDF
	case ".xlsx", ".xlsm":
		return formatXLSX
	case ".txt", ".md", ".csv", ".json":
		return formatPlaintext
	}
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "application/pdf":
		return formatPDF
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return formatXLSX
	}
	return formatPlaintext
}

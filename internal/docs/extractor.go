// Package docs implements the document text-extraction collaborator.
package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// Extractor pulls text out of claim documents. PDFs go through mupdf; plain
// text files are read directly. Anything else is an extraction failure the
// caller is expected to tolerate.
type Extractor struct {
	baseDir string
	logger  *zap.Logger
}

// NewExtractor creates a document text extractor rooted at baseDir
func NewExtractor(baseDir string, logger *zap.Logger) *Extractor {
	return &Extractor{baseDir: baseDir, logger: logger}
}

// ExtractText returns the text content of a document reference
func (e *Extractor) ExtractText(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := ref
	if e.baseDir != "" && !filepath.IsAbs(ref) {
		path = filepath.Join(e.baseDir, ref)
	}

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("document not found: %s", ref)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.extractPDF(path)
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read document: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported document type: %s", filepath.Ext(path))
	}
}

func (e *Extractor) extractPDF(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var pages []string
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			e.logger.Warn("Failed to extract PDF page",
				zap.String("path", path),
				zap.Int("page", n),
				zap.Error(err))
			continue
		}
		pages = append(pages, text)
	}

	if len(pages) == 0 {
		return "", fmt.Errorf("no text extracted from PDF: %s", filepath.Base(path))
	}

	e.logger.Debug("Extracted PDF text",
		zap.String("path", path),
		zap.Int("pages", len(pages)))

	return strings.Join(pages, "\n"), nil
}

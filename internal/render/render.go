// Package render turns one page of a source document into a textual
// rendering the model can read. The conversion itself is a collaborator;
// the pipeline only depends on the PageRenderer interface.
package render

import (
	"context"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageRenderer converts a single page into text.
type PageRenderer interface {
	// RenderPage returns the textual rendering of one page (1-based index).
	// Failures are reported as *ConversionError.
	RenderPage(ctx context.Context, doc *Document, pageIndex int) (string, error)
}

// ConversionError indicates a page could not be rendered. The pipeline
// skips the page and continues.
type ConversionError struct {
	Page int
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("failed to render page %d: %v", e.Page, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Document is a handle on an opened source PDF.
type Document struct {
	Path      string
	PageCount int
}

// Open validates the input file and reads its page count.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	pageCount, err := api.PageCount(f, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get page count for %s: %w", path, err)
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("document %s has no pages", path)
	}

	return &Document{Path: path, PageCount: pageCount}, nil
}

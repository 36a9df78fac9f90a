package render

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// PopplerRenderer renders pages with pdftotext (poppler-utils). The -layout
// flag preserves the table's column alignment, which is what the extraction
// prompts key off.
type PopplerRenderer struct {
	// Binary overrides the pdftotext path (tests).
	Binary string
}

// NewPopplerRenderer creates a renderer that shells out to pdftotext.
func NewPopplerRenderer() *PopplerRenderer {
	return &PopplerRenderer{}
}

// RenderPage renders a single page to layout-preserved text.
func (r *PopplerRenderer) RenderPage(ctx context.Context, doc *Document, pageIndex int) (string, error) {
	if pageIndex < 1 || pageIndex > doc.PageCount {
		return "", &ConversionError{Page: pageIndex, Err: fmt.Errorf("page out of range (document has %d pages)", doc.PageCount)}
	}

	binary := r.Binary
	if binary == "" {
		binary = "pdftotext"
	}

	// -layout: preserve physical layout
	// -f/-l:   first/last page, both set to the target page
	// "-":     write to stdout
	pageStr := strconv.Itoa(pageIndex)
	cmd := exec.CommandContext(ctx, binary,
		"-layout",
		"-f", pageStr,
		"-l", pageStr,
		doc.Path,
		"-",
	)

	output, err := cmd.Output()
	if err != nil {
		detail := err.Error()
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		return "", &ConversionError{Page: pageIndex, Err: fmt.Errorf("pdftotext failed: %s", detail)}
	}

	text := strings.TrimRight(string(output), "\f\n ")
	return text, nil
}

var _ PageRenderer = (*PopplerRenderer)(nil)

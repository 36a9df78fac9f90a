// Package artifacts writes the run's debug side channel: the detected
// schema, per-page renderings and parsed records, and the run report. These
// files are write-only; the pipeline never reads them back.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AhsanRiaz786/bank-statement-extraction/internal/statement"
)

// Dir is the debug artifact directory for one run.
type Dir struct {
	path string
}

// New creates the artifact directory (and parents) if needed.
func New(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create debug directory: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the root of the artifact directory.
func (d *Dir) Path() string {
	return d.path
}

// SchemaPath returns the path of the serialized detected schema.
func (d *Dir) SchemaPath() string {
	return filepath.Join(d.path, "schema.json")
}

// PageRenderPath returns the path of a page's raw rendering.
func (d *Dir) PageRenderPath(page int) string {
	return filepath.Join(d.path, fmt.Sprintf("page_%03d_render.txt", page))
}

// PageRecordsPath returns the path of a page's parsed records.
func (d *Dir) PageRecordsPath(page int) string {
	return filepath.Join(d.path, fmt.Sprintf("page_%03d_records.json", page))
}

// ReportPath returns the path of the run report.
func (d *Dir) ReportPath() string {
	return filepath.Join(d.path, "report.json")
}

// WriteSchema serializes the detected schema.
func (d *Dir) WriteSchema(schema *statement.Schema) error {
	return d.writeJSON(d.SchemaPath(), schema)
}

// WritePageRender stores one page's raw rendering.
func (d *Dir) WritePageRender(page int, text string) error {
	if err := os.WriteFile(d.PageRenderPath(page), []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write page %d rendering: %w", page, err)
	}
	return nil
}

// WritePageRecords stores one page's parsed records.
func (d *Dir) WritePageRecords(page int, records []statement.Record) error {
	if records == nil {
		records = []statement.Record{}
	}
	return d.writeJSON(d.PageRecordsPath(page), records)
}

// WriteReport stores the run report.
func (d *Dir) WriteReport(report any) error {
	return d.writeJSON(d.ReportPath(), report)
}

func (d *Dir) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

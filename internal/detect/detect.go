// Package detect infers a stable column schema from a bounded prefix of
// pages. The first page that yields a consistent transaction table wins;
// detection failure is fatal for the run because no safe default schema
// exists.
package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AhsanRiaz786/bank-statement-extraction/internal/parser"
	"github.com/AhsanRiaz786/bank-statement-extraction/internal/providers"
	"github.com/AhsanRiaz786/bank-statement-extraction/internal/render"
	"github.com/AhsanRiaz786/bank-statement-extraction/internal/statement"
)

// DefaultPageLimit bounds the schema scan window when not configured.
const DefaultPageLimit = 3

// ErrSchemaNotFound means no page in the scan window yielded a usable
// table schema. Callers must treat this as fatal for the run.
var ErrSchemaNotFound = errors.New("no table schema detected")

// Detector drives the document-conversion and generative collaborators
// across the first pages of a document.
type Detector struct {
	Client      providers.LLMClient
	Renderer    render.PageRenderer
	Model       string
	MaxAttempts int
	CallTimeout time.Duration
	Logger      *slog.Logger
}

// Detection is a successful schema scan. Because the winning model call
// also extracts the winning page's transactions, those rows ride along so
// the pipeline does not re-prompt that page.
type Detection struct {
	Schema        statement.Schema
	SchemaPage    int                  // 1-based page the schema came from
	PageRecords   []statement.FieldMap // transactions extracted from SchemaPage
	RenderedPages map[int]string       // page text for pages consulted, for debug artifacts
}

// response mirrors the detection JSON shape.
type response struct {
	TableFound      bool                 `json:"table_found"`
	Transactions    []statement.FieldMap `json:"transactions"`
	ColumnStructure struct {
		ColumnOrder  []statement.ColumnDescriptor `json:"column_order"`
		TotalColumns int                          `json:"total_columns"`
	} `json:"column_structure"`
}

// Detect scans pages 1..pageLimit for a transaction table. The first page
// producing table_found=true with an internally consistent column list wins
// immediately; later pages in the window are not consulted.
func (d *Detector) Detect(ctx context.Context, doc *render.Document, pageLimit int) (*Detection, error) {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	if pageLimit <= 0 {
		pageLimit = DefaultPageLimit
	}
	if pageLimit > doc.PageCount {
		pageLimit = doc.PageCount
	}

	repairer := &parser.Repairer{
		Client:      d.Client,
		MaxAttempts: d.MaxAttempts,
		CallTimeout: d.CallTimeout,
		Logger:      log,
	}

	det := &Detection{RenderedPages: make(map[int]string, pageLimit)}

	for page := 1; page <= pageLimit; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageText, err := d.Renderer.RenderPage(ctx, doc, page)
		if err != nil {
			log.Warn("schema scan: page render failed", "page", page, "error", err)
			continue
		}
		det.RenderedPages[page] = pageText

		var resp response
		classify := func(raw string) parser.Result {
			return classifyDetection(raw, &resp)
		}

		req := providers.CompletionRequest{
			System:      systemPrompt,
			Instruction: buildFirstPagePrompt(pageText),
			Model:       d.Model,
		}
		if _, err := repairer.RunWith(ctx, req, classify); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			log.Warn("schema scan: page exhausted repair attempts", "page", page, "error", err)
			continue
		}

		if !resp.TableFound {
			log.Debug("schema scan: no table on page", "page", page)
			continue
		}

		schema := statement.Schema{TableFound: true, Columns: resp.ColumnStructure.ColumnOrder}
		schema.Normalize()
		if err := schema.Validate(); err != nil {
			// classifyDetection already rejects inconsistent columns, so
			// this only fires on shapes it let through; skip the page.
			log.Warn("schema scan: proposed schema invalid", "page", page, "error", err)
			continue
		}

		det.Schema = schema
		det.SchemaPage = page
		det.PageRecords = resp.Transactions
		log.Info("schema detected", "page", page, "columns", len(schema.Columns))
		return det, nil
	}

	return nil, fmt.Errorf("%w in first %d pages", ErrSchemaNotFound, pageLimit)
}

// classifyDetection decodes and checks one detection response, storing the
// decoded value in out on success. A table_found=false answer is a valid
// response (the page has no table), not a violation.
func classifyDetection(raw string, out *response) parser.Result {
	decoded, ok := parser.Decode(raw)
	if !ok {
		return parser.Garbage(raw)
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return parser.Violation(fmt.Sprintf("top-level JSON is %T, want an object", decoded), raw)
	}
	if _, ok := obj["column_structure"]; !ok {
		return parser.Violation("missing \"column_structure\" key", raw)
	}

	var resp response
	if err := remarshal(obj, &resp); err != nil {
		return parser.Violation(err.Error(), raw)
	}

	if resp.TableFound {
		if len(resp.ColumnStructure.ColumnOrder) == 0 {
			return parser.Violation("table_found is true but column_order is empty", raw)
		}
		positions := make(map[int]bool, len(resp.ColumnStructure.ColumnOrder))
		for _, col := range resp.ColumnStructure.ColumnOrder {
			if col.Position < 1 {
				return parser.Violation(fmt.Sprintf("column %q has invalid position %d", col.HeaderName, col.Position), raw)
			}
			if positions[col.Position] {
				return parser.Violation(fmt.Sprintf("duplicate column position %d", col.Position), raw)
			}
			positions[col.Position] = true
		}
	}

	*out = resp
	return parser.OkResult(resp.Transactions, raw)
}

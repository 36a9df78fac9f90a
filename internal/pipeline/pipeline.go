// Package pipeline orchestrates a run: schema detection over the first
// pages, strictly sequential page extraction with context threading, final
// reconciliation and renumbering, and artifact emission.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AhsanRiaz786/bank-statement-extraction/internal/artifacts"
	"github.com/AhsanRiaz786/bank-statement-extraction/internal/detect"
	"github.com/AhsanRiaz786/bank-statement-extraction/internal/extract"
	"github.com/AhsanRiaz786/bank-statement-extraction/internal/providers"
	"github.com/AhsanRiaz786/bank-statement-extraction/internal/render"
	"github.com/AhsanRiaz786/bank-statement-extraction/internal/statement"
)

// State tracks where a run is in its lifecycle.
type State string

const (
	StateIdle            State = "idle"
	StateDetectingSchema State = "detecting_schema"
	StateExtractingPages State = "extracting_pages"
	StateReconciling     State = "reconciling"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// Config holds the tunables for one run.
type Config struct {
	Model           string
	SchemaPageLimit int
	MaxAttempts     int
	CallTimeout     time.Duration
	DateHints       []string
}

// Pipeline drives one document end to end. A Pipeline is single-use: state
// belongs to the run.
type Pipeline struct {
	Client    providers.LLMClient
	Renderer  render.PageRenderer
	Artifacts *artifacts.Dir // optional debug side channel
	Config    Config
	Logger    *slog.Logger

	state State
}

// PageError records a page-level problem that did not abort the run.
type PageError struct {
	Page  int    `json:"page"`
	Stage string `json:"stage"` // "render" or "extract"
	Error string `json:"error"`
}

// Report summarizes one run for the debug side channel.
type Report struct {
	RunID           string      `json:"run_id"`
	State           State       `json:"state"`
	DocumentPath    string      `json:"document_path"`
	PageCount       int         `json:"page_count"`
	SchemaPage      int         `json:"schema_page,omitempty"`
	PagesExtracted  int         `json:"pages_extracted"`
	PagesSkipped    int         `json:"pages_skipped"`
	Records         int         `json:"records"`
	DegradedRecords int         `json:"degraded_records"`
	PageErrors      []PageError `json:"page_errors,omitempty"`
}

// Result is a completed run.
type Result struct {
	Records []statement.Record
	Schema  statement.Schema
	Report  Report
}

// State returns the run's current lifecycle state.
func (p *Pipeline) State() State {
	if p.state == "" {
		return StateIdle
	}
	return p.state
}

// Run executes the pipeline over the whole document. Page-level failures
// are absorbed into the report; only schema detection failure and
// cancellation are fatal.
func (p *Pipeline) Run(ctx context.Context, doc *render.Document) (*Result, error) {
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}

	report := Report{
		RunID:        uuid.New().String(),
		DocumentPath: doc.Path,
		PageCount:    doc.PageCount,
	}
	log.Info("starting run", "run_id", report.RunID, "document", doc.Path, "pages", doc.PageCount)

	// Phase 1: schema detection over the first pages.
	p.state = StateDetectingSchema
	detector := &detect.Detector{
		Client:      p.Client,
		Renderer:    p.Renderer,
		Model:       p.Config.Model,
		MaxAttempts: p.Config.MaxAttempts,
		CallTimeout: p.Config.CallTimeout,
		Logger:      log,
	}
	detection, err := detector.Detect(ctx, doc, p.Config.SchemaPageLimit)
	if err != nil {
		p.state = StateFailed
		report.State = StateFailed
		p.writeReport(&report, log)
		if errors.Is(err, detect.ErrSchemaNotFound) {
			return nil, fmt.Errorf("schema detection failed: %w", err)
		}
		return nil, err
	}
	report.SchemaPage = detection.SchemaPage

	if p.Artifacts != nil {
		if err := p.Artifacts.WriteSchema(&detection.Schema); err != nil {
			log.Warn("failed to write schema artifact", "error", err)
		}
		for page, text := range detection.RenderedPages {
			if err := p.Artifacts.WritePageRender(page, text); err != nil {
				log.Warn("failed to write page rendering", "page", page, "error", err)
			}
		}
	}

	// Phase 2: sequential extraction, threading the context page to page.
	p.state = StateExtractingPages
	extractor := &extract.Extractor{
		Client:      p.Client,
		Model:       p.Config.Model,
		MaxAttempts: p.Config.MaxAttempts,
		CallTimeout: p.Config.CallTimeout,
		DateHints:   p.Config.DateHints,
		Logger:      log,
	}

	var all []statement.Record
	pageCtx := statement.PageContext{PageIndex: detection.SchemaPage}

	// The detection call already extracted the schema page's rows.
	records, updated := extractor.Assemble(detection.PageRecords, &detection.Schema, pageCtx)
	all = append(all, records...)
	pageCtx = updated
	report.PagesExtracted++
	p.writePageRecords(detection.SchemaPage, records, log)

	for page := detection.SchemaPage + 1; page <= doc.PageCount; page++ {
		// Cancellation is checked only at page boundaries; one page is
		// bounded by the attempt limit.
		if err := ctx.Err(); err != nil {
			p.state = StateFailed
			report.State = StateFailed
			p.writeReport(&report, log)
			return nil, err
		}

		pageText, err := p.Renderer.RenderPage(ctx, doc, page)
		if err != nil {
			log.Warn("page render failed, skipping", "page", page, "error", err)
			report.PagesSkipped++
			report.PageErrors = append(report.PageErrors, PageError{Page: page, Stage: "render", Error: err.Error()})
			continue
		}
		if p.Artifacts != nil {
			if err := p.Artifacts.WritePageRender(page, pageText); err != nil {
				log.Warn("failed to write page rendering", "page", page, "error", err)
			}
		}

		pageCtx.PageIndex = page
		records, updated, err := extractor.Extract(ctx, pageText, &detection.Schema, pageCtx)
		if err != nil {
			if ctx.Err() != nil {
				p.state = StateFailed
				report.State = StateFailed
				p.writeReport(&report, log)
				return nil, ctx.Err()
			}
			// Exhausted repair attempts: the page contributes nothing, the
			// run continues.
			log.Warn("page extraction failed, continuing", "page", page, "error", err)
			report.PagesSkipped++
			report.PageErrors = append(report.PageErrors, PageError{Page: page, Stage: "extract", Error: err.Error()})
			p.writePageRecords(page, nil, log)
			continue
		}

		all = append(all, records...)
		pageCtx = updated
		report.PagesExtracted++
		p.writePageRecords(page, records, log)
		log.Debug("page extracted", "page", page, "records", len(records))
	}

	// Phase 3: close the run.
	p.state = StateReconciling
	if pageCtx.PendingContinuation != nil {
		// An unterminated continuation is emitted, not dropped.
		all = append(all, pageCtx.PendingContinuation.Record)
	}
	for i := range all {
		all[i].TransactionID = i + 1
		if all[i].Degraded {
			report.DegradedRecords++
		}
	}
	report.Records = len(all)

	p.state = StateDone
	report.State = StateDone
	p.writeReport(&report, log)

	log.Info("run complete",
		"run_id", report.RunID,
		"records", report.Records,
		"degraded", report.DegradedRecords,
		"pages_skipped", report.PagesSkipped)

	return &Result{Records: all, Schema: detection.Schema, Report: report}, nil
}

func (p *Pipeline) writePageRecords(page int, records []statement.Record, log *slog.Logger) {
	if p.Artifacts == nil {
		return
	}
	if err := p.Artifacts.WritePageRecords(page, records); err != nil {
		log.Warn("failed to write page records artifact", "page", page, "error", err)
	}
}

func (p *Pipeline) writeReport(report *Report, log *slog.Logger) {
	if p.Artifacts == nil {
		return
	}
	if err := p.Artifacts.WriteReport(report); err != nil {
		log.Warn("failed to write run report", "error", err)
	}
}

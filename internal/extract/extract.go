// Package extract turns one page's rendering plus the detected schema and
// carried-forward context into finalized records and an updated context.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AhsanRiaz786/bank-statement-extraction/internal/normalize"
	"github.com/AhsanRiaz786/bank-statement-extraction/internal/parser"
	"github.com/AhsanRiaz786/bank-statement-extraction/internal/providers"
	"github.com/AhsanRiaz786/bank-statement-extraction/internal/statement"
)

// DefaultBalanceTolerance is the allowed drift when checking running-balance
// continuity; amounts carry two decimals, so anything past a cent is a
// genuine mismatch.
const DefaultBalanceTolerance = 0.01

// Extractor extracts records from single pages.
type Extractor struct {
	Client           providers.LLMClient
	Model            string
	MaxAttempts      int
	CallTimeout      time.Duration
	DateHints        []string
	BalanceTolerance float64
	Logger           *slog.Logger
}

// Extract runs the page through the model (with the repair loop), converts
// the field maps to records, and reconciles them against the incoming
// context. The returned context replaces the incoming one; the incoming
// value is never mutated.
func (e *Extractor) Extract(ctx context.Context, pageText string, schema *statement.Schema, pageCtx statement.PageContext) ([]statement.Record, statement.PageContext, error) {
	log := e.Logger
	if log == nil {
		log = slog.Default()
	}

	repairer := &parser.Repairer{
		Client:      e.Client,
		MaxAttempts: e.MaxAttempts,
		CallTimeout: e.CallTimeout,
		Logger:      log,
	}

	req := providers.CompletionRequest{
		System:      systemPrompt,
		Instruction: buildPagePrompt(pageText, schema, pageCtx),
		Model:       e.Model,
	}
	result, err := repairer.RunWith(ctx, req, func(raw string) parser.Result {
		return parser.Parse(raw, schema)
	})
	if err != nil {
		return nil, pageCtx, fmt.Errorf("page %d: %w", pageCtx.PageIndex, err)
	}

	records, updated := e.Assemble(result.Records, schema, pageCtx)
	return records, updated, nil
}

// Assemble converts already-parsed field maps into reconciled records. The
// pipeline uses it directly for the detection page, whose rows come back
// with the schema in a single model call.
func (e *Extractor) Assemble(fields []statement.FieldMap, schema *statement.Schema, pageCtx statement.PageContext) ([]statement.Record, statement.PageContext) {
	records := make([]statement.Record, 0, len(fields))
	for _, fm := range fields {
		records = append(records, e.toRecord(fm, schema))
	}
	return e.reconcile(records, schema, pageCtx.Clone())
}

// toRecord converts one raw field map into a Record, normalizing every
// value. Monetary fields that fail normalization become null and flag the
// record degraded rather than discarding it.
func (e *Extractor) toRecord(fields statement.FieldMap, schema *statement.Schema) statement.Record {
	rec := statement.Record{}

	for _, col := range schema.Columns {
		value, ok := fields[col.StandardizedField]
		if !ok || value == nil {
			continue
		}

		switch col.StandardizedField {
		case "date":
			rec.Date = normalize.Date(asString(value), e.DateHints)
		case "description":
			rec.Description = normalize.Text(asString(value))
		case "debit":
			rec.Debit = e.money(&rec, value, "debit")
		case "credit":
			rec.Credit = e.money(&rec, value, "credit")
		case "running_balance":
			rec.RunningBalance = e.money(&rec, value, "running_balance")
		case "reference":
			rec.Reference = normalize.Text(asString(value))
		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]string)
			}
			rec.Extra[col.StandardizedField] = normalize.Text(asString(value))
		}
	}

	return rec
}

// money normalizes one monetary value, flagging the record on failure.
func (e *Extractor) money(rec *statement.Record, value any, field string) *float64 {
	switch v := value.(type) {
	case float64:
		return &v
	case string:
		amount, err := normalize.Money(v)
		if err != nil {
			rec.Flag(fmt.Sprintf("unparseable %s %q", field, v))
			return nil
		}
		return &amount
	default:
		rec.Flag(fmt.Sprintf("%s has unexpected type %T", field, value))
		return nil
	}
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/AhsanRiaz786/bank-statement-extraction/internal/providers"
	"github.com/AhsanRiaz786/bank-statement-extraction/internal/statement"
)

func testSchema() *statement.Schema {
	return &statement.Schema{
		TableFound: true,
		Columns: []statement.ColumnDescriptor{
			{Position: 1, HeaderName: "Date", DataType: statement.ColumnDate, StandardizedField: "date"},
			{Position: 2, HeaderName: "Particulars", DataType: statement.ColumnDescription, StandardizedField: "description"},
			{Position: 3, HeaderName: "Withdrawal", DataType: statement.ColumnDebit, StandardizedField: "debit"},
			{Position: 4, HeaderName: "Deposit", DataType: statement.ColumnCredit, StandardizedField: "credit"},
			{Position: 5, HeaderName: "Balance", DataType: statement.ColumnBalance, StandardizedField: "running_balance"},
		},
	}
}

const pageRows = `[
  {"date": "2024-01-01", "description": "SALARY CREDIT", "debit": null, "credit": 50000.00, "running_balance": 75000.00},
  {"date": "2024-01-02", "description": "ATM WITHDRAWAL 1234", "debit": 5000.00, "credit": null, "running_balance": 70000.00}
]`

func extractor(client providers.LLMClient) *Extractor {
	return &Extractor{Client: client, MaxAttempts: 3}
}

func TestExtractBasicPage(t *testing.T) {
	e := extractor(providers.NewMockClient(pageRows))

	records, updated, err := e.Extract(context.Background(), "page text", testSchema(), statement.PageContext{PageIndex: 1})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Description != "SALARY CREDIT" || *records[0].Credit != 50000 {
		t.Errorf("first record = %+v", records[0])
	}
	if updated.LastRunningBalance == nil || *updated.LastRunningBalance != 70000 {
		t.Errorf("LastRunningBalance = %v, want 70000", updated.LastRunningBalance)
	}
	if updated.PendingContinuation != nil {
		t.Error("unexpected pending continuation")
	}
}

func TestExtractDeterministic(t *testing.T) {
	// Same rendering, same schema, empty incoming context: identical output.
	run := func() []statement.Record {
		e := extractor(providers.NewMockClient(pageRows))
		records, _, err := e.Extract(context.Background(), "page text", testSchema(), statement.PageContext{PageIndex: 1})
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		return records
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Description != b[i].Description || a[i].Date != b[i].Date {
			t.Errorf("record %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestExtractDegradedMoney(t *testing.T) {
	rows := `[{"date": "2024-01-03", "description": "CHEQUE DEPOSIT", "debit": null, "credit": "N/A", "running_balance": null}]`
	e := extractor(providers.NewMockClient(rows))

	records, _, err := e.Extract(context.Background(), "page", testSchema(), statement.PageContext{PageIndex: 1})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (degraded, not discarded)", len(records))
	}
	rec := records[0]
	if !rec.Degraded {
		t.Error("record should be degraded")
	}
	if rec.Credit != nil {
		t.Error("unparseable credit should be null")
	}
}

func TestExtractBalanceMismatchFlaggedNotCorrected(t *testing.T) {
	rows := `[{"date": "2024-01-05", "description": "TRANSFER IN", "debit": null, "credit": 500.00, "running_balance": 1400.00}]`
	e := extractor(providers.NewMockClient(rows))

	last := 1000.0
	records, updated, err := e.Extract(context.Background(), "page", testSchema(), statement.PageContext{
		PageIndex:          2,
		LastRunningBalance: &last,
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	rec := records[0]
	if *rec.RunningBalance != 1400.00 {
		t.Errorf("RunningBalance = %v, want 1400 unmodified", *rec.RunningBalance)
	}
	if !rec.Degraded {
		t.Error("mismatched record should be degraded")
	}
	found := false
	for _, reason := range rec.DegradedReasons {
		if strings.Contains(reason, "balance mismatch") {
			found = true
		}
	}
	if !found {
		t.Errorf("reasons = %v, want a balance mismatch entry", rec.DegradedReasons)
	}
	if *updated.LastRunningBalance != 1400.00 {
		t.Errorf("context balance = %v, want reported 1400", *updated.LastRunningBalance)
	}
}

func TestExtractBalanceWithinToleranceNotFlagged(t *testing.T) {
	rows := `[{"date": "2024-01-05", "description": "INTEREST", "debit": null, "credit": 500.00, "running_balance": 1500.00}]`
	e := extractor(providers.NewMockClient(rows))

	last := 1000.0
	records, _, err := e.Extract(context.Background(), "page", testSchema(), statement.PageContext{
		PageIndex:          2,
		LastRunningBalance: &last,
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if records[0].Degraded {
		t.Errorf("record should not be degraded: %v", records[0].DegradedReasons)
	}
}

func TestExtractOpenFragmentBecomesContinuation(t *testing.T) {
	rows := `[
	  {"date": "2024-01-06", "description": "POS PURCHASE GROCERY MART.", "debit": 250.00, "credit": null, "running_balance": 9750.00},
	  {"date": null, "description": "TRANSFER TO SAVINGS ACCOUNT ending in", "debit": null, "credit": null, "running_balance": null}
	]`
	e := extractor(providers.NewMockClient(rows))

	records, updated, err := e.Extract(context.Background(), "page", testSchema(), statement.PageContext{PageIndex: 1})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (fragment deferred)", len(records))
	}
	if updated.PendingContinuation == nil {
		t.Fatal("expected pending continuation")
	}
	if got := updated.PendingContinuation.Record.Description; !strings.HasSuffix(got, "ending in") {
		t.Errorf("continuation description = %q", got)
	}
}

func TestExtractContinuationMerges(t *testing.T) {
	rows := `[
	  {"date": "2024-01-07", "description": "4501 with reference 88812.", "debit": 1000.00, "credit": null, "running_balance": 8750.00},
	  {"date": "2024-01-08", "description": "UTILITY BILL PAYMENT.", "debit": 120.00, "credit": null, "running_balance": 8630.00}
	]`
	e := extractor(providers.NewMockClient(rows))

	bal := 9750.0
	pending := &statement.PartialRecord{Record: statement.Record{
		Description: "TRANSFER TO SAVINGS ACCOUNT ending in",
	}}
	records, updated, err := e.Extract(context.Background(), "page", testSchema(), statement.PageContext{
		PageIndex:           2,
		LastRunningBalance:  &bal,
		PendingContinuation: pending,
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	// Two rows on the page, but the first closes the continuation: exactly
	// one fewer record than treating them as separate entries.
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	merged := records[0]
	want := "TRANSFER TO SAVINGS ACCOUNT ending in 4501 with reference 88812."
	if merged.Description != want {
		t.Errorf("merged description = %q, want %q", merged.Description, want)
	}
	if merged.Debit == nil || *merged.Debit != 1000 {
		t.Errorf("merged debit = %v, want 1000", merged.Debit)
	}
	if updated.PendingContinuation != nil {
		t.Error("continuation should be closed")
	}
}

func TestExtractCompletePendingReleasedUnmerged(t *testing.T) {
	rows := `[{"date": "2024-01-09", "description": "CARD PAYMENT.", "debit": 40.00, "credit": null, "running_balance": 8590.00}]`
	e := extractor(providers.NewMockClient(rows))

	debit := 15.0
	pending := &statement.PartialRecord{Record: statement.Record{
		Date:        "2024-01-08",
		Description: "STANDING ORDER RENT",
		Debit:       &debit,
	}}
	records, updated, err := e.Extract(context.Background(), "page", testSchema(), statement.PageContext{
		PageIndex:           2,
		PendingContinuation: pending,
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (pending released + page record)", len(records))
	}
	if records[0].Description != "STANDING ORDER RENT" {
		t.Errorf("first emitted = %q, want the released pending entry", records[0].Description)
	}
	if updated.PendingContinuation != nil {
		t.Error("pending should be cleared")
	}
}

func TestExtractExtraColumns(t *testing.T) {
	schema := testSchema()
	schema.Columns = append(schema.Columns, statement.ColumnDescriptor{
		Position: 6, HeaderName: "Branch", DataType: statement.ColumnText, StandardizedField: "branch",
	})
	rows := `[{"date": "2024-01-10", "description": "CASH DEPOSIT.", "debit": null, "credit": 300.00, "running_balance": 8890.00, "branch": "  MAIN   ST  "}]`
	e := extractor(providers.NewMockClient(rows))

	records, _, err := e.Extract(context.Background(), "page", schema, statement.PageContext{PageIndex: 1})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got := records[0].Extra["branch"]; got != "MAIN ST" {
		t.Errorf("extra branch = %q, want %q", got, "MAIN ST")
	}
}

func TestExtractRepairExhaustionReturnsError(t *testing.T) {
	e := extractor(providers.NewMockClient("not json at all"))

	_, _, err := e.Extract(context.Background(), "page", testSchema(), statement.PageContext{PageIndex: 4})
	if err == nil {
		t.Fatal("expected error after repair exhaustion")
	}
}

func TestExtractDoesNotMutateIncomingContext(t *testing.T) {
	rows := `[{"date": "2024-01-11", "description": "FEE.", "debit": 10.00, "credit": null, "running_balance": 8880.00}]`
	e := extractor(providers.NewMockClient(rows))

	bal := 8890.0
	in := statement.PageContext{PageIndex: 3, LastRunningBalance: &bal}
	_, _, err := e.Extract(context.Background(), "page", testSchema(), in)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if *in.LastRunningBalance != 8890.0 {
		t.Errorf("incoming context mutated: balance = %v", *in.LastRunningBalance)
	}
}

package parser

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

const validRows = `[
  {"date": "2024-01-01", "description": "SALARY CREDIT", "debit": null, "credit": 50000.00, "running_balance": 75000.00},
  {"date": "2024-01-02", "description": "ATM WITHDRAWAL", "debit": 5000.00, "credit": null, "running_balance": 70000.00}
]`

func TestParseValidArray(t *testing.T) {
	res := Parse(validRows, testSchema())
	if res.Kind != Ok {
		t.Fatalf("Parse() kind = %s, detail = %s", res.Kind, res.Detail)
	}
	if len(res.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(res.Records))
	}
	if res.Records[0]["description"] != "SALARY CREDIT" {
		t.Errorf("description = %v", res.Records[0]["description"])
	}
}

func TestParseFencedOutput(t *testing.T) {
	fenced := "```json\n" + validRows + "\n```"
	res := Parse(fenced, testSchema())
	if res.Kind != Ok {
		t.Fatalf("fenced Parse() kind = %s, detail = %s", res.Kind, res.Detail)
	}
	if len(res.Records) != 2 {
		t.Errorf("got %d records, want 2", len(res.Records))
	}
}

func TestParseSurroundingProse(t *testing.T) {
	noisy := "Here are the transactions you asked for:\n" + validRows + "\nLet me know if you need anything else."
	res := Parse(noisy, testSchema())
	if res.Kind != Ok {
		t.Fatalf("noisy Parse() kind = %s, detail = %s", res.Kind, res.Detail)
	}
}

func TestParseTransactionsWrapper(t *testing.T) {
	wrapped := `{"transactions": ` + validRows + `}`
	res := Parse(wrapped, testSchema())
	if res.Kind != Ok {
		t.Fatalf("wrapped Parse() kind = %s, detail = %s", res.Kind, res.Detail)
	}
	if len(res.Records) != 2 {
		t.Errorf("got %d records, want 2", len(res.Records))
	}
}

func TestParseUnparseable(t *testing.T) {
	for _, raw := range []string{"", "total garbage", "{unterminated"} {
		res := Parse(raw, testSchema())
		if res.Kind != Unparseable {
			t.Errorf("Parse(%q) kind = %s, want unparseable", raw, res.Kind)
		}
	}
}

func TestParseSchemaViolation(t *testing.T) {
	t.Run("missing field", func(t *testing.T) {
		res := Parse(`[{"date": "2024-01-01", "description": "X"}]`, testSchema())
		if res.Kind != SchemaViolation {
			t.Fatalf("kind = %s, want schema_violation", res.Kind)
		}
		if res.Detail == "" {
			t.Error("expected violation detail")
		}
	})

	t.Run("mistyped field", func(t *testing.T) {
		res := Parse(`[{"date": 42, "description": "X", "debit": null, "credit": null, "running_balance": null}]`, testSchema())
		if res.Kind != SchemaViolation {
			t.Errorf("kind = %s, want schema_violation", res.Kind)
		}
	})

	t.Run("wrong top-level shape", func(t *testing.T) {
		res := Parse(`{"rows": []}`, testSchema())
		if res.Kind != SchemaViolation {
			t.Errorf("kind = %s, want schema_violation", res.Kind)
		}
	})

	t.Run("row not an object", func(t *testing.T) {
		res := Parse(`[1, 2, 3]`, testSchema())
		if res.Kind != SchemaViolation {
			t.Errorf("kind = %s, want schema_violation", res.Kind)
		}
	})
}

func TestParseNoSchemaSkipsValidation(t *testing.T) {
	res := Parse(`[{"anything": "goes"}]`, nil)
	if res.Kind != Ok {
		t.Fatalf("kind = %s, want ok", res.Kind)
	}
}

func TestParseMonetaryStringsAllowed(t *testing.T) {
	raw := `[{"date": "2024-01-01", "description": "FEE", "debit": "1,500.00", "credit": null, "running_balance": "68,500.00"}]`
	res := Parse(raw, testSchema())
	if res.Kind != Ok {
		t.Fatalf("kind = %s, detail = %s", res.Kind, res.Detail)
	}
}

func TestRepairerRecoversOnSecondAttempt(t *testing.T) {
	client := providers.NewMockClient(
		"sorry, I cannot do that",
		validRows,
	)
	r := &Repairer{Client: client, MaxAttempts: 3}

	schema := testSchema()
	res, err := r.RunWith(context.Background(), providers.CompletionRequest{Instruction: "extract"}, func(raw string) Result {
		return Parse(raw, schema)
	})
	if err != nil {
		t.Fatalf("RunWith() error = %v", err)
	}
	if res.Kind != Ok || len(res.Records) != 2 {
		t.Fatalf("kind = %s, records = %d", res.Kind, len(res.Records))
	}
	if client.RequestCount() != 2 {
		t.Errorf("request count = %d, want 2", client.RequestCount())
	}

	// The second request must echo the violation.
	second := client.Requests()[1]
	if !strings.Contains(second.Instruction, "IMPORTANT:") {
		t.Error("amended instruction missing correction")
	}
	if !strings.Contains(second.Instruction, "extract") {
		t.Error("amended instruction dropped the original prompt")
	}
}

func TestRepairerExhaustsAttempts(t *testing.T) {
	client := providers.NewMockClient("garbage")
	r := &Repairer{Client: client, MaxAttempts: 2}

	_, err := r.Run(context.Background(), providers.CompletionRequest{Instruction: "extract"})
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if client.RequestCount() != 2 {
		t.Errorf("request count = %d, want 2", client.RequestCount())
	}
}

func TestRepairerModelFailureCountsAsAttempt(t *testing.T) {
	client := providers.NewMockClient(validRows)
	client.ShouldFail = true
	r := &Repairer{Client: client, MaxAttempts: 3}

	_, err := r.Run(context.Background(), providers.CompletionRequest{Instruction: "extract"})
	if err == nil {
		t.Fatal("expected error when the model never responds")
	}
	if client.RequestCount() != 3 {
		t.Errorf("request count = %d, want 3", client.RequestCount())
	}
}

func TestRepairerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := providers.NewMockClient(validRows)
	r := &Repairer{Client: client, MaxAttempts: 3}

	_, err := r.Run(ctx, providers.CompletionRequest{Instruction: "extract"})
	if err == nil {
		t.Fatal("expected context error")
	}
	if client.RequestCount() != 0 {
		t.Errorf("request count = %d, want 0", client.RequestCount())
	}
}

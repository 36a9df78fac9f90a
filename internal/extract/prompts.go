package extract

import (
	"fmt"
	"strings"

	"github.com/AhsanRiaz786/bank-statement-extraction/internal/statement"
)

const systemPrompt = "You are a data extraction engine for bank statements. You respond with JSON only."

// buildPagePrompt builds the per-page instruction. It embeds the detected
// column order so pages without visible headers still map by position, and
// states the open continuation (when one exists) so the model closes it
// instead of starting a duplicate entry.
func buildPagePrompt(pageText string, schema *statement.Schema, pageCtx statement.PageContext) string {
	var b strings.Builder

	b.WriteString("Analyze the bank statement text from a subsequent page provided below. Extract ONLY the transaction line items visible on this page.\n\n")

	b.WriteString("The table structure, detected on an earlier page, is:\n")
	fmt.Fprintf(&b, "- Total columns: %d\n", len(schema.Columns))
	for _, col := range schema.Columns {
		fmt.Fprintf(&b, "- Column %d: %q -> %s data -> %q field\n",
			col.Position, col.HeaderName, col.DataType, col.StandardizedField)
	}

	b.WriteString("\nColumn mapping rules:\n")
	b.WriteString("1. Even if column headers are NOT visible on this page, use the column positions above.\n")
	b.WriteString("2. Map data from each column position to the corresponding standardized field, in this exact order:\n")
	for _, col := range schema.Columns {
		fmt.Fprintf(&b, "   Column %d -> %s (originally %q)\n", col.Position, col.StandardizedField, col.HeaderName)
	}
	b.WriteString("3. Use column position, not header names, for mapping.\n")

	if pc := pageCtx.PendingContinuation; pc != nil {
		b.WriteString("\nOpen continuation from the previous page:\n")
		fmt.Fprintf(&b, "The previous page ended with an unfinished entry whose description so far is %q.\n", pc.Record.Description)
		b.WriteString("If the first rows of this page continue that entry, output them as ONE transaction whose description contains ONLY this page's part of the text (it will be joined to the text above). Do not repeat the previous page's text and do not invent a separate entry for it.\n")
	}

	b.WriteString("\nGeneral instructions:\n")
	b.WriteString("1. Output a single JSON array of transaction objects, no other text or keys.\n")
	b.WriteString("2. Dates must be in YYYY-MM-DD format.\n")
	b.WriteString("3. Monetary values must be numbers with currency symbols removed (e.g., \"Rs.1,250.50\" becomes 1250.50).\n")
	b.WriteString("4. Use null for missing values, and include every field listed above in every object.\n")
	b.WriteString("5. Do NOT extract numbers from descriptions as debit, credit, or balance.\n")
	b.WriteString("6. If the page is blank or is not part of the statement, return an empty array.\n")
	b.WriteString("7. Some transactions span multiple rows; fold all their rows into one transaction.\n")
	b.WriteString("8. If debits and credits share one column, infer the direction from context.\n")

	b.WriteString("\nJSON example (use null for missing values):\n[\n  {")
	for i, col := range schema.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q: %s", col.StandardizedField, exampleValue(col.DataType))
	}
	b.WriteString("}\n]\n")

	b.WriteString("\nExtract from:\n")
	b.WriteString(pageText)

	return b.String()
}

func exampleValue(t statement.ColumnType) string {
	switch t {
	case statement.ColumnDate:
		return `"2024-01-01"`
	case statement.ColumnDebit, statement.ColumnCredit, statement.ColumnBalance, statement.ColumnNumeric:
		return "1000.50"
	default:
		return `"example value"`
	}
}

package detect

import "fmt"

const systemPrompt = "You are a data extraction engine for bank statements. You respond with JSON only."

// firstPagePrompt asks for the page's transactions together with the table's
// column structure. The column positions it reports become the positional
// mapping every later page is extracted with.
const firstPagePrompt = `Analyze the bank statement text below. Identify the transaction table's column headers with their positions, and extract the transaction line items visible on this page.

Instructions:
1. Output a single JSON object with "table_found", "transactions", and "column_structure". Nothing else.
2. Set "table_found" to false (with empty transactions and column_order) if the page is blank or contains no transaction table.
3. Dates must be in YYYY-MM-DD format.
4. Monetary values must be numbers with currency symbols removed (e.g., "Rs.1,250.50" becomes 1250.50).
5. Use null for missing values.
6. Do NOT extract numbers from descriptions as debit, credit, or balance.
7. Some transactions span multiple rows; fold all their rows into one transaction.
8. If debits and credits share one column, infer the direction from context.
9. Record the exact left-to-right position of every column header (1st column = position 1).
10. Map each header to a standardized field name; columns outside the canonical set get a snake_case name of your choosing.
11. Only include fields that actually exist in the document.

JSON shape:
{
  "table_found": true,
  "transactions": [
    {
      "date": "YYYY-MM-DD or null",
      "description": "string or null",
      "debit": 0.0,
      "credit": null,
      "running_balance": 0.0,
      "reference": "string or null"
    }
  ],
  "column_structure": {
    "column_order": [
      {
        "position": 1,
        "header_name": "actual column header",
        "data_type": "date|description|debit|credit|balance|reference|text|numeric",
        "standardized_field": "date|description|debit|credit|running_balance|reference|custom_name"
      }
    ],
    "total_columns": 0
  }
}

Extract from:
%s`

func buildFirstPagePrompt(pageText string) string {
	return fmt.Sprintf(firstPagePrompt, pageText)
}

package extract

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/AhsanRiaz786/bank-statement-extraction/internal/statement"
)

// reconcile applies the post-parse steps in order: close or release the
// pending continuation, check running-balance continuity, and decide
// whether this page's last record stays open into the next page. The
// incoming context is a private clone and is mutated into the result.
func (e *Extractor) reconcile(records []statement.Record, schema *statement.Schema, pageCtx statement.PageContext) ([]statement.Record, statement.PageContext) {
	out := make([]statement.Record, 0, len(records)+1)

	if pending := pageCtx.PendingContinuation; pending != nil {
		if len(records) > 0 && continuesPending(records[0]) {
			out = append(out, mergeContinuation(pending.Record, records[0]))
			records = records[1:]
		} else {
			// The entry was complete after all; release it ahead of this
			// page's records to preserve document order.
			out = append(out, pending.Record)
		}
		pageCtx.PendingContinuation = nil
	}

	out = append(out, records...)

	e.checkBalances(out, &pageCtx)

	// The last record of the page, if structurally open, is deferred into
	// the context instead of being emitted.
	if n := len(out); n > 0 && openFragment(out[n-1]) {
		pageCtx.PendingContinuation = &statement.PartialRecord{Record: out[n-1]}
		out = out[:n-1]
	}

	return out, pageCtx
}

// continuesPending decides whether a page's first record is the tail of the
// previous page's open entry: its description starts mid-sentence, or it
// carries no amounts at all.
func continuesPending(rec statement.Record) bool {
	if !rec.HasAmounts() {
		return true
	}
	return startsMidSentence(rec.Description)
}

// startsMidSentence flags descriptions that open with a lowercase word or a
// bare number: statement entries open with an uppercase token, continuation
// tails rarely do.
func startsMidSentence(s string) bool {
	for _, r := range s {
		return unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return false
}

// openFragment reports whether a record looks like a description fragment
// cut off by the page boundary: text with no amounts that does not end in a
// sentence terminator.
func openFragment(rec statement.Record) bool {
	desc := strings.TrimSpace(rec.Description)
	if desc == "" || rec.HasAmounts() {
		return false
	}
	switch desc[len(desc)-1] {
	case '.', '!', '?', ';':
		return false
	}
	return true
}

// mergeContinuation folds a page's first record into the open entry from
// the previous page. The continuation closes the description; amounts and
// remaining fields come from whichever side has them.
func mergeContinuation(pending, first statement.Record) statement.Record {
	merged := pending

	if first.Description != "" {
		if merged.Description == "" {
			merged.Description = first.Description
		} else {
			merged.Description = merged.Description + " " + first.Description
		}
	}
	if merged.Date == "" {
		merged.Date = first.Date
	}
	if merged.Reference == "" {
		merged.Reference = first.Reference
	}
	if merged.Debit == nil {
		merged.Debit = first.Debit
	}
	if merged.Credit == nil {
		merged.Credit = first.Credit
	}
	if merged.RunningBalance == nil {
		merged.RunningBalance = first.RunningBalance
	}
	for k, v := range first.Extra {
		if merged.Extra == nil {
			merged.Extra = make(map[string]string)
		}
		if _, ok := merged.Extra[k]; !ok {
			merged.Extra[k] = v
		}
	}
	if first.Degraded {
		merged.Degraded = true
		merged.DegradedReasons = append(merged.DegradedReasons, first.DegradedReasons...)
	}

	return merged
}

// checkBalances verifies running-balance continuity record by record.
// Mismatches are reported, never corrected: the document is the source of
// truth, not an assumed formula. The context's last balance advances to the
// final reported balance on the page.
func (e *Extractor) checkBalances(records []statement.Record, pageCtx *statement.PageContext) {
	tolerance := e.BalanceTolerance
	if tolerance <= 0 {
		tolerance = DefaultBalanceTolerance
	}

	last := pageCtx.LastRunningBalance
	for i := range records {
		rec := &records[i]
		if rec.RunningBalance == nil {
			continue
		}
		if last != nil {
			expected := *last
			if rec.Credit != nil {
				expected += *rec.Credit
			}
			if rec.Debit != nil {
				expected -= *rec.Debit
			}
			if math.Abs(expected-*rec.RunningBalance) > tolerance {
				rec.Flag(fmt.Sprintf("balance mismatch: expected %.2f, statement reports %.2f", expected, *rec.RunningBalance))
			}
		}
		v := *rec.RunningBalance
		last = &v
	}

	pageCtx.LastRunningBalance = last
}

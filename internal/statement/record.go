package statement

// FieldMap is one raw row as decoded from model output, keyed by
// standardized field name. Values are whatever JSON produced; the extractor
// normalizes them into a Record.
type FieldMap map[string]any

// Record is one finalized transaction. Monetary fields are pointers so a
// blank column is distinguishable from a zero amount.
type Record struct {
	TransactionID  int               `json:"transaction_id"` // assigned at final aggregation, 1..N
	Date           string            `json:"date,omitempty"` // ISO-8601 or empty
	Description    string            `json:"description"`
	Debit          *float64          `json:"debit,omitempty"`
	Credit         *float64          `json:"credit,omitempty"`
	RunningBalance *float64          `json:"running_balance,omitempty"`
	Reference      string            `json:"reference,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"` // bank-specific columns

	// Degraded marks a record emitted despite a detected inconsistency
	// (unparseable monetary field, balance mismatch). Flagged for audit,
	// never discarded.
	Degraded bool `json:"degraded,omitempty"`
	// DegradedReasons records why a record was flagged, for debug artifacts.
	DegradedReasons []string `json:"degraded_reasons,omitempty"`
}

// Flag marks the record degraded with a reason.
func (r *Record) Flag(reason string) {
	r.Degraded = true
	r.DegradedReasons = append(r.DegradedReasons, reason)
}

// HasAmounts reports whether any monetary field is set.
func (r *Record) HasAmounts() bool {
	return r.Debit != nil || r.Credit != nil || r.RunningBalance != nil
}

// PartialRecord is a record whose content spans a page boundary and must be
// closed by data appearing on the next page.
type PartialRecord struct {
	Record Record `json:"record"`
}

// PageContext is the carried-forward state threaded sequentially across
// pages. It is handed by value into each extraction call and replaced by the
// returned value; pages are processed strictly in order, so it is never
// shared between in-flight calls.
type PageContext struct {
	LastRunningBalance  *float64       `json:"last_running_balance,omitempty"`
	PendingContinuation *PartialRecord `json:"pending_continuation,omitempty"`
	PageIndex           int            `json:"page_index"`
}

// Clone returns a deep copy so a caller can mutate the result without
// aliasing the original's pointers.
func (c PageContext) Clone() PageContext {
	out := PageContext{PageIndex: c.PageIndex}
	if c.LastRunningBalance != nil {
		v := *c.LastRunningBalance
		out.LastRunningBalance = &v
	}
	if c.PendingContinuation != nil {
		rec := c.PendingContinuation.Record
		rec.DegradedReasons = append([]string(nil), c.PendingContinuation.Record.DegradedReasons...)
		if c.PendingContinuation.Record.Extra != nil {
			rec.Extra = make(map[string]string, len(c.PendingContinuation.Record.Extra))
			for k, v := range c.PendingContinuation.Record.Extra {
				rec.Extra[k] = v
			}
		}
		if c.PendingContinuation.Record.Debit != nil {
			v := *c.PendingContinuation.Record.Debit
			rec.Debit = &v
		}
		if c.PendingContinuation.Record.Credit != nil {
			v := *c.PendingContinuation.Record.Credit
			rec.Credit = &v
		}
		if c.PendingContinuation.Record.RunningBalance != nil {
			v := *c.PendingContinuation.Record.RunningBalance
			rec.RunningBalance = &v
		}
		out.PendingContinuation = &PartialRecord{Record: rec}
	}
	return out
}

package domain

// HistoryRecord is one audit entry: a single quote as it was observed,
// whether or not it won the merge. Append-only.
type HistoryRecord struct {
	ID           string         `json:"id"`
	FromCurrency string         `json:"from_currency"`
	ToCurrency   string         `json:"to_currency"`
	Rate         float64        `json:"rate"`
	Timestamp    string         `json:"timestamp"`
	Source       string         `json:"source"`
	Meta         map[string]any `json:"meta"`
}

// NewHistoryRecord builds the audit entry for a quote. The id is derived
// from pair and timestamp, which is unique enough for a per-second feed.
func NewHistoryRecord(q Quote) HistoryRecord {
	meta := q.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	return HistoryRecord{
		ID:           q.From + "_" + q.To + "_" + q.FetchedAt,
		FromCurrency: q.From,
		ToCurrency:   q.To,
		Rate:         q.Rate,
		Timestamp:    q.FetchedAt,
		Source:       q.Source,
		Meta:         meta,
	}
}

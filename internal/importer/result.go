package importer

// ImportSummary carries the per-batch counters reported by the backend.
type ImportSummary struct {
	Total    int `json:"total"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// RecordError lists the validation failures of one submitted record. Index
// is the record's position in the submitted batch.
type RecordError struct {
	Index      int      `json:"index"`
	Identifier string   `json:"identifier,omitempty"`
	Errors     []string `json:"errors"`
}

type SkipReason struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type ImageWarning struct {
	Index   int    `json:"index"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message"`
}

// ImportResult is the backend's report for one batch. The client only reads it.
type ImportResult struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	Summary       ImportSummary  `json:"summary"`
	Errors        []RecordError  `json:"errors"`
	Skipped       []SkipReason   `json:"skipped"`
	ImageWarnings []ImageWarning `json:"imageWarnings"`
}

// Succeeded reports whether at least part of the batch landed.
func (r *ImportResult) Succeeded() bool {
	return r != nil && (r.Success || r.Summary.Imported > 0)
}

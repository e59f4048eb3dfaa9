package importer

import "fmt"

// MaxReportedErrors is how many per-record errors a report lists before
// collapsing the rest into a count.
const MaxReportedErrors = 10

// Report is the display form of an ImportResult.
type Report struct {
	Succeeded     bool           `json:"succeeded"`
	Toast         string         `json:"toast,omitempty"`
	Message       string         `json:"message"`
	Summary       ImportSummary  `json:"summary"`
	Errors        []RecordError  `json:"errors"`
	MoreErrors    int            `json:"more_errors"`
	Skipped       []SkipReason   `json:"skipped"`
	ImageWarnings []ImageWarning `json:"image_warnings"`
}

// BuildReport renders a result for the operator. A partially failed batch
// yields both a toast and the error list.
func BuildReport(r *ImportResult) Report {
	if r == nil {
		return Report{}
	}

	rep := Report{
		Succeeded:     r.Succeeded(),
		Message:       r.Message,
		Summary:       r.Summary,
		Skipped:       r.Skipped,
		ImageWarnings: r.ImageWarnings,
	}
	if rep.Succeeded {
		rep.Toast = fmt.Sprintf("Imported %d of %d records", r.Summary.Imported, r.Summary.Total)
		if r.Message != "" {
			rep.Toast = r.Message
		}
	}

	rep.Errors = r.Errors
	if len(r.Errors) > MaxReportedErrors {
		rep.Errors = r.Errors[:MaxReportedErrors]
		rep.MoreErrors = len(r.Errors) - MaxReportedErrors
	}
	return rep
}

// MoreErrorsText is the line shown under a truncated error list.
func (r Report) MoreErrorsText() string {
	if r.MoreErrors == 0 {
		return ""
	}
	return fmt.Sprintf("... and %d more errors", r.MoreErrors)
}

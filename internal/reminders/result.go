package reminders

import (
	"fmt"
	"time"
)

// Result is the structured outcome of one job pass. Per-record failures are
// split into data errors (bad record, skipped) and delivery errors
// (provider/transport failure, retried naturally on the next poll).
type Result struct {
	Job            string
	Candidates     int
	Dispatched     int
	Updated        int
	Skipped        int
	DataErrors     int
	DeliveryErrors int
	Duration       time.Duration
	Errors         []string
}

// Summary returns a human-readable one-liner for logs and the status API.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"job=%s candidates=%d dispatched=%d updated=%d skipped=%d data_errors=%d delivery_errors=%d dur=%s",
		r.Job, r.Candidates, r.Dispatched, r.Updated, r.Skipped,
		r.DataErrors, r.DeliveryErrors, r.Duration.Round(time.Millisecond))
}

// dataError records a malformed-record failure; the batch continues.
func (r *Result) dataError(format string, args ...any) {
	r.DataErrors++
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// deliveryError records a provider/transport failure; the record stays
// eligible for the next poll.
func (r *Result) deliveryError(format string, args ...any) {
	r.DeliveryErrors++
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// merge combines sequential job passes into one composite result.
func merge(job string, parts ...Result) Result {
	out := Result{Job: job}
	for _, p := range parts {
		out.Candidates += p.Candidates
		out.Dispatched += p.Dispatched
		out.Updated += p.Updated
		out.Skipped += p.Skipped
		out.DataErrors += p.DataErrors
		out.DeliveryErrors += p.DeliveryErrors
		out.Duration += p.Duration
		out.Errors = append(out.Errors, p.Errors...)
	}
	return out
}

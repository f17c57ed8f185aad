package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/Talent5/Mama-Care/internal/notify"
)

// Medications runs the dose reminder pass (every 15 minutes). For each
// active treatment whose course contains today, it resolves the daily dose
// times and dispatches a reminder for any dose whose window contains now.
//
// There is no persisted per-dose marker: if the poll cadence and the ±15min
// window line up unfavorably, a patient can receive the same dose reminder
// on two adjacent polls. That matches the platform's recorded behavior and
// is left as-is until the intended semantics are decided.
func (j *Jobs) Medications(ctx context.Context) Result {
	start := j.now()
	now := j.now().UTC()
	result := Result{Job: "medications"}

	treatments, err := j.store.ActiveTreatments(ctx, midnightUTC(now))
	if err != nil {
		result.dataError("query active treatments: %v", err)
		result.Duration = j.now().Sub(start)
		return result
	}

	for _, t := range treatments {
		if !courseContains(t, now) {
			continue
		}

		for _, ct := range ResolveFrequency(t.Frequency) {
			doseAt := time.Date(now.Year(), now.Month(), now.Day(), ct.Hour, ct.Minute, 0, 0, time.UTC)
			if !InWindow(now, doseAt, DoseTol) {
				continue
			}
			result.Candidates++

			rep, err := j.notifier.Dispatch(ctx, []string{t.PatientID}, doseMessage(t, ct))
			if err != nil {
				j.logger.Warn("dose reminder dispatch failed",
					"medication_id", t.ID, "patient_id", t.PatientID, "error", err)
				result.deliveryError("medication %d: %v", t.ID, err)
				continue
			}
			if rep.Delivered > 0 {
				result.Dispatched++
			} else {
				result.Skipped++
			}
		}
	}

	result.Duration = j.now().Sub(start)
	j.logger.Info("medication reminder pass complete", "summary", result.Summary())
	return result
}

// courseContains reports whether the treatment's [start, end] interval
// contains the instant now, by calendar day.
func courseContains(t Treatment, now time.Time) bool {
	day := midnightUTC(now)
	if day.Before(midnightUTC(t.StartDate)) {
		return false
	}
	if t.EndDate != nil && day.After(midnightUTC(*t.EndDate)) {
		return false
	}
	return true
}

func doseMessage(t Treatment, ct ClockTime) notify.Message {
	return notify.Message{
		Title:    "Medication Reminder",
		Body:     fmt.Sprintf("Time to take %s (%s dose).", t.Name, ct),
		Category: notify.CategoryHealth,
		Data: map[string]string{
			"type":          "medication",
			"medication_id": fmt.Sprintf("%d", t.ID),
			"dose_time":     ct.String(),
		},
	}
}

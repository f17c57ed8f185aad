package reminders

import (
	"context"
	"math"
	"time"
)

const (
	fullTermWeeks = 40
	minWeek       = 1
	maxWeek       = 42
)

// GestationalWeek derives the current pregnancy week from the estimated due
// date. Both dates are normalized to UTC midnight so the result only ever
// changes at a calendar-day boundary, immune to time-of-day and DST jitter.
func GestationalWeek(today, dueDate time.Time) int {
	days := int(midnightUTC(dueDate).Sub(midnightUTC(today)).Hours() / 24)
	week := int(math.Round(fullTermWeeks - float64(days)/7.0))
	if week < minWeek {
		return minWeek
	}
	if week > maxWeek {
		return maxWeek
	}
	return week
}

func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// GestationalAges recomputes the current week for every active pregnant
// patient and writes it back only when it changed. Running it twice in the
// same day is a no-op. Records with a missing due date are logged and
// skipped; they never abort the batch.
func (j *Jobs) GestationalAges(ctx context.Context) Result {
	start := j.now()
	result := Result{Job: "gestational-ages"}

	records, err := j.store.PregnantPatients(ctx)
	if err != nil {
		result.dataError("query pregnant patients: %v", err)
		result.Duration = j.now().Sub(start)
		return result
	}
	result.Candidates = len(records)

	today := j.now()
	for _, rec := range records {
		if rec.DueDate == nil {
			j.logger.Warn("pregnant patient without due date, skipping", "patient_id", rec.PatientID)
			result.dataError("patient %s: missing due date", rec.PatientID)
			continue
		}

		week := GestationalWeek(today, *rec.DueDate)
		if week == rec.CurrentWeek {
			result.Skipped++
			continue
		}

		changed, err := j.store.SetCurrentWeek(ctx, rec.PatientID, week)
		if err != nil {
			result.dataError("patient %s: set current week: %v", rec.PatientID, err)
			continue
		}
		if changed {
			result.Updated++
			j.logger.Info("gestational week updated",
				"patient_id", rec.PatientID, "week", week, "previous", rec.CurrentWeek)
		} else {
			result.Skipped++
		}
	}

	result.Duration = j.now().Sub(start)
	j.logger.Info("gestational age pass complete", "summary", result.Summary())
	return result
}

package reminders

import (
	"context"
	"fmt"

	"github.com/Talent5/Mama-Care/internal/notify"
)

// Checkups nudges patients whose last visit is more than six months old and
// who have no upcoming appointment. The nudge repeats on every daily run by
// design; it stops once the patient books.
func (j *Jobs) Checkups(ctx context.Context) Result {
	start := j.now()
	result := Result{Job: "checkups"}

	cutoff := j.now().UTC().AddDate(0, -checkupOverdueMonths, 0)
	candidates, err := j.store.OverdueCheckups(ctx, cutoff)
	if err != nil {
		result.dataError("query overdue checkups: %v", err)
		result.Duration = j.now().Sub(start)
		return result
	}
	result.Candidates = len(candidates)

	for _, c := range candidates {
		rep, err := j.notifier.Dispatch(ctx, []string{c.PatientID}, checkupMessage(c))
		if err != nil {
			j.logger.Warn("checkup nudge dispatch failed", "patient_id", c.PatientID, "error", err)
			result.deliveryError("patient %s: %v", c.PatientID, err)
			continue
		}
		if rep.Delivered > 0 {
			result.Dispatched++
		} else {
			result.Skipped++
		}
	}

	result.Duration = j.now().Sub(start)
	j.logger.Info("checkup pass complete", "summary", result.Summary())
	return result
}

func checkupMessage(c CheckupCandidate) notify.Message {
	return notify.Message{
		Title: "Checkup Reminder",
		Body: fmt.Sprintf("It has been a while since your last visit (%s). Please schedule a checkup.",
			c.LastVisitAt.UTC().Format("2 Jan 2006")),
		Category: notify.CategoryHealth,
		Data:     map[string]string{"type": "checkup"},
	}
}

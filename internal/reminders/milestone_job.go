package reminders

import (
	"context"
	"fmt"

	"github.com/Talent5/Mama-Care/internal/notify"
)

// Milestones dispatches the care milestone for each pregnant patient whose
// current week has a table entry. No marker is kept: the week value changes
// at most once per calendar day (the recalculation runs in the same daily
// slot, just before this job), so a milestone sends at most once per day.
func (j *Jobs) Milestones(ctx context.Context) Result {
	start := j.now()
	result := Result{Job: "milestones"}

	records, err := j.store.PregnantPatients(ctx)
	if err != nil {
		result.dataError("query pregnant patients: %v", err)
		result.Duration = j.now().Sub(start)
		return result
	}

	for _, rec := range records {
		m, ok := MilestoneForWeek(rec.CurrentWeek)
		if !ok {
			continue
		}
		result.Candidates++

		rep, err := j.notifier.Dispatch(ctx, []string{rec.PatientID}, milestoneMessage(m))
		if err != nil {
			j.logger.Warn("milestone dispatch failed",
				"patient_id", rec.PatientID, "week", rec.CurrentWeek, "error", err)
			result.deliveryError("patient %s: %v", rec.PatientID, err)
			continue
		}
		if rep.Delivered > 0 {
			result.Dispatched++
		} else {
			result.Skipped++
		}
	}

	result.Duration = j.now().Sub(start)
	j.logger.Info("milestone pass complete", "summary", result.Summary())
	return result
}

func milestoneMessage(m Milestone) notify.Message {
	return notify.Message{
		Title:    "Pregnancy Milestone",
		Body:     m.Message,
		Category: notify.CategoryHealth,
		Data: map[string]string{
			"type":     "milestone",
			"week":     fmt.Sprintf("%d", m.Week),
			"category": m.Category,
		},
	}
}

package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Talent5/Mama-Care/internal/notify"
)

// adhocJob is one staff-scheduled one-off reminder, held in the runner's
// table until it fires or is cancelled. Handles are in-process only:
// in-flight ad-hoc reminders are lost on shutdown, consistent with the
// engine's best-effort delivery semantics.
type adhocJob struct {
	id         string
	patientIDs []string
	message    notify.Message
	sendAt     time.Time
	timer      *time.Timer
}

// ScheduleAdHoc schedules a one-off reminder for the given patients at a
// future time and returns a cancellable handle.
func (r *Runner) ScheduleAdHoc(patientIDs []string, msg notify.Message, sendAt time.Time) (string, error) {
	if len(patientIDs) == 0 {
		return "", fmt.Errorf("no recipients")
	}
	if until := time.Until(sendAt); until <= 0 {
		return "", fmt.Errorf("send time %s is in the past", sendAt.Format(time.RFC3339))
	}

	id := uuid.NewString()
	job := &adhocJob{id: id, patientIDs: patientIDs, message: msg, sendAt: sendAt}

	// Insert before arming the timer: fireAdHoc treats absence from the
	// table as "cancelled", so a timer firing ahead of the insert would
	// strand the entry.
	r.mu.Lock()
	r.adhoc[id] = job
	job.timer = time.AfterFunc(time.Until(sendAt), func() { r.fireAdHoc(job) })
	r.mu.Unlock()

	r.logger.Info("ad-hoc reminder scheduled",
		"id", id, "recipients", len(patientIDs), "send_at", sendAt.UTC().Format(time.RFC3339))
	return id, nil
}

// CancelAdHoc removes a pending ad-hoc reminder. Returns false when the
// handle is unknown or the reminder already fired.
func (r *Runner) CancelAdHoc(id string) bool {
	r.mu.Lock()
	job, ok := r.adhoc[id]
	if ok {
		delete(r.adhoc, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	job.timer.Stop()
	r.logger.Info("ad-hoc reminder cancelled", "id", id)
	return true
}

// fireAdHoc dispatches a due ad-hoc reminder and drops it from the table.
func (r *Runner) fireAdHoc(job *adhocJob) {
	r.mu.Lock()
	_, live := r.adhoc[job.id]
	delete(r.adhoc, job.id)
	r.mu.Unlock()
	if !live {
		return // cancelled between timer fire and lock
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rep, err := r.notifier.Dispatch(ctx, job.patientIDs, job.message)
	if err != nil {
		r.logger.Warn("ad-hoc reminder dispatch failed", "id", job.id, "error", err)
		return
	}
	r.logger.Info("ad-hoc reminder dispatched",
		"id", job.id, "delivered", rep.Delivered, "no_token", rep.NoToken, "opted_out", rep.OptedOut)
}

// cancelAllAdHoc stops every pending timer. Called on runner shutdown.
func (r *Runner) cancelAllAdHoc() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, job := range r.adhoc {
		job.timer.Stop()
		delete(r.adhoc, id)
	}
}

package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/Talent5/Mama-Care/internal/notify"
)

// reminderClass is one of the two appointment reminder kinds.
type reminderClass struct {
	name string
	lead time.Duration
	tol  time.Duration
}

var (
	class24h = reminderClass{name: "24h", lead: Lead24h, tol: Tol24h}
	class1h  = reminderClass{name: "1h", lead: Lead1h, tol: Tol1h}
)

// eligible reports whether an appointment's marker still allows this class.
func (c reminderClass) eligible(m Marker) bool {
	switch c.name {
	case "24h":
		return m != Marker24hSent && m != MarkerBothSent
	default:
		return m != Marker1hSent && m != MarkerBothSent
	}
}

// next returns the marker to store after a successful send of this class.
func (c reminderClass) next(m Marker) Marker {
	switch c.name {
	case "24h":
		if m == Marker1hSent {
			return MarkerBothSent
		}
		return Marker24hSent
	default:
		if m == Marker24hSent {
			return MarkerBothSent
		}
		return Marker1hSent
	}
}

// Appointments runs the hourly appointment reminder pass: one query per
// reminder class, window match, dispatch, and a marker advance only after
// the dispatcher reports a delivery. Appointments that matched but failed to
// dispatch stay eligible for the next poll.
func (j *Jobs) Appointments(ctx context.Context) Result {
	start := j.now()
	r24 := j.appointmentClass(ctx, class24h)
	r1 := j.appointmentClass(ctx, class1h)
	result := merge("appointments", r24, r1)
	result.Duration = j.now().Sub(start)
	j.logger.Info("appointment reminder pass complete", "summary", result.Summary())
	return result
}

func (j *Jobs) appointmentClass(ctx context.Context, class reminderClass) Result {
	now := j.now()
	result := Result{Job: "appointments-" + class.name}

	// Candidates whose scheduled time puts the reminder target inside the
	// window right now.
	from := now.Add(class.lead - class.tol)
	to := now.Add(class.lead + class.tol)
	candidates, err := j.store.AppointmentsBetween(ctx, from, to)
	if err != nil {
		result.dataError("query %s candidates: %v", class.name, err)
		return result
	}

	for _, appt := range candidates {
		if !class.eligible(appt.Reminder) {
			continue
		}
		if !InWindow(now, reminderTarget(appt.ScheduledAt, class.lead), class.tol) {
			continue
		}
		result.Candidates++

		rep, err := j.notifier.Dispatch(ctx, []string{appt.PatientID}, appointmentMessage(appt, class))
		if err != nil {
			// Marker untouched: the appointment stays eligible next poll.
			j.logger.Warn("appointment reminder dispatch failed",
				"appointment_id", appt.ID, "class", class.name, "error", err)
			result.deliveryError("appointment %d: %v", appt.ID, err)
			continue
		}
		if rep.Delivered == 0 {
			// No token or opted out: nothing was sent, nothing to mark.
			result.Skipped++
			continue
		}

		advanced, err := j.store.AdvanceMarker(ctx, appt.ID, appt.Reminder, class.next(appt.Reminder))
		if err != nil {
			result.dataError("appointment %d: advance marker: %v", appt.ID, err)
			continue
		}
		if !advanced {
			j.logger.Warn("reminder marker moved underneath us",
				"appointment_id", appt.ID, "expected", appt.Reminder)
		}
		result.Dispatched++
	}
	return result
}

func appointmentMessage(appt Appointment, class reminderClass) notify.Message {
	when := appt.ScheduledAt.UTC().Format("Mon, 2 Jan at 15:04")
	lead := "tomorrow"
	if class.name == "1h" {
		lead = "in about an hour"
	}
	return notify.Message{
		Title:    "Appointment Reminder",
		Body:     fmt.Sprintf("Your appointment with %s is %s (%s).", appt.ProviderName, lead, when),
		Category: notify.CategoryHealth,
		Data: map[string]string{
			"type":           "appointment",
			"appointment_id": fmt.Sprintf("%d", appt.ID),
		},
	}
}

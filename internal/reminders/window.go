package reminders

import "time"

// InWindow reports whether now falls within tolerance of target:
// |now − target| <= tolerance.
func InWindow(now, target time.Time, tolerance time.Duration) bool {
	diff := now.Sub(target)
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// reminderTarget returns the instant a reminder class becomes due for an
// appointment scheduled at t: lead time before the appointment.
func reminderTarget(t time.Time, lead time.Duration) time.Time {
	return t.Add(-lead)
}

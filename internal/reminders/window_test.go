package reminders

import (
	"testing"
	"time"
)

func TestInWindow(t *testing.T) {
	target := mustTime("2025-03-10T09:00:00Z")

	tests := []struct {
		name string
		now  time.Time
		tol  time.Duration
		want bool
	}{
		{"exactly on target", target, time.Hour, true},
		{"just inside before", target.Add(-59 * time.Minute), time.Hour, true},
		{"just inside after", target.Add(59 * time.Minute), time.Hour, true},
		{"exactly on boundary before", target.Add(-time.Hour), time.Hour, true},
		{"exactly on boundary after", target.Add(time.Hour), time.Hour, true},
		{"just outside before", target.Add(-61 * time.Minute), time.Hour, false},
		{"just outside after", target.Add(61 * time.Minute), time.Hour, false},
		{"tight tolerance inside", target.Add(10 * time.Minute), 15 * time.Minute, true},
		{"tight tolerance outside", target.Add(16 * time.Minute), 15 * time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InWindow(tt.now, target, tt.tol); got != tt.want {
				t.Errorf("InWindow(%s, %s, %s) = %v, want %v",
					tt.now.Format(time.RFC3339), target.Format(time.RFC3339), tt.tol, got, tt.want)
			}
		})
	}
}

func TestReminderTarget(t *testing.T) {
	sched := mustTime("2025-03-10T09:00:00Z")

	if got := reminderTarget(sched, Lead24h); !got.Equal(mustTime("2025-03-09T09:00:00Z")) {
		t.Errorf("24h target = %s", got.Format(time.RFC3339))
	}
	if got := reminderTarget(sched, Lead1h); !got.Equal(mustTime("2025-03-10T08:00:00Z")) {
		t.Errorf("1h target = %s", got.Format(time.RFC3339))
	}
}

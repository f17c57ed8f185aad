package reminders

import (
	"context"
	"testing"
	"time"
)

func testTreatment(frequency string, start time.Time, end *time.Time) Treatment {
	return Treatment{
		ID:        7,
		PatientID: "p1",
		Name:      "Iron supplement",
		Frequency: frequency,
		StartDate: start,
		EndDate:   end,
	}
}

func TestMedicationReminderFiresInsideDoseWindow(t *testing.T) {
	start := mustTime("2025-03-01T00:00:00Z")
	store := &fakeStore{treatments: []Treatment{testTreatment("twice daily", start, nil)}}
	notifier := newFakeNotifier()

	// 09:05 is inside the ±15min window of the 09:00 dose.
	jobs := newTestJobs(store, notifier, mustTime("2025-03-10T09:05:00Z"))
	result := jobs.Medications(context.Background())
	if result.Dispatched != 1 {
		t.Fatalf("Dispatched = %d, want 1", result.Dispatched)
	}
	if len(notifier.calls) != 1 || notifier.calls[0].patientIDs[0] != "p1" {
		t.Fatalf("unexpected dispatch calls: %+v", notifier.calls)
	}
}

func TestMedicationReminderQuietBetweenDoses(t *testing.T) {
	start := mustTime("2025-03-01T00:00:00Z")
	store := &fakeStore{treatments: []Treatment{testTreatment("twice daily", start, nil)}}
	notifier := newFakeNotifier()

	// 12:00 is far from both the 09:00 and 21:00 doses.
	jobs := newTestJobs(store, notifier, mustTime("2025-03-10T12:00:00Z"))
	result := jobs.Medications(context.Background())
	if result.Dispatched != 0 || len(notifier.calls) != 0 {
		t.Errorf("dispatched %d dose reminders outside any window", len(notifier.calls))
	}
}

func TestMedicationCourseBoundaries(t *testing.T) {
	now := mustTime("2025-03-10T09:05:00Z")

	tests := []struct {
		name  string
		start time.Time
		end   *time.Time
		want  int
	}{
		{"course contains today", mustTime("2025-03-01T00:00:00Z"), timePtr(mustTime("2025-03-20T00:00:00Z")), 1},
		{"course ends today", mustTime("2025-03-01T00:00:00Z"), timePtr(mustTime("2025-03-10T00:00:00Z")), 1},
		{"course ended yesterday", mustTime("2025-03-01T00:00:00Z"), timePtr(mustTime("2025-03-09T00:00:00Z")), 0},
		{"course starts tomorrow", mustTime("2025-03-11T00:00:00Z"), nil, 0},
		{"open-ended course", mustTime("2025-03-01T00:00:00Z"), nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{treatments: []Treatment{testTreatment("once daily", tt.start, tt.end)}}
			notifier := newFakeNotifier()
			jobs := newTestJobs(store, notifier, now)

			result := jobs.Medications(context.Background())
			if result.Dispatched != tt.want {
				t.Errorf("Dispatched = %d, want %d", result.Dispatched, tt.want)
			}
		})
	}
}

// There is no per-dose idempotency marker: two polls inside the same dose
// window both dispatch. This pins the recorded platform behavior; see the
// job's doc comment before "fixing" it.
func TestMedicationReminderHasNoPerDoseDedup(t *testing.T) {
	start := mustTime("2025-03-01T00:00:00Z")
	store := &fakeStore{treatments: []Treatment{testTreatment("once daily", start, nil)}}
	notifier := newFakeNotifier()
	jobs := newTestJobs(store, notifier, mustTime("2025-03-10T08:50:00Z"))

	jobs.Medications(context.Background())
	jobs.setNow(mustTime("2025-03-10T09:05:00Z"))
	jobs.Medications(context.Background())

	if len(notifier.calls) != 2 {
		t.Errorf("dispatch count across adjacent polls = %d, want 2 (no per-dose marker)", len(notifier.calls))
	}
}

func timePtr(t time.Time) *time.Time { return &t }

package reminders

import (
	"context"
	"strings"
	"testing"
	"time"
)

// --------------------------------------------------------------------------
// Milestone job
// --------------------------------------------------------------------------

func TestMilestoneJobDispatchesTableEntries(t *testing.T) {
	store := &fakeStore{pregnancies: []PregnancyRecord{
		{PatientID: "at-twenty", CurrentWeek: 20},
		{PatientID: "at-twenty-one", CurrentWeek: 21}, // no table entry
	}}
	notifier := newFakeNotifier()
	jobs := newTestJobs(store, notifier, mustTime("2025-03-10T06:00:00Z"))

	result := jobs.Milestones(context.Background())
	if result.Dispatched != 1 {
		t.Fatalf("Dispatched = %d, want 1", result.Dispatched)
	}
	call := notifier.calls[0]
	if call.patientIDs[0] != "at-twenty" {
		t.Errorf("milestone went to %q, want at-twenty", call.patientIDs[0])
	}
	if !strings.Contains(strings.ToLower(call.msg.Body), "anatomy scan") {
		t.Errorf("week 20 milestone body = %q, should mention the anatomy scan", call.msg.Body)
	}
}

// Daily runs the age recalculation before the milestone lookup, so a
// patient crossing into a milestone week gets the message the same day.
func TestDailyRecalculatesBeforeMilestones(t *testing.T) {
	now := mustTime("2025-03-10T06:00:00Z")
	due := now.AddDate(0, 0, 140) // derives week 20
	store := &fakeStore{pregnancies: []PregnancyRecord{
		{PatientID: "p1", DueDate: &due, CurrentWeek: 19},
	}}
	notifier := newFakeNotifier()
	jobs := newTestJobs(store, notifier, now)

	result := jobs.Daily(context.Background())
	if result.Updated != 1 {
		t.Errorf("Updated = %d, want 1 (week 19 → 20)", result.Updated)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("milestone dispatches = %d, want 1 (week 20 entry)", len(notifier.calls))
	}
}

// --------------------------------------------------------------------------
// Checkup job
// --------------------------------------------------------------------------

func TestCheckupsNudgeOverduePatients(t *testing.T) {
	now := mustTime("2025-03-10T06:30:00Z")
	store := &fakeStore{checkups: []CheckupCandidate{
		{PatientID: "overdue", FullName: "Amina O.", LastVisitAt: now.AddDate(0, -8, 0)},
	}}
	notifier := newFakeNotifier()
	jobs := newTestJobs(store, notifier, now)

	result := jobs.Checkups(context.Background())
	if result.Dispatched != 1 {
		t.Fatalf("Dispatched = %d, want 1", result.Dispatched)
	}

	wantCutoff := now.UTC().AddDate(0, -6, 0)
	if !store.checkupCutoff.Equal(wantCutoff) {
		t.Errorf("checkup cutoff = %s, want %s", store.checkupCutoff, wantCutoff)
	}
}

func TestCheckupsRecentVisitNotNudged(t *testing.T) {
	now := mustTime("2025-03-10T06:30:00Z")
	store := &fakeStore{checkups: []CheckupCandidate{
		{PatientID: "recent", FullName: "Grace K.", LastVisitAt: now.AddDate(0, -2, 0)},
	}}
	notifier := newFakeNotifier()
	jobs := newTestJobs(store, notifier, now)

	result := jobs.Checkups(context.Background())
	if result.Dispatched != 0 || len(notifier.calls) != 0 {
		t.Errorf("nudged a patient seen 2 months ago")
	}
}

// --------------------------------------------------------------------------
// Cleanup job
// --------------------------------------------------------------------------

func TestCleanupResetsOnlyStaleMarkers(t *testing.T) {
	now := mustTime("2025-03-10T00:00:00Z")
	old := testAppointment(MarkerBothSent)
	old.ID = 1
	old.ScheduledAt = now.AddDate(0, 0, -45)
	recent := testAppointment(Marker24hSent)
	recent.ID = 2
	recent.ScheduledAt = now.AddDate(0, 0, -10)

	store := &fakeStore{appts: []Appointment{old, recent}}
	jobs := newTestJobs(store, newFakeNotifier(), now)

	result := jobs.Cleanup(context.Background())
	if result.Updated != 1 {
		t.Fatalf("Updated = %d, want 1", result.Updated)
	}
	if store.appts[0].Reminder != MarkerNone {
		t.Errorf("45-day-old marker = %q, want %q", store.appts[0].Reminder, MarkerNone)
	}
	if store.appts[1].Reminder != Marker24hSent {
		t.Errorf("10-day-old marker = %q, want untouched %q", store.appts[1].Reminder, Marker24hSent)
	}

	wantCutoff := now.Add(-30 * 24 * time.Hour)
	if !store.resetCutoff.Equal(wantCutoff) {
		t.Errorf("cleanup cutoff = %s, want %s", store.resetCutoff, wantCutoff)
	}
}

// --------------------------------------------------------------------------
// Result
// --------------------------------------------------------------------------

func TestResultSummaryAndMerge(t *testing.T) {
	a := Result{Job: "a", Candidates: 2, Dispatched: 1, DataErrors: 1, Errors: []string{"x"}}
	b := Result{Job: "b", Candidates: 3, Dispatched: 2, DeliveryErrors: 1, Errors: []string{"y"}}

	m := merge("combined", a, b)
	if m.Candidates != 5 || m.Dispatched != 3 || m.DataErrors != 1 || m.DeliveryErrors != 1 {
		t.Errorf("merge = %+v", m)
	}
	if len(m.Errors) != 2 {
		t.Errorf("merged errors = %v", m.Errors)
	}
	if !strings.Contains(m.Summary(), "job=combined") {
		t.Errorf("summary = %q", m.Summary())
	}
}

package reminders

import (
	"context"
	"time"

	"github.com/Talent5/Mama-Care/internal/notify"
)

// fakeStore is an in-memory Store for job tests. Query methods emulate the
// SQL filters so window and marker logic can be exercised realistically.
type fakeStore struct {
	appts       []Appointment
	treatments  []Treatment
	pregnancies []PregnancyRecord
	checkups    []CheckupCandidate

	weekWrites    int
	checkupCutoff time.Time
	resetCutoff   time.Time

	err error // when set, every query fails
}

func (s *fakeStore) AppointmentsBetween(_ context.Context, from, to time.Time) ([]Appointment, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []Appointment
	for _, a := range s.appts {
		if !a.ScheduledAt.Before(from) && !a.ScheduledAt.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) AdvanceMarker(_ context.Context, id int, from, to Marker) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for i := range s.appts {
		if s.appts[i].ID == id && s.appts[i].Reminder == from {
			s.appts[i].Reminder = to
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ActiveTreatments(_ context.Context, day time.Time) ([]Treatment, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []Treatment
	for _, t := range s.treatments {
		if day.Before(midnightUTC(t.StartDate)) {
			continue
		}
		if t.EndDate != nil && day.After(midnightUTC(*t.EndDate)) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeStore) PregnantPatients(context.Context) ([]PregnancyRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]PregnancyRecord(nil), s.pregnancies...), nil
}

func (s *fakeStore) SetCurrentWeek(_ context.Context, patientID string, week int) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for i := range s.pregnancies {
		if s.pregnancies[i].PatientID == patientID && s.pregnancies[i].CurrentWeek != week {
			s.pregnancies[i].CurrentWeek = week
			s.weekWrites++
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) OverdueCheckups(_ context.Context, lastVisitBefore time.Time) ([]CheckupCandidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.checkupCutoff = lastVisitBefore
	var out []CheckupCandidate
	for _, c := range s.checkups {
		if c.LastVisitAt.Before(lastVisitBefore) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeStore) ResetStaleMarkers(_ context.Context, scheduledBefore time.Time) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.resetCutoff = scheduledBefore
	var n int64
	for i := range s.appts {
		if s.appts[i].ScheduledAt.Before(scheduledBefore) && s.appts[i].Reminder != MarkerNone {
			s.appts[i].Reminder = MarkerNone
			n++
		}
	}
	return n, nil
}

// fakeNotifier records dispatches and returns a scripted outcome.
type fakeNotifier struct {
	calls  []dispatchCall
	report notify.Report
	err    error
}

type dispatchCall struct {
	patientIDs []string
	msg        notify.Message
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{report: notify.Report{Delivered: 1}}
}

func (n *fakeNotifier) Dispatch(_ context.Context, patientIDs []string, msg notify.Message) (notify.Report, error) {
	if n.err != nil {
		return notify.Report{}, n.err
	}
	n.calls = append(n.calls, dispatchCall{patientIDs: patientIDs, msg: msg})
	return n.report, nil
}

// newTestJobs wires jobs against fakes with a controllable clock.
func newTestJobs(store *fakeStore, notifier *fakeNotifier, now time.Time) *Jobs {
	j := New(store, notifier, nil)
	j.now = func() time.Time { return now }
	return j
}

func (j *Jobs) setNow(now time.Time) {
	j.now = func() time.Time { return now }
}

func mustTime(t string) time.Time {
	parsed, err := time.Parse(time.RFC3339, t)
	if err != nil {
		panic(err)
	}
	return parsed
}

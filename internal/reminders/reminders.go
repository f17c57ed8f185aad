// Package reminders implements the background reminder jobs: appointment
// reminders (24h and 1h classes), medication dose reminders, gestational age
// recalculation, pregnancy milestone messages, overdue checkup nudges, and
// reminder-marker cleanup.
//
// Each job queries candidate records, applies the time-window matcher or
// frequency resolver, hands matches to the notification dispatcher, and
// advances idempotency markers only after a successful send. Per-record
// failures are counted and logged; nothing aborts a batch.
package reminders

import (
	"context"
	"log/slog"
	"time"

	"github.com/Talent5/Mama-Care/internal/notify"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// Reminder windows. Tolerances are at least half the polling cadence so
	// one poll always lands inside the window; the marker, not the window,
	// is the dedup mechanism.
	Lead24h = 24 * time.Hour
	Tol24h  = time.Hour
	Lead1h  = time.Hour
	Tol1h   = 15 * time.Minute
	DoseTol = 15 * time.Minute

	// Appointment markers older than this are reset by the cleanup job.
	markerRetention = 30 * 24 * time.Hour

	// Patients whose last visit is older than this and who have no upcoming
	// appointment get a checkup nudge.
	checkupOverdueMonths = 6
)

// Marker records which appointment reminder classes were already sent.
// Transitions are monotonic and advanced only after a successful dispatch.
type Marker string

const (
	MarkerNone     Marker = "none"
	Marker24hSent  Marker = "24h-sent"
	Marker1hSent   Marker = "1h-sent"
	MarkerBothSent Marker = "both-sent"
)

// --------------------------------------------------------------------------
// Record types
// --------------------------------------------------------------------------

// Appointment is a schedulable event owned by the clinical side; this engine
// only reads it and advances its reminder marker.
type Appointment struct {
	ID           int
	PatientID    string
	ProviderName string
	ScheduledAt  time.Time
	Status       string
	Reminder     Marker
}

// Treatment is a recurring medication course. It carries no per-dose
// idempotency marker.
type Treatment struct {
	ID        int
	PatientID string
	Name      string
	Frequency string
	StartDate time.Time
	EndDate   *time.Time
}

// PregnancyRecord is the pregnancy sub-record of a patient.
type PregnancyRecord struct {
	PatientID   string
	DueDate     *time.Time
	CurrentWeek int
}

// CheckupCandidate is a patient flagged for an overdue checkup nudge.
type CheckupCandidate struct {
	PatientID   string
	FullName    string
	LastVisitAt time.Time
}

// --------------------------------------------------------------------------
// Collaborator contracts
// --------------------------------------------------------------------------

// Store is the record access the jobs need: time-range and flag queries plus
// narrow conditional single-field updates.
type Store interface {
	// AppointmentsBetween returns non-cancelled, non-completed appointments
	// scheduled in [from, to].
	AppointmentsBetween(ctx context.Context, from, to time.Time) ([]Appointment, error)

	// AdvanceMarker moves an appointment's reminder marker from an expected
	// prior value to a new one. Returns false when the stored marker no
	// longer matches (another pass won the race).
	AdvanceMarker(ctx context.Context, appointmentID int, from, to Marker) (bool, error)

	// ActiveTreatments returns treatments whose [start, end] interval
	// contains day, for active patients.
	ActiveTreatments(ctx context.Context, day time.Time) ([]Treatment, error)

	// PregnantPatients returns pregnancy records for active pregnant
	// patients.
	PregnantPatients(ctx context.Context) ([]PregnancyRecord, error)

	// SetCurrentWeek writes the derived gestational week only when it
	// differs from the stored value. Returns true when a write happened.
	SetCurrentWeek(ctx context.Context, patientID string, week int) (bool, error)

	// OverdueCheckups returns active patients whose last visit predates the
	// cutoff and who have no upcoming appointment.
	OverdueCheckups(ctx context.Context, lastVisitBefore time.Time) ([]CheckupCandidate, error)

	// ResetStaleMarkers clears reminder markers on appointments scheduled
	// before the cutoff. Returns the number of rows reset.
	ResetStaleMarkers(ctx context.Context, scheduledBefore time.Time) (int64, error)
}

// Notifier is the dispatch side, satisfied by notify.Dispatcher.
type Notifier interface {
	Dispatch(ctx context.Context, patientIDs []string, msg notify.Message) (notify.Report, error)
}

// --------------------------------------------------------------------------
// Jobs
// --------------------------------------------------------------------------

// Jobs bundles the reminder jobs with their collaborators.
type Jobs struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// New creates the job set.
func New(store Store, notifier Notifier, logger *slog.Logger) *Jobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Jobs{store: store, notifier: notifier, logger: logger, now: time.Now}
}

// Daily runs the gestational age recalculation and then the milestone job.
// The order is load-bearing: milestones read the week the recalculation just
// derived, which keeps a given milestone to at most one send per day.
func (j *Jobs) Daily(ctx context.Context) Result {
	age := j.GestationalAges(ctx)
	ms := j.Milestones(ctx)
	return merge("daily", age, ms)
}

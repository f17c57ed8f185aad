// Package store implements the record access the reminder jobs and the
// notification dispatcher need, over a pgx connection pool. All statements
// are prepared at connection time by internal/db.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Talent5/Mama-Care/internal/notify"
	"github.com/Talent5/Mama-Care/internal/reminders"
)

// Postgres satisfies reminders.Store and notify.RecipientStore.
type Postgres struct {
	pool *pgxpool.Pool
}

// New creates a store over the pool.
func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// --------------------------------------------------------------------------
// reminders.Store
// --------------------------------------------------------------------------

// AppointmentsBetween returns live appointments scheduled in [from, to].
func (s *Postgres) AppointmentsBetween(ctx context.Context, from, to time.Time) ([]reminders.Appointment, error) {
	rows, err := s.pool.Query(ctx, "appointments_between", from, to)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var appts []reminders.Appointment
	for rows.Next() {
		var a reminders.Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.ProviderName, &a.ScheduledAt, &a.Status, &a.Reminder); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

// AdvanceMarker conditionally moves the reminder marker. The WHERE clause
// keys on the expected prior value so a concurrent pass cannot double-send.
func (s *Postgres) AdvanceMarker(ctx context.Context, appointmentID int, from, to reminders.Marker) (bool, error) {
	tag, err := s.pool.Exec(ctx, "advance_reminder_state", appointmentID, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("advance reminder marker: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ActiveTreatments returns treatments whose course contains day, for active
// patients.
func (s *Postgres) ActiveTreatments(ctx context.Context, day time.Time) ([]reminders.Treatment, error) {
	rows, err := s.pool.Query(ctx, "active_treatments", day)
	if err != nil {
		return nil, fmt.Errorf("query active treatments: %w", err)
	}
	defer rows.Close()

	var treatments []reminders.Treatment
	for rows.Next() {
		var t reminders.Treatment
		if err := rows.Scan(&t.ID, &t.PatientID, &t.Name, &t.Frequency, &t.StartDate, &t.EndDate); err != nil {
			return nil, fmt.Errorf("scan treatment: %w", err)
		}
		treatments = append(treatments, t)
	}
	return treatments, rows.Err()
}

// PregnantPatients returns pregnancy records for active pregnant patients.
func (s *Postgres) PregnantPatients(ctx context.Context) ([]reminders.PregnancyRecord, error) {
	rows, err := s.pool.Query(ctx, "pregnant_patients")
	if err != nil {
		return nil, fmt.Errorf("query pregnant patients: %w", err)
	}
	defer rows.Close()

	var records []reminders.PregnancyRecord
	for rows.Next() {
		var r reminders.PregnancyRecord
		if err := rows.Scan(&r.PatientID, &r.DueDate, &r.CurrentWeek); err != nil {
			return nil, fmt.Errorf("scan pregnancy record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// SetCurrentWeek writes the derived week only when it differs from the
// stored value, so the daily recalculation is idempotent and never clobbers
// an identical in-flight patient update.
func (s *Postgres) SetCurrentWeek(ctx context.Context, patientID string, week int) (bool, error) {
	tag, err := s.pool.Exec(ctx, "set_current_week", patientID, week)
	if err != nil {
		return false, fmt.Errorf("set current week: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// OverdueCheckups returns active patients whose last visit predates the
// cutoff and who have no upcoming appointment.
func (s *Postgres) OverdueCheckups(ctx context.Context, lastVisitBefore time.Time) ([]reminders.CheckupCandidate, error) {
	rows, err := s.pool.Query(ctx, "overdue_checkups", lastVisitBefore)
	if err != nil {
		return nil, fmt.Errorf("query overdue checkups: %w", err)
	}
	defer rows.Close()

	var candidates []reminders.CheckupCandidate
	for rows.Next() {
		var c reminders.CheckupCandidate
		if err := rows.Scan(&c.PatientID, &c.FullName, &c.LastVisitAt); err != nil {
			return nil, fmt.Errorf("scan checkup candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// ResetStaleMarkers clears reminder markers on appointments scheduled before
// the cutoff.
func (s *Postgres) ResetStaleMarkers(ctx context.Context, scheduledBefore time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "reset_stale_markers", scheduledBefore)
	if err != nil {
		return 0, fmt.Errorf("reset stale markers: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --------------------------------------------------------------------------
// notify.RecipientStore
// --------------------------------------------------------------------------

// Recipients resolves patients to push recipients.
func (s *Postgres) Recipients(ctx context.Context, patientIDs []string) ([]notify.Recipient, error) {
	rows, err := s.pool.Query(ctx, "dispatch_recipients", patientIDs)
	if err != nil {
		return nil, fmt.Errorf("query recipients: %w", err)
	}
	defer rows.Close()

	var recipients []notify.Recipient
	for rows.Next() {
		var r notify.Recipient
		if err := rows.Scan(&r.PatientID, &r.FullName, &r.Active, &r.Token, &r.HealthOptIn, &r.GeneralOptIn); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}

// ClearToken removes a patient's push token after the provider reported it
// permanently dead.
func (s *Postgres) ClearToken(ctx context.Context, patientID string) error {
	_, err := s.pool.Exec(ctx, "clear_push_token", patientID)
	if err != nil {
		return fmt.Errorf("clear push token: %w", err)
	}
	return nil
}

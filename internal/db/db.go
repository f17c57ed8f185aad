// Package db provides a pgxpool-based connection pool with prepared
// statement registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Talent5/Mama-Care/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers every statement the reminder jobs
// and the dispatcher use. Prepared statements eliminate parse overhead on
// the high-frequency polling queries.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Appointment reminders
		"appointments_between": `
			SELECT id, patient_id, provider_name, scheduled_at, status, reminder_state
			FROM appointments
			WHERE scheduled_at BETWEEN $1 AND $2
			  AND status NOT IN ('cancelled', 'completed')
			ORDER BY scheduled_at`,
		"advance_reminder_state": `
			UPDATE appointments
			SET reminder_state = $3, updated_at = NOW()
			WHERE id = $1 AND reminder_state = $2`,
		"reset_stale_markers": `
			UPDATE appointments
			SET reminder_state = 'none', updated_at = NOW()
			WHERE scheduled_at < $1 AND reminder_state <> 'none'`,

		// Medication reminders
		"active_treatments": `
			SELECT m.id, m.patient_id, m.name, m.frequency, m.start_date, m.end_date
			FROM medications m
			JOIN patients p ON p.id = m.patient_id
			WHERE m.is_active
			  AND p.is_active
			  AND m.start_date <= $1
			  AND (m.end_date IS NULL OR m.end_date >= $1)`,

		// Pregnancy records
		"pregnant_patients": `
			SELECT id, due_date, COALESCE(current_week, 0)
			FROM patients
			WHERE is_active AND is_pregnant`,
		"set_current_week": `
			UPDATE patients
			SET current_week = $2, updated_at = NOW()
			WHERE id = $1 AND current_week IS DISTINCT FROM $2`,

		// Checkup nudges
		"overdue_checkups": `
			SELECT p.id, p.full_name, p.last_visit_at
			FROM patients p
			WHERE p.is_active
			  AND p.last_visit_at < $1
			  AND NOT EXISTS (
				SELECT 1 FROM appointments a
				WHERE a.patient_id = p.id
				  AND a.scheduled_at > NOW()
				  AND a.status NOT IN ('cancelled', 'completed')
			  )`,

		// Dispatch
		"dispatch_recipients": `
			SELECT id, full_name, is_active, COALESCE(push_token, ''),
			       notify_health, notify_general
			FROM patients
			WHERE id = ANY($1)`,
		"clear_push_token": `
			UPDATE patients
			SET push_token = NULL, updated_at = NOW()
			WHERE id = $1`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}

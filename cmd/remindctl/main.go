// Command remindctl is the operator CLI for the Mama-Care reminder engine.
//
// Usage:
//
//	remindctl run appointments
//	remindctl run medications
//	remindctl run daily
//	remindctl run checkups
//	remindctl run cleanup
//	remindctl send --patient <id> --title "Checkup" --body "Please call us"
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Talent5/Mama-Care/internal/config"
	"github.com/Talent5/Mama-Care/internal/db"
	"github.com/Talent5/Mama-Care/internal/notify"
	"github.com/Talent5/Mama-Care/internal/reminders"
	"github.com/Talent5/Mama-Care/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "remindctl",
		Short: "Mama-Care reminder engine operator CLI",
	}

	root.AddCommand(runCmd())
	root.AddCommand(sendCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a reminder job once in the foreground",
	}

	jobs := []struct {
		use   string
		short string
		run   func(j *reminders.Jobs, ctx context.Context) reminders.Result
	}{
		{"appointments", "24h and 1h appointment reminders", (*reminders.Jobs).Appointments},
		{"medications", "Medication dose reminders", (*reminders.Jobs).Medications},
		{"gestation", "Gestational age recalculation", (*reminders.Jobs).GestationalAges},
		{"milestones", "Pregnancy milestone messages", (*reminders.Jobs).Milestones},
		{"daily", "Gestational age recalculation followed by milestones", (*reminders.Jobs).Daily},
		{"checkups", "Overdue checkup nudges", (*reminders.Jobs).Checkups},
		{"cleanup", "Stale reminder marker cleanup", (*reminders.Jobs).Cleanup},
	}

	for _, job := range jobs {
		cmd.AddCommand(&cobra.Command{
			Use:   job.use,
			Short: job.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEngine(func(ctx context.Context, j *reminders.Jobs) error {
					start := time.Now()
					result := job.run(j, ctx)
					logger.Info("Job finished",
						"duration", time.Since(start).Round(time.Millisecond),
						"summary", result.Summary())
					for _, e := range result.Errors {
						logger.Error("job error", "error", e)
					}
					return nil
				})
			},
		})
	}
	return cmd
}

// --------------------------------------------------------------------------
// send command
// --------------------------------------------------------------------------

func sendCmd() *cobra.Command {
	var (
		patients []string
		title    string
		body     string
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Dispatch a manual reminder immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(patients) == 0 {
				return fmt.Errorf("--patient is required")
			}
			return withDispatcher(func(ctx context.Context, d *notify.Dispatcher) error {
				msg := notify.Message{
					Title:    title,
					Body:     body,
					Category: notify.CategoryGeneral,
					Data:     map[string]string{"type": "manual"},
				}
				rep, err := d.Dispatch(ctx, patients, msg)
				if err != nil {
					logger.Error("dispatch error", "error", err)
				}
				logger.Info("Dispatch finished",
					"delivered", rep.Delivered, "no_token", rep.NoToken,
					"opted_out", rep.OptedOut, "invalid", rep.InvalidToken,
					"failed", rep.Failed, "tokens_cleared", rep.TokensCleared)
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&patients, "patient", nil, "Patient ID (repeatable)")
	cmd.Flags().StringVar(&title, "title", "Reminder", "Notification title")
	cmd.Flags().StringVar(&body, "body", "", "Notification body")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withEngine handles config loading, DB connection, pipeline wiring, and
// context cancellation for single job runs.
func withEngine(fn func(ctx context.Context, j *reminders.Jobs) error) error {
	return setup(func(ctx context.Context, records *store.Postgres, dispatcher *notify.Dispatcher) error {
		return fn(ctx, reminders.New(records, dispatcher, logger))
	})
}

// withDispatcher is like withEngine but hands over the dispatcher directly.
func withDispatcher(fn func(ctx context.Context, d *notify.Dispatcher) error) error {
	return setup(func(ctx context.Context, _ *store.Postgres, dispatcher *notify.Dispatcher) error {
		return fn(ctx, dispatcher)
	})
}

func setup(fn func(ctx context.Context, records *store.Postgres, dispatcher *notify.Dispatcher) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	records := store.New(pool.Pool)
	push := notify.NewExpoClient(cfg.ExpoBaseURL, cfg.ExpoAccessToken, cfg.PushRequestsPerMinute, logger)
	dispatcher := notify.NewDispatcher(records, push, cfg.PushBatchSize, logger)
	return fn(ctx, records, dispatcher)
}

package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Dispatcher validates, batches, and sends reminder messages, then
// reconciles delivery receipts. Partial failure is normal: a batch with some
// dead tokens still delivers to the rest. The returned error covers only
// unexpected provider/transport failure; callers log it and move on.
type Dispatcher struct {
	store     RecipientStore
	push      PushProvider
	batchSize int
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. batchSize <= 0 uses the provider
// default.
func NewDispatcher(store RecipientStore, push PushProvider, batchSize int, logger *slog.Logger) *Dispatcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{store: store, push: push, batchSize: batchSize, logger: logger}
}

// target ties a queued push message back to its patient so receipt
// reconciliation can prune the right token.
type target struct {
	patientID string
	token     string
}

// Dispatch sends msg to every addressable patient in patientIDs.
func (d *Dispatcher) Dispatch(ctx context.Context, patientIDs []string, msg Message) (Report, error) {
	var report Report
	if len(patientIDs) == 0 {
		return report, nil
	}

	recipients, err := d.store.Recipients(ctx, patientIDs)
	if err != nil {
		return report, fmt.Errorf("resolve recipients: %w", err)
	}

	// Filter down to addressable recipients. Dropped recipients never reach
	// the provider.
	var msgs []PushMessage
	var targets []target
	for _, r := range recipients {
		switch {
		case !r.Active || r.Token == "":
			report.NoToken++
		case !ValidateToken(r.Token):
			d.logger.Warn("malformed push token, dropping", "patient_id", r.PatientID)
			report.InvalidToken++
		case !optedIn(r, msg.Category):
			report.OptedOut++
		default:
			msgs = append(msgs, PushMessage{
				To:    r.Token,
				Title: msg.Title,
				Body:  msg.Body,
				Data:  msg.Data,
			})
			targets = append(targets, target{patientID: r.PatientID, token: r.Token})
		}
	}
	if len(msgs) == 0 {
		return report, nil
	}

	// Send batches concurrently. Receipt reconciliation for a batch happens
	// inside its goroutine, causally after that batch's send.
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		sendErrs []error
	)
	for start := 0; start < len(msgs); start += d.batchSize {
		end := min(start+d.batchSize, len(msgs))
		batch := msgs[start:end]
		batchTargets := targets[start:end]

		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := d.sendBatch(ctx, batch, batchTargets)
			mu.Lock()
			defer mu.Unlock()
			report.Delivered += r.Delivered
			report.Failed += r.Failed
			report.TokensCleared += r.TokensCleared
			if err != nil {
				sendErrs = append(sendErrs, err)
			}
		}()
	}
	wg.Wait()

	return report, errors.Join(sendErrs...)
}

// sendBatch sends one provider batch and reconciles its receipts.
func (d *Dispatcher) sendBatch(ctx context.Context, batch []PushMessage, targets []target) (Report, error) {
	var report Report

	tickets, err := d.push.Send(ctx, batch)
	if err != nil {
		report.Failed += len(batch)
		return report, fmt.Errorf("push send: %w", err)
	}

	// Tickets come back positionally. A short response leaves the tail
	// unaccounted for; count those as failed.
	var receiptIDs []string
	byReceipt := make(map[string]target, len(tickets))
	for i, t := range targets {
		if i >= len(tickets) {
			report.Failed++
			continue
		}
		ticket := tickets[i]
		switch ticket.Status {
		case ticketStatusOK:
			receiptIDs = append(receiptIDs, ticket.ID)
			byReceipt[ticket.ID] = t
		case ticketStatusError:
			if ticket.Details.Error == ErrDeviceNotRegistered {
				d.clearToken(ctx, t.patientID)
				report.TokensCleared++
			} else {
				d.logger.Warn("push ticket error",
					"patient_id", t.patientID, "error", ticket.Details.Error, "message", ticket.Message)
				report.Failed++
			}
		default:
			report.Failed++
		}
	}
	if len(receiptIDs) == 0 {
		return report, nil
	}

	receipts, err := d.push.Receipts(ctx, receiptIDs)
	if err != nil {
		// The sends themselves were accepted; without receipts we assume
		// delivery rather than retry and double-send.
		d.logger.Warn("receipt fetch failed, assuming delivery", "error", err, "count", len(receiptIDs))
		report.Delivered += len(receiptIDs)
		return report, nil
	}

	for _, id := range receiptIDs {
		t := byReceipt[id]
		receipt, ok := receipts[id]
		if !ok || receipt.Status == ticketStatusOK {
			report.Delivered++
			continue
		}
		if receipt.Details.Error == ErrDeviceNotRegistered {
			d.clearToken(ctx, t.patientID)
			report.TokensCleared++
		} else {
			d.logger.Warn("push receipt error",
				"patient_id", t.patientID, "error", receipt.Details.Error, "message", receipt.Message)
			report.Failed++
		}
	}
	return report, nil
}

func (d *Dispatcher) clearToken(ctx context.Context, patientID string) {
	if err := d.store.ClearToken(ctx, patientID); err != nil {
		d.logger.Warn("clear push token failed", "patient_id", patientID, "error", err)
		return
	}
	d.logger.Info("cleared dead push token", "patient_id", patientID)
}

func optedIn(r Recipient, c Category) bool {
	switch c {
	case CategoryHealth:
		return r.HealthOptIn
	case CategoryGeneral:
		return r.GeneralOptIn
	default:
		return true
	}
}

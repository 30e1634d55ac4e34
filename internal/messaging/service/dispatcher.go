package service

import (
	"context"

	"golang.org/x/time/rate"

	"hackdesk_backend/internal/email"
	"hackdesk_backend/internal/messaging/repository"
	"hackdesk_backend/platform/logger"
)

// SendError is one surfaced per-recipient failure.
type SendError struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// DispatchResult summarizes one bulk send.
type DispatchResult struct {
	Sent   int
	Failed int
	Total  int
	// Errors holds at most maxReportedErrors entries; the communication
	// log has the full record.
	Errors []SendError
}

// dispatcher sends to recipients strictly sequentially, paced by a rate
// limiter so the outbound provider's limit is respected. Failures are
// isolated per recipient and never abort the batch.
type dispatcher struct {
	sender            email.Sender
	repo              repository.Repository
	log               *logger.Logger
	limiter           *rate.Limiter
	maxReportedErrors int
}

func (d *dispatcher) dispatch(ctx context.Context, recipients []repository.Recipient, subjectTpl, bodyTpl string) (DispatchResult, error) {
	result := DispatchResult{Total: len(recipients)}

	r, err := newRenderer(subjectTpl, bodyTpl)
	if err != nil {
		return result, err
	}

	for _, rec := range recipients {
		if err := d.limiter.Wait(ctx); err != nil {
			// Context cancelled mid-batch; report what was attempted.
			return result, err
		}

		sendErr := d.sendOne(ctx, r, rec)
		if sendErr != nil {
			result.Failed++
			if len(result.Errors) < d.maxReportedErrors {
				result.Errors = append(result.Errors, SendError{Email: rec.Email, Error: sendErr.Error()})
			}
			continue
		}
		result.Sent++
	}
	return result, nil
}

// sendOne renders, sends, and logs a single recipient. Any failure is
// recorded in the communication log and returned; it never propagates as a
// batch failure.
func (d *dispatcher) sendOne(ctx context.Context, r *renderer, rec repository.Recipient) error {
	subject, body, err := r.render(rec)
	if err == nil {
		err = d.sender.Send(ctx, rec.Email, subject, body)
	}

	entry := repository.SendLog{
		RecipientEmail: rec.Email,
		Subject:        subject,
		Content:        body,
		Status:         repository.SendStatusSent,
	}
	if err != nil {
		entry.Status = repository.SendStatusFailed
		entry.ErrorMessage = err.Error()
	}
	if logErr := d.repo.LogSend(ctx, entry); logErr != nil {
		// The send already happened; a logging failure must not flip the
		// outcome.
		d.log.DatabaseError("log send", logErr)
	}

	d.log.EmailSend(rec.Email, subject, err == nil, errText(err))
	return err
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

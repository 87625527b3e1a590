// Package notification renders lifecycle emails and sends them through a
// Mailer. Sending is best effort: Send always returns a Result and never an
// error, so a failed email cannot undo the state change that triggered it.
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hackgods/telehealth-coordination/internal/apperror"
	"github.com/hackgods/telehealth-coordination/internal/metrics"
)

type Dispatcher struct {
	mailer  Mailer
	baseURL string
	logger  zerolog.Logger
}

func NewDispatcher(mailer Mailer, baseURL string, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		mailer:  mailer,
		baseURL: baseURL,
		logger:  logger.With().Str("component", "notification").Logger(),
	}
}

func (d *Dispatcher) Send(ctx context.Context, event EventType, p Payload) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failed(fmt.Errorf("%w: panic: %v", apperror.ErrDelivery, r))
		}
		d.record(event, res)
	}()

	canonical, ok := ParseEventType(string(event))
	if !ok {
		return failed(apperror.ErrInvalidType)
	}
	// rendered, logged and counted under the canonical name
	event = canonical

	msg, err := Render(event, p, d.baseURL)
	if err != nil {
		return failed(err)
	}
	if msg.To == "" {
		return failed(fmt.Errorf("%w: no recipient email for %s", apperror.ErrMissingPayload, event))
	}

	// credentials are checked before any connection is attempted
	if !d.mailer.Configured() {
		return failed(apperror.ErrNotConfigured)
	}

	id, err := d.mailer.Send(ctx, msg)
	if err != nil {
		if errors.Is(err, apperror.ErrNotConfigured) {
			return failed(err)
		}
		return failed(fmt.Errorf("%w: %v", apperror.ErrDelivery, err))
	}

	return Result{Delivered: true, MessageID: id}
}

func (d *Dispatcher) record(event EventType, res Result) {
	outcome := outcomeOf(res)
	label := string(event)
	if _, ok := ParseEventType(label); !ok {
		label = "unknown"
	}
	metrics.Notifications.WithLabelValues(label, outcome).Inc()

	if res.Delivered {
		d.logger.Info().
			Str("event", string(event)).
			Str("message_id", res.MessageID).
			Msg("notification delivered")
		return
	}
	d.logger.Warn().
		Err(res.Err).
		Str("event", string(event)).
		Str("outcome", outcome).
		Msg("notification not delivered")
}

func outcomeOf(res Result) string {
	switch {
	case res.Delivered:
		return "delivered"
	case errors.Is(res.Err, apperror.ErrInvalidType):
		return "invalid_type"
	case errors.Is(res.Err, apperror.ErrMissingPayload):
		return "missing_payload"
	case errors.Is(res.Err, apperror.ErrNotConfigured):
		return "not_configured"
	default:
		return "failed"
	}
}

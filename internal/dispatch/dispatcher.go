package dispatch

import (
	"context"
	"time"

	"github.com/prasetya/reminder-gateway/internal/model"
	"github.com/prasetya/reminder-gateway/pkg/logger"
)

// Sender is the slice of the messaging channel the dispatcher needs: an
// opaque "deliver text to this address" primitive.
type Sender interface {
	Send(ctx context.Context, msisdn, text string) error
}

// Outcome is the terminal result of one dispatch attempt.
type Outcome struct {
	Status  model.ReminderStatus // sent or failed
	Reason  string               // set when failed
	Elapsed time.Duration
}

func sent(elapsed time.Duration) Outcome {
	return Outcome{Status: model.ReminderStatusSent, Elapsed: elapsed}
}

func failed(reason string, elapsed time.Duration) Outcome {
	return Outcome{Status: model.ReminderStatusFailed, Reason: reason, Elapsed: elapsed}
}

// Dispatcher resolves one due reminder into a terminal outcome. It never
// touches the store; persisting the result is the scheduler's job, which
// keeps this type testable against a fake sender alone.
type Dispatcher struct {
	sender        Sender
	templates     *TemplateSet
	countryPrefix string
}

func NewDispatcher(sender Sender, templates *TemplateSet, countryPrefix string) *Dispatcher {
	if countryPrefix == "" {
		countryPrefix = DefaultCountryPrefix
	}
	return &Dispatcher{
		sender:        sender,
		templates:     templates,
		countryPrefix: countryPrefix,
	}
}

// Dispatch normalizes the target, renders the body, and sends it. Any
// failure is terminal: the reminder is marked failed on first error, with
// no retry.
func (d *Dispatcher) Dispatch(ctx context.Context, rem *model.Reminder) Outcome {
	start := time.Now()

	msisdn, err := NormalizeMSISDN(rem.Target, d.countryPrefix)
	if err != nil {
		logger.Warn("reminder target not normalizable", "reminder_id", rem.ID, "target", rem.Target, "error", err)
		return failed("invalid target: "+err.Error(), time.Since(start))
	}

	text := rem.Body
	if d.templates != nil {
		text = d.templates.Render(rem.Body)
	}

	if err := d.sender.Send(ctx, msisdn, text); err != nil {
		logger.Error("failed to send reminder", "reminder_id", rem.ID, "msisdn", msisdn, "error", err)
		return failed(err.Error(), time.Since(start))
	}

	elapsed := time.Since(start)
	logger.Info("reminder sent", "reminder_id", rem.ID, "msisdn", msisdn, "elapsed_ms", elapsed.Milliseconds())
	return sent(elapsed)
}

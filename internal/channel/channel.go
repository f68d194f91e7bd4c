package channel

import (
	"context"
	"errors"

	"github.com/prasetya/reminder-gateway/internal/model"
)

var (
	// ErrNotConnected is returned by Send while the session is down; the
	// scheduler treats it as a cycle-level condition, not a reminder failure.
	ErrNotConnected = errors.New("messaging channel not connected")
)

// Channel is the abstract messaging boundary the core depends on: a
// connection-state signal plus an opaque send primitive. The concrete
// WhatsApp protocol lives behind the bridge, outside this repository.
type Channel interface {
	IsConnected() bool
	Send(ctx context.Context, msisdn, text string) error
}

// Transport is the wire-level slice of the bridge the session supervisor
// drives: one status probe and one send call.
type Transport interface {
	Status(ctx context.Context) (model.ChannelState, error)
	Send(ctx context.Context, msisdn, text string) error
}

// StatePublisher receives session transitions so the surrounding system
// (API, admin UI) can show connection state and the pairing QR.
type StatePublisher interface {
	Publish(state model.ChannelState) error
}

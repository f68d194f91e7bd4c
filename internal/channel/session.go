package channel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prasetya/reminder-gateway/internal/model"
	"github.com/prasetya/reminder-gateway/pkg/logger"
)

// SessionConfig tunes the probe/reconnect loop.
type SessionConfig struct {
	ProbeInterval time.Duration
	BackoffBase   time.Duration
	BackoffMax    time.Duration
}

// Session supervises the bridge connection. It polls the transport's status
// probe, keeps a fast in-process view of connectedness for the scheduler,
// and publishes every transition. While the bridge is unreachable the probe
// backs off exponentially up to BackoffMax.
type Session struct {
	transport Transport
	publisher StatePublisher
	config    *SessionConfig

	connected atomic.Bool
	mu        sync.Mutex
	last      model.ChannelStatus

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewSession(transport Transport, publisher StatePublisher, config *SessionConfig) *Session {
	if config == nil {
		config = &SessionConfig{}
	}
	if config.ProbeInterval == 0 {
		config.ProbeInterval = 5 * time.Second
	}
	if config.BackoffBase == 0 {
		config.BackoffBase = 2 * time.Second
	}
	if config.BackoffMax == 0 {
		config.BackoffMax = 60 * time.Second
	}

	return &Session{
		transport: transport,
		publisher: publisher,
		config:    config,
		last:      model.ChannelStatusDisconnected,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// IsConnected reports the last observed session state.
func (s *Session) IsConnected() bool {
	return s.connected.Load()
}

// Send forwards one message through the transport, failing fast while the
// session is down so callers never block on a dead bridge.
func (s *Session) Send(ctx context.Context, msisdn, text string) error {
	if !s.connected.Load() {
		return ErrNotConnected
	}
	return s.transport.Send(ctx, msisdn, text)
}

// Run drives the probe loop until the context is canceled or Stop is called.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)

	s.apply(model.ChannelState{Status: model.ChannelStatusConnecting, UpdatedAt: time.Now()})

	backoff := s.config.BackoffBase
	for {
		state, err := s.transport.Status(ctx)
		if err != nil {
			state = model.ChannelState{
				Status:    model.ChannelStatusDisconnected,
				Detail:    err.Error(),
				UpdatedAt: time.Now(),
			}
		}
		s.apply(state)

		var delay time.Duration
		if state.Status == model.ChannelStatusConnected {
			backoff = s.config.BackoffBase
			delay = s.config.ProbeInterval
		} else {
			delay = backoff
			backoff *= 2
			if backoff > s.config.BackoffMax {
				backoff = s.config.BackoffMax
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-time.After(delay):
		}
	}
}

// Stop ends the probe loop and waits for it to exit.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Session) apply(state model.ChannelState) {
	s.connected.Store(state.Status == model.ChannelStatusConnected)

	s.mu.Lock()
	changed := state.Status != s.last
	s.last = state.Status
	s.mu.Unlock()

	if !changed {
		return
	}

	if state.Detail != "" {
		logger.Warn("channel session transition", "status", string(state.Status), "detail", state.Detail)
	} else {
		logger.Info("channel session transition", "status", string(state.Status))
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(state); err != nil {
			logger.Error("failed to publish channel state", "status", string(state.Status), "error", err)
		}
	}
}

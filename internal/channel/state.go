package channel

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prasetya/reminder-gateway/internal/model"
	"github.com/prasetya/reminder-gateway/pkg/redis"
)

const (
	stateKey       = "channel:state"
	eventStream    = "channel:events"
	eventStreamCap = 1000
)

// StateStore persists the channel session state in redis so the API process
// can serve connection status and the pairing QR without talking to the
// worker. Transitions are also appended to a capped event stream.
type StateStore struct {
	rdb redis.RedisAdapter
}

func NewStateStore(rdb redis.RedisAdapter) *StateStore {
	return &StateStore{rdb: rdb}
}

// Publish records the new state as both the current snapshot and an event.
func (s *StateStore) Publish(state model.ChannelState) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}

	if err := s.rdb.HSet(stateKey, "status", string(state.Status)); err != nil {
		return errors.Wrap(err, "failed to store channel status")
	}
	if err := s.rdb.HSet(stateKey, "qr", state.QR); err != nil {
		return errors.Wrap(err, "failed to store channel qr")
	}
	if err := s.rdb.HSet(stateKey, "detail", state.Detail); err != nil {
		return errors.Wrap(err, "failed to store channel detail")
	}
	if err := s.rdb.HSet(stateKey, "updated_at", strconv.FormatInt(state.UpdatedAt.UnixMilli(), 10)); err != nil {
		return errors.Wrap(err, "failed to store channel timestamp")
	}

	if _, err := s.rdb.XAdd(eventStream, map[string]interface{}{
		"status":      string(state.Status),
		"detail":      state.Detail,
		"occurred_at": strconv.FormatInt(state.UpdatedAt.UnixMilli(), 10),
	}); err != nil {
		return errors.Wrap(err, "failed to append channel event")
	}
	if err := s.rdb.XTrimApprox(eventStream, eventStreamCap); err != nil {
		return errors.Wrap(err, "failed to trim channel events")
	}

	return nil
}

// Current returns the last published snapshot. A store that has never seen a
// transition reports disconnected.
func (s *StateStore) Current() (model.ChannelState, error) {
	fields, err := s.rdb.HGetAll(stateKey)
	if err != nil {
		return model.ChannelState{}, errors.Wrap(err, "failed to read channel state")
	}
	if len(fields) == 0 {
		return model.ChannelState{Status: model.ChannelStatusDisconnected}, nil
	}

	state := model.ChannelState{
		Status: model.ChannelStatus(fields["status"]),
		QR:     fields["qr"],
		Detail: fields["detail"],
	}
	if ms, err := strconv.ParseInt(fields["updated_at"], 10, 64); err == nil {
		state.UpdatedAt = time.UnixMilli(ms)
	}
	return state, nil
}

// RecentEvents returns up to count transitions, newest first.
func (s *StateStore) RecentEvents(count int64) ([]model.ChannelEvent, error) {
	msgs, err := s.rdb.XRevRangeN(eventStream, count)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read channel events")
	}

	events := make([]model.ChannelEvent, 0, len(msgs))
	for _, m := range msgs {
		ev := model.ChannelEvent{}
		if v, ok := m.Values["status"].(string); ok {
			ev.Status = model.ChannelStatus(v)
		}
		if v, ok := m.Values["detail"].(string); ok {
			ev.Detail = v
		}
		if v, ok := m.Values["occurred_at"].(string); ok {
			if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
				ev.OccurredAt = time.UnixMilli(ms)
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

package handlers

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prasetya/reminder-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChannelStateReader struct {
	mock.Mock
}

func (m *MockChannelStateReader) Current() (model.ChannelState, error) {
	args := m.Called()
	return args.Get(0).(model.ChannelState), args.Error(1)
}

func (m *MockChannelStateReader) RecentEvents(count int64) ([]model.ChannelEvent, error) {
	args := m.Called(count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChannelEvent), args.Error(1)
}

func TestChannelHandler_GetStatus(t *testing.T) {
	t.Run("scanning state includes qr", func(t *testing.T) {
		state := new(MockChannelStateReader)
		handler := NewChannelHandler(state)

		state.On("Current").Return(model.ChannelState{
			Status:    model.ChannelStatusScanning,
			QR:        "2@abcdef",
			UpdatedAt: time.Now(),
		}, nil)

		ctx := setupTestContext("GET", "/channel/status", nil)
		handler.GetStatus(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response model.ChannelState
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.Equal(t, model.ChannelStatusScanning, response.Status)
		assert.Equal(t, "2@abcdef", response.QR)

		state.AssertExpectations(t)
	})

	t.Run("store error", func(t *testing.T) {
		state := new(MockChannelStateReader)
		handler := NewChannelHandler(state)

		state.On("Current").Return(model.ChannelState{}, errors.New("redis down"))

		ctx := setupTestContext("GET", "/channel/status", nil)
		handler.GetStatus(ctx)

		assert.Equal(t, 500, ctx.Response.StatusCode())
	})
}

func TestChannelHandler_ListEvents(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		state := new(MockChannelStateReader)
		handler := NewChannelHandler(state)

		state.On("RecentEvents", int64(20)).Return([]model.ChannelEvent{
			{Status: model.ChannelStatusConnected, OccurredAt: time.Now()},
		}, nil)

		ctx := setupTestContext("GET", "/channel/events", nil)
		handler.ListEvents(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response channelEventsResponse
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		require.Len(t, response.Items, 1)
		assert.Equal(t, model.ChannelStatusConnected, response.Items[0].Status)

		state.AssertExpectations(t)
	})

	t.Run("explicit limit", func(t *testing.T) {
		state := new(MockChannelStateReader)
		handler := NewChannelHandler(state)

		state.On("RecentEvents", int64(5)).Return([]model.ChannelEvent{}, nil)

		ctx := setupTestContext("GET", "/channel/events?limit=5", nil)
		handler.ListEvents(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		state.AssertExpectations(t)
	})
}

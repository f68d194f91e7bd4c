package handlers

import (
	"strconv"

	"github.com/fasthttp/router"
	"github.com/prasetya/reminder-gateway/internal/model"
	xhttp "github.com/prasetya/reminder-gateway/pkg/http"
)

type ChannelStateReader interface {
	Current() (model.ChannelState, error)
	RecentEvents(count int64) ([]model.ChannelEvent, error)
}

type ChannelHandler struct {
	state ChannelStateReader
}

func RegisterChannelRoutes(e *router.Group, h *ChannelHandler) {
	e.GET("/channel/status", h.GetStatus)
	e.GET("/channel/events", h.ListEvents)
}

func NewChannelHandler(state ChannelStateReader) *ChannelHandler {
	return &ChannelHandler{
		state: state,
	}
}

type channelEventsResponse struct {
	Items []model.ChannelEvent `json:"items"`
}

func (h *ChannelHandler) GetStatus(ctx *xhttp.RequestCtx) {
	state, err := h.state.Current()
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, state)
}

func (h *ChannelHandler) ListEvents(ctx *xhttp.RequestCtx) {
	count := int64(20)
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.ParseInt(v, 10, 64); e == nil && n > 0 && n <= 1000 {
			count = n
		}
	}

	events, err := h.state.RecentEvents(count)
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, channelEventsResponse{Items: events})
}

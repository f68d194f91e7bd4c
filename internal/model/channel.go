package model

import "time"

// ChannelStatus mirrors the messaging channel's session lifecycle as shown
// to users: a fresh session asks for QR pairing before it connects.
type ChannelStatus string

const (
	ChannelStatusDisconnected ChannelStatus = "disconnected"
	ChannelStatusConnecting   ChannelStatus = "connecting"
	ChannelStatusScanning     ChannelStatus = "scanning"
	ChannelStatusConnected    ChannelStatus = "connected"
)

// ChannelState is the shared view of the channel session that the worker
// publishes and the API serves. QR is the pairing payload, only set while
// the session is waiting for a scan. Detail carries the probe error on a
// disconnect transition.
type ChannelState struct {
	Status    ChannelStatus `json:"status"`
	QR        string        `json:"qr,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ChannelEvent is one session transition, appended to the event stream for
// the admin UI and audit.
type ChannelEvent struct {
	Status     ChannelStatus `json:"status"`
	Detail     string        `json:"detail,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prasetya/reminder-gateway/internal/model"
	"github.com/valyala/fasthttp"
)

// BridgeConfig configures the HTTP client for the WhatsApp bridge sidecar.
type BridgeConfig struct {
	URL             string
	Timeout         time.Duration
	MaxConns        int
	ReadBufferSize  int
	WriteBufferSize int
}

// BridgeClient talks to the bridge process that owns the actual WhatsApp
// session. The bridge exposes a status probe and a send endpoint; pairing
// (QR issuance) happens on its side and is only reported back here.
type BridgeClient struct {
	config *BridgeConfig
	client *fasthttp.Client
}

type bridgeStatusResponse struct {
	Status string `json:"status"`
	QR     string `json:"qr,omitempty"`
}

type bridgeSendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type bridgeErrorResponse struct {
	Error string `json:"error"`
}

func NewBridgeClient(config *BridgeConfig) (*BridgeClient, error) {
	if config == nil || config.URL == "" {
		return nil, errors.New("bridge url is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxConns == 0 {
		config.MaxConns = 16
	}

	return &BridgeClient{
		config: config,
		client: &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
			ReadBufferSize:      config.ReadBufferSize,
			WriteBufferSize:     config.WriteBufferSize,
		},
	}, nil
}

// Status probes the bridge session state.
func (c *BridgeClient) Status(ctx context.Context) (model.ChannelState, error) {
	body, err := c.doRequest(ctx, "GET", "/api/v1/status", nil)
	if err != nil {
		return model.ChannelState{}, err
	}

	var resp bridgeStatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.ChannelState{}, fmt.Errorf("failed to unmarshal status response: %w", err)
	}

	status := model.ChannelStatus(resp.Status)
	switch status {
	case model.ChannelStatusConnected, model.ChannelStatusScanning, model.ChannelStatusDisconnected:
	default:
		return model.ChannelState{}, fmt.Errorf("bridge reported unknown status %q", resp.Status)
	}

	return model.ChannelState{
		Status:    status,
		QR:        resp.QR,
		UpdatedAt: time.Now(),
	}, nil
}

// Send delivers one message through the bridge.
func (c *BridgeClient) Send(ctx context.Context, msisdn, text string) error {
	reqBody, err := json.Marshal(bridgeSendRequest{To: msisdn, Body: text})
	if err != nil {
		return fmt.Errorf("failed to marshal send request: %w", err)
	}

	_, err = c.doRequest(ctx, "POST", "/api/v1/send", reqBody)
	return err
}

// doRequest performs an HTTP request with timeout
func (c *BridgeClient) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.URL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")

	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("bridge request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode != fasthttp.StatusOK && statusCode != fasthttp.StatusAccepted {
		var errResp bridgeErrorResponse
		if json.Unmarshal(resp.Body(), &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("bridge returned %d: %s", statusCode, errResp.Error)
		}
		return nil, fmt.Errorf("bridge returned unexpected status code %d", statusCode)
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())

	return result, nil
}

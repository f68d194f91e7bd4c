package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SessionStatus represents the lifecycle of the simulated WhatsApp session
type SessionStatus string

const (
	StatusDisconnected SessionStatus = "disconnected"
	StatusScanning     SessionStatus = "scanning"
	StatusConnected    SessionStatus = "connected"
)

// SendRequest represents the request to send a message
type SendRequest struct {
	To   string `json:"to" binding:"required"`
	Body string `json:"body" binding:"required"`
}

// SendResponse represents the response from sending a message
type SendResponse struct {
	To          string    `json:"to"`
	MessageID   string    `json:"message_id"`
	ProcessedAt time.Time `json:"processed_at"`
}

// StatusResponse represents the session status response
type StatusResponse struct {
	Status    SessionStatus `json:"status"`
	QR        string        `json:"qr,omitempty"`
	SessionID string        `json:"session_id"`
	Timestamp time.Time     `json:"timestamp"`
}

// MockBridge simulates the WhatsApp session a real bridge would own. A
// fresh session starts by issuing a QR code; after scanDelay it behaves as
// if the code was scanned and stays connected.
type MockBridge struct {
	mu           sync.Mutex
	status       SessionStatus
	qr           string
	sessionID    string
	deliveryRate float64
	minDelay     time.Duration
	maxDelay     time.Duration
	scanDelay    time.Duration
	rng          *rand.Rand
}

func NewMockBridge(deliveryRate float64, minDelay, maxDelay, scanDelay time.Duration) *MockBridge {
	return &MockBridge{
		status:       StatusDisconnected,
		sessionID:    "MOCK_BRIDGE_" + uuid.New().String()[:8],
		deliveryRate: deliveryRate,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		scanDelay:    scanDelay,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// StartSession begins the pairing flow: issue a QR, then flip to connected
// once the simulated scan happens.
func (b *MockBridge) StartSession() {
	b.mu.Lock()
	b.status = StatusScanning
	b.qr = "2@" + uuid.New().String()
	b.mu.Unlock()

	log.Info().Str("session_id", b.sessionID).Msg("QR code issued, waiting for scan")

	time.AfterFunc(b.scanDelay, func() {
		b.mu.Lock()
		if b.status == StatusScanning {
			b.status = StatusConnected
			b.qr = ""
			log.Info().Str("session_id", b.sessionID).Msg("QR scanned, session connected")
		}
		b.mu.Unlock()
	})
}

func (b *MockBridge) State() (SessionStatus, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status, b.qr
}

func (b *MockBridge) Disconnect() {
	b.mu.Lock()
	b.status = StatusDisconnected
	b.qr = ""
	b.mu.Unlock()
	log.Info().Str("session_id", b.sessionID).Msg("session disconnected")
}

// simulateSend mimics the latency and occasional failure of a real send.
func (b *MockBridge) simulateSend(req *SendRequest) error {
	delay := b.randomDelay()
	time.Sleep(delay)

	if !b.shouldSucceed() {
		log.Warn().
			Str("to", req.To).
			Dur("delay", delay).
			Msg("message delivery failed")
		return fmt.Errorf("failed to deliver message to %s", req.To)
	}

	log.Info().
		Str("to", req.To).
		Dur("delay", delay).
		Msg("message delivered")
	return nil
}

func (b *MockBridge) randomDelay() time.Duration {
	delta := b.maxDelay - b.minDelay
	randomDelta := time.Duration(b.rng.Int63n(int64(delta)))
	return b.minDelay + randomDelta
}

func (b *MockBridge) shouldSucceed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rng.Float64() < b.deliveryRate
}

// Handler struct holds the mock bridge and routes
type Handler struct {
	bridge *MockBridge
}

func NewHandler(bridge *MockBridge) *Handler {
	return &Handler{bridge: bridge}
}

// GetStatus reports the session state and the pairing QR while scanning
func (h *Handler) GetStatus(c *gin.Context) {
	status, qr := h.bridge.State()

	c.JSON(http.StatusOK, StatusResponse{
		Status:    status,
		QR:        qr,
		SessionID: h.bridge.sessionID,
		Timestamp: time.Now(),
	})
}

// Send handles message send requests
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request: " + err.Error(),
		})
		return
	}

	status, _ := h.bridge.State()
	if status != StatusConnected {
		c.JSON(http.StatusConflict, gin.H{
			"error": "session is not connected",
		})
		return
	}

	log.Info().
		Str("to", req.To).
		Int("body_len", len(req.Body)).
		Msg("received send request")

	if err := h.bridge.simulateSend(&req); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SendResponse{
		To:          req.To,
		MessageID:   uuid.New().String(),
		ProcessedAt: time.Now(),
	})
}

// Logout drops the session; the next Login starts a fresh pairing flow
func (h *Handler) Logout(c *gin.Context) {
	h.bridge.Disconnect()
	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

// Login starts the pairing flow
func (h *Handler) Login(c *gin.Context) {
	status, _ := h.bridge.State()
	if status == StatusConnected {
		c.JSON(http.StatusOK, gin.H{"status": "already connected"})
		return
	}
	h.bridge.StartSession()
	c.JSON(http.StatusOK, gin.H{"status": "scanning"})
}

// UpdateConfig allows changing bridge behavior at runtime
func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		DeliveryRate *float64 `json:"delivery_rate"`
	}

	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request: " + err.Error(),
		})
		return
	}

	if config.DeliveryRate != nil {
		if *config.DeliveryRate >= 0 && *config.DeliveryRate <= 1.0 {
			h.bridge.mu.Lock()
			h.bridge.deliveryRate = *config.DeliveryRate
			h.bridge.mu.Unlock()
			log.Info().Float64("rate", *config.DeliveryRate).Msg("updated delivery rate")
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// SetupRouter configures all routes
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	// Add request logging middleware
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("request processed")
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", handler.GetStatus)
		v1.POST("/send", handler.Send)
		v1.POST("/login", handler.Login)
		v1.POST("/logout", handler.Logout)
		v1.PUT("/config", handler.UpdateConfig)
	}

	return router
}

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Get configuration from environment
	port := getEnv("PORT", "8082")
	deliveryRate := getEnvFloat("DELIVERY_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 200*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 2*time.Second)
	scanDelay := getEnvDuration("SCAN_DELAY", 10*time.Second)

	log.Info().
		Str("port", port).
		Float64("delivery_rate", deliveryRate).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Dur("scan_delay", scanDelay).
		Msg("Starting Mock WhatsApp Bridge")

	// Create mock bridge; pairing starts immediately
	bridge := NewMockBridge(deliveryRate, minDelay, maxDelay, scanDelay)
	bridge.StartSession()
	handler := NewHandler(bridge)
	router := SetupRouter(handler)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

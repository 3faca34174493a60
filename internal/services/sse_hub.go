package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/funilzap/crm-funnel-backend/internal/models"
)

// SSEHub manages Server-Sent Events connections for the dashboard's live
// event feed
type SSEHub struct {
	clients map[chan []byte]bool
	mu      sync.RWMutex
}

// NewSSEHub creates a new SSE hub
func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[chan []byte]bool),
	}
}

// RegisterClient registers a new SSE client
func (h *SSEHub) RegisterClient() chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientChan := make(chan []byte, 10)
	h.clients[clientChan] = true

	logrus.Infof("SSE client registered (total clients: %d)", len(h.clients))
	return clientChan
}

// UnregisterClient unregisters an SSE client
func (h *SSEHub) UnregisterClient(clientChan chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[clientChan]; ok {
		delete(h.clients, clientChan)
		close(clientChan)
	}

	logrus.Infof("SSE client unregistered (remaining clients: %d)", len(h.clients))
}

// BroadcastEvent broadcasts an analytics event to all connected clients
func (h *SSEHub) BroadcastEvent(event *models.AnalyticsEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		logrus.Errorf("Failed to marshal event for SSE: %v", err)
		return
	}

	message := fmt.Sprintf("event: analytics\ndata: %s\n\n", string(eventJSON))

	// Non-blocking send; a slow client misses the event
	for clientChan := range h.clients {
		select {
		case clientChan <- []byte(message):
		default:
			logrus.Warn("SSE client channel full, skipping")
		}
	}
}

// ClientCount returns the number of connected clients
func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendHeartbeat sends a heartbeat comment to keep connections alive
func (h *SSEHub) SendHeartbeat() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	heartbeat := fmt.Sprintf(": heartbeat %s\n\n", time.Now().Format(time.RFC3339))
	for clientChan := range h.clients {
		select {
		case clientChan <- []byte(heartbeat):
		default:
		}
	}
}

package http

import (
	"log/slog"
	"sync"

	"github.com/pseng/MyH5P-pages/internal/logging"
)

// StreamManager fans learner-session updates out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a buffered channel for sessionID. The returned func unsubscribes and closes it;
// calling it more than once is safe.
func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		subs, ok := sm.subscribers[sessionID]
		if !ok {
			return
		}
		if _, live := subs[ch]; !live {
			return
		}
		delete(subs, ch)
		if len(subs) == 0 {
			delete(sm.subscribers, sessionID)
		}
		close(ch)
	}
}

// Close ends every subscription of sessionID by closing its channel.
// Unsubscribe funcs handed out earlier become no-ops.
func (sm *StreamManager) Close(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	subs := sm.subscribers[sessionID]
	for ch := range subs {
		close(ch)
	}
	delete(sm.subscribers, sessionID)
	if len(subs) > 0 {
		sm.logger.Debug("SSE: closed session streams", "session_id", sessionID, "subscribers", len(subs))
	}
}

// Broadcast sends msg to every subscriber of sessionID. Slow subscribers miss messages.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	subs, ok := sm.subscribers[sessionID]
	if !ok {
		return
	}
	sm.logger.Debug("SSE: broadcasting", "session_id", sessionID, "subscribers", len(subs), "payload_size", len(msg))
	for ch := range subs {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// Subscribers returns the number of live subscriptions for sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

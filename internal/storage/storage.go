package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pixelecho/echoframe/internal/session"
)

// NewController builds a fresh controller for a newly created session.
type NewController func() *session.Controller

// Registry maps session IDs to their controllers. Idle sessions are swept in
// the background and closed so their previews are released and their
// credentials dropped.
type Registry struct {
	newController NewController
	ttl           time.Duration

	mu       sync.RWMutex
	sessions map[string]*session.Controller
}

func NewRegistry(newController NewController, ttl time.Duration) *Registry {
	return &Registry{
		newController: newController,
		ttl:           ttl,
		sessions:      make(map[string]*session.Controller),
	}
}

// Create registers a new session and returns its ID.
func (r *Registry) Create() (string, *session.Controller) {
	id := uuid.NewString()
	ctrl := r.newController()

	r.mu.Lock()
	r.sessions[id] = ctrl
	r.mu.Unlock()

	slog.Info("Session created", "session_id", id)
	return id, ctrl
}

// Get returns the controller for sessionID, if it exists.
func (r *Registry) Get(sessionID string) (*session.Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctrl, exists := r.sessions[sessionID]
	return ctrl, exists
}

// Delete closes and removes a session.
func (r *Registry) Delete(sessionID string) {
	r.mu.Lock()
	ctrl, exists := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	if exists {
		ctrl.Close()
		slog.Info("Session deleted", "session_id", sessionID)
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep runs periodic cleanup of idle sessions until ctx is canceled.
func (r *Registry) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepOnce()
		}
	}
}

func (r *Registry) sweepOnce() {
	cutoff := time.Now().Add(-r.ttl)

	r.mu.Lock()
	var expired []string
	var closers []*session.Controller
	for id, ctrl := range r.sessions {
		if ctrl.IdleSince().Before(cutoff) {
			expired = append(expired, id)
			closers = append(closers, ctrl)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for i, ctrl := range closers {
		ctrl.Close()
		slog.Info("Idle session swept", "session_id", expired[i])
	}
}

// Package gemini binds a user-supplied API key to a Google Gemini client and
// runs echo-image generations against it.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var (
	// ErrInvalidCredential means the remote service rejected the key.
	ErrInvalidCredential = errors.New("the API key was rejected")
	// ErrSetup means the client could not be constructed before any remote
	// check happened.
	ErrSetup = errors.New("failed to set up the generation client")
)

// Holder owns at most one live client bound to a validated credential.
// A session has exactly one Holder; the session controller only ever asks
// IsBound and never touches the client directly.
type Holder struct {
	model string

	mu     sync.RWMutex
	client *genai.Client
}

// NewHolder returns an unbound holder that will validate credentials against
// the given model.
func NewHolder(model string) *Holder {
	return &Holder{model: model}
}

// Initialize constructs a client for credential and validates it with a cheap
// remote call. On success the previous client, if any, is replaced and
// closed. On failure the holder keeps whatever binding it had before; a
// mistyped replacement key does not revoke a working one.
func (h *Holder) Initialize(ctx context.Context, credential string) error {
	client, err := genai.NewClient(ctx, option.WithAPIKey(credential))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSetup, err)
	}

	// CountTokens is the cheapest call that exercises the key remotely.
	if _, err := client.GenerativeModel(h.model).CountTokens(ctx, genai.Text("ping")); err != nil {
		client.Close()
		slog.Info("Credential validation failed", "model", h.model)
		return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	h.mu.Lock()
	old := h.client
	h.client = client
	h.mu.Unlock()

	if old != nil {
		old.Close()
	}
	slog.Info("Credential bound", "model", h.model)
	return nil
}

// IsBound reports whether a validated client currently exists.
func (h *Holder) IsBound() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.client != nil
}

// Unbind discards the current client, if any.
func (h *Holder) Unbind() {
	h.mu.Lock()
	old := h.client
	h.client = nil
	h.mu.Unlock()

	if old != nil {
		old.Close()
	}
}

func (h *Holder) current() *genai.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.client
}

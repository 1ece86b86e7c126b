package storage

import (
	"context"
	"testing"
	"time"

	"github.com/pixelecho/echoframe/internal/assets"
	"github.com/pixelecho/echoframe/internal/gemini"
	"github.com/pixelecho/echoframe/internal/session"
)

type nopBinder struct{ bound bool }

func (b *nopBinder) Initialize(ctx context.Context, credential string) error {
	b.bound = true
	return nil
}
func (b *nopBinder) IsBound() bool { return b.bound }
func (b *nopBinder) Unbind()       { b.bound = false }

type nopGenerator struct{}

func (nopGenerator) Generate(ctx context.Context, payload, mediaType string) (*gemini.Result, error) {
	return &gemini.Result{Locator: "u", Prompt: "p"}, nil
}

type nopPreviews struct{}

func (nopPreviews) Put(data []byte, mediaType string) (assets.Ref, error) {
	return assets.Ref{Key: "k"}, nil
}
func (nopPreviews) Release(key string) bool { return true }

func testRegistry(ttl time.Duration) *Registry {
	return NewRegistry(func() *session.Controller {
		return session.New(&nopBinder{}, nopGenerator{}, nopPreviews{}, nil)
	}, ttl)
}

func TestCreateAndGet(t *testing.T) {
	r := testRegistry(time.Hour)

	id, ctrl := r.Create()
	if id == "" {
		t.Fatal("Expected a session ID")
	}
	if ctrl == nil {
		t.Fatal("Expected a controller")
	}

	got, exists := r.Get(id)
	if !exists || got != ctrl {
		t.Error("Expected Get to return the created controller")
	}
	if _, exists := r.Get("unknown"); exists {
		t.Error("Expected unknown session to be missing")
	}
	if r.Len() != 1 {
		t.Errorf("Expected 1 session, got %d", r.Len())
	}
}

func TestDelete(t *testing.T) {
	r := testRegistry(time.Hour)
	id, _ := r.Create()

	r.Delete(id)
	if _, exists := r.Get(id); exists {
		t.Error("Expected deleted session to be gone")
	}
	// Deleting twice must be safe.
	r.Delete(id)
	if r.Len() != 0 {
		t.Errorf("Expected 0 sessions, got %d", r.Len())
	}
}

func TestSweepRemovesIdleSessions(t *testing.T) {
	r := testRegistry(time.Nanosecond)
	idleID, _ := r.Create()

	time.Sleep(5 * time.Millisecond)
	r.sweepOnce()

	if _, exists := r.Get(idleID); exists {
		t.Error("Expected the idle session to be swept")
	}
}

func TestSweepKeepsActiveSessions(t *testing.T) {
	r := testRegistry(time.Hour)
	id, _ := r.Create()

	r.sweepOnce()

	if _, exists := r.Get(id); !exists {
		t.Error("Expected the active session to survive the sweep")
	}
}

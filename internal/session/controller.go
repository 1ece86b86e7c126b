// Package session holds the per-session lifecycle controller: one
// user-supplied credential, one selected image, at most one generation in
// flight, reconciled into a single derived phase.
package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pixelecho/echoframe/internal/assets"
	"github.com/pixelecho/echoframe/internal/encoding"
	"github.com/pixelecho/echoframe/internal/gemini"
)

// User-facing messages. Exactly one is visible at a time; every action's
// outcome supersedes the previous one.
const (
	MsgEmptyCredential    = "API Key cannot be empty."
	MsgCredentialInvalid  = "Could not initialize with this API key. Please verify the key and try again."
	MsgCredentialRejected = "Your API key was rejected by the generation service. Please enter a valid key."
	MsgImageUnreadable    = "The selected image could not be read. Please choose another file."
	MsgGenerationFailed   = "Image generation failed. Please try again."
)

// Binder is the credential holder seam: it owns the bound client; the
// controller only observes bound/unbound and asks for transitions.
type Binder interface {
	Initialize(ctx context.Context, credential string) error
	IsBound() bool
	Unbind()
}

// Generator issues one generation call per invocation.
type Generator interface {
	Generate(ctx context.Context, payload, mediaType string) (*gemini.Result, error)
}

// Previews stores preview images and releases them exactly once per held
// reference.
type Previews interface {
	Put(data []byte, mediaType string) (assets.Ref, error)
	Release(key string) bool
}

// EncodeFunc converts raw image bytes to a transport payload.
type EncodeFunc func(r io.Reader, declaredType string) (payload, mediaType string, err error)

// selectedImage is the image the user picked plus its preview reference.
// Replaced wholesale on re-selection; the preview is released on every path
// that supersedes it.
type selectedImage struct {
	data      []byte
	mediaType string
	preview   assets.Ref
}

// State is the observable snapshot a UI renders.
type State struct {
	Phase   Phase          `json:"phase"`
	Bound   bool           `json:"bound"`
	Preview *assets.Ref    `json:"preview,omitempty"`
	Result  *gemini.Result `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Controller is the session state machine. All methods are safe for
// concurrent use; the remote generation call runs outside the lock so user
// actions arriving mid-generation take effect immediately and the in-flight
// outcome is discarded on resumption if it is stale.
type Controller struct {
	binder    Binder
	generator Generator
	previews  Previews
	encode    EncodeFunc

	mu         sync.Mutex
	image      *selectedImage
	result     *gemini.Result
	errMsg     string
	generating bool
	// genToken is captured at generation start; an outcome is applied only if
	// the token still matches when the call resumes. Every superseding action
	// bumps it.
	genToken uint64

	lastActive time.Time
}

// New wires a controller from its collaborators. A nil encode falls back to
// encoding.Encode.
func New(binder Binder, generator Generator, previews Previews, encode EncodeFunc) *Controller {
	if encode == nil {
		encode = encoding.Encode
	}
	return &Controller{
		binder:     binder,
		generator:  generator,
		previews:   previews,
		encode:     encode,
		lastActive: time.Now(),
	}
}

// State returns the current observable snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	bound := c.binder.IsBound()
	s := State{
		Phase:  phaseOf(bound, c.image != nil, c.generating, c.result != nil),
		Bound:  bound,
		Result: c.result,
		Error:  c.errMsg,
	}
	if c.image != nil {
		preview := c.image.preview
		s.Preview = &preview
	}
	return s
}

// SubmitCredential validates and binds a credential. An empty credential is
// rejected locally; no network call is made.
func (c *Controller) SubmitCredential(ctx context.Context, credential string) State {
	c.touch()

	if strings.TrimSpace(credential) == "" {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.errMsg = MsgEmptyCredential
		return c.stateLocked()
	}

	err := c.binder.Initialize(ctx, credential)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		slog.Warn("Credential submission failed", "err", err)
		c.errMsg = MsgCredentialInvalid
	} else {
		c.errMsg = ""
	}
	return c.stateLocked()
}

// SelectImage replaces the selected image wholesale: the prior preview is
// released, the prior result and error are cleared, and any in-flight
// generation is invalidated.
func (c *Controller) SelectImage(data []byte, mediaType string) State {
	c.touch()

	preview, err := c.previews.Put(data, mediaType)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		slog.Error("Failed to store preview", "err", err)
		c.errMsg = MsgImageUnreadable
		return c.stateLocked()
	}

	c.releaseImageLocked()
	c.image = &selectedImage{
		data:      data,
		mediaType: mediaType,
		preview:   preview,
	}
	c.result = nil
	c.errMsg = ""
	c.generating = false
	c.genToken++
	return c.stateLocked()
}

// StartGeneration encodes the selected image and runs one generation call.
// It is a no-op when no image is selected, the session is unbound, or a
// generation is already in flight; ran reports whether an attempt actually
// started, so callers can tell a fresh outcome from a lingering one.
func (c *Controller) StartGeneration(ctx context.Context) (state State, ran bool) {
	c.touch()

	c.mu.Lock()
	if c.generating || c.image == nil || !c.binder.IsBound() {
		defer c.mu.Unlock()
		return c.stateLocked(), false
	}
	c.genToken++
	token := c.genToken
	c.generating = true
	c.result = nil
	c.errMsg = ""
	data, declaredType := c.image.data, c.image.mediaType
	c.mu.Unlock()

	payload, mediaType, err := c.encode(bytes.NewReader(data), declaredType)
	var result *gemini.Result
	if err == nil {
		result, err = c.generator.Generate(ctx, payload, mediaType)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.genToken {
		// A newer action superseded this call while it was in flight; the
		// outcome is dropped, never applied out of order.
		slog.Info("Dropping stale generation outcome")
		return c.stateLocked(), true
	}
	c.generating = false

	switch {
	case err == nil:
		c.result = result
	case errors.Is(err, gemini.ErrCredentialRejected):
		// Back to key entry, but the selected image survives so the user
		// lands in image_selected right after re-authenticating.
		slog.Warn("Credential rejected mid-generation")
		c.binder.Unbind()
		c.errMsg = MsgCredentialRejected
	case errors.Is(err, encoding.ErrEncoding):
		slog.Warn("Selected image could not be encoded", "err", err)
		c.errMsg = MsgImageUnreadable
	default:
		slog.Warn("Generation failed", "err", err)
		c.errMsg = MsgGenerationFailed
	}
	return c.stateLocked(), true
}

// ReselectImage clears the selection, result, error and loading flag,
// returning the session to ready (or key entry when unbound). Calling it
// twice in a row is the same as calling it once.
func (c *Controller) ReselectImage() State {
	c.touch()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseImageLocked()
	c.result = nil
	c.errMsg = ""
	c.generating = false
	c.genToken++
	return c.stateLocked()
}

// ChangeCredential drops the binding and every piece of derived session
// state.
func (c *Controller) ChangeCredential() State {
	c.touch()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.binder.Unbind()
	c.releaseImageLocked()
	c.result = nil
	c.errMsg = ""
	c.generating = false
	c.genToken++
	return c.stateLocked()
}

// Close tears the session down, releasing held resources. In-flight
// generations resolve against a bumped token and are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.binder.Unbind()
	c.releaseImageLocked()
	c.result = nil
	c.errMsg = ""
	c.generating = false
	c.genToken++
}

// IdleSince reports the time of the last user action.
func (c *Controller) IdleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func (c *Controller) touch() {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.mu.Unlock()
}

// releaseImageLocked releases the current preview exactly once and forgets
// the selection. Safe to call when nothing is selected.
func (c *Controller) releaseImageLocked() {
	if c.image == nil {
		return
	}
	if !c.previews.Release(c.image.preview.Key) {
		slog.Error("Preview was already released", "key", c.image.preview.Key)
	}
	c.image = nil
}

package handlers

import (
	"net/http"
	"time"

	"github.com/pixelecho/echoframe/internal/history"
	"github.com/pixelecho/echoframe/internal/session"
)

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request, sessionID string, ctrl *session.Controller) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	before := ctrl.State()
	started := time.Now()
	state, ran := ctrl.StartGeneration(r.Context())

	if ran {
		h.recordOutcome(sessionID, before, state, time.Since(started))
	}
	h.writeState(w, sessionID, state)
}

// recordOutcome appends a history record for an attempt that actually ran.
// No-op actions (wrong phase, already generating) never reach here, so a
// lingering error message from an earlier attempt cannot be re-recorded.
// Superseded attempts resolve against a cleared state and fall through.
func (h *Handler) recordOutcome(sessionID string, before, after session.State, elapsed time.Duration) {
	rec := history.Record{
		SessionID:  sessionID,
		DurationMS: elapsed.Milliseconds(),
	}
	if before.Preview != nil {
		rec.MediaType = before.Preview.MediaType
	}

	switch {
	case after.Result != nil:
		rec.Outcome = history.OutcomeGenerated
		rec.Prompt = after.Result.Prompt
		rec.Locator = after.Result.Locator
	case after.Error == session.MsgCredentialRejected:
		rec.Outcome = history.OutcomeCredentialRejected
	case after.Error == session.MsgGenerationFailed || after.Error == session.MsgImageUnreadable:
		rec.Outcome = history.OutcomeFailed
	default:
		return
	}
	h.history.Append(rec)
}

// HandleHistoryExport streams the generation history as a parquet file.
func (h *Handler) HandleHistoryExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="history.parquet"`)
	if err := h.history.WriteParquet(w); err != nil {
		h.writeError(w, "Failed to export history: "+err.Error(), http.StatusInternalServerError)
	}
}

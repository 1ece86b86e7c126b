// Package history keeps an in-memory audit log of generation outcomes and
// exports it as parquet. Records never contain credentials or image bytes.
package history

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"
)

// Record is one generation attempt, successful or not.
type Record struct {
	SessionID  string `json:"session_id" parquet:"session_id"`
	MediaType  string `json:"media_type" parquet:"media_type"`
	Outcome    string `json:"outcome" parquet:"outcome"`
	Prompt     string `json:"prompt" parquet:"prompt"`
	Locator    string `json:"locator" parquet:"locator"`
	DurationMS int64  `json:"duration_ms" parquet:"duration_ms"`
	StartedAt  int64  `json:"started_at" parquet:"started_at,timestamp(millisecond)"`
}

// Outcome values for Record.Outcome.
const (
	OutcomeGenerated          = "generated"
	OutcomeCredentialRejected = "credential_rejected"
	OutcomeFailed             = "failed"
)

// Log is a bounded append-only log. When the limit is reached the oldest
// records are dropped.
type Log struct {
	limit int

	mu      sync.Mutex
	records []Record
}

func NewLog(limit int) *Log {
	return &Log{limit: limit}
}

// Append adds a record, evicting the oldest when over the limit.
func (l *Log) Append(rec Record) {
	if rec.StartedAt == 0 {
		rec.StartedAt = time.Now().UnixMilli()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	if l.limit > 0 && len(l.records) > l.limit {
		l.records = l.records[len(l.records)-l.limit:]
	}
}

// Len reports the number of retained records.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Snapshot copies the retained records in append order.
func (l *Log) Snapshot() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// WriteParquet writes the retained records to w as one parquet row group.
func (l *Log) WriteParquet(w io.Writer) error {
	records := l.Snapshot()

	pw := parquet.NewGenericWriter[Record](w)
	if len(records) > 0 {
		if _, err := pw.Write(records); err != nil {
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

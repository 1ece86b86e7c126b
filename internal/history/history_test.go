package history

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func TestAppendEvictsOldest(t *testing.T) {
	log := NewLog(2)
	log.Append(Record{SessionID: "a", Outcome: OutcomeGenerated})
	log.Append(Record{SessionID: "b", Outcome: OutcomeFailed})
	log.Append(Record{SessionID: "c", Outcome: OutcomeGenerated})

	records := log.Snapshot()
	if len(records) != 2 {
		t.Fatalf("Expected 2 retained records, got %d", len(records))
	}
	if records[0].SessionID != "b" || records[1].SessionID != "c" {
		t.Errorf("Expected oldest record evicted, got %+v", records)
	}
}

func TestAppendStampsStartedAt(t *testing.T) {
	log := NewLog(10)
	log.Append(Record{SessionID: "a", Outcome: OutcomeGenerated})
	if log.Snapshot()[0].StartedAt == 0 {
		t.Error("Expected StartedAt to be stamped")
	}
}

func TestWriteParquetRoundTrip(t *testing.T) {
	log := NewLog(10)
	log.Append(Record{SessionID: "s1", MediaType: "image/png", Outcome: OutcomeGenerated, Prompt: "p1", Locator: "u1", DurationMS: 420})
	log.Append(Record{SessionID: "s2", Outcome: OutcomeCredentialRejected})

	var buf bytes.Buffer
	if err := log.WriteParquet(&buf); err != nil {
		t.Fatalf("WriteParquet failed: %v", err)
	}

	rows, err := parquet.Read[Record](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Failed to read parquet back: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].SessionID != "s1" || rows[0].Prompt != "p1" || rows[0].DurationMS != 420 {
		t.Errorf("Unexpected first row: %+v", rows[0])
	}
	if rows[1].Outcome != OutcomeCredentialRejected {
		t.Errorf("Unexpected second row outcome: %s", rows[1].Outcome)
	}
}

func TestWriteParquetEmptyLog(t *testing.T) {
	var buf bytes.Buffer
	if err := NewLog(10).WriteParquet(&buf); err != nil {
		t.Fatalf("Expected an empty log to export cleanly, got %v", err)
	}
}

func TestConvertJSONL(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "history.jsonl")
	outPath := filepath.Join(dir, "history.parquet")

	var lines bytes.Buffer
	for _, rec := range []Record{
		{SessionID: "s1", Outcome: OutcomeGenerated, Prompt: "p1", StartedAt: 1700000000000},
		{SessionID: "s2", Outcome: OutcomeFailed, StartedAt: 1700000001000},
	} {
		data, err := json.Marshal(rec)
		if err != nil {
			t.Fatalf("Failed to marshal record: %v", err)
		}
		lines.Write(data)
		lines.WriteByte('\n')
	}
	if err := os.WriteFile(inPath, lines.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write input: %v", err)
	}

	n, err := ConvertJSONL(inPath, outPath)
	if err != nil {
		t.Fatalf("ConvertJSONL failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 converted records, got %d", n)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	rows, err := parquet.Read[Record](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Failed to read parquet output: %v", err)
	}
	if len(rows) != 2 || rows[0].SessionID != "s1" {
		t.Errorf("Unexpected parquet rows: %+v", rows)
	}
}

func TestConvertJSONLMissingFile(t *testing.T) {
	if _, err := ConvertJSONL(filepath.Join(t.TempDir(), "nope.jsonl"), "out.parquet"); err == nil {
		t.Error("Expected an error for a missing input file")
	}
}

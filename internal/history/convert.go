package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/parquet-go/parquet-go"
)

// ConvertJSONL reads a JSONL history dump and writes it back out as parquet.
// Useful for feeding exported server logs into dataset tooling.
func ConvertJSONL(inPath, outPath string) (int, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open history file: %w", err)
	}
	defer in.Close()

	var records []Record
	scanner := bufio.NewScanner(in)

	// Prompts can make lines long.
	const maxCapacity = 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return 0, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("error reading history file: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	pw := parquet.NewGenericWriter[Record](out)
	if len(records) > 0 {
		if _, err := pw.Write(records); err != nil {
			return 0, fmt.Errorf("failed to write parquet rows: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	slog.Info("History converted", "records", len(records), "output", outPath)
	return len(records), nil
}

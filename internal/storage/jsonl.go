package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

const maxLineBytes = 4 * 1024 * 1024

// Line is one non-blank line of a JSONL file. Number is 1-based.
type Line struct {
	Number int
	Raw    json.RawMessage
}

// JSONLReader streams lines from a JSONL source.
type JSONLReader struct {
	scanner *bufio.Scanner
	line    int
}

func NewJSONLReader(r io.Reader) *JSONLReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &JSONLReader{scanner: scanner}
}

// Next returns the next non-blank line, or io.EOF at the end of input.
func (r *JSONLReader) Next() (Line, error) {
	for r.scanner.Scan() {
		r.line++
		raw := bytes.TrimSpace(r.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		return Line{Number: r.line, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Line{}, fmt.Errorf("read line %d: %w", r.line+1, err)
	}
	return Line{}, io.EOF
}

// JSONLWriter appends records to a JSONL file.
type JSONLWriter struct {
	path string
	mu   sync.Mutex
}

func NewJSONLWriter(path string) *JSONLWriter {
	return &JSONLWriter{path: path}
}

// Append writes each record as one JSON line.
func (w *JSONLWriter) Append(records ...any) error {
	if len(records) == 0 || w.path == "" {
		return nil
	}

	dir := filepath.Dir(w.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestJSONLReaderSkipsBlankLines(t *testing.T) {
	reader := NewJSONLReader(strings.NewReader("{\"a\":1}\n\n  \n{\"b\":2}\n"))

	first, err := reader.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Number != 1 || string(first.Raw) != `{"a":1}` {
		t.Fatalf("unexpected first line: %+v", first)
	}

	second, err := reader.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Number != 4 || string(second.Raw) != `{"b":2}` {
		t.Fatalf("unexpected second line: %d %s", second.Number, second.Raw)
	}

	if _, err := reader.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestJSONLWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "rejects.jsonl")
	writer := NewJSONLWriter(path)

	if err := writer.Append(map[string]int{"line": 1}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := writer.Append(map[string]int{"line": 2}, map[string]int{"line": 3}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	want := "{\"line\":1}\n{\"line\":2}\n{\"line\":3}\n"
	if string(data) != want {
		t.Fatalf("got %q, want %q", data, want)
	}
}

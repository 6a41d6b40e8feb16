package ingest

import "fmt"

// Span is an inclusive index range.
type Span struct {
	From int
	To   int
}

// SplitSpan splits [from, to] into spans of at most size items.
func SplitSpan(from, to, size int) ([]Span, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to must be >= from")
	}

	spans := make([]Span, 0, (to-from)/size+1)
	for start := from; start <= to; start += size {
		end := start + size - 1
		if end > to {
			end = to
		}
		spans = append(spans, Span{From: start, To: end})
	}
	return spans, nil
}

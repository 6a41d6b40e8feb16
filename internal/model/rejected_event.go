package model

import "encoding/json"

// RejectedEvent records an import line that failed sanitization.
type RejectedEvent struct {
	Line   int             `json:"line"`
	Reason string          `json:"reason"`
	Raw    json.RawMessage `json:"raw"`
}

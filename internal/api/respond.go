package api

import (
	"encoding/json"
	"net/http"
)

const (
	cacheNoStore = "no-store"
	cacheShort   = "public, max-age=30, stale-while-revalidate=120"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errorText(err error) *string {
	msg := err.Error()
	return &msg
}

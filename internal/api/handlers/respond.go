package handlers

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/adpulse/adpulse/pkg/logger"
)

func respondJSON(log *logger.Logger, w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Status is already on the wire; all that's left is to make the
		// broken body visible in the logs.
		log.WithError(err).WithField("status", status).Error("Failed to encode response body")
	}
}

func respondError(log *logger.Logger, w http.ResponseWriter, status int, message string) {
	respondJSON(log, w, status, map[string]string{"error": message})
}

// round2 rounds for display. Core values stay unrounded; only the HTTP
// boundary rounds to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

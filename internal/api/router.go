package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/adpulse/adpulse/internal/api/handlers"
	"github.com/adpulse/adpulse/internal/metrics"
	"github.com/adpulse/adpulse/pkg/config"
	"github.com/adpulse/adpulse/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(cfg *config.Config, upload *handlers.UploadHandler, query *handlers.QueryHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if cfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Ingest. Uploads are rate limited and body-capped; everything else is
	// cheap reads.
	limiter := rate.NewLimiter(rate.Limit(cfg.Upload.RateLimit), cfg.Upload.RateBurst)
	api.Handle("/upload", uploadLimitMiddleware(limiter, cfg.Upload.MaxBytes, http.HandlerFunc(upload.UploadCSV))).Methods("POST")

	// Query surface
	api.HandleFunc("/records", query.ListRecords).Methods("GET")
	api.HandleFunc("/summary", query.GetSummary).Methods("GET")
	api.HandleFunc("/campaigns", query.ListCampaigns).Methods("GET")
	api.HandleFunc("/daily", query.GetDailyRollup).Methods("GET")
	api.HandleFunc("/top-campaigns", query.GetTopCampaigns).Methods("GET")
	api.HandleFunc("/ingest-log", query.ListIngestOutcomes).Methods("GET")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	if cfg.MetricsEnabled {
		r.Use(metrics.Middleware)
	}

	return r
}

// healthCheckHandler returns server health status.
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "adpulse-api",
	})
}

// uploadLimitMiddleware rejects uploads beyond the configured rate and caps
// the request body.
func uploadLimitMiddleware(limiter *rate.Limiter, maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "Too many uploads, slow down"})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

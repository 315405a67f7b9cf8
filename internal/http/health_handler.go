package http

import (
	"net/http"
	"time"

	"github.com/DimasB1221/I-commerce/internal/health"
)

type HealthResponseDTO struct {
	Status       string            `json:"status"`
	Uptime       float64           `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
	Timestamp    string            `json:"timestamp"`
}

// HealthHandler always answers 200 while the process is up; a failing
// dependency only changes the reported status to "degraded".
func HealthHandler(checks health.Checks, started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := checks.Run(r.Context())

		status := "ok"
		if !report.Healthy {
			status = "degraded"
		}

		respondJSON(w, http.StatusOK, HealthResponseDTO{
			Status:       status,
			Uptime:       time.Since(started).Seconds(),
			Dependencies: report.Dependencies,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
		})
	}
}

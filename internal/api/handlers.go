package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"TrendSentinel/internal/model"
	"TrendSentinel/internal/output"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ReportSource provides the most recent screen report.
type ReportSource interface {
	Latest() (*model.ScreenReport, error)
	Running() bool
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	source ReportSource
	logger *zap.Logger
}

// NewHandler creates a new Handler
func NewHandler(source ReportSource, logger *zap.Logger) *Handler {
	return &Handler{source: source, logger: logger}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "healthy",
		"running": h.source.Running(),
	}
	if latest, err := h.source.Latest(); err == nil && latest != nil {
		resp["last_run_id"] = latest.RunID
		resp["last_run_at"] = latest.Date
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetLatest handles GET /screens/latest. ?format=csv returns the result table.
func (h *Handler) GetLatest(w http.ResponseWriter, r *http.Request) {
	latest, ok := h.latest(w)
	if !ok {
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="screened_stocks.csv"`)
		if err := output.WriteCSV(w, latest.Results); err != nil {
			h.logger.Error("write csv response", zap.Error(err))
		}
		return
	}
	respondJSON(w, http.StatusOK, latest)
}

// GetLatestTicker handles GET /screens/latest/{ticker}
func (h *Handler) GetLatestTicker(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(mux.Vars(r)["ticker"])

	latest, ok := h.latest(w)
	if !ok {
		return
	}
	res, found := latest.Find(ticker)
	if !found {
		http.Error(w, ticker+" did not pass the latest screen", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) latest(w http.ResponseWriter) (*model.ScreenReport, bool) {
	latest, err := h.source.Latest()
	if err != nil {
		h.logger.Error("load latest report", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if latest == nil {
		http.Error(w, "no screen has run yet", http.StatusNotFound)
		return nil, false
	}
	return latest, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/floodsight/floodsight-engine/internal/ingest"
	"github.com/floodsight/floodsight-engine/internal/models"
	"github.com/floodsight/floodsight-engine/internal/services"
	"github.com/floodsight/floodsight-engine/internal/utils"
)

// Handler exposes the analysis service over HTTP JSON.
type Handler struct {
	logger  *slog.Logger
	service *services.AnalysisService
}

// NewHandler constructs the HTTP handler set.
func NewHandler(logger *slog.Logger, service *services.AnalysisService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// Routes registers all endpoints on a fresh router.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/analyze", h.analyze).Methods(http.MethodPost)
	v1.HandleFunc("/analyze/traffic", h.analyzeTraffic).Methods(http.MethodPost)
	v1.HandleFunc("/analyze/patterns", h.analyzePatterns).Methods(http.MethodPost)
	v1.HandleFunc("/analyze/logs", h.analyzeLogs).Methods(http.MethodPost)
	v1.HandleFunc("/features", h.features).Methods(http.MethodPost)
	v1.HandleFunc("/quality", h.quality).Methods(http.MethodPost)
	v1.HandleFunc("/simulate", h.simulate).Methods(http.MethodPost)
	v1.HandleFunc("/impact/severity", h.impactSeverity).Methods(http.MethodPost)
	v1.HandleFunc("/impact/mitigation", h.impactMitigation).Methods(http.MethodPost)
	v1.HandleFunc("/impact/business", h.impactBusiness).Methods(http.MethodPost)
	v1.HandleFunc("/patterns", h.listPatterns).Methods(http.MethodGet)

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	return r
}

// wireObservation is the inbound observation shape. Timestamp stays raw so
// both RFC3339 strings and epoch numbers decode.
type wireObservation struct {
	Timestamp json.RawMessage `json:"timestamp"`
	SourceID  string          `json:"source_id"`
	SizeBytes *int64          `json:"size_bytes"`
}

type batchRequest struct {
	Observations []wireObservation `json:"observations"`
	Pattern      string            `json:"pattern"`
}

func decodeBatch(wire []wireObservation) (models.Batch, error) {
	batch := make(models.Batch, 0, len(wire))
	for i, rec := range wire {
		obs := models.Observation{SourceID: rec.SourceID}

		if len(rec.Timestamp) > 0 && string(rec.Timestamp) != "null" {
			raw := string(rec.Timestamp)
			if rec.Timestamp[0] == '"' {
				if err := json.Unmarshal(rec.Timestamp, &raw); err != nil {
					return nil, &models.InvalidInputError{Record: i, Field: "timestamp", Reason: "not a string"}
				}
			}
			if raw != "" {
				ts, err := utils.ParseTimestamp(raw)
				if err != nil {
					return nil, &models.InvalidInputError{Record: i, Field: "timestamp", Reason: err.Error()}
				}
				obs.Timestamp = ts
			}
		}

		if rec.SizeBytes != nil {
			if *rec.SizeBytes < 0 {
				return nil, &models.InvalidInputError{Record: i, Field: "size_bytes", Reason: "must be non-negative"}
			}
			obs.SizeBytes = *rec.SizeBytes
			obs.HasSize = true
		}

		batch = append(batch, obs)
	}
	return batch, nil
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	batch, err := decodeBatch(req.Observations)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := h.service.Analyze(r.Context(), models.AnalysisRequest{Batch: batch, Pattern: req.Pattern})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) analyzeTraffic(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	batch, err := decodeBatch(req.Observations)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := h.service.AnalyzeTraffic(r.Context(), batch)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) analyzePatterns(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	batch, err := decodeBatch(req.Observations)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := h.service.AnalyzePatterns(r.Context(), batch, req.Pattern)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) analyzeLogs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lines  []string `json:"lines"`
		Format string   `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.service.AnalyzeLogs(r.Context(), req.Lines, ingest.Format(req.Format))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) features(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	batch, err := decodeBatch(req.Observations)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	rows, err := h.service.Features(r.Context(), batch)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"features": rows})
}

func (h *Handler) quality(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	batch, err := decodeBatch(req.Observations)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := h.service.Quality(r.Context(), batch)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) simulate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pattern       string  `json:"pattern"`
		DurationHours int     `json:"duration_hours"`
		Intensity     float64 `json:"intensity"`
		Seed          int64   `json:"seed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	batch, err := h.service.Simulate(r.Context(), req.Pattern, req.DurationHours, req.Intensity, req.Seed)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"observations": batch,
		"count":        len(batch),
	})
}

func (h *Handler) impactSeverity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrafficVolume    float64 `json:"traffic_volume"`
		BaselineVolume   float64 `json:"baseline_volume"`
		DurationMinutes  float64 `json:"duration_minutes"`
		AffectedServices int     `json:"affected_services"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	assessment := h.service.SeverityImpact(req.TrafficVolume, req.BaselineVolume, req.DurationMinutes, req.AffectedServices)
	h.writeJSON(w, http.StatusOK, assessment)
}

func (h *Handler) impactMitigation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Before models.MitigationSnapshot `json:"before"`
		After  models.MitigationSnapshot `json:"after"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	report := h.service.MitigationImpact(req.Before, req.After)
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) impactBusiness(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HourlyRevenue    float64  `json:"hourly_revenue"`
		OutageHours      float64  `json:"outage_duration_hours"`
		DegradationPct   float64  `json:"service_degradation_percent"`
		ReputationFactor *float64 `json:"reputation_factor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	factor := -1.0
	if req.ReputationFactor != nil {
		factor = *req.ReputationFactor
	}
	report := h.service.BusinessImpact(req.HourlyRevenue, req.OutageHours, req.DegradationPct, factor)
	h.writeJSON(w, http.StatusOK, report)
}

// patternInfo is the serializable catalog view; indicators are code and stay
// server-side.
type patternInfo struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Characteristics []string `json:"characteristics"`
	DetectionRules  []string `json:"detection_rules"`
	Mitigations     []string `json:"mitigations"`
}

func (h *Handler) listPatterns(w http.ResponseWriter, r *http.Request) {
	signatures := h.service.PatternCatalog()
	infos := make([]patternInfo, 0, len(signatures))
	for _, sig := range signatures {
		infos = append(infos, patternInfo{
			Name:            sig.Name,
			Description:     sig.Description,
			Characteristics: sig.Characteristics,
			DetectionRules:  sig.DetectionRules,
			Mitigations:     sig.Mitigations,
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"patterns": infos})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var invalid *models.InvalidInputError
	var unknown *models.UnknownPatternError
	switch {
	case errors.As(err, &invalid), errors.As(err, &unknown):
		h.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, services.ErrBatchTooLarge):
		h.writeError(w, http.StatusRequestEntityTooLarge, err)
	default:
		h.logger.Error("request failed", slog.Any("error", err))
		h.writeError(w, http.StatusInternalServerError, err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encode response failed", slog.Any("error", err))
	}
}

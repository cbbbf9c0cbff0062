package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/internal/usecase"
	"planpilot-service/pkg/logger"
)

// Handler exposes the planner over a thin JSON surface. Pipeline runs are
// launched in the background; callers poll plan status.
type Handler struct {
	planner      *usecase.PlannerService
	orchestrator *usecase.Orchestrator
	health       *usecase.ProviderHealthService
	log          logger.Logger
}

func NewHandler(planner *usecase.PlannerService, orchestrator *usecase.Orchestrator, health *usecase.ProviderHealthService, log logger.Logger) *Handler {
	return &Handler{
		planner:      planner,
		orchestrator: orchestrator,
		health:       health,
		log:          log,
	}
}

// Register mounts the API routes on a mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/plans", h.createPlan)
	mux.HandleFunc("GET /api/plans/{id}", h.getPlan)
	mux.HandleFunc("GET /api/plans/{id}/packages", h.listPackages)
	mux.HandleFunc("POST /api/plans/{id}/refresh", h.refreshPlan)
	mux.HandleFunc("GET /api/providers/{name}/health", h.providerHealth)
}

type createPlanRequest struct {
	OriginCode         string             `json:"origin_code"`
	DestinationCodes   []string           `json:"destination_codes,omitempty"`
	DestinationCountry string             `json:"destination_country,omitempty"`
	DateMode           string             `json:"date_mode,omitempty"`
	DepartDate         *string            `json:"depart_date,omitempty"`
	ReturnDate         *string            `json:"return_date,omitempty"`
	TravelMonth        *string            `json:"travel_month,omitempty"`
	FlexibilityDays    int                `json:"flexibility_days,omitempty"`
	NightsMin          int                `json:"nights_min,omitempty"`
	NightsMax          int                `json:"nights_max,omitempty"`
	Budget             float64            `json:"budget,omitempty"`
	Travelers          int                `json:"travelers,omitempty"`
	Currency           string             `json:"currency,omitempty"`
	PreferenceWeights  map[string]float64 `json:"preference_weights,omitempty"`
}

type planResponse struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	ProgressPercent int    `json:"progress_percent"`
	ProgressMessage string `json:"progress_message,omitempty"`
	ErrorMessage    string `json:"error_message,omitempty"`
}

func (h *Handler) createPlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := usecase.CreatePlanInput{
		OriginCode:         req.OriginCode,
		DestinationCodes:   req.DestinationCodes,
		DestinationCountry: req.DestinationCountry,
		DateMode:           req.DateMode,
		FlexibilityDays:    req.FlexibilityDays,
		NightsMin:          req.NightsMin,
		NightsMax:          req.NightsMax,
		Budget:             req.Budget,
		Travelers:          req.Travelers,
		Currency:           req.Currency,
		PreferenceWeights:  req.PreferenceWeights,
	}
	var badDate bool
	in.DepartDate, badDate = parseDate(req.DepartDate, badDate)
	in.ReturnDate, badDate = parseDate(req.ReturnDate, badDate)
	in.TravelMonth, badDate = parseDate(req.TravelMonth, badDate)
	if badDate {
		writeError(w, http.StatusBadRequest, "dates must be formatted YYYY-MM-DD")
		return
	}

	plan, err := h.planner.CreatePlan(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The pipeline outlives the request; give it its own context.
	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := h.orchestrator.Run(runCtx, plan.ID); err != nil {
			h.log.Error("Pipeline run failed", "planId", plan.ID, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, planResponse{
		ID:              plan.ID,
		Status:          plan.Status,
		ProgressPercent: plan.ProgressPercent,
		ProgressMessage: plan.ProgressMessage,
	})
}

func (h *Handler) getPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.planner.GetPlan(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}
	writeJSON(w, http.StatusOK, planResponse{
		ID:              plan.ID,
		Status:          plan.Status,
		ProgressPercent: plan.ProgressPercent,
		ProgressMessage: plan.ProgressMessage,
		ErrorMessage:    plan.ErrorMessage,
	})
}

func (h *Handler) listPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.planner.ListPackages(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list packages")
		return
	}

	if mode := r.URL.Query().Get("sort"); mode != "" && mode != entity.SortBestValue {
		usecase.SortPackages(packages, mode)
		for i, pkg := range packages {
			pkg.Rank = i + 1
		}
	}
	writeJSON(w, http.StatusOK, packages)
}

func (h *Handler) refreshPlan(w http.ResponseWriter, r *http.Request) {
	planID := r.PathValue("id")
	if _, err := h.planner.GetPlan(r.Context(), planID); err != nil {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}

	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := h.orchestrator.Refresh(runCtx, planID); err != nil {
			h.log.Error("Plan refresh failed", "planId", planID, "error", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

func (h *Handler) providerHealth(w http.ResponseWriter, r *http.Request) {
	health, err := h.health.Health(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load provider health")
		return
	}
	writeJSON(w, http.StatusOK, health)
}

func parseDate(raw *string, failed bool) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, failed
	}
	parsed, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, true
	}
	return &parsed, failed
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

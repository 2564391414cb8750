/*
scenarios.go - Demo scenario handlers

PURPOSE:
  Exposes the scenario package over HTTP so the dashboard can be populated
  with a realistic practice in one click.

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "solo-practice", "date": "2024-03-15"}

NOTE:
  Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - scenario/scenario.go: Generators
  - handlers.go: Handler struct
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/warp/practice-analytics/scenario"
)

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	list := scenario.List()
	dtos := make([]ScenarioDTO, len(list))
	for i, s := range list {
		dtos[i] = toScenarioDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	s, err := scenario.Get(current)
	if err != nil {
		writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
		return
	}
	writeJSON(w, http.StatusOK, toScenarioDTO(s))
}

// LoadScenario resets the store and loads a demo practice.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ref, err := h.parseDate(req.Date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentScenario = ""

	counts, err := scenario.Load(r.Context(), h.Store, req.ScenarioID, ref)
	if errors.Is(err, scenario.ErrUnknownScenario) {
		writeError(w, http.StatusBadRequest, "Unknown scenario", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	h.Logger.Info().
		Str("scenario", req.ScenarioID).
		Int("appointments", counts.Appointments).
		Int("payments", counts.Payments).
		Int("patients", counts.Patients).
		Msg("scenario loaded")

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "loaded",
		"scenario": req.ScenarioID,
		"records": SkippedDTO{
			Appointments: counts.Appointments,
			Payments:     counts.Payments,
			Patients:     counts.Patients,
		},
	})
}

// ResetDatabase clears all records.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func toScenarioDTO(s scenario.Scenario) ScenarioDTO {
	return ScenarioDTO{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Category:    s.Category,
	}
}

package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gabrielarrudexx/YBYOCA/internal/core"
	"github.com/gabrielarrudexx/YBYOCA/internal/storage"
)

// Phase and checklist endpoints. Updates are partial: only fields present
// in the request body are touched.

func (s *Server) handleListPhases(w http.ResponseWriter, r *http.Request) {
	p := s.loadProject(w, r)
	if p == nil {
		return
	}
	phases, err := s.projects.ListPhases(r.Context(), p.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	out := make([]phaseDTO, 0, len(phases))
	for i := range phases {
		out = append(out, toPhaseDTO(&phases[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePhase(w http.ResponseWriter, r *http.Request) {
	p := s.requireOwnedProject(w, r)
	if p == nil {
		return
	}

	var req struct {
		Name          string     `json:"name"`
		Description   string     `json:"description"`
		StartDate     *time.Time `json:"start_date"`
		EndDate       *time.Time `json:"end_date"`
		Status        string     `json:"status"`
		EstimatedCost string     `json:"estimated_cost"`
	}
	if err := parseBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var estimated core.Money
	if req.EstimatedCost != "" {
		parsed, err := core.ParseDecimalToCents(req.EstimatedCost)
		if err != nil {
			respondError(w, r, http.StatusUnprocessableEntity, fmt.Sprintf("invalid estimated cost: %v", err))
			return
		}
		estimated = core.Money{Cents: parsed}
	}

	ph, err := s.projects.CreatePhase(r.Context(), core.ProjectPhase{
		ProjectID:     p.ID,
		Name:          sanitizeInput(req.Name),
		Description:   sanitizeInput(req.Description),
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Status:        core.PhaseStatus(req.Status),
		EstimatedCost: estimated,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toPhaseDTO(ph))
}

func (s *Server) handleUpdatePhase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if s.phaseOwner(w, r, id) == nil {
		return
	}

	var req struct {
		Name               *string    `json:"name"`
		Description        *string    `json:"description"`
		StartDate          *time.Time `json:"start_date"`
		EndDate            *time.Time `json:"end_date"`
		Status             *string    `json:"status"`
		ProgressPercentage *float64   `json:"progress_percentage"`
		EstimatedCost      *string    `json:"estimated_cost"`
		ActualCost         *string    `json:"actual_cost"`
		Notes              *string    `json:"notes"`
	}
	if err := parseBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	patch := storage.PhasePatch{
		Name:               req.Name,
		Description:        req.Description,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		ProgressPercentage: req.ProgressPercentage,
		Notes:              req.Notes,
	}
	if req.Status != nil {
		status := core.PhaseStatus(*req.Status)
		switch status {
		case core.PhasePending, core.PhaseInProgress, core.PhaseDone, core.PhaseLate:
		default:
			respondError(w, r, http.StatusUnprocessableEntity, "invalid phase status")
			return
		}
		patch.Status = &status
	}
	if req.ProgressPercentage != nil && (*req.ProgressPercentage < 0 || *req.ProgressPercentage > 100) {
		respondError(w, r, http.StatusUnprocessableEntity, "progress percentage out of range")
		return
	}
	if req.EstimatedCost != nil {
		parsed, err := core.ParseDecimalToCents(*req.EstimatedCost)
		if err != nil {
			respondError(w, r, http.StatusUnprocessableEntity, fmt.Sprintf("invalid estimated cost: %v", err))
			return
		}
		patch.EstimatedCostCents = &parsed
	}
	if req.ActualCost != nil {
		parsed, err := core.ParseDecimalToCents(*req.ActualCost)
		if err != nil {
			respondError(w, r, http.StatusUnprocessableEntity, fmt.Sprintf("invalid actual cost: %v", err))
			return
		}
		patch.ActualCostCents = &parsed
	}

	ph, err := s.projects.UpdatePhase(r.Context(), id, patch)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPhaseDTO(ph))
}

func (s *Server) handleDeletePhase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if s.phaseOwner(w, r, id) == nil {
		return
	}
	if err := s.projects.DeletePhase(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// phaseOwner loads the phase's owning project and checks ownership.
func (s *Server) phaseOwner(w http.ResponseWriter, r *http.Request, phaseID int64) *core.Project {
	ph, err := s.repo.GetPhase(r.Context(), phaseID)
	if err != nil {
		respondServiceError(w, r, err)
		return nil
	}
	p, err := s.projects.GetProject(r.Context(), ph.ProjectID)
	if err != nil {
		respondServiceError(w, r, err)
		return nil
	}
	if currentUser(r).ID != p.OwnerID {
		respondError(w, r, http.StatusNotFound, "phase not found")
		return nil
	}
	return p
}

func (s *Server) handleListChecklist(w http.ResponseWriter, r *http.Request) {
	p := s.loadProject(w, r)
	if p == nil {
		return
	}
	items, err := s.projects.ListChecklist(r.Context(), p.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	out := make([]checklistItemDTO, 0, len(items))
	for i := range items {
		out = append(out, toChecklistItemDTO(&items[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateChecklistItem(w http.ResponseWriter, r *http.Request) {
	p := s.requireOwnedProject(w, r)
	if p == nil {
		return
	}

	var req struct {
		Name     string     `json:"name"`
		Priority string     `json:"priority"`
		DueDate  *time.Time `json:"due_date"`
		Notes    string     `json:"notes"`
	}
	if err := parseBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	item, err := s.projects.CreateChecklistItem(r.Context(), core.ChecklistItem{
		ProjectID: p.ID,
		Name:      sanitizeInput(req.Name),
		Priority:  core.Priority(req.Priority),
		DueDate:   req.DueDate,
		Notes:     sanitizeInput(req.Notes),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toChecklistItemDTO(item))
}

func (s *Server) handleUpdateChecklistItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if s.checklistOwner(w, r, id) == nil {
		return
	}

	var req struct {
		Name        *string    `json:"name"`
		IsCompleted *bool      `json:"is_completed"`
		Priority    *string    `json:"priority"`
		DueDate     *time.Time `json:"due_date"`
		Notes       *string    `json:"notes"`
	}
	if err := parseBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	patch := storage.ChecklistPatch{
		Name:        req.Name,
		IsCompleted: req.IsCompleted,
		DueDate:     req.DueDate,
		Notes:       req.Notes,
	}
	if req.Priority != nil {
		priority := core.Priority(*req.Priority)
		switch priority {
		case core.PriorityLow, core.PriorityMedium, core.PriorityHigh:
		default:
			respondError(w, r, http.StatusUnprocessableEntity, "invalid priority")
			return
		}
		patch.Priority = &priority
	}

	item, err := s.projects.UpdateChecklistItem(r.Context(), id, patch)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toChecklistItemDTO(item))
}

// handleToggleChecklistItem flips completion. Clients may toggle items on
// their own projects; architects on projects they own.
func (s *Server) handleToggleChecklistItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	item, err := s.repo.GetChecklistItem(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	p, err := s.projects.GetProject(r.Context(), item.ProjectID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !canView(currentUser(r), p) {
		respondError(w, r, http.StatusNotFound, "checklist item not found")
		return
	}

	toggled, err := s.projects.ToggleChecklistItem(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toChecklistItemDTO(toggled))
}

func (s *Server) handleDeleteChecklistItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if s.checklistOwner(w, r, id) == nil {
		return
	}
	if err := s.projects.DeleteChecklistItem(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) checklistOwner(w http.ResponseWriter, r *http.Request, itemID int64) *core.Project {
	item, err := s.repo.GetChecklistItem(r.Context(), itemID)
	if err != nil {
		respondServiceError(w, r, err)
		return nil
	}
	p, err := s.projects.GetProject(r.Context(), item.ProjectID)
	if err != nil {
		respondServiceError(w, r, err)
		return nil
	}
	if currentUser(r).ID != p.OwnerID {
		respondError(w, r, http.StatusNotFound, "checklist item not found")
		return nil
	}
	return p
}

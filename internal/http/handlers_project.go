package http

import (
	"fmt"
	"net/http"

	"github.com/gabrielarrudexx/YBYOCA/internal/core"
	"github.com/gabrielarrudexx/YBYOCA/internal/report/pdf"
)

func reportKey(projectID int64) string {
	return fmt.Sprintf("report:%d", projectID)
}

// canView reports whether the user may see the project: its owning
// architect or its client.
func canView(user *core.User, p *core.Project) bool {
	return user.ID == p.OwnerID || user.ID == p.ClientID
}

// loadProject fetches the project and enforces visibility. Inaccessible
// projects read as missing so IDs are not probeable.
func (s *Server) loadProject(w http.ResponseWriter, r *http.Request) *core.Project {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return nil
	}
	p, err := s.projects.GetProject(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return nil
	}
	if !canView(currentUser(r), p) {
		respondError(w, r, http.StatusNotFound, "project not found")
		return nil
	}
	return p
}

// requireOwnedProject is loadProject plus an ownership check for mutations.
func (s *Server) requireOwnedProject(w http.ResponseWriter, r *http.Request) *core.Project {
	p := s.loadProject(w, r)
	if p == nil {
		return nil
	}
	if currentUser(r).ID != p.OwnerID {
		respondError(w, r, http.StatusForbidden, "only the owning architect can modify this project")
		return nil
	}
	return p
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Budget   string `json:"budget"`
		ClientID int64  `json:"client_id"`
	}
	if err := parseBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	budgetCents := int64(0)
	if req.Budget != "" {
		parsed, err := core.ParseDecimalToCents(req.Budget)
		if err != nil {
			respondError(w, r, http.StatusUnprocessableEntity, fmt.Sprintf("invalid budget: %v", err))
			return
		}
		budgetCents = parsed
	}

	p, err := s.projects.CreateProject(r.Context(), sanitizeInput(req.Name), budgetCents, currentUser(r).ID, req.ClientID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toProjectDTO(p))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	status := core.ProjectStatus(r.URL.Query().Get("status"))
	switch status {
	case "", core.ProjectInProgress, core.ProjectCompleted:
	default:
		respondError(w, r, http.StatusBadRequest, "status must be in_progress or completed")
		return
	}

	projects, err := s.projects.ListProjects(r.Context(), currentUser(r), status)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toProjectDTOs(projects))
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p := s.loadProject(w, r)
	if p == nil {
		return
	}
	respondJSON(w, http.StatusOK, toProjectDTO(p))
}

func (s *Server) handleFinalizeProject(w http.ResponseWriter, r *http.Request) {
	p := s.requireOwnedProject(w, r)
	if p == nil {
		return
	}

	done, err := s.projects.FinalizeProject(r.Context(), p.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.reportCache.Delete(reportKey(p.ID))
	respondJSON(w, http.StatusOK, toProjectDTO(done))
}

// handleProjectReport renders the project's report as a PDF document.
// Rendered documents are cached until the ledger changes.
func (s *Server) handleProjectReport(w http.ResponseWriter, r *http.Request) {
	p := s.loadProject(w, r)
	if p == nil {
		return
	}

	key := reportKey(p.ID)
	doc, ok := s.reportCache.Get(key)
	if !ok {
		model, err := s.reports.BuildReport(r.Context(), p.ID)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		doc, err = pdf.Render(model)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		s.reportCache.Set(key, doc)
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("relatorio_projeto_%d.pdf", p.ID)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	p := s.requireOwnedProject(w, r)
	if p == nil {
		return
	}
	if s.exporter == nil {
		respondError(w, r, http.StatusNotImplemented, "no spreadsheet export configured")
		return
	}

	model, err := s.reports.BuildReport(r.Context(), p.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	ref, err := s.exporter.ExportReport(r.Context(), model)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"ref": ref})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	p := s.loadProject(w, r)
	if p == nil {
		return
	}
	alerts, err := s.projects.ListAlerts(r.Context(), p.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	out := make([]alertDTO, 0, len(alerts))
	for i := range alerts {
		out = append(out, toAlertDTO(&alerts[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

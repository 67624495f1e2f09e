package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gabrielarrudexx/YBYOCA/internal/core"
	"github.com/gabrielarrudexx/YBYOCA/internal/storage"
)

// ProjectService handles project lifecycle, phases and checklists.
type ProjectService struct {
	storage *storage.SQLiteRepository
}

func NewProjectService(storage *storage.SQLiteRepository) *ProjectService {
	return &ProjectService{storage: storage}
}

// CreateProject creates a project owned by an architect on behalf of a
// client. A zero budget is allowed; spent always starts at zero.
func (s *ProjectService) CreateProject(ctx context.Context, name string, budgetCents, ownerID, clientID int64) (*core.Project, error) {
	p := core.Project{
		Name:     name,
		Budget:   core.Money{Cents: budgetCents},
		OwnerID:  ownerID,
		ClientID: clientID,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	owner, err := s.storage.GetUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("project owner %d: %w", ownerID, err)
	}
	if owner.Role != core.RoleArchitect {
		return nil, fmt.Errorf("user %d is not an architect: %w", ownerID, core.ErrInvalidInput)
	}
	client, err := s.storage.GetUser(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("project client %d: %w", clientID, err)
	}
	if client.Role != core.RoleClient {
		return nil, fmt.Errorf("user %d is not a client: %w", clientID, core.ErrInvalidInput)
	}

	return s.storage.CreateProject(ctx, p)
}

func (s *ProjectService) GetProject(ctx context.Context, id int64) (*core.Project, error) {
	return s.storage.GetProject(ctx, id)
}

// ListProjects returns the projects visible to the user: owned projects for
// architects (optionally filtered by status), commissioned ones for clients.
func (s *ProjectService) ListProjects(ctx context.Context, user *core.User, status core.ProjectStatus) ([]core.Project, error) {
	if user.Role == core.RoleClient {
		return s.storage.ListProjectsByClient(ctx, user.ID)
	}
	return s.storage.ListProjectsByArchitect(ctx, user.ID, status)
}

// FinalizeProject marks a project completed. A second call fails with
// core.ErrAlreadyCompleted.
func (s *ProjectService) FinalizeProject(ctx context.Context, id int64) (*core.Project, error) {
	return s.storage.FinalizeProject(ctx, id, time.Now())
}

// --- Phases ---

func (s *ProjectService) CreatePhase(ctx context.Context, ph core.ProjectPhase) (*core.ProjectPhase, error) {
	if ph.Status == "" {
		ph.Status = core.PhasePending
	}
	if err := ph.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.storage.GetProject(ctx, ph.ProjectID); err != nil {
		return nil, err
	}
	return s.storage.CreatePhase(ctx, ph)
}

func (s *ProjectService) ListPhases(ctx context.Context, projectID int64) ([]core.ProjectPhase, error) {
	if _, err := s.storage.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.storage.ListPhases(ctx, projectID)
}

func (s *ProjectService) UpdatePhase(ctx context.Context, id int64, patch storage.PhasePatch) (*core.ProjectPhase, error) {
	return s.storage.UpdatePhase(ctx, id, patch)
}

func (s *ProjectService) DeletePhase(ctx context.Context, id int64) error {
	return s.storage.DeletePhase(ctx, id)
}

// --- Checklist ---

func (s *ProjectService) CreateChecklistItem(ctx context.Context, item core.ChecklistItem) (*core.ChecklistItem, error) {
	if item.Priority == "" {
		item.Priority = core.PriorityMedium
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.storage.GetProject(ctx, item.ProjectID); err != nil {
		return nil, err
	}
	return s.storage.CreateChecklistItem(ctx, item)
}

func (s *ProjectService) ListChecklist(ctx context.Context, projectID int64) ([]core.ChecklistItem, error) {
	if _, err := s.storage.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.storage.ListChecklist(ctx, projectID)
}

func (s *ProjectService) UpdateChecklistItem(ctx context.Context, id int64, patch storage.ChecklistPatch) (*core.ChecklistItem, error) {
	return s.storage.UpdateChecklistItem(ctx, id, patch)
}

func (s *ProjectService) ToggleChecklistItem(ctx context.Context, id int64) (*core.ChecklistItem, error) {
	return s.storage.ToggleChecklistItem(ctx, id)
}

func (s *ProjectService) DeleteChecklistItem(ctx context.Context, id int64) error {
	return s.storage.DeleteChecklistItem(ctx, id)
}

// --- Alerts ---

func (s *ProjectService) ListAlerts(ctx context.Context, projectID int64) ([]core.Alert, error) {
	if _, err := s.storage.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.storage.ListAlerts(ctx, projectID)
}

package http

import (
	"time"

	"github.com/gabrielarrudexx/YBYOCA/internal/core"
)

// Wire representations. Monetary amounts travel as integer cents plus a
// formatted string; incoming amounts are decimal strings ("1234.56").

type moneyDTO struct {
	Cents     int64  `json:"cents"`
	Formatted string `json:"formatted"`
}

func toMoneyDTO(m core.Money) moneyDTO {
	return moneyDTO{Cents: m.Cents, Formatted: m.BRL()}
}

type userDTO struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toUserDTO(u *core.User) userDTO {
	return userDTO{ID: u.ID, Email: u.Email, Role: string(u.Role)}
}

type projectDTO struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Budget      moneyDTO   `json:"budget"`
	Spent       moneyDTO   `json:"spent"`
	Remaining   moneyDTO   `json:"remaining"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	OwnerID     int64      `json:"owner_id"`
	ClientID    int64      `json:"client_id"`
}

func toProjectDTO(p *core.Project) projectDTO {
	return projectDTO{
		ID:          p.ID,
		Name:        p.Name,
		Budget:      toMoneyDTO(p.Budget),
		Spent:       toMoneyDTO(p.Spent),
		Remaining:   toMoneyDTO(p.Remaining()),
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		CompletedAt: p.CompletedAt,
		OwnerID:     p.OwnerID,
		ClientID:    p.ClientID,
	}
}

func toProjectDTOs(projects []core.Project) []projectDTO {
	out := make([]projectDTO, 0, len(projects))
	for i := range projects {
		out = append(out, toProjectDTO(&projects[i]))
	}
	return out
}

type expenseDTO struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Name      string    `json:"name"`
	Value     moneyDTO  `json:"value"`
	Category  string    `json:"category"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toExpenseDTO(e *core.Expense) expenseDTO {
	return expenseDTO{
		ID:        e.ID,
		ProjectID: e.ProjectID,
		Name:      e.Name,
		Value:     toMoneyDTO(e.Value),
		Category:  e.Category,
		PhotoURL:  e.PhotoURL,
		Status:    string(e.Status),
		CreatedAt: e.CreatedAt,
	}
}

func toExpenseDTOs(expenses []core.Expense) []expenseDTO {
	out := make([]expenseDTO, 0, len(expenses))
	for i := range expenses {
		out = append(out, toExpenseDTO(&expenses[i]))
	}
	return out
}

type phaseDTO struct {
	ID                 int64      `json:"id"`
	ProjectID          int64      `json:"project_id"`
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	Status             string     `json:"status"`
	ProgressPercentage float64    `json:"progress_percentage"`
	EstimatedCost      moneyDTO   `json:"estimated_cost"`
	ActualCost         moneyDTO   `json:"actual_cost"`
	Notes              string     `json:"notes,omitempty"`
}

func toPhaseDTO(ph *core.ProjectPhase) phaseDTO {
	return phaseDTO{
		ID:                 ph.ID,
		ProjectID:          ph.ProjectID,
		Name:               ph.Name,
		Description:        ph.Description,
		StartDate:          ph.StartDate,
		EndDate:            ph.EndDate,
		Status:             string(ph.Status),
		ProgressPercentage: ph.ProgressPercentage,
		EstimatedCost:      toMoneyDTO(ph.EstimatedCost),
		ActualCost:         toMoneyDTO(ph.ActualCost),
		Notes:              ph.Notes,
	}
}

type checklistItemDTO struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	Name        string     `json:"name"`
	IsCompleted bool       `json:"is_completed"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

func toChecklistItemDTO(item *core.ChecklistItem) checklistItemDTO {
	return checklistItemDTO{
		ID:          item.ID,
		ProjectID:   item.ProjectID,
		Name:        item.Name,
		IsCompleted: item.IsCompleted,
		Priority:    string(item.Priority),
		DueDate:     item.DueDate,
		Notes:       item.Notes,
	}
}

type alertDTO struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func toAlertDTO(a *core.Alert) alertDTO {
	return alertDTO{
		ID:        a.ID,
		ProjectID: a.ProjectID,
		Type:      string(a.Type),
		Title:     a.Title,
		Message:   a.Message,
		Severity:  a.Severity,
		IsRead:    a.IsRead,
		CreatedAt: a.CreatedAt,
	}
}

package core

import (
	"errors"
	"strings"
	"time"
)

const (
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
)

const (
	ExpenseActive  ExpenseStatus = "active"
	ExpenseDeleted ExpenseStatus = "deleted"
)

const (
	PhasePending    PhaseStatus = "pending"
	PhaseInProgress PhaseStatus = "in_progress"
	PhaseDone       PhaseStatus = "done"
	PhaseLate       PhaseStatus = "late"
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const (
	RoleArchitect Role = "architect"
	RoleClient    Role = "client"
)

const (
	AlertBudgetOverrun AlertType = "budget_overrun"
	AlertLedgerDrift   AlertType = "ledger_drift"
)

type (
	ProjectStatus string
	ExpenseStatus string
	PhaseStatus   string
	Priority      string
	Role          string
	AlertType     string

	// Project is the ledger aggregate. Spent is derived state: it must equal
	// the sum of values over this project's active expenses after every
	// mutation, not just eventually.
	Project struct {
		ID          int64
		Name        string
		Budget      Money
		Spent       Money
		Status      ProjectStatus
		CreatedAt   time.Time
		CompletedAt *time.Time
		OwnerID     int64 // architect
		ClientID    int64
	}

	// Expense is a ledger entry. Deletion is a one-way transition of Status
	// to ExpenseDeleted; the record itself is never removed, preserving the
	// audit trail.
	Expense struct {
		ID        int64
		ProjectID int64
		Name      string
		Value     Money
		Category  string
		PhotoURL  string
		Status    ExpenseStatus
		CreatedAt time.Time
	}

	ProjectPhase struct {
		ID                 int64
		ProjectID          int64
		Name               string
		Description        string
		StartDate          *time.Time
		EndDate            *time.Time
		Status             PhaseStatus
		ProgressPercentage float64 // 0-100
		EstimatedCost      Money
		ActualCost         Money
		Notes              string
	}

	ChecklistItem struct {
		ID          int64
		ProjectID   int64
		Name        string
		IsCompleted bool
		Priority    Priority
		DueDate     *time.Time
		Notes       string
	}

	User struct {
		ID             int64
		Email          string
		HashedPassword string
		Role           Role
	}

	Alert struct {
		ID        int64
		ProjectID int64
		Type      AlertType
		Title     string
		Message   string
		Severity  string
		IsRead    bool
		CreatedAt time.Time
	}
)

var (
	// ErrNotFound reports that a referenced project, expense, phase or
	// checklist item does not exist. Surfaced to the caller, never retried.
	ErrNotFound = errors.New("not found")

	// ErrInvariantViolation reports that the store holds a state where a
	// project's spent total cannot be reconciled with its active expenses.
	// Mutating operations must halt on it; the ledger never self-heals by
	// overwriting spent.
	ErrInvariantViolation = errors.New("ledger invariant violation")

	// ErrInvalidInput reports input rejected before any write.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyCompleted reports a second finalize on a completed project.
	ErrAlreadyCompleted = errors.New("project already completed")

	ErrEmptyName     = errors.New("empty name")
	ErrEmptyCategory = errors.New("empty category")
)

// Active reports whether the expense still counts toward its project total.
func (e Expense) Active() bool {
	return e.Status != ExpenseDeleted
}

// Validate checks the cost semantics expected of a new expense: non-empty
// name and category, strictly positive value. The ledger arithmetic itself
// tolerates any value; this check belongs to the caller recording the
// expense.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if e.Value.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Completed reports whether the project has been finalized.
func (p Project) Completed() bool {
	return p.Status == ProjectCompleted
}

// Remaining is budget minus spent; negative means overrun.
func (p Project) Remaining() Money {
	return Money{Cents: p.Budget.Cents - p.Spent.Cents}
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if p.Budget.Cents < 0 {
		return errors.New("negative budget")
	}
	return nil
}

func (ph ProjectPhase) Validate() error {
	if strings.TrimSpace(ph.Name) == "" {
		return ErrEmptyName
	}
	if ph.ProgressPercentage < 0 || ph.ProgressPercentage > 100 {
		return errors.New("progress percentage out of range")
	}
	switch ph.Status {
	case PhasePending, PhaseInProgress, PhaseDone, PhaseLate:
	default:
		return errors.New("invalid phase status")
	}
	if ph.StartDate != nil && ph.EndDate != nil && ph.EndDate.Before(*ph.StartDate) {
		return errors.New("end date before start date")
	}
	return nil
}

func (c ChecklistItem) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	switch c.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return errors.New("invalid priority")
	}
	return nil
}

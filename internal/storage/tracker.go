package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabrielarrudexx/YBYOCA/internal/core"
)

// Phase and checklist storage. These carry no derived invariant; deletes
// are hard deletes and updates are partial patches.

// PhasePatch updates only the fields that are set.
type PhasePatch struct {
	Name               *string
	Description        *string
	StartDate          *time.Time
	EndDate            *time.Time
	Status             *core.PhaseStatus
	ProgressPercentage *float64
	EstimatedCostCents *int64
	ActualCostCents    *int64
	Notes              *string
}

// ChecklistPatch updates only the fields that are set.
type ChecklistPatch struct {
	Name        *string
	IsCompleted *bool
	Priority    *core.Priority
	DueDate     *time.Time
	Notes       *string
}

const phaseColumns = `id, project_id, name, description, start_date, end_date, status, progress_percentage, estimated_cost_cents, actual_cost_cents, notes`

func (r *SQLiteRepository) CreatePhase(ctx context.Context, ph core.ProjectPhase) (*core.ProjectPhase, error) {
	if ph.Status == "" {
		ph.Status = core.PhasePending
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO project_phases (project_id, name, description, start_date, end_date, status, progress_percentage, estimated_cost_cents, actual_cost_cents, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ph.ProjectID, ph.Name, ph.Description, nullableTime(ph.StartDate), nullableTime(ph.EndDate),
		string(ph.Status), ph.ProgressPercentage, ph.EstimatedCost.Cents, ph.ActualCost.Cents, ph.Notes)
	if err != nil {
		return nil, fmt.Errorf("create phase: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create phase id: %w", err)
	}
	ph.ID = id
	return &ph, nil
}

func (r *SQLiteRepository) GetPhase(ctx context.Context, id int64) (*core.ProjectPhase, error) {
	ph, err := scanPhaseRow(r.db.QueryRowContext(ctx,
		`SELECT `+phaseColumns+` FROM project_phases WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("phase %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get phase %d: %w", id, err)
	}
	return ph, nil
}

func (r *SQLiteRepository) ListPhases(ctx context.Context, projectID int64) ([]core.ProjectPhase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+phaseColumns+` FROM project_phases WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	defer rows.Close()

	var phases []core.ProjectPhase
	for rows.Next() {
		ph, err := scanPhaseRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		phases = append(phases, *ph)
	}
	return phases, rows.Err()
}

func (r *SQLiteRepository) UpdatePhase(ctx context.Context, id int64, patch PhasePatch) (*core.ProjectPhase, error) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.StartDate != nil {
		add("start_date", *patch.StartDate)
	}
	if patch.EndDate != nil {
		add("end_date", *patch.EndDate)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.ProgressPercentage != nil {
		add("progress_percentage", *patch.ProgressPercentage)
	}
	if patch.EstimatedCostCents != nil {
		add("estimated_cost_cents", *patch.EstimatedCostCents)
	}
	if patch.ActualCostCents != nil {
		add("actual_cost_cents", *patch.ActualCostCents)
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	if len(sets) > 0 {
		args = append(args, id)
		res, err := r.db.ExecContext(ctx,
			`UPDATE project_phases SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return nil, fmt.Errorf("update phase %d: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, fmt.Errorf("phase %d: %w", id, core.ErrNotFound)
		}
	}
	return r.GetPhase(ctx, id)
}

func (r *SQLiteRepository) DeletePhase(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM project_phases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete phase %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("phase %d: %w", id, core.ErrNotFound)
	}
	return nil
}

const checklistColumns = `id, project_id, name, is_completed, priority, due_date, notes`

func (r *SQLiteRepository) CreateChecklistItem(ctx context.Context, item core.ChecklistItem) (*core.ChecklistItem, error) {
	if item.Priority == "" {
		item.Priority = core.PriorityMedium
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO checklist_items (project_id, name, is_completed, priority, due_date, notes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		item.ProjectID, item.Name, item.IsCompleted, string(item.Priority), nullableTime(item.DueDate), item.Notes)
	if err != nil {
		return nil, fmt.Errorf("create checklist item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create checklist item id: %w", err)
	}
	item.ID = id
	return &item, nil
}

func (r *SQLiteRepository) GetChecklistItem(ctx context.Context, id int64) (*core.ChecklistItem, error) {
	item, err := scanChecklistRow(r.db.QueryRowContext(ctx,
		`SELECT `+checklistColumns+` FROM checklist_items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checklist item %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get checklist item %d: %w", id, err)
	}
	return item, nil
}

func (r *SQLiteRepository) ListChecklist(ctx context.Context, projectID int64) ([]core.ChecklistItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+checklistColumns+` FROM checklist_items WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list checklist: %w", err)
	}
	defer rows.Close()

	var items []core.ChecklistItem
	for rows.Next() {
		item, err := scanChecklistRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checklist item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *SQLiteRepository) UpdateChecklistItem(ctx context.Context, id int64, patch ChecklistPatch) (*core.ChecklistItem, error) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.IsCompleted != nil {
		add("is_completed", *patch.IsCompleted)
	}
	if patch.Priority != nil {
		add("priority", string(*patch.Priority))
	}
	if patch.DueDate != nil {
		add("due_date", *patch.DueDate)
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	if len(sets) > 0 {
		args = append(args, id)
		res, err := r.db.ExecContext(ctx,
			`UPDATE checklist_items SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return nil, fmt.Errorf("update checklist item %d: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, fmt.Errorf("checklist item %d: %w", id, core.ErrNotFound)
		}
	}
	return r.GetChecklistItem(ctx, id)
}

func (r *SQLiteRepository) ToggleChecklistItem(ctx context.Context, id int64) (*core.ChecklistItem, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE checklist_items SET is_completed = NOT is_completed WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("toggle checklist item %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("checklist item %d: %w", id, core.ErrNotFound)
	}
	return r.GetChecklistItem(ctx, id)
}

func (r *SQLiteRepository) DeleteChecklistItem(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM checklist_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete checklist item %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("checklist item %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func scanPhaseRow(s rowScanner) (*core.ProjectPhase, error) {
	var (
		ph         core.ProjectPhase
		start, end sql.NullTime
	)
	err := s.Scan(&ph.ID, &ph.ProjectID, &ph.Name, &ph.Description, &start, &end,
		&ph.Status, &ph.ProgressPercentage, &ph.EstimatedCost.Cents, &ph.ActualCost.Cents, &ph.Notes)
	if err != nil {
		return nil, err
	}
	if start.Valid {
		t := start.Time
		ph.StartDate = &t
	}
	if end.Valid {
		t := end.Time
		ph.EndDate = &t
	}
	return &ph, nil
}

func scanChecklistRow(s rowScanner) (*core.ChecklistItem, error) {
	var (
		item core.ChecklistItem
		due  sql.NullTime
	)
	err := s.Scan(&item.ID, &item.ProjectID, &item.Name, &item.IsCompleted,
		&item.Priority, &due, &item.Notes)
	if err != nil {
		return nil, err
	}
	if due.Valid {
		t := due.Time
		item.DueDate = &t
	}
	return &item, nil
}

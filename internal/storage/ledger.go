package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gabrielarrudexx/YBYOCA/internal/core"
)

// Ledger operations. The invariant here is
//
//	project.spent == sum(value of active expenses of the project)
//
// and it must hold after every call, not just eventually. Each mutation
// writes the expense row and the spent delta in one transaction; a commit
// that applied only one of the two would corrupt the ledger.

const expenseColumns = `id, project_id, name, value_cents, category, photo_url, status, created_at`

// AddExpense records an expense against an existing project and increments
// the project's spent total atomically with the insert.
func (r *SQLiteRepository) AddExpense(ctx context.Context, projectID int64, name string, valueCents int64, category, photoURL string) (*core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin add expense: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM projects WHERE id = ?`, projectID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check project %d: %w", projectID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("add expense: project %d: %w", projectID, core.ErrNotFound)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (project_id, name, value_cents, category, photo_url, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		projectID, name, valueCents, category, photoURL, string(core.ExpenseActive), now)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert expense id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE projects SET spent_cents = spent_cents + ? WHERE id = ?`,
		valueCents, projectID); err != nil {
		return nil, fmt.Errorf("increment spent for project %d: %w", projectID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add expense: %w", err)
	}

	return &core.Expense{
		ID:        id,
		ProjectID: projectID,
		Name:      name,
		Value:     core.Money{Cents: valueCents},
		Category:  category,
		PhotoURL:  photoURL,
		Status:    core.ExpenseActive,
		CreatedAt: now,
	}, nil
}

// RemoveExpense soft-deletes an expense and decrements the owning project's
// spent total atomically. Removing an already-deleted expense is a no-op
// returning the record unchanged. A deleted expense whose owning project is
// gone means the store is corrupt: the decrement cannot be applied, so the
// operation fails loudly instead of skipping it.
func (r *SQLiteRepository) RemoveExpense(ctx context.Context, expenseID int64) (*core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin remove expense: %w", err)
	}
	defer tx.Rollback()

	e, err := scanExpenseRow(tx.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, expenseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("remove expense %d: %w", expenseID, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load expense %d: %w", expenseID, err)
	}

	if e.Status == core.ExpenseDeleted {
		return e, nil
	}

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM projects WHERE id = ?`, e.ProjectID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check project %d: %w", e.ProjectID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("remove expense %d: owning project %d missing, spent cannot be decremented: %w",
			expenseID, e.ProjectID, core.ErrInvariantViolation)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE expenses SET status = ? WHERE id = ?`,
		string(core.ExpenseDeleted), expenseID); err != nil {
		return nil, fmt.Errorf("mark expense %d deleted: %w", expenseID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE projects SET spent_cents = spent_cents - ? WHERE id = ?`,
		e.Value.Cents, e.ProjectID); err != nil {
		return nil, fmt.Errorf("decrement spent for project %d: %w", e.ProjectID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit remove expense: %w", err)
	}

	e.Status = core.ExpenseDeleted
	return e, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (*core.Expense, error) {
	e, err := scanExpenseRow(r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// ListActiveExpenses returns the project's non-deleted expenses in creation
// order.
func (r *SQLiteRepository) ListActiveExpenses(ctx context.Context, projectID int64) ([]core.Expense, error) {
	return r.listExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE project_id = ? AND status = ? ORDER BY id`,
		projectID, string(core.ExpenseActive))
}

// ListAllExpenses returns every expense of the project, deleted ones
// included, for audit purposes.
func (r *SQLiteRepository) ListAllExpenses(ctx context.Context, projectID int64) ([]core.Expense, error) {
	return r.listExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE project_id = ? ORDER BY id`, projectID)
}

func (r *SQLiteRepository) listExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpenseRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

// CheckLedger recomputes the active-expense sum and compares it with the
// stored spent total. Drift is reported as ErrInvariantViolation; the stored
// value is never overwritten to match.
func (r *SQLiteRepository) CheckLedger(ctx context.Context, projectID int64) error {
	var spent, active int64
	err := r.db.QueryRowContext(ctx,
		`SELECT p.spent_cents,
		        COALESCE((SELECT SUM(e.value_cents) FROM expenses e
		                  WHERE e.project_id = p.id AND e.status = ?), 0)
		 FROM projects p WHERE p.id = ?`,
		string(core.ExpenseActive), projectID).Scan(&spent, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check ledger: project %d: %w", projectID, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check ledger for project %d: %w", projectID, err)
	}
	if spent != active {
		return fmt.Errorf("project %d: spent %d does not match active expense sum %d: %w",
			projectID, spent, active, core.ErrInvariantViolation)
	}
	return nil
}

func scanExpenseRow(s rowScanner) (*core.Expense, error) {
	var e core.Expense
	err := s.Scan(&e.ID, &e.ProjectID, &e.Name, &e.Value.Cents, &e.Category,
		&e.PhotoURL, &e.Status, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

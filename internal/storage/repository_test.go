package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gabrielarrudexx/YBYOCA/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedProject(t *testing.T, repo *SQLiteRepository, budgetCents int64) *core.Project {
	t.Helper()
	ctx := context.Background()
	architect, err := repo.CreateUser(ctx, core.User{Email: "arch@test.local", HashedPassword: "x", Role: core.RoleArchitect})
	if err != nil {
		t.Fatalf("create architect: %v", err)
	}
	client, err := repo.CreateUser(ctx, core.User{Email: "client@test.local", HashedPassword: "x", Role: core.RoleClient})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	p, err := repo.CreateProject(ctx, core.Project{
		Name:     "Casa Alphaville",
		Budget:   core.Money{Cents: budgetCents},
		OwnerID:  architect.ID,
		ClientID: client.ID,
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

// assertLedger verifies the core invariant: spent equals the sum of active
// expense values, recomputed from the rows.
func assertLedger(t *testing.T, repo *SQLiteRepository, projectID int64) {
	t.Helper()
	ctx := context.Background()
	p, err := repo.GetProject(ctx, projectID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	expenses, err := repo.ListActiveExpenses(ctx, projectID)
	if err != nil {
		t.Fatalf("list active expenses: %v", err)
	}
	var sum int64
	for _, e := range expenses {
		sum += e.Value.Cents
	}
	if p.Spent.Cents != sum {
		t.Fatalf("ledger drift: spent %d, active sum %d", p.Spent.Cents, sum)
	}
	if err := repo.CheckLedger(ctx, projectID); err != nil {
		t.Fatalf("CheckLedger: %v", err)
	}
}

func TestAddExpenseMaintainsInvariant(t *testing.T) {
	repo := newTestRepo(t)
	p := seedProject(t, repo, 1000000)
	ctx := context.Background()

	for _, e := range []struct {
		name     string
		cents    int64
		category string
	}{
		{"Cement", 300000, "Materials"},
		{"Labor", 200000, "Labor"},
		{"Tiles", 100000, "Materials"},
	} {
		exp, err := repo.AddExpense(ctx, p.ID, e.name, e.cents, e.category, "")
		if err != nil {
			t.Fatalf("add %s: %v", e.name, err)
		}
		if exp.Status != core.ExpenseActive {
			t.Fatalf("new expense should be active, got %s", exp.Status)
		}
		assertLedger(t, repo, p.ID)
	}

	got, err := repo.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if got.Spent.Cents != 600000 {
		t.Fatalf("expected spent 600000, got %d", got.Spent.Cents)
	}
}

func TestAddExpenseMissingProject(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.AddExpense(context.Background(), 9999, "Cement", 100, "Materials", "")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveExpense(t *testing.T) {
	repo := newTestRepo(t)
	p := seedProject(t, repo, 1000000)
	ctx := context.Background()

	cement, err := repo.AddExpense(ctx, p.ID, "Cement", 300000, "Materials", "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := repo.AddExpense(ctx, p.ID, "Labor", 200000, "Labor", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := repo.AddExpense(ctx, p.ID, "Tiles", 100000, "Materials", ""); err != nil {
		t.Fatalf("add: %v", err)
	}

	removed, err := repo.RemoveExpense(ctx, cement.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.Status != core.ExpenseDeleted {
		t.Fatalf("expected deleted status, got %s", removed.Status)
	}
	assertLedger(t, repo, p.ID)

	got, err := repo.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if got.Spent.Cents != 300000 {
		t.Fatalf("expected spent 300000 after removal, got %d", got.Spent.Cents)
	}

	// Listing no longer includes the removed expense, but the audit listing
	// still does.
	active, err := repo.ListActiveExpenses(ctx, p.ID)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active expenses, got %d", len(active))
	}
	for _, e := range active {
		if e.ID == cement.ID {
			t.Fatal("removed expense still listed as active")
		}
	}
	all, err := repo.ListAllExpenses(ctx, p.ID)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows in audit listing, got %d", len(all))
	}
}

func TestRemoveExpenseIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	p := seedProject(t, repo, 1000000)
	ctx := context.Background()

	e, err := repo.AddExpense(ctx, p.ID, "Cement", 300000, "Materials", "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := repo.RemoveExpense(ctx, e.ID); err != nil {
		t.Fatalf("first remove: %v", err)
	}
	spentAfterFirst, err := repo.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}

	again, err := repo.RemoveExpense(ctx, e.ID)
	if err != nil {
		t.Fatalf("second remove should be a no-op, got %v", err)
	}
	if again.Status != core.ExpenseDeleted {
		t.Fatalf("expected deleted status, got %s", again.Status)
	}

	spentAfterSecond, err := repo.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if spentAfterSecond.Spent.Cents != spentAfterFirst.Spent.Cents {
		t.Fatalf("second remove changed spent: %d -> %d",
			spentAfterFirst.Spent.Cents, spentAfterSecond.Spent.Cents)
	}
	assertLedger(t, repo, p.ID)
}

func TestRemoveExpenseNotFound(t *testing.T) {
	repo := newTestRepo(t)
	seedProject(t, repo, 1000000)
	_, err := repo.RemoveExpense(context.Background(), 424242)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveExpenseMissingProjectFailsLoudly(t *testing.T) {
	repo := newTestRepo(t)
	p := seedProject(t, repo, 1000000)
	ctx := context.Background()

	e, err := repo.AddExpense(ctx, p.ID, "Cement", 300000, "Materials", "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// Simulate store corruption: the owning project row vanishes. The
	// decrement can no longer be applied, so the removal must fail with an
	// inconsistency error rather than silently skip it.
	if _, err := repo.db.ExecContext(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		t.Fatalf("disable fk: %v", err)
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, p.ID); err != nil {
		t.Fatalf("corrupt store: %v", err)
	}

	_, err = repo.RemoveExpense(ctx, e.ID)
	if !errors.Is(err, core.ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}

	// The expense must be untouched: no half-applied removal.
	got, err := repo.GetExpense(ctx, e.ID)
	if err != nil {
		t.Fatalf("get expense: %v", err)
	}
	if got.Status != core.ExpenseActive {
		t.Fatalf("expense mutated despite failed removal: %s", got.Status)
	}
}

func TestAddRemoveRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	p := seedProject(t, repo, 1000000)
	ctx := context.Background()

	if _, err := repo.AddExpense(ctx, p.ID, "Base", 123456, "Materials", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	before, err := repo.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}

	e, err := repo.AddExpense(ctx, p.ID, "Paint", 78900, "Materials", "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := repo.RemoveExpense(ctx, e.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	after, err := repo.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if after.Spent.Cents != before.Spent.Cents {
		t.Fatalf("round trip did not restore spent: %d -> %d", before.Spent.Cents, after.Spent.Cents)
	}
	assertLedger(t, repo, p.ID)
}

func TestListActiveExpensesCreationOrder(t *testing.T) {
	repo := newTestRepo(t)
	p := seedProject(t, repo, 1000000)
	ctx := context.Background()

	names := []string{"Cement", "Labor", "Tiles", "Paint"}
	for _, n := range names {
		if _, err := repo.AddExpense(ctx, p.ID, n, 1000, "Misc", ""); err != nil {
			t.Fatalf("add %s: %v", n, err)
		}
	}
	expenses, err := repo.ListActiveExpenses(ctx, p.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(expenses) != len(names) {
		t.Fatalf("expected %d expenses, got %d", len(names), len(expenses))
	}
	for i, e := range expenses {
		if e.Name != names[i] {
			t.Fatalf("position %d: expected %s, got %s", i, names[i], e.Name)
		}
	}
}

func TestCheckLedgerDetectsDrift(t *testing.T) {
	repo := newTestRepo(t)
	p := seedProject(t, repo, 1000000)
	ctx := context.Background()

	if _, err := repo.AddExpense(ctx, p.ID, "Cement", 300000, "Materials", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := repo.CheckLedger(ctx, p.ID); err != nil {
		t.Fatalf("expected consistent ledger, got %v", err)
	}

	// Corrupt the aggregate directly.
	if _, err := repo.db.ExecContext(ctx,
		`UPDATE projects SET spent_cents = spent_cents + 1 WHERE id = ?`, p.ID); err != nil {
		t.Fatalf("corrupt spent: %v", err)
	}
	err := repo.CheckLedger(ctx, p.ID)
	if !errors.Is(err, core.ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}
}

func TestCheckLedgerMissingProject(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.CheckLedger(context.Background(), 777)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFinalizeProject(t *testing.T) {
	repo := newTestRepo(t)
	p := seedProject(t, repo, 1000000)
	ctx := context.Background()

	done, err := repo.FinalizeProject(ctx, p.ID, time.Now())
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if done.Status != core.ProjectCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}
	if done.CompletedAt == nil {
		t.Fatal("completedAt not stamped")
	}
	if done.CompletedAt.Before(done.CreatedAt) {
		t.Fatalf("completedAt %v precedes createdAt %v", done.CompletedAt, done.CreatedAt)
	}

	_, err = repo.FinalizeProject(ctx, p.ID, time.Now())
	if !errors.Is(err, core.ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
}

func TestFinalizeProjectClampsTimestamp(t *testing.T) {
	repo := newTestRepo(t)
	p := seedProject(t, repo, 1000000)

	// A skewed clock must not produce completedAt < createdAt.
	done, err := repo.FinalizeProject(context.Background(), p.ID, p.CreatedAt.Add(-time.Hour))
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if done.CompletedAt.Before(done.CreatedAt) {
		t.Fatalf("completedAt %v precedes createdAt %v", done.CompletedAt, done.CreatedAt)
	}
}

func TestProjectListing(t *testing.T) {
	repo := newTestRepo(t)
	p := seedProject(t, repo, 1000000)
	ctx := context.Background()

	second, err := repo.CreateProject(ctx, core.Project{
		Name: "Loft Centro", Budget: core.Money{Cents: 500000},
		OwnerID: p.OwnerID, ClientID: p.ClientID,
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, err := repo.FinalizeProject(ctx, second.ID, time.Now()); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	all, err := repo.ListProjectsByArchitect(ctx, p.OwnerID, "")
	if err != nil {
		t.Fatalf("list by architect: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(all))
	}

	completed, err := repo.ListProjectsByArchitect(ctx, p.OwnerID, core.ProjectCompleted)
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != second.ID {
		t.Fatalf("status filter wrong: %+v", completed)
	}

	byClient, err := repo.ListProjectsByClient(ctx, p.ClientID)
	if err != nil {
		t.Fatalf("list by client: %v", err)
	}
	if len(byClient) != 2 {
		t.Fatalf("expected 2 client projects, got %d", len(byClient))
	}
}

func TestPhasePatchUpdatesOnlyProvidedFields(t *testing.T) {
	repo := newTestRepo(t)
	p := seedProject(t, repo, 1000000)
	ctx := context.Background()

	ph, err := repo.CreatePhase(ctx, core.ProjectPhase{
		ProjectID:     p.ID,
		Name:          "Foundation",
		Description:   "dig and pour",
		Status:        core.PhasePending,
		EstimatedCost: core.Money{Cents: 200000},
	})
	if err != nil {
		t.Fatalf("create phase: %v", err)
	}

	status := core.PhaseInProgress
	progress := 40.0
	updated, err := repo.UpdatePhase(ctx, ph.ID, PhasePatch{
		Status:             &status,
		ProgressPercentage: &progress,
	})
	if err != nil {
		t.Fatalf("update phase: %v", err)
	}
	if updated.Status != core.PhaseInProgress || updated.ProgressPercentage != 40 {
		t.Fatalf("patched fields not applied: %+v", updated)
	}
	if updated.Name != "Foundation" || updated.Description != "dig and pour" ||
		updated.EstimatedCost.Cents != 200000 {
		t.Fatalf("untouched fields changed: %+v", updated)
	}

	if err := repo.DeletePhase(ctx, ph.ID); err != nil {
		t.Fatalf("delete phase: %v", err)
	}
	if _, err := repo.GetPhase(ctx, ph.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after hard delete, got %v", err)
	}
}

func TestChecklistToggle(t *testing.T) {
	repo := newTestRepo(t)
	p := seedProject(t, repo, 1000000)
	ctx := context.Background()

	item, err := repo.CreateChecklistItem(ctx, core.ChecklistItem{
		ProjectID: p.ID,
		Name:      "Inspect wiring",
		Priority:  core.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if item.IsCompleted {
		t.Fatal("new item should not be completed")
	}

	toggled, err := repo.ToggleChecklistItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.IsCompleted {
		t.Fatal("expected completed after toggle")
	}
	back, err := repo.ToggleChecklistItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if back.IsCompleted {
		t.Fatal("expected not completed after second toggle")
	}

	if err := repo.DeleteChecklistItem(ctx, item.ID); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	if _, err := repo.GetChecklistItem(ctx, item.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, core.User{Email: "a@b.c", HashedPassword: "h", Role: core.RoleArchitect})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	byEmail, err := repo.GetUserByEmail(ctx, "a@b.c")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != u.ID || byEmail.Role != core.RoleArchitect {
		t.Fatalf("unexpected user: %+v", byEmail)
	}
	if _, err := repo.GetUserByEmail(ctx, "nobody@b.c"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

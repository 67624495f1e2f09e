package worker

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gabrielarrudexx/YBYOCA/internal/amqp"
	"github.com/gabrielarrudexx/YBYOCA/internal/core"
	"github.com/gabrielarrudexx/YBYOCA/internal/storage"
)

var testDBPath string

func setup(t *testing.T) (*storage.SQLiteRepository, *core.Project) {
	t.Helper()
	testDBPath = filepath.Join(t.TempDir(), "test.db")
	repo, err := storage.NewSQLiteRepository(testDBPath)
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

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
		Name: "Casa Alphaville", Budget: core.Money{Cents: 500000},
		OwnerID: architect.ID, ClientID: client.ID,
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return repo, p
}

// corruptSpent bumps the stored spent total through a separate connection.
func corruptSpent(t *testing.T, projectID int64) {
	t.Helper()
	db, err := sql.Open("sqlite", testDBPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`UPDATE projects SET spent_cents = spent_cents + 1 WHERE id = ?`, projectID); err != nil {
		t.Fatalf("corrupt spent: %v", err)
	}
}

func TestOverrunAlertRaisedOnce(t *testing.T) {
	repo, p := setup(t)
	w := NewAlertWorker(repo, 0)
	ctx := context.Background()

	// Push the project over its 5000,00 budget.
	e, err := repo.AddExpense(ctx, p.ID, "Cement", 600000, "Materials", "")
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}

	event := amqp.NewExpenseRecorded(p.ID, e.ID, e.Value.Cents)
	if err := w.HandleLedgerEvent(ctx, event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	alerts, err := repo.ListAlerts(ctx, p.ID)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Type != core.AlertBudgetOverrun {
		t.Fatalf("expected one overrun alert, got %+v", alerts)
	}

	// A second overrun event must not duplicate the alert.
	if err := w.HandleLedgerEvent(ctx, event); err != nil {
		t.Fatalf("handle event again: %v", err)
	}
	alerts, _ = repo.ListAlerts(ctx, p.ID)
	if len(alerts) != 1 {
		t.Fatalf("expected overrun alert not to duplicate, got %d alerts", len(alerts))
	}
}

func TestNoAlertWithinBudget(t *testing.T) {
	repo, p := setup(t)
	w := NewAlertWorker(repo, 0)
	ctx := context.Background()

	e, err := repo.AddExpense(ctx, p.ID, "Cement", 100000, "Materials", "")
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if err := w.HandleLedgerEvent(ctx, amqp.NewExpenseRecorded(p.ID, e.ID, e.Value.Cents)); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	alerts, err := repo.ListAlerts(ctx, p.ID)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %+v", alerts)
	}
}

func TestRemovalEventDoesNotRaiseOverrun(t *testing.T) {
	repo, p := setup(t)
	w := NewAlertWorker(repo, 0)
	ctx := context.Background()

	e, err := repo.AddExpense(ctx, p.ID, "Cement", 600000, "Materials", "")
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if _, err := repo.RemoveExpense(ctx, e.ID); err != nil {
		t.Fatalf("remove expense: %v", err)
	}

	if err := w.HandleLedgerEvent(ctx, amqp.NewExpenseRemoved(p.ID, e.ID, e.Value.Cents)); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	alerts, _ := repo.ListAlerts(ctx, p.ID)
	if len(alerts) != 0 {
		t.Fatalf("removal should not raise alerts, got %+v", alerts)
	}
}

func TestEventForMissingProjectIsDropped(t *testing.T) {
	repo, _ := setup(t)
	w := NewAlertWorker(repo, 0)

	err := w.HandleLedgerEvent(context.Background(), amqp.NewExpenseRecorded(9999, 1, 100))
	if err != nil {
		t.Fatalf("missing project should drop the event, got %v", err)
	}
}

func TestSweepRaisesDriftAlert(t *testing.T) {
	repo, p := setup(t)
	w := NewAlertWorker(repo, time.Minute)
	ctx := context.Background()

	if _, err := repo.AddExpense(ctx, p.ID, "Cement", 100000, "Materials", ""); err != nil {
		t.Fatalf("add expense: %v", err)
	}

	// First sweep over a consistent ledger stays quiet.
	if err := w.sweepOnce(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	alerts, _ := repo.ListAlerts(ctx, p.ID)
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts on a consistent ledger, got %+v", alerts)
	}

	// Corrupt the stored total; the sweep must notice and report.
	corruptSpent(t, p.ID)
	if err := w.sweepOnce(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	alerts, _ = repo.ListAlerts(ctx, p.ID)
	if len(alerts) != 1 || alerts[0].Type != core.AlertLedgerDrift {
		t.Fatalf("expected one drift alert, got %+v", alerts)
	}
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gabrielarrudexx/YBYOCA/internal/amqp"
	"github.com/gabrielarrudexx/YBYOCA/internal/core"
	"github.com/gabrielarrudexx/YBYOCA/internal/storage"
)

// AlertWorker watches ledger events and raises project alerts. It never
// mutates the ledger itself: overruns and drift are reported, not fixed.
type AlertWorker struct {
	storage       *storage.SQLiteRepository
	sweepInterval time.Duration
}

func NewAlertWorker(storage *storage.SQLiteRepository, sweepInterval time.Duration) *AlertWorker {
	return &AlertWorker{
		storage:       storage,
		sweepInterval: sweepInterval,
	}
}

// HandleLedgerEvent processes one ledger event: it rechecks the project's
// ledger and raises a budget overrun alert when spent exceeds budget.
func (w *AlertWorker) HandleLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"kind", event.Kind,
		"project_id", event.ProjectID,
		"expense_id", event.ExpenseID)

	project, err := w.storage.GetProject(ctx, event.ProjectID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Project vanished after the event was queued; nothing to alert on.
			slog.WarnContext(ctx, "Project gone, dropping event", "project_id", event.ProjectID)
			return nil
		}
		return fmt.Errorf("get project %d: %w", event.ProjectID, err)
	}

	if err := w.checkDrift(ctx, project.ID); err != nil {
		return err
	}

	if event.Kind == amqp.EventExpenseRecorded && project.Remaining().Cents < 0 {
		return w.raiseOverrunAlert(ctx, project)
	}
	return nil
}

// checkDrift verifies the ledger and records a drift alert if the stored
// spent total disagrees with the active expense sum.
func (w *AlertWorker) checkDrift(ctx context.Context, projectID int64) error {
	err := w.storage.CheckLedger(ctx, projectID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, core.ErrInvariantViolation) {
		return fmt.Errorf("check ledger for project %d: %w", projectID, err)
	}

	slog.ErrorContext(ctx, "Ledger drift detected", "project_id", projectID, "error", err)
	_, alertErr := w.storage.CreateAlert(ctx, core.Alert{
		ProjectID: projectID,
		Type:      core.AlertLedgerDrift,
		Title:     "Divergência no livro-razão",
		Message:   err.Error(),
		Severity:  "high",
	})
	if alertErr != nil {
		return fmt.Errorf("record drift alert: %w", alertErr)
	}
	return nil
}

func (w *AlertWorker) raiseOverrunAlert(ctx context.Context, project *core.Project) error {
	overrun := project.Remaining().Abs()

	// One open overrun alert per project is enough; skip if the latest
	// alert already reports an overrun.
	alerts, err := w.storage.ListAlerts(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("list alerts: %w", err)
	}
	if len(alerts) > 0 && alerts[0].Type == core.AlertBudgetOverrun {
		return nil
	}

	_, err = w.storage.CreateAlert(ctx, core.Alert{
		ProjectID: project.ID,
		Type:      core.AlertBudgetOverrun,
		Title:     "Orçamento estourado",
		Message: fmt.Sprintf("O projeto %q ultrapassou o orçamento em %s.",
			project.Name, overrun.BRL()),
		Severity: "high",
	})
	if err != nil {
		return fmt.Errorf("record overrun alert: %w", err)
	}

	slog.WarnContext(ctx, "Budget overrun alert raised",
		"project_id", project.ID,
		"overrun_cents", overrun.Cents)
	return nil
}

// RunSweep periodically rechecks every in-progress project so drift is
// caught even when no events arrive. Blocks until ctx is cancelled.
func (w *AlertWorker) RunSweep(ctx context.Context) error {
	if w.sweepInterval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.sweepOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "Ledger sweep failed", "error", err)
			}
		}
	}
}

func (w *AlertWorker) sweepOnce(ctx context.Context) error {
	architects, err := w.storage.ListUsersByRole(ctx, core.RoleArchitect)
	if err != nil {
		return fmt.Errorf("list architects: %w", err)
	}
	for _, architect := range architects {
		projects, err := w.storage.ListProjectsByArchitect(ctx, architect.ID, core.ProjectInProgress)
		if err != nil {
			return fmt.Errorf("list projects for architect %d: %w", architect.ID, err)
		}
		for _, p := range projects {
			if err := w.checkDrift(ctx, p.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

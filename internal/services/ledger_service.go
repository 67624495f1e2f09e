package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gabrielarrudexx/YBYOCA/internal/amqp"
	"github.com/gabrielarrudexx/YBYOCA/internal/core"
	"github.com/gabrielarrudexx/YBYOCA/internal/storage"
)

// LedgerService orchestrates expense mutations across SQLite and AMQP.
// The database write is the source of truth; event publishing is best
// effort and never fails the request.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// RecordExpense validates the input, writes the expense together with the
// spent increment, then publishes a recorded event.
func (s *LedgerService) RecordExpense(ctx context.Context, projectID int64, name string, valueCents int64, category, photoURL string) (*core.Expense, error) {
	e := core.Expense{
		ProjectID: projectID,
		Name:      name,
		Value:     core.Money{Cents: valueCents},
		Category:  category,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.storage.AddExpense(ctx, projectID, name, valueCents, category, photoURL)
	if err != nil {
		return nil, fmt.Errorf("record expense: %w", err)
	}

	s.publish(ctx, amqp.NewExpenseRecorded(saved.ProjectID, saved.ID, saved.Value.Cents))
	return saved, nil
}

// RemoveExpense soft-deletes an expense. Removing an already-removed
// expense succeeds without publishing a second event.
func (s *LedgerService) RemoveExpense(ctx context.Context, expenseID int64) (*core.Expense, error) {
	before, err := s.storage.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	alreadyDeleted := before.Status == core.ExpenseDeleted

	removed, err := s.storage.RemoveExpense(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("remove expense: %w", err)
	}

	if !alreadyDeleted {
		s.publish(ctx, amqp.NewExpenseRemoved(removed.ProjectID, removed.ID, removed.Value.Cents))
	}
	return removed, nil
}

func (s *LedgerService) GetExpense(ctx context.Context, id int64) (*core.Expense, error) {
	return s.storage.GetExpense(ctx, id)
}

func (s *LedgerService) ListExpenses(ctx context.Context, projectID int64, includeDeleted bool) ([]core.Expense, error) {
	if includeDeleted {
		return s.storage.ListAllExpenses(ctx, projectID)
	}
	return s.storage.ListActiveExpenses(ctx, projectID)
}

// CheckLedger verifies the spent total against the active expense sum.
func (s *LedgerService) CheckLedger(ctx context.Context, projectID int64) error {
	return s.storage.CheckLedger(ctx, projectID)
}

func (s *LedgerService) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping ledger event", "kind", event.Kind)
		return
	}
	if err := s.amqpClient.PublishLedgerEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", event.Kind,
			"project_id", event.ProjectID,
			"expense_id", event.ExpenseID,
			"error", err)
	}
}

// Close closes both storage and AMQP connections.
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gabrielarrudexx/YBYOCA/internal/core"
	"github.com/gabrielarrudexx/YBYOCA/internal/storage"
)

// ReportService builds financial report models from the current ledger
// state. Aggregation itself is pure; this service only loads the inputs.
type ReportService struct {
	storage *storage.SQLiteRepository
}

func NewReportService(storage *storage.SQLiteRepository) *ReportService {
	return &ReportService{storage: storage}
}

// BuildReport loads the project and its active expenses and aggregates
// them into a report model.
func (s *ReportService) BuildReport(ctx context.Context, projectID int64) (*core.ReportModel, error) {
	project, err := s.storage.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.storage.ListActiveExpenses(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load expenses for report: %w", err)
	}
	return core.BuildReport(project, expenses, time.Now())
}

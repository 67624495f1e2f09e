// Package memory holds an in-memory report writer for tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gabrielarrudexx/YBYOCA/internal/core"
)

type Store struct {
	mu      sync.Mutex
	reports []*core.ReportModel
}

func New() *Store {
	return &Store{}
}

// ExportReport stores the report and returns a synthetic reference.
func (s *Store) ExportReport(_ context.Context, model *core.ReportModel) (string, error) {
	if model == nil {
		return "", fmt.Errorf("export report: %w", core.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, model)
	return fmt.Sprintf("mem:%d", len(s.reports)), nil
}

// Reports returns the stored snapshots in export order.
func (s *Store) Reports() []*core.ReportModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*core.ReportModel(nil), s.reports...)
}

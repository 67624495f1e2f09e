package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gabrielarrudexx/YBYOCA/internal/core"
)

func TestMemoryStoreExport(t *testing.T) {
	s := New()

	project := &core.Project{
		ID: 1, Name: "Casa", Budget: core.Money{Cents: 1000},
		Status: core.ProjectInProgress, CreatedAt: time.Now(),
	}
	model, err := core.BuildReport(project, nil, time.Now())
	if err != nil {
		t.Fatalf("build report: %v", err)
	}

	ref, err := s.ExportReport(context.Background(), model)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected export: ref=%q err=%v", ref, err)
	}
	if got := s.Reports(); len(got) != 1 || got[0].ProjectID != 1 {
		t.Fatalf("unexpected stored reports: %v", got)
	}
}

func TestMemoryStoreRejectsNil(t *testing.T) {
	s := New()
	if _, err := s.ExportReport(context.Background(), nil); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

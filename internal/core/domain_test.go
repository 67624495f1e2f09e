package core

import (
	"testing"
	"time"
)

func TestExpenseValidate(t *testing.T) {
	good := Expense{Name: "Cement", Value: Money{Cents: 300000}, Category: "Materials"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Name: "", Value: Money{Cents: 100}, Category: "Materials"},
		{Name: "Cement", Value: Money{Cents: 0}, Category: "Materials"},
		{Name: "Cement", Value: Money{Cents: -100}, Category: "Materials"},
		{Name: "Cement", Value: Money{Cents: 100}, Category: ""},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseActive(t *testing.T) {
	if !(Expense{Status: ExpenseActive}).Active() {
		t.Fatal("active expense should be active")
	}
	if (Expense{Status: ExpenseDeleted}).Active() {
		t.Fatal("deleted expense should not be active")
	}
}

func TestProjectValidate(t *testing.T) {
	good := Project{Name: "Casa Alphaville", Budget: Money{Cents: 1000000}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Project{Name: "Casa", Budget: Money{Cents: 0}}).Validate(); err != nil {
		t.Fatalf("zero budget should be allowed, got %v", err)
	}

	bads := []Project{
		{Name: "", Budget: Money{Cents: 100}},
		{Name: "Casa", Budget: Money{Cents: -1}},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestProjectRemaining(t *testing.T) {
	p := Project{Budget: Money{Cents: 500000}, Spent: Money{Cents: 600000}}
	if got := p.Remaining().Cents; got != -100000 {
		t.Fatalf("expected -100000, got %d", got)
	}
}

func TestPhaseValidate(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	good := ProjectPhase{Name: "Foundation", Status: PhasePending, StartDate: &start, EndDate: &end}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	before := start.AddDate(0, -1, 0)
	bads := []ProjectPhase{
		{Name: "", Status: PhasePending},
		{Name: "Foundation", Status: "unknown"},
		{Name: "Foundation", Status: PhasePending, ProgressPercentage: 101},
		{Name: "Foundation", Status: PhasePending, ProgressPercentage: -1},
		{Name: "Foundation", Status: PhasePending, StartDate: &start, EndDate: &before},
	}
	for i, ph := range bads {
		if err := ph.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestChecklistItemValidate(t *testing.T) {
	if err := (ChecklistItem{Name: "Inspect wiring", Priority: PriorityHigh}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []ChecklistItem{
		{Name: "", Priority: PriorityLow},
		{Name: "Inspect wiring", Priority: "urgent"},
	}
	for i, c := range bads {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

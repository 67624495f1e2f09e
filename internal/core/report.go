package core

import (
	"fmt"
	"time"
)

// ReportModel is the ephemeral aggregated view of a project's finances. It
// is computed on demand, handed to a formatter, and discarded, never
// persisted.
type ReportModel struct {
	ProjectID   int64
	ProjectName string
	Status      ProjectStatus
	CreatedAt   time.Time
	CompletedAt *time.Time
	GeneratedAt time.Time

	Budget    Money
	Spent     Money
	Remaining Money // negative on overrun
	Overrun   bool

	// PercentUsed is spent/budget*100, defined as 0 when budget is 0 so a
	// zero-budget project renders instead of erroring. Downstream display
	// relies on this convention.
	PercentUsed float64

	ItemCount    int
	AverageValue Money

	Categories []CategoryBreakdown
}

// CategoryBreakdown aggregates the active expenses of one category.
// Categories appear in first-seen order, matching the order expenses were
// recorded, not alphabetically.
type CategoryBreakdown struct {
	Name  string
	Count int
	Total Money

	// PercentOfSpent is total/spent*100, 0 when spent is 0.
	PercentOfSpent float64

	// Lines preserves expense insertion order within the category. Subtotal
	// is accumulated while walking the lines and must equal Total; the
	// formatter displays it as a cross-check against the group sum.
	Lines    []ReportLine
	Subtotal Money
}

// ReportLine is one expense as it appears in the report.
type ReportLine struct {
	Name      string
	Value     Money
	Running   Money // subtotal up to and including this line
	CreatedAt time.Time
}

// BuildReport derives a ReportModel from a project and its expenses. It is a
// pure function: no side effects, no mutation of its inputs. Deleted
// expenses are filtered out here even if the caller passed them, so the
// report can never count a removed cost.
//
// The sum of all category totals equals project.Spent exactly (integer
// cents) whenever the ledger invariant holds; callers wanting a consistency
// check can compare the two.
func BuildReport(project *Project, expenses []Expense, now time.Time) (*ReportModel, error) {
	if project == nil {
		return nil, fmt.Errorf("build report: %w", ErrNotFound)
	}

	remaining := project.Remaining()
	m := &ReportModel{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		Status:      project.Status,
		CreatedAt:   project.CreatedAt,
		CompletedAt: project.CompletedAt,
		GeneratedAt: now,
		Budget:      project.Budget,
		Spent:       project.Spent,
		Remaining:   remaining,
		Overrun:     remaining.Cents < 0,
	}
	if project.Budget.Cents != 0 {
		m.PercentUsed = float64(project.Spent.Cents) / float64(project.Budget.Cents) * 100
	}

	active := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Active() {
			active = append(active, e)
		}
	}

	m.ItemCount = len(active)
	if m.ItemCount > 0 {
		m.AverageValue = Money{Cents: project.Spent.Cents / int64(m.ItemCount)}
	}

	// Group by category, preserving first-seen order.
	index := make(map[string]int)
	for _, e := range active {
		i, seen := index[e.Category]
		if !seen {
			i = len(m.Categories)
			index[e.Category] = i
			m.Categories = append(m.Categories, CategoryBreakdown{Name: e.Category})
		}
		g := &m.Categories[i]
		g.Count++
		g.Total.Cents += e.Value.Cents
	}

	// Second pass: lines with running subtotals, insertion order within
	// each group.
	for _, e := range active {
		g := &m.Categories[index[e.Category]]
		g.Subtotal.Cents += e.Value.Cents
		g.Lines = append(g.Lines, ReportLine{
			Name:      e.Name,
			Value:     e.Value,
			Running:   g.Subtotal,
			CreatedAt: e.CreatedAt,
		})
	}

	if project.Spent.Cents != 0 {
		for i := range m.Categories {
			m.Categories[i].PercentOfSpent = float64(m.Categories[i].Total.Cents) / float64(project.Spent.Cents) * 100
		}
	}

	return m, nil
}

// CategoriesTotal sums the per-category totals. When the ledger invariant
// holds it equals Spent; a mismatch indicates drift between the project
// aggregate and its expense rows.
func (m *ReportModel) CategoriesTotal() Money {
	var total int64
	for _, c := range m.Categories {
		total += c.Total.Cents
	}
	return Money{Cents: total}
}

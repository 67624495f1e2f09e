package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gabrielarrudexx/YBYOCA/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the ledger store. Project spent totals and expense
// rows are written inside single transactions; with one writer connection
// (MaxOpenConns below) concurrent add/remove on the same project cannot
// interleave their updates.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite allows one writer at a time; a single pooled connection keeps
	// transactions serialized instead of surfacing SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- Users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (*core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, hashed_password, role) VALUES (?, ?, ?)`,
		u.Email, u.HashedPassword, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create user id: %w", err)
	}
	u.ID = id
	return &u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (*core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, email, hashed_password, role FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, email, hashed_password, role FROM users WHERE email = ?`, email))
}

func (r *SQLiteRepository) ListUsersByRole(ctx context.Context, role core.Role) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, hashed_password, role FROM users WHERE role = ? ORDER BY id`, string(role))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.Role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (*core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// --- Projects ---

func (r *SQLiteRepository) CreateProject(ctx context.Context, p core.Project) (*core.Project, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = core.ProjectInProgress
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (name, budget_cents, spent_cents, status, created_at, owner_id, client_id)
		 VALUES (?, ?, 0, ?, ?, ?, ?)`,
		p.Name, p.Budget.Cents, string(p.Status), p.CreatedAt, p.OwnerID, p.ClientID)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create project id: %w", err)
	}
	p.ID = id
	p.Spent = core.Money{}
	return &p, nil
}

const projectColumns = `id, name, budget_cents, spent_cents, status, created_at, completed_at, owner_id, client_id`

func (r *SQLiteRepository) GetProject(ctx context.Context, id int64) (*core.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *SQLiteRepository) ListProjectsByArchitect(ctx context.Context, ownerID int64, status core.ProjectStatus) ([]core.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE owner_id = ?`
	args := []any{ownerID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY id`
	return r.listProjects(ctx, query, args...)
}

func (r *SQLiteRepository) ListProjectsByClient(ctx context.Context, clientID int64) ([]core.Project, error) {
	return r.listProjects(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE client_id = ? ORDER BY id`, clientID)
}

func (r *SQLiteRepository) listProjects(ctx context.Context, query string, args ...any) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []core.Project
	for rows.Next() {
		p, err := scanProjectRow(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// FinalizeProject transitions in_progress -> completed exactly once. A
// second finalize is rejected with ErrAlreadyCompleted. The completion
// timestamp is clamped so it never precedes creation.
func (r *SQLiteRepository) FinalizeProject(ctx context.Context, id int64, at time.Time) (*core.Project, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin finalize: %w", err)
	}
	defer tx.Rollback()

	p, err := scanProject(tx.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if p.Completed() {
		return nil, fmt.Errorf("finalize project %d: %w", id, core.ErrAlreadyCompleted)
	}

	at = at.UTC()
	if at.Before(p.CreatedAt) {
		at = p.CreatedAt
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE projects SET status = ?, completed_at = ? WHERE id = ?`,
		string(core.ProjectCompleted), at, id); err != nil {
		return nil, fmt.Errorf("finalize project %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit finalize: %w", err)
	}

	p.Status = core.ProjectCompleted
	p.CompletedAt = &at
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row *sql.Row) (*core.Project, error) {
	p, err := scanProjectRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project: %w", core.ErrNotFound)
	}
	return p, err
}

func scanProjectRow(s rowScanner) (*core.Project, error) {
	var (
		p           core.Project
		completedAt sql.NullTime
	)
	err := s.Scan(&p.ID, &p.Name, &p.Budget.Cents, &p.Spent.Cents, &p.Status,
		&p.CreatedAt, &completedAt, &p.OwnerID, &p.ClientID)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		p.CompletedAt = &t
	}
	return &p, nil
}

// --- Alerts ---

func (r *SQLiteRepository) CreateAlert(ctx context.Context, a core.Alert) (*core.Alert, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.Severity == "" {
		a.Severity = "medium"
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO alerts (project_id, alert_type, title, message, severity, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		a.ProjectID, string(a.Type), a.Title, a.Message, a.Severity, a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create alert id: %w", err)
	}
	a.ID = id
	return &a, nil
}

func (r *SQLiteRepository) ListAlerts(ctx context.Context, projectID int64) ([]core.Alert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, alert_type, title, message, severity, is_read, created_at
		 FROM alerts WHERE project_id = ? ORDER BY id DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []core.Alert
	for rows.Next() {
		var a core.Alert
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Type, &a.Title, &a.Message,
			&a.Severity, &a.IsRead, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

package homework

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"slate/internal/adapters/storage"
	domain "slate/internal/domain/homework"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const homeworkColumns = `id, subject, description, assigned_date, created_at, updated_at`

// GetByID retrieves a homework record by ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Homework, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+homeworkColumns+` FROM homework WHERE id = ?`, id)
	return scanHomework(row)
}

// List returns all homework records ordered by assigned date, newest first.
// PRE: none
// POST: Returns records ordered by assigned_date DESC, created_at DESC
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Homework, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+homeworkColumns+` FROM homework ORDER BY assigned_date DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHomeworks(rows)
}

// Create inserts a new homework record.
// PRE: entity has been validated, id is unused
// POST: Entity is persisted
func (s *SQLiteStore) Create(ctx context.Context, hw domain.Homework) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO homework (id, subject, description, assigned_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		hw.ID, hw.Subject, hw.Description,
		hw.AssignedDate.Format(domain.DateLayout),
		hw.CreatedAt.Format(timeLayout), hw.UpdatedAt.Format(timeLayout))
	return err
}

// Update overwrites subject, description, assigned date and updated_at for an id.
// id and created_at are never touched; writes are unconditional (last write wins).
// PRE: entity has been validated
// POST: Matching row updated; no-op if the id does not exist
func (s *SQLiteStore) Update(ctx context.Context, hw domain.Homework) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE homework SET subject = ?, description = ?, assigned_date = ?, updated_at = ?
		 WHERE id = ?`,
		hw.Subject, hw.Description,
		hw.AssignedDate.Format(domain.DateLayout),
		hw.UpdatedAt.Format(timeLayout), hw.ID)
	return err
}

// Delete removes a homework record by ID.
// No presence check is applied; deleting a nonexistent id is a no-op.
// POST: Row with given id is removed if it existed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM homework WHERE id = ?`, id)
	return err
}

// scanHomework scans a single row into a Homework.
func scanHomework(row *sql.Row) (domain.Homework, error) {
	var hw domain.Homework
	var assignedDate, createdAt, updatedAt string

	err := row.Scan(&hw.ID, &hw.Subject, &hw.Description, &assignedDate, &createdAt, &updatedAt)
	if err != nil {
		return domain.Homework{}, err
	}

	applyScanned(&hw, assignedDate, createdAt, updatedAt)
	return hw, nil
}

// scanHomeworks scans multiple rows into a slice of Homeworks.
func scanHomeworks(rows *sql.Rows) ([]domain.Homework, error) {
	var list []domain.Homework
	for rows.Next() {
		var hw domain.Homework
		var assignedDate, createdAt, updatedAt string

		err := rows.Scan(&hw.ID, &hw.Subject, &hw.Description, &assignedDate, &createdAt, &updatedAt)
		if err != nil {
			return nil, err
		}

		applyScanned(&hw, assignedDate, createdAt, updatedAt)
		list = append(list, hw)
	}
	return list, rows.Err()
}

// applyScanned converts raw scanned strings into the Homework domain fields.
func applyScanned(hw *domain.Homework, assignedDate, createdAt, updatedAt string) {
	hw.AssignedDate = parseDate(assignedDate, hw.ID)
	hw.CreatedAt = parseTime(createdAt, "created_at", hw.ID)
	hw.UpdatedAt = parseTime(updatedAt, "updated_at", hw.ID)
}

// parseDate parses a stored assigned date, logging a warning on failure.
func parseDate(raw, homeworkID string) time.Time {
	t, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		slog.Warn("homework: failed to parse date", "field", "assigned_date", "homework_id", homeworkID, "raw", raw, "error", err)
	}
	return t
}

// parseTime parses a stored timestamp, logging a warning on failure.
func parseTime(raw, field, homeworkID string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		slog.Warn("homework: failed to parse time", "field", field, "homework_id", homeworkID, "raw", raw, "error", err)
	}
	return t
}

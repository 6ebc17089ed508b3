// Package sqlite provides SQLite-backed persistence for events, attendance
// sets, and event comments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitemigrate "github.com/linkedfishers/backend/internal/platform/storage/sqlitemigrate"
	"github.com/linkedfishers/backend/internal/services/events/storage"
	_ "modernc.org/sqlite"

	"github.com/linkedfishers/backend/internal/services/events/storage/sqlite/migrations"
)

// Store provides SQLite-backed persistence for event state.
type Store struct {
	sqlDB *sql.DB
}

// New wires event storage onto the shared database and applies its migrations.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, "."); err != nil {
		return nil, fmt.Errorf("run event migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// PutEvent inserts one event row.
func (s *Store) PutEvent(ctx context.Context, event storage.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	event.ID = strings.TrimSpace(event.ID)
	event.HostID = strings.TrimSpace(event.HostID)
	if event.ID == "" {
		return fmt.Errorf("event id is required")
	}
	if event.HostID == "" {
		return fmt.Errorf("host id is required")
	}
	if event.StartDate.IsZero() || event.EndDate.IsZero() {
		return fmt.Errorf("start_date and end_date are required")
	}
	if event.CreatedAt.IsZero() || event.UpdatedAt.IsZero() {
		return fmt.Errorf("created_at and updated_at are required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO events (id, host_id, name, description, location, start_date, end_date, comment_count, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		event.ID,
		event.HostID,
		event.Name,
		event.Description,
		event.Location,
		toMillis(event.StartDate),
		toMillis(event.EndDate),
		event.CommentCount,
		toMillis(event.CreatedAt),
		toMillis(event.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

const eventColumns = `id, host_id, name, description, location, start_date, end_date, comment_count, created_at, updated_at`

// GetEventByID loads one event row.
func (s *Store) GetEventByID(ctx context.Context, eventID string) (storage.Event, error) {
	if err := ctx.Err(); err != nil {
		return storage.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Event{}, fmt.Errorf("storage is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return storage.Event{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+eventColumns+` FROM events WHERE id = ?
`, eventID)
	event, err := scanEvent(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Event{}, storage.ErrNotFound
		}
		return storage.Event{}, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// ListEventsByHost lists one host's events soonest start first.
func (s *Store) ListEventsByHost(ctx context.Context, hostID string) ([]storage.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	hostID = strings.TrimSpace(hostID)
	if hostID == "" {
		return nil, fmt.Errorf("host id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+eventColumns+` FROM events WHERE host_id = ? ORDER BY start_date ASC, id ASC
`, hostID)
	if err != nil {
		return nil, fmt.Errorf("list events by host: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// ListUpcoming lists events that have not yet ended, soonest start first.
func (s *Store) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]storage.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+eventColumns+`
FROM events
WHERE end_date >= ?
ORDER BY start_date ASC, id ASC
LIMIT ?
`, toMillis(now), limit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// SetMembership drives one attendance membership toward the requested state.
// Both directions are idempotent.
func (s *Store) SetMembership(ctx context.Context, eventID, accountID, status string, member bool, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	accountID = strings.TrimSpace(accountID)
	status = strings.TrimSpace(status)
	if eventID == "" || accountID == "" || status == "" {
		return fmt.Errorf("event id, account id, and status are required")
	}

	if !member {
		if _, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM event_members WHERE event_id = ? AND account_id = ? AND status = ?
`, eventID, accountID, status); err != nil {
			return fmt.Errorf("clear event membership: %w", err)
		}
		return nil
	}

	var exists int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, eventID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrEventNotFound
		}
		return fmt.Errorf("lookup event: %w", err)
	}

	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO event_members (event_id, account_id, status, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (event_id, account_id, status) DO NOTHING
`, eventID, accountID, status, toMillis(now)); err != nil {
		return fmt.Errorf("set event membership: %w", err)
	}
	return nil
}

// ListMembers lists account ids holding one status on an event, newest first.
func (s *Store) ListMembers(ctx context.Context, eventID, status string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	status = strings.TrimSpace(status)
	if eventID == "" || status == "" {
		return nil, fmt.Errorf("event id and status are required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT account_id
FROM event_members
WHERE event_id = ? AND status = ?
ORDER BY created_at DESC, account_id
`, eventID, status)
	if err != nil {
		return nil, fmt.Errorf("list event members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var accountID string
		if err := rows.Scan(&accountID); err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		members = append(members, accountID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member rows: %w", err)
	}
	return members, nil
}

// CreateComment inserts the comment and bumps the parent counter atomically.
func (s *Store) CreateComment(ctx context.Context, comment storage.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	comment.ID = strings.TrimSpace(comment.ID)
	comment.EventID = strings.TrimSpace(comment.EventID)
	comment.AuthorID = strings.TrimSpace(comment.AuthorID)
	if comment.ID == "" || comment.EventID == "" || comment.AuthorID == "" {
		return fmt.Errorf("comment id, event id, and author id are required")
	}
	if comment.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin comment write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback comment write: %v", cause, rollbackErr)
		}
		return cause
	}

	result, err := tx.ExecContext(ctx, `
UPDATE events SET comment_count = comment_count + 1 WHERE id = ?
`, comment.EventID)
	if err != nil {
		return rollbackWith(fmt.Errorf("bump comment counter: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return rollbackWith(fmt.Errorf("bump comment counter rows affected: %w", err))
	}
	if affected == 0 {
		return rollbackWith(storage.ErrEventNotFound)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO event_comments (id, event_id, author_id, content, created_at)
VALUES (?, ?, ?, ?, ?)
`, comment.ID, comment.EventID, comment.AuthorID, comment.Content, toMillis(comment.CreatedAt)); err != nil {
		return rollbackWith(fmt.Errorf("insert comment: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit comment write: %w", err)
	}
	return nil
}

// ListCommentsByEvent lists an event's comments newest first, bounded by limit.
func (s *Store) ListCommentsByEvent(ctx context.Context, eventID string, limit int) ([]storage.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, fmt.Errorf("event id is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, event_id, author_id, content, created_at
FROM event_comments
WHERE event_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []storage.Comment
	for rows.Next() {
		var comment storage.Comment
		var createdAt int64
		if err := rows.Scan(&comment.ID, &comment.EventID, &comment.AuthorID, &comment.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan comment row: %w", err)
		}
		comment.CreatedAt = fromMillis(createdAt)
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comment rows: %w", err)
	}
	return comments, nil
}

type scanner func(dest ...any) error

func scanEvent(scan scanner) (storage.Event, error) {
	var event storage.Event
	var startDate int64
	var endDate int64
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&event.ID,
		&event.HostID,
		&event.Name,
		&event.Description,
		&event.Location,
		&startDate,
		&endDate,
		&event.CommentCount,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.Event{}, err
	}
	event.StartDate = fromMillis(startDate)
	event.EndDate = fromMillis(endDate)
	event.CreatedAt = fromMillis(createdAt)
	event.UpdatedAt = fromMillis(updatedAt)
	return event, nil
}

func collectEvents(rows *sql.Rows) ([]storage.Event, error) {
	var events []storage.Event
	for rows.Next() {
		event, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return events, nil
}

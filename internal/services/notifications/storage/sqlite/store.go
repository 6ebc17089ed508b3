// Package sqlite provides SQLite-backed persistence for the notification log.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitemigrate "github.com/linkedfishers/backend/internal/platform/storage/sqlitemigrate"
	"github.com/linkedfishers/backend/internal/services/notifications/storage"
	_ "modernc.org/sqlite"

	"github.com/linkedfishers/backend/internal/services/notifications/storage/sqlite/migrations"
)

// Store provides SQLite-backed persistence for notification state.
type Store struct {
	sqlDB *sql.DB
}

// New wires notification storage onto the shared database and applies its
// migrations.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, "."); err != nil {
		return nil, fmt.Errorf("run notification migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// PutNotification appends one notification row.
func (s *Store) PutNotification(ctx context.Context, notification storage.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	notification.ID = strings.TrimSpace(notification.ID)
	notification.SenderID = strings.TrimSpace(notification.SenderID)
	notification.ReceiverID = strings.TrimSpace(notification.ReceiverID)
	notification.Kind = strings.TrimSpace(notification.Kind)
	if notification.ID == "" {
		return fmt.Errorf("notification id is required")
	}
	if notification.ReceiverID == "" {
		return fmt.Errorf("receiver id is required")
	}
	if notification.Kind == "" {
		return fmt.Errorf("notification kind is required")
	}
	if notification.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO notifications (id, sender_id, receiver_id, kind, content, target_id, read, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		notification.ID,
		notification.SenderID,
		notification.ReceiverID,
		notification.Kind,
		strings.TrimSpace(notification.Content),
		strings.TrimSpace(notification.TargetID),
		boolToInt(notification.Read),
		toMillis(notification.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put notification: %w", err)
	}
	return nil
}

const listedColumns = `
n.id, n.sender_id, n.receiver_id, n.kind, n.content, n.target_id, n.read, n.created_at,
COALESCE(a.display_name, ''), COALESCE(a.avatar, ''), COALESCE(a.slug, '')`

// ListByReceiver lists one receiver's notifications newest first with cursor
// pagination. The sender projection is joined from the accounts table.
func (s *Store) ListByReceiver(ctx context.Context, receiverID string, pageSize int, pageToken string) (storage.Page, error) {
	if err := ctx.Err(); err != nil {
		return storage.Page{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Page{}, fmt.Errorf("storage is not configured")
	}
	receiverID = strings.TrimSpace(receiverID)
	pageToken = strings.TrimSpace(pageToken)
	if receiverID == "" {
		return storage.Page{}, fmt.Errorf("receiver id is required")
	}
	if pageSize <= 0 {
		return storage.Page{}, fmt.Errorf("page size must be greater than zero")
	}

	limit := pageSize + 1
	if pageToken == "" {
		rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+listedColumns+`
FROM notifications n
LEFT JOIN accounts a ON a.id = n.sender_id
WHERE n.receiver_id = ?
ORDER BY n.created_at DESC, n.id DESC
LIMIT ?
`, receiverID, limit)
		if err != nil {
			return storage.Page{}, fmt.Errorf("list notifications: %w", err)
		}
		defer rows.Close()
		return collectPage(rows, pageSize)
	}

	cursorCreatedAt, err := s.createdAtByID(ctx, receiverID, pageToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Page{}, nil
		}
		return storage.Page{}, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+listedColumns+`
FROM notifications n
LEFT JOIN accounts a ON a.id = n.sender_id
WHERE n.receiver_id = ?
  AND (n.created_at < ? OR (n.created_at = ? AND n.id < ?))
ORDER BY n.created_at DESC, n.id DESC
LIMIT ?
`, receiverID, toMillis(cursorCreatedAt), toMillis(cursorCreatedAt), pageToken, limit)
	if err != nil {
		return storage.Page{}, fmt.Errorf("list notifications with token: %w", err)
	}
	defer rows.Close()
	return collectPage(rows, pageSize)
}

// MarkRead flips the read flag on one receiver-scoped notification.
func (s *Store) MarkRead(ctx context.Context, receiverID, notificationID string) (storage.Notification, error) {
	if err := ctx.Err(); err != nil {
		return storage.Notification{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Notification{}, fmt.Errorf("storage is not configured")
	}
	receiverID = strings.TrimSpace(receiverID)
	notificationID = strings.TrimSpace(notificationID)
	if receiverID == "" {
		return storage.Notification{}, fmt.Errorf("receiver id is required")
	}
	if notificationID == "" {
		return storage.Notification{}, fmt.Errorf("notification id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE notifications
SET read = 1
WHERE receiver_id = ? AND id = ?
`, receiverID, notificationID)
	if err != nil {
		return storage.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.Notification{}, fmt.Errorf("mark notification read rows affected: %w", err)
	}
	if affected == 0 {
		return storage.Notification{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, sender_id, receiver_id, kind, content, target_id, read, created_at
FROM notifications
WHERE receiver_id = ? AND id = ?
`, receiverID, notificationID)
	notification, err := scanNotification(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Notification{}, storage.ErrNotFound
		}
		return storage.Notification{}, fmt.Errorf("get notification: %w", err)
	}
	return notification, nil
}

// CountUnread returns the receiver's unread notification count.
func (s *Store) CountUnread(ctx context.Context, receiverID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return 0, fmt.Errorf("receiver id is required")
	}

	var unread int
	if err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(1) FROM notifications WHERE receiver_id = ? AND read = 0
`, receiverID).Scan(&unread); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return unread, nil
}

func (s *Store) createdAtByID(ctx context.Context, receiverID, notificationID string) (time.Time, error) {
	var createdAtMillis int64
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT created_at FROM notifications WHERE receiver_id = ? AND id = ?
`, receiverID, notificationID).Scan(&createdAtMillis)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("lookup notification cursor: %w", err)
	}
	return fromMillis(createdAtMillis), nil
}

type scanner func(dest ...any) error

func scanNotification(scan scanner) (storage.Notification, error) {
	var notification storage.Notification
	var read int
	var createdAt int64
	if err := scan(
		&notification.ID,
		&notification.SenderID,
		&notification.ReceiverID,
		&notification.Kind,
		&notification.Content,
		&notification.TargetID,
		&read,
		&createdAt,
	); err != nil {
		return storage.Notification{}, err
	}
	notification.Read = read != 0
	notification.CreatedAt = fromMillis(createdAt)
	return notification, nil
}

func scanListed(scan scanner) (storage.ListedNotification, error) {
	var listed storage.ListedNotification
	var read int
	var createdAt int64
	if err := scan(
		&listed.ID,
		&listed.SenderID,
		&listed.ReceiverID,
		&listed.Kind,
		&listed.Content,
		&listed.TargetID,
		&read,
		&createdAt,
		&listed.Sender.DisplayName,
		&listed.Sender.Avatar,
		&listed.Sender.Slug,
	); err != nil {
		return storage.ListedNotification{}, err
	}
	listed.Read = read != 0
	listed.CreatedAt = fromMillis(createdAt)
	listed.Sender.ID = listed.SenderID
	return listed, nil
}

func collectPage(rows *sql.Rows, pageSize int) (storage.Page, error) {
	page := storage.Page{
		Notifications: make([]storage.ListedNotification, 0, pageSize),
	}
	for rows.Next() {
		listed, err := scanListed(rows.Scan)
		if err != nil {
			return storage.Page{}, fmt.Errorf("scan notification row: %w", err)
		}
		page.Notifications = append(page.Notifications, listed)
	}
	if err := rows.Err(); err != nil {
		return storage.Page{}, fmt.Errorf("iterate notification rows: %w", err)
	}
	if len(page.Notifications) > pageSize {
		page.NextPageToken = page.Notifications[pageSize-1].ID
		page.Notifications = page.Notifications[:pageSize]
	}
	return page, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// Package sqlite provides SQLite-backed persistence for the social graph.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sqlitemigrate "github.com/linkedfishers/backend/internal/platform/storage/sqlitemigrate"
	"github.com/linkedfishers/backend/internal/services/social/storage"
	_ "modernc.org/sqlite"

	"github.com/linkedfishers/backend/internal/services/social/storage/sqlite/migrations"
)

// Store provides SQLite-backed persistence for follow edges.
type Store struct {
	sqlDB *sql.DB
}

// New wires social graph storage onto the shared database and applies its
// migrations.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, "."); err != nil {
		return nil, fmt.Errorf("run social migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// PutFollow inserts the edge if absent and reports whether it was created.
func (s *Store) PutFollow(ctx context.Context, follow storage.Follow) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	followerID := strings.TrimSpace(follow.FollowerID)
	followeeID := strings.TrimSpace(follow.FolloweeID)
	if followerID == "" || followeeID == "" {
		return false, fmt.Errorf("follower and followee ids are required")
	}
	if follow.CreatedAt.IsZero() {
		return false, fmt.Errorf("created_at is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO follows (follower_id, followee_id, created_at)
VALUES (?, ?, ?)
ON CONFLICT (follower_id, followee_id) DO NOTHING
`, followerID, followeeID, follow.CreatedAt.UTC().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("put follow: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("put follow rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteFollow removes the edge. Removing an absent edge is a no-op.
func (s *Store) DeleteFollow(ctx context.Context, followerID, followeeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	followerID = strings.TrimSpace(followerID)
	followeeID = strings.TrimSpace(followeeID)
	if followerID == "" || followeeID == "" {
		return fmt.Errorf("follower and followee ids are required")
	}

	if _, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM follows WHERE follower_id = ? AND followee_id = ?
`, followerID, followeeID); err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	return nil
}

// ListFollowerIDs returns ids of accounts following accountID, newest edge first.
func (s *Store) ListFollowerIDs(ctx context.Context, accountID string) ([]string, error) {
	return s.listEdgeIDs(ctx, `
SELECT follower_id FROM follows WHERE followee_id = ? ORDER BY created_at DESC, follower_id
`, accountID)
}

// ListFollowingIDs returns ids of accounts that accountID follows, newest edge first.
func (s *Store) ListFollowingIDs(ctx context.Context, accountID string) ([]string, error) {
	return s.listEdgeIDs(ctx, `
SELECT followee_id FROM follows WHERE follower_id = ? ORDER BY created_at DESC, followee_id
`, accountID)
}

// CountFollowers returns how many accounts follow accountID.
func (s *Store) CountFollowers(ctx context.Context, accountID string) (int, error) {
	return s.countEdges(ctx, `SELECT COUNT(1) FROM follows WHERE followee_id = ?`, accountID)
}

// CountFollowing returns how many accounts accountID follows.
func (s *Store) CountFollowing(ctx context.Context, accountID string) (int, error) {
	return s.countEdges(ctx, `SELECT COUNT(1) FROM follows WHERE follower_id = ?`, accountID)
}

func (s *Store) listEdgeIDs(ctx context.Context, query, accountID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, fmt.Errorf("account id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list follow edges: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var edgeID string
		if err := rows.Scan(&edgeID); err != nil {
			return nil, fmt.Errorf("scan follow edge: %w", err)
		}
		ids = append(ids, edgeID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follow edges: %w", err)
	}
	return ids, nil
}

func (s *Store) countEdges(ctx context.Context, query, accountID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return 0, fmt.Errorf("account id is required")
	}

	var count int
	if err := s.sqlDB.QueryRowContext(ctx, query, accountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count follow edges: %w", err)
	}
	return count, nil
}

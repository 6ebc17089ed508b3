// Package sqlite provides SQLite-backed persistence for posts, comments,
// and reactions.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitemigrate "github.com/linkedfishers/backend/internal/platform/storage/sqlitemigrate"
	"github.com/linkedfishers/backend/internal/services/posts/storage"
	_ "modernc.org/sqlite"

	"github.com/linkedfishers/backend/internal/services/posts/storage/sqlite/migrations"
)

// Store provides SQLite-backed persistence for post interaction state.
type Store struct {
	sqlDB *sql.DB
}

// New wires post storage onto the shared database and applies its migrations.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, "."); err != nil {
		return nil, fmt.Errorf("run post migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// PutPost inserts one post row.
func (s *Store) PutPost(ctx context.Context, post storage.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	post.ID = strings.TrimSpace(post.ID)
	post.AuthorID = strings.TrimSpace(post.AuthorID)
	if post.ID == "" {
		return fmt.Errorf("post id is required")
	}
	if post.AuthorID == "" {
		return fmt.Errorf("author id is required")
	}
	if post.CreatedAt.IsZero() || post.UpdatedAt.IsZero() {
		return fmt.Errorf("created_at and updated_at are required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO posts (id, author_id, content, youtube_id, comment_count, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		post.ID,
		post.AuthorID,
		post.Content,
		strings.TrimSpace(post.YouTubeID),
		post.CommentCount,
		toMillis(post.CreatedAt),
		toMillis(post.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put post: %w", err)
	}
	return nil
}

const postColumns = `id, author_id, content, youtube_id, comment_count, created_at, updated_at`

// GetPostByID loads one post row.
func (s *Store) GetPostByID(ctx context.Context, postID string) (storage.Post, error) {
	if err := ctx.Err(); err != nil {
		return storage.Post{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Post{}, fmt.Errorf("storage is not configured")
	}
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return storage.Post{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+postColumns+` FROM posts WHERE id = ?
`, postID)
	post, err := scanPost(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Post{}, storage.ErrNotFound
		}
		return storage.Post{}, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// DeletePostByAuthor removes an owner-scoped post. Cascades clear comments
// and reactions.
func (s *Store) DeletePostByAuthor(ctx context.Context, postID, authorID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	postID = strings.TrimSpace(postID)
	authorID = strings.TrimSpace(authorID)
	if postID == "" || authorID == "" {
		return storage.ErrNotFound
	}

	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM posts WHERE id = ? AND author_id = ?
`, postID, authorID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListPostsByAuthor lists one author's posts newest first.
func (s *Store) ListPostsByAuthor(ctx context.Context, authorID string) ([]storage.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return nil, fmt.Errorf("author id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+postColumns+` FROM posts WHERE author_id = ? ORDER BY created_at DESC, id DESC
`, authorID)
	if err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}
	defer rows.Close()
	return collectPosts(rows)
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
	comment.PostID = strings.TrimSpace(comment.PostID)
	comment.AuthorID = strings.TrimSpace(comment.AuthorID)
	if comment.ID == "" || comment.PostID == "" || comment.AuthorID == "" {
		return fmt.Errorf("comment id, post id, and author id are required")
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
UPDATE posts SET comment_count = comment_count + 1 WHERE id = ?
`, comment.PostID)
	if err != nil {
		return rollbackWith(fmt.Errorf("bump comment counter: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return rollbackWith(fmt.Errorf("bump comment counter rows affected: %w", err))
	}
	if affected == 0 {
		return rollbackWith(storage.ErrPostNotFound)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO comments (id, post_id, author_id, content, created_at)
VALUES (?, ?, ?, ?, ?)
`, comment.ID, comment.PostID, comment.AuthorID, comment.Content, toMillis(comment.CreatedAt)); err != nil {
		return rollbackWith(fmt.Errorf("insert comment: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit comment write: %w", err)
	}
	return nil
}

// DeleteCommentByAuthor removes an owner-scoped comment and decrements the
// parent counter atomically.
func (s *Store) DeleteCommentByAuthor(ctx context.Context, commentID, authorID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	commentID = strings.TrimSpace(commentID)
	authorID = strings.TrimSpace(authorID)
	if commentID == "" || authorID == "" {
		return storage.ErrNotFound
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin comment delete: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback comment delete: %v", cause, rollbackErr)
		}
		return cause
	}

	var postID string
	err = tx.QueryRowContext(ctx, `
SELECT post_id FROM comments WHERE id = ? AND author_id = ?
`, commentID, authorID).Scan(&postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rollbackWith(storage.ErrNotFound)
		}
		return rollbackWith(fmt.Errorf("lookup comment: %w", err))
	}

	result, err := tx.ExecContext(ctx, `
DELETE FROM comments WHERE id = ? AND author_id = ?
`, commentID, authorID)
	if err != nil {
		return rollbackWith(fmt.Errorf("delete comment: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return rollbackWith(fmt.Errorf("delete comment rows affected: %w", err))
	}
	if affected == 0 {
		return rollbackWith(storage.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE posts SET comment_count = comment_count - 1 WHERE id = ? AND comment_count > 0
`, postID); err != nil {
		return rollbackWith(fmt.Errorf("drop comment counter: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit comment delete: %w", err)
	}
	return nil
}

// ListCommentsByPost lists a post's comments newest first, bounded by limit.
func (s *Store) ListCommentsByPost(ctx context.Context, postID string, limit int) ([]storage.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, fmt.Errorf("post id is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, post_id, author_id, content, created_at
FROM comments
WHERE post_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`, postID, limit)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []storage.Comment
	for rows.Next() {
		var comment storage.Comment
		var createdAt int64
		if err := rows.Scan(&comment.ID, &comment.PostID, &comment.AuthorID, &comment.Content, &createdAt); err != nil {
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

// ReplaceReaction swaps the author's reaction on a post in one transaction.
func (s *Store) ReplaceReaction(ctx context.Context, postID, authorID, kind string, now time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	postID = strings.TrimSpace(postID)
	authorID = strings.TrimSpace(authorID)
	kind = strings.TrimSpace(kind)
	if postID == "" || authorID == "" {
		return false, fmt.Errorf("post id and author id are required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin reaction write: %w", err)
	}
	rollbackWith := func(cause error) (bool, error) {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return false, fmt.Errorf("%w: rollback reaction write: %v", cause, rollbackErr)
		}
		return false, cause
	}

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ?`, postID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rollbackWith(storage.ErrPostNotFound)
		}
		return rollbackWith(fmt.Errorf("lookup post: %w", err))
	}

	if _, err := tx.ExecContext(ctx, `
DELETE FROM reactions WHERE post_id = ? AND author_id = ?
`, postID, authorID); err != nil {
		return rollbackWith(fmt.Errorf("clear reaction: %w", err))
	}

	inserted := false
	if kind != "" {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO reactions (post_id, author_id, kind, created_at)
VALUES (?, ?, ?, ?)
`, postID, authorID, kind, toMillis(now)); err != nil {
			return rollbackWith(fmt.Errorf("insert reaction: %w", err))
		}
		inserted = true
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit reaction write: %w", err)
	}
	return inserted, nil
}

// ListReactionsByPost lists a post's reactions newest first.
func (s *Store) ListReactionsByPost(ctx context.Context, postID string) ([]storage.Reaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, fmt.Errorf("post id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT post_id, author_id, kind, created_at
FROM reactions
WHERE post_id = ?
ORDER BY created_at DESC, author_id
`, postID)
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	defer rows.Close()

	var reactions []storage.Reaction
	for rows.Next() {
		var reaction storage.Reaction
		var createdAt int64
		if err := rows.Scan(&reaction.PostID, &reaction.AuthorID, &reaction.Kind, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reaction row: %w", err)
		}
		reaction.CreatedAt = fromMillis(createdAt)
		reactions = append(reactions, reaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reaction rows: %w", err)
	}
	return reactions, nil
}

type scanner func(dest ...any) error

func scanPost(scan scanner) (storage.Post, error) {
	var post storage.Post
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&post.ID,
		&post.AuthorID,
		&post.Content,
		&post.YouTubeID,
		&post.CommentCount,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.Post{}, err
	}
	post.CreatedAt = fromMillis(createdAt)
	post.UpdatedAt = fromMillis(updatedAt)
	return post, nil
}

func collectPosts(rows *sql.Rows) ([]storage.Post, error) {
	var posts []storage.Post
	for rows.Next() {
		post, err := scanPost(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan post row: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post rows: %w", err)
	}
	return posts, nil
}

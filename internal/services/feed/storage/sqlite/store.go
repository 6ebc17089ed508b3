// Package sqlite composes feed read models by joining the event, post,
// follow, reaction, and account tables on the shared database. The package
// owns no tables and applies no migrations.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/linkedfishers/backend/internal/services/feed/storage"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed feed composition.
type Store struct {
	sqlDB *sql.DB
}

// New wires feed reads onto the shared database. The tables it joins are
// owned and migrated by the event, post, social, and auth stores.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	return &Store{sqlDB: sqlDB}, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Ordering per sort key. Every non-createdAt branch tie-breaks on recency so
// equally ranked events list newest first.
var rankedOrderings = map[string]string{
	storage.SortStartDate: `e.start_date ASC, e.created_at DESC, e.id DESC`,
	storage.SortCreatedAt: `e.created_at DESC, e.id DESC`,
	storage.SortComments:  `e.comment_count DESC, e.created_at DESC, e.id DESC`,
	storage.SortGoing:     `(2 * COALESCE(g.total, 0) + COALESCE(i.total, 0)) DESC, e.created_at DESC, e.id DESC`,
}

// RankedEvents pages events that have not yet ended, ordered by sortKey.
// Popularity for the going sort weighs a confirmed attendee as two
// interested ones.
func (s *Store) RankedEvents(ctx context.Context, now time.Time, sortKey string, limit, skip int) ([]storage.RankedEvent, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, 0, fmt.Errorf("storage is not configured")
	}
	ordering, ok := rankedOrderings[sortKey]
	if !ok {
		return nil, 0, fmt.Errorf("unknown sort key %q", sortKey)
	}
	if limit <= 0 {
		return nil, 0, fmt.Errorf("limit must be greater than zero")
	}
	if skip < 0 {
		return nil, 0, fmt.Errorf("skip must not be negative")
	}

	var total int
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(*) FROM events WHERE end_date >= ?
`, toMillis(now)).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count eligible events: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT
	e.id, e.host_id, e.name, e.description, e.location,
	e.start_date, e.end_date, e.comment_count,
	COALESCE(g.total, 0), COALESCE(i.total, 0),
	e.created_at, e.updated_at
FROM events e
LEFT JOIN (
	SELECT event_id, COUNT(*) AS total FROM event_members WHERE status = 'going' GROUP BY event_id
) g ON g.event_id = e.id
LEFT JOIN (
	SELECT event_id, COUNT(*) AS total FROM event_members WHERE status = 'interested' GROUP BY event_id
) i ON i.event_id = e.id
WHERE e.end_date >= ?
ORDER BY `+ordering+`
LIMIT ? OFFSET ?
`, toMillis(now), limit, skip)
	if err != nil {
		return nil, 0, fmt.Errorf("list ranked events: %w", err)
	}
	defer rows.Close()

	var events []storage.RankedEvent
	for rows.Next() {
		var event storage.RankedEvent
		var startDate, endDate, createdAt, updatedAt int64
		if err := rows.Scan(
			&event.ID,
			&event.HostID,
			&event.Name,
			&event.Description,
			&event.Location,
			&startDate,
			&endDate,
			&event.CommentCount,
			&event.GoingCount,
			&event.InterestedCount,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan ranked event row: %w", err)
		}
		event.StartDate = fromMillis(startDate)
		event.EndDate = fromMillis(endDate)
		event.CreatedAt = fromMillis(createdAt)
		event.UpdatedAt = fromMillis(updatedAt)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate ranked event rows: %w", err)
	}
	return events, total, nil
}

const feedPostColumns = `
	p.id, p.author_id, p.content, p.youtube_id, p.comment_count,
	p.created_at, p.updated_at,
	COALESCE(a.display_name, ''), COALESCE(a.avatar, ''), COALESCE(a.slug, '')`

// FollowingFeed lists posts authored by the account or by anyone it
// follows, newest first.
func (s *Store) FollowingFeed(ctx context.Context, accountID string) ([]storage.FeedPost, error) {
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

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+feedPostColumns+`
FROM posts p
LEFT JOIN accounts a ON a.id = p.author_id
WHERE p.author_id = ?
   OR p.author_id IN (SELECT followee_id FROM follows WHERE follower_id = ?)
ORDER BY p.created_at DESC, p.id DESC
`, accountID, accountID)
	if err != nil {
		return nil, fmt.Errorf("list following feed: %w", err)
	}
	defer rows.Close()

	posts, err := collectFeedPosts(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachReactions(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// PagedPosts pages all posts newest first and reports the collection total.
func (s *Store) PagedPosts(ctx context.Context, skip, limit int) ([]storage.FeedPost, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, 0, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, 0, fmt.Errorf("limit must be greater than zero")
	}
	if skip < 0 {
		return nil, 0, fmt.Errorf("skip must not be negative")
	}

	var total int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+feedPostColumns+`
FROM posts p
LEFT JOIN accounts a ON a.id = p.author_id
ORDER BY p.created_at DESC, p.id DESC
LIMIT ? OFFSET ?
`, limit, skip)
	if err != nil {
		return nil, 0, fmt.Errorf("list paged posts: %w", err)
	}
	defer rows.Close()

	posts, err := collectFeedPosts(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := s.attachReactions(ctx, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// attachReactions loads reactor-projected reactions for the given page of
// posts in one query.
func (s *Store) attachReactions(ctx context.Context, posts []storage.FeedPost) error {
	if len(posts) == 0 {
		return nil
	}

	placeholders := make([]string, len(posts))
	args := make([]any, len(posts))
	byID := make(map[string]int, len(posts))
	for i := range posts {
		placeholders[i] = "?"
		args[i] = posts[i].ID
		byID[posts[i].ID] = i
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT r.post_id, r.author_id, COALESCE(a.display_name, ''), r.kind, r.created_at
FROM reactions r
LEFT JOIN accounts a ON a.id = r.author_id
WHERE r.post_id IN (`+strings.Join(placeholders, ", ")+`)
ORDER BY r.created_at DESC, r.author_id
`, args...)
	if err != nil {
		return fmt.Errorf("list feed reactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID string
		var reaction storage.ReactionProjection
		var createdAt int64
		if err := rows.Scan(&postID, &reaction.AuthorID, &reaction.DisplayName, &reaction.Kind, &createdAt); err != nil {
			return fmt.Errorf("scan feed reaction row: %w", err)
		}
		reaction.CreatedAt = fromMillis(createdAt)
		if i, ok := byID[postID]; ok {
			posts[i].Reactions = append(posts[i].Reactions, reaction)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate feed reaction rows: %w", err)
	}
	return nil
}

func collectFeedPosts(rows *sql.Rows) ([]storage.FeedPost, error) {
	var posts []storage.FeedPost
	for rows.Next() {
		var post storage.FeedPost
		var createdAt, updatedAt int64
		if err := rows.Scan(
			&post.ID,
			&post.Author.ID,
			&post.Content,
			&post.YouTubeID,
			&post.CommentCount,
			&createdAt,
			&updatedAt,
			&post.Author.DisplayName,
			&post.Author.Avatar,
			&post.Author.Slug,
		); err != nil {
			return nil, fmt.Errorf("scan feed post row: %w", err)
		}
		post.CreatedAt = fromMillis(createdAt)
		post.UpdatedAt = fromMillis(updatedAt)
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed post rows: %w", err)
	}
	return posts, nil
}

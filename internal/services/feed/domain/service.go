// Package domain composes the read-side feeds: ranked event listings, the
// following feed, and the paged global post collection.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/linkedfishers/backend/internal/platform/errors"
	"github.com/linkedfishers/backend/internal/services/feed/storage"
)

// ErrStoreNotConfigured indicates the service is missing persistence wiring.
var ErrStoreNotConfigured = errors.New("feed store is not configured")

// Sort keys accepted by RankedEvents.
const (
	SortStartDate = storage.SortStartDate
	SortCreatedAt = storage.SortCreatedAt
	SortComments  = storage.SortComments
	SortGoing     = storage.SortGoing
)

var knownSortKeys = map[string]bool{
	SortStartDate: true,
	SortCreatedAt: true,
	SortComments:  true,
	SortGoing:     true,
}

const (
	defaultPageSize = 10
	maxPageSize     = 200
)

// RankedEvent is one feed-eligible event with its attendance tallies.
type RankedEvent struct {
	ID              string
	HostID          string
	Name            string
	Description     string
	Location        string
	StartDate       time.Time
	EndDate         time.Time
	CommentCount    int
	GoingCount      int
	InterestedCount int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AuthorProjection is the slice of an account a feed entry exposes.
type AuthorProjection struct {
	ID          string
	DisplayName string
	Avatar      string
	Slug        string
}

// ReactionProjection is one post reaction with its reactor's display name.
type ReactionProjection struct {
	AuthorID    string
	DisplayName string
	Kind        string
	CreatedAt   time.Time
}

// FeedPost is one post enriched with its author projection and reactions.
type FeedPost struct {
	ID           string
	Author       AuthorProjection
	Content      string
	YouTubeID    string
	CommentCount int
	Reactions    []ReactionProjection
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RankedEventsInput pages the ranked event listing. A zero Limit uses the
// default page size; an empty SortKey sorts by start date.
type RankedEventsInput struct {
	Limit   int
	Skip    int
	SortKey string
}

// RankedEventsPage is one page of ranked events plus the page count of the
// whole eligible set at the requested limit.
type RankedEventsPage struct {
	Events     []RankedEvent
	TotalPages int
}

// PostsPage is one window of the global post collection plus its total size.
type PostsPage struct {
	Posts []FeedPost
	Total int
}

// Service composes feed read models.
type Service struct {
	store storage.FeedStore
	clock func() time.Time
}

// NewService constructs feed use-cases.
func NewService(store storage.FeedStore, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, clock: clock}
}

// RankedEvents pages events that have not yet ended, ordered by the
// requested sort key. The going sort ranks by popularity, weighing a
// confirmed attendee as two interested ones.
func (s *Service) RankedEvents(ctx context.Context, input RankedEventsInput) (RankedEventsPage, error) {
	if s == nil || s.store == nil {
		return RankedEventsPage{}, ErrStoreNotConfigured
	}
	sortKey := strings.TrimSpace(input.SortKey)
	if sortKey == "" {
		sortKey = SortStartDate
	}
	if !knownSortKeys[sortKey] {
		return RankedEventsPage{}, apperrors.New(apperrors.CodeFeedInvalidSortKey, "unknown sort key")
	}
	limit := input.Limit
	if limit == 0 {
		limit = defaultPageSize
	}
	if limit < 0 || input.Skip < 0 {
		return RankedEventsPage{}, apperrors.New(apperrors.CodeFeedInvalidPage, "limit and skip must not be negative")
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	records, total, err := s.store.RankedEvents(ctx, s.nowUTC(), sortKey, limit, input.Skip)
	if err != nil {
		return RankedEventsPage{}, apperrors.FromStore(err)
	}
	events := make([]RankedEvent, 0, len(records))
	for _, record := range records {
		events = append(events, RankedEvent(record))
	}
	return RankedEventsPage{
		Events:     events,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// FollowingFeed lists posts authored by the account or by anyone it
// follows, newest first.
func (s *Service) FollowingFeed(ctx context.Context, accountID string) ([]FeedPost, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, apperrors.New(apperrors.CodeAuthUnauthorized, "caller identity is required")
	}
	records, err := s.store.FollowingFeed(ctx, accountID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	return fromFeedPostRecords(records), nil
}

// PagedPosts pages all posts newest first and reports the collection total.
func (s *Service) PagedPosts(ctx context.Context, skip, limit int) (PostsPage, error) {
	if s == nil || s.store == nil {
		return PostsPage{}, ErrStoreNotConfigured
	}
	if limit == 0 {
		limit = defaultPageSize
	}
	if limit < 0 || skip < 0 {
		return PostsPage{}, apperrors.New(apperrors.CodeFeedInvalidPage, "limit and skip must not be negative")
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	records, total, err := s.store.PagedPosts(ctx, skip, limit)
	if err != nil {
		return PostsPage{}, apperrors.FromStore(err)
	}
	return PostsPage{Posts: fromFeedPostRecords(records), Total: total}, nil
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func fromFeedPostRecords(records []storage.FeedPost) []FeedPost {
	posts := make([]FeedPost, 0, len(records))
	for _, record := range records {
		post := FeedPost{
			ID:           record.ID,
			Author:       AuthorProjection(record.Author),
			Content:      record.Content,
			YouTubeID:    record.YouTubeID,
			CommentCount: record.CommentCount,
			CreatedAt:    record.CreatedAt,
			UpdatedAt:    record.UpdatedAt,
		}
		if len(record.Reactions) > 0 {
			post.Reactions = make([]ReactionProjection, 0, len(record.Reactions))
			for _, reaction := range record.Reactions {
				post.Reactions = append(post.Reactions, ReactionProjection(reaction))
			}
		}
		posts = append(posts, post)
	}
	return posts
}

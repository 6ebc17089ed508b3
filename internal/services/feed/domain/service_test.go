package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/linkedfishers/backend/internal/platform/errors"
	"github.com/linkedfishers/backend/internal/services/feed/storage"
)

type rankedCall struct {
	now     time.Time
	sortKey string
	limit   int
	skip    int
}

type fakeStore struct {
	events []storage.RankedEvent
	total  int
	posts  []storage.FeedPost
	err    error

	rankedCalls []rankedCall
}

func (f *fakeStore) RankedEvents(_ context.Context, now time.Time, sortKey string, limit, skip int) ([]storage.RankedEvent, int, error) {
	f.rankedCalls = append(f.rankedCalls, rankedCall{now: now, sortKey: sortKey, limit: limit, skip: skip})
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.events, f.total, nil
}

func (f *fakeStore) FollowingFeed(_ context.Context, _ string) ([]storage.FeedPost, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.posts, nil
}

func (f *fakeStore) PagedPosts(_ context.Context, _, _ int) ([]storage.FeedPost, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.posts, f.total, nil
}

func expectCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	if apperrors.CodeOf(err) != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func TestRankedEventsValidation(t *testing.T) {
	store := &fakeStore{}
	service := NewService(store, nil)
	ctx := context.Background()

	_, err := service.RankedEvents(ctx, RankedEventsInput{Limit: 10, SortKey: "popularity"})
	expectCode(t, err, apperrors.CodeFeedInvalidSortKey)

	_, err = service.RankedEvents(ctx, RankedEventsInput{Limit: -1, SortKey: SortGoing})
	expectCode(t, err, apperrors.CodeFeedInvalidPage)

	_, err = service.RankedEvents(ctx, RankedEventsInput{Limit: 10, Skip: -5, SortKey: SortGoing})
	expectCode(t, err, apperrors.CodeFeedInvalidPage)

	if len(store.rankedCalls) != 0 {
		t.Fatalf("invalid input must not reach the store, got %d calls", len(store.rankedCalls))
	}
}

func TestRankedEventsDefaultsAndTotalPages(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{total: 21}
	service := NewService(store, func() time.Time { return now })

	page, err := service.RankedEvents(context.Background(), RankedEventsInput{})
	if err != nil {
		t.Fatalf("ranked events: %v", err)
	}
	if len(store.rankedCalls) != 1 {
		t.Fatalf("expected 1 store call, got %d", len(store.rankedCalls))
	}
	call := store.rankedCalls[0]
	if call.sortKey != SortStartDate {
		t.Fatalf("expected start date default sort, got %s", call.sortKey)
	}
	if call.limit != 10 || call.skip != 0 {
		t.Fatalf("expected default page (10, 0), got (%d, %d)", call.limit, call.skip)
	}
	if !call.now.Equal(now) {
		t.Fatalf("expected eligibility cutoff %v, got %v", now, call.now)
	}
	// 21 eligible at limit 10 rounds up to 3 pages.
	if page.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", page.TotalPages)
	}
}

func TestRankedEventsClampsLimit(t *testing.T) {
	store := &fakeStore{total: 1}
	service := NewService(store, nil)

	_, err := service.RankedEvents(context.Background(), RankedEventsInput{Limit: 1000, SortKey: SortGoing})
	if err != nil {
		t.Fatalf("ranked events: %v", err)
	}
	if store.rankedCalls[0].limit != 200 {
		t.Fatalf("expected limit clamped to 200, got %d", store.rankedCalls[0].limit)
	}
}

func TestFollowingFeedRequiresCaller(t *testing.T) {
	service := NewService(&fakeStore{}, nil)
	_, err := service.FollowingFeed(context.Background(), "  ")
	expectCode(t, err, apperrors.CodeAuthUnauthorized)
}

func TestFollowingFeedProjectsRecords(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		posts: []storage.FeedPost{
			{
				ID:      "post-1",
				Author:  storage.AuthorProjection{ID: "bob", DisplayName: "Bob Angler", Slug: "bob"},
				Content: "big one",
				Reactions: []storage.ReactionProjection{
					{AuthorID: "carol", DisplayName: "Carol Reel", Kind: "wow", CreatedAt: now},
				},
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
	}
	service := NewService(store, nil)

	posts, err := service.FollowingFeed(context.Background(), "alice")
	if err != nil {
		t.Fatalf("following feed: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	if posts[0].Author.DisplayName != "Bob Angler" {
		t.Fatalf("expected author projection, got %+v", posts[0].Author)
	}
	if len(posts[0].Reactions) != 1 || posts[0].Reactions[0].DisplayName != "Carol Reel" {
		t.Fatalf("expected reactor projection, got %+v", posts[0].Reactions)
	}
}

func TestPagedPostsValidation(t *testing.T) {
	service := NewService(&fakeStore{total: 7}, nil)
	ctx := context.Background()

	_, err := service.PagedPosts(ctx, -1, 10)
	expectCode(t, err, apperrors.CodeFeedInvalidPage)

	page, err := service.PagedPosts(ctx, 0, 0)
	if err != nil {
		t.Fatalf("paged posts: %v", err)
	}
	if page.Total != 7 {
		t.Fatalf("expected total 7, got %d", page.Total)
	}
}

func TestStoreFailuresSurfaceAsTransient(t *testing.T) {
	store := &fakeStore{err: errors.New("database is locked")}
	service := NewService(store, nil)
	ctx := context.Background()

	_, err := service.RankedEvents(ctx, RankedEventsInput{})
	expectCode(t, err, apperrors.CodeStoreUnavailable)
	_, err = service.FollowingFeed(ctx, "alice")
	expectCode(t, err, apperrors.CodeStoreUnavailable)
	_, err = service.PagedPosts(ctx, 0, 10)
	expectCode(t, err, apperrors.CodeStoreUnavailable)
}

func TestNilServiceGuards(t *testing.T) {
	var service *Service
	ctx := context.Background()
	if _, err := service.RankedEvents(ctx, RankedEventsInput{}); err != ErrStoreNotConfigured {
		t.Fatalf("expected ErrStoreNotConfigured, got %v", err)
	}
	if _, err := service.FollowingFeed(ctx, "alice"); err != ErrStoreNotConfigured {
		t.Fatalf("expected ErrStoreNotConfigured, got %v", err)
	}
	if _, err := service.PagedPosts(ctx, 0, 10); err != ErrStoreNotConfigured {
		t.Fatalf("expected ErrStoreNotConfigured, got %v", err)
	}
}

// Package storage defines read-model contracts for composed feeds. Feed
// queries join across the event, post, follow, reaction, and account tables
// owned by the other services; this package owns no tables of its own.
package storage

import (
	"context"
	"time"
)

// Sort keys accepted by RankedEvents.
const (
	SortStartDate = "startDate"
	SortCreatedAt = "createdAt"
	SortComments  = "comments"
	SortGoing     = "going"
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

// FeedStore composes feed read models over the shared database.
type FeedStore interface {
	// RankedEvents pages events whose end date is at or after now, ordered
	// by sortKey, and reports the eligible total alongside the page.
	RankedEvents(ctx context.Context, now time.Time, sortKey string, limit, skip int) ([]RankedEvent, int, error)
	// FollowingFeed lists posts authored by the account or anyone it
	// follows, newest first.
	FollowingFeed(ctx context.Context, accountID string) ([]FeedPost, error)
	// PagedPosts pages all posts newest first and reports the collection
	// total alongside the page.
	PagedPosts(ctx context.Context, skip, limit int) ([]FeedPost, int, error)
}

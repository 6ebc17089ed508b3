// Package storage defines persistence contracts for the social graph.
package storage

import (
	"context"
	"time"
)

// Follow stores one directed follow edge. The two-sided follower/following
// relationship is derived from this single row: A follows B when the row
// (A, B) exists.
type Follow struct {
	FollowerID string
	FolloweeID string
	CreatedAt  time.Time
}

// FollowStore persists directed follow edges.
type FollowStore interface {
	// PutFollow inserts the edge if absent. It reports whether a new edge
	// was created.
	PutFollow(ctx context.Context, follow Follow) (bool, error)
	// DeleteFollow removes the edge. Removing an absent edge is a no-op.
	DeleteFollow(ctx context.Context, followerID, followeeID string) error
	// ListFollowerIDs returns ids of accounts following accountID.
	ListFollowerIDs(ctx context.Context, accountID string) ([]string, error)
	// ListFollowingIDs returns ids of accounts that accountID follows.
	ListFollowingIDs(ctx context.Context, accountID string) ([]string, error)
	CountFollowers(ctx context.Context, accountID string) (int, error)
	CountFollowing(ctx context.Context, accountID string) (int, error)
}

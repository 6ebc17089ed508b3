// Package domain implements the social graph: follow/unfollow edges and the
// follower/following views derived from them.
package domain

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	apperrors "github.com/linkedfishers/backend/internal/platform/errors"
	"github.com/linkedfishers/backend/internal/services/social/storage"
)

// ErrStoreNotConfigured indicates the service is missing persistence wiring.
var ErrStoreNotConfigured = errors.New("follow store is not configured")

// AccountDirectory answers whether a target account exists.
type AccountDirectory interface {
	AccountExists(ctx context.Context, accountID string) (bool, error)
}

// Notifier fans follow events out to the notification log. Fan-out is
// best-effort: a failed append never rolls the edge back.
type Notifier interface {
	AccountFollowed(ctx context.Context, followerID, followeeID string) error
}

// SetFollowInput describes one follow state change.
type SetFollowInput struct {
	CallerID string
	TargetID string
	Want     bool
}

// FollowState reports the relationship after a SetFollow call.
type FollowState struct {
	Following bool
	// Created is true only when a new edge was written this call.
	Created bool
}

// Counts pairs the two derived edge tallies for one account.
type Counts struct {
	Followers int
	Following int
}

// Service orchestrates follow graph use-cases.
type Service struct {
	store     storage.FollowStore
	directory AccountDirectory
	notifier  Notifier
	clock     func() time.Time
}

// NewService constructs social graph use-cases. directory and notifier may be
// nil; existence checks and fan-out are then skipped.
func NewService(store storage.FollowStore, directory AccountDirectory, notifier Notifier, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		store:     store,
		directory: directory,
		notifier:  notifier,
		clock:     clock,
	}
}

// SetFollow drives the follow edge toward the wanted state. Following is
// idempotent and fans out a notification only when a new edge is created;
// unfollowing an absent edge is a silent no-op.
func (s *Service) SetFollow(ctx context.Context, input SetFollowInput) (FollowState, error) {
	if s == nil || s.store == nil {
		return FollowState{}, ErrStoreNotConfigured
	}
	callerID := strings.TrimSpace(input.CallerID)
	targetID := strings.TrimSpace(input.TargetID)
	if callerID == "" {
		return FollowState{}, apperrors.New(apperrors.CodeAuthUnauthorized, "caller identity is required")
	}
	if targetID == "" || targetID == callerID {
		return FollowState{}, apperrors.New(apperrors.CodeFollowInvalidTarget, "target id is missing or self")
	}

	if s.directory != nil {
		exists, err := s.directory.AccountExists(ctx, targetID)
		if err != nil {
			return FollowState{}, apperrors.FromStore(err)
		}
		if !exists {
			return FollowState{}, apperrors.New(apperrors.CodeAccountNotFound, "target account not found")
		}
	}

	if !input.Want {
		if err := s.store.DeleteFollow(ctx, callerID, targetID); err != nil {
			return FollowState{}, apperrors.FromStore(err)
		}
		return FollowState{Following: false}, nil
	}

	created, err := s.store.PutFollow(ctx, storage.Follow{
		FollowerID: callerID,
		FolloweeID: targetID,
		CreatedAt:  s.nowUTC(),
	})
	if err != nil {
		return FollowState{}, apperrors.FromStore(err)
	}
	if created && s.notifier != nil {
		if err := s.notifier.AccountFollowed(ctx, callerID, targetID); err != nil {
			log.Printf("follow fan-out %s -> %s failed: %v", callerID, targetID, err)
		}
	}
	return FollowState{Following: true, Created: created}, nil
}

// Followers returns ids of accounts following accountID.
func (s *Service) Followers(ctx context.Context, accountID string) ([]string, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, apperrors.New(apperrors.CodeBadRequest, "account id is required")
	}
	ids, err := s.store.ListFollowerIDs(ctx, accountID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	return ids, nil
}

// Following returns ids of accounts that accountID follows.
func (s *Service) Following(ctx context.Context, accountID string) ([]string, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, apperrors.New(apperrors.CodeBadRequest, "account id is required")
	}
	ids, err := s.store.ListFollowingIDs(ctx, accountID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	return ids, nil
}

// FollowCounts returns follower and following tallies for one account.
func (s *Service) FollowCounts(ctx context.Context, accountID string) (Counts, error) {
	if s == nil || s.store == nil {
		return Counts{}, ErrStoreNotConfigured
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return Counts{}, apperrors.New(apperrors.CodeBadRequest, "account id is required")
	}
	followers, err := s.store.CountFollowers(ctx, accountID)
	if err != nil {
		return Counts{}, apperrors.FromStore(err)
	}
	following, err := s.store.CountFollowing(ctx, accountID)
	if err != nil {
		return Counts{}, apperrors.FromStore(err)
	}
	return Counts{Followers: followers, Following: following}, nil
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

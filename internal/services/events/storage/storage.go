// Package storage defines persistence contracts for events and their
// attendance sets.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested event record is missing.
	ErrNotFound = errors.New("event record not found")
	// ErrEventNotFound indicates the parent event of a write is missing.
	ErrEventNotFound = errors.New("parent event not found")
)

// Membership statuses an account can hold on an event. The two sets are
// independent: an account may be both going and interested.
const (
	StatusGoing      = "going"
	StatusInterested = "interested"
)

// Event stores one event row. CommentCount is maintained transactionally
// with comment writes.
type Event struct {
	ID           string
	HostID       string
	Name         string
	Description  string
	Location     string
	StartDate    time.Time
	EndDate      time.Time
	CommentCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Comment stores one event comment row.
type Comment struct {
	ID        string
	EventID   string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// EventStore persists events, attendance, and event comments.
type EventStore interface {
	PutEvent(ctx context.Context, event Event) error
	GetEventByID(ctx context.Context, eventID string) (Event, error)
	ListEventsByHost(ctx context.Context, hostID string) ([]Event, error)
	// ListUpcoming lists events whose end date is at or after now, soonest
	// start first.
	ListUpcoming(ctx context.Context, now time.Time, limit int) ([]Event, error)

	// SetMembership drives one (event, account, status) membership toward
	// member. Both directions are idempotent. ErrEventNotFound when the
	// event is missing.
	SetMembership(ctx context.Context, eventID, accountID, status string, member bool, now time.Time) error
	ListMembers(ctx context.Context, eventID, status string) ([]string, error)

	// CreateComment inserts the comment and increments the parent event's
	// comment counter in one transaction. ErrEventNotFound when the parent
	// event is missing.
	CreateComment(ctx context.Context, comment Comment) error
	ListCommentsByEvent(ctx context.Context, eventID string, limit int) ([]Comment, error)
}

// Package storage defines persistence contracts for the notification log.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested notification record is missing.
var ErrNotFound = errors.New("notification record not found")

// Notification stores one append-only notification row.
type Notification struct {
	ID         string
	SenderID   string
	ReceiverID string
	Kind       string
	Content    string
	TargetID   string
	Read       bool
	CreatedAt  time.Time
}

// SenderProjection carries the sender identity snapshot attached to listed
// notifications.
type SenderProjection struct {
	ID          string
	DisplayName string
	Avatar      string
	Slug        string
}

// ListedNotification pairs one notification row with its sender projection.
type ListedNotification struct {
	Notification
	Sender SenderProjection
}

// Page is one cursor-paged window of a receiver's notification log.
type Page struct {
	Notifications []ListedNotification
	NextPageToken string
}

// NotificationStore persists the append-only notification log.
type NotificationStore interface {
	PutNotification(ctx context.Context, notification Notification) error
	// ListByReceiver lists one receiver's notifications newest first.
	ListByReceiver(ctx context.Context, receiverID string, pageSize int, pageToken string) (Page, error)
	// MarkRead flips the read flag on one receiver-scoped notification.
	// ErrNotFound when the receiver holds no such notification.
	MarkRead(ctx context.Context, receiverID, notificationID string) (Notification, error)
	// CountUnread returns the receiver's unread notification count.
	CountUnread(ctx context.Context, receiverID string) (int, error)
}

// Package domain implements the append-only notification sink consumed by
// the social graph and interaction services.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/linkedfishers/backend/internal/platform/errors"
	"github.com/linkedfishers/backend/internal/platform/id"
	"github.com/linkedfishers/backend/internal/services/notifications/storage"
)

// ErrStoreNotConfigured indicates the service is missing persistence wiring.
var ErrStoreNotConfigured = errors.New("notification store is not configured")

// Notification kinds fanned out by the interaction services.
const (
	KindFollowedYou   = "followed_you"
	KindCommentedPost = "commented_post"
	KindLikedPost     = "liked_post"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

var knownKinds = map[string]bool{
	KindFollowedYou:   true,
	KindCommentedPost: true,
	KindLikedPost:     true,
}

// Notification is one entry of a receiver's notification log.
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

// Sender is the identity snapshot attached to listed notifications.
type Sender struct {
	ID          string
	DisplayName string
	Avatar      string
	Slug        string
}

// Listed pairs one notification with its sender projection.
type Listed struct {
	Notification
	Sender Sender
}

// Page is one cursor-paged window of a receiver's log.
type Page struct {
	Notifications []Listed
	NextPageToken string
}

// AppendInput describes one notification to append.
type AppendInput struct {
	SenderID   string
	ReceiverID string
	Kind       string
	Content    string
	TargetID   string
}

// ListInput configures receiver log listing.
type ListInput struct {
	ReceiverID string
	PageSize   int
	PageToken  string
}

// Service orchestrates the notification log.
type Service struct {
	store storage.NotificationStore
	clock func() time.Time
	newID func() (string, error)
}

// NewService constructs notification use-cases.
func NewService(store storage.NotificationStore, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store: store,
		clock: clock,
		newID: newID,
	}
}

// Append writes one notification to the receiver's log. Self-notifications
// (sender == receiver) are suppressed and return the zero Notification.
func (s *Service) Append(ctx context.Context, input AppendInput) (Notification, error) {
	if s == nil || s.store == nil {
		return Notification{}, ErrStoreNotConfigured
	}
	receiverID := strings.TrimSpace(input.ReceiverID)
	if receiverID == "" {
		return Notification{}, apperrors.New(apperrors.CodeNotificationBadInput, "receiver id is required")
	}
	kind := strings.TrimSpace(input.Kind)
	if !knownKinds[kind] {
		return Notification{}, apperrors.New(apperrors.CodeNotificationBadInput, "unknown notification kind")
	}
	senderID := strings.TrimSpace(input.SenderID)
	if senderID == receiverID {
		return Notification{}, nil
	}

	notificationID, err := s.newID()
	if err != nil {
		return Notification{}, err
	}
	notification := Notification{
		ID:         notificationID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Kind:       kind,
		Content:    strings.TrimSpace(input.Content),
		TargetID:   strings.TrimSpace(input.TargetID),
		CreatedAt:  s.nowUTC(),
	}
	if err := s.store.PutNotification(ctx, toRecord(notification)); err != nil {
		return Notification{}, apperrors.FromStore(err)
	}
	return notification, nil
}

// ListByReceiver lists one receiver's log newest first.
func (s *Service) ListByReceiver(ctx context.Context, input ListInput) (Page, error) {
	if s == nil || s.store == nil {
		return Page{}, ErrStoreNotConfigured
	}
	receiverID := strings.TrimSpace(input.ReceiverID)
	if receiverID == "" {
		return Page{}, apperrors.New(apperrors.CodeNotificationBadInput, "receiver id is required")
	}
	pageSize := input.PageSize
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}

	stored, err := s.store.ListByReceiver(ctx, receiverID, pageSize, strings.TrimSpace(input.PageToken))
	if err != nil {
		return Page{}, apperrors.FromStore(err)
	}
	page := Page{
		Notifications: make([]Listed, 0, len(stored.Notifications)),
		NextPageToken: stored.NextPageToken,
	}
	for _, listed := range stored.Notifications {
		page.Notifications = append(page.Notifications, Listed{
			Notification: fromRecord(listed.Notification),
			Sender: Sender{
				ID:          listed.Sender.ID,
				DisplayName: listed.Sender.DisplayName,
				Avatar:      listed.Sender.Avatar,
				Slug:        listed.Sender.Slug,
			},
		})
	}
	return page, nil
}

// MarkRead flips the read flag on one receiver-scoped notification.
func (s *Service) MarkRead(ctx context.Context, receiverID, notificationID string) (Notification, error) {
	if s == nil || s.store == nil {
		return Notification{}, ErrStoreNotConfigured
	}
	receiverID = strings.TrimSpace(receiverID)
	notificationID = strings.TrimSpace(notificationID)
	if receiverID == "" || notificationID == "" {
		return Notification{}, apperrors.New(apperrors.CodeNotificationBadInput, "receiver and notification ids are required")
	}

	record, err := s.store.MarkRead(ctx, receiverID, notificationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Notification{}, apperrors.New(apperrors.CodeNotFound, "notification not found")
		}
		return Notification{}, apperrors.FromStore(err)
	}
	return fromRecord(record), nil
}

// UnreadCount returns the receiver's unread notification count.
func (s *Service) UnreadCount(ctx context.Context, receiverID string) (int, error) {
	if s == nil || s.store == nil {
		return 0, ErrStoreNotConfigured
	}
	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return 0, apperrors.New(apperrors.CodeNotificationBadInput, "receiver id is required")
	}
	count, err := s.store.CountUnread(ctx, receiverID)
	if err != nil {
		return 0, apperrors.FromStore(err)
	}
	return count, nil
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func toRecord(notification Notification) storage.Notification {
	return storage.Notification(notification)
}

func fromRecord(record storage.Notification) Notification {
	return Notification(record)
}

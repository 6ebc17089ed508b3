// Package domain implements event hosting: creation with a validated time
// window, independent going/interested attendance sets, and event comments.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/linkedfishers/backend/internal/platform/errors"
	"github.com/linkedfishers/backend/internal/platform/id"
	"github.com/linkedfishers/backend/internal/services/events/storage"
)

// ErrStoreNotConfigured indicates the service is missing persistence wiring.
var ErrStoreNotConfigured = errors.New("event store is not configured")

const defaultUpcomingLimit = 50
const defaultCommentLimit = 50

// Event is one hosted event with its attendance window and comment tally.
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

// Comment is one authored comment on an event.
type Comment struct {
	ID        string
	EventID   string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// Attendance is the two attendance sets of an event. Going and interested
// are independent; an account may appear in both.
type Attendance struct {
	Going      []string
	Interested []string
}

// CreateEventInput describes one new event.
type CreateEventInput struct {
	HostID      string
	Name        string
	Description string
	Location    string
	StartDate   time.Time
	EndDate     time.Time
}

// SetAttendanceInput drives one account's membership in one attendance set.
type SetAttendanceInput struct {
	EventID   string
	AccountID string
	Member    bool
}

// AddCommentInput describes one new event comment.
type AddCommentInput struct {
	EventID  string
	AuthorID string
	Content  string
}

// Service orchestrates event hosting use-cases.
type Service struct {
	store storage.EventStore
	clock func() time.Time
	newID func() (string, error)
}

// NewService constructs event use-cases.
func NewService(store storage.EventStore, clock func() time.Time, newID func() (string, error)) *Service {
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

// CreateEvent persists one hosted event. The end of the window must fall
// after its start; an event with no end runs until the end of its start day.
func (s *Service) CreateEvent(ctx context.Context, input CreateEventInput) (Event, error) {
	if s == nil || s.store == nil {
		return Event{}, ErrStoreNotConfigured
	}
	hostID := strings.TrimSpace(input.HostID)
	if hostID == "" {
		return Event{}, apperrors.New(apperrors.CodeAuthUnauthorized, "host identity is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Event{}, apperrors.New(apperrors.CodeEventEmptyName, "event name is required")
	}
	if input.StartDate.IsZero() {
		return Event{}, apperrors.New(apperrors.CodeEventInvalidWindow, "event start date is required")
	}
	endDate := input.EndDate
	if endDate.IsZero() {
		endDate = endOfDay(input.StartDate)
	}
	if !endDate.After(input.StartDate) {
		return Event{}, apperrors.New(apperrors.CodeEventInvalidWindow, "event must end after it starts")
	}

	eventID, err := s.newID()
	if err != nil {
		return Event{}, err
	}
	now := s.nowUTC()
	event := Event{
		ID:          eventID,
		HostID:      hostID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		StartDate:   input.StartDate.UTC(),
		EndDate:     endDate.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.PutEvent(ctx, storage.Event(event)); err != nil {
		return Event{}, apperrors.FromStore(err)
	}
	return event, nil
}

// EventByID loads one event.
func (s *Service) EventByID(ctx context.Context, eventID string) (Event, error) {
	if s == nil || s.store == nil {
		return Event{}, ErrStoreNotConfigured
	}
	record, err := s.store.GetEventByID(ctx, strings.TrimSpace(eventID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Event{}, apperrors.New(apperrors.CodeEventNotFound, "event not found")
		}
		return Event{}, apperrors.FromStore(err)
	}
	return Event(record), nil
}

// EventsByHost lists one host's events soonest start first.
func (s *Service) EventsByHost(ctx context.Context, hostID string) ([]Event, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	hostID = strings.TrimSpace(hostID)
	if hostID == "" {
		return nil, apperrors.New(apperrors.CodeBadRequest, "host id is required")
	}
	records, err := s.store.ListEventsByHost(ctx, hostID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	return fromEventRecords(records), nil
}

// UpcomingEvents lists events that have not yet ended, soonest start first.
func (s *Service) UpcomingEvents(ctx context.Context, limit int) ([]Event, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	if limit <= 0 {
		limit = defaultUpcomingLimit
	}
	records, err := s.store.ListUpcoming(ctx, s.nowUTC(), limit)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	return fromEventRecords(records), nil
}

// SetGoing drives the account's membership in the going set. Both joining
// and leaving are idempotent.
func (s *Service) SetGoing(ctx context.Context, input SetAttendanceInput) error {
	return s.setMembership(ctx, input, storage.StatusGoing)
}

// SetInterested drives the account's membership in the interested set,
// independently of going.
func (s *Service) SetInterested(ctx context.Context, input SetAttendanceInput) error {
	return s.setMembership(ctx, input, storage.StatusInterested)
}

func (s *Service) setMembership(ctx context.Context, input SetAttendanceInput, status string) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	accountID := strings.TrimSpace(input.AccountID)
	if accountID == "" {
		return apperrors.New(apperrors.CodeAuthUnauthorized, "caller identity is required")
	}
	eventID := strings.TrimSpace(input.EventID)
	if eventID == "" {
		return apperrors.New(apperrors.CodeEventNotFound, "event id is required")
	}
	if err := s.store.SetMembership(ctx, eventID, accountID, status, input.Member, s.nowUTC()); err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			return apperrors.New(apperrors.CodeEventNotFound, "event not found")
		}
		return apperrors.FromStore(err)
	}
	return nil
}

// EventAttendance loads both attendance sets of one event.
func (s *Service) EventAttendance(ctx context.Context, eventID string) (Attendance, error) {
	if s == nil || s.store == nil {
		return Attendance{}, ErrStoreNotConfigured
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return Attendance{}, apperrors.New(apperrors.CodeEventNotFound, "event id is required")
	}
	going, err := s.store.ListMembers(ctx, eventID, storage.StatusGoing)
	if err != nil {
		return Attendance{}, apperrors.FromStore(err)
	}
	interested, err := s.store.ListMembers(ctx, eventID, storage.StatusInterested)
	if err != nil {
		return Attendance{}, apperrors.FromStore(err)
	}
	return Attendance{Going: going, Interested: interested}, nil
}

// AddComment appends a comment to an existing event, bumping the event's
// counter in the same transaction.
func (s *Service) AddComment(ctx context.Context, input AddCommentInput) (Comment, error) {
	if s == nil || s.store == nil {
		return Comment{}, ErrStoreNotConfigured
	}
	authorID := strings.TrimSpace(input.AuthorID)
	if authorID == "" {
		return Comment{}, apperrors.New(apperrors.CodeAuthUnauthorized, "author identity is required")
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return Comment{}, apperrors.New(apperrors.CodeCommentEmptyContent, "comment content is required")
	}
	eventID := strings.TrimSpace(input.EventID)
	if eventID == "" {
		return Comment{}, apperrors.New(apperrors.CodeEventNotFound, "event id is required")
	}

	commentID, err := s.newID()
	if err != nil {
		return Comment{}, err
	}
	comment := Comment{
		ID:        commentID,
		EventID:   eventID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.nowUTC(),
	}
	if err := s.store.CreateComment(ctx, storage.Comment(comment)); err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			return Comment{}, apperrors.New(apperrors.CodeEventNotFound, "event not found")
		}
		return Comment{}, apperrors.FromStore(err)
	}
	return comment, nil
}

// CommentsByEvent lists an event's comments newest first, bounded by limit.
func (s *Service) CommentsByEvent(ctx context.Context, eventID string, limit int) ([]Comment, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, apperrors.New(apperrors.CodeEventNotFound, "event id is required")
	}
	if limit <= 0 {
		limit = defaultCommentLimit
	}
	records, err := s.store.ListCommentsByEvent(ctx, eventID, limit)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	comments := make([]Comment, 0, len(records))
	for _, record := range records {
		comments = append(comments, Comment(record))
	}
	return comments, nil
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func endOfDay(value time.Time) time.Time {
	value = value.UTC()
	year, month, day := value.Date()
	return time.Date(year, month, day, 23, 59, 59, 0, time.UTC)
}

func fromEventRecords(records []storage.Event) []Event {
	events := make([]Event, 0, len(records))
	for _, record := range records {
		events = append(events, Event(record))
	}
	return events
}

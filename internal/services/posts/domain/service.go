// Package domain implements the post interaction engine: posts, comments
// with a transactional counter, and replace-semantics reactions.
package domain

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/linkedfishers/backend/internal/platform/errors"
	"github.com/linkedfishers/backend/internal/platform/id"
	"github.com/linkedfishers/backend/internal/services/posts/storage"
)

// ErrStoreNotConfigured indicates the service is missing persistence wiring.
var ErrStoreNotConfigured = errors.New("post store is not configured")

// Reaction kinds an author can hold on a post.
const (
	ReactionLike    = "like"
	ReactionLove    = "love"
	ReactionDislike = "dislike"
	ReactionHaha    = "haha"
	ReactionSad     = "sad"
	ReactionWow     = "wow"
)

var knownReactions = map[string]bool{
	ReactionLike:    true,
	ReactionLove:    true,
	ReactionDislike: true,
	ReactionHaha:    true,
	ReactionSad:     true,
	ReactionWow:     true,
}

const defaultCommentLimit = 50

// Bare youtube links in post content are resolved to an embeddable video id.
var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/watch\?(?:[^\s&]*&)*v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:https?://)?youtu\.be/([A-Za-z0-9_-]{11})`),
}

// Post is one authored post with its interaction tallies.
type Post struct {
	ID           string
	AuthorID     string
	Content      string
	YouTubeID    string
	CommentCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Comment is one authored comment on a post.
type Comment struct {
	ID        string
	PostID    string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// Reaction is one author-scoped reaction on a post.
type Reaction struct {
	PostID    string
	AuthorID  string
	Kind      string
	CreatedAt time.Time
}

// Notifier fans interaction events out to the notification log. Fan-out is
// best-effort: a failed append never rolls the interaction back.
type Notifier interface {
	PostCommented(ctx context.Context, commenterID, postAuthorID, postID string) error
	PostLiked(ctx context.Context, reactorID, postAuthorID, postID string) error
}

// CreatePostInput describes one new post.
type CreatePostInput struct {
	AuthorID string
	Content  string
}

// CreateCommentInput describes one new comment.
type CreateCommentInput struct {
	PostID   string
	AuthorID string
	Content  string
}

// ReactInput describes one reaction change. An empty Kind retracts the
// author's reaction.
type ReactInput struct {
	PostID   string
	AuthorID string
	Kind     string
}

// Service orchestrates post interaction use-cases.
type Service struct {
	store    storage.PostStore
	notifier Notifier
	clock    func() time.Time
	newID    func() (string, error)
}

// NewService constructs post interaction use-cases. notifier may be nil;
// fan-out is then skipped.
func NewService(store storage.PostStore, notifier Notifier, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store:    store,
		notifier: notifier,
		clock:    clock,
		newID:    newID,
	}
}

// CreatePost persists one authored post. Bare youtube links in the content
// yield an embeddable video id on the post.
func (s *Service) CreatePost(ctx context.Context, input CreatePostInput) (Post, error) {
	if s == nil || s.store == nil {
		return Post{}, ErrStoreNotConfigured
	}
	authorID := strings.TrimSpace(input.AuthorID)
	if authorID == "" {
		return Post{}, apperrors.New(apperrors.CodeAuthUnauthorized, "author identity is required")
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return Post{}, apperrors.New(apperrors.CodePostEmptyContent, "post content is required")
	}

	postID, err := s.newID()
	if err != nil {
		return Post{}, err
	}
	now := s.nowUTC()
	post := Post{
		ID:        postID,
		AuthorID:  authorID,
		Content:   content,
		YouTubeID: ExtractYouTubeID(content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.PutPost(ctx, toPostRecord(post)); err != nil {
		return Post{}, apperrors.FromStore(err)
	}
	return post, nil
}

// DeletePost removes an owner-scoped post. Non-owners and absent posts are
// indistinguishable: both fail NOT_FOUND.
func (s *Service) DeletePost(ctx context.Context, postID, authorID string) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	if err := s.store.DeletePostByAuthor(ctx, strings.TrimSpace(postID), strings.TrimSpace(authorID)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "post not found")
		}
		return apperrors.FromStore(err)
	}
	return nil
}

// PostByID loads one post.
func (s *Service) PostByID(ctx context.Context, postID string) (Post, error) {
	if s == nil || s.store == nil {
		return Post{}, ErrStoreNotConfigured
	}
	record, err := s.store.GetPostByID(ctx, strings.TrimSpace(postID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Post{}, apperrors.New(apperrors.CodePostNotFound, "post not found")
		}
		return Post{}, apperrors.FromStore(err)
	}
	return fromPostRecord(record), nil
}

// PostsByAuthor lists one author's posts newest first.
func (s *Service) PostsByAuthor(ctx context.Context, authorID string) ([]Post, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return nil, apperrors.New(apperrors.CodeBadRequest, "author id is required")
	}
	records, err := s.store.ListPostsByAuthor(ctx, authorID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	posts := make([]Post, 0, len(records))
	for _, record := range records {
		posts = append(posts, fromPostRecord(record))
	}
	return posts, nil
}

// CreateComment appends a comment to an existing post, bumping the post's
// counter in the same transaction, and fans out to the post author.
func (s *Service) CreateComment(ctx context.Context, input CreateCommentInput) (Comment, error) {
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
	postID := strings.TrimSpace(input.PostID)
	if postID == "" {
		return Comment{}, apperrors.New(apperrors.CodePostNotFound, "post id is required")
	}

	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Comment{}, apperrors.New(apperrors.CodePostNotFound, "post not found")
		}
		return Comment{}, apperrors.FromStore(err)
	}

	commentID, err := s.newID()
	if err != nil {
		return Comment{}, err
	}
	comment := Comment{
		ID:        commentID,
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.nowUTC(),
	}
	if err := s.store.CreateComment(ctx, storage.Comment(comment)); err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return Comment{}, apperrors.New(apperrors.CodePostNotFound, "post not found")
		}
		return Comment{}, apperrors.FromStore(err)
	}

	if s.notifier != nil {
		if err := s.notifier.PostCommented(ctx, authorID, post.AuthorID, postID); err != nil {
			log.Printf("comment fan-out on post %s failed: %v", postID, err)
		}
	}
	return comment, nil
}

// DeleteComment removes an owner-scoped comment, dropping the post counter
// in the same transaction. Non-owners and absent comments both fail
// NOT_FOUND.
func (s *Service) DeleteComment(ctx context.Context, commentID, authorID string) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	if err := s.store.DeleteCommentByAuthor(ctx, strings.TrimSpace(commentID), strings.TrimSpace(authorID)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "comment not found")
		}
		return apperrors.FromStore(err)
	}
	return nil
}

// CommentsByPost lists a post's comments newest first, bounded by limit.
func (s *Service) CommentsByPost(ctx context.Context, postID string, limit int) ([]Comment, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, apperrors.New(apperrors.CodePostNotFound, "post id is required")
	}
	if limit <= 0 {
		limit = defaultCommentLimit
	}
	records, err := s.store.ListCommentsByPost(ctx, postID, limit)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	comments := make([]Comment, 0, len(records))
	for _, record := range records {
		comments = append(comments, Comment(record))
	}
	return comments, nil
}

// React replaces the author's reaction on a post. A non-empty kind must be
// one of the known reactions and fans out to the post author; an empty kind
// retracts silently.
func (s *Service) React(ctx context.Context, input ReactInput) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	authorID := strings.TrimSpace(input.AuthorID)
	if authorID == "" {
		return apperrors.New(apperrors.CodeAuthUnauthorized, "author identity is required")
	}
	postID := strings.TrimSpace(input.PostID)
	if postID == "" {
		return apperrors.New(apperrors.CodePostNotFound, "post id is required")
	}
	kind := strings.TrimSpace(input.Kind)
	if kind != "" && !knownReactions[kind] {
		return apperrors.New(apperrors.CodeReactionInvalidKind, "unknown reaction kind")
	}

	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodePostNotFound, "post not found")
		}
		return apperrors.FromStore(err)
	}

	inserted, err := s.store.ReplaceReaction(ctx, postID, authorID, kind, s.nowUTC())
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return apperrors.New(apperrors.CodePostNotFound, "post not found")
		}
		return apperrors.FromStore(err)
	}

	if inserted && s.notifier != nil {
		if err := s.notifier.PostLiked(ctx, authorID, post.AuthorID, postID); err != nil {
			log.Printf("reaction fan-out on post %s failed: %v", postID, err)
		}
	}
	return nil
}

// ReactionsByPost lists a post's reactions newest first.
func (s *Service) ReactionsByPost(ctx context.Context, postID string) ([]Reaction, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, apperrors.New(apperrors.CodePostNotFound, "post id is required")
	}
	records, err := s.store.ListReactionsByPost(ctx, postID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	reactions := make([]Reaction, 0, len(records))
	for _, record := range records {
		reactions = append(reactions, Reaction(record))
	}
	return reactions, nil
}

// ExtractYouTubeID pulls an embeddable video id out of post content when it
// carries a bare youtube link.
func ExtractYouTubeID(content string) string {
	for _, pattern := range youtubePatterns {
		if match := pattern.FindStringSubmatch(content); len(match) == 2 {
			return match[1]
		}
	}
	return ""
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func toPostRecord(post Post) storage.Post {
	return storage.Post(post)
}

func fromPostRecord(record storage.Post) Post {
	return Post(record)
}

package domain

import (
	"context"
	"fmt"
	"testing"
	"time"

	apperrors "github.com/linkedfishers/backend/internal/platform/errors"
	"github.com/linkedfishers/backend/internal/services/posts/storage"
)

type reactionKey struct {
	postID   string
	authorID string
}

type fakeStore struct {
	posts     map[string]storage.Post
	comments  map[string]storage.Comment
	reactions map[reactionKey]storage.Reaction
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		posts:     make(map[string]storage.Post),
		comments:  make(map[string]storage.Comment),
		reactions: make(map[reactionKey]storage.Reaction),
	}
}

func (f *fakeStore) PutPost(ctx context.Context, post storage.Post) error {
	f.posts[post.ID] = post
	return nil
}

func (f *fakeStore) GetPostByID(ctx context.Context, postID string) (storage.Post, error) {
	post, ok := f.posts[postID]
	if !ok {
		return storage.Post{}, storage.ErrNotFound
	}
	return post, nil
}

func (f *fakeStore) DeletePostByAuthor(ctx context.Context, postID, authorID string) error {
	post, ok := f.posts[postID]
	if !ok || post.AuthorID != authorID {
		return storage.ErrNotFound
	}
	delete(f.posts, postID)
	return nil
}

func (f *fakeStore) ListPostsByAuthor(ctx context.Context, authorID string) ([]storage.Post, error) {
	var posts []storage.Post
	for _, post := range f.posts {
		if post.AuthorID == authorID {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (f *fakeStore) CreateComment(ctx context.Context, comment storage.Comment) error {
	post, ok := f.posts[comment.PostID]
	if !ok {
		return storage.ErrPostNotFound
	}
	post.CommentCount++
	f.posts[comment.PostID] = post
	f.comments[comment.ID] = comment
	return nil
}

func (f *fakeStore) DeleteCommentByAuthor(ctx context.Context, commentID, authorID string) error {
	comment, ok := f.comments[commentID]
	if !ok || comment.AuthorID != authorID {
		return storage.ErrNotFound
	}
	delete(f.comments, commentID)
	post := f.posts[comment.PostID]
	post.CommentCount--
	f.posts[comment.PostID] = post
	return nil
}

func (f *fakeStore) ListCommentsByPost(ctx context.Context, postID string, limit int) ([]storage.Comment, error) {
	var comments []storage.Comment
	for _, comment := range f.comments {
		if comment.PostID == postID && len(comments) < limit {
			comments = append(comments, comment)
		}
	}
	return comments, nil
}

func (f *fakeStore) ReplaceReaction(ctx context.Context, postID, authorID, kind string, now time.Time) (bool, error) {
	if _, ok := f.posts[postID]; !ok {
		return false, storage.ErrPostNotFound
	}
	key := reactionKey{postID: postID, authorID: authorID}
	delete(f.reactions, key)
	if kind == "" {
		return false, nil
	}
	f.reactions[key] = storage.Reaction{PostID: postID, AuthorID: authorID, Kind: kind, CreatedAt: now}
	return true, nil
}

func (f *fakeStore) ListReactionsByPost(ctx context.Context, postID string) ([]storage.Reaction, error) {
	var reactions []storage.Reaction
	for key, reaction := range f.reactions {
		if key.postID == postID {
			reactions = append(reactions, reaction)
		}
	}
	return reactions, nil
}

type fanout struct {
	kind    string
	actorID string
	ownerID string
	postID  string
}

type fakeNotifier struct {
	events []fanout
}

func (f *fakeNotifier) PostCommented(ctx context.Context, commenterID, postAuthorID, postID string) error {
	f.events = append(f.events, fanout{kind: "commented_post", actorID: commenterID, ownerID: postAuthorID, postID: postID})
	return nil
}

func (f *fakeNotifier) PostLiked(ctx context.Context, reactorID, postAuthorID, postID string) error {
	f.events = append(f.events, fanout{kind: "liked_post", actorID: reactorID, ownerID: postAuthorID, postID: postID})
	return nil
}

func newTestService() (*Service, *fakeStore, *fakeNotifier) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	sequence := 0
	svc := NewService(store, notifier,
		func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
		func() (string, error) {
			sequence++
			return fmt.Sprintf("rec-%04d", sequence), nil
		},
	)
	return svc, store, notifier
}

func TestCreatePost(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: "alice", Content: "tight lines today"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.ID == "" || post.CommentCount != 0 {
		t.Fatalf("unexpected post: %+v", post)
	}
	if _, ok := store.posts[post.ID]; !ok {
		t.Fatal("expected persisted post")
	}

	_, err = svc.CreatePost(ctx, CreatePostInput{AuthorID: "alice", Content: "   "})
	if apperrors.CodeOf(err) != apperrors.CodePostEmptyContent {
		t.Fatalf("expected POST_EMPTY_CONTENT, got %v", err)
	}
}

func TestCreatePostExtractsYouTubeID(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"watch link", "check this https://www.youtube.com/watch?v=dQw4w9WgXcQ out", "dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch link with params", "https://youtube.com/watch?list=PL123&v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"plain text", "no links here", ""},
	}
	for _, tc := range tests {
		post, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: "alice", Content: tc.content})
		if err != nil {
			t.Fatalf("%s: create post: %v", tc.name, err)
		}
		if post.YouTubeID != tc.want {
			t.Fatalf("%s: expected youtube id %q, got %q", tc.name, tc.want, post.YouTubeID)
		}
	}
}

func TestDeletePostIsOwnerScoped(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: "alice", Content: "mine"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if err := svc.DeletePost(ctx, post.ID, "bob"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for non-owner, got %v", err)
	}
	if err := svc.DeletePost(ctx, "missing", "alice"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for missing post, got %v", err)
	}
	if err := svc.DeletePost(ctx, post.ID, "alice"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestCreateCommentFansOutToPostAuthor(t *testing.T) {
	svc, store, notifier := newTestService()
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: "alice", Content: "original"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	comment, err := svc.CreateComment(ctx, CreateCommentInput{PostID: post.ID, AuthorID: "bob", Content: "nice catch"})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if comment.PostID != post.ID {
		t.Fatalf("unexpected comment: %+v", comment)
	}
	if store.posts[post.ID].CommentCount != 1 {
		t.Fatalf("expected counter 1, got %d", store.posts[post.ID].CommentCount)
	}
	if len(notifier.events) != 1 || notifier.events[0].kind != "commented_post" || notifier.events[0].ownerID != "alice" {
		t.Fatalf("unexpected fan-out: %+v", notifier.events)
	}

	_, err = svc.CreateComment(ctx, CreateCommentInput{PostID: "missing", AuthorID: "bob", Content: "hello"})
	if apperrors.CodeOf(err) != apperrors.CodePostNotFound {
		t.Fatalf("expected POST_NOT_FOUND, got %v", err)
	}
	_, err = svc.CreateComment(ctx, CreateCommentInput{PostID: post.ID, AuthorID: "bob", Content: "  "})
	if apperrors.CodeOf(err) != apperrors.CodeCommentEmptyContent {
		t.Fatalf("expected COMMENT_EMPTY_CONTENT, got %v", err)
	}
}

func TestDeleteCommentIsOwnerScoped(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: "alice", Content: "original"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	comment, err := svc.CreateComment(ctx, CreateCommentInput{PostID: post.ID, AuthorID: "bob", Content: "first"})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}

	if err := svc.DeleteComment(ctx, comment.ID, "alice"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for non-owner, got %v", err)
	}
	if err := svc.DeleteComment(ctx, comment.ID, "bob"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if store.posts[post.ID].CommentCount != 0 {
		t.Fatalf("expected counter back to 0, got %d", store.posts[post.ID].CommentCount)
	}
}

func TestReactReplaceSemantics(t *testing.T) {
	svc, store, notifier := newTestService()
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: "alice", Content: "original"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if err := svc.React(ctx, ReactInput{PostID: post.ID, AuthorID: "bob", Kind: ReactionLike}); err != nil {
		t.Fatalf("first react: %v", err)
	}
	if err := svc.React(ctx, ReactInput{PostID: post.ID, AuthorID: "bob", Kind: ReactionLove}); err != nil {
		t.Fatalf("second react: %v", err)
	}

	reactions, err := svc.ReactionsByPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("list reactions: %v", err)
	}
	if len(reactions) != 1 || reactions[0].Kind != ReactionLove {
		t.Fatalf("expected single love reaction, got %+v", reactions)
	}
	if len(notifier.events) != 2 {
		t.Fatalf("expected fan-out per insert, got %+v", notifier.events)
	}

	// Empty kind retracts without fan-out.
	if err := svc.React(ctx, ReactInput{PostID: post.ID, AuthorID: "bob", Kind: ""}); err != nil {
		t.Fatalf("retract: %v", err)
	}
	reactions, err = svc.ReactionsByPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("list reactions: %v", err)
	}
	if len(reactions) != 0 {
		t.Fatalf("expected no reactions after retract, got %+v", reactions)
	}
	if len(notifier.events) != 2 {
		t.Fatalf("retract must not fan out, got %+v", notifier.events)
	}
	if len(store.reactions) != 0 {
		t.Fatalf("expected cleared reaction rows, got %d", len(store.reactions))
	}
}

func TestReactValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: "alice", Content: "original"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if err := svc.React(ctx, ReactInput{PostID: post.ID, AuthorID: "bob", Kind: "meh"}); apperrors.CodeOf(err) != apperrors.CodeReactionInvalidKind {
		t.Fatalf("expected REACTION_INVALID_KIND, got %v", err)
	}
	if err := svc.React(ctx, ReactInput{PostID: "missing", AuthorID: "bob", Kind: ReactionLike}); apperrors.CodeOf(err) != apperrors.CodePostNotFound {
		t.Fatalf("expected POST_NOT_FOUND, got %v", err)
	}
}

// Package storage defines persistence contracts for posts, comments, and
// reactions.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing, or is not owned
	// by the caller for owner-scoped writes.
	ErrNotFound = errors.New("post record not found")
	// ErrPostNotFound indicates the parent post of a write is missing.
	ErrPostNotFound = errors.New("parent post not found")
)

// Post stores one post row. CommentCount is maintained transactionally with
// comment writes.
type Post struct {
	ID           string
	AuthorID     string
	Content      string
	YouTubeID    string
	CommentCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Comment stores one comment row.
type Comment struct {
	ID        string
	PostID    string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// Reaction stores one author-scoped reaction row. An author holds at most
// one reaction per post.
type Reaction struct {
	PostID    string
	AuthorID  string
	Kind      string
	CreatedAt time.Time
}

// PostStore persists posts and their interactions.
type PostStore interface {
	PutPost(ctx context.Context, post Post) error
	GetPostByID(ctx context.Context, postID string) (Post, error)
	// DeletePostByAuthor removes the post only when authorID owns it, along
	// with its comments and reactions. ErrNotFound when no row matches.
	DeletePostByAuthor(ctx context.Context, postID, authorID string) error
	ListPostsByAuthor(ctx context.Context, authorID string) ([]Post, error)

	// CreateComment inserts the comment and increments the parent post's
	// comment counter in one transaction. ErrPostNotFound when the parent
	// post is missing.
	CreateComment(ctx context.Context, comment Comment) error
	// DeleteCommentByAuthor removes the comment only when authorID owns it
	// and decrements the parent counter in one transaction. ErrNotFound when
	// no row matches.
	DeleteCommentByAuthor(ctx context.Context, commentID, authorID string) error
	ListCommentsByPost(ctx context.Context, postID string, limit int) ([]Comment, error)

	// ReplaceReaction removes the author's existing reaction on the post
	// and, when kind is non-empty, inserts the replacement in the same
	// transaction. It reports whether a reaction row was inserted.
	ReplaceReaction(ctx context.Context, postID, authorID, kind string, now time.Time) (bool, error)
	ListReactionsByPost(ctx context.Context, postID string) ([]Reaction, error)
}

package rest

import (
	"net/http"
	"time"

	postdomain "github.com/linkedfishers/backend/internal/services/posts/domain"
)

type postResponse struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	Content      string    `json:"content"`
	YouTubeID    string    `json:"youtube_id,omitempty"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type commentResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type reactionResponse struct {
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

func toPostResponse(post postdomain.Post) postResponse {
	return postResponse(post)
}

func (h *Handler) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	post, err := h.posts.CreatePost(r.Context(), postdomain.CreatePostInput{
		AuthorID: callerID(r),
		Content:  body.Content,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPostResponse(post))
}

func (h *Handler) handlePostByID(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.PostByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(post))
}

func (h *Handler) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.DeletePost(r.Context(), r.PathValue("id"), callerID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handlePostsByAuthor(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.PostsByAuthor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	responses := make([]postResponse, 0, len(posts))
	for _, post := range posts {
		responses = append(responses, toPostResponse(post))
	}
	writeJSON(w, http.StatusOK, map[string][]postResponse{"posts": responses})
}

func (h *Handler) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	comment, err := h.posts.CreateComment(r.Context(), postdomain.CreateCommentInput{
		PostID:   r.PathValue("id"),
		AuthorID: callerID(r),
		Content:  body.Content,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, commentResponse(comment))
}

func (h *Handler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.DeleteComment(r.Context(), r.PathValue("id"), callerID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleCommentsByPost(w http.ResponseWriter, r *http.Request) {
	comments, err := h.posts.CommentsByPost(r.Context(), r.PathValue("id"), queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, err)
		return
	}
	responses := make([]commentResponse, 0, len(comments))
	for _, comment := range comments {
		responses = append(responses, commentResponse(comment))
	}
	writeJSON(w, http.StatusOK, map[string][]commentResponse{"comments": responses})
}

func (h *Handler) handleReact(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Kind string `json:"kind"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	err := h.posts.React(r.Context(), postdomain.ReactInput{
		PostID:   r.PathValue("id"),
		AuthorID: callerID(r),
		Kind:     body.Kind,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleReactionsByPost(w http.ResponseWriter, r *http.Request) {
	reactions, err := h.posts.ReactionsByPost(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	responses := make([]reactionResponse, 0, len(reactions))
	for _, reaction := range reactions {
		responses = append(responses, reactionResponse(reaction))
	}
	writeJSON(w, http.StatusOK, map[string][]reactionResponse{"reactions": responses})
}

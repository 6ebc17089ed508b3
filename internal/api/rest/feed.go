package rest

import (
	"net/http"
	"time"

	feeddomain "github.com/linkedfishers/backend/internal/services/feed/domain"
)

type rankedEventResponse struct {
	ID              string    `json:"id"`
	HostID          string    `json:"host_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Location        string    `json:"location,omitempty"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	CommentCount    int       `json:"comment_count"`
	GoingCount      int       `json:"going_count"`
	InterestedCount int       `json:"interested_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type feedAuthorResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar,omitempty"`
	Slug        string `json:"slug"`
}

type feedReactionResponse struct {
	AuthorID    string    `json:"author_id"`
	DisplayName string    `json:"display_name"`
	Kind        string    `json:"kind"`
	CreatedAt   time.Time `json:"created_at"`
}

type feedPostResponse struct {
	ID           string                 `json:"id"`
	Author       feedAuthorResponse     `json:"author"`
	Content      string                 `json:"content"`
	YouTubeID    string                 `json:"youtube_id,omitempty"`
	CommentCount int                    `json:"comment_count"`
	Reactions    []feedReactionResponse `json:"reactions"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

func toFeedPostResponses(posts []feeddomain.FeedPost) []feedPostResponse {
	responses := make([]feedPostResponse, 0, len(posts))
	for _, post := range posts {
		response := feedPostResponse{
			ID:           post.ID,
			Author:       feedAuthorResponse(post.Author),
			Content:      post.Content,
			YouTubeID:    post.YouTubeID,
			CommentCount: post.CommentCount,
			Reactions:    make([]feedReactionResponse, 0, len(post.Reactions)),
			CreatedAt:    post.CreatedAt,
			UpdatedAt:    post.UpdatedAt,
		}
		for _, reaction := range post.Reactions {
			response.Reactions = append(response.Reactions, feedReactionResponse(reaction))
		}
		responses = append(responses, response)
	}
	return responses
}

func (h *Handler) handleRankedEvents(w http.ResponseWriter, r *http.Request) {
	page, err := h.feed.RankedEvents(r.Context(), feeddomain.RankedEventsInput{
		Limit:   queryInt(r, "limit", 0),
		Skip:    queryInt(r, "skip", 0),
		SortKey: r.URL.Query().Get("sort"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	events := make([]rankedEventResponse, 0, len(page.Events))
	for _, event := range page.Events {
		events = append(events, rankedEventResponse(event))
	}
	writeJSON(w, http.StatusOK, struct {
		Events     []rankedEventResponse `json:"events"`
		TotalPages int                   `json:"total_pages"`
	}{Events: events, TotalPages: page.TotalPages})
}

func (h *Handler) handleFollowingFeed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.feed.FollowingFeed(r.Context(), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]feedPostResponse{"posts": toFeedPostResponses(posts)})
}

func (h *Handler) handlePagedPosts(w http.ResponseWriter, r *http.Request) {
	page, err := h.feed.PagedPosts(r.Context(), queryInt(r, "skip", 0), queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Posts []feedPostResponse `json:"posts"`
		Total int                `json:"total"`
	}{Posts: toFeedPostResponses(page.Posts), Total: page.Total})
}

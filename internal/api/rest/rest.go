// Package rest exposes the backend services as a JSON HTTP API. Handlers
// stay thin: they decode input, delegate to a domain service, and translate
// domain error codes to HTTP statuses.
package rest

import (
	"net/http"

	authdomain "github.com/linkedfishers/backend/internal/services/auth/domain"
	"github.com/linkedfishers/backend/internal/services/auth/token"
	eventdomain "github.com/linkedfishers/backend/internal/services/events/domain"
	feeddomain "github.com/linkedfishers/backend/internal/services/feed/domain"
	notificationdomain "github.com/linkedfishers/backend/internal/services/notifications/domain"
	postdomain "github.com/linkedfishers/backend/internal/services/posts/domain"
	socialdomain "github.com/linkedfishers/backend/internal/services/social/domain"
)

// TokenVerifier checks a bearer token and returns its identity claims.
type TokenVerifier interface {
	Verify(tokenString string) (token.Claims, error)
}

// Handler bundles the domain services behind the JSON API.
type Handler struct {
	auth          *authdomain.Service
	social        *socialdomain.Service
	posts         *postdomain.Service
	events        *eventdomain.Service
	feed          *feeddomain.Service
	notifications *notificationdomain.Service
	verifier      TokenVerifier
}

// New assembles the API handler over the given services.
func New(
	auth *authdomain.Service,
	social *socialdomain.Service,
	posts *postdomain.Service,
	events *eventdomain.Service,
	feed *feeddomain.Service,
	notifications *notificationdomain.Service,
	verifier TokenVerifier,
) *Handler {
	return &Handler{
		auth:          auth,
		social:        social,
		posts:         posts,
		events:        events,
		feed:          feed,
		notifications: notifications,
		verifier:      verifier,
	}
}

// Routes mounts every endpoint on a fresh mux. Every request runs under the
// shared store-call deadline.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	// Account lifecycle
	mux.HandleFunc("POST /api/auth/signup", h.handleSignup)
	mux.HandleFunc("POST /api/auth/activate", h.handleActivate)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.Handle("POST /api/auth/logout", h.requireSession(h.handleLogout))
	mux.HandleFunc("POST /api/auth/password/forgot", h.handleForgotPassword)
	mux.HandleFunc("GET /api/auth/password/reset/{token}", h.handleVerifyResetToken)
	mux.HandleFunc("POST /api/auth/password/reset", h.handleResetPassword)
	mux.Handle("POST /api/auth/password/change", h.requireSession(h.handleChangePassword))
	mux.HandleFunc("GET /api/accounts/{slugOrID}", h.handleAccountLookup)
	mux.Handle("PUT /api/accounts/{id}", h.requireSession(h.handleUpdateProfile))

	// Social graph
	mux.Handle("PUT /api/accounts/{id}/follow", h.requireSession(h.handleFollow))
	mux.Handle("DELETE /api/accounts/{id}/follow", h.requireSession(h.handleUnfollow))
	mux.HandleFunc("GET /api/accounts/{id}/followers", h.handleFollowers)
	mux.HandleFunc("GET /api/accounts/{id}/following", h.handleFollowing)
	mux.HandleFunc("GET /api/accounts/{id}/follow-counts", h.handleFollowCounts)

	// Posts, comments, reactions
	mux.Handle("POST /api/posts", h.requireSession(h.handleCreatePost))
	mux.HandleFunc("GET /api/posts/{id}", h.handlePostByID)
	mux.Handle("DELETE /api/posts/{id}", h.requireSession(h.handleDeletePost))
	mux.HandleFunc("GET /api/accounts/{id}/posts", h.handlePostsByAuthor)
	mux.Handle("POST /api/posts/{id}/comments", h.requireSession(h.handleCreateComment))
	mux.HandleFunc("GET /api/posts/{id}/comments", h.handleCommentsByPost)
	mux.Handle("DELETE /api/comments/{id}", h.requireSession(h.handleDeleteComment))
	mux.Handle("PUT /api/posts/{id}/reaction", h.requireSession(h.handleReact))
	mux.HandleFunc("GET /api/posts/{id}/reactions", h.handleReactionsByPost)

	// Events
	mux.Handle("POST /api/events", h.requireSession(h.handleCreateEvent))
	mux.HandleFunc("GET /api/events/upcoming", h.handleUpcomingEvents)
	mux.HandleFunc("GET /api/events/{id}", h.handleEventByID)
	mux.HandleFunc("GET /api/events/{id}/attendance", h.handleEventAttendance)
	mux.HandleFunc("GET /api/accounts/{id}/events", h.handleEventsByHost)
	mux.Handle("PUT /api/events/{id}/going", h.requireSession(h.handleSetGoing(true)))
	mux.Handle("DELETE /api/events/{id}/going", h.requireSession(h.handleSetGoing(false)))
	mux.Handle("PUT /api/events/{id}/interested", h.requireSession(h.handleSetInterested(true)))
	mux.Handle("DELETE /api/events/{id}/interested", h.requireSession(h.handleSetInterested(false)))
	mux.Handle("POST /api/events/{id}/comments", h.requireSession(h.handleAddEventComment))
	mux.HandleFunc("GET /api/events/{id}/comments", h.handleEventComments)

	// Feeds
	mux.HandleFunc("GET /api/feed/events", h.handleRankedEvents)
	mux.Handle("GET /api/feed/following", h.requireSession(h.handleFollowingFeed))
	mux.HandleFunc("GET /api/feed/posts", h.handlePagedPosts)

	// Notifications
	mux.Handle("GET /api/notifications", h.requireSession(h.handleListNotifications))
	mux.Handle("POST /api/notifications/{id}/read", h.requireSession(h.handleMarkNotificationRead))
	mux.Handle("GET /api/notifications/unread-count", h.requireSession(h.handleUnreadCount))

	return withStoreTimeout(mux)
}

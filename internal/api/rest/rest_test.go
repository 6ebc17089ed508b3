package rest

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/linkedfishers/backend/internal/platform/storage/sqlitedb"
	authdomain "github.com/linkedfishers/backend/internal/services/auth/domain"
	authstorage "github.com/linkedfishers/backend/internal/services/auth/storage"
	authsqlite "github.com/linkedfishers/backend/internal/services/auth/storage/sqlite"
	"github.com/linkedfishers/backend/internal/services/auth/token"
	eventdomain "github.com/linkedfishers/backend/internal/services/events/domain"
	eventsqlite "github.com/linkedfishers/backend/internal/services/events/storage/sqlite"
	feeddomain "github.com/linkedfishers/backend/internal/services/feed/domain"
	feedsqlite "github.com/linkedfishers/backend/internal/services/feed/storage/sqlite"
	notificationdomain "github.com/linkedfishers/backend/internal/services/notifications/domain"
	notificationsqlite "github.com/linkedfishers/backend/internal/services/notifications/storage/sqlite"
	postdomain "github.com/linkedfishers/backend/internal/services/posts/domain"
	postsqlite "github.com/linkedfishers/backend/internal/services/posts/storage/sqlite"
	socialdomain "github.com/linkedfishers/backend/internal/services/social/domain"
	socialsqlite "github.com/linkedfishers/backend/internal/services/social/storage/sqlite"
)

type followNotifier struct {
	sink *notificationdomain.Service
}

func (n followNotifier) AccountFollowed(ctx context.Context, followerID, followeeID string) error {
	_, err := n.sink.Append(ctx, notificationdomain.AppendInput{
		SenderID:   followerID,
		ReceiverID: followeeID,
		Kind:       notificationdomain.KindFollowedYou,
	})
	return err
}

type interactionNotifier struct {
	sink *notificationdomain.Service
}

func (n interactionNotifier) PostCommented(ctx context.Context, commenterID, postAuthorID, postID string) error {
	_, err := n.sink.Append(ctx, notificationdomain.AppendInput{
		SenderID:   commenterID,
		ReceiverID: postAuthorID,
		Kind:       notificationdomain.KindCommentedPost,
		TargetID:   postID,
	})
	return err
}

func (n interactionNotifier) PostLiked(ctx context.Context, reactorID, postAuthorID, postID string) error {
	_, err := n.sink.Append(ctx, notificationdomain.AppendInput{
		SenderID:   reactorID,
		ReceiverID: postAuthorID,
		Kind:       notificationdomain.KindLikedPost,
		TargetID:   postID,
	})
	return err
}

type accountDirectory struct {
	store authstorage.AccountStore
}

func (d accountDirectory) AccountExists(ctx context.Context, accountID string) (bool, error) {
	if _, err := d.store.GetAccountByID(ctx, accountID); err != nil {
		if errors.Is(err, authstorage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type testEnv struct {
	mux       http.Handler
	authStore *authsqlite.Store
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	sqlDB, err := sqlitedb.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	authStore, err := authsqlite.New(sqlDB)
	if err != nil {
		t.Fatalf("auth store: %v", err)
	}
	socialStore, err := socialsqlite.New(sqlDB)
	if err != nil {
		t.Fatalf("social store: %v", err)
	}
	postStore, err := postsqlite.New(sqlDB)
	if err != nil {
		t.Fatalf("post store: %v", err)
	}
	eventStore, err := eventsqlite.New(sqlDB)
	if err != nil {
		t.Fatalf("event store: %v", err)
	}
	notificationStore, err := notificationsqlite.New(sqlDB)
	if err != nil {
		t.Fatalf("notification store: %v", err)
	}
	feedStore, err := feedsqlite.New(sqlDB)
	if err != nil {
		t.Fatalf("feed store: %v", err)
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer, err := token.NewSigner("test", "test-api", key, time.Hour, nil)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	notifications := notificationdomain.NewService(notificationStore, nil, nil)
	auth := authdomain.NewService(authStore, signer, nil, nil, nil)
	social := socialdomain.NewService(socialStore, accountDirectory{store: authStore}, followNotifier{sink: notifications}, nil)
	posts := postdomain.NewService(postStore, interactionNotifier{sink: notifications}, nil, nil)
	events := eventdomain.NewService(eventStore, nil, nil)
	feed := feeddomain.NewService(feedStore, nil)

	handler := New(auth, social, posts, events, feed, notifications, signer)
	return testEnv{mux: handler.Routes(), authStore: authStore}
}

func doJSON(t *testing.T, mux http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
	}
}

func signupAndActivate(t *testing.T, env testEnv, email, displayName, password string) (string, string) {
	t.Helper()
	recorder := doJSON(t, env.mux, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":        email,
		"display_name": displayName,
		"password":     password,
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	record, err := env.authStore.GetAccountByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("load account: %v", err)
	}
	recorder = doJSON(t, env.mux, http.MethodPost, "/api/auth/activate", "", map[string]string{
		"token": record.ConfirmationToken,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("activate: expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var session sessionResponse
	decodeBody(t, recorder, &session)
	if session.Token == "" {
		t.Fatal("expected session token")
	}
	return session.Token, session.Account.ID
}

func TestAccountLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	recorder := doJSON(t, env.mux, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":        "alice@example.com",
		"display_name": "Alice Fisher",
		"password":     "hunter22",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var account accountResponse
	decodeBody(t, recorder, &account)
	if account.Active {
		t.Fatal("expected inactive account after signup")
	}
	if account.Slug != "alice-fisher" {
		t.Fatalf("expected derived slug, got %q", account.Slug)
	}

	// Correct credentials on an unactivated account are rejected with 409.
	recorder = doJSON(t, env.mux, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter22",
	})
	if recorder.Code != http.StatusConflict {
		t.Fatalf("login before activation: expected 409, got %d", recorder.Code)
	}

	record, err := env.authStore.GetAccountByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("load account: %v", err)
	}
	recorder = doJSON(t, env.mux, http.MethodPost, "/api/auth/activate", "", map[string]string{
		"token": record.ConfirmationToken,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("activate: expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	// Redeeming the same token again fails.
	recorder = doJSON(t, env.mux, http.MethodPost, "/api/auth/activate", "", map[string]string{
		"token": record.ConfirmationToken,
	})
	if recorder.Code != http.StatusConflict {
		t.Fatalf("second activation: expected 409, got %d", recorder.Code)
	}

	recorder = doJSON(t, env.mux, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter22",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = doJSON(t, env.mux, http.MethodGet, "/api/accounts/alice-fisher", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("lookup by slug: expected 200, got %d", recorder.Code)
	}
	decodeBody(t, recorder, &account)
	if account.DisplayName != "Alice Fisher" {
		t.Fatalf("unexpected account %+v", account)
	}
}

func TestSessionRequiredEndpoints(t *testing.T) {
	env := newTestEnv(t)

	recorder := doJSON(t, env.mux, http.MethodPost, "/api/posts", "", map[string]string{"content": "hello"})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer, got %d", recorder.Code)
	}

	recorder = doJSON(t, env.mux, http.MethodPost, "/api/posts", "not-a-token", map[string]string{"content": "hello"})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", recorder.Code)
	}
}

func TestFollowFanOutOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	aliceToken, aliceID := signupAndActivate(t, env, "alice@example.com", "Alice Fisher", "hunter22")
	bobToken, _ := signupAndActivate(t, env, "bob@example.com", "Bob Angler", "hunter22")

	recorder := doJSON(t, env.mux, http.MethodPut, "/api/accounts/"+aliceID+"/follow", bobToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("follow: expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var state followStateResponse
	decodeBody(t, recorder, &state)
	if !state.Following || !state.Created {
		t.Fatalf("expected new edge, got %+v", state)
	}

	// Re-follow is idempotent and must not append a second notification.
	recorder = doJSON(t, env.mux, http.MethodPut, "/api/accounts/"+aliceID+"/follow", bobToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("re-follow: expected 200, got %d", recorder.Code)
	}
	decodeBody(t, recorder, &state)
	if state.Created {
		t.Fatal("re-follow must not create an edge")
	}

	recorder = doJSON(t, env.mux, http.MethodGet, "/api/notifications/unread-count", aliceToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unread count: expected 200, got %d", recorder.Code)
	}
	var unread map[string]int
	decodeBody(t, recorder, &unread)
	if unread["unread"] != 1 {
		t.Fatalf("expected 1 unread notification, got %d", unread["unread"])
	}

	recorder = doJSON(t, env.mux, http.MethodGet, "/api/notifications", aliceToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("list notifications: expected 200, got %d", recorder.Code)
	}
	var page struct {
		Notifications []notificationResponse `json:"notifications"`
	}
	decodeBody(t, recorder, &page)
	if len(page.Notifications) != 1 || page.Notifications[0].Kind != "followed_you" {
		t.Fatalf("expected followed_you entry, got %+v", page.Notifications)
	}
	if page.Notifications[0].Sender.DisplayName != "Bob Angler" {
		t.Fatalf("expected sender projection, got %+v", page.Notifications[0].Sender)
	}

	// Self-follow is rejected.
	recorder = doJSON(t, env.mux, http.MethodPut, "/api/accounts/"+aliceID+"/follow", aliceToken, nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("self-follow: expected 400, got %d", recorder.Code)
	}
}

func TestPostInteractionsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	aliceToken, _ := signupAndActivate(t, env, "alice@example.com", "Alice Fisher", "hunter22")
	bobToken, _ := signupAndActivate(t, env, "bob@example.com", "Bob Angler", "hunter22")

	recorder := doJSON(t, env.mux, http.MethodPost, "/api/posts", aliceToken, map[string]string{
		"content": "watch https://youtu.be/dQw4w9WgXcQ",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create post: expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var post postResponse
	decodeBody(t, recorder, &post)
	if post.YouTubeID != "dQw4w9WgXcQ" {
		t.Fatalf("expected youtube id extracted, got %q", post.YouTubeID)
	}

	recorder = doJSON(t, env.mux, http.MethodPost, "/api/posts/"+post.ID+"/comments", bobToken, map[string]string{
		"content": "nice catch",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("comment: expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = doJSON(t, env.mux, http.MethodPut, "/api/posts/"+post.ID+"/reaction", bobToken, map[string]string{
		"kind": "wow",
	})
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("react: expected 204, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = doJSON(t, env.mux, http.MethodPut, "/api/posts/"+post.ID+"/reaction", bobToken, map[string]string{
		"kind": "sideways",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("invalid kind: expected 400, got %d", recorder.Code)
	}

	recorder = doJSON(t, env.mux, http.MethodGet, "/api/posts/"+post.ID, "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("get post: expected 200, got %d", recorder.Code)
	}
	decodeBody(t, recorder, &post)
	if post.CommentCount != 1 {
		t.Fatalf("expected comment count 1, got %d", post.CommentCount)
	}

	// Comment and reaction each fanned out to the post author.
	recorder = doJSON(t, env.mux, http.MethodGet, "/api/notifications/unread-count", aliceToken, nil)
	var unread map[string]int
	decodeBody(t, recorder, &unread)
	if unread["unread"] != 2 {
		t.Fatalf("expected 2 unread notifications, got %d", unread["unread"])
	}
}

func TestFeedEndpointsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	aliceToken, _ := signupAndActivate(t, env, "alice@example.com", "Alice Fisher", "hunter22")

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	recorder := doJSON(t, env.mux, http.MethodPost, "/api/events", aliceToken, map[string]any{
		"name":       "regatta",
		"start_date": start,
		"end_date":   start.Add(6 * time.Hour),
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create event: expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = doJSON(t, env.mux, http.MethodGet, "/api/feed/events?sort=going", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("ranked events: expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var ranked struct {
		Events     []rankedEventResponse `json:"events"`
		TotalPages int                   `json:"total_pages"`
	}
	decodeBody(t, recorder, &ranked)
	if len(ranked.Events) != 1 || ranked.TotalPages != 1 {
		t.Fatalf("expected single event page, got %+v", ranked)
	}

	recorder = doJSON(t, env.mux, http.MethodGet, "/api/feed/events?sort=bogus", "", nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("invalid sort: expected 400, got %d", recorder.Code)
	}

	recorder = doJSON(t, env.mux, http.MethodPost, "/api/posts", aliceToken, map[string]string{"content": "first"})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create post: expected 201, got %d", recorder.Code)
	}

	// Own posts appear in the author's following feed.
	recorder = doJSON(t, env.mux, http.MethodGet, "/api/feed/following", aliceToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("following feed: expected 200, got %d", recorder.Code)
	}
	var feedPage struct {
		Posts []feedPostResponse `json:"posts"`
	}
	decodeBody(t, recorder, &feedPage)
	if len(feedPage.Posts) != 1 || feedPage.Posts[0].Author.DisplayName != "Alice Fisher" {
		t.Fatalf("expected own post with author projection, got %+v", feedPage.Posts)
	}

	recorder = doJSON(t, env.mux, http.MethodGet, "/api/feed/posts", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("paged posts: expected 200, got %d", recorder.Code)
	}
	var paged struct {
		Posts []feedPostResponse `json:"posts"`
		Total int                `json:"total"`
	}
	decodeBody(t, recorder, &paged)
	if paged.Total != 1 {
		t.Fatalf("expected total 1, got %d", paged.Total)
	}
}

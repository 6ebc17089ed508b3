// Package server wires the backend runtime: shared storage, domain
// services, the JSON API, and the HTTP lifecycle.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linkedfishers/backend/internal/api/rest"
	"github.com/linkedfishers/backend/internal/platform/config"
	"github.com/linkedfishers/backend/internal/platform/storage/sqlitedb"
	"github.com/linkedfishers/backend/internal/platform/timeouts"
	authdomain "github.com/linkedfishers/backend/internal/services/auth/domain"
	"github.com/linkedfishers/backend/internal/services/auth/mailer"
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

type serverEnv struct {
	DBPath  string `env:"LINKEDFISHERS_DB_PATH"`
	SiteURL string `env:"LINKEDFISHERS_SITE_URL" envDefault:"https://linkedfishers.com"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "linkedfishers.db")
	}
	return cfg
}

// Server hosts the JSON API and the storage lifecycle.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	sqlDB      *sql.DB
}

// New creates a configured server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured server for the provided address.
func NewWithAddr(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	env := loadServerEnv()
	sqlDB, err := openDatabase(env.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	handler, err := buildHandler(sqlDB, env)
	if err != nil {
		_ = listener.Close()
		_ = sqlDB.Close()
		return nil, err
	}

	httpServer := &http.Server{
		Handler:           otelhttp.NewHandler(handler.Routes(), "api"),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	return &Server{
		listener:   listener,
		httpServer: httpServer,
		sqlDB:      sqlDB,
	}, nil
}

func buildHandler(sqlDB *sql.DB, env serverEnv) (*rest.Handler, error) {
	authStore, err := authsqlite.New(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("open account store: %w", err)
	}
	socialStore, err := socialsqlite.New(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("open follow store: %w", err)
	}
	postStore, err := postsqlite.New(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("open post store: %w", err)
	}
	eventStore, err := eventsqlite.New(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}
	notificationStore, err := notificationsqlite.New(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("open notification store: %w", err)
	}
	feedStore, err := feedsqlite.New(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("open feed store: %w", err)
	}

	signer, err := token.NewSignerFromEnv(nil)
	if err != nil {
		return nil, fmt.Errorf("configure session signer: %w", err)
	}
	mail, err := buildMailer(env)
	if err != nil {
		return nil, err
	}

	notifications := notificationdomain.NewService(notificationStore, nil, nil)
	auth := authdomain.NewService(authStore, signer, mail, nil, nil)
	social := socialdomain.NewService(socialStore, NewAccountDirectory(authStore), NewFollowNotifier(notifications), nil)
	posts := postdomain.NewService(postStore, NewInteractionNotifier(notifications), nil, nil)
	events := eventdomain.NewService(eventStore, nil, nil)
	feed := feeddomain.NewService(feedStore, nil)

	return rest.New(auth, social, posts, events, feed, notifications, signer), nil
}

func buildMailer(env serverEnv) (mailer.Mailer, error) {
	smtp, err := mailer.NewSMTPMailerFromEnv()
	if err != nil {
		return nil, fmt.Errorf("configure smtp mailer: %w", err)
	}
	if smtp != nil {
		return smtp, nil
	}
	log.Printf("smtp not configured; activation and reset links go to the log")
	return &mailer.LogMailer{SiteURL: env.SiteURL}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the HTTP server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("api server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		err := <-serveErr
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.sqlDB != nil {
		if err := s.sqlDB.Close(); err != nil {
			log.Printf("close database: %v", err)
		}
	}
}

func openDatabase(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	sqlDB, err := sqlitedb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return sqlDB, nil
}

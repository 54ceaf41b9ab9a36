package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	auditrepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/database/authors"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/dbtest"
	"github.com/mrlokans/library/internal/database/loans"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	db       *database.Database
	accounts *auth.Service
	audit    *audit.Service
	cfg      RouterConfig
	router   *gin.Engine
}

type envOption func(*testEnv)

func withSessions() envOption {
	return func(e *testEnv) {
		sqlDB, err := e.db.SQLDB()
		if err != nil {
			panic(err)
		}
		e.cfg.AuthConfig.SessionsEnabled = true
		e.cfg.SessionManager = auth.NewSessionManager(sqlDB, e.db.Driver(), e.cfg.AuthConfig)
		e.cfg.CSRFSecret = []byte("0123456789abcdef0123456789abcdef")
	}
}

func withRateLimiter(maxAttempts int) envOption {
	return func(e *testEnv) {
		e.cfg.RateLimiter = auth.NewRateLimiter(auth.RateLimitConfig{
			MaxAttempts:     maxAttempts,
			WindowDuration:  time.Minute,
			LockoutDuration: time.Minute,
			CleanupInterval: time.Hour,
		})
	}
}

// newTestEnv wires the real services over a temporary SQLite database.
func newTestEnv(t *testing.T, mode config.AuthMode, opts ...envOption) *testEnv {
	t.Helper()
	db := dbtest.Open(t)
	logger := zap.NewNop()

	authCfg := config.Auth{
		Mode:             mode,
		SessionLifetime:  time.Hour,
		BcryptCost:       4,
		MaxLoginAttempts: 5,
		LockoutDuration:  time.Minute,
	}

	auditService := audit.NewService(auditrepo.NewRepository(db.DB), logger)
	t.Cleanup(auditService.Wait)

	usersRepo := users.NewRepository(db.DB)
	booksRepo := books.NewRepository(db.DB)
	loansRepo := loans.NewRepository(db.DB)
	accounts := auth.NewService(usersRepo, loansRepo, auditService, authCfg, logger)
	catalog := services.NewCatalogService(authors.NewRepository(db.DB), booksRepo, auditService, logger)

	env := &testEnv{
		db:       db,
		accounts: accounts,
		audit:    auditService,
		cfg: RouterConfig{
			Authors:        catalog,
			Books:          catalog,
			Loans:          services.NewLoanService(loansRepo, booksRepo, usersRepo, auditService, config.Loans{MaxPeriod: 90 * 24 * time.Hour}, logger),
			Accounts:       accounts,
			Audit:          auditService,
			Database:       db,
			Version:        "test",
			AuthConfig:     authCfg,
			TokenValidator: accounts,
			Logger:         logger,
		},
	}

	for _, opt := range opts {
		opt(env)
	}
	if env.cfg.RateLimiter != nil {
		t.Cleanup(env.cfg.RateLimiter.Stop)
	}
	env.cfg.AuthMiddleware = auth.NewMiddleware(accounts, env.cfg.SessionManager, env.cfg.AuthConfig)
	env.router = NewRouter(env.cfg)
	return env
}

type request struct {
	method  string
	path    string
	body    any
	token   string
	cookies []*http.Cookie
	headers map[string]string
}

func (e *testEnv) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if r.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(r.body))
	}

	req := httptest.NewRequest(r.method, r.path, &body)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (e *testEnv) createUser(t *testing.T, email string, role entities.UserRole) *entities.User {
	t.Helper()
	user, err := e.accounts.CreateUser(context.Background(), email, "Test "+email, "password123", role)
	require.NoError(t, err)
	return user
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	result, err := e.accounts.Login(context.Background(), email, "password123")
	require.NoError(t, err)
	return result.AccessToken
}

func (e *testEnv) createAuthor(t *testing.T, name string) *entities.Author {
	t.Helper()
	author, err := e.cfg.Authors.CreateAuthor(context.Background(), services.AuthorInput{Name: name, Country: "UK"})
	require.NoError(t, err)
	return author
}

func (e *testEnv) createBook(t *testing.T, authorID, title, isbn string, copies int) *entities.Book {
	t.Helper()
	book, err := e.cfg.Books.CreateBook(context.Background(), services.BookInput{
		Title:         title,
		ISBN:          isbn,
		PublishedYear: 1949,
		TotalCopies:   copies,
		AuthorID:      authorID,
	})
	require.NoError(t, err)
	return book
}

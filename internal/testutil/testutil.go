package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/api"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/config"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/database"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/database/repository"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/database/service"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/handler"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/middleware"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/token"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/worker"
)

// TestSecret signs every token issued by a TestApp.
const TestSecret = "test-secret-for-sellerhub"

// TestLogger returns a logger that discards output.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestConfig returns a configuration backed by SQLite with uploads in a
// temporary directory.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		AppEnv:          "test",
		LogLevel:        slog.LevelError,
		Port:            "0",
		DatabaseDriver:  config.DriverSQLite,
		SQLitePath:      ":memory:",
		JWTSecret:       TestSecret,
		UploadDir:       t.TempDir(),
		MaxUploadSize:   1024,
		AuthRateLimit:   0,
		AuthRateWindow:  60,
		ShutdownTimeout: 5,
	}
}

// NewTestDB opens a fresh in-memory SQLite database with all migrations applied.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:", gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db, config.DriverSQLite))

	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}

// TestApp is the full HTTP stack wired against an in-memory database.
type TestApp struct {
	Router   *gin.Engine
	DB       *gorm.DB
	Config   *config.Config
	Tokens   *token.Manager
	Pool     *worker.Pool
	Products repository.ProductRepository
}

// AppOption customizes a TestApp before it is wired.
type AppOption func(*appOptions)

type appOptions struct {
	rateLimiter middleware.RateLimiter
	tokens      *token.Manager
}

// WithRateLimiter replaces the default no-op limiter on the auth routes.
func WithRateLimiter(limiter middleware.RateLimiter) AppOption {
	return func(o *appOptions) { o.rateLimiter = limiter }
}

// WithTokenManager replaces the token manager used for signing and verification.
func WithTokenManager(m *token.Manager) AppOption {
	return func(o *appOptions) { o.tokens = m }
}

// NewTestApp wires repositories, services, handlers and the router the same
// way the server binary does.
func NewTestApp(t *testing.T, opts ...AppOption) *TestApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := TestLogger()
	cfg := TestConfig(t)
	db := NewTestDB(t)

	o := &appOptions{
		rateLimiter: &middleware.NoOpRateLimiter{},
		tokens:      token.NewManager(token.Config{Secret: TestSecret, Issuer: "sellerhub"}),
	}
	for _, opt := range opts {
		opt(o)
	}

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	pool := worker.NewPool(logger)

	uploads, err := service.NewUploadService(productRepo, cfg, logger)
	require.NoError(t, err)

	authService := service.NewAuthService(userRepo, o.tokens, logger)
	productService := service.NewProductService(productRepo, uploads, pool, logger)

	router := api.SetupRouter(
		handler.NewAuthHandler(authService, logger),
		handler.NewProductHandler(productService, logger),
		handler.NewUploadHandler(uploads, cfg.MaxUploadSize, logger),
		middleware.NewAuthMiddleware(o.tokens, logger),
		middleware.LimitByClientIP(o.rateLimiter, "auth", logger),
		uploads.Dir(),
		func() error { return database.Ping(db) },
	)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = pool.Shutdown(ctx)
	})

	return &TestApp{
		Router:   router,
		DB:       db,
		Config:   cfg,
		Tokens:   o.tokens,
		Pool:     pool,
		Products: productRepo,
	}
}

// Do sends a request with an optional JSON body and bearer token.
func (a *TestApp) Do(t *testing.T, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewBuffer(raw)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

// Register creates an account and fails the test unless it returns 201.
func (a *TestApp) Register(t *testing.T, email, password string) {
	t.Helper()

	w := a.Do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

// Login returns a bearer token for the account.
func (a *TestApp) Login(t *testing.T, email, password string) string {
	t.Helper()

	w := a.Do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// Seller registers and logs in, returning the token.
func (a *TestApp) Seller(t *testing.T, email string) string {
	t.Helper()

	a.Register(t, email, "password123")
	return a.Login(t, email, "password123")
}

// DecodeJSON unmarshals a recorded response body.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

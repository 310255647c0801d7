package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/clubhouse/internal/api"
	"github.com/charlesng35/clubhouse/internal/app"
	"github.com/charlesng35/clubhouse/internal/cache"
	sharedtestutil "github.com/charlesng35/clubhouse/internal/database/testutil"
	"github.com/charlesng35/clubhouse/internal/models"
	"github.com/charlesng35/clubhouse/pkg/response"
)

// UserHeader is the identity header the test router trusts.
const UserHeader = "X-User-ID"

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Cache  *cache.MemoryStore
	Router *gin.Engine
	ClubID string
}

// NewEnv provisions a fresh handler test environment with migrations and seed data applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithSeedData())
	store := cache.NewMemoryStore(256, time.Minute)

	cfg := &app.Config{
		Server: app.ServerConfig{Port: 8000},
		Cache:  app.CacheConfig{Backend: "memory", TTL: time.Minute},
		Auth:   app.AuthConfig{UserHeader: UserHeader},
	}

	router, err := api.NewRouter(db, cfg, store)
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Cache:  store,
		Router: router,
		ClubID: "club-" + uuid.NewString(),
	}
}

// CreateMember inserts a membership for a fresh user in the env's club.
func (e *Env) CreateMember(role string) *models.Membership {
	e.T.Helper()

	m := &models.Membership{
		ClubID: e.ClubID,
		UserID: "user-" + uuid.NewString(),
		Role:   role,
	}
	require.NoError(e.T, e.DB.Create(m).Error)
	return m
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router as userID, JSON encoding body when present.
func (e *Env) Request(method, path string, body any, userID string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(UserHeader, userID)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GoPolymarket/logkeep/internal/config"
	"github.com/GoPolymarket/logkeep/internal/model"
	"github.com/GoPolymarket/logkeep/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	entries []*model.LogEntry
}

func (f *fakeRecorder) AppendHTTP(ctx context.Context, level model.Level, tag, message string, metadata interface{}, httpCtx *model.HTTPContext) (*model.LogEntry, error) {
	e := &model.LogEntry{Level: level, Tag: tag, Message: message, HTTP: httpCtx}
	f.entries = append(f.entries, e)
	return e, nil
}

func newRouter(rec Recorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(rec))
	return r
}

func TestErrorHandlerRecordsServerErrors(t *testing.T) {
	rec := &fakeRecorder{}
	r := newRouter(rec)
	r.GET("/boom", func(c *gin.Context) {
		c.Error(errors.New("db exploded"))
	})
	r.GET("/missing", func(c *gin.Context) {
		c.Error(apperrors.NewNotFound("log not found"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("Authorization", "Bearer secret")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")

	require.Len(t, rec.entries, 1)
	entry := rec.entries[0]
	assert.Equal(t, model.LevelError, entry.Level)
	assert.Equal(t, tagAPI, entry.Tag)
	require.NotNil(t, entry.HTTP)
	assert.Equal(t, "/boom", entry.HTTP.URL)
	assert.Equal(t, 500, entry.HTTP.Status)
	assert.Equal(t, redactedValue, entry.HTTP.Headers["Authorization"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Len(t, rec.entries, 1, "client errors are not recorded")
}

func TestErrorHandlerSkipsPersistenceErrors(t *testing.T) {
	rec := &fakeRecorder{}
	r := newRouter(rec)
	r.GET("/persist", func(c *gin.Context) {
		c.Error(apperrors.NewPersistence("failed to persist logs", errors.New("disk full")))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/persist", nil))
	assert.Equal(t, http.StatusInsufficientStorage, w.Code)
	assert.Empty(t, rec.entries)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newRouter(nil)
	r.POST("/ingest", RateLimitMiddleware(NewIngestLimiter(1, 1)), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ingest", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ingest", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	assert.Nil(t, NewIngestLimiter(0, 10))
}

func TestAdminMiddleware(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{AdminKey: "admin"}}
	r := newRouter(nil)
	r.DELETE("/logs", AdminMiddleware(cfg), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/logs", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodDelete, "/logs", nil)
	req.Header.Set(HeaderAdminKey, "admin")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	unconfigured := newRouter(nil)
	unconfigured.DELETE("/logs", AdminMiddleware(&config.Config{}), func(c *gin.Context) {})
	w = httptest.NewRecorder()
	unconfigured.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/logs", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReadOnlyMiddleware(t *testing.T) {
	r := newRouter(nil)
	r.Use(ReadOnlyMiddleware(true))
	r.GET("/logs", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/logs", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/logs", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/logs", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInMemIdempotencyStoreExpires(t *testing.T) {
	store := NewInMemIdempotencyStore(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, hit := store.GetOrLock(ctx, "a")
	assert.False(t, hit)
	rec, hit := store.GetOrLock(ctx, "a")
	require.True(t, hit)
	assert.True(t, rec.Processing)

	store.Save(ctx, "a", http.StatusCreated, []byte("{}"))
	rec, hit = store.GetOrLock(ctx, "a")
	require.True(t, hit)
	assert.Equal(t, http.StatusCreated, rec.Status)

	now = now.Add(2 * time.Minute)
	_, hit = store.GetOrLock(ctx, "a")
	assert.False(t, hit)
}

func TestIdempotencyMiddlewareConflictWhileProcessing(t *testing.T) {
	store := NewInMemIdempotencyStore(time.Minute)
	store.GetOrLock(context.Background(), "POST:/logs:busy")

	r := newRouter(nil)
	r.POST("/logs", IdempotencyMiddleware(store), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	req := httptest.NewRequest(http.MethodPost, "/logs", nil)
	req.Header.Set(HeaderIdempotencyKey, "busy")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

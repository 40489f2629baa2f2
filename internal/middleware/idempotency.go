package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"

const DefaultIdempotencyTTL = 24 * time.Hour

type IdempotencyRecord struct {
	Status     int
	Body       []byte
	CreatedAt  time.Time
	Processing bool // 正在处理中，用于防止并发重试
}

type IdempotencyStore interface {
	// GetOrLock returns (record, true) if exists; (nil,false) if newly locked by caller.
	GetOrLock(ctx context.Context, key string) (*IdempotencyRecord, bool)
	Save(ctx context.Context, key string, status int, body []byte)
	Unlock(ctx context.Context, key string)
}

// InMemIdempotencyStore keeps records in process memory; records older than
// ttl are treated as absent.
type InMemIdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	records map[string]*IdempotencyRecord
	now     func() time.Time
}

func NewInMemIdempotencyStore(ttl time.Duration) *InMemIdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &InMemIdempotencyStore{
		ttl:     ttl,
		records: make(map[string]*IdempotencyRecord),
		now:     time.Now,
	}
}

func (s *InMemIdempotencyStore) GetOrLock(ctx context.Context, key string) (*IdempotencyRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if rec, ok := s.records[key]; ok && now.Sub(rec.CreatedAt) < s.ttl {
		cp := *rec
		return &cp, true
	}
	s.evictExpired(now)

	s.records[key] = &IdempotencyRecord{Processing: true, CreatedAt: now}
	return nil, false
}

func (s *InMemIdempotencyStore) Save(ctx context.Context, key string, status int, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = &IdempotencyRecord{
		Status:    status,
		Body:      append([]byte(nil), body...),
		CreatedAt: s.now(),
	}
}

func (s *InMemIdempotencyStore) Unlock(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
}

// caller holds s.mu
func (s *InMemIdempotencyStore) evictExpired(now time.Time) {
	for k, rec := range s.records {
		if now.Sub(rec.CreatedAt) >= s.ttl {
			delete(s.records, k)
		}
	}
}

// IdempotencyMiddleware replays the stored response for a repeated
// X-Idempotency-Key, so a client retrying an append does not log twice.
func IdempotencyMiddleware(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		idemKey := c.GetHeader(HeaderIdempotencyKey)
		if idemKey == "" || store == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		fullKey := c.Request.Method + ":" + c.FullPath() + ":" + idemKey

		record, hit := store.GetOrLock(ctx, fullKey)
		if hit {
			if record.Processing {
				c.JSON(http.StatusConflict, gin.H{"error": "request in progress"})
				c.Abort()
				return
			}
			c.Header("Idempotent-Replayed", "true")
			c.Data(record.Status, "application/json; charset=utf-8", record.Body)
			c.Abort()
			return
		}

		w := &responseBodyWriter{ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		// Errors are rendered later by ErrorHandler, so nothing useful was
		// captured; 5xx (including 507) stays retryable as well.
		if len(c.Errors) == 0 && c.Writer.Status() < http.StatusInternalServerError {
			store.Save(ctx, fullKey, c.Writer.Status(), w.body)
		} else {
			store.Unlock(ctx, fullKey)
		}
	}
}

type responseBodyWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *responseBodyWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}

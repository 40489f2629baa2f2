package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GoPolymarket/logkeep/internal/model"
	"github.com/GoPolymarket/logkeep/internal/pkg/apperrors"
	"github.com/GoPolymarket/logkeep/internal/pkg/logger"
	"github.com/GoPolymarket/logkeep/internal/pkg/metrics"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"gopkg.in/yaml.v3"
)

const DefaultStoreKey = "applog"

// Port reads and writes a whole serialized collection under one key.
// Load returns (nil, nil) when nothing is stored under key.
type Port interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
}

// LogStore owns the persisted log collection. It is the only writer of its key.
type LogStore struct {
	mu      sync.Mutex
	port    Port
	key     string
	entries []*model.LogEntry // insertion order
	ids     map[string]struct{}
	last    time.Time

	now   func() time.Time
	newID func() string
	tail  *Broadcaster
}

type StoreOption func(*LogStore)

func WithKey(key string) StoreOption {
	return func(s *LogStore) {
		if key != "" {
			s.key = key
		}
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *LogStore) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(gen func() string) StoreOption {
	return func(s *LogStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

func WithBroadcaster(b *Broadcaster) StoreOption {
	return func(s *LogStore) {
		s.tail = b
	}
}

// NewLogStore loads whatever is persisted under the store key, or starts empty.
func NewLogStore(ctx context.Context, port Port, opts ...StoreOption) (*LogStore, error) {
	if port == nil {
		return nil, fmt.Errorf("log store requires a persistence port")
	}
	s := &LogStore{
		port:  port,
		key:   DefaultStoreKey,
		ids:   make(map[string]struct{}),
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}

	payload, err := port.Load(ctx, s.key)
	if err != nil {
		return nil, apperrors.NewPersistence("failed to load log store", err)
	}
	entries, err := decodeCollection(payload)
	if err != nil {
		return nil, apperrors.NewPersistence("persisted log store is corrupt", err)
	}
	for _, e := range entries {
		if _, dup := s.ids[e.ID]; dup || e.ID == "" {
			e.ID = s.uniqueID()
		}
		s.ids[e.ID] = struct{}{}
		if e.Timestamp.After(s.last) {
			s.last = e.Timestamp
		}
	}
	s.entries = entries
	metrics.StoreSize.Set(float64(len(s.entries)))
	logger.Debug("log store loaded", "key", s.key, "entries", len(entries))
	return s, nil
}

// Append records a new entry and persists the whole collection. When the
// write fails the entry is still kept in memory and returned together with a
// PersistenceError.
func (s *LogStore) Append(ctx context.Context, level model.Level, tag, message string, metadata interface{}) (*model.LogEntry, error) {
	return s.AppendHTTP(ctx, level, tag, message, metadata, nil)
}

// AppendHTTP is Append with HTTP context attached.
func (s *LogStore) AppendHTTP(ctx context.Context, level model.Level, tag, message string, metadata interface{}, httpCtx *model.HTTPContext) (*model.LogEntry, error) {
	entry := &model.LogEntry{
		Level:    level,
		Tag:      tag,
		Message:  message,
		Metadata: EncodeMetadata(metadata),
		HTTP:     httpCtx.Clone(),
	}

	s.mu.Lock()
	entry.ID = s.uniqueID()
	entry.Timestamp = s.nextTimestamp()
	s.insert(entry)
	err := s.persist(ctx, "append")
	// Publish under the lock so subscribers see entries in append order.
	if s.tail != nil {
		s.tail.Publish(entry.Clone())
	}
	s.mu.Unlock()

	metrics.EntriesAppended.WithLabelValues(level.String()).Inc()
	return entry.Clone(), err
}

// Import adds pre-built entries keeping their timestamps. Entries without an
// id get one; an id already in the store rejects the whole batch.
func (s *LogStore) Import(ctx context.Context, entries ...*model.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e == nil || e.ID == "" {
			continue
		}
		if _, dup := s.ids[e.ID]; dup {
			return apperrors.NewInvalidRequest(fmt.Sprintf("log %s already exists", e.ID))
		}
		if _, dup := seen[e.ID]; dup {
			return apperrors.NewInvalidRequest(fmt.Sprintf("log %s appears twice", e.ID))
		}
		seen[e.ID] = struct{}{}
	}

	for _, e := range entries {
		if e == nil {
			continue
		}
		cp := e.Clone()
		if cp.ID == "" {
			cp.ID = s.uniqueID()
		}
		if cp.Timestamp.IsZero() {
			cp.Timestamp = s.nextTimestamp()
		}
		if cp.Timestamp.After(s.last) {
			s.last = cp.Timestamp
		}
		s.insert(cp)
	}
	return s.persist(ctx, "import")
}

// GetAll returns every entry, newest first. Equal timestamps keep the most
// recently inserted entry first.
func (s *LogStore) GetAll() []*model.LogEntry {
	s.mu.Lock()
	out := make([]*model.LogEntry, len(s.entries))
	for i, e := range s.entries {
		out[len(s.entries)-1-i] = e.Clone()
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// GetByID returns a NotFound AppError when no entry has the id.
func (s *LogStore) GetByID(id string) (*model.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		for _, e := range s.entries {
			if e.ID == id {
				return e.Clone(), nil
			}
		}
	}
	return nil, apperrors.NewNotFound(fmt.Sprintf("log %q not found", id))
}

// Filter is a read-only projection over GetAll. A nil predicate keeps everything.
func (s *LogStore) Filter(pred Predicate) []*model.LogEntry {
	all := s.GetAll()
	if pred == nil {
		return all
	}
	out := make([]*model.LogEntry, 0, len(all))
	for _, e := range all {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

func (s *LogStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear empties memory and the persisted key under one lock, so no caller
// observes a partially cleared store. On a delete failure memory stays empty.
func (s *LogStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.ids = make(map[string]struct{})
	metrics.StoreSize.Set(0)

	if err := s.port.Delete(ctx, s.key); err != nil {
		metrics.PersistFailures.WithLabelValues("clear").Inc()
		logger.LogError(ctx, err, "failed to clear persisted logs", "key", s.key)
		return apperrors.NewPersistence("failed to clear persisted logs", err)
	}
	return nil
}

// Subscribe returns a channel of newly appended entries and a cancel func.
// It returns a nil channel when the store has no broadcaster.
func (s *LogStore) Subscribe() (<-chan *model.LogEntry, func()) {
	if s.tail == nil {
		return nil, func() {}
	}
	return s.tail.Subscribe()
}

// Subscribers counts live tail listeners.
func (s *LogStore) Subscribers() int {
	if s.tail == nil {
		return 0
	}
	return s.tail.Subscribers()
}

// Export serializes one entry for copy/share. format is "json" or "yaml".
func (s *LogStore) Export(id, format string) ([]byte, error) {
	entry, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	return ExportEntry(entry, format)
}

func ExportEntry(entry *model.LogEntry, format string) ([]byte, error) {
	doc := exportDoc{
		ID:        entry.ID,
		Timestamp: entry.Timestamp,
		Level:     entry.Level,
		Display:   entry.Level.Display(),
		Tag:       entry.Tag,
		Message:   entry.Message,
		Metadata:  entry.MetadataValue(),
		HTTP:      entry.HTTP,
	}
	switch format {
	case "", "json":
		return json.MarshalIndent(doc, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(doc)
	default:
		return nil, apperrors.NewInvalidRequest(fmt.Sprintf("unsupported export format %q", format))
	}
}

type exportDoc struct {
	ID        string             `json:"id" yaml:"id"`
	Timestamp time.Time          `json:"timestamp" yaml:"timestamp"`
	Level     model.Level        `json:"level" yaml:"level"`
	Display   model.Display      `json:"display" yaml:"display"`
	Tag       string             `json:"tag" yaml:"tag"`
	Message   string             `json:"message" yaml:"message"`
	Metadata  interface{}        `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	HTTP      *model.HTTPContext `json:"http,omitempty" yaml:"http,omitempty"`
}

func (s *LogStore) insert(e *model.LogEntry) {
	s.entries = append(s.entries, e)
	s.ids[e.ID] = struct{}{}
	metrics.StoreSize.Set(float64(len(s.entries)))
}

// nextTimestamp never goes backwards, even if the wall clock does.
func (s *LogStore) nextTimestamp() time.Time {
	ts := s.now()
	if ts.Before(s.last) {
		ts = s.last
	}
	s.last = ts
	return ts
}

func (s *LogStore) uniqueID() string {
	for {
		id := s.newID()
		if _, taken := s.ids[id]; !taken && id != "" {
			return id
		}
	}
}

// persist rewrites the whole collection; caller holds s.mu.
func (s *LogStore) persist(ctx context.Context, op string) error {
	payload, err := encodeCollection(s.entries)
	if err == nil {
		err = s.port.Save(ctx, s.key, payload)
	}
	if err != nil {
		metrics.PersistFailures.WithLabelValues(op).Inc()
		logger.LogError(ctx, err, "failed to persist logs", "key", s.key, "op", op)
		return apperrors.NewPersistence("failed to persist logs", err)
	}
	return nil
}

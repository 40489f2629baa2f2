package service

import (
	"sync"

	"github.com/GoPolymarket/logkeep/internal/model"
	"github.com/GoPolymarket/logkeep/internal/pkg/logger"
)

// Broadcaster fans appended entries out to live-tail subscribers.
type Broadcaster struct {
	mu      sync.Mutex
	buffer  int
	nextID  int
	subs    map[int]chan *model.LogEntry
	dropped map[int]int
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broadcaster{
		buffer:  buffer,
		subs:    make(map[int]chan *model.LogEntry),
		dropped: make(map[int]int),
	}
}

// Subscribe registers a subscriber. The returned func unsubscribes and
// closes the channel; calling it twice is safe.
func (b *Broadcaster) Subscribe() (<-chan *model.LogEntry, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan *model.LogEntry, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if n := b.dropped[id]; n > 0 {
				logger.Warn("tail subscriber dropped entries", "dropped", n)
			}
			delete(b.subs, id)
			delete(b.dropped, id)
			close(ch)
		})
	}
}

// Publish never blocks; a subscriber whose buffer is full misses the entry.
func (b *Broadcaster) Publish(entry *model.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- entry:
		default:
			b.dropped[id]++
		}
	}
}

func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

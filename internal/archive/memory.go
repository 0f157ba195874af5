package archive

import (
	"context"
	"sync"
)

// MemorySink keeps archived messages in process memory, grouped by
// recipient. Used when no object storage is configured, and in tests.
type MemorySink struct {
	mu       sync.RWMutex
	byUser   map[string][]*Message
	capacity int
}

func NewMemorySink() *MemorySink {
	return &MemorySink{byUser: make(map[string][]*Message), capacity: maxFetch}
}

func (s *MemorySink) Store(ctx context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := *msg
	msgs := append(s.byUser[m.To], &m)
	if len(msgs) > s.capacity {
		msgs = msgs[len(msgs)-s.capacity:]
	}
	s.byUser[m.To] = msgs
	return nil
}

func (s *MemorySink) ForUser(ctx context.Context, userID string) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.byUser[userID]
	out := make([]*Message, 0, len(msgs))
	for _, m := range msgs {
		c := *m
		out = append(out, &c)
	}
	return out, nil
}

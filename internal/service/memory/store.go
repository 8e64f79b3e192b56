// Package memory keeps per-user conversation history in process and persists
// it through a snapshot.Backend.
//
// Each email owns a conversation guarded by its own mutex. Exchange appends a
// user message and its reply while holding that mutex, and Flush snapshots every
// conversation under the same mutex, so a persisted history never ends between
// a message and its reply.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zhouzirui/echo/backend/internal/model/account"
	"github.com/zhouzirui/echo/backend/internal/storage/snapshot"
)

type conversation struct {
	mu       sync.Mutex
	messages []string
}

// Store is the conversation memory.
type Store struct {
	backend snapshot.Backend

	mu            sync.RWMutex
	conversations map[string]*conversation

	flushMu sync.Mutex
}

// NewStore creates an empty Store persisting through backend.
func NewStore(backend snapshot.Backend) (*Store, error) {
	if backend == nil {
		return nil, errors.New("memory: backend must not be nil")
	}
	return &Store{
		backend:       backend,
		conversations: make(map[string]*conversation),
	}, nil
}

// Load replaces the in-process state with what the backend holds. Stored keys
// are normalized like account emails; keys that collapse to the same address
// are merged in byte order of the stored key.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("memory: load: %w", err)
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	loaded := make(map[string]*conversation, len(data))
	for _, key := range keys {
		email := account.NormalizeEmail(key)
		c, ok := loaded[email]
		if !ok {
			c = &conversation{}
			loaded[email] = c
		}
		c.messages = append(c.messages, data[key]...)
	}

	s.mu.Lock()
	s.conversations = loaded
	s.mu.Unlock()
	return nil
}

// Append adds a single message to the end of email's conversation, creating it
// if needed. It does not add a reply, so callers recording a chat turn must use
// Exchange to keep message/reply pairs adjacent.
func (s *Store) Append(email, message string) {
	c := s.conversation(email)
	c.mu.Lock()
	c.messages = append(c.messages, message)
	c.mu.Unlock()
}

// Exchange appends message, asks respond for a reply given the history so far
// (message included) and appends the reply. Concurrent exchanges for the same
// email are serialized.
func (s *Store) Exchange(email, message string, respond func(history []string) string) string {
	c := s.conversation(email)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, message)
	reply := respond(append([]string(nil), c.messages...))
	c.messages = append(c.messages, reply)
	return reply
}

// Transcript returns a copy of email's conversation, or nil if there is none.
func (s *Store) Transcript(email string) []string {
	s.mu.RLock()
	c, ok := s.conversations[email]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.messages...)
}

// Len reports how many conversations are held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// Flush writes every conversation to the backend, replacing what it held.
// Flushes run one at a time so a later flush never persists older state.
func (s *Store) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	if err := s.backend.Save(ctx, s.snapshot()); err != nil {
		return fmt.Errorf("memory: flush: %w", err)
	}
	return nil
}

func (s *Store) snapshot() snapshot.Data {
	s.mu.RLock()
	convs := make(map[string]*conversation, len(s.conversations))
	for email, c := range s.conversations {
		convs[email] = c
	}
	s.mu.RUnlock()

	data := make(snapshot.Data, len(convs))
	for email, c := range convs {
		c.mu.Lock()
		data[email] = append([]string(nil), c.messages...)
		c.mu.Unlock()
	}
	return data
}

func (s *Store) conversation(email string) *conversation {
	s.mu.RLock()
	c, ok := s.conversations[email]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.conversations[email]; ok {
		return c
	}
	c = &conversation{messages: make([]string, 0, 16)}
	s.conversations[email] = c
	return c
}

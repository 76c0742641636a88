// Package inmemory is the process-local session store. It is the only
// store: interviews are discarded when the server exits.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prepmate/prepmate/pkg/session"
	"github.com/prepmate/prepmate/pkg/storage"
)

type entry struct {
	mu      sync.Mutex
	session storage.Session
}

// Store keeps sessions in a map guarded by a read-write lock, with a
// per-session mutex so concurrent turns against the same session run
// one at a time.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	now      func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

func (s *Store) Create(_ context.Context, cfg session.Config) (*storage.Session, error) {
	now := s.now()
	sess := storage.Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Config:    cfg,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &entry{session: sess}
	s.mu.Unlock()

	return snapshot(&sess), nil
}

func (s *Store) Get(_ context.Context, id string) (*storage.Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(&e.session), nil
}

func (s *Store) List(_ context.Context) ([]*storage.Session, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]*storage.Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, snapshot(&e.session))
		e.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *Store) Update(_ context.Context, id string, fn func(*storage.Session) error) (*storage.Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	working := *snapshot(&e.session)
	if err := fn(&working); err != nil {
		return nil, err
	}
	working.UpdatedAt = s.now()
	e.session = working

	return snapshot(&working), nil
}

func (s *Store) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return e, nil
}

// snapshot copies the session so callers cannot reach into the stored
// transcript.
func snapshot(sess *storage.Session) *storage.Session {
	out := *sess
	out.Transcript = make(session.Transcript, len(sess.Transcript))
	copy(out.Transcript, sess.Transcript)
	return &out
}

// Package storage defines how interview sessions are kept for the
// lifetime of the server process. Sessions are never persisted across
// restarts.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/prepmate/prepmate/pkg/session"
)

// ErrNotFound is returned when a session id does not exist.
var ErrNotFound = errors.New("storage: session not found")

// Session is one live interview keyed by id.
type Session struct {
	ID         string             `json:"id"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	Config     session.Config     `json:"config"`
	Transcript session.Transcript `json:"transcript"`

	// Concluded is set once the final evaluation has been issued.
	// Concluded sessions accept no further turns.
	Concluded bool `json:"concluded"`
}

// Store keeps live sessions. Implementations must be safe for
// concurrent use.
type Store interface {
	// Create opens a new session with the given configuration.
	Create(ctx context.Context, cfg session.Config) (*Session, error)

	// Get returns a snapshot of the session, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// List returns snapshots of all live sessions, newest first.
	List(ctx context.Context) ([]*Session, error)

	// Delete removes a session, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Update runs fn on the session while holding its lock, so turns
	// against one session are strictly serialized. Changes fn makes
	// are kept only when it returns nil. The returned snapshot
	// reflects the state after fn ran.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
}

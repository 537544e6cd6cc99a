package cart

import (
	"errors"
	"sync"
	"time"

	"quickorder/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrUndoUnknown = errors.New("undo token is unknown or already used")
	ErrUndoExpired = errors.New("undo window has elapsed")
)

type undoEntry struct {
	clientID  string
	removed   domain.RemovedLine
	expiresAt time.Time
}

// UndoRegistry hands out single-use tokens for recently removed cart lines.
// Entries live in memory only and die with the process, so behind several
// instances an undo only succeeds on the instance that issued the token.
type UndoRegistry struct {
	mu      sync.Mutex
	window  time.Duration
	now     func() time.Time
	entries map[string]undoEntry
}

func NewUndoRegistry(window time.Duration) *UndoRegistry {
	return &UndoRegistry{
		window:  window,
		now:     time.Now,
		entries: make(map[string]undoEntry),
	}
}

func (u *UndoRegistry) Register(clientID string, removed domain.RemovedLine) (string, time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.now()
	for token, e := range u.entries {
		if !now.Before(e.expiresAt) {
			delete(u.entries, token)
		}
	}

	token := uuid.New().String()
	expiresAt := now.Add(u.window)
	u.entries[token] = undoEntry{
		clientID:  clientID,
		removed:   removed,
		expiresAt: expiresAt,
	}
	return token, expiresAt
}

// Take consumes the token. It fails for tokens of other clients, used
// tokens and tokens whose window has passed.
func (u *UndoRegistry) Take(clientID, token string) (domain.RemovedLine, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	e, ok := u.entries[token]
	if !ok || e.clientID != clientID {
		return domain.RemovedLine{}, ErrUndoUnknown
	}
	delete(u.entries, token)

	if !u.now().Before(e.expiresAt) {
		return domain.RemovedLine{}, ErrUndoExpired
	}
	return e.removed, nil
}

func (u *UndoRegistry) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.entries)
}

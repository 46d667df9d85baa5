package cooking

import (
	"context"
	"sync"
	"time"
)

// Session is one user's conversation against one recipe. The store owns the
// only long-lived reference; a request handling a turn takes its own handle
// for the duration of the turn, so eviction can only unlink the session from
// the map, never yank it out from under an in-flight turn.
type Session struct {
	ID        string
	Recipe    RecipeContext
	Buffer    *Buffer
	CreatedAt time.Time

	mu           sync.Mutex
	lastActivity time.Time

	// turn gate: capacity 1; holding the slot means a turn is in flight.
	turn chan struct{}
}

func newSession(id string, recipe RecipeContext) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Recipe:       recipe,
		Buffer:       NewBuffer(NewMessage(RoleSystem, recipe.SystemPrompt())),
		CreatedAt:    now,
		lastActivity: now,
		turn:         make(chan struct{}, 1),
	}
}

// BeginTurn claims the session for one turn. A second concurrent turn queues
// behind the first so replies land in acceptance order; if the waiter's
// context ends before the slot frees, it gives up with ErrSessionBusy.
// Callers must pair a successful BeginTurn with EndTurn.
func (s *Session) BeginTurn(ctx context.Context) error {
	select {
	case s.turn <- struct{}{}:
		return nil
	default:
	}
	select {
	case s.turn <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ErrSessionBusy
	}
}

func (s *Session) EndTurn() {
	select {
	case <-s.turn:
	default:
	}
}

// Touch records activity so the idle sweeper leaves the session alone.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Info is the session metadata exposed to the API layer.
type Info struct {
	SessionID      string    `json:"session_id"`
	RecipeName     string    `json:"recipe_name"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	MessageCount   int       `json:"message_count"`
}

func (s *Session) Info() Info {
	return Info{
		SessionID:      s.ID,
		RecipeName:     s.Recipe.RecipeName,
		CreatedAt:      s.CreatedAt,
		LastActivityAt: s.LastActivity(),
		MessageCount:   s.Buffer.Len(),
	}
}

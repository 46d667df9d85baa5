package cooking

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"souschef/utils/logging"
)

// Store is the concurrent registry of live sessions. All map access is
// synchronized here; session internals guard themselves.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		stopCh:   make(chan struct{}),
	}
}

// Create registers a new session seeded with the recipe's system message.
// IDs are 128-bit random UUIDs, so a deleted ID is never handed out again
// within a process lifetime.
func (st *Store) Create(recipe RecipeContext) *Session {
	s := newSession(uuid.New().String(), recipe)
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// End removes the session. Ending an already-ended session reports
// ErrSessionNotFound; callers treat that as "already ended".
func (st *Store) End(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(st.sessions, id)
	return nil
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// EvictIdle unlinks sessions inactive for longer than maxIdle and returns
// how many were removed. An in-flight turn keeps its own *Session handle and
// finishes normally; it just becomes unreachable for future lookups.
func (st *Store) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	st.mu.Lock()
	defer st.mu.Unlock()
	evicted := 0
	for id, s := range st.sessions {
		if s.LastActivity().Before(cutoff) {
			delete(st.sessions, id)
			evicted++
		}
	}
	return evicted
}

// StartSweeper runs the idle eviction loop until Stop is called.
func (st *Store) StartSweeper(interval, maxIdle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := st.EvictIdle(maxIdle); n > 0 {
					logging.AppLogger.Info("evicted idle cooking sessions", zap.Int("count", n))
				}
			case <-st.stopCh:
				return
			}
		}
	}()
}

func (st *Store) Stop() {
	st.stopOnce.Do(func() { close(st.stopCh) })
}

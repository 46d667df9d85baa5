package cooking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"souschef/utils/logging"
)

func testRecipe() RecipeContext {
	return RecipeContext{
		RecipeName: "Pasta",
		Ingredients: []Ingredient{
			{Name: "spaghetti", Quantity: "200", Unit: "g"},
		},
		Steps: []string{"Boil water", "Add pasta"},
	}
}

func TestCreateSeedsSystemMessage(t *testing.T) {
	st := NewStore()
	s := st.Create(testRecipe())

	got, err := st.Get(s.ID)
	if err != nil {
		t.Fatalf("get after create failed: %v", err)
	}
	snap := got.Buffer.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected exactly the seeded system message, got %d messages", len(snap))
	}
	if snap[0].Role != RoleSystem {
		t.Errorf("seed message role = %s, want system", snap[0].Role)
	}
	if !strings.Contains(snap[0].Content, "Boil water") {
		t.Errorf("system message should carry the recipe steps")
	}
}

func TestSessionIDsUnique(t *testing.T) {
	st := NewStore()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := st.Create(testRecipe())
		if seen[s.ID] {
			t.Fatalf("duplicate live session id %s", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestEndTwice(t *testing.T) {
	st := NewStore()
	s := st.Create(testRecipe())

	if err := st.End(s.ID); err != nil {
		t.Fatalf("first end failed: %v", err)
	}
	if err := st.End(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second end should report ErrSessionNotFound, got %v", err)
	}
	if _, err := st.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("get after end should report ErrSessionNotFound, got %v", err)
	}
}

func TestEvictIdle(t *testing.T) {
	logging.InitLogger()
	st := NewStore()
	idle := st.Create(testRecipe())
	active := st.Create(testRecipe())

	idle.mu.Lock()
	idle.lastActivity = time.Now().Add(-time.Hour)
	idle.mu.Unlock()

	if n := st.EvictIdle(30 * time.Minute); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, err := st.Get(idle.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("idle session should be gone")
	}
	if _, err := st.Get(active.ID); err != nil {
		t.Errorf("active session should survive: %v", err)
	}
}

func TestEvictionLeavesInFlightHandleUsable(t *testing.T) {
	st := NewStore()
	s := st.Create(testRecipe())

	// A turn holds its own handle; eviction only unlinks the map entry.
	handle, _ := st.Get(s.ID)
	st.EvictIdle(-time.Second) // everything is "idle" against a future cutoff

	handle.Buffer.Append(NewMessage(RoleUser, "still here"))
	if handle.Buffer.Len() != 2 {
		t.Errorf("in-flight handle should stay mutable after eviction")
	}
	if _, err := st.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("evicted session should be unreachable for new lookups")
	}
}

func TestConcurrentStoreAccess(t *testing.T) {
	st := NewStore()
	var wg sync.WaitGroup
	ids := make(chan string, 200)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := st.Create(testRecipe())
			ids <- s.ID
			if _, err := st.Get(s.ID); err != nil {
				t.Errorf("get of just-created session failed: %v", err)
			}
		}()
	}
	wg.Wait()
	close(ids)

	for id := range ids {
		if err := st.End(id); err != nil {
			t.Errorf("end failed for %s: %v", id, err)
		}
	}
	if st.Len() != 0 {
		t.Errorf("store should be empty, has %d", st.Len())
	}
}

func TestBeginTurnQueues(t *testing.T) {
	s := newSession("s1", testRecipe())

	if err := s.BeginTurn(context.Background()); err != nil {
		t.Fatalf("first BeginTurn failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- s.BeginTurn(context.Background())
	}()

	select {
	case err := <-done:
		t.Fatalf("second BeginTurn should queue, returned %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	s.EndTurn()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("queued BeginTurn should succeed after release: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("queued BeginTurn never acquired the slot")
	}
}

func TestBeginTurnBusyOnContextEnd(t *testing.T) {
	s := newSession("s1", testRecipe())
	if err := s.BeginTurn(context.Background()); err != nil {
		t.Fatalf("first BeginTurn failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.BeginTurn(ctx); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("expected ErrSessionBusy when waiter gives up, got %v", err)
	}
}

package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"souschef/config"
	"souschef/services/cooking"
	"souschef/services/llm"
	"souschef/sources/psql"
	"souschef/sources/psql/dao"
	"souschef/sources/psql/models"
	"souschef/utils/logging"
)

// fakeProvider scripts the AI boundary for engine tests.
type fakeProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	tokens  []string
	stErr   error
	delay   time.Duration
	calls   int
	lastReq llm.ChatRequest
}

func (f *fakeProvider) Run(ctx context.Context, req llm.ChatRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	reply, err, delay := f.reply, f.err, f.delay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return "", err
	}
	if reply == "" {
		reply = fmt.Sprintf("reply %d", f.calls)
	}
	return reply, nil
}

func (f *fakeProvider) RunStream(ctx context.Context, req llm.ChatRequest) (<-chan string, <-chan error, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	tokens, stErr := f.tokens, f.stErr
	f.mu.Unlock()

	ch := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		defer close(ch)
		defer close(errCh)
		for _, tok := range tokens {
			select {
			case ch <- tok:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		if stErr != nil {
			errCh <- stErr
		}
	}()
	return ch, errCh, nil
}

func testConfig() config.Config {
	return config.Config{
		LLMProvider:      "anthropic",
		ClaudeModel:      "test-model",
		LLMMaxTokens:     500,
		RateLimitMax:     100,
		RateLimitWindow:  time.Minute,
		PruneMaxMessages: 40,
		PruneMaxChars:    24000,
	}
}

func setupCookingTest(t *testing.T, provider llm.Provider, cfg config.Config) (*CookingController, uint) {
	t.Helper()
	logging.InitLogger()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := psql.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	recipeDAO := dao.NewRecipeDAO(db)
	recipe := &models.Recipe{
		Name: "Pasta",
		Ingredients: []models.RecipeIngredient{
			{Name: "spaghetti", Quantity: "200", Unit: "g", OrderIndex: 1},
		},
		Steps: []models.Step{
			{Description: "Boil water", OrderIndex: 1},
			{Description: "Add pasta", OrderIndex: 2},
		},
	}
	if err := recipeDAO.Create(context.Background(), recipe); err != nil {
		t.Fatalf("create recipe failed: %v", err)
	}
	return NewCookingController(recipeDAO, provider, cfg), recipe.ID
}

func TestCookingScenario(t *testing.T) {
	fp := &fakeProvider{reply: "Boil water first — fill a large pot."}
	ctrl, recipeID := setupCookingTest(t, fp, testConfig())
	ctx := context.Background()

	started, err := ctrl.StartSession(ctx, "u1", recipeID)
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}
	if started.RecipeName != "Pasta" || started.TotalSteps != 2 {
		t.Errorf("unexpected start response: %+v", started)
	}

	reply, err := ctrl.SendMessage(ctx, "u1", started.SessionID, "what's first?")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if !strings.Contains(reply.Content, "Boil water") {
		t.Errorf("reply should reference the first step, got %q", reply.Content)
	}
	if !strings.Contains(fp.lastReq.System, "Boil water") {
		t.Errorf("provider request should carry the recipe in the system prompt")
	}

	if err := ctrl.EndSession(started.SessionID); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if _, err := ctrl.SessionInfo(started.SessionID); !errors.Is(err, cooking.ErrSessionNotFound) {
		t.Errorf("info after end should be ErrSessionNotFound, got %v", err)
	}
}

func TestStartSessionUnknownRecipe(t *testing.T) {
	ctrl, _ := setupCookingTest(t, &fakeProvider{}, testConfig())

	_, err := ctrl.StartSession(context.Background(), "u1", 9999)
	if !errors.Is(err, cooking.ErrInvalidInput) {
		t.Errorf("unknown recipe should be ErrInvalidInput, got %v", err)
	}
}

func TestSendMessageEmptyText(t *testing.T) {
	fp := &fakeProvider{}
	ctrl, recipeID := setupCookingTest(t, fp, testConfig())
	ctx := context.Background()

	started, err := ctrl.StartSession(ctx, "u1", recipeID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ctrl.SendMessage(ctx, "u1", started.SessionID, "   "); !errors.Is(err, cooking.ErrInvalidInput) {
		t.Errorf("empty text should be ErrInvalidInput, got %v", err)
	}
	if fp.calls != 0 {
		t.Errorf("provider must not be called for invalid input")
	}
}

func TestSequentialTurnsPreserveOrder(t *testing.T) {
	ctrl, recipeID := setupCookingTest(t, &fakeProvider{}, testConfig())
	ctx := context.Background()

	started, err := ctrl.StartSession(ctx, "u1", recipeID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ctrl.SendMessage(ctx, "u1", started.SessionID, "first question"); err != nil {
		t.Fatal(err)
	}
	if _, err := ctrl.SendMessage(ctx, "u1", started.SessionID, "second question"); err != nil {
		t.Fatal(err)
	}

	s, err := ctrl.store.Get(started.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	snap := s.Buffer.Snapshot()
	if len(snap) != 5 {
		t.Fatalf("expected 5 messages (system + 2 turns), got %d", len(snap))
	}
	if snap[1].Content != "first question" || snap[2].Role != cooking.RoleAssistant ||
		snap[3].Content != "second question" || snap[4].Role != cooking.RoleAssistant {
		t.Errorf("buffer order broken: %+v", snap)
	}
}

func TestConcurrentTurnsQueue(t *testing.T) {
	fp := &fakeProvider{delay: 50 * time.Millisecond}
	ctrl, recipeID := setupCookingTest(t, fp, testConfig())
	ctx := context.Background()

	started, err := ctrl.StartSession(ctx, "u1", recipeID)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ctrl.SendMessage(ctx, "u1", started.SessionID, fmt.Sprintf("question %d", i))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("turn %d failed: %v", i, err)
		}
	}

	s, _ := ctrl.store.Get(started.SessionID)
	snap := s.Buffer.Snapshot()
	if len(snap) != 5 {
		t.Fatalf("expected both turns committed, got %d messages", len(snap))
	}
	// each user message is immediately followed by its reply
	if snap[1].Role != cooking.RoleUser || snap[2].Role != cooking.RoleAssistant ||
		snap[3].Role != cooking.RoleUser || snap[4].Role != cooking.RoleAssistant {
		t.Errorf("interleaved turn commit: %v %v %v %v", snap[1].Role, snap[2].Role, snap[3].Role, snap[4].Role)
	}
}

func TestRateLimitedRequestTouchesNothing(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitMax = 3
	cfg.RateLimitWindow = 10 * time.Second
	fp := &fakeProvider{}
	ctrl, recipeID := setupCookingTest(t, fp, cfg)
	ctx := context.Background()

	// session creation bills a different client key
	started, err := ctrl.StartSession(ctx, "other", recipeID)
	if err != nil {
		t.Fatal(err)
	}

	allowed, denied := 0, 0
	for i := 0; i < 4; i++ {
		_, err := ctrl.SendMessage(ctx, "u1", started.SessionID, "hi")
		if errors.Is(err, cooking.ErrRateLimited) {
			denied++
		} else if err == nil {
			allowed++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if allowed != 3 || denied != 1 {
		t.Errorf("expected 3 allowed / 1 denied, got %d / %d", allowed, denied)
	}
	if fp.calls != 3 {
		t.Errorf("denied request must not reach the provider, calls = %d", fp.calls)
	}
}

func TestStreamMessageCommitsOnDone(t *testing.T) {
	fp := &fakeProvider{tokens: []string{"Add ", "the ", "pasta."}}
	ctrl, recipeID := setupCookingTest(t, fp, testConfig())
	ctx := context.Background()

	started, err := ctrl.StartSession(ctx, "u1", recipeID)
	if err != nil {
		t.Fatal(err)
	}

	events, err := ctrl.StreamMessage(ctx, "u1", started.SessionID, "next step?")
	if err != nil {
		t.Fatal(err)
	}

	var assembled string
	var done bool
	for ev := range events {
		switch {
		case ev.Err != nil:
			t.Fatalf("unexpected stream error: %v", ev.Err)
		case ev.Done:
			done = true
			assembled = ev.Message.Content
		}
	}
	if !done {
		t.Fatalf("stream never completed")
	}
	if assembled != "Add the pasta." {
		t.Errorf("assembled reply = %q", assembled)
	}

	info, err := ctrl.SessionInfo(started.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if info.MessageCount != 3 {
		t.Errorf("expected system + user + assistant committed, count = %d", info.MessageCount)
	}
}

func TestStreamMessageErrorCommitsNothing(t *testing.T) {
	fp := &fakeProvider{tokens: []string{"partial "}, stErr: llm.ErrUnavailable}
	ctrl, recipeID := setupCookingTest(t, fp, testConfig())
	ctx := context.Background()

	started, err := ctrl.StartSession(ctx, "u1", recipeID)
	if err != nil {
		t.Fatal(err)
	}

	events, err := ctrl.StreamMessage(ctx, "u1", started.SessionID, "next?")
	if err != nil {
		t.Fatal(err)
	}
	var sawErr bool
	for ev := range events {
		if ev.Err != nil {
			sawErr = true
		}
		if ev.Done {
			t.Fatalf("done event after stream error")
		}
	}
	if !sawErr {
		t.Fatalf("missing error event")
	}

	info, _ := ctrl.SessionInfo(started.SessionID)
	if info.MessageCount != 1 {
		t.Errorf("failed stream must not commit, count = %d", info.MessageCount)
	}
}

func TestProviderErrorSurfacedOnce(t *testing.T) {
	fp := &fakeProvider{err: llm.ErrTimeout}
	ctrl, recipeID := setupCookingTest(t, fp, testConfig())
	ctx := context.Background()

	started, err := ctrl.StartSession(ctx, "u1", recipeID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ctrl.SendMessage(ctx, "u1", started.SessionID, "hi"); !errors.Is(err, llm.ErrTimeout) {
		t.Errorf("provider timeout should surface, got %v", err)
	}
	if fp.calls != 1 {
		t.Errorf("engine must not retry the provider, calls = %d", fp.calls)
	}
	// failed turn leaves the buffer alone
	info, _ := ctrl.SessionInfo(started.SessionID)
	if info.MessageCount != 1 {
		t.Errorf("failed sync turn must not commit, count = %d", info.MessageCount)
	}
}

// souschef/controllers/cooking.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"souschef/config"
	"souschef/services/cooking"
	"souschef/services/llm"
	"souschef/sources/psql/dao"
	"souschef/sources/psql/models"
	"souschef/utils/logging"
	"souschef/utils/types"
)

// CookingController is the engine facade: it owns the session store, the
// rate limiter and the provider handle, and runs each turn end to end.
type CookingController struct {
	store    *cooking.Store
	limiter  *cooking.Limiter
	provider llm.Provider
	recipes  *dao.RecipeDAO
	cfg      config.Config
}

func NewCookingController(recipes *dao.RecipeDAO, provider llm.Provider, cfg config.Config) *CookingController {
	return &CookingController{
		store:    cooking.NewStore(),
		limiter:  cooking.NewLimiter(cfg.RateLimitMax, cfg.RateLimitWindow),
		provider: provider,
		recipes:  recipes,
		cfg:      cfg,
	}
}

// Start launches the idle-session sweeper; Stop shuts it down.
func (c *CookingController) Start() {
	c.store.StartSweeper(c.cfg.SessionSweepInterval, c.cfg.SessionIdleTimeout)
}

func (c *CookingController) Stop() {
	c.store.Stop()
}

// StartSession resolves the recipe and registers a fresh session seeded
// with its context.
func (c *CookingController) StartSession(ctx context.Context, clientKey string, recipeID uint) (*types.StartSessionResponse, error) {
	if !c.limiter.Allow(clientKey) {
		return nil, cooking.ErrRateLimited
	}
	recipe, err := c.recipes.GetByID(ctx, recipeID)
	if errors.Is(err, dao.ErrRecipeNotFound) {
		return nil, fmt.Errorf("%w: unknown recipe %d", cooking.ErrInvalidInput, recipeID)
	}
	if err != nil {
		return nil, err
	}

	s := c.store.Create(recipeContextFromModel(recipe))
	logging.AppLogger.Info("cooking session started",
		zap.String("session_id", s.ID),
		zap.String("recipe", recipe.Name),
	)
	return &types.StartSessionResponse{
		SessionID:        s.ID,
		RecipeName:       recipe.Name,
		TotalIngredients: len(recipe.Ingredients),
		TotalSteps:       len(recipe.Steps),
	}, nil
}

// SendMessage runs one synchronous turn: the reply is returned whole and
// both sides of the exchange are appended to the buffer.
func (c *CookingController) SendMessage(ctx context.Context, clientKey, sessionID, text string) (*cooking.Message, error) {
	s, userMsg, err := c.acceptTurn(ctx, clientKey, sessionID, text)
	if err != nil {
		return nil, err
	}
	defer s.EndTurn()

	content, err := c.provider.Run(ctx, c.chatRequest(s, userMsg, false))
	if err != nil {
		return nil, err
	}

	reply := cooking.NewMessage(cooking.RoleAssistant, content)
	s.Buffer.Append(userMsg)
	s.Buffer.Append(reply)
	s.Touch()
	return &reply, nil
}

// StreamMessage runs one streaming turn. The returned channel carries token
// events and one terminal done/error event; the dispatcher releases the turn
// slot and commits the exchange only on clean completion.
func (c *CookingController) StreamMessage(ctx context.Context, clientKey, sessionID, text string) (<-chan cooking.StreamEvent, error) {
	s, userMsg, err := c.acceptTurn(ctx, clientKey, sessionID, text)
	if err != nil {
		return nil, err
	}

	tokens, errCh, err := c.provider.RunStream(ctx, c.chatRequest(s, userMsg, true))
	if err != nil {
		s.EndTurn()
		return nil, err
	}
	return cooking.Dispatch(ctx, s, userMsg, tokens, errCh), nil
}

func (c *CookingController) EndSession(sessionID string) error {
	if err := c.store.End(sessionID); err != nil {
		return err
	}
	logging.AppLogger.Info("cooking session ended", zap.String("session_id", sessionID))
	return nil
}

func (c *CookingController) SessionInfo(sessionID string) (cooking.Info, error) {
	s, err := c.store.Get(sessionID)
	if err != nil {
		return cooking.Info{}, err
	}
	return s.Info(), nil
}

// acceptTurn is the shared front half of both turn paths: rate limit first
// (a denied request must not touch the store or the provider), then session
// lookup, then the turn slot.
func (c *CookingController) acceptTurn(ctx context.Context, clientKey, sessionID, text string) (*cooking.Session, cooking.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, cooking.Message{}, fmt.Errorf("%w: empty message text", cooking.ErrInvalidInput)
	}
	if !c.limiter.Allow(clientKey) {
		return nil, cooking.Message{}, cooking.ErrRateLimited
	}
	s, err := c.store.Get(sessionID)
	if err != nil {
		return nil, cooking.Message{}, err
	}
	if err := s.BeginTurn(ctx); err != nil {
		return nil, cooking.Message{}, err
	}
	s.Touch()
	s.Buffer.Prune(c.cfg.PruneMaxMessages, c.cfg.PruneMaxChars)
	return s, cooking.NewMessage(cooking.RoleUser, text), nil
}

// chatRequest builds the provider request from a buffer snapshot plus the
// pending user message, which is not in the buffer yet: it only lands there
// together with the reply when the turn completes.
func (c *CookingController) chatRequest(s *cooking.Session, userMsg cooking.Message, stream bool) llm.ChatRequest {
	snapshot := s.Buffer.Snapshot()
	req := llm.ChatRequest{
		Model:     c.cfg.ModelName(),
		MaxTokens: c.cfg.LLMMaxTokens,
		Stream:    stream,
	}
	for _, msg := range snapshot {
		if msg.Role == cooking.RoleSystem {
			req.System = msg.Content
			continue
		}
		req.Messages = append(req.Messages, llm.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	req.Messages = append(req.Messages, llm.ChatMessage{
		Role:    string(cooking.RoleUser),
		Content: userMsg.Content,
	})
	return req
}

func recipeContextFromModel(recipe *models.Recipe) cooking.RecipeContext {
	rc := cooking.RecipeContext{
		RecipeName:  recipe.Name,
		Description: recipe.Description,
		Cuisine:     recipe.Cuisine,
		Category:    recipe.Category,
		PrepTime:    recipe.PrepTime,
		CookTime:    recipe.CookTime,
		Servings:    recipe.Servings,
	}
	for _, ing := range recipe.Ingredients {
		rc.Ingredients = append(rc.Ingredients, cooking.Ingredient{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		})
	}
	for _, step := range recipe.Steps {
		rc.Steps = append(rc.Steps, step.Description)
	}
	return rc
}

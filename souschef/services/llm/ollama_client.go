// souschef/services/llm/ollama_client.go
package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	httputils "souschef/utils/http"
	"souschef/utils/logging"

	"go.uber.org/zap"
)

// OllamaClient talks to a local Ollama daemon. Useful for development
// without an Anthropic key.
type OllamaClient struct {
	baseURL string
	client  *http.Client
}

func NewOllamaClient(baseURL string, timeout time.Duration) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434/api"
	}
	return &OllamaClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type ollamaChunk struct {
	Message ChatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// toOllama folds the system prompt into the message list; Ollama has no
// top-level system field on /api/chat.
func toOllama(req ChatRequest) map[string]interface{} {
	messages := req.Messages
	if req.System != "" {
		messages = append([]ChatMessage{{Role: "system", Content: req.System}}, messages...)
	}
	payload := map[string]interface{}{
		"model":    req.Model,
		"messages": messages,
		"stream":   req.Stream,
	}
	if req.MaxTokens > 0 {
		payload["options"] = map[string]interface{}{"num_predict": req.MaxTokens}
	}
	return payload
}

func (c *OllamaClient) Run(ctx context.Context, req ChatRequest) (string, error) {
	defer logging.LogDuration(ctx, "ollama_run")()

	req.Stream = false
	var resp ollamaChunk
	if err := httputils.PostJSON(ctx, c.client, c.baseURL+"/chat", nil, toOllama(req), &resp); err != nil {
		return "", classifyErr(err)
	}
	return resp.Message.Content, nil
}

func (c *OllamaClient) RunStream(ctx context.Context, req ChatRequest) (<-chan string, <-chan error, error) {
	defer logging.LogDuration(ctx, "ollama_run_stream")()

	req.Stream = true
	body, err := httputils.PostStream(ctx, &http.Client{}, c.baseURL+"/chat", nil, toOllama(req))
	if err != nil {
		return nil, nil, classifyErr(err)
	}

	ch := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer func() {
			close(ch)
			close(errCh)
			body.Close()
		}()

		decoder := json.NewDecoder(body)

		for {
			select {
			case <-ctx.Done():
				logging.AppLogger.Info("ollama RunStream context cancelled")
				errCh <- ctx.Err()
				return
			default:
			}

			var chunk ollamaChunk
			if err := decoder.Decode(&chunk); err != nil {
				if err == io.EOF {
					return
				}
				if ctx.Err() != nil {
					errCh <- ctx.Err()
					return
				}
				logging.ErrorLogger.Error("ollama stream decode error", zap.Error(err))
				errCh <- classifyErr(err)
				return
			}
			if chunk.Done {
				return
			}
			select {
			case ch <- chunk.Message.Content:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()

	return ch, errCh, nil
}

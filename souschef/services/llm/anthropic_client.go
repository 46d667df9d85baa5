// souschef/services/llm/anthropic_client.go
package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	httputils "souschef/utils/http"
	"souschef/utils/logging"

	"go.uber.org/zap"
)

const anthropicVersion = "2023-06-01"

type AnthropicClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewAnthropicClient returns a client for the Anthropic Messages API.
func NewAnthropicClient(apiKey string, timeout time.Duration) *AnthropicClient {
	return &AnthropicClient{
		baseURL: "https://api.anthropic.com/v1",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *AnthropicClient) headers() map[string]string {
	return map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}
}

// Run (non-streaming) chat completion
func (c *AnthropicClient) Run(ctx context.Context, req ChatRequest) (string, error) {
	defer logging.LogDuration(ctx, "anthropic_run")()

	req.Stream = false
	url := fmt.Sprintf("%s/messages", c.baseURL)

	var resp struct {
		ID      string `json:"id"`
		Model   string `json:"model"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := httputils.PostJSON(ctx, c.client, url, c.headers(), req, &resp); err != nil {
		return "", classifyErr(err)
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("%w: empty response content", ErrUnavailable)
}

// RunStream requests a streaming completion and relays SSE deltas as tokens.
func (c *AnthropicClient) RunStream(ctx context.Context, req ChatRequest) (<-chan string, <-chan error, error) {
	defer logging.LogDuration(ctx, "anthropic_run_stream")()

	req.Stream = true
	url := fmt.Sprintf("%s/messages", c.baseURL)
	// No client-level timeout while streaming; ctx bounds the read instead.
	streamClient := &http.Client{}
	body, err := httputils.PostStream(ctx, streamClient, url, c.headers(), req)
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

		reader := bufio.NewReader(body)

		for {
			select {
			case <-ctx.Done():
				logging.AppLogger.Info("anthropic RunStream context cancelled")
				errCh <- ctx.Err()
				return
			default:
			}

			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					return
				}
				if ctx.Err() != nil {
					errCh <- ctx.Err()
					return
				}
				logging.ErrorLogger.Error("anthropic stream read error", zap.Error(err))
				errCh <- classifyErr(err)
				return
			}

			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "event:") {
				continue
			}
			if strings.HasPrefix(line, "data:") {
				line = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			}

			var chunk struct {
				Type  string `json:"type"`
				Delta struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"delta"`
				Error *struct {
					Type    string `json:"type"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal([]byte(line), &chunk); err != nil {
				logging.ErrorLogger.Error("anthropic stream JSON parse error",
					zap.Error(err), zap.String("raw_line", line))
				continue
			}

			switch chunk.Type {
			case "content_block_delta":
				if chunk.Delta.Text == "" {
					continue
				}
				select {
				case ch <- chunk.Delta.Text:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			case "message_stop":
				return
			case "error":
				msg := "unknown"
				if chunk.Error != nil {
					msg = chunk.Error.Type
				}
				logging.ErrorLogger.Error("anthropic stream error event", zap.String("error_type", msg))
				errCh <- fmt.Errorf("%w: stream error event %s", ErrUnavailable, msg)
				return
			}
		}
	}()

	return ch, errCh, nil
}

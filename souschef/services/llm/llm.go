// souschef/services/llm/llm.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	httputils "souschef/utils/http"
)

// Provider errors. Transient upstream failures are common; callers surface
// them once and do not retry inside the request path.
var (
	ErrUnavailable = errors.New("llm: provider unavailable")
	ErrTimeout     = errors.New("llm: provider timeout")
	ErrRateLimited = errors.New("llm: provider rate limited")
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model     string        `json:"model"`
	System    string        `json:"system,omitempty"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Stream    bool          `json:"stream"`
}

// Provider is the boundary to a remote conversational-completion endpoint.
//
// Run blocks until the full reply is available. RunStream returns a token
// channel that closes on normal completion and an error channel that carries
// at most one terminal error; cancelling ctx releases the underlying
// connection without blocking the consumer.
type Provider interface {
	Run(ctx context.Context, req ChatRequest) (string, error)
	RunStream(ctx context.Context, req ChatRequest) (<-chan string, <-chan error, error)
}

// classifyErr maps transport and HTTP failures onto the provider error
// taxonomy so upper layers never leak raw upstream detail.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	var se *httputils.StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		case se.Code >= 500:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		default:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

package cooking

import (
	"context"

	"go.uber.org/zap"

	"souschef/utils/logging"
)

// StreamEvent is one outward event of a streaming turn: zero or more Token
// events followed by exactly one terminal event, either Done (with the
// assembled assistant message) or Err.
type StreamEvent struct {
	Token   string
	Done    bool
	Message *Message
	Err     error
}

// Dispatch pumps provider tokens out as discrete events and settles the turn
// against the session buffer. The turn is atomic: on clean completion both
// the pending user message and the assembled reply are appended; on upstream
// error or caller cancellation, nothing is appended; a half-received reply is
// never recorded as the assistant's turn.
//
// The caller holds the session's turn slot; Dispatch releases it when the
// stream settles.
func Dispatch(ctx context.Context, s *Session, userMsg Message, tokens <-chan string, errCh <-chan error) <-chan StreamEvent {
	out := make(chan StreamEvent)

	go func() {
		defer close(out)
		defer s.EndTurn()

		var full []byte
		for token := range tokens {
			full = append(full, token...)
			select {
			case out <- StreamEvent{Token: token}:
			case <-ctx.Done():
				// Caller disconnected; drain nothing further. The provider
				// goroutine sees the same ctx and releases its connection.
				logging.AppLogger.Info("stream dispatch cancelled",
					zap.String("session_id", s.ID))
				return
			}
		}

		// Token channel closed: the provider either finished cleanly or
		// posted a terminal error before closing.
		if err, ok := <-errCh; ok && err != nil {
			logging.ErrorLogger.Error("stream dispatch upstream error",
				zap.String("session_id", s.ID), zap.Error(err))
			select {
			case out <- StreamEvent{Err: err}:
			case <-ctx.Done():
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		reply := NewMessage(RoleAssistant, string(full))
		s.Buffer.Append(userMsg)
		s.Buffer.Append(reply)
		s.Touch()

		select {
		case out <- StreamEvent{Done: true, Message: &reply}:
		case <-ctx.Done():
		}
	}()

	return out
}

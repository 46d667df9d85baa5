package cooking

import "sync"

// Buffer is the ordered conversation history of one session. Only the turn
// currently executing against the session mutates it, but reads (snapshot,
// length) can come from other goroutines, so access is still locked.
type Buffer struct {
	mu       sync.RWMutex
	messages []Message
}

func NewBuffer(system Message) *Buffer {
	return &Buffer{messages: []Message{system}}
}

func (b *Buffer) Append(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
}

// Snapshot returns a defensive copy so a provider request built from it
// cannot observe later appends.
func (b *Buffer) Snapshot() []Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Message, len(b.messages))
	copy(out, b.messages)
	return out
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.messages)
}

// Prune drops the oldest non-system messages until at most maxMessages of
// them remain and their combined content stays under maxChars. The seeded
// system message is never dropped. Call it between turns only.
func (b *Buffer) Prune(maxMessages, maxChars int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.overBudgetLocked(maxMessages, maxChars) {
		idx := -1
		for i, msg := range b.messages {
			if msg.Role != RoleSystem {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}
		b.messages = append(b.messages[:idx], b.messages[idx+1:]...)
	}
}

func (b *Buffer) overBudgetLocked(maxMessages, maxChars int) bool {
	count := 0
	chars := 0
	for _, msg := range b.messages {
		if msg.Role == RoleSystem {
			continue
		}
		count++
		chars += len(msg.Content)
	}
	if maxMessages > 0 && count > maxMessages {
		return true
	}
	if maxChars > 0 && chars > maxChars {
		return true
	}
	return false
}

// Package cooking implements the cooking session engine: ephemeral
// multi-turn conversations bound to one recipe, held in memory for the
// lifetime of the process.
package cooking

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn. Values are never edited after creation;
// old ones may be dropped wholesale by pruning.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now()}
}

package llm

import (
	"testing"
)

func TestToOllamaFoldsSystemPrompt(t *testing.T) {
	payload := toOllama(ChatRequest{
		Model:  "llama3:8b",
		System: "You are a cooking assistant.",
		Messages: []ChatMessage{
			{Role: "user", Content: "what's first?"},
		},
		Stream: true,
	})

	messages, ok := payload["messages"].([]ChatMessage)
	if !ok {
		t.Fatalf("messages has type %T", payload["messages"])
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != "system" || messages[0].Content != "You are a cooking assistant." {
		t.Errorf("first message = %+v, want the system prompt", messages[0])
	}
	if messages[1].Role != "user" {
		t.Errorf("second message role = %q", messages[1].Role)
	}
}

func TestToOllamaMapsMaxTokens(t *testing.T) {
	payload := toOllama(ChatRequest{Model: "llama3:8b", MaxTokens: 500})

	options, ok := payload["options"].(map[string]interface{})
	if !ok {
		t.Fatalf("options missing, payload = %v", payload)
	}
	if options["num_predict"] != 500 {
		t.Errorf("num_predict = %v, want 500", options["num_predict"])
	}

	unlimited := toOllama(ChatRequest{Model: "llama3:8b"})
	if _, ok := unlimited["options"]; ok {
		t.Errorf("options should be absent when no token cap is set")
	}
}

package cooking

import (
	"strings"
	"testing"
)

func testSystemMessage() Message {
	return NewMessage(RoleSystem, "You are helping cook Pasta.")
}

func TestBufferAppendSnapshot(t *testing.T) {
	b := NewBuffer(testSystemMessage())
	msg := NewMessage(RoleUser, "what's first?")
	b.Append(msg)

	snap := b.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(snap))
	}
	if snap[0].Role != RoleSystem {
		t.Errorf("first message should be system, got %s", snap[0].Role)
	}
	last := snap[len(snap)-1]
	if last.Content != msg.Content || last.Role != RoleUser {
		t.Errorf("last snapshot element should equal appended message, got %+v", last)
	}
}

func TestSnapshotIsDefensiveCopy(t *testing.T) {
	b := NewBuffer(testSystemMessage())
	b.Append(NewMessage(RoleUser, "hello"))

	snap := b.Snapshot()
	b.Append(NewMessage(RoleAssistant, "hi there"))

	if len(snap) != 2 {
		t.Errorf("snapshot grew after a later append: %d", len(snap))
	}
}

func TestPruneKeepsSystemMessage(t *testing.T) {
	b := NewBuffer(testSystemMessage())
	for i := 0; i < 10; i++ {
		b.Append(NewMessage(RoleUser, "question"))
		b.Append(NewMessage(RoleAssistant, "answer"))
	}

	b.Prune(5, 0)

	snap := b.Snapshot()
	if snap[0].Role != RoleSystem {
		t.Fatalf("system message was pruned")
	}
	nonSystem := 0
	for _, msg := range snap {
		if msg.Role != RoleSystem {
			nonSystem++
		}
	}
	if nonSystem != 5 {
		t.Errorf("expected 5 non-system messages after prune, got %d", nonSystem)
	}
}

func TestPruneDropsOldestFirst(t *testing.T) {
	b := NewBuffer(testSystemMessage())
	b.Append(NewMessage(RoleUser, "oldest"))
	b.Append(NewMessage(RoleAssistant, "middle"))
	b.Append(NewMessage(RoleUser, "newest"))

	b.Prune(2, 0)

	snap := b.Snapshot()
	for _, msg := range snap {
		if msg.Content == "oldest" {
			t.Errorf("oldest message survived prune")
		}
	}
	if snap[len(snap)-1].Content != "newest" {
		t.Errorf("newest message should remain last")
	}
}

func TestPruneCharBudget(t *testing.T) {
	b := NewBuffer(testSystemMessage())
	b.Append(NewMessage(RoleUser, strings.Repeat("a", 100)))
	b.Append(NewMessage(RoleAssistant, strings.Repeat("b", 100)))
	b.Append(NewMessage(RoleUser, strings.Repeat("c", 100)))

	b.Prune(0, 250)

	chars := 0
	for _, msg := range b.Snapshot() {
		if msg.Role != RoleSystem {
			chars += len(msg.Content)
		}
	}
	if chars > 250 {
		t.Errorf("char budget not enforced: %d chars remain", chars)
	}
}

package telegram

import (
	"strings"
	"testing"

	"rulebot/internal/content"
	"rulebot/internal/engine"
	"rulebot/internal/store"
)

func TestReplyToThreadsName(t *testing.T) {
	eng := engine.New(store.NewMemory(0), content.Defaults())
	b := &Bot{engine: eng, names: make(map[int64]string)}

	reply := b.replyTo(42, "my name is alice")
	if !strings.Contains(reply, "Alice") {
		t.Fatalf("reply = %q", reply)
	}

	// second turn for the same user sees the remembered name
	reply = b.replyTo(42, "what is my name")
	if reply != "Your name is Alice." {
		t.Fatalf("reply = %q", reply)
	}

	// a different user starts as guest
	reply = b.replyTo(7, "what is my name")
	if !strings.Contains(reply, "don't know your name") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestIsAllowed(t *testing.T) {
	open := &Bot{}
	if !open.isAllowed(1) {
		t.Fatalf("empty allowlist must admit everyone")
	}
	restricted := &Bot{allowed: map[int64]struct{}{10: {}}}
	if !restricted.isAllowed(10) {
		t.Fatalf("listed user rejected")
	}
	if restricted.isAllowed(11) {
		t.Fatalf("unlisted user admitted")
	}
}

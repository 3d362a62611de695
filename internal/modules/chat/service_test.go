// README: Chat service tests with a stub provider.
package chat

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	reply string
	err   error
	calls int
}

func (p *stubProvider) Generate(ctx context.Context, message string) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func TestAskRejectsEmptyMessage(t *testing.T) {
	p := &stubProvider{reply: "hi"}
	svc := NewService(p)

	if _, err := svc.Ask(context.Background(), "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if p.calls != 0 {
		t.Fatalf("provider called for an empty message")
	}
}

func TestAskPassesThrough(t *testing.T) {
	p := &stubProvider{reply: "War never changes."}
	svc := NewService(p)

	reply, err := svc.Ask(context.Background(), "what's new?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if reply != "War never changes." {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestAskPropagatesProviderError(t *testing.T) {
	p := &stubProvider{err: errors.New("quota exhausted")}
	svc := NewService(p)

	if _, err := svc.Ask(context.Background(), "hello"); err == nil {
		t.Fatalf("expected provider error to propagate")
	}
}

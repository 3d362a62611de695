// README: Chat assistant service for the dashboard's chat widget.
package chat

import (
	"context"
	"errors"
	"strings"
)

var ErrEmptyMessage = errors.New("chat: empty message")

// Provider answers a single-turn message. The Gemini implementation lives in
// gemini.go; tests stub this.
type Provider interface {
	Generate(ctx context.Context, message string) (string, error)
}

type Service struct {
	provider Provider
}

func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// Ask sends one user message and returns the assistant reply.
func (s *Service) Ask(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}
	return s.provider.Generate(ctx, message)
}

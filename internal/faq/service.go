package faq

import (
	"context"

	"minerpro-backend/internal/guardrail"
	"minerpro-backend/internal/llm"
	"minerpro-backend/internal/shared/metrics"
)

type Service struct {
	llm llm.Client
}

func NewService(client llm.Client) *Service {
	return &Service{llm: client}
}

// Answer resolves a single FAQ question. When the question trips the
// guardrail the canned safety message is returned with blocked=true and the
// upstream model is never consulted.
func (s *Service) Answer(ctx context.Context, question string) (string, bool, error) {
	if _, hit := guardrail.Match(question); hit {
		metrics.IncGuardrailBlocked()
		return guardrail.SafetyMessage, true, nil
	}

	answer, err := s.llm.Complete(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: question},
	})
	if err != nil {
		return "", false, err
	}
	return answer, false, nil
}

package sim

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tripnegotiator/internal/llm"
	"tripnegotiator/internal/trip"
)

// GuideSimulator plays one guide replying to the negotiating agent.
type GuideSimulator struct {
	LLM  llm.Client
	Name string
	Log  *zap.Logger
}

const guidePersona = "You are a professional local travel guide speaking to a travel agent. " +
	"You are knowledgeable about the local area, activities, and pricing. Be " +
	"helpful, informative, and professional. Provide details about what's " +
	"included, pricing, meeting points, durations, and any special " +
	"requirements. Your prices are somewhat negotiable (10-15% max discount). " +
	"Respond as a real guide replying to an inquiry about your services."

func (s *GuideSimulator) Reply(ctx context.Context, history []trip.Message) (string, error) {
	prompt := guidePersona
	if s.Name != "" {
		prompt += "\nYour name is " + s.Name + "."
	}
	prompt += "\n\nConversation so far:\n" + renderHistory(history) +
		"\nReply with the guide's next message only."

	reply, err := s.LLM.GenerateText(ctx, prompt, nil)
	if err != nil {
		return "", fmt.Errorf("sim: guide reply: %w", err)
	}
	if s.Log != nil {
		s.Log.Debug("simulated guide replied", zap.String("guide", s.Name))
	}
	return strings.TrimSpace(reply), nil
}

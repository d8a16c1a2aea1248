// Package sim provides LLM-backed stand-ins for the human counterparties.
// Both simulators satisfy chat.Responder, so the state machines cannot tell
// them apart from interactive input.
package sim

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"tripnegotiator/internal/llm"
	"tripnegotiator/internal/trip"
)

// TravelerSimulator answers the assistant's intake questions as if it were
// the traveler. A simulation profile of predefined facts keeps its answers
// consistent across turns.
type TravelerSimulator struct {
	LLM     llm.Client
	Profile map[string]any
	Log     *zap.Logger
}

const travelerPersona = "You are simulating a traveler who is planning a trip and answering " +
	"questions from a travel assistant. Respond naturally as if you were the " +
	"traveler. Keep answers brief and conversational, as a real person would " +
	"type. If any information is asked, make up a plausible answer. You never " +
	"have to consult anyone and always have an answer ready."

func (s *TravelerSimulator) Reply(ctx context.Context, history []trip.Message) (string, error) {
	prompt := travelerPersona
	if profile := formatProfile(s.Profile); profile != "" {
		prompt += "\n\nUse this profile for your answers:\n" + profile
	}
	prompt += "\n\nConversation so far:\n" + renderHistory(history) +
		"\nReply with the traveler's next message only."

	reply, err := s.LLM.GenerateText(ctx, prompt, nil)
	if err != nil {
		return "", fmt.Errorf("sim: traveler reply: %w", err)
	}
	if s.Log != nil {
		s.Log.Debug("simulated traveler replied", zap.Int("turn", len(history)+1))
	}
	return strings.TrimSpace(reply), nil
}

func formatProfile(profile map[string]any) string {
	if len(profile) == 0 {
		return ""
	}
	keys := make([]string, 0, len(profile))
	for k := range profile {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %v\n", k, profile[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderHistory(history []trip.Message) string {
	var b strings.Builder
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Text)
	}
	return b.String()
}

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tripnegotiator/internal/chat"
	"tripnegotiator/internal/llm"
	"tripnegotiator/internal/prompt"
	"tripnegotiator/internal/trip"
)

// Negotiation decision actions.
const (
	actionTalkToGuide = "talk_to_guide"
	actionAskTraveler = "ask_traveler"
	actionPause       = "pause_negotiation"
	actionEnd         = "end_negotiation"
)

const negotiationClosing = "Thank you for your time. We'd like to go ahead with " +
	"the terms we discussed; the traveler will be in touch about payment."

var guideExtractSpec = prompt.ApplyPresets(prompt.StructuredSpec{
	Purpose: "Report new or changed offer terms from the guide's latest messages.",
	Background: "A travel assistant is negotiating a trip with a tour guide. The " +
		"known offer state is included in the input; report only what the latest " +
		"messages add or change.",
	OutputFields: prompt.MustFieldsFromStruct(trip.GuideExtraction{}),
	Constraints: []string{
		"Convert the price to a plain number without currency symbols.",
		"paid_extras maps each optional add-on to its price.",
	},
	Rules: []string{
		"unanswered_questions holds questions the guide asked that only the traveler can answer.",
		"Report unanswered_questions as an empty list once every open question is resolved.",
	},
}, prompt.PresetStrictJSON(), prompt.PresetNoInvent())

var negotiationDecisionSpec = prompt.ApplyPresets(prompt.StructuredSpec{
	Purpose: "Choose the assistant's next move in an ongoing price negotiation with a tour guide.",
	Background: "A travel assistant negotiates trips on a traveler's behalf. It " +
		"pushes for the lowest total price while answering the guide's questions " +
		"from what the traveler already shared.",
	OutputFields: prompt.MustFieldsFromStruct(negotiationDecision{}),
	Rules: []string{
		"Seek the lowest price; counter, ask for discounts, and probe for included extras.",
		"Never reveal the traveler's budget ceiling to the guide.",
		"Answer the guide's questions from the traveler's known details when possible; otherwise choose ask_traveler and rephrase the question for the traveler.",
		"Choose end_negotiation only when the price cannot improve further and payment is the only step left.",
		"Choose pause_negotiation when the conversation is waiting on the guide and nothing useful can be said.",
		"message is required for talk_to_guide and ask_traveler.",
	},
}, prompt.PresetStrictJSON())

type negotiationDecision struct {
	Action    string `json:"action" prompt_desc:"One of talk_to_guide, ask_traveler, pause_negotiation, end_negotiation."`
	Reasoning string `json:"reasoning" prompt_desc:"One sentence on why this action fits the current state."`
	Message   string `json:"message,omitempty" prompt_desc:"The message to send; required for talk_to_guide and ask_traveler."`
}

// Negotiation drives one guide conversation from first contact to a finished
// deal. The guide profile is the negotiation's durable state; merges are
// gated on the last-processed-message watermark so reruns over the same
// transcript stay idempotent.
type Negotiation struct {
	TravelerID string
	Profile    *trip.GuideProfile
	Channel    *chat.Channel
	Store      RecordStore
	LLM        llm.Client
	Log        *zap.Logger
}

// Contact opens the conversation with a templated introduction built from the
// traveler's confirmed details, then waits for the guide's first reply.
func (n *Negotiation) Contact(ctx context.Context) error {
	traveler, err := n.Store.LoadTraveler(n.TravelerID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMissingTraveler, n.TravelerID)
	}
	if err := n.Channel.Send(openingMessage(traveler), trip.RoleAssistant); err != nil {
		return err
	}
	_, err = n.Channel.Receive(ctx, "")
	return err
}

// ProcessGuideResponse folds the newest guide message into the offer state.
// It is a no-op when the newest entry is not a fresh guide message, and a
// failed extraction leaves both the profile and the watermark untouched so
// the same message is retried next round.
func (n *Negotiation) ProcessGuideResponse(ctx context.Context) error {
	last, ok := n.Channel.Last()
	if !ok || last.Role != trip.RoleGuide || last.Text == n.Profile.LastProcessedMessage {
		return nil
	}
	input := map[string]any{
		"offer_state": n.Profile,
		"transcript":  n.Channel.ModelTranscript(),
	}
	p, err := prompt.Build(guideExtractSpec, input)
	var ext trip.GuideExtraction
	if err == nil {
		var raw json.RawMessage
		raw, err = n.LLM.GenerateJSON(ctx, p, nil)
		if err == nil {
			err = json.Unmarshal(raw, &ext)
		}
	}
	if err != nil {
		n.Log.Warn("guide extraction failed, keeping prior offer state",
			zap.String("guide", n.Profile.Name), zap.Error(err))
		return nil
	}
	n.Profile.Apply(ext)
	n.Profile.LastProcessedMessage = last.Text
	return n.Store.SaveGuide(n.Profile)
}

// ContinueConversation runs one negotiation turn: absorb the guide's latest
// message, then act on the engine's decision. A non-empty return value is a
// question that must go back to the traveler. Decisions the engine cannot
// produce or that are missing a required message fail the turn with
// ErrInvalidDecision.
func (n *Negotiation) ContinueConversation(ctx context.Context) (string, error) {
	if err := n.ProcessGuideResponse(ctx); err != nil {
		return "", err
	}
	traveler, err := n.Store.LoadTraveler(n.TravelerID)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMissingTraveler, n.TravelerID)
	}
	input := map[string]any{
		"traveler":   traveler,
		"offer":      n.Profile,
		"transcript": n.Channel.ModelTranscript(),
	}
	p, err := prompt.Build(negotiationDecisionSpec, input)
	if err != nil {
		return "", err
	}
	raw, err := n.LLM.GenerateJSON(ctx, p, nil)
	if err != nil {
		return "", fmt.Errorf("negotiation decision for %s: %w", n.Profile.Name, err)
	}
	var dec negotiationDecision
	if err := json.Unmarshal(raw, &dec); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDecision, err)
	}

	n.Log.Debug("negotiation decision",
		zap.String("guide", n.Profile.Name),
		zap.String("action", dec.Action),
		zap.String("reasoning", dec.Reasoning))

	switch dec.Action {
	case actionTalkToGuide:
		if strings.TrimSpace(dec.Message) == "" {
			return "", fmt.Errorf("%w: talk_to_guide without a message", ErrInvalidDecision)
		}
		if err := n.Channel.Send(dec.Message, trip.RoleAssistant); err != nil {
			return "", err
		}
		if _, err := n.Channel.Receive(ctx, ""); err != nil {
			return "", err
		}
		return "", nil
	case actionAskTraveler:
		if strings.TrimSpace(dec.Message) == "" {
			return "", fmt.Errorf("%w: ask_traveler without a message", ErrInvalidDecision)
		}
		return dec.Message, nil
	case actionPause:
		return "", nil
	case actionEnd:
		if err := n.Channel.Send(negotiationClosing, trip.RoleAssistant); err != nil {
			return "", err
		}
		n.Profile.Finish()
		return "", n.Store.SaveGuide(n.Profile)
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidDecision, dec.Action)
	}
}

func openingMessage(t *trip.TravelerProfile) string {
	activity := "a trip"
	if t.Activity != nil && *t.Activity != "" {
		activity = *t.Activity
	}
	location := "a destination of their choice"
	if t.Location != nil && *t.Location != "" {
		location = *t.Location
	}
	start := "a date to be agreed"
	if t.StartTime != nil && *t.StartTime != "" {
		start = *t.StartTime
	}
	participants := "a small group"
	if t.Participants != nil {
		participants = fmt.Sprintf("%d participant(s)", *t.Participants)
	}
	return fmt.Sprintf("Hello! I'm reaching out on behalf of a traveler planning %s "+
		"in %s, starting %s, for %s. Could you share your offer for this trip, "+
		"including the total price and what it covers?",
		activity, location, start, participants)
}

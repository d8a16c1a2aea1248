package agent

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"tripnegotiator/internal/chat"
	"tripnegotiator/internal/llm"
	"tripnegotiator/internal/prompt"
	"tripnegotiator/internal/trip"
)

const (
	intakeGreeting = "Hello, I'm Trippy. I'll help you negotiate the best deal " +
		"for your trip. What do you want to do?"
	intakeProcessingNotice = "Sorry, I had trouble processing that reply. Let's keep going."
	intakeConfirmSuffix    = "\n\nIs everything correct? If something is off, just tell me what to change."
	intakeConfirmedAck     = "Great, everything is confirmed. I'll start talking to your guides now."
	intakeRelayAck         = "Thanks, I'll pass that along to the guides."
)

var travelerExtractSpec = prompt.ApplyPresets(prompt.StructuredSpec{
	Purpose: "Report new or corrected facts about the traveler's trip from the conversation.",
	Background: "A travel assistant is collecting trip requirements so it can " +
		"negotiate with tour guides on the traveler's behalf. The known profile " +
		"is included in the input; report only what the latest messages add or change.",
	OutputFields: prompt.MustFieldsFromStruct(trip.TravelerExtraction{}),
	Constraints: []string{
		"Convert participants and budget to plain numbers without currency symbols.",
	},
	Rules: []string{
		"guide_contacts must come from the traveler; never invent or suggest guides.",
		"When the traveler answers a question a guide asked, record the answer under additional_info.",
	},
}, prompt.PresetStrictJSON(), prompt.PresetNoInvent(), prompt.PresetCautious())

var questionAuditSpec = prompt.ApplyPresets(prompt.StructuredSpec{
	Purpose: "Check which of the listed guide questions the traveler's latest replies actually answer.",
	Background: "A travel assistant relayed questions from tour guides to the " +
		"traveler and needs to know which ones still lack an answer.",
	OutputFields: prompt.MustFieldsFromStruct(questionAudit{}),
	Rules: []string{
		"A question counts as answered only when the traveler addressed its substance, not merely acknowledged it.",
		"missing_answers must repeat the unanswered questions verbatim.",
	},
}, prompt.PresetStrictJSON())

var confirmationSpec = prompt.ApplyPresets(prompt.StructuredSpec{
	Purpose: "Decide whether the traveler confirmed the trip summary, and report any corrections they made.",
	Background: "The traveler was shown a summary of their trip details and asked " +
		"to confirm. Their reply may confirm, correct a detail, or do neither.",
	OutputFields: prompt.MustFieldsFromStruct(confirmationDecision{}),
	Rules: []string{
		"Set confirmed true only on an explicit confirmation with no pending correction.",
		"Report corrected fields with their new values; leave untouched fields out.",
	},
}, prompt.PresetStrictJSON(), prompt.PresetNoInvent())

type questionAudit struct {
	Status  map[string]bool `json:"questions_status" prompt_desc:"Each relayed question mapped to true when the traveler answered it."`
	Missing []string        `json:"missing_answers,omitempty" prompt_desc:"The questions that remain unanswered, verbatim."`
}

type confirmationDecision struct {
	trip.TravelerExtraction
	Confirmed bool `json:"confirmed" prompt_desc:"True only when the traveler explicitly confirms the summary is correct."`
}

// Intake runs the traveler side of the conversation: gather required trip
// fields, relay guide questions, and hold a confirmed profile at the end.
type Intake struct {
	Profile *trip.TravelerProfile
	Channel *chat.Channel
	Store   RecordStore
	LLM     llm.Client
	Log     *zap.Logger
}

// Collect drives the traveler conversation until the profile is complete and
// confirmed. With pending guide questions it opens by relaying them and
// verifies each one got answered before moving on. Engine failures inside a
// single step are recoverable; channel and store failures are not.
func (i *Intake) Collect(ctx context.Context, pending []string) error {
	opening := intakeGreeting
	if len(pending) > 0 {
		opening = relayMessage(pending)
	}
	if err := i.Channel.Send(opening, trip.RoleAssistant); err != nil {
		return err
	}
	if err := i.receiveAndExtract(ctx); err != nil {
		return err
	}

	for !i.Profile.Complete() {
		question := i.followUpQuestion(ctx)
		if err := i.Channel.Send(question, trip.RoleAssistant); err != nil {
			return err
		}
		if err := i.receiveAndExtract(ctx); err != nil {
			return err
		}
	}

	if len(pending) > 0 {
		if err := i.chaseAnswers(ctx, pending); err != nil {
			return err
		}
	}

	for !i.Profile.Confirmed {
		if err := i.Channel.Send(Summary(i.Profile)+intakeConfirmSuffix, trip.RoleAssistant); err != nil {
			return err
		}
		reply, err := i.Channel.Receive(ctx, "")
		if err != nil {
			return err
		}
		if err := i.processConfirmation(ctx, reply); err != nil {
			return err
		}
	}
	ack := intakeConfirmedAck
	if len(pending) > 0 {
		ack = intakeRelayAck
	}
	return i.Channel.Send(ack, trip.RoleAssistant)
}

// receiveAndExtract blocks for one traveler reply and folds whatever it adds
// into the profile. A failed extraction keeps the prior profile and lets the
// conversation continue.
func (i *Intake) receiveAndExtract(ctx context.Context) error {
	if _, err := i.Channel.Receive(ctx, ""); err != nil {
		return err
	}
	ext, ok := i.extract(ctx)
	if !ok {
		return i.Channel.Send(intakeProcessingNotice, trip.RoleAssistant)
	}
	i.Profile.Apply(ext)
	return i.Store.SaveTraveler(i.Profile)
}

func (i *Intake) extract(ctx context.Context) (trip.TravelerExtraction, bool) {
	input := map[string]any{
		"known_profile": i.Profile,
		"transcript":    i.Channel.ModelTranscript(),
	}
	p, err := prompt.Build(travelerExtractSpec, input)
	if err != nil {
		i.Log.Warn("traveler extraction prompt failed", zap.Error(err))
		return trip.TravelerExtraction{}, false
	}
	raw, err := i.LLM.GenerateJSON(ctx, p, nil)
	if err != nil {
		i.Log.Warn("traveler extraction failed, keeping prior profile", zap.Error(err))
		return trip.TravelerExtraction{}, false
	}
	var ext trip.TravelerExtraction
	if err := json.Unmarshal(raw, &ext); err != nil {
		i.Log.Warn("traveler extraction returned unusable JSON", zap.Error(err))
		return trip.TravelerExtraction{}, false
	}
	return ext, true
}

// followUpQuestion asks the engine for one conversational question covering a
// couple of the still-missing fields. On failure it falls back to a plain
// request so the loop keeps moving.
func (i *Intake) followUpQuestion(ctx context.Context) string {
	missing := i.Profile.MissingFields()
	p, err := prompt.BuildText(
		"Write one short, natural follow-up question for the traveler.",
		"A travel assistant is collecting trip requirements and some are still missing.",
		map[string]any{
			"missing_fields": missing,
			"transcript":     i.Channel.ModelTranscript(),
		},
		[]string{
			"Cover at most two of the missing fields in a single question.",
			"Stay conversational; never mention forms, fields, or schemas.",
			"Never suggest specific guides; guide contacts must come from the traveler.",
		},
	)
	if err == nil {
		question, genErr := i.LLM.GenerateText(ctx, p, nil)
		if genErr == nil && strings.TrimSpace(question) != "" {
			return strings.TrimSpace(question)
		}
		err = genErr
	}
	i.Log.Warn("follow-up question generation failed, using fallback", zap.Error(err))
	labels := make([]string, len(missing))
	for n, f := range missing {
		labels[n] = titleKey(f)
	}
	return "Could you tell me a bit more about your trip? I still need: " +
		strings.Join(labels, ", ") + "."
}

// chaseAnswers re-asks relayed guide questions until the engine marks all of
// them answered. When a round of re-asking moves nothing, the remaining
// questions are treated as unanswerable for now and the loop stops.
func (i *Intake) chaseAnswers(ctx context.Context, questions []string) error {
	var prior []string
	for {
		audit, ok := i.audit(ctx, questions)
		if !ok {
			return nil
		}
		if len(audit.Missing) == 0 {
			return nil
		}
		if equalStrings(audit.Missing, prior) {
			i.Log.Info("guide questions stalled, moving on",
				zap.Strings("unanswered", audit.Missing))
			return nil
		}
		prior = audit.Missing
		if err := i.Channel.Send(relayMessage(audit.Missing), trip.RoleAssistant); err != nil {
			return err
		}
		if err := i.receiveAndExtract(ctx); err != nil {
			return err
		}
	}
}

func (i *Intake) audit(ctx context.Context, questions []string) (questionAudit, bool) {
	input := map[string]any{
		"questions":  questions,
		"transcript": i.Channel.ModelTranscript(),
	}
	p, err := prompt.Build(questionAuditSpec, input)
	if err == nil {
		var raw json.RawMessage
		raw, err = i.LLM.GenerateJSON(ctx, p, nil)
		if err == nil {
			var audit questionAudit
			if err = json.Unmarshal(raw, &audit); err == nil {
				return audit, true
			}
		}
	}
	i.Log.Warn("question audit failed, assuming answered", zap.Error(err))
	return questionAudit{}, false
}

// processConfirmation folds corrections from the traveler's reply into the
// profile and flips the confirmation flag when they signed off.
func (i *Intake) processConfirmation(ctx context.Context, reply string) error {
	input := map[string]any{
		"profile": i.Profile,
		"reply":   reply,
	}
	p, err := prompt.Build(confirmationSpec, input)
	var dec confirmationDecision
	if err == nil {
		var raw json.RawMessage
		raw, err = i.LLM.GenerateJSON(ctx, p, nil)
		if err == nil {
			err = json.Unmarshal(raw, &dec)
		}
	}
	if err != nil {
		i.Log.Warn("confirmation processing failed", zap.Error(err))
		return i.Channel.Send(intakeProcessingNotice, trip.RoleAssistant)
	}
	i.Profile.Apply(dec.TravelerExtraction)
	i.Profile.Confirmed = dec.Confirmed
	if err := i.Store.SaveTraveler(i.Profile); err != nil {
		return err
	}
	if !dec.Confirmed {
		return i.Channel.Send("I've updated your details. Here's the new summary.", trip.RoleAssistant)
	}
	return nil
}

func relayMessage(questions []string) string {
	var b strings.Builder
	b.WriteString("The guides need a few more details before we can continue:\n")
	for _, q := range questions {
		b.WriteString("- " + q + "\n")
	}
	b.WriteString("Could you answer these for me?")
	return b.String()
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for n := range a {
		if a[n] != b[n] {
			return false
		}
	}
	return true
}

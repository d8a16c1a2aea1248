package agent

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tripnegotiator/internal/chat"
	"tripnegotiator/internal/llm"
	"tripnegotiator/internal/store"
	"tripnegotiator/internal/trip"
)

// countingStore counts guide persistence calls on top of the real store.
type countingStore struct {
	*store.Store
	guideSaves int
}

func (c *countingStore) SaveGuide(g *trip.GuideProfile) error {
	c.guideSaves++
	return c.Store.SaveGuide(g)
}

func newNegotiation(t *testing.T, st Store, fake *llm.Fake, guideReplies ...string) *Negotiation {
	t.Helper()
	traveler := completeProfile("trav")
	traveler.Confirmed = true
	require.NoError(t, st.SaveTraveler(traveler))

	profile := trip.NewGuideProfile("conv-1", "Wayan")
	require.NoError(t, st.SaveGuide(profile))

	ch, err := chat.Open(st, profile.ID, trip.RoleGuide, &chat.ScriptResponder{Replies: guideReplies}, io.Discard)
	require.NoError(t, err)
	return &Negotiation{
		TravelerID: traveler.ID,
		Profile:    profile,
		Channel:    ch,
		Store:      st,
		LLM:        fake,
		Log:        zap.NewNop(),
	}
}

func TestContact_SendsIntroductionAndWaitsForReply(t *testing.T) {
	st := newTestStore(t)
	n := newNegotiation(t, st, llm.NewFake(), "Hi! The tour is 500 total.")

	require.NoError(t, n.Contact(context.Background()))

	msgs, err := st.LoadConversation("conv-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, trip.RoleAssistant, msgs[0].Role)
	assert.Contains(t, msgs[0].Text, "surfing lessons")
	assert.Contains(t, msgs[0].Text, "Bali")
	assert.Equal(t, trip.RoleGuide, msgs[1].Role)
}

func TestContact_MissingTraveler(t *testing.T) {
	st := newTestStore(t)
	n := newNegotiation(t, st, llm.NewFake())
	n.TravelerID = "nope"

	err := n.Contact(context.Background())
	assert.ErrorIs(t, err, ErrMissingTraveler)
}

func TestProcessGuideResponse_MergesOnceAndAdvancesWatermark(t *testing.T) {
	st := &countingStore{Store: newTestStore(t)}
	fake := llm.NewFake().QueueJSON(`{"price": 450, "free_extras": ["towels"]}`)
	n := newNegotiation(t, st, fake, "450 with towels included")
	require.NoError(t, n.Contact(context.Background()))

	before := st.guideSaves
	require.NoError(t, n.ProcessGuideResponse(context.Background()))
	require.NoError(t, n.ProcessGuideResponse(context.Background()))
	require.NoError(t, n.ProcessGuideResponse(context.Background()))

	assert.Equal(t, 1, st.guideSaves-before, "same message must persist exactly once")
	require.NotNil(t, n.Profile.Price)
	assert.Equal(t, 450.0, *n.Profile.Price)
	assert.Equal(t, "450 with towels included", n.Profile.LastProcessedMessage)
}

func TestProcessGuideResponse_FailureKeepsStateAndWatermark(t *testing.T) {
	st := &countingStore{Store: newTestStore(t)}
	fake := llm.NewFake().
		QueueJSONErr(errors.New("upstream unavailable")).
		QueueJSON(`{"price": 450}`)
	n := newNegotiation(t, st, fake, "450 is my best offer")
	require.NoError(t, n.Contact(context.Background()))

	before := st.guideSaves
	require.NoError(t, n.ProcessGuideResponse(context.Background()))
	assert.Nil(t, n.Profile.Price)
	assert.Empty(t, n.Profile.LastProcessedMessage)
	assert.Equal(t, 0, st.guideSaves-before)

	// watermark untouched, so the next round retries the same message
	require.NoError(t, n.ProcessGuideResponse(context.Background()))
	require.NotNil(t, n.Profile.Price)
	assert.Equal(t, 450.0, *n.Profile.Price)
}

func TestContinueConversation_TalkToGuide(t *testing.T) {
	st := newTestStore(t)
	fake := llm.NewFake().
		QueueJSON(`{"price": 500}`).
		QueueJSON(`{"action": "talk_to_guide", "reasoning": "counter", "message": "Could you do 430?"}`)
	n := newNegotiation(t, st, fake, "The tour is 500.", "Alright, 450.")
	require.NoError(t, n.Contact(context.Background()))

	question, err := n.ContinueConversation(context.Background())
	require.NoError(t, err)
	assert.Empty(t, question)

	msgs, err := st.LoadConversation("conv-1")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "Could you do 430?", msgs[2].Text)
	assert.Equal(t, "Alright, 450.", msgs[3].Text)
	assert.Equal(t, trip.RoleGuide, msgs[3].Role)
}

func TestContinueConversation_AskTravelerReturnsQuestion(t *testing.T) {
	st := newTestStore(t)
	fake := llm.NewFake().
		QueueJSON(`{"unanswered_questions": ["What shoe size?"]}`).
		QueueJSON(`{"action": "ask_traveler", "reasoning": "only the traveler knows", "message": "What is your shoe size?"}`)
	n := newNegotiation(t, st, fake, "What shoe size does the traveler have?")
	require.NoError(t, n.Contact(context.Background()))

	question, err := n.ContinueConversation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "What is your shoe size?", question)
	assert.False(t, n.Profile.Finished())
}

func TestContinueConversation_EndClosesAndFinishes(t *testing.T) {
	st := newTestStore(t)
	fake := llm.NewFake().
		QueueJSON(`{"price": 430}`).
		QueueJSON(`{"action": "end_negotiation", "reasoning": "best price reached"}`)
	n := newNegotiation(t, st, fake, "430, final offer.")
	require.NoError(t, n.Contact(context.Background()))

	question, err := n.ContinueConversation(context.Background())
	require.NoError(t, err)
	assert.Empty(t, question)
	assert.True(t, n.Profile.Finished())

	stored, err := st.LoadGuide("conv-1")
	require.NoError(t, err)
	assert.True(t, stored.Finished())

	msgs, err := st.LoadConversation("conv-1")
	require.NoError(t, err)
	assert.Equal(t, negotiationClosing, msgs[len(msgs)-1].Text)
}

func TestContinueConversation_InvalidDecisions(t *testing.T) {
	cases := []struct {
		name     string
		decision string
	}{
		{"missing message for talk_to_guide", `{"action": "talk_to_guide"}`},
		{"missing message for ask_traveler", `{"action": "ask_traveler"}`},
		{"unknown action", `{"action": "escalate"}`},
		{"no action at all", `{"reasoning": "unsure"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newTestStore(t)
			fake := llm.NewFake().
				QueueJSON(`{}`).
				QueueJSON(tc.decision)
			n := newNegotiation(t, st, fake, "hello")
			require.NoError(t, n.Contact(context.Background()))

			_, err := n.ContinueConversation(context.Background())
			assert.ErrorIs(t, err, ErrInvalidDecision)
		})
	}
}

func TestContinueConversation_DecisionTransportFailureIsFatal(t *testing.T) {
	st := newTestStore(t)
	boom := errors.New("upstream unavailable")
	fake := llm.NewFake().
		QueueJSON(`{}`).
		QueueJSONErr(boom)
	n := newNegotiation(t, st, fake, "hello")
	require.NoError(t, n.Contact(context.Background()))

	_, err := n.ContinueConversation(context.Background())
	assert.ErrorIs(t, err, boom)
}

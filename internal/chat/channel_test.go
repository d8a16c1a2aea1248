package chat

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripnegotiator/internal/trip"
)

// memStore counts saves so tests can assert persistence behavior.
type memStore struct {
	conversations map[string][]trip.Message
	saves         int
}

func newMemStore() *memStore {
	return &memStore{conversations: map[string][]trip.Message{}}
}

func (m *memStore) SaveConversation(id string, msgs []trip.Message) error {
	cp := make([]trip.Message, len(msgs))
	copy(cp, msgs)
	m.conversations[id] = cp
	m.saves++
	return nil
}

func (m *memStore) LoadConversation(id string) ([]trip.Message, error) {
	return m.conversations[id], nil
}

func TestSendAppendsAndPersists(t *testing.T) {
	st := newMemStore()
	var out bytes.Buffer
	ch, err := Open(st, "c-1", trip.RoleTraveler, nil, &out)
	require.NoError(t, err)

	require.NoError(t, ch.Send("hello", trip.RoleAssistant))
	require.NoError(t, ch.Send("hi there", trip.RoleGuide))

	assert.Equal(t, 2, st.saves)
	assert.Len(t, st.conversations["c-1"], 2)
	assert.Contains(t, out.String(), "hello")
	assert.Contains(t, out.String(), "[guide] hi there")
}

func TestReceiveUsesResponderAndTagsRole(t *testing.T) {
	st := newMemStore()
	ch, err := Open(st, "c-1", trip.RoleTraveler, &ScriptResponder{Replies: []string{"I want to hike"}}, nil)
	require.NoError(t, err)

	reply, err := ch.Receive(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "I want to hike", reply)

	last, ok := ch.Last()
	require.True(t, ok)
	assert.Equal(t, trip.RoleTraveler, last.Role)
}

func TestOpenResumesExistingTranscript(t *testing.T) {
	st := newMemStore()
	st.conversations["c-1"] = []trip.Message{{Role: trip.RoleAssistant, Text: "earlier"}}

	ch, err := Open(st, "c-1", trip.RoleTraveler, nil, nil)
	require.NoError(t, err)
	require.Len(t, ch.History(), 1)
	require.NoError(t, ch.Send("again", trip.RoleAssistant))
	assert.Len(t, st.conversations["c-1"], 2)
}

func TestModelTranscript_GuideContextFraming(t *testing.T) {
	msgs := []trip.Message{
		{Role: trip.RoleAssistant, Text: "opening inquiry"},
		{Role: trip.RoleGuide, Text: "first offer"},
		{Role: trip.RoleAssistant, Text: "counter"},
		{Role: trip.RoleGuide, Text: "final offer"},
	}
	got := ModelTranscript(msgs)

	// Earlier guide entries are contextual background.
	assert.Contains(t, got, `[context] the guide previously said: "first offer"`)
	// The newest guide entry stays unwrapped.
	assert.Contains(t, got, "guide: final offer")
	assert.NotContains(t, got, `[context] the guide previously said: "final offer"`)
}

func TestModelTranscript_NoGuideEntries(t *testing.T) {
	msgs := []trip.Message{
		{Role: trip.RoleAssistant, Text: "what do you want to do?"},
		{Role: trip.RoleTraveler, Text: "climb a volcano"},
	}
	got := ModelTranscript(msgs)
	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "assistant: what do you want to do?", lines[0])
	assert.Equal(t, "traveler: climb a volcano", lines[1])
}

func TestHistoryIsACopy(t *testing.T) {
	st := newMemStore()
	ch, err := Open(st, "c-1", trip.RoleTraveler, nil, nil)
	require.NoError(t, err)
	require.NoError(t, ch.Send("hello", trip.RoleAssistant))

	h := ch.History()
	h[0].Text = "tampered"
	fresh := ch.History()
	assert.Equal(t, "hello", fresh[0].Text)
}

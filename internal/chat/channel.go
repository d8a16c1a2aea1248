// Package chat is the conversation channel: an append-only transcript keyed
// by a conversation id, persisted through the record store after every
// append, with a pluggable counterpart (interactive or simulated) on the
// receive side.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"tripnegotiator/internal/trip"
)

// TranscriptStore is the slice of the record store a channel needs.
type TranscriptStore interface {
	SaveConversation(id string, msgs []trip.Message) error
	LoadConversation(id string) ([]trip.Message, error)
}

// Responder produces the counterpart's next reply given the transcript so
// far. The interactive CLI and the LLM-backed simulators both satisfy it,
// so state machines never know which one they are talking to.
type Responder interface {
	Reply(ctx context.Context, history []trip.Message) (string, error)
}

// Channel is one conversation. The owning state machine is the sole writer
// for the channel's lifetime.
type Channel struct {
	id          string
	store       TranscriptStore
	out         io.Writer
	responder   Responder
	receiveRole trip.Role
	msgs        []trip.Message
}

// Open loads any existing transcript for id and returns a channel whose
// received messages are tagged with receiveRole.
func Open(store TranscriptStore, id string, receiveRole trip.Role, responder Responder, out io.Writer) (*Channel, error) {
	if store == nil {
		return nil, errors.New("chat: nil transcript store")
	}
	if id == "" {
		return nil, errors.New("chat: empty conversation id")
	}
	msgs, err := store.LoadConversation(id)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = io.Discard
	}
	return &Channel{
		id:          id,
		store:       store,
		out:         out,
		responder:   responder,
		receiveRole: receiveRole,
		msgs:        msgs,
	}, nil
}

func (c *Channel) ID() string { return c.id }

// Send appends an entry, persists the transcript, and displays the text.
func (c *Channel) Send(text string, role trip.Role) error {
	c.msgs = append(c.msgs, trip.Message{Role: role, Text: text})
	if err := c.store.SaveConversation(c.id, c.msgs); err != nil {
		return err
	}
	if role == trip.RoleAssistant {
		fmt.Fprintln(c.out, text)
	} else {
		fmt.Fprintf(c.out, "[%s] %s\n", role, text)
	}
	return nil
}

// Receive blocks for one counterpart reply, appends it with the channel's
// receive role, and persists.
func (c *Channel) Receive(ctx context.Context, prompt string) (string, error) {
	if c.responder == nil {
		return "", errors.New("chat: channel has no responder")
	}
	if prompt != "" {
		fmt.Fprint(c.out, prompt)
	}
	reply, err := c.responder.Reply(ctx, c.History())
	if err != nil {
		return "", err
	}
	c.msgs = append(c.msgs, trip.Message{Role: c.receiveRole, Text: reply})
	if err := c.store.SaveConversation(c.id, c.msgs); err != nil {
		return "", err
	}
	return reply, nil
}

// History returns a copy of the transcript in append order.
func (c *Channel) History() []trip.Message {
	out := make([]trip.Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

// Last returns the newest entry, if any.
func (c *Channel) Last() (trip.Message, bool) {
	if len(c.msgs) == 0 {
		return trip.Message{}, false
	}
	return c.msgs[len(c.msgs)-1], true
}

// ModelTranscript renders the transcript for the decision engine. Guide
// entries are wrapped as contextual background so the engine does not treat
// them as directives; the most recent guide entry is deliberately left out
// of that framing to avoid doubling its content at generation time.
func (c *Channel) ModelTranscript() string {
	return ModelTranscript(c.msgs)
}

func ModelTranscript(msgs []trip.Message) string {
	lastGuide := -1
	for i, m := range msgs {
		if m.Role == trip.RoleGuide {
			lastGuide = i
		}
	}
	var b strings.Builder
	for i, m := range msgs {
		if m.Role == trip.RoleGuide && i != lastGuide {
			fmt.Fprintf(&b, "[context] the guide previously said: %q\n", m.Text)
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Text)
	}
	return b.String()
}

package agent

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tripnegotiator/internal/chat"
	"tripnegotiator/internal/llm"
	"tripnegotiator/internal/trip"
)

// Store is the full persistence surface the coordinator needs: profile
// records plus conversation transcripts.
type Store interface {
	RecordStore
	chat.TranscriptStore
}

// GuideResponderFactory builds the counterpart responder for one guide
// conversation. Simulated runs return an engine-backed guide persona; live
// runs would return whatever carries the real guide's replies.
type GuideResponderFactory func(conversationID, guideName string) chat.Responder

// Coordinator runs one traveler against all their guide contacts: intake
// first, then parallel negotiations advanced round-robin until every guide
// is finished or the traveler's deadline passes.
type Coordinator struct {
	Store Store
	LLM   llm.Client
	Log   *zap.Logger
	Out   io.Writer

	TravelerResponder chat.Responder
	GuideResponders   GuideResponderFactory

	// SkipCollect resumes a previously stored traveler instead of opening a
	// fresh intake conversation. TravelerID names the profile to resume.
	SkipCollect bool
	TravelerID  string

	// Now and NewID are injectable for tests; nil means the real thing.
	Now   func() time.Time
	NewID func() string
}

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Coordinator) newID() string {
	if c.NewID != nil {
		return c.NewID()
	}
	return uuid.NewString()
}

// Run executes the whole negotiation lifecycle. It returns once every guide
// negotiation has finished or the traveler's deadline has passed; any store,
// channel, or decision failure aborts the run.
func (c *Coordinator) Run(ctx context.Context) error {
	traveler, err := c.traveler()
	if err != nil {
		return err
	}
	travelerCh, err := chat.Open(c.Store, traveler.ID, trip.RoleTraveler, c.TravelerResponder, c.Out)
	if err != nil {
		return err
	}
	intake := &Intake{
		Profile: traveler,
		Channel: travelerCh,
		Store:   c.Store,
		LLM:     c.LLM,
		Log:     c.Log,
	}
	if !traveler.Confirmed {
		if err := intake.Collect(ctx, nil); err != nil {
			return err
		}
	}
	if len(traveler.GuideContacts) == 0 {
		return fmt.Errorf("%w: %s", ErrNoGuideContacts, traveler.ID)
	}

	negotiations, err := c.spawn(traveler)
	if err != nil {
		return err
	}
	for _, n := range negotiations {
		if err := n.Contact(ctx); err != nil {
			return err
		}
	}

	for round := 1; ; round++ {
		done, err := c.allFinished(negotiations)
		if err != nil {
			return err
		}
		if done {
			c.Log.Info("all negotiations finished", zap.Int("rounds", round-1))
			return nil
		}
		if deadline, ok := traveler.DeadlineTime(); ok && c.now().After(deadline) {
			c.Log.Info("negotiation deadline passed",
				zap.Time("deadline", deadline), zap.Int("rounds", round-1))
			return nil
		}

		var batch []string
		for _, n := range negotiations {
			if n.Profile.Finished() {
				continue
			}
			question, err := n.ContinueConversation(ctx)
			if err != nil {
				return err
			}
			if question != "" {
				batch = append(batch, question)
			}
		}
		if len(batch) > 0 {
			if err := intake.Collect(ctx, batch); err != nil {
				return err
			}
		}
	}
}

func (c *Coordinator) traveler() (*trip.TravelerProfile, error) {
	if c.SkipCollect {
		t, err := c.Store.LoadTraveler(c.TravelerID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingTraveler, c.TravelerID)
		}
		c.Log.Info("resuming stored traveler", zap.String("traveler", t.ID))
		return t, nil
	}
	t := trip.NewTravelerProfile(c.newID())
	c.Log.Info("starting fresh traveler intake", zap.String("traveler", t.ID))
	return t, nil
}

// spawn creates one negotiation per guide contact, in stable name order so
// runs are reproducible.
func (c *Coordinator) spawn(traveler *trip.TravelerProfile) ([]*Negotiation, error) {
	var negotiations []*Negotiation
	for _, name := range sortedKeys(traveler.GuideContacts) {
		profile := trip.NewGuideProfile(c.newID(), name)
		if err := c.Store.SaveGuide(profile); err != nil {
			return nil, err
		}
		ch, err := chat.Open(c.Store, profile.ID, trip.RoleGuide, c.GuideResponders(profile.ID, name), c.Out)
		if err != nil {
			return nil, err
		}
		c.Log.Info("negotiation spawned",
			zap.String("guide", name), zap.String("conversation", profile.ID))
		negotiations = append(negotiations, &Negotiation{
			TravelerID: traveler.ID,
			Profile:    profile,
			Channel:    ch,
			Store:      c.Store,
			LLM:        c.LLM,
			Log:        c.Log,
		})
	}
	return negotiations, nil
}

// allFinished reloads the guide records this run spawned and reports whether
// every one has finished. Records left behind by an earlier interrupted run
// never gate termination.
func (c *Coordinator) allFinished(negotiations []*Negotiation) (bool, error) {
	done := true
	for _, n := range negotiations {
		g, err := c.Store.LoadGuide(n.Profile.ID)
		if err != nil {
			return false, err
		}
		if !g.Finished() {
			done = false
		}
	}
	return done, nil
}

// Package agent holds the negotiation core: the traveler-intake state
// machine, one negotiation state machine per guide, and the coordinator
// that ties one traveler to N guides.
package agent

import (
	"errors"

	"tripnegotiator/internal/trip"
)

// RecordStore is the slice of the record store the state machines depend on.
type RecordStore interface {
	SaveTraveler(p *trip.TravelerProfile) error
	LoadTraveler(id string) (*trip.TravelerProfile, error)
	SaveGuide(g *trip.GuideProfile) error
	LoadGuide(id string) (*trip.GuideProfile, error)
	LoadAllGuides() ([]*trip.GuideProfile, error)
}

var (
	// ErrInvalidDecision reports a continue-conversation decision that is
	// missing its action or a message the action depends on. Guessing here
	// risks silent message loss, so the round fails instead.
	ErrInvalidDecision = errors.New("agent: could not determine next negotiation action")

	// ErrMissingTraveler reports an absent traveler profile where one is
	// required.
	ErrMissingTraveler = errors.New("agent: traveler profile not found")

	// ErrNoGuideContacts reports a confirmed traveler profile without any
	// guide to negotiate with.
	ErrNoGuideContacts = errors.New("agent: traveler profile has no guide contacts")
)

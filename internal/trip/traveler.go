package trip

import (
	"strings"
	"time"
)

// TravelerProfile is the structured record of known facts about the traveler.
// Scalar fields are pointers so that "unset" is distinguishable from a zero
// value; an extraction result never erases a known value.
type TravelerProfile struct {
	ID                  string            `json:"id"`
	Activity            *string           `json:"activity,omitempty"`
	Location            *string           `json:"location,omitempty"`
	StartTime           *string           `json:"start_time,omitempty"`
	NegotiationDeadline *string           `json:"negotiation_deadline,omitempty"`
	Participants        *int              `json:"participants,omitempty"`
	Budget              *float64          `json:"budget,omitempty"`
	GuideContacts       map[string]string `json:"guide_contacts,omitempty"`
	Preferences         map[string]any    `json:"preferences,omitempty"`
	AdditionalInfo      map[string]any    `json:"additional_info,omitempty"`
	Confirmed           bool              `json:"confirmed"`
}

func NewTravelerProfile(id string) *TravelerProfile {
	return &TravelerProfile{
		ID:             id,
		GuideContacts:  map[string]string{},
		Preferences:    map[string]any{},
		AdditionalInfo: map[string]any{},
	}
}

// TravelerExtraction is the decision-engine result for the traveler
// extraction call site. Every member is optional; an absent field means
// "no new information", never "clear the field".
type TravelerExtraction struct {
	Activity            *string           `json:"activity,omitempty" prompt_desc:"The activity the traveler wants to do (e.g. 'Climb Mt Agung at sunrise')."`
	Location            *string           `json:"location,omitempty" prompt_desc:"Where the activity takes place (e.g. 'Mount Agung, Bali')."`
	StartTime           *string           `json:"start_time,omitempty" prompt_desc:"When the activity starts, ISO format with timezone if possible."`
	NegotiationDeadline *string           `json:"negotiation_deadline,omitempty" prompt_desc:"Deadline for completing negotiations, ISO format with timezone if possible."`
	Participants        *int              `json:"participants,omitempty" prompt_desc:"Number of people participating."`
	Budget              *float64          `json:"budget,omitempty" prompt_desc:"Maximum budget for the activity."`
	GuideContacts       map[string]string `json:"guide_contacts,omitempty" prompt_desc:"Guide names mapped to contact details, provided by the traveler. Never suggest guides."`
	Preferences         map[string]any    `json:"preferences,omitempty" prompt_desc:"Traveler preferences such as price_vs_value ('lowest_price' or 'best_value')."`
	AdditionalInfo      map[string]any    `json:"additional_info,omitempty" prompt_desc:"Ancillary facts, e.g. names_of_people_traveling, or answers to guide questions."`
}

// Apply merges an extraction result into the profile. The ID and the
// confirmation flag are never touched here; Preferences and GuideContacts
// merge key-by-key, the other fields overwrite only when a non-nil value
// was extracted.
func (p *TravelerProfile) Apply(ext TravelerExtraction) {
	if ext.Activity != nil {
		p.Activity = ext.Activity
	}
	if ext.Location != nil {
		p.Location = ext.Location
	}
	if ext.StartTime != nil {
		p.StartTime = ext.StartTime
	}
	if ext.NegotiationDeadline != nil {
		p.NegotiationDeadline = ext.NegotiationDeadline
	}
	if ext.Participants != nil {
		p.Participants = ext.Participants
	}
	if ext.Budget != nil {
		p.Budget = ext.Budget
	}
	if len(ext.GuideContacts) > 0 {
		if p.GuideContacts == nil {
			p.GuideContacts = map[string]string{}
		}
		for name, contact := range ext.GuideContacts {
			p.GuideContacts[name] = contact
		}
	}
	if len(ext.Preferences) > 0 {
		if p.Preferences == nil {
			p.Preferences = map[string]any{}
		}
		for k, v := range ext.Preferences {
			p.Preferences[k] = v
		}
	}
	if len(ext.AdditionalInfo) > 0 {
		if p.AdditionalInfo == nil {
			p.AdditionalInfo = map[string]any{}
		}
		for k, v := range ext.AdditionalInfo {
			p.AdditionalInfo[k] = v
		}
	}
}

// Complete reports whether every required intake field is present.
// The confirmation flag is excluded; it is set through the confirmation
// conversation, not through extraction.
func (p *TravelerProfile) Complete() bool {
	return p.Activity != nil &&
		p.Location != nil &&
		p.StartTime != nil &&
		p.NegotiationDeadline != nil &&
		p.Participants != nil &&
		p.Budget != nil &&
		len(p.GuideContacts) > 0
}

// MissingFields lists the required fields that are still unset, in a fixed
// order, using the wire names the decision engine knows.
func (p *TravelerProfile) MissingFields() []string {
	var missing []string
	if p.Activity == nil {
		missing = append(missing, "activity")
	}
	if p.Location == nil {
		missing = append(missing, "location")
	}
	if p.StartTime == nil {
		missing = append(missing, "start_time")
	}
	if p.NegotiationDeadline == nil {
		missing = append(missing, "negotiation_deadline")
	}
	if p.Participants == nil {
		missing = append(missing, "participants")
	}
	if p.Budget == nil {
		missing = append(missing, "budget")
	}
	if len(p.GuideContacts) == 0 {
		missing = append(missing, "guide_contacts")
	}
	return missing
}

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// DeadlineTime parses the negotiation deadline. Unset or unparseable
// deadlines report false and are treated as "no deadline".
func (p *TravelerProfile) DeadlineTime() (time.Time, bool) {
	if p.NegotiationDeadline == nil {
		return time.Time{}, false
	}
	raw := strings.TrimSpace(*p.NegotiationDeadline)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

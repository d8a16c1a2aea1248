package trip

// NegotiationStatus tracks one guide negotiation. The transition
// ongoing -> finished is one-way.
type NegotiationStatus string

const (
	StatusOngoing  NegotiationStatus = "ongoing"
	StatusFinished NegotiationStatus = "finished"
)

// GuideProfile is the structured record of known facts about one guide
// negotiation. Its ID doubles as the conversation identifier.
type GuideProfile struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name"`
	Price                *float64           `json:"price,omitempty"`
	StartingLocation     *string            `json:"starting_location,omitempty"`
	StartingTime         *string            `json:"starting_time,omitempty"`
	TripDescription      *string            `json:"trip_description,omitempty"`
	PaidExtras           map[string]float64 `json:"paid_extras,omitempty"`
	FreeExtras           []string           `json:"free_extras,omitempty"`
	LastProcessedMessage string             `json:"last_processed_message,omitempty"`
	UnansweredQuestions  []string           `json:"unanswered_questions,omitempty"`
	Status               NegotiationStatus  `json:"negotiation_status"`
}

func NewGuideProfile(id, name string) *GuideProfile {
	return &GuideProfile{
		ID:         id,
		Name:       name,
		PaidExtras: map[string]float64{},
		Status:     StatusOngoing,
	}
}

// Clone returns a deep copy. Mutating the copy's maps or lists never
// reaches the original.
func (g *GuideProfile) Clone() *GuideProfile {
	out := *g
	if g.PaidExtras != nil {
		out.PaidExtras = make(map[string]float64, len(g.PaidExtras))
		for name, price := range g.PaidExtras {
			out.PaidExtras[name] = price
		}
	}
	out.FreeExtras = append([]string(nil), g.FreeExtras...)
	out.UnansweredQuestions = append([]string(nil), g.UnansweredQuestions...)
	return &out
}

// GuideExtraction is the decision-engine result for the guide extraction
// call site. Absent fields mean "no new information".
type GuideExtraction struct {
	Price               *float64           `json:"price,omitempty" prompt_desc:"Most recent total price quoted by the guide, as a plain number."`
	StartingLocation    *string            `json:"starting_location,omitempty" prompt_desc:"Where the guide's trip starts."`
	StartingTime        *string            `json:"starting_time,omitempty" prompt_desc:"When the guide's trip starts, ISO format if possible."`
	TripDescription     *string            `json:"trip_description,omitempty" prompt_desc:"Short description of the trip the guide is offering."`
	PaidExtras          map[string]float64 `json:"paid_extras,omitempty" prompt_desc:"Extra paid services mapped to their prices."`
	FreeExtras          []string           `json:"free_extras,omitempty" prompt_desc:"Services included for free."`
	UnansweredQuestions []string           `json:"unanswered_questions,omitempty" prompt_desc:"Open questions the guide asked that still need traveler input. Return an empty list when all have been answered."`
}

// Apply merges an extraction pass into the profile under the monotonic
// policy: scalars overwrite only on a non-nil value, PaidExtras merges
// additively, FreeExtras is wholesale-replaced only by a non-empty list,
// and UnansweredQuestions is wholesale-replaced whenever the extraction
// reports the field at all (an explicit empty list clears it).
func (g *GuideProfile) Apply(ext GuideExtraction) {
	if ext.Price != nil {
		g.Price = ext.Price
	}
	if ext.StartingLocation != nil {
		g.StartingLocation = ext.StartingLocation
	}
	if ext.StartingTime != nil {
		g.StartingTime = ext.StartingTime
	}
	if ext.TripDescription != nil {
		g.TripDescription = ext.TripDescription
	}
	if len(ext.PaidExtras) > 0 {
		if g.PaidExtras == nil {
			g.PaidExtras = map[string]float64{}
		}
		for name, price := range ext.PaidExtras {
			g.PaidExtras[name] = price
		}
	}
	if len(ext.FreeExtras) > 0 {
		g.FreeExtras = ext.FreeExtras
	}
	if ext.UnansweredQuestions != nil {
		g.UnansweredQuestions = ext.UnansweredQuestions
	}
}

// Finish marks the negotiation finished. Finished is absorbing; calling
// Finish again is a no-op.
func (g *GuideProfile) Finish() {
	g.Status = StatusFinished
}

func (g *GuideProfile) Finished() bool {
	return g.Status == StatusFinished
}

package trip

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleTraveler  Role = "traveler"
	RoleGuide     Role = "guide"
)

// Message is one transcript entry. Transcripts are append-only; the slice
// order is the sole timeline of record.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

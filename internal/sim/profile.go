package sim

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultProfile is the built-in traveler persona used when no simulation
// profile file is configured.
func DefaultProfile() map[string]any {
	return map[string]any{
		"activity":             "surfing lessons for beginners",
		"location":             "Canggu, Bali",
		"start_time":           "2026-10-12",
		"negotiation_deadline": "2026-09-30",
		"participants":         2,
		"budget":               450,
		"guide_contacts":       "Wayan (wayan@balisurf.example), Made (made@islandtours.example)",
		"notes":                "one participant is a complete beginner and needs a soft-top board",
	}
}

// LoadProfile reads a traveler persona from a JSON file of key/value facts.
func LoadProfile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sim: read profile: %w", err)
	}
	var profile map[string]any
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("sim: parse profile %s: %w", path, err)
	}
	return profile, nil
}

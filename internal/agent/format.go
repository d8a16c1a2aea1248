package agent

import (
	"fmt"
	"sort"
	"strings"

	"tripnegotiator/internal/trip"
)

const notSpecified = "Not specified"

// Summary renders a traveler profile as the confirmation summary shown to
// the traveler. Internal bookkeeping (id, confirmation flag) stays out.
func Summary(p *trip.TravelerProfile) string {
	var b strings.Builder
	b.WriteString("Here is what I have so far:\n")
	writeLine(&b, "Activity", strOrFallback(p.Activity))
	writeLine(&b, "Location", strOrFallback(p.Location))
	writeLine(&b, "Start time", strOrFallback(p.StartTime))
	writeLine(&b, "Negotiation deadline", strOrFallback(p.NegotiationDeadline))
	if p.Participants != nil {
		writeLine(&b, "Participants", fmt.Sprintf("%d", *p.Participants))
	} else {
		writeLine(&b, "Participants", notSpecified)
	}
	if p.Budget != nil {
		writeLine(&b, "Budget", fmt.Sprintf("%.2f", *p.Budget))
	} else {
		writeLine(&b, "Budget", notSpecified)
	}

	if len(p.GuideContacts) > 0 {
		b.WriteString("Guide contacts:\n")
		for _, name := range sortedKeys(p.GuideContacts) {
			fmt.Fprintf(&b, "  - %s: %s\n", name, p.GuideContacts[name])
		}
	}
	if len(p.Preferences) > 0 {
		b.WriteString("Preferences:\n")
		writeAnyMap(&b, p.Preferences)
	}
	if len(p.AdditionalInfo) > 0 {
		b.WriteString("Additional information:\n")
		writeAnyMap(&b, p.AdditionalInfo)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeLine(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}

func writeAnyMap[V any](b *strings.Builder, m map[string]V) {
	for _, k := range sortedKeys(m) {
		fmt.Fprintf(b, "  - %s: %v\n", titleKey(k), m[k])
	}
}

func strOrFallback(s *string) string {
	if s == nil || *s == "" {
		return notSpecified
	}
	return *s
}

// titleKey turns a snake_case profile key into a readable label.
func titleKey(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package prompt

// Preset holds reusable constraints and rules for structured prompts.
type Preset struct {
	Constraints []string
	Rules       []string
}

// ApplyPresets prepends preset constraints/rules to a spec.
func ApplyPresets(spec StructuredSpec, presets ...Preset) StructuredSpec {
	if len(presets) == 0 {
		return spec
	}
	var merged Preset
	for _, p := range presets {
		merged.Constraints = append(merged.Constraints, p.Constraints...)
		merged.Rules = append(merged.Rules, p.Rules...)
	}
	spec.Constraints = append(merged.Constraints, spec.Constraints...)
	spec.Rules = append(merged.Rules, spec.Rules...)
	return spec
}

// PresetStrictJSON enforces strict JSON-only output.
func PresetStrictJSON() Preset {
	return Preset{
		Constraints: []string{
			"Return strict JSON only.",
			"Match the schema exactly; no extra fields.",
			"No markdown, comments, or trailing commas.",
		},
	}
}

// PresetNoInvent keeps extractions anchored to the conversation.
func PresetNoInvent() Preset {
	return Preset{
		Constraints: []string{
			"Do not invent facts; report only what the conversation supports.",
			"Omit a field entirely when the conversation adds nothing new for it.",
		},
	}
}

// PresetCautious encourages explicit uncertainty over guessing.
func PresetCautious() Preset {
	return Preset{
		Rules: []string{
			"Avoid guessing; when unsure, leave optional fields absent.",
		},
	}
}

package prompt

import (
	"strings"
	"testing"
)

func TestBuild_RendersSections(t *testing.T) {
	spec := StructuredSpec{
		Purpose:      "Extract trip facts.",
		Background:   "Intake conversation.",
		OutputFormat: "JSON only.",
		OutputFields: []Field{
			{Name: "activity", Type: "string", Required: false, Description: "What they want to do."},
			{Name: "budget", Type: "number", Required: false},
		},
		Constraints: []string{"No markdown."},
		Rules:       []string{"Be concise."},
		Assumptions: []string{"Absent fields mean no new information."},
	}

	out, err := Build(spec, map[string]any{"transcript": "traveler: hi"})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	for _, sec := range []string{
		"[PURPOSE]", "[BACKGROUND]", "[INPUT]", "[OUTPUT]",
		"[CONSTRAINTS]", "[RULES]", "[ASSUMPTIONS]", "[OUTPUT_FORMAT]",
	} {
		if !strings.Contains(out, sec) {
			t.Fatalf("expected section %s in prompt", sec)
		}
	}
	if !strings.Contains(out, "- activity (string, optional): What they want to do.") {
		t.Fatalf("field line missing:\n%s", out)
	}
}

func TestBuild_RequiresPurposeAndFields(t *testing.T) {
	_, err := Build(StructuredSpec{OutputFields: []Field{{Name: "x", Type: "string"}}}, nil)
	if err == nil || !strings.Contains(err.Error(), "purpose") {
		t.Fatalf("expected purpose error, got %v", err)
	}
	_, err = Build(StructuredSpec{Purpose: "x"}, nil)
	if err == nil || !strings.Contains(err.Error(), "output fields") {
		t.Fatalf("expected output fields error, got %v", err)
	}
}

func TestApplyPresets_Prepends(t *testing.T) {
	spec := StructuredSpec{
		Purpose:      "x",
		OutputFields: []Field{{Name: "y", Type: "string"}},
		Constraints:  []string{"spec-constraint"},
	}
	applied := ApplyPresets(spec, Preset{Constraints: []string{"preset-constraint"}})
	if applied.Constraints[0] != "preset-constraint" || applied.Constraints[1] != "spec-constraint" {
		t.Fatalf("unexpected constraint order: %+v", applied.Constraints)
	}
}

func TestFieldsFromStruct(t *testing.T) {
	type sample struct {
		Action  string   `json:"action" prompt_desc:"One of the allowed actions."`
		Message *string  `json:"message,omitempty" prompt_desc:"Message text when the action needs one."`
		Prices  []string `json:"prices,omitempty"`
		Skipped string   `json:"-"`
	}
	fields, err := FieldsFromStruct(sample{})
	if err != nil {
		t.Fatalf("FieldsFromStruct error: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d: %+v", len(fields), fields)
	}
	if !fields[0].Required || fields[0].Name != "action" {
		t.Fatalf("action should be required: %+v", fields[0])
	}
	if fields[1].Required || fields[1].Type != "string" {
		t.Fatalf("message should be an optional string: %+v", fields[1])
	}
	if fields[2].Type != "[]string" {
		t.Fatalf("prices type: %+v", fields[2])
	}
}

func TestBuildText(t *testing.T) {
	out, err := BuildText("Ask a follow-up question.", "", map[string]any{"missing": []string{"budget"}}, []string{"Ask for 1-2 fields."})
	if err != nil {
		t.Fatalf("BuildText error: %v", err)
	}
	if strings.Contains(out, "[OUTPUT]") {
		t.Fatalf("free-text prompt must not carry an output schema:\n%s", out)
	}
	if !strings.Contains(out, "budget") {
		t.Fatalf("input missing from prompt:\n%s", out)
	}
}

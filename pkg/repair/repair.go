package repair

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/aretw0/beatpilot/pkg/domain"
)

// Stage names, in the order they are attempted.
const (
	StageNormalized  = "normalized"
	StagePunctuation = "punctuation"
	StageExtracted   = "extracted"
	StageFields      = "fields"
	StageFallback    = "fallback"
)

// Stage is one attempt of the pipeline. Attempt reports false when the stage
// could not produce a valid result and the next stage should run.
type Stage struct {
	Name    string
	Attempt func(raw string) (domain.SuggestionResult, bool)
}

var pipeline = []Stage{
	{Name: StageNormalized, Attempt: func(raw string) (domain.SuggestionResult, bool) {
		return parse(normalizeWhitespace(raw))
	}},
	{Name: StagePunctuation, Attempt: func(raw string) (domain.SuggestionResult, bool) {
		return parse(repairPunctuation(normalizeWhitespace(raw)))
	}},
	{Name: StageExtracted, Attempt: func(raw string) (domain.SuggestionResult, bool) {
		candidate, ok := extractObject(repairPunctuation(normalizeWhitespace(raw)))
		if !ok {
			return domain.SuggestionResult{}, false
		}
		return parse(candidate)
	}},
	{Name: StageFields, Attempt: extractFields},
	{Name: StageFallback, Attempt: func(string) (domain.SuggestionResult, bool) {
		return Fallback(), true
	}},
}

// Stages returns the pipeline in execution order.
func Stages() []Stage {
	out := make([]Stage, len(pipeline))
	copy(out, pipeline)
	return out
}

// Repair returns a valid SuggestionResult for any input. It never fails.
func Repair(raw string) domain.SuggestionResult {
	result, _ := RepairWithStage(raw)
	return result
}

// RepairWithStage is Repair that also reports which stage produced the result.
func RepairWithStage(raw string) (domain.SuggestionResult, string) {
	for _, stage := range pipeline {
		if result, ok := stage.Attempt(raw); ok {
			return result, stage.Name
		}
	}
	return Fallback(), StageFallback
}

// Fallback returns the constant suggestion set used when nothing usable can be recovered.
// Each call returns a fresh copy.
func Fallback() domain.SuggestionResult {
	return domain.SuggestionResult{
		Suggestions: []string{
			"Sandstorm - Darude (128 BPM)",
			"Levels - Avicii (126 BPM)",
			"Animals - Martin Garrix (128 BPM)",
		},
		TransitionPlan: "Gradually increase energy while maintaining the current BPM range. Use a 16-bar phrase to mix in the new track.",
	}
}

var (
	trailingComma = regexp.MustCompile(`,\s*([\]}])`)
	colonSpacing  = regexp.MustCompile(`\s*:\s*`)
	commaSpacing  = regexp.MustCompile(`\s*,\s*`)

	suggestionsField = regexp.MustCompile(`(?s)"suggestions"\s*:\s*\[(.*?)\]`)
	transitionField  = regexp.MustCompile(`"transition_plan"\s*:\s*"([^"]+)"`)
)

// normalizeWhitespace collapses line breaks and runs of whitespace into single spaces.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func repairPunctuation(s string) string {
	s = colonSpacing.ReplaceAllString(s, ": ")
	s = commaSpacing.ReplaceAllString(s, ", ")
	return trailingComma.ReplaceAllString(s, "$1")
}

func extractObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

type payload struct {
	Suggestions    []string `json:"suggestions"`
	TransitionPlan *string  `json:"transition_plan"`
}

func parse(candidate string) (domain.SuggestionResult, bool) {
	var p payload
	if err := json.Unmarshal([]byte(candidate), &p); err != nil {
		return domain.SuggestionResult{}, false
	}
	if p.TransitionPlan == nil {
		return domain.SuggestionResult{}, false
	}
	return validate(p.Suggestions, *p.TransitionPlan)
}

func extractFields(raw string) (domain.SuggestionResult, bool) {
	suggestions := suggestionsField.FindStringSubmatch(raw)
	transition := transitionField.FindStringSubmatch(raw)
	if suggestions == nil || transition == nil {
		return domain.SuggestionResult{}, false
	}

	tokens := strings.Split(suggestions[1], ",")
	for i, tok := range tokens {
		tokens[i] = strings.ReplaceAll(tok, `"`, "")
	}
	return validate(tokens, transition[1])
}

// validate keeps the first SuggestionCount non-empty labels. Fewer than that,
// or an empty plan, rejects the candidate.
func validate(suggestions []string, plan string) (domain.SuggestionResult, bool) {
	cleaned := make([]string, 0, domain.SuggestionCount)
	for _, s := range suggestions {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		cleaned = append(cleaned, s)
		if len(cleaned) == domain.SuggestionCount {
			break
		}
	}

	plan = strings.TrimSpace(plan)
	if len(cleaned) < domain.SuggestionCount || plan == "" {
		return domain.SuggestionResult{}, false
	}
	return domain.SuggestionResult{Suggestions: cleaned, TransitionPlan: plan}, true
}

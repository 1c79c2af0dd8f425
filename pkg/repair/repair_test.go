package repair_test

import (
	"strings"
	"testing"

	"github.com/aretw0/beatpilot/pkg/domain"
	"github.com/aretw0/beatpilot/pkg/repair"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairWithStage(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantStage string
		want      domain.SuggestionResult
	}{
		{
			name:      "Well formed",
			raw:       `{"suggestions": ["One - A (BPM: 124)", "Two - B (BPM: 126)", "Three - C (BPM: 128)"], "transition_plan": "Blend over 32 bars."}`,
			wantStage: repair.StageNormalized,
			want: domain.SuggestionResult{
				Suggestions:    []string{"One - A (BPM: 124)", "Two - B (BPM: 126)", "Three - C (BPM: 128)"},
				TransitionPlan: "Blend over 32 bars.",
			},
		},
		{
			name:      "Line breaks inside strings",
			raw:       "{\n  \"suggestions\": [\"One -\nA\", \"Two - B\", \"Three - C\"],\n  \"transition_plan\": \"Use a\n16-bar   phrase.\"\n}",
			wantStage: repair.StageNormalized,
			want: domain.SuggestionResult{
				Suggestions:    []string{"One - A", "Two - B", "Three - C"},
				TransitionPlan: "Use a 16-bar phrase.",
			},
		},
		{
			name:      "Trailing commas",
			raw:       `{"suggestions": ["One - A", "Two - B", "Three - C",], "transition_plan": "Filter sweep out.",}`,
			wantStage: repair.StagePunctuation,
			want: domain.SuggestionResult{
				Suggestions:    []string{"One - A", "Two - B", "Three - C"},
				TransitionPlan: "Filter sweep out.",
			},
		},
		{
			name:      "Markdown fence and prose",
			raw:       "Sure! Here you go\n```json\n{\"suggestions\": [\"One - A (BPM: 124)\", \"Two - B (BPM: 126)\", \"Three - C (BPM: 128)\"], \"transition_plan\": \"Blend over 32 bars.\"}\n```\nEnjoy the set",
			wantStage: repair.StageExtracted,
			want: domain.SuggestionResult{
				Suggestions:    []string{"One - A (BPM: 124)", "Two - B (BPM: 126)", "Three - C (BPM: 128)"},
				TransitionPlan: "Blend over 32 bars.",
			},
		},
		{
			name:      "Truncated object",
			raw:       `{"suggestions": ["One - A", "Two - B", "Three - C"], "transition_plan": "Drop on the one", "notes": {`,
			wantStage: repair.StageFields,
			want: domain.SuggestionResult{
				Suggestions:    []string{"One - A", "Two - B", "Three - C"},
				TransitionPlan: "Drop on the one",
			},
		},
		{
			name:      "Extra suggestions are truncated",
			raw:       `{"suggestions": ["A", "B", "C", "D"], "transition_plan": "Cut on the drop."}`,
			wantStage: repair.StageNormalized,
			want: domain.SuggestionResult{
				Suggestions:    []string{"A", "B", "C"},
				TransitionPlan: "Cut on the drop.",
			},
		},
		{
			name:      "Too few suggestions",
			raw:       `{"suggestions": ["A", "B"], "transition_plan": "Cut on the drop."}`,
			wantStage: repair.StageFallback,
			want:      repair.Fallback(),
		},
		{
			name:      "Missing transition plan",
			raw:       `{"suggestions": ["A", "B", "C"]}`,
			wantStage: repair.StageFallback,
			want:      repair.Fallback(),
		},
		{
			name:      "Non string suggestions recovered by pattern",
			raw:       `{"suggestions": [1, 2, 3], "transition_plan": "x"}`,
			wantStage: repair.StageFields,
			want: domain.SuggestionResult{
				Suggestions:    []string{"1", "2", "3"},
				TransitionPlan: "x",
			},
		},
		{
			name:      "Plain prose",
			raw:       "I'm sorry, I cannot help with that request.",
			wantStage: repair.StageFallback,
			want:      repair.Fallback(),
		},
		{
			name:      "Empty",
			raw:       "",
			wantStage: repair.StageFallback,
			want:      repair.Fallback(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stage := repair.RepairWithStage(tt.raw)
			assert.Equal(t, tt.wantStage, stage)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("RepairWithStage() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFallback_Constant(t *testing.T) {
	fb := repair.Fallback()
	require.Len(t, fb.Suggestions, domain.SuggestionCount)
	assert.Equal(t, "Sandstorm - Darude (128 BPM)", fb.Suggestions[0])
	assert.Equal(t, "Levels - Avicii (126 BPM)", fb.Suggestions[1])
	assert.Equal(t, "Animals - Martin Garrix (128 BPM)", fb.Suggestions[2])
	assert.Equal(t, "Gradually increase energy while maintaining the current BPM range. Use a 16-bar phrase to mix in the new track.", fb.TransitionPlan)
}

func TestFallback_Isolated(t *testing.T) {
	fb := repair.Fallback()
	fb.Suggestions[0] = "mutated"

	assert.Equal(t, "Sandstorm - Darude (128 BPM)", repair.Fallback().Suggestions[0])
}

func TestStages_Order(t *testing.T) {
	var names []string
	for _, s := range repair.Stages() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		repair.StageNormalized,
		repair.StagePunctuation,
		repair.StageExtracted,
		repair.StageFields,
		repair.StageFallback,
	}, names)
}

func FuzzRepair(f *testing.F) {
	seeds := []string{
		"",
		"{",
		"}{",
		`{"suggestions": [], "transition_plan": ""}`,
		`{"suggestions": ["a","b","c"], "transition_plan": "p"}`,
		`"suggestions": [",,,"], "transition_plan": " "`,
		strings.Repeat("{[", 50),
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		got := repair.Repair(raw)
		if len(got.Suggestions) != domain.SuggestionCount {
			t.Fatalf("got %d suggestions for %q", len(got.Suggestions), raw)
		}
		for _, s := range got.Suggestions {
			if strings.TrimSpace(s) == "" {
				t.Fatalf("empty suggestion for %q", raw)
			}
		}
		if strings.TrimSpace(got.TransitionPlan) == "" {
			t.Fatalf("empty transition plan for %q", raw)
		}
	})
}

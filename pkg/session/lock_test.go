package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/beatpilot/pkg/adapters/memory"
	"github.com/aretw0/beatpilot/pkg/domain"
)

type echoSuggester struct{}

func (echoSuggester) Suggest(ctx context.Context, input string) domain.SuggestionResult {
	return domain.SuggestionResult{
		Suggestions:    []string{input + " 1", input + " 2", input + " 3"},
		TransitionPlan: "echo",
	}
}

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore(), echoSuggester{})
	ctx := context.Background()
	count := 1000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		agent, err := mgr.Activate(ctx, sid)
		if err != nil {
			t.Fatalf("activate %s: %v", sid, err)
		}
		if _, err := agent.AnalyzeVibe(ctx, sid); err != nil {
			t.Fatalf("analyze %s: %v", sid, err)
		}
		mgr.Deactivate(sid)
		_ = mgr.Delete(ctx, sid)
	}

	if n := len(mgr.locks); n != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory", n)
	}
	if n := len(mgr.actors); n != 0 {
		t.Errorf("Memory Leak Detected: %d agents remaining in memory", n)
	}
}

package inference

import (
	"testing"

	"github.com/aretw0/beatpilot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessages(t *testing.T) {
	contents, system := splitMessages([]domain.InferenceMessage{
		{Role: domain.RoleSystem, Content: "be a DJ"},
		{Role: domain.RoleUser, Content: "rainy lo-fi"},
		{Role: domain.RoleSystem, Content: "answer in JSON"},
	})
	assert.Equal(t, "be a DJ\n\nanswer in JSON", system)
	require.Len(t, contents, 1)
	assert.Equal(t, "rainy lo-fi", contents[0].Parts[0].Text)
}

func TestGemini_ResolveModel(t *testing.T) {
	g := &Gemini{}
	assert.Equal(t, DefaultGeminiModel, g.resolveModel("@cf/meta/llama-2-7b-chat-int8"))
	assert.Equal(t, DefaultGeminiModel, g.resolveModel(""))
	assert.Equal(t, "gemini-1.5-pro", g.resolveModel("gemini-1.5-pro"))

	g.model = "gemini-2.5-flash"
	assert.Equal(t, "gemini-2.5-flash", g.resolveModel("anything"))
}

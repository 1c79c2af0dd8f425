package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/beatpilot/pkg/domain"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRepairCommand(t *testing.T) {
	out, errOut, err := run(t, "Sure!\n```json\n{\"suggestions\": [\"a\", \"b\", \"c\",], \"transition_plan\": \"go\"}\n```", "repair")
	require.NoError(t, err)

	var result domain.SuggestionResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []string{"a", "b", "c"}, result.Suggestions)
	assert.Contains(t, errOut, "extracted")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "beatpilot version "))
}

func TestSessionCommands_FileStore(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BEATPILOT_STORAGE_DRIVER", "file")
	t.Setenv("BEATPILOT_STORAGE_DIR", dir)
	cfgPath := filepath.Join(dir, "missing.yaml")

	out, _, err := run(t, "", "session", "ls", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found.")

	_, _, err = run(t, "", "session", "inspect", "ghost", "--config", cfgPath)
	assert.ErrorContains(t, err, "session 'ghost' not found")
}

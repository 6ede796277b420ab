package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenarioPath = filepath.Join("..", "..", "content", "scenarios", "homestead.yaml")

func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("HOMESTEAD_LOGGING_LEVEL", "error")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func TestPlanCommand(t *testing.T) {
	out := execute(t, "plan", "--scenario", scenarioPath, "ada")
	assert.Contains(t, out, "ada  state:")
	for _, goal := range []string{"satisfy_hunger", "satisfy_thirst", "restock_food", "restock_water", "restock_wood", "upgrade_storage"} {
		assert.Contains(t, out, goal)
	}
	assert.NotContains(t, out, "bram")
}

func TestPlanCommand_UnknownAgent(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"plan", "--scenario", scenarioPath, "--log-level", "error", "nobody"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nobody")
}

func TestSimulateCommand_CSVJournalThenHistory(t *testing.T) {
	trace := filepath.Join(t.TempDir(), "trace.csv")
	out := execute(t, "simulate",
		"--scenario", scenarioPath,
		"--ticks", "150",
		"--journal", "csv",
		"--journal-path", trace,
	)
	assert.Contains(t, out, "after 150 ticks")
	assert.Contains(t, out, "plan_adopted=")

	hist := execute(t, "history", "ada", "--journal", "csv", "--journal-path", trace)
	lines := strings.Split(strings.TrimSpace(hist), "\n")
	require.Greater(t, len(lines), 1, hist)
	assert.Contains(t, lines[0], "TICK")
	assert.Contains(t, hist, "plan_adopted")
}

func TestSimulateCommand_StatusEvery(t *testing.T) {
	out := execute(t, "simulate", "--scenario", scenarioPath, "--ticks", "4", "--status-every", "2")
	assert.Contains(t, out, "-- tick 2")
	assert.Contains(t, out, "-- tick 4")
}

func TestHistoryCommand_NoJournal(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"history", "ada", "--log-level", "error"})
	assert.Error(t, cmd.Execute())
}

package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_Text(t *testing.T) {
	configPath, _ := writeFixtures(t)

	out, err := execute(t, "plan", "--subject", "check", "--config", configPath, "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "seed: 7")
	assert.Contains(t, out, "blocks: 4 (2 pairs)")
	assert.Contains(t, out, "block 1 pair 1 control")
	assert.Contains(t, out, "block 2 pair 1 order")
}

func TestPlan_Deterministic(t *testing.T) {
	configPath, _ := writeFixtures(t)

	first, err := execute(t, "plan", "--subject", "check", "--config", configPath, "--seed", "42")
	require.NoError(t, err)
	second, err := execute(t, "plan", "--subject", "check", "--config", configPath, "--seed", "42")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := execute(t, "plan", "--subject", "check", "--config", configPath, "--seed", "43")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestPlan_JSON(t *testing.T) {
	configPath, _ := writeFixtures(t)

	out, err := execute(t, "plan", "--subject", "check", "--config", configPath, "--seed", "7", "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(7), data["seed"])
	assert.Equal(t, float64(2), data["block_pairs"])
	assert.Contains(t, data["schedule"], "block 1 pair 1 control")
}

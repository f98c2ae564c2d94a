package sim

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentShape(t *testing.T) {
	home, away := fixedRosters()
	res, err := Simulate(home, away, 42)
	require.NoError(t, err)

	doc := res.Document()

	score, ok := doc["score"].(map[string]int)
	require.True(t, ok)
	assert.Equal(t, res.HomeGoals, score["home"])
	assert.Equal(t, res.AwayGoals, score["away"])

	goals, ok := doc["goals"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, goals, len(res.Goals))
	for i, g := range goals {
		assert.Equal(t, res.Goals[i].Tick, g["tick"])
		assert.Equal(t, res.Goals[i].ScorerID, g["scorer_id"])
	}

	assert.Equal(t, res.ManOfTheMatch, doc["man_of_the_match"])
	assert.Len(t, doc["narrative"].([]string), TotalTicks)

	// the archive stores the document as JSON, so it must marshal cleanly
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestMagicNeverSerialized(t *testing.T) {
	p := fixedPlayer("P1", "Oculto", RoleForward, 5, 5, 5, 5, 9)
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "magia")
	assert.NotContains(t, string(raw), "Magic")
}

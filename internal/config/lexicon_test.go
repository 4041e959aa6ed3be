package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLexiconEmptyPath(t *testing.T) {
	lex, err := LoadLexicon("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLexicon(), lex)
}

func TestLoadLexiconPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.json")
	override := `{
		"priority_tiers": {
			"critical": ["wildfire", "tsunami"],
			"high": ["landslide"],
			"medium": ["smoke"]
		},
		"impact_bonuses": [{"keywords": ["bridge", "tunnel"], "points": 30}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(override), 0o644))

	lex, err := LoadLexicon(path)
	require.NoError(t, err)

	// overridden tables are replaced wholesale
	assert.Equal(t, []string{"wildfire", "tsunami"}, lex.PriorityTiers["critical"])
	assert.Equal(t, []BonusGroup{{Keywords: []string{"bridge", "tunnel"}, Points: 30}}, lex.ImpactBonuses)

	// omitted tables keep their defaults
	def := DefaultLexicon()
	assert.Equal(t, def.CategoryUrgency, lex.CategoryUrgency)
	assert.Equal(t, def.Sentiment, lex.Sentiment)
	assert.Equal(t, def.Topics, lex.Topics)
}

func TestLoadLexiconMissingFile(t *testing.T) {
	_, err := LoadLexicon("/nonexistent/lexicon.json")
	assert.Error(t, err)
}

func TestLoadLexiconBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadLexicon(path)
	assert.Error(t, err)
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisisworks/openreportserve/internal/config"
	"github.com/crisisworks/openreportserve/internal/models"
)

func TestDetectPriority(t *testing.T) {
	lex := config.DefaultLexicon()

	tests := []struct {
		name        string
		title       string
		description string
		want        models.ReportPriority
	}{
		{"critical keyword in title", "People trapped in collapsed building", "need help", models.PriorityCritical},
		{"critical keyword in description", "Emergency downtown", "there was an explosion near the plaza", models.PriorityCritical},
		{"high keyword", "Street report", "flooding on 3rd avenue", models.PriorityHigh},
		{"medium keyword", "Road report", "debris blocking one lane", models.PriorityMedium},
		{"critical beats high", "Fire on Main St", "flooding in the basement too", models.PriorityCritical},
		{"case insensitive", "FIRE at warehouse", "", models.PriorityCritical},
		{"no keywords", "Lost cat", "orange tabby last seen on Oak St", models.PriorityLow},
		{"empty text", "", "", models.PriorityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPriority(lex, tt.title, tt.description))
		})
	}
}

func TestUrgencyScore(t *testing.T) {
	lex := config.DefaultLexicon()

	tests := []struct {
		name     string
		category string
		priority models.ReportPriority
		want     int
	}{
		{"incident critical capped", "incident", models.PriorityCritical, 100},
		{"incident high", "incident", models.PriorityHigh, 92},
		{"incident low", "incident", models.PriorityLow, 64},
		{"other low", "other", models.PriorityLow, 24},
		{"missing person critical capped", "missing_person", models.PriorityCritical, 100},
		{"unknown category uses default base", "zoning", models.PriorityMedium, 50},
		{"unknown priority uses unit multiplier", "damage", "", 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UrgencyScore(lex, tt.category, tt.priority))
		})
	}
}

func TestImpactScore(t *testing.T) {
	lex := config.DefaultLexicon()

	tests := []struct {
		name        string
		description string
		want        int
	}{
		{"baseline", "a tree fell", 50},
		{"single bonus", "multiple cars involved", 65},
		{"stacked bonuses", "widespread damage across the community", 80},
		{"grouped keywords counted once", "the school and the hospital lost access", 75},
		{"capped at 100", "school and hospital affected, widespread damage, multiple blocks", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImpactScore(lex, tt.description))
		})
	}
}

func TestAnalyzeSentimentNegative(t *testing.T) {
	lex := config.DefaultLexicon()

	s := AnalyzeSentiment(lex, "Terrible response", "the cleanup was slow")

	// terrible (-1) and slow (-0.5) over two matches
	assert.Equal(t, -0.75, s.Score)
	assert.Equal(t, "very_negative", s.Overall)
	assert.Equal(t, 70, s.Confidence)

	require.Len(t, s.Keywords, 2)
	assert.Equal(t, "slow", s.Keywords[0].Word)
	assert.Equal(t, "negative", s.Keywords[0].Sentiment)
	assert.Equal(t, "terrible", s.Keywords[1].Word)

	// both hits feed anger and sadness equally
	assert.InDelta(t, 0.5, s.Emotions["anger"], 1e-9)
	assert.InDelta(t, 0.5, s.Emotions["sadness"], 1e-9)
	assert.Zero(t, s.Emotions["joy"])

	assert.Equal(t, []string{"response_time"}, s.Topics)
}

func TestAnalyzeSentimentPositive(t *testing.T) {
	lex := config.DefaultLexicon()

	s := AnalyzeSentiment(lex, "Excellent work", "the crew was professional and quick")

	// excellent (+1), professional (+0.5), quick (+0.5) over three matches
	assert.InDelta(t, 2.0/3.0, s.Score, 1e-9)
	assert.Equal(t, "very_positive", s.Overall)
	assert.Equal(t, 80, s.Confidence)
	assert.InDelta(t, 0.5, s.Emotions["joy"], 1e-9)
	assert.InDelta(t, 0.5, s.Emotions["trust"], 1e-9)
}

func TestAnalyzeSentimentNoMatches(t *testing.T) {
	lex := config.DefaultLexicon()

	s := AnalyzeSentiment(lex, "Tree down", "a tree fell on Elm Street")

	assert.Zero(t, s.Score)
	assert.Equal(t, "neutral", s.Overall)
	assert.Equal(t, 50, s.Confidence)
	assert.Empty(t, s.Keywords)
}

func TestAnalyzeSentimentConfidenceCap(t *testing.T) {
	lex := config.DefaultLexicon()

	s := AnalyzeSentiment(lex, "terrible awful horrible worst angry", "slow poor disappointing unhelpful difficult")

	assert.Equal(t, 95, s.Confidence)
	assert.Equal(t, "very_negative", s.Overall)
}

func TestAnalyzeSentimentDeterministic(t *testing.T) {
	lex := config.DefaultLexicon()

	first := AnalyzeSentiment(lex, "terrible slow response", "poor communication, unhelpful staff")
	for i := 0; i < 20; i++ {
		again := AnalyzeSentiment(lex, "terrible slow response", "poor communication, unhelpful staff")
		assert.Equal(t, first, again)
	}
}

func TestExtractTopics(t *testing.T) {
	lex := config.DefaultLexicon()

	topics := ExtractTopics(lex, "the shelter ran out of food and nobody called us back")
	assert.Equal(t, []string{"communication", "support_services"}, topics)

	assert.Empty(t, ExtractTopics(lex, "nothing relevant here"))
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Lexicon holds the keyword tables driving priority detection, urgency and
// impact scoring, sentiment analysis and topic extraction. The tables are
// tuning data, not logic: deployments override them by pointing LEXICON_PATH
// at a JSON file with the same shape.
type Lexicon struct {
	// PriorityTiers maps a priority level to its trigger keywords. Tiers are
	// checked critical, high, medium in that order; the first tier with a
	// match wins.
	PriorityTiers map[string][]string `json:"priority_tiers"`

	// CategoryUrgency is the per-report-type base urgency score.
	CategoryUrgency map[string]int `json:"category_urgency"`

	// PriorityMultiplier scales the base urgency per detected priority.
	PriorityMultiplier map[string]float64 `json:"priority_multiplier"`

	// ImpactBonuses adds to the impact score. Each group is awarded at most
	// once, when any of its keywords appears in the description.
	ImpactBonuses []BonusGroup `json:"impact_bonuses"`

	// Sentiment maps each sentiment bucket to its keywords.
	Sentiment map[string][]string `json:"sentiment"`

	// Topics maps a topic tag to the keywords that signal it.
	Topics map[string][]string `json:"topics"`
}

// BonusGroup is one impact escalation: any keyword triggers the points once.
type BonusGroup struct {
	Keywords []string `json:"keywords"`
	Points   int      `json:"points"`
}

// DefaultLexicon returns the built-in keyword tables.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		PriorityTiers: map[string][]string{
			"critical": {"trapped", "fire", "collapse", "explosion", "fatality", "life-threatening"},
			"high":     {"injured", "flooding", "gas leak", "power line", "blocked road", "evacuation"},
			"medium":   {"damage", "debris", "hazard", "outage", "closed"},
		},
		CategoryUrgency: map[string]int{
			"incident":       80,
			"damage":         70,
			"hazard":         75,
			"resource_need":  60,
			"missing_person": 90,
			"infrastructure": 65,
			"safety":         70,
			"wildlife":       40,
			"environmental":  50,
			"other":          30,
		},
		PriorityMultiplier: map[string]float64{
			"critical": 1.3,
			"high":     1.15,
			"medium":   1.0,
			"low":      0.8,
		},
		ImpactBonuses: []BonusGroup{
			{Keywords: []string{"multiple"}, Points: 15},
			{Keywords: []string{"widespread"}, Points: 20},
			{Keywords: []string{"community"}, Points: 10},
			{Keywords: []string{"school", "hospital"}, Points: 25},
		},
		Sentiment: map[string][]string{
			"very_positive": {"excellent", "amazing", "outstanding", "exceptional", "wonderful", "fantastic", "grateful", "thankful"},
			"positive":      {"good", "helpful", "professional", "efficient", "friendly", "quick", "satisfied"},
			"neutral":       {"okay", "average", "adequate", "acceptable", "standard"},
			"negative":      {"slow", "poor", "disappointing", "unhelpful", "difficult", "frustrated", "confused"},
			"very_negative": {"terrible", "awful", "horrible", "worst", "angry", "unacceptable", "dangerous", "negligent"},
		},
		Topics: map[string][]string{
			"response_time":    {"quick", "fast", "slow", "late", "delayed", "immediate", "minutes", "hours"},
			"communication":    {"called", "informed", "updated", "notified", "silent", "unclear"},
			"professionalism":  {"professional", "courteous", "rude", "helpful", "unhelpful"},
			"support_services": {"shelter", "housing", "food", "medical", "assistance"},
			"equipment":        {"equipment", "tools", "resources", "supplies"},
			"coordination":     {"coordinated", "organized", "confused", "chaotic"},
		},
	}
}

// LoadLexicon reads keyword tables from the JSON file at path. Tables omitted
// from the file keep their built-in defaults, so overrides can be partial.
// An empty path returns the defaults.
func LoadLexicon(path string) (*Lexicon, error) {
	lex := DefaultLexicon()
	if path == "" {
		return lex, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}

	var override Lexicon
	if err := json.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}

	if len(override.PriorityTiers) > 0 {
		lex.PriorityTiers = override.PriorityTiers
	}
	if len(override.CategoryUrgency) > 0 {
		lex.CategoryUrgency = override.CategoryUrgency
	}
	if len(override.PriorityMultiplier) > 0 {
		lex.PriorityMultiplier = override.PriorityMultiplier
	}
	if len(override.ImpactBonuses) > 0 {
		lex.ImpactBonuses = override.ImpactBonuses
	}
	if len(override.Sentiment) > 0 {
		lex.Sentiment = override.Sentiment
	}
	if len(override.Topics) > 0 {
		lex.Topics = override.Topics
	}
	return lex, nil
}

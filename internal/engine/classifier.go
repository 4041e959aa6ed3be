package engine

import (
	"math"
	"sort"
	"strings"

	"github.com/crisisworks/openreportserve/internal/config"
	"github.com/crisisworks/openreportserve/internal/models"
)

// sentimentOrder fixes bucket iteration so repeated classification of the
// same text always yields the same keyword list.
var sentimentOrder = []string{"very_positive", "positive", "neutral", "negative", "very_negative"}

var sentimentWeight = map[string]float64{
	"very_positive": 1,
	"positive":      0.5,
	"neutral":       0,
	"negative":      -0.5,
	"very_negative": -1,
}

var topicOrder = []string{"response_time", "communication", "professionalism", "support_services", "equipment", "coordination"}

// DetectPriority scans the combined text against the lexicon's ordered
// priority tiers. The first tier with any match wins; no match means low.
func DetectPriority(lex *config.Lexicon, title, description string) models.ReportPriority {
	text := strings.ToLower(title + " " + description)

	for _, tier := range []models.ReportPriority{models.PriorityCritical, models.PriorityHigh, models.PriorityMedium} {
		for _, kw := range lex.PriorityTiers[string(tier)] {
			if strings.Contains(text, kw) {
				return tier
			}
		}
	}
	return models.PriorityLow
}

// UrgencyScore derives urgency from the per-category base scaled by the
// priority multiplier, clamped to [0,100].
func UrgencyScore(lex *config.Lexicon, category string, priority models.ReportPriority) int {
	base, ok := lex.CategoryUrgency[category]
	if !ok {
		base = 50
	}
	mult, ok := lex.PriorityMultiplier[string(priority)]
	if !ok {
		mult = 1.0
	}
	score := int(math.Round(float64(base) * mult))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// ImpactScore starts at 50 and adds each escalation group's points at most
// once when any of its keywords appears in the description, clamped to 100.
func ImpactScore(lex *config.Lexicon, description string) int {
	text := strings.ToLower(description)
	score := 50
	for _, group := range lex.ImpactBonuses {
		for _, kw := range group.Keywords {
			if strings.Contains(text, kw) {
				score += group.Points
				break
			}
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

// AnalyzeSentiment tokenizes the combined text, counts lexicon hits per
// bucket and folds them into a signed normalized score, an overall label,
// emotion weights and topic tags.
func AnalyzeSentiment(lex *config.Lexicon, title, description string) models.SentimentProfile {
	text := strings.ToLower(title + " " + description)
	words := strings.Fields(text)

	var score float64
	matchCount := 0
	var found []models.SentimentKeyword
	emotions := map[string]float64{
		"anger": 0, "fear": 0, "sadness": 0, "joy": 0, "surprise": 0, "trust": 0,
	}

	for _, bucket := range sentimentOrder {
		for _, kw := range lex.Sentiment[bucket] {
			count := 0
			for _, w := range words {
				if strings.Contains(w, kw) {
					count++
				}
			}
			if count == 0 {
				continue
			}
			matchCount += count
			score += sentimentWeight[bucket] * float64(count)
			found = append(found, models.SentimentKeyword{Word: kw, Sentiment: bucket, Frequency: count})

			switch bucket {
			case "very_positive", "positive":
				emotions["joy"] += float64(count) * 0.3
				emotions["trust"] += float64(count) * 0.3
			case "negative", "very_negative":
				emotions["anger"] += float64(count) * 0.2
				emotions["sadness"] += float64(count) * 0.2
			}
		}
	}

	normalized := 0.0
	if matchCount > 0 {
		normalized = score / float64(matchCount)
	}

	var overall string
	switch {
	case normalized >= 0.5:
		overall = "very_positive"
	case normalized >= 0.2:
		overall = "positive"
	case normalized >= -0.2:
		overall = "neutral"
	case normalized >= -0.5:
		overall = "negative"
	default:
		overall = "very_negative"
	}

	total := 0.0
	for _, v := range emotions {
		total += v
	}
	if total == 0 {
		total = 1
	}
	for k := range emotions {
		emotions[k] /= total
	}

	confidence := 50 + matchCount*10
	if confidence > 95 {
		confidence = 95
	}

	return models.SentimentProfile{
		Overall:    overall,
		Score:      normalized,
		Confidence: confidence,
		Emotions:   emotions,
		Keywords:   found,
		Topics:     ExtractTopics(lex, text),
	}
}

// ExtractTopics returns every topic whose keyword table has at least one hit
// in the text, in a fixed order.
func ExtractTopics(lex *config.Lexicon, text string) []string {
	text = strings.ToLower(text)
	var topics []string

	seen := make(map[string]bool, len(topicOrder))
	emit := func(topic string, keywords []string) {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				topics = append(topics, topic)
				return
			}
		}
	}
	for _, topic := range topicOrder {
		if kws, ok := lex.Topics[topic]; ok {
			seen[topic] = true
			emit(topic, kws)
		}
	}
	// custom topics from an overridden lexicon come after the known set
	var custom []string
	for topic := range lex.Topics {
		if !seen[topic] {
			custom = append(custom, topic)
		}
	}
	sort.Strings(custom)
	for _, topic := range custom {
		emit(topic, lex.Topics[topic])
	}
	return topics
}

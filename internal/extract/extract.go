// ABOUTME: Regex-based entity extraction with keyword sentiment and topic tagging
// ABOUTME: Local fallback analysis used when no hosted AI backend is configured

package extract

import (
	"regexp"
	"strings"
)

// EntityType classifies extracted entities. The enum is closed; extractors
// never invent new types.
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
	EntityLocation     EntityType = "location"
	EntityDate         EntityType = "date"
	EntityTime         EntityType = "time"
	EntityMoney        EntityType = "money"
	EntityPercentage   EntityType = "percentage"
	EntityEmail        EntityType = "email"
	EntityPhone        EntityType = "phone"
	EntityURL          EntityType = "url"
	EntityProduct      EntityType = "product"
	EntityService      EntityType = "service"
	EntityEvent        EntityType = "event"
	EntityConcept      EntityType = "concept"
	EntityCustom       EntityType = "custom"
)

// Sentiment labels
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Entity is a typed span of text recognized by pattern matching.
type Entity struct {
	Type       EntityType     `json:"type"`
	Value      string         `json:"value"`
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Result is the output of one extraction call.
type Result struct {
	Entities  []Entity `json:"entities"`
	Sentiment string   `json:"sentiment"`
	Topics    []string `json:"topics"`
	Summary   string   `json:"summary"`
}

// summaryLength is the truncation point for message summaries.
const summaryLength = 100

// pattern pairs a detector regex with its entity type and fixed confidence.
// Confidences are fixed per type, not computed from any signal.
type pattern struct {
	entityType EntityType
	re         *regexp.Regexp
	confidence float64
}

var patterns = []pattern{
	{EntityEmail, regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), 0.9},
	{EntityURL, regexp.MustCompile(`https?://[^\s]+`), 0.9},
	{EntityPhone, regexp.MustCompile(`(?:\+?\d{1,3}[-.\s])?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`), 0.85},
	// Person heuristic: two consecutive capitalized words
	{EntityPerson, regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`), 0.8},
	{EntityDate, regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`), 0.75},
	{EntityOrganization, regexp.MustCompile(`\b[A-Z][A-Za-z]+ (?:Inc|Corp|Corporation|LLC|Ltd|Company|Technologies|Labs)\b\.?`), 0.7},
}

var positiveWords = []string{
	"good", "great", "excellent", "amazing", "wonderful", "fantastic",
	"happy", "love", "perfect", "awesome", "thanks", "thank",
}

var negativeWords = []string{
	"bad", "terrible", "awful", "horrible", "hate", "angry",
	"sad", "worst", "problem", "issue", "broken", "wrong",
}

// topicKeywords maps each topic bucket to its presence-check keywords.
var topicKeywords = map[string][]string{
	"work":       {"meeting", "project", "deadline", "work", "office", "client", "report", "presentation"},
	"personal":   {"family", "friend", "home", "weekend", "vacation", "birthday", "dinner"},
	"technology": {"computer", "software", "app", "code", "internet", "phone", "ai", "data", "website"},
	"health":     {"doctor", "health", "exercise", "sleep", "medicine", "appointment", "diet"},
}

// topicOrder keeps topic output deterministic.
var topicOrder = []string{"work", "personal", "technology", "health"}

// Extract runs entity detection, sentiment scoring, and topic tagging over a
// plain-text message. Detection per type is independent: entities of different
// types may overlap in the source text and no cross-type deduplication happens.
func Extract(text string) *Result {
	return &Result{
		Entities:  detectEntities(text),
		Sentiment: detectSentiment(text),
		Topics:    detectTopics(text),
		Summary:   summarize(text),
	}
}

func detectEntities(text string) []Entity {
	var entities []Entity
	for _, p := range patterns {
		matches := p.re.FindAllString(text, -1)
		seen := make(map[string]bool, len(matches))
		for _, m := range matches {
			// Duplicate values of the same type collapse to one entity
			if seen[m] {
				continue
			}
			seen[m] = true
			entities = append(entities, Entity{
				Type:       p.entityType,
				Value:      m,
				Confidence: p.confidence,
			})
		}
	}
	return entities
}

// detectSentiment is a majority vote between the fixed keyword lists.
// Ties and no-matches resolve to neutral.
func detectSentiment(text string) string {
	words := strings.Fields(strings.ToLower(text))

	var positive, negative int
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:'\"()")
		for _, p := range positiveWords {
			if w == p {
				positive++
			}
		}
		for _, n := range negativeWords {
			if w == n {
				negative++
			}
		}
	}

	switch {
	case positive > negative:
		return SentimentPositive
	case negative > positive:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// detectTopics checks each fixed bucket for keyword presence. A text that
// matches no bucket gets the default "conversation" topic.
func detectTopics(text string) []string {
	lower := strings.ToLower(text)

	// Short keywords ("ai", "app") match whole words only; "email" must not
	// trigger the technology bucket.
	words := make(map[string]bool)
	for _, w := range strings.Fields(lower) {
		words[strings.Trim(w, ".,!?;:'\"()")] = true
	}

	var topics []string
	for _, topic := range topicOrder {
		for _, kw := range topicKeywords[topic] {
			matched := false
			if len(kw) <= 3 {
				matched = words[kw]
			} else {
				matched = strings.Contains(lower, kw)
			}
			if matched {
				topics = append(topics, topic)
				break
			}
		}
	}
	if len(topics) == 0 {
		topics = []string{"conversation"}
	}
	return topics
}

func summarize(text string) string {
	if len(text) <= summaryLength {
		return text
	}
	return text[:summaryLength] + "..."
}

// ABOUTME: Tests for regex entity extraction, sentiment voting, and topic tagging
// ABOUTME: Includes the canonical email+url exactness case

package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entitiesOfType(entities []Entity, typ EntityType) []Entity {
	var out []Entity
	for _, e := range entities {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestExtract_EmailAndURLExactly(t *testing.T) {
	res := Extract("Contact me at a@b.com and visit https://example.com")

	emails := entitiesOfType(res.Entities, EntityEmail)
	require.Len(t, emails, 1)
	assert.Equal(t, "a@b.com", emails[0].Value)
	assert.Equal(t, 0.9, emails[0].Confidence)

	urls := entitiesOfType(res.Entities, EntityURL)
	require.Len(t, urls, 1)
	assert.Equal(t, "https://example.com", urls[0].Value)
	assert.Equal(t, 0.9, urls[0].Confidence)

	// No other entity types fire on this input
	assert.Len(t, res.Entities, 2)
}

func TestExtract_PersonHeuristic(t *testing.T) {
	res := Extract("I spoke with Jane Smith yesterday")

	people := entitiesOfType(res.Entities, EntityPerson)
	require.Len(t, people, 1)
	assert.Equal(t, "Jane Smith", people[0].Value)
	assert.Equal(t, 0.8, people[0].Confidence)
}

func TestExtract_Organization(t *testing.T) {
	res := Extract("She works at Acme Corp now")

	orgs := entitiesOfType(res.Entities, EntityOrganization)
	require.Len(t, orgs, 1)
	assert.Equal(t, "Acme Corp", orgs[0].Value)
	assert.Equal(t, 0.7, orgs[0].Confidence)
}

func TestExtract_PhoneAndDate(t *testing.T) {
	res := Extract("Call 555-123-4567 before 12/31/2025")

	phones := entitiesOfType(res.Entities, EntityPhone)
	require.Len(t, phones, 1)
	assert.Contains(t, phones[0].Value, "555")

	dates := entitiesOfType(res.Entities, EntityDate)
	require.Len(t, dates, 1)
	assert.Equal(t, "12/31/2025", dates[0].Value)
}

func TestExtract_DuplicatesCollapseWithinType(t *testing.T) {
	res := Extract("mail a@b.com or a@b.com again")

	emails := entitiesOfType(res.Entities, EntityEmail)
	assert.Len(t, emails, 1)
}

func TestExtract_Sentiment(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"This is great, really wonderful work!", SentimentPositive},
		{"This is terrible and I hate it", SentimentNegative},
		{"The sky is blue", SentimentNeutral},
		{"It was good but also bad", SentimentNeutral}, // tie
		{"", SentimentNeutral},
	}
	for _, tc := range cases {
		res := Extract(tc.text)
		assert.Equal(t, tc.want, res.Sentiment, "text: %q", tc.text)
	}
}

func TestExtract_Topics(t *testing.T) {
	res := Extract("The project deadline is near and my computer is slow")
	assert.Equal(t, []string{"work", "technology"}, res.Topics)

	res = Extract("Nothing in particular")
	assert.Equal(t, []string{"conversation"}, res.Topics)

	// Short keywords only match whole words: "email" must not trip "ai"
	res = Extract("Send the email tomorrow")
	assert.Equal(t, []string{"conversation"}, res.Topics)
}

func TestExtract_Summary(t *testing.T) {
	short := "Hello there"
	assert.Equal(t, short, Extract(short).Summary)

	long := strings.Repeat("a", 150)
	got := Extract(long).Summary
	assert.Len(t, got, summaryLength+3)
	assert.True(t, strings.HasSuffix(got, "..."))
}

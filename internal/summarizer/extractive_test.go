package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asknehru/internal/domain"
)

func TestSummarize_NoResults(t *testing.T) {
	s := NewExtractiveSummarizer(0, 0)
	assert.Equal(t, NoResultsMessage, s.Summarize("anything at all", nil))
	assert.Equal(t, "I could not find any relevant information.", s.Summarize("", []domain.SearchResult{}))
}

func TestSummarize_PicksMatchingSentences(t *testing.T) {
	s := NewExtractiveSummarizer(0, 0)
	results := []domain.SearchResult{
		{Response: "The monsoon arrived late that year. Farmers waited for the rains with anxious hearts. " +
			"The scientific temper asks us to test every belief. Prisons are lonely places."},
	}
	got := s.Summarize("What is the scientific temper?", results)
	assert.True(t, strings.HasPrefix(got, "The scientific temper asks us to test every belief."))
}

func TestSummarize_OnlyTopThreeResults(t *testing.T) {
	s := NewExtractiveSummarizer(0, 0)
	results := []domain.SearchResult{
		{Response: "Alpha speaks of the river valley."},
		{Response: "Beta speaks of the mountain passes."},
		{Response: "Gamma speaks of the coastal towns."},
		{Response: "Delta speaks of the river and the sea and the river again."},
	}
	got := s.Summarize("river", results)
	assert.NotContains(t, got, "Delta")
	assert.Contains(t, got, "Alpha")
}

func TestSummarize_AtMostThreeSentencesFromResults(t *testing.T) {
	s := NewExtractiveSummarizer(0, 0)
	results := []domain.SearchResult{
		{Response: "Unity was the theme. Diversity was the fact. Unity in diversity was the answer. Many peoples came. Few left."},
		{Response: "Unity endured through invasions and decline across the centuries."},
	}
	got := s.Summarize("unity in diversity", results)
	require.NotEmpty(t, got)

	var source []string
	for _, r := range results {
		source = append(source, sentenceRe.FindAllString(r.Response, -1)...)
	}
	parts := sentenceRe.FindAllString(got, -1)
	assert.LessOrEqual(t, len(parts), 3)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		found := false
		for _, src := range source {
			if strings.TrimSpace(src) == p {
				found = true
				break
			}
		}
		assert.True(t, found, "sentence %q not drawn from results", p)
	}
	assert.True(t, strings.HasPrefix(got, "Unity in diversity was the answer."))
}

func TestSummarize_Deduplicates(t *testing.T) {
	s := NewExtractiveSummarizer(0, 0)
	dup := "Gandhi was a beam of light that pierced the darkness."
	results := []domain.SearchResult{
		{Response: dup + " Another sentence about the Congress and its growth."},
		{Response: " " + dup + " Nothing more to say on that subject here."},
	}
	got := s.Summarize("gandhi light", results)
	assert.Equal(t, 1, strings.Count(got, dup))
}

func TestSummarize_TrimsUnicodeSpaceBeforeDedupe(t *testing.T) {
	s := NewExtractiveSummarizer(0, 0)
	results := []domain.SearchResult{
		{Response: "The river of India flows on.\u00a0Its waters carry the story."},
		{Response: "\ufeffThe river of India flows on."},
	}
	got := s.Summarize("river india", results)
	assert.Equal(t, "The river of India flows on. Its waters carry the story.", got)
}

func TestSummarize_NoTerminatorUsesWholeText(t *testing.T) {
	s := NewExtractiveSummarizer(0, 0)
	text := "a fragment without any terminating punctuation about rivers"
	got := s.Summarize("rivers", []domain.SearchResult{{Response: text}})
	assert.Equal(t, text, got)
}

func TestSummarize_ZeroScoresStillAnswer(t *testing.T) {
	s := NewExtractiveSummarizer(0, 0)
	results := []domain.SearchResult{{Response: "First line here. Second line here. Third line here. Fourth line here."}}
	got := s.Summarize("zzz", results)
	assert.Equal(t, "First line here. Second line here. Third line here.", got)
}

func TestScoreSentence_LengthPenalties(t *testing.T) {
	tokens := []string{"moon"}
	assert.Equal(t, 0.5, scoreSentence(tokens, "The moon rose."))
	assert.Equal(t, 1.0, scoreSentence(tokens, "The moon rose over the fort walls."))
	long := "The moon " + strings.Repeat("shone ", 40) + "."
	assert.InDelta(t, 0.8, scoreSentence(tokens, long), 1e-9)
}

func TestOverview(t *testing.T) {
	text := "India is old. India is vast and India is diverse. The cat sat. India endures through ages of change."
	got := Overview(text, 2)
	parts := sentenceRe.FindAllString(got, -1)
	assert.Len(t, parts, 2)
	assert.NotContains(t, got, "The cat sat.")

	assert.Equal(t, "no sentences here", Overview("  no sentences here ", 3))
}

package summarizer

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"asknehru/internal/domain"
	"asknehru/internal/search"
	"asknehru/internal/textnorm"
)

// NoResultsMessage is returned when there is nothing to summarize.
const NoResultsMessage = "I could not find any relevant information."

const (
	defaultMaxResults   = 3
	defaultMaxSentences = 3
	shortSentenceLen    = 20
	longSentenceLen     = 200
)

// sentenceRe does not understand abbreviations, decimals or quotations.
var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+`)

// ExtractiveSummarizer answers a query with the best-matching sentences of the
// top search results, without generating any new text.
type ExtractiveSummarizer struct {
	maxResults   int
	maxSentences int
}

// NewExtractiveSummarizer creates a summarizer. Non-positive arguments select
// the defaults of three results and three sentences.
func NewExtractiveSummarizer(maxResults, maxSentences int) *ExtractiveSummarizer {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if maxSentences <= 0 {
		maxSentences = defaultMaxSentences
	}
	return &ExtractiveSummarizer{maxResults: maxResults, maxSentences: maxSentences}
}

// Summarize implements domain.Summarizer.
func (s *ExtractiveSummarizer) Summarize(query string, results []domain.SearchResult) string {
	if len(results) == 0 {
		return NoResultsMessage
	}
	tokens := search.Tokenize(query)

	var sentences []string
	for _, r := range results[:min(s.maxResults, len(results))] {
		found := sentenceRe.FindAllString(r.Response, -1)
		if len(found) == 0 {
			found = []string{r.Response}
		}
		sentences = append(sentences, found...)
	}

	type pair struct {
		text  string
		score float64
	}
	scored := make([]pair, len(sentences))
	for i, sent := range sentences {
		scored[i] = pair{textnorm.Trim(sent), scoreSentence(tokens, sent)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	seen := make(map[string]struct{}, len(scored))
	out := make([]string, 0, s.maxSentences)
	for _, p := range scored {
		if _, dup := seen[p.text]; dup {
			continue
		}
		seen[p.text] = struct{}{}
		out = append(out, p.text)
		if len(out) == s.maxSentences {
			break
		}
	}
	return strings.Join(out, " ")
}

func scoreSentence(tokens []string, sentence string) float64 {
	lower := strings.ToLower(sentence)
	score := 0.0
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			score++
		}
	}
	n := utf8.RuneCountInString(sentence)
	if n < shortSentenceLen {
		score *= 0.5
	}
	if n > longSentenceLen {
		score *= 0.8
	}
	return score
}

// Package search ranks corpus chunks against a free-text query using term
// frequency and phrase containment.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"asknehru/internal/domain"
	"asknehru/internal/textnorm"
)

// DefaultTopK is the maximum number of results returned by Search.
const DefaultTopK = 5

var (
	punctuationRe = regexp.MustCompile(`[^\w` + textnorm.SpaceClass + `]`)
	spacesRe      = regexp.MustCompile(`[` + textnorm.SpaceClass + `]+`)
)

var stopWords = toSet([]string{
	"the", "is", "at", "which", "on", "and", "a", "an", "in", "it", "of", "to", "for", "with", "that", "this",
	"you", "i", "we", "are", "was", "were", "be", "as", "but", "by", "not", "have", "had", "has", "from", "or",
	"what", "where", "who", "when", "how", "why",
})

// Weights are the scoring constants of the lexical ranker. They were chosen
// empirically for The Discovery of India and are kept tunable.
type Weights struct {
	TokenPresent    float64 // per query token found in the chunk
	TokenOccurrence float64 // per occurrence of a found token
	PhraseMatch     float64 // whole query appears verbatim
	ShortChunkLen   int     // chunks shorter than this are penalized
	ShortChunkMult  float64
}

func DefaultWeights() Weights {
	return Weights{
		TokenPresent:    10,
		TokenOccurrence: 2,
		PhraseMatch:     30,
		ShortChunkLen:   100,
		ShortChunkMult:  0.8,
	}
}

// Tokenize lower-cases the query, strips punctuation and drops stop words and
// words of two characters or fewer.
func Tokenize(query string) []string {
	lower := punctuationRe.ReplaceAllString(strings.ToLower(query), "")
	var tokens []string
	for _, t := range spacesRe.Split(lower, -1) {
		if utf8.RuneCountInString(t) <= 2 {
			continue
		}
		if _, ok := stopWords[t]; ok {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// LexicalSearcher implements domain.Searcher.
type LexicalSearcher struct {
	weights Weights
	topK    int
}

func NewLexicalSearcher(weights Weights, topK int) *LexicalSearcher {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &LexicalSearcher{weights: weights, topK: topK}
}

// Search scores every chunk and returns the best topK with a positive score,
// ordered by descending score. Equal scores keep chunk order.
func (s *LexicalSearcher) Search(query string, chunks []domain.Chunk) []domain.SearchResult {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}
	lowerQuery := strings.ToLower(query)
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, 0, len(chunks))
	for i, ch := range chunks {
		score := s.score(tokens, lowerQuery, ch.Content)
		if score > 0 {
			scores = append(scores, pair{i, score})
		}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if len(scores) > s.topK {
		scores = scores[:s.topK]
	}
	out := make([]domain.SearchResult, 0, len(scores))
	for _, p := range scores {
		ch := chunks[p.idx]
		out = append(out, domain.SearchResult{Response: ch.Content, Reference: ch.Chapter, Score: p.score})
	}
	return out
}

func (s *LexicalSearcher) score(tokens []string, lowerQuery, content string) float64 {
	lowerContent := strings.ToLower(content)
	score := 0.0
	for _, tok := range tokens {
		if !strings.Contains(lowerContent, tok) {
			continue
		}
		score += s.weights.TokenPresent
		score += float64(strings.Count(lowerContent, tok)) * s.weights.TokenOccurrence
	}
	if strings.Contains(lowerContent, lowerQuery) {
		score += s.weights.PhraseMatch
	}
	if utf8.RuneCountInString(content) < s.weights.ShortChunkLen {
		score *= s.weights.ShortChunkMult
	}
	return score
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

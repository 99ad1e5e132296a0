package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"asknehru/internal/textnorm"
)

var wordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// Overview ranks the sentences of a whole text by normalized word frequency
// and returns the best maxSentences of them in their original order. It gives
// a query-independent synopsis of the loaded corpus.
func Overview(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = defaultMaxSentences
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		return textnorm.Trim(text)
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range words(sent) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	for k, v := range freq {
		freq[k] = v / maxF
	}

	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i, sent := range sentences {
		toks := words(sent)
		sc := 0.0
		for _, tok := range toks {
			sc += freq[tok]
		}
		// normalize so long sentences do not dominate
		if len(toks) > 0 {
			sc /= math.Sqrt(float64(len(toks)))
		}
		scores[i] = pair{i, sc}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	n := min(maxSentences, len(scores))
	selected := make([]int, n)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, 0, n)
	for _, idx := range selected {
		out = append(out, textnorm.Trim(sentences[idx]))
	}
	return strings.Join(out, " ")
}

// words returns the lower-cased words of text minus overview stop words.
func words(text string) []string {
	raw := wordRe.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, w := range raw {
		if _, stop := overviewStopWords[w]; !stop && len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

var overviewStopWords = func() map[string]struct{} {
	list := []string{
		"the", "and", "but", "for", "with", "that", "this", "these", "those", "from", "into", "about", "than",
		"then", "there", "their", "they", "them", "was", "were", "are", "been", "being", "have", "had", "has",
		"his", "her", "its", "our", "which", "who", "whom", "what", "when", "where", "why", "how", "not", "all",
		"any", "can", "could", "would", "should", "will", "shall", "may", "might", "must", "also", "such", "only",
		"own", "same", "very", "just", "over", "under", "after", "before", "between", "through", "during",
	}
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}()

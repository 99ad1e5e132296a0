package domain

import "context"

// Chunk is a bounded passage of the corpus used as the unit of retrieval.
type Chunk struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
	Chapter string `json:"chapter,omitempty"`
}

// SearchResult represents a matching chunk with a relevance score.
// Scores are only comparable within one query's result set.
type SearchResult struct {
	Response  string  `json:"response"`
	Reference string  `json:"reference"`
	Score     float64 `json:"score"`
}

// AnswerSource names the tier of the fallback chain that produced an answer.
type AnswerSource string

const (
	SourceGenerated AnswerSource = "generated"
	SourceSummary   AnswerSource = "summary"
	SourceKnowledge AnswerSource = "knowledge"
	SourceFallback  AnswerSource = "fallback"
)

// Answer is what the presentation layer displays (and reads aloud) for a query.
// A nil Score means no match was found.
type Answer struct {
	Content        string         `json:"content"`
	Reference      string         `json:"reference,omitempty"`
	Score          *float64       `json:"score,omitempty"`
	RelatedResults []SearchResult `json:"relatedResults,omitempty"`
	Source         AnswerSource   `json:"source"`
}

// QAEntry is a hand-curated answer selected by keyword.
type QAEntry struct {
	Keywords  []string `json:"keywords" yaml:"keywords"`
	Response  string   `json:"response" yaml:"response"`
	Reference string   `json:"reference" yaml:"reference"`
}

// Chunker splits raw corpus text into retrievable chunks.
type Chunker interface {
	Chunk(raw string) []Chunk
}

// Searcher ranks chunks against a free-text query.
type Searcher interface {
	Search(query string, chunks []Chunk) []SearchResult
}

// Summarizer builds a short extractive answer from ranked results.
type Summarizer interface {
	Summarize(query string, results []SearchResult) string
}

// Generator re-phrases retrieved passages into an answer.
// Implementations are best-effort: any error means "unavailable".
type Generator interface {
	Name() string
	Generate(ctx context.Context, query string, passages []string) (string, error)
}

// KnowledgeBase resolves queries the search engine could not answer.
type KnowledgeBase interface {
	Lookup(query string) (QAEntry, bool)
	Fallback() QAEntry
}

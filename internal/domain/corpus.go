package domain

import "time"

// Corpus is the immutable, session-scoped set of chunks produced by one load.
// A reload builds a new Corpus instead of mutating the old one.
type Corpus struct {
	chunks   []Chunk
	sources  []string
	chars    int
	loadedAt time.Time
}

// NewCorpus takes ownership of chunks; callers must not modify the slice afterwards.
func NewCorpus(chunks []Chunk, sources []string, chars int) *Corpus {
	return &Corpus{
		chunks:   chunks,
		sources:  append([]string(nil), sources...),
		chars:    chars,
		loadedAt: time.Now(),
	}
}

// Chunks returns the chunk sequence in chunking order.
func (c *Corpus) Chunks() []Chunk {
	if c == nil {
		return nil
	}
	return c.chunks
}

// Stats describes a loaded corpus.
type Stats struct {
	Chunks   int       `json:"chunks"`
	Chars    int       `json:"chars"`
	Sources  []string  `json:"sources"`
	LoadedAt time.Time `json:"loaded_at"`
}

func (c *Corpus) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{Chunks: len(c.chunks), Chars: c.chars, Sources: c.sources, LoadedAt: c.loadedAt}
}

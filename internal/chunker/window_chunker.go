package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"asknehru/internal/domain"
	"asknehru/internal/textnorm"
)

const (
	DefaultSize      = 800
	DefaultOverlap   = 150
	DefaultLookahead = 100
	// MinChunkLength is exclusive: a chunk must be longer than this to be kept.
	MinChunkLength = 50
)

const lineSeps = `\x{2028}\x{2029}`

var (
	// A page number line is digits alone on a line, padded by any whitespace.
	// U+2028 and U+2029 also end lines; they are captured and put back.
	pageNumberRe = regexp.MustCompile(`(?m)(^|[` + lineSeps + `])[` + textnorm.SpaceClass + `]*\d+[` + textnorm.SpaceClass + `]*($|[` + lineSeps + `])`)
	newlinesRe   = regexp.MustCompile(`\n+`)
	whitespaceRe = regexp.MustCompile(`[` + textnorm.SpaceClass + `]+`)
)

// WindowChunker splits text into fixed-size character windows that overlap
// and, where possible, end on a sentence boundary.
type WindowChunker struct {
	size      int
	overlap   int
	lookahead int
}

// Option configures a WindowChunker.
type Option func(*WindowChunker)

// WithSize sets the target chunk size in characters.
func WithSize(size int) Option {
	return func(c *WindowChunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithOverlap sets how many characters consecutive chunks share.
func WithOverlap(overlap int) Option {
	return func(c *WindowChunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithLookahead sets how far past the target size a sentence end is searched for.
func WithLookahead(n int) Option {
	return func(c *WindowChunker) {
		if n >= 0 {
			c.lookahead = n
		}
	}
}

func NewWindowChunker(opts ...Option) *WindowChunker {
	c := &WindowChunker{
		size:      DefaultSize,
		overlap:   DefaultOverlap,
		lookahead: DefaultLookahead,
	}
	for _, opt := range opts {
		opt(c)
	}
	// the cursor must advance every iteration
	if c.overlap >= c.size {
		c.overlap = min(DefaultOverlap, c.size/4)
	}
	return c
}

// Size returns the configured chunk size.
func (c *WindowChunker) Size() int { return c.size }

// Overlap returns the configured overlap.
func (c *WindowChunker) Overlap() int { return c.overlap }

// Clean normalizes line endings, drops page-number lines and flattens the
// text into a single space-separated stream.
func Clean(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = removePageNumbers(text)
	text = newlinesRe.ReplaceAllString(text, " ")
	return whitespaceRe.ReplaceAllString(text, " ")
}

// Chunk cleans raw and cuts it into overlapping chunks. Fragments of
// MinChunkLength characters or fewer are dropped.
func (c *WindowChunker) Chunk(raw string) []domain.Chunk {
	text := []rune(Clean(raw))
	n := len(text)
	var chunks []domain.Chunk
	id := 0
	cursor := 0
	for cursor < n {
		end := cursor + c.size
		if end < n {
			window := text[end:min(end+c.lookahead, n)]
			if i := sentenceEnd(window); i >= 0 {
				end += i + 1
			}
		}
		content := textnorm.Trim(string(text[cursor:min(end, n)]))
		if utf8.RuneCountInString(content) > MinChunkLength {
			chunks = append(chunks, domain.Chunk{ID: id, Content: content})
			id++
		}
		// end may lie past n; the cursor follows the unclamped value.
		cursor = end - c.overlap
		if cursor >= n-1 {
			break
		}
	}
	return chunks
}

// sentenceEnd returns the index of the first '.', '!' or '?' that is followed
// by whitespace inside window, or -1.
func sentenceEnd(window []rune) int {
	for i := 0; i+1 < len(window); i++ {
		switch window[i] {
		case '.', '!', '?':
			if textnorm.IsSpace(window[i+1]) {
				return i
			}
		}
	}
	return -1
}

// removePageNumbers repeats the replacement until nothing changes, since a
// line separator consumed as the end of one page line can also be the start
// of the next.
func removePageNumbers(text string) string {
	for {
		next := pageNumberRe.ReplaceAllString(text, "${1}${2}")
		if next == text {
			return text
		}
		text = next
	}
}

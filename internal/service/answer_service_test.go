package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asknehru/internal/chunker"
	"asknehru/internal/domain"
	"asknehru/internal/generator"
	"asknehru/internal/knowledge"
	"asknehru/internal/search"
	"asknehru/internal/summarizer"
)

const book = `The scientific temper is the way of the free mind, observation and experiment replacing dogma and superstition. ` +
	`What is the scientific temper? It is the search for truth and new knowledge, the refusal to accept anything without testing and trial. ` +
	`The scientific temper points out the way along which man should travel.`

type fakeGenerator struct {
	mu       sync.Mutex
	text     string
	err      error
	wait     time.Duration
	passages []string
	calls    int
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(ctx context.Context, _ string, passages []string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.passages = passages
	f.mu.Unlock()
	if f.wait > 0 {
		select {
		case <-time.After(f.wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

type recorder struct {
	mu       sync.Mutex
	sources  []string
	failures []string
	loads    []int
}

func (r *recorder) RecordAnswer(source string, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
}

func (r *recorder) RecordGeneratorFailure(_, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, reason)
}

func (r *recorder) RecordCorpusLoad(chunks int, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads = append(r.loads, chunks)
}

func newService(gen domain.Generator, opts Options) *AnswerService {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return NewAnswerService(
		chunker.NewWindowChunker(),
		search.NewLexicalSearcher(search.DefaultWeights(), search.DefaultTopK),
		summarizer.NewExtractiveSummarizer(3, 3),
		gen,
		knowledge.Default(),
		opts,
	)
}

func TestAnswer_SummaryWhenGeneratorUnavailable(t *testing.T) {
	rec := &recorder{}
	svc := newService(generator.None{}, Options{Provenance: "The Discovery of India", Recorder: rec})
	svc.LoadText(book, "book.txt")

	ans := svc.Answer(context.Background(), "What is the scientific temper?")

	assert.Equal(t, domain.SourceSummary, ans.Source)
	require.NotNil(t, ans.Score)
	assert.GreaterOrEqual(t, *ans.Score, 40.0)
	assert.Equal(t, "The Discovery of India", ans.Reference)
	require.NotEmpty(t, ans.RelatedResults)
	assert.Equal(t, ans.RelatedResults[0].Score, *ans.Score)
	assert.Contains(t, ans.Content, "scientific temper")
	assert.Equal(t, []string{"summary"}, rec.sources)
	assert.Equal(t, []string{"unavailable"}, rec.failures)
}

func TestAnswer_Generated(t *testing.T) {
	gen := &fakeGenerator{text: "The scientific temper, my friend, is a way of life."}
	svc := newService(gen, Options{Provenance: "ignored"})
	svc.LoadText(book)

	ans := svc.Answer(context.Background(), "scientific temper")

	assert.Equal(t, domain.SourceGenerated, ans.Source)
	assert.Equal(t, gen.text, ans.Content)
	assert.Empty(t, ans.Reference)
	require.NotNil(t, ans.Score)
	assert.NotEmpty(t, ans.RelatedResults)
	assert.LessOrEqual(t, len(gen.passages), 3)
	assert.Equal(t, ans.RelatedResults[0].Response, gen.passages[0])
}

func TestAnswer_GeneratorFailureFallsBackToSummary(t *testing.T) {
	cases := map[string]*fakeGenerator{
		"error": {err: errors.New("boom")},
		"blank": {text: "   \n"},
		"http":  {err: &generator.StatusError{Backend: "fake", Code: 503, Status: "503 Service Unavailable"}},
	}
	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			svc := newService(gen, Options{})
			svc.LoadText(book)
			ans := svc.Answer(context.Background(), "scientific temper")
			assert.Equal(t, domain.SourceSummary, ans.Source)
			assert.NotEmpty(t, ans.Content)
			assert.Empty(t, ans.Reference)
		})
	}
}

func TestAnswer_GeneratorTimeout(t *testing.T) {
	rec := &recorder{}
	gen := &fakeGenerator{text: "too late", wait: time.Second}
	svc := newService(gen, Options{GeneratorTimeout: 20 * time.Millisecond, Recorder: rec})
	svc.LoadText(book)

	ans := svc.Answer(context.Background(), "scientific temper")
	assert.Equal(t, domain.SourceSummary, ans.Source)
	assert.Equal(t, []string{"timeout"}, rec.failures)
}

func TestAnswer_StopWordQueryFallsThrough(t *testing.T) {
	gen := &fakeGenerator{text: "unused"}
	svc := newService(gen, Options{})
	svc.LoadText(book)

	ans := svc.Answer(context.Background(), "What is the meaning of this?")

	assert.Empty(t, svc.Search("What is the"))
	assert.Contains(t, []domain.AnswerSource{domain.SourceKnowledge, domain.SourceFallback}, ans.Source)
	assert.Equal(t, 0, gen.calls)
}

func TestAnswer_KnowledgeBase(t *testing.T) {
	svc := newService(nil, Options{})
	svc.LoadText(book)

	ans := svc.Answer(context.Background(), "Who was Gandhi?")

	assert.Equal(t, domain.SourceKnowledge, ans.Source)
	require.NotNil(t, ans.Score)
	assert.Equal(t, 100.0, *ans.Score)
	assert.True(t, strings.HasPrefix(ans.Content, "Nehru writes extensively about Gandhi"))
	assert.Equal(t, "The Discovery of India", ans.Reference)
	assert.Empty(t, ans.RelatedResults)
}

func TestAnswer_Fallback(t *testing.T) {
	svc := newService(nil, Options{})

	ans := svc.Answer(context.Background(), "Tell me about quantum chromodynamics")

	assert.Equal(t, domain.SourceFallback, ans.Source)
	assert.Nil(t, ans.Score)
	assert.Equal(t, "System Guide", ans.Reference)
	assert.Equal(t, knowledge.Default().Fallback().Response, ans.Content)
}

func TestAnswer_TinyCorpus(t *testing.T) {
	svc := newService(nil, Options{})
	stats := svc.LoadText("Short text that will not form any chunk.")
	assert.Zero(t, stats.Chunks)

	ans := svc.Answer(context.Background(), "short text chunk")
	assert.Equal(t, domain.SourceFallback, ans.Source)
}

func TestLoad_FromFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.txt")
	require.NoError(t, os.WriteFile(path, []byte(book+"\n42\n"), 0o644))

	rec := &recorder{}
	svc := newService(nil, Options{Recorder: rec})
	stats, err := svc.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, []string{path}, stats.Sources)
	assert.Equal(t, stats, svc.Stats())
	assert.NotEmpty(t, svc.Overview())
	assert.NotContains(t, svc.Chunks()[0].Content, "42")
	assert.Equal(t, []int{1}, rec.loads)
}

func TestLoad_ErrorKeepsPreviousCorpus(t *testing.T) {
	svc := newService(nil, Options{})
	svc.LoadText(book)

	_, err := svc.Load(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Equal(t, 1, svc.Stats().Chunks)
}

func TestAnswer_ConcurrentWithReload(t *testing.T) {
	svc := newService(nil, Options{})
	svc.LoadText(book)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				ans := svc.Answer(context.Background(), "scientific temper")
				assert.Equal(t, domain.SourceSummary, ans.Source)
			}
		}()
	}
	for i := 0; i < 5; i++ {
		svc.LoadText(book)
	}
	wg.Wait()
}

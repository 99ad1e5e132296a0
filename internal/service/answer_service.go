package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"asknehru/internal/corpus"
	"asknehru/internal/domain"
	"asknehru/internal/generator"
	"asknehru/internal/summarizer"
)

// KnowledgeScore is the match score reported for curated answers.
const KnowledgeScore = 100.0

// generatorPassages is how many ranked passages are handed to the generator.
const generatorPassages = 3

// Recorder receives answer and corpus telemetry. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordAnswer(source string, results int, d time.Duration)
	RecordGeneratorFailure(generator, reason string)
	RecordCorpusLoad(chunks int, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordAnswer(string, int, time.Duration) {}
func (nopRecorder) RecordGeneratorFailure(string, string)   {}
func (nopRecorder) RecordCorpusLoad(int, error)             {}

// Options carries the optional collaborators of an AnswerService.
type Options struct {
	// Provenance is the reference attached to extractive summaries.
	Provenance string
	// GeneratorTimeout bounds a single generator call; zero means no bound.
	GeneratorTimeout  time.Duration
	OverviewSentences int
	Logger            *slog.Logger
	Recorder          Recorder
}

type session struct {
	corpus   *domain.Corpus
	overview string
}

// AnswerService answers questions about the loaded book.
type AnswerService struct {
	chunker    domain.Chunker
	searcher   domain.Searcher
	summarizer domain.Summarizer
	generator  domain.Generator
	knowledge  domain.KnowledgeBase

	provenance        string
	generatorTimeout  time.Duration
	overviewSentences int
	log               *slog.Logger
	recorder          Recorder

	current atomic.Pointer[session]
}

func NewAnswerService(chunker domain.Chunker, searcher domain.Searcher, summ domain.Summarizer, gen domain.Generator, kb domain.KnowledgeBase, opts Options) *AnswerService {
	if gen == nil {
		gen = generator.None{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.OverviewSentences <= 0 {
		opts.OverviewSentences = 5
	}
	s := &AnswerService{
		chunker:           chunker,
		searcher:          searcher,
		summarizer:        summ,
		generator:         gen,
		knowledge:         kb,
		provenance:        opts.Provenance,
		generatorTimeout:  opts.GeneratorTimeout,
		overviewSentences: opts.OverviewSentences,
		log:               opts.Logger,
		recorder:          opts.Recorder,
	}
	s.current.Store(&session{corpus: domain.NewCorpus(nil, nil, 0)})
	return s
}

// Load reads the files matched by paths and replaces the active corpus.
// On error the previous corpus stays in place.
func (s *AnswerService) Load(ctx context.Context, paths ...string) (domain.Stats, error) {
	text, err := corpus.Load(paths...)
	if err != nil {
		s.recorder.RecordCorpusLoad(0, err)
		return domain.Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		s.recorder.RecordCorpusLoad(0, err)
		return domain.Stats{}, err
	}
	if len(text.Sources) == 0 {
		s.log.Warn("no corpus files matched; answers will come from the knowledge base", "paths", paths)
	}
	return s.LoadText(text.Content, text.Sources...), nil
}

// LoadText chunks raw and swaps it in as the active corpus.
func (s *AnswerService) LoadText(raw string, sources ...string) domain.Stats {
	start := time.Now()
	chunks := s.chunker.Chunk(raw)
	next := &session{
		corpus:   domain.NewCorpus(chunks, sources, len([]rune(raw))),
		overview: summarizer.Overview(raw, s.overviewSentences),
	}
	s.current.Store(next)
	s.recorder.RecordCorpusLoad(len(chunks), nil)
	s.log.Info("corpus loaded", "chunks", len(chunks), "sources", len(sources), "took", time.Since(start))
	return next.corpus.Stats()
}

// Stats describes the active corpus.
func (s *AnswerService) Stats() domain.Stats { return s.current.Load().corpus.Stats() }

// Chunks returns the chunks of the active corpus.
func (s *AnswerService) Chunks() []domain.Chunk { return s.current.Load().corpus.Chunks() }

// Overview is a frequency-based digest of the whole corpus.
func (s *AnswerService) Overview() string { return s.current.Load().overview }

// Search ranks the active corpus against query.
func (s *AnswerService) Search(query string) []domain.SearchResult {
	return s.searcher.Search(query, s.current.Load().corpus.Chunks())
}

// Answer never fails. It tries, in order: a generated answer over the ranked
// passages, an extractive summary of them, a curated knowledge-base entry and
// finally the fixed fallback.
func (s *AnswerService) Answer(ctx context.Context, query string) domain.Answer {
	start := time.Now()
	results := s.Search(query)
	ans := s.answer(ctx, query, results)
	s.recorder.RecordAnswer(string(ans.Source), len(results), time.Since(start))
	s.log.Debug("answered", "source", ans.Source, "results", len(results), "took", time.Since(start))
	return ans
}

func (s *AnswerService) answer(ctx context.Context, query string, results []domain.SearchResult) domain.Answer {
	if len(results) > 0 {
		score := results[0].Score
		if text, ok := s.generate(ctx, query, results); ok {
			return domain.Answer{
				Content:        text,
				Score:          &score,
				RelatedResults: results,
				Source:         domain.SourceGenerated,
			}
		}
		return domain.Answer{
			Content:        s.summarizer.Summarize(query, results),
			Reference:      s.provenance,
			Score:          &score,
			RelatedResults: results,
			Source:         domain.SourceSummary,
		}
	}

	if entry, ok := s.knowledge.Lookup(query); ok {
		score := KnowledgeScore
		return domain.Answer{
			Content:   entry.Response,
			Reference: entry.Reference,
			Score:     &score,
			Source:    domain.SourceKnowledge,
		}
	}

	fb := s.knowledge.Fallback()
	return domain.Answer{Content: fb.Response, Reference: fb.Reference, Source: domain.SourceFallback}
}

func (s *AnswerService) generate(ctx context.Context, query string, results []domain.SearchResult) (string, bool) {
	passages := make([]string, 0, generatorPassages)
	for _, r := range results[:min(generatorPassages, len(results))] {
		passages = append(passages, r.Response)
	}
	if s.generatorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.generatorTimeout)
		defer cancel()
	}

	name := s.generator.Name()
	text, err := s.generator.Generate(ctx, query, passages)
	switch {
	case errors.Is(err, generator.ErrUnavailable):
		s.log.Debug("generator unavailable, using summary", "generator", name, "error", err)
		s.recorder.RecordGeneratorFailure(name, "unavailable")
		return "", false
	case err != nil:
		s.log.Warn("generator failed, using summary", "generator", name, "error", err)
		s.recorder.RecordGeneratorFailure(name, reason(err))
		return "", false
	case strings.TrimSpace(text) == "":
		s.log.Warn("generator returned no text, using summary", "generator", name)
		s.recorder.RecordGeneratorFailure(name, "empty")
		return "", false
	}
	return text, true
}

func reason(err error) string {
	var se *generator.StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &se):
		return fmt.Sprintf("http_%d", se.Code)
	default:
		return "error"
	}
}

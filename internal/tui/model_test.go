package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asknehru/internal/domain"
	"asknehru/internal/speech"
)

type fakeAnswerer struct{ queries []string }

func (f *fakeAnswerer) Answer(_ context.Context, query string) domain.Answer {
	f.queries = append(f.queries, query)
	score := 56.0
	return domain.Answer{
		Content:        "The scientific temper is the way of the free mind.",
		Reference:      "The Discovery of India",
		Score:          &score,
		RelatedResults: []domain.SearchResult{{Response: "Science deals with facts. The scientific temper goes further.", Score: 56}},
		Source:         domain.SourceSummary,
	}
}

type fakeSpeaker struct {
	events   chan speech.Event
	spoken   []string
	speaking bool
	paused   bool
	err      error
}

func newFakeSpeaker() *fakeSpeaker { return &fakeSpeaker{events: make(chan speech.Event, 1)} }

func (s *fakeSpeaker) Speak(text string) error {
	if s.err != nil {
		return s.err
	}
	s.spoken = append(s.spoken, text)
	s.speaking = true
	return nil
}
func (s *fakeSpeaker) Stop()                       { s.speaking, s.paused = false, false }
func (s *fakeSpeaker) Pause() error                { s.paused = true; return nil }
func (s *fakeSpeaker) Resume() error               { s.paused = false; return nil }
func (s *fakeSpeaker) Speaking() bool              { return s.speaking }
func (s *fakeSpeaker) Paused() bool                { return s.paused }
func (s *fakeSpeaker) Events() <-chan speech.Event { return s.events }

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func chatModel(t *testing.T, svc Answerer, sp Speaker) Model {
	t.Helper()
	m := New(svc, sp, Options{SkipIntro: true, Overview: "India is a land of unity in diversity."})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

// ask submits a question and feeds the answer back into the model.
func ask(t *testing.T, m Model, q string) Model {
	t.Helper()
	m.input.SetValue(q)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	return m
}

func TestIntro_TicksAdvanceScenes(t *testing.T) {
	m := New(&fakeAnswerer{}, nil, Options{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Contains(t, m.View(), "ASK NEHRU")

	m, cmd := update(t, m, introTickMsg{scene: 0})
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "A nation awakens.")

	// a stale tick is ignored
	m, _ = update(t, m, introTickMsg{scene: 0})
	assert.Equal(t, 1, m.intro)

	m, _ = update(t, m, introTickMsg{scene: 1})
	m, _ = update(t, m, introTickMsg{scene: 2})
	assert.False(t, m.inIntro())
	assert.Contains(t, m.View(), "[1] What is the central idea")
}

func TestIntro_AnyKeySkips(t *testing.T) {
	m := New(&fakeAnswerer{}, nil, Options{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = update(t, m, runes("x"))
	assert.False(t, m.inIntro())
	assert.Empty(t, m.input.Value())
}

func TestAsk_RendersAnswer(t *testing.T) {
	svc := &fakeAnswerer{}
	m := chatModel(t, svc, nil)

	m.input.SetValue("What is the scientific temper?")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.pending)
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.View(), "thinking")

	m, _ = update(t, m, cmd())
	assert.False(t, m.pending)
	view := m.View()
	assert.Contains(t, view, "MATCH SCORE: 56")
	assert.Contains(t, view, "Reference: The Discovery of India")
	assert.Contains(t, view, "Other relevant excerpts")
	assert.Equal(t, []string{"What is the scientific temper?"}, svc.queries)
}

func TestAsk_BlankIgnored(t *testing.T) {
	m := chatModel(t, &fakeAnswerer{}, nil)
	m.input.SetValue("   ")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, m.messages)
}

func TestSuggestedPromptByNumber(t *testing.T) {
	svc := &fakeAnswerer{}
	m := chatModel(t, svc, nil)

	m, cmd := update(t, m, runes("4"))
	require.NotNil(t, cmd)
	_, _ = update(t, m, cmd())
	assert.Equal(t, []string{"What is the scientific temper?"}, svc.queries)
}

func TestNumberKeysTypeOnceChatting(t *testing.T) {
	m := ask(t, chatModel(t, &fakeAnswerer{}, nil), "first")
	m, _ = update(t, m, runes("4"))
	assert.Equal(t, "4", m.input.Value())
}

func TestNewerQuestionSupersedesAnswer(t *testing.T) {
	m := chatModel(t, &fakeAnswerer{}, nil)
	m.input.SetValue("first")
	m, first := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.input.SetValue("second")
	m, second := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, _ = update(t, m, first())
	assert.True(t, m.pending)
	assert.Len(t, m.messages, 2)

	m, _ = update(t, m, second())
	assert.False(t, m.pending)
	require.Len(t, m.messages, 3)
	assert.Equal(t, "second", m.messages[2].query)
}

func TestSpeech_NotSupportedNotice(t *testing.T) {
	m := ask(t, chatModel(t, &fakeAnswerer{}, nil), "temper")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "not supported")

	m, _ = update(t, m, clearNotice{seq: m.noticeSeq})
	assert.Empty(t, m.notice)
}

func TestSpeech_StaleClearKeepsNewerNotice(t *testing.T) {
	m := ask(t, chatModel(t, &fakeAnswerer{}, nil), "temper")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	m, _ = update(t, m, clearNotice{seq: 1})
	assert.NotEmpty(t, m.notice)
}

func TestSpeech_ToggleAndPause(t *testing.T) {
	sp := newFakeSpeaker()
	m := chatModel(t, &fakeAnswerer{}, sp)

	// nothing to speak yet
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Empty(t, sp.spoken)

	m = ask(t, m, "temper")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Len(t, sp.spoken, 1)
	assert.True(t, strings.HasPrefix(sp.spoken[0], "The scientific temper"))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.True(t, sp.paused)
	assert.Contains(t, m.View(), "paused")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.False(t, sp.paused)

	_, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.False(t, sp.speaking)
}

func TestSpeech_ErrorEventShowsNotice(t *testing.T) {
	sp := newFakeSpeaker()
	m := chatModel(t, &fakeAnswerer{}, sp)

	m, cmd := update(t, m, speechMsg{Kind: speech.EventError, Err: errors.New("device busy")})
	assert.NotNil(t, cmd)
	assert.Contains(t, m.notice, "Audio playback failed")
}

func TestSpeech_StartFailure(t *testing.T) {
	sp := newFakeSpeaker()
	sp.err = speech.ErrUnsupported
	m := ask(t, chatModel(t, &fakeAnswerer{}, sp), "temper")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, "Text-to-speech is not supported here.", m.notice)
}

func TestHighlightBestSentence(t *testing.T) {
	text := "Rivers flow. The scientific temper is vital. Mountains stand."
	out := highlightBestSentence(text, "scientific temper")
	assert.Contains(t, out, "The scientific temper is vital.")
	assert.Contains(t, out, "Rivers flow.")

	assert.Equal(t, "", highlightBestSentence("", "x"))
}

func TestScoreBadge(t *testing.T) {
	assert.Contains(t, scoreBadge(56), "MATCH SCORE: 56")
	assert.Contains(t, scoreBadge(33.6), "MATCH SCORE: 33.6")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc…", truncate("abcdef", 3))
}

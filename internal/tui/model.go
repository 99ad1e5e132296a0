package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"asknehru/internal/domain"
	"asknehru/internal/speech"
)

const (
	noticeDuration = 3 * time.Second
	answerTimeout  = 2 * time.Minute
)

// SuggestedPrompts are offered, numbered, while the transcript is empty.
var SuggestedPrompts = []string{
	"What is the central idea of The Discovery of India?",
	"How has India's past shaped its present?",
	"Tell me about 'Unity in Diversity'.",
	"What is the scientific temper?",
	"How did the British Empire impact India's economy?",
	"What is the significance of the caste system in Indian history?",
	"Discuss the role of religion in Indian society.",
	"What is the future of India according to Nehru?",
}

// Answerer is the TUI-facing subset of the answer service.
type Answerer interface {
	Answer(ctx context.Context, query string) domain.Answer
}

// Speaker reads answers aloud. *speech.Player satisfies it.
type Speaker interface {
	Speak(text string) error
	Stop()
	Pause() error
	Resume() error
	Speaking() bool
	Paused() bool
	Events() <-chan speech.Event
}

type role int

const (
	roleUser role = iota
	roleAssistant
)

type message struct {
	role   role
	query  string
	answer domain.Answer
}

type (
	answerMsg struct {
		seq    int
		query  string
		answer domain.Answer
	}
	speechMsg   speech.Event
	clearNotice struct{ seq int }
)

// Options tweaks the initial state of the UI.
type Options struct {
	SkipIntro bool
	// Overview is shown under the header, typically a digest of the book.
	Overview string
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	service  Answerer
	speaker  Speaker
	input    textinput.Model
	viewport viewport.Model
	overview string

	intro int // index into introScenes; len(introScenes) once chatting

	messages []message
	seq      int
	pending  bool

	notice    string
	noticeSeq int

	width, height int
	ready         bool
}

// New creates a new TUI model instance. speaker may be nil.
func New(service Answerer, speaker Speaker, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question..."
	ti.Focus()
	ti.CharLimit = 0
	m := Model{
		service:  service,
		speaker:  speaker,
		input:    ti,
		viewport: viewport.New(0, 0),
		overview: opts.Overview,
	}
	if opts.SkipIntro {
		m.intro = len(introScenes)
	}
	return m
}

// Init starts the intro timer, the cursor blink and the speech listener.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.inIntro() {
		cmds = append(cmds, introTick(m.intro))
	}
	if m.speaker != nil {
		cmds = append(cmds, listenSpeech(m.speaker.Events()))
	}
	return tea.Batch(cmds...)
}

func (m Model) inIntro() bool { return m.intro < len(introScenes) }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case introTickMsg:
		if msg.scene != m.intro || !m.inIntro() {
			return m, nil
		}
		m.intro++
		if m.inIntro() {
			return m, introTick(m.intro)
		}
		m.refresh()
		return m, nil

	case answerMsg:
		if msg.seq != m.seq {
			// superseded by a newer question
			return m, nil
		}
		m.pending = false
		m.messages = append(m.messages, message{role: roleAssistant, query: msg.query, answer: msg.answer})
		m.refresh()
		return m, nil

	case speechMsg:
		var cmd tea.Cmd
		if msg.Kind == speech.EventError {
			m, cmd = m.showNotice("Audio playback failed. Check the speech command.")
		}
		return m, tea.Batch(cmd, listenSpeech(m.speaker.Events()))

	case clearNotice:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			if m.speaker != nil {
				m.speaker.Stop()
			}
			return m, tea.Quit
		}
		if m.inIntro() {
			m.intro = len(introScenes)
			m.refresh()
			return m, nil
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "enter":
		return m.ask(m.input.Value())
	case "ctrl+s":
		return m.toggleSpeech()
	case "ctrl+p":
		return m.togglePause()
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case "1", "2", "3", "4", "5", "6", "7", "8":
		if len(m.messages) == 0 && m.input.Value() == "" {
			return m.ask(SuggestedPrompts[key[0]-'1'])
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(text string) (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(text)
	if q == "" {
		return m, nil
	}
	m.input.SetValue("")
	m.messages = append(m.messages, message{role: roleUser, query: q})
	m.seq++
	m.pending = true
	m.refresh()

	seq, svc := m.seq, m.service
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), answerTimeout)
		defer cancel()
		return answerMsg{seq: seq, query: q, answer: svc.Answer(ctx, q)}
	}
}

func (m Model) lastAnswer() (domain.Answer, bool) {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].role == roleAssistant {
			return m.messages[i].answer, true
		}
	}
	return domain.Answer{}, false
}

func (m Model) toggleSpeech() (Model, tea.Cmd) {
	ans, ok := m.lastAnswer()
	if !ok {
		return m, nil
	}
	if m.speaker == nil {
		return m.showNotice("Text-to-speech is not supported here.")
	}
	if m.speaker.Speaking() {
		m.speaker.Stop()
		return m, nil
	}
	if err := m.speaker.Speak(ans.Content); err != nil {
		return m.showNotice(speechNotice(err))
	}
	return m, nil
}

func (m Model) togglePause() (Model, tea.Cmd) {
	if m.speaker == nil || !m.speaker.Speaking() {
		return m, nil
	}
	var err error
	if m.speaker.Paused() {
		err = m.speaker.Resume()
	} else {
		err = m.speaker.Pause()
	}
	if err != nil {
		return m.showNotice(speechNotice(err))
	}
	return m, nil
}

func speechNotice(err error) string {
	if errors.Is(err, speech.ErrUnsupported) {
		return "Text-to-speech is not supported here."
	}
	return "Audio playback failed. Check the speech command."
}

func (m Model) showNotice(text string) (Model, tea.Cmd) {
	m.notice = text
	m.noticeSeq++
	seq := m.noticeSeq
	return m, tea.Tick(noticeDuration, func(time.Time) tea.Msg { return clearNotice{seq: seq} })
}

func listenSpeech(events <-chan speech.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return speechMsg(ev)
	}
}

func (m *Model) layout() {
	_, th := transcriptStyle.GetFrameSize()
	_, ih := inputBoxStyle.GetFrameSize()
	reserved := 3 + ih + 1 + 1 // header, overview, notice; input box; status
	m.viewport.Width = max(20, m.width-2)
	m.viewport.Height = max(3, m.height-reserved-th)
	m.input.Width = max(10, m.width-6)
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript(max(20, m.viewport.Width-2)))
	m.viewport.GotoBottom()
}

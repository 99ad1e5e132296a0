package tui

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"asknehru/internal/domain"
)

var (
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	nehruStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	noticeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	highScoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Padding(0, 1)
	lowScoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")).Padding(0, 1)
	highlightStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	introStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Align(lipgloss.Center)

	unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe    = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

const excerptRunes = 280

// View renders the intro scene or the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.inIntro() {
		body := introStyle.Render(strings.Join(introScenes[m.intro].lines, "\n"))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}

	header := headerStyle.Render("Ask Nehru") + dimStyle.Render("  ·  The Discovery of India")
	overview := dimStyle.Render(truncate(firstLine(m.overview), max(10, m.width-2)))
	notice := noticeStyle.Render(m.notice)
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status())
	return header + "\n" + overview + "\n" + notice + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) status() string {
	var parts []string
	if m.pending {
		parts = append(parts, "Nehru is thinking…")
	}
	if m.speaker != nil && m.speaker.Speaking() {
		if m.speaker.Paused() {
			parts = append(parts, "paused")
		} else {
			parts = append(parts, "speaking")
		}
	}
	parts = append(parts, "enter ask · ctrl+s speak/stop · ctrl+p pause · ctrl+c quit")
	return strings.Join(parts, "  ·  ")
}

func (m Model) renderTranscript(width int) string {
	if len(m.messages) == 0 {
		var b strings.Builder
		b.WriteString(dimStyle.Render("Try one of these, or type your own question:"))
		b.WriteString("\n\n")
		for i, p := range SuggestedPrompts {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, p)
		}
		return b.String()
	}

	wrap := lipgloss.NewStyle().Width(width)
	var b strings.Builder
	for _, msg := range m.messages {
		switch msg.role {
		case roleUser:
			b.WriteString(userStyle.Render("You") + "\n")
			b.WriteString(wrap.Render(msg.query) + "\n\n")
		case roleAssistant:
			b.WriteString(renderAnswer(msg.query, msg.answer, wrap))
		}
	}
	if m.pending {
		b.WriteString(dimStyle.Render("Nehru is reflecting…") + "\n")
	}
	return b.String()
}

func renderAnswer(query string, ans domain.Answer, wrap lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(nehruStyle.Render("Nehru"))
	if ans.Score != nil {
		b.WriteString("  " + scoreBadge(*ans.Score))
	}
	b.WriteString("\n")
	b.WriteString(wrap.Render(ans.Content) + "\n")
	if ans.Reference != "" {
		b.WriteString(dimStyle.Render("Reference: "+ans.Reference) + "\n")
	}
	if len(ans.RelatedResults) > 0 {
		b.WriteString("\n" + dimStyle.Render("Other relevant excerpts") + "\n")
		for _, r := range ans.RelatedResults {
			excerpt := highlightBestSentence(truncate(r.Response, excerptRunes), query)
			b.WriteString(wrap.Render("  \""+excerpt+"\"") + "\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

// scoreBadge is green above 50 and yellow otherwise.
func scoreBadge(score float64) string {
	text := "MATCH SCORE: " + strconv.FormatFloat(score, 'f', -1, 64)
	if score > 50 {
		return highScoreStyle.Render(text)
	}
	return lowScoreStyle.Render(text)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx && bestScore > 0 {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}

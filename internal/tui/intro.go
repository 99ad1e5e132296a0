package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type scene struct {
	lines []string
	hold  time.Duration
}

var introScenes = []scene{
	{lines: []string{"ASK NEHRU", "", "The Discovery of India"}, hold: 2500 * time.Millisecond},
	{lines: []string{"15 August 1947", "Midnight.", "A nation awakens."}, hold: 3500 * time.Millisecond},
	{lines: []string{
		"\"Long years ago, we made a tryst with destiny,",
		"and now the time comes when we shall redeem our pledge.\"",
		"",
		"Ask the book anything. Press any key to enter.",
	}, hold: 6 * time.Second},
}

type introTickMsg struct{ scene int }

func introTick(sceneIdx int) tea.Cmd {
	return tea.Tick(introScenes[sceneIdx].hold, func(time.Time) tea.Msg {
		return introTickMsg{scene: sceneIdx}
	})
}

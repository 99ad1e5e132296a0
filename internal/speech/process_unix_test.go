//go:build !windows

package speech

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecEngine_RunsCommand(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	p := NewPlayer(NewExecEngine("true"))
	require.NoError(t, p.Speak("hello"))
	assert.Equal(t, EventEnd, nextEvent(t, p).Kind)
}

func TestExecEngine_FailingCommand(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	p := NewPlayer(NewExecEngine("false"))
	require.NoError(t, p.Speak("hello"))
	assert.Equal(t, EventError, nextEvent(t, p).Kind)
}

func TestExecEngine_PauseResumeStop(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	p := NewPlayer(NewExecEngine("sleep"))
	require.NoError(t, p.Speak("5"))

	require.NoError(t, p.Pause())
	assert.True(t, p.Paused())
	require.NoError(t, p.Resume())

	p.Stop()
	assert.False(t, p.Speaking())
	assertNoEvent(t, p)
}

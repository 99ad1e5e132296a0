package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// ExecEngine speaks by running an external command such as espeak or say,
// with the text appended as the final argument.
type ExecEngine struct {
	command string
	args    []string
}

func NewExecEngine(command string, args ...string) *ExecEngine {
	return &ExecEngine{command: command, args: args}
}

func (e *ExecEngine) Start(ctx context.Context, text string) (Utterance, error) {
	if e.command == "" {
		return nil, fmt.Errorf("%w: no speech command configured", ErrUnsupported)
	}
	path, err := exec.LookPath(e.command)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	args := append(append([]string(nil), e.args...), text)
	cmd := exec.CommandContext(ctx, path, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", e.command, err)
	}
	return &process{cmd: cmd}, nil
}

type process struct {
	cmd *exec.Cmd

	mu      sync.Mutex
	stopped bool
}

func (p *process) Wait() error {
	err := p.cmd.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("speech command failed: %w", err)
	}
	return err
}

func (p *process) Stop() error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

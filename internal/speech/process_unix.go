//go:build !windows

package speech

import "syscall"

// Pause suspends the speech process with SIGSTOP.
func (p *process) Pause() error { return p.cmd.Process.Signal(syscall.SIGSTOP) }

func (p *process) Resume() error { return p.cmd.Process.Signal(syscall.SIGCONT) }

//go:build windows

package speech

// Windows processes cannot be suspended with a signal.
func (p *process) Pause() error { return ErrUnsupported }

func (p *process) Resume() error { return ErrUnsupported }

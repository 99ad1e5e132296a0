// Package speech reads answers aloud through a pluggable text-to-speech engine.
package speech

import (
	"context"
	"errors"
	"sync"
)

// ErrUnsupported means the platform or engine cannot perform the request.
var ErrUnsupported = errors.New("speech not supported")

// EventKind distinguishes the asynchronous outcomes of an utterance.
type EventKind int

const (
	EventEnd EventKind = iota
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventEnd:
		return "end"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event reports how an utterance finished. Err is set for EventError.
type Event struct {
	Kind EventKind
	Err  error
}

// Utterance is one running speech request.
type Utterance interface {
	// Wait blocks until playback ends and reports why.
	Wait() error
	Stop() error
	Pause() error
	Resume() error
}

// Engine starts utterances.
type Engine interface {
	Start(ctx context.Context, text string) (Utterance, error)
}

type playing struct {
	u       Utterance
	cancel  context.CancelFunc
	paused  bool
	stopped bool
}

// Player owns at most one utterance at a time. Events for utterances that
// were stopped or replaced are not delivered.
type Player struct {
	engine Engine
	events chan Event

	mu      sync.Mutex
	current *playing
}

func NewPlayer(engine Engine) *Player {
	return &Player{engine: engine, events: make(chan Event, 8)}
}

// Events delivers end and error notifications.
func (p *Player) Events() <-chan Event { return p.events }

// Speak cancels whatever is playing and starts text.
func (p *Player) Speak(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	u, err := p.engine.Start(ctx, text)
	if err != nil {
		cancel()
		return err
	}
	cur := &playing{u: u, cancel: cancel}
	p.current = cur
	go p.wait(cur)
	return nil
}

func (p *Player) wait(cur *playing) {
	err := cur.u.Wait()

	p.mu.Lock()
	stopped := cur.stopped
	if p.current == cur {
		p.current = nil
	}
	p.mu.Unlock()
	cur.cancel()

	if stopped {
		return
	}
	ev := Event{Kind: EventEnd}
	if err != nil {
		ev = Event{Kind: EventError, Err: err}
	}
	select {
	case p.events <- ev:
	default:
	}
}

// Stop ends the current utterance, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.current == nil {
		return
	}
	p.current.stopped = true
	_ = p.current.u.Stop()
	p.current.cancel()
	p.current = nil
}

func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.current.paused {
		return nil
	}
	if err := p.current.u.Pause(); err != nil {
		return err
	}
	p.current.paused = true
	return nil
}

func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || !p.current.paused {
		return nil
	}
	if err := p.current.u.Resume(); err != nil {
		return err
	}
	p.current.paused = false
	return nil
}

// Speaking reports whether an utterance is active, paused or not.
func (p *Player) Speaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil && p.current.paused
}

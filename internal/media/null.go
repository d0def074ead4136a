package media

import (
	"context"
	"sync"

	"github.com/desertthunder/stacks/internal/shared"
)

// Null is a [Resource] without audio output. It acknowledges transport commands with play and pause events
// and never advances time, which is enough to drive the engine on machines without a sound daemon.
type Null struct {
	mu      sync.Mutex
	src     string
	events  chan Event
	closed  bool
	elapsed float64
}

func NewNull() *Null {
	return &Null{events: make(chan Event, 16)}
}

func (n *Null) Load(src string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.src = src
	n.elapsed = 0
	return nil
}

func (n *Null) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.src == "" {
		return shared.ErrPlaybackRejected
	}
	n.emit(Event{Kind: Play, Time: n.elapsed, Duration: Unknown})
	return nil
}

func (n *Null) Pause() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emit(Event{Kind: Pause, Time: n.elapsed, Duration: Unknown})
	return nil
}

func (n *Null) Seek(seconds float64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.elapsed = seconds
	n.emit(Event{Kind: TimeUpdate, Time: seconds, Duration: Unknown})
	return nil
}

func (n *Null) SetVolume(float64) error { return nil }

func (n *Null) Events() <-chan Event { return n.events }

func (n *Null) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.closed {
		n.closed = true
		close(n.events)
	}
	return nil
}

// emit drops events nobody reads. Caller holds n.mu.
func (n *Null) emit(ev Event) {
	if n.closed {
		return
	}
	select {
	case n.events <- ev:
	default:
	}
}

package testing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/stacks/internal/media"
)

// FakeMedia is a [media.Resource] that records commands and only emits the events a test pushes with Emit.
type FakeMedia struct {
	mu      sync.Mutex
	calls   []string
	source  string
	volume  float64
	playErr error
	events  chan media.Event
	closed  bool
}

func NewFakeMedia() *FakeMedia {
	return &FakeMedia{events: make(chan media.Event, 64), volume: 1}
}

// RejectPlay makes every following Play call fail with err. Pass nil to accept again.
func (f *FakeMedia) RejectPlay(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playErr = err
}

func (f *FakeMedia) Load(src string) error {
	f.record("load:" + src)
	f.mu.Lock()
	f.source = src
	f.mu.Unlock()
	return nil
}

func (f *FakeMedia) Play(ctx context.Context) error {
	f.mu.Lock()
	err := f.playErr
	f.mu.Unlock()
	if err != nil {
		f.record("play:rejected")
		return err
	}
	f.record("play")
	return nil
}

func (f *FakeMedia) Pause() error {
	f.record("pause")
	return nil
}

func (f *FakeMedia) Seek(seconds float64) error {
	f.record(fmt.Sprintf("seek:%g", seconds))
	return nil
}

func (f *FakeMedia) SetVolume(v float64) error {
	f.record(fmt.Sprintf("volume:%g", v))
	f.mu.Lock()
	f.volume = v
	f.mu.Unlock()
	return nil
}

func (f *FakeMedia) Events() <-chan media.Event { return f.events }

func (f *FakeMedia) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

// Emit queues an event as if the output had fired it.
func (f *FakeMedia) Emit(ev media.Event) {
	f.events <- ev
}

func (f *FakeMedia) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

// Calls returns a copy of the recorded commands.
func (f *FakeMedia) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Count returns how many recorded commands start with prefix.
func (f *FakeMedia) Count(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Reset forgets recorded commands.
func (f *FakeMedia) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *FakeMedia) Source() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source
}

func (f *FakeMedia) Volume() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

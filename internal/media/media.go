// Package media wraps the single audio output used by the playback engine.
//
// A [Resource] behaves like a native audio element: commands are fire-and-forget and state changes come back
// asynchronously as [Event] values on the channel returned by Events. The engine never reads position or
// play state from the resource directly.
package media

import (
	"context"
	"fmt"
	"math"

	"github.com/desertthunder/stacks/internal/shared"
)

// Kind identifies a media event.
type Kind int

const (
	LoadedMetadata Kind = iota
	TimeUpdate
	Ended
	Error
	Play
	Pause
)

func (k Kind) String() string {
	switch k {
	case LoadedMetadata:
		return "loadedmetadata"
	case TimeUpdate:
		return "timeupdate"
	case Ended:
		return "ended"
	case Error:
		return "error"
	case Play:
		return "play"
	case Pause:
		return "pause"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is a notification pushed by a [Resource].
//
// Time and Duration are in seconds. Duration is NaN while unknown.
type Event struct {
	Kind     Kind
	Time     float64
	Duration float64
	Err      error
}

// Resource is an audio output. Play may fail with [shared.ErrPlaybackRejected]; that failure is not fatal.
type Resource interface {
	Load(src string) error
	Play(ctx context.Context) error
	Pause() error
	Seek(seconds float64) error
	SetVolume(v float64) error
	Events() <-chan Event
	Close() error
}

// Unknown is the duration reported before metadata has loaded.
var Unknown = math.NaN()

// Open builds the resource selected by the player config.
func Open(cfg shared.PlayerConfig, opts ...Option) (Resource, error) {
	switch cfg.Backend {
	case "", "mpd":
		return DialMPD(cfg.MPD, cfg.Tick(), opts...)
	case "none":
		return NewNull(), nil
	default:
		return nil, fmt.Errorf("%w: unknown player backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}

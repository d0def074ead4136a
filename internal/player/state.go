package player

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/desertthunder/stacks/internal/models"
)

// Status is the playback state machine position.
type Status int

const (
	Idle Status = iota
	Loading
	Playing
	Paused
	Ended
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is a snapshot of the engine. Consumers receive copies and never mutate the engine through them.
//
// Playlist is shared with the engine; it is replaced wholesale and never modified in place.
type State struct {
	Track       *models.Track  `json:"currentTrack"`
	Index       int            `json:"currentIndex"`
	Playlist    []models.Track `json:"playlist"`
	Status      Status         `json:"status"`
	IsPlaying   bool           `json:"isPlaying"`
	CurrentTime float64        `json:"currentTime"`
	Duration    float64        `json:"duration"` // NaN until metadata loads
	Volume      float64        `json:"volume"`
	IsShuffled  bool           `json:"isShuffled"`
	IsRepeated  bool           `json:"isRepeated"`
}

// MarshalJSON writes an unknown duration as null.
func (s State) MarshalJSON() ([]byte, error) {
	type alias State
	var dur *float64
	if !math.IsNaN(s.Duration) && !math.IsInf(s.Duration, 0) {
		d := s.Duration
		dur = &d
	}
	return json.Marshal(struct {
		alias
		Duration *float64 `json:"duration"`
	}{alias: alias(s), Duration: dur})
}

// Progress is the played fraction in [0,1], or 0 while the duration is unknown.
func (s State) Progress() float64 {
	if math.IsNaN(s.Duration) || s.Duration <= 0 {
		return 0
	}
	return math.Min(1, math.Max(0, s.CurrentTime/s.Duration))
}

func initialState() State {
	return State{
		Index:    -1,
		Status:   Idle,
		Duration: math.NaN(),
		Volume:   1,
	}
}

// FormatTime renders seconds as M:SS, or H:MM:SS from one hour up. NaN, infinities and negatives render as 0:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "0:00"
	}

	total := int(math.Floor(seconds))
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

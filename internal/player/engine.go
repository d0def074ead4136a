// Package player implements the process-wide playback engine.
//
// An [Engine] owns exactly one [media.Resource] and a "now playing" pointer into an ordered playlist. Callers issue
// commands (PlayTrack, PlayNext, SeekTo, ...) and observe [State] snapshots through Subscribe. Position, duration
// and the playing flag only change in response to events from the resource, which [Engine.Run] applies one at a
// time, each to completion before the next.
//
// Commands are serialized by a command lock; state is guarded separately so subscribers and event handling never
// wait on a slow output device.
package player

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stacks/internal/media"
	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/shared"
)

// Engine is the single source of truth for what is playing.
type Engine struct {
	res    media.Resource
	logger *log.Logger
	rng    *rand.Rand // guarded by cmdMu

	cmdMu sync.Mutex

	mu    sync.RWMutex // guards state; held while publishing so subscribers see updates in order
	state State

	subMu  sync.Mutex
	subs   map[int]chan State
	nextID int
	closed bool
}

// Option configures an [Engine].
type Option func(*Engine)

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRand sets the source used to pick shuffled tracks.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// New creates an engine that takes ownership of res.
func New(res media.Resource, opts ...Option) *Engine {
	e := &Engine{
		res:   res,
		state: initialState(),
		subs:  make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = shared.NewLogger(nil)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}
	e.logger = shared.WithLogger(e.logger, "component", "player")
	return e
}

// State returns a snapshot of the current playback state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// PlayTrack plays track, or toggles pause/resume when it is already the current track.
//
// The playlist is kept when it already contains track. Otherwise contextTracks are adopted as the playlist, or a
// single-track playlist is made when there is no context. This replaces an existing playlist as well, not only an
// empty one. index is a hint for where track sits in the playlist.
func (e *Engine) PlayTrack(ctx context.Context, track models.Track, index int, contextTracks []models.Track) {
	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	cur := e.State()
	if cur.Track != nil && cur.Track.SameAs(track) {
		if cur.IsPlaying {
			e.pause()
		} else {
			e.resume(ctx)
		}
		return
	}

	playlist, idx := cur.Playlist, locate(cur.Playlist, track.ID, index)
	if idx < 0 {
		if len(contextTracks) > 0 {
			playlist = slices.Clone(contextTracks)
			idx = max(locate(playlist, track.ID, index), 0)
		} else {
			playlist = []models.Track{track}
			idx = 0
		}
	}
	e.load(ctx, playlist, idx, track)
}

// PlayPlaylist replaces the playlist and starts at startIndex, clamped into range. Empty input is ignored.
func (e *Engine) PlayPlaylist(ctx context.Context, tracks []models.Track, startIndex int) {
	if len(tracks) == 0 {
		return
	}

	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	playlist := slices.Clone(tracks)
	idx := min(max(startIndex, 0), len(playlist)-1)
	e.load(ctx, playlist, idx, playlist[idx])
}

func (e *Engine) Pause() {
	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()
	e.pause()
}

// Resume continues the current track. A rejected start leaves the engine not playing.
func (e *Engine) Resume(ctx context.Context) {
	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()
	e.resume(ctx)
}

// TogglePlayback pauses when playing and resumes otherwise.
func (e *Engine) TogglePlayback(ctx context.Context) {
	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	if e.State().IsPlaying {
		e.pause()
	} else {
		e.resume(ctx)
	}
}

// Stop pauses and rewinds to the start of the current track.
func (e *Engine) Stop() {
	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	if e.State().Track == nil {
		return
	}
	if err := e.res.Pause(); err != nil {
		e.logger.Error("failed to pause output", "error", err)
	}
	if err := e.res.Seek(0); err != nil {
		e.logger.Warn("failed to rewind output", "error", err)
	}
	e.update(func(s *State) {
		s.IsPlaying = false
		s.CurrentTime = 0
		s.Status = Paused
	})
}

// SeekTo moves to seconds, clamped to the known duration.
func (e *Engine) SeekTo(seconds float64) {
	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()
	e.seekTo(seconds)
}

// SeekByPercentage moves to pct percent of the duration. It does nothing while the duration is unknown.
func (e *Engine) SeekByPercentage(pct float64) {
	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	dur := e.State().Duration
	if math.IsNaN(pct) || math.IsNaN(dur) || math.IsInf(dur, 0) || dur <= 0 {
		return
	}
	pct = min(max(pct, 0), 100)
	e.seekTo(pct / 100 * dur)
}

// PlayNext advances to the next track, wrapping at the end, or to a random other track when shuffled.
func (e *Engine) PlayNext(ctx context.Context) {
	e.step(ctx, 1)
}

// PlayPrevious goes back one track, wrapping at the start, or to a random other track when shuffled.
func (e *Engine) PlayPrevious(ctx context.Context) {
	e.step(ctx, -1)
}

// SetVolumeLevel sets the output volume, clamped to [0,1]. NaN is ignored.
func (e *Engine) SetVolumeLevel(v float64) {
	if math.IsNaN(v) {
		return
	}

	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	v = min(max(v, 0), 1)
	if err := e.res.SetVolume(v); err != nil {
		e.logger.Error("failed to set volume", "volume", v, "error", err)
		return
	}
	e.update(func(s *State) { s.Volume = v })
}

// ToggleShuffle flips shuffle and returns the new value.
func (e *Engine) ToggleShuffle() bool {
	var on bool
	e.update(func(s *State) {
		s.IsShuffled = !s.IsShuffled
		on = s.IsShuffled
	})
	return on
}

// ToggleRepeat flips repeat and returns the new value.
func (e *Engine) ToggleRepeat() bool {
	var on bool
	e.update(func(s *State) {
		s.IsRepeated = !s.IsRepeated
		on = s.IsRepeated
	})
	return on
}

// Subscribe returns a channel that receives the current state and then every change, plus a func that
// unsubscribes and closes the channel. Slow readers miss intermediate states but always get the latest one.
func (e *Engine) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 16)

	e.mu.RLock()
	defer e.mu.RUnlock()
	e.subMu.Lock()
	defer e.subMu.Unlock()

	if e.closed {
		close(ch)
		return ch, func() {}
	}

	id := e.nextID
	e.nextID++
	e.subs[id] = ch
	ch <- e.state

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subMu.Lock()
			defer e.subMu.Unlock()
			if c, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(c)
			}
		})
	}
}

// Run applies media events until ctx is done or the resource closes its event channel.
func (e *Engine) Run(ctx context.Context) error {
	events := e.res.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			e.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent applies a single media event.
func (e *Engine) HandleEvent(ctx context.Context, ev media.Event) {
	switch ev.Kind {
	case media.Ended:
		e.cmdMu.Lock()
		defer e.cmdMu.Unlock()
		e.handleEnded(ctx)
		return
	case media.Error:
		e.logger.Error("media error", "error", ev.Err)
	default:
		e.logger.Debug("media event", "kind", ev.Kind, "time", ev.Time)
	}

	e.update(func(s *State) {
		if s.Track == nil {
			return
		}
		switch ev.Kind {
		case media.LoadedMetadata:
			s.Duration = ev.Duration
		case media.TimeUpdate:
			s.CurrentTime = ev.Time
			if !math.IsNaN(ev.Duration) {
				s.Duration = ev.Duration
			}
		case media.Play:
			s.IsPlaying = true
			s.Status = Playing
		case media.Pause:
			s.IsPlaying = false
			if s.Status == Playing || s.Status == Loading {
				s.Status = Paused
			}
		case media.Error:
			s.IsPlaying = false
			s.Status = Paused
		}
	})
}

// Close drops all subscribers and releases the media resource.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.subMu.Lock()
	e.closed = true
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
	e.subMu.Unlock()
	e.mu.Unlock()

	return e.res.Close()
}

// handleEnded picks what follows the current track: repeat, a random track when shuffled, the next track, or
// a stop at zero when the playlist is exhausted. Caller holds cmdMu.
func (e *Engine) handleEnded(ctx context.Context) {
	st := e.State()
	if st.Track == nil {
		return
	}

	n := len(st.Playlist)
	switch {
	case st.IsRepeated:
		e.restart(ctx, st)
	case st.IsShuffled && n > 1:
		idx := e.randomOther(n, st.Index)
		e.load(ctx, st.Playlist, idx, st.Playlist[idx])
	case st.Index >= 0 && st.Index < n-1:
		e.load(ctx, st.Playlist, st.Index+1, st.Playlist[st.Index+1])
	default:
		e.update(func(s *State) {
			s.IsPlaying = false
			s.CurrentTime = 0
			s.Status = Ended
		})
	}
}

// restart rewinds the current track and plays it again, reloading the source when the output cannot seek.
func (e *Engine) restart(ctx context.Context, st State) {
	if err := e.res.Seek(0); err != nil {
		e.logger.Debug("rewind failed, reloading", "error", err)
		e.load(ctx, st.Playlist, st.Index, *st.Track)
		return
	}
	e.update(func(s *State) { s.CurrentTime = 0 })
	e.start(ctx)
}

func (e *Engine) step(ctx context.Context, dir int) {
	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	st := e.State()
	n := len(st.Playlist)
	if n == 0 {
		return
	}

	var idx int
	switch {
	case st.IsShuffled:
		idx = e.randomOther(n, st.Index)
	case dir > 0:
		idx = (st.Index + 1) % n
	default:
		idx = (st.Index - 1 + n) % n
	}
	e.load(ctx, st.Playlist, idx, st.Playlist[idx])
}

// randomOther samples until it draws an index other than cur. A single-track playlist always yields 0.
func (e *Engine) randomOther(n, cur int) int {
	if n <= 1 {
		return 0
	}
	for {
		if i := e.rng.IntN(n); i != cur {
			return i
		}
	}
}

// load makes track current at idx and starts it. Tracks without audio only update bookkeeping.
// Caller holds cmdMu.
func (e *Engine) load(ctx context.Context, playlist []models.Track, idx int, track models.Track) {
	e.update(func(s *State) {
		s.Playlist = playlist
		s.Index = idx
		s.Track = &track
		s.CurrentTime = 0
		s.Duration = math.NaN()
		s.IsPlaying = false
		if track.Playable() {
			s.Status = Loading
		} else {
			s.Status = Idle
		}
	})

	if !track.Playable() {
		e.logger.Warn("track has no audio", "id", track.ID, "title", track.Title)
		return
	}

	if err := e.res.Load(track.AudioURL); err != nil {
		e.logger.Error("failed to load track", "id", track.ID, "error", err)
		e.update(func(s *State) { s.Status = Paused })
		return
	}
	e.logger.Info("playing", "id", track.ID, "title", track.Title)
	e.start(ctx)
}

// start asks the output to play. Caller holds cmdMu.
func (e *Engine) start(ctx context.Context) {
	if err := e.res.Play(ctx); err != nil {
		if errors.Is(err, shared.ErrPlaybackRejected) {
			e.logger.Warn("playback rejected", "error", err)
		} else {
			e.logger.Error("failed to start playback", "error", err)
		}
		e.update(func(s *State) {
			s.IsPlaying = false
			if s.Status != Idle {
				s.Status = Paused
			}
		})
		return
	}
	e.update(func(s *State) {
		s.IsPlaying = true
		s.Status = Playing
	})
}

// pause is the unlocked body of [Engine.Pause].
func (e *Engine) pause() {
	if err := e.res.Pause(); err != nil {
		e.logger.Error("failed to pause output", "error", err)
	}
	e.update(func(s *State) {
		s.IsPlaying = false
		if s.Status == Playing || s.Status == Loading {
			s.Status = Paused
		}
	})
}

func (e *Engine) resume(ctx context.Context) {
	st := e.State()
	if st.Track == nil || !st.Track.Playable() {
		return
	}
	e.start(ctx)
}

func (e *Engine) seekTo(seconds float64) {
	st := e.State()
	if st.Track == nil || math.IsNaN(seconds) {
		return
	}

	seconds = max(seconds, 0)
	if !math.IsNaN(st.Duration) && st.Duration > 0 {
		seconds = min(seconds, st.Duration)
	}
	if err := e.res.Seek(seconds); err != nil {
		e.logger.Error("failed to seek", "seconds", seconds, "error", err)
		return
	}
	e.update(func(s *State) { s.CurrentTime = seconds })
}

// update mutates state and publishes the result while still holding the state lock.
func (e *Engine) update(fn func(*State)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn(&e.state)
	snap := e.state

	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		offer(ch, snap)
	}
}

// offer sends without blocking, replacing the oldest queued snapshot when the buffer is full.
func offer(ch chan State, s State) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}

// locate finds id in playlist, trying the hint position first.
func locate(playlist []models.Track, id models.ID, hint int) int {
	if hint >= 0 && hint < len(playlist) && playlist[hint].ID == id {
		return hint
	}
	return models.IndexOf(playlist, id)
}

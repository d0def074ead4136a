package media

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stacks/internal/shared"
	"github.com/fhs/gompd/v2/mpd"
)

// Option configures a resource.
type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger sets the logger used for connection and watcher diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = shared.NewLogger(nil)
	}
	return o
}

// MPD drives a Music Player Daemon as the audio output.
//
// Every Load replaces the daemon queue with a single stream URL. Changes are observed through an idle watcher on the
// player and mixer subsystems; while playing, status is also sampled every tick so that time updates flow the way
// they would from a native audio element.
type MPD struct {
	mu      sync.Mutex
	client  *mpd.Client
	watcher *mpd.Watcher
	cfg     shared.MPDConfig
	tick    time.Duration
	logger  *log.Logger

	last status // guarded by mu; only the loop goroutine advances it past a Load

	events    chan Event
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// DialMPD connects to the daemon described by cfg and starts watching it.
func DialMPD(cfg shared.MPDConfig, tick time.Duration, opts ...Option) (*MPD, error) {
	o := applyOptions(opts)
	m := &MPD{
		cfg:    cfg,
		tick:   tick,
		logger: shared.WithLogger(o.logger, "component", "mpd"),
		last:   status{State: "stop", Duration: Unknown},
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}

	if err := m.connect(); err != nil {
		return nil, err
	}

	w, err := mpd.NewWatcher("tcp", cfg.Addr(), cfg.Password, "player", "mixer")
	if err != nil {
		m.client.Close()
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	m.watcher = w

	m.wg.Add(1)
	go m.loop()
	return m, nil
}

// connect dials the daemon. Caller holds mu or owns m exclusively.
func (m *MPD) connect() error {
	addr := m.cfg.Addr()
	m.logger.Debug("connecting", "addr", addr)

	client, err := mpd.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: failed to connect to MPD: %w", shared.ErrNetwork, err)
	}

	if m.cfg.Password != "" {
		if err := client.Command("password %s", m.cfg.Password).OK(); err != nil {
			client.Close()
			return fmt.Errorf("%w: MPD authentication failed: %w", shared.ErrAuthFailed, err)
		}
	}

	m.client = client
	return nil
}

// ensureConnected reconnects after the daemon drops an idle connection. Caller holds mu.
func (m *MPD) ensureConnected() error {
	if m.client == nil {
		return m.connect()
	}
	if err := m.client.Ping(); err != nil {
		m.logger.Warn("connection lost, reconnecting", "error", err)
		m.client.Close()
		m.client = nil
		return m.connect()
	}
	return nil
}

// Load replaces the queue with src. Playback does not start until [MPD.Play].
func (m *MPD) Load(src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureConnected(); err != nil {
		return err
	}
	if err := m.client.Clear(); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	if err := m.client.Add(src); err != nil {
		return fmt.Errorf("%w: failed to add %s: %w", shared.ErrMediaDecode, src, err)
	}

	// The clear above stops the daemon. Absorb that so it is not reported as the previous track ending.
	m.last = status{State: "stop", Duration: Unknown}
	return nil
}

// Play starts the loaded stream or unpauses it.
func (m *MPD) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureConnected(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrPlaybackRejected, err)
	}

	attrs, err := m.client.Status()
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrPlaybackRejected, err)
	}

	if attrs["state"] == "pause" {
		err = m.client.Pause(false)
	} else {
		err = m.client.Play(0)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrPlaybackRejected, err)
	}
	return nil
}

func (m *MPD) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureConnected(); err != nil {
		return err
	}
	return m.client.Pause(true)
}

// Seek moves within the current song. MPD positions are whole seconds.
func (m *MPD) Seek(seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureConnected(); err != nil {
		return err
	}

	attrs, err := m.client.Status()
	if err != nil {
		return err
	}
	pos, err := strconv.Atoi(attrs["song"])
	if err != nil {
		return fmt.Errorf("no song loaded")
	}
	return m.client.Seek(pos, int(math.Max(0, seconds)))
}

// SetVolume maps v in [0,1] to the mixer range 0-100.
func (m *MPD) SetVolume(v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureConnected(); err != nil {
		return err
	}
	return m.client.SetVolume(int(math.Round(math.Min(1, math.Max(0, v)) * 100)))
}

func (m *MPD) Events() <-chan Event { return m.events }

// Close stops the watcher loop, closes the connections and then the event channel.
func (m *MPD) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.done)
		if m.watcher != nil {
			m.watcher.Close()
		}
		m.wg.Wait()

		m.mu.Lock()
		if m.client != nil {
			err = m.client.Close()
			m.client = nil
		}
		m.mu.Unlock()

		close(m.events)
	})
	return err
}

func (m *MPD) loop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case subsystem, ok := <-m.watcher.Event:
			if !ok {
				return
			}
			m.logger.Debug("subsystem changed", "subsystem", subsystem)
			m.poll()
		case err, ok := <-m.watcher.Error:
			if !ok {
				return
			}
			m.logger.Warn("watcher error", "error", err)
		case <-ticker.C:
			if m.playing() {
				m.poll()
			}
		}
	}
}

func (m *MPD) playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last.State == "play"
}

// poll samples the daemon and emits the events implied by the change since the last sample.
func (m *MPD) poll() {
	m.mu.Lock()
	if err := m.ensureConnected(); err != nil {
		m.mu.Unlock()
		m.logger.Warn("status unavailable", "error", err)
		return
	}
	attrs, err := m.client.Status()
	if err != nil {
		m.mu.Unlock()
		m.logger.Warn("failed to read status", "error", err)
		return
	}

	next := parseStatus(attrs)
	evs := translate(m.last, next)
	m.last = next
	m.mu.Unlock()

	for _, ev := range evs {
		select {
		case m.events <- ev:
		case <-m.done:
			return
		}
	}
}

// status is the subset of the MPD status response the engine cares about.
type status struct {
	State    string // play, pause or stop
	SongID   string
	Elapsed  float64
	Duration float64 // NaN when the daemon does not know it yet
	Err      string
}

func parseStatus(attrs mpd.Attrs) status {
	s := status{
		State:    attrs["state"],
		SongID:   attrs["songid"],
		Duration: Unknown,
		Err:      attrs["error"],
	}

	if v, err := strconv.ParseFloat(attrs["elapsed"], 64); err == nil {
		s.Elapsed = v
	}
	if v, err := strconv.ParseFloat(attrs["duration"], 64); err == nil && v > 0 {
		s.Duration = v
	} else if _, total, ok := strings.Cut(attrs["time"], ":"); ok {
		if v, err := strconv.ParseFloat(total, 64); err == nil && v > 0 {
			s.Duration = v
		}
	}
	return s
}

// translate turns a status change into the events an audio element would have fired, in the order
// error, loadedmetadata, play/pause/ended, timeupdate.
func translate(prev, next status) []Event {
	var evs []Event
	mk := func(k Kind) Event {
		return Event{Kind: k, Time: next.Elapsed, Duration: next.Duration}
	}

	if next.Err != "" && next.Err != prev.Err {
		ev := mk(Error)
		ev.Err = fmt.Errorf("%w: %s", shared.ErrMediaDecode, next.Err)
		evs = append(evs, ev)
	}

	if next.SongID != "" && !math.IsNaN(next.Duration) &&
		(next.SongID != prev.SongID || math.IsNaN(prev.Duration) || prev.Duration != next.Duration) {
		evs = append(evs, mk(LoadedMetadata))
	}

	ended := false
	switch {
	case prev.State != "play" && next.State == "play":
		evs = append(evs, mk(Play))
	case prev.State == "play" && next.State == "pause":
		evs = append(evs, mk(Pause))
	case prev.State == "play" && next.State == "stop" && next.Err == "":
		evs = append(evs, mk(Ended))
		ended = true
	}

	if !ended && next.SongID != "" && (next.Elapsed != prev.Elapsed || next.SongID != prev.SongID) {
		evs = append(evs, mk(TimeUpdate))
	}
	return evs
}

package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/player"
	"github.com/desertthunder/stacks/internal/shared"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"
)

// Player is the engine surface the remote drives.
type Player interface {
	State() player.State
	PlayTrack(ctx context.Context, track models.Track, index int, contextTracks []models.Track)
	PlayPlaylist(ctx context.Context, tracks []models.Track, startIndex int)
	Pause()
	Resume(ctx context.Context)
	Stop()
	SeekTo(seconds float64)
	SeekByPercentage(pct float64)
	PlayNext(ctx context.Context)
	PlayPrevious(ctx context.Context)
	SetVolumeLevel(v float64)
	ToggleShuffle() bool
	ToggleRepeat() bool
	Subscribe() (<-chan player.State, func())
}

// Library supplies tracks for "play" requests that name something outside the current playlist.
type Library func(ctx context.Context) ([]models.Track, error)

// Option configures a [Remote].
type Option func(*Remote)

// WithLibrary lets "play" start tracks that are not in the engine's playlist yet.
func WithLibrary(l Library) Option {
	return func(r *Remote) { r.library = l }
}

// Remote exposes a [Player] over socket.io.
//
// Connected clients receive "pushState" on connect and after every engine state change.
type Remote struct {
	io      *socket.Server
	handler http.Handler
	player  Player
	library Library
	logger  *log.Logger

	mu      sync.RWMutex
	ctx     context.Context
	clients map[string]*socket.Socket
	closed  bool
}

// NewRemote creates the socket.io server and registers the control events.
func NewRemote(p Player, logger *log.Logger, opts ...Option) *Remote {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	ioOpts := socket.DefaultServerOptions()
	ioOpts.SetPingTimeout(20 * time.Second)
	ioOpts.SetPingInterval(25 * time.Second)
	ioOpts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	r := &Remote{
		io:      socket.NewServer(nil, ioOpts),
		player:  p,
		logger:  logger.WithPrefix("remote"),
		ctx:     context.Background(),
		clients: make(map[string]*socket.Socket),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.handler = r.io.ServeHandler(nil)
	r.setupHandlers()
	return r
}

// Events lists the control events a client may send.
var Events = []string{
	"getState", "play", "pause", "resume", "stop", "next", "prev",
	"seek", "seekPercent", "volume", "toggleShuffle", "toggleRepeat",
}

func (r *Remote) setupHandlers() {
	r.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		clientID := string(client.Id())

		r.logger.Info("client connected", "id", clientID)

		r.mu.Lock()
		r.clients[clientID] = client
		r.mu.Unlock()

		client.Emit("pushState", r.player.State())

		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				reason, _ = args[0].(string)
			}
			r.logger.Info("client disconnected", "id", clientID, "reason", reason)

			r.mu.Lock()
			delete(r.clients, clientID)
			r.mu.Unlock()
		})

		for _, event := range Events {
			client.On(event, func(args ...any) {
				r.logger.Debug(event, "id", clientID, "args", args)

				if event == "getState" {
					client.Emit("pushState", r.player.State())
					return
				}
				if err := r.Dispatch(r.context(), event, args...); err != nil {
					r.logger.Warn("control event rejected", "event", event, "error", err)
					client.Emit("pushToastMessage", map[string]any{"type": "error", "message": err.Error()})
				}
			})
		}
	})
}

// Dispatch applies one control event to the player.
//
// Numeric arguments are accepted bare or as {"value": n}. "play" with no argument resumes, with
// {"index": n} it starts that playlist position and with {"trackId": id} it plays that entry. Tracks missing from
// the playlist are looked up in the library when one is configured.
func (r *Remote) Dispatch(ctx context.Context, event string, args ...any) error {
	switch event {
	case "play":
		return r.play(ctx, args)
	case "pause":
		r.player.Pause()
	case "resume":
		r.player.Resume(ctx)
	case "stop":
		r.player.Stop()
	case "next":
		r.player.PlayNext(ctx)
	case "prev":
		r.player.PlayPrevious(ctx)
	case "seek":
		v, err := number(args, "value")
		if err != nil {
			return err
		}
		r.player.SeekTo(v)
	case "seekPercent":
		v, err := number(args, "value")
		if err != nil {
			return err
		}
		r.player.SeekByPercentage(v)
	case "volume":
		v, err := number(args, "value")
		if err != nil {
			return err
		}
		if v > 1 {
			v /= 100
		}
		r.player.SetVolumeLevel(v)
	case "toggleShuffle":
		r.player.ToggleShuffle()
	case "toggleRepeat":
		r.player.ToggleRepeat()
	default:
		return fmt.Errorf("%w: unknown event %q", shared.ErrInvalidArgument, event)
	}
	return nil
}

func (r *Remote) play(ctx context.Context, args []any) error {
	if len(args) == 0 || args[0] == nil {
		r.player.Resume(ctx)
		return nil
	}

	playlist := r.player.State().Playlist
	if m, ok := args[0].(map[string]any); ok {
		if raw, ok := m["trackId"]; ok {
			id := models.ID(fmt.Sprint(raw))
			if f, ok := raw.(float64); ok {
				id = models.FormatID(int(f))
			}

			idx := models.IndexOf(playlist, id)
			if idx < 0 && r.library != nil {
				tracks, err := r.library(ctx)
				if err != nil {
					return err
				}
				playlist, idx = tracks, models.IndexOf(tracks, id)
			}
			if idx < 0 {
				return fmt.Errorf("%w: track %s", shared.ErrItemNotFound, id)
			}
			r.player.PlayTrack(ctx, playlist[idx], idx, playlist)
			return nil
		}
	}

	idx, err := number(args, "index")
	if err != nil {
		return err
	}
	if len(playlist) == 0 && r.library != nil {
		if playlist, err = r.library(ctx); err != nil {
			return err
		}
	}
	if len(playlist) == 0 {
		return fmt.Errorf("%w: playlist is empty", shared.ErrInvalidArgument)
	}
	r.player.PlayPlaylist(ctx, playlist, int(idx))
	return nil
}

// number reads a numeric argument given bare or under key in an object.
func number(args []any, key string) (float64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: expected a number", shared.ErrMissingArgument)
	}

	v := args[0]
	if m, ok := v.(map[string]any); ok {
		if inner, ok := m[key]; ok {
			v = inner
		} else {
			v = m["value"]
		}
	}

	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: expected a number, got %T", shared.ErrInvalidArgument, v)
	}
}

// Run broadcasts every engine state change until ctx is done.
func (r *Remote) Run(ctx context.Context) {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()

	states, unsubscribe := r.player.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			r.Broadcast(st)
		}
	}
}

// Broadcast sends state to all connected clients.
func (r *Remote) Broadcast(st player.State) {
	r.mu.RLock()
	closed, n := r.closed, len(r.clients)
	r.mu.RUnlock()
	if closed {
		return
	}

	r.io.Emit("pushState", st)
	r.logger.Debug("broadcast state", "status", st.Status, "clients", n)
}

// Clients reports the number of connected clients.
func (r *Remote) Clients() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Remote) context() context.Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ctx
}

// Routes returns the socket.io endpoint.
func (r *Remote) Routes() []string {
	return []string{"/socket.io/"}
}

// ServeHTTP implements http.Handler for the socket.io server.
func (r *Remote) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// Close closes the socket.io server. Safe to call more than once.
func (r *Remote) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.io.Close(nil)
	return nil
}

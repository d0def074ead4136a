package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/stacks/internal/media"
	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/player"
	"github.com/desertthunder/stacks/internal/server"
	"github.com/desertthunder/stacks/internal/shared"
	"github.com/desertthunder/stacks/internal/ui"
	"github.com/urfave/cli/v3"
)

// VolumeKey is the settings key holding the last used volume.
const VolumeKey = "player.volume"

// volume returns the persisted volume, falling back to the config.
func (r *Runner) volume() float64 {
	if r.settings != nil {
		if s, err := r.settings.Get(VolumeKey); err == nil {
			if v, err := strconv.ParseFloat(s.Value, 64); err == nil {
				return v
			}
			r.logger.Warn("ignoring malformed saved volume", "value", s.Value)
		}
	}
	return r.config.Player.Volume
}

// startPlayer opens the audio output and runs an engine over it until ctx is done.
//
// The returned stop func saves the volume and releases the output.
func (r *Runner) startPlayer(ctx context.Context) (*player.Engine, func(), error) {
	res, err := r.openResource(r.config.Player, media.WithLogger(r.logger))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open audio output: %w", err)
	}

	engine := player.New(res, player.WithLogger(r.logger))
	engine.SetVolumeLevel(r.volume())
	go engine.Run(ctx)

	stop := func() {
		if r.settings != nil {
			v := strconv.FormatFloat(engine.State().Volume, 'f', 2, 64)
			if err := r.settings.Set(VolumeKey, v); err != nil {
				r.logger.Warn("failed to save volume", "error", err)
			}
		}
		if err := engine.Close(); err != nil {
			r.logger.Warn("failed to close audio output", "error", err)
		}
	}
	return engine, stop, nil
}

// Play plays one item's audio and reports progress until it ends.
//
// With --queue the rest of the catalog's playable items become the playlist.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	id := models.ID(strings.TrimSpace(cmd.StringArg("id")))
	if id == "" {
		return fmt.Errorf("%w: <id>", shared.ErrMissingArgument)
	}

	token := r.token()
	item, err := r.library.Find(ctx, token, id)
	if err != nil {
		return err
	}
	track := models.TrackFromItem(*item, r.library.AssetURL())
	if !track.Playable() {
		return fmt.Errorf("%w: %q", shared.ErrNoAudio, item.Title)
	}

	var queue []models.Track
	if cmd.Bool("queue") {
		if queue, err = r.library.Tracks(ctx, token); err != nil {
			r.logger.Warn("failed to build queue, playing single track", "error", err)
			queue = nil
		}
		if len(queue) > 0 && models.IndexOf(queue, track.ID) < 0 {
			queue = append([]models.Track{track}, queue...)
		}
	}

	engine, stop, err := r.startPlayer(ctx)
	if err != nil {
		return err
	}
	defer stop()

	states, unsubscribe := engine.Subscribe()
	defer unsubscribe()

	engine.PlayTrack(ctx, track, models.IndexOf(queue, track.ID), queue)
	if st := engine.State(); !st.IsPlaying {
		return fmt.Errorf("%w: %q could not start", shared.ErrPlaybackRejected, track.Title)
	}

	last := r.watch(ctx, states)
	if token != "" && last.Track != nil {
		if err := r.api(token).RecordPlay(context.WithoutCancel(ctx), last.Track.ID, last.CurrentTime); err != nil {
			r.logger.Debug("failed to record play", "error", err)
		}
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		engine.Pause()
		return r.writePlain("\nStopped at %s\n", player.FormatTime(last.CurrentTime))
	}
	return nil
}

// watch prints track and status changes until playback ends or ctx is done, returning the last state seen.
func (r *Runner) watch(ctx context.Context, states <-chan player.State) player.State {
	var last player.State
	var lastID models.ID
	for {
		select {
		case <-ctx.Done():
			return last
		case st, ok := <-states:
			if !ok {
				return last
			}
			if st.Track != nil && st.Track.ID != lastID {
				lastID = st.Track.ID
				r.writePlain("▶ %s by %s [%d/%d]\n", st.Track.Title, st.Track.Author, st.Index+1, len(st.Playlist))
			}
			if st.Status != last.Status {
				r.logger.Debug("playback status", "status", st.Status, "time", player.FormatTime(st.CurrentTime))
			}
			last = st
			if st.Status == player.Ended {
				r.writePlain("■ Finished\n")
				return last
			}
		}
	}
}

// TUI launches the interactive player over the cached catalog.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/stacks-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	engine, stop, err := r.startPlayer(ctx)
	if err != nil {
		return err
	}
	defer stop()

	token := r.token()
	load := func(ctx context.Context, force bool) ([]models.Track, error) {
		if force {
			if _, err := r.library.AllBooks.Refresh(ctx, token); err != nil {
				return nil, err
			}
		}
		return r.library.Tracks(ctx, token)
	}

	model := ui.NewModel(ctx, engine, load, "Library")
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// Serve runs the player headless and exposes it to socket.io remotes until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	engine, stop, err := r.startPlayer(ctx)
	if err != nil {
		return err
	}
	defer stop()

	token := r.token()
	srv := server.New(cfg, engine, r.logger, server.WithLibrary(func(ctx context.Context) ([]models.Track, error) {
		return r.library.Tracks(ctx, token)
	}))

	r.writePlain("Remote control on http://%s (Ctrl+C to stop)\n", cfg.Addr())
	return srv.ListenAndServe(ctx)
}

package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/stacks/internal/media"
	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/player"
	"github.com/desertthunder/stacks/internal/shared"
	tu "github.com/desertthunder/stacks/internal/testing"
)

func sampleTracks() []models.Track {
	return []models.Track{
		{ID: "1", Title: "Dune", Author: "Frank Herbert", AudioURL: "https://cdn.example.com/1.mp3"},
		{ID: "2", Title: "Emma", Author: "Jane Austen", AudioURL: "https://cdn.example.com/2.mp3"},
		{ID: "3", Title: "Ulysses", Author: "James Joyce", AudioURL: "https://cdn.example.com/3.mp3"},
	}
}

type harness struct {
	model  *Model
	engine *player.Engine
	fake   *tu.FakeMedia
	loads  []bool
}

func newHarness(t *testing.T, loadErr error) *harness {
	t.Helper()
	h := &harness{fake: tu.NewFakeMedia()}
	h.engine = player.New(h.fake, player.WithLogger(shared.NewLogger(io.Discard)))
	t.Cleanup(func() { h.engine.Close() })

	load := func(ctx context.Context, force bool) ([]models.Track, error) {
		h.loads = append(h.loads, force)
		if loadErr != nil {
			return nil, loadErr
		}
		return sampleTracks(), nil
	}
	h.model = NewModel(context.Background(), h.engine, load, "Library")
	t.Cleanup(h.model.Close)

	h.model.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	h.send(h.model.loadTracks(false)())
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	_, cmd := h.model.Update(msg)
	return cmd
}

// sync applies every queued state snapshot to the model.
func (h *harness) sync() {
	for {
		select {
		case st, ok := <-h.model.states:
			if !ok {
				return
			}
			h.model.Update(stateChangedMsg(st))
		default:
			return
		}
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelLoading(t *testing.T) {
	t.Run("lists loaded tracks", func(t *testing.T) {
		h := newHarness(t, nil)

		if len(h.model.list.Items()) != 3 {
			t.Fatalf("expected 3 items, got %d", len(h.model.list.Items()))
		}
		if h.model.loading {
			t.Error("expected loading to finish")
		}
		if !strings.Contains(h.model.View(), "Nothing playing") {
			t.Error("expected idle now-playing bar")
		}
	})

	t.Run("shows load errors", func(t *testing.T) {
		h := newHarness(t, errors.New("offline"))

		view := h.model.View()
		if !strings.Contains(view, "offline") {
			t.Errorf("expected error in view, got %s", view)
		}
	})

	t.Run("R forces a refresh", func(t *testing.T) {
		h := newHarness(t, nil)

		cmd := h.send(runes("R"))
		if cmd == nil {
			t.Fatal("expected refresh command")
		}
		h.send(cmd())
		if len(h.loads) != 2 || !h.loads[1] {
			t.Errorf("expected forced second load, got %v", h.loads)
		}
	})
}

func TestModelPlayback(t *testing.T) {
	t.Run("enter plays the selection with visible siblings", func(t *testing.T) {
		h := newHarness(t, nil)
		h.model.list.Select(1)

		h.send(tea.KeyMsg{Type: tea.KeyEnter})
		h.sync()

		st := h.model.state
		if st.Track == nil || st.Track.ID != "2" {
			t.Fatalf("expected track 2, got %v", st.Track)
		}
		if len(st.Playlist) != 3 || st.Index != 1 {
			t.Errorf("expected 3-track playlist at 1, got %d at %d", len(st.Playlist), st.Index)
		}
		if !strings.Contains(h.model.View(), "Emma") {
			t.Error("expected title in now-playing bar")
		}
	})

	t.Run("space toggles and n/p step", func(t *testing.T) {
		h := newHarness(t, nil)
		h.send(tea.KeyMsg{Type: tea.KeyEnter})
		h.sync()

		h.send(tea.KeyMsg{Type: tea.KeySpace})
		h.sync()
		if h.model.state.IsPlaying {
			t.Error("expected paused after space")
		}

		h.send(runes("n"))
		h.sync()
		if h.model.state.Index != 1 {
			t.Errorf("expected index 1 after next, got %d", h.model.state.Index)
		}

		h.send(runes("p"))
		h.send(runes("p"))
		h.sync()
		if h.model.state.Index != 2 {
			t.Errorf("expected wrap to 2, got %d", h.model.state.Index)
		}
	})

	t.Run("shuffle repeat and volume", func(t *testing.T) {
		h := newHarness(t, nil)
		h.send(tea.KeyMsg{Type: tea.KeyEnter})
		h.sync()

		h.send(runes("s"))
		h.send(runes("r"))
		h.sync()
		if !h.model.state.IsShuffled || !h.model.state.IsRepeated {
			t.Error("expected shuffle and repeat on")
		}
		if !strings.Contains(h.model.View(), "shuffle on") {
			t.Error("expected shuffle flag in view")
		}

		h.send(runes("-"))
		h.sync()
		if v := h.model.state.Volume; v < 0.89 || v > 0.91 {
			t.Errorf("expected volume 0.9, got %v", v)
		}
		h.send(runes("+"))
		h.send(runes("+"))
		h.sync()
		if h.model.state.Volume != 1 {
			t.Errorf("expected volume clamped to 1, got %v", h.model.state.Volume)
		}
	})

	t.Run("arrows seek by ten seconds", func(t *testing.T) {
		h := newHarness(t, nil)
		h.send(tea.KeyMsg{Type: tea.KeyEnter})
		h.engine.HandleEvent(context.Background(), media.Event{Kind: media.LoadedMetadata, Duration: 120})
		h.sync()

		h.send(tea.KeyMsg{Type: tea.KeyRight})
		h.sync()
		if h.model.state.CurrentTime != 10 {
			t.Errorf("expected 10s, got %v", h.model.state.CurrentTime)
		}

		h.send(tea.KeyMsg{Type: tea.KeyLeft})
		h.send(tea.KeyMsg{Type: tea.KeyLeft})
		h.sync()
		if h.model.state.CurrentTime != 0 {
			t.Errorf("expected clamp at 0, got %v", h.model.state.CurrentTime)
		}
		if !strings.Contains(h.model.View(), "2:00") {
			t.Error("expected formatted duration in view")
		}
	})

	t.Run("q quits and unsubscribes", func(t *testing.T) {
		h := newHarness(t, nil)

		cmd := h.send(runes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}

		if msg := h.model.waitForState()(); msg.(Msg).kind != MsgStateChanged && msg.(Msg).kind != MsgSubscriptionClosed {
			t.Errorf("unexpected message %v", msg)
		}
	})
}

func TestWaitForState(t *testing.T) {
	h := newHarness(t, nil)

	msg := h.model.waitForState()().(Msg)
	if msg.kind != MsgStateChanged {
		t.Fatalf("expected initial snapshot, got kind %d", msg.kind)
	}

	h.model.Close()
	h.sync()
	msg = h.model.waitForState()().(Msg)
	if msg.kind != MsgSubscriptionClosed {
		t.Errorf("expected closed subscription, got kind %d", msg.kind)
	}
}

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		st   player.State
		want string
	}{
		{player.State{Status: player.Loading}, "…"},
		{player.State{Status: player.Playing, IsPlaying: true}, "▶"},
		{player.State{Status: player.Ended}, "■"},
		{player.State{Status: player.Paused}, "⏸"},
	}
	for _, tt := range tests {
		if got := statusIcon(tt.st); got != tt.want {
			t.Errorf("expected %s for %s, got %s", tt.want, tt.st.Status, got)
		}
	}
}

package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/player"
)

const (
	seekStep   = 10.0
	volumeStep = 0.1
)

// Player is the engine surface the TUI drives.
type Player interface {
	State() player.State
	PlayTrack(ctx context.Context, track models.Track, index int, contextTracks []models.Track)
	TogglePlayback(ctx context.Context)
	PlayNext(ctx context.Context)
	PlayPrevious(ctx context.Context)
	SeekTo(seconds float64)
	SetVolumeLevel(v float64)
	ToggleShuffle() bool
	ToggleRepeat() bool
	Subscribe() (<-chan player.State, func())
}

// Loader returns the library's playable tracks. force bypasses the cache.
type Loader func(ctx context.Context, force bool) ([]models.Track, error)

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	player      Player
	load        Loader
	title       string
	width       int
	height      int
	list        list.Model
	tracks      []models.Track
	state       player.State
	states      <-chan player.State
	unsubscribe func()
	bar         progress.Model
	loading     bool
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model and subscribes to the player's state.
func NewModel(ctx context.Context, p Player, load Loader, title string) *Model {
	states, unsubscribe := p.Subscribe()

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)

	return &Model{
		ctx:         ctx,
		player:      p,
		load:        load,
		title:       title,
		list:        l,
		state:       p.State(),
		states:      states,
		unsubscribe: unsubscribe,
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(40)),
		loading:     true,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init loads the track list and starts listening for state changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadTracks(false), m.waitForState())
}

// Close drops the state subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, max(msg.Height-10, 3))
		m.bar.Width = max(min(msg.Width-20, 60), 10)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			return m.updateList(msg)
		}
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgTracksLoaded:
			data := msg.data.(tracksLoaded)
			m.loading = false
			m.err = data.err
			if data.err == nil {
				m.tracks = data.tracks
				cmd := m.list.SetItems(trackItems(m.tracks, m.state.Track))
				return m, cmd
			}
			return m, nil

		case MsgStateChanged:
			m.state = msg.data.(player.State)
			cmd := m.list.SetItems(trackItems(m.tracks, m.state.Track))
			return m, tea.Batch(cmd, m.waitForState())

		case MsgSubscriptionClosed:
			m.states = nil
			return m, nil
		}
	}

	return m.updateList(msg)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.state

	switch {
	case key.Matches(msg, m.keys.quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.play):
		if selected, ok := m.list.SelectedItem().(trackItem); ok {
			m.player.PlayTrack(m.ctx, selected.track, m.list.Index(), visibleTracks(m.list))
		}
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		m.player.TogglePlayback(m.ctx)
		return m, nil
	case key.Matches(msg, m.keys.next):
		m.player.PlayNext(m.ctx)
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.player.PlayPrevious(m.ctx)
		return m, nil
	case key.Matches(msg, m.keys.shuffle):
		m.player.ToggleShuffle()
		return m, nil
	case key.Matches(msg, m.keys.repeat):
		m.player.ToggleRepeat()
		return m, nil
	case key.Matches(msg, m.keys.volUp):
		m.player.SetVolumeLevel(st.Volume + volumeStep)
		return m, nil
	case key.Matches(msg, m.keys.volDown):
		m.player.SetVolumeLevel(st.Volume - volumeStep)
		return m, nil
	case key.Matches(msg, m.keys.forward):
		m.player.SeekTo(st.CurrentTime + seekStep)
		return m, nil
	case key.Matches(msg, m.keys.backward):
		m.player.SeekTo(st.CurrentTime - seekStep)
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.loading = true
		return m, m.loadTracks(true)
	}

	return m.updateList(msg)
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) loadTracks(force bool) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.load(m.ctx, force)
		return tracksLoadedMsg(tracks, err)
	}
}

func (m *Model) waitForState() tea.Cmd {
	states := m.states
	return func() tea.Msg {
		if states == nil {
			return subscriptionClosedMsg()
		}
		st, ok := <-states
		if !ok {
			return subscriptionClosedMsg()
		}
		return stateChangedMsg(st)
	}
}

// View renders the track list above the now-playing bar.
func (m *Model) View() string {
	var b strings.Builder

	switch {
	case m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(styles.help.Render("Press R to retry, q to quit"))
	case m.loading && len(m.tracks) == 0:
		b.WriteString(styles.title.Render(m.title))
		b.WriteString("\nLoading library...")
	case len(m.tracks) == 0:
		b.WriteString(styles.title.Render(m.title))
		b.WriteString("\n")
		b.WriteString(styles.warn.Render("No playable tracks."))
	default:
		b.WriteString(m.list.View())
	}

	b.WriteString("\n")
	b.WriteString(m.renderNowPlaying())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderNowPlaying() string {
	st := m.state
	if st.Track == nil {
		return styles.nowBar.Render(styles.caption.Render("Nothing playing"))
	}

	heading := fmt.Sprintf("%s %s", statusIcon(st), styles.ok.Render(st.Track.Title))
	if st.Track.Author != "" {
		heading += styles.caption.Render(" · " + st.Track.Author)
	}

	position := fmt.Sprintf("%s %s / %s", m.bar.ViewAs(st.Progress()), player.FormatTime(st.CurrentTime), player.FormatTime(st.Duration))
	flags := strings.Join([]string{
		flag("shuffle", st.IsShuffled),
		flag("repeat", st.IsRepeated),
		styles.caption.Render(fmt.Sprintf("vol %d%%", int(st.Volume*100+0.5))),
		styles.caption.Render(fmt.Sprintf("%d/%d", st.Index+1, len(st.Playlist))),
	}, "  ")

	return styles.nowBar.Render(lipgloss.JoinVertical(lipgloss.Left, heading, position, flags))
}

func statusIcon(st player.State) string {
	switch {
	case st.Status == player.Loading:
		return "…"
	case st.IsPlaying:
		return "▶"
	case st.Status == player.Ended:
		return "■"
	default:
		return "⏸"
	}
}

package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/player"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTracksLoaded MsgKind = iota
	MsgStateChanged
	MsgSubscriptionClosed
)

type tracksLoaded struct {
	tracks []models.Track
	err    error
}

// tracksLoadedMsg is the constructor for [MsgTracksLoaded]
func tracksLoadedMsg(tracks []models.Track, err error) Msg {
	return Msg{kind: MsgTracksLoaded, data: tracksLoaded{tracks, err}}
}

// stateChangedMsg is the constructor for [MsgStateChanged]
func stateChangedMsg(st player.State) Msg {
	return Msg{kind: MsgStateChanged, data: st}
}

// subscriptionClosedMsg is the constructor for [MsgSubscriptionClosed]
func subscriptionClosedMsg() Msg {
	return Msg{kind: MsgSubscriptionClosed}
}

// Package ui implements an interactive terminal player using bubbletea's Elm architecture.
//
// The screen is a filterable track list (the library's playable items) above a now-playing bar with the current
// title and author, elapsed/total time, a progress bar and the shuffle, repeat and volume indicators.
//
// The [Model] never keeps its own playback state: it subscribes to the engine and re-renders from each snapshot
// that arrives on the subscription channel. Enter plays the selected track with the visible (filtered) rows as the
// playlist, so filtering narrows what next/previous walk through.
//
// Keyboard bindings are listed via charmbracelet/bubbles/help.
package ui

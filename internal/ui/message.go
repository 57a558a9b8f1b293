package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/dexwatch/internal/sse"
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
	MsgTask MsgKind = iota
	MsgStatus
)

// taskMsg is the constructor for [MsgTask]
func taskMsg(task func()) Msg {
	return Msg{kind: MsgTask, data: task}
}

// statusMsg is the constructor for [MsgStatus]
func statusMsg(update sse.StatusUpdate) Msg {
	return Msg{kind: MsgStatus, data: update}
}

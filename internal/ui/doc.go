// Package ui implements the interactive live board using bubbletea's Elm architecture.
//
// The (view) [Model] renders one box of the current game as a grid of status-colored slots,
// the caught readouts of every game in a [list.Model], and a footer describing the slot under
// the cursor. Keyboard navigation uses vim-style bindings (h/j/k/l, tab, ?, q) with contextual
// help displayed via charmbracelet/bubbles/help.
//
// Stream events never touch the board from the transport goroutine. The [Dispatcher] passes
// each decode-and-apply task to the program as a message and Update runs it, so the board has
// a single owner. Connection status flows through a non-blocking channel from the sse client.
package ui

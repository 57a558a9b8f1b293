package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/dexwatch/internal/livesync"
)

var _ livesync.Dispatcher = (*Dispatcher)(nil)

// Dispatcher hands decode-and-apply tasks to the bubbletea program so they run inside Update,
// the only goroutine that touches the board.
type Dispatcher struct {
	tasks chan func()
	stop  chan struct{}
	once  sync.Once
}

// NewDispatcher creates a Dispatcher buffering up to size tasks.
func NewDispatcher(size int) *Dispatcher {
	if size <= 0 {
		size = livesync.DefaultQueueSize
	}
	return &Dispatcher{
		tasks: make(chan func(), size),
		stop:  make(chan struct{}),
	}
}

// Dispatch blocks until the program takes the task or the dispatcher is stopped.
func (d *Dispatcher) Dispatch(task func()) {
	select {
	case <-d.stop:
		return
	default:
	}

	select {
	case d.tasks <- task:
	case <-d.stop:
	}
}

// Stop releases blocked producers. Tasks not yet run are dropped.
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.stop) })
}

// wait returns a [tea.Cmd] delivering the next task as a message.
func (d *Dispatcher) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case task := <-d.tasks:
			return taskMsg(task)
		case <-d.stop:
			return nil
		}
	}
}

// Package teabind connects store bindings to a Bubble Tea program. A binding
// notification becomes a RefreshMsg on the program's loop, and the model
// acknowledges it by calling Handle, which re-renders the binding.
package teabind

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	conveyor "github.com/goliatone/go-conveyor"
)

// Sender delivers messages to a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// RefreshMsg asks the model to re-read the binding identified by ID.
type RefreshMsg struct {
	ID string
}

// SettledMsg reports that an update made through UpdateCmd has been
// committed and every affected binding refreshed.
type SettledMsg struct {
	ID  string
	Err error
}

// Bridge forwards one binding's notifications to a program.
type Bridge struct {
	id      string
	binding *conveyor.Binding
	stop    func()
	once    sync.Once
}

// Attach subscribes b and sends a RefreshMsg to sender on each change.
func Attach(sender Sender, id string, b *conveyor.Binding) *Bridge {
	br := &Bridge{id: id, binding: b}
	br.stop = b.Subscribe(func() {
		sender.Send(RefreshMsg{ID: id})
	})
	return br
}

// ID returns the identifier carried by this bridge's messages.
func (br *Bridge) ID() string {
	return br.id
}

// Binding returns the bridged binding.
func (br *Bridge) Binding() *conveyor.Binding {
	return br.binding
}

// Handle renders the binding when msg is a RefreshMsg for this bridge. It
// reports whether the message was consumed.
func (br *Bridge) Handle(msg tea.Msg) (any, bool, error) {
	refresh, ok := msg.(RefreshMsg)
	if !ok || refresh.ID != br.id {
		return nil, false, nil
	}
	selected, err := br.binding.Render()
	return selected, true, err
}

// UpdateCmd returns a command that applies work through the binding and
// reports a SettledMsg once the update has fully settled.
func (br *Bridge) UpdateCmd(work conveyor.Work) tea.Cmd {
	return func() tea.Msg {
		done, err := br.binding.Update(work)
		if err != nil {
			return SettledMsg{ID: br.id, Err: err}
		}
		_, err = done.Wait(context.Background())
		return SettledMsg{ID: br.id, Err: err}
	}
}

// WaitCmd returns a command that reports when c settles.
func (br *Bridge) WaitCmd(c *conveyor.Completion) tea.Cmd {
	return func() tea.Msg {
		_, err := c.Wait(context.Background())
		return SettledMsg{ID: br.id, Err: err}
	}
}

// Close unsubscribes the binding.
func (br *Bridge) Close() {
	br.once.Do(func() {
		if br.stop != nil {
			br.stop()
		}
	})
}

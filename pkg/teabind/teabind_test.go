package teabind

import (
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	conveyor "github.com/goliatone/go-conveyor"
	"github.com/goliatone/go-conveyor/produce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
	on   func(tea.Msg)
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	on := s.on
	s.mu.Unlock()
	if on != nil {
		on(msg)
	}
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func countSelector(op *conveyor.Operators) any {
	return op.Edit("count")
}

func increment(d *produce.Draft) {
	d.Replace(d.Value().(int) + 1)
}

func TestAttachSendsRefreshOnChange(t *testing.T) {
	store := conveyor.New(map[string]any{"count": 0, "other": 0}, conveyor.WithDeferrer(conveyor.ImmediateDeferrer))
	binding, err := store.Bind(countSelector)
	require.NoError(t, err)

	sender := &recordingSender{}
	bridge := Attach(sender, "counter", binding)
	defer bridge.Close()

	_, err = store.Update(func(op *conveyor.Operators) any { return op.Edit("other") }, conveyor.Replace(5))
	require.NoError(t, err)
	assert.Equal(t, 0, sender.count(), "unrelated path must not notify")

	done, err := binding.Update(conveyor.Mutate(increment))
	require.NoError(t, err)
	require.Equal(t, 1, sender.count())
	assert.Equal(t, RefreshMsg{ID: "counter"}, sender.msgs[0])
	assert.False(t, done.Settled(), "update settles only after the model renders")

	selected, handled, err := bridge.Handle(sender.msgs[0])
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, 1, selected)
	<-done.Done()
	assert.NoError(t, done.Err())
}

func TestHandleIgnoresForeignMessages(t *testing.T) {
	store := conveyor.New(map[string]any{"count": 0})
	binding, err := store.Bind(countSelector)
	require.NoError(t, err)
	bridge := Attach(&recordingSender{}, "a", binding)
	defer bridge.Close()

	_, handled, _ := bridge.Handle(RefreshMsg{ID: "b"})
	assert.False(t, handled)
	_, handled, _ = bridge.Handle(tea.KeyMsg{})
	assert.False(t, handled)
}

func TestUpdateCmdReportsSettled(t *testing.T) {
	store := conveyor.New(map[string]any{"count": 0}, conveyor.WithDeferrer(conveyor.ImmediateDeferrer))
	binding, err := store.Bind(countSelector)
	require.NoError(t, err)

	sender := &recordingSender{}
	var bridge *Bridge
	sender.on = func(msg tea.Msg) {
		_, _, _ = bridge.Handle(msg)
	}
	bridge = Attach(sender, "counter", binding)
	defer bridge.Close()

	msg := bridge.UpdateCmd(conveyor.Mutate(increment))()
	settled, ok := msg.(SettledMsg)
	require.True(t, ok)
	assert.Equal(t, "counter", settled.ID)
	assert.NoError(t, settled.Err)
	assert.Equal(t, 1, binding.Selected())
}

func TestCloseStopsNotifications(t *testing.T) {
	store := conveyor.New(map[string]any{"count": 0}, conveyor.WithDeferrer(conveyor.ImmediateDeferrer))
	binding, err := store.Bind(countSelector)
	require.NoError(t, err)
	sender := &recordingSender{}
	bridge := Attach(sender, "counter", binding)
	bridge.Close()
	bridge.Close()

	done, err := binding.Update(conveyor.Mutate(increment))
	require.NoError(t, err)
	<-done.Done()
	assert.Equal(t, 0, sender.count())
	assert.Equal(t, 0, store.Subscribers())
}

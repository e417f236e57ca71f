package picker

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ksteinfeldt/gitswitch/internal/identity"
)

var testIDs = []identity.Identity{
	{Key: "abc", Name: "Alice", Email: "alice@example.com"},
	{Key: "bob", Name: "Bob", Email: "bob@example.com"},
	{Key: "cat", Name: "Cat", Email: "cat@example.com"},
}

func send(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestPicker_EnterPicksHighlighted(t *testing.T) {
	m := New(testIDs, "")
	m, cmd := send(t, m,
		tea.WindowSizeMsg{Width: 80, Height: 40},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	if !isQuit(cmd) {
		t.Error("enter should quit the program")
	}
	if m.Choice() == nil || m.Choice().Key != "bob" {
		t.Errorf("choice = %+v, want bob", m.Choice())
	}
	if m.View() != "" {
		t.Error("view should be empty after a choice")
	}
}

func TestPicker_StartsOnActive(t *testing.T) {
	m := New(testIDs, "cat")
	m, _ = send(t, m,
		tea.WindowSizeMsg{Width: 80, Height: 40},
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	if m.Choice() == nil || m.Choice().Key != "cat" {
		t.Errorf("choice = %+v, want cat", m.Choice())
	}
}

func TestPicker_QuitWithoutChoice(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		m := New(testIDs, "")
		m, cmd := send(t, m, tea.WindowSizeMsg{Width: 80, Height: 40}, key)
		if !isQuit(cmd) {
			t.Errorf("%s should quit", key)
		}
		if m.Choice() != nil {
			t.Errorf("%s should not pick, got %+v", key, m.Choice())
		}
	}
}

func TestRun_NoIdentities(t *testing.T) {
	_, err := Run(context.Background(), nil, "", nil, nil)
	if !errors.Is(err, ErrNoIdentities) {
		t.Errorf("expected ErrNoIdentities, got: %v", err)
	}
}

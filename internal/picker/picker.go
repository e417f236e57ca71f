// Package picker is the interactive identity chooser behind `gitswitch pick`.
package picker

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ksteinfeldt/gitswitch/internal/identity"
	"github.com/ksteinfeldt/gitswitch/internal/style"
)

// ErrNoIdentities is returned when there is nothing to pick from.
var ErrNoIdentities = errors.New("no identities registered")

type item struct {
	id     identity.Identity
	active bool
}

func (i item) Title() string {
	if i.active {
		return i.id.Key + " " + style.ActivePrefix
	}
	return i.id.Key
}

func (i item) Description() string { return i.id.String() }

func (i item) FilterValue() string {
	return i.id.Key + " " + i.id.Name + " " + i.id.Email
}

// Model is the bubbletea model for the picker.
type Model struct {
	list     list.Model
	choice   *identity.Identity
	quitting bool
}

// New builds a picker over ids with the cursor on activeKey, if present.
func New(ids []identity.Identity, activeKey string) Model {
	items := make([]list.Item, 0, len(ids))
	selected := 0
	for i, id := range ids {
		active := id.Key == activeKey
		if active {
			selected = i
		}
		items = append(items, item{id: id, active: active})
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Switch git identity"
	l.SetShowStatusBar(false)
	l.Select(selected)

	return Model{list: l}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		// Keys belong to the filter input while the user is typing.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if it, ok := m.list.SelectedItem().(item); ok {
				id := it.id
				m.choice = &id
			}
			return m, tea.Quit
		case "esc":
			if m.list.FilterState() == list.FilterApplied {
				break
			}
			m.quitting = true
			return m, tea.Quit
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.choice != nil || m.quitting {
		return ""
	}
	return m.list.View()
}

// Choice is the picked identity, or nil if the user quit.
func (m Model) Choice() *identity.Identity {
	return m.choice
}

// Run shows the picker and blocks until the user picks or quits.
func Run(ctx context.Context, ids []identity.Identity, activeKey string, in io.Reader, out io.Writer) (*identity.Identity, error) {
	if len(ids) == 0 {
		return nil, ErrNoIdentities
	}

	p := tea.NewProgram(New(ids, activeKey),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	return final.(Model).Choice(), nil
}

package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConfirmModel asks the operator to type the name of the thing about to be
// destroyed. Only an exact match confirms.
type ConfirmModel struct {
	kind      string
	name      string
	input     textinput.Model
	mismatch  bool
	confirmed bool
	done      bool
	width     int
}

// NewConfirm returns a prompt for deleting the named object of the given kind.
func NewConfirm(kind, name string) ConfirmModel {
	ti := textinput.New()
	ti.Placeholder = sanitize(name)
	ti.CharLimit = 512
	ti.Focus()
	return ConfirmModel{kind: kind, name: name, input: ti}
}

// Confirmed reports whether the operator typed the name and pressed enter.
func (m ConfirmModel) Confirmed() bool { return m.confirmed }

// Init implements tea.Model.
func (m ConfirmModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, confirmKeys.Cancel):
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, confirmKeys.Confirm):
			if m.input.Value() == m.name {
				m.confirmed = true
				m.done = true
				return m, tea.Quit
			}
			m.mismatch = true
			m.input.SetValue("")
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if _, ok := msg.(tea.KeyMsg); ok {
		m.mismatch = false
	}
	return m, cmd
}

// View implements tea.Model.
func (m ConfirmModel) View() string {
	if m.done {
		return ""
	}
	width := m.width
	if width <= 0 {
		width = 80
	}

	title := fmt.Sprintf("Delete %s", m.kind)
	hint := StyleDim.Render("[enter: confirm  esc: cancel]")
	gap := width - 2 - lipgloss.Width(title) - lipgloss.Width(hint)
	if gap < 1 {
		gap = 1
	}
	titleBar := StyleHeader.Width(width).MaxWidth(width).Render(title + strings.Repeat(" ", gap) + hint)

	lines := []string{
		titleBar,
		"",
		"  " + StyleRed.Bold(true).Render("WARNING: This action cannot be undone."),
		"",
		fmt.Sprintf("  The %s %s will be permanently deleted.", m.kind, StyleYellow.Render(sanitize(m.name))),
		"  Type its name to confirm:",
		"",
		"  " + m.input.View(),
	}
	if m.mismatch {
		lines = append(lines, "", "  "+StyleError.Render("Name does not match."))
	}
	return strings.Join(lines, "\n") + "\n"
}

// Confirm runs the prompt on the given streams and reports the answer.
func Confirm(in io.Reader, out io.Writer, kind, name string) (bool, error) {
	p := tea.NewProgram(NewConfirm(kind, name), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}
	m, ok := final.(ConfirmModel)
	return ok && m.Confirmed(), nil
}

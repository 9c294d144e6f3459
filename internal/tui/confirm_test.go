package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(m tea.Model, s string) tea.Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestConfirm_ExactNameConfirms(t *testing.T) {
	var m tea.Model = NewConfirm("index", "logs-2024")
	m = typeText(m, "logs-2024")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.(ConfirmModel).Confirmed())
	assert.Empty(t, m.View())
}

func TestConfirm_MismatchKeepsPrompting(t *testing.T) {
	var m tea.Model = NewConfirm("index", "logs-2024")
	m = typeText(m, "logs-2023")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	cm := m.(ConfirmModel)
	assert.False(t, cm.Confirmed())
	assert.Contains(t, stripANSI(cm.View()), "Name does not match.")
	assert.Empty(t, cm.input.Value())

	m = typeText(m, "l")
	assert.NotContains(t, stripANSI(m.View()), "Name does not match.")
}

func TestConfirm_EscCancels(t *testing.T) {
	var m tea.Model = NewConfirm("dashboard", "abc")
	m = typeText(m, "abc")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.False(t, m.(ConfirmModel).Confirmed())
}

func TestConfirm_View(t *testing.T) {
	m, _ := NewConfirm("index", "logs\x1b[31m-2024").Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	view := stripANSI(m.View())
	assert.Contains(t, view, "Delete index")
	assert.Contains(t, view, "WARNING: This action cannot be undone.")
	assert.Contains(t, view, "The index logs-2024 will be permanently deleted.")
}

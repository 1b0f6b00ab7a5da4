package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// confirmDialog is a yes/no prompt guarding a destructive command.
type confirmDialog struct {
	prompt string
	yes    bool
	onYes  tea.Cmd
}

func newConfirmDialog(prompt string, onYes tea.Cmd) *confirmDialog {
	return &confirmDialog{prompt: prompt, onYes: onYes}
}

// Update handles a key; done reports that the dialog should close.
func (d *confirmDialog) Update(msg tea.KeyMsg) (cmd tea.Cmd, done bool) {
	switch msg.String() {
	case "left", "h":
		d.yes = true
	case "right", "l":
		d.yes = false
	case "enter", "y":
		if d.yes {
			return d.onYes, true
		}
		return nil, true
	}
	return nil, false
}

func (d *confirmDialog) View() string {
	var b strings.Builder
	b.WriteString(d.prompt)
	b.WriteString("\n\n")

	yes := inactiveButtonStyle.Render("Yes")
	no := inactiveButtonStyle.Render("No")
	if d.yes {
		yes = activeButtonStyle.Render("Yes")
	} else {
		no = activeButtonStyle.Render("No")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Left, yes, "  ", no))
	return boxStyle.Render(b.String())
}

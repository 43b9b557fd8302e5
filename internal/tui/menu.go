// Package tui holds the interactive surfaces: the main action menu, the
// Secure Boot decision prompt, and the manual ESP path prompt. Everything
// here translates key presses into the same action vocabulary the batch
// mode takes on the command line.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/bootglyph/internal/pipeline"
	"github.com/alexisbeaulieu97/bootglyph/pkg/errors"
)

// MenuChoice is one selectable menu row mapped onto an action list.
type MenuChoice struct {
	Label   string
	Actions []string
}

// DefaultMenu lists the operations offered when the tool starts without
// arguments on a terminal.
func DefaultMenu() []MenuChoice {
	return []MenuChoice{
		{Label: "Install and create a boot entry", Actions: []string{pipeline.ActionInstall, pipeline.ActionEnableEntry}},
		{Label: "Install and overwrite the Windows boot manager", Actions: []string{pipeline.ActionInstall, pipeline.ActionEnableOverwrite}},
		{Label: "Disable (boot the Windows boot manager again)", Actions: []string{pipeline.ActionDisable}},
		{Label: "Uninstall (disable and remove installed files)", Actions: []string{pipeline.ActionUninstall}},
		{Label: "Reboot into firmware setup", Actions: []string{pipeline.ActionBootToFirmware}},
		{Label: "Quit"},
	}
}

type menuModel struct {
	status  *pipeline.Status
	choices []MenuChoice
	cursor  int

	chosen    bool
	cancelled bool
}

func (m menuModel) Init() tea.Cmd { return nil }

func (m menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "enter":
		if m.choices[m.cursor].Actions == nil {
			m.cancelled = true
		} else {
			m.chosen = true
		}
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m menuModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("bootglyph setup"))
	b.WriteString("\n\n")
	b.WriteString(renderStatus(m.status))
	b.WriteString("\n")

	for i, c := range m.choices {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + c.Label))
		} else {
			b.WriteString(choiceStyle.Render("  " + c.Label))
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("up/down select, enter confirm, q quit"))
	b.WriteString("\n")
	return b.String()
}

// renderStatus summarizes what is currently on the machine. A nil status
// means inspection failed; the menu still works without it.
func renderStatus(st *pipeline.Status) string {
	if st == nil {
		return dimStyle.Render("machine state unavailable") + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", dimStyle.Render("system partition:"), st.ESPRoot)
	fmt.Fprintf(&b, "%s %s\n", dimStyle.Render("live boot loader:"), string(st.LiveIdentity))
	fmt.Fprintf(&b, "%s %s\n", dimStyle.Render("vendor backup:"), string(st.BackupIdentity))

	var active []string
	if st.NVRAMActive {
		active = append(active, "boot entry")
	}
	if st.BCDActive {
		active = append(active, "bcd entry")
	}
	if st.OverwriteActive {
		active = append(active, "overwrite")
	}
	if len(active) > 0 {
		fmt.Fprintf(&b, "%s %s\n", dimStyle.Render("active methods:"), strings.Join(active, ", "))
	}
	if st.Manifest != nil {
		fmt.Fprintf(&b, "%s version %s for %s\n", dimStyle.Render("installed:"), st.Manifest.Version, st.Manifest.Arch)
	}
	return b.String()
}

// ChooseActions shows the main menu and returns the chosen action list.
// Quitting the menu returns pkg/errors.ErrCancelled.
func ChooseActions(status *pipeline.Status) ([]string, error) {
	final, err := tea.NewProgram(menuModel{status: status, choices: DefaultMenu()}).Run()
	if err != nil {
		return nil, err
	}
	m := final.(menuModel)
	if !m.chosen {
		return nil, errors.ErrCancelled
	}
	return m.choices[m.cursor].Actions, nil
}

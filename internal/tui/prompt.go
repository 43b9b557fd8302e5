package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/bootglyph/internal/firmware"
	"github.com/alexisbeaulieu97/bootglyph/internal/pipeline"
	"github.com/alexisbeaulieu97/bootglyph/pkg/errors"
)

// SecureBootPrompt asks what to do when Secure Boot would block the
// installed loader. It satisfies the pipeline's Prompter port.
type SecureBootPrompt struct{}

var _ pipeline.Prompter = SecureBootPrompt{}

var secureBootChoices = []struct {
	label    string
	decision pipeline.Decision
}{
	{"Continue anyway (the loader will not boot until Secure Boot is off)", pipeline.DecisionContinue},
	{"Reboot into firmware setup to disable Secure Boot", pipeline.DecisionReboot},
	{"Cancel", pipeline.DecisionCancel},
}

func (SecureBootPrompt) ConfirmInsecureBoot(_ context.Context, state firmware.SecureBootState) (pipeline.Decision, error) {
	final, err := tea.NewProgram(secureBootModel{state: state, cursor: len(secureBootChoices) - 1}).Run()
	if err != nil {
		return pipeline.DecisionCancel, err
	}
	return final.(secureBootModel).decision(), nil
}

type secureBootModel struct {
	state  firmware.SecureBootState
	cursor int
	chosen bool
}

func (m secureBootModel) Init() tea.Cmd { return nil }

func (m secureBootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		if m.cursor < len(secureBootChoices)-1 {
			m.cursor++
		}
	case "enter":
		m.chosen = true
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.chosen = false
		return m, tea.Quit
	}
	return m, nil
}

func (m secureBootModel) View() string {
	var b strings.Builder
	b.WriteString(warnStyle.Render(fmt.Sprintf("Secure Boot is %s.", m.state)))
	b.WriteString("\n")
	b.WriteString("The installed loader is unsigned and will be rejected at boot while Secure Boot is on.\n\n")

	for i, c := range secureBootChoices {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + c.label))
		} else {
			b.WriteString(choiceStyle.Render("  " + c.label))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("up/down select, enter confirm, esc cancel"))
	b.WriteString("\n")
	return b.String()
}

func (m secureBootModel) decision() pipeline.Decision {
	if !m.chosen {
		return pipeline.DecisionCancel
	}
	return secureBootChoices[m.cursor].decision
}

// ESPPathPrompt asks for a manual system-partition path when discovery and
// mounting both came up empty. It satisfies the locator's PathPrompter
// port.
type ESPPathPrompt struct{}

func (ESPPathPrompt) AskESPPath(context.Context) (string, error) {
	input := textinput.New()
	input.Placeholder = `S:\`
	input.Focus()

	final, err := tea.NewProgram(espPathModel{input: input}).Run()
	if err != nil {
		return "", err
	}
	m := final.(espPathModel)
	if !m.submitted || strings.TrimSpace(m.input.Value()) == "" {
		return "", errors.ErrCancelled
	}
	return strings.TrimSpace(m.input.Value()), nil
}

type espPathModel struct {
	input     textinput.Model
	submitted bool
}

func (m espPathModel) Init() tea.Cmd { return textinput.Blink }

func (m espPathModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			m.submitted = true
			return m, tea.Quit
		case "esc", "ctrl+c":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m espPathModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("EFI system partition not found"))
	b.WriteString("\n")
	b.WriteString("Enter the drive letter or path where the EFI system partition is mounted.\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter confirm, esc cancel"))
	b.WriteString("\n")
	return b.String()
}

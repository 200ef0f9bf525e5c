package tui

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// prompt is the editor shown under the feed. Post bodies get a textarea,
// every other prompt a single line.
type prompt struct {
	label     string
	multiline bool
	line      textinput.Model
	area      textarea.Model
}

func newLineInput(value string, masked bool) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 0
	ti.Cursor.SetMode(cursor.CursorStatic)
	if masked {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
	}
	ti.SetValue(value)
	return ti
}

func linePrompt(label, value string) prompt {
	ti := newLineInput(value, false)
	ti.Focus()
	return prompt{label: label, line: ti}
}

func areaPrompt(label, value string) prompt {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(60)
	ta.SetHeight(4)
	ta.Cursor.SetMode(cursor.CursorStatic)
	ta.SetValue(value)
	ta.Focus()
	return prompt{label: label, multiline: true, area: ta}
}

func (p prompt) Value() string {
	if p.multiline {
		return p.area.Value()
	}
	return p.line.Value()
}

// submits reports whether msg ends the prompt: enter on a single line,
// ctrl+s in a textarea where enter breaks the line.
func (p prompt) submits(msg tea.KeyMsg) bool {
	if p.multiline {
		return msg.Type == tea.KeyCtrlS
	}
	return msg.Type == tea.KeyEnter
}

func (p prompt) update(msg tea.Msg) (prompt, tea.Cmd) {
	var cmd tea.Cmd
	if p.multiline {
		p.area, cmd = p.area.Update(msg)
	} else {
		p.line, cmd = p.line.Update(msg)
	}
	return p, cmd
}

func (p prompt) View() string {
	if p.multiline {
		return p.label + " (ctrl+s to submit)\n" + p.area.View() + "\n"
	}
	return p.label + ": " + p.line.View() + "\n"
}

// formField is one labelled line of the login or signup form.
type formField struct {
	label string
	input textinput.Model
}

func newForm(fields ...formField) []formField {
	if len(fields) > 0 {
		fields[0].input.Focus()
	}
	return fields
}

func textField(label string) formField {
	return formField{label: label, input: newLineInput("", false)}
}

func passwordField(label string) formField {
	return formField{label: label, input: newLineInput("", true)}
}

package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/braunma/dem-console/pkg/forms"
	"github.com/braunma/dem-console/pkg/utils"
)

// formModel edits one dialog. Text inputs are backed by textinput models;
// selects and checkboxes are edited in place with left/right and space.
type formModel struct {
	dialog *forms.Dialog
	inputs map[string]*textinput.Model
	focus  string
	errors []string
}

func newForm(d *forms.Dialog) *formModel {
	f := &formModel{dialog: d, inputs: map[string]*textinput.Model{}}
	for _, in := range d.Inputs {
		switch in.Kind {
		case forms.InputText, forms.InputNumber, forms.InputPassword:
			ti := textinput.New()
			ti.Prompt = ""
			ti.CharLimit = 128
			ti.SetValue(in.Value)
			if in.Kind == forms.InputPassword {
				ti.EchoMode = textinput.EchoPassword
			}
			f.inputs[in.Key] = &ti
		}
	}
	f.setFocus(d.FirstFocus())
	return f
}

// setFocus moves the cursor to key, blurring every other text input
func (f *formModel) setFocus(key string) tea.Cmd {
	f.focus = key
	var cmd tea.Cmd
	for k, ti := range f.inputs {
		if k == key {
			cmd = ti.Focus()
		} else {
			ti.Blur()
		}
	}
	return cmd
}

// sync copies the text inputs into the dialog
func (f *formModel) sync() {
	for key, ti := range f.inputs {
		_ = f.dialog.Set(key, ti.Value())
	}
}

func (f *formModel) activeKeys() []string {
	active := f.dialog.Active()
	keys := make([]string, 0, len(active))
	for _, in := range active {
		keys = append(keys, in.Key)
	}
	return keys
}

func (f *formModel) move(delta int) tea.Cmd {
	keys := f.activeKeys()
	if len(keys) == 0 {
		return nil
	}
	i := 0
	for j, k := range keys {
		if k == f.focus {
			i = j
		}
	}
	i = (i + delta + len(keys)) % len(keys)
	return f.setFocus(keys[i])
}

func (f *formModel) focused() *forms.Input {
	for i := range f.dialog.Inputs {
		if f.dialog.Inputs[i].Key == f.focus {
			return &f.dialog.Inputs[i]
		}
	}
	return nil
}

// cycle steps the focused select through its options
func (f *formModel) cycle(delta int) {
	in := f.focused()
	if in == nil || in.Kind != forms.InputSelect || len(in.Options) == 0 {
		return
	}
	i := 0
	for j, opt := range in.Options {
		if opt == in.Value {
			i = j
		}
	}
	i = (i + delta + len(in.Options)) % len(in.Options)
	_ = f.dialog.Set(in.Key, in.Options[i])
}

func (f *formModel) toggle() {
	in := f.focused()
	if in == nil || in.Kind != forms.InputCheckbox {
		return
	}
	_ = f.dialog.Set(in.Key, strconv.FormatBool(!utils.Truthy(in.Value)))
}

// validate syncs and checks the dialog. On failure the messages are kept for
// the error panel and focus jumps to the first invalid input.
func (f *formModel) validate() (bool, tea.Cmd) {
	f.sync()
	result := f.dialog.Validate()
	if result.OK() {
		f.errors = nil
		return true, nil
	}
	f.errors = result.Texts()
	return false, f.setFocus(result.FirstField())
}

// update handles a key while the form is open. It reports whether the
// user asked to submit.
func (f *formModel) update(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case matches(msg, keys.Submit):
		return true, nil
	case matches(msg, keys.Next):
		return false, f.move(1)
	case matches(msg, keys.Prev):
		return false, f.move(-1)
	}

	in := f.focused()
	if in == nil {
		return false, nil
	}
	switch in.Kind {
	case forms.InputSelect:
		switch msg.String() {
		case "left", "h":
			f.cycle(-1)
		case "right", "l", " ":
			f.cycle(1)
		}
		return false, nil
	case forms.InputCheckbox:
		if msg.String() == " " || msg.String() == "x" {
			f.toggle()
		}
		return false, nil
	}

	ti, ok := f.inputs[in.Key]
	if !ok {
		return false, nil
	}
	updated, cmd := ti.Update(msg)
	*ti = updated
	return false, cmd
}

// updateMsg passes non-key messages, such as cursor blinks, to the focused
// text input
func (f *formModel) updateMsg(msg tea.Msg) tea.Cmd {
	ti, ok := f.inputs[f.focus]
	if !ok {
		return nil
	}
	updated, cmd := ti.Update(msg)
	*ti = updated
	return cmd
}

func (f *formModel) view() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(f.dialog.Title) + "\n\n")

	for _, in := range f.dialog.Active() {
		marker := "  "
		label := in.Label
		if in.Key == f.focus {
			marker = focusedStyle.Render("> ")
			label = focusedStyle.Render(label)
		}

		var value string
		switch in.Kind {
		case forms.InputSelect:
			value = "< " + in.Value + " >"
		case forms.InputCheckbox:
			value = "[ ]"
			if utils.Truthy(in.Value) {
				value = "[x]"
			}
		default:
			value = f.inputs[in.Key].View()
		}
		b.WriteString(marker + label + ": " + value + "\n")
	}
	return formStyle.Render(strings.TrimRight(b.String(), "\n"))
}

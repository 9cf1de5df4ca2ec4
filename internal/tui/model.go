package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/client"
	"github.com/braunma/dem-console/pkg/forms"
	"github.com/braunma/dem-console/pkg/render"
	"github.com/braunma/dem-console/pkg/uri"
)

type state int

const (
	stateBrowse state = iota
	stateLoading
	stateForm
)

// chrome is the number of lines around the viewport: title, status, help
const chrome = 4

// fragmentMsg delivers the view of a location
type fragmentMsg struct {
	loc      uri.Location
	fragment render.Fragment
	push     bool
	err      error
}

// optionsMsg delivers the pick-list a dialog needs before it is shown
type optionsMsg struct {
	aff     render.Affordance
	options []string
	err     error
}

// submitMsg reports the outcome of a dialog request
type submitMsg struct {
	dialog *forms.Dialog
	err    error
}

// Model is the browser state
type Model struct {
	backend Backend
	ctx     context.Context
	log     logrus.FieldLogger

	state    state
	loc      uri.Location
	history  []uri.Location
	fragment render.Fragment
	rows     []row
	cursor   int

	viewport viewport.Model
	help     help.Model
	form     *formModel

	err    error
	status string
	width  int
	height int
}

// New creates a browser starting at start
func New(ctx context.Context, backend Backend, start uri.Location, log logrus.FieldLogger) Model {
	return Model{
		backend:  backend,
		ctx:      ctx,
		log:      log,
		state:    stateLoading,
		loc:      start,
		viewport: viewport.New(80, 20),
		help:     help.New(),
	}
}

// Run shows the browser until the user quits or ctx ends
func Run(ctx context.Context, backend Backend, start uri.Location, log logrus.FieldLogger) error {
	p := tea.NewProgram(New(ctx, backend, start, log), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run browser: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return m.load(m.loc, false)
}

func (m Model) load(loc uri.Location, push bool) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		f, err := backend.Show(ctx, loc)
		return fragmentMsg{loc: loc, fragment: f, push: push, err: err}
	}
}

func (m Model) loadOptions(aff render.Affordance, objectType string) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		options, err := backend.Options(ctx, objectType)
		return optionsMsg{aff: aff, options: options, err: err}
	}
}

func (m Model) submit(d *forms.Dialog) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		req, err := d.Request()
		if err != nil {
			return submitMsg{dialog: d, err: err}
		}
		_, err = backend.Do(ctx, req)
		return submitMsg{dialog: d, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chrome, 1)
		m.syncViewport()
		return m, nil

	case fragmentMsg:
		return m.showFragment(msg), nil

	case optionsMsg:
		if msg.err != nil {
			m.state = stateBrowse
			m.err = fmt.Errorf("failed to load %s list: %w", msg.aff.Node.ObjectType, msg.err)
			return m, nil
		}
		d, err := forms.For(msg.aff, msg.options)
		if err != nil {
			m.state = stateBrowse
			m.err = err
			return m, nil
		}
		return m.openDialog(d)

	case submitMsg:
		return m.submitted(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.state {
		case stateForm:
			return m.updateForm(msg)
		case stateBrowse:
			return m.updateBrowse(msg)
		}
		return m, nil
	}

	if m.state == stateForm && !m.form.dialog.IsConfirmation() {
		return m, m.form.updateMsg(msg)
	}
	return m, nil
}

func (m Model) showFragment(msg fragmentMsg) Model {
	m.state = stateBrowse
	if msg.err != nil {
		m.err = msg.err
		m.log.WithError(msg.err).WithField("location", msg.loc.Ref()).Warn("failed to load view")
		if client.DropsSession(msg.err) {
			m.status = "session closed, log in again"
		}
		return m
	}

	if msg.push && msg.loc != m.loc {
		m.history = append(m.history, m.loc)
	}
	m.loc = msg.loc
	m.fragment = msg.fragment
	m.rows = rowsOf(msg.fragment)
	m.cursor = m.firstSelectable()
	m.err = nil
	m.syncViewport()
	return m
}

func (m Model) navigate(loc uri.Location) (Model, tea.Cmd) {
	m.state = stateLoading
	m.status = ""
	return m, m.load(loc, true)
}

func (m Model) back() (Model, tea.Cmd) {
	target := m.loc.Parent()
	if n := len(m.history); n > 0 {
		target = m.history[n-1]
		m.history = m.history[:n-1]
	}
	m.state = stateLoading
	m.status = ""
	return m, m.load(target, false)
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case matches(msg, keys.Quit):
		return m, tea.Quit
	case matches(msg, keys.Up):
		m.moveCursor(-1)
	case matches(msg, keys.Down):
		m.moveCursor(1)
	case matches(msg, keys.Enter):
		if aff, ok := m.selectedAction(render.LabelView); ok {
			return m.navigate(aff.Location)
		}
		if _, ok := m.selectedAction(render.LabelBack); ok {
			return m.back()
		}
	case matches(msg, keys.Back):
		return m.back()
	case matches(msg, keys.Add):
		if aff, ok := m.anyAction(render.LabelAdd); ok {
			return m.open(aff)
		}
	case matches(msg, keys.Edit):
		if aff, ok := m.anyAction(render.LabelEdit); ok {
			return m.open(aff)
		}
	case matches(msg, keys.Delete):
		if aff, ok := m.selectedAction(render.LabelDelete); ok {
			return m.open(aff)
		}
	case matches(msg, keys.Refresh):
		if m.onTarget() {
			return m.openDialog(forms.Confirm(m.loc.Node(), uri.ActionRefresh))
		}
	case matches(msg, keys.Reconfigure):
		if m.onTarget() {
			return m.openDialog(forms.Confirm(m.loc.Node(), uri.ActionReconfigure))
		}
	case matches(msg, keys.Shutdown):
		if m.loc.Type == constants.TypeDem {
			return m.openDialog(forms.Confirm(uri.Dem.Node(), uri.ActionShutdown))
		}
	case matches(msg, keys.Usage):
		if m.onTarget() {
			return m.navigate(uri.Location{Type: m.loc.Type, Value: m.loc.Value, Sub: constants.MethodUsage})
		}
	case matches(msg, keys.LogPage):
		if (m.onTarget() || m.loc.Type == constants.TypeHost) && m.loc.Value != "" {
			return m.navigate(uri.Location{Type: m.loc.Type, Value: m.loc.Value, Sub: constants.MethodLogPage})
		}
	case matches(msg, keys.Filter):
		if m.loc.Type == constants.TypeTarget && m.loc.Value == "" {
			loc, err := m.loc.WithFilter(nextFilter(m.loc.FilterName()))
			if err != nil {
				m.err = err
				return m, nil
			}
			m.state = stateLoading
			return m, m.load(loc, false)
		}
	case matches(msg, keys.Reload):
		m.state = stateLoading
		return m, m.load(m.loc, false)
	}
	return m, nil
}

func (m Model) onTarget() bool {
	return m.loc.Type == constants.TypeTarget && m.loc.Value != "" && m.loc.Sub == ""
}

func nextFilter(current string) string {
	for i, name := range constants.FilterOrder {
		if name == current {
			return constants.FilterOrder[(i+1)%len(constants.FilterOrder)]
		}
	}
	return ""
}

// open shows the dialog behind aff, loading its pick-list first if it has one
func (m Model) open(aff render.Affordance) (tea.Model, tea.Cmd) {
	if objectType, ok := forms.NeedsOptions(aff); ok {
		m.state = stateLoading
		return m, m.loadOptions(aff, objectType)
	}
	d, err := forms.For(aff, nil)
	if err != nil {
		m.err = err
		return m, nil
	}
	return m.openDialog(d)
}

func (m Model) openDialog(d *forms.Dialog) (tea.Model, tea.Cmd) {
	m.form = newForm(d)
	m.state = stateForm
	m.err = nil
	m.status = ""
	return m, m.form.setFocus(m.form.focus)
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.form.dialog
	if d.IsConfirmation() {
		switch {
		case matches(msg, keys.Confirm):
			m.state = stateLoading
			return m, m.submit(d)
		case matches(msg, keys.Decline):
			return m.closeForm(), nil
		}
		return m, nil
	}

	if matches(msg, keys.Cancel) {
		return m.closeForm(), nil
	}
	submit, cmd := m.form.update(msg)
	if !submit {
		return m, cmd
	}
	ok, cmd := m.form.validate()
	if !ok {
		return m, cmd
	}
	m.state = stateLoading
	return m, m.submit(d)
}

func (m Model) closeForm() Model {
	m.form = nil
	m.state = stateBrowse
	return m
}

func (m Model) submitted(msg submitMsg) (tea.Model, tea.Cmd) {
	d := msg.dialog
	if msg.err != nil {
		m.log.WithError(msg.err).WithField("dialog", d.Title).Warn("request failed")
		if client.DropsSession(msg.err) {
			m = m.closeForm()
			m.err = msg.err
			m.status = "session closed, log in again"
			return m, nil
		}
		m.state = stateForm
		m.form.errors = []string{msg.err.Error()}
		return m, nil
	}

	m.log.WithField("dialog", d.Title).WithField("action", d.Action.String()).Info("request sent")
	m = m.closeForm()
	m.status = fmt.Sprintf("%s: done", d.Title)
	m.state = stateLoading

	next := d.FollowUp(m.loc)
	if next != m.loc && len(m.history) > 0 && m.history[len(m.history)-1] == next {
		m.history = m.history[:len(m.history)-1]
	}
	return m, m.load(next, false)
}

func (m Model) firstSelectable() int {
	for i, r := range m.rows {
		if r.selectable() {
			return i
		}
	}
	return 0
}

func (m *Model) moveCursor(delta int) {
	for i := m.cursor + delta; i >= 0 && i < len(m.rows); i += delta {
		if m.rows[i].selectable() {
			m.cursor = i
			break
		}
	}
	m.syncViewport()
}

func (m Model) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m Model) selectedAction(label string) (render.Affordance, bool) {
	r, ok := m.selected()
	if !ok {
		return render.Affordance{}, false
	}
	return r.action(label)
}

// anyAction prefers the selected row and falls back to the first matching
// affordance of the page, so "e" edits a detail view from any row
func (m Model) anyAction(label string) (render.Affordance, bool) {
	if aff, ok := m.selectedAction(label); ok {
		return aff, true
	}
	for _, aff := range m.fragment.Affordances() {
		if aff.Label == label {
			return aff, true
		}
	}
	return render.Affordance{}, false
}

// syncViewport redraws the rows and keeps the cursor on screen
func (m *Model) syncViewport() {
	m.viewport.SetContent(m.renderRows())
	if m.cursor < m.viewport.YOffset {
		m.viewport.SetYOffset(m.cursor)
	} else if m.cursor >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
	}
}

// Location returns the location being viewed
func (m Model) Location() uri.Location {
	return m.loc
}

package tui

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/client"
	"github.com/braunma/dem-console/pkg/render"
	"github.com/braunma/dem-console/pkg/uri"
	"github.com/braunma/dem-console/pkg/validation"
)

type fakeBackend struct {
	pages    map[string]string
	options  map[string][]string
	loaded   []string
	requests []uri.Request
	doErr    error
}

func (f *fakeBackend) Show(_ context.Context, loc uri.Location) (render.Fragment, error) {
	body, ok := f.pages[loc.Ref()]
	if !ok {
		return render.Fragment{}, &client.APIError{Status: client.StatusNotFound, Body: loc.Ref()}
	}
	return render.RenderBody(loc, []byte(body)), nil
}

func (f *fakeBackend) Do(_ context.Context, req uri.Request) ([]byte, error) {
	if f.doErr != nil {
		return nil, f.doErr
	}
	f.requests = append(f.requests, req)
	return nil, nil
}

func (f *fakeBackend) Options(_ context.Context, objectType string) ([]string, error) {
	f.loaded = append(f.loaded, objectType)
	return f.options[objectType], nil
}

func quietLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// collect runs cmd and flattens batches. Commands that block, like cursor
// blinks, are dropped.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	select {
	case msg := <-done:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, collect(c)...)
			}
			return out
		}
		return []tea.Msg{msg}
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// settle feeds the results of cmd back into the model until nothing is left
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collect(cmd) {
		switch msg.(type) {
		case fragmentMsg, optionsMsg, submitMsg:
			next, more := m.Update(msg)
			m = settle(t, next.(Model), more)
		}
	}
	return m
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(k)
		m = settle(t, next.(Model), cmd)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	down      = tea.KeyMsg{Type: tea.KeyDown}
	enter     = tea.KeyMsg{Type: tea.KeyEnter}
	backspace = tea.KeyMsg{Type: tea.KeyBackspace}
	right     = tea.KeyMsg{Type: tea.KeyRight}
)

func start(t *testing.T, backend *fakeBackend, loc uri.Location) Model {
	t.Helper()
	m := New(context.Background(), backend, loc, quietLog())
	return settle(t, m, m.Init())
}

func targetPages() *fakeBackend {
	return &fakeBackend{pages: map[string]string{
		"target":    `{"Targets":["t1","t2"]}`,
		"target/t1": `{"Alias":"t1","Refresh":0}`,
	}}
}

func TestBrowseNavigatesAndGoesBack(t *testing.T) {
	backend := targetPages()
	m := start(t, backend, uri.Location{Type: constants.TypeTarget})

	require.Equal(t, stateBrowse, m.state)
	require.Len(t, m.rows, 3)
	assert.Equal(t, 0, m.cursor)

	m = press(t, m, down)
	assert.Equal(t, "t1", m.rows[m.cursor].text)

	m = press(t, m, enter)
	assert.Equal(t, "target/t1", m.Location().Ref())
	assert.Len(t, m.history, 1)
	assert.Contains(t, m.View(), "Alias: t1")

	m = press(t, m, backspace)
	assert.Equal(t, "target", m.Location().Ref())
	assert.Empty(t, m.history)
}

func TestBrowseMissingPageKeepsView(t *testing.T) {
	backend := targetPages()
	m := start(t, backend, uri.Location{Type: constants.TypeTarget})

	m = press(t, m, down, down, enter)
	assert.Equal(t, "target", m.Location().Ref())
	require.Error(t, m.err)
	assert.True(t, client.IsNotFound(m.err))
	assert.Contains(t, m.View(), "Error 402")
}

func TestFilterCycles(t *testing.T) {
	backend := targetPages()
	backend.pages["target?fabric=rdma"] = `{"Targets":["t1"]}`
	m := start(t, backend, uri.Location{Type: constants.TypeTarget})

	m = press(t, m, runes("f"))
	assert.Equal(t, "rdma", m.Location().FilterName())
	assert.Len(t, m.rows, 2)
}

func TestAddGroupRefocusesInvalidField(t *testing.T) {
	backend := &fakeBackend{pages: map[string]string{"group": `{"Groups":["g1"]}`}}
	m := start(t, backend, uri.Location{Type: constants.TypeGroup})

	m = press(t, m, runes("a"))
	require.Equal(t, stateForm, m.state)
	assert.Equal(t, "Add a Group", m.form.dialog.Title)

	m = press(t, m, enter)
	assert.Equal(t, stateForm, m.state)
	assert.Equal(t, validation.FieldGroup, m.form.focus)
	assert.Equal(t, []string{validation.MsgGroup}, m.form.errors)
	assert.Contains(t, m.View(), validation.MsgGroup)
	assert.Empty(t, backend.requests)

	m = press(t, m, runes("lab"), enter)
	require.Len(t, backend.requests, 1)
	assert.Equal(t, "PUT group", backend.requests[0].String())
	assert.Equal(t, "lab", backend.requests[0].Node.Fields[constants.TagName])
	assert.Equal(t, stateBrowse, m.state)
	assert.Nil(t, m.form)
	assert.Contains(t, m.status, "Add a Group")
}

func TestSubmitErrorKeepsFormOpen(t *testing.T) {
	backend := &fakeBackend{
		pages: map[string]string{"group": `{"Groups":[]}`},
		doErr: &client.APIError{Status: client.StatusConflict, Body: "exists"},
	}
	m := start(t, backend, uri.Location{Type: constants.TypeGroup})

	m = press(t, m, runes("a"), runes("lab"), enter)
	require.Equal(t, stateForm, m.state)
	assert.Equal(t, []string{"Error 409 : exists"}, m.form.errors)
	assert.Equal(t, "lab", m.form.dialog.Value(validation.FieldGroup))
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	backend := targetPages()
	m := start(t, backend, uri.Location{Type: constants.TypeTarget})

	m = press(t, m, down, runes("d"))
	require.Equal(t, stateForm, m.state)
	assert.True(t, m.form.dialog.IsConfirmation())

	m = press(t, m, runes("n"))
	assert.Equal(t, stateBrowse, m.state)
	assert.Empty(t, backend.requests)

	m = press(t, m, runes("d"), runes("y"))
	require.Len(t, backend.requests, 1)
	assert.Equal(t, "DELETE target/t1", backend.requests[0].String())
	assert.Equal(t, stateBrowse, m.state)
}

func TestPickListLoadedBeforeDialog(t *testing.T) {
	backend := &fakeBackend{
		pages:   map[string]string{"group/lab": `{"Name":"lab","Hosts":[]}`},
		options: map[string][]string{constants.TypeHost: {"h2", "h1"}},
	}
	m := start(t, backend, uri.Location{Type: constants.TypeGroup, Value: "lab"})

	m = press(t, m, runes("a"))
	assert.Equal(t, []string{constants.TypeHost}, backend.loaded)
	require.Equal(t, stateForm, m.state)
	assert.Equal(t, "h1", m.form.dialog.Value(validation.FieldMember))

	m = press(t, m, right, enter)
	require.Len(t, backend.requests, 1)
	assert.Equal(t, "PUT group/lab/host", backend.requests[0].String())
	assert.Equal(t, "h2", backend.requests[0].Node.Fields[constants.TagAlias])
}

func TestTargetMethods(t *testing.T) {
	backend := targetPages()
	backend.pages["target/t1/usage"] = "no usage\n"
	m := start(t, backend, uri.Location{Type: constants.TypeTarget, Value: "t1"})

	m = press(t, m, runes("R"), runes("y"))
	require.Len(t, backend.requests, 1)
	assert.Equal(t, uri.ActionReconfigure, backend.requests[0].Action)

	m = press(t, m, runes("u"))
	assert.Equal(t, "target/t1/usage", m.Location().Ref())
	assert.True(t, strings.Contains(m.View(), "no usage"))
}

package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/client"
	"github.com/braunma/dem-console/pkg/render"
	"github.com/braunma/dem-console/pkg/session"
	"github.com/braunma/dem-console/pkg/uri"
	"github.com/braunma/dem-console/pkg/validation"
)

type fakeBackend struct {
	pages    map[string]string
	options  map[string][]string
	shown    []uri.Location
	requests []uri.Request
	doErr    error
}

func (f *fakeBackend) Show(_ context.Context, loc uri.Location) (render.Fragment, error) {
	f.shown = append(f.shown, loc)
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
	return f.options[objectType], nil
}

type fakeConnector struct {
	backend  *fakeBackend
	loggedIn bool
	dropped  bool
}

func (c *fakeConnector) Connect() (Backend, error) {
	if !c.loggedIn {
		return nil, session.ErrNoSession
	}
	return c.backend, nil
}

func (c *fakeConnector) Drop() error {
	c.dropped = true
	c.loggedIn = false
	return nil
}

func newTestServer(backend *fakeBackend) (*Server, *fakeConnector) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	conn := &fakeConnector{backend: backend, loggedIn: true}
	return NewServer(conn, log), conn
}

func pages() *fakeBackend {
	return &fakeBackend{
		pages: map[string]string{
			"dem":                `{"Interfaces":[]}`,
			"target":             `{"Targets":["t1","t2"]}`,
			"target?fabric=rdma": `{"Targets":["t1"]}`,
			"group":              `{"Groups":["g1"]}`,
			"group/lab":          `{"Name":"lab","Hosts":[]}`,
		},
		options: map[string][]string{constants.TypeHost: {"h1", "h2"}},
	}
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func post(t *testing.T, s *Server, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndexRedirects(t *testing.T) {
	s, _ := newTestServer(pages())

	rec := get(t, s, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/ui/dem", rec.Header().Get("Location"))
}

func TestShowList(t *testing.T) {
	s, _ := newTestServer(pages())

	rec := get(t, s, "/ui/target")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `href="/ui/target/t1"`)
	assert.Contains(t, body, "Only RDMA Fabric")
	assert.Contains(t, body, `href="/ui/target?fabric=rdma"`)
}

func TestShowFilteredList(t *testing.T) {
	backend := pages()
	s, _ := newTestServer(backend)

	rec := get(t, s, "/ui/target?fabric=rdma")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, backend.shown, 1)
	assert.Equal(t, "rdma", backend.shown[0].FilterName())
	assert.NotContains(t, rec.Body.String(), "t2")
}

func TestShowErrors(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		loggedIn bool
		status   int
	}{
		{"unknown type", "/ui/volume", true, http.StatusNotFound},
		{"missing object", "/ui/target/t9", true, http.StatusNotFound},
		{"unknown dialog", "/ui/target?do=rename&on=target", true, http.StatusBadRequest},
		{"no such affordance", "/ui/target?do=edit&on=host/h1", true, http.StatusNotFound},
		{"logged out", "/ui/target", false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, conn := newTestServer(pages())
			conn.loggedIn = tt.loggedIn
			rec := get(t, s, tt.target)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestDialogPage(t *testing.T) {
	s, _ := newTestServer(pages())

	rec := get(t, s, "/ui/group?do=add&on=group")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Add a Group")
	assert.Contains(t, body, `<form class="dialog" method="post"`)
	assert.Contains(t, body, `name="`+validation.FieldGroup+`"`)
}

func TestPickListDialog(t *testing.T) {
	s, _ := newTestServer(pages())

	rec := get(t, s, "/ui/group/lab?do=add&on=group/lab/host")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<option value="h1" selected>h1</option>`)
	assert.Contains(t, body, `<option value="h2">h2</option>`)
}

func TestSubmitValidates(t *testing.T) {
	backend := pages()
	s, _ := newTestServer(backend)

	rec := post(t, s, "/ui/group?do=add&on=group", url.Values{validation.FieldGroup: {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), validation.MsgGroup)
	assert.Empty(t, backend.requests)
}

func TestSubmitSendsAndRedirects(t *testing.T) {
	backend := pages()
	s, _ := newTestServer(backend)

	rec := post(t, s, "/ui/group?do=add&on=group", url.Values{validation.FieldGroup: {"lab"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/ui/group", rec.Header().Get("Location"))
	require.Len(t, backend.requests, 1)
	assert.Equal(t, "PUT group", backend.requests[0].String())

	rec = post(t, s, "/ui/group/lab?do=add&on=group/lab/host", url.Values{validation.FieldMember: {"h2"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, backend.requests, 2)
	assert.Equal(t, "PUT group/lab/host", backend.requests[1].String())
	assert.Equal(t, "h2", backend.requests[1].Node.Fields[constants.TagAlias])
}

func TestSubmitDeleteReturnsToList(t *testing.T) {
	backend := pages()
	s, _ := newTestServer(backend)

	rec := post(t, s, "/ui/target?do=delete&on=target/t1", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, backend.requests, 1)
	assert.Equal(t, "DELETE target/t1", backend.requests[0].String())
}

func TestSubmitForbiddenDropsSession(t *testing.T) {
	backend := pages()
	backend.doErr = client.ErrForbidden
	s, conn := newTestServer(backend)

	rec := post(t, s, "/ui/group?do=add&on=group", url.Values{validation.FieldGroup: {"lab"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, conn.dropped)
	assert.Contains(t, rec.Body.String(), "log in again")

	rec = get(t, s, "/ui/group")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitDemErrorKeepsDialog(t *testing.T) {
	backend := pages()
	backend.doErr = &client.APIError{Status: client.StatusConflict, Body: "exists"}
	s, conn := newTestServer(backend)

	rec := post(t, s, "/ui/group?do=add&on=group", url.Values{validation.FieldGroup: {"g1"}})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.False(t, conn.dropped)
	body := rec.Body.String()
	assert.Contains(t, body, "Error 409 : exists")
	assert.Contains(t, body, `value="g1"`)
}

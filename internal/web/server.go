package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/braunma/dem-console/pkg/client"
	"github.com/braunma/dem-console/pkg/forms"
	"github.com/braunma/dem-console/pkg/render"
	"github.com/braunma/dem-console/pkg/session"
	"github.com/braunma/dem-console/pkg/uri"
)

// Backend is the DEM connection one request works with. *client.DemClient
// satisfies it.
type Backend interface {
	Show(ctx context.Context, loc uri.Location) (render.Fragment, error)
	Do(ctx context.Context, req uri.Request) ([]byte, error)
	Options(ctx context.Context, objectType string) ([]string, error)
}

// Connector opens the DEM connection of the saved session and drops the
// session when the DEM rejects it
type Connector interface {
	Connect() (Backend, error)
	Drop() error
}

// Server serves the console pages
type Server struct {
	echo      *echo.Echo
	connector Connector
	log       logrus.FieldLogger
}

// NewServer builds the echo routes
func NewServer(connector Connector, log logrus.FieldLogger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, connector: connector, log: log}

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		s.log.WithError(err).WithField("path", c.Request().URL.Path).Warn("request failed")
		e.DefaultHTTPErrorHandler(err, c)
	}
	e.Use(middleware.Recover())
	e.Use(s.requestLog)

	e.GET("/", s.index)
	e.GET("/ui", s.index)
	e.GET("/ui/*", s.show)
	e.POST("/ui/*", s.submit)
	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until ctx ends
func (s *Server) Start(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Warn("server shutdown")
		}
	}()

	s.log.WithField("listen", addr).Info("serving console")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve on %s: %w", addr, err)
	}
	return nil
}

func (s *Server) requestLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		begin := time.Now()
		err := next(c)
		s.log.WithFields(logrus.Fields{
			"method":   c.Request().Method,
			"path":     c.Request().URL.String(),
			"status":   c.Response().Status,
			"duration": time.Since(begin),
		}).Debug("request")
		return err
	}
}

func (s *Server) index(c echo.Context) error {
	return c.Redirect(http.StatusFound, href(uri.Dem))
}

// pageRequest is what a /ui/ URL addresses: a location, and optionally the
// dialog of one of its affordances
type pageRequest struct {
	loc    uri.Location
	action uri.Action
	node   string
	dialog bool
}

func parsePage(c echo.Context) (pageRequest, error) {
	query := c.QueryParams()
	var p pageRequest
	if name := query.Get(paramAction); name != "" {
		action, ok := uri.ParseAction(name)
		if !ok {
			return p, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown action %q", name))
		}
		p.action, p.node, p.dialog = action, query.Get(paramNode), true
	}

	filter := url.Values{}
	for key, values := range query {
		if key != paramAction && key != paramNode {
			filter[key] = values
		}
	}
	ref := c.Param("*")
	if len(filter) > 0 {
		ref += "?" + filter.Encode()
	}

	loc, err := uri.ParseLocation(ref)
	if err != nil {
		return p, echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	p.loc = loc
	return p, nil
}

// selfHref is the link posting a dialog back to the page it was opened on
func (p pageRequest) selfHref() string {
	return dialogLink(p.loc, p.action, p.node)
}

func (s *Server) show(c echo.Context) error {
	p, err := parsePage(c)
	if err != nil {
		return err
	}
	backend, err := s.connect()
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	f, err := backend.Show(ctx, p.loc)
	if err != nil {
		return s.failed(c, p.loc, err)
	}
	if !p.dialog {
		return s.render(c, http.StatusOK, page(p.loc, fragmentView(f)))
	}

	d, err := s.dialog(ctx, backend, f, p)
	if err != nil {
		return err
	}
	return s.render(c, http.StatusOK, page(p.loc, fragmentView(f), dialogView(p.selfHref(), d, nil)))
}

func (s *Server) submit(c echo.Context) error {
	p, err := parsePage(c)
	if err != nil {
		return err
	}
	if !p.dialog {
		return echo.NewHTTPError(http.StatusBadRequest, "no dialog to submit")
	}
	backend, err := s.connect()
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	f, err := backend.Show(ctx, p.loc)
	if err != nil {
		return s.failed(c, p.loc, err)
	}
	d, err := s.dialog(ctx, backend, f, p)
	if err != nil {
		return err
	}

	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	for _, in := range d.Active() {
		value := form.Get(in.Key)
		if in.Kind == forms.InputCheckbox && !form.Has(in.Key) {
			value = "false"
		}
		if err := d.Set(in.Key, value); err != nil {
			return s.render(c, http.StatusUnprocessableEntity,
				page(p.loc, fragmentView(f), dialogView(p.selfHref(), d, []string{err.Error()})))
		}
	}

	if result := d.Validate(); !result.OK() {
		return s.render(c, http.StatusUnprocessableEntity,
			page(p.loc, fragmentView(f), dialogView(p.selfHref(), d, result.Texts())))
	}

	req, err := d.Request()
	if err == nil {
		_, err = backend.Do(ctx, req)
	}
	if err != nil {
		if client.DropsSession(err) {
			return s.dropped(c, p.loc, err)
		}
		return s.render(c, http.StatusBadGateway,
			page(p.loc, fragmentView(f), dialogView(p.selfHref(), d, []string{err.Error()})))
	}

	s.log.WithFields(logrus.Fields{"request": req.String(), "dialog": d.Title}).Info("request sent")
	return c.Redirect(http.StatusSeeOther, href(d.FollowUp(p.loc)))
}

// dialog opens the dialog of the affordance a page request names, loading
// its pick-list first
func (s *Server) dialog(ctx context.Context, backend Backend, f render.Fragment, p pageRequest) (*forms.Dialog, error) {
	aff, ok := f.Find(p.action, p.node)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound,
			fmt.Sprintf("%s offers no %s on %s", p.loc.Ref(), p.action, p.node))
	}

	var options []string
	if objectType, ok := forms.NeedsOptions(aff); ok {
		var err error
		options, err = backend.Options(ctx, objectType)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("failed to load %s list: %v", objectType, err))
		}
	}

	d, err := forms.For(aff, options)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return d, nil
}

func (s *Server) connect() (Backend, error) {
	backend, err := s.connector.Connect()
	if errors.Is(err, session.ErrNoSession) {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not logged in, run dem-console login")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return backend, nil
}

// failed shows a DEM error on the page of loc
func (s *Server) failed(c echo.Context, loc uri.Location, err error) error {
	if client.DropsSession(err) {
		return s.dropped(c, loc, err)
	}
	status := http.StatusBadGateway
	if client.IsNotFound(err) {
		status = http.StatusNotFound
	}
	return s.render(c, status, page(loc, errorView(err.Error())))
}

// dropped clears the session after the DEM stopped accepting it
func (s *Server) dropped(c echo.Context, loc uri.Location, err error) error {
	s.log.WithError(err).Warn("session dropped")
	if dropErr := s.connector.Drop(); dropErr != nil {
		s.log.WithError(dropErr).Warn("failed to clear session")
	}
	status := http.StatusServiceUnavailable
	if errors.Is(err, client.ErrForbidden) {
		status = http.StatusForbidden
	}
	return s.render(c, status, page(loc, errorView(err.Error()), noticeView("Session closed, log in again.")))
}

func (s *Server) render(c echo.Context, status int, component templ.Component) error {
	var buf bytes.Buffer
	if err := component.Render(c.Request().Context(), &buf); err != nil {
		return fmt.Errorf("failed to render %s: %w", strings.TrimPrefix(c.Request().URL.Path, "/ui/"), err)
	}
	return c.HTMLBlob(status, buf.Bytes())
}

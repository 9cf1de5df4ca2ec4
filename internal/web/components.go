package web

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/forms"
	"github.com/braunma/dem-console/pkg/render"
	"github.com/braunma/dem-console/pkg/uri"
	"github.com/braunma/dem-console/pkg/utils"
)

// Query parameters naming the dialog of a page
const (
	paramAction = "do"
	paramNode   = "on"
)

const stylesheet = `body{font-family:sans-serif;margin:1.5em}
h1{background:#7D56F4;color:#fafafa;padding:.2em .5em}
ul{list-style:none;padding-left:1.2em}
.actions a{margin-left:.6em;font-size:.9em;color:#AD8CFF}
.filter a.active{font-weight:bold}
.error{border:1px solid #FF5F87;color:#FF5F87;padding:.4em}
.notice{color:#50FA7B}
form.dialog{border:1px solid #01BE85;padding:.6em;max-width:40em}
form.dialog label{display:block;margin:.3em 0}`

func write(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}

func esc(s string) string {
	return templ.EscapeString(s)
}

// href links to the page of a location
func href(loc uri.Location) string {
	return "/ui/" + loc.Ref()
}

// dialogHref links to the page at loc with the dialog behind aff opened
func dialogHref(loc uri.Location, aff render.Affordance) string {
	return dialogLink(loc, aff.Action, uri.Path(aff.Node))
}

func dialogLink(loc uri.Location, action uri.Action, node string) string {
	q := url.Values{}
	q.Set(paramAction, action.String())
	q.Set(paramNode, node)

	sep := "?"
	if loc.Filter != "" {
		sep = "&"
	}
	return href(loc) + sep + q.Encode()
}

// page wraps body in the console layout
func page(loc uri.Location, body ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := "DEM Console - " + loc.Ref()
		if err := write(w, "<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>", esc(title),
			"</title><style>", stylesheet, "</style></head><body><h1>DEM Console</h1>",
			"<nav><a href=\"/ui/dem\">DEM</a> | <a href=\"/ui/target\">Targets</a> | ",
			"<a href=\"/ui/host\">Hosts</a> | <a href=\"/ui/group\">Groups</a></nav>"); err != nil {
			return err
		}
		for _, c := range body {
			if c == nil {
				continue
			}
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		return write(w, "</body></html>")
	})
}

// fragmentView renders the blocks of a fragment with their affordances as
// links. Raw fragments are shown preformatted.
func fragmentView(f render.Fragment) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if f.Blocks == nil {
			return write(w, "<pre>", esc(f.Raw), "</pre>")
		}
		if err := write(w, "<main>"); err != nil {
			return err
		}
		for _, b := range f.Blocks {
			if err := writeBlock(w, f, b); err != nil {
				return err
			}
		}
		return write(w, "</main>")
	})
}

func writeBlock(w io.Writer, f render.Fragment, b render.Block) error {
	switch b.Kind {
	case render.BlockTitle:
		return write(w, "<h2>", esc(b.Title), actionLinks(f.Location, b.Actions), "</h2>")
	case render.BlockField:
		return write(w, "<p>", esc(b.Title), "</p>")
	}

	if err := write(w, "<section><h3>", esc(b.Title), actionLinks(f.Location, b.Actions), "</h3>"); err != nil {
		return err
	}
	if b.Filter {
		if err := write(w, filterMenu(f.Location)); err != nil {
			return err
		}
	}
	if err := write(w, "<ul>"); err != nil {
		return err
	}
	for _, e := range b.Entries {
		if err := write(w, "<li>", esc(e.Text), actionLinks(f.Location, e.Actions)); err != nil {
			return err
		}
		for _, s := range e.Sections {
			if err := writeBlock(w, f, s); err != nil {
				return err
			}
		}
		if err := write(w, "</li>"); err != nil {
			return err
		}
	}
	return write(w, "</ul></section>")
}

func actionLinks(loc uri.Location, actions []render.Affordance) string {
	if len(actions) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<span class="actions">`)
	for _, a := range actions {
		link := dialogHref(loc, a)
		if a.IsNavigation() {
			link = href(a.Location)
		}
		fmt.Fprintf(&b, `<a href="%s">%s</a>`, esc(link), esc(a.Label))
	}
	b.WriteString(`</span>`)
	return b.String()
}

func filterMenu(loc uri.Location) string {
	var b strings.Builder
	b.WriteString(`<div class="filter">`)
	current := loc.FilterName()
	for _, name := range constants.FilterOrder {
		target, err := loc.WithFilter(name)
		if err != nil {
			continue
		}
		class := ""
		if name == current {
			class = ` class="active"`
		}
		fmt.Fprintf(&b, `<a%s href="%s">%s</a> `, class, esc(href(target)), esc(constants.FilterLabels[name]))
	}
	b.WriteString(`</div>`)
	return b.String()
}

// dialogView renders a dialog as a form posting back to the page it was
// opened from
func dialogView(action string, d *forms.Dialog, errors []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<form class="dialog" method="post" action="`, esc(action), `"><h3>`, esc(d.Title), "</h3>"); err != nil {
			return err
		}
		for _, in := range d.Active() {
			if err := write(w, "<label>", esc(in.Label), " ", input(in), "</label>"); err != nil {
				return err
			}
		}
		submit := "Submit"
		if d.IsConfirmation() {
			submit = "Yes"
		}
		if err := write(w, `<button type="submit">`, submit, `</button> <a href="`, esc(cancelHref(action)), `">Cancel</a></form>`); err != nil {
			return err
		}
		if len(errors) > 0 {
			return errorView(errors...).Render(ctx, w)
		}
		return nil
	})
}

func input(in forms.Input) string {
	name := esc(in.Key)
	switch in.Kind {
	case forms.InputSelect:
		var b strings.Builder
		fmt.Fprintf(&b, `<select name="%s">`, name)
		for _, opt := range in.Options {
			selected := ""
			if opt == in.Value {
				selected = " selected"
			}
			fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, esc(opt), selected, esc(opt))
		}
		b.WriteString(`</select>`)
		return b.String()
	case forms.InputCheckbox:
		checked := ""
		if utils.Truthy(in.Value) {
			checked = " checked"
		}
		return fmt.Sprintf(`<input type="checkbox" name="%s" value="true"%s>`, name, checked)
	case forms.InputPassword:
		return fmt.Sprintf(`<input type="password" name="%s">`, name)
	case forms.InputNumber:
		return fmt.Sprintf(`<input type="number" name="%s" value="%s">`, name, esc(in.Value))
	}
	return fmt.Sprintf(`<input type="text" name="%s" value="%s">`, name, esc(in.Value))
}

// cancelHref drops the dialog parameters from a page link
func cancelHref(action string) string {
	u, err := url.Parse(action)
	if err != nil {
		return action
	}
	q := u.Query()
	q.Del(paramAction)
	q.Del(paramNode)
	u.RawQuery = q.Encode()
	return u.String()
}

func errorView(messages ...string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<div class="error">`); err != nil {
			return err
		}
		for _, m := range messages {
			if err := write(w, "<p>", esc(m), "</p>"); err != nil {
				return err
			}
		}
		return write(w, "</div>")
	})
}

func noticeView(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(w, `<p class="notice">`, esc(message), "</p>")
	})
}

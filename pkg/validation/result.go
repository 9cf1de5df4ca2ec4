package validation

import (
	"strings"
)

// Message is one failed check
type Message struct {
	Field string
	Text  string
}

// Result holds every failed check of a form, in check order
type Result struct {
	Messages []Message
}

// OK reports whether every check passed
func (r Result) OK() bool {
	return len(r.Messages) == 0
}

// FirstField returns the field that should receive focus
func (r Result) FirstField() string {
	if r.OK() {
		return ""
	}
	return r.Messages[0].Field
}

// Texts returns the messages for display
func (r Result) Texts() []string {
	texts := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		texts = append(texts, m.Text)
	}
	return texts
}

// Error implements error
func (r Result) Error() string {
	return strings.Join(r.Texts(), "\n")
}

// Err returns r as an error, or nil when every check passed
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return r
}

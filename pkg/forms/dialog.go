package forms

import (
	"fmt"
	"strconv"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/uri"
	"github.com/braunma/dem-console/pkg/utils"
	"github.com/braunma/dem-console/pkg/validation"
)

// InputKind selects how an input is edited
type InputKind int

const (
	InputText InputKind = iota
	InputNumber
	InputSelect
	InputCheckbox
	InputPassword
)

// Input is one field of a dialog
type Input struct {
	Key     string
	Label   string
	Kind    InputKind
	Value   string
	Options []string
	// Modes limits the input to targets in one of these management modes
	Modes []string
}

// Dialog is an add, edit or confirmation form bound to one management node
type Dialog struct {
	Title  string
	Node   models.ManagementNode
	Action uri.Action
	Inputs []Input

	build func(d *Dialog) (map[string]interface{}, error)
	check func(d *Dialog) validation.Result
}

// IsConfirmation reports whether the dialog only asks for confirmation
func (d *Dialog) IsConfirmation() bool {
	return d.build == nil
}

func (d *Dialog) input(key string) *Input {
	for i := range d.Inputs {
		if d.Inputs[i].Key == key {
			return &d.Inputs[i]
		}
	}
	return nil
}

// Set changes the value of an input
func (d *Dialog) Set(key, value string) error {
	in := d.input(key)
	if in == nil {
		return fmt.Errorf("%s has no field %q", d.Title, key)
	}

	switch in.Kind {
	case InputCheckbox:
		value = strconv.FormatBool(utils.Truthy(value))
	case InputSelect:
		if value != "" && len(in.Options) > 0 && !utils.Contains(in.Options, value) {
			return fmt.Errorf("invalid %s %q, expected one of %v", in.Label, value, in.Options)
		}
	}
	in.Value = value
	return nil
}

// Value returns the current value of an input
func (d *Dialog) Value(key string) string {
	if in := d.input(key); in != nil {
		return in.Value
	}
	return ""
}

// Active returns the inputs shown for the current management mode
func (d *Dialog) Active() []Input {
	mode := d.Value(validation.FieldMode)
	active := make([]Input, 0, len(d.Inputs))
	for _, in := range d.Inputs {
		if len(in.Modes) > 0 && !utils.Contains(in.Modes, mode) {
			continue
		}
		active = append(active, in)
	}
	return active
}

// Values returns the values of the active inputs keyed by field
func (d *Dialog) Values() map[string]string {
	values := map[string]string{}
	for _, in := range d.Active() {
		values[in.Key] = in.Value
	}
	return values
}

// Validate checks the active inputs
func (d *Dialog) Validate() validation.Result {
	result := validation.Validate(d.Values())
	if d.check != nil {
		result.Messages = append(result.Messages, d.check(d).Messages...)
	}
	return result
}

// FirstFocus returns the input that should receive focus: the first invalid
// one, or the first input of the form
func (d *Dialog) FirstFocus() string {
	if field := d.Validate().FirstField(); field != "" {
		return field
	}
	if active := d.Active(); len(active) > 0 {
		return active[0].Key
	}
	return ""
}

// Payload returns the JSON body sent with the request. Confirmation dialogs
// have no body.
func (d *Dialog) Payload() (map[string]interface{}, error) {
	if d.build == nil {
		return nil, nil
	}
	if err := d.Validate().Err(); err != nil {
		return nil, err
	}
	return d.build(d)
}

// Request returns the URI and verb the dialog submits to
func (d *Dialog) Request() (uri.Request, error) {
	node := d.Node
	if d.build != nil {
		payload, err := d.Payload()
		if err != nil {
			return uri.Request{}, err
		}
		node = node.WithFields(payload)
	}
	return uri.NewRequest(node, d.Action)
}

// FollowUp returns the view to show after the dialog was submitted from
// current. Renaming the viewed object follows the new name and deleting it
// returns to the list.
func (d *Dialog) FollowUp(current uri.Location) uri.Location {
	viewed := current.Type == d.Node.ObjectType && current.Value != "" &&
		current.Value == d.Node.ObjectValue && d.Node.SubPath == ""
	if !viewed {
		return current
	}

	switch d.Action {
	case uri.ActionDelete:
		return current.Parent()
	case uri.ActionEdit:
		name := d.Value(validation.FieldAlias)
		if d.Node.ObjectType == constants.TypeGroup {
			name = d.Value(validation.FieldGroup)
		}
		if name != "" && name != current.Value {
			return uri.Location{Type: current.Type, Value: name}
		}
	}
	return current
}

package forms

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/session"
	"github.com/braunma/dem-console/pkg/uri"
	"github.com/braunma/dem-console/pkg/utils"
	"github.com/braunma/dem-console/pkg/validation"
)

// Signature form fields
const (
	FieldOldUser     = "olduser"
	FieldOldPassword = "oldpass"
	FieldNewUser     = "newuser"
	FieldNewPassword = "newpass"
	FieldConfirm     = "confirm"
)

// Signature form messages
const (
	MsgMandatory   = "All fields are mandatory"
	MsgMismatch    = "New Passwords does not match"
	MsgInvalidAuth = "Invalid user or password"
)

var (
	managedModes  = []string{constants.ModeOutOfBand, constants.ModeInBand}
	modeOptions   = []string{constants.ModeLocal, constants.ModeOutOfBand, constants.ModeInBand}
	inBandOnly    = []string{constants.ModeInBand}
	fabricOptions = append([]string{""}, constants.FabricTypes...)
	familyOptions = append([]string{""}, constants.AddressFamilies...)
)

func verb(action uri.Action) string {
	if action == uri.ActionAdd {
		return "Add"
	}
	return "Update"
}

// Target builds the dialog adding or editing a target
func Target(node models.ManagementNode, action uri.Action, prefill map[string]string) *Dialog {
	title := "Add a Target"
	if action == uri.ActionEdit {
		title = fmt.Sprintf("Update Target '%s'", node.ObjectValue)
	}

	d := &Dialog{
		Title:  title,
		Node:   node,
		Action: action,
		Inputs: []Input{
			{Key: validation.FieldAlias, Label: "Alias", Kind: InputText},
			{Key: validation.FieldMode, Label: "Management Mode", Kind: InputSelect, Options: modeOptions, Value: constants.ModeLocal},
			{Key: validation.FieldType, Label: "Type", Kind: InputSelect, Options: fabricOptions, Modes: inBandOnly},
			{Key: validation.FieldFamily, Label: "Family", Kind: InputSelect, Options: familyOptions, Modes: managedModes},
			{Key: validation.FieldAddress, Label: "Address", Kind: InputText, Modes: managedModes},
			{Key: validation.FieldService, Label: "Port", Kind: InputNumber, Modes: managedModes},
			{Key: validation.FieldRefresh, Label: "Refresh (minutes, 0 disables)", Kind: InputNumber},
		},
		build: buildTarget,
	}
	d.prefill(prefill)
	return d
}

func buildTarget(d *Dialog) (map[string]interface{}, error) {
	values := d.Values()
	payload := map[string]interface{}{
		constants.TagAlias:    values[validation.FieldAlias],
		constants.TagMgmtMode: values[validation.FieldMode],
	}
	if refresh := strings.TrimSpace(values[validation.FieldRefresh]); refresh != "" {
		n, err := strconv.Atoi(refresh)
		if err != nil {
			return nil, fmt.Errorf("invalid refresh %q: %w", refresh, err)
		}
		payload[constants.TagRefresh] = n
	}

	switch values[validation.FieldMode] {
	case constants.ModeOutOfBand:
		iface := map[string]interface{}{}
		if fam := values[validation.FieldFamily]; fam != "" {
			port, err := number(values[validation.FieldService])
			if err != nil {
				return nil, err
			}
			iface[constants.TagIfFamily] = fam
			iface[constants.TagIfAddress] = values[validation.FieldAddress]
			iface[constants.TagIfPort] = port
		}
		payload[constants.TagInterface] = iface
	case constants.ModeInBand:
		payload[constants.TagInterface] = map[string]interface{}{
			constants.TagType:    values[validation.FieldType],
			constants.TagFamily:  values[validation.FieldFamily],
			constants.TagAddress: values[validation.FieldAddress],
			constants.TagTrSvcID: values[validation.FieldService],
		}
	}
	return payload, nil
}

// Host builds the dialog adding or editing a host
func Host(node models.ManagementNode, action uri.Action, prefill map[string]string) *Dialog {
	title := "Add a Host"
	if action == uri.ActionEdit {
		title = fmt.Sprintf("Update Host '%s'", node.ObjectValue)
	}

	d := &Dialog{
		Title:  title,
		Node:   node,
		Action: action,
		Inputs: []Input{
			{Key: validation.FieldAlias, Label: "Alias", Kind: InputText},
			{Key: validation.FieldHostNQN, Label: "Host NQN", Kind: InputText},
		},
		build: func(d *Dialog) (map[string]interface{}, error) {
			return map[string]interface{}{
				constants.TagAlias:   d.Value(validation.FieldAlias),
				constants.TagHostNQN: d.Value(validation.FieldHostNQN),
			}, nil
		},
	}
	d.prefill(prefill)
	return d
}

// Group builds the dialog adding or renaming a group
func Group(node models.ManagementNode, action uri.Action, prefill map[string]string) *Dialog {
	title := "Add a Group"
	if action == uri.ActionEdit {
		title = fmt.Sprintf("Update Group '%s'", node.ObjectValue)
	}

	d := &Dialog{
		Title:  title,
		Node:   node,
		Action: action,
		Inputs: []Input{
			{Key: validation.FieldGroup, Label: "Name", Kind: InputText},
		},
		build: func(d *Dialog) (map[string]interface{}, error) {
			return map[string]interface{}{constants.TagName: d.Value(validation.FieldGroup)}, nil
		},
	}
	d.prefill(prefill)
	return d
}

// Subsystem builds the dialog adding or editing a subsystem of a target
func Subsystem(node models.ManagementNode, action uri.Action, prefill map[string]string) *Dialog {
	title := fmt.Sprintf("Add a Subsystem to Target '%s'", node.ObjectValue)
	if action == uri.ActionEdit {
		title = fmt.Sprintf("Update Subsystem '%s' on Target '%s'", node.SubValue, node.ObjectValue)
	}

	d := &Dialog{
		Title:  title,
		Node:   node,
		Action: action,
		Inputs: []Input{
			{Key: validation.FieldSubNQN, Label: "Subsystem NQN", Kind: InputText},
			{Key: validation.FieldAllow, Label: "Allow Any Host", Kind: InputCheckbox, Value: "false"},
		},
		build: func(d *Dialog) (map[string]interface{}, error) {
			allow := 0
			if d.Value(validation.FieldAllow) == "true" {
				allow = 1
			}
			return map[string]interface{}{
				constants.TagSubNQN:   d.Value(validation.FieldSubNQN),
				constants.TagAllowAny: allow,
			}, nil
		},
	}
	d.prefill(prefill)
	return d
}

// Namespace builds the dialog adding or editing a namespace of a subsystem.
// New namespaces start as NSID 1 on device 0 namespace 1.
func Namespace(node models.ManagementNode, action uri.Action, prefill map[string]string) *Dialog {
	title := fmt.Sprintf("Add a Namespace to Target '%s' Subsystem '%s'", node.ObjectValue, node.Subsystem)
	if action == uri.ActionEdit {
		title = fmt.Sprintf("Update Namespace ID %s on Target '%s' Subsystem '%s'", node.SubValue, node.ObjectValue, node.Subsystem)
	}

	d := &Dialog{
		Title:  title,
		Node:   node,
		Action: action,
		Inputs: []Input{
			{Key: validation.FieldNSID, Label: "NS ID", Kind: InputNumber},
			{Key: validation.FieldDevID, Label: "Device ID (X of /dev/nvmeXnY, -1 for /dev/nullb0)", Kind: InputNumber},
			{Key: validation.FieldDevNSID, Label: "Device NS ID (Y of /dev/nvmeXnY)", Kind: InputNumber},
		},
		build: buildNamespace,
	}
	if action == uri.ActionAdd {
		d.prefill(map[string]string{
			validation.FieldNSID:    strconv.Itoa(constants.DefaultNSID),
			validation.FieldDevID:   strconv.Itoa(constants.DefaultDeviceID),
			validation.FieldDevNSID: strconv.Itoa(constants.DefaultDeviceNSID),
		})
	}
	d.prefill(prefill)
	return d
}

func buildNamespace(d *Dialog) (map[string]interface{}, error) {
	nsid, err := number(d.Value(validation.FieldNSID))
	if err != nil {
		return nil, err
	}
	devID, err := number(d.Value(validation.FieldDevID))
	if err != nil {
		return nil, err
	}
	payload := map[string]interface{}{
		constants.TagNSID:     nsid,
		constants.TagDeviceID: devID,
	}
	// the null device has no namespace of its own
	if devID == constants.NullDeviceID {
		return payload, nil
	}
	devNSID := 0
	if raw := strings.TrimSpace(d.Value(validation.FieldDevNSID)); raw != "" {
		if devNSID, err = number(raw); err != nil {
			return nil, err
		}
	}
	payload[constants.TagDeviceNSID] = devNSID
	return payload, nil
}

// PortID builds the dialog adding or editing a fabric port of a target
func PortID(node models.ManagementNode, action uri.Action, prefill map[string]string) *Dialog {
	title := fmt.Sprintf("Add a Port to Target '%s'", node.ObjectValue)
	if action == uri.ActionEdit {
		title = fmt.Sprintf("Update Port ID %s on Target '%s'", node.SubValue, node.ObjectValue)
	}

	d := &Dialog{
		Title:  title,
		Node:   node,
		Action: action,
		Inputs: []Input{
			{Key: validation.FieldPortID, Label: "Port ID", Kind: InputNumber},
			{Key: validation.FieldType, Label: "Type", Kind: InputSelect, Options: fabricOptions},
			{Key: validation.FieldFamily, Label: "Family", Kind: InputSelect, Options: familyOptions},
			{Key: validation.FieldAddress, Label: "Address", Kind: InputText},
			{Key: validation.FieldService, Label: "Service ID", Kind: InputNumber},
		},
		build: func(d *Dialog) (map[string]interface{}, error) {
			portID, err := number(d.Value(validation.FieldPortID))
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				constants.TagPortID:  portID,
				constants.TagType:    d.Value(validation.FieldType),
				constants.TagFamily:  d.Value(validation.FieldFamily),
				constants.TagAddress: d.Value(validation.FieldAddress),
				constants.TagTrSvcID: numberOrString(d.Value(validation.FieldService)),
			}, nil
		},
	}
	d.prefill(prefill)
	return d
}

// Transport builds the dialog adding or editing a fabric interface of a host.
// The service id is only offered when the edited interface already has one.
func Transport(node models.ManagementNode, action uri.Action, prefill map[string]string) *Dialog {
	title := fmt.Sprintf("Add a Transport to Host '%s'", node.ObjectValue)
	if action == uri.ActionEdit {
		title = fmt.Sprintf("Update Transport ID %s on Host '%s'", node.SubValue, node.ObjectValue)
	}

	inputs := []Input{
		{Key: validation.FieldType, Label: "Type", Kind: InputSelect, Options: fabricOptions},
		{Key: validation.FieldFamily, Label: "Family", Kind: InputSelect, Options: familyOptions},
		{Key: validation.FieldAddress, Label: "Address", Kind: InputText},
	}
	if _, ok := prefill[validation.FieldService]; ok {
		inputs = append(inputs, Input{Key: validation.FieldService, Label: "Service ID", Kind: InputNumber})
	}

	d := &Dialog{
		Title:  title,
		Node:   node,
		Action: action,
		Inputs: inputs,
		build: func(d *Dialog) (map[string]interface{}, error) {
			payload := map[string]interface{}{
				constants.TagType:    d.Value(validation.FieldType),
				constants.TagFamily:  d.Value(validation.FieldFamily),
				constants.TagAddress: d.Value(validation.FieldAddress),
			}
			if d.input(validation.FieldService) != nil {
				payload[constants.TagTrSvcID] = numberOrString(d.Value(validation.FieldService))
			}
			return payload, nil
		},
	}
	d.prefill(prefill)
	return d
}

// Member builds the dialog linking a target or host to a group. options is
// the list of existing aliases to pick from.
func Member(node models.ManagementNode, options []string) *Dialog {
	kind := strings.Trim(node.SubPath, "/")
	title := fmt.Sprintf("Add a %s Alias to Group '%s'", utils.Capitalize(kind), node.ObjectValue)
	return pickDialog(title, node, options, "")
}

// AllowedHost builds the dialog adding a host to the allowed list of a
// subsystem
func AllowedHost(node models.ManagementNode, options []string) *Dialog {
	title := fmt.Sprintf("Add a Host to the Allowed Host list of Target '%s' Subsystem '%s'", node.ObjectValue, node.Subsystem)
	return pickDialog(title, node, options, node.SubValue)
}

func pickDialog(title string, node models.ManagementNode, options []string, selected string) *Dialog {
	sorted := append([]string(nil), options...)
	sort.Strings(sorted)
	if selected == "" && len(sorted) > 0 {
		selected = sorted[0]
	}
	node.SubValue = ""

	return &Dialog{
		Title:  title,
		Node:   node,
		Action: uri.ActionAdd,
		Inputs: []Input{
			{Key: validation.FieldMember, Label: "Alias", Kind: InputSelect, Options: sorted, Value: selected},
		},
		build: func(d *Dialog) (map[string]interface{}, error) {
			return map[string]interface{}{constants.TagAlias: d.Value(validation.FieldMember)}, nil
		},
		check: func(d *Dialog) validation.Result {
			var r validation.Result
			member := d.Value(validation.FieldMember)
			if member != "" && !utils.Contains(d.input(validation.FieldMember).Options, member) {
				r.Messages = append(r.Messages, validation.Message{Field: validation.FieldMember, Text: validation.MsgMember})
			}
			return r
		},
	}
}

// Signature builds the password reset dialog. current is the token of the
// logged-in session; the old credentials must match it.
func Signature(current string) *Dialog {
	return &Dialog{
		Title:  "Reset DEM User and Password",
		Node:   uri.Dem.Node(),
		Action: uri.ActionResetSignature,
		Inputs: []Input{
			{Key: FieldOldUser, Label: "Current User", Kind: InputText},
			{Key: FieldOldPassword, Label: "Current Password", Kind: InputPassword},
			{Key: FieldNewUser, Label: "New User", Kind: InputText},
			{Key: FieldNewPassword, Label: "New Password", Kind: InputPassword},
			{Key: FieldConfirm, Label: "Confirm New Password", Kind: InputPassword},
		},
		build: func(d *Dialog) (map[string]interface{}, error) {
			return map[string]interface{}{
				constants.TagSignatureOld: session.BasicToken(d.Value(FieldOldUser), d.Value(FieldOldPassword)),
				constants.TagSignatureNew: NewToken(d),
			}, nil
		},
		check: func(d *Dialog) validation.Result {
			var r validation.Result
			for _, in := range d.Inputs {
				if in.Value == "" {
					r.Messages = append(r.Messages, validation.Message{Field: in.Key, Text: MsgMandatory})
					return r
				}
			}
			if d.Value(FieldNewPassword) != d.Value(FieldConfirm) {
				r.Messages = append(r.Messages, validation.Message{Field: FieldConfirm, Text: MsgMismatch})
			}
			if session.BasicToken(d.Value(FieldOldUser), d.Value(FieldOldPassword)) != current {
				r.Messages = append(r.Messages, validation.Message{Field: FieldOldUser, Text: MsgInvalidAuth})
			}
			return r
		},
	}
}

// NewToken returns the session token matching the new credentials of a
// signature dialog
func NewToken(d *Dialog) string {
	return session.BasicToken(d.Value(FieldNewUser), d.Value(FieldNewPassword))
}

// Confirm builds a dialog without inputs for delete and the POST methods
func Confirm(node models.ManagementNode, action uri.Action) *Dialog {
	var title string
	switch action {
	case uri.ActionDelete:
		title = uri.Confirmation(node)
	case uri.ActionShutdown:
		title = "Are you sure you want to shut down the DEM"
	case uri.ActionRefresh:
		title = fmt.Sprintf("Refresh Target '%s'", node.ObjectValue)
	case uri.ActionReconfigure:
		title = fmt.Sprintf("Reconfigure Target '%s'", node.ObjectValue)
	default:
		title = fmt.Sprintf("%s %s", utils.Capitalize(action.String()), uri.Describe(node))
	}
	return &Dialog{Title: title, Node: node, Action: action}
}

func (d *Dialog) prefill(values map[string]string) {
	for key, value := range values {
		if in := d.input(key); in != nil {
			in.Value = value
		}
	}
	if in := d.input(validation.FieldAllow); in != nil {
		in.Value = strconv.FormatBool(in.Value == "true" || in.Value == "1")
	}
}

func number(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return n, nil
}

func numberOrString(s string) interface{} {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return s
}

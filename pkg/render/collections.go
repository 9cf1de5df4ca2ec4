package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/uri"
	"github.com/braunma/dem-console/pkg/utils"
)

var aboutText = []string{
	"Use the menus to view the defined objects managed by this DEM.",
	"Currently active DEM fabric interfaces for NVMe-oF Hosts to query are listed below.",
}

var headings = map[string]string{
	constants.TagNSDevs:  "NS Devices",
	constants.TagPortIDs: "Port IDs",
}

// readOnly collections have no add affordance
var readOnly = []string{
	constants.TagInterfaces,
	constants.TagNSDevices,
	constants.TagShared,
	constants.TagRestricted,
}

// nameLists hold plain aliases and are laid out in columns
var nameLists = []string{constants.TagTargets, constants.TagHosts, constants.TagGroups}

var objectTypes = []string{constants.TypeTarget, constants.TypeHost, constants.TypeGroup}

type item struct {
	label string
	value interface{}
}

func (r *renderer) collection(key string) {
	value := r.payload[key]
	items, ok := collectionItems(value)
	if !ok {
		r.field(key + "=" + utils.StringValue(value))
		return
	}

	if key == constants.TagInterfaces && r.node.ObjectType == constants.TypeDem {
		about := Block{Kind: BlockAbout, Title: "About"}
		for _, line := range aboutText {
			about.Entries = append(about.Entries, Entry{Text: line})
		}
		r.add(about)
	}

	title, ok := headings[key]
	if !ok {
		title = key
	}
	block := Block{Kind: BlockCollection, Key: key, Title: title, Columns: 1}
	singular := utils.Singular(key)

	switch {
	case utils.Contains(readOnly, key):
	case utils.Contains(nameLists, key):
		if r.node.ObjectType == constants.TypeGroup && singular != constants.TypeGroup && !r.node.IsList() {
			block.Actions = append(block.Actions, r.addAffordance(r.node.Self().Child(singular, ""), nil))
		} else {
			block.Actions = append(block.Actions, r.addAffordance(models.NewListNode(singular), nil))
		}
		switch {
		case len(items) > constants.ThreeColumnThreshold:
			block.Columns = 3
		case len(items) > constants.TwoColumnThreshold:
			block.Columns = 2
		}
		block.Filter = key == constants.TagTargets && r.node.ObjectType == constants.TypeTarget
	case !r.node.IsList():
		block.Actions = append(block.Actions, r.addAffordance(r.node.Self().Child("/"+singular, ""), nil))
	}

	for _, it := range items {
		if name, ok := it.value.(string); ok {
			block.Entries = append(block.Entries, r.nameRow(singular, name))
			continue
		}
		obj, ok := it.value.(map[string]interface{})
		if !ok {
			block.Entries = append(block.Entries, Entry{Text: it.label + "=" + utils.StringValue(it.value)})
			continue
		}

		switch {
		case key == constants.TagInterfaces && r.node.ObjectType == constants.TypeHost,
			key == constants.TagTransports:
			block.Entries = append(block.Entries, r.transportRow(it.label, obj))
		case key == constants.TagInterfaces:
			block.Entries = append(block.Entries, interfaceRow(it.label, obj))
		case key == constants.TagSubsystems:
			block.Entries = append(block.Entries, r.subsystemEntry(obj))
		case key == constants.TagPortIDs:
			block.Entries = append(block.Entries, r.portRow(obj))
		case key == constants.TagNSDevices:
			block.Entries = append(block.Entries, nsDeviceRow(it.label, obj))
		case key == constants.TagShared || key == constants.TagRestricted:
			block.Entries = append(block.Entries, r.aclRow(key, obj))
		default:
			block.Entries = append(block.Entries, dumpRows(obj)...)
		}
	}

	r.add(block)
}

// collectionItems lists the members of an array or object, ordered by value.
// Members that are not strings or numbers keep their source order.
func collectionItems(value interface{}) ([]item, bool) {
	var items []item
	switch v := value.(type) {
	case []interface{}:
		for i, member := range v {
			items = append(items, item{label: strconv.Itoa(i), value: member})
		}
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			items = append(items, item{label: k, value: v[k]})
		}
	default:
		return nil, false
	}

	sort.SliceStable(items, func(i, j int) bool {
		return lessValue(items[i].value, items[j].value)
	})
	return items, true
}

func lessValue(a, b interface{}) bool {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return x < y
		}
	case float64:
		if y, ok := b.(float64); ok {
			return x < y
		}
	}
	return false
}

func (r *renderer) addAffordance(node models.ManagementNode, prefill map[string]string) Affordance {
	return Affordance{Label: LabelAdd, Action: uri.ActionAdd, Node: node, Prefill: prefill}
}

func editAndDelete(node models.ManagementNode, prefill map[string]string) []Affordance {
	return []Affordance{
		{Label: LabelEdit, Action: uri.ActionEdit, Node: node, Prefill: prefill},
		{Label: LabelDelete, Action: uri.ActionDelete, Node: node},
	}
}

func (r *renderer) nameRow(singular, name string) Entry {
	if r.node.ObjectType == constants.TypeGroup && singular != constants.TypeGroup && !r.node.IsList() {
		member := r.node.Self().Child(singular, name)
		return Entry{Text: name, Actions: []Affordance{{Label: LabelDelete, Action: uri.ActionDelete, Node: member}}}
	}

	objectType := singular
	if !utils.Contains(objectTypes, objectType) {
		objectType = r.node.ObjectType
	}
	return Entry{
		Text: name,
		Actions: []Affordance{
			{Label: LabelView, Location: uri.Location{Type: objectType, Value: name}},
			{Label: LabelDelete, Action: uri.ActionDelete, Node: models.NewDetailNode(objectType, name)},
		},
	}
}

func (r *renderer) transportRow(label string, obj map[string]interface{}) Entry {
	prefill := map[string]string{
		"typ": utils.StringValue(obj[constants.TagType]),
		"fam": utils.StringValue(obj[constants.TagFamily]),
		"adr": utils.StringValue(obj[constants.TagAddress]),
	}
	if svc, ok := obj[constants.TagTrSvcID]; ok {
		prefill["svc"] = utils.StringValue(svc)
	}

	node := r.node.Self().Child("/"+constants.SegInterface, label)
	return Entry{
		Text:    label + ": " + fabricAddress(obj, false),
		Actions: editAndDelete(node, prefill),
	}
}

func interfaceRow(label string, obj map[string]interface{}) Entry {
	if id, ok := obj[constants.TagID]; ok {
		label = utils.StringValue(id)
	}
	return Entry{Text: label + ": " + fabricAddress(obj, true)}
}

func (r *renderer) subsystemEntry(obj map[string]interface{}) Entry {
	nqn := utils.StringValue(obj[constants.TagSubNQN])
	allowAny := utils.Truthy(obj[constants.TagAllowAny])

	text := "Subsystem NQN: " + nqn
	if allowAny {
		text += " (Allow Any Host)"
	} else {
		text += " (Restricted to 'Allowed Hosts')"
	}

	target := r.node.Self()
	entry := Entry{
		Text: text,
		Actions: editAndDelete(target.Child("/"+constants.SegSubsystem, nqn), map[string]string{
			"subnqn":   nqn,
			"allowany": strconv.FormatBool(allowAny),
		}),
	}

	nsids := Block{
		Kind:    BlockCollection,
		Key:     constants.TagNSIDs,
		Title:   constants.TagNSIDs,
		Columns: 1,
		Actions: []Affordance{r.addAffordance(target.SubsystemChild(nqn, "/"+constants.SegNamespace, ""), nil)},
	}
	namespaces, _ := obj[constants.TagNSIDs].([]interface{})
	for _, raw := range namespaces {
		ns, ok := raw.(map[string]interface{})
		if !ok {
			nsids.Entries = append(nsids.Entries, Entry{Text: utils.StringValue(raw)})
			continue
		}
		id := numberOrZero(ns[constants.TagNSID])
		devID := numberOrZero(ns[constants.TagDeviceID])
		devNSID := numberOrZero(ns[constants.TagDeviceNSID])

		text := id + ": Device: ID " + devID
		if devID != strconv.Itoa(constants.NullDeviceID) {
			text += " NSID " + devNSID
		}
		nsids.Entries = append(nsids.Entries, Entry{
			Text: text,
			Actions: editAndDelete(target.SubsystemChild(nqn, "/"+constants.SegNamespace, id), map[string]string{
				"nsid":    id,
				"devid":   devID,
				"devnsid": devNSID,
			}),
		})
	}
	entry.Sections = append(entry.Sections, nsids)

	if !allowAny {
		hosts := Block{
			Kind:    BlockCollection,
			Key:     constants.TagHosts,
			Title:   "Allowed Hosts",
			Columns: 1,
			Actions: []Affordance{r.addAffordance(target.SubsystemChild(nqn, "/"+constants.SegHost, ""), nil)},
		}
		allowed, _ := obj[constants.TagHosts].([]interface{})
		for _, raw := range allowed {
			host := utils.StringValue(raw)
			hosts.Entries = append(hosts.Entries, Entry{
				Text: host,
				Actions: []Affordance{{
					Label:  LabelDelete,
					Action: uri.ActionDelete,
					Node:   target.SubsystemChild(nqn, "/"+constants.SegHost, host),
				}},
			})
		}
		entry.Sections = append(entry.Sections, hosts)
	}

	return entry
}

func (r *renderer) portRow(obj map[string]interface{}) Entry {
	id := numberOrZero(obj[constants.TagPortID])
	typ := utils.StringValue(obj[constants.TagType])
	fam := utils.StringValue(obj[constants.TagFamily])
	adr := utils.StringValue(obj[constants.TagAddress])
	svc := utils.StringValue(obj[constants.TagTrSvcID])

	text := id + ": " + typ
	if typ == constants.FabricFC {
		text += " " + adr + " service id " + svc
	} else {
		text += " " + fam + " " + adr + ":" + svc
	}

	prefill := map[string]string{"portid": id, "typ": typ, "fam": fam, "adr": adr, "svc": svc}
	return Entry{Text: text, Actions: editAndDelete(r.node.Self().Child("/"+constants.SegPortID, id), prefill)}
}

func nsDeviceRow(label string, obj map[string]interface{}) Entry {
	devID := utils.StringValue(obj[constants.TagDeviceID])
	text := ""
	if nsdev, ok := obj[constants.TagNSDev]; ok {
		text = utils.StringValue(nsdev) + " "
	}
	if id, ok := obj[constants.TagNSID]; ok {
		label = utils.StringValue(id)
	}
	text += label + ": Device: ID " + devID
	if devNSID, ok := obj[constants.TagDeviceNSID]; ok && devID != strconv.Itoa(constants.NullDeviceID) {
		text += " NSID " + utils.StringValue(devNSID)
	}
	return Entry{Text: text}
}

func (r *renderer) aclRow(key string, obj map[string]interface{}) Entry {
	alias := utils.StringValue(obj[constants.TagAlias])
	nqn := utils.StringValue(obj[constants.TagSubNQN])
	entry := Entry{Text: fmt.Sprintf("Target '%s' Subsystem '%s'", alias, nqn)}

	if key == constants.TagRestricted && r.node.ObjectValue != "" {
		allowed := models.NewDetailNode(constants.TypeTarget, alias).
			SubsystemChild(nqn, "/"+constants.SegHost, r.node.ObjectValue)
		entry.Actions = []Affordance{{Label: LabelDelete, Action: uri.ActionDelete, Node: allowed}}
	}
	return entry
}

func dumpRows(obj map[string]interface{}) []Entry {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]Entry, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, Entry{Text: k + "=" + utils.StringValue(obj[k])})
	}
	return rows
}

func numberOrZero(v interface{}) string {
	if n, ok := utils.IntValue(v); ok {
		return strconv.Itoa(n)
	}
	if s := strings.TrimSpace(utils.StringValue(v)); s != "" {
		return s
	}
	return "0"
}

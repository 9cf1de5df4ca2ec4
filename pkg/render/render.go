package render

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/uri"
	"github.com/braunma/dem-console/pkg/utils"
)

// SortPriority returns the prefixed key used to order top-level keys
func SortPriority(key string) string {
	switch key {
	case constants.TagAlias, constants.TagName, constants.TagRefresh:
		return "A" + key
	case constants.TagMgmtMode:
		return "B" + key
	case constants.TagInterface:
		return "C" + key
	}
	return "D" + key
}

// SortKeys orders top-level keys: identity and refresh first, then the
// management mode, the management interface and finally everything else
func SortKeys(keys []string) []string {
	sorted := append([]string(nil), keys...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return SortPriority(sorted[i]) < SortPriority(sorted[j])
	})
	return sorted
}

// RenderBody renders a raw response. A body starting with '{' is a JSON
// object; anything else is kept verbatim.
func RenderBody(loc uri.Location, body []byte) Fragment {
	if len(body) == 0 || body[0] != '{' {
		return Fragment{Location: loc, Node: loc.Node(), Raw: string(body)}
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Fragment{Location: loc, Node: loc.Node(), Raw: string(body)}
	}

	f := Render(loc.Node(), payload)
	f.Location = loc
	return f
}

// Render maps a DEM JSON object onto display blocks with their affordances.
// Unexpected shapes are dumped as key=value rows instead of failing.
func Render(node models.ManagementNode, payload map[string]interface{}) Fragment {
	r := &renderer{
		node:    node,
		payload: payload,
		mode:    utils.StringValue(payload[constants.TagMgmtMode]),
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range SortKeys(keys) {
		switch key {
		case constants.TagAlias, constants.TagName:
			r.title(key)
		case constants.TagRefresh:
			r.refresh()
		case constants.TagHostNQN:
			r.field(key + ": " + utils.StringValue(payload[key]))
		case constants.TagMgmtMode:
			r.mgmtMode()
		case constants.TagInterface:
			r.mgmtInterface()
		default:
			r.collection(key)
		}
	}

	return Fragment{Location: uri.LocationOf(node), Node: node, Blocks: r.blocks}
}

type renderer struct {
	node    models.ManagementNode
	payload map[string]interface{}
	mode    string
	blocks  []Block
}

func (r *renderer) add(b Block) {
	r.blocks = append(r.blocks, b)
}

func (r *renderer) field(text string) {
	r.add(Block{Kind: BlockField, Title: text})
}

func (r *renderer) title(key string) {
	value := utils.StringValue(r.payload[key])

	self := r.node.Self()
	if self.IsList() {
		self = models.NewDetailNode(r.node.ObjectType, value)
	}

	r.add(Block{
		Kind:  BlockTitle,
		Key:   key,
		Title: key + ": " + value,
		Actions: []Affordance{
			{Label: LabelEdit, Action: uri.ActionEdit, Node: self, Prefill: r.objectPrefill()},
			{Label: LabelBack, Location: uri.Location{Type: r.node.ObjectType}},
		},
	})
}

func (r *renderer) refresh() {
	text := "disabled"
	if minutes, ok := utils.IntValue(r.payload[constants.TagRefresh]); ok && minutes != 0 {
		text = utils.Plural(minutes, "minute")
	}
	r.add(Block{Kind: BlockField, Key: constants.TagRefresh, Title: constants.TagRefresh + ": " + text})
}

func (r *renderer) mgmtMode() {
	label, ok := constants.ModeLabels[r.mode]
	if !ok {
		label = r.mode
	}
	r.add(Block{Kind: BlockField, Key: constants.TagMgmtMode, Title: "Management Mode: " + label})
}

// mgmtInterface shows the out-of-band REST endpoint, or the in-band fabric
// address, of a target. Local targets have no management interface.
func (r *renderer) mgmtInterface() {
	iface, ok := r.payload[constants.TagInterface].(map[string]interface{})
	if !ok {
		return
	}

	var text string
	switch {
	case r.mode == constants.ModeOutOfBand:
		family := utils.StringValue(iface[constants.TagIfFamily])
		if family == "" {
			return
		}
		text = family
		if addr := utils.StringValue(iface[constants.TagIfAddress]); addr != "" {
			text += " " + addr
		}
		if port := utils.StringValue(iface[constants.TagIfPort]); port != "" {
			text += ":" + port
		}
	case r.mode == constants.ModeInBand:
		if utils.StringValue(iface[constants.TagType]) == "" {
			return
		}
		text = fabricAddress(iface, true)
	default:
		return
	}

	r.add(Block{Kind: BlockField, Key: constants.TagInterface, Title: constants.TagInterface + ": " + text})
}

// objectPrefill collects the values the edit form of the viewed object
// starts from
func (r *renderer) objectPrefill() map[string]string {
	prefill := map[string]string{}
	if v, ok := r.payload[constants.TagAlias]; ok {
		prefill["alias"] = utils.StringValue(v)
	}
	if v, ok := r.payload[constants.TagName]; ok {
		prefill["group"] = utils.StringValue(v)
	}
	if v, ok := r.payload[constants.TagHostNQN]; ok {
		prefill["hostnqn"] = utils.StringValue(v)
	}
	if v, ok := r.payload[constants.TagRefresh]; ok {
		prefill["refresh"] = utils.StringValue(v)
	}
	if r.node.ObjectType == constants.TypeTarget {
		prefill["mode"] = r.mode
		if prefill["mode"] == "" {
			prefill["mode"] = constants.ModeLocal
		}
	}

	iface, _ := r.payload[constants.TagInterface].(map[string]interface{})
	switch r.mode {
	case constants.ModeOutOfBand:
		prefill["fam"] = utils.StringValue(iface[constants.TagIfFamily])
		prefill["adr"] = utils.StringValue(iface[constants.TagIfAddress])
		prefill["svc"] = utils.StringValue(iface[constants.TagIfPort])
	case constants.ModeInBand:
		prefill["typ"] = utils.StringValue(iface[constants.TagType])
		prefill["fam"] = utils.StringValue(iface[constants.TagFamily])
		prefill["adr"] = utils.StringValue(iface[constants.TagAddress])
		prefill["svc"] = utils.StringValue(iface[constants.TagTrSvcID])
	}
	return prefill
}

// fabricAddress formats "TRTYPE ADRFAM TRADDR[:TRSVCID]", skipping empty parts
func fabricAddress(obj map[string]interface{}, withService bool) string {
	var parts []string
	for _, tag := range []string{constants.TagType, constants.TagFamily, constants.TagAddress} {
		if s := utils.StringValue(obj[tag]); s != "" {
			parts = append(parts, s)
		}
	}
	text := strings.Join(parts, " ")
	if withService {
		if svc := utils.StringValue(obj[constants.TagTrSvcID]); svc != "" {
			text += ":" + svc
		}
	}
	return text
}

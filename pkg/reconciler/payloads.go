package reconciler

import (
	"strconv"
	"strings"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/client"
	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/utils"
)

// The payloads below match what the console dialogs send for the same
// object, so that applying a definition and editing it by hand converge.

func targetPayload(t *models.Target) map[string]interface{} {
	payload := map[string]interface{}{
		constants.TagAlias:    t.Alias,
		constants.TagMgmtMode: t.Mode(),
	}
	if t.Refresh > 0 {
		payload[constants.TagRefresh] = t.Refresh
	}

	iface := t.Interface
	if iface == nil {
		iface = &models.Interface{}
	}
	switch t.Mode() {
	case constants.ModeOutOfBand:
		mgmt := map[string]interface{}{}
		if iface.Family != "" {
			mgmt[constants.TagIfFamily] = iface.Family
			mgmt[constants.TagIfAddress] = iface.Address
			mgmt[constants.TagIfPort] = iface.Port
		}
		payload[constants.TagInterface] = mgmt
	case constants.ModeInBand:
		payload[constants.TagInterface] = map[string]interface{}{
			constants.TagType:    iface.TrType,
			constants.TagFamily:  iface.AdrFam,
			constants.TagAddress: iface.TrAddr,
			constants.TagTrSvcID: iface.TrSvcID,
		}
	}
	return payload
}

func portPayload(p models.PortID) map[string]interface{} {
	return map[string]interface{}{
		constants.TagPortID:  p.PortID,
		constants.TagType:    p.TrType,
		constants.TagFamily:  p.AdrFam,
		constants.TagAddress: p.TrAddr,
		constants.TagTrSvcID: service(p.TrSvcID),
	}
}

func transportPayload(tr models.Transport) map[string]interface{} {
	payload := map[string]interface{}{
		constants.TagType:    tr.TrType,
		constants.TagFamily:  tr.AdrFam,
		constants.TagAddress: tr.TrAddr,
	}
	if tr.TrSvcID != "" {
		payload[constants.TagTrSvcID] = service(tr.TrSvcID)
	}
	return payload
}

func subsystemPayload(ss models.Subsystem) map[string]interface{} {
	allow := 0
	if ss.AllowAnyHost {
		allow = 1
	}
	return map[string]interface{}{
		constants.TagSubNQN:   ss.SubNQN,
		constants.TagAllowAny: allow,
	}
}

// namespacePayload leaves out DeviceNSID for the null device, which has none
func namespacePayload(ns models.Namespace) map[string]interface{} {
	payload := map[string]interface{}{
		constants.TagNSID:     ns.NSID,
		constants.TagDeviceID: ns.DeviceID,
	}
	if !ns.IsNullDevice() {
		payload[constants.TagDeviceNSID] = ns.DeviceNSID
	}
	return payload
}

func service(s string) interface{} {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return s
}

// children returns the objects listed under key of obj
func children(obj client.Object, key string) []map[string]interface{} {
	list, _ := obj[key].([]interface{})
	out := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// names returns the string entries listed under key of obj
func names(obj map[string]interface{}, key string) []string {
	list, _ := obj[key].([]interface{})
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, utils.StringValue(item))
	}
	return out
}

// findChild returns the index and object of the first child whose tag holds
// value, or -1
func findChild(list []map[string]interface{}, tag, value string) (int, map[string]interface{}) {
	for i, child := range list {
		if utils.StringValue(child[tag]) == value {
			return i, child
		}
	}
	return -1, nil
}

// findTransport matches a host interface by fabric and address; the service
// id is the part an update may change
func findTransport(list []map[string]interface{}, tr models.Transport) (int, map[string]interface{}) {
	for i, child := range list {
		if utils.StringValue(child[constants.TagType]) == tr.TrType &&
			utils.StringValue(child[constants.TagFamily]) == tr.AdrFam &&
			utils.StringValue(child[constants.TagAddress]) == tr.TrAddr {
			return i, child
		}
	}
	return -1, nil
}

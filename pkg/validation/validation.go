package validation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/braunma/dem-console/internal/constants"
)

// Form field keys. A key present in the fields map means the form shows that
// input, even when its value is empty.
const (
	FieldAlias   = "alias"
	FieldGroup   = "group"
	FieldMode    = "mode"
	FieldRefresh = "refresh"
	FieldHostNQN = "hostnqn"
	FieldSubNQN  = "subnqn"
	FieldAllow   = "allowany"
	FieldType    = "typ"
	FieldFamily  = "fam"
	FieldAddress = "adr"
	FieldService = "svc"
	FieldPortID  = "portid"
	FieldNSID    = "nsid"
	FieldDevID   = "devid"
	FieldDevNSID = "devnsid"
	FieldMember  = "member"
)

var (
	aliasPattern = regexp.MustCompile(`^[0-9a-zA-Z#<>_:.-]{1,64}$`)
	nqnPattern   = regexp.MustCompile(`^[0-9a-zA-Z@+_:.-]{6,128}$`)
	ipv4Pattern  = regexp.MustCompile(`^(([0-9]{1,2}|[0-1][0-9]{2}|2[0-4][0-9]|25[0-5])[.]){3}([0-9]{1,2}|[0-1][0-9]{2}|2[0-4][0-9]|25[0-5])$`)
	ipv6Pattern  = regexp.MustCompile(`^([0-9a-fA-F]{0,4}[:]){5}[0-9a-fA-F]{0,4}$`)
	fcPattern    = regexp.MustCompile(`^([0-9a-fA-F]{2}[:]){7}[0-9a-fA-F]{2}$`)
)

const (
	aliasRule = "must be 1 - 64 characters, valid characters are alphanumerics plus the following special characters # < > _ : . -"
	nqnRule   = "must be 6 - 128 characters, valid characters are alphanumerics plus the following special characters @ + _ : . -"
)

// Messages
const (
	MsgAlias         = "Invalid Alias: " + aliasRule
	MsgGroup         = "Invalid Group name: " + aliasRule
	MsgMode          = "Invalid Management Mode. Please select from OutOfBandMgmt, InBandMgmt, or LocalMgmt"
	MsgRefresh       = "Invalid Refresh: must be a number of minutes, 0 disables refresh"
	MsgIPv4          = "Invalid IPv4 address: must be format is x.x.x.x where values are decimal numbers from 0 to 255"
	MsgIPv6          = "Invalid IPv6 address: must be format is x:x:x:x:x:x where values may be omitted or hex numbers from 0 to FFFF (either upper of lower case hex is valid)"
	MsgFC            = "Invalid FC address: must be format is xx:xx:xx:xx:xx:xx:xx:xx where values may be omitted or hex numbers from 00 to FF (either upper of lower case hex is valid)"
	MsgFamily        = "Invalid Address Family. Please select from ipv4, ipv6, or fc"
	MsgFabric        = "Invalid Fabric Type. Please select from rdma, tcp, or fc"
	MsgFamilyNeedsFC = "Invalid Address Family. Please select 'fc' for Family when Fabric is Fiber Channel."
	MsgFamilyNotFC   = "Invalid Address Family. Please select 'ipv4 or ipv6 for Family when Fabric is not Fiber Channel."
	MsgService       = "Invalid Transport Service ID. Please specify the transport service ID to use."
	MsgSubNQN        = "Invalid Subsystem NQN: " + nqnRule
	MsgHostNQN       = "Invalid Host NQN: " + nqnRule
	MsgPortIDMissing = "Port ID must be provided"
	MsgPortIDInvalid = "Invalid Port ID, must be a number >= 0"
	MsgNSIDMissing   = "Namespace ID must be provided"
	MsgNSIDInvalid   = "Invalid Namespace ID, must be a number >= 1"
	MsgDeviceID      = "Invalid Device ID, >= 0 for actual nvme device, -1 for nullb0"
	MsgDeviceNSID    = "Invalid Device Namespace ID, must be provided if Device ID is >= 0"
	MsgMember        = "Please select an entry from the list"
)

// ValidateAlias checks an alias or group name
func ValidateAlias(s string) bool {
	return aliasPattern.MatchString(s)
}

// ValidateNQN checks a subsystem or host NQN
func ValidateNQN(s string) bool {
	return nqnPattern.MatchString(s)
}

// ValidateIPv4 checks a dotted-quad address
func ValidateIPv4(s string) bool {
	return ipv4Pattern.MatchString(s)
}

// ValidateIPv6 checks a six group colon-hex address. "::" compression only
// matches when it keeps that arity, so "fe80::1" is rejected.
func ValidateIPv6(s string) bool {
	return ipv6Pattern.MatchString(s)
}

// ValidateFC checks a Fibre Channel WWN address
func ValidateFC(s string) bool {
	return fcPattern.MatchString(s)
}

// Validate runs every check that applies to the inputs present in fields.
// All failures are collected in order; the first names the field to focus.
func Validate(fields map[string]string) Result {
	v := &validator{fields: fields}

	v.check(FieldAlias, ValidateAlias, MsgAlias)
	v.check(FieldGroup, ValidateAlias, MsgGroup)
	v.checkMode()
	v.checkRefresh()
	v.checkAddress()
	v.check(FieldSubNQN, ValidateNQN, MsgSubNQN)
	v.check(FieldHostNQN, ValidateNQN, MsgHostNQN)
	v.checkPortID()
	v.checkNSID()
	v.checkDevice()
	if member, ok := fields[FieldMember]; ok && strings.TrimSpace(member) == "" {
		v.fail(FieldMember, MsgMember)
	}

	return v.result
}

type validator struct {
	fields map[string]string
	result Result
}

func (v *validator) get(key string) (string, bool) {
	s, ok := v.fields[key]
	return s, ok
}

func (v *validator) fail(field, text string) {
	v.result.Messages = append(v.result.Messages, Message{Field: field, Text: text})
}

func (v *validator) check(field string, valid func(string) bool, msg string) {
	if s, ok := v.get(field); ok && !valid(s) {
		v.fail(field, msg)
	}
}

func (v *validator) checkMode() {
	mode, ok := v.get(FieldMode)
	if !ok {
		return
	}
	if _, known := constants.ModeLabels[mode]; !known {
		v.fail(FieldMode, MsgMode)
	}
}

func (v *validator) checkRefresh() {
	refresh, ok := v.get(FieldRefresh)
	if !ok || strings.TrimSpace(refresh) == "" {
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(refresh)); err != nil || n < 0 {
		v.fail(FieldRefresh, MsgRefresh)
	}
}

// checkAddress covers the transport block: address syntax per family, then
// the fabric/family pairing, then the service id.
func (v *validator) checkAddress() {
	adr, hasAdr := v.get(FieldAddress)
	if !hasAdr {
		return
	}
	fam, _ := v.get(FieldFamily)
	typ, hasTyp := v.get(FieldType)

	switch fam {
	case constants.FamilyIPv4:
		if !ValidateIPv4(adr) {
			v.fail(FieldAddress, MsgIPv4)
		}
	case constants.FamilyIPv6:
		if !ValidateIPv6(adr) {
			v.fail(FieldAddress, MsgIPv6)
		}
	case constants.FamilyFC:
		if !ValidateFC(adr) {
			v.fail(FieldAddress, MsgFC)
		}
	default:
		if hasTyp {
			v.fail(FieldFamily, MsgFamily)
		}
	}

	if hasTyp && typ == "" {
		v.fail(FieldType, MsgFabric)
	}
	if typ == constants.FabricFC && fam != constants.FamilyFC {
		v.fail(FieldFamily, MsgFamilyNeedsFC)
	}
	if typ != constants.FabricFC && fam == constants.FamilyFC {
		v.fail(FieldFamily, MsgFamilyNotFC)
	}

	if svc, ok := v.get(FieldService); ok && svc == "" && (hasTyp || adr != "") {
		v.fail(FieldService, MsgService)
	}
}

func (v *validator) checkPortID() {
	portID, ok := v.get(FieldPortID)
	if !ok {
		return
	}
	if strings.TrimSpace(portID) == "" {
		v.fail(FieldPortID, MsgPortIDMissing)
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(portID)); err != nil || n < 0 {
		v.fail(FieldPortID, MsgPortIDInvalid)
	}
}

func (v *validator) checkNSID() {
	nsid, ok := v.get(FieldNSID)
	if !ok {
		return
	}
	if strings.TrimSpace(nsid) == "" {
		v.fail(FieldNSID, MsgNSIDMissing)
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(nsid)); err != nil || n < 1 {
		v.fail(FieldNSID, MsgNSIDInvalid)
	}
}

func (v *validator) checkDevice() {
	devID := constants.DefaultDeviceID
	if raw, ok := v.get(FieldDevID); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < constants.NullDeviceID {
			v.fail(FieldDevID, MsgDeviceID)
		} else {
			devID = n
		}
	}

	raw, ok := v.get(FieldDevNSID)
	if !ok {
		return
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if devID != constants.NullDeviceID {
			v.fail(FieldDevNSID, MsgDeviceNSID)
		}
		return
	}
	if n, err := strconv.Atoi(raw); err != nil || n < 0 {
		v.fail(FieldDevNSID, MsgDeviceNSID)
	}
}

package constants

// Object types addressed by the DEM REST API
const (
	TypeTarget = "target"
	TypeHost   = "host"
	TypeGroup  = "group"
	TypeDem    = "dem"
)

// URI segments below an object
const (
	SegSubsystem = "subsystem"
	SegPortID    = "portid"
	SegNamespace = "nsid"
	SegInterface = "interface"
	SegTransport = "transport"
	SegHost      = "host"
	SegTarget    = "target"
)

// Methods invoked with POST and no body
const (
	MethodRefresh   = "refresh"
	MethodReconfig  = "reconfig"
	MethodShutdown  = "shutdown"
	MethodSignature = "signature"
	MethodUsage     = "usage"
	MethodLogPage   = "logpage"
)

// JSON tags used by the DEM object tree
const (
	TagAlias        = "Alias"
	TagName         = "Name"
	TagRefresh      = "Refresh"
	TagHostNQN      = "HOSTNQN"
	TagMgmtMode     = "MgmtMode"
	TagInterface    = "Interface"
	TagInterfaces   = "Interfaces"
	TagTargets      = "Targets"
	TagHosts        = "Hosts"
	TagGroups       = "Groups"
	TagSubsystems   = "Subsystems"
	TagPortIDs      = "PortIDs"
	TagNSDevices    = "NSDevices"
	TagNSDevs       = "NSDevs"
	TagTransports   = "Transports"
	TagShared       = "Shared"
	TagRestricted   = "Restricted"
	TagSubNQN       = "SUBNQN"
	TagAllowAny     = "AllowAnyHost"
	TagNSIDs        = "NSIDs"
	TagNSID         = "NSID"
	TagDeviceID     = "DeviceID"
	TagDeviceNSID   = "DeviceNSID"
	TagNSDev        = "NSDEV"
	TagPortID       = "PORTID"
	TagType         = "TRTYPE"
	TagFamily       = "ADRFAM"
	TagAddress      = "TRADDR"
	TagTrSvcID      = "TRSVCID"
	TagIfFamily     = "FAMILY"
	TagIfAddress    = "ADDRESS"
	TagIfPort       = "PORT"
	TagID           = "ID"
	TagSignatureOld = "old"
	TagSignatureNew = "new"
)

// Management modes
const (
	ModeOutOfBand = "OutOfBandMgmt"
	ModeInBand    = "InBandMgmt"
	ModeLocal     = "LocalMgmt"
)

// Fabric types and address families
const (
	FabricRDMA = "rdma"
	FabricTCP  = "tcp"
	FabricFC   = "fc"

	FamilyIPv4 = "ipv4"
	FamilyIPv6 = "ipv6"
	FamilyFC   = "fc"
)

// Defaults
const (
	DefaultPort       = 22345
	DefaultListenAddr = "127.0.0.1:8080"
	DefaultNSID       = 1
	DefaultDeviceID   = 0
	DefaultDeviceNSID = 1
	NullDeviceID      = -1
)

// Column thresholds for name lists
const (
	TwoColumnThreshold   = 11
	ThreeColumnThreshold = 22
)

// Messages shown when the session is dropped
const (
	MsgUnreachable = "DEM is not responding."
	MsgForbidden   = "Invalid user id and/or password."
)

// Fabric types accepted by transport and port forms
var FabricTypes = []string{FabricRDMA, FabricFC, FabricTCP}

// Address families accepted by transport and port forms
var AddressFamilies = []string{FamilyIPv4, FamilyIPv6, FamilyFC}

// ModeLabels maps management modes to their display label
var ModeLabels = map[string]string{
	ModeOutOfBand: "Out-of-Band",
	ModeInBand:    "In-Band",
	ModeLocal:     "Local",
}

// ListFilters are the query strings accepted on the target list
var ListFilters = map[string]string{
	"rdma":   "?fabric=rdma",
	"tcp":    "?fabric=tcp",
	"fc":     "?fabric=fc",
	"oob":    "?mode=OutOfBandMgmt",
	"inband": "?mode=InBandMgmt",
	"local":  "?mode=LocalMgmt",
}

// FilterLabels describe each list filter in menus
var FilterLabels = map[string]string{
	"":       "No Filter",
	"rdma":   "Only RDMA Fabric",
	"tcp":    "Only TCP Fabric",
	"fc":     "Only FC Fabric",
	"oob":    "Only Out-of-Band Managed",
	"inband": "Only In-Band Managed",
	"local":  "Only Locally Managed",
}

// FilterOrder is the menu order of list filters
var FilterOrder = []string{"", "rdma", "tcp", "fc", "oob", "inband", "local"}

package models

import (
	"github.com/braunma/dem-console/internal/constants"
)

// Interface is the management interface of a target. Out-of-band targets use
// Family/Address/Port, in-band targets use the transport fields.
type Interface struct {
	Family  string `yaml:"family,omitempty" json:"FAMILY,omitempty" mapstructure:"FAMILY"`
	Address string `yaml:"address,omitempty" json:"ADDRESS,omitempty" mapstructure:"ADDRESS"`
	Port    int    `yaml:"port,omitempty" json:"PORT,omitempty" mapstructure:"PORT"`
	TrType  string `yaml:"trtype,omitempty" json:"TRTYPE,omitempty" mapstructure:"TRTYPE"`
	AdrFam  string `yaml:"adrfam,omitempty" json:"ADRFAM,omitempty" mapstructure:"ADRFAM"`
	TrAddr  string `yaml:"traddr,omitempty" json:"TRADDR,omitempty" mapstructure:"TRADDR"`
	TrSvcID string `yaml:"trsvcid,omitempty" json:"TRSVCID,omitempty" mapstructure:"TRSVCID"`
}

// PortID is a fabric port exposed by a target
type PortID struct {
	PortID  int    `yaml:"portid" json:"PORTID" mapstructure:"PORTID" validate:"required"`
	TrType  string `yaml:"trtype" json:"TRTYPE" mapstructure:"TRTYPE" validate:"required"`
	AdrFam  string `yaml:"adrfam" json:"ADRFAM" mapstructure:"ADRFAM" validate:"required"`
	TrAddr  string `yaml:"traddr" json:"TRADDR" mapstructure:"TRADDR"`
	TrSvcID string `yaml:"trsvcid" json:"TRSVCID" mapstructure:"TRSVCID"`
}

// Transport is a fabric interface of a host
type Transport struct {
	TrType  string `yaml:"trtype" json:"TRTYPE" mapstructure:"TRTYPE" validate:"required"`
	AdrFam  string `yaml:"adrfam" json:"ADRFAM" mapstructure:"ADRFAM" validate:"required"`
	TrAddr  string `yaml:"traddr" json:"TRADDR" mapstructure:"TRADDR"`
	TrSvcID string `yaml:"trsvcid,omitempty" json:"TRSVCID,omitempty" mapstructure:"TRSVCID"`
}

// DemInterface is a fabric interface the DEM itself listens on
type DemInterface struct {
	ID      int    `json:"ID" mapstructure:"ID"`
	TrType  string `json:"TRTYPE" mapstructure:"TRTYPE"`
	AdrFam  string `json:"ADRFAM" mapstructure:"ADRFAM"`
	TrAddr  string `json:"TRADDR" mapstructure:"TRADDR"`
	TrSvcID string `json:"TRSVCID" mapstructure:"TRSVCID"`
}

// Namespace maps an NSID of a subsystem to a backing device.
// DeviceID -1 is the null block device and has no DeviceNSID.
type Namespace struct {
	NSID       int `yaml:"nsid" json:"NSID" mapstructure:"NSID" validate:"required"`
	DeviceID   int `yaml:"device_id" json:"DeviceID" mapstructure:"DeviceID"`
	DeviceNSID int `yaml:"device_nsid" json:"DeviceNSID" mapstructure:"DeviceNSID"`
}

// IsNullDevice reports whether the namespace is backed by the null device
func (n Namespace) IsNullDevice() bool {
	return n.DeviceID == constants.NullDeviceID
}

// NSDevice is a namespace device reported by a target
type NSDevice struct {
	NSDev      string `json:"NSDEV,omitempty" mapstructure:"NSDEV"`
	NSID       int    `json:"NSID,omitempty" mapstructure:"NSID"`
	DeviceID   int    `json:"DeviceID" mapstructure:"DeviceID"`
	DeviceNSID int    `json:"DeviceNSID,omitempty" mapstructure:"DeviceNSID"`
}

// Subsystem is an NVMe subsystem of a target. AllowAnyHost and a non-empty
// Hosts list are mutually exclusive.
type Subsystem struct {
	SubNQN       string      `yaml:"subnqn" json:"SUBNQN" mapstructure:"SUBNQN" validate:"required"`
	AllowAnyHost bool        `yaml:"allow_any_host" json:"AllowAnyHost" mapstructure:"AllowAnyHost"`
	Namespaces   []Namespace `yaml:"nsids,omitempty" json:"NSIDs,omitempty" mapstructure:"NSIDs"`
	Hosts        []string    `yaml:"hosts,omitempty" json:"Hosts,omitempty" mapstructure:"Hosts"`
}

// Namespace returns the namespace with the given NSID
func (s Subsystem) Namespace(nsid int) (Namespace, bool) {
	for _, ns := range s.Namespaces {
		if ns.NSID == nsid {
			return ns, true
		}
	}
	return Namespace{}, false
}

// Target is a storage target managed by the DEM
type Target struct {
	Alias      string         `yaml:"alias" json:"Alias" mapstructure:"Alias" validate:"required"`
	Refresh    int            `yaml:"refresh,omitempty" json:"Refresh,omitempty" mapstructure:"Refresh"`
	MgmtMode   string         `yaml:"mgmt_mode,omitempty" json:"MgmtMode,omitempty" mapstructure:"MgmtMode"`
	Interface  *Interface     `yaml:"interface,omitempty" json:"Interface,omitempty" mapstructure:"Interface"`
	PortIDs    []PortID       `yaml:"port_ids,omitempty" json:"PortIDs,omitempty" mapstructure:"PortIDs"`
	Subsystems []Subsystem    `yaml:"subsystems,omitempty" json:"Subsystems,omitempty" mapstructure:"Subsystems"`
	NSDevices  []NSDevice     `yaml:"-" json:"NSDevices,omitempty" mapstructure:"NSDevices"`
	Interfaces []DemInterface `yaml:"-" json:"Interfaces,omitempty" mapstructure:"Interfaces"`
}

// Mode returns the management mode, defaulting to local management
func (t Target) Mode() string {
	if t.MgmtMode == "" {
		return constants.ModeLocal
	}
	return t.MgmtMode
}

// Subsystem returns the subsystem with the given NQN
func (t Target) Subsystem(nqn string) (Subsystem, bool) {
	for _, ss := range t.Subsystems {
		if ss.SubNQN == nqn {
			return ss, true
		}
	}
	return Subsystem{}, false
}

// PortID returns the port with the given id
func (t Target) PortID(id int) (PortID, bool) {
	for _, p := range t.PortIDs {
		if p.PortID == id {
			return p, true
		}
	}
	return PortID{}, false
}

// ACLEntry is a subsystem a host may reach, listed on the host view
type ACLEntry struct {
	Alias  string `json:"Alias" mapstructure:"Alias"`
	SubNQN string `json:"SUBNQN" mapstructure:"SUBNQN"`
}

// Host is an NVMe-oF initiator known to the DEM
type Host struct {
	Alias      string      `yaml:"alias" json:"Alias" mapstructure:"Alias" validate:"required"`
	HostNQN    string      `yaml:"hostnqn" json:"HOSTNQN" mapstructure:"HOSTNQN" validate:"required"`
	Interfaces []Transport `yaml:"interfaces,omitempty" json:"Interfaces,omitempty" mapstructure:"Interfaces"`
	Shared     []ACLEntry  `yaml:"-" json:"Shared,omitempty" mapstructure:"Shared"`
	Restricted []ACLEntry  `yaml:"-" json:"Restricted,omitempty" mapstructure:"Restricted"`
}

// Group bundles targets and hosts
type Group struct {
	Name    string   `yaml:"name" json:"Name" mapstructure:"Name" validate:"required"`
	Targets []string `yaml:"targets,omitempty" json:"Targets,omitempty" mapstructure:"Targets"`
	Hosts   []string `yaml:"hosts,omitempty" json:"Hosts,omitempty" mapstructure:"Hosts"`
}

// Dem is the DEM overview returned by GET dem
type Dem struct {
	Interfaces []DemInterface `json:"Interfaces" mapstructure:"Interfaces"`
}

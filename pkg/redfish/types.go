package redfish

import (
	"fmt"

	"github.com/braunma/dem-console/pkg/utils"
)

// Link is a Redfish reference to another resource
type Link struct {
	ODataID string `json:"@odata.id"`
}

// ID returns the last path segment of the reference
func (l Link) ID() string {
	return utils.LastSegment(l.ODataID)
}

// Collection is any Redfish resource collection
type Collection struct {
	Members []Link `json:"Members"`
}

// IDs returns the member ids in collection order
func (c Collection) IDs() []string {
	ids := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		ids = append(ids, m.ID())
	}
	return ids
}

// IPTransportDetails is one transport of an endpoint or target system
type IPTransportDetails struct {
	TransportProtocol string `json:"TransportProtocol"`
	IPv4Address       struct {
		Address string `json:"Address"`
	} `json:"IPv4Address"`
	Port int `json:"Port"`
}

// TargetSystem is a storage server known to the Redfish service
type TargetSystem struct {
	Name               string               `json:"Name"`
	IPTransportDetails []IPTransportDetails `json:"IPTransportDetails"`
}

// Address returns host:port of the first transport, which is where the
// target's own Redfish service answers
func (t TargetSystem) Address() string {
	if len(t.IPTransportDetails) == 0 {
		return ""
	}
	tr := t.IPTransportDetails[0]
	return fmt.Sprintf("%s:%d", tr.IPv4Address.Address, tr.Port)
}

type targetList struct {
	Targets []TargetSystem `json:"Targets"`
}

type controller struct {
	Links struct {
		AttachedVolumes []Link `json:"AttachedVolumes"`
		Endpoints       []Link `json:"Endpoints"`
	} `json:"Links"`
}

type endpoint struct {
	IPTransportDetails []IPTransportDetails `json:"IPTransportDetails"`
}

type connection struct {
	Links struct {
		InitiatorEndpoints []Link `json:"InitiatorEndpoints"`
		TargetEndpoints    []Link `json:"TargetEndpoints"`
	} `json:"Links"`
	VolumeInfo []struct {
		Volume             Link     `json:"Volume"`
		AccessCapabilities []string `json:"AccessCapabilities"`
	} `json:"VolumeInfo"`
}

// AnyInitiator stands in for the initiators of a connection open to all hosts
const AnyInitiator = "ANY"

// Transport is the display form of IPTransportDetails
type Transport struct {
	Protocol    string
	IPv4Address string
	Port        int
}

func (t Transport) String() string {
	return fmt.Sprintf("%s %s:%d", t.Protocol, t.IPv4Address, t.Port)
}

// VolumeNamespace pairs a subsystem volume with the namespace volume that
// ultimately provides it
type VolumeNamespace struct {
	Volume    string
	Namespace string
}

// Endpoint is a fabric endpoint of a controller
type Endpoint struct {
	Name       string
	Transports []Transport
}

// Controller is a subsystem controller with its attached volumes
type Controller struct {
	Name      string
	Volumes   []string
	Endpoints []Endpoint
}

// Connection grants initiators access to volumes through a target endpoint
type Connection struct {
	Name           string
	TargetEndpoint string
	Initiators     []string
	Volumes        []string
	Access         [][]string
}

// SubsystemDetails is everything the dashboard shows for one subsystem
type SubsystemDetails struct {
	ID          string
	Name        string
	Volumes     []VolumeNamespace
	Controllers []Controller
	Connections []Connection
}

// Endpoints returns the names of every controller endpoint
func (d *SubsystemDetails) Endpoints() []string {
	var names []string
	for _, c := range d.Controllers {
		for _, ep := range c.Endpoints {
			names = append(names, ep.Name)
		}
	}
	return names
}

package redfish

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func members(ids ...string) string {
	out := `{"Members":[`
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += `{"@odata.id":"` + id + `"}`
	}
	return out + `]}`
}

const ss = "/redfish/v1/Storage/SS-1"

var storage = map[string]string{
	StoragePath: members(ss, "/redfish/v1/Storage/SS-2/"),
	ss:          `{"Name":"Subsystem One"}`,

	ss + "/Volumes":                                    members(ss + "/Volumes/Vol-1"),
	ss + "/Volumes/Vol-1/CapacitySources":              members(ss + "/Volumes/Vol-1/CapacitySources/CS-1"),
	ss + "/Volumes/Vol-1/CapacitySources/CS-1/ProvidingPools": members(ss + "/StoragePools/SP-1"),
	ss + "/StoragePools/SP-1/CapacitySources":          members(ss + "/StoragePools/SP-1/CapacitySources/PCS-1"),
	ss + "/StoragePools/SP-1/CapacitySources/PCS-1/ProvidingVolumes": members(
		"/redfish/v1/Systems/Sys-1/Storage/NVMe/Volumes/NS-1",
		"/redfish/v1/Systems/Sys-1/Storage/NVMe/Volumes/NS-2",
	),

	ss + "/Controllers": members(ss+"/Controllers/C-1", ss+"/Controllers/C-2"),
	ss + "/Controllers/C-1": `{"Links":{
		"AttachedVolumes":[{"@odata.id":"` + ss + `/Volumes/Vol-1"}],
		"Endpoints":[{"@odata.id":"/redfish/v1/Fabrics/NVMe-oF/Endpoints/EP-1"}]}}`,
	ss + "/Controllers/C-2": `{"Links":{"AttachedVolumes":[],"Endpoints":[]}}`,
	EndpointsPath + "/EP-1": `{"IPTransportDetails":[
		{"TransportProtocol":"RoCEv2","IPv4Address":{"Address":"192.168.1.10"},"Port":4420}]}`,

	ConnectionsPath: members(ConnectionsPath+"/Conn-1", ConnectionsPath+"/Conn-2", ConnectionsPath+"/Conn-3"),
	ConnectionsPath + "/Conn-1": `{
		"Links":{"InitiatorEndpoints":[{"@odata.id":"/x/Initiator-1"}],"TargetEndpoints":[{"@odata.id":"/x/EP-1"}]},
		"VolumeInfo":[{"Volume":{"@odata.id":"/x/Vol-1"},"AccessCapabilities":["Read","Write"]}]}`,
	ConnectionsPath + "/Conn-2": `{
		"Links":{"InitiatorEndpoints":[],"TargetEndpoints":[{"@odata.id":"/x/EP-1"}]},
		"VolumeInfo":[{"Volume":{"@odata.id":"/x/Vol-1"},"AccessCapabilities":["Read"]}]}`,
	ConnectionsPath + "/Conn-3": `{
		"Links":{"InitiatorEndpoints":[],"TargetEndpoints":[{"@odata.id":"/x/EP-9"}]},
		"VolumeInfo":[]}`,

	SystemsPath: members("/redfish/v1/Systems/Host-1", "/redfish/v1/Systems/Host-2"),
	TargetsPath: `{"Targets":[{"Name":"target-1","IPTransportDetails":[
		{"TransportProtocol":"TCP","IPv4Address":{"Address":"10.0.0.7"},"Port":8000}]}]}`,
}

func newServer(t *testing.T, replies map[string]string) (*Client, *int32) {
	t.Helper()
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		body, ok := replies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewClient(server.URL+"/", log), &hits
}

func TestLists(t *testing.T) {
	c, _ := newServer(t, storage)
	ctx := context.Background()

	subsystems, err := c.Subsystems(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"SS-1", "SS-2"}, subsystems)

	systems, err := c.Systems(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Host-1", "Host-2"}, systems)

	targets, err := c.TargetSystems(ctx)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "target-1", targets[0].Name)
	assert.Equal(t, "10.0.0.7:8000", targets[0].Address())

	target := c.ForTarget(targets[0])
	assert.Equal(t, "http://10.0.0.7:8000", target.BaseURL())
}

func TestSubsystemDetails(t *testing.T) {
	c, _ := newServer(t, storage)

	details, err := c.SubsystemDetails(context.Background(), "SS-1")
	require.NoError(t, err)

	assert.Equal(t, "Subsystem One", details.Name)
	assert.Equal(t, []VolumeNamespace{
		{Volume: "Vol-1", Namespace: "NS-1"},
		{Volume: "Vol-1", Namespace: "NS-2"},
	}, details.Volumes)

	require.Len(t, details.Controllers, 2)
	first := details.Controllers[0]
	assert.Equal(t, "C-1", first.Name)
	assert.Equal(t, []string{"Vol-1"}, first.Volumes)
	require.Len(t, first.Endpoints, 1)
	assert.Equal(t, "EP-1", first.Endpoints[0].Name)
	assert.Equal(t, "RoCEv2 192.168.1.10:4420", first.Endpoints[0].Transports[0].String())
	assert.Empty(t, details.Controllers[1].Endpoints)

	// Conn-3 targets an endpoint of another subsystem
	require.Len(t, details.Connections, 2)
	assert.Equal(t, []string{"Initiator-1"}, details.Connections[0].Initiators)
	assert.Equal(t, [][]string{{"Read", "Write"}}, details.Connections[0].Access)
	assert.Equal(t, "Conn-2", details.Connections[1].Name)
	assert.Equal(t, []string{AnyInitiator}, details.Connections[1].Initiators)
	assert.Equal(t, []string{"Vol-1"}, details.Connections[1].Volumes)
}

func TestSubsystemDetailsMissingLink(t *testing.T) {
	replies := make(map[string]string, len(storage))
	for k, v := range storage {
		replies[k] = v
	}
	delete(replies, EndpointsPath+"/EP-1")

	c, _ := newServer(t, replies)
	_, err := c.SubsystemDetails(context.Background(), "SS-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SS-1")
	assert.Contains(t, err.Error(), "status 404")
}

func TestCanceledContext(t *testing.T) {
	c, hits := newServer(t, storage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SubsystemDetails(ctx, "SS-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, atomic.LoadInt32(hits))
}

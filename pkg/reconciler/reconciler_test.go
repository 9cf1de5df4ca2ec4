package reconciler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/braunma/dem-console/pkg/client"
	"github.com/braunma/dem-console/pkg/loader"
	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/session"
	"github.com/braunma/dem-console/pkg/utils"
)

const (
	nqn1 = "nqn.2014-08.org.nvmexpress:s1"
	nqn2 = "nqn.2014-08.org.nvmexpress:s2"
)

type write struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

// dem answers GETs from objects and records every write
type dem struct {
	mu      sync.Mutex
	objects map[string]string
	writes  []write
}

func (d *dem) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")

	d.mu.Lock()
	defer d.mu.Unlock()

	if r.Method == http.MethodGet {
		body, ok := d.objects[path]
		if !ok {
			w.WriteHeader(client.StatusNotFound)
			_, _ = w.Write([]byte("not found"))
			return
		}
		_, _ = w.Write([]byte(body))
		return
	}

	wr := write{Method: r.Method, Path: path}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &wr.Body)
	}
	d.writes = append(d.writes, wr)
}

func (d *dem) paths() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, 0, len(d.writes))
	for _, w := range d.writes {
		out = append(out, w.Method+" "+w.Path)
	}
	return out
}

func newClient(t *testing.T, d *dem, dryRun bool) (*client.DemClient, *bytes.Buffer) {
	t.Helper()
	server := httptest.NewServer(d)
	t.Cleanup(server.Close)

	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(server.URL, "http://"))
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(portStr)

	var out bytes.Buffer
	logger := utils.NewLoggerTo(&out, &out, dryRun)
	return client.NewClientWithLogger(session.New(host, port, "admin", "secret"), logger), &out
}

func expectWrites(t *testing.T, got, expected []string) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("writes = %q, expected %q", got, expected)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("write %d = %q, expected %q", i, got[i], expected[i])
		}
	}
}

func TestReconcileHostsCreates(t *testing.T) {
	d := &dem{objects: map[string]string{}}
	c, _ := newClient(t, d, false)

	hosts := []*models.Host{{
		Alias:   "h1",
		HostNQN: "nqn.2014-08.org.nvmexpress:h1",
		Interfaces: []models.Transport{
			{TrType: "rdma", AdrFam: "ipv4", TrAddr: "10.0.0.5"},
		},
	}}
	if err := NewHostReconciler(c).ReconcileHosts(context.Background(), hosts); err != nil {
		t.Fatalf("ReconcileHosts() error = %v", err)
	}

	expectWrites(t, d.paths(), []string{"PUT host", "PUT host/h1/interface"})
	if d.writes[0].Body["HOSTNQN"] != "nqn.2014-08.org.nvmexpress:h1" {
		t.Errorf("host body = %v", d.writes[0].Body)
	}
	if _, ok := d.writes[1].Body["TRSVCID"]; ok {
		t.Errorf("interface body should omit TRSVCID: %v", d.writes[1].Body)
	}
}

func TestReconcileHostsUpdatesInterface(t *testing.T) {
	d := &dem{objects: map[string]string{
		"host/h1": `{"Alias":"h1","HOSTNQN":"nqn.2014-08.org.nvmexpress:h1","Interfaces":[
			{"TRTYPE":"tcp","ADRFAM":"ipv4","TRADDR":"10.0.0.9","TRSVCID":4420},
			{"TRTYPE":"rdma","ADRFAM":"ipv4","TRADDR":"10.0.0.5","TRSVCID":4420}]}`,
	}}
	c, _ := newClient(t, d, false)

	hosts := []*models.Host{{
		Alias:   "h1",
		HostNQN: "nqn.2014-08.org.nvmexpress:h1",
		Interfaces: []models.Transport{
			{TrType: "tcp", AdrFam: "ipv4", TrAddr: "10.0.0.9", TrSvcID: "4420"},
			{TrType: "rdma", AdrFam: "ipv4", TrAddr: "10.0.0.5", TrSvcID: "4421"},
		},
	}}
	if err := NewHostReconciler(c).ReconcileHosts(context.Background(), hosts); err != nil {
		t.Fatalf("ReconcileHosts() error = %v", err)
	}

	// The unchanged host and first interface produce no writes
	expectWrites(t, d.paths(), []string{"PUT host/h1/interface/1"})
	if svc := d.writes[0].Body["TRSVCID"]; svc != float64(4421) {
		t.Errorf("TRSVCID = %v, expected 4421", svc)
	}
}

func TestReconcileTargets(t *testing.T) {
	d := &dem{objects: map[string]string{
		"target/t1": `{
			"Alias": "t1", "MgmtMode": "LocalMgmt",
			"PortIDs": [{"PORTID":1,"TRTYPE":"rdma","ADRFAM":"ipv4","TRADDR":"10.0.0.1","TRSVCID":4420}],
			"Subsystems": [{
				"SUBNQN": "` + nqn1 + `", "AllowAnyHost": 0,
				"NSIDs": [{"NSID":1,"DeviceID":0,"DeviceNSID":1}],
				"Hosts": ["h1"]
			}]
		}`,
	}}
	c, _ := newClient(t, d, false)

	targets := []*models.Target{{
		Alias:    "t1",
		MgmtMode: "LocalMgmt",
		PortIDs: []models.PortID{
			{PortID: 1, TrType: "rdma", AdrFam: "ipv4", TrAddr: "10.0.0.1", TrSvcID: "4421"},
			{PortID: 2, TrType: "tcp", AdrFam: "ipv4", TrAddr: "10.0.0.2", TrSvcID: "4420"},
		},
		Subsystems: []models.Subsystem{
			{
				SubNQN: nqn1,
				Namespaces: []models.Namespace{
					{NSID: 1, DeviceID: 0, DeviceNSID: 1},
					{NSID: 2, DeviceID: 1, DeviceNSID: 1},
				},
				Hosts: []string{"h1", "h2"},
			},
			{
				SubNQN:       nqn2,
				AllowAnyHost: true,
				Namespaces:   []models.Namespace{{NSID: 1, DeviceID: -1}},
			},
		},
	}}
	if err := NewTargetReconciler(c).ReconcileTargets(context.Background(), targets); err != nil {
		t.Fatalf("ReconcileTargets() error = %v", err)
	}

	expectWrites(t, d.paths(), []string{
		"PUT target/t1/portid/1",
		"PUT target/t1/portid",
		"PUT target/t1/subsystem/" + nqn1 + "/nsid",
		"PUT target/t1/subsystem/" + nqn1 + "/host",
		"PUT target/t1/subsystem",
		"PUT target/t1/subsystem/" + nqn2 + "/nsid",
	})

	if alias := d.writes[3].Body["Alias"]; alias != "h2" {
		t.Errorf("allowed host = %v, expected h2", alias)
	}
	if allow := d.writes[4].Body["AllowAnyHost"]; allow != float64(1) {
		t.Errorf("AllowAnyHost = %v, expected 1", allow)
	}
	if _, ok := d.writes[5].Body["DeviceNSID"]; ok {
		t.Errorf("null device namespace should omit DeviceNSID: %v", d.writes[5].Body)
	}
}

func TestReconcileTargetCreatesOutOfBand(t *testing.T) {
	d := &dem{objects: map[string]string{}}
	c, _ := newClient(t, d, false)

	targets := []*models.Target{{
		Alias:     "t9",
		Refresh:   5,
		MgmtMode:  "OutOfBandMgmt",
		Interface: &models.Interface{Family: "ipv4", Address: "10.1.1.1", Port: 22345},
	}}
	if err := NewTargetReconciler(c).ReconcileTargets(context.Background(), targets); err != nil {
		t.Fatalf("ReconcileTargets() error = %v", err)
	}

	expectWrites(t, d.paths(), []string{"PUT target"})
	body := d.writes[0].Body
	iface, _ := body["Interface"].(map[string]interface{})
	if iface["ADDRESS"] != "10.1.1.1" || iface["PORT"] != float64(22345) {
		t.Errorf("Interface = %v", body["Interface"])
	}
	if body["Refresh"] != float64(5) {
		t.Errorf("Refresh = %v, expected 5", body["Refresh"])
	}
}

func TestReconcileGroups(t *testing.T) {
	d := &dem{objects: map[string]string{
		"group/lab": `{"Name":"lab","Targets":["t1","old"],"Hosts":[]}`,
	}}
	c, _ := newClient(t, d, false)

	groups := []*models.Group{{Name: "lab", Targets: []string{"t1", "t2"}, Hosts: []string{"h1"}}}
	if err := NewGroupReconciler(c).ReconcileGroups(context.Background(), groups); err != nil {
		t.Fatalf("ReconcileGroups() error = %v", err)
	}

	expectWrites(t, d.paths(), []string{
		"PUT group/lab/target",
		"DELETE group/lab/target/old",
		"PUT group/lab/host",
	})
}

func TestRunDryRun(t *testing.T) {
	d := &dem{objects: map[string]string{}}
	c, out := newClient(t, d, true)

	defs := &loader.Definitions{
		Hosts:   []*models.Host{{Alias: "h1", HostNQN: "nqn.2014-08.org.nvmexpress:h1"}},
		Targets: []*models.Target{{Alias: "t1"}},
		Groups:  []*models.Group{{Name: "lab", Hosts: []string{"h1"}}},
	}
	if err := Run(context.Background(), c, defs); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if writes := d.paths(); len(writes) != 0 {
		t.Errorf("dry run sent writes: %q", writes)
	}
	for _, want := range []string{"Phase 1: Hosts", "Phase 3: Groups", "DRY RUN COMPLETE"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}
}

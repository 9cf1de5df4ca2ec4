package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/session"
	"github.com/braunma/dem-console/pkg/uri"
	"github.com/braunma/dem-console/pkg/utils"
)

type call struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

// fakeDEM serves canned replies keyed by "METHOD path" and records calls
type fakeDEM struct {
	mu      sync.Mutex
	replies map[string]string
	status  map[string]int
	calls   []call
}

func (f *fakeDEM) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + strings.TrimPrefix(r.URL.RequestURI(), "/")

	c := call{Method: r.Method, Path: strings.TrimPrefix(r.URL.RequestURI(), "/")}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &c.Body)
	}

	f.mu.Lock()
	f.calls = append(f.calls, c)
	status, ok := f.status[key]
	reply := f.replies[key]
	f.mu.Unlock()

	if r.Header.Get("Authorization") != "Basic "+session.BasicToken("admin", "secret") {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if !ok {
		status = http.StatusOK
		if r.Method == http.MethodGet && reply == "" {
			status = StatusNotFound
			reply = "not found"
		}
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(reply))
}

func (f *fakeDEM) writes() []call {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []call
	for _, c := range f.calls {
		if c.Method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

func newTestClient(t *testing.T, dem *fakeDEM, dryRun bool) (*DemClient, *bytes.Buffer) {
	t.Helper()
	server := httptest.NewServer(dem)
	t.Cleanup(server.Close)

	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(server.URL, "http://"))
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(portStr)

	var out bytes.Buffer
	logger := utils.NewLoggerTo(&out, &out, dryRun)
	return NewClientWithLogger(session.New(host, port, "admin", "secret"), logger), &out
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	host, portStr, _ := net.SplitHostPort(strings.TrimPrefix(server.URL, "http://"))
	port, _ := strconv.Atoi(portStr)
	c := NewClient(session.New(host, port, "admin", "secret"), false)

	if _, err := c.Request(context.Background(), http.MethodGet, "dem", nil); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if got.Get("Authorization") != "Basic YWRtaW46c2VjcmV0" {
		t.Errorf("Authorization = %q", got.Get("Authorization"))
	}
	if got.Get("X-Request-Id") == "" {
		t.Error("X-Request-Id header missing")
	}
}

func TestRequestErrors(t *testing.T) {
	dem := &fakeDEM{
		replies: map[string]string{"GET target/t9": "Target t9 not found"},
		status:  map[string]int{"GET target/t9": StatusNotFound, "GET dem": http.StatusInternalServerError},
	}
	c, _ := newTestClient(t, dem, false)

	var dropped []error
	c.OnDrop(func(err error) { dropped = append(dropped, err) })

	_, err := c.Get(context.Background(), "target/t9")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Get() error = %v, expected *APIError", err)
	}
	if apiErr.Error() != "Error 402 : Target t9 not found" {
		t.Errorf("APIError = %q", apiErr.Error())
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound() = false for 402")
	}

	if _, err := c.Get(context.Background(), "dem"); IsNotFound(err) || err == nil {
		t.Errorf("Get(dem) error = %v, expected a plain API error", err)
	}
	if len(dropped) != 0 {
		t.Errorf("API errors dropped the session: %v", dropped)
	}

	c.session.Token = session.BasicToken("admin", "wrong")
	if _, err := c.Get(context.Background(), "dem"); !errors.Is(err, ErrForbidden) {
		t.Errorf("Get() error = %v, expected ErrForbidden", err)
	}
	if len(dropped) != 1 || !DropsSession(dropped[0]) {
		t.Errorf("dropped = %v, expected one forbidden drop", dropped)
	}
}

func TestRequestUnreachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	c := NewClientWithLogger(session.New("127.0.0.1", port, "admin", "secret"), utils.NewLoggerTo(io.Discard, io.Discard, false))
	dropped := false
	c.OnDrop(func(error) { dropped = true })

	_, err = c.Get(context.Background(), "dem")
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("Get() error = %v, expected ErrUnreachable", err)
	}
	if !dropped {
		t.Error("unreachable DEM did not drop the session")
	}
}

func TestRequestCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		w.Write([]byte(`{"Targets": []}`))
	}))
	defer server.Close()

	addr := server.Listener.Addr().(*net.TCPAddr)
	c := NewClientWithLogger(session.New(addr.IP.String(), addr.Port, "admin", "secret"), utils.NewLoggerTo(io.Discard, io.Discard, false))
	dropped := false
	c.OnDrop(func(error) { dropped = true })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "target")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Get() error = %v, expected context.DeadlineExceeded", err)
	}
	if errors.Is(err, ErrUnreachable) || DropsSession(err) {
		t.Errorf("Get() error = %v, should not end the session", err)
	}
	if dropped {
		t.Error("canceled request dropped the session")
	}
}

func TestShowAndList(t *testing.T) {
	dem := &fakeDEM{replies: map[string]string{
		"GET target?fabric=rdma": `{"Targets": ["t2", "t1"]}`,
		"GET host":               `{"Hosts": ["h1"]}`,
		"GET target/t1/logpage":  "Discovery Log Page\nentry 0",
		"GET target/t1":          `{"Alias": "t1", "Refresh": 0}`,
		"GET target":             `{"Targets": ["t2", "t1"]}`,
	}}
	c, _ := newTestClient(t, dem, false)
	ctx := context.Background()

	loc, _ := uri.ParseLocation("#target?fabric=rdma")
	f, err := c.Show(ctx, loc)
	if err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if len(f.Blocks) != 1 || len(f.Blocks[0].Entries) != 2 {
		t.Errorf("Show() blocks = %+v", f.Blocks)
	}

	page, err := c.LogPage(ctx, constants.TypeTarget, "t1")
	if err != nil {
		t.Fatalf("LogPage() error = %v", err)
	}
	if page.Raw != "Discovery Log Page\nentry 0" {
		t.Errorf("LogPage() raw = %q", page.Raw)
	}

	names, err := c.Cache().Options(ctx, constants.TypeTarget)
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if strings.Join(names, ",") != "t1,t2" {
		t.Errorf("Options() = %v, expected sorted aliases", names)
	}
}

func TestDoAndDryRun(t *testing.T) {
	dem := &fakeDEM{}
	c, out := newTestClient(t, dem, true)
	ctx := context.Background()

	node := models.NewDetailNode(constants.TypeTarget, "t1").
		SubsystemChild("nqn.sub1", "/"+constants.SegNamespace, "5")
	req, err := uri.NewRequest(node, uri.ActionDelete)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Do(ctx, req); err != nil {
		t.Fatalf("Do() dry-run error = %v", err)
	}
	if len(dem.writes()) != 0 {
		t.Errorf("dry-run sent %d writes", len(dem.writes()))
	}
	if !strings.Contains(out.String(), "DELETE: target/t1/subsystem/nqn.sub1/nsid/5") {
		t.Errorf("dry-run output = %q", out.String())
	}

	c.SetDryRun(false)
	if _, err := c.Do(ctx, req); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if err := c.Refresh(ctx, "t1"); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if err := c.Signature(ctx, "b2xk", "bmV3"); err != nil {
		t.Fatalf("Signature() error = %v", err)
	}

	writes := dem.writes()
	expected := []string{
		"DELETE target/t1/subsystem/nqn.sub1/nsid/5",
		"POST target/t1/refresh",
		"POST dem/signature",
	}
	if len(writes) != len(expected) {
		t.Fatalf("writes = %+v", writes)
	}
	for i, w := range writes {
		if w.Method+" "+w.Path != expected[i] {
			t.Errorf("write %d = %s %s, expected %s", i, w.Method, w.Path, expected[i])
		}
	}
	if writes[2].Body["old"] != "b2xk" || writes[2].Body["new"] != "bmV3" {
		t.Errorf("signature body = %v", writes[2].Body)
	}
}

func TestApply(t *testing.T) {
	dem := &fakeDEM{replies: map[string]string{
		"GET target/t1": `{"Alias": "t1", "Refresh": 0, "MgmtMode": "LocalMgmt", "Subsystems": []}`,
	}}
	c, _ := newTestClient(t, dem, false)
	ctx := context.Background()

	unchanged := map[string]interface{}{"Alias": "t1", "Refresh": 0, "MgmtMode": "LocalMgmt"}
	if _, err := c.Apply(ctx, models.NewDetailNode(constants.TypeTarget, "t1"), unchanged); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(dem.writes()) != 0 {
		t.Fatalf("unchanged Apply() sent %+v", dem.writes())
	}

	changed := map[string]interface{}{"Alias": "t1", "Refresh": 5, "MgmtMode": "LocalMgmt"}
	if _, err := c.Apply(ctx, models.NewDetailNode(constants.TypeTarget, "t1"), changed); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	created := map[string]interface{}{"Alias": "t2", "MgmtMode": "LocalMgmt"}
	if _, err := c.Apply(ctx, models.NewDetailNode(constants.TypeTarget, "t2"), created); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	writes := dem.writes()
	if len(writes) != 2 {
		t.Fatalf("writes = %+v", writes)
	}
	if writes[0].Method+" "+writes[0].Path != "PUT target/t1" || writes[0].Body["Refresh"] != float64(5) {
		t.Errorf("update = %+v", writes[0])
	}
	if writes[1].Method+" "+writes[1].Path != "PUT target" || writes[1].Body["Alias"] != "t2" {
		t.Errorf("create = %+v", writes[1])
	}
}

func TestGroupManager(t *testing.T) {
	dem := &fakeDEM{replies: map[string]string{
		"GET group/g1": `{"Name": "g1", "Targets": ["t1", "t2"], "Hosts": []}`,
	}}
	c, _ := newTestClient(t, dem, false)
	ctx := context.Background()

	group, err := c.Groups().Ensure(ctx, "g1")
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if !c.Groups().IsMember(group, constants.TypeTarget, "t2") {
		t.Error("IsMember(t2) = false")
	}

	added, removed, err := c.Groups().Sync(ctx, group, constants.TypeTarget, []string{"t1", "t3"})
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if added != 1 || removed != 1 {
		t.Errorf("Sync() = +%d -%d, expected +1 -1", added, removed)
	}

	if _, err := c.Groups().Ensure(ctx, "g2"); err != nil {
		t.Fatalf("Ensure(g2) error = %v", err)
	}

	writes := dem.writes()
	expected := []string{"PUT group/g1/target", "DELETE group/g1/target/t2", "PUT group"}
	if len(writes) != len(expected) {
		t.Fatalf("writes = %+v", writes)
	}
	for i, w := range writes {
		if w.Method+" "+w.Path != expected[i] {
			t.Errorf("write %d = %s %s, expected %s", i, w.Method, w.Path, expected[i])
		}
	}
	if writes[0].Body["Alias"] != "t3" || writes[2].Body["Name"] != "g2" {
		t.Errorf("bodies = %v, %v", writes[0].Body, writes[2].Body)
	}
}

func TestPickListCache(t *testing.T) {
	dem := &fakeDEM{replies: map[string]string{
		"GET target": `{"Targets": ["t2", "t1"]}`,
		"GET host":   `{"Hosts": ["h1"]}`,
	}}
	c, _ := newTestClient(t, dem, false)
	ctx := context.Background()
	cache := c.Cache()

	if err := cache.LoadAll(ctx); err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if strings.Join(cache.Resources(), ",") != "host,target" {
		t.Errorf("Resources() = %v", cache.Resources())
	}
	if cache.Size(constants.TypeTarget) != 2 || !cache.Contains(constants.TypeTarget, "t1") {
		t.Errorf("target list = %d entries", cache.Size(constants.TypeTarget))
	}

	req, _ := uri.NewRequest(models.NewDetailNode(constants.TypeHost, "h1"), uri.ActionDelete)
	if _, err := c.Do(ctx, req); err != nil {
		t.Fatal(err)
	}
	if cache.Size(constants.TypeHost) != 0 || cache.Size(constants.TypeTarget) != 2 {
		t.Error("write did not invalidate only the host list")
	}

	cache.InvalidateAll()
	if len(cache.Resources()) != 0 {
		t.Errorf("Resources() after InvalidateAll() = %v", cache.Resources())
	}
}

func TestFormatValue(t *testing.T) {
	client := &DemClient{logger: utils.NewLogger(true)}

	tests := []struct {
		name     string
		value    interface{}
		expected string
	}{
		{name: "nil value", value: nil, expected: "<nil>"},
		{name: "string value", value: "t1", expected: "\"t1\""},
		{name: "integer value", value: 42, expected: "42"},
		{name: "decoded number", value: float64(4420), expected: "4420"},
		{name: "boolean", value: true, expected: "true"},
		{name: "empty slice", value: []interface{}{}, expected: "[]"},
		{name: "slice with items", value: []interface{}{"a", "b", "c"}, expected: "[...3 items]"},
		{name: "empty map", value: map[string]interface{}{}, expected: "{}"},
		{name: "interface map", value: map[string]interface{}{"FAMILY": "ipv4", "PORT": 22345}, expected: "{...2 fields}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := client.formatValue(tt.value)
			if result != tt.expected {
				t.Errorf("formatValue() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

func TestCalculateDiff(t *testing.T) {
	client := &DemClient{logger: utils.NewLogger(true)}

	tests := []struct {
		name     string
		existing Object
		desired  map[string]interface{}
		expected []string
	}{
		{
			name:     "no changes",
			existing: Object{"Alias": "t1", "Refresh": float64(5)},
			desired:  map[string]interface{}{"Alias": "t1", "Refresh": 5},
		},
		{
			name:     "field value change",
			existing: Object{"Alias": "t1", "MgmtMode": "LocalMgmt"},
			desired:  map[string]interface{}{"Alias": "t1", "MgmtMode": "InBandMgmt"},
			expected: []string{"MgmtMode"},
		},
		{
			name:     "new field added",
			existing: Object{"Alias": "t1"},
			desired:  map[string]interface{}{"Alias": "t1", "Refresh": 1},
			expected: []string{"Refresh"},
		},
		{
			name: "nested interface unchanged",
			existing: Object{"Interface": map[string]interface{}{
				"FAMILY": "ipv4", "ADDRESS": "10.0.0.1", "PORT": float64(22345),
			}},
			desired: map[string]interface{}{"Interface": map[string]interface{}{
				"FAMILY": "ipv4", "ADDRESS": "10.0.0.1", "PORT": 22345,
			}},
		},
		{
			name:     "nested interface changed",
			existing: Object{"Interface": map[string]interface{}{"FAMILY": "ipv4", "ADDRESS": "10.0.0.1"}},
			desired:  map[string]interface{}{"Interface": map[string]interface{}{"FAMILY": "ipv4", "ADDRESS": "10.0.0.2"}},
			expected: []string{"Interface"},
		},
		{
			name:     "nil value ignored",
			existing: Object{"Alias": "t1", "Refresh": float64(5)},
			desired:  map[string]interface{}{"Alias": "t1", "Refresh": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := client.calculateDiff(tt.existing, tt.desired)
			if len(result) != len(tt.expected) {
				t.Errorf("calculateDiff() returned %d changes, expected %d", len(result), len(tt.expected))
			}
			for _, key := range tt.expected {
				if _, exists := result[key]; !exists {
					t.Errorf("Expected key %q in diff, but it was missing", key)
				}
			}
		})
	}
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name     string
		a        interface{}
		b        interface{}
		expected bool
	}{
		{name: "equal strings", a: "t1", b: "t1", expected: true},
		{name: "unequal strings", a: "t1", b: "t2", expected: false},
		{name: "float to int", a: float64(42), b: 42, expected: true},
		{name: "int to float", a: 42, b: float64(42), expected: true},
		{name: "number against string", a: float64(4420), b: "4420", expected: false},
		{name: "equal bools", a: true, b: true, expected: true},
		{name: "equal lists", a: []interface{}{"h1", float64(2)}, b: []interface{}{"h1", 2}, expected: true},
		{name: "lists of different length", a: []interface{}{"h1"}, b: []interface{}{"h1", "h2"}, expected: false},
		{name: "map missing key", a: map[string]interface{}{"A": 1}, b: map[string]interface{}{"B": 1}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := valuesEqual(tt.a, tt.b)
			if result != tt.expected {
				t.Errorf("valuesEqual(%v, %v) = %v, expected %v", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestCapitalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "target", input: "target", expected: "Target"},
		{name: "already capitalized", input: "Host", expected: "Host"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Capitalize(tt.input)
			if result != tt.expected {
				t.Errorf("Capitalize(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSingular(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "PortIDs", expected: "portid"},
		{input: "Subsystems", expected: "subsystem"},
		{input: "Transports", expected: "transport"},
		{input: "Hosts", expected: "host"},
		{input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := Singular(tt.input)
			if result != tt.expected {
				t.Errorf("Singular(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLastSegment(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "storage member",
			input:    "/redfish/v1/Storage/Subsystem-1",
			expected: "Subsystem-1",
		},
		{
			name:     "endpoint",
			input:    "/redfish/v1/Fabrics/NVMe-oF/Endpoints/EP-3",
			expected: "EP-3",
		},
		{
			name:     "bare id",
			input:    "Vol-1",
			expected: "Vol-1",
		},
		{
			name:     "trailing slash",
			input:    "/redfish/v1/Systems/Sys-1/",
			expected: "Sys-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := LastSegment(tt.input)
			if result != tt.expected {
				t.Errorf("LastSegment(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIntValue(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected int
		ok       bool
	}{
		{name: "int", input: 5, expected: 5, ok: true},
		{name: "float64 from JSON", input: float64(3), expected: 3, ok: true},
		{name: "negative float", input: float64(-1), expected: -1, ok: true},
		{name: "json number", input: json.Number("42"), expected: 42, ok: true},
		{name: "numeric string", input: " 4420 ", expected: 4420, ok: true},
		{name: "non numeric string", input: "abc", expected: 0, ok: false},
		{name: "nil", input: nil, expected: 0, ok: false},
		{name: "bool", input: true, expected: 0, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := IntValue(tt.input)
			if result != tt.expected || ok != tt.ok {
				t.Errorf("IntValue(%v) = (%d, %v), expected (%d, %v)", tt.input, result, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestStringValue(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{name: "string", input: "rdma", expected: "rdma"},
		{name: "integral float", input: float64(4420), expected: "4420"},
		{name: "fraction", input: 1.5, expected: "1.5"},
		{name: "bool", input: false, expected: "false"},
		{name: "nil", input: nil, expected: ""},
		{name: "int", input: 7, expected: "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StringValue(tt.input)
			if result != tt.expected {
				t.Errorf("StringValue(%v) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected bool
	}{
		{name: "true", input: true, expected: true},
		{name: "false", input: false, expected: false},
		{name: "one", input: float64(1), expected: true},
		{name: "zero", input: float64(0), expected: false},
		{name: "string zero", input: "0", expected: false},
		{name: "string yes", input: "yes", expected: true},
		{name: "nil", input: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := Truthy(tt.input); result != tt.expected {
				t.Errorf("Truthy(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPlural(t *testing.T) {
	if got := Plural(1, "minute"); got != "1 minute" {
		t.Errorf("Plural(1) = %q, expected %q", got, "1 minute")
	}
	if got := Plural(5, "minute"); got != "5 minutes" {
		t.Errorf("Plural(5) = %q, expected %q", got, "5 minutes")
	}
}

func TestContains(t *testing.T) {
	slice := []string{"h1", "h2"}
	if !Contains(slice, "h2") {
		t.Error("Contains() should find h2")
	}
	if Contains(slice, "h3") {
		t.Error("Contains() should not find h3")
	}
	if !ContainsInt([]int{1, 3}, 3) {
		t.Error("ContainsInt() should find 3")
	}
}

func TestLoggerWriters(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var out, errOut bytes.Buffer
	logger := NewLoggerTo(&out, &errOut, true)

	logger.Info("Loaded %d targets", 2)
	logger.DryRun("PUT", "target/%s", "t1")
	logger.Error("Failed to apply", errors.New("boom"))

	if !strings.Contains(out.String(), "Loaded 2 targets") {
		t.Errorf("Info() output = %q", out.String())
	}
	if !strings.Contains(out.String(), "[DRY-RUN] PUT: target/t1") {
		t.Errorf("DryRun() output = %q", out.String())
	}
	if !strings.Contains(errOut.String(), "✗ Failed to apply: boom") {
		t.Errorf("Error() output = %q", errOut.String())
	}
	if !logger.IsDryRun() {
		t.Error("IsDryRun() should be true")
	}
}

package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Capitalize upper-cases the first letter of s
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Singular turns a collection key such as "PortIDs" into its lowercased
// resource segment ("portid")
func Singular(key string) string {
	if key == "" {
		return ""
	}
	return strings.ToLower(key[:len(key)-1])
}

// LastSegment returns the identifier at the end of a Redfish @odata.id
func LastSegment(odataID string) string {
	parts := strings.Split(strings.TrimRight(odataID, "/"), "/")
	return parts[len(parts)-1]
}

// IntValue extracts an integer from the loosely typed values found in DEM
// JSON trees
func IntValue(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// StringValue formats a JSON scalar the way the console displays it
func StringValue(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// Truthy mirrors the DEM's loose boolean flags (true, non-zero, non-empty)
func Truthy(v interface{}) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		return b != "" && b != "0" && b != "false"
	}
	if n, ok := IntValue(v); ok {
		return n != 0
	}
	return true
}

// Plural appends an "s" to unit unless n is one
func Plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// Contains checks if a string slice contains a specific string
func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// ContainsInt checks if an int slice contains a specific int
func ContainsInt(slice []int, item int) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

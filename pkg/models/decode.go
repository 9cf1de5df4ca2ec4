package models

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Decode converts a raw JSON object tree into one of the typed resources.
// Numbers and flags are decoded loosely since the DEM mixes 1/0, true/false
// and quoted service ids.
func Decode(raw interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode %T: %w", out, err)
	}
	return nil
}

// DecodeTarget decodes a target detail response
func DecodeTarget(raw map[string]interface{}) (*Target, error) {
	var t Target
	if err := Decode(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DecodeHost decodes a host detail response
func DecodeHost(raw map[string]interface{}) (*Host, error) {
	var h Host
	if err := Decode(raw, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// DecodeGroup decodes a group detail response
func DecodeGroup(raw map[string]interface{}) (*Group, error) {
	var g Group
	if err := Decode(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

package loader

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/validation"
)

// Validate runs the form checks over every definition. All failures are
// returned together, each prefixed with the object it belongs to.
func Validate(defs *Definitions) error {
	var errs []error

	seen := map[string]bool{}
	for _, t := range defs.Targets {
		errs = append(errs, duplicate(seen, constants.TypeTarget, t.Alias)...)
		errs = append(errs, validateTarget(t)...)
	}
	for _, h := range defs.Hosts {
		errs = append(errs, duplicate(seen, constants.TypeHost, h.Alias)...)
		errs = append(errs, validateHost(h)...)
	}
	for _, g := range defs.Groups {
		errs = append(errs, duplicate(seen, constants.TypeGroup, g.Name)...)
		errs = append(errs, validateGroup(g)...)
	}

	return errors.Join(errs...)
}

// CrossCheck reports group members and allowed hosts that no definition
// provides. They may still exist on the DEM, so these are only warnings.
func CrossCheck(defs *Definitions) []string {
	targets := map[string]bool{}
	hosts := map[string]bool{}
	for _, t := range defs.Targets {
		targets[t.Alias] = true
	}
	for _, h := range defs.Hosts {
		hosts[h.Alias] = true
	}

	var warnings []string
	for _, t := range defs.Targets {
		for _, ss := range t.Subsystems {
			for _, alias := range ss.Hosts {
				if !hosts[alias] {
					warnings = append(warnings, fmt.Sprintf("target %s subsystem %s: host %s is not defined", t.Alias, ss.SubNQN, alias))
				}
			}
		}
	}
	for _, g := range defs.Groups {
		for _, alias := range g.Targets {
			if !targets[alias] {
				warnings = append(warnings, fmt.Sprintf("group %s: target %s is not defined", g.Name, alias))
			}
		}
		for _, alias := range g.Hosts {
			if !hosts[alias] {
				warnings = append(warnings, fmt.Sprintf("group %s: host %s is not defined", g.Name, alias))
			}
		}
	}
	return warnings
}

func duplicate(seen map[string]bool, objectType, name string) []error {
	key := objectType + "/" + name
	if seen[key] {
		return []error{fmt.Errorf("%s %s: defined more than once", objectType, name)}
	}
	seen[key] = true
	return nil
}

func check(where string, fields map[string]string) []error {
	result := validation.Validate(fields)
	errs := make([]error, 0, len(result.Messages))
	for _, m := range result.Messages {
		errs = append(errs, fmt.Errorf("%s: %s", where, m.Text))
	}
	return errs
}

func validateTarget(t *models.Target) []error {
	where := "target " + t.Alias
	fields := map[string]string{
		validation.FieldAlias: t.Alias,
		validation.FieldMode:  t.Mode(),
	}
	if t.Refresh != 0 {
		fields[validation.FieldRefresh] = strconv.Itoa(t.Refresh)
	}

	iface := t.Interface
	if iface == nil {
		iface = &models.Interface{}
	}
	switch t.Mode() {
	case constants.ModeOutOfBand:
		if iface.Family != "" {
			fields[validation.FieldFamily] = iface.Family
			fields[validation.FieldAddress] = iface.Address
			fields[validation.FieldService] = portString(iface.Port)
		}
	case constants.ModeInBand:
		fields[validation.FieldType] = iface.TrType
		fields[validation.FieldFamily] = iface.AdrFam
		fields[validation.FieldAddress] = iface.TrAddr
		fields[validation.FieldService] = iface.TrSvcID
	}
	errs := check(where, fields)

	for _, p := range t.PortIDs {
		errs = append(errs, check(fmt.Sprintf("%s port %d", where, p.PortID), map[string]string{
			validation.FieldPortID:  strconv.Itoa(p.PortID),
			validation.FieldType:    p.TrType,
			validation.FieldFamily:  p.AdrFam,
			validation.FieldAddress: p.TrAddr,
			validation.FieldService: p.TrSvcID,
		})...)
	}

	for _, ss := range t.Subsystems {
		sub := fmt.Sprintf("%s subsystem %s", where, ss.SubNQN)
		errs = append(errs, check(sub, map[string]string{validation.FieldSubNQN: ss.SubNQN})...)
		if ss.AllowAnyHost && len(ss.Hosts) > 0 {
			errs = append(errs, fmt.Errorf("%s: allow_any_host and hosts are mutually exclusive", sub))
		}
		for _, ns := range ss.Namespaces {
			fields := map[string]string{
				validation.FieldNSID:  strconv.Itoa(ns.NSID),
				validation.FieldDevID: strconv.Itoa(ns.DeviceID),
			}
			if !ns.IsNullDevice() {
				fields[validation.FieldDevNSID] = strconv.Itoa(ns.DeviceNSID)
			}
			errs = append(errs, check(fmt.Sprintf("%s nsid %d", sub, ns.NSID), fields)...)
		}
		for _, alias := range ss.Hosts {
			errs = append(errs, check(sub, map[string]string{validation.FieldAlias: alias})...)
		}
	}
	return errs
}

func validateHost(h *models.Host) []error {
	where := "host " + h.Alias
	errs := check(where, map[string]string{
		validation.FieldAlias:   h.Alias,
		validation.FieldHostNQN: h.HostNQN,
	})

	for i, tr := range h.Interfaces {
		fields := map[string]string{
			validation.FieldType:    tr.TrType,
			validation.FieldFamily:  tr.AdrFam,
			validation.FieldAddress: tr.TrAddr,
		}
		if tr.TrSvcID != "" {
			fields[validation.FieldService] = tr.TrSvcID
		}
		errs = append(errs, check(fmt.Sprintf("%s interface %d", where, i), fields)...)
	}
	return errs
}

func validateGroup(g *models.Group) []error {
	where := "group " + g.Name
	errs := check(where, map[string]string{validation.FieldGroup: g.Name})
	for _, alias := range append(append([]string(nil), g.Targets...), g.Hosts...) {
		errs = append(errs, check(where, map[string]string{validation.FieldAlias: alias})...)
	}
	return errs
}

func portString(port int) string {
	if port == 0 {
		return ""
	}
	return strconv.Itoa(port)
}

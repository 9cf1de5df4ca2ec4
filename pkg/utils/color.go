package utils

import (
	"github.com/fatih/color"
)

// Role names a piece of rendered console output
type Role int

const (
	RoleHeading Role = iota
	RoleLabel
	RoleValue
	RoleAction
	RoleMuted
	RoleError
)

var palette = map[Role]*color.Color{
	RoleHeading: color.New(color.FgCyan, color.Bold),
	RoleLabel:   color.New(color.FgWhite, color.Bold),
	RoleValue:   color.New(color.Reset),
	RoleAction:  color.New(color.FgMagenta),
	RoleMuted:   color.New(color.Faint),
	RoleError:   color.New(color.FgRed),
}

// Paint colors s for the given role
func Paint(role Role, s string) string {
	c, ok := palette[role]
	if !ok {
		return s
	}
	return c.Sprint(s)
}

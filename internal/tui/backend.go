package tui

import (
	"context"

	"github.com/braunma/dem-console/pkg/render"
	"github.com/braunma/dem-console/pkg/uri"
)

// Backend is what the browser needs from a DEM connection. *client.DemClient
// satisfies it.
type Backend interface {
	Show(ctx context.Context, loc uri.Location) (render.Fragment, error)
	Do(ctx context.Context, req uri.Request) ([]byte, error)
	Options(ctx context.Context, objectType string) ([]string, error)
}

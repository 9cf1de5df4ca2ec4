package redfish

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/braunma/dem-console/pkg/utils"
)

// SubsystemDetails assembles the dashboard view of one subsystem. The name,
// the volume chains and the controllers are read concurrently; connections
// wait for the controllers since they are matched against their endpoints.
func (c *Client) SubsystemDetails(ctx context.Context, id string) (*SubsystemDetails, error) {
	base := StoragePath + "/" + id
	details := &SubsystemDetails{ID: id}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var storage struct {
			Name string `json:"Name"`
		}
		if err := c.get(gctx, base, &storage); err != nil {
			return err
		}
		details.Name = storage.Name
		return nil
	})

	g.Go(func() error {
		volumes, err := c.volumeNamespaces(gctx, base)
		if err != nil {
			return err
		}
		details.Volumes = volumes
		return nil
	})

	g.Go(func() error {
		controllers, err := c.controllers(gctx, base)
		if err != nil {
			return err
		}
		details.Controllers = controllers

		connections, err := c.connections(gctx, details.Endpoints())
		if err != nil {
			return err
		}
		details.Connections = connections
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read subsystem %s: %w", id, err)
	}

	c.log.WithField("subsystem", id).WithField("volumes", len(details.Volumes)).
		WithField("controllers", len(details.Controllers)).
		WithField("connections", len(details.Connections)).
		Debug("subsystem details assembled")
	return details, nil
}

// fanOut runs fn for every index in [0, n) with at most c.limit running
func (c *Client) fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

// volumeNamespaces follows each volume to the namespaces backing it:
// volume, capacity source, providing pool, pool capacity source, providing
// volume. Volumes are followed in parallel, each chain in order.
func (c *Client) volumeNamespaces(ctx context.Context, base string) ([]VolumeNamespace, error) {
	volumes, err := c.collection(ctx, base+"/Volumes")
	if err != nil {
		return nil, err
	}

	perVolume := make([][]VolumeNamespace, len(volumes))
	err = c.fanOut(ctx, len(volumes), func(ctx context.Context, i int) error {
		found, err := c.volumeChain(ctx, base, volumes[i])
		perVolume[i] = found
		return err
	})
	if err != nil {
		return nil, err
	}

	var out []VolumeNamespace
	for _, found := range perVolume {
		out = append(out, found...)
	}
	return out, nil
}

func (c *Client) volumeChain(ctx context.Context, base, volume string) ([]VolumeNamespace, error) {
	var out []VolumeNamespace

	sourcesPath := base + "/Volumes/" + volume + "/CapacitySources"
	sources, err := c.collection(ctx, sourcesPath)
	if err != nil {
		return nil, err
	}
	for _, source := range sources {
		pools, err := c.collection(ctx, sourcesPath+"/"+source+"/ProvidingPools")
		if err != nil {
			return nil, err
		}
		for _, pool := range pools {
			poolSourcesPath := base + "/StoragePools/" + pool + "/CapacitySources"
			poolSources, err := c.collection(ctx, poolSourcesPath)
			if err != nil {
				return nil, err
			}
			for _, poolSource := range poolSources {
				namespaces, err := c.collection(ctx, poolSourcesPath+"/"+poolSource+"/ProvidingVolumes")
				if err != nil {
					return nil, err
				}
				for _, ns := range namespaces {
					out = append(out, VolumeNamespace{Volume: volume, Namespace: ns})
				}
			}
		}
	}
	return out, nil
}

func (c *Client) controllers(ctx context.Context, base string) ([]Controller, error) {
	names, err := c.collection(ctx, base+"/Controllers")
	if err != nil {
		return nil, err
	}

	out := make([]Controller, len(names))
	err = c.fanOut(ctx, len(names), func(ctx context.Context, i int) error {
		ctrl, err := c.controller(ctx, base, names[i])
		if err != nil {
			return err
		}
		out[i] = *ctrl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) controller(ctx context.Context, base, name string) (*Controller, error) {
	var raw controller
	if err := c.get(ctx, base+"/Controllers/"+name, &raw); err != nil {
		return nil, err
	}

	ctrl := &Controller{Name: name}
	for _, v := range raw.Links.AttachedVolumes {
		ctrl.Volumes = append(ctrl.Volumes, v.ID())
	}
	for _, link := range raw.Links.Endpoints {
		var ep endpoint
		if err := c.get(ctx, EndpointsPath+"/"+link.ID(), &ep); err != nil {
			return nil, err
		}
		found := Endpoint{Name: link.ID()}
		for _, tr := range ep.IPTransportDetails {
			found.Transports = append(found.Transports, Transport{
				Protocol:    tr.TransportProtocol,
				IPv4Address: tr.IPv4Address.Address,
				Port:        tr.Port,
			})
		}
		ctrl.Endpoints = append(ctrl.Endpoints, found)
	}
	return ctrl, nil
}

// connections reads every fabric connection and keeps, per target endpoint,
// the ones reaching one of endpoints
func (c *Client) connections(ctx context.Context, endpoints []string) ([]Connection, error) {
	names, err := c.collection(ctx, ConnectionsPath)
	if err != nil {
		return nil, err
	}

	perConnection := make([][]Connection, len(names))
	err = c.fanOut(ctx, len(names), func(ctx context.Context, i int) error {
		var raw connection
		if err := c.get(ctx, ConnectionsPath+"/"+names[i], &raw); err != nil {
			return err
		}
		perConnection[i] = matchConnection(names[i], raw, endpoints)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []Connection
	for _, found := range perConnection {
		out = append(out, found...)
	}
	return out, nil
}

func matchConnection(name string, raw connection, endpoints []string) []Connection {
	initiators := make([]string, 0, len(raw.Links.InitiatorEndpoints))
	for _, ep := range raw.Links.InitiatorEndpoints {
		initiators = append(initiators, ep.ID())
	}
	if len(initiators) == 0 {
		initiators = []string{AnyInitiator}
	}

	var volumes []string
	var access [][]string
	for _, vi := range raw.VolumeInfo {
		volumes = append(volumes, vi.Volume.ID())
		access = append(access, vi.AccessCapabilities)
	}

	var out []Connection
	for _, target := range raw.Links.TargetEndpoints {
		if !utils.Contains(endpoints, target.ID()) {
			continue
		}
		out = append(out, Connection{
			Name:           name,
			TargetEndpoint: target.ID(),
			Initiators:     initiators,
			Volumes:        volumes,
			Access:         access,
		})
	}
	return out
}

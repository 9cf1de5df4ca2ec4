package client

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/braunma/dem-console/internal/constants"
)

// PickListCache keeps the alias lists shown by member and allowed-host
// dialogs. Writes through the client invalidate the written type.
type PickListCache struct {
	client *DemClient
	cache  map[string][]string
	mu     sync.RWMutex
}

// NewPickListCache creates a new pick-list cache
func NewPickListCache(client *DemClient) *PickListCache {
	return &PickListCache{
		client: client,
		cache:  make(map[string][]string),
	}
}

// LoadAll loads the target and host lists in parallel
func (pc *PickListCache) LoadAll(ctx context.Context) error {
	pc.client.logger.Debug("Loading pick-lists...")

	g, ctx := errgroup.WithContext(ctx)
	for _, objectType := range []string{constants.TypeTarget, constants.TypeHost} {
		objectType := objectType
		g.Go(func() error {
			if _, err := pc.load(ctx, objectType); err != nil {
				return fmt.Errorf("failed to load %s list: %w", objectType, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Options returns the sorted aliases of an object type, fetching them when
// they are not cached
func (pc *PickListCache) Options(ctx context.Context, objectType string) ([]string, error) {
	pc.mu.RLock()
	names, ok := pc.cache[objectType]
	pc.mu.RUnlock()
	if ok {
		return append([]string(nil), names...), nil
	}
	return pc.load(ctx, objectType)
}

func (pc *PickListCache) load(ctx context.Context, objectType string) ([]string, error) {
	names, err := pc.client.List(ctx, objectType)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	pc.mu.Lock()
	pc.cache[objectType] = names
	pc.mu.Unlock()

	return append([]string(nil), names...), nil
}

// Contains reports whether alias is a cached option of objectType
func (pc *PickListCache) Contains(objectType, alias string) bool {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	names := pc.cache[objectType]
	i := sort.SearchStrings(names, alias)
	return i < len(names) && names[i] == alias
}

// Invalidate clears the list of one object type
func (pc *PickListCache) Invalidate(objectType string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	delete(pc.cache, objectType)
}

// InvalidateAll clears all lists
func (pc *PickListCache) InvalidateAll() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.cache = make(map[string][]string)
}

// Resources returns the cached object types
func (pc *PickListCache) Resources() []string {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	resources := make([]string, 0, len(pc.cache))
	for resource := range pc.cache {
		resources = append(resources, resource)
	}
	sort.Strings(resources)
	return resources
}

// Size returns the number of cached aliases of an object type
func (pc *PickListCache) Size(objectType string) int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	return len(pc.cache[objectType])
}

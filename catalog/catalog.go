// Package catalog maintains the server-advertised tool set. Each refresh
// produces an immutable snapshot that is swapped in atomically; concurrent
// readers never observe a half-updated catalog.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/mcp-protocol/schema"

	"github.com/viant/mcpadapter/fault"
)

// Lister abstracts the tools/list protocol operation.
type Lister interface {
	ListTools(ctx context.Context, cursor *string) (*schema.ListToolsResult, error)
}

// Snapshot is an immutable view of the catalog at one refresh.
type Snapshot struct {
	id        string
	tools     []schema.Tool
	byName    map[string]*schema.Tool
	fetchedAt time.Time
}

// NewSnapshot builds a snapshot from a tool list, preserving order.
func NewSnapshot(tools []schema.Tool) *Snapshot {
	byName := make(map[string]*schema.Tool, len(tools))
	for i := range tools {
		byName[tools[i].Name] = &tools[i]
	}
	return &Snapshot{
		id:        uuid.New().String(),
		tools:     tools,
		byName:    byName,
		fetchedAt: time.Now(),
	}
}

// ID identifies this snapshot; two snapshots with equal content still have
// distinct identities.
func (s *Snapshot) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Tools returns the advertised tools in server order. Callers must not mutate
// the returned slice.
func (s *Snapshot) Tools() []schema.Tool {
	if s == nil {
		return nil
	}
	return s.tools
}

// Lookup returns the descriptor for a tool name.
func (s *Snapshot) Lookup(name string) (*schema.Tool, bool) {
	if s == nil {
		return nil, false
	}
	tool, ok := s.byName[name]
	return tool, ok
}

// Len returns the number of advertised tools.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tools)
}

// FetchedAt returns the snapshot creation time.
func (s *Snapshot) FetchedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.fetchedAt
}

// Catalog holds the current snapshot. The zero value is empty but usable.
type Catalog struct {
	mux     sync.RWMutex
	current *Snapshot
	// refresh generations keep concurrent refreshes monotonic: a slow refresh
	// that started earlier never overwrites the result of a later one
	nextGen      uint64
	installedGen uint64
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{}
}

// Snapshot returns the current snapshot, or nil before the first successful refresh.
func (c *Catalog) Snapshot() *Snapshot {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return c.current
}

// Refresh pages through the server tool list and atomically replaces the
// snapshot. On failure the previous snapshot remains in use and a
// fault.CatalogFetch error is returned. When refreshes overlap, the one that
// started last wins; an earlier refresh finishing late leaves the newer
// snapshot in place.
func (c *Catalog) Refresh(ctx context.Context, lister Lister) (*Snapshot, error) {
	c.mux.Lock()
	c.nextGen++
	generation := c.nextGen
	c.mux.Unlock()

	var tools []schema.Tool
	var cursor *string
	for {
		result, err := lister.ListTools(ctx, cursor)
		if err != nil {
			return c.Snapshot(), fault.Wrap(fault.CatalogFetch, "failed to list tools", err)
		}
		tools = append(tools, result.Tools...)
		if result.NextCursor == nil || *result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}
	snapshot := NewSnapshot(tools)
	c.mux.Lock()
	defer c.mux.Unlock()
	if generation < c.installedGen {
		return c.current, nil
	}
	c.current = snapshot
	c.installedGen = generation
	return snapshot, nil
}

// Invalidate drops the current snapshot. Used on session teardown.
func (c *Catalog) Invalidate() {
	c.mux.Lock()
	c.current = nil
	c.mux.Unlock()
}

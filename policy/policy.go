// Package policy implements the tool visibility filter applied to a catalog
// snapshot. A policy is a pure function of the snapshot; the exposed set is
// recomputed on every access rather than cached.
package policy

import (
	"github.com/viant/mcp-protocol/schema"

	"github.com/viant/mcpadapter/catalog"
)

// Mode selects the filtering strategy.
type Mode string

const (
	// ModeAllowAll exposes every catalog tool.
	ModeAllowAll Mode = "allowAll"
	// ModeAllowList exposes only the named tools.
	ModeAllowList Mode = "allowList"
	// ModeDenyList exposes every catalog tool except the named ones.
	ModeDenyList Mode = "denyList"
)

// Policy decides which catalog tools the agent may see and call.
type Policy struct {
	mode  Mode
	names map[string]bool
}

// AllowAll returns a policy exposing the full catalog.
func AllowAll() *Policy {
	return &Policy{mode: ModeAllowAll}
}

// Allow returns an allow-list policy. An empty list is valid and exposes no tools.
func Allow(names ...string) *Policy {
	return &Policy{mode: ModeAllowList, names: toSet(names)}
}

// Deny returns a deny-list policy. Names absent from the catalog are ignored.
func Deny(names ...string) *Policy {
	return &Policy{mode: ModeDenyList, names: toSet(names)}
}

// New builds a policy from a declarative mode and name list.
func New(mode Mode, names []string) *Policy {
	switch mode {
	case ModeAllowList:
		return Allow(names...)
	case ModeDenyList:
		return Deny(names...)
	default:
		return AllowAll()
	}
}

// Mode returns the policy mode.
func (p *Policy) Mode() Mode {
	if p == nil {
		return ModeAllowAll
	}
	return p.mode
}

// Apply derives the exposed tool set from a catalog snapshot, preserving the
// server-advertised order. The result is always a subset of the snapshot: a
// name on an allow-list that is absent from the live catalog is not exposed.
func (p *Policy) Apply(snapshot *catalog.Snapshot) []schema.Tool {
	if snapshot == nil {
		return nil
	}
	tools := snapshot.Tools()
	if p == nil || p.mode == ModeAllowAll {
		return tools
	}
	ret := make([]schema.Tool, 0, len(tools))
	for _, tool := range tools {
		switch p.mode {
		case ModeAllowList:
			if p.names[tool.Name] {
				ret = append(ret, tool)
			}
		case ModeDenyList:
			if !p.names[tool.Name] {
				ret = append(ret, tool)
			}
		}
	}
	return ret
}

// Exposes reports whether the named tool is in the exposed set for the snapshot.
func (p *Policy) Exposes(snapshot *catalog.Snapshot, name string) bool {
	if snapshot == nil {
		return false
	}
	if _, ok := snapshot.Lookup(name); !ok {
		return false
	}
	if p == nil {
		return true
	}
	switch p.mode {
	case ModeAllowList:
		return p.names[name]
	case ModeDenyList:
		return !p.names[name]
	}
	return true
}

func toSet(names []string) map[string]bool {
	ret := make(map[string]bool, len(names))
	for _, name := range names {
		ret[name] = true
	}
	return ret
}

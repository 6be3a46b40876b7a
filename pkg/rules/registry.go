package rules

import (
	"sort"
	"sync"

	"github.com/KshitijBharambe/hygiene/pkg/core"
)

// globalRegistry is the single global registry for validator kinds.
var globalRegistry = &registry{
	kinds: make(map[core.RuleKind]KindDef),
}

type registry struct {
	mu    sync.RWMutex
	kinds map[core.RuleKind]KindDef
}

// Register adds a validator kind to the global registry.
// Call this from init() functions in validator packages.
func Register(def KindDef) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.kinds[def.Kind] = def
}

// Lookup returns the definition for a kind.
func Lookup(kind core.RuleKind) (KindDef, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	def, ok := globalRegistry.kinds[kind]
	return def, ok
}

// AllKinds returns every registered kind definition, sorted by kind name.
func AllKinds() []KindDef {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	defs := make([]KindDef, 0, len(globalRegistry.kinds))
	for _, def := range globalRegistry.kinds {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Kind < defs[j].Kind })
	return defs
}

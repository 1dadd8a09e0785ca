package resource

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps template resource type names to plugins. Providers register
// their plugins at engine construction time.
type Registry struct {
	mutex   sync.RWMutex
	plugins map[string]Plugin
}

func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

func (r *Registry) Register(typeName string, plugin Plugin) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.plugins[typeName]; exists {
		return fmt.Errorf("resource type '%s' is already registered", typeName)
	}
	r.plugins[typeName] = plugin
	return nil
}

func (r *Registry) Get(typeName string) (Plugin, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	plugin, ok := r.plugins[typeName]
	return plugin, ok
}

// Types returns all registered type names, sorted.
func (r *Registry) Types() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	types := make([]string, 0, len(r.plugins))
	for typeName := range r.plugins {
		types = append(types, typeName)
	}
	sort.Strings(types)
	return types
}

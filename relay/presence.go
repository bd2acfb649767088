package relay

import (
	"sort"
	"sync"
)

// Presence maps connection ids to the display name they joined with
type Presence struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewPresence creates an empty registry
func NewPresence() *Presence {
	return &Presence{names: make(map[string]string)}
}

// Set registers or renames a connection
func (p *Presence) Set(connID, name string) {
	p.mu.Lock()
	p.names[connID] = name
	p.mu.Unlock()
}

// Remove unregisters a connection and returns the name it had, if any
func (p *Presence) Remove(connID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	name, ok := p.names[connID]
	if ok {
		delete(p.names, connID)
	}
	return name, ok
}

// Lookup returns the name registered for a connection
func (p *Presence) Lookup(connID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	name, ok := p.names[connID]
	return name, ok
}

// DistinctNames returns every registered name once, sorted. The result is never nil.
func (p *Presence) DistinctNames() []string {
	p.mu.RLock()
	seen := make(map[string]struct{}, len(p.names))
	for _, name := range p.names {
		seen[name] = struct{}{}
	}
	p.mu.RUnlock()

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

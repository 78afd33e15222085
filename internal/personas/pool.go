package personas

import (
	"math/rand"
	"sync"
)

// Pool holds candidate persona names per guild, collected from guild
// membership. The engine session draws a pseudo-random name per exchange.
type Pool struct {
	mu    sync.RWMutex
	names map[string][]string
}

func NewPool() *Pool {
	return &Pool{names: make(map[string][]string)}
}

// Set replaces the whole name list for a guild (guild-create snapshot).
func (p *Pool) Set(guildID string, names []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names[guildID] = append([]string(nil), names...)
}

// Add appends one name to a guild's pool (member-add).
func (p *Pool) Add(guildID, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names[guildID] = append(p.names[guildID], name)
}

// Remove drops a guild's pool entirely (guild-delete).
func (p *Pool) Remove(guildID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.names, guildID)
}

// Random returns a pseudo-random name from the guild's pool, or "" when the
// pool is empty.
func (p *Pool) Random(guildID string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := p.names[guildID]
	if len(names) == 0 {
		return ""
	}
	return names[rand.Intn(len(names))]
}

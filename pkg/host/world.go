package host

import (
	"context"
	"sort"
	"sync"

	"github.com/vnykmshr/scriptflow/pkg/script"
)

// World lists the entities present right now.
type World interface {
	Entities(ctx context.Context) ([]script.Entity, error)
}

// WorldFunc adapts a function to World.
type WorldFunc func(ctx context.Context) ([]script.Entity, error)

func (f WorldFunc) Entities(ctx context.Context) ([]script.Entity, error) { return f(ctx) }

// MemoryWorld is a World held in memory, ordered by entity ID.
type MemoryWorld struct {
	mu       sync.RWMutex
	entities map[int64]script.Entity
}

// NewMemoryWorld creates a world containing entities.
func NewMemoryWorld(entities ...script.Entity) *MemoryWorld {
	w := &MemoryWorld{entities: make(map[int64]script.Entity)}
	for _, e := range entities {
		w.entities[e.ID()] = e
	}
	return w
}

// Add inserts or replaces e.
func (w *MemoryWorld) Add(e script.Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entities[e.ID()] = e
}

// Remove deletes the entity with id and reports whether it existed.
func (w *MemoryWorld) Remove(id int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.entities[id]
	delete(w.entities, id)
	return ok
}

func (w *MemoryWorld) Entities(ctx context.Context) ([]script.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.RLock()
	out := make([]script.Entity, 0, len(w.entities))
	for _, e := range w.entities {
		out = append(out, e)
	}
	w.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

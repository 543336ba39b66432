package task

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/scdesign/factcheck/internal/model"
)

// Store holds task records between submission and expiry. Keyed writes
// never collide because task ids are unique; the sweep runs on a single
// timer, never per request.
type Store interface {
	Put(t *model.Task)
	Get(id string) (*model.Task, bool)
	Sweep()
}

// MemoryStore is the in-process default. All task state is lost on
// restart; that is an accepted limitation of the design.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a store retaining tasks for the given window.
// Expiry is enforced by the external sweep, not an internal janitor.
func NewMemoryStore(retention time.Duration) *MemoryStore {
	return &MemoryStore{cache: gocache.New(retention, 0)}
}

// Put registers or replaces a task record
func (s *MemoryStore) Put(t *model.Task) {
	s.cache.Set(t.ID, t, gocache.DefaultExpiration)
}

// Get looks up a task by id
func (s *MemoryStore) Get(id string) (*model.Task, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*model.Task), true
}

// Sweep drops tasks past the retention window
func (s *MemoryStore) Sweep() {
	s.cache.DeleteExpired()
}

package nation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/talgya/nationsim/internal/persistence"
)

// Store is the single source of truth for the nation population. It owns the
// in-memory map, the per-nation mutation locks, and the on-disk records.
//
// Concurrency discipline: any read-decide-write sequence against a nation
// must run between Lock and the returned unlock. Operations touching several
// nations pass all IDs to one Lock call; the store acquires them in
// lexicographic order so two cross-nation operations can never deadlock.
type Store struct {
	mu      sync.RWMutex // guards nations and locks maps
	nations map[string]*Nation
	locks   map[string]*sync.Mutex
	files   *persistence.FileStore
}

// Open eagerly loads every persisted nation from the file store.
func Open(files *persistence.FileStore) (*Store, error) {
	s := &Store{
		nations: make(map[string]*Nation),
		locks:   make(map[string]*sync.Mutex),
		files:   files,
	}
	err := files.LoadAll(func(key string, data []byte) error {
		var n Nation
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		if n.ID == "" {
			return fmt.Errorf("nation record %s has no id", key)
		}
		s.nations[n.ID] = &n
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("nation store loaded", "nations", len(s.nations))
	return s, nil
}

// Get returns the live nation record, or nil if it does not exist. Mutating
// the returned record requires holding its lock.
func (s *Store) Get(id string) *Nation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nations[id]
}

// All returns a snapshot slice of the current population. The slice is safe
// to iterate while other goroutines create or mutate nations; the records it
// points to are live.
func (s *Store) All() []*Nation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Nation, 0, len(s.nations))
	for _, n := range s.nations {
		out = append(out, n)
	}
	return out
}

// Count returns the current population size.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nations)
}

// Put registers a nation and persists it. Used by the external
// nation-creation path and by tests.
func (s *Store) Put(n *Nation) {
	s.mu.Lock()
	s.nations[n.ID] = n
	s.mu.Unlock()
	s.Save(n)
}

// Save persists the nation's current state. Failures are logged and
// swallowed: in-memory state stays authoritative for the running process and
// the previous on-disk record remains intact.
func (s *Store) Save(n *Nation) {
	if err := s.files.Save(n.ID, n); err != nil {
		slog.Error("nation save failed", "nation", n.ID, "error", err)
	}
}

// Lock acquires the mutation locks for the given nations in lexicographic
// order and returns the matching unlock. Duplicate IDs are collapsed.
// Unknown IDs still lock, so an exists-check inside the critical section
// races with nobody.
func (s *Store) Lock(ids ...string) (unlock func()) {
	uniq := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	sort.Strings(uniq)

	muxes := make([]*sync.Mutex, len(uniq))
	for i, id := range uniq {
		muxes[i] = s.lockFor(id)
	}
	for _, m := range muxes {
		m.Lock()
	}
	return func() {
		for i := len(muxes) - 1; i >= 0; i-- {
			muxes[i].Unlock()
		}
	}
}

func (s *Store) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	return m
}

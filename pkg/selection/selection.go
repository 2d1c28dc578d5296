package selection

import (
	"errors"
	"sync"
)

// DefaultMax is the number of images a user may select at once.
const DefaultMax = 10

var ErrSelectionFull = errors.New("selection is full")

// Set is a capped, insertion-ordered set of image ids. Safe for concurrent use.
type Set struct {
	mu    sync.Mutex
	max   int
	order []string
	index map[string]struct{}
}

// NewSet returns an empty set holding at most max ids; max <= 0 means DefaultMax.
func NewSet(max int) *Set {
	if max <= 0 {
		max = DefaultMax
	}
	return &Set{max: max, index: make(map[string]struct{}, max)}
}

// Toggle removes id if present, otherwise adds it. It reports whether id is
// selected afterwards. Adding to a full set returns ErrSelectionFull and
// leaves the set unchanged.
func (s *Set) Toggle(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; ok {
		delete(s.index, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return false, nil
	}
	if len(s.order) >= s.max {
		return false, ErrSelectionFull
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true, nil
}

func (s *Set) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[id]
	return ok
}

// IDs returns the selected ids in selection order.
func (s *Set) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *Set) Max() int { return s.max }

func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.index = make(map[string]struct{}, s.max)
}

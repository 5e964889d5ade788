package datum

// Map is a hash map keyed by datums under Equal. Keys that collide on Hash
// are kept in a bucket and told apart with Equal.
type Map[V any] struct {
	buckets map[uint64][]mapEntry[V]
	size    int
}

type mapEntry[V any] struct {
	key   Datum
	value V
}

// NewMap returns an empty map.
func NewMap[V any]() *Map[V] {
	return &Map[V]{buckets: make(map[uint64][]mapEntry[V])}
}

func (m *Map[V]) find(k Datum) (uint64, int) {
	h := Hash(k)
	for i, e := range m.buckets[h] {
		if Equal(e.key, k) {
			return h, i
		}
	}
	return h, -1
}

// Get returns the value stored under k.
func (m *Map[V]) Get(k Datum) (V, bool) {
	h, i := m.find(k)
	if i < 0 {
		var zero V
		return zero, false
	}
	return m.buckets[h][i].value, true
}

// Put stores v under k, replacing any previous value.
func (m *Map[V]) Put(k Datum, v V) {
	h, i := m.find(k)
	if i >= 0 {
		m.buckets[h][i].value = v
		return
	}
	m.buckets[h] = append(m.buckets[h], mapEntry[V]{key: k, value: v})
	m.size++
}

// Len returns the number of distinct keys.
func (m *Map[V]) Len() int {
	return m.size
}

// Set is a counted multiset of datums. With counts it serves bag semantics
// (INTERSECT ALL, EXCEPT ALL); Add's result serves set semantics.
type Set struct {
	counts *Map[int]
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{counts: NewMap[int]()}
}

// Add increments the count of d and reports whether d was not present.
func (s *Set) Add(d Datum) bool {
	n, _ := s.counts.Get(d)
	s.counts.Put(d, n+1)
	return n == 0
}

// Count returns how many times d has been added and not yet taken.
func (s *Set) Count(d Datum) int {
	n, _ := s.counts.Get(d)
	return n
}

// Contains reports whether d has a positive count.
func (s *Set) Contains(d Datum) bool {
	return s.Count(d) > 0
}

// Take decrements the count of d and reports whether it was positive.
func (s *Set) Take(d Datum) bool {
	n, _ := s.counts.Get(d)
	if n <= 0 {
		return false
	}
	s.counts.Put(d, n-1)
	return true
}

// Remove drops every copy of d.
func (s *Set) Remove(d Datum) {
	if s.Count(d) > 0 {
		s.counts.Put(d, 0)
	}
}

// Len returns the number of distinct datums ever added.
func (s *Set) Len() int {
	return s.counts.Len()
}

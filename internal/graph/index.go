package graph

// OrderedSet is a set of strings that remembers insertion order.
type OrderedSet struct {
	items []string
	seen  map[string]struct{}
}

// NewOrderedSet returns an empty set.
func NewOrderedSet() *OrderedSet {
	return &OrderedSet{seen: make(map[string]struct{})}
}

// Add inserts v and reports whether it was not already present.
func (s *OrderedSet) Add(v string) bool {
	if _, ok := s.seen[v]; ok {
		return false
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

func (s *OrderedSet) Contains(v string) bool {
	_, ok := s.seen[v]
	return ok
}

func (s *OrderedSet) Len() int {
	return len(s.items)
}

// Values returns a copy of the members in insertion order.
func (s *OrderedSet) Values() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Index maps a key to an ordered set of values. Keys iterate in the order
// they were first inserted.
type Index struct {
	keys []string
	sets map[string]*OrderedSet
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{sets: make(map[string]*OrderedSet)}
}

// getOrInsert returns the set stored under key, creating it if absent.
func (ix *Index) getOrInsert(key string) *OrderedSet {
	if s, ok := ix.sets[key]; ok {
		return s
	}
	s := NewOrderedSet()
	ix.sets[key] = s
	ix.keys = append(ix.keys, key)
	return s
}

// add records value under key and reports whether the pair is new.
func (ix *Index) add(key, value string) bool {
	return ix.getOrInsert(key).Add(value)
}

// Keys returns a copy of the keys in first-insertion order.
func (ix *Index) Keys() []string {
	out := make([]string, len(ix.keys))
	copy(out, ix.keys)
	return out
}

// Get returns the values stored under key in insertion order, or nil.
func (ix *Index) Get(key string) []string {
	s, ok := ix.sets[key]
	if !ok {
		return nil
	}
	return s.Values()
}

// Has reports whether value is stored under key.
func (ix *Index) Has(key, value string) bool {
	s, ok := ix.sets[key]
	return ok && s.Contains(value)
}

func (ix *Index) Len() int {
	return len(ix.keys)
}

// each calls fn for every key and its set without copying.
func (ix *Index) each(fn func(key string, values []string)) {
	for _, k := range ix.keys {
		fn(k, ix.sets[k].items)
	}
}

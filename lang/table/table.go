// Package table implements an open-addressed, linear-probing hash table.
// It is generic so it can serve every use the engine has for it without
// depending on lang/object: the string-interning table (key = content
// string), the globals table and every class's method table and
// instance's field table (key = *object.String, relying on pointer identity
// now that strings are interned).
package table

// entryState distinguishes an empty slot (never used), a tombstone (a
// deleted entry, which must not stop linear probing for other keys that
// hashed to the same bucket), and an occupied slot.
type entryState uint8

const (
	stateEmpty entryState = iota
	stateTombstone
	stateOccupied
)

type entry[K comparable, V any] struct {
	key   K
	val   V
	state entryState
}

// maxLoad is the load factor threshold above which the table grows.
const maxLoad = 0.75

// Table is an open-addressed hash table with linear probing. Construct
// one with New, which sets the key hash function; the zero value has none.
type Table[K comparable, V any] struct {
	entries []entry[K, V]
	count   int // occupied slots, not counting tombstones

	hash func(K) uint32

	// BeforeGrow, if set, is called immediately before the table reallocates
	// its backing array. It exists so a GC-tracked heap can account for the
	// new allocation and potentially trigger a collection first, the same
	// allocation-safety pattern used when growing a chunk's constant pool
	// to insert a new constant.
	BeforeGrow func(newCapacity int)
}

// New returns a Table whose keys hash via hash.
func New[K comparable, V any](hash func(K) uint32) *Table[K, V] {
	return &Table[K, V]{hash: hash}
}

// Count returns the number of live (non-tombstone) entries.
func (t *Table[K, V]) Count() int { return t.count }

// Get looks up key, reporting whether it was found.
func (t *Table[K, V]) Get(key K) (V, bool) {
	var zero V
	if len(t.entries) == 0 {
		return zero, false
	}
	e := t.find(key)
	if e.state != stateOccupied {
		return zero, false
	}
	return e.val, true
}

// Set inserts or overwrites key -> val, reporting whether key is new.
func (t *Table[K, V]) Set(key K, val V) bool {
	if float64(t.count+1) > float64(len(t.entries))*maxLoad {
		t.grow(growCapacity(len(t.entries)))
	}
	idx := t.findIndex(key)
	e := &t.entries[idx]
	isNew := e.state != stateOccupied
	if isNew {
		t.count++
	}
	e.key = key
	e.val = val
	e.state = stateOccupied
	return isNew
}

// Delete removes key, leaving a tombstone so other keys sharing its probe
// sequence remain reachable. Reports whether key was present.
func (t *Table[K, V]) Delete(key K) bool {
	if len(t.entries) == 0 {
		return false
	}
	idx := t.findIndex(key)
	e := &t.entries[idx]
	if e.state != stateOccupied {
		return false
	}
	var zeroK K
	var zeroV V
	e.key = zeroK
	e.val = zeroV
	e.state = stateTombstone
	t.count--
	return true
}

// Each calls fn for every live entry. fn must not mutate the table.
func (t *Table[K, V]) Each(fn func(key K, val V)) {
	for _, e := range t.entries {
		if e.state == stateOccupied {
			fn(e.key, e.val)
		}
	}
}

// DeleteWhere removes every live entry for which keep returns false. It is
// used by the GC for weak-set cleanup of the string-interning table.
func (t *Table[K, V]) DeleteWhere(keep func(key K, val V) bool) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.state == stateOccupied && !keep(e.key, e.val) {
			var zeroK K
			var zeroV V
			e.key = zeroK
			e.val = zeroV
			e.state = stateTombstone
			t.count--
		}
	}
}

// CopyInto copies every live entry of t into dst (used by SUBCLASS to
// snapshot a superclass's method table).
func (t *Table[K, V]) CopyInto(dst *Table[K, V]) {
	t.Each(func(k K, v V) { dst.Set(k, v) })
}

func (t *Table[K, V]) find(key K) *entry[K, V] {
	return &t.entries[t.findIndex(key)]
}

// findIndex runs the linear probe: starting at hash(key) mod capacity,
// advance until an empty slot, a matching key, or (tracked separately) the
// first tombstone seen is found, returning the first tombstone slot if the
// key is absent so inserts reuse it.
func (t *Table[K, V]) findIndex(key K) int {
	cap := len(t.entries)
	idx := int(t.hash(key)) % cap
	tombstone := -1
	for {
		e := &t.entries[idx]
		switch e.state {
		case stateEmpty:
			if tombstone != -1 {
				return tombstone
			}
			return idx
		case stateTombstone:
			if tombstone == -1 {
				tombstone = idx
			}
		case stateOccupied:
			if e.key == key {
				return idx
			}
		}
		idx = (idx + 1) % cap
	}
}

func growCapacity(old int) int {
	if old < 8 {
		return 8
	}
	return old * 2
}

func (t *Table[K, V]) grow(newCapacity int) {
	if t.BeforeGrow != nil {
		t.BeforeGrow(newCapacity)
	}
	old := t.entries
	t.entries = make([]entry[K, V], newCapacity)
	t.count = 0
	for _, e := range old {
		if e.state != stateOccupied {
			continue
		}
		idx := t.findIndex(e.key)
		t.entries[idx] = entry[K, V]{key: e.key, val: e.val, state: stateOccupied}
		t.count++
	}
}

// Package staticmap implements the archive's bucketed, open-addressed
// static hash map: built once from a full set of entries, sized to a power
// of two (or zero) buckets, and never mutated afterward. Lookup is
// `static_hash(key) mod bucket_count` followed by a linear scan of the
// bucket's key range.
package staticmap

import (
	"errors"
	"fmt"
	"sort"
)

// Hashable is implemented by any key usable in a Map: a fixed 32-bit hash
// used to pick the key's bucket.
type Hashable interface {
	comparable
	StaticHash() uint32
}

// Bucket is the on-disk/in-memory bucket descriptor: a contiguous run of
// `Count` entries starting at `Index` in the map's parallel keys/values
// slices.
type Bucket struct {
	Index uint32
	Count uint32
}

// ErrLengthMismatch is returned by FromParts when keys and values differ in
// length.
var ErrLengthMismatch = errors.New("staticmap: keys and values length mismatch")

// ErrBucketCountMismatch is returned by FromParts when the sum of bucket
// counts does not equal the number of keys.
var ErrBucketCountMismatch = errors.New("staticmap: bucket counts do not sum to key count")

// ErrInvalidBucketSize is returned by FromParts when a non-empty bucket
// slice's length is not a power of two.
var ErrInvalidBucketSize = errors.New("staticmap: bucket count is not a power of two")

// Map is an immutable, built static hash map over keys of type K.
type Map[K Hashable, V any] struct {
	keys    []K
	values  []V
	buckets []Bucket
}

// FromParts reconstructs a Map from already-built parallel slices, such as
// those read off disk, validating the three invariants a corrupt catalog
// could violate.
func FromParts[K Hashable, V any](keys []K, values []V, buckets []Bucket) (*Map[K, V], error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("%w: %d keys, %d values", ErrLengthMismatch, len(keys), len(values))
	}

	var bucketRefCount uint32
	for _, b := range buckets {
		bucketRefCount += b.Count
	}
	if uint32(len(keys)) != bucketRefCount {
		return nil, fmt.Errorf("%w: %d keys, %d bucket refs", ErrBucketCountMismatch, len(keys), bucketRefCount)
	}

	if len(buckets) != 0 && !isPowerOfTwo(len(buckets)) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBucketSize, len(buckets))
	}

	return &Map[K, V]{keys: keys, values: values, buckets: buckets}, nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Get looks up key, returning its value and true if present.
func (m *Map[K, V]) Get(key K) (V, bool) {
	var zero V
	if len(m.buckets) == 0 {
		return zero, false
	}

	hash := key.StaticHash()
	bucketIndex := hash % uint32(len(m.buckets))
	bucket := m.buckets[bucketIndex]

	for i := bucket.Index; i < bucket.Index+bucket.Count; i++ {
		if m.keys[i] == key {
			return m.values[i], true
		}
	}

	return zero, false
}

// ContainsKey reports whether key is present.
func (m *Map[K, V]) ContainsKey(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return len(m.keys)
}

// IsEmpty reports whether the map has no entries.
func (m *Map[K, V]) IsEmpty() bool {
	return len(m.keys) == 0
}

// Keys returns the map's keys in build order (sorted by bucket).
func (m *Map[K, V]) Keys() []K {
	return m.keys
}

// Values returns the map's values in build order (sorted by bucket).
func (m *Map[K, V]) Values() []V {
	return m.values
}

// Buckets returns the map's bucket table.
func (m *Map[K, V]) Buckets() []Bucket {
	return m.buckets
}

// Iter calls fn for every (key, value) pair in build order.
func (m *Map[K, V]) Iter(fn func(key K, value V)) {
	for i := range m.keys {
		fn(m.keys[i], m.values[i])
	}
}

// Builder accumulates entries before a one-shot Build into an immutable Map.
type Builder[K Hashable, V any] struct {
	index   map[K]int
	entries []builderEntry[K, V]
}

type builderEntry[K Hashable, V any] struct {
	key   K
	value V
}

// NewBuilder returns an empty Builder.
func NewBuilder[K Hashable, V any]() *Builder[K, V] {
	return &Builder[K, V]{index: make(map[K]int)}
}

// Insert adds or overwrites the value for key.
func (b *Builder[K, V]) Insert(key K, value V) {
	if i, ok := b.index[key]; ok {
		b.entries[i].value = value
		return
	}
	b.index[key] = len(b.entries)
	b.entries = append(b.entries, builderEntry[K, V]{key: key, value: value})
}

// Get looks up a pending entry by key.
func (b *Builder[K, V]) Get(key K) (V, bool) {
	var zero V
	i, ok := b.index[key]
	if !ok {
		return zero, false
	}
	return b.entries[i].value, true
}

// ContainsKey reports whether key has a pending entry.
func (b *Builder[K, V]) ContainsKey(key K) bool {
	_, ok := b.index[key]
	return ok
}

// Len returns the number of pending entries.
func (b *Builder[K, V]) Len() int {
	return len(b.entries)
}

// IsEmpty reports whether the builder has no pending entries.
func (b *Builder[K, V]) IsEmpty() bool {
	return len(b.entries) == 0
}

// Build sizes the bucket table to the next power of two on top of the
// entry count (an empty builder still yields a bucket table of size 1, a
// quirk inherited from the reference implementation's `next_power_of_two`
// semantics), sorts entries by bucket index, and assembles the final Map.
func (b *Builder[K, V]) Build() *Map[K, V] {
	bucketSize := nextPow2(len(b.entries))
	buckets := make([]Bucket, bucketSize)

	entries := make([]builderEntry[K, V], len(b.entries))
	copy(entries, b.entries)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].key.StaticHash()%uint32(bucketSize) < entries[j].key.StaticHash()%uint32(bucketSize)
	})

	keys := make([]K, len(entries))
	values := make([]V, len(entries))
	for i, e := range entries {
		keys[i] = e.key
		values[i] = e.value
	}

	bucketIndex := 0
	entryIndex := 0
	for bucketIndex < bucketSize {
		buckets[bucketIndex].Index = uint32(entryIndex)

		count := uint32(0)
		for entryIndex < len(entries) && int(entries[entryIndex].key.StaticHash())%bucketSize == bucketIndex {
			entryIndex++
			count++
		}
		buckets[bucketIndex].Count = count
		bucketIndex++
	}

	m, err := FromParts(keys, values, buckets)
	if err != nil {
		// Build's own invariants guarantee this never fires; a failure here
		// would mean the bucket-fill loop above has a bug.
		panic(fmt.Sprintf("staticmap: internal invariant violated: %v", err))
	}
	return m
}

// nextPow2 mirrors Rust's usize::next_power_of_two, including its quirk
// that next_power_of_two(0) == 1.
func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

package soap

import (
	"reflect"
	"sync"
)

// cache is a concurrency-safe memo of per-type derived values, such
// as encoders and type descriptors. Failures are memoized too, so
// that a bad type is only inspected once.
type cache[V any] struct {
	m sync.Map
}

type cacheEntry[V any] struct {
	val V
	err error
}

// Get returns the cached value for t, computing it with fn if t has
// not been seen before. Concurrent first calls may run fn more than
// once, but only the first stored result is ever returned.
func (c *cache[V]) Get(t reflect.Type, fn func(reflect.Type) (V, error)) (V, error) {
	if ent, ok := c.m.Load(t); ok {
		e := ent.(*cacheEntry[V])
		return e.val, e.err
	}
	val, err := fn(t)
	ent, _ := c.m.LoadOrStore(t, &cacheEntry[V]{val, err})
	e := ent.(*cacheEntry[V])
	return e.val, e.err
}

package kv

import (
	"reflect"
	"slices"
	"sync"

	"go.uber.org/multierr"

	"github.com/benz9527/xforest/lib/infra"
)

// threadSafeMap serializes the access of an OrderedMap by a RWMutex.
type threadSafeMap[K infra.OrderedKey, V any] struct {
	lock           sync.RWMutex
	items          OrderedMap[K, V]
	newItems       func() OrderedMap[K, V]
	isClosableItem bool
}

func (t *threadSafeMap[K, V]) AddOrUpdate(key K, obj V) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.items.Put(key, obj)
}

func (t *threadSafeMap[K, V]) Replace(items map[K]V) {
	m := t.newItems()
	for k, v := range items {
		m.Put(k, v)
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	t.items = m
}

func (t *threadSafeMap[K, V]) Delete(key K) (V, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.items.Delete(key)
}

func (t *threadSafeMap[K, V]) Get(key K) (item V, exists bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.items.Get(key)
}

func (t *threadSafeMap[K, V]) ListKeys(filters ...SafeStoreKeyFilterFunc[K]) []K {
	realFilters := make([]SafeStoreKeyFilterFunc[K], 0, len(filters))
	for _, filter := range filters {
		if filter != nil {
			realFilters = append(realFilters, filter)
		}
	}
	if len(realFilters) == 0 {
		realFilters = append(realFilters, defaultAllKeysFilter[K])
	}

	t.lock.RLock()
	defer t.lock.RUnlock()

	keys := make([]K, 0, t.items.Len())
	for key := range t.items.All() {
		for _, filter := range realFilters {
			if filter(key) {
				keys = append(keys, key)
				break
			}
		}
	}
	return keys
}

func (t *threadSafeMap[K, V]) ListValues(keys ...K) (items []V) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	values := make([]V, 0, t.items.Len())
	for key, item := range t.items.All() {
		if len(keys) == 0 || slices.Contains(keys, key) {
			values = append(values, item)
		}
	}
	return values
}

// Purge closes the Closable items and drops all.
func (t *threadSafeMap[K, V]) Purge() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	var merr error
	if t.isClosableItem {
		for _, item := range t.items.All() {
			if isNilItem(item) {
				continue
			}
			if c, ok := any(item).(Closable); ok {
				merr = multierr.Append(merr, c.Close())
			}
		}
	}
	t.items.Clear()
	return merr
}

func isNilItem(item any) bool {
	v := reflect.ValueOf(item)
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
	}
	return false
}

// NewThreadSafeMap wraps the OrderedMap built by newItems, which is
// also called to build the replacement of Replace.
func NewThreadSafeMap[K infra.OrderedKey, V any](newItems func() OrderedMap[K, V]) ThreadSafeStorer[K, V] {
	return &threadSafeMap[K, V]{
		items:          newItems(),
		newItems:       newItems,
		isClosableItem: reflect.TypeFor[V]().Implements(reflect.TypeFor[Closable]()),
	}
}

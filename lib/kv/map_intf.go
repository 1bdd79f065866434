package kv

import (
	"io"
	"iter"

	"github.com/benz9527/xforest/lib/infra"
)

type SafeStoreKeyFilterFunc[K infra.OrderedKey] func(key K) bool

func defaultAllKeysFilter[K infra.OrderedKey](key K) bool {
	return true
}

// Closable items are closed by ThreadSafeStorer.Purge.
type Closable interface {
	io.Closer
}

// OrderedMap iterates in key order. Not safe for concurrent use.
type OrderedMap[K infra.OrderedKey, V any] interface {
	// Put inserts or replaces in place. It reports whether the key existed.
	Put(key K, val V) bool
	Get(key K) (V, bool)
	Delete(key K) (V, bool)
	Min() (K, V, bool)
	Max() (K, V, bool)
	All() iter.Seq2[K, V]
	Backward() iter.Seq2[K, V]
	Keys() []K
	Len() int64
	Empty() bool
	Clear()
}

type ThreadSafeStorer[K infra.OrderedKey, V any] interface {
	Purge() error
	AddOrUpdate(key K, obj V)
	Replace(items map[K]V)
	Delete(key K) (V, bool)
	Get(key K) (item V, exists bool)
	// ListKeys returns the matched keys in order.
	ListKeys(filters ...SafeStoreKeyFilterFunc[K]) []K
	// ListValues returns the values in key order.
	ListValues(keys ...K) (items []V)
}

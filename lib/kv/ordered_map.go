package kv

import (
	"iter"

	"github.com/benz9527/xforest/lib/infra"
	"github.com/benz9527/xforest/lib/tree"
)

type orderedMap[K infra.OrderedKey, V any] struct {
	tree tree.BinaryTree[K, V]
}

func (m *orderedMap[K, V]) Put(key K, val V) bool {
	if m.tree.Update(key, val) {
		return true
	}
	if err := m.tree.Insert(key, val); err != nil {
		// impossible run to here
		panic( /* debug assertion */ "[ordered-map] insert after a missed update: " + err.Error())
	}
	return false
}

func (m *orderedMap[K, V]) Get(key K) (val V, ok bool) {
	node := m.tree.Search(key)
	if node == nil {
		return val, false
	}
	return node.Val(), true
}

func (m *orderedMap[K, V]) Delete(key K) (val V, ok bool) {
	node := m.tree.Search(key)
	if node == nil {
		return val, false
	}
	val = node.Val()
	m.tree.Delete(key)
	return val, true
}

func (m *orderedMap[K, V]) Min() (key K, val V, ok bool) {
	root := m.tree.Root()
	if root == nil {
		return key, val, false
	}
	node := m.tree.Leftmost(root)
	return node.Key(), node.Val(), true
}

func (m *orderedMap[K, V]) Max() (key K, val V, ok bool) {
	root := m.tree.Root()
	if root == nil {
		return key, val, false
	}
	node := m.tree.Rightmost(root)
	return node.Key(), node.Val(), true
}

func (m *orderedMap[K, V]) All() iter.Seq2[K, V] {
	return tree.InorderTraverse(m.tree, false)
}

func (m *orderedMap[K, V]) Backward() iter.Seq2[K, V] {
	return tree.ReverseInorderTraverse(m.tree, false)
}

func (m *orderedMap[K, V]) Keys() []K {
	keys := make([]K, 0, m.tree.Len())
	for k := range m.All() {
		keys = append(keys, k)
	}
	return keys
}

func (m *orderedMap[K, V]) Len() int64 {
	return m.tree.Len()
}

func (m *orderedMap[K, V]) Empty() bool {
	return m.tree.Empty()
}

func (m *orderedMap[K, V]) Clear() {
	m.tree.Release()
}

// NewAVLOrderedMap favors lookups, the AVL tree is more strictly balanced.
func NewAVLOrderedMap[K infra.OrderedKey, V any](opts ...tree.AVLTreeOpt[K, V]) OrderedMap[K, V] {
	return &orderedMap[K, V]{tree: tree.NewAVLTree[K, V](opts...)}
}

// NewRBOrderedMap favors updates, the red-black tree rotates less.
func NewRBOrderedMap[K infra.OrderedKey, V any](opts ...tree.RBTreeOpt[K, V]) OrderedMap[K, V] {
	return &orderedMap[K, V]{tree: tree.NewRBTree[K, V](opts...)}
}

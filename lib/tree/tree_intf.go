package tree

import (
	"iter"

	"github.com/benz9527/xforest/lib/infra"
)

// go install golang.org/x/tools/cmd/stringer@latest

//go:generate stringer -type=RBColor
type RBColor uint8

const (
	Black RBColor = iota
	Red
)

//go:generate stringer -type=RBDirection
type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

// Node is a read-only handle to a tree node.
// A handle is invalidated when its node is spliced out by a delete
// or the tree is released. Accessing an invalidated handle panics.
// Handles of the same node compare equal.
type Node[K infra.OrderedKey, V any] interface {
	Key() K
	Val() V
	Left() Node[K, V]
	Right() Node[K, V]
	Parent() Node[K, V]
}

type BinaryTree[K infra.OrderedKey, V any] interface {
	Len() int64
	Empty() bool
	Root() Node[K, V]
	// Search returns nil if the key is not found.
	Search(key K) Node[K, V]
	// Insert fails with a *DuplicateKeyError if the key is present.
	Insert(key K, val V) error
	// Update replaces the value of a present key in place.
	Update(key K, val V) bool
	// Delete returns false and leaves the tree untouched if the key is absent.
	Delete(key K) bool
	Leftmost(node Node[K, V]) Node[K, V]
	Rightmost(node Node[K, V]) Node[K, V]
	Successor(node Node[K, V]) Node[K, V]
	Predecessor(node Node[K, V]) Node[K, V]
	// Height returns -1 for an absent node and 0 for a leaf.
	Height(node Node[K, V]) int
	Release()
}

type AVLTree[K infra.OrderedKey, V any] interface {
	BinaryTree[K, V]
	BalanceFactor(node Node[K, V]) int
	Foreach(action func(idx int64, height int, key K, val V) bool)
}

type RBTree[K infra.OrderedKey, V any] interface {
	BinaryTree[K, V]
	// Color returns Black for an absent node.
	Color(node Node[K, V]) RBColor
	RemoveMin() (K, V, error)
	Foreach(action func(idx int64, color RBColor, key K, val V) bool)
	InorderTraverse() iter.Seq2[K, V]
	PreorderTraverse() iter.Seq2[K, V]
	PostorderTraverse() iter.Seq2[K, V]
}

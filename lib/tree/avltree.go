package tree

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/benz9527/xforest/lib/infra"
)

// References:
// https://en.wikipedia.org/wiki/AVL_tree
// avltree properties:
// p1. BST order, left subtree keys < node key < right subtree keys.
// p2. The height of an absent node is -1 and a leaf is 0.
// p3. For every node, |height(left) - height(right)| <= 1.
// (Conclusion) The height is bounded by 1.4405 * log2(n+2) - 0.3277.

type avlTree[K infra.OrderedKey, V any] struct {
	binaryTree[K, V]
	isStatsEnabled bool
	meterProvider  metric.MeterProvider
}

func (tree *avlTree[K, V]) height(ref nodeRef) int {
	if ref == nilRef {
		return -1
	}
	return int(tree.node(ref).height)
}

func (tree *avlTree[K, V]) updateHeight(ref nodeRef) {
	n := tree.node(ref)
	n.height = int32(1 + max(tree.height(n.left), tree.height(n.right)))
}

func (tree *avlTree[K, V]) balanceFactor(ref nodeRef) int {
	n := tree.node(ref)
	return tree.height(n.left) - tree.height(n.right)
}

func (tree *avlTree[K, V]) avlLeftRotate(x nodeRef) nodeRef {
	y := tree.leftRotate(x)
	tree.updateHeight(x)
	tree.updateHeight(y)
	return y
}

func (tree *avlTree[K, V]) avlRightRotate(x nodeRef) nodeRef {
	y := tree.rightRotate(x)
	tree.updateHeight(x)
	tree.updateHeight(y)
	return y
}

/*
rb1: X is left heavy (bf == 2) and L is left heavy or balanced.

	      X                L
	     / \              / \
	    L   R   r(X)     Ll  X
	   / \     =====>       / \
	  Ll  Lr               Lr  R

rb2: X is left heavy (bf == 2) and L is right heavy.

	      X               X                 Lr
	     / \             / \               /  \
	    L   R   l(L)    Lr  R    r(X)     L    X
	   / \     =====>   / \      =====>   / \  / \
	  Ll  Lr          L   b             Ll a  b  R
	     / \         / \
	    a   b       Ll  a

rb3, rb4: The mirror cases of right heavy X.

It returns the root of the rebalanced subtree. The heights of x's
children must be up to date.
*/
func (tree *avlTree[K, V]) rebalance(x nodeRef) nodeRef {
	tree.updateHeight(x)
	bf := tree.balanceFactor(x)
	if bf > 1 {
		if l := tree.node(x).left; /* rb2 */ tree.balanceFactor(l) < 0 {
			tree.avlLeftRotate(l)
		}
		return /* rb1 */ tree.avlRightRotate(x)
	} else if bf < -1 {
		if r := tree.node(x).right; /* rb4 */ tree.balanceFactor(r) > 0 {
			tree.avlRightRotate(r)
		}
		return /* rb3 */ tree.avlLeftRotate(x)
	}
	return x
}

func (tree *avlTree[K, V]) Insert(key K, val V) error {
	z, err := tree.insertLeaf(key, val, Black)
	if err != nil {
		return err
	}
	tree.recordDepth(z)

	// A single rotation at the lowest unbalanced ancestor restores the
	// height of that subtree, so nothing above it changes.
	for p := tree.node(z).parent; p != nilRef; p = tree.node(p).parent {
		oldHeight := tree.height(p)
		tree.updateHeight(p)
		if bf := tree.balanceFactor(p); bf > 1 || bf < -1 {
			tree.rebalance(p)
			break
		}
		if tree.height(p) == oldHeight {
			break
		}
	}
	return nil
}

/*
rm1: X has two children, copy the succ's key and value into X and
remove the succ instead. The succ has no left child.

rm2: X has at most one child, lift the child into X's position.

Then walk from the removed node's parent up to the root. A rotation
here may shrink the subtree height, so the walk never stops early.
*/
func (tree *avlTree[K, V]) Delete(key K) bool {
	z := tree.search(key)
	if z == nilRef {
		return false
	}

	y := z
	if zn := tree.node(z); /* rm1 */ zn.left != nilRef && zn.right != nilRef {
		y = tree.minimum(zn.right)
		yn := tree.node(y)
		zn.key, zn.val = yn.key, yn.val
	}

	tree.recordDepth(y)
	/* rm2 */ _, p := tree.splice(y)
	for p != nilRef {
		p = tree.rebalance(p)
		p = tree.node(p).parent
	}
	return true
}

func (tree *avlTree[K, V]) Height(node Node[K, V]) int {
	return tree.height(tree.resolve(node))
}

// BalanceFactor returns 0 for an absent node.
func (tree *avlTree[K, V]) BalanceFactor(node Node[K, V]) int {
	ref := tree.resolve(node)
	if ref == nilRef {
		return 0
	}
	return tree.balanceFactor(ref)
}

func (tree *avlTree[K, V]) Foreach(action func(idx int64, height int, key K, val V) bool) {
	tree.foreach(func(idx int64, n *bstNode[K, V]) bool {
		return action(idx, int(n.height), n.key, n.val)
	})
}

type AVLTreeOpt[K infra.OrderedKey, V any] func(*avlTree[K, V])

func WithAVLTreeDesc[K infra.OrderedKey, V any]() AVLTreeOpt[K, V] {
	return func(tree *avlTree[K, V]) {
		tree.isDesc = true
	}
}

// WithAVLTreeStats records rotations and operation depths through the provider.
// The nil provider means the global one.
func WithAVLTreeStats[K infra.OrderedKey, V any](provider metric.MeterProvider) AVLTreeOpt[K, V] {
	return func(tree *avlTree[K, V]) {
		tree.isStatsEnabled = true
		tree.meterProvider = provider
	}
}

func NewAVLTree[K infra.OrderedKey, V any](opts ...AVLTreeOpt[K, V]) AVLTree[K, V] {
	tree := &avlTree[K, V]{}
	for _, o := range opts {
		o(tree)
	}
	tree.init(tree.isDesc)
	if tree.isStatsEnabled {
		tree.stats = newTreeStats("avl", tree.meterProvider)
	}
	return tree
}

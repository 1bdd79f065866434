package tree

import (
	"github.com/benz9527/xforest/lib/infra"
)

// bstNode is the arena record shared by both engines.
// height is only maintained by the AVL tree and color only by
// the red-black tree.
type bstNode[K infra.OrderedKey, V any] struct {
	parent nodeRef
	left   nodeRef
	right  nodeRef
	height int32
	color  RBColor
	key    K
	val    V
}

// treeNode is the public handle of a bstNode.
type treeNode[K infra.OrderedKey, V any] struct {
	owner *binaryTree[K, V]
	ref   nodeRef
	gen   uint32
}

func (node treeNode[K, V]) raw() *bstNode[K, V] {
	if node.owner == nil || !node.owner.arena.alive(node.ref, node.gen) {
		panic("[tree] stale node handle")
	}
	return node.owner.arena.get(node.ref)
}

func (node treeNode[K, V]) Key() K {
	return node.raw().key
}

func (node treeNode[K, V]) Val() V {
	return node.raw().val
}

func (node treeNode[K, V]) Left() Node[K, V] {
	return node.owner.handle(node.raw().left)
}

func (node treeNode[K, V]) Right() Node[K, V] {
	return node.owner.handle(node.raw().right)
}

func (node treeNode[K, V]) Parent() Node[K, V] {
	return node.owner.handle(node.raw().parent)
}

// binaryTree carries the arena and the pure BST operations.
// Engines embed it and add their own fixup.
type binaryTree[K infra.OrderedKey, V any] struct {
	arena   *nodeArena[bstNode[K, V]]
	root    nodeRef
	count   int64
	isDesc  bool
	compare infra.OrderedKeyComparator[K]
	stats   *treeStats
}

func (tree *binaryTree[K, V]) init(isDesc bool) {
	tree.isDesc = isDesc
	if isDesc {
		tree.compare = infra.DescKeyComparator[K]()
	} else {
		tree.compare = infra.AscKeyComparator[K]()
	}
	tree.arena = newNodeArena[bstNode[K, V]](32)
}

func (tree *binaryTree[K, V]) node(ref nodeRef) *bstNode[K, V] {
	return tree.arena.get(ref)
}

// handle returns an untyped nil for the absent reference.
func (tree *binaryTree[K, V]) handle(ref nodeRef) Node[K, V] {
	if ref == nilRef {
		return nil
	}
	return treeNode[K, V]{
		owner: tree,
		ref:   ref,
		gen:   tree.arena.generation(ref),
	}
}

// resolve maps a handle back to its arena reference.
// Foreign and stale handles are programming errors.
func (tree *binaryTree[K, V]) resolve(node Node[K, V]) nodeRef {
	if node == nil {
		return nilRef
	}
	h, ok := node.(treeNode[K, V])
	if !ok || h.owner != tree {
		panic("[tree] node does not belong to this tree")
	}
	if !tree.arena.alive(h.ref, h.gen) {
		panic("[tree] stale node handle")
	}
	return h.ref
}

func (tree *binaryTree[K, V]) left(ref nodeRef) nodeRef {
	if ref == nilRef {
		return nilRef
	}
	return tree.node(ref).left
}

func (tree *binaryTree[K, V]) right(ref nodeRef) nodeRef {
	if ref == nilRef {
		return nilRef
	}
	return tree.node(ref).right
}

func (tree *binaryTree[K, V]) parent(ref nodeRef) nodeRef {
	if ref == nilRef {
		return nilRef
	}
	return tree.node(ref).parent
}

func (tree *binaryTree[K, V]) direction(ref nodeRef) RBDirection {
	if ref == nilRef {
		// impossible run to here
		panic( /* debug assertion */ "[tree] nil leaf node without direction")
	}
	p := tree.node(ref).parent
	if p == nilRef {
		return Root
	}
	if tree.node(p).left == ref {
		return Left
	}
	return Right
}

func (tree *binaryTree[K, V]) minimum(ref nodeRef) nodeRef {
	for ref != nilRef && tree.node(ref).left != nilRef {
		ref = tree.node(ref).left
	}
	return ref
}

func (tree *binaryTree[K, V]) maximum(ref nodeRef) nodeRef {
	for ref != nilRef && tree.node(ref).right != nilRef {
		ref = tree.node(ref).right
	}
	return ref
}

// The pred node of the current node is its previous node in sorted order.
func (tree *binaryTree[K, V]) pred(x nodeRef) nodeRef {
	if x == nilRef {
		return nilRef
	}
	if l := tree.node(x).left; l != nilRef {
		return tree.maximum(l)
	}
	aux := tree.node(x).parent
	// Backtrack to father node that is the x's pred.
	for aux != nilRef && x == tree.node(aux).left {
		x = aux
		aux = tree.node(aux).parent
	}
	return aux
}

// The succ node of the current node is its next node in sorted order.
func (tree *binaryTree[K, V]) succ(x nodeRef) nodeRef {
	if x == nilRef {
		return nilRef
	}
	if r := tree.node(x).right; r != nilRef {
		return tree.minimum(r)
	}
	aux := tree.node(x).parent
	// Backtrack to father node that is the x's succ.
	for aux != nilRef && x == tree.node(aux).right {
		x = aux
		aux = tree.node(aux).parent
	}
	return aux
}

func (tree *binaryTree[K, V]) search(key K) nodeRef {
	for aux := tree.root; aux != nilRef; {
		n := tree.node(aux)
		res := tree.compare(key, n.key)
		if res == 0 {
			return aux
		} else if res > 0 {
			aux = n.right
		} else {
			aux = n.left
		}
	}
	return nilRef
}

// replaceChild links repl into the old child's position under p,
// or into the root when p is absent.
func (tree *binaryTree[K, V]) replaceChild(p, old, repl nodeRef) {
	if p == nilRef {
		tree.root = repl
	} else if pn := tree.node(p); pn.left == old {
		pn.left = repl
	} else if pn.right == old {
		pn.right = repl
	} else {
		// impossible run to here
		panic( /* debug assertion */ "[tree] replace a child of a non-parent node")
	}
	if repl != nilRef {
		tree.node(repl).parent = p
	}
}

// insertLeaf places a new node at the BST insertion point without any
// fixup. The tree is untouched when the key is present.
func (tree *binaryTree[K, V]) insertLeaf(key K, val V, color RBColor) (nodeRef, error) {
	var x, y = tree.root, nilRef
	res := int64(0)
	for x != nilRef {
		y = x
		n := tree.node(x)
		res = tree.compare(key, n.key)
		if /* equal */ res == 0 {
			return nilRef, &DuplicateKeyError[K]{Key: key}
		} else /* less */ if res < 0 {
			x = n.left
		} else /* greater */ {
			x = n.right
		}
	}

	z, zn := tree.arena.allocate()
	zn.key, zn.val = key, val
	zn.parent = y
	zn.color = color
	if y == nilRef {
		tree.root = z
	} else if res < 0 {
		tree.node(y).left = z
	} else {
		tree.node(y).right = z
	}
	tree.count++
	return z, nil
}

// splice detaches y, which must hold at most one child, and lifts the
// child into y's position. It returns the lifted child and y's parent.
func (tree *binaryTree[K, V]) splice(y nodeRef) (child, parent nodeRef) {
	yn := tree.node(y)
	if yn.left != nilRef && yn.right != nilRef {
		// impossible run to here
		panic( /* debug assertion */ "[tree] splice a node with two children")
	}
	child = yn.left
	if child == nilRef {
		child = yn.right
	}
	parent = yn.parent
	tree.replaceChild(parent, y, child)
	tree.arena.free(y)
	tree.count--
	return child, parent
}

/*
		 |                         |
		 X                         S
		/ \     leftRotate(X)     / \
	   L   S    ============>    X   Sd
		  / \                   / \
		Sc   Sd                L   Sc
*/
func (tree *binaryTree[K, V]) leftRotate(x nodeRef) nodeRef {
	if x == nilRef || tree.node(x).right == nilRef {
		// impossible run to here
		panic( /* debug assertion */ "[tree] left rotate node x is nil or x.right is nil")
	}

	xn := tree.node(x)
	p, y := xn.parent, xn.right
	yn := tree.node(y)
	xn.right = yn.left
	if yn.left != nilRef {
		tree.node(yn.left).parent = x
	}
	yn.left = x
	tree.replaceChild(p, x, y)
	xn.parent = y
	tree.stats.IncreaseRotateCount(Left)
	return y
}

/*
			 |                         |
			 X                         S
			/ \     rightRotate(S)    / \
	       L   S    <============    X   R
			  / \                   / \
			Sc   Sd               Sc   Sd
*/
func (tree *binaryTree[K, V]) rightRotate(x nodeRef) nodeRef {
	if x == nilRef || tree.node(x).left == nilRef {
		// impossible run to here
		panic( /* debug assertion */ "[tree] right rotate node x is nil or x.left is nil")
	}

	xn := tree.node(x)
	p, y := xn.parent, xn.left
	yn := tree.node(y)
	xn.left = yn.right
	if yn.right != nilRef {
		tree.node(yn.right).parent = x
	}
	yn.right = x
	tree.replaceChild(p, x, y)
	xn.parent = y
	tree.stats.IncreaseRotateCount(Right)
	return y
}

// subtreeHeight counts edges on the longest downward path, -1 for absent.
func (tree *binaryTree[K, V]) subtreeHeight(ref nodeRef) int {
	if ref == nilRef {
		return -1
	}
	n := tree.node(ref)
	return 1 + max(tree.subtreeHeight(n.left), tree.subtreeHeight(n.right))
}

// depth counts the edges from ref up to the root.
func (tree *binaryTree[K, V]) depth(ref nodeRef) int {
	d := 0
	for p := tree.node(ref).parent; p != nilRef; p = tree.node(p).parent {
		d++
	}
	return d
}

// recordDepth samples the depth of the node an operation inserted or
// spliced. The walk is bounded by the tree height.
func (tree *binaryTree[K, V]) recordDepth(ref nodeRef) {
	if tree.stats.enabled() {
		tree.stats.RecordDepth(tree.depth(ref))
	}
}

// Inorder traversal to implement the DFS.
func (tree *binaryTree[K, V]) foreach(action func(idx int64, n *bstNode[K, V]) bool) {
	aux := tree.root
	if aux == nilRef {
		return
	}

	stack := make([]nodeRef, 0, 32)
	defer func() {
		clear(stack)
	}()

	for ; aux != nilRef; aux = tree.node(aux).left {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size := len(stack); size > 0; size = len(stack) {
		n := tree.node(stack[size-1])
		if !action(idx, n) {
			return
		}
		idx++
		stack = stack[:size-1]
		for aux = n.right; aux != nilRef; aux = tree.node(aux).left {
			stack = append(stack, aux)
		}
	}
}

func (tree *binaryTree[K, V]) Len() int64 {
	return tree.count
}

func (tree *binaryTree[K, V]) Empty() bool {
	return tree.root == nilRef
}

func (tree *binaryTree[K, V]) Root() Node[K, V] {
	return tree.handle(tree.root)
}

func (tree *binaryTree[K, V]) Search(key K) Node[K, V] {
	return tree.handle(tree.search(key))
}

func (tree *binaryTree[K, V]) Update(key K, val V) bool {
	z := tree.search(key)
	if z == nilRef {
		return false
	}
	tree.node(z).val = val
	return true
}

func (tree *binaryTree[K, V]) Leftmost(node Node[K, V]) Node[K, V] {
	if node == nil {
		panic("[tree] leftmost of an absent node")
	}
	return tree.handle(tree.minimum(tree.resolve(node)))
}

func (tree *binaryTree[K, V]) Rightmost(node Node[K, V]) Node[K, V] {
	if node == nil {
		panic("[tree] rightmost of an absent node")
	}
	return tree.handle(tree.maximum(tree.resolve(node)))
}

func (tree *binaryTree[K, V]) Successor(node Node[K, V]) Node[K, V] {
	return tree.handle(tree.succ(tree.resolve(node)))
}

func (tree *binaryTree[K, V]) Predecessor(node Node[K, V]) Node[K, V] {
	return tree.handle(tree.pred(tree.resolve(node)))
}

// Release drops every node. Handles taken before are invalidated.
func (tree *binaryTree[K, V]) Release() {
	tree.arena.reset()
	tree.root = nilRef
	tree.count = 0
}

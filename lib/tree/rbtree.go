package tree

import (
	"iter"

	"go.opentelemetry.io/otel/metric"

	"github.com/benz9527/xforest/lib/infra"
)

type rbTree[K infra.OrderedKey, V any] struct {
	binaryTree[K, V]
	isRmBorrowPred bool
	isStatsEnabled bool
	meterProvider  metric.MeterProvider
}

// color treats the absent node as a black NIL leaf.
func (tree *rbTree[K, V]) color(ref nodeRef) RBColor {
	if ref == nilRef {
		return Black
	}
	return tree.node(ref).color
}

func (tree *rbTree[K, V]) isRed(ref nodeRef) bool {
	return tree.color(ref) == Red
}

func (tree *rbTree[K, V]) isBlack(ref nodeRef) bool {
	return tree.color(ref) == Black
}

func (tree *rbTree[K, V]) paint(ref nodeRef, color RBColor) {
	if ref != nilRef {
		tree.node(ref).color = color
	}
}

// References:
// https://elixir.bootlin.com/linux/latest/source/lib/rbtree.c
// rbtree properties:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.
// (Conclusion) If a node X has exactly one child, it must be a red child,
//   because if it were black, its NIL descendants would sit at a different
//   black depth than X's NIL child, violating p4.
// So the shortest path nodes are black nodes. Otherwise,
// the path must contain red node.
// The longest path nodes' number is 2 * shortest path nodes' number.

// i1: Empty rbtree, insert directly, but root node is painted to black.
func (tree *rbTree[K, V]) Insert(key K, val V) error {
	z, err := tree.insertLeaf(key, val, Red)
	if err != nil {
		return err
	}
	tree.recordDepth(z)
	if /* i1 */ tree.node(z).parent == nilRef {
		tree.node(z).color = Black
	} else {
		tree.insertRebalance(z)
	}
	return nil
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

im1: Current node X's parent P is black, nothing to fix.

im2: X climbs to the root, repaint the root into black.

im3: If both the parent P and the uncle U are red, grandpa G is black.
(red-violation)
After repainted G into red may be still red-violation.
Recursive to fix grandpa.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im4: The parent P is red but the uncle U is black. (red-violation)
X is opposite direction to P. Rotate P to opposite direction.
After rotation may be still red-violation. Here must enter im5 to fix.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

im5: Handle im4 scenario, current node is the same direction as parent.

	    [G]                 <P>               [P]
	    / \    rotate(G)    / \    repaint    / \
	  <P> [U]  ========>  <X> [G]  ======>  <X> <G>
	  /                         \                 \
	<X>                         [U]               [U]
*/
func (tree *rbTree[K, V]) insertRebalance(x nodeRef) {
	for /* im1 */ tree.isRed(tree.parent(x)) {
		// The red parent is never the root, so the grandpa exists.
		p := tree.node(x).parent
		gp := tree.node(p).parent
		pDir := tree.direction(p)
		var u nodeRef
		switch pDir {
		case Left:
			u = tree.node(gp).right
		case Right:
			u = tree.node(gp).left
		default:
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] insert violate (red root)")
		}

		if /* im3 */ tree.isRed(u) {
			tree.node(p).color = Black
			tree.node(u).color = Black
			tree.node(gp).color = Red
			x = gp
			continue
		}

		if /* im4 */ dir := tree.direction(x); dir != pDir {
			switch dir {
			case Left:
				tree.rightRotate(p)
			case Right:
				tree.leftRotate(p)
			default:
				// impossible run to here
				panic( /* debug assertion */ "[rbtree] insert violate (im4)")
			}
			x = p // enter im5 to fix
			p = tree.node(x).parent
		}

		/* im5 */
		tree.node(p).color = Black
		tree.node(gp).color = Red
		switch pDir {
		case Left:
			tree.rightRotate(gp)
		case Right:
			tree.leftRotate(gp)
		default:
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] insert violate (im5)")
		}
	}
	/* im2 */ tree.node(tree.root).color = Black
}

/*
r1: Current node Z has left and right node.
Find node Z's succ (or pred) to replace it to be removed.
Copy the key and value only. The succ has no left child and the pred
has no right child.

Find succ:

	  |                    |
	  Z                    S
	 / \                  / \
	L  ..   copy(S, Z)   L  ..
		|   =========>       |
		P                    P
	   / \                  / \
	  S  ..                Z  ..

r2: Current node Y has at most one child X (X may be NIL).
Lift X into Y's position.

r3: Y is red, nothing to fix.

r4: Y is black. If X is red, repaint it into black. Otherwise, the path
through X is short of one black node (black-violation). Rebalance from X,
which may be the NIL leaf, so its parent is tracked explicitly.
*/
func (tree *rbTree[K, V]) Delete(key K) bool {
	z := tree.search(key)
	if z == nilRef {
		return false
	}
	tree.removeNode(z)
	return true
}

func (tree *rbTree[K, V]) removeNode(z nodeRef) {
	y := z
	if zn := tree.node(z); /* r1 */ zn.left != nilRef && zn.right != nilRef {
		if tree.isRmBorrowPred {
			y = tree.maximum(zn.left)
		} else {
			y = tree.minimum(zn.right)
		}
		yn := tree.node(y)
		zn.key, zn.val = yn.key, yn.val
	}

	tree.recordDepth(y)
	color := tree.node(y).color
	/* r2 */ x, p := tree.splice(y)
	if /* r4 */ color == Black {
		tree.removeRebalance(x, p)
	}
}

func (tree *rbTree[K, V]) RemoveMin() (key K, val V, err error) {
	if tree.root == nilRef {
		return key, val, ErrTreeEmpty
	}
	z := tree.minimum(tree.root)
	zn := tree.node(z)
	key, val = zn.key, zn.val
	tree.removeNode(z)
	return key, val, nil
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

Sc is the same direction to X and it X's sibling's child node.
Sd is the opposite direction to X and it X's sibling's child node.

rm1: Current node X's sibling S is red, so the parent P, nephew node Sc and Sd
must be black. (Otherwise, red-violation)
(1) X is left node of P, left rotate P
(2) X is right node of P, right rotate P.
(3) repaint S into black, P into red.

	  [P]                   <S>               [S]
	  / \    l-rotate(P)    / \    repaint    / \
	[X] <S>  ==========>  [P] [D]  ======>  <P> [Sd]
	    / \               / \               / \
	 [Sc] [Sd]          [X] [Sc]          [X] [Sc]

rm2: Current node X's parent P is red, the sibling S, nephew node Sc and Sd
is black.
Repaint S into red and P into black.

	  <P>             [P]
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm3: All of current node X's parent P, the sibling S, nephew node Sc and Sd
are black.
Unable to satisfy p3 and p4. We have to paint the S into red to satisfy
p4 locally. Then recursive to handle P.

	  [P]             [P]
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm4: Current node X's sibling S is black, nephew node Sc is red and Sd
is black. Ignore X's parent P's color (red or black is okay)
Unable to satisfy p3 and p4.
(1) If X is left node of P, right rotate S.
(2) If X is right node of P, left rotate S.
(3) Repaint S into red, Sc into black
Enter into rm5 to fix.

	                        {P}                {P}
	  {P}                   / \                / \
	  / \    r-rotate(S)  [X] <Sc>   repaint  [X] [Sc]
	[X] [S]  ==========>        \    ======>       \
	    / \                     [S]                <S>
	  <Sc> [Sd]                   \                  \
	                              [Sd]               [Sd]

rm5: Current node X's sibling S is black, nephew node Sd is red.
Ignore X's parent P's color (red or black is okay)
Unable to satisfy p4 (black-violation)
(1) If X is left node of P, left rotate P.
(2) If X is right node of P, right rotate P.
(3) Swap P and S's color (red-violation)
(4) Repaint Sd into black.

	  {P}                   [S]                {S}
	  / \    l-rotate(P)    / \     repaint    / \
	[X] [S]  ==========>  {P} <Sd>  ======>  [P] [Sd]
	    / \               / \                / \
	 [Sc] <Sd>          [X] [Sc]           [X] [Sc]
*/
func (tree *rbTree[K, V]) removeRebalance(x, p nodeRef) {
	for x != tree.root && tree.isBlack(x) {
		// Both children of P are NIL only if the tree was not a valid rbtree.
		dir := Right
		if tree.node(p).left == x {
			dir = Left
		}

		var sibling nodeRef
		if dir == Left {
			sibling = tree.node(p).right
		} else {
			sibling = tree.node(p).left
		}

		if /* rm1 */ tree.isRed(sibling) {
			tree.node(sibling).color = Black
			tree.node(p).color = Red // ready to enter rm2
			if dir == Left {
				tree.leftRotate(p)
				sibling = tree.node(p).right
			} else {
				tree.rightRotate(p)
				sibling = tree.node(p).left
			}
		}

		if sibling == nilRef {
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] remove violate (nil sibling)")
		}

		var sc, sd nodeRef
		if dir == Left {
			sc, sd = tree.node(sibling).left, tree.node(sibling).right
		} else {
			sc, sd = tree.node(sibling).right, tree.node(sibling).left
		}

		if tree.isBlack(sc) && tree.isBlack(sd) {
			// rm2 terminates at the red P and rm3 climbs up.
			tree.node(sibling).color = Red
			x, p = p, tree.parent(p)
			continue
		}

		if /* rm4 */ tree.isBlack(sd) {
			tree.node(sc).color = Black
			tree.node(sibling).color = Red
			if dir == Left {
				tree.rightRotate(sibling)
				sibling = tree.node(p).right
				sd = tree.node(sibling).right
			} else {
				tree.leftRotate(sibling)
				sibling = tree.node(p).left
				sd = tree.node(sibling).left
			}
		}

		/* rm5 */
		tree.node(sibling).color = tree.node(p).color
		tree.node(p).color = Black
		tree.paint(sd, Black)
		if dir == Left {
			tree.leftRotate(p)
		} else {
			tree.rightRotate(p)
		}
		x, p = tree.root, nilRef
	}
	tree.paint(x, Black)
}

// Height is computed by walking the subtree.
func (tree *rbTree[K, V]) Height(node Node[K, V]) int {
	return tree.subtreeHeight(tree.resolve(node))
}

func (tree *rbTree[K, V]) Color(node Node[K, V]) RBColor {
	return tree.color(tree.resolve(node))
}

func (tree *rbTree[K, V]) Foreach(action func(idx int64, color RBColor, key K, val V) bool) {
	tree.foreach(func(idx int64, n *bstNode[K, V]) bool {
		return action(idx, n.color, n.key, n.val)
	})
}

func (tree *rbTree[K, V]) walk(ref nodeRef, order traverseOrder, yield func(K, V) bool) bool {
	if ref == nilRef {
		return true
	}
	n := tree.node(ref)
	switch order {
	case preorder:
		return yield(n.key, n.val) &&
			tree.walk(n.left, order, yield) &&
			tree.walk(n.right, order, yield)
	case inorder:
		return tree.walk(n.left, order, yield) &&
			yield(n.key, n.val) &&
			tree.walk(n.right, order, yield)
	case postorder:
		return tree.walk(n.left, order, yield) &&
			tree.walk(n.right, order, yield) &&
			yield(n.key, n.val)
	default:
	}
	// impossible run to here
	panic( /* debug assertion */ "[rbtree] unknown traverse order")
}

func (tree *rbTree[K, V]) InorderTraverse() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		tree.walk(tree.root, inorder, yield)
	}
}

func (tree *rbTree[K, V]) PreorderTraverse() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		tree.walk(tree.root, preorder, yield)
	}
}

func (tree *rbTree[K, V]) PostorderTraverse() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		tree.walk(tree.root, postorder, yield)
	}
}

type RBTreeOpt[K infra.OrderedKey, V any] func(*rbTree[K, V])

func WithRBTreeDesc[K infra.OrderedKey, V any]() RBTreeOpt[K, V] {
	return func(tree *rbTree[K, V]) {
		tree.isDesc = true
	}
}

// WithRBTreeRemoveBorrowPred removes a node with two children by
// borrowing its pred instead of its succ.
func WithRBTreeRemoveBorrowPred[K infra.OrderedKey, V any]() RBTreeOpt[K, V] {
	return func(tree *rbTree[K, V]) {
		tree.isRmBorrowPred = true
	}
}

// WithRBTreeStats records rotations and operation depths through the provider.
// The nil provider means the global one.
func WithRBTreeStats[K infra.OrderedKey, V any](provider metric.MeterProvider) RBTreeOpt[K, V] {
	return func(tree *rbTree[K, V]) {
		tree.isStatsEnabled = true
		tree.meterProvider = provider
	}
}

func NewRBTree[K infra.OrderedKey, V any](opts ...RBTreeOpt[K, V]) RBTree[K, V] {
	tree := &rbTree[K, V]{}
	for _, o := range opts {
		o(tree)
	}
	tree.init(tree.isDesc)
	if tree.isStatsEnabled {
		tree.stats = newTreeStats("rb", tree.meterProvider)
	}
	return tree
}

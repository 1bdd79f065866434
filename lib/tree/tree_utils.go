package tree

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/xforest/lib/infra"
)

func isBlack[K infra.OrderedKey, V any](tree RBTree[K, V], node Node[K, V]) bool {
	return node == nil || tree.Color(node) == Black
}

func isRed[K infra.OrderedKey, V any](tree RBTree[K, V], node Node[K, V]) bool {
	return node != nil && tree.Color(node) == Red
}

func isRoot[K infra.OrderedKey, V any](node Node[K, V]) bool {
	return node != nil && node.Parent() == nil
}

func blackDepthTo[K infra.OrderedKey, V any](tree RBTree[K, V], target, to Node[K, V]) int {
	depth := 0
	for aux := target; aux != to; aux = aux.Parent() {
		if isBlack[K, V](tree, aux) {
			depth++
		}
	}
	return depth
}

// tree rule validation utilities.

// References:
// https://github1s.com/minghu6/rust-minghu6/blob/master/coll_st/src/bst/rb.rs

// Inorder traversal to visit all nodes.
func inorderNodes[K infra.OrderedKey, V any](tree BinaryTree[K, V], action func(node Node[K, V]) error) error {
	aux := tree.Root()
	if aux == nil {
		return nil
	}

	stack := make([]Node[K, V], 0, tree.Len()>>1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.Left() {
		stack = append(stack, aux)
	}

	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		if err := action(aux); err != nil {
			return err
		}
		stack = stack[:size-1]
		for aux = aux.Right(); aux != nil; aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
	return nil
}

func RedViolationValidate[K infra.OrderedKey, V any](tree RBTree[K, V]) error {
	if root := tree.Root(); isRed[K, V](tree, root) {
		return ErrRootViolation
	}
	return inorderNodes[K, V](tree, func(aux Node[K, V]) error {
		if isRed[K, V](tree, aux) && (isRed[K, V](tree, aux.Left()) || isRed[K, V](tree, aux.Right())) {
			return fmt.Errorf("%w at key %v", ErrRedViolation, aux.Key())
		}
		return nil
	})
}

// BFS traversal to load all nodes with at least one NIL leaf.
func bfsLeaves[K infra.OrderedKey, V any](tree BinaryTree[K, V]) []Node[K, V] {
	aux := tree.Root()
	if aux == nil {
		return nil
	}

	leaves := make([]Node[K, V], 0, tree.Len()>>1+1)
	queue := make([]Node[K, V], 0, tree.Len()>>1)
	defer func() {
		clear(queue)
	}()
	queue = append(queue, aux)

	for len(queue) > 0 {
		aux = queue[0]
		l, r := aux.Left(), aux.Right()
		if /* nil leaves, keep one */ l == nil || r == nil {
			leaves = append(leaves, aux)
		}
		if l != nil {
			queue = append(queue, l)
		}
		if r != nil {
			queue = append(queue, r)
		}
		queue = queue[1:]
	}
	return leaves
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            [16]

2-3-4 tree like:

	       <8> --- [13] --- <15>
		  /  \             /    \
		 /    \           /      \
	  <1>-[6][11]      [14] <16>-[17]

Each leaf node to root node black depth are equal.
*/
func BlackViolationValidate[K infra.OrderedKey, V any](tree RBTree[K, V]) error {
	leaves := bfsLeaves[K, V](tree)
	if leaves == nil {
		return nil
	}

	blackDepth := blackDepthTo[K, V](tree, leaves[0], nil)
	for i := 1; i < len(leaves); i++ {
		if depth := blackDepthTo[K, V](tree, leaves[i], nil); depth != blackDepth {
			return fmt.Errorf("%w at key %v, black depth %d, expected %d",
				ErrBlackViolation, leaves[i].Key(), depth, blackDepth)
		}
	}
	return nil
}

// BalanceViolationValidate checks both the AVL balance and the stored
// heights against the recomputed ones.
func BalanceViolationValidate[K infra.OrderedKey, V any](tree AVLTree[K, V]) error {
	var check func(node Node[K, V]) (int, error)
	check = func(node Node[K, V]) (int, error) {
		if node == nil {
			return -1, nil
		}
		hl, err := check(node.Left())
		if err != nil {
			return 0, err
		}
		hr, err := check(node.Right())
		if err != nil {
			return 0, err
		}
		if bf := hl - hr; bf > 1 || bf < -1 {
			return 0, fmt.Errorf("%w at key %v, balance factor %d", ErrAVLViolation, node.Key(), bf)
		}
		h := 1 + max(hl, hr)
		if stored := tree.Height(node); stored != h {
			return 0, fmt.Errorf("%w at key %v, stored height %d, actual %d", ErrAVLViolation, node.Key(), stored, h)
		}
		return h, nil
	}
	_, err := check(tree.Root())
	return err
}

// OrderViolationValidate checks that the inorder keys strictly follow
// the order of the tree. isDesc must match the tree option.
func OrderViolationValidate[K infra.OrderedKey, V any](tree BinaryTree[K, V], isDesc bool) error {
	compare := infra.AscKeyComparator[K]()
	if isDesc {
		compare = infra.DescKeyComparator[K]()
	}
	var (
		prev    K
		hasPrev bool
		count   int64
	)
	err := inorderNodes[K, V](tree, func(aux Node[K, V]) error {
		if hasPrev && compare(prev, aux.Key()) >= 0 {
			return fmt.Errorf("%w, %v is not before %v", ErrOrderViolation, prev, aux.Key())
		}
		prev, hasPrev = aux.Key(), true
		count++
		return nil
	})
	if err != nil {
		return err
	}
	if count != tree.Len() {
		return fmt.Errorf("%w, %d nodes reachable but len is %d", ErrOrderViolation, count, tree.Len())
	}
	return nil
}

// ParentLinkValidate checks that every child points back to its parent.
func ParentLinkValidate[K infra.OrderedKey, V any](tree BinaryTree[K, V]) error {
	if root := tree.Root(); root != nil && !isRoot[K, V](root) {
		return fmt.Errorf("%w, root has a parent", ErrLinkViolation)
	}
	return inorderNodes[K, V](tree, func(aux Node[K, V]) error {
		if l := aux.Left(); l != nil && l.Parent() != aux {
			return fmt.Errorf("%w at key %v (left)", ErrLinkViolation, aux.Key())
		}
		if r := aux.Right(); r != nil && r.Parent() != aux {
			return fmt.Errorf("%w at key %v (right)", ErrLinkViolation, aux.Key())
		}
		return nil
	})
}

func ValidateAVLTree[K infra.OrderedKey, V any](tree AVLTree[K, V], isDesc bool) error {
	return multierr.Combine(
		OrderViolationValidate[K, V](tree, isDesc),
		ParentLinkValidate[K, V](tree),
		BalanceViolationValidate[K, V](tree),
	)
}

func ValidateRBTree[K infra.OrderedKey, V any](tree RBTree[K, V], isDesc bool) error {
	return multierr.Combine(
		OrderViolationValidate[K, V](tree, isDesc),
		ParentLinkValidate[K, V](tree),
		RedViolationValidate[K, V](tree),
		BlackViolationValidate[K, V](tree),
	)
}

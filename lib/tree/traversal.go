package tree

import (
	"iter"

	"github.com/benz9527/xforest/lib/infra"
)

type traverseOrder uint8

const (
	preorder traverseOrder = iota
	inorder
	reverseInorder
	postorder
)

// The traversals below only depend on the Node contract, so they serve
// both engines. Each returned sequence is lazy and restartable, and
// stops as soon as the consumer breaks.

func walkRecursive[K infra.OrderedKey, V any](node Node[K, V], order traverseOrder, yield func(K, V) bool) bool {
	if node == nil {
		return true
	}
	switch order {
	case preorder:
		return yield(node.Key(), node.Val()) &&
			walkRecursive(node.Left(), order, yield) &&
			walkRecursive(node.Right(), order, yield)
	case inorder:
		return walkRecursive(node.Left(), order, yield) &&
			yield(node.Key(), node.Val()) &&
			walkRecursive(node.Right(), order, yield)
	case reverseInorder:
		return walkRecursive(node.Right(), order, yield) &&
			yield(node.Key(), node.Val()) &&
			walkRecursive(node.Left(), order, yield)
	case postorder:
		return walkRecursive(node.Left(), order, yield) &&
			walkRecursive(node.Right(), order, yield) &&
			yield(node.Key(), node.Val())
	default:
	}
	// impossible run to here
	panic( /* debug assertion */ "[tree] unknown recursive traverse order")
}

func InorderTraverse[K infra.OrderedKey, V any](tree BinaryTree[K, V], recursive bool) iter.Seq2[K, V] {
	if recursive {
		return func(yield func(K, V) bool) {
			walkRecursive(tree.Root(), inorder, yield)
		}
	}
	return func(yield func(K, V) bool) {
		stack := make([]Node[K, V], 0, 32)
		for aux := tree.Root(); aux != nil || len(stack) > 0; {
			for ; aux != nil; aux = aux.Left() {
				stack = append(stack, aux)
			}
			aux = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(aux.Key(), aux.Val()) {
				return
			}
			aux = aux.Right()
		}
	}
}

func ReverseInorderTraverse[K infra.OrderedKey, V any](tree BinaryTree[K, V], recursive bool) iter.Seq2[K, V] {
	if recursive {
		return func(yield func(K, V) bool) {
			walkRecursive(tree.Root(), reverseInorder, yield)
		}
	}
	return func(yield func(K, V) bool) {
		stack := make([]Node[K, V], 0, 32)
		for aux := tree.Root(); aux != nil || len(stack) > 0; {
			for ; aux != nil; aux = aux.Right() {
				stack = append(stack, aux)
			}
			aux = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(aux.Key(), aux.Val()) {
				return
			}
			aux = aux.Left()
		}
	}
}

func PreorderTraverse[K infra.OrderedKey, V any](tree BinaryTree[K, V], recursive bool) iter.Seq2[K, V] {
	if recursive {
		return func(yield func(K, V) bool) {
			walkRecursive(tree.Root(), preorder, yield)
		}
	}
	return func(yield func(K, V) bool) {
		root := tree.Root()
		if root == nil {
			return
		}
		stack := []Node[K, V]{root}
		for len(stack) > 0 {
			aux := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(aux.Key(), aux.Val()) {
				return
			}
			// Right first, so the left subtree pops first.
			if r := aux.Right(); r != nil {
				stack = append(stack, r)
			}
			if l := aux.Left(); l != nil {
				stack = append(stack, l)
			}
		}
	}
}

// The explicit stack form of postorder keeps the last yielded node to
// know whether the right subtree of the stack top is already done.
func PostorderTraverse[K infra.OrderedKey, V any](tree BinaryTree[K, V], recursive bool) iter.Seq2[K, V] {
	if recursive {
		return func(yield func(K, V) bool) {
			walkRecursive(tree.Root(), postorder, yield)
		}
	}
	return func(yield func(K, V) bool) {
		var (
			stack = make([]Node[K, V], 0, 32)
			last  Node[K, V]
		)
		for aux := tree.Root(); aux != nil || len(stack) > 0; {
			if aux != nil {
				stack = append(stack, aux)
				aux = aux.Left()
				continue
			}
			top := stack[len(stack)-1]
			if r := top.Right(); r != nil && r != last {
				aux = r
				continue
			}
			stack = stack[:len(stack)-1]
			if !yield(top.Key(), top.Val()) {
				return
			}
			last = top
		}
	}
}

// LevelorderTraverse is the BFS from the root, left to right per level.
func LevelorderTraverse[K infra.OrderedKey, V any](tree BinaryTree[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		root := tree.Root()
		if root == nil {
			return
		}
		queue := []Node[K, V]{root}
		for len(queue) > 0 {
			aux := queue[0]
			queue = queue[1:]
			if !yield(aux.Key(), aux.Val()) {
				return
			}
			if l := aux.Left(); l != nil {
				queue = append(queue, l)
			}
			if r := aux.Right(); r != nil {
				queue = append(queue, r)
			}
		}
	}
}

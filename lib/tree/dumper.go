package tree

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/benz9527/xforest/lib/infra"
)

const emptyNodeSymbol = "∅"

// Fprint renders the tree sideways, right subtree up and left subtree
// down, one node per line indented by its depth. Each key is followed by
// its height on an AVL tree or its color initial on a red-black tree.
// An absent child is shown as ∅ when its sibling is present.
func Fprint[K infra.OrderedKey, V any](w io.Writer, tree BinaryTree[K, V]) error {
	var annotate func(node Node[K, V]) string
	switch t := tree.(type) {
	case AVLTree[K, V]:
		annotate = func(node Node[K, V]) string {
			return fmt.Sprint(t.Height(node))
		}
	case RBTree[K, V]:
		annotate = func(node Node[K, V]) string {
			return t.Color(node).String()[:1]
		}
	default:
		annotate = func(node Node[K, V]) string {
			return fmt.Sprint(tree.Height(node))
		}
	}

	bw := bufio.NewWriter(w)
	var dump func(node Node[K, V], level int)
	dump = func(node Node[K, V], level int) {
		indent := strings.Repeat("\t", level)
		if node == nil {
			_, _ = fmt.Fprintln(bw, indent+emptyNodeSymbol)
			return
		}
		l, r := node.Left(), node.Right()
		if l == nil && r == nil {
			_, _ = fmt.Fprintln(bw, indent, node.Key(), annotate(node))
			return
		}
		dump(r, level+1)
		_, _ = fmt.Fprintln(bw, indent, node.Key(), annotate(node))
		dump(l, level+1)
	}
	dump(tree.Root(), 0)
	return bw.Flush()
}

package tree

import (
	"errors"
	"iter"
	"math"
	randv2 "math/rand/v2"
	"slices"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

var basicTreeKeys = []int{23, 4, 30, 11, 7, 34, 20, 24, 22, 15, 1}

func collectKeys[K comparable, V any](seq iter.Seq2[K, V]) []K {
	keys := make([]K, 0, 16)
	for k := range seq {
		keys = append(keys, k)
	}
	return keys
}

func newBasicAVLTree(t *testing.T) AVLTree[int, string] {
	tree := NewAVLTree[int, string]()
	for _, key := range basicTreeKeys {
		require.NoError(t, tree.Insert(key, strconv.Itoa(key)))
	}
	return tree
}

func sortedKeys(keys []int) []int {
	sorted := slices.Clone(keys)
	sort.Ints(sorted)
	return sorted
}

func TestAVLTree_Basic(t *testing.T) {
	tree := newBasicAVLTree(t)
	require.NoError(t, ValidateAVLTree[int, string](tree, false))
	require.Equal(t, int64(len(basicTreeKeys)), tree.Len())
	require.False(t, tree.Empty())

	root := tree.Root()
	require.Equal(t, 23, root.Key())
	require.Equal(t, 3, tree.Height(root))
	require.Equal(t, -1, tree.Height(nil))
	require.Equal(t, 1, tree.Leftmost(root).Key())
	require.Equal(t, 34, tree.Rightmost(root).Key())
	require.Equal(t, sortedKeys(basicTreeKeys), collectKeys(InorderTraverse[int, string](tree, false)))
	require.Equal(t, []int{23, 11, 4, 1, 7, 20, 15, 22, 30, 24, 34}, collectKeys(PreorderTraverse[int, string](tree, true)))
	require.Equal(t, []int{1, 7, 4, 15, 22, 20, 11, 24, 34, 30, 23}, collectKeys(PostorderTraverse[int, string](tree, true)))
	require.Equal(t, []int{23, 11, 30, 4, 20, 24, 34, 1, 7, 15, 22}, collectKeys(LevelorderTraverse[int, string](tree)))

	for _, key := range basicTreeKeys {
		node := tree.Search(key)
		require.NotNil(t, node)
		require.Equal(t, key, node.Key())
		require.Equal(t, strconv.Itoa(key), node.Val())
		require.Equal(t, node, tree.Search(key))
	}
	require.Nil(t, tree.Search(999))

	tree.Foreach(func(idx int64, height int, key int, val string) bool {
		require.Equal(t, tree.Height(tree.Search(key)), height)
		return true
	})

	require.Equal(t, 0, tree.BalanceFactor(nil))
	require.Equal(t, 1, tree.BalanceFactor(root))
	for _, key := range basicTreeKeys {
		node := tree.Search(key)
		bf := tree.BalanceFactor(node)
		require.Equal(t, tree.Height(node.Left())-tree.Height(node.Right()), bf)
		require.LessOrEqual(t, bf, 1)
		require.GreaterOrEqual(t, bf, -1)
		if key != 23 {
			require.Equal(t, 0, bf)
		}
	}
}

func TestAVLTree_SuccessorAndPredecessor(t *testing.T) {
	tree := newBasicAVLTree(t)

	testcases := []struct {
		key  int
		succ int
		pred int
	}{
		{7, 11, 4},
		{15, 20, 11},
		{22, 23, 20},
		{34, -1, 30},
		{1, 4, -1},
	}
	for _, tc := range testcases {
		t.Run(strconv.Itoa(tc.key), func(tt *testing.T) {
			node := tree.Search(tc.key)
			require.NotNil(tt, node)
			if succ := tree.Successor(node); tc.succ < 0 {
				require.Nil(tt, succ)
			} else {
				require.Equal(tt, tc.succ, succ.Key())
			}
			if pred := tree.Predecessor(node); tc.pred < 0 {
				require.Nil(tt, pred)
			} else {
				require.Equal(tt, tc.pred, pred.Key())
			}
		})
	}
}

func TestAVLTree_Delete(t *testing.T) {
	tree := newBasicAVLTree(t)

	require.True(t, tree.Delete(15))
	require.Nil(t, tree.Search(15))
	require.Equal(t, []int{1, 4, 7, 11, 20, 22, 23, 24, 30, 34}, collectKeys(InorderTraverse[int, string](tree, true)))
	require.Equal(t, []int{23, 11, 4, 1, 7, 20, 22, 30, 24, 34}, collectKeys(PreorderTraverse[int, string](tree, false)))
	require.NoError(t, ValidateAVLTree[int, string](tree, false))

	require.True(t, tree.Delete(7))
	require.Equal(t, []int{1, 4, 11, 20, 22, 23, 24, 30, 34}, collectKeys(InorderTraverse[int, string](tree, true)))
	require.Equal(t, []int{23, 11, 4, 1, 20, 22, 30, 24, 34}, collectKeys(PreorderTraverse[int, string](tree, false)))
	require.NoError(t, ValidateAVLTree[int, string](tree, false))

	require.NoError(t, tree.Insert(9, "9"))
	// Two children, the succ 20 is copied into the node of 11.
	require.True(t, tree.Delete(11))
	require.Equal(t, []int{1, 4, 9, 20, 22, 23, 24, 30, 34}, collectKeys(InorderTraverse[int, string](tree, true)))
	require.Equal(t, []int{23, 20, 4, 1, 9, 22, 30, 24, 34}, collectKeys(PreorderTraverse[int, string](tree, false)))
	require.Equal(t, "20", tree.Search(20).Val())
	require.NoError(t, ValidateAVLTree[int, string](tree, false))

	require.True(t, tree.Delete(23))
	require.Equal(t, []int{1, 4, 9, 20, 22, 24, 30, 34}, collectKeys(InorderTraverse[int, string](tree, true)))
	require.Equal(t, []int{24, 20, 4, 1, 9, 22, 30, 34}, collectKeys(PreorderTraverse[int, string](tree, false)))
	require.Equal(t, int64(8), tree.Len())
	require.NoError(t, ValidateAVLTree[int, string](tree, false))
}

// avlShape returns the preorder keys and the inorder heights.
func avlShape(tree AVLTree[int, string]) (preorder, heights []int) {
	tree.Foreach(func(idx int64, height int, key int, val string) bool {
		heights = append(heights, height)
		return true
	})
	return collectKeys(PreorderTraverse[int, string](tree, false)), heights
}

func TestAVLTree_DuplicateKey(t *testing.T) {
	tree := newBasicAVLTree(t)
	keys, heights := avlShape(tree)

	// Root, inner node and leaf.
	for _, key := range []int{23, 11, 22} {
		err := tree.Insert(key, "dup")
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrDuplicateKey))
		var dupErr *DuplicateKeyError[int]
		require.True(t, errors.As(err, &dupErr))
		require.Equal(t, key, dupErr.Key)
		require.Equal(t, strconv.Itoa(key), tree.Search(key).Val())

		gotKeys, gotHeights := avlShape(tree)
		require.Equal(t, keys, gotKeys)
		require.Equal(t, heights, gotHeights)
		require.Equal(t, int64(len(basicTreeKeys)), tree.Len())
		require.NoError(t, ValidateAVLTree[int, string](tree, false))
	}

	require.True(t, tree.Update(23, "b"))
	require.Equal(t, "b", tree.Search(23).Val())
	require.False(t, tree.Update(25, "c"))
	gotKeys, _ := avlShape(tree)
	require.Equal(t, keys, gotKeys)
}

func TestAVLTree_DeleteAbsentKey(t *testing.T) {
	tree := newBasicAVLTree(t)
	before := collectKeys(PreorderTraverse[int, string](tree, true))
	require.False(t, tree.Delete(999))
	require.Equal(t, before, collectKeys(PreorderTraverse[int, string](tree, true)))
	require.Equal(t, int64(len(basicTreeKeys)), tree.Len())

	empty := NewAVLTree[int, string]()
	require.False(t, empty.Delete(1))
	require.True(t, empty.Empty())
	require.Nil(t, empty.Root())
}

func TestAVLTree_StaleNode(t *testing.T) {
	tree := newBasicAVLTree(t)
	leaf := tree.Search(15)
	require.NotNil(t, leaf)
	require.True(t, tree.Delete(15))
	require.Panics(t, func() {
		_ = leaf.Key()
	})
	require.Panics(t, func() {
		tree.Successor(leaf)
	})

	// The recycled slot must not revive the old handle.
	require.NoError(t, tree.Insert(16, "16"))
	require.Panics(t, func() {
		_ = leaf.Val()
	})

	other := newBasicAVLTree(t)
	require.Panics(t, func() {
		tree.Successor(other.Root())
	})
	require.Panics(t, func() {
		tree.Leftmost(nil)
	})

	root := tree.Root()
	tree.Release()
	require.True(t, tree.Empty())
	require.Equal(t, int64(0), tree.Len())
	require.Panics(t, func() {
		_ = root.Key()
	})
	require.NoError(t, tree.Insert(1, "1"))
	require.Panics(t, func() {
		_ = root.Key()
	})
}

func TestAVLTree_Desc(t *testing.T) {
	tree := NewAVLTree[int, string](WithAVLTreeDesc[int, string]())
	for _, key := range basicTreeKeys {
		require.NoError(t, tree.Insert(key, strconv.Itoa(key)))
	}
	expected := sortedKeys(basicTreeKeys)
	slices.Reverse(expected)
	require.Equal(t, expected, collectKeys(InorderTraverse[int, string](tree, false)))
	require.Equal(t, 34, tree.Leftmost(tree.Root()).Key())
	require.NoError(t, ValidateAVLTree[int, string](tree, true))
	require.Error(t, OrderViolationValidate[int, string](tree, false))
}

func avlHeightBound(n int) float64 {
	return 1.4405*math.Log2(float64(n+2)) - 0.3277
}

func TestAVLTree_SequentialInsertAndDelete(t *testing.T) {
	tree := NewAVLTree[uint64, uint64]()
	const total = 4096
	for i := uint64(0); i < total; i++ {
		require.NoError(t, tree.Insert(i, i))
	}
	require.NoError(t, ValidateAVLTree[uint64, uint64](tree, false))
	require.LessOrEqual(t, float64(tree.Height(tree.Root())), avlHeightBound(total))

	for i := uint64(0); i < total; i += 2 {
		require.True(t, tree.Delete(i))
	}
	require.NoError(t, ValidateAVLTree[uint64, uint64](tree, false))
	require.Equal(t, int64(total/2), tree.Len())

	for i := uint64(1); i < total; i += 2 {
		require.True(t, tree.Delete(i))
	}
	require.True(t, tree.Empty())
	require.Equal(t, int64(0), tree.Len())
}

func TestAVLTree_RandomInsertAndDelete(t *testing.T) {
	testcases := []struct {
		name    string
		total   int
		deletes int
	}{
		{"1000 insert 500 delete", 1000, 500},
		{"2048 insert 2048 delete", 2048, 2048},
		{"100 insert 1 delete", 100, 1},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			tree := NewAVLTree[int, int]()
			keys := randv2.Perm(tc.total * 10)[:tc.total]
			for _, key := range keys {
				require.NoError(tt, tree.Insert(key, key*2))
			}
			require.NoError(tt, ValidateAVLTree[int, int](tree, false))
			require.LessOrEqual(tt, float64(tree.Height(tree.Root())), avlHeightBound(tc.total))

			randv2.Shuffle(len(keys), func(i, j int) {
				keys[i], keys[j] = keys[j], keys[i]
			})
			for _, key := range keys[:tc.deletes] {
				require.True(tt, tree.Delete(key))
				require.Nil(tt, tree.Search(key))
			}
			require.NoError(tt, ValidateAVLTree[int, int](tree, false))

			rest := sortedKeys(keys[tc.deletes:])
			require.Equal(tt, int64(len(rest)), tree.Len())
			if len(rest) == 0 {
				require.True(tt, tree.Empty())
				return
			}
			for k, v := range InorderTraverse[int, int](tree, false) {
				require.Equal(tt, rest[0], k)
				require.Equal(tt, k*2, v)
				rest = rest[1:]
			}
			require.Empty(tt, rest)
			require.LessOrEqual(tt, float64(tree.Height(tree.Root())), avlHeightBound(int(tree.Len())))
		})
	}
}

func BenchmarkAVLTree_RandomInsert(b *testing.B) {
	tree := NewAVLTree[uint64, uint64]()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := randv2.Uint64()
		_ = tree.Insert(key, key)
	}
	b.ReportAllocs()
}

func BenchmarkAVLTree_Search(b *testing.B) {
	tree := NewAVLTree[int, int]()
	for i := 0; i < 1<<16; i++ {
		_ = tree.Insert(i, i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tree.Search(i & (1<<16 - 1))
	}
	b.ReportAllocs()
}

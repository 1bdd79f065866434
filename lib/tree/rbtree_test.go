package tree

import (
	"math"
	randv2 "math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

type rbCheckData struct {
	color RBColor
	key   uint64
}

func requireRBTreeColors(t *testing.T, tree RBTree[uint64, uint64], expected []rbCheckData) {
	t.Helper()
	require.Equal(t, int64(len(expected)), tree.Len())
	tree.Foreach(func(idx int64, color RBColor, key uint64, val uint64) bool {
		require.Equal(t, expected[idx].color, color)
		require.Equal(t, expected[idx].key, key)
		return true
	})
	require.NoError(t, ValidateRBTree[uint64, uint64](tree, false))
}

func TestNilNode(t *testing.T) {
	tree := NewRBTree[uint64, uint64]()
	var nilNode Node[uint64, uint64] = tree.Root()
	require.True(t, nilNode == nil)
	require.Equal(t, Black, tree.Color(nil))
	require.Equal(t, -1, tree.Height(nil))

	require.NoError(t, tree.Insert(1, 1))
	require.Nil(t, tree.Root().Left())
	require.Nil(t, tree.Root().Right())
	require.Nil(t, tree.Root().Parent())
}

func TestRbtreeLeftAndRightRotate(t *testing.T) {
	insertExpected := [][]rbCheckData{
		{{Black, 52}},
		{{Red, 47}, {Black, 52}},
		{{Red, 3}, {Black, 47}, {Red, 52}},
		{{Black, 3}, {Red, 35}, {Black, 47}, {Black, 52}},
		{{Red, 3}, {Black, 24}, {Red, 35}, {Black, 47}, {Black, 52}},
	}

	testcases := []struct {
		name           string
		opts           []RBTreeOpt[uint64, uint64]
		removeExpected [][]rbCheckData
	}{
		{
			name: "borrow succ",
			removeExpected: [][]rbCheckData{
				{{Red, 3}, {Black, 35}, {Black, 47}, {Black, 52}},
				{{Black, 3}, {Black, 35}, {Black, 52}},
				{{Red, 3}, {Black, 35}},
				{{Black, 35}},
				{},
			},
		},
		{
			name: "borrow pred",
			opts: []RBTreeOpt[uint64, uint64]{WithRBTreeRemoveBorrowPred[uint64, uint64]()},
			removeExpected: [][]rbCheckData{
				{{Black, 3}, {Red, 35}, {Black, 47}, {Black, 52}},
				{{Black, 3}, {Black, 35}, {Black, 52}},
				{{Red, 3}, {Black, 35}},
				{{Black, 35}},
				{},
			},
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			tree := NewRBTree[uint64, uint64](tc.opts...)
			for i, key := range []uint64{52, 47, 3, 35, 24} {
				require.NoError(tt, tree.Insert(key, 1))
				requireRBTreeColors(tt, tree, insertExpected[i])
			}

			for i, key := range []uint64{24, 47, 52, 3, 35} {
				require.True(tt, tree.Delete(key))
				require.Nil(tt, tree.Search(key))
				requireRBTreeColors(tt, tree, tc.removeExpected[i])
			}
			require.True(tt, tree.Empty())
		})
	}
}

func TestRbtree_RemoveMin(t *testing.T) {
	tree := NewRBTree[uint64, uint64]()
	for _, key := range []uint64{52, 47, 3, 35, 24} {
		require.NoError(t, tree.Insert(key, key+1))
	}
	requireRBTreeColors(t, tree, []rbCheckData{
		{Red, 3}, {Black, 24}, {Red, 35}, {Black, 47}, {Black, 52},
	})

	// remove min

	expected := [][]rbCheckData{
		{{Black, 24}, {Red, 35}, {Black, 47}, {Black, 52}},
		{{Black, 35}, {Black, 47}, {Black, 52}},
		{{Black, 47}, {Red, 52}},
		{{Black, 52}},
		{},
	}
	for i, minKey := range []uint64{3, 24, 35, 47, 52} {
		key, val, err := tree.RemoveMin()
		require.NoError(t, err)
		require.Equal(t, minKey, key)
		require.Equal(t, minKey+1, val)
		requireRBTreeColors(t, tree, expected[i])
	}

	_, _, err := tree.RemoveMin()
	require.ErrorIs(t, err, ErrTreeEmpty)
}

func TestRBTree_Basic(t *testing.T) {
	tree := NewRBTree[int, string]()
	for _, key := range basicTreeKeys {
		require.NoError(t, tree.Insert(key, strconv.Itoa(key)))
	}
	require.NoError(t, ValidateRBTree[int, string](tree, false))

	root := tree.Root()
	require.Equal(t, 20, root.Key())
	require.Equal(t, Black, tree.Color(root))
	require.Equal(t, 3, tree.Height(root))
	require.Equal(t, 0, tree.Height(tree.Search(1)))
	require.Equal(t, 1, tree.Leftmost(root).Key())
	require.Equal(t, 34, tree.Rightmost(root).Key())

	require.Equal(t, sortedKeys(basicTreeKeys), collectKeys(tree.InorderTraverse()))
	require.Equal(t, []int{20, 7, 4, 1, 11, 15, 23, 22, 30, 24, 34}, collectKeys(tree.PreorderTraverse()))
	require.Equal(t, []int{1, 4, 15, 11, 7, 22, 24, 34, 30, 23, 20}, collectKeys(tree.PostorderTraverse()))
	require.Equal(t, []int{20, 7, 23, 4, 11, 22, 30, 1, 15, 24, 34}, collectKeys(LevelorderTraverse[int, string](tree)))

	colors := make([]string, 0, len(basicTreeKeys))
	tree.Foreach(func(idx int64, color RBColor, key int, val string) bool {
		colors = append(colors, color.String()[:1]+strconv.Itoa(key))
		return true
	})
	require.Equal(t, []string{"R1", "B4", "R7", "B11", "R15", "B20", "B22", "R23", "R24", "B30", "R34"}, colors)

	node := tree.Search(15)
	require.Equal(t, 20, tree.Successor(node).Key())
	require.Equal(t, 11, tree.Predecessor(node).Key())
	require.Nil(t, tree.Successor(tree.Search(34)))
	require.Nil(t, tree.Predecessor(tree.Search(1)))

	require.True(t, tree.Delete(15))
	require.Nil(t, tree.Search(15))
	require.False(t, tree.Delete(999))
	require.NoError(t, ValidateRBTree[int, string](tree, false))
	require.Equal(t, []int{1, 4, 7, 11, 20, 22, 23, 24, 30, 34}, collectKeys(tree.InorderTraverse()))
}

func TestRBTree_DuplicateKey(t *testing.T) {
	tree := NewRBTree[int, string]()
	for _, key := range basicTreeKeys {
		require.NoError(t, tree.Insert(key, strconv.Itoa(key)))
	}
	shape := func() ([]int, []RBColor) {
		colors := make([]RBColor, 0, len(basicTreeKeys))
		tree.Foreach(func(idx int64, color RBColor, key int, val string) bool {
			colors = append(colors, color)
			return true
		})
		return collectKeys(tree.PreorderTraverse()), colors
	}
	preorder, colors := shape()

	// Root, inner node and leaf.
	for _, key := range []int{20, 23, 34} {
		err := tree.Insert(key, "dup")
		require.ErrorIs(t, err, ErrDuplicateKey)
		require.EqualError(t, err, "[tree] a node with key "+strconv.Itoa(key)+" already exists")
		require.Equal(t, strconv.Itoa(key), tree.Search(key).Val())

		gotPreorder, gotColors := shape()
		require.Equal(t, preorder, gotPreorder)
		require.Equal(t, colors, gotColors)
		require.Equal(t, int64(len(basicTreeKeys)), tree.Len())
		require.NoError(t, ValidateRBTree[int, string](tree, false))
	}

	require.True(t, tree.Update(20, "b"))
	require.Equal(t, "b", tree.Search(20).Val())
	require.False(t, tree.Update(21, "c"))
	gotPreorder, _ := shape()
	require.Equal(t, preorder, gotPreorder)
}

func TestRBTree_TraverseEarlyBreak(t *testing.T) {
	tree := NewRBTree[int, int]()
	for i := 0; i < 100; i++ {
		require.NoError(t, tree.Insert(i, i))
	}
	count := 0
	for k := range tree.InorderTraverse() {
		if k >= 9 {
			break
		}
		count++
	}
	require.Equal(t, 9, count)

	// Restartable.
	require.Len(t, collectKeys(tree.PostorderTraverse()), 100)
	require.Len(t, collectKeys(tree.PostorderTraverse()), 100)
}

func rbHeightBound(n int) float64 {
	return 2 * math.Log2(float64(n+1))
}

func TestRBTree_RandomInsertAndDelete(t *testing.T) {
	testcases := []struct {
		name    string
		opts    []RBTreeOpt[uint64, int]
		total   int
		deletes int
	}{
		{"1000 insert 500 delete", nil, 1000, 500},
		{"1000 insert 500 delete borrow pred", []RBTreeOpt[uint64, int]{WithRBTreeRemoveBorrowPred[uint64, int]()}, 1000, 500},
		{"4096 insert 4096 delete", nil, 4096, 4096},
		{"desc 512 insert 256 delete", []RBTreeOpt[uint64, int]{WithRBTreeDesc[uint64, int]()}, 512, 256},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			tree := NewRBTree[uint64, int](tc.opts...)
			isDesc := tree.(*rbTree[uint64, int]).isDesc
			keys := make(map[uint64]int, tc.total)
			for len(keys) < tc.total {
				key := randv2.Uint64N(1 << 40)
				if _, ok := keys[key]; ok {
					continue
				}
				keys[key] = len(keys)
				require.NoError(tt, tree.Insert(key, keys[key]))
			}
			require.NoError(tt, ValidateRBTree[uint64, int](tree, isDesc))
			require.LessOrEqual(tt, float64(tree.Height(tree.Root())), rbHeightBound(tc.total))

			deleted := 0
			for key := range keys {
				if deleted >= tc.deletes {
					break
				}
				require.True(tt, tree.Delete(key))
				delete(keys, key)
				deleted++
			}
			require.NoError(tt, ValidateRBTree[uint64, int](tree, isDesc))
			require.Equal(tt, int64(len(keys)), tree.Len())
			for k, v := range tree.InorderTraverse() {
				expected, ok := keys[k]
				require.True(tt, ok)
				require.Equal(tt, expected, v)
			}
			if len(keys) == 0 {
				require.True(tt, tree.Empty())
			} else {
				require.LessOrEqual(tt, float64(tree.Height(tree.Root())), rbHeightBound(len(keys)))
			}
		})
	}
}

func BenchmarkRBTree_RandomInsert(b *testing.B) {
	tree := NewRBTree[uint64, uint64]()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := randv2.Uint64()
		_ = tree.Insert(key, key)
	}
	b.ReportAllocs()
}

func BenchmarkRBTree_RandomInsertAndDelete(b *testing.B) {
	tree := NewRBTree[uint64, uint64]()
	for i := uint64(0); i < 1<<16; i++ {
		_ = tree.Insert(i, i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := randv2.Uint64N(1 << 16)
		if !tree.Delete(key) {
			_ = tree.Insert(key, key)
		}
	}
	b.ReportAllocs()
}

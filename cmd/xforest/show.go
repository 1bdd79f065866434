package main

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benz9527/xforest/lib/tree"
)

var (
	errUnknownEngine   = errors.New("[xforest] engine must be avl or rb")
	errUnknownTraverse = errors.New("[xforest] traverse must be pre, in, post, reverse or level")
)

var traversals = map[string]func(tree.BinaryTree[int, int]) iter.Seq2[int, int]{
	"pre": func(bt tree.BinaryTree[int, int]) iter.Seq2[int, int] {
		return tree.PreorderTraverse[int, int](bt, false)
	},
	"in": func(bt tree.BinaryTree[int, int]) iter.Seq2[int, int] {
		return tree.InorderTraverse[int, int](bt, false)
	},
	"post": func(bt tree.BinaryTree[int, int]) iter.Seq2[int, int] {
		return tree.PostorderTraverse[int, int](bt, false)
	},
	"reverse": func(bt tree.BinaryTree[int, int]) iter.Seq2[int, int] {
		return tree.ReverseInorderTraverse[int, int](bt, false)
	},
	"level": tree.LevelorderTraverse[int, int],
}

func newShowTree(engine string, desc bool) (tree.BinaryTree[int, int], error) {
	switch strings.ToLower(engine) {
	case "avl":
		var opts []tree.AVLTreeOpt[int, int]
		if desc {
			opts = append(opts, tree.WithAVLTreeDesc[int, int]())
		}
		return tree.NewAVLTree[int, int](opts...), nil
	case "rb":
		var opts []tree.RBTreeOpt[int, int]
		if desc {
			opts = append(opts, tree.WithRBTreeDesc[int, int]())
		}
		return tree.NewRBTree[int, int](opts...), nil
	default:
	}
	return nil, errUnknownEngine
}

func parseKeys(args []string) ([]int, error) {
	keys := make([]int, 0, len(args))
	for _, arg := range args {
		key, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid key %q: %w", arg, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func newShowCmd() *cobra.Command {
	var (
		engine   string
		traverse string
		desc     bool
		deletes  []int
	)
	cmd := &cobra.Command{
		Use:   "show KEY...",
		Short: "Build a tree from the keys and print it",
		Long: `Show inserts the integer keys in order, deletes the --delete keys, then
prints the traversal, the size and height and the sideways tree dump
annotated with the node heights (avl) or colors (rb).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			traverseFn, ok := traversals[traverse]
			if !ok {
				return errUnknownTraverse
			}
			keys, err := parseKeys(args)
			if err != nil {
				return err
			}
			bt, err := newShowTree(engine, desc)
			if err != nil {
				return err
			}
			defer bt.Release()

			out := cmd.OutOrStdout()
			for i, key := range keys {
				if err = bt.Insert(key, i); errors.Is(err, tree.ErrDuplicateKey) {
					_, _ = fmt.Fprintf(out, "skip: %v\n", err)
				}
			}
			for _, key := range deletes {
				if !bt.Delete(key) {
					_, _ = fmt.Fprintf(out, "skip: key %d not found\n", key)
				}
			}

			res := make([]string, 0, bt.Len())
			for k := range traverseFn(bt) {
				res = append(res, strconv.Itoa(k))
			}
			_, _ = fmt.Fprintf(out, "%s: %s\n", traverse, strings.Join(res, " "))
			_, _ = fmt.Fprintf(out, "len: %d height: %d\n", bt.Len(), bt.Height(bt.Root()))
			return tree.Fprint[int, int](out, bt)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&engine, "engine", "e", "avl", "tree engine: avl or rb")
	flags.StringVarP(&traverse, "traverse", "t", "in", "traversal: pre, in, post, reverse or level")
	flags.BoolVar(&desc, "desc", false, "order the keys descending")
	flags.IntSliceVarP(&deletes, "delete", "d", nil, "keys to delete after the inserts")
	return cmd
}

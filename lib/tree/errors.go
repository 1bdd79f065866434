package tree

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateKey   = errors.New("[tree] duplicate key")
	ErrTreeEmpty      = errors.New("[tree] empty tree")
	ErrRedViolation   = errors.New("[rbtree] red violation")
	ErrBlackViolation = errors.New("[rbtree] black violation")
	ErrRootViolation  = errors.New("[rbtree] root is not black")
	ErrAVLViolation   = errors.New("[avltree] balance violation")
	ErrOrderViolation = errors.New("[tree] key order violation")
	ErrLinkViolation  = errors.New("[tree] parent link violation")
)

// DuplicateKeyError reports the key rejected by an insert.
// It matches ErrDuplicateKey by errors.Is.
type DuplicateKeyError[K any] struct {
	Key K
}

func (err *DuplicateKeyError[K]) Error() string {
	return fmt.Sprintf("[tree] a node with key %v already exists", err.Key)
}

func (err *DuplicateKeyError[K]) Is(target error) bool {
	return target == ErrDuplicateKey
}

package rbtree

import (
	"errors"
	"fmt"
)

// Invariant violations reported by Verify.
var (
	ErrUnordered    = errors.New("keys are not in strict BST order")
	ErrBrokenParent = errors.New("parent handle does not match child link")
	ErrRedRoot      = errors.New("root is red")
	ErrRedViolation = errors.New("red node has a red child")
	ErrBlackHeight  = errors.New("black height differs between paths")
)

// checkFrame is a node under inspection with the constraints inherited from its ancestors.
type checkFrame struct {
	node   uint32
	parent uint32
	blacks int
	lo, hi int
	hasLo  bool
	hasHi  bool
}

// Verify checks every red-black invariant and returns the first violation found.
func (t *Tree) Verify() error {
	_, err := t.check(true)

	return err
}

// VerifyStructure checks only key ordering and parent links, the properties
// a plain deletion keeps.
func (t *Tree) VerifyStructure() error {
	_, err := t.check(false)

	return err
}

// BlackHeight returns the number of black nodes on every root-to-leaf path,
// or the violation that makes it undefined.
func (t *Tree) BlackHeight() (int, error) {
	return t.check(true)
}

func (t *Tree) check(colors bool) (int, error) {
	if t.root == sentinel {
		return 0, nil
	}

	s := t.storage()

	if colors && s[t.root].color == Red {
		return 0, fmt.Errorf("%w: key %d", ErrRedRoot, s[t.root].key)
	}

	leafBlacks := -1
	stack := []checkFrame{{node: t.root, parent: sentinel}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.node == sentinel {
			if colors && leafBlacks >= 0 && f.blacks != leafBlacks {
				return 0, fmt.Errorf("%w: %d and %d below key %d",
					ErrBlackHeight, leafBlacks, f.blacks, s[f.parent].key)
			}

			leafBlacks = f.blacks

			continue
		}

		err := checkNode(f, s, colors)
		if err != nil {
			return 0, err
		}

		key := s[f.node].key
		blacks := f.blacks

		if s[f.node].color == Black {
			blacks++
		}

		right := f
		right.node, right.parent, right.blacks = s[f.node].right, f.node, blacks
		right.lo, right.hasLo = key, true

		left := f
		left.node, left.parent, left.blacks = s[f.node].left, f.node, blacks
		left.hi, left.hasHi = key, true

		stack = append(stack, right, left)
	}

	return leafBlacks, nil
}

func checkNode(f checkFrame, s []node, colors bool) error {
	n := s[f.node]

	if n.parent != f.parent {
		return fmt.Errorf("%w: key %d points at handle %d instead of %d",
			ErrBrokenParent, n.key, n.parent, f.parent)
	}

	if (f.hasLo && n.key <= f.lo) || (f.hasHi && n.key >= f.hi) {
		return fmt.Errorf("%w: key %d", ErrUnordered, n.key)
	}

	if colors && n.color == Red && (getColor(n.left, s) == Red || getColor(n.right, s) == Red) {
		return fmt.Errorf("%w: key %d", ErrRedViolation, n.key)
	}

	return nil
}

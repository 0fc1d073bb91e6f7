// Package rbtree provides an arena-backed red-black tree over int keys that
// renders itself sideways as depth-indented text. Idle arenas can be
// compressed with LZ4.
package rbtree

import (
	"errors"
	"fmt"
	"strings"
)

// Color is the color tag of a node.
type Color bool

// Node colors.
const (
	Red   Color = false
	Black Color = true
)

// String returns the single-letter tag used by the renderer.
func (c Color) String() string {
	if c == Red {
		return "R"
	}

	return "B"
}

// DeleteMode selects how Delete restructures the tree.
type DeleteMode int

const (
	// DeletePlain removes nodes with a plain BST deletion and never rebalances.
	DeletePlain DeleteMode = iota
	// DeleteRebalance runs the red-black delete fix-up after removal.
	DeleteRebalance
)

// Delete mode names.
const (
	deleteModePlain     = "plain"
	deleteModeRebalance = "rebalance"
)

// ErrUnknownDeleteMode is returned by ParseDeleteMode for unknown names.
var ErrUnknownDeleteMode = errors.New("unknown delete mode")

// String returns the configuration name of the mode.
func (m DeleteMode) String() string {
	switch m {
	case DeletePlain:
		return deleteModePlain
	case DeleteRebalance:
		return deleteModeRebalance
	default:
		return fmt.Sprintf("DeleteMode(%d)", int(m))
	}
}

// ParseDeleteMode parses "plain" or "rebalance", case-insensitively.
func ParseDeleteMode(name string) (DeleteMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case deleteModePlain:
		return DeletePlain, nil
	case deleteModeRebalance:
		return DeleteRebalance, nil
	default:
		return DeletePlain, fmt.Errorf("%w: %q", ErrUnknownDeleteMode, name)
	}
}

// DefaultIndent is the number of spaces per depth level in renderings.
const DefaultIndent = 10

// Tree is a red-black tree of unique int keys whose nodes live in an Allocator.
//
// A Tree is not safe for concurrent use.
type Tree struct {
	root  uint32
	count int

	allocator  *Allocator
	deleteMode DeleteMode
	indent     int

	rotations  int
	colorFlips int
}

// Option configures a Tree.
type Option func(*Tree)

// WithDeleteMode selects the deletion strategy. The default is DeletePlain.
func WithDeleteMode(mode DeleteMode) Option {
	return func(t *Tree) {
		t.deleteMode = mode
	}
}

// WithIndent sets the spaces per depth level used by Render. Non-positive values are ignored.
func WithIndent(spaces int) Option {
	return func(t *Tree) {
		if spaces > 0 {
			t.indent = spaces
		}
	}
}

// WithAllocator places the tree's nodes in an existing allocator.
func WithAllocator(allocator *Allocator) Option {
	return func(t *Tree) {
		if allocator != nil {
			t.allocator = allocator
		}
	}
}

// New creates an empty tree.
func New(opts ...Option) *Tree {
	t := &Tree{
		indent:     DefaultIndent,
		deleteMode: DeletePlain,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.allocator == nil {
		t.allocator = NewAllocator()
	}

	return t
}

func (t *Tree) storage() []node {
	t.allocator.mustBeAwake()

	return t.allocator.storage
}

// Allocator returns the allocator holding the tree's nodes.
func (t *Tree) Allocator() *Allocator {
	return t.allocator
}

// DeleteMode returns the deletion strategy of the tree.
func (t *Tree) DeleteMode() DeleteMode {
	return t.deleteMode
}

// Len returns the number of keys in the tree.
func (t *Tree) Len() int {
	return t.count
}

// Empty reports whether the tree holds no keys.
func (t *Tree) Empty() bool {
	return t.root == sentinel
}

// Contains reports whether key is in the tree.
func (t *Tree) Contains(key int) bool {
	return t.find(key) != sentinel
}

// Min returns the smallest key.
func (t *Tree) Min() (int, bool) {
	if t.root == sentinel {
		return 0, false
	}

	s := t.storage()

	return s[minimum(t.root, s)].key, true
}

// Max returns the largest key.
func (t *Tree) Max() (int, bool) {
	if t.root == sentinel {
		return 0, false
	}

	s := t.storage()
	n := t.root

	for s[n].right != sentinel {
		n = s[n].right
	}

	return s[n].key, true
}

// Clear removes every key and returns all nodes to the allocator.
func (t *Tree) Clear() {
	if t.root == sentinel {
		return
	}

	s := t.storage()
	stack := []uint32{t.root}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if s[n].left != sentinel {
			stack = append(stack, s[n].left)
		}

		if s[n].right != sentinel {
			stack = append(stack, s[n].right)
		}

		t.allocator.release(n)
	}

	t.root = sentinel
	t.count = 0
}

// find returns the handle holding key, or the sentinel.
func (t *Tree) find(key int) uint32 {
	if t.root == sentinel {
		return sentinel
	}

	s := t.storage()
	n := t.root

	for n != sentinel {
		switch {
		case key < s[n].key:
			n = s[n].left
		case key > s[n].key:
			n = s[n].right
		default:
			return n
		}
	}

	return sentinel
}

func doAssert(b bool) {
	if !b {
		panic("rbtree internal assertion failed")
	}
}

// getColor returns the color of n, treating the sentinel as black.
func getColor(n uint32, s []node) Color {
	if n == sentinel {
		return Black
	}

	return s[n].color
}

// setColor paints n unless it is the sentinel.
func setColor(n uint32, c Color, s []node) {
	if n != sentinel {
		s[n].color = c
	}
}

func isLeftChild(n uint32, s []node) bool {
	return n == s[s[n].parent].left
}

// childOf returns the left child when left is true, the right one otherwise.
func childOf(n uint32, left bool, s []node) uint32 {
	if left {
		return s[n].left
	}

	return s[n].right
}

// minimum returns the leftmost node of the subtree rooted at n.
func minimum(n uint32, s []node) uint32 {
	for s[n].left != sentinel {
		n = s[n].left
	}

	return n
}

package rbtree

import (
	"iter"
)

// All yields every key with its color in ascending key order.
func (t *Tree) All() iter.Seq2[int, Color] {
	return func(yield func(int, Color) bool) {
		if t.root == sentinel {
			return
		}

		s := t.storage()
		stack := []uint32{}
		current := t.root

		for current != sentinel || len(stack) > 0 {
			for current != sentinel {
				stack = append(stack, current)
				current = s[current].left
			}

			current = stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if !yield(s[current].key, s[current].color) {
				return
			}

			current = s[current].right
		}
	}
}

// Keys yields every key in ascending order.
func (t *Tree) Keys() iter.Seq[int] {
	return func(yield func(int) bool) {
		for key := range t.All() {
			if !yield(key) {
				return
			}
		}
	}
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (t *Tree) Height() int {
	if t.root == sentinel {
		return 0
	}

	s := t.storage()
	height := 0
	stack := []frame{{node: t.root, depth: 1}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		height = max(height, f.depth)

		if s[f.node].left != sentinel {
			stack = append(stack, frame{node: s[f.node].left, depth: f.depth + 1})
		}

		if s[f.node].right != sentinel {
			stack = append(stack, frame{node: s[f.node].right, depth: f.depth + 1})
		}
	}

	return height
}

// Stats summarizes the shape of a tree and the work its fix-ups performed.
type Stats struct {
	DeleteMode DeleteMode
	Nodes      int
	Height     int
	ArenaSize  int
	ArenaUsed  int
	ArenaFree  int
	Rotations  int
	ColorFlips int
}

// Stats returns the current statistics of the tree.
func (t *Tree) Stats() Stats {
	return Stats{
		DeleteMode: t.deleteMode,
		Nodes:      t.count,
		Height:     t.Height(),
		ArenaSize:  t.allocator.Size(),
		ArenaUsed:  t.allocator.Used(),
		ArenaFree:  t.allocator.Free(),
		Rotations:  t.rotations,
		ColorFlips: t.colorFlips,
	}
}

// Rebalancing returns the rotations and insert recolorings performed so far.
// Unlike Stats it never walks the tree.
func (t *Tree) Rebalancing() (rotations, colorFlips int) {
	return t.rotations, t.colorFlips
}

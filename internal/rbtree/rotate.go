package rbtree

/*
    X            Y
  A   Y   =>   X   C
     B C      A B
*/
func (t *Tree) rotateLeft(x uint32) {
	s := t.storage()
	y := s[x].right
	doAssert(y != sentinel)

	// Move "B".
	s[x].right = s[y].left
	if s[y].left != sentinel {
		s[s[y].left].parent = x
	}

	t.replaceChild(x, y, s)

	s[y].left = x
	s[x].parent = y
	t.rotations++
}

/*
     Y           X
   X   C  =>   A   Y
  A B             B C
*/
func (t *Tree) rotateRight(y uint32) {
	s := t.storage()
	x := s[y].left
	doAssert(x != sentinel)

	// Move "B".
	s[y].left = s[x].right
	if s[x].right != sentinel {
		s[s[x].right].parent = y
	}

	t.replaceChild(y, x, s)

	s[x].right = y
	s[y].parent = x
	t.rotations++
}

// rotate turns left when left is true and right otherwise.
func (t *Tree) rotate(n uint32, left bool) {
	if left {
		t.rotateLeft(n)

		return
	}

	t.rotateRight(n)
}

// replaceChild hangs newn where oldn hangs from its parent, or makes it the root.
func (t *Tree) replaceChild(oldn, newn uint32, s []node) {
	parent := s[oldn].parent

	switch {
	case parent == sentinel:
		t.root = newn
	case s[parent].left == oldn:
		s[parent].left = newn
	default:
		s[parent].right = newn
	}

	if newn != sentinel {
		s[newn].parent = parent
	}
}

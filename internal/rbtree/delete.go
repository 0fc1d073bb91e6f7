package rbtree

// Delete removes key and reports whether it was present. Deleting a key that
// is not in the tree, or deleting from an empty tree, changes nothing.
//
// With DeletePlain the removal is a plain BST deletion: no fix-up runs, so
// the black-height, red-red and red-root properties may be broken
// afterwards. With DeleteRebalance all red-black properties are restored.
func (t *Tree) Delete(key int) bool {
	n := t.find(key)
	if n == sentinel {
		return false
	}

	if t.deleteMode == DeleteRebalance {
		t.deleteRebalance(n)
	} else {
		t.deletePlain(n)
	}

	t.count--

	return true
}

// deletePlain removes n the way a textbook unbalanced BST does.
//
// A node with two children takes its in-order successor's key and the
// successor is removed instead. A node with one child absorbs the child:
// key, color and subtrees move into n's slot and the child's slot is freed.
func (t *Tree) deletePlain(n uint32) {
	s := t.storage()

	if s[n].left != sentinel && s[n].right != sentinel {
		succ := minimum(s[n].right, s)
		s[n].key = s[succ].key
		n = succ
	}

	child := s[n].left
	if child == sentinel {
		child = s[n].right
	}

	if child == sentinel {
		t.replaceChild(n, sentinel, s)
		t.allocator.release(n)

		return
	}

	absorbed := s[child]
	s[n].key = absorbed.key
	s[n].color = absorbed.color
	s[n].left = absorbed.left
	s[n].right = absorbed.right

	if absorbed.left != sentinel {
		s[absorbed.left].parent = n
	}

	if absorbed.right != sentinel {
		s[absorbed.right].parent = n
	}

	t.allocator.release(child)
}

// deleteRebalance unlinks n and runs the red-black delete fix-up.
func (t *Tree) deleteRebalance(n uint32) {
	s := t.storage()

	removedColor := s[n].color

	var x, xParent uint32

	switch {
	case s[n].left == sentinel:
		x, xParent = s[n].right, s[n].parent
		t.replaceChild(n, x, s)
	case s[n].right == sentinel:
		x, xParent = s[n].left, s[n].parent
		t.replaceChild(n, x, s)
	default:
		succ := minimum(s[n].right, s)
		removedColor = s[succ].color
		x = s[succ].right

		if s[succ].parent == n {
			xParent = succ
		} else {
			xParent = s[succ].parent
			t.replaceChild(succ, x, s)
			s[succ].right = s[n].right
			s[s[succ].right].parent = succ
		}

		t.replaceChild(n, succ, s)
		s[succ].left = s[n].left
		s[s[succ].left].parent = succ
		s[succ].color = s[n].color
	}

	t.allocator.release(n)

	if removedColor == Black {
		t.deleteFixup(x, xParent)
	}
}

// deleteFixup removes the extra black carried by x, whose parent is given
// explicitly because x may be the sentinel.
func (t *Tree) deleteFixup(x, parent uint32) {
	s := t.storage()

	for x != t.root && getColor(x, s) == Black && parent != sentinel {
		isLeft := x == s[parent].left
		x, parent = t.deleteFixupCase(parent, isLeft, s)
	}

	setColor(x, Black, s)
}

// deleteFixupCase handles one iteration of the delete fix-up for the side
// given by isLeft. It returns the next x and its parent.
func (t *Tree) deleteFixupCase(parent uint32, isLeft bool, s []node) (uint32, uint32) {
	sibling := childOf(parent, !isLeft, s)

	if getColor(sibling, s) == Red {
		s[sibling].color = Black
		s[parent].color = Red
		t.rotate(parent, isLeft)

		sibling = childOf(parent, !isLeft, s)
	}

	doAssert(sibling != sentinel)

	if getColor(s[sibling].left, s) == Black && getColor(s[sibling].right, s) == Black {
		s[sibling].color = Red

		return parent, s[parent].parent
	}

	if getColor(childOf(sibling, !isLeft, s), s) == Black {
		setColor(childOf(sibling, isLeft, s), Black, s)
		s[sibling].color = Red
		t.rotate(sibling, !isLeft)

		sibling = childOf(parent, !isLeft, s)
	}

	s[sibling].color = s[parent].color
	s[parent].color = Black
	setColor(childOf(sibling, !isLeft, s), Black, s)
	t.rotate(parent, isLeft)

	return t.root, sentinel
}

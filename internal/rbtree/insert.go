package rbtree

// Insert adds key as a new red leaf and restores the red-black properties.
// Inserting a key that is already present changes nothing and returns false.
func (t *Tree) Insert(key int) bool {
	parent, exact := t.descend(key)
	if exact {
		return false
	}

	n := t.allocator.malloc()
	s := t.storage()

	s[n].key = key
	s[n].color = Red
	s[n].parent = parent

	switch {
	case parent == sentinel:
		t.root = n
	case key < s[parent].key:
		s[parent].left = n
	default:
		s[parent].right = n
	}

	t.count++
	t.insertFixup(n)

	return true
}

// descend walks down to key. It returns the matching node and true, or the
// node the key would hang from and false.
func (t *Tree) descend(key int) (uint32, bool) {
	if t.root == sentinel {
		return sentinel, false
	}

	s := t.storage()
	n := t.root

	for {
		var next uint32

		switch {
		case key < s[n].key:
			next = s[n].left
		case key > s[n].key:
			next = s[n].right
		default:
			return n, true
		}

		if next == sentinel {
			return n, false
		}

		n = next
	}
}

// insertFixup pushes a red-red violation up from n until it is resolved.
func (t *Tree) insertFixup(n uint32) {
	s := t.storage()

	for n != t.root && s[n].color == Red && getColor(s[n].parent, s) == Red {
		parent := s[n].parent

		// A red root left behind by a plain delete has no grandparent.
		grandparent := s[parent].parent
		if grandparent == sentinel {
			break
		}

		n = t.insertFixupCase(n, parent, grandparent, parent == s[grandparent].left, s)
	}

	s[t.root].color = Black
}

// insertFixupCase handles one side of the insert fix-up.
// When leftCase is true, parent is grandparent.left; otherwise parent is grandparent.right.
// It returns the node the loop continues from.
func (t *Tree) insertFixupCase(n, parent, grandparent uint32, leftCase bool, s []node) uint32 {
	uncle := childOf(grandparent, !leftCase, s)

	if getColor(uncle, s) == Red {
		s[parent].color = Black
		s[uncle].color = Black
		s[grandparent].color = Red
		t.colorFlips++

		return grandparent
	}

	// Triangle: turn it into a line first. The old parent is now n's child.
	if n == childOf(parent, !leftCase, s) {
		t.rotate(parent, leftCase)
		parent = n
	}

	t.rotate(grandparent, !leftCase)
	s[parent].color, s[grandparent].color = s[grandparent].color, s[parent].color

	return parent
}

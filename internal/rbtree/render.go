package rbtree

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// EmptyMessage is rendered in place of an empty tree.
const EmptyMessage = "Tree is empty."

// ErrInvalidSink is returned when a rendering cannot be written to its destination.
var ErrInvalidSink = errors.New("invalid output sink")

// Line layout.
const (
	decimalBase = 10
	// lineTail fits the longest int key, the color tag and the newline.
	lineTail = 22
)

// frame is a node waiting on the traversal stack together with its depth.
type frame struct {
	node  uint32
	depth int
}

// Render writes the tree rotated by 90 degrees: a reversed in-order walk
// (right subtree, node, left subtree), one node per line, indented by depth
// and tagged with its color, e.g. "20B". The right subtree appears above a
// node and the left one below.
func (t *Tree) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)

	err := t.render(bw)
	if err == nil {
		err = bw.Flush()
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSink, err)
	}

	return nil
}

func (t *Tree) render(bw *bufio.Writer) error {
	if t.root == sentinel {
		_, err := bw.WriteString(EmptyMessage + "\n")

		return err
	}

	s := t.storage()
	stack := make([]frame, 0, t.count)
	cur, depth := t.root, 0

	for cur != sentinel || len(stack) > 0 {
		for cur != sentinel {
			stack = append(stack, frame{node: cur, depth: depth})
			cur = s[cur].right
			depth++
		}

		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		err := t.writeLine(bw, top, s)
		if err != nil {
			return err
		}

		cur, depth = s[top.node].left, top.depth+1
	}

	return nil
}

func (t *Tree) writeLine(bw *bufio.Writer, f frame, s []node) error {
	line := make([]byte, 0, f.depth*t.indent+lineTail)
	line = append(line, strings.Repeat(" ", f.depth*t.indent)...)
	line = strconv.AppendInt(line, int64(s[f.node].key), decimalBase)
	line = append(line, s[f.node].color.String()...)
	line = append(line, '\n')

	_, err := bw.Write(line)

	return err
}

// String returns the rendering produced by Render.
func (t *Tree) String() string {
	var sb strings.Builder

	// strings.Builder never fails to write.
	_ = t.Render(&sb)

	return sb.String()
}

// SaveToFile writes the rendering to path, creating or truncating the file.
// Any failure to open, write or close the file wraps ErrInvalidSink; the
// tree itself is never modified.
func (t *Tree) SaveToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSink, err)
	}

	renderErr := t.Render(f)
	closeErr := f.Close()

	if renderErr != nil {
		return renderErr
	}

	if closeErr != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSink, closeErr)
	}

	return nil
}

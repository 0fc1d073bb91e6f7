package rbtree

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/Sumatoshi-tech/redblack/pkg/safeconv"
)

// ErrHibernated is returned when hibernating an allocator twice.
var ErrHibernated = errors.New("allocator is hibernated")

// sentinel is the reserved handle of the nil node. It is always black and never freed.
const sentinel uint32 = 0

// maxHandle is the largest handle an Allocator hands out.
const maxHandle = math.MaxUint32 - 1

// Arena columns, de-interleaved for compression.
const (
	columnParent = iota
	columnLeft
	columnRight
	columnColor
	columnFree
	handleColumns
)

// node is an arena slot. Links are handles into the same Allocator.
type node struct {
	key                 int
	parent, left, right uint32
	color               Color
}

// NodeBytes is the in-memory size of one arena slot.
const NodeBytes = int(unsafe.Sizeof(node{}))

// Allocator owns the nodes of one or more trees. Freed slots are kept on a
// free list and handed out again before the arena grows.
type Allocator struct {
	// HibernationThreshold is the minimal arena size at which Hibernate compresses.
	HibernationThreshold int

	storage []node
	free    []uint32

	hibernatedKeys    []byte
	hibernatedColumns [handleColumns][]byte
	hibernatedLen     int
	hibernatedFreeLen int
}

// NewAllocator creates an empty allocator with the sentinel slot reserved.
func NewAllocator() *Allocator {
	return &Allocator{
		storage: []node{{color: Black}},
	}
}

// Size returns the number of slots in the arena, the sentinel included.
func (a *Allocator) Size() int {
	if a.Hibernated() {
		return a.hibernatedLen
	}

	return len(a.storage)
}

// Used returns the number of live nodes.
func (a *Allocator) Used() int {
	a.mustBeAwake()

	return len(a.storage) - 1 - len(a.free)
}

// Free returns the number of slots waiting on the free list.
func (a *Allocator) Free() int {
	a.mustBeAwake()

	return len(a.free)
}

// Hibernated reports whether the arena is currently compressed.
func (a *Allocator) Hibernated() bool {
	return a.storage == nil
}

// HibernatedBytes returns the compressed size of a hibernated arena, or 0 when awake.
func (a *Allocator) HibernatedBytes() int {
	if !a.Hibernated() {
		return 0
	}

	size := len(a.hibernatedKeys)
	for _, col := range a.hibernatedColumns {
		size += len(col)
	}

	return size
}

func (a *Allocator) mustBeAwake() {
	if a.Hibernated() {
		panic("hibernated allocators cannot be used")
	}
}

func (a *Allocator) malloc() uint32 {
	a.mustBeAwake()

	if last := len(a.free) - 1; last >= 0 {
		n := a.free[last]
		a.free = a.free[:last]
		a.storage[n] = node{}

		return n
	}

	if len(a.storage) > maxHandle {
		panic("rbtree allocator has reached the maximum uint32 handle")
	}

	a.storage = append(a.storage, node{})

	return safeconv.MustIntToUint32(len(a.storage) - 1)
}

func (a *Allocator) release(n uint32) {
	a.mustBeAwake()

	if n == sentinel {
		panic("node #0 is the sentinel and cannot be released")
	}

	a.storage[n] = node{}
	a.free = append(a.free, n)
}

// Hibernate compresses the arena with LZ4. It does nothing when the arena is
// smaller than HibernationThreshold. The allocator is unusable until Boot.
func (a *Allocator) Hibernate() error {
	if a.Hibernated() {
		return fmt.Errorf("hibernate: %w", ErrHibernated)
	}

	if len(a.storage) < a.HibernationThreshold {
		return nil
	}

	size := len(a.storage)

	keys := make([]int64, size)

	var columns [handleColumns][]uint32
	for i := range columnFree {
		columns[i] = make([]uint32, size)
	}

	for i, n := range a.storage {
		keys[i] = int64(n.key)
		columns[columnParent][i] = n.parent
		columns[columnLeft][i] = n.left
		columns[columnRight][i] = n.right

		if n.color == Black {
			columns[columnColor][i] = 1
		}
	}

	columns[columnFree] = append([]uint32(nil), a.free...)

	var (
		wg   sync.WaitGroup
		errs [handleColumns + 1]error
	)

	wg.Add(len(columns) + 1)

	for i := range columns {
		go func(idx int) {
			defer wg.Done()

			a.hibernatedColumns[idx], errs[idx] = compressColumn(columns[idx])
		}(i)
	}

	go func() {
		defer wg.Done()

		deltaEncode(keys)
		a.hibernatedKeys, errs[handleColumns] = compressColumn(keys)
	}()

	wg.Wait()

	err := errors.Join(errs[:]...)
	if err != nil {
		a.hibernatedKeys = nil
		a.hibernatedColumns = [handleColumns][]byte{}

		return fmt.Errorf("hibernate: %w", err)
	}

	a.hibernatedLen = size
	a.hibernatedFreeLen = len(a.free)
	a.storage = nil
	a.free = nil

	return nil
}

// Boot restores an arena compressed by Hibernate. Booting an awake
// allocator is a no-op.
func (a *Allocator) Boot() error {
	if !a.Hibernated() {
		return nil
	}

	size := a.hibernatedLen
	keys := make([]int64, size)

	var columns [handleColumns][]uint32
	for i := range columnFree {
		columns[i] = make([]uint32, size)
	}

	columns[columnFree] = make([]uint32, a.hibernatedFreeLen)

	var (
		wg   sync.WaitGroup
		errs [handleColumns + 1]error
	)

	wg.Add(len(columns) + 1)

	for i := range columns {
		go func(idx int) {
			defer wg.Done()

			errs[idx] = decompressColumn(a.hibernatedColumns[idx], columns[idx])
		}(i)
	}

	go func() {
		defer wg.Done()

		errs[handleColumns] = decompressColumn(a.hibernatedKeys, keys)
		deltaDecode(keys)
	}()

	wg.Wait()

	err := errors.Join(errs[:]...)
	if err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	storage := make([]node, size)
	for i := range storage {
		storage[i] = node{
			key:    int(keys[i]),
			parent: columns[columnParent][i],
			left:   columns[columnLeft][i],
			right:  columns[columnRight][i],
			color:  columns[columnColor][i] == 1,
		}
	}

	a.storage = storage
	a.free = columns[columnFree]
	a.hibernatedKeys = nil
	a.hibernatedColumns = [handleColumns][]byte{}
	a.hibernatedLen = 0
	a.hibernatedFreeLen = 0

	return nil
}

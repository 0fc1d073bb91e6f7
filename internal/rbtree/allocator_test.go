package rbtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Column test constants.
const (
	columnTestSize     = 1000
	columnTestConstVal = 7
	columnBenchSize    = 100000
	columnSortStep     = 3
	hibernateKeys      = 300
)

func TestAllocator_ReservesSentinel(t *testing.T) {
	t.Parallel()

	alloc := NewAllocator()

	assert.Equal(t, 1, alloc.Size())
	assert.Equal(t, 0, alloc.Used())
	assert.Equal(t, Black, alloc.storage[sentinel].color)
	assert.Panics(t, func() { alloc.release(sentinel) })
}

func TestAllocator_ReusesFreedSlotsLastInFirstOut(t *testing.T) {
	t.Parallel()

	alloc := NewAllocator()

	first := alloc.malloc()
	second := alloc.malloc()
	third := alloc.malloc()

	assert.Equal(t, []uint32{1, 2, 3}, []uint32{first, second, third})

	alloc.release(first)
	alloc.release(third)

	assert.Equal(t, 1, alloc.Used())
	assert.Equal(t, third, alloc.malloc())
	assert.Equal(t, first, alloc.malloc())
	assert.Equal(t, uint32(4), alloc.malloc())
}

func TestAllocator_NewSlotIsRed(t *testing.T) {
	t.Parallel()

	alloc := NewAllocator()
	n := alloc.malloc()

	assert.Equal(t, Red, alloc.storage[n].color)
	assert.Equal(t, node{}, alloc.storage[n])
}

// TestDeletePlain_SingleChildFreesChildSlot verifies the child's slot is the one released.
func TestDeletePlain_SingleChildFreesChildSlot(t *testing.T) {
	t.Parallel()

	tree := New()
	for _, key := range []int{10, 20, 30, 40} {
		tree.Insert(key)
	}

	target := tree.find(30)
	child := tree.find(40)

	require.True(t, tree.Delete(30))

	s := tree.storage()
	assert.Equal(t, 40, s[target].key)
	assert.Equal(t, Red, s[target].color)
	assert.Equal(t, target, tree.find(40))
	assert.Equal(t, []uint32{child}, tree.allocator.free)
}

// TestDeletePlain_TwoChildrenFreesSuccessorSlot verifies the target keeps its slot with the successor's key.
func TestDeletePlain_TwoChildrenFreesSuccessorSlot(t *testing.T) {
	t.Parallel()

	tree := New()
	for _, key := range []int{10, 20, 30, 15} {
		tree.Insert(key)
	}

	target := tree.find(20)
	succ := tree.find(30)

	require.True(t, tree.Delete(20))

	assert.Equal(t, target, tree.root)
	assert.Equal(t, 30, tree.storage()[target].key)
	assert.Equal(t, []uint32{succ}, tree.allocator.free)
}

func TestDeleteRebalance_FreesTargetSlot(t *testing.T) {
	t.Parallel()

	tree := New(WithDeleteMode(DeleteRebalance))
	for _, key := range []int{10, 20, 30, 15} {
		tree.Insert(key)
	}

	target := tree.find(20)

	require.True(t, tree.Delete(20))
	assert.Equal(t, []uint32{target}, tree.allocator.free)
}

func TestRotateLeft_RewiresParents(t *testing.T) {
	t.Parallel()

	tree := New()
	for _, key := range []int{20, 10, 30, 25, 35} {
		tree.Insert(key)
	}

	oldRoot := tree.root
	promoted := tree.storage()[oldRoot].right

	tree.rotateLeft(oldRoot)

	s := tree.storage()
	assert.Equal(t, promoted, tree.root)
	assert.Equal(t, sentinel, s[promoted].parent)
	assert.Equal(t, oldRoot, s[promoted].left)
	assert.Equal(t, promoted, s[oldRoot].parent)
	assert.Equal(t, 25, s[s[oldRoot].right].key)
	assert.Equal(t, oldRoot, s[s[oldRoot].right].parent)
	require.NoError(t, tree.VerifyStructure())

	tree.rotateRight(tree.root)
	assert.Equal(t, oldRoot, tree.root)
	require.NoError(t, tree.VerifyStructure())
}

func TestRotate_RequiresChild(t *testing.T) {
	t.Parallel()

	tree := New()
	tree.Insert(1)

	assert.Panics(t, func() { tree.rotateLeft(tree.root) })
	assert.Panics(t, func() { tree.rotateRight(tree.root) })
}

func TestHibernate_RoundTrip(t *testing.T) {
	t.Parallel()

	tree := New()
	for key := range hibernateKeys {
		tree.Insert(key * columnSortStep)
	}

	for key := range hibernateKeys / 2 {
		tree.Delete(key * 2 * columnSortStep)
	}

	before := tree.String()
	used := tree.Allocator().Used()
	free := tree.Allocator().Free()
	size := tree.Allocator().Size()

	require.NoError(t, tree.Allocator().Hibernate())
	assert.True(t, tree.Allocator().Hibernated())
	assert.Equal(t, size, tree.Allocator().Size())
	assert.Positive(t, tree.Allocator().HibernatedBytes())
	assert.Less(t, tree.Allocator().HibernatedBytes(), size*NodeBytes)
	assert.Panics(t, func() { tree.Insert(-1) })
	require.ErrorIs(t, tree.Allocator().Hibernate(), ErrHibernated)

	require.NoError(t, tree.Allocator().Boot())
	assert.False(t, tree.Allocator().Hibernated())
	assert.Zero(t, tree.Allocator().HibernatedBytes())
	assert.Equal(t, before, tree.String())
	assert.Equal(t, used, tree.Allocator().Used())
	assert.Equal(t, free, tree.Allocator().Free())
	require.NoError(t, tree.VerifyStructure())
}

func TestHibernate_BelowThresholdIsNoop(t *testing.T) {
	t.Parallel()

	alloc := NewAllocator()
	alloc.HibernationThreshold = 10
	alloc.malloc()

	require.NoError(t, alloc.Hibernate())
	assert.False(t, alloc.Hibernated())
	require.NoError(t, alloc.Boot())
}

func TestCompressColumn_RoundTrip(t *testing.T) {
	t.Parallel()

	data := make([]uint32, columnTestSize)
	for idx := range data {
		data[idx] = columnTestConstVal
	}

	packed, err := compressColumn(data)
	require.NoError(t, err)
	assert.Equal(t, blockLZ4, packed[0])
	assert.Less(t, len(packed), len(data))

	restored := make([]uint32, len(data))
	require.NoError(t, decompressColumn(packed, restored))
	assert.Equal(t, data, restored)
}

func TestCompressColumn_Incompressible(t *testing.T) {
	t.Parallel()

	data := []int64{-5}

	packed, err := compressColumn(data)
	require.NoError(t, err)
	assert.Equal(t, blockRaw, packed[0])

	restored := make([]int64, len(data))
	require.NoError(t, decompressColumn(packed, restored))
	assert.Equal(t, data, restored)
}

func TestCompressColumn_Empty(t *testing.T) {
	t.Parallel()

	packed, err := compressColumn([]uint32(nil))
	require.NoError(t, err)
	assert.Nil(t, packed)
	require.NoError(t, decompressColumn(packed, []uint32{}))
}

func TestDecompressColumn_Corrupt(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, decompressColumn(nil, make([]uint32, 3)), ErrCorruptColumn)
	require.ErrorIs(t, decompressColumn([]byte{blockRaw, 1, 2}, make([]uint32, 3)), ErrCorruptColumn)
}

func TestDeltaEncode_RoundTrip(t *testing.T) {
	t.Parallel()

	original := make([]int64, columnTestSize)
	for i := range original {
		original[i] = int64((columnTestSize - i) * columnSortStep)
	}

	data := append([]int64(nil), original...)

	deltaEncode(data)
	assert.Equal(t, original[0], data[0])

	for i := 1; i < len(data); i++ {
		assert.Equal(t, int64(-columnSortStep), data[i], "delta at index %d", i)
	}

	deltaDecode(data)
	assert.Equal(t, original, data)
}

// TestDeltaEncode_CompressionImprovement verifies delta encoding helps LZ4 on sorted keys.
func TestDeltaEncode_CompressionImprovement(t *testing.T) {
	t.Parallel()

	data := make([]int64, columnBenchSize)
	for i := range data {
		data[i] = int64(i)
	}

	plain, err := compressColumn(data)
	require.NoError(t, err)

	deltaEncode(data)

	delta, err := compressColumn(data)
	require.NoError(t, err)

	assert.Less(t, len(delta), len(plain))
}

func BenchmarkHibernateBoot(b *testing.B) {
	tree := New()
	for key := range columnBenchSize {
		tree.Insert(key)
	}

	b.ResetTimer()

	for range b.N {
		_ = tree.Allocator().Hibernate()
		_ = tree.Allocator().Boot()
	}
}

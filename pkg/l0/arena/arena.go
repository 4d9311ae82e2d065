// Package arena provides a fixed-capacity byte pool backing frame storage.
//
// The pool is carved into variable-sized blocks tracked by a small block
// table. Block 0 and the last block are sentinels marking the start and the
// end of the pool. When free space is fragmented, live blocks are slid
// towards the start of the pool to make room, so callers never hold raw
// slices into the pool: all access goes through BlockID.
package arena

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// DefaultTableSize is the default number of entries in the block table,
// sentinels included.
const DefaultTableSize = 32

var (
	// ErrOutOfMemory indicates no block of the requested size can be provided.
	ErrOutOfMemory = errors.New("out of memory")
	// ErrInvalidSize indicates a non-positive size is requested.
	ErrInvalidSize = errors.New("invalid size")
	// ErrInvalidBlock indicates the block is not allocated.
	ErrInvalidBlock = errors.New("invalid block")
)

// BlockID refers to an allocated block.
type BlockID int

type block struct {
	offset int
	size   int
	inUse  bool
}

func (b *block) end() int {
	return b.offset + b.size
}

// Arena is a fixed-capacity byte pool.
type Arena struct {
	buf    []byte
	blocks []block
	lock   sync.Mutex
}

// New creates an Arena with capacity bytes and a block table of tableSize
// entries. tableSize is raised to 3 if smaller, so at least one block fits.
func New(capacity, tableSize int) *Arena {
	if tableSize < 3 {
		tableSize = 3
	}
	a := &Arena{
		buf:    make([]byte, capacity),
		blocks: make([]block, tableSize),
	}
	a.blocks[0] = block{offset: 0, inUse: true}
	a.blocks[tableSize-1] = block{offset: capacity, inUse: true}
	return a
}

// Capacity returns the size of the pool in bytes.
func (a *Arena) Capacity() int {
	return len(a.buf)
}

// Alloc allocates a block of exactly size bytes.
func (a *Arena) Alloc(size int) (BlockID, error) {
	if size <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	a.lock.Lock()
	defer a.lock.Unlock()

	if size > len(a.buf) {
		return 0, fmt.Errorf("%w: %d exceeds capacity %d", ErrOutOfMemory, size, len(a.buf))
	}
	id := a.freeSlot()
	if id < 0 {
		return 0, fmt.Errorf("%w: block table full", ErrOutOfMemory)
	}

	order := a.ordered()
	var used int
	for _, n := range order {
		used += a.blocks[n].size
	}
	if len(a.buf)-used < size {
		return 0, fmt.Errorf("%w: %d requested, %d free", ErrOutOfMemory, size, len(a.buf)-used)
	}

	best, bestGap := -1, 0
	for i := 0; i+1 < len(order); i++ {
		gap := a.blocks[order[i+1]].offset - a.blocks[order[i]].end()
		// <= keeps the later gap on ties.
		if gap >= size && (best < 0 || gap <= bestGap) {
			best, bestGap = i, gap
		}
	}

	var offset int
	if best >= 0 {
		offset = a.blocks[order[best]].end()
	} else if offset = a.compact(order, size); offset < 0 {
		return 0, fmt.Errorf("%w: compaction failed for %d", ErrOutOfMemory, size)
	}
	a.blocks[id] = block{offset: offset, size: size, inUse: true}
	return BlockID(id), nil
}

// Free releases a block. Freeing a sentinel, an unknown or an already
// freed block does nothing.
func (a *Arena) Free(id BlockID) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.isSentinel(id) || !a.valid(id) {
		return
	}
	a.blocks[id].inUse = false
}

// Size returns the size of an allocated block.
func (a *Arena) Size(id BlockID) (int, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if !a.valid(id) {
		return 0, ErrInvalidBlock
	}
	return a.blocks[id].size, nil
}

// View calls fn with the current bytes of the block. The slice is only
// valid inside fn, as the block may move on later allocations. fn must not
// call back into the Arena.
func (a *Arena) View(id BlockID, fn func([]byte)) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.isSentinel(id) || !a.valid(id) {
		return ErrInvalidBlock
	}
	b := &a.blocks[id]
	fn(a.buf[b.offset:b.end():b.end()])
	return nil
}

// Used returns the number of bytes held by live blocks and the number of
// live blocks, sentinels excluded.
func (a *Arena) Used() (bytes, blocks int) {
	a.lock.Lock()
	defer a.lock.Unlock()
	for n := 1; n < len(a.blocks)-1; n++ {
		if a.blocks[n].inUse {
			bytes += a.blocks[n].size
			blocks++
		}
	}
	return
}

func (a *Arena) valid(id BlockID) bool {
	return id >= 0 && int(id) < len(a.blocks) && a.blocks[id].inUse
}

func (a *Arena) isSentinel(id BlockID) bool {
	return id == 0 || int(id) == len(a.blocks)-1
}

func (a *Arena) freeSlot() int {
	for n := 1; n < len(a.blocks)-1; n++ {
		if !a.blocks[n].inUse {
			return n
		}
	}
	return -1
}

// ordered returns indices of in-use blocks sorted by offset. The start
// sentinel always comes first and the end sentinel last.
func (a *Arena) ordered() []int {
	order := make([]int, 0, len(a.blocks))
	for n := range a.blocks {
		if a.blocks[n].inUse {
			order = append(order, n)
		}
	}
	sort.Slice(order, func(i, j int) bool {
		bi, bj := &a.blocks[order[i]], &a.blocks[order[j]]
		if bi.offset != bj.offset {
			return bi.offset < bj.offset
		}
		return order[i] < order[j]
	})
	return order
}

// compact slides blocks towards the start of the pool until the gap after
// the last moved block can hold size bytes, and returns the offset of that
// gap. It returns -1 if the end sentinel is reached first.
func (a *Arena) compact(order []int, size int) int {
	for i := 0; i+1 < len(order); i++ {
		cur, next := &a.blocks[order[i]], &a.blocks[order[i+1]]
		end := cur.end()
		if next.offset-end >= size {
			return end
		}
		if i+1 == len(order)-1 {
			break
		}
		if next.offset != end {
			copy(a.buf[end:end+next.size], a.buf[next.offset:next.end()])
			next.offset = end
		}
	}
	return -1
}

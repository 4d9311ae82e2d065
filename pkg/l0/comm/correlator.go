package comm

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// DefaultSlotCapacity is the default number of pending frames kept per
// response code.
const DefaultSlotCapacity = 10

// Correlator buffers received frames per response code until they are
// taken. Each code has its own bounded queue, created on the first
// arrival of that code. A full queue drops its oldest frame to make room.
//
// Push must only be called from a single goroutine. Take is safe for
// concurrent use.
type Correlator struct {
	capacity int
	slots    *xsync.MapOf[ResponseCode, *responseSlot]
}

type responseSlot struct {
	frames chan *Frame
}

// NewCorrelator creates a Correlator keeping at most capacity frames per
// response code.
func NewCorrelator(capacity int) *Correlator {
	if capacity <= 0 {
		capacity = DefaultSlotCapacity
	}
	return &Correlator{
		capacity: capacity,
		slots:    xsync.NewMapOf[ResponseCode, *responseSlot](),
	}
}

// Capacity returns the capacity of each slot.
func (c *Correlator) Capacity() int {
	return c.capacity
}

// Push queues a frame under its response code and takes over the caller's
// reference. It returns the number of frames evicted to make room.
func (c *Correlator) Push(f *Frame) (evicted int) {
	code := ResponseCode(f.Descriptor().Code)
	slot, _ := c.slots.LoadOrCompute(code, func() *responseSlot {
		return &responseSlot{frames: make(chan *Frame, c.capacity)}
	})
	for {
		select {
		case slot.frames <- f:
			return
		default:
		}
		// a concurrent Take may empty the slot before this receive.
		select {
		case old := <-slot.frames:
			old.Release()
			evicted++
		default:
		}
	}
}

// Take pops the oldest pending frame of the code. The caller owns the
// returned reference and must Release it.
func (c *Correlator) Take(code ResponseCode) (*Frame, error) {
	slot, ok := c.slots.Load(code)
	if !ok {
		return nil, ErrNoSlot
	}
	select {
	case f := <-slot.frames:
		return f, nil
	default:
		return nil, ErrEmpty
	}
}

// TakeLatest pops all pending frames of the code and returns the newest
// one, releasing the others.
func (c *Correlator) TakeLatest(code ResponseCode) (*Frame, error) {
	latest, err := c.Take(code)
	if err != nil {
		return nil, err
	}
	for {
		f, err := c.Take(code)
		if err != nil {
			return latest, nil
		}
		latest.Release()
		latest = f
	}
}

// Evict releases the oldest pending frame of the code. It reports whether
// a frame was evicted.
func (c *Correlator) Evict(code ResponseCode) bool {
	f, err := c.Take(code)
	if err != nil {
		return false
	}
	f.Release()
	return true
}

// EvictFullest evicts the oldest frame of the code with the most pending
// frames.
func (c *Correlator) EvictFullest() bool {
	var fullest ResponseCode
	var most int
	c.slots.Range(func(code ResponseCode, slot *responseSlot) bool {
		if n := len(slot.frames); n > most {
			fullest, most = code, n
		}
		return true
	})
	return most > 0 && c.Evict(fullest)
}

// Pending returns the number of frames queued for the code.
func (c *Correlator) Pending(code ResponseCode) int {
	if slot, ok := c.slots.Load(code); ok {
		return len(slot.frames)
	}
	return 0
}

// Clear releases all pending frames. Slots are kept.
func (c *Correlator) Clear() (released int) {
	c.slots.Range(func(_ ResponseCode, slot *responseSlot) bool {
		for {
			select {
			case f := <-slot.frames:
				f.Release()
				released++
				continue
			default:
			}
			return true
		}
	})
	return
}

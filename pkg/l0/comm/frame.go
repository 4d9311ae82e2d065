package comm

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/robotalks/transbot.go/pkg/l0/arena"
)

// Frame is a single frame stored in an arena block.
// The payload is written exactly once, either by SetPayload when building
// a command or by SetRaw when a response is received. The frame is
// immutable afterwards.
type Frame struct {
	desc  Descriptor
	arena *arena.Arena
	block arena.BlockID
	refs  int32

	lock     sync.Mutex
	set      bool
	released bool
}

// Checksum calculates the checksum of an encoded frame: the byte sum from
// the length byte up to the byte before the checksum.
func Checksum(frame []byte) byte {
	var sum byte
	if len(frame) < Overhead {
		return sum
	}
	for _, b := range frame[2 : len(frame)-1] {
		sum += b
	}
	return sum
}

// NewFrame allocates an empty frame for the descriptor with the header
// filled in. The caller owns the single reference.
func NewFrame(a *arena.Arena, d Descriptor) (*Frame, error) {
	if d.Length < Overhead || d.Length > MaxFrameLen {
		return nil, fmt.Errorf("%w: %s length %d", ErrLengthMismatch, d, d.Length)
	}
	id, err := a.Alloc(d.Length)
	if err != nil {
		return nil, err
	}
	if err := a.View(id, func(b []byte) {
		b[0], b[1], b[2], b[3] = HeaderMark, d.Role.Marker(), byte(d.Length-2), d.Code
		for n := HeaderLen; n < len(b); n++ {
			b[n] = 0
		}
	}); err != nil {
		a.Free(id)
		return nil, err
	}
	return &Frame{desc: d, arena: a, block: id, refs: 1}, nil
}

// Descriptor returns the descriptor of the frame.
func (f *Frame) Descriptor() Descriptor {
	return f.desc
}

// Len returns the total length of the frame.
func (f *Frame) Len() int {
	return f.desc.Length
}

// IsSet indicates whether the payload has been set.
func (f *Frame) IsSet() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.set
}

// SetPayload writes the payload and computes the checksum.
func (f *Frame) SetPayload(payload []byte) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if err := f.checkWritable(); err != nil {
		return err
	}
	if len(payload) != f.desc.PayloadLen() {
		return fmt.Errorf("%w: %s payload %d, expect %d", ErrLengthMismatch, f.desc, len(payload), f.desc.PayloadLen())
	}
	f.arena.View(f.block, func(b []byte) {
		copy(b[HeaderLen:], payload)
		b[len(b)-1] = Checksum(b)
	})
	f.set = true
	return nil
}

// SetRaw fills the frame from a complete encoded frame. The header must
// match the descriptor of the frame and the checksum must be correct.
func (f *Frame) SetRaw(raw []byte) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if err := f.checkWritable(); err != nil {
		return err
	}
	if len(raw) != f.desc.Length {
		return fmt.Errorf("%w: %s frame %d, expect %d", ErrLengthMismatch, f.desc, len(raw), f.desc.Length)
	}
	if raw[0] != HeaderMark || raw[1] != f.desc.Role.Marker() ||
		raw[2] != byte(f.desc.Length-2) || raw[3] != f.desc.Code {
		return fmt.Errorf("%w: % x for %s", ErrDiscriminator, raw[:HeaderLen], f.desc)
	}
	if sum := Checksum(raw); sum != raw[len(raw)-1] {
		return fmt.Errorf("%w: %s got %02x, expect %02x", ErrChecksum, f.desc, raw[len(raw)-1], sum)
	}
	f.arena.View(f.block, func(b []byte) {
		copy(b, raw)
	})
	f.set = true
	return nil
}

// Payload returns a copy of the payload.
func (f *Frame) Payload() (payload []byte, err error) {
	err = f.read(func(b []byte) {
		payload = append([]byte(nil), b[HeaderLen:len(b)-1]...)
	})
	return
}

// Checksum returns the checksum byte.
func (f *Frame) Checksum() (sum byte, err error) {
	err = f.read(func(b []byte) {
		sum = b[len(b)-1]
	})
	return
}

// Bytes returns a copy of the encoded frame.
func (f *Frame) Bytes() (data []byte, err error) {
	err = f.read(func(b []byte) {
		data = append([]byte(nil), b...)
	})
	return
}

// WriteTo writes the encoded frame in a single Write call.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	var buf [MaxFrameLen]byte
	var size int
	if err := f.read(func(b []byte) {
		size = copy(buf[:], b)
	}); err != nil {
		return 0, err
	}
	n, err := w.Write(buf[:size])
	return int64(n), err
}

// Retain adds a reference to the frame. It returns nil once the last
// reference has been dropped, as the storage may already be reused.
func (f *Frame) Retain() *Frame {
	for {
		refs := atomic.LoadInt32(&f.refs)
		if refs <= 0 {
			return nil
		}
		if atomic.CompareAndSwapInt32(&f.refs, refs, refs+1) {
			return f
		}
	}
}

// Release drops a reference. The arena block is freed when the last
// reference is dropped.
func (f *Frame) Release() {
	if atomic.AddInt32(&f.refs, -1) != 0 {
		return
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	if !f.released {
		f.released = true
		f.arena.Free(f.block)
	}
}

func (f *Frame) checkWritable() error {
	if f.released {
		return ErrReleased
	}
	if f.set {
		return fmt.Errorf("%w: %s", ErrAlreadySet, f.desc)
	}
	return nil
}

func (f *Frame) read(fn func([]byte)) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.released {
		return ErrReleased
	}
	if !f.set {
		return fmt.Errorf("%w: %s", ErrNotSet, f.desc)
	}
	return f.arena.View(f.block, fn)
}

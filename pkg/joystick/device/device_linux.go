//go:build linux

package device

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	jsIOCGAxes    = 0x80016a11
	jsIOCGButtons = 0x80016a12
	jsIOCGName    = 0x80ff6a13 // 255 bytes
)

type device struct {
	file    *os.File
	index   int
	name    string
	axes    uint8
	buttons uint8
}

// Path returns the device path of the index.
func Path(index int) string {
	return fmt.Sprintf("/dev/input/js%d", index)
}

// Open opens the device with specified index.
func Open(index int) (Device, error) {
	f, err := os.OpenFile(Path(index), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	d := &device{file: f, index: index}
	var name [255]byte
	for _, q := range []struct {
		req uintptr
		ptr unsafe.Pointer
	}{
		{jsIOCGAxes, unsafe.Pointer(&d.axes)},
		{jsIOCGButtons, unsafe.Pointer(&d.buttons)},
		{jsIOCGName, unsafe.Pointer(&name[0])},
	} {
		if _, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), q.req, uintptr(q.ptr)); errno != 0 {
			f.Close()
			return nil, fmt.Errorf("ioctl %s: %w", Path(index), errno)
		}
	}
	if n := bytes.IndexByte(name[:], 0); n >= 0 {
		d.name = string(name[:n])
	} else {
		d.name = string(name[:])
	}
	return d, nil
}

// Detect opens the first available device from startIndex. It returns
// nil without error when none exists.
func Detect(startIndex int) (Device, error) {
	for index := startIndex; index < 32; index++ {
		d, err := Open(index)
		if os.IsNotExist(err) {
			continue
		}
		return d, err
	}
	return nil, nil
}

func (d *device) Close() error     { return d.file.Close() }
func (d *device) Index() int       { return d.index }
func (d *device) Name() string     { return d.name }
func (d *device) AxisCount() int   { return int(d.axes) }
func (d *device) ButtonCount() int { return int(d.buttons) }

// ReadEvent implements Device. Events other than axis and button are
// skipped.
func (d *device) ReadEvent() (Event, error) {
	var buf [8]byte
	for {
		if _, err := io.ReadFull(d.file, buf[:]); err != nil {
			return Event{}, err
		}
		if ev, ok := decodeEvent(buf[:]); ok {
			return ev, nil
		}
	}
}

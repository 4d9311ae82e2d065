package comm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	firmwareFrame = []byte{0xff, 0xfd, 0x05, 0x51, 0x01, 0x00, 0x57}
	gyroFrame     = []byte{0xff, 0xfd, 0x04, 0x0c, 0x01, 0x11}
)

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func feed(s *Synchronizer, in []byte) (frames [][]byte, discarded int) {
	for _, b := range in {
		r := s.Parse(b)
		discarded += r.Discarded
		if r.Frame != nil {
			frames = append(frames, append([]byte(nil), r.Frame...))
		}
	}
	return
}

func TestSynchronizer(t *testing.T) {
	testCases := []struct {
		name      string
		in        []byte
		frames    [][]byte
		discarded int
		pending   int
	}{
		{
			name:   "single frame",
			in:     firmwareFrame,
			frames: [][]byte{firmwareFrame},
		},
		{
			name:      "garbage before header",
			in:        concat([]byte{0x00, 0xff, 0x00}, firmwareFrame),
			frames:    [][]byte{firmwareFrame},
			discarded: 3,
		},
		{
			name:   "back to back",
			in:     concat(gyroFrame, firmwareFrame, gyroFrame),
			frames: [][]byte{gyroFrame, firmwareFrame, gyroFrame},
		},
		{
			name:      "repeated header mark",
			in:        concat([]byte{0xff, 0xff, 0xff}, gyroFrame),
			frames:    [][]byte{gyroFrame},
			discarded: 3,
		},
		{
			name:      "outbound marker ignored",
			in:        concat([]byte{0xff, 0xfe, 0x04, 0x07, 0x32, 0x3d}, gyroFrame),
			frames:    [][]byte{gyroFrame},
			discarded: 6,
		},
		{
			name:      "unknown code",
			in:        concat([]byte{0xff, 0xfd, 0x05, 0x53, 0x01, 0x00, 0x59}, firmwareFrame),
			frames:    [][]byte{firmwareFrame},
			discarded: 7,
		},
		{
			name:      "length disagrees with catalog",
			in:        concat([]byte{0xff, 0xfd, 0x06, 0x51}, firmwareFrame),
			frames:    [][]byte{firmwareFrame},
			discarded: 4,
		},
		{
			name:      "length out of range",
			in:        concat([]byte{0xff, 0xfd, 0x40}, gyroFrame),
			frames:    [][]byte{gyroFrame},
			discarded: 3,
		},
		{
			name:      "header mark as length restarts",
			in:        concat([]byte{0xff, 0xfd}, gyroFrame),
			frames:    [][]byte{gyroFrame},
			discarded: 2,
		},
		{
			name:    "partial frame",
			in:      firmwareFrame[:5],
			pending: 5,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var s Synchronizer
			frames, discarded := feed(&s, tc.in)
			require.Equalf(t, tc.frames, frames, "%s frames", tc.name)
			require.Equalf(t, tc.discarded, discarded, "%s discarded", tc.name)
			require.Equalf(t, tc.pending, s.Pending(), "%s pending", tc.name)
		})
	}
}

func TestSynchronizerDescriptor(t *testing.T) {
	var s Synchronizer
	var last SyncResult
	for _, b := range []byte{0x00, 0xff, 0x00, 0xff, 0xfd, 0x05, 0x51, 0x01, 0x00, 0x57} {
		if r := s.Parse(b); r.Frame != nil {
			require.Nil(t, last.Frame, "more than one frame")
			last = r
		}
	}
	require.NotNil(t, last.Frame)
	code, ok := last.Desc.Response()
	require.True(t, ok)
	require.Equal(t, RespFirmwareVersion, code)
}

func TestSynchronizerReset(t *testing.T) {
	var s Synchronizer
	frames, _ := feed(&s, gyroFrame[:4])
	require.Empty(t, frames)
	require.Equal(t, 4, s.Reset())
	require.Zero(t, s.Pending())
	frames, discarded := feed(&s, concat(gyroFrame[4:], gyroFrame))
	require.Equal(t, [][]byte{gyroFrame}, frames)
	require.Equal(t, 2, discarded)
}

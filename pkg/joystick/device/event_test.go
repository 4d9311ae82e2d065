package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	cases := []struct {
		name   string
		raw    []byte
		expect Event
		ok     bool
	}{
		{"axis", []byte{0, 0, 0, 0, 0x01, 0x80, 0x02, 1}, Event{Axis: true, Index: 1, Value: -32767}, true},
		{"button", []byte{0, 0, 0, 0, 1, 0, 0x01, 3}, Event{Index: 3, Value: 1}, true},
		{"init button", []byte{0, 0, 0, 0, 0, 0, 0x81, 0}, Event{Init: true}, true},
		{"unknown", []byte{0, 0, 0, 0, 0, 0, 0x04, 0}, Event{}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ev, ok := decodeEvent(c.raw)
			require.Equal(t, c.ok, ok)
			if ok {
				require.Equal(t, c.expect, ev)
			}
		})
	}
	require.True(t, Event{Index: 3, Value: 1}.Pressed())
	require.False(t, Event{Axis: true, Value: 1}.Pressed())
}

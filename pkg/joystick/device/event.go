package device

import "encoding/binary"

// decodeEvent decodes struct js_event: u32 time, s16 value, u8 type, u8 number.
func decodeEvent(b []byte) (Event, bool) {
	typ := b[6]
	ev := Event{
		Init:  typ&0x80 != 0,
		Index: int(b[7]),
		Value: int(int16(binary.LittleEndian.Uint16(b[4:]))),
	}
	switch typ &^ 0x80 {
	case 0x01:
	case 0x02:
		ev.Axis = true
	default:
		return ev, false
	}
	return ev, true
}

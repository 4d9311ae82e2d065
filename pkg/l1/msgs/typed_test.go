package msgs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedRoundTrip(t *testing.T) {
	typed, err := TypedFrom(NewCommandErrFromMsg("out of range"))
	require.NoError(t, err)
	require.True(t, typed.IsCommand())
	require.False(t, typed.IsEvent())
	typed.Sequence = 42

	data, err := typed.Encode()
	require.NoError(t, err)
	decoded, err := DecodeTyped(data)
	require.NoError(t, err)
	require.Equal(t, CommandErrTypeID, decoded.TypeID)
	require.Equal(t, uint32(42), decoded.Sequence)

	msg, err := decoded.Decode()
	require.NoError(t, err)
	require.IsType(t, &CommandErr{}, msg)
	require.EqualError(t, msg.(*CommandErr), "out of range")
}

func TestTypedErrors(t *testing.T) {
	_, err := TypedFrom(nil)
	require.ErrorIs(t, err, ErrNotSerializable)

	typed := &Typed{TypeID: GroupCustom | 0x7777}
	_, err = typed.Decode()
	var unknown *ErrUnknownType
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, typed.TypeID, unknown.TypeID)

	typed.TypeID |= TypeIDKindEvent
	require.True(t, typed.IsEvent())
}

package cardtlv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueOffset(t *testing.T) {
	buf := mustHex(t, "FFFF9F38029F66")

	off, err := ValueOffset(buf, 2)
	require.NoError(t, err)
	require.Equal(t, 5, off)

	// long form length
	buf = append([]byte{0x84, 0x81, 0x80}, make([]byte, 128)...)

	off, err = ValueOffset(buf, 0)
	require.NoError(t, err)
	require.Equal(t, 3, off)
}

func TestValueOffsetErrors(t *testing.T) {
	_, err := ValueOffset(mustHex(t, "6F03840122"), 0)
	require.Error(t, err)

	reason, ok := ReasonOf(err)
	require.True(t, ok)
	require.Equal(t, ReasonMalformedTLV, reason)

	_, err = ValueOffset(nil, 0)
	require.ErrorIs(t, err, ErrNilInput)

	_, err = ValueOffset([]byte{0x84, 0x00}, 5)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestFindRaw(t *testing.T) {
	// children: 84 01 AA at 2, 97 01 EE at 5, EOC at 8, 84 01 BB at 9
	buf := mustHex(t, "6F0A8401AA9701EE008401BB")

	off, err := FindRaw(buf, 0, Tag{0x84})
	require.NoError(t, err)
	require.Equal(t, 2, off)

	off, err = FindRaw(buf, 0, Tag{0x97})
	require.NoError(t, err)
	require.Equal(t, 5, off)

	off, err = FindRaw(buf, 0, Tag{0x50})
	require.NoError(t, err)
	require.Equal(t, -1, off)
}

func TestFindNextRaw(t *testing.T) {
	// children: 84 01 AA at 2, 97 01 EE at 5, EOC at 8, 84 01 BB at 9
	buf := mustHex(t, "6F0A8401AA9701EE008401BB")

	off, err := FindNextRaw(buf, 0, 2, Tag{0x84})
	require.NoError(t, err)
	require.Equal(t, 9, off)

	off, err = FindNextRaw(buf, 0, 9, Tag{0x84})
	require.NoError(t, err)
	require.Equal(t, -1, off)
}

func TestFindRawOnPrimitive(t *testing.T) {
	off, err := FindRaw(mustHex(t, "8401AA"), 0, Tag{0x84})
	require.NoError(t, err)
	require.Equal(t, -1, off)
}

func TestAppendRaw(t *testing.T) {
	out := make([]byte, 32)
	copy(out, mustHex(t, "6F058401AA9700"))

	in := mustHex(t, "5003414243")

	size, err := AppendRaw(in, 0, out, 0)
	require.NoError(t, err)
	require.Equal(t, 12, size)
	require.Equal(t, mustHex(t, "6F0A8401AA97005003414243"), out[:size])
}

func TestAppendRawAtOffset(t *testing.T) {
	out := make([]byte, 16)
	copy(out[4:], mustHex(t, "A500"))

	in := mustHex(t, "8401AA")

	size, err := AppendRaw(in, 0, out, 4)
	require.NoError(t, err)
	require.Equal(t, 5, size)
	require.Equal(t, mustHex(t, "A5038401AA"), out[4:4+size])
}

func TestAppendRawGrowsLengthField(t *testing.T) {
	// container body of 126 bytes: appending a 3 byte TLV pushes the length
	// field from one octet to two and shifts the body
	body := make([]byte, 0, 126)
	body = append(body, 0x84, 0x7C)
	body = append(body, make([]byte, 124)...)

	out := make([]byte, 256)
	out[0] = 0x6F
	out[1] = 0x7E
	copy(out[2:], body)

	in := mustHex(t, "9701EE")

	size, err := AppendRaw(in, 0, out, 0)
	require.NoError(t, err)

	// 1 tag + 2 length + 129 body
	require.Equal(t, 132, size)
	require.Equal(t, []byte{0x6F, 0x81, 0x81}, out[:3])
	require.Equal(t, body, out[3:3+len(body)])
	require.Equal(t, in, out[3+len(body):size])
}

func TestAppendRawErrors(t *testing.T) {
	// primitive container
	out := make([]byte, 16)
	copy(out, mustHex(t, "8401AA"))

	_, err := AppendRaw(mustHex(t, "9700"), 0, out, 0)
	require.Error(t, err)

	reason, ok := ReasonOf(err)
	require.True(t, ok)
	require.Equal(t, ReasonMalformedTLV, reason)

	// output buffer too small for the grown container
	small := mustHex(t, "6F058401AA9700")

	_, err = AppendRaw(mustHex(t, "5003414243"), 0, small, 0)
	require.ErrorIs(t, err, ErrOutOfBounds)

	// malformed input tlv
	out2 := make([]byte, 16)
	copy(out2, mustHex(t, "6F00"))

	_, err = AppendRaw([]byte{0x84, 0x05, 0x01}, 0, out2, 0)
	require.Error(t, err)
}

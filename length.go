package cardtlv

import (
	"github.com/pkg/errors"
)

// maxValueLength is the largest value length supported by the in-memory node
// model. The length encoder can emit larger lengths on the wire, but size
// queries on nodes reject anything above this limit.
const maxValueLength = 32767

// maxEncodableLength is the largest length the 0x83 long form can carry.
const maxEncodableLength = 1<<24 - 1

// DecodeLength reads a definite-form length from the start of b. It returns
// the length value and the number of octets the length field occupies.
//
// Decoded values above 32767 fail with ReasonTLVLengthGreater32767, as does
// any first octet that announces a wider form than 0x82.
func DecodeLength(b []byte) (length int, n int, err error) {
	if b == nil {
		return 0, 0, errors.WithStack(ErrNilInput)
	}

	if len(b) == 0 {
		return 0, 0, errors.Wrap(ErrOutOfBounds, "read length from empty buffer")
	}

	// one byte length encoding for values from 0 to 127
	if b[0]&0x80 == 0 {
		return int(b[0] & 0x7F), 1, nil
	}

	// two byte length encoding for values from 0 to 255
	if b[0] == 0x81 {
		if len(b) < 2 {
			return 0, 0, errors.Wrap(ErrOutOfBounds, "length indicates a second octet beyond the end of the buffer")
		}

		return int(b[1]), 2, nil
	}

	// three byte length encoding for values from 0 to 32767
	if b[0] == 0x82 {
		v, err := getShort(b, 1)
		if err != nil {
			return 0, 0, errors.Wrap(err, "length indicates two more octets beyond the end of the buffer")
		}

		if v&0x8000 != 0 {
			return 0, 0, codedErrorf(ReasonTLVLengthGreater32767, "decoded length %d exceeds 32767", v)
		}

		return int(v), 3, nil
	}

	return 0, 0, codedErrorf(ReasonTLVLengthGreater32767, "length octet %02X announces an unsupported form", b[0])
}

// EncodeLength encodes a definite-form length. Lengths up to 127 use the
// short form, larger lengths the 0x81, 0x82 or 0x83 long forms.
func EncodeLength(length int) ([]byte, error) {
	if length < 0 {
		return nil, codedErrorf(ReasonInvalidParam, "negative length %d", length)
	}

	if length > maxEncodableLength {
		return nil, codedErrorf(ReasonIllegalSize, "length %d does not fit in three octets", length)
	}

	if length < 128 {
		return []byte{byte(length)}, nil
	}

	if length < 256 {
		return []byte{0x81, byte(length)}, nil
	}

	if length < 65536 {
		b := []byte{0x82, 0x00, 0x00}
		if err := setShort(b, 1, uint16(length)); err != nil {
			return nil, err
		}

		return b, nil
	}

	return []byte{0x83, byte(length >> 16), byte(length >> 8), byte(length)}, nil
}

// LengthOfLength returns the number of octets the length field of the given
// length occupies.
func LengthOfLength(length int) (int, error) {
	if length < 0 {
		return 0, codedErrorf(ReasonInvalidParam, "negative length %d", length)
	}

	if length < 128 {
		return 1, nil
	}

	if length < 256 {
		return 2, nil
	}

	if length < 65536 {
		return 3, nil
	}

	return 4, nil
}

// lengthFieldSize reads the width of a length field from its first octet
// without decoding the value.
func lengthFieldSize(b []byte) (int, error) {
	if b == nil {
		return 0, errors.WithStack(ErrNilInput)
	}

	if len(b) == 0 {
		return 0, errors.Wrap(ErrOutOfBounds, "read length from empty buffer")
	}

	switch {
	case b[0]&0x80 == 0:
		return 1, nil
	case b[0] == 0x81:
		return 2, nil
	case b[0] == 0x82:
		return 3, nil
	case b[0] == 0x83:
		return 4, nil
	default:
		return 0, codedErrorf(ReasonTLVLengthGreater32767, "length octet %02X announces an unsupported form", b[0])
	}
}

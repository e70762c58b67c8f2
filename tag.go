package cardtlv

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// maxTagNumber is the largest supported tag number; larger numbers are
// rejected even where three continuation octets could carry them.
const maxTagNumber = 32767

// maxTagSize is the largest supported identifier size in bytes: one leading
// octet plus up to three continuation octets.
const maxTagSize = 4

// Class is the class of a BER tag, taken from the top two bits of its first
// octet.
type Class int

const (
	Universal       Class = iota
	Application     Class = iota
	ContextSpecific Class = iota
	Private         Class = iota
)

// Tag is the 1 to 4 byte identifier of a BER-TLV structure. The raw octets
// are kept as parsed so that re-encoding is byte exact.
type Tag []byte

// NewTag encodes a tag from its class, constructed bit and number. Numbers
// below 31 use the short form; larger numbers are encoded with up to three
// continuation octets. Numbers above 32767 are not supported and fail with
// ReasonIllegalSize.
func NewTag(class Class, constructed bool, number int) (Tag, error) {
	if class < Universal || class > Private {
		return nil, codedErrorf(ReasonInvalidParam, "invalid class %d", class)
	}

	if number < 0 {
		return nil, codedErrorf(ReasonInvalidParam, "negative tag number %d", number)
	}

	if number > maxTagNumber {
		return nil, codedErrorf(ReasonIllegalSize, "tag number %d exceeds 32767", number)
	}

	first := byte(class) << 6
	if constructed {
		first |= 0x20
	}

	if number < 31 {
		return Tag{first | byte(number)}, nil
	}

	first |= 0x1F

	// continuation octets, 7 bits each, big-endian
	var groups []byte
	for n := number; n > 0; n >>= 7 {
		groups = append(groups, byte(n&0x7F))
	}

	t := Tag{first}

	for i := len(groups) - 1; i > 0; i-- {
		t = append(t, groups[i]|0x80)
	}

	return append(t, groups[0]), nil
}

// DecodeTag reads one tag from the start of b and returns its raw octets.
// The continuation chain is validated; a chain longer than four bytes in
// total fails with ReasonIllegalSize, a truncated chain with ErrOutOfBounds.
func DecodeTag(b []byte) (Tag, error) {
	size, err := TagSize(b)
	if err != nil {
		return nil, err
	}

	t := make(Tag, size)
	copy(t, b[:size])

	return t, nil
}

// TagSize returns the identifier length in bytes of the tag starting at the
// first byte of b without building a Tag.
func TagSize(b []byte) (int, error) {
	if b == nil {
		return 0, errors.WithStack(ErrNilInput)
	}

	if len(b) == 0 {
		return 0, errors.Wrap(ErrOutOfBounds, "read tag at start of empty buffer")
	}

	if b[0]&0x1F != 0x1F {
		return 1, nil
	}

	size := 1

	for {
		if size >= len(b) {
			return 0, errors.Wrap(ErrOutOfBounds, "tag indicates continuation octets beyond the end of the buffer")
		}

		octet := b[size]
		size++

		if octet&0x80 == 0 {
			break
		}

		if size > maxTagSize {
			return 0, codedErrorf(ReasonIllegalSize, "tag consists of more than %d bytes", maxTagSize)
		}
	}

	if size > maxTagSize {
		return 0, codedErrorf(ReasonIllegalSize, "tag consists of more than %d bytes", maxTagSize)
	}

	return size, nil
}

// Size returns the number of raw octets of the tag.
func (t Tag) Size() int {
	return len(t)
}

// Class returns the class of the tag from the top two bits of its first
// octet.
func (t Tag) Class() (Class, error) {
	if len(t) == 0 {
		return 0, codedErrorf(ReasonEmptyTag, "class of empty tag")
	}

	switch t[0] & 0xC0 {
	case 0x40:
		return Application, nil
	case 0x80:
		return ContextSpecific, nil
	case 0xC0:
		return Private, nil
	default:
		return Universal, nil
	}
}

// IsConstructed returns true if the first byte of the tag indicates a
// constructed TLV structure (b6 is set), otherwise false.
func (t Tag) IsConstructed() bool {
	if len(t) == 0 {
		return false
	}

	return t[0]&0x20 != 0
}

// Number returns the tag number. For the short form this is the low five
// bits of the first octet; for the long form it is assembled from 7 bits per
// continuation octet. Numbers above 32767 fail with
// ReasonTagNumberGreater32767.
func (t Tag) Number() (int, error) {
	if len(t) == 0 {
		return 0, codedErrorf(ReasonEmptyTag, "number of empty tag")
	}

	if t[0]&0x1F != 0x1F {
		return int(t[0] & 0x1F), nil
	}

	if err := t.CheckEncoding(); err != nil {
		return 0, err
	}

	switch len(t) {
	case 2:
		return int(t[1] & 0x7F), nil
	case 3:
		return int(t[1]&0x7F)<<7 | int(t[2]&0x7F), nil
	default:
		if t[1]&0x7E != 0 {
			return 0, codedErrorf(ReasonTagNumberGreater32767, "tag % X encodes a number above 32767", []byte(t))
		}

		return int(t[1]&0x01)<<14 | int(t[2]&0x7F)<<7 | int(t[3]&0x7F), nil
	}
}

// Equal reports whether two tags consist of the same raw octets. Tags with
// the same number but different encodings compare unequal.
func (t Tag) Equal(other Tag) bool {
	return bytes.Equal(t, other)
}

// CheckEncoding checks that the continuation chain of the tag matches its
// raw length: the first octet must announce continuation octets if and only
// if there are any, all but the last continuation octet must have their top
// bit set, and the last must not.
func (t Tag) CheckEncoding() error {
	if len(t) == 0 {
		return codedErrorf(ReasonEmptyTag, "encoding check on empty tag")
	}

	if len(t) > maxTagSize {
		return codedErrorf(ReasonIllegalSize, "tag consists of %d bytes, maximum is %d", len(t), maxTagSize)
	}

	if len(t) == 1 {
		if t[0]&0x1F == 0x1F {
			return codedErrorf(ReasonMalformedTag, "tag consists of one byte but indicates that more bytes follow")
		}

		return nil
	}

	if t[0]&0x1F != 0x1F {
		return codedErrorf(ReasonMalformedTag, "tag consists of %d bytes but first byte does not indicate that more bytes follow", len(t))
	}

	for i := 1; i < len(t)-1; i++ {
		if t[i]&0x80 == 0 {
			return codedErrorf(ReasonMalformedTag, "continuation octet %d of tag % X ends the chain early", i, []byte(t))
		}
	}

	if t[len(t)-1]&0x80 != 0 {
		return codedErrorf(ReasonMalformedTag, "last octet of tag % X indicates that more bytes follow", []byte(t))
	}

	return nil
}

// String returns the hex encoded (upper-case) raw octets.
func (t Tag) String() string {
	return strings.ToUpper(hex.EncodeToString(t))
}

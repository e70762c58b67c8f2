package cardtlv

import (
	"github.com/pkg/errors"
)

// Parse reads one TLV from the start of b and returns the resulting node
// together with the number of bytes consumed. Bytes beyond the first TLV are
// left untouched; use ParseList for buffers that carry several concatenated
// TLVs.
//
// If the tag indicates a constructed structure, the value field is
// recursively parsed into child nodes. Format violations fail with
// ReasonMalformedTLV and no partial state.
func Parse(b []byte) (*TLV, int, error) {
	if b == nil {
		return nil, 0, errors.WithStack(ErrNilInput)
	}

	if len(b) == 0 {
		return nil, 0, codedErrorf(ReasonMalformedTLV, "tlv has length 0")
	}

	tag, err := DecodeTag(b)
	if err != nil {
		return nil, 0, codedWrapf(err, ReasonMalformedTLV, "invalid tag at start: % X", shortPrefix(b))
	}

	length, lol, err := DecodeLength(b[tag.Size():])
	if err != nil {
		return nil, 0, codedWrapf(err, ReasonMalformedTLV, "tag %s: invalid length encoding", tag)
	}

	headerSize := tag.Size() + lol

	if headerSize+length > len(b) {
		return nil, 0, codedErrorf(ReasonMalformedTLV, "tag %s: indicated value length %d is out of bounds, %d bytes available", tag, length, len(b)-headerSize)
	}

	value := b[headerSize : headerSize+length]

	if !tag.IsConstructed() {
		node := &TLV{tag: tag}
		node.value = append(node.value, value...)

		return node, headerSize + length, nil
	}

	children, err := ParseList(value)
	if err != nil {
		return nil, 0, codedWrapf(err, ReasonMalformedTLV, "tag %s: invalid child object", tag)
	}

	return &TLV{tag: tag, children: children}, headerSize + length, nil
}

// CheckFormat reports whether b consists entirely of well-formed BER-TLV
// structures. An empty buffer is not well-formed.
func CheckFormat(b []byte) bool {
	if len(b) == 0 {
		return false
	}

	_, err := ParseList(b)

	return err == nil
}

// shortPrefix bounds error message context to the first few bytes of a
// buffer.
func shortPrefix(b []byte) []byte {
	if len(b) > 8 {
		return b[:8]
	}

	return b
}

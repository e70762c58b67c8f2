package cardtlv

import (
	"bytes"

	"github.com/pkg/errors"
)

// The helpers in this file operate directly on raw byte buffers without
// allocating nodes. They exist for callers that patch TLV data in place,
// such as command buffers that are re-sent after a single field changed.

// ValueOffset returns the absolute offset of the value field of the
// primitive TLV starting at off. Fails with ReasonMalformedTLV for a
// constructed TLV.
func ValueOffset(buf []byte, off int) (int, error) {
	if buf == nil {
		return 0, errors.WithStack(ErrNilInput)
	}

	if off < 0 || off >= len(buf) {
		return 0, errors.Wrapf(ErrOutOfBounds, "read tlv at offset %d of %d", off, len(buf))
	}

	tag, err := DecodeTag(buf[off:])
	if err != nil {
		return 0, err
	}

	if tag.IsConstructed() {
		return 0, codedErrorf(ReasonMalformedTLV, "tag %s: constructed tlv has no value offset", tag)
	}

	lol, err := lengthFieldSize(buf[off+tag.Size():])
	if err != nil {
		return 0, err
	}

	return off + tag.Size() + lol, nil
}

// FindRaw returns the absolute offset into buf of the first child of the
// constructed TLV at tlvOff whose tag equals the given tag, or -1 if there
// is no match. 0x00 end-of-content octets at child boundaries are skipped.
func FindRaw(buf []byte, tlvOff int, tag Tag) (int, error) {
	return findRawAfter(buf, tlvOff, -1, tag)
}

// FindNextRaw returns the absolute offset into buf of the next child of the
// constructed TLV at tlvOff that starts after startOff and whose tag equals
// the given tag, or -1 if there is no match.
func FindNextRaw(buf []byte, tlvOff int, startOff int, tag Tag) (int, error) {
	return findRawAfter(buf, tlvOff, startOff, tag)
}

func findRawAfter(buf []byte, tlvOff int, afterOff int, tag Tag) (int, error) {
	if buf == nil {
		return 0, errors.WithStack(ErrNilInput)
	}

	if tlvOff < 0 || tlvOff >= len(buf) {
		return 0, errors.Wrapf(ErrOutOfBounds, "read tlv at offset %d of %d", tlvOff, len(buf))
	}

	containerTag, err := DecodeTag(buf[tlvOff:])
	if err != nil {
		return 0, err
	}

	if !containerTag.IsConstructed() {
		return -1, nil
	}

	length, lol, err := DecodeLength(buf[tlvOff+containerTag.Size():])
	if err != nil {
		return 0, err
	}

	pos := tlvOff + containerTag.Size() + lol
	end := pos + length

	if end > len(buf) {
		return 0, codedErrorf(ReasonMalformedTLV, "tag %s: indicated value length %d is out of bounds", containerTag, length)
	}

	for pos < end {
		if buf[pos] == 0x00 {
			pos++

			continue
		}

		childSize, childTagSize, err := rawSize(buf[pos:end])
		if err != nil {
			return 0, codedWrapf(err, ReasonMalformedTLV, "tag %s: invalid child object at offset %d", containerTag, pos)
		}

		if pos > afterOff && bytes.Equal(buf[pos:pos+childTagSize], tag) {
			return pos, nil
		}

		pos += childSize
	}

	return -1, nil
}

// rawSize reads the encoded size of the TLV at the start of b without
// building a node. It returns the total size and the tag size.
func rawSize(b []byte) (size int, tagSize int, err error) {
	tagSize, err = TagSize(b)
	if err != nil {
		return 0, 0, err
	}

	length, lol, err := DecodeLength(b[tagSize:])
	if err != nil {
		return 0, 0, err
	}

	size = tagSize + lol + length

	if size > len(b) {
		return 0, 0, codedErrorf(ReasonMalformedTLV, "indicated value length %d is out of bounds", length)
	}

	return size, tagSize, nil
}

// AppendRaw parses one TLV from in at inOff and appends it to the body of
// the constructed TLV at outOff in out, re-emitting the container's length
// field in place. It returns the new total size of the container. The body
// is shifted when the length field grows a byte; out must have room for the
// grown container up to its actual end.
func AppendRaw(in []byte, inOff int, out []byte, outOff int) (int, error) {
	if in == nil || out == nil {
		return 0, errors.WithStack(ErrNilInput)
	}

	if inOff < 0 || inOff >= len(in) {
		return 0, errors.Wrapf(ErrOutOfBounds, "read tlv at offset %d of %d", inOff, len(in))
	}

	if outOff < 0 || outOff >= len(out) {
		return 0, errors.Wrapf(ErrOutOfBounds, "read tlv at offset %d of %d", outOff, len(out))
	}

	containerTag, err := DecodeTag(out[outOff:])
	if err != nil {
		return 0, err
	}

	if !containerTag.IsConstructed() {
		return 0, codedErrorf(ReasonMalformedTLV, "tag %s: cannot append to a primitive tlv", containerTag)
	}

	oldLength, oldLol, err := DecodeLength(out[outOff+containerTag.Size():])
	if err != nil {
		return 0, err
	}

	_, consumed, err := Parse(in[inOff:])
	if err != nil {
		return 0, err
	}

	newLength := oldLength + consumed

	if newLength > maxValueLength {
		return 0, codedErrorf(ReasonTLVLengthGreater32767, "tag %s: content length %d exceeds 32767", containerTag, newLength)
	}

	newLol, err := LengthOfLength(newLength)
	if err != nil {
		return 0, err
	}

	newSize := containerTag.Size() + newLol + newLength

	if outOff+newSize > len(out) {
		return 0, errors.Wrapf(ErrOutOfBounds, "grown container needs %d bytes at offset %d of %d", newSize, outOff, len(out))
	}

	oldBodyStart := outOff + containerTag.Size() + oldLol
	newBodyStart := outOff + containerTag.Size() + newLol

	if oldBodyStart+oldLength > len(out) {
		return 0, codedErrorf(ReasonMalformedTLV, "tag %s: indicated value length %d is out of bounds", containerTag, oldLength)
	}

	if newLol != oldLol {
		copy(out[newBodyStart:newBodyStart+oldLength], out[oldBodyStart:oldBodyStart+oldLength])
	}

	lengthBytes, err := EncodeLength(newLength)
	if err != nil {
		return 0, err
	}

	copy(out[outOff+containerTag.Size():], lengthBytes)
	copy(out[newBodyStart+oldLength:], in[inOff:inOff+consumed])

	return newSize, nil
}

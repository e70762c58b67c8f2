package cardtlv

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// getShort reads a big-endian 16 bit value from b at off.
func getShort(b []byte, off int) (uint16, error) {
	if b == nil {
		return 0, errors.WithStack(ErrNilInput)
	}

	if off < 0 || off+2 > len(b) {
		return 0, errors.Wrapf(ErrOutOfBounds, "read 2 bytes at offset %d of %d", off, len(b))
	}

	return binary.BigEndian.Uint16(b[off : off+2]), nil
}

// setShort writes v big-endian into b at off.
func setShort(b []byte, off int, v uint16) error {
	if b == nil {
		return errors.WithStack(ErrNilInput)
	}

	if off < 0 || off+2 > len(b) {
		return errors.Wrapf(ErrOutOfBounds, "write 2 bytes at offset %d of %d", off, len(b))
	}

	binary.BigEndian.PutUint16(b[off:off+2], v)

	return nil
}

// arrayCopy copies n bytes from src at srcOff to dst at dstOff with explicit
// bounds checks on both buffers.
func arrayCopy(src []byte, srcOff int, dst []byte, dstOff int, n int) error {
	if src == nil || dst == nil {
		return errors.WithStack(ErrNilInput)
	}

	if n < 0 {
		return codedErrorf(ReasonInvalidParam, "negative copy count %d", n)
	}

	if srcOff < 0 || srcOff+n > len(src) {
		return errors.Wrapf(ErrOutOfBounds, "read %d bytes at offset %d of %d", n, srcOff, len(src))
	}

	if dstOff < 0 || dstOff+n > len(dst) {
		return errors.Wrapf(ErrOutOfBounds, "write %d bytes at offset %d of %d", n, dstOff, len(dst))
	}

	copy(dst[dstOff:dstOff+n], src[srcOff:srcOff+n])

	return nil
}

// Package cardtlv implements parsing, building and mutation of BER-TLV
// structures as used by smart card tooling (EMV, GlobalPlatform).
//
// A TLV is either primitive (the value is opaque bytes) or constructed (the
// value is a sequence of nested TLVs). The variant is fixed by bit 6 of the
// first tag octet. Trees obtained from Parse can be edited in place through
// AppendValue, ReplaceValue, Append and Delete and re-encoded byte exactly.
package cardtlv

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// TLV is a single BER-TLV data object. A constructed TLV owns its children
// exclusively; a primitive TLV owns its value buffer. The zero value is an
// uninitialized TLV whose observers fail with ReasonEmptyTLV.
type TLV struct {
	tag      Tag
	value    []byte // value of a primitive TLV
	children *List  // children of a constructed TLV
	noExpand bool
}

// NewTLV returns a new TLV with the given tag and value bytes. If the tag
// indicates a constructed structure, the value is recursively parsed into
// child objects; otherwise the value is copied as is.
func NewTLV(tag Tag, value []byte) (*TLV, error) {
	if err := tag.CheckEncoding(); err != nil {
		return nil, err
	}

	if !tag.IsConstructed() {
		t := &TLV{tag: append(Tag(nil), tag...)}
		t.value = append(t.value, value...)

		return t, nil
	}

	children, err := ParseList(value)
	if err != nil {
		return nil, errors.Wrapf(err, "tag %s: invalid content", tag)
	}

	return &TLV{tag: append(Tag(nil), tag...), children: children}, nil
}

// NewPrimitive returns an empty primitive TLV whose value buffer is
// pre-sized to capacity bytes.
func NewPrimitive(tag Tag, capacity int) (*TLV, error) {
	if err := tag.CheckEncoding(); err != nil {
		return nil, err
	}

	if tag.IsConstructed() {
		return nil, codedErrorf(ReasonInvalidParam, "tag %s indicates a constructed structure", tag)
	}

	if capacity < 0 {
		return nil, codedErrorf(ReasonInvalidParam, "negative capacity %d", capacity)
	}

	return &TLV{tag: append(Tag(nil), tag...), value: make([]byte, 0, capacity)}, nil
}

// NewConstructed returns an empty constructed TLV whose child list is
// pre-sized to capacity entries.
func NewConstructed(tag Tag, capacity int) (*TLV, error) {
	if err := tag.CheckEncoding(); err != nil {
		return nil, err
	}

	if !tag.IsConstructed() {
		return nil, codedErrorf(ReasonInvalidParam, "tag %s indicates a primitive structure", tag)
	}

	if capacity < 0 {
		return nil, codedErrorf(ReasonInvalidParam, "negative capacity %d", capacity)
	}

	return &TLV{tag: append(Tag(nil), tag...), children: NewList(capacity)}, nil
}

// SetAutoExpand controls whether the value buffer of a primitive TLV may
// grow beyond its capacity. Expansion is enabled by default; with expansion
// disabled, AppendValue and ReplaceValue fail with
// ReasonInsufficientStorage instead of reallocating.
func (t *TLV) SetAutoExpand(enabled bool) {
	t.noExpand = !enabled
}

// Tag returns the tag of the TLV.
func (t *TLV) Tag() (Tag, error) {
	if t == nil || len(t.tag) == 0 {
		return nil, codedErrorf(ReasonEmptyTLV, "tag of uninitialized tlv")
	}

	return t.tag, nil
}

// IsConstructed returns true if the TLV is a constructed structure.
func (t *TLV) IsConstructed() bool {
	if t == nil {
		return false
	}

	return t.tag.IsConstructed()
}

// Length returns the byte count of the value field. For a constructed TLV
// this is the sum of the encoded sizes of its children. Lengths above 32767
// fail with ReasonTLVLengthGreater32767.
func (t *TLV) Length() (int, error) {
	if t == nil || len(t.tag) == 0 {
		return 0, codedErrorf(ReasonEmptyTLV, "length of uninitialized tlv")
	}

	if !t.IsConstructed() {
		if len(t.value) > maxValueLength {
			return 0, codedErrorf(ReasonTLVLengthGreater32767, "value length %d exceeds 32767", len(t.value))
		}

		return len(t.value), nil
	}

	length := 0

	for _, child := range t.children.nodes {
		size, err := child.Size()
		if err != nil {
			return 0, err
		}

		length += size
	}

	if length > maxValueLength {
		return 0, codedErrorf(ReasonTLVLengthGreater32767, "content length %d exceeds 32767", length)
	}

	return length, nil
}

// Size returns the encoded size of the TLV: tag octets plus length field
// plus value field. Sizes above 32767 fail with ReasonTLVSizeGreater32767.
func (t *TLV) Size() (int, error) {
	length, err := t.Length()
	if err != nil {
		return 0, err
	}

	lol, err := LengthOfLength(length)
	if err != nil {
		return 0, err
	}

	size := t.tag.Size() + lol + length

	if size > maxValueLength {
		return 0, codedErrorf(ReasonTLVSizeGreater32767, "encoded size %d exceeds 32767", size)
	}

	return size, nil
}

// Encode writes the encoded TLV into dst at off and returns the number of
// bytes written.
func (t *TLV) Encode(dst []byte, off int) (int, error) {
	if dst == nil {
		return 0, errors.WithStack(ErrNilInput)
	}

	size, err := t.Size()
	if err != nil {
		return 0, err
	}

	if off < 0 || off+size > len(dst) {
		return 0, errors.Wrapf(ErrOutOfBounds, "write %d bytes at offset %d of %d", size, off, len(dst))
	}

	length, err := t.Length()
	if err != nil {
		return 0, err
	}

	pos := off + copy(dst[off:], t.tag)

	lengthBytes, err := EncodeLength(length)
	if err != nil {
		return 0, err
	}

	pos += copy(dst[pos:], lengthBytes)

	if !t.IsConstructed() {
		pos += copy(dst[pos:], t.value)

		return pos - off, nil
	}

	for _, child := range t.children.nodes {
		n, err := child.Encode(dst, pos)
		if err != nil {
			return 0, err
		}

		pos += n
	}

	return pos - off, nil
}

// Bytes returns a freshly allocated byte representation of the TLV
// (Tag | Length | Value).
func (t *TLV) Bytes() ([]byte, error) {
	size, err := t.Size()
	if err != nil {
		return nil, err
	}

	b := make([]byte, size)

	if _, err := t.Encode(b, 0); err != nil {
		return nil, err
	}

	return b, nil
}

// Value returns the value bytes of a primitive TLV. The returned slice is
// borrowed and remains valid only until the next mutation of the TLV.
// Returns nil for a constructed TLV.
func (t *TLV) Value() []byte {
	if t == nil || t.IsConstructed() {
		return nil
	}

	return t.value
}

// CopyValue copies the value bytes of a primitive TLV into dst at off and
// returns the number of bytes copied.
func (t *TLV) CopyValue(dst []byte, off int) (int, error) {
	if t == nil || len(t.tag) == 0 {
		return 0, codedErrorf(ReasonEmptyTLV, "value of uninitialized tlv")
	}

	if t.IsConstructed() {
		return 0, codedErrorf(ReasonInvalidParam, "tag %s: constructed tlv has no value buffer", t.tag)
	}

	if len(t.value) == 0 {
		return 0, nil
	}

	if err := arrayCopy(t.value, 0, dst, off, len(t.value)); err != nil {
		return 0, err
	}

	return len(t.value), nil
}

// AppendValue grows the value of a primitive TLV by the given bytes. With
// automatic expansion disabled the operation fails with
// ReasonInsufficientStorage and no partial effect when the capacity of the
// value buffer would be exceeded.
func (t *TLV) AppendValue(b []byte) error {
	if t == nil || len(t.tag) == 0 {
		return codedErrorf(ReasonEmptyTLV, "append to uninitialized tlv")
	}

	if t.IsConstructed() {
		return codedErrorf(ReasonInvalidParam, "tag %s: cannot append value bytes to a constructed tlv", t.tag)
	}

	if t.noExpand && len(t.value)+len(b) > cap(t.value) {
		return codedErrorf(ReasonInsufficientStorage, "tag %s: value capacity %d exceeded", t.tag, cap(t.value))
	}

	t.value = append(t.value, b...)

	return nil
}

// ReplaceValue sets the value of a primitive TLV to exactly the given
// bytes.
func (t *TLV) ReplaceValue(b []byte) error {
	if t == nil || len(t.tag) == 0 {
		return codedErrorf(ReasonEmptyTLV, "replace on uninitialized tlv")
	}

	if t.IsConstructed() {
		return codedErrorf(ReasonInvalidParam, "tag %s: cannot replace value bytes of a constructed tlv", t.tag)
	}

	if t.noExpand && len(b) > cap(t.value) {
		return codedErrorf(ReasonInsufficientStorage, "tag %s: value capacity %d exceeded", t.tag, cap(t.value))
	}

	t.value = append(t.value[:0], b...)

	return nil
}

// Append appends a child to a constructed TLV. The child must not be the
// TLV itself; ownership of the child passes to the TLV.
func (t *TLV) Append(child *TLV) error {
	if t == nil || len(t.tag) == 0 {
		return codedErrorf(ReasonEmptyTLV, "append to uninitialized tlv")
	}

	if !t.IsConstructed() {
		return codedErrorf(ReasonInvalidParam, "tag %s: cannot append a child to a primitive tlv", t.tag)
	}

	if child == t {
		return codedErrorf(ReasonInvalidParam, "tag %s: cannot append a tlv to itself", t.tag)
	}

	return t.children.Append(child)
}

// Delete removes the n-th child (1-based occurrence) whose tag equals the
// given tag.
func (t *TLV) Delete(tag Tag, occurrence int) error {
	if t == nil || len(t.tag) == 0 {
		return codedErrorf(ReasonEmptyTLV, "delete on uninitialized tlv")
	}

	if !t.IsConstructed() {
		return codedErrorf(ReasonInvalidParam, "tag %s: cannot delete a child of a primitive tlv", t.tag)
	}

	return t.children.Delete(tag, occurrence)
}

// Find returns the first child whose tag equals the given tag, or the first
// child if tag is nil. Returns nil if there is no match or the TLV is not
// constructed.
//
// The returned pointer is borrowed and remains valid only until the next
// mutation of this TLV.
func (t *TLV) Find(tag Tag) *TLV {
	if t == nil || !t.IsConstructed() {
		return nil
	}

	return t.children.Find(tag)
}

// FindNext returns the n-th child after the given one (1-based occurrence)
// whose tag equals the given tag, or any tag if tag is nil. Returns nil if
// there are not enough subsequent matches.
func (t *TLV) FindNext(tag Tag, after *TLV, occurrence int) (*TLV, error) {
	if t == nil || len(t.tag) == 0 {
		return nil, codedErrorf(ReasonEmptyTLV, "find on uninitialized tlv")
	}

	if !t.IsConstructed() {
		return nil, codedErrorf(ReasonInvalidParam, "tag %s: primitive tlv has no children", t.tag)
	}

	return t.children.FindNext(tag, after, occurrence)
}

// Children returns the first order children of a constructed TLV, filtered
// by the given tag if one is passed. Returns nil for a primitive TLV.
func (t *TLV) Children(tag Tag) []*TLV {
	if t == nil || !t.IsConstructed() {
		return nil
	}

	if len(tag) == 0 {
		return t.children.nodes
	}

	var result []*TLV

	for _, child := range t.children.nodes {
		if child.tag.Equal(tag) {
			result = append(result, child)
		}
	}

	return result
}

// String returns the hex encoded (upper-case) byte representation of the
// TLV, or an empty string if the TLV cannot be encoded.
func (t *TLV) String() string {
	b, err := t.Bytes()
	if err != nil {
		return ""
	}

	return strings.ToUpper(hex.EncodeToString(b))
}

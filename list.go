package cardtlv

import (
	"github.com/pkg/errors"
)

// List is an ordered, resizable collection of TLV nodes. It backs the child
// list of a constructed TLV and stands alone for byte buffers that carry
// several concatenated TLVs at the top level, such as a Select response
// listing applications.
type List struct {
	nodes []*TLV
}

// NewList returns an empty List pre-sized to capacity entries.
func NewList(capacity int) *List {
	if capacity < 0 {
		capacity = 0
	}

	return &List{nodes: make([]*TLV, 0, capacity)}
}

// ParseList parses b as a sequence of concatenated TLVs until the buffer is
// consumed. Lone 0x00 end-of-content octets between TLVs are skipped.
func ParseList(b []byte) (*List, error) {
	list := NewList(len(b) / 2)

	for index := 0; index < len(b); {
		if b[index] == 0x00 {
			index++

			continue
		}

		node, consumed, err := Parse(b[index:])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid TLV starting at index %d", index)
		}

		list.nodes = append(list.nodes, node)
		index += consumed
	}

	return list, nil
}

// Len returns the number of nodes in the list.
func (l *List) Len() int {
	if l == nil {
		return 0
	}

	return len(l.nodes)
}

// Node returns the node at index i, or nil if i is out of range.
func (l *List) Node(i int) *TLV {
	if l == nil || i < 0 || i >= len(l.nodes) {
		return nil
	}

	return l.nodes[i]
}

// Append appends a node to the list.
func (l *List) Append(t *TLV) error {
	if t == nil {
		return codedErrorf(ReasonInvalidParam, "cannot append a nil tlv")
	}

	l.nodes = append(l.nodes, t)

	return nil
}

// Delete removes the n-th node (1-based occurrence) whose tag equals the
// given tag. Following nodes shift down. An occurrence below 1 or beyond the
// number of matches fails with ReasonInvalidParam.
func (l *List) Delete(tag Tag, occurrence int) error {
	if occurrence <= 0 {
		return codedErrorf(ReasonInvalidParam, "occurrence %d is not positive", occurrence)
	}

	seen := 0

	for i, node := range l.nodes {
		if len(tag) != 0 && !node.tag.Equal(tag) {
			continue
		}

		seen++

		if seen == occurrence {
			l.nodes = append(l.nodes[:i], l.nodes[i+1:]...)

			return nil
		}
	}

	return codedErrorf(ReasonInvalidParam, "occurrence %d of tag %s not found, %d present", occurrence, tag, seen)
}

// remove deletes the given node by identity. Reports whether the node was
// present.
func (l *List) remove(t *TLV) bool {
	for i, node := range l.nodes {
		if node == t {
			l.nodes = append(l.nodes[:i], l.nodes[i+1:]...)

			return true
		}
	}

	return false
}

// Find returns the first node whose tag equals the given tag, or the first
// node if tag is nil. Returns nil if there is no match.
func (l *List) Find(tag Tag) *TLV {
	if l == nil || len(l.nodes) == 0 {
		return nil
	}

	if len(tag) == 0 {
		return l.nodes[0]
	}

	for _, node := range l.nodes {
		if node.tag.Equal(tag) {
			return node
		}
	}

	return nil
}

// FindNext locates after in the list and returns the n-th following node
// (1-based occurrence) whose tag equals the given tag, or any tag if tag is
// nil. Returns nil if there are not enough subsequent matches. Fails with
// ReasonInvalidParam if after is not an element of the list or occurrence is
// not positive.
func (l *List) FindNext(tag Tag, after *TLV, occurrence int) (*TLV, error) {
	if occurrence <= 0 {
		return nil, codedErrorf(ReasonInvalidParam, "occurrence %d is not positive", occurrence)
	}

	start := -1

	for i, node := range l.nodes {
		if node == after {
			start = i + 1

			break
		}
	}

	if start < 0 {
		return nil, codedErrorf(ReasonInvalidParam, "reference tlv is not a child of this list")
	}

	seen := 0

	for _, node := range l.nodes[start:] {
		if len(tag) != 0 && !node.tag.Equal(tag) {
			continue
		}

		seen++

		if seen == occurrence {
			return node, nil
		}
	}

	return nil, nil
}

// DataLength returns the sum of the encoded sizes of all nodes. Nodes whose
// size exceeds 32767 are excluded from the sum; querying the size of an
// enclosing TLV surfaces the error instead.
func (l *List) DataLength() int {
	if l == nil {
		return 0
	}

	length := 0

	for _, node := range l.nodes {
		size, err := node.Size()
		if err != nil {
			continue
		}

		length += size
	}

	return length
}

// WriteData serializes all nodes in order into dst at off and returns the
// number of bytes written.
func (l *List) WriteData(dst []byte, off int) (int, error) {
	if dst == nil {
		return 0, errors.WithStack(ErrNilInput)
	}

	if off < 0 || off > len(dst) {
		return 0, errors.Wrapf(ErrOutOfBounds, "write at offset %d of %d", off, len(dst))
	}

	pos := off

	for _, node := range l.nodes {
		n, err := node.Encode(dst, pos)
		if err != nil {
			return 0, err
		}

		pos += n
	}

	return pos - off, nil
}

// Bytes returns a freshly allocated byte representation of all nodes in
// order.
func (l *List) Bytes() ([]byte, error) {
	var b []byte

	for _, node := range l.nodes {
		encoded, err := node.Bytes()
		if err != nil {
			return nil, err
		}

		b = append(b, encoded...)
	}

	return b, nil
}

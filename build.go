package cardtlv

// MakeTag returns the tag octets for the packed two byte form used by
// template maps. A nonzero high byte yields a two octet tag, otherwise a
// single octet tag; class and constructed bit come directly from the packed
// octets.
func MakeTag(packed uint16) Tag {
	if packed > 0xFF {
		return Tag{byte(packed >> 8), byte(packed)}
	}

	return Tag{byte(packed)}
}

// MakeTLV composes one TLV from the packed tag form and value and returns
// its encoded bytes. A constructed tag causes value to be parsed and adopted
// as the body; a primitive tag adopts value as is.
func MakeTLV(packed uint16, value []byte) ([]byte, error) {
	tag := MakeTag(packed)

	if err := tag.CheckEncoding(); err != nil {
		return nil, err
	}

	node, err := NewTLV(tag, value)
	if err != nil {
		return nil, err
	}

	return node.Bytes()
}

// ConcatTLV returns a fresh buffer that is the byte concatenation of two
// TLV buffers.
func ConcatTLV(a []byte, b []byte) []byte {
	result := make([]byte, 0, len(a)+len(b))
	result = append(result, a...)

	return append(result, b...)
}

// Builder accumulates BER-TLV encoded bytes. Use the 'Add' functions to add
// data; nested Builders can be used to create constructed structures.
type Builder struct {
	bytes []byte
	err   error
}

// AddByte adds the given tag with a one byte value to the Builder. The
// length is added automatically.
func (bu Builder) AddByte(tag Tag, val byte) *Builder {
	return bu.AddBytes(tag, []byte{val})
}

// AddBytes adds the given tag with the given value to the Builder. The
// length is added automatically.
func (bu Builder) AddBytes(tag Tag, v []byte) *Builder {
	if bu.err != nil {
		return &bu
	}

	lengthBytes, err := EncodeLength(len(v))
	if err != nil {
		bu.err = err

		return &bu
	}

	bu.bytes = append(bu.bytes, tag...)
	bu.bytes = append(bu.bytes, lengthBytes...)
	bu.bytes = append(bu.bytes, v...)

	return &bu
}

// AddEmpty adds the given tag with a zero length value field to the
// Builder.
func (bu Builder) AddEmpty(tag Tag) *Builder {
	return bu.AddBytes(tag, nil)
}

// AddRaw adds the given bytes without further checks to the Builder.
func (bu Builder) AddRaw(b []byte) *Builder {
	if bu.err != nil {
		return &bu
	}

	bu.bytes = append(bu.bytes, b...)

	return &bu
}

// Build parses the contents of the Builder and returns the resulting List.
// Any errors that occurred while adding or parsing are returned.
func (bu Builder) Build() (*List, error) {
	if bu.err != nil {
		return nil, bu.err
	}

	return ParseList(bu.bytes)
}

// Bytes returns the byte representation of the contents of the Builder.
func (bu Builder) Bytes() []byte {
	return bu.bytes
}

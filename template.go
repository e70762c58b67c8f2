package cardtlv

// Template driven building: a parsed skeleton tree whose primitive leaves
// have zero length values acts as a schema. FillValues substitutes values by
// packed tag and either keeps missing fields as zero length entries or
// prunes them from the tree.

// PackTag returns the two byte packed form of a tag used as map key by
// FillValues. A single octet tag occupies the low byte with the high byte
// zero; a two octet tag occupies both bytes. Tags with more than two raw
// octets are not representable and fail with ReasonInvalidParam.
func PackTag(t Tag) (uint16, error) {
	switch len(t) {
	case 1:
		return uint16(t[0]), nil
	case 2:
		return uint16(t[0])<<8 | uint16(t[1]), nil
	case 0:
		return 0, codedErrorf(ReasonEmptyTag, "pack of empty tag")
	default:
		return 0, codedErrorf(ReasonInvalidParam, "tag %s does not fit a two byte key", t)
	}
}

// FillValues walks the tree depth-first and substitutes the value of every
// primitive leaf whose packed tag is present in values. Leaves without an
// entry are set to zero length, or, with removeMissing, deleted from their
// parent. A constructed node all of whose leaves are missing is deleted as a
// whole; the root itself is never deleted and collapses to an empty body
// instead.
//
// The tree is modified in place; re-encode it with Bytes or Encode.
func FillValues(root *TLV, values map[uint16][]byte, removeMissing bool) error {
	if root == nil || len(root.tag) == 0 {
		return codedErrorf(ReasonEmptyTLV, "fill on uninitialized tlv")
	}

	_, err := fillNode(root, values, removeMissing)

	return err
}

func fillNode(t *TLV, values map[uint16][]byte, removeMissing bool) (present bool, err error) {
	if !t.IsConstructed() {
		key, err := PackTag(t.tag)
		if err != nil {
			// tags wider than two octets cannot appear in the map
			if removeMissing {
				return false, nil
			}

			return true, t.ReplaceValue(nil)
		}

		if v, ok := values[key]; ok {
			return true, t.ReplaceValue(v)
		}

		if removeMissing {
			return false, nil
		}

		return true, t.ReplaceValue(nil)
	}

	anyPresent := false

	// The cursor rests on the last kept child so that deleting an absent
	// child re-enters the iteration without re-scanning the kept prefix.
	var lastKept *TLV

	for {
		var child *TLV

		if lastKept == nil {
			child = t.Find(nil)
		} else {
			child, err = t.FindNext(nil, lastKept, 1)
			if err != nil {
				return false, err
			}
		}

		if child == nil {
			break
		}

		childPresent, err := fillNode(child, values, removeMissing)
		if err != nil {
			// a subtree that cannot be filled counts as absent
			childPresent = false
		}

		if !childPresent && removeMissing {
			t.children.remove(child)

			continue
		}

		if childPresent {
			anyPresent = true
		}

		lastKept = child
	}

	return anyPresent, nil
}

// WriteStructure normalizes all primitive leaf values of the tree to zero
// length and returns the encoded skeleton shape.
func WriteStructure(root *TLV) ([]byte, error) {
	if err := FillValues(root, nil, false); err != nil {
		return nil, err
	}

	return root.Bytes()
}

// FillTemplate parses skeleton, fills every top level TLV from values and
// returns the re-encoded bytes. See FillValues for the removeMissing
// policy.
func FillTemplate(skeleton []byte, values map[uint16][]byte, removeMissing bool) ([]byte, error) {
	list, err := ParseList(skeleton)
	if err != nil {
		return nil, err
	}

	for _, node := range list.nodes {
		if err := FillValues(node, values, removeMissing); err != nil {
			return nil, err
		}
	}

	return list.Bytes()
}

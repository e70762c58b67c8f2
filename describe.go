package cardtlv

import (
	"fmt"
	"strings"
)

// Describe returns a human readable rendering of the TLV tree. Children at
// the first level are prefixed with "+-- "; every further level indents by
// four spaces. The exact text is informational and not part of the API
// contract.
func (t *TLV) Describe() string {
	var sb strings.Builder

	describeNode(&sb, t, 0)

	return sb.String()
}

// Describe renders every node of the list at the top level.
func (l *List) Describe() string {
	var sb strings.Builder

	for _, node := range l.nodes {
		describeNode(&sb, node, 0)
	}

	return sb.String()
}

func describeNode(sb *strings.Builder, t *TLV, level int) {
	indent := ""
	if level > 0 {
		indent = strings.Repeat("    ", level-1) + "+-- "
	}

	if t == nil || len(t.tag) == 0 {
		fmt.Fprintf(sb, "%s(empty)\n", indent)

		return
	}

	length, err := t.Length()
	if err != nil {
		fmt.Fprintf(sb, "%s%s (unencodable: %v)\n", indent, t.tag, err)

		return
	}

	if t.IsConstructed() {
		fmt.Fprintf(sb, "%s%s (%d bytes)\n", indent, t.tag, length)

		for _, child := range t.children.nodes {
			describeNode(sb, child, level+1)
		}

		return
	}

	if length == 0 {
		fmt.Fprintf(sb, "%s%s (empty)\n", indent, t.tag)

		return
	}

	fmt.Fprintf(sb, "%s%s: %02X\n", indent, t.tag, t.value)
}

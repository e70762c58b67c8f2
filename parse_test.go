package cardtlv

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name             string
		input            []byte
		expectedConsumed int
		expectError      bool
	}{
		{name: "Happy path: primitive tlv",
			input:            []byte{0x81, 0x01, 0x00},
			expectedConsumed: 3,
		},
		{name: "Happy path: zero length value",
			input:            []byte{0x84, 0x00},
			expectedConsumed: 2,
		},
		{name: "Happy path: constructed with nested children",
			input:            []byte{0x6F, 0x07, 0xA5, 0x05, 0x9F, 0x38, 0x02, 0xAA, 0xBB},
			expectedConsumed: 9,
		},
		{name: "Happy path: trailing bytes are not consumed",
			input:            []byte{0x81, 0x01, 0x00, 0xFF, 0xFF},
			expectedConsumed: 3,
		},
		{name: "Happy path: long form length",
			input:            append([]byte{0x84, 0x81, 0x80}, make([]byte, 128)...),
			expectedConsumed: 131,
		},
		{name: "Unhappy path: empty buffer",
			input:       []byte{},
			expectError: true,
		},
		{name: "Unhappy path: declared length out of bounds",
			input:       []byte{0x84, 0x05, 0x01, 0x02},
			expectError: true,
		},
		{name: "Unhappy path: truncated length field",
			input:       []byte{0x84, 0x82, 0x01},
			expectError: true,
		},
		{name: "Unhappy path: truncated tag",
			input:       []byte{0x9F},
			expectError: true,
		},
		{name: "Unhappy path: constructed with malformed child",
			input:       []byte{0x6F, 0x03, 0x84, 0x05, 0x01},
			expectError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			node, consumed, err := Parse(tc.input)

			if err != nil && !tc.expectError {
				t.Errorf("Expected: no error, got: error(%v)", err.Error())

				return
			}

			if err == nil && tc.expectError {
				t.Errorf("Expected: error, got: no error")

				return
			}

			if tc.expectError {
				checkReason(t, err, ReasonMalformedTLV)

				return
			}

			if consumed != tc.expectedConsumed {
				t.Errorf("Expected: %d bytes consumed, got: %d", tc.expectedConsumed, consumed)
			}

			encoded, err := node.Bytes()
			if err != nil {
				t.Fatalf("Bytes: %v", err)
			}

			if !bytes.Equal(encoded, tc.input[:consumed]) {
				t.Errorf("Round trip mismatch: parsed % X, re-encoded % X", tc.input[:consumed], encoded)
			}
		})
	}
}

func TestParseScenario(t *testing.T) {
	node, consumed, err := Parse(mustHex(t, "810100"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if consumed != 3 {
		t.Errorf("Expected: 3 bytes consumed, got: %d", consumed)
	}

	if node.IsConstructed() {
		t.Errorf("Expected: primitive tlv")
	}

	tag, err := node.Tag()
	if err != nil {
		t.Fatalf("Tag: %v", err)
	}

	number, err := tag.Number()
	if err != nil || number != 1 {
		t.Errorf("Expected: tag number 1, got: %d (err %v)", number, err)
	}

	length, err := node.Length()
	if err != nil || length != 1 {
		t.Errorf("Expected: length 1, got: %d (err %v)", length, err)
	}

	if diff := cmp.Diff([]byte{0x00}, node.Value()); diff != "" {
		t.Errorf("Value mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRoundTripEMV(t *testing.T) {
	// FCI of a VISA ADF select response (filled and skeleton), a GPO
	// response template and a PDOL
	inputs := []string{
		"6F148407A0000000031010A5099F3800BF0C039F5A00",
		"6F0D8400A5099F3800BF0C039F5A00",
		"770E8202580094080801010010010301",
		"9F380C9F66049F02069F03069F1A02",
	}

	for _, input := range inputs {
		raw := mustHex(t, input)

		node, consumed, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%s): %v", input, err)
		}

		if consumed != len(raw) {
			t.Fatalf("Parse(%s): Expected %d bytes consumed, got %d", input, len(raw), consumed)
		}

		encoded, err := node.Bytes()
		if err != nil {
			t.Fatalf("Bytes(%s): %v", input, err)
		}

		if !bytes.Equal(encoded, raw) {
			t.Errorf("Round trip mismatch for %s: got % X", input, encoded)
		}
	}
}

func TestCheckFormat(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected bool
	}{
		{name: "well-formed single tlv", input: []byte{0x81, 0x01, 0x00}, expected: true},
		{name: "well-formed sequence", input: []byte{0x84, 0x00, 0x97, 0x01, 0xEE}, expected: true},
		{name: "well-formed with end-of-content octets", input: []byte{0x84, 0x00, 0x00, 0x97, 0x00}, expected: true},
		{name: "empty buffer", input: []byte{}, expected: false},
		{name: "declared length out of bounds", input: []byte{0x84, 0x05, 0x01}, expected: false},
		{name: "truncated tag", input: []byte{0x9F}, expected: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if received := CheckFormat(tc.input); received != tc.expected {
				t.Errorf("Expected: %t, got: %t", tc.expected, received)
			}
		})
	}
}

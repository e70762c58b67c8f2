package cardtlv

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// Reason classifies coded errors returned by this package. Consumers that
// need to branch on the cause of a failure should use ReasonOf instead of
// matching error strings.
type Reason int

const (
	// ReasonInvalidParam indicates a negative count, an out of range
	// occurrence number, an invalid class or a self-append.
	ReasonInvalidParam Reason = iota + 1
	// ReasonIllegalSize indicates a tag with more than four raw bytes or a
	// tag number that exceeds 32767 at encode time.
	ReasonIllegalSize
	// ReasonEmptyTag indicates an observer call on an uninitialized tag.
	ReasonEmptyTag
	// ReasonEmptyTLV indicates an observer call on an uninitialized TLV.
	ReasonEmptyTLV
	// ReasonMalformedTag indicates tag bytes that fail well-formedness.
	ReasonMalformedTag
	// ReasonMalformedTLV indicates TLV bytes that fail well-formedness.
	ReasonMalformedTLV
	// ReasonInsufficientStorage indicates that a value buffer is full and
	// automatic expansion is disabled.
	ReasonInsufficientStorage
	// ReasonTagSizeGreater127 is reserved and not expected in practice.
	ReasonTagSizeGreater127
	// ReasonTagNumberGreater32767 indicates a decoded tag number above 32767.
	ReasonTagNumberGreater32767
	// ReasonTLVSizeGreater32767 indicates a composed TLV whose total size
	// exceeds 32767.
	ReasonTLVSizeGreater32767
	// ReasonTLVLengthGreater32767 indicates a decoded or encoded value length
	// above 32767.
	ReasonTLVLengthGreater32767
)

func (r Reason) String() string {
	switch r {
	case ReasonInvalidParam:
		return "invalid parameter"
	case ReasonIllegalSize:
		return "illegal size"
	case ReasonEmptyTag:
		return "empty tag"
	case ReasonEmptyTLV:
		return "empty tlv"
	case ReasonMalformedTag:
		return "malformed tag"
	case ReasonMalformedTLV:
		return "malformed tlv"
	case ReasonInsufficientStorage:
		return "insufficient storage"
	case ReasonTagSizeGreater127:
		return "tag size greater than 127"
	case ReasonTagNumberGreater32767:
		return "tag number greater than 32767"
	case ReasonTLVSizeGreater32767:
		return "tlv size greater than 32767"
	case ReasonTLVLengthGreater32767:
		return "tlv length greater than 32767"
	default:
		return fmt.Sprintf("unknown reason (%d)", int(r))
	}
}

// CodedError is the error kind for all data format and usage violations of
// this package. It carries a Reason that survives wrapping and may wrap an
// underlying cause.
type CodedError struct {
	Reason Reason
	msg    string
	cause  error
}

func (e *CodedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.msg, e.cause)
	}

	return fmt.Sprintf("%s: %s", e.Reason, e.msg)
}

func (e *CodedError) Unwrap() error {
	return e.cause
}

func codedErrorf(r Reason, format string, args ...interface{}) error {
	return errors.WithStack(&CodedError{Reason: r, msg: fmt.Sprintf(format, args...)})
}

func codedWrapf(cause error, r Reason, format string, args ...interface{}) error {
	return errors.WithStack(&CodedError{Reason: r, msg: fmt.Sprintf(format, args...), cause: cause})
}

// ReasonOf unwraps err and returns the Reason of the outermost CodedError.
// The second return value is false if err carries no CodedError.
func ReasonOf(err error) (Reason, bool) {
	var coded *CodedError
	if stderrors.As(err, &coded) {
		return coded.Reason, true
	}

	return 0, false
}

var (
	// ErrOutOfBounds is returned when an offset or count refers to bytes
	// outside a caller supplied buffer. This is a caller error, not a data
	// format error.
	ErrOutOfBounds = stderrors.New("cardtlv: access out of buffer bounds")
	// ErrNilInput is returned when a required buffer is nil.
	ErrNilInput = stderrors.New("cardtlv: nil input buffer")
)

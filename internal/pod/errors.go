package pod

import "errors"

var (
	ErrCapacity            = errors.New("pod: destination buffer has no capacity")
	ErrOutOfSpace          = errors.New("pod: out of buffer space")
	ErrFrameStackUnderflow = errors.New("pod: pop without open frame")
	ErrUnbalancedFrames    = errors.New("pod: unbalanced frames")
	ErrElementTypeMismatch = errors.New("pod: element type mismatch")
	ErrNotInObjectContext  = errors.New("pod: property outside object")
	ErrMissingPropertyKey  = errors.New("pod: object value without property key")
	ErrDanglingProperty    = errors.New("pod: property key without value")
	ErrNotInSequence       = errors.New("pod: control outside sequence")
	ErrTruncated           = errors.New("pod: truncated data")
	ErrTypeMismatch        = errors.New("pod: type mismatch")
	ErrNotAContainer       = errors.New("pod: not a container")
	ErrUnknownType         = errors.New("pod: unknown type")
	ErrInvalidLength       = errors.New("pod: invalid length")
	ErrIndexOutOfRange     = errors.New("pod: index out of range")
	ErrChoiceRejected      = errors.New("pod: value not allowed by choice")
	ErrPropertyExpected    = errors.New("pod: object children are properties")
	ErrControlExpected     = errors.New("pod: sequence children are controls")
	ErrInvalidTarget       = errors.New("pod: unsupported parse target")
	ErrMissingProperty     = errors.New("pod: missing required property")
)

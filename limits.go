package scpi

// Limits bounds every buffer the interpreter uses. All capacities are set
// at construction; exceeding one is a reported CodeBufferOverflow, never
// an unbounded allocation.
type Limits struct {
	// MaxSegments is the maximum number of header segments per command.
	MaxSegments int
	// MaxArgs is the maximum number of arguments per command.
	MaxArgs int
	// MaxStringLen is the maximum length of a text argument in bytes.
	MaxStringLen int
	// MaxErrors is the error queue depth.
	MaxErrors int
}

// DefaultLimits returns the capacities used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxSegments:  12,
		MaxArgs:      10,
		MaxStringLen: 128,
		MaxErrors:    10,
	}
}

// withDefaults fills zero fields from DefaultLimits.
func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxSegments <= 0 {
		l.MaxSegments = d.MaxSegments
	}
	if l.MaxArgs <= 0 {
		l.MaxArgs = d.MaxArgs
	}
	if l.MaxStringLen <= 0 {
		l.MaxStringLen = d.MaxStringLen
	}
	if l.MaxErrors <= 0 {
		l.MaxErrors = d.MaxErrors
	}
	return l
}

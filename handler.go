package scpi

import "fmt"

// Handler executes one resolved command with its decoded arguments. The
// receiver state a handler operates on is whatever the function closes
// over; the interpreter never inspects it.
//
// A handler must not call back into the interpreter that is running it.
type Handler func(ctx *Context, args []Value) Result

// Context carries the interpreter-owned state a handler may consult:
// the identity, the status registers and the error queue. It is valid only
// for the duration of the call.
type Context struct {
	// Identity is the instrument identification reported by *IDN?.
	Identity Identity
	// Registers is the interpreter's IEEE 488.2 status register set.
	Registers *Registers
	// Errors is the interpreter's error queue.
	Errors *Queue

	// Name is the canonical spelling of the matched command.
	Name string
	// Query reports whether the query form was addressed.
	Query bool
}

// Identity is the instrument identification, rendered by *IDN? as four
// comma-separated fields.
type Identity struct {
	Manufacturer string
	Model        string
	Serial       string
	Firmware     string
}

// Outcome is the completion of a suspended handler.
type Outcome struct {
	// Values are the return values to encode.
	Values []Value
	// Err is the handler failure, nil on success.
	Err error
}

// Result is what a handler returns: immediate values, an immediate
// failure, or a pending completion the dispatcher waits for before the
// next command is matched.
type Result struct {
	vals    []Value
	err     error
	pending <-chan Outcome
}

// OK returns a successful result with the given return values.
func OK(vals ...Value) Result {
	return Result{vals: vals}
}

// Fail returns a failed result.
func Fail(err error) Result {
	return Result{err: err}
}

// Failf returns a device-specific failure with a formatted message.
func Failf(format string, args ...any) Result {
	return Result{err: &Error{
		Number: ErrDeviceSpecific.Number,
		Text:   ErrDeviceSpecific.Text,
		Err:    fmt.Errorf(format, args...),
	}}
}

// Pending returns a suspended result. The dispatcher blocks on ch until
// the externally-driven completion arrives; commands already buffered are
// not matched until then, preserving response order.
func Pending(ch <-chan Outcome) Result {
	return Result{pending: ch}
}

// Param declares one handler parameter.
type Param struct {
	// Type is the parameter's wire type tag.
	Type Type
	// Choices lists the accepted mixed-case mnemonic spellings for a
	// TypeChars parameter. Empty means any character data is accepted.
	Choices []string
}

// Mnemonic declares a mnemonic parameter restricted to the given
// mixed-case spellings, matched with the header abbreviation rule.
func Mnemonic(choices ...string) Param {
	return Param{Type: TypeChars, Choices: choices}
}

package scpi

import (
	"io"
	"math"
	"strconv"
	"strings"
)

// encoder serializes results into the caller's output sink. It writes
// incrementally and never stages a whole response; a failed write poisons
// the encoder so sink exhaustion is reported once per buffer.
type encoder struct {
	w        io.Writer
	wrote    bool // a response was written on the current line
	sinkErr  error
	reported bool
}

func newEncoder(w io.Writer) *encoder {
	return &encoder{w: w}
}

// writeResult writes one command's return values. Successive responses on
// the same line are separated by "; ".
func (e *encoder) writeResult(vals []Value) {
	if len(vals) == 0 || e.sinkErr != nil {
		return
	}
	if e.wrote {
		e.write("; ")
	}
	for i, v := range vals {
		if i > 0 {
			e.write(",")
		}
		e.writeValue(v)
	}
	e.wrote = true
}

// endLine terminates the current response line, if one was started.
func (e *encoder) endLine() {
	if !e.wrote || e.sinkErr != nil {
		return
	}
	e.write("\n")
	e.wrote = false
}

// failed returns the first sink error exactly once.
func (e *encoder) failed() error {
	if e.sinkErr == nil || e.reported {
		return nil
	}
	e.reported = true
	return e.sinkErr
}

func (e *encoder) writeValue(v Value) {
	switch v.Type() {
	case TypeInt:
		var buf [20]byte
		e.writeBytes(strconv.AppendInt(buf[:0], v.AsInt(), 10))
	case TypeFloat:
		e.write(formatFloat(v.AsFloat()))
	case TypeBool:
		if v.AsBool() {
			e.write("1")
		} else {
			e.write("0")
		}
	case TypeString:
		e.write(`"`)
		s := v.AsString()
		for {
			i := strings.IndexByte(s, '"')
			if i < 0 {
				break
			}
			e.write(s[:i+1])
			e.write(`"`)
			s = s[i+1:]
		}
		e.write(s)
		e.write(`"`)
	case TypeChars:
		e.write(v.AsString())
	}
}

func (e *encoder) write(s string) {
	if e.sinkErr != nil {
		return
	}
	if _, err := io.WriteString(e.w, s); err != nil {
		e.sinkErr = err
	}
}

func (e *encoder) writeBytes(b []byte) {
	if e.sinkErr != nil {
		return
	}
	if _, err := e.w.Write(b); err != nil {
		e.sinkErr = err
	}
}

// formatFloat renders the minimal decimal form that round-trips, using
// scientific notation only when the magnitude requires it. Non-finite
// values follow IEEE 488.2: NaN is 9.91E+37, infinities saturate to
// ±9.9E+37.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "9.91E+37"
	case math.IsInf(f, 1):
		return "9.9E+37"
	case math.IsInf(f, -1):
		return "-9.9E+37"
	}
	return strconv.FormatFloat(f, 'G', -1, 64)
}

// quoteString renders text in its wire form: double-quoted with internal
// double quotes doubled.
func quoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			b.WriteByte('"')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}

package scpi

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dshills/scpi/internal/scan"
)

// decodeArgs converts raw argument tokens into the typed tuple a slot's
// handler expects. Arity and per-argument type failures produce distinct
// records; the latter carry the 1-based ordinal.
func decodeArgs(sl *slot, args []scan.Arg, offset int, limits Limits) ([]Value, *Record) {
	if len(args) != len(sl.params) {
		rec := translate(CodeArityMismatch, offset,
			fmt.Errorf("%s takes %d arguments, got %d", sl.name, len(sl.params), len(args)))
		return nil, &rec
	}
	if len(args) == 0 {
		return nil, nil
	}

	vals := make([]Value, len(args))
	for i, arg := range args {
		v, err := decodeArg(sl.params[i], arg, limits)
		if err != nil {
			code := CodeArgumentType
			if errors.Is(err, errStringTooLong) {
				code = CodeBufferOverflow
			}
			rec := translate(code, arg.Offset, fmt.Errorf("%s argument %d: %w", sl.name, i+1, err))
			rec.Ordinal = i + 1
			return nil, &rec
		}
		vals[i] = v
	}
	return vals, nil
}

var errStringTooLong = fmt.Errorf("string exceeds maximum length")

func decodeArg(p param, arg scan.Arg, limits Limits) (Value, error) {
	switch p.typ {
	case TypeString:
		if !arg.Quoted {
			return Value{}, fmt.Errorf("expected quoted string, got %q", arg.Text)
		}
		if len(arg.Text) > limits.MaxStringLen {
			return Value{}, errStringTooLong
		}
		return String(arg.Text), nil

	case TypeInt:
		if arg.Quoted {
			return Value{}, fmt.Errorf("expected integer, got string")
		}
		return decodeInt(arg.Text)

	case TypeFloat:
		if arg.Quoted {
			return Value{}, fmt.Errorf("expected number, got string")
		}
		f, err := parseFloat(arg.Text)
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil

	case TypeBool:
		if arg.Quoted {
			return Value{}, fmt.Errorf("expected boolean, got string")
		}
		switch strings.ToUpper(arg.Text) {
		case "1", "ON":
			return Bool(true), nil
		case "0", "OFF":
			return Bool(false), nil
		}
		return Value{}, fmt.Errorf("expected 1/0/ON/OFF, got %q", arg.Text)

	case TypeChars:
		if arg.Quoted {
			return Value{}, fmt.Errorf("expected mnemonic, got string")
		}
		if len(p.choices) == 0 {
			if len(arg.Text) > limits.MaxStringLen {
				return Value{}, errStringTooLong
			}
			return Chars(arg.Text), nil
		}
		for _, kw := range p.choices {
			if kw.Match(arg.Text) {
				return Chars(kw.Long), nil
			}
		}
		return Value{}, fmt.Errorf("unknown mnemonic %q", arg.Text)
	}
	return Value{}, fmt.Errorf("unsupported parameter type %v", p.typ)
}

// decodeInt parses integer program data: decimal with optional sign and
// exponent, or a #H/#Q/#B radix prefix (IEEE 488.2 7.7.4).
func decodeInt(s string) (Value, error) {
	if len(s) > 1 && s[0] == '#' {
		var base int
		switch s[1] {
		case 'H', 'h':
			base = 16
		case 'Q', 'q':
			base = 8
		case 'B', 'b':
			base = 2
		default:
			return Value{}, fmt.Errorf("unknown radix prefix %q", s[:2])
		}
		n, err := strconv.ParseInt(s[2:], base, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid base-%d integer %q", base, s)
		}
		return Int(n), nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(n), nil
	}

	// Accept NR2/NR3 forms that denote an integral value, e.g. "1E3".
	f, err := parseFloat(s)
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return Value{}, fmt.Errorf("invalid integer %q", s)
	}
	return Int(int64(f)), nil
}

// parseFloat parses decimal numeric program data, rejecting the inf/nan
// spellings the Go parser would otherwise accept.
func parseFloat(s string) (float64, error) {
	if s == "" || !isNumericStart(s[0]) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

func isNumericStart(b byte) bool {
	return b >= '0' && b <= '9' || b == '+' || b == '-' || b == '.'
}

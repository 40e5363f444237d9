// Package abbrev implements SCPI keyword abbreviation matching.
//
// A keyword is declared in mixed case, e.g. "MULTiply". The uppercase
// letters form the mandatory short form ("MULT"), the full word the long
// form ("MULTIPLY"). An input segment matches when its uppercase form is a
// prefix of the long form and its length lies between the two.
package abbrev

import (
	"errors"
	"fmt"
	"strings"
)

// Parse errors
var (
	ErrEmptySpec      = errors.New("empty keyword specification")
	ErrInvalidSpec    = errors.New("invalid keyword specification")
	ErrShortNotPrefix = errors.New("short form is not a leading run")
)

// Keyword is one parsed command keyword with its accepted spellings.
type Keyword struct {
	// Long is the full spelling, uppercased.
	Long string
	// Short is the mandatory abbreviation, a prefix of Long.
	Short string
}

// Parse parses a mixed-case keyword specification into a Keyword.
//
// The uppercase run at the start of the spec is the short form. Digits and
// underscores are permitted after the first character and count as part of
// whichever form they appear in.
func Parse(spec string) (Keyword, error) {
	if spec == "" {
		return Keyword{}, ErrEmptySpec
	}

	shortLen := 0
	inShort := true
	for i, r := range spec {
		switch {
		case r >= 'A' && r <= 'Z':
			if !inShort {
				return Keyword{}, fmt.Errorf("%w: %q", ErrShortNotPrefix, spec)
			}
			shortLen = i + 1
		case r >= 'a' && r <= 'z':
			inShort = false
		case r == '*':
			if i != 0 {
				return Keyword{}, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
			}
			shortLen = 1
		case (r >= '0' && r <= '9') || r == '_':
			if i == 0 {
				return Keyword{}, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
			}
			if inShort {
				shortLen = i + 1
			}
		default:
			return Keyword{}, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
		}
	}

	long := strings.ToUpper(spec)
	if shortLen == 0 {
		// All-lowercase spec: the whole word is mandatory.
		shortLen = len(spec)
	}

	return Keyword{Long: long, Short: long[:shortLen]}, nil
}

// Match reports whether the input segment addresses this keyword.
//
// Matching is case-insensitive. The input must be at least as long as the
// short form, no longer than the long form, and a prefix of the long form.
func (k Keyword) Match(input string) bool {
	if len(input) < len(k.Short) || len(input) > len(k.Long) {
		return false
	}
	for i := 0; i < len(input); i++ {
		if upper(input[i]) != k.Long[i] {
			return false
		}
	}
	return true
}

// String returns the declared spelling, long form with the short form
// implied by its length.
func (k Keyword) String() string {
	return k.Long
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

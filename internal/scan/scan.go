// Package scan splits a raw input buffer into SCPI commands.
//
// Commands are separated by ";" or a line terminator. Within a command the
// header runs up to the first whitespace, header segments are separated by
// ":", and arguments are separated by ",". String arguments may be quoted
// with single or double quotes; a doubled quote inside a string stands for
// one literal quote character.
//
// A malformed command is reported on the command itself (Command.Err) and
// scanning resumes at the next separator, so one bad command never poisons
// the rest of the buffer. Scanning the same buffer twice yields the same
// command sequence.
package scan

import (
	"errors"
	"strings"
)

// Scan errors
var (
	ErrUnterminatedString = errors.New("unterminated string")
	ErrBadStringTail      = errors.New("unexpected data after closing quote")
	ErrBadCharacter       = errors.New("invalid character in header")
	ErrEmptySegment       = errors.New("empty header segment")
	ErrTooManySegments    = errors.New("too many header segments")
	ErrTooManyArgs        = errors.New("too many arguments")
	ErrEmptyArgument      = errors.New("empty argument")
)

// Config bounds the scanner's per-command capacities.
type Config struct {
	// MaxSegments is the maximum number of colon-separated header segments.
	MaxSegments int
	// MaxArgs is the maximum number of arguments per command.
	MaxArgs int
}

// DefaultConfig returns the scanner capacities used when none are given.
func DefaultConfig() Config {
	return Config{MaxSegments: 12, MaxArgs: 10}
}

// Arg is one raw argument token.
type Arg struct {
	// Text is the argument with surrounding whitespace removed and, for
	// quoted strings, the quotes stripped and doubled quotes collapsed.
	Text string
	// Quoted reports whether the argument was a quoted string.
	Quoted bool
	// Offset is the byte offset of the argument in the scanned buffer.
	Offset int
}

// Command is one scanned command, before tree matching.
type Command struct {
	// Header holds the colon-separated header segments in input spelling.
	// A common command has a single segment starting with '*'.
	Header []string
	// Query reports a trailing '?' on the header.
	Query bool
	// Args holds the raw argument tokens.
	Args []Arg
	// Offset is the byte offset of the header in the scanned buffer.
	Offset int
	// Terminated reports that the command ended at a line terminator
	// rather than a ';' or the end of the buffer.
	Terminated bool
	// Err is set when the command is malformed; Header and Args are then
	// incomplete and must not be dispatched.
	Err error
}

// Scanner produces the commands of one input buffer in order.
type Scanner struct {
	buf []byte
	pos int
	cfg Config
	cmd Command
}

// New returns a Scanner over buf. A Scanner is single-use; create a new
// one to rescan.
func New(buf []byte, cfg Config) *Scanner {
	if cfg.MaxSegments <= 0 {
		cfg.MaxSegments = DefaultConfig().MaxSegments
	}
	if cfg.MaxArgs <= 0 {
		cfg.MaxArgs = DefaultConfig().MaxArgs
	}
	return &Scanner{buf: buf, cfg: cfg}
}

// Next advances to the next command in the buffer. It returns false when
// the buffer is exhausted.
func (s *Scanner) Next() bool {
	for {
		s.skipBlank()
		if s.pos >= len(s.buf) {
			return false
		}
		if s.scanCommand() {
			return true
		}
	}
}

// Command returns the command scanned by the last successful call to Next.
func (s *Scanner) Command() Command {
	return s.cmd
}

// skipBlank consumes whitespace, terminators and empty commands.
func (s *Scanner) skipBlank() {
	for s.pos < len(s.buf) {
		switch b := s.buf[s.pos]; {
		case b == '\n' || b == ';':
			s.pos++
		case isWhitespace(b):
			s.pos++
		default:
			return
		}
	}
}

// scanCommand scans one command starting at s.pos. It returns false for an
// empty command (nothing but separators), which the caller skips.
func (s *Scanner) scanCommand() bool {
	s.cmd = Command{Offset: s.pos}

	if err := s.scanHeader(); err != nil {
		s.fail(err)
		return true
	}

	// Header/argument boundary is the first whitespace run.
	hadSpace := s.skipSpace()
	if s.atSeparator() {
		s.finish()
		return true
	}
	if !hadSpace {
		s.fail(ErrBadCharacter)
		return true
	}

	if err := s.scanArgs(); err != nil {
		s.fail(err)
		return true
	}

	s.finish()
	return true
}

func (s *Scanner) scanHeader() error {
	start := s.pos
	// Tolerate an absolute leading colon.
	if s.pos < len(s.buf) && s.buf[s.pos] == ':' {
		s.pos++
	}

	seg := s.pos
	for s.pos < len(s.buf) {
		b := s.buf[s.pos]
		switch {
		case b == ':':
			if err := s.pushSegment(s.buf[seg:s.pos]); err != nil {
				return err
			}
			s.pos++
			seg = s.pos
		case b == '?':
			if err := s.pushSegment(s.buf[seg:s.pos]); err != nil {
				return err
			}
			s.cmd.Query = true
			s.pos++
			return nil
		case b == ';' || b == '\n' || isWhitespace(b):
			return s.pushSegment(s.buf[seg:s.pos])
		case isHeaderByte(b, s.pos == start):
			s.pos++
		default:
			return ErrBadCharacter
		}
	}
	return s.pushSegment(s.buf[seg:s.pos])
}

func (s *Scanner) pushSegment(seg []byte) error {
	if len(seg) == 0 {
		return ErrEmptySegment
	}
	if len(s.cmd.Header) >= s.cfg.MaxSegments {
		return ErrTooManySegments
	}
	s.cmd.Header = append(s.cmd.Header, string(seg))
	return nil
}

func (s *Scanner) scanArgs() error {
	for {
		s.skipSpace()
		arg, err := s.scanArg()
		if err != nil {
			return err
		}
		if arg.Text == "" && !arg.Quoted {
			return ErrEmptyArgument
		}
		if len(s.cmd.Args) >= s.cfg.MaxArgs {
			return ErrTooManyArgs
		}
		s.cmd.Args = append(s.cmd.Args, arg)

		s.skipSpace()
		if s.atSeparator() {
			return nil
		}
		if s.buf[s.pos] != ',' {
			return ErrBadStringTail
		}
		s.pos++
	}
}

func (s *Scanner) scanArg() (Arg, error) {
	if s.pos < len(s.buf) && (s.buf[s.pos] == '\'' || s.buf[s.pos] == '"') {
		return s.scanQuoted()
	}

	start := s.pos
	for s.pos < len(s.buf) {
		b := s.buf[s.pos]
		if b == ',' || b == ';' || b == '\n' {
			break
		}
		s.pos++
	}
	end := s.pos
	for end > start && isWhitespace(s.buf[end-1]) {
		end--
	}
	return Arg{Text: string(s.buf[start:end]), Offset: start}, nil
}

// scanQuoted scans a quoted string argument. A doubled quote character
// inside the string is an escaped literal quote (IEEE 488.2 7.7.5.2).
func (s *Scanner) scanQuoted() (Arg, error) {
	quote := s.buf[s.pos]
	start := s.pos
	s.pos++

	var b strings.Builder
	for s.pos < len(s.buf) {
		c := s.buf[s.pos]
		if c == '\n' {
			break
		}
		if c != quote {
			b.WriteByte(c)
			s.pos++
			continue
		}
		// Closing quote, unless doubled.
		if s.pos+1 < len(s.buf) && s.buf[s.pos+1] == quote {
			b.WriteByte(quote)
			s.pos += 2
			continue
		}
		s.pos++
		return Arg{Text: b.String(), Quoted: true, Offset: start}, nil
	}
	return Arg{}, ErrUnterminatedString
}

// fail records err on the current command and resynchronizes at the next
// separator.
func (s *Scanner) fail(err error) {
	s.cmd.Err = err
	for s.pos < len(s.buf) && s.buf[s.pos] != ';' && s.buf[s.pos] != '\n' {
		s.pos++
	}
	s.finish()
}

// finish consumes the command separator, noting a line terminator.
func (s *Scanner) finish() {
	if s.pos >= len(s.buf) {
		s.cmd.Terminated = true
		return
	}
	switch s.buf[s.pos] {
	case '\n':
		s.cmd.Terminated = true
		s.pos++
	case ';':
		s.pos++
	}
}

// skipSpace consumes a whitespace run, reporting whether any was present.
func (s *Scanner) skipSpace() bool {
	n := s.pos
	for s.pos < len(s.buf) && isWhitespace(s.buf[s.pos]) {
		s.pos++
	}
	return s.pos > n
}

// atSeparator reports whether the scanner sits on a command boundary.
func (s *Scanner) atSeparator() bool {
	return s.pos >= len(s.buf) || s.buf[s.pos] == ';' || s.buf[s.pos] == '\n'
}

// isWhitespace follows the IEEE 488.2 white space definition: every byte
// from 0 through 32 except the newline terminator.
func isWhitespace(b byte) bool {
	return b != '\n' && b <= ' '
}

func isHeaderByte(b byte, first bool) bool {
	switch {
	case b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z':
		return true
	case b == '*':
		return first
	case b >= '0' && b <= '9' || b == '_':
		return !first
	}
	return false
}

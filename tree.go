package scpi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/scpi/internal/abbrev"
)

// Build errors
var (
	ErrEmptySpec        = errors.New("empty command specification")
	ErrBadSpec          = errors.New("invalid command specification")
	ErrDuplicateCommand = errors.New("duplicate command")
	ErrAmbiguousCommand = errors.New("ambiguous sibling keywords")
	ErrNoHandler        = errors.New("nil handler")
)

// slot binds a handler to one form (set or query) of a tree node. The
// parameter tags are fixed at build time; arity and types never vary at
// runtime.
type slot struct {
	name   string // canonical declared spelling, e.g. "MATH:MULTiply?"
	params []param
	fn     Handler
}

type param struct {
	typ     Type
	choices []abbrev.Keyword
}

// node is one colon-segment of the command hierarchy. Nodes are built once
// by the Builder and shared read-only across all dispatches.
type node struct {
	key      abbrev.Keyword
	children []*node
	set      *slot // non-query form
	query    *slot // query form
}

// child returns the unique child matching the input segment. Prefix
// injectiveness is validated at build time, so the first match is the only
// one.
func (n *node) child(segment string) *node {
	for _, c := range n.children {
		if c.key.Match(segment) {
			return c
		}
	}
	return nil
}

// common holds the two forms of a root-level "*" command.
type common struct {
	set   *slot
	query *slot
}

// Tree is the immutable command hierarchy. Build one with a Builder and
// share it across interpreter instances.
type Tree struct {
	root *node
	star map[string]*common
	cmds int
}

// Len returns the number of registered command slots.
func (t *Tree) Len() int { return t.cmds }

// resolve walks the tree for a colon-split header and returns the slot for
// the requested form. Traversal stops at the first unmatched segment.
func (t *Tree) resolve(header []string, query bool) *slot {
	if len(header) == 0 {
		return nil
	}
	if header[0][0] == '*' {
		if len(header) != 1 {
			return nil
		}
		c := t.star[strings.ToUpper(header[0])]
		if c == nil {
			return nil
		}
		if query {
			return c.query
		}
		return c.set
	}

	n := t.root
	for _, seg := range header {
		if n = n.child(seg); n == nil {
			return nil
		}
	}
	if query {
		return n.query
	}
	return n.set
}

// Builder assembles a Tree from declarative command specifications. All
// registration errors are deferred and reported by Build, which validates
// the finished hierarchy before first use.
type Builder struct {
	root *node
	star map[string]*common
	errs []error
	cmds int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		root: &node{},
		star: make(map[string]*common),
	}
}

// Add registers a handler under a command specification.
//
// The specification is colon-separated mixed-case keywords; uppercase
// letters form the mandatory short form. A segment in square brackets is
// optional and may be omitted by the sender. A trailing "?" registers the
// query form, its absence the set form. A leading "*" declares a common
// command matched at the root without tree traversal.
//
//	b.Add("MATH:MULTiply?", multiply, scpi.Param{Type: scpi.TypeFloat}, scpi.Param{Type: scpi.TypeFloat})
//	b.Add("[SYSTem]:ERRor:COUNt?", errorCount)
//	b.Add("*RST", reset)
func (b *Builder) Add(spec string, fn Handler, params ...Param) *Builder {
	if err := b.add(spec, fn, params, false); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// addDefault registers a standard command only if the application has not
// already claimed the spec's path and form.
func (b *Builder) addDefault(spec string, fn Handler, params ...Param) {
	if err := b.add(spec, fn, params, true); err != nil {
		b.errs = append(b.errs, err)
	}
}

func (b *Builder) add(spec string, fn Handler, params []Param, skipTaken bool) error {
	if spec == "" {
		return ErrEmptySpec
	}
	if fn == nil {
		return fmt.Errorf("%w: %q", ErrNoHandler, spec)
	}

	sl := &slot{name: spec, fn: fn}
	for _, p := range params {
		cp := param{typ: p.Type}
		for _, choice := range p.Choices {
			kw, err := abbrev.Parse(choice)
			if err != nil {
				return fmt.Errorf("%w: %q: %v", ErrBadSpec, spec, err)
			}
			cp.choices = append(cp.choices, kw)
		}
		sl.params = append(sl.params, cp)
	}

	body, query := strings.CutSuffix(spec, "?")
	if body == "" {
		return fmt.Errorf("%w: %q", ErrBadSpec, spec)
	}

	if body[0] == '*' {
		return b.addStar(body, query, sl, skipTaken)
	}

	segs, optional, err := parseSpecPath(body)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrBadSpec, spec, err)
	}
	return b.insert(b.root, segs, optional, query, sl, skipTaken)
}

func (b *Builder) addStar(body string, query bool, sl *slot, skipTaken bool) error {
	if strings.ContainsRune(body, ':') {
		return fmt.Errorf("%w: %q: common command cannot be compound", ErrBadSpec, sl.name)
	}
	if _, err := abbrev.Parse(body); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrBadSpec, sl.name, err)
	}
	key := strings.ToUpper(body)
	c := b.star[key]
	if c == nil {
		c = &common{}
		b.star[key] = c
	}
	target := &c.set
	if query {
		target = &c.query
	}
	if *target != nil {
		if skipTaken {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrDuplicateCommand, sl.name)
	}
	*target = sl
	b.cmds++
	return nil
}

// insert places the slot at every path the optional segments generate.
func (b *Builder) insert(n *node, segs []abbrev.Keyword, optional []bool, query bool, sl *slot, skipTaken bool) error {
	if len(segs) == 0 {
		target := &n.set
		if query {
			target = &n.query
		}
		if *target == sl {
			return nil // reached again via an optional-segment path
		}
		if *target != nil {
			if skipTaken {
				return nil
			}
			return fmt.Errorf("%w: %q", ErrDuplicateCommand, sl.name)
		}
		*target = sl
		b.cmds++
		return nil
	}

	if optional[0] {
		if err := b.insert(n, segs[1:], optional[1:], query, sl, skipTaken); err != nil {
			return err
		}
	}

	child := b.childFor(n, segs[0])
	if child == nil {
		return fmt.Errorf("%w: %q: keyword %s conflicts with sibling spelling", ErrBadSpec, sl.name, segs[0].Long)
	}
	return b.insert(child, segs[1:], optional[1:], query, sl, skipTaken)
}

// childFor finds or creates the child node for a keyword. Two commands may
// share a segment only when they declare it with the same spelling.
func (b *Builder) childFor(n *node, kw abbrev.Keyword) *node {
	for _, c := range n.children {
		if c.key.Long == kw.Long {
			if c.key.Short != kw.Short {
				return nil
			}
			return c
		}
	}
	c := &node{key: kw}
	n.children = append(n.children, c)
	return c
}

// Build validates the assembled hierarchy and returns the immutable Tree.
// It fails on any deferred registration error and on sibling keyword sets
// whose short-to-long relationship is not injective, so a runtime match is
// always unique.
func (b *Builder) Build() (*Tree, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	if err := checkSiblings(b.root, nil); err != nil {
		return nil, err
	}
	return &Tree{root: b.root, star: b.star, cmds: b.cmds}, nil
}

// checkSiblings verifies that no input segment could match two children of
// the same node.
func checkSiblings(n *node, path []string) error {
	for i, a := range n.children {
		for _, c := range n.children[i+1:] {
			if overlaps(a.key, c.key) {
				return fmt.Errorf("%w: %s and %s under %q",
					ErrAmbiguousCommand, a.key.Long, c.key.Long, strings.Join(path, ":"))
			}
		}
	}
	for _, c := range n.children {
		if err := checkSiblings(c, append(path, c.key.Long)); err != nil {
			return err
		}
	}
	return nil
}

// overlaps reports whether some input would match both keywords: the
// shortest accepted length of either must exceed their common prefix.
func overlaps(a, b abbrev.Keyword) bool {
	p := 0
	for p < len(a.Long) && p < len(b.Long) && a.Long[p] == b.Long[p] {
		p++
	}
	need := len(a.Short)
	if len(b.Short) > need {
		need = len(b.Short)
	}
	return need <= p
}

// parseSpecPath splits a spec body into keywords with optional flags.
func parseSpecPath(body string) ([]abbrev.Keyword, []bool, error) {
	parts := strings.Split(body, ":")
	segs := make([]abbrev.Keyword, 0, len(parts))
	optional := make([]bool, 0, len(parts))

	for _, part := range parts {
		opt := false
		if strings.HasPrefix(part, "[") && strings.HasSuffix(part, "]") {
			part = part[1 : len(part)-1]
			opt = true
		}
		kw, err := abbrev.Parse(part)
		if err != nil {
			return nil, nil, err
		}
		if strings.HasPrefix(kw.Long, "*") {
			return nil, nil, fmt.Errorf("%q: asterisk outside common command", part)
		}
		segs = append(segs, kw)
		optional = append(optional, opt)
	}

	return segs, optional, nil
}

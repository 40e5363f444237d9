package scpi

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dshills/scpi/internal/scan"
)

// Interpreter executes SCPI command buffers against an immutable command
// Tree. One interpreter serves one command stream: commands are matched,
// dispatched and answered strictly in arrival order, and handlers never
// run concurrently with each other. The Tree itself is read-only and may
// be shared between interpreter instances.
//
// Handlers must not call back into their own interpreter; that contract
// is not enforced at runtime.
type Interpreter struct {
	tree     *Tree
	limits   Limits
	reporter Reporter
	queue    *Queue
	regs     *Registers
	identity Identity
	metrics  *Metrics

	preHooks  []PreHook
	postHooks []PostHook
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLimits sets the interpreter's buffer capacities. Zero fields keep
// their defaults.
func WithLimits(l Limits) Option {
	return func(in *Interpreter) { in.limits = l.withDefaults() }
}

// WithReporter replaces the default error reporter (the interpreter's own
// error queue). The queue still exists and still backs the SYSTem:ERRor
// commands; a custom reporter that wants them populated should forward to
// ErrorQueue.
func WithReporter(r Reporter) Option {
	return func(in *Interpreter) { in.reporter = r }
}

// WithIdentity sets the *IDN? identification.
func WithIdentity(id Identity) Option {
	return func(in *Interpreter) { in.identity = id }
}

// WithMetrics attaches a metrics block.
func WithMetrics(m *Metrics) Option {
	return func(in *Interpreter) { in.metrics = m }
}

// New returns an interpreter for the given command tree.
func New(tree *Tree, opts ...Option) *Interpreter {
	in := &Interpreter{
		tree:   tree,
		limits: DefaultLimits(),
		regs:   newRegisters(),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.queue = NewQueue(in.limits.MaxErrors)
	if in.reporter == nil {
		in.reporter = in.queue
	}
	return in
}

// ErrorQueue returns the interpreter's error queue.
func (in *Interpreter) ErrorQueue() *Queue { return in.queue }

// Registers returns the interpreter's status register set.
func (in *Interpreter) Registers() *Registers { return in.regs }

// Exec processes every complete command in the input buffer, writing all
// responses to out before returning. Failures never abort the buffer:
// each is translated to a Record, handed to the reporter, and scanning
// continues with the next command. A handler that suspends is waited for,
// so responses always appear in arrival order.
func (in *Interpreter) Exec(input []byte, out io.Writer) {
	enc := newEncoder(out)
	s := scan.New(input, scan.Config{
		MaxSegments: in.limits.MaxSegments,
		MaxArgs:     in.limits.MaxArgs,
	})

	for s.Next() {
		cmd := s.Command()
		in.execOne(cmd, enc)
		if cmd.Terminated {
			enc.endLine()
		}
		if err := enc.failed(); err != nil {
			in.report(translate(CodeBufferOverflow, -1, fmt.Errorf("output sink: %w", err)))
		}
	}
	enc.endLine()
	if err := enc.failed(); err != nil {
		in.report(translate(CodeBufferOverflow, -1, fmt.Errorf("output sink: %w", err)))
	}
}

func (in *Interpreter) execOne(cmd scan.Command, enc *encoder) {
	if cmd.Err != nil {
		code := CodeScanError
		if errors.Is(cmd.Err, scan.ErrTooManyArgs) || errors.Is(cmd.Err, scan.ErrTooManySegments) {
			code = CodeBufferOverflow
		}
		in.report(translate(code, cmd.Offset, cmd.Err))
		return
	}

	sl := in.tree.resolve(cmd.Header, cmd.Query)
	if sl == nil {
		in.report(translate(CodeHeaderNotRecognized, cmd.Offset,
			fmt.Errorf("no command %q", headerString(cmd))))
		return
	}

	vals, rec := decodeArgs(sl, cmd.Args, cmd.Offset, in.limits)
	if rec != nil {
		in.report(*rec)
		return
	}

	req := Request{Name: sl.name, Query: cmd.Query, Args: vals, Offset: cmd.Offset}
	if !in.runPreHooks(req) {
		return
	}

	start := time.Now()
	ctx := &Context{
		Identity:  in.identity,
		Registers: in.regs,
		Errors:    in.queue,
		Name:      sl.name,
		Query:     cmd.Query,
	}

	res := sl.fn(ctx, vals)
	suspended := false
	if res.pending != nil {
		// Cooperative suspension: the handler parked itself awaiting an
		// externally-driven completion. Nothing further is matched from
		// this stream until the outcome arrives.
		suspended = true
		outcome := <-res.pending
		res.vals, res.err = outcome.Values, outcome.Err
	}
	if in.metrics != nil {
		in.metrics.RecordDispatch(time.Since(start), suspended)
	}

	if res.err != nil {
		frec := translate(CodeHandlerError, cmd.Offset, res.err)
		in.report(frec)
		in.runPostHooks(req, &frec)
		return
	}

	enc.writeResult(res.vals)
	in.runPostHooks(req, nil)
}

// report forwards a record to the reporter, raises the matching event
// status bit and counts the failure.
func (in *Interpreter) report(rec Record) {
	switch {
	case rec.Number <= -400 && rec.Number > -500:
		in.regs.Set(EventQueryError)
	case rec.Number <= -300 && rec.Number > -400:
		in.regs.Set(EventDeviceError)
	case rec.Number <= -200 && rec.Number > -300:
		in.regs.Set(EventExecutionError)
	case rec.Number <= -100 && rec.Number > -200:
		in.regs.Set(EventCommandError)
	}
	if in.metrics != nil {
		in.metrics.RecordError(rec.Code)
	}
	in.reporter.Report(rec)
}

func headerString(cmd scan.Command) string {
	return strings.Join(cmd.Header, ":")
}

package scpi_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dshills/scpi"
)

// instrument is the receiver state for the test command set.
type instrument struct {
	value float64
	text  string
	on    bool
	mode  string
	reset bool
}

func testTree(t *testing.T, dev *instrument) *scpi.Tree {
	t.Helper()

	b := scpi.NewBuilder()
	b.Add("SYSTem:VALue?", func(_ *scpi.Context, _ []scpi.Value) scpi.Result {
		return scpi.OK(scpi.Float(dev.value))
	})
	b.Add("SYSTem:VALue", func(_ *scpi.Context, args []scpi.Value) scpi.Result {
		dev.value = args[0].AsFloat()
		return scpi.OK()
	}, scpi.Param{Type: scpi.TypeFloat})
	b.Add("MATH:MULTiply?", func(_ *scpi.Context, args []scpi.Value) scpi.Result {
		return scpi.OK(scpi.Float(args[0].AsFloat() * args[1].AsFloat()))
	}, scpi.Param{Type: scpi.TypeFloat}, scpi.Param{Type: scpi.TypeFloat})
	b.Add("OUTPut:STATe", func(_ *scpi.Context, args []scpi.Value) scpi.Result {
		dev.on = args[0].AsBool()
		return scpi.OK()
	}, scpi.Param{Type: scpi.TypeBool})
	b.Add("OUTPut:STATe?", func(_ *scpi.Context, _ []scpi.Value) scpi.Result {
		return scpi.OK(scpi.Bool(dev.on))
	})
	b.Add("DISPlay:TEXT", func(_ *scpi.Context, args []scpi.Value) scpi.Result {
		dev.text = args[0].AsString()
		return scpi.OK()
	}, scpi.Param{Type: scpi.TypeString})
	b.Add("DISPlay:TEXT?", func(_ *scpi.Context, _ []scpi.Value) scpi.Result {
		return scpi.OK(scpi.String(dev.text))
	})
	b.Add("TRIGger:MODE", func(_ *scpi.Context, args []scpi.Value) scpi.Result {
		dev.mode = args[0].AsString()
		return scpi.OK()
	}, scpi.Mnemonic("IMMediate", "EXTernal", "BUS"))
	b.Add("*RST", func(_ *scpi.Context, _ []scpi.Value) scpi.Result {
		*dev = instrument{}
		dev.reset = true
		return scpi.OK()
	})
	b.StandardCommands()

	tree, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tree
}

func run(t *testing.T, in *scpi.Interpreter, input string) string {
	t.Helper()
	var out bytes.Buffer
	in.Exec([]byte(input), &out)
	return out.String()
}

func TestExecQueryLongFormAnyCase(t *testing.T) {
	dev := &instrument{value: 42}
	in := scpi.New(testTree(t, dev))

	for _, input := range []string{
		"SYSTEM:VAL?\n", "system:value?\n", "SYST:VAL?\n", "SySt:VaLu?\n",
	} {
		if got := run(t, in, input); got != "42\n" {
			t.Errorf("Exec(%q) = %q, want \"42\\n\"", input, got)
		}
	}
}

func TestExecMultiplyExample(t *testing.T) {
	in := scpi.New(testTree(t, &instrument{}))

	if got := run(t, in, "MATH:MULT? 23,42\n"); got != "966\n" {
		t.Errorf("got %q, want \"966\\n\"", got)
	}
}

func TestExecSetThenQuery(t *testing.T) {
	dev := &instrument{}
	in := scpi.New(testTree(t, dev))

	out := run(t, in, "SYST:VAL 3.5\nSYST:VAL?\n")
	if out != "3.5\n" {
		t.Errorf("output = %q, want \"3.5\\n\"", out)
	}
	if dev.value != 3.5 {
		t.Errorf("value = %v, want 3.5", dev.value)
	}
}

func TestExecCommonCommands(t *testing.T) {
	dev := &instrument{}
	in := scpi.New(testTree(t, dev), scpi.WithIdentity(scpi.Identity{
		Manufacturer: "ACME",
		Model:        "VX-100",
		Serial:       "0042",
		Firmware:     "1.2.0",
	}))

	if got := run(t, in, "*IDN?\n"); got != "ACME,VX-100,0042,1.2.0\n" {
		t.Errorf("*IDN? = %q", got)
	}

	run(t, in, "*RST\n")
	if !dev.reset {
		t.Error("*RST handler did not run")
	}

	if got := run(t, in, "SYST:VERS?\n"); got != "1999.0\n" {
		t.Errorf("SYST:VERS? = %q", got)
	}
}

// *RST is accepted with only the standard set registered; an application
// handler registered first wins.
func TestExecResetDefault(t *testing.T) {
	b := scpi.NewBuilder()
	b.StandardCommands()
	tree, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	in := scpi.New(tree)

	if got := run(t, in, "*RST\n"); got != "" {
		t.Errorf("output = %q, want none", got)
	}
	if _, ok := in.ErrorQueue().Pop(); ok {
		t.Error("default *RST queued an error")
	}

	dev := &instrument{}
	in = scpi.New(testTree(t, dev))
	run(t, in, "*RST\n")
	if !dev.reset {
		t.Error("application *RST was not dispatched")
	}
}

func TestExecUnknownHeaderReportsAndContinues(t *testing.T) {
	dev := &instrument{value: 42}
	in := scpi.New(testTree(t, dev))

	out := run(t, in, "BADCMD; SYSTem:VALue?\n")
	if out != "42\n" {
		t.Errorf("output = %q, want \"42\\n\"", out)
	}

	rec, ok := in.ErrorQueue().Pop()
	if !ok {
		t.Fatal("expected a queued error record")
	}
	if rec.Code != scpi.CodeHeaderNotRecognized || rec.Number != -113 {
		t.Errorf("record = %+v, want header-not-recognized -113", rec)
	}
	if _, ok := in.ErrorQueue().Pop(); ok {
		t.Error("expected exactly one record")
	}
}

func TestExecQueryFormMissing(t *testing.T) {
	in := scpi.New(testTree(t, &instrument{}))

	// MATH:MULTiply has only a query slot.
	if got := run(t, in, "MATH:MULT 2,3\n"); got != "" {
		t.Errorf("output = %q, want none", got)
	}
	rec, ok := in.ErrorQueue().Pop()
	if !ok || rec.Code != scpi.CodeHeaderNotRecognized {
		t.Errorf("record = %+v, want header-not-recognized", rec)
	}
}

func TestExecPartialHeaderIsNotRecognized(t *testing.T) {
	in := scpi.New(testTree(t, &instrument{}))

	for _, input := range []string{"SYST?\n", "SYST:VAL:EXTRA?\n", "MA:MULT? 1,2\n"} {
		run(t, in, input)
		rec, ok := in.ErrorQueue().Pop()
		if !ok || rec.Code != scpi.CodeHeaderNotRecognized {
			t.Errorf("%q: record = %+v, want header-not-recognized", input, rec)
		}
	}
}

func TestExecChainedQueriesSeparated(t *testing.T) {
	dev := &instrument{value: 7}
	in := scpi.New(testTree(t, dev))

	out := run(t, in, "SYST:VAL?;MATH:MULT? 2,3\n")
	if out != "7; 6\n" {
		t.Errorf("output = %q, want \"7; 6\\n\"", out)
	}
}

// A suspended handler must not let a later command answer first.
func TestExecOrderingAcrossSuspension(t *testing.T) {
	done := make(chan scpi.Outcome, 1)

	b := scpi.NewBuilder()
	b.Add("SLOW?", func(_ *scpi.Context, _ []scpi.Value) scpi.Result {
		return scpi.Pending(done)
	})
	b.Add("FAST?", func(_ *scpi.Context, _ []scpi.Value) scpi.Result {
		return scpi.OK(scpi.Int(2))
	})
	tree, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	in := scpi.New(tree)

	go func() {
		time.Sleep(10 * time.Millisecond)
		done <- scpi.Outcome{Values: []scpi.Value{scpi.Int(1)}}
	}()

	out := run(t, in, "SLOW?;FAST?\n")
	if out != "1; 2\n" {
		t.Errorf("output = %q, want \"1; 2\\n\"", out)
	}
}

func TestExecHandlerErrorDoesNotAbortBuffer(t *testing.T) {
	b := scpi.NewBuilder()
	b.Add("FAIL", func(_ *scpi.Context, _ []scpi.Value) scpi.Result {
		return scpi.Fail(scpi.ErrSettingsConflict)
	})
	b.Add("GOOD?", func(_ *scpi.Context, _ []scpi.Value) scpi.Result {
		return scpi.OK(scpi.Int(5))
	})
	tree, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	in := scpi.New(tree)

	if got := run(t, in, "FAIL;GOOD?\n"); got != "5\n" {
		t.Errorf("output = %q, want \"5\\n\"", got)
	}
	rec, ok := in.ErrorQueue().Pop()
	if !ok || rec.Code != scpi.CodeHandlerError || rec.Number != -221 {
		t.Errorf("record = %+v, want handler-error -221", rec)
	}
}

func TestExecErrorQueueCommands(t *testing.T) {
	in := scpi.New(testTree(t, &instrument{}))

	out := run(t, in, "BOGUS\nSYST:ERR:COUN?\nSYST:ERR?\nSYST:ERR?\n")
	want := "1\n" + `-113,"Undefined header"` + "\n" + `0,""` + "\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestExecMnemonicArgument(t *testing.T) {
	dev := &instrument{}
	in := scpi.New(testTree(t, dev))

	run(t, in, "TRIG:MODE ext\n")
	if dev.mode != "EXTERNAL" {
		t.Errorf("mode = %q, want EXTERNAL", dev.mode)
	}

	run(t, in, "TRIG:MODE nonsense\n")
	rec, ok := in.ErrorQueue().Pop()
	if !ok || rec.Code != scpi.CodeArgumentType {
		t.Errorf("record = %+v, want argument-type", rec)
	}
}

func TestExecStringOverflow(t *testing.T) {
	dev := &instrument{}
	in := scpi.New(testTree(t, dev), scpi.WithLimits(scpi.Limits{MaxStringLen: 8}))

	run(t, in, "DISP:TEXT \"way too long for the limit\"\n")
	rec, ok := in.ErrorQueue().Pop()
	if !ok || rec.Code != scpi.CodeBufferOverflow {
		t.Errorf("record = %+v, want buffer-overflow", rec)
	}
	if dev.text != "" {
		t.Errorf("text = %q, want untouched", dev.text)
	}
}

func TestExecArityAndTypeRecords(t *testing.T) {
	in := scpi.New(testTree(t, &instrument{}))

	run(t, in, "MATH:MULT? 1\n")
	rec, ok := in.ErrorQueue().Pop()
	if !ok || rec.Code != scpi.CodeArityMismatch {
		t.Errorf("record = %+v, want arity-mismatch", rec)
	}

	run(t, in, "MATH:MULT? 1,abc\n")
	rec, ok = in.ErrorQueue().Pop()
	if !ok || rec.Code != scpi.CodeArgumentType {
		t.Fatalf("record = %+v, want argument-type", rec)
	}
	if rec.Ordinal != 2 {
		t.Errorf("ordinal = %d, want 2", rec.Ordinal)
	}
}

func TestExecScanErrorResynchronizes(t *testing.T) {
	dev := &instrument{value: 9}
	in := scpi.New(testTree(t, dev))

	out := run(t, in, "DISP:TEXT \"broken\nSYST:VAL?\n")
	if out != "9\n" {
		t.Errorf("output = %q, want \"9\\n\"", out)
	}
	rec, ok := in.ErrorQueue().Pop()
	if !ok || rec.Code != scpi.CodeScanError {
		t.Errorf("record = %+v, want scan-error", rec)
	}
}

func TestExecStatusRegisters(t *testing.T) {
	in := scpi.New(testTree(t, &instrument{}))

	// Power-on state, then clear.
	if got := run(t, in, "*CLS;*ESR?\n"); got != "0\n" {
		t.Errorf("*ESR? after *CLS = %q, want \"0\\n\"", got)
	}

	// A command error raises bit 5.
	run(t, in, "NOPE\n")
	if got := run(t, in, "*ESR?\n"); got != "32\n" {
		t.Errorf("*ESR? = %q, want \"32\\n\"", got)
	}

	// Error queue bit plus standard event bit in the status byte.
	if got := run(t, in, "*STB?\n"); got != "36\n" {
		t.Errorf("*STB? = %q, want \"36\\n\"", got)
	}

	if got := run(t, in, "*CLS;*OPC?\n"); got != "1\n" {
		t.Errorf("*OPC? = %q, want \"1\\n\"", got)
	}
}

func TestExecHooks(t *testing.T) {
	dev := &instrument{value: 1}
	in := scpi.New(testTree(t, dev))

	var pre, post []string
	in.AddPreHook(func(req scpi.Request) bool {
		pre = append(pre, req.Name)
		return !strings.HasPrefix(req.Name, "OUTPut")
	})
	in.AddPostHook(func(req scpi.Request, rec *scpi.Record) {
		post = append(post, req.Name)
	})

	out := run(t, in, "SYST:VAL?;OUTP:STAT ON\n")
	if out != "1\n" {
		t.Errorf("output = %q", out)
	}
	if dev.on {
		t.Error("cancelled dispatch still ran")
	}
	if len(pre) != 2 || len(post) != 1 {
		t.Errorf("pre = %v, post = %v", pre, post)
	}
}

func TestExecMetrics(t *testing.T) {
	m := scpi.NewMetrics()
	in := scpi.New(testTree(t, &instrument{}), scpi.WithMetrics(m))

	run(t, in, "SYST:VAL?;NOPE;MATH:MULT? 2,3\n")

	snap := m.Snapshot()
	if snap.Dispatches != 2 {
		t.Errorf("Dispatches = %d, want 2", snap.Dispatches)
	}
	if snap.Errors[scpi.CodeHeaderNotRecognized] != 1 {
		t.Errorf("Errors = %v, want one header-not-recognized", snap.Errors)
	}
}

func TestExecNoTrailingTerminator(t *testing.T) {
	dev := &instrument{value: 8}
	in := scpi.New(testTree(t, dev))

	if got := run(t, in, "SYST:VAL?"); got != "8\n" {
		t.Errorf("output = %q, want \"8\\n\"", got)
	}
}

func TestExecOptionalSegment(t *testing.T) {
	in := scpi.New(testTree(t, &instrument{}))

	// SYSTem:ERRor[:NEXT]? answers with and without the optional segment.
	for _, input := range []string{"SYST:ERR?\n", "SYST:ERR:NEXT?\n"} {
		if got := run(t, in, input); got != `0,""`+"\n" {
			t.Errorf("Exec(%q) = %q", input, got)
		}
	}
}

type failingWriter struct{ n int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.n += len(p)
	if w.n > 4 {
		return 0, bytes.ErrTooLarge
	}
	return len(p), nil
}

// Sink exhaustion is reported once and never aborts scanning.
func TestExecSinkFailureReportedOnce(t *testing.T) {
	dev := &instrument{value: 123456}
	in := scpi.New(testTree(t, dev))

	in.Exec([]byte("SYST:VAL?;SYST:VAL?;SYST:VAL?\n"), &failingWriter{})

	count := 0
	for {
		rec, ok := in.ErrorQueue().Pop()
		if !ok {
			break
		}
		if rec.Code != scpi.CodeBufferOverflow {
			t.Errorf("unexpected record %+v", rec)
		}
		count++
	}
	if count != 1 {
		t.Errorf("got %d sink records, want 1", count)
	}
}

package scpi_test

import (
	"errors"
	"testing"

	"github.com/dshills/scpi"
)

func noop(_ *scpi.Context, _ []scpi.Value) scpi.Result {
	return scpi.OK()
}

func TestBuildValidTree(t *testing.T) {
	b := scpi.NewBuilder()
	b.Add("SYSTem:VALue?", noop)
	b.Add("MATH:MULTiply?", noop,
		scpi.Param{Type: scpi.TypeFloat}, scpi.Param{Type: scpi.TypeFloat})
	b.Add("*RST", noop)

	tree, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tree.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tree.Len())
	}
}

func TestBuildDuplicateCommand(t *testing.T) {
	b := scpi.NewBuilder()
	b.Add("SYSTem:VALue?", noop)
	b.Add("SYSTem:VALue?", noop)

	if _, err := b.Build(); !errors.Is(err, scpi.ErrDuplicateCommand) {
		t.Errorf("err = %v, want ErrDuplicateCommand", err)
	}
}

func TestBuildSetAndQueryShareNode(t *testing.T) {
	b := scpi.NewBuilder()
	b.Add("OUTPut:STATe", noop, scpi.Param{Type: scpi.TypeBool})
	b.Add("OUTPut:STATe?", noop)

	if _, err := b.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
}

func TestBuildAmbiguousSiblings(t *testing.T) {
	// Short form "MEAS" would match both long forms.
	b := scpi.NewBuilder()
	b.Add("MEASure:VOLTage?", noop)
	b.Add("MEASurement:CURRent?", noop)

	if _, err := b.Build(); !errors.Is(err, scpi.ErrAmbiguousCommand) {
		t.Errorf("err = %v, want ErrAmbiguousCommand", err)
	}
}

func TestBuildDistinctSiblings(t *testing.T) {
	b := scpi.NewBuilder()
	b.Add("MEASure:VOLTage?", noop)
	b.Add("MEASure:CURRent?", noop)
	b.Add("SOURce:VOLTage?", noop)

	if _, err := b.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
}

func TestBuildBadSpecs(t *testing.T) {
	tests := []struct {
		spec string
		want error
	}{
		{"", scpi.ErrEmptySpec},
		{"?", scpi.ErrBadSpec},
		{"SYS*TEM:VAL?", scpi.ErrBadSpec},
		{"*IDN:SUB?", scpi.ErrBadSpec},
		{"SYStTem:VAL?", scpi.ErrBadSpec},
	}

	for _, tt := range tests {
		b := scpi.NewBuilder()
		b.Add(tt.spec, noop)
		if _, err := b.Build(); !errors.Is(err, tt.want) {
			t.Errorf("Build(%q) err = %v, want %v", tt.spec, err, tt.want)
		}
	}
}

func TestBuildNilHandler(t *testing.T) {
	b := scpi.NewBuilder()
	b.Add("SYSTem:VALue?", nil)

	if _, err := b.Build(); !errors.Is(err, scpi.ErrNoHandler) {
		t.Errorf("err = %v, want ErrNoHandler", err)
	}
}

// Registration errors are deferred: Build reports all of them at once.
func TestBuildJoinsErrors(t *testing.T) {
	b := scpi.NewBuilder()
	b.Add("", noop)
	b.Add("OUTPut", nil)

	_, err := b.Build()
	if !errors.Is(err, scpi.ErrEmptySpec) || !errors.Is(err, scpi.ErrNoHandler) {
		t.Errorf("err = %v, want both ErrEmptySpec and ErrNoHandler", err)
	}
}

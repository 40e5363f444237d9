package main

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/dshills/scpi"
)

// instrument simulates a two-channel source/measure unit. It exists to
// exercise the interpreter: every parameter type, a mnemonic argument,
// and one command that completes asynchronously.
type instrument struct {
	mu sync.Mutex

	voltage [2]float64 // programmed level per channel
	current [2]float64
	output  [2]bool
	trigger string // IMMEDIATE, EXTERNAL or BUS
	display string
}

func newInstrument() *instrument {
	return &instrument{trigger: "IMMEDIATE"}
}

// register adds the simulated commands to the builder.
func (d *instrument) register(b *scpi.Builder) {
	chVolt := scpi.Param{Type: scpi.TypeInt}
	level := scpi.Param{Type: scpi.TypeFloat}

	b.Add("SOURce:VOLTage", d.setVoltage, chVolt, level)
	b.Add("SOURce:VOLTage?", d.getVoltage, chVolt)
	b.Add("SOURce:CURRent", d.setCurrent, chVolt, level)
	b.Add("SOURce:CURRent?", d.getCurrent, chVolt)
	b.Add("OUTPut:STATe", d.setOutput, chVolt, scpi.Param{Type: scpi.TypeBool})
	b.Add("OUTPut:STATe?", d.getOutput, chVolt)
	b.Add("MEASure:VOLTage?", d.measureVoltage, chVolt)
	b.Add("TRIGger:SOURce", d.setTrigger, scpi.Mnemonic("IMMediate", "EXTernal", "BUS"))
	b.Add("TRIGger:SOURce?", d.getTrigger)
	b.Add("DISPlay:TEXT", d.setDisplay, scpi.Param{Type: scpi.TypeString})
	b.Add("DISPlay:TEXT?", d.getDisplay)
	b.Add("MATH:MULTiply?", multiply, level, level)
	b.Add("*RST", d.reset)
}

func (d *instrument) channel(args []scpi.Value) (int, bool) {
	ch := args[0].AsInt()
	return int(ch - 1), ch == 1 || ch == 2
}

func (d *instrument) setVoltage(_ *scpi.Context, args []scpi.Value) scpi.Result {
	ch, ok := d.channel(args)
	if !ok {
		return scpi.Fail(scpi.ErrDataOutOfRange)
	}
	v := args[1].AsFloat()
	if math.Abs(v) > 30 {
		return scpi.Fail(scpi.ErrDataOutOfRange)
	}
	d.mu.Lock()
	d.voltage[ch] = v
	d.mu.Unlock()
	return scpi.OK()
}

func (d *instrument) getVoltage(_ *scpi.Context, args []scpi.Value) scpi.Result {
	ch, ok := d.channel(args)
	if !ok {
		return scpi.Fail(scpi.ErrDataOutOfRange)
	}
	d.mu.Lock()
	v := d.voltage[ch]
	d.mu.Unlock()
	return scpi.OK(scpi.Float(v))
}

func (d *instrument) setCurrent(_ *scpi.Context, args []scpi.Value) scpi.Result {
	ch, ok := d.channel(args)
	if !ok {
		return scpi.Fail(scpi.ErrDataOutOfRange)
	}
	c := args[1].AsFloat()
	if c < 0 || c > 5 {
		return scpi.Fail(scpi.ErrDataOutOfRange)
	}
	d.mu.Lock()
	d.current[ch] = c
	d.mu.Unlock()
	return scpi.OK()
}

func (d *instrument) getCurrent(_ *scpi.Context, args []scpi.Value) scpi.Result {
	ch, ok := d.channel(args)
	if !ok {
		return scpi.Fail(scpi.ErrDataOutOfRange)
	}
	d.mu.Lock()
	c := d.current[ch]
	d.mu.Unlock()
	return scpi.OK(scpi.Float(c))
}

func (d *instrument) setOutput(_ *scpi.Context, args []scpi.Value) scpi.Result {
	ch, ok := d.channel(args)
	if !ok {
		return scpi.Fail(scpi.ErrDataOutOfRange)
	}
	d.mu.Lock()
	d.output[ch] = args[1].AsBool()
	d.mu.Unlock()
	return scpi.OK()
}

func (d *instrument) getOutput(_ *scpi.Context, args []scpi.Value) scpi.Result {
	ch, ok := d.channel(args)
	if !ok {
		return scpi.Fail(scpi.ErrDataOutOfRange)
	}
	d.mu.Lock()
	on := d.output[ch]
	d.mu.Unlock()
	return scpi.OK(scpi.Bool(on))
}

// measureVoltage simulates a conversion that takes real time: the handler
// suspends and a background reading delivers the outcome.
func (d *instrument) measureVoltage(_ *scpi.Context, args []scpi.Value) scpi.Result {
	ch, ok := d.channel(args)
	if !ok {
		return scpi.Fail(scpi.ErrDataOutOfRange)
	}

	done := make(chan scpi.Outcome, 1)
	go func() {
		time.Sleep(20 * time.Millisecond)
		d.mu.Lock()
		v := d.voltage[ch]
		on := d.output[ch]
		d.mu.Unlock()
		if !on {
			done <- scpi.Outcome{Values: []scpi.Value{scpi.Float(0)}}
			return
		}
		noise := (rand.Float64() - 0.5) * 1e-3
		done <- scpi.Outcome{Values: []scpi.Value{scpi.Float(v + noise)}}
	}()
	return scpi.Pending(done)
}

func (d *instrument) setTrigger(_ *scpi.Context, args []scpi.Value) scpi.Result {
	d.mu.Lock()
	d.trigger = args[0].AsString()
	d.mu.Unlock()
	return scpi.OK()
}

func (d *instrument) getTrigger(_ *scpi.Context, _ []scpi.Value) scpi.Result {
	d.mu.Lock()
	t := d.trigger
	d.mu.Unlock()
	return scpi.OK(scpi.Chars(t))
}

func (d *instrument) setDisplay(_ *scpi.Context, args []scpi.Value) scpi.Result {
	d.mu.Lock()
	d.display = args[0].AsString()
	d.mu.Unlock()
	return scpi.OK()
}

func (d *instrument) getDisplay(_ *scpi.Context, _ []scpi.Value) scpi.Result {
	d.mu.Lock()
	s := d.display
	d.mu.Unlock()
	return scpi.OK(scpi.String(s))
}

func (d *instrument) reset(_ *scpi.Context, _ []scpi.Value) scpi.Result {
	d.mu.Lock()
	d.voltage = [2]float64{}
	d.current = [2]float64{}
	d.output = [2]bool{}
	d.trigger = "IMMEDIATE"
	d.display = ""
	d.mu.Unlock()
	return scpi.OK()
}

func multiply(_ *scpi.Context, args []scpi.Value) scpi.Result {
	return scpi.OK(scpi.Float(args[0].AsFloat() * args[1].AsFloat()))
}

package scpi

import "strings"

// StandardVersion is the SCPI standard version reported by
// SYSTem:VERSion?.
const StandardVersion = "1999.0"

// StandardCommands registers the IEEE 488.2 common commands and the SCPI
// SYSTem error/version commands:
//
//	*IDN? *CLS *ESE *ESE? *ESR? *OPC *OPC? *RST *SRE *SRE? *STB? *TST? *WAI
//	SYSTem:ERRor[:NEXT]?  SYSTem:ERRor:COUNt?  SYSTem:VERSion?
//
// A spec the application has already registered is left untouched, so
// call StandardCommands after application commands to override defaults
// such as *IDN? or *RST.
func (b *Builder) StandardCommands() *Builder {
	b.addDefault("*IDN?", identify)
	b.addDefault("*CLS", clearStatus)
	b.addDefault("*RST", resetDevice)
	b.addDefault("*ESE", setEventEnable, Param{Type: TypeInt})
	b.addDefault("*ESE?", getEventEnable)
	b.addDefault("*ESR?", getEventStatus)
	b.addDefault("*OPC", operationComplete)
	b.addDefault("*OPC?", operationCompleteQuery)
	b.addDefault("*SRE", setServiceEnable, Param{Type: TypeInt})
	b.addDefault("*SRE?", getServiceEnable)
	b.addDefault("*STB?", getStatusByte)
	b.addDefault("*TST?", selfTest)
	b.addDefault("*WAI", waitComplete)
	b.addDefault("SYSTem:ERRor:[NEXT]?", nextError)
	b.addDefault("SYSTem:ERRor:COUNt?", errorCount)
	b.addDefault("SYSTem:VERSion?", version)
	return b
}

func identify(ctx *Context, _ []Value) Result {
	id := ctx.Identity
	fields := []string{id.Manufacturer, id.Model, id.Serial, id.Firmware}
	return OK(Chars(strings.Join(fields, ",")))
}

// clearStatus implements *CLS: clear the event status register and the
// error queue.
func clearStatus(ctx *Context, _ []Value) Result {
	ctx.Registers.ClearEvents()
	ctx.Errors.Clear()
	return OK()
}

// resetDevice is the default *RST: device settings are the application's
// state, so the default resets nothing. Register your own *RST before
// StandardCommands to restore power-on settings.
func resetDevice(_ *Context, _ []Value) Result {
	return OK()
}

func setEventEnable(ctx *Context, args []Value) Result {
	v := args[0].AsInt()
	if v < 0 || v > 255 {
		return Fail(ErrDataOutOfRange)
	}
	ctx.Registers.EventStatusEnable = uint8(v)
	return OK()
}

func getEventEnable(ctx *Context, _ []Value) Result {
	return OK(Int(int64(ctx.Registers.EventStatusEnable)))
}

func getEventStatus(ctx *Context, _ []Value) Result {
	return OK(Int(int64(ctx.Registers.EventReport())))
}

func operationComplete(ctx *Context, _ []Value) Result {
	ctx.Registers.Set(EventOperationComplete)
	return OK()
}

func operationCompleteQuery(ctx *Context, _ []Value) Result {
	// The core dispatches sequentially, so every prior operation is
	// complete by the time the query runs.
	ctx.Registers.Set(EventOperationComplete)
	return OK(Bool(true))
}

func setServiceEnable(ctx *Context, args []Value) Result {
	v := args[0].AsInt()
	if v < 0 || v > 255 {
		return Fail(ErrDataOutOfRange)
	}
	ctx.Registers.StatusByteEnable = uint8(v)
	return OK()
}

func getServiceEnable(ctx *Context, _ []Value) Result {
	return OK(Int(int64(ctx.Registers.StatusByteEnable)))
}

func getStatusByte(ctx *Context, _ []Value) Result {
	return OK(Int(int64(ctx.Registers.StatusByte(ctx.Errors.Count()))))
}

func selfTest(_ *Context, _ []Value) Result {
	return OK(Int(0))
}

func waitComplete(_ *Context, _ []Value) Result {
	return OK()
}

// nextError implements SYSTem:ERRor[:NEXT]?: pop and report the oldest
// queued error, or 0,"" when the queue is empty.
func nextError(ctx *Context, _ []Value) Result {
	if rec, ok := ctx.Errors.Pop(); ok {
		return OK(Int(int64(rec.Number)), String(rec.Message))
	}
	return OK(Int(0), String(""))
}

func errorCount(ctx *Context, _ []Value) Result {
	return OK(Int(int64(ctx.Errors.Count())))
}

func version(_ *Context, _ []Value) Result {
	return OK(Chars(StandardVersion))
}

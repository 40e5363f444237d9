package scpi

// Event status register bits (IEEE 488.2 standard event status).
const (
	EventOperationComplete uint8 = 1 << 0
	EventRequestControl    uint8 = 1 << 1
	EventQueryError        uint8 = 1 << 2
	EventDeviceError       uint8 = 1 << 3
	EventExecutionError    uint8 = 1 << 4
	EventCommandError      uint8 = 1 << 5
	EventUserRequest       uint8 = 1 << 6
	EventPowerOn           uint8 = 1 << 7
)

// Status byte register bits.
const (
	StatusErrorQueue       uint8 = 1 << 2
	StatusQuestionableData uint8 = 1 << 3
	StatusMessageAvailable uint8 = 1 << 4
	StatusStandardEvent    uint8 = 1 << 5
	StatusRequestService   uint8 = 1 << 6
	StatusOperation        uint8 = 1 << 7
)

// Registers is the IEEE 488.2 status register set of one interpreter
// instance: the standard event status register with its enable mask, and
// the status byte enable mask.
type Registers struct {
	// EventStatus accumulates standard event bits.
	EventStatus uint8
	// EventStatusEnable masks which event bits *ESR? reports.
	EventStatusEnable uint8
	// StatusByteEnable masks which bits *STB? reports.
	StatusByteEnable uint8
}

// newRegisters returns the power-on register state.
func newRegisters() *Registers {
	return &Registers{
		EventStatus:       EventPowerOn,
		EventStatusEnable: 0xFF,
		StatusByteEnable:  StatusErrorQueue | StatusQuestionableData |
			StatusMessageAvailable | StatusStandardEvent |
			StatusRequestService | StatusOperation,
	}
}

// Set raises event bits.
func (r *Registers) Set(bits uint8) {
	r.EventStatus |= bits
}

// EventReport returns the event status masked by its enable register.
func (r *Registers) EventReport() uint8 {
	return r.EventStatus & r.EventStatusEnable
}

// StatusByte derives the status byte from the event registers and the
// error queue, masked by the status byte enable register.
func (r *Registers) StatusByte(queued int) uint8 {
	var status uint8
	if queued > 0 {
		status |= StatusErrorQueue
	}
	if r.EventReport() != 0 {
		status |= StatusStandardEvent
	}
	return status & r.StatusByteEnable
}

// ClearEvents clears the event status register.
func (r *Registers) ClearEvents() {
	r.EventStatus = 0
}

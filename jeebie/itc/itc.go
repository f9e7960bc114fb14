// Package itc implements the interrupt and timer controller: the single
// source of truth for IE/IF, the master-interrupt-enable flag, the
// DIV/TIMA/TMA/TAC timer chain, and the joypad select/state latches.
//
// The MMU forwards reads and writes of FF00, FF04-FF07, FF0F and FFFF here;
// the CPU polls Pending/Acknowledge and toggles the master enable through
// SetMasterEnable when it executes EI/DI.
package itc

import (
	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/bit"
)

// orderedInterrupts lists the five interrupt kinds in priority order, highest first.
var orderedInterrupts = []addr.Interrupt{
	addr.VBlankInterrupt,
	addr.LCDSTATInterrupt,
	addr.TimerInterrupt,
	addr.SerialInterrupt,
	addr.JoypadInterrupt,
}

// Controller holds all interrupt, timer and joypad state for one emulated machine.
type Controller struct {
	masterEnable bool
	ie           uint8
	iflag        uint8

	shouldRedraw bool

	// DIV/TIMA/TMA/TAC chain, ported from the prior standalone Timer type.
	systemCounter uint16
	lastTimerBit  bool
	timaOverflow  int
	timaDelayInt  bool
	div           uint8
	tima          uint8
	tma           uint8
	tac           uint8

	// Joypad: actual button/d-pad state (1 = released) and the two select latches.
	joypadButtons uint8
	joypadDpad    uint8
	selectLine    uint8
}

// New returns a freshly reset controller: no interrupts pending, no keys held.
func New() *Controller {
	return &Controller{
		joypadButtons: 0x0F,
		joypadDpad:    0x0F,
	}
}

// SetSeed initializes the internal divider counter, used by tests that need a
// deterministic DIV value at boot.
func (c *Controller) SetSeed(seed uint16) {
	c.systemCounter = seed
	c.lastTimerBit = false
	c.timaOverflow = 0
	c.timaDelayInt = false
	c.div = byte(seed >> 8)
}

// MasterEnable reports the CPU's IME flag, which lives here per the ITC contract.
func (c *Controller) MasterEnable() bool {
	return c.masterEnable
}

// SetMasterEnable is called by the CPU's EI/DI micro-ops.
func (c *Controller) SetMasterEnable(enabled bool) {
	c.masterEnable = enabled
}

// Request sets the IF bit for the given interrupt kind. VBlank additionally
// flips the should-redraw edge the host polls to know a frame is ready.
func (c *Controller) Request(interrupt addr.Interrupt) {
	c.iflag |= uint8(interrupt)
	if interrupt == addr.VBlankInterrupt {
		c.shouldRedraw = true
	}
}

// ConsumeShouldRedraw reports and clears the VBlank-triggered redraw edge.
func (c *Controller) ConsumeShouldRedraw() bool {
	v := c.shouldRedraw
	c.shouldRedraw = false
	return v
}

// Pending returns the highest-priority interrupt that is both enabled and
// flagged, independent of the master-enable flag: HALT wake-up needs this
// regardless of IME, while actual servicing gates on MasterEnable() too.
func (c *Controller) Pending() (addr.Interrupt, bool) {
	active := c.ie & c.iflag
	if active == 0 {
		return 0, false
	}
	for _, kind := range orderedInterrupts {
		if active&uint8(kind) != 0 {
			return kind, true
		}
	}
	return 0, false
}

// Acknowledge clears the IF bit for a serviced interrupt.
func (c *Controller) Acknowledge(interrupt addr.Interrupt) {
	c.iflag &^= uint8(interrupt)
}

// ReadIE/WriteIE/ReadIF/WriteIF back FFFF and FF0F. IF's top three bits always
// read high, matching real hardware and the halt-bug detection the teacher's
// MMU relied on.
func (c *Controller) ReadIE() uint8 { return c.ie }

func (c *Controller) WriteIE(value uint8) { c.ie = value }

func (c *Controller) ReadIF() uint8 { return c.iflag | 0xE0 }

func (c *Controller) WriteIF(value uint8) { c.iflag = value & 0x1F }

// Tick advances the DIV/TIMA chain by the given number of T-cycles. Logic
// ported from the prior DMG.updateTimers/Timer.Tick implementation:
// falling-edge detection on a TAC-selected system-counter bit, with a 4 T-cycle
// delayed TMA reload + interrupt on TIMA overflow.
func (c *Controller) Tick(cycles int) {
	if c.timaDelayInt {
		c.iflag |= uint8(addr.TimerInterrupt)
		c.timaDelayInt = false
	}

	if c.timaOverflow > 0 {
		c.timaOverflow -= cycles
		if c.timaOverflow <= 0 {
			c.tima = c.tma
			c.iflag |= uint8(addr.TimerInterrupt)
			c.timaOverflow = 0
		}
	}

	for i := 0; i < cycles; i++ {
		c.systemCounter++
		c.div = byte(c.systemCounter >> 8)

		if c.timaOverflow > 0 {
			continue
		}

		timerEnabled := (c.tac & 0x04) != 0
		if !timerEnabled {
			c.lastTimerBit = false
			continue
		}

		var bitPosition uint16
		switch c.tac & 0x03 {
		case 0x00:
			bitPosition = 9
		case 0x01:
			bitPosition = 3
		case 0x02:
			bitPosition = 5
		case 0x03:
			bitPosition = 7
		}

		currentTimerBit := bit.IsSet16(bitPosition, c.systemCounter)
		if c.lastTimerBit && !currentTimerBit {
			if c.tima == 0xFF {
				c.tima = 0x00
				c.timaOverflow = 4
			} else {
				c.tima++
			}
		}
		c.lastTimerBit = currentTimerBit
	}
}

// ReadTimer/WriteTimer back DIV/TIMA/TMA/TAC.
func (c *Controller) ReadTimer(address uint16) uint8 {
	switch address {
	case addr.DIV:
		return c.div
	case addr.TIMA:
		return c.tima
	case addr.TMA:
		return c.tma
	case addr.TAC:
		return c.tac
	default:
		return 0xFF
	}
}

func (c *Controller) WriteTimer(address uint16, value uint8) {
	switch address {
	case addr.DIV:
		c.systemCounter = 0
		c.div = 0
	case addr.TIMA:
		c.tima = value
	case addr.TMA:
		c.tma = value
	case addr.TAC:
		c.tac = value
	}
}

// JoypadKey enumerates the eight physical buttons.
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// ReadJoypad combines the select latches with button state per §4.2: a 0 bit
// means "this line is selected and the key is pressed".
func (c *Controller) ReadJoypad() uint8 {
	result := uint8(0b11000000)
	result |= c.selectLine

	selectDpad := !bit.IsSet(4, c.selectLine)
	selectButtons := !bit.IsSet(5, c.selectLine)

	switch {
	case selectButtons && !selectDpad:
		result |= c.joypadButtons & 0x0F
	case selectDpad && !selectButtons:
		result |= c.joypadDpad & 0x0F
	case selectButtons && selectDpad:
		result |= c.joypadButtons & c.joypadDpad & 0x0F
	default:
		result |= 0x0F
	}
	return result
}

// WriteJoypad updates the two select latches (bits 4-5 of P1); bits 0-3 are read-only.
func (c *Controller) WriteJoypad(value uint8) {
	c.selectLine = value & 0b00110000
}

// PressKey marks a key as held, requesting the Joypad interrupt on a
// high-to-low transition of any selected line.
func (c *Controller) PressKey(key JoypadKey) {
	oldButtons, oldDpad := c.joypadButtons, c.joypadDpad
	c.setKey(key, false)

	buttonTransitions := oldButtons &^ c.joypadButtons
	dpadTransitions := oldDpad &^ c.joypadDpad
	if buttonTransitions|dpadTransitions != 0 {
		c.Request(addr.JoypadInterrupt)
	}
}

// ReleaseKey marks a key as released.
func (c *Controller) ReleaseKey(key JoypadKey) {
	c.setKey(key, true)
}

func (c *Controller) setKey(key JoypadKey, released bool) {
	var target *uint8
	var idx uint8

	switch key {
	case JoypadRight:
		target, idx = &c.joypadDpad, 0
	case JoypadLeft:
		target, idx = &c.joypadDpad, 1
	case JoypadUp:
		target, idx = &c.joypadDpad, 2
	case JoypadDown:
		target, idx = &c.joypadDpad, 3
	case JoypadA:
		target, idx = &c.joypadButtons, 0
	case JoypadB:
		target, idx = &c.joypadButtons, 1
	case JoypadSelect:
		target, idx = &c.joypadButtons, 2
	case JoypadStart:
		target, idx = &c.joypadButtons, 3
	default:
		return
	}

	if released {
		*target = bit.Set(idx, *target)
	} else {
		*target = bit.Reset(idx, *target)
	}
}

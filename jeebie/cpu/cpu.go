// Package cpu implements the SM83 core: register file, flag computation and
// an instruction decoder that expands each opcode into a queue of
// micro-operations, one per machine cycle, matching the real chip's timing.
package cpu

import (
	"fmt"

	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/memory"
)

const (
	flagZ uint8 = 1 << 7
	flagN uint8 = 1 << 6
	flagH uint8 = 1 << 5
	flagC uint8 = 1 << 4
)

// CPU holds the SM83 register file and drives instruction fetch/decode/execute.
type CPU struct {
	a, f          uint8
	b, c, d, e    uint8
	h, l          uint8
	sp, pc        uint16
	mmu           *memory.MMU
	queue         []microOp
	halted        bool
	haltBug       bool
	imeEnableDelay int // EI takes effect after the *next* instruction, not immediately
}

// New creates a CPU wired to the given MMU, with registers at their
// post-boot-ROM DMG values so ROMs that skip the boot ROM still behave correctly.
func New(mmu *memory.MMU) *CPU {
	c := &CPU{mmu: mmu}
	c.a, c.f = 0x01, 0xB0
	c.b, c.c = 0x00, 0x13
	c.d, c.e = 0x00, 0xD8
	c.h, c.l = 0x01, 0x4D
	c.sp = 0xFFFE
	c.pc = 0x0100
	return c
}

func (c *CPU) GetPC() uint16 { return c.pc }
func (c *CPU) SetPC(pc uint16) { c.pc = pc }
func (c *CPU) GetSP() uint16 { return c.sp }
func (c *CPU) GetA() uint8 { return c.a }
func (c *CPU) GetF() uint8 { return c.f }
func (c *CPU) GetB() uint8 { return c.b }
func (c *CPU) GetC() uint8 { return c.c }
func (c *CPU) GetD() uint8 { return c.d }
func (c *CPU) GetE() uint8 { return c.e }
func (c *CPU) GetH() uint8 { return c.h }
func (c *CPU) GetL() uint8 { return c.l }
func (c *CPU) GetHL() uint16 { return c.hl() }
func (c *CPU) GetBC() uint16 { return c.bc() }
func (c *CPU) GetDE() uint16 { return c.de() }
func (c *CPU) GetAF() uint16 { return c.af() }
func (c *CPU) IsHalted() bool { return c.halted }

// GetFlagString renders the Z/N/H/C flags as a 4-character string, using a
// dash for each flag that is clear.
func (c *CPU) GetFlagString() string {
	flags := [4]byte{'-', '-', '-', '-'}
	if c.flag(flagZ) {
		flags[0] = 'Z'
	}
	if c.flag(flagN) {
		flags[1] = 'N'
	}
	if c.flag(flagH) {
		flags[2] = 'H'
	}
	if c.flag(flagC) {
		flags[3] = 'C'
	}
	return string(flags[:])
}

func (c *CPU) hl() uint16 { return uint16(c.h)<<8 | uint16(c.l) }
func (c *CPU) setHL(v uint16) { c.h, c.l = uint8(v>>8), uint8(v) }
func (c *CPU) bc() uint16 { return uint16(c.b)<<8 | uint16(c.c) }
func (c *CPU) setBC(v uint16) { c.b, c.c = uint8(v>>8), uint8(v) }
func (c *CPU) de() uint16 { return uint16(c.d)<<8 | uint16(c.e) }
func (c *CPU) setDE(v uint16) { c.d, c.e = uint8(v>>8), uint8(v) }
func (c *CPU) af() uint16 { return uint16(c.a)<<8 | uint16(c.f&0xF0) }
func (c *CPU) setAF(v uint16) { c.a, c.f = uint8(v>>8), uint8(v)&0xF0 }

func (c *CPU) flag(mask uint8) bool { return c.f&mask != 0 }
func (c *CPU) setFlag(mask uint8, set bool) {
	if set {
		c.f |= mask
	} else {
		c.f &^= mask
	}
}

// fetch8 reads the byte at PC and advances it. Per the decoder's convention,
// this happens during decode and is "free": its cost is represented by a
// plain nop micro-op elsewhere in the instruction's queue, not charged here.
func (c *CPU) fetch8() uint8 {
	v := c.mmu.Read(c.pc)
	c.pc++
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) push16(v uint16) {
	c.sp--
	c.mmu.Write(c.sp, uint8(v>>8))
	c.sp--
	c.mmu.Write(c.sp, uint8(v))
}

func (c *CPU) pop16() uint16 {
	lo := c.mmu.Read(c.sp)
	c.sp++
	hi := c.mmu.Read(c.sp)
	c.sp++
	return uint16(hi)<<8 | uint16(lo)
}

// Step executes exactly one machine cycle (4 T-cycles): servicing a pending
// interrupt, waking from HALT, or popping/running the next queued micro-op,
// decoding a fresh instruction first if the queue is empty. Returns the
// number of T-cycles elapsed, always 4.
func (c *CPU) Step() int {
	if len(c.queue) == 0 && !c.serviceInterrupt() {
		if c.halted {
			return 4
		}
		if c.imeEnableDelay > 0 {
			c.imeEnableDelay--
			if c.imeEnableDelay == 0 {
				c.mmu.ITC.SetMasterEnable(true)
			}
		}
		c.queue = c.decode()
	}

	next := c.queue[0]
	c.queue = c.queue[1:]
	if next.apply != nil {
		next.apply(c)
	}
	return 4
}

// Exec runs one full instruction (draining the micro-op queue, decoding if
// it was empty) and returns the total T-cycles it took. Used by callers that
// want per-instruction granularity (e.g. the bus's APU/GPU ticking) rather
// than per-machine-cycle stepping.
func (c *CPU) Exec() int {
	total := c.Step()
	for len(c.queue) > 0 {
		total += c.Step()
	}
	return total
}

// Tick is an alias for Exec, kept for callers that drive the emulator one
// instruction at a time rather than one machine cycle at a time.
func (c *CPU) Tick() int {
	return c.Exec()
}

// serviceInterrupt injects the 5 M-cycle interrupt dispatch sequence when IME
// is set and a flagged+enabled interrupt is pending. HALT wake-up uses the
// raw ie&if condition regardless of IME, matching hardware: a halted CPU
// wakes on any pending interrupt, but only jumps to its vector if IME is set.
func (c *CPU) serviceInterrupt() bool {
	kind, pending := c.mmu.ITC.Pending()
	if !pending {
		return false
	}
	if c.halted {
		c.halted = false
	}
	if !c.mmu.ITC.MasterEnable() {
		return false
	}

	c.mmu.ITC.SetMasterEnable(false)
	c.mmu.ITC.Acknowledge(kind)

	vector := interruptVector(kind)
	c.queue = padded(5, func(c *CPU) {
		c.push16(c.pc)
		c.pc = vector
	})
	return true
}

func interruptVector(kind addr.Interrupt) uint16 {
	switch kind {
	case addr.VBlankInterrupt:
		return 0x0040
	case addr.LCDSTATInterrupt:
		return 0x0048
	case addr.TimerInterrupt:
		return 0x0050
	case addr.SerialInterrupt:
		return 0x0058
	case addr.JoypadInterrupt:
		return 0x0060
	default:
		panic(fmt.Sprintf("unknown interrupt kind: 0x%02X", uint8(kind)))
	}
}

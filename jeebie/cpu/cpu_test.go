package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/memory"
)

// loadProgram writes bytes into WRAM (a plain, always-writable region) and
// points PC at the start of them, so tests don't need a cartridge/MBC.
func loadProgram(c *CPU, mmu *memory.MMU, bytes ...uint8) {
	const base = 0xC000
	for i, b := range bytes {
		mmu.Write(uint16(base+i), b)
	}
	c.SetPC(base)
}

func newTestCPU() (*CPU, *memory.MMU) {
	mmu := memory.New()
	return New(mmu), mmu
}

func TestDAA_AfterAdd(t *testing.T) {
	c, mmu := newTestCPU()
	// LD A,0x45 ; ADD A,0x28 ; DAA
	loadProgram(c, mmu, 0x3E, 0x45, 0xC6, 0x28, 0x27)

	c.Exec() // LD A,0x45
	c.Exec() // ADD A,0x28
	assert.Equal(t, uint8(0x6D), c.GetA())

	c.Exec() // DAA
	assert.Equal(t, uint8(0x73), c.GetA())
	assert.False(t, c.flag(flagZ))
	assert.False(t, c.flag(flagN))
	assert.False(t, c.flag(flagH))
	assert.False(t, c.flag(flagC))
}

func TestLoadHLFromSPPlusOffset(t *testing.T) {
	cases := []struct {
		name       string
		sp         uint16
		offset     uint8
		wantHL     uint16
		wantH      bool
		wantC      bool
	}{
		{"no carry", 0xFFF8, 0x02, 0xFFFA, false, false},
		{"half and full carry", 0x00FF, 0x01, 0x0100, true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, mmu := newTestCPU()
			// LD SP,nn ; LD HL,SP+e
			loadProgram(c, mmu,
				0x31, uint8(tc.sp), uint8(tc.sp>>8),
				0xF8, tc.offset,
			)
			c.Exec()
			c.Exec()

			assert.Equal(t, tc.wantHL, c.GetHL())
			assert.False(t, c.flag(flagZ))
			assert.False(t, c.flag(flagN))
			assert.Equal(t, tc.wantH, c.flag(flagH))
			assert.Equal(t, tc.wantC, c.flag(flagC))
		})
	}
}

func TestConditionalJumpCycleCounts(t *testing.T) {
	t.Run("not taken costs 3 machine cycles", func(t *testing.T) {
		c, mmu := newTestCPU()
		// XOR A,A (sets Z) ; JP NZ,0xC010
		loadProgram(c, mmu, 0xAF, 0xC2, 0x10, 0xC0)
		c.Exec()
		cycles := c.Exec()
		assert.Equal(t, 12, cycles)
		assert.Equal(t, uint16(0xC004), c.GetPC())
	})

	t.Run("taken costs 4 machine cycles", func(t *testing.T) {
		c, mmu := newTestCPU()
		// OR 0x01 (clears Z) ; JP NZ,0xC010
		loadProgram(c, mmu, 0xF6, 0x01, 0xC2, 0x10, 0xC0)
		c.Exec()
		cycles := c.Exec()
		assert.Equal(t, 16, cycles)
		assert.Equal(t, uint16(0xC010), c.GetPC())
	})
}

func TestBitTestFlags(t *testing.T) {
	c, mmu := newTestCPU()
	// LD A,0x80 ; BIT 7,A ; BIT 0,A
	loadProgram(c, mmu, 0x3E, 0x80, 0xCB, 0x7F, 0xCB, 0x47)

	c.Exec()
	c.Exec()
	assert.False(t, c.flag(flagZ), "bit 7 of 0x80 is set, Z should clear")
	assert.False(t, c.flag(flagN))
	assert.True(t, c.flag(flagH))

	c.Exec()
	assert.True(t, c.flag(flagZ), "bit 0 of 0x80 is clear, Z should set")
}

func TestHaltBugReexecutesFollowingByte(t *testing.T) {
	c, mmu := newTestCPU()
	mmu.ITC.WriteIE(uint8(addr.VBlankInterrupt))
	mmu.ITC.Request(addr.VBlankInterrupt)
	// HALT ; INC A ; INC A
	loadProgram(c, mmu, 0x76, 0x3C, 0x3C)

	c.Exec() // HALT, triggers the bug since IME is off and VBlank is pending
	assert.False(t, c.halted)
	assert.True(t, c.haltBug)

	c.Exec() // executes the INC A at 0xC001 once, but PC rewinds after it
	assert.Equal(t, uint8(1), c.GetA())
	assert.Equal(t, uint16(0xC001), c.GetPC())

	c.Exec() // executes the same INC A a second time, per the hardware bug
	assert.Equal(t, uint8(2), c.GetA())
	assert.Equal(t, uint16(0xC002), c.GetPC())
}

func TestEIDelaysMasterEnableByOneInstruction(t *testing.T) {
	c, mmu := newTestCPU()
	// EI ; NOP ; NOP
	loadProgram(c, mmu, 0xFB, 0x00, 0x00)

	c.Exec() // EI
	assert.False(t, mmu.ITC.MasterEnable())

	c.Exec() // first NOP after EI: IME still not active during it
	assert.False(t, mmu.ITC.MasterEnable())

	c.Exec() // second NOP: IME takes effect just before this decode
	assert.True(t, mmu.ITC.MasterEnable())
}

func TestInterruptDispatchPriorityAndVector(t *testing.T) {
	c, mmu := newTestCPU()
	loadProgram(c, mmu, 0x00) // NOP, PC park point
	c.SetPC(0xC000)

	mmu.ITC.SetMasterEnable(true)
	mmu.ITC.WriteIE(uint8(addr.VBlankInterrupt) | uint8(addr.TimerInterrupt))
	mmu.ITC.Request(addr.TimerInterrupt)
	mmu.ITC.Request(addr.VBlankInterrupt)

	cycles := c.Exec()
	assert.Equal(t, 20, cycles, "interrupt dispatch takes 5 machine cycles")
	assert.Equal(t, uint16(0x0040), c.GetPC(), "VBlank has priority over Timer")
	assert.False(t, mmu.ITC.MasterEnable())

	lo := mmu.Read(c.GetSP())
	hi := mmu.Read(c.GetSP() + 1)
	returnAddr := uint16(lo) | uint16(hi)<<8
	assert.Equal(t, uint16(0xC000), returnAddr, "pushed return address is the pre-dispatch PC")
}

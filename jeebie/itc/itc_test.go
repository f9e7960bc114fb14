package itc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-jeebie/jeebie/addr"
)

func TestPendingRespectsEnableMask(t *testing.T) {
	c := New()
	c.Request(addr.TimerInterrupt)

	_, ok := c.Pending()
	assert.False(t, ok, "interrupt flagged but not enabled must not be pending")

	c.WriteIE(uint8(addr.TimerInterrupt))
	kind, ok := c.Pending()
	assert.True(t, ok)
	assert.Equal(t, addr.TimerInterrupt, kind)
}

func TestPendingPriorityOrder(t *testing.T) {
	c := New()
	c.WriteIE(0xFF)
	c.Request(addr.SerialInterrupt)
	c.Request(addr.VBlankInterrupt)
	c.Request(addr.TimerInterrupt)

	kind, ok := c.Pending()
	assert.True(t, ok)
	assert.Equal(t, addr.VBlankInterrupt, kind, "VBlank has the highest priority")
}

func TestAcknowledgeClearsFlag(t *testing.T) {
	c := New()
	c.WriteIE(0xFF)
	c.Request(addr.VBlankInterrupt)
	c.Acknowledge(addr.VBlankInterrupt)

	_, ok := c.Pending()
	assert.False(t, ok)
}

func TestReadIFAlwaysHasTopBitsSet(t *testing.T) {
	c := New()
	assert.Equal(t, uint8(0xE0), c.ReadIF())
}

func TestDivIncrementsAndResetsOnWrite(t *testing.T) {
	c := New()
	c.Tick(256)
	assert.Equal(t, uint8(1), c.ReadTimer(addr.DIV))

	c.WriteTimer(addr.DIV, 0x42)
	assert.Equal(t, uint8(0), c.ReadTimer(addr.DIV))
}

func TestTimaOverflowReloadsFromTMAAfterDelay(t *testing.T) {
	c := New()
	c.WriteTimer(addr.TMA, 0x7A)
	c.WriteTimer(addr.TAC, 0x05) // enabled, divider /16 -> bit 3
	c.WriteTimer(addr.TIMA, 0xFF)

	// Tick until the falling edge on bit 3 trips the overflow countdown.
	c.Tick(16)
	assert.Equal(t, uint8(0xFF), c.ReadTimer(addr.TIMA), "reload is delayed, not immediate")

	c.Tick(4)
	assert.Equal(t, uint8(0x7A), c.ReadTimer(addr.TIMA))

	_, ok := c.Pending()
	assert.False(t, ok, "Timer interrupt not enabled yet")
	c.WriteIE(uint8(addr.TimerInterrupt))
	kind, ok := c.Pending()
	assert.True(t, ok)
	assert.Equal(t, addr.TimerInterrupt, kind)
}

func TestJoypadReadSelectsLine(t *testing.T) {
	c := New()
	c.PressKey(JoypadA)
	c.PressKey(JoypadRight)

	c.WriteJoypad(0b00010000) // bit4=1,bit5=0: select buttons (P15 active low)
	assert.Equal(t, uint8(0b11011110), c.ReadJoypad())

	c.WriteJoypad(0b00100000) // bit4=0,bit5=1: select d-pad (P14 active low)
	assert.Equal(t, uint8(0b11101110), c.ReadJoypad())
}

func TestJoypadPressRequestsInterruptOnTransition(t *testing.T) {
	c := New()
	c.WriteJoypad(0b00010000)
	c.WriteIE(uint8(addr.JoypadInterrupt))

	c.PressKey(JoypadA)
	kind, ok := c.Pending()
	assert.True(t, ok)
	assert.Equal(t, addr.JoypadInterrupt, kind)
}

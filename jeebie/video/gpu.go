package video

import (
	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/bit"
	"github.com/valerio/go-jeebie/jeebie/memory"
)

// GpuMode represents the PPU's current rendering stage.
// These values match the STAT register bits 1-0.
type GpuMode int

const (
	hblankMode   GpuMode = 0
	vblankMode   GpuMode = 1
	oamSearchMode GpuMode = 2
	transferMode GpuMode = 3
)

// Dot boundaries within a 456-dot scanline (see Pan Docs "Rendering").
const (
	oamSearchEnd = 80  // dots [0, 80) are OAM search
	transferEnd  = 252 // dots [80, 252) are pixel transfer (with idle padding)
	dotsPerLine  = 456
	linesPerFrame = 154
	firstVBlankLine = 144
)

// STAT register bit positions.
const (
	statLycIrq   = 6
	statOamIrq   = 5
	statVblankIrq = 4
	statHblankIrq = 3
	statLycFlag  = 2
)

// LCDC register bit positions.
const lcdcDisplayEnable = 7

// GPU is a dot-level PPU: it steps one dot (one T-cycle) at a time through
// OAM search, pixel transfer and HBlank, emitting pixels via a pixelFIFO and
// raising VBlank/STAT interrupts at the same granularity real hardware does.
type GPU struct {
	memory      *memory.MMU
	framebuffer *FrameBuffer
	working     []uint32

	fifo *pixelFIFO

	dot          int // 0-455, position within the current scanline
	line         int // LY, 0-153
	lastStatCond bool
}

func NewGpu(mem *memory.MMU) *GPU {
	return &GPU{
		memory:      mem,
		framebuffer: NewFrameBuffer(),
		working:     make([]uint32, FramebufferSize),
		fifo:        newPixelFIFO(mem),
		line:        firstVBlankLine,
	}
}

func (g *GPU) GetFrameBuffer() *FrameBuffer {
	return g.framebuffer
}

// Tick advances the PPU by the given number of T-cycles, one dot per cycle.
func (g *GPU) Tick(cycles int) {
	for i := 0; i < cycles; i++ {
		g.step()
	}
}

func (g *GPU) mode() GpuMode {
	switch {
	case g.line >= firstVBlankLine:
		return vblankMode
	case g.dot < oamSearchEnd:
		return oamSearchMode
	case g.dot < transferEnd:
		return transferMode
	default:
		return hblankMode
	}
}

func (g *GPU) step() {
	mode := g.mode()
	g.updateStatRegister(mode)
	g.checkStatInterrupt(mode)

	if g.readLCDC(lcdcDisplayEnable) {
		switch mode {
		case oamSearchMode:
			g.stepOamSearch()
		case transferMode:
			g.stepTransfer()
		case hblankMode:
			g.stepHBlankEntry()
		case vblankMode:
			g.stepVBlankEntry()
		}
	}

	g.advanceDot()
}

func (g *GPU) stepOamSearch() {
	switch g.dot {
	case 0:
		g.fifo.beginOfLine(g.line)
	case oamSearchEnd - 1:
		g.fifo.endOfOamSearch()
	}
}

func (g *GPU) stepTransfer() {
	if g.dot == oamSearchEnd {
		g.fifo.beginLcdTransfer()
		return
	}

	x := g.dot - oamSearchEnd - 1
	if x < 0 || x >= FramebufferWidth {
		return // post-transfer idle dots
	}

	pixel := g.fifo.nextPixel()
	colorIndex := pixel.throughPalette(g.memory)
	g.working[g.line*FramebufferWidth+x] = uint32(ByteToColor(colorIndex))
}

func (g *GPU) stepHBlankEntry() {
	if g.dot != transferEnd {
		return
	}
	g.fifo.endOfLine()
}

func (g *GPU) stepVBlankEntry() {
	if g.line != firstVBlankLine || g.dot != 0 {
		return
	}
	g.memory.RequestInterrupt(addr.VBlankInterrupt)
	g.fifo.endOfFrame()
	copy(g.framebuffer.buffer, g.working)
	for i := range g.working {
		g.working[i] = 0
	}
}

func (g *GPU) advanceDot() {
	g.dot++
	if g.dot == dotsPerLine {
		g.dot = 0
		g.line++
		if g.line == linesPerFrame {
			g.line = 0
		}
		g.memory.Write(addr.LY, byte(g.line))
	}
}

func (g *GPU) updateStatRegister(mode GpuMode) {
	stat := g.memory.Read(addr.STAT)
	stat = stat&0xFC | byte(mode)

	ly := byte(g.line)
	lyc := g.memory.Read(addr.LYC)
	if ly == lyc {
		stat = bit.Set(statLycFlag, stat)
	} else {
		stat = bit.Reset(statLycFlag, stat)
	}

	g.memory.Write(addr.STAT, stat)
}

// checkStatInterrupt rebuilds the STAT interrupt condition from scratch
// every dot and fires on a rising edge, matching hardware's edge-triggered
// behavior (required for STAT-interrupt test ROMs).
func (g *GPU) checkStatInterrupt(mode GpuMode) {
	stat := g.memory.Read(addr.STAT)

	cond := (bit.IsSet(statLycIrq, stat) && bit.IsSet(statLycFlag, stat)) ||
		(bit.IsSet(statOamIrq, stat) && mode == oamSearchMode) ||
		(bit.IsSet(statVblankIrq, stat) && mode == vblankMode) ||
		(bit.IsSet(statHblankIrq, stat) && mode == hblankMode)

	if cond && !g.lastStatCond {
		g.memory.RequestInterrupt(addr.LCDSTATInterrupt)
	}
	g.lastStatCond = cond
}

func (g *GPU) readLCDC(bitIndex uint8) bool {
	return bit.IsSet(bitIndex, g.memory.Read(addr.LCDC))
}

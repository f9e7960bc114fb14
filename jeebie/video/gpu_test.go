package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/memory"
)

func writeTile(mmu *memory.MMU, base uint16, rows ...[2]byte) {
	for i, row := range rows {
		mmu.Write(base+uint16(i*2), row[0])
		mmu.Write(base+uint16(i*2+1), row[1])
	}
}

func TestGPUBackgroundTileDrawing(t *testing.T) {
	tests := []struct {
		name           string
		tileData       [8][2]byte
		palette        byte
		scrollX        byte
		scrollY        byte
		expectedPixels map[[2]int]uint32 // (x,y) -> expected color
	}{
		{
			name: "all black tile (color 3)",
			tileData: [8][2]byte{
				{0xFF, 0xFF}, {0xFF, 0xFF}, {0xFF, 0xFF}, {0xFF, 0xFF},
				{0xFF, 0xFF}, {0xFF, 0xFF}, {0xFF, 0xFF}, {0xFF, 0xFF},
			},
			palette: 0xE4,
			expectedPixels: map[[2]int]uint32{
				{0, 0}: uint32(BlackColor), {7, 0}: uint32(BlackColor),
				{0, 7}: uint32(BlackColor), {7, 7}: uint32(BlackColor),
			},
		},
		{
			name: "checkered pattern",
			tileData: [8][2]byte{
				{0xAA, 0x00}, {0x55, 0x00}, {0xAA, 0x00}, {0x55, 0x00},
				{0xAA, 0x00}, {0x55, 0x00}, {0xAA, 0x00}, {0x55, 0x00},
			},
			palette: 0xE4,
			expectedPixels: map[[2]int]uint32{
				{0, 0}: uint32(LightGreyColor), // bit7 of 0xAA set, low only -> color 1
				{1, 0}: uint32(WhiteColor),     // bit6 clear in both -> color 0
				{0, 1}: uint32(WhiteColor),     // bit7 of 0x55 clear -> color 0
				{1, 1}: uint32(LightGreyColor), // bit6 of 0x55 set -> color 1
			},
		},
		{
			name: "scrolled background",
			tileData: [8][2]byte{
				{0xFF, 0x00}, {0xFF, 0x00}, {0xFF, 0x00}, {0xFF, 0x00},
				{0xFF, 0x00}, {0xFF, 0x00}, {0xFF, 0x00}, {0xFF, 0x00},
			},
			palette: 0xE4,
			scrollX: 4,
			scrollY: 2,
			expectedPixels: map[[2]int]uint32{
				{0, 0}: uint32(LightGreyColor), // color 1 everywhere in this tile
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mmu := memory.New()
			gpu := NewGpu(mmu)

			mmu.Write(addr.LCDC, 0x91) // LCD on, BG on, unsigned tiles
			mmu.Write(addr.BGP, tt.palette)
			mmu.Write(addr.SCX, tt.scrollX)
			mmu.Write(addr.SCY, tt.scrollY)
			writeTile(mmu, 0x8000, tt.tileData[:]...)
			mmu.Write(addr.TileMap0, 0x00)

			fb := runFrame(mmu, gpu)
			for pos, expected := range tt.expectedPixels {
				actual := fb.GetPixel(uint(pos[0]), uint(pos[1]))
				assert.Equal(t, expected, actual, "pixel at %v", pos)
			}
		})
	}
}

func TestGPUBackgroundDisabledIsBlank(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)

	mmu.Write(addr.LCDC, 0x90) // LCD on, BG off
	writeTile(mmu, 0x8000,
		[2]byte{0xFF, 0xFF}, [2]byte{0xFF, 0xFF}, [2]byte{0xFF, 0xFF}, [2]byte{0xFF, 0xFF},
		[2]byte{0xFF, 0xFF}, [2]byte{0xFF, 0xFF}, [2]byte{0xFF, 0xFF}, [2]byte{0xFF, 0xFF})
	mmu.Write(addr.TileMap0, 0x00)
	mmu.Write(addr.BGP, 0xE4)

	fb := runFrame(mmu, gpu)
	assert.Equal(t, uint32(WhiteColor), fb.GetPixel(0, 0), "BG-off pixels resolve as color 0")
}

func TestGPULcdDisabledProducesNoInterrupts(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)

	mmu.Write(addr.LCDC, 0x00) // LCD off entirely
	gpu.Tick(dotsPerLine*linesPerFrame + 1)

	assert.Equal(t, byte(0), mmu.Read(addr.IF)&byte(addr.VBlankInterrupt), "no VBlank interrupt while LCD is off")
}

func TestGPUWindowOverlaysBackground(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)

	// LCD on, window tilemap 1 (0x9C00), window on, unsigned tiles, BG on
	mmu.Write(addr.LCDC, 0xF1)
	mmu.Write(addr.BGP, 0x1B) // inverted palette, makes the two layers easy to tell apart

	bgTile := [8][2]byte{}     // all zero -> color 0
	windowTile := [8][2]byte{} // color 3 everywhere
	for i := range windowTile {
		windowTile[i] = [2]byte{0xFF, 0xFF}
	}
	writeTile(mmu, 0x8000, bgTile[:]...)
	writeTile(mmu, 0x8010, windowTile[:]...)

	for i := uint16(0); i < 32*32; i++ {
		mmu.Write(addr.TileMap0+i, 0x00)
		mmu.Write(addr.TileMap1+i, 0x01)
	}

	mmu.Write(addr.WX, 47) // window starts at screen x=40
	mmu.Write(addr.WY, 40)

	fb := runFrame(mmu, gpu)

	assert.Equal(t, uint32(BlackColor), fb.GetPixel(30, 40), "left of window shows inverted-palette BG color 0")
	assert.Equal(t, uint32(WhiteColor), fb.GetPixel(50, 40), "inside window shows inverted-palette color 3")
	assert.Equal(t, uint32(BlackColor), fb.GetPixel(30, 39), "line above window start is pure background")
}

func TestGPUStatLycInterruptFiresOnce(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)

	mmu.Write(addr.LCDC, 0x80) // LCD on, nothing else
	mmu.Write(addr.LYC, 5)
	mmu.Write(addr.STAT, 1<<statLycIrq)

	// NewGpu starts mid-VBlank (LY=firstVBlankLine); reach line 0, then run
	// past line 5 entirely.
	vblankTailDots := (linesPerFrame - firstVBlankLine) * dotsPerLine
	gpu.Tick(vblankTailDots + dotsPerLine*6)

	assert.NotEqual(t, byte(0), mmu.Read(addr.IF)&byte(addr.LCDSTATInterrupt))
}

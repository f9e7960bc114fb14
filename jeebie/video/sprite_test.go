package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/memory"
)

// writeSprite places one 8x8 sprite's OAM entry and tile data, using screen
// (unadjusted) coordinates for convenience.
func writeSprite(mmu *memory.MMU, oamIndex int, x, y int, tileIndex byte, flags byte, tile [8][2]byte) {
	base := addr.OAMStart + uint16(oamIndex*4)
	mmu.Write(base, byte(y+16))
	mmu.Write(base+1, byte(x+8))
	mmu.Write(base+2, tileIndex)
	mmu.Write(base+3, flags)
	writeTile(mmu, 0x8000+uint16(tileIndex)*16, tile[:]...)
}

func solidTile(colorValue int) [8][2]byte {
	var low, high byte
	if colorValue&1 != 0 {
		low = 0xFF
	}
	if colorValue&2 != 0 {
		high = 0xFF
	}
	var tile [8][2]byte
	for i := range tile {
		tile[i] = [2]byte{low, high}
	}
	return tile
}

func TestSpritePriorityLowerXWins(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)

	mmu.Write(addr.LCDC, 0x83) // LCD on, sprites on, BG on (blank BG)
	mmu.Write(addr.BGP, 0xE4)
	mmu.Write(addr.OBP0, 0xE4)

	writeSprite(mmu, 0, 14, 50, 1, 0x00, solidTile(3)) // higher X, color 3
	writeSprite(mmu, 1, 10, 50, 2, 0x00, solidTile(1)) // lower X, color 1

	fb := runFrame(mmu, gpu)
	assert.Equal(t, uint32(LightGreyColor), fb.GetPixel(14, 50), "sprite 1 (lower X) wins the overlap")
	assert.Equal(t, uint32(BlackColor), fb.GetPixel(20, 50), "sprite 0 alone past the overlap")
}

func TestSpritePrioritySameXLowerOamIndexWins(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)

	mmu.Write(addr.LCDC, 0x83)
	mmu.Write(addr.BGP, 0xE4)
	mmu.Write(addr.OBP0, 0xE4)

	writeSprite(mmu, 0, 20, 50, 1, 0x00, solidTile(3)) // OAM index 0, color 3
	writeSprite(mmu, 1, 20, 50, 2, 0x00, solidTile(1)) // OAM index 1, same X, color 1

	fb := runFrame(mmu, gpu)
	assert.Equal(t, uint32(BlackColor), fb.GetPixel(20, 50), "lower OAM index wins when X matches")
}

func TestSpriteTransparentColorZeroShowsBackground(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)

	mmu.Write(addr.LCDC, 0x83)
	mmu.Write(addr.BGP, 0xE4)
	mmu.Write(addr.OBP0, 0xE4)
	writeSprite(mmu, 0, 20, 50, 1, 0x00, solidTile(0)) // fully transparent sprite

	fb := runFrame(mmu, gpu)
	assert.Equal(t, uint32(WhiteColor), fb.GetPixel(20, 50), "color-0 sprite pixels are transparent")
}

func TestSpriteBehindBackgroundPriority(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)

	mmu.Write(addr.LCDC, 0x91|0x02) // LCD on, BG on, sprites on
	mmu.Write(addr.BGP, 0xE4)
	mmu.Write(addr.OBP0, 0xE4)

	// background tile (color 2) covering the whole map
	writeTile(mmu, 0x8000, solidTile(2)[:]...)
	for i := uint16(0); i < 32*32; i++ {
		mmu.Write(addr.TileMap0+i, 0x00)
	}

	// sprite with BG-priority flag (bit 7) set and a non-zero color: BG wins
	writeSprite(mmu, 0, 20, 0, 1, 0x80, solidTile(3))

	fb := runFrame(mmu, gpu)
	assert.Equal(t, uint32(DarkGreyColor), fb.GetPixel(20, 0), "BG-priority sprite yields to a non-zero BG pixel")
}

func TestSprite8x16Addressing(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)

	mmu.Write(addr.LCDC, 0x86) // LCD on, sprites on, 8x16 sprites, BG off
	mmu.Write(addr.OBP0, 0xE4)

	top := solidTile(1)
	bottom := solidTile(2)
	writeTile(mmu, 0x8100, top[:]...)    // tile 0x10 & 0xFE = 0x10
	writeTile(mmu, 0x8110, bottom[:]...) // tile 0x10 | 0x01 = 0x11

	base := addr.OAMStart
	mmu.Write(base, 16)     // Y=0
	mmu.Write(base+1, 8+20) // X=20
	mmu.Write(base+2, 0x10)
	mmu.Write(base+3, 0x00)

	fb := runFrame(mmu, gpu)
	assert.Equal(t, uint32(LightGreyColor), fb.GetPixel(20, 0), "top half uses tile&0xFE")
	assert.Equal(t, uint32(DarkGreyColor), fb.GetPixel(20, 8), "bottom half uses tile|0x01")
}

func TestSpriteXFlip(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)

	mmu.Write(addr.LCDC, 0x83)
	mmu.Write(addr.OBP0, 0xE4)

	// tile with only the leftmost pixel lit (color 3)
	tile := [8][2]byte{{0x80, 0x80}}
	writeSprite(mmu, 0, 0, 0, 1, 0x20, tile) // flip X

	fb := runFrame(mmu, gpu)
	assert.Equal(t, uint32(BlackColor), fb.GetPixel(7, 0), "X-flip mirrors the lit pixel to the right edge")
	assert.Equal(t, uint32(WhiteColor), fb.GetPixel(0, 0))
}

func TestSpriteLimitPerScanline(t *testing.T) {
	mmu := memory.New()

	mmu.Write(addr.LCDC, 0x00) // sprite size 8x8
	for i := 0; i < 15; i++ {
		writeSprite(mmu, i, i*2, 50, 1, 0x00, solidTile(1))
	}

	objects := selectObjectsForScanline(mmu, 50)
	assert.Len(t, objects, 10, "hardware limit of 10 objects per scanline")
}

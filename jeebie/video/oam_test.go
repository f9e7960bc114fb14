package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/memory"
)

func TestOAMScan(t *testing.T) {
	mmu := memory.New()
	oam := NewOAM(mmu)

	// sprite 0: Y=50(+16), X=80(+8), tile=0x42, flags=0xE0
	mmu.Write(addr.OAMStart, 50+16)
	mmu.Write(addr.OAMStart+1, 80+8)
	mmu.Write(addr.OAMStart+2, 0x42)
	mmu.Write(addr.OAMStart+3, 0xE0) // flip X, flip Y, behind BG

	// sprite 1: Y=100(+16), X=20(+8), tile=0x10, flags=0x10
	mmu.Write(addr.OAMStart+4, 100+16)
	mmu.Write(addr.OAMStart+5, 20+8)
	mmu.Write(addr.OAMStart+6, 0x10)
	mmu.Write(addr.OAMStart+7, 0x10) // OBP1 palette

	sprite0 := oam.GetSprite(0)
	assert.NotNil(t, sprite0)
	assert.Equal(t, uint8(50), sprite0.Y, "Y position should be adjusted")
	assert.Equal(t, uint8(80), sprite0.X, "X position should be adjusted")
	assert.Equal(t, uint8(0x42), sprite0.TileIndex)
	assert.True(t, sprite0.FlipX)
	assert.True(t, sprite0.FlipY)
	assert.True(t, sprite0.BehindBG)
	assert.False(t, sprite0.PaletteOBP1)

	sprite1 := oam.GetSprite(1)
	assert.NotNil(t, sprite1)
	assert.Equal(t, uint8(100), sprite1.Y)
	assert.Equal(t, uint8(20), sprite1.X)
	assert.Equal(t, uint8(0x10), sprite1.TileIndex)
	assert.False(t, sprite1.FlipX)
	assert.False(t, sprite1.FlipY)
	assert.False(t, sprite1.BehindBG)
	assert.True(t, sprite1.PaletteOBP1)
}

func TestGetAllSprites(t *testing.T) {
	mmu := memory.New()
	oam := NewOAM(mmu)

	for i := 0; i < 40; i++ {
		base := addr.OAMStart + uint16(i*4)
		mmu.Write(base, uint8(i)+16)
		mmu.Write(base+1, uint8(i*2)+8)
		mmu.Write(base+2, uint8(i))
		mmu.Write(base+3, 0)
	}

	sprites := oam.GetAllSprites()
	assert.Len(t, sprites, 40)
	assert.Equal(t, uint8(0), sprites[0].Y)
	assert.Equal(t, uint8(0), sprites[0].X)
	assert.Equal(t, uint8(10), sprites[10].Y)
	assert.Equal(t, uint8(20), sprites[10].X)
}

func TestOAMDirectMemoryRead(t *testing.T) {
	mmu := memory.New()
	oam := NewOAM(mmu)

	mmu.Write(addr.OAMStart, 50+16)
	sprite := oam.GetSprite(0)
	assert.Equal(t, uint8(50), sprite.Y)

	mmu.Write(addr.OAMStart, 60+16)
	sprite = oam.GetSprite(0)
	assert.Equal(t, uint8(60), sprite.Y, "should have new value immediately, no caching")
}

func TestOAMEdgeCases(t *testing.T) {
	mmu := memory.New()
	oam := NewOAM(mmu)

	t.Run("boundary positions", func(t *testing.T) {
		mmu.Write(addr.OAMStart, 16) // Y=0
		mmu.Write(addr.OAMStart+1, 8) // X=0
		sprite := oam.GetSprite(0)
		assert.Equal(t, uint8(0), sprite.Y)
		assert.Equal(t, uint8(0), sprite.X)

		mmu.Write(addr.OAMStart+4, 255)
		mmu.Write(addr.OAMStart+5, 255)
		sprite = oam.GetSprite(1)
		assert.Equal(t, uint8(239), sprite.Y)
		assert.Equal(t, uint8(247), sprite.X)
	})

	t.Run("invalid index", func(t *testing.T) {
		assert.Nil(t, oam.GetSprite(-1))
		assert.Nil(t, oam.GetSprite(40))
		assert.Nil(t, oam.GetSprite(100))
	})
}

func TestSelectObjectsForScanlineHeightAndOrder(t *testing.T) {
	mmu := memory.New()

	// sprite 0: Y=10..17 (8x8)
	mmu.Write(addr.OAMStart, 10+16)
	mmu.Write(addr.OAMStart+1, 20+8)
	// sprite 1 and 2: Y=20..27, same scanlines
	mmu.Write(addr.OAMStart+4, 20+16)
	mmu.Write(addr.OAMStart+5, 30+8)
	mmu.Write(addr.OAMStart+8, 20+16)
	mmu.Write(addr.OAMStart+9, 40+8)

	t.Run("8x8", func(t *testing.T) {
		mmu.Write(addr.LCDC, 0x00)

		assert.Len(t, selectObjectsForScanline(mmu, 10), 1)
		assert.Len(t, selectObjectsForScanline(mmu, 17), 1)
		assert.Empty(t, selectObjectsForScanline(mmu, 18))

		objects := selectObjectsForScanline(mmu, 20)
		assert.Len(t, objects, 2)
		assert.Equal(t, uint8(30+8), objects[0].x, "OAM order preserved, not X-sorted")
		assert.Equal(t, uint8(40+8), objects[1].x)
	})

	t.Run("8x16", func(t *testing.T) {
		mmu.Write(addr.LCDC, 0x04)
		assert.Len(t, selectObjectsForScanline(mmu, 25), 3, "sprite 0's range extends to Y=25 at double height")
	})
}

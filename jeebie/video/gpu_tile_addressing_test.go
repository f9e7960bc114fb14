package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/memory"
)

const defaultPalette = 0xE4

func TestGPUSignedTileAddressing(t *testing.T) {
	tests := []struct {
		name             string
		tileNumber       byte
		expectedTileAddr uint16
	}{
		{"tile -128 (0x80)", 0x80, 0x8800},
		{"tile -1 (0xFF)", 0xFF, 0x8FF0},
		{"tile 0 (0x00)", 0x00, 0x9000},
		{"tile 127 (0x7F)", 0x7F, 0x97F0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mmu := memory.New()
			gpu := NewGpu(mmu)

			mmu.Write(addr.LCDC, 0x81) // LCD on, BG on, signed tiles
			mmu.Write(addr.BGP, defaultPalette)
			mmu.Write(addr.TileMap0, tt.tileNumber)
			mmu.Write(tt.expectedTileAddr, 0xFF)
			mmu.Write(tt.expectedTileAddr+1, 0x00)

			fb := runFrame(mmu, gpu)
			for i := 0; i < 8; i++ {
				assert.Equal(t, uint32(LightGreyColor), fb.GetPixel(uint(i), 0),
					"pixel %d for tile %02X expected to read from %04X", i, tt.tileNumber, tt.expectedTileAddr)
			}
		})
	}
}

func TestGPUUnsignedTileAddressing(t *testing.T) {
	tests := []struct {
		name             string
		tileNumber       byte
		expectedTileAddr uint16
	}{
		{"tile 0 (0x00)", 0x00, 0x8000},
		{"tile 127 (0x7F)", 0x7F, 0x87F0},
		{"tile 128 (0x80)", 0x80, 0x8800},
		{"tile 255 (0xFF)", 0xFF, 0x8FF0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mmu := memory.New()
			gpu := NewGpu(mmu)

			mmu.Write(addr.LCDC, 0x91) // LCD on, BG on, unsigned tiles
			mmu.Write(addr.BGP, defaultPalette)
			mmu.Write(addr.TileMap0, tt.tileNumber)
			mmu.Write(tt.expectedTileAddr, 0xFF)
			mmu.Write(tt.expectedTileAddr+1, 0x00)

			fb := runFrame(mmu, gpu)
			for i := 0; i < 8; i++ {
				assert.Equal(t, uint32(LightGreyColor), fb.GetPixel(uint(i), 0),
					"pixel %d for tile %02X expected to read from %04X", i, tt.tileNumber, tt.expectedTileAddr)
			}
		})
	}
}

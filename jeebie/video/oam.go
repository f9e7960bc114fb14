package video

import (
	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/bit"
)

// Sprite is a decoded OAM entry in screen coordinates (the +16/+8 hardware
// offsets already subtracted), used for debug inspection tools.
type Sprite struct {
	Y         uint8
	X         uint8
	TileIndex uint8
	Flags     uint8
	OAMIndex  int
	Height    int

	PaletteOBP1 bool
	FlipX       bool
	FlipY       bool
	BehindBG    bool
}

func (s *Sprite) parseFlags() {
	s.PaletteOBP1 = bit.IsSet(4, s.Flags)
	s.FlipX = bit.IsSet(5, s.Flags)
	s.FlipY = bit.IsSet(6, s.Flags)
	s.BehindBG = bit.IsSet(7, s.Flags)
}

// OAMBus is the interface OAM inspection needs for memory access.
type OAMBus interface {
	Read(address uint16) byte
}

// OAM provides read access to the 40 sprite entries for debug tooling. The
// pixel pipeline does its own scanline selection (see objectEntry below)
// since it needs the raw, unadjusted OAM bytes.
type OAM struct {
	bus OAMBus
}

func NewOAM(bus OAMBus) *OAM {
	return &OAM{bus: bus}
}

func (o *OAM) readSprite(index int) Sprite {
	base := addr.OAMStart + uint16(index*4)

	lcdc := o.bus.Read(addr.LCDC)
	height := 8
	if bit.IsSet(2, lcdc) {
		height = 16
	}

	sprite := Sprite{
		Y:         o.bus.Read(base) - 16,
		X:         o.bus.Read(base+1) - 8,
		TileIndex: o.bus.Read(base + 2),
		Flags:     o.bus.Read(base + 3),
		OAMIndex:  index,
		Height:    height,
	}
	sprite.parseFlags()
	return sprite
}

// GetSprite returns the sprite at the given OAM index (0-39), or nil if out
// of range.
func (o *OAM) GetSprite(index int) *Sprite {
	if index < 0 || index >= 40 {
		return nil
	}
	sprite := o.readSprite(index)
	return &sprite
}

// GetAllSprites returns all 40 sprites, for debug tools.
func (o *OAM) GetAllSprites() []Sprite {
	result := make([]Sprite, 40)
	for i := range 40 {
		result[i] = o.readSprite(i)
	}
	return result
}

// objectEntry is a raw (unadjusted) OAM entry as the pixel pipeline sees it:
// Y and X still carry the +16/+8 hardware offsets, since that is the form
// the FIFO's per-dot matching compares against.
type objectEntry struct {
	y, x      uint8
	tileIndex uint8
	flags     uint8
}

func (o objectEntry) paletteNumber() uint8 {
	if bit.IsSet(4, o.flags) {
		return 1
	}
	return 0
}

func (o objectEntry) flipX() bool      { return bit.IsSet(5, o.flags) }
func (o objectEntry) flipY() bool      { return bit.IsSet(6, o.flags) }
func (o objectEntry) bgPriority() bool { return bit.IsSet(7, o.flags) }

// hitsScanline reports whether this entry's Y-range covers the given
// scanline, in raw OAM-byte space (scanline+16 against [y, y+height)).
func (o objectEntry) hitsScanline(scanline int, height int) bool {
	adjusted := scanline + 16
	return int(o.y) <= adjusted && adjusted < int(o.y)+height
}

// pixelRow returns this object's 8 pixels for the row that lands on the
// given scanline, applying Y-flip, X-flip and 8x16 tile addressing (top
// tile id & 0xFE, bottom tile id | 0x01).
func (o objectEntry) pixelRow(mem MemoryReader, scanline int, height int) [8]Pixel {
	inObjectY := uint8(scanline + 16 - int(o.y))
	if o.flipY() {
		inObjectY = uint8(height) - 1 - inObjectY
	}

	tileID := o.tileIndex
	subY := inObjectY
	if height == 16 {
		if inObjectY < 8 {
			tileID = o.tileIndex & 0xFE
		} else {
			tileID = o.tileIndex | 0x01
			subY = inObjectY - 8
		}
	}

	row := readTileRow(mem, uint16(tileID), subY)
	source := objectSource(o.paletteNumber(), o.bgPriority())

	var pixels [8]Pixel
	for i := 0; i < 8; i++ {
		pixels[i] = Pixel{color: uint8(row.GetPixel(i)), source: source}
	}
	if o.flipX() {
		for i, j := 0, 7; i < j; i, j = i+1, j-1 {
			pixels[i], pixels[j] = pixels[j], pixels[i]
		}
	}
	return pixels
}

// selectObjectsForScanline walks all 40 OAM entries in address order,
// keeping up to 10 whose Y-range covers the scanline. Order is preserved
// (not sorted by X): the pixel FIFO's "first non-transparent write wins"
// rule relies on address order to break ties between objects sharing an X
// position, which reproduces hardware's X-then-OAM-index priority without
// an explicit sort.
func selectObjectsForScanline(bus OAMBus, scanline int) []objectEntry {
	lcdc := bus.Read(addr.LCDC)
	height := 8
	if bit.IsSet(2, lcdc) {
		height = 16
	}

	var objects []objectEntry
	for i := 0; i < 40; i++ {
		base := addr.OAMStart + uint16(i*4)
		o := objectEntry{
			y:         bus.Read(base),
			x:         bus.Read(base + 1),
			tileIndex: bus.Read(base + 2),
			flags:     bus.Read(base + 3),
		}
		if !o.hitsScanline(scanline, height) {
			continue
		}
		objects = append(objects, o)
		if len(objects) >= 10 {
			break
		}
	}
	return objects
}

package video

// fetcherKind distinguishes the background fetcher from the window fetcher;
// they differ only in which tile map and scan-line counter they use.
type fetcherKind int

const (
	fetcherBackground fetcherKind = iota
	fetcherWindow
)

// addressingMode selects how a tile map byte is turned into a tile data
// address, per LCDC bit 4.
type addressingMode int

const (
	addressingFrom8000 addressingMode = iota // unsigned, tile ids 0-255
	addressingFrom8800                       // signed, tile ids -128..127 around 0x9000
)

// fetcher walks a tile map row by row, producing 8 pixels at a time. A new
// fetcher is built whenever the requested kind (background/window) changes,
// per the LCDC-driven mode selection in the pixel pipeline.
type fetcher struct {
	kind     fetcherKind
	mapAddr  uint16
	mode     addressingMode
	tileX    uint8
	tileY    uint8
	subY     uint8
}

func newBackgroundFetcher(mapAddr uint16, mode addressingMode, scrollX, scrollY, scanline uint8) *fetcher {
	totalY := scanline + scrollY // wraps at 256, matching hardware BG wraparound
	return &fetcher{
		kind:    fetcherBackground,
		mapAddr: mapAddr,
		mode:    mode,
		tileX:   scrollX / 8,
		tileY:   totalY / 8,
		subY:    totalY % 8,
	}
}

func newWindowFetcher(mapAddr uint16, mode addressingMode, windowScanline uint8) *fetcher {
	return &fetcher{
		kind:    fetcherWindow,
		mapAddr: mapAddr,
		mode:    mode,
		tileX:   0,
		tileY:   windowScanline / 8,
		subY:    windowScanline % 8,
	}
}

// fetchPixels reads the tile id at the fetcher's current map position,
// resolves it to a tile data address via the addressing mode, and splits
// the row's two bytes into 8 background/window pixels. Advances tileX by
// one tile, wrapping at the 32-tile-wide map.
func (f *fetcher) fetchPixels(mem MemoryReader) [8]Pixel {
	offset := uint16(f.tileY)*32 + uint16(f.tileX)
	tileID := mem.Read(f.mapAddr + offset)

	var realTileID uint16
	switch f.mode {
	case addressingFrom8000:
		realTileID = uint16(tileID)
	case addressingFrom8800:
		if tileID < 128 {
			realTileID = uint16(tileID) + 256
		} else {
			realTileID = uint16(tileID)
		}
	}

	f.tileX = (f.tileX + 1) % 32

	row := readTileRow(mem, realTileID, f.subY)
	var pixels [8]Pixel
	for i := 0; i < 8; i++ {
		pixels[i] = Pixel{color: uint8(row.GetPixel(i)), source: backgroundSource}
	}
	return pixels
}

// readTileRow reads the two bytes of one tile row from the unsigned tile
// data area (0x8000-based), which is where both addressing modes ultimately
// resolve once the tile id has been translated.
func readTileRow(mem MemoryReader, tileID uint16, subY uint8) TileRow {
	const tileDataBase = 0x8000
	rowAddr := uint16(tileDataBase) + tileID*16 + uint16(subY)*2
	return TileRow{
		Low:  mem.Read(rowAddr),
		High: mem.Read(rowAddr + 1),
	}
}

package video

import (
	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/bit"
)

// lcdcBus is the memory surface the pixel pipeline needs: register reads
// plus whatever OAM/tile-map/tile-data reads the fetcher and object rows do.
type lcdcBus interface {
	MemoryReader
	OAMBus
}

// pixelFIFO drives one scanline's worth of background/window fetching and
// object overlay, pixel by pixel. Background and OBJ pixels are queued
// separately and merged on pop, matching hardware's two independent FIFOs.
type pixelFIFO struct {
	mem lcdcBus

	bgFetcher *fetcher
	objects   []objectEntry
	objHeight int

	bgFIFO  []Pixel
	objFIFO []Pixel

	windowScanline    int
	windowScanlineSet bool
	scanline          int
	currentX          int
}

func newPixelFIFO(mem lcdcBus) *pixelFIFO {
	return &pixelFIFO{mem: mem}
}

// beginOfLine resets both FIFOs for a new scanline. Called on dot 0.
func (p *pixelFIFO) beginOfLine(scanline int) {
	p.scanline = scanline
	p.bgFIFO = p.bgFIFO[:0]
	p.objFIFO = p.objFIFO[:0]
}

// endOfOamSearch selects the scanline's objects. Called on dot 79.
func (p *pixelFIFO) endOfOamSearch() {
	lcdc := p.mem.Read(addr.LCDC)
	p.objHeight = 8
	if bit.IsSet(2, lcdc) {
		p.objHeight = 16
	}
	p.objects = selectObjectsForScanline(p.mem, p.scanline)
}

// beginLcdTransfer sets up the fetcher for the first pixel of the line and
// discards SCX%8 pixels from the BG FIFO (the fine-scroll drop). Called on
// dot 80.
func (p *pixelFIFO) beginLcdTransfer() {
	p.currentX = 0
	p.matchFetcherMode()
	p.fillBackgroundFIFOIfNeeded()

	if p.bgFetcher != nil && p.bgFetcher.kind == fetcherBackground {
		scrollX := p.mem.Read(addr.SCX)
		drop := int(scrollX % 8)
		if drop > len(p.bgFIFO) {
			drop = len(p.bgFIFO)
		}
		p.bgFIFO = p.bgFIFO[drop:]
	}
}

// nextPixel emits one pixel: refills both FIFOs as needed, overlays any
// matching object, merges BG/OBJ per priority, and advances currentX.
func (p *pixelFIFO) nextPixel() Pixel {
	p.matchFetcherMode()

	var bgPixel Pixel
	if p.bgFetcher != nil {
		p.fillBackgroundFIFOIfNeeded()
		bgPixel, p.bgFIFO = p.bgFIFO[0], p.bgFIFO[1:]
	} else {
		bgPixel = Pixel{color: 0, source: backgroundSource}
	}

	p.fillObjectFIFOIfNeeded()
	objPixel, rest := p.objFIFO[0], p.objFIFO[1:]
	p.objFIFO = rest

	p.currentX++

	lcdc := p.mem.Read(addr.LCDC)
	return mixPixels(bgPixel, objPixel, bit.IsSet(1, lcdc))
}

// endOfLine tears down per-line state (fetcher, selected objects, FIFOs).
// Called on dot 252.
func (p *pixelFIFO) endOfLine() {
	p.bgFetcher = nil
	p.objects = nil
	p.bgFIFO = p.bgFIFO[:0]
	p.objFIFO = p.objFIFO[:0]
}

// endOfFrame resets the window-internal scanline counter. Called at the
// start of VBlank.
func (p *pixelFIFO) endOfFrame() {
	p.windowScanlineSet = false
	p.windowScanline = 0
}

func (p *pixelFIFO) requestedFetcherKind() (fetcherKind, bool) {
	lcdc := p.mem.Read(addr.LCDC)
	if !bit.IsSet(0, lcdc) {
		return 0, false
	}
	if !bit.IsSet(5, lcdc) {
		return fetcherBackground, true
	}

	wy := p.mem.Read(addr.WY)
	wx := int(p.mem.Read(addr.WX)) - 7

	if p.scanline >= int(wy) && p.currentX >= wx {
		return fetcherWindow, true
	}
	return fetcherBackground, true
}

// matchFetcherMode rebuilds the background/window fetcher whenever the
// requested kind changes, clearing the BG FIFO so the new fetcher's pixels
// aren't mixed with the old ones (the WX/WY window-restart behavior).
func (p *pixelFIFO) matchFetcherMode() {
	requested, ok := p.requestedFetcherKind()

	var current fetcherKind
	hasCurrent := p.bgFetcher != nil
	if hasCurrent {
		current = p.bgFetcher.kind
	}

	if ok == hasCurrent && (!ok || requested == current) {
		return
	}

	lcdc := p.mem.Read(addr.LCDC)
	mode := addressingFrom8800
	if bit.IsSet(4, lcdc) {
		mode = addressingFrom8000
	}

	switch {
	case !ok:
		p.bgFetcher = nil
	case requested == fetcherBackground:
		mapAddr := addr.TileMap0
		if bit.IsSet(3, lcdc) {
			mapAddr = addr.TileMap1
		}
		scrollX := p.mem.Read(addr.SCX)
		scrollY := p.mem.Read(addr.SCY)
		p.bgFetcher = newBackgroundFetcher(mapAddr, mode, scrollX, scrollY, uint8(p.scanline))
	case requested == fetcherWindow:
		mapAddr := addr.TileMap0
		if bit.IsSet(6, lcdc) {
			mapAddr = addr.TileMap1
		}
		scan := uint8(0)
		if p.windowScanlineSet {
			scan = uint8(p.windowScanline)
		}
		p.windowScanline = int(scan) + 1
		p.windowScanlineSet = true
		p.bgFetcher = newWindowFetcher(mapAddr, mode, scan)
	}

	p.bgFIFO = p.bgFIFO[:0]
}

func (p *pixelFIFO) fillBackgroundFIFOIfNeeded() {
	if p.bgFetcher == nil || len(p.bgFIFO) >= 8 {
		return
	}
	pixels := p.bgFetcher.fetchPixels(p.mem)
	p.bgFIFO = append(p.bgFIFO, pixels[:]...)
}

func (p *pixelFIFO) fillObjectFIFOIfNeeded() {
	if len(p.objFIFO) < 8 {
		for len(p.objFIFO) < 8 {
			p.objFIFO = append(p.objFIFO, Pixel{color: 0, source: objectSource(0, true)})
		}
	}

	for _, obj := range p.objects {
		if uint8(p.currentX+8) != obj.x {
			continue
		}
		pixels := obj.pixelRow(p.mem, p.scanline, p.objHeight)
		for i, px := range pixels {
			if p.objFIFO[i].color == 0 {
				p.objFIFO[i] = px
			}
		}
	}
}

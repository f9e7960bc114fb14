package video

import "github.com/valerio/go-jeebie/jeebie/memory"

// runFrame ticks the GPU through an entire frame (70224 dots) so the working
// buffer commits into the visible framebuffer, then returns it.
func runFrame(mmu *memory.MMU, gpu *GPU) *FrameBuffer {
	// one extra dot past the full frame so the just-rendered working buffer's
	// commit (which happens at the start of the next frame's VBlank) lands
	// before we inspect it.
	gpu.Tick(dotsPerLine*linesPerFrame + 1)
	return gpu.GetFrameBuffer()
}

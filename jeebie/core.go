package jeebie

import (
	"crypto/md5"
	"fmt"
	"io/ioutil"
	"log/slog"
	"sync"

	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/cpu"
	"github.com/valerio/go-jeebie/jeebie/debug"
	"github.com/valerio/go-jeebie/jeebie/input/action"
	"github.com/valerio/go-jeebie/jeebie/memory"
	"github.com/valerio/go-jeebie/jeebie/timing"
	"github.com/valerio/go-jeebie/jeebie/video"
)

// DebuggerState represents the current debugger mode
type DebuggerState int

const (
	DebuggerRunning   DebuggerState = iota // Normal execution
	DebuggerPaused                         // Paused, waiting for commands
	DebuggerStep                           // Execute one instruction then pause
	DebuggerStepFrame                      // Execute one frame then pause
)

// DMG represents the root struct and entry point for running the emulation
type DMG struct {
	cpu *cpu.CPU
	gpu *video.GPU
	mem *memory.MMU

	// Debugger state
	debuggerState    DebuggerState
	debuggerMutex    sync.RWMutex
	stepRequested    bool
	frameRequested   bool
	instructionCount uint64
	frameCount       uint64

	limiter timing.Limiter

	// completion detection, see ConfigureCompletionDetection
	completionMaxFrames    uint64
	completionMinLoopCount int
}

func (e *DMG) init(mem *memory.MMU) {
	e.cpu = cpu.New(mem)
	e.gpu = video.NewGpu(mem)
	e.mem = mem
	e.limiter = timing.NewNoOpLimiter()

	mem.SetTimerSeed(0xABCC)
}

// New creates a new emulator instance
func New() *DMG {
	e := &DMG{}
	e.init(memory.NewWithCartridge(memory.NewCartridge()))

	return e
}

// NewWithFile creates a new emulator instance and loads the file specified into it.
func NewWithFile(path string) (*DMG, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	slog.Debug("Loaded ROM data", "size", len(data))

	e := &DMG{}
	e.init(memory.NewWithCartridge(memory.NewCartridgeWithData(data)))

	return e, nil
}

func (e *DMG) RunUntilFrame() error {
	e.debuggerMutex.RLock()
	state := e.debuggerState
	e.debuggerMutex.RUnlock()

	defer e.limiter.WaitForNextFrame()

	// Handle paused state - don't execute anything
	if state == DebuggerPaused {
		return nil
	}

	// Handle step instruction - execute one instruction then pause
	if state == DebuggerStep {
		e.debuggerMutex.Lock()
		if e.stepRequested {
			e.stepRequested = false
			e.debuggerMutex.Unlock()

			// Execute one CPU instruction
			oldPC := e.cpu.GetPC()
			cycles := e.cpu.Tick()
			e.mem.Tick(cycles)
			e.gpu.Tick(cycles)
			e.instructionCount++

			// Log the executed instruction
			slog.Debug("Step executed", "pc", fmt.Sprintf("0x%04X", oldPC), "new_pc", fmt.Sprintf("0x%04X", e.cpu.GetPC()))

			// Pause after execution
			e.SetDebuggerState(DebuggerPaused)
		} else {
			e.debuggerMutex.Unlock()
		}
		return nil
	}

	// Handle step frame - execute one frame then pause
	if state == DebuggerStepFrame {
		e.debuggerMutex.Lock()
		frameRequested := e.frameRequested
		if frameRequested {
			e.frameRequested = false
		}
		e.debuggerMutex.Unlock()

		if frameRequested {
			// Execute one full frame
			total := 0
			for {
				cycles := e.cpu.Tick()
				e.mem.Tick(cycles)
				e.gpu.Tick(cycles)
				e.instructionCount++
				total += cycles

				if total >= 70224 {
					break
				}
			}
			e.frameCount++
			slog.Debug("Frame step completed", "frame", e.frameCount, "instructions", e.instructionCount)
			e.SetDebuggerState(DebuggerPaused)
		}
		return nil
	}

	// Normal execution (DebuggerRunning)
	total := 0
	for {
		cycles := e.cpu.Tick()
		e.mem.Tick(cycles)
		e.gpu.Tick(cycles)
		e.instructionCount++

		total += cycles

		if total >= 70224 {
			e.frameCount++
			// Log every 60 frames (once per second at 60 FPS) only when running
			if e.frameCount%60 == 0 {
				slog.Debug("Frame completed", "frame", e.frameCount, "pc", fmt.Sprintf("0x%04X", e.cpu.GetPC()))
			}
			return nil
		}
	}
}

func (e *DMG) GetCurrentFrame() *video.FrameBuffer {
	return e.gpu.GetFrameBuffer()
}

func (e *DMG) HandleKeyPress(key memory.JoypadKey) {
	e.mem.HandleKeyPress(key)
}

func (e *DMG) HandleKeyRelease(key memory.JoypadKey) {
	e.mem.HandleKeyRelease(key)
}

func (e *DMG) GetCPU() *cpu.CPU {
	return e.cpu
}

// Debugger control methods
func (e *DMG) SetDebuggerState(state DebuggerState) {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.debuggerState = state
	slog.Debug("Debugger state changed", "state", state)
}

func (e *DMG) GetDebuggerState() DebuggerState {
	e.debuggerMutex.RLock()
	defer e.debuggerMutex.RUnlock()
	return e.debuggerState
}

func (e *DMG) DebuggerPause() {
	e.SetDebuggerState(DebuggerPaused)
	slog.Info("Emulator paused")
}

func (e *DMG) DebuggerResume() {
	e.SetDebuggerState(DebuggerRunning)
	slog.Info("Emulator resumed")
}

func (e *DMG) DebuggerStepInstruction() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.stepRequested = true
	e.debuggerState = DebuggerStep
	slog.Info("Step instruction requested")
}

func (e *DMG) DebuggerStepFrame() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.frameRequested = true
	e.debuggerState = DebuggerStepFrame
	slog.Info("Step frame requested")
}

func (e *DMG) GetInstructionCount() uint64 {
	return e.instructionCount
}

func (e *DMG) GetFrameCount() uint64 {
	return e.frameCount
}

func (e *DMG) GetMMU() *memory.MMU {
	return e.mem
}

// SerialOutput returns every byte collected over the serial port so far.
func (e *DMG) SerialOutput() string {
	return e.mem.SerialOutput()
}

// ConfigureCompletionDetection configures the frame-repeat heuristic used by
// RunUntilComplete. Blargg-style test ROMs render a result screen and then
// loop forever rather than halting, so completion is detected by running
// frames until the screen stops changing: once the same frame hash repeats
// for minLoopCount consecutive frames, the ROM is considered done. maxFrames
// caps the run regardless, for ROMs that never stabilize or that should just
// run for a fixed number of frames (pass minLoopCount <= 0 for the latter).
func (e *DMG) ConfigureCompletionDetection(maxFrames uint64, minLoopCount int) {
	e.completionMaxFrames = maxFrames
	e.completionMinLoopCount = minLoopCount
}

// RunUntilComplete runs frames until the heuristic configured via
// ConfigureCompletionDetection triggers, or completionMaxFrames is reached.
func (e *DMG) RunUntilComplete() error {
	maxFrames := e.completionMaxFrames
	if maxFrames == 0 {
		maxFrames = 1
	}

	var lastHash [md5.Size]byte
	repeats := 0

	for i := uint64(0); i < maxFrames; i++ {
		if err := e.RunUntilFrame(); err != nil {
			return err
		}

		if e.completionMinLoopCount <= 0 {
			continue
		}

		hash := md5.Sum(e.GetCurrentFrame().ToGrayscale())
		if hash == lastHash {
			repeats++
			if repeats >= e.completionMinLoopCount {
				return nil
			}
		} else {
			repeats = 0
			lastHash = hash
		}
	}

	return nil
}

// HandleAction routes a backend-agnostic input action to the emulator,
// translating Game Boy button presses into key events and emulator-level
// actions into debugger commands.
func (e *DMG) HandleAction(act action.Action, pressed bool) {
	if key, ok := gbButtonKey(act); ok {
		if pressed {
			e.HandleKeyPress(key)
		} else {
			e.HandleKeyRelease(key)
		}
		return
	}

	if !pressed {
		return
	}

	switch act {
	case action.EmulatorPauseToggle:
		if e.GetDebuggerState() == DebuggerPaused {
			e.DebuggerResume()
		} else {
			e.DebuggerPause()
		}
	case action.EmulatorStepInstruction:
		e.DebuggerStepInstruction()
	case action.EmulatorStepFrame:
		e.DebuggerStepFrame()
	}
}

func gbButtonKey(act action.Action) (memory.JoypadKey, bool) {
	switch act {
	case action.GBButtonA:
		return memory.JoypadA, true
	case action.GBButtonB:
		return memory.JoypadB, true
	case action.GBButtonStart:
		return memory.JoypadStart, true
	case action.GBButtonSelect:
		return memory.JoypadSelect, true
	case action.GBDPadUp:
		return memory.JoypadUp, true
	case action.GBDPadDown:
		return memory.JoypadDown, true
	case action.GBDPadLeft:
		return memory.JoypadLeft, true
	case action.GBDPadRight:
		return memory.JoypadRight, true
	default:
		return 0, false
	}
}

// SetFrameLimiter installs the pacing strategy RunUntilFrame waits on after
// each frame. Passing nil disables pacing (used for headless/benchmark runs).
func (e *DMG) SetFrameLimiter(limiter timing.Limiter) {
	if limiter == nil {
		e.limiter = timing.NewNoOpLimiter()
		return
	}
	e.limiter = limiter
}

// ResetFrameTiming clears accumulated drift in the current frame limiter,
// used after the emulator resumes from a pause or debugger step.
func (e *DMG) ResetFrameTiming() {
	e.limiter.Reset()
}

// ExtractDebugData snapshots CPU, memory, OAM and VRAM state for debug
// backends. Returns nil if the emulator hasn't been initialized yet.
func (e *DMG) ExtractDebugData() *debug.CompleteDebugData {
	if e.cpu == nil || e.mem == nil || e.gpu == nil {
		return nil
	}

	pc := e.cpu.GetPC()
	const snapshotSize = 200
	size := snapshotSize
	if uint32(pc)+uint32(size) > 0xFFFF {
		size = int(0x10000 - uint32(pc))
	}
	bytes := make([]uint8, size)
	for i := 0; i < size; i++ {
		bytes[i] = e.mem.Read(pc + uint16(i))
	}

	lcdc := e.mem.Read(addr.LCDC)
	spriteHeight := 8
	if lcdc&0x04 != 0 {
		spriteHeight = 16
	}
	currentLine := int(e.mem.Read(addr.LY))

	return &debug.CompleteDebugData{
		OAM:  debug.ExtractOAMData(e.mem, currentLine, spriteHeight),
		VRAM: debug.ExtractVRAMData(e.mem),
		CPU: &debug.CPUState{
			A:      e.cpu.GetA(),
			F:      e.cpu.GetF(),
			B:      e.cpu.GetB(),
			C:      e.cpu.GetC(),
			D:      e.cpu.GetD(),
			E:      e.cpu.GetE(),
			H:      e.cpu.GetH(),
			L:      e.cpu.GetL(),
			SP:     e.cpu.GetSP(),
			PC:     pc,
			IME:    e.mem.ITC.MasterEnable(),
			Cycles: e.instructionCount,
		},
		Memory: &debug.MemorySnapshot{
			StartAddr: pc,
			Bytes:     bytes,
		},
		DebuggerState:   debug.DebuggerState(e.GetDebuggerState()),
		InterruptEnable: e.mem.Read(addr.IE),
		InterruptFlags:  e.mem.Read(addr.IF),
	}
}

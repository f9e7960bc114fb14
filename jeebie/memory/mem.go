package memory

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/audio"
	"github.com/valerio/go-jeebie/jeebie/itc"
	"github.com/valerio/go-jeebie/jeebie/serial"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionUnused
	regionIO
	regionHRAM
)

// JoypadKey represents a key on the Gameboy joypad, re-exported from itc so
// callers outside the memory package don't need to import it directly.
type JoypadKey = itc.JoypadKey

const (
	JoypadRight  = itc.JoypadRight
	JoypadLeft   = itc.JoypadLeft
	JoypadUp     = itc.JoypadUp
	JoypadDown   = itc.JoypadDown
	JoypadA      = itc.JoypadA
	JoypadB      = itc.JoypadB
	JoypadSelect = itc.JoypadSelect
	JoypadStart  = itc.JoypadStart
)

// SerialPort is the minimal interface for a serial device connected to SB/SC.
// Implementations MUST only accept reads/writes to addr.SB and addr.SC.
type SerialPort interface {
	Write(address uint16, value byte)
	Read(address uint16) byte
	Tick(cycles int)
	Reset()
	Output() string
}

// MMU allows access to all memory mapped I/O and data/registers
type MMU struct {
	cart      *Cartridge
	mbc       MBC
	memory    []byte
	APU       *audio.APU
	ITC       *itc.Controller
	regionMap [256]memRegion

	bootROM     []byte
	bootROMDone bool

	serial SerialPort
}

// New creates a new memory unity with default data, i.e. nothing cartridge loaded.
// Equivalent to turning on a Gameboy without a cartridge in.
func New() *MMU {
	mmu := &MMU{
		memory: make([]byte, 0x10000),
		cart:   NewCartridge(),
		APU:    audio.New(),
		ITC:    itc.New(),
	}
	mmu.serial = serial.NewLogSink(func() { mmu.RequestInterrupt(addr.SerialInterrupt) })
	initRegionMap(mmu)
	return mmu
}

// LoadBootROM installs a boot ROM image to be mapped over 0x0000-0x00FF until
// the guest writes to addr.BootROMDisable. A nil or wrong-sized image leaves
// the overlay disabled, which is the same as booting straight into the cartridge.
func (m *MMU) LoadBootROM(data []byte) {
	if len(data) != 256 {
		slog.Warn("ignoring boot ROM image with unexpected size", "size", len(data))
		return
	}
	m.bootROM = make([]byte, 256)
	copy(m.bootROM, data)
	m.bootROMDone = false
}

// Tick advances any i/o that needs it, if any.
func (m *MMU) Tick(cycles int) {
	m.ITC.Tick(cycles)
	if m.serial != nil {
		m.serial.Tick(cycles)
	}
}

// SetTimerSeed initializes the internal timer divider seed and DIV register.
func (m *MMU) SetTimerSeed(seed uint16) {
	m.ITC.SetSeed(seed)
}

// SerialOutput returns every byte collected over the serial port so far, in
// order. Test ROMs (e.g. Blargg's cpu_instrs) report their pass/fail result
// this way instead of through the framebuffer.
func (m *MMU) SerialOutput() string {
	return m.serial.Output()
}

// NewWithCartridge creates a new memory unit with the provided cartridge data loaded.
// Equivalent to turning on a Gameboy with a cartridge in.
func NewWithCartridge(cart *Cartridge) *MMU {
	mmu := New()
	mmu.cart = cart

	switch cart.mbcType {
	case NoMBCType:
		mmu.mbc = NewNoMBC(cart.data)
	case MBC1Type:
		mmu.mbc = NewMBC1(cart.data, cart.hasBattery, cart.ramBankCount)
	case MBC1MultiType:
		mmu.mbc = NewMBC1(cart.data, cart.hasBattery, cart.ramBankCount) // FIXME: add support for multicart
	case MBC2Type:
		mmu.mbc = NewMBC2(cart.data)
	case MBC3Type:
		mmu.mbc = NewMBC3(cart.data, cart.hasRTC, cart.ramBankCount)
	case MBC5Type:
		mmu.mbc = NewMBC5(cart.data, cart.hasRumble, cart.ramBankCount)
	case MBCUnknownType:
		panic("unsupported MBC type: unknown")
	default:
		panic(fmt.Sprintf("unsupported MBC type: %d", cart.mbcType))
	}

	return mmu
}

func initRegionMap(m *MMU) {
	// ROM: 0x0000-0x7FFF
	for i := 0x00; i <= 0x7F; i++ {
		m.regionMap[i] = regionROM
	}
	// VRAM: 0x8000-0x9FFF
	for i := 0x80; i <= 0x9F; i++ {
		m.regionMap[i] = regionVRAM
	}
	// External RAM: 0xA000-0xBFFF
	for i := 0xA0; i <= 0xBF; i++ {
		m.regionMap[i] = regionExtRAM
	}
	// Work RAM: 0xC000-0xDFFF
	for i := 0xC0; i <= 0xDF; i++ {
		m.regionMap[i] = regionWRAM
	}
	// Echo RAM: 0xE000-0xFDFF
	for i := 0xE0; i <= 0xFD; i++ {
		m.regionMap[i] = regionEcho
	}
	// OAM: 0xFE00-0xFE9F, Unused: 0xFEA0-0xFEFF
	m.regionMap[0xFE] = regionOAM
	// IO + HRAM: 0xFF00-0xFFFF
	m.regionMap[0xFF] = regionIO
}

// RequestInterrupt sets the interrupt flag (IF register) of the chosen interrupt to 1.
func (m *MMU) RequestInterrupt(interrupt addr.Interrupt) {
	m.ITC.Request(interrupt)
}

func (m *MMU) ReadBit(index uint8, address uint16) bool {
	return m.Read(address)&(1<<index) != 0
}

func (m *MMU) SetBit(index uint8, address uint16, set bool) {
	value := m.Read(address)
	if set {
		value |= 1 << index
	} else {
		value &^= 1 << index
	}
	m.Write(address, value)
}

func (m *MMU) Read(address uint16) byte {
	if address <= 0x00FF && m.bootROM != nil && !m.bootROMDone {
		return m.bootROM[address]
	}

	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		if m.mbc == nil {
			slog.Warn("Reading from ROM/external RAM with no cartridge", "addr", fmt.Sprintf("0x%04X", address))
			return 0xFF
		}
		return m.mbc.Read(address)
	case regionVRAM, regionWRAM:
		return m.memory[address]
	case regionEcho:
		return m.memory[address-0x2000]
	case regionOAM:
		return m.memory[address]
	case regionIO:
		switch {
		case address == addr.P1:
			return m.ITC.ReadJoypad()
		case address == addr.SB || address == addr.SC:
			return m.serial.Read(address)
		case address == addr.DIV || address == addr.TIMA || address == addr.TMA || address == addr.TAC:
			return m.ITC.ReadTimer(address)
		case address == addr.IF:
			return m.ITC.ReadIF()
		case address == addr.IE:
			return m.ITC.ReadIE()
		case address >= addr.AudioStart && address <= addr.AudioEnd:
			return m.APU.ReadRegister(address)
		case address == addr.BootROMDisable:
			if m.bootROMDone {
				return 0x01
			}
			return 0x00
		case address >= 0xFF80:
			return m.memory[address]
		default:
			return m.memory[address]
		}
	default:
		panic(fmt.Sprintf("Attempted read at unmapped address: 0x%X", address))
	}
}

func (m *MMU) Write(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM:
		if m.mbc == nil {
			slog.Warn("Writing to ROM with no cartridge", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
			return
		}
		m.mbc.Write(address, value)
	case regionVRAM:
		m.memory[address] = value
	case regionExtRAM:
		if m.mbc == nil {
			slog.Warn("Writing to external RAM with no cartridge", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
			return
		}
		m.mbc.Write(address, value)
	case regionWRAM:
		m.memory[address] = value
	case regionEcho:
		m.memory[address-0x2000] = value
	case regionOAM:
		m.memory[address] = value
	case regionIO:
		switch {
		case address == addr.P1:
			m.ITC.WriteJoypad(value)
		case address == addr.SB || address == addr.SC:
			m.serial.Write(address, value)
		case address == addr.DIV || address == addr.TIMA || address == addr.TMA || address == addr.TAC:
			m.ITC.WriteTimer(address, value)
		case address == addr.IF:
			m.ITC.WriteIF(value)
		case address == addr.IE:
			m.ITC.WriteIE(value)
		case address >= addr.AudioStart && address <= addr.AudioEnd:
			m.APU.WriteRegister(address, value)
		case address == addr.DMA:
			sourceAddr := uint16(value) << 8
			// DMA transfer copies 160 bytes from source to OAM
			for i := range uint16(160) {
				m.memory[0xFE00+i] = m.Read(sourceAddr + i)
			}
			m.memory[address] = value
		case address == addr.BootROMDisable:
			if value != 0 {
				m.bootROMDone = true
			}
		case address >= 0xFF80:
			m.memory[address] = value
		default:
			m.memory[address] = value
		}
	default:
		panic(fmt.Sprintf("Attempted write at unmapped address: 0x%X", address))
	}
}

func (m *MMU) HandleKeyPress(key JoypadKey) {
	m.ITC.PressKey(key)
}

func (m *MMU) HandleKeyRelease(key JoypadKey) {
	m.ITC.ReleaseKey(key)
}

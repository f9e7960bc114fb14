package memory

import "github.com/valerio/go-jeebie/jeebie/util"

const titleLength = 11

const (
	entryPointAddress       = 0x100
	logoAddress             = 0x104
	titleAddress            = 0x134
	manufacturerCodeAddress = 0x13F
	cgbFlagAddress          = 0x143
	newLicenseCodeAddress   = 0x144
	sgbFlagAddress          = 0x146
	cartridgeTypeAddress    = 0x147
	romSizeAddress          = 0x148
	ramSizeAddress          = 0x149
	destinationCodeAddress  = 0x14A
	oldLicenseCodeAddress   = 0x14B
	versionNumberAddress    = 0x14C
	headerChecksumAddress   = 0x14D
	globalChecksumAddress   = 0x14E
)

// MBCKind identifies which memory-bank-controller family a cartridge uses.
type MBCKind uint8

const (
	NoMBCType MBCKind = iota
	MBC1Type
	MBC1MultiType
	MBC2Type
	MBC3Type
	MBC5Type
	MBCUnknownType
)

// ramBankCounts maps the header's RAM-size byte (0149) to a bank count of 8 KiB banks.
var ramBankCounts = map[uint8]uint8{
	0x00: 0,
	0x01: 1, // unofficial 2 KiB, treated as a single bank
	0x02: 1,
	0x03: 4,
	0x04: 16,
	0x05: 8,
}

// decodeCartridgeType maps the header's cartridge-type byte (0147) to the MBC
// family and its battery/RAM/RTC/rumble feature bits.
func decodeCartridgeType(cartType uint8) (kind MBCKind, hasRAM, hasBattery, hasRTC, hasRumble bool) {
	switch cartType {
	case 0x00:
		return NoMBCType, false, false, false, false
	case 0x08, 0x09:
		return NoMBCType, true, cartType == 0x09, false, false
	case 0x01:
		return MBC1Type, false, false, false, false
	case 0x02:
		return MBC1Type, true, false, false, false
	case 0x03:
		return MBC1Type, true, true, false, false
	case 0x05:
		return MBC2Type, true, false, false, false
	case 0x06:
		return MBC2Type, true, true, false, false
	case 0x0F:
		return MBC3Type, false, true, true, false
	case 0x10:
		return MBC3Type, true, true, true, false
	case 0x11:
		return MBC3Type, false, false, false, false
	case 0x12:
		return MBC3Type, true, false, false, false
	case 0x13:
		return MBC3Type, true, true, false, false
	case 0x19, 0x1A:
		return MBC5Type, cartType == 0x1A, false, false, false
	case 0x1B:
		return MBC5Type, true, true, false, false
	case 0x1C, 0x1D:
		return MBC5Type, cartType == 0x1D, false, false, true
	case 0x1E:
		return MBC5Type, true, true, false, true
	default:
		return MBCUnknownType, false, false, false, false
	}
}

// Cartridge holds a loaded ROM image and the header-derived metadata needed
// to pick and size the right MBC.
type Cartridge struct {
	data           []byte
	title          string
	headerChecksum uint16
	globalChecksum uint16
	version        uint8
	cartType       uint8
	romSize        uint8
	ramSize        uint8

	mbcType      MBCKind
	hasBattery   bool
	hasRTC       bool
	hasRumble    bool
	ramBankCount uint8
}

// NewCartridge creates an empty cartridge, useful only for debugging purposes.
func NewCartridge() *Cartridge {
	return &Cartridge{
		data:    make([]byte, 0x10000),
		mbcType: NoMBCType,
	}
}

// NewCartridgeWithData initializes a new Cartridge from a slice of bytes,
// decoding the header at 0147-0149 into the MBC selection used by NewWithCartridge.
func NewCartridgeWithData(bytes []byte) *Cartridge {
	titleBytes := bytes[titleAddress : titleAddress+titleLength]

	cartType := bytes[cartridgeTypeAddress]
	mbcType, hasRAM, hasBattery, hasRTC, hasRumble := decodeCartridgeType(cartType)

	ramSizeByte := bytes[ramSizeAddress]
	ramBankCount := uint8(0)
	if hasRAM {
		ramBankCount = ramBankCounts[ramSizeByte]
		if ramBankCount == 0 && mbcType == MBC2Type {
			ramBankCount = 1 // MBC2's built-in RAM is not sized by the header
		}
	}

	cart := &Cartridge{
		data:           make([]byte, len(bytes)),
		title:          cleanGameboyTitle(titleBytes),
		headerChecksum: util.CombineBytes(bytes[headerChecksumAddress+1], bytes[headerChecksumAddress]),
		globalChecksum: util.CombineBytes(bytes[globalChecksumAddress+1], bytes[globalChecksumAddress]),
		version:        bytes[versionNumberAddress],
		cartType:       cartType,
		romSize:        bytes[romSizeAddress],
		ramSize:        ramSizeByte,
		mbcType:        mbcType,
		hasBattery:     hasBattery,
		hasRTC:         hasRTC,
		hasRumble:      hasRumble,
		ramBankCount:   ramBankCount,
	}

	copy(cart.data, bytes)

	return cart
}

// ReadByte reads a byte at the specified address. Does not check bounds, so the caller must make sure the
// address is valid for the cartridge.
func (c Cartridge) ReadByte(addr uint16) uint8 {
	return c.data[addr]
}

// WriteByte attempts a write to the specified address. Writing to a cartridge has sense if the cartridge
// has extra RAM or for some special operations, like switching ROM banks.
func (c Cartridge) WriteByte(addr uint16, value uint8) uint8 {
	return c.data[addr]
}

// Title returns the cleaned-up game title from the header.
func (c Cartridge) Title() string {
	return c.title
}

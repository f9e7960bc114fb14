package memory

import (
	"testing"

	"github.com/valerio/go-jeebie/jeebie/addr"
)

func TestBootROMOverlayMasksCartridge(t *testing.T) {
	data := makeHeader(0x00, 0x00, 0x00, "TEST")
	data[0x0000] = 0xAB
	mmu := NewWithCartridge(NewCartridgeWithData(data))

	boot := make([]byte, 256)
	boot[0] = 0xCD
	mmu.LoadBootROM(boot)

	if got := mmu.Read(0x0000); got != 0xCD {
		t.Errorf("Read(0x0000) with boot ROM mounted = 0x%02X; want 0xCD", got)
	}

	mmu.Write(addr.BootROMDisable, 1)

	if got := mmu.Read(0x0000); got != 0xAB {
		t.Errorf("Read(0x0000) after boot ROM disable = 0x%02X; want cartridge byte 0xAB", got)
	}
}

func TestBootROMWrongSizeIgnored(t *testing.T) {
	mmu := New()
	mmu.LoadBootROM(make([]byte, 100))

	if mmu.bootROM != nil {
		t.Error("LoadBootROM should ignore an image that isn't exactly 256 bytes")
	}
}

func TestBootROMDisableRegisterReadsMountState(t *testing.T) {
	mmu := New()
	mmu.LoadBootROM(make([]byte, 256))

	if got := mmu.Read(addr.BootROMDisable); got != 0x00 {
		t.Errorf("BootROMDisable read while mounted = 0x%02X; want 0x00", got)
	}

	mmu.Write(addr.BootROMDisable, 1)

	if got := mmu.Read(addr.BootROMDisable); got != 0x01 {
		t.Errorf("BootROMDisable read after disable = 0x%02X; want 0x01", got)
	}
}

func TestOAMDMACopiesFromSourcePage(t *testing.T) {
	mmu := New()

	for i := uint16(0); i < 160; i++ {
		mmu.memory[0xC000+i] = byte(i)
	}

	mmu.Write(addr.DMA, 0xC0)

	for i := uint16(0); i < 160; i++ {
		if got := mmu.memory[0xFE00+i]; got != byte(i) {
			t.Fatalf("OAM[0x%02X] = 0x%02X; want 0x%02X", i, got, byte(i))
		}
	}
}

func TestEchoRAMMirrorsWorkRAM(t *testing.T) {
	mmu := New()

	mmu.Write(0xC010, 0x42)
	if got := mmu.Read(0xE010); got != 0x42 {
		t.Errorf("echo read = 0x%02X; want 0x42", got)
	}

	mmu.Write(0xE020, 0x7A)
	if got := mmu.Read(0xC020); got != 0x7A {
		t.Errorf("WRAM read after echo write = 0x%02X; want 0x7A", got)
	}
}

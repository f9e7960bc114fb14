package memory

import "testing"

func makeHeader(cartType, romSize, ramSize uint8, title string) []byte {
	data := make([]byte, 0x150)
	copy(data[titleAddress:titleAddress+titleLength], title)
	data[cartridgeTypeAddress] = cartType
	data[romSizeAddress] = romSize
	data[ramSizeAddress] = ramSize
	return data
}

func TestNewCartridgeWithDataDecodesHeader(t *testing.T) {
	tests := []struct {
		name             string
		cartType         uint8
		ramSize          uint8
		wantMBC          MBCKind
		wantBattery      bool
		wantRTC          bool
		wantRumble       bool
		wantRAMBankCount uint8
	}{
		{"ROM only", 0x00, 0x00, NoMBCType, false, false, false, 0},
		{"MBC1", 0x01, 0x00, MBC1Type, false, false, false, 0},
		{"MBC1+RAM+BATTERY", 0x03, 0x03, MBC1Type, true, false, false, 4},
		{"MBC2+BATTERY", 0x06, 0x00, MBC2Type, true, false, false, 1},
		{"MBC3+TIMER+RAM+BATTERY", 0x10, 0x02, MBC3Type, true, true, false, 1},
		{"MBC5+RUMBLE+RAM+BATTERY", 0x1E, 0x04, MBC5Type, true, false, true, 16},
		{"unknown type", 0x20, 0x00, MBCUnknownType, false, false, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := makeHeader(tt.cartType, 0x00, tt.ramSize, "TEST")
			cart := NewCartridgeWithData(data)

			if cart.mbcType != tt.wantMBC {
				t.Errorf("mbcType = %v; want %v", cart.mbcType, tt.wantMBC)
			}
			if cart.hasBattery != tt.wantBattery {
				t.Errorf("hasBattery = %v; want %v", cart.hasBattery, tt.wantBattery)
			}
			if cart.hasRTC != tt.wantRTC {
				t.Errorf("hasRTC = %v; want %v", cart.hasRTC, tt.wantRTC)
			}
			if cart.hasRumble != tt.wantRumble {
				t.Errorf("hasRumble = %v; want %v", cart.hasRumble, tt.wantRumble)
			}
			if cart.ramBankCount != tt.wantRAMBankCount {
				t.Errorf("ramBankCount = %d; want %d", cart.ramBankCount, tt.wantRAMBankCount)
			}
		})
	}
}

func TestNewCartridgeWithDataTitle(t *testing.T) {
	data := makeHeader(0x00, 0x00, 0x00, "POKEMON\x00\x00\x00\x00")
	cart := NewCartridgeWithData(data)

	if got := cart.Title(); got != "POKEMON" {
		t.Errorf("Title() = %q; want %q", got, "POKEMON")
	}
}

func TestCleanGameboyTitleEmptyBecomesPlaceholder(t *testing.T) {
	data := makeHeader(0x00, 0x00, 0x00, "")
	cart := NewCartridgeWithData(data)

	if got := cart.Title(); got != "(Untitled)" {
		t.Errorf("Title() = %q; want %q", got, "(Untitled)")
	}
}

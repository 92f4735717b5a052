package core

import (
	"fmt"
	"hash/crc32"
	"time"
)

// MapperFamily identifies the bank-switching behavior a cartridge header
// selects.
type MapperFamily int

const (
	MapperNone MapperFamily = iota
	MapperMBC1
	MapperMBC2
	MapperMBC3
	MapperMBC5
)

var ramSizeTable = [6]int{0, 2 * 1024, 8 * 1024, 32 * 1024, 128 * 1024, 64 * 1024}

var batteryTypes = map[byte]bool{
	0x03: true, 0x06: true, 0x09: true, 0x0D: true, 0x0F: true,
	0x10: true, 0x13: true, 0x1B: true, 0x1E: true,
}

var rtcTypes = map[byte]bool{0x0F: true, 0x10: true}

var impliedRAMTypes = map[byte]bool{
	0x02: true, 0x03: true, 0x08: true, 0x09: true,
	0x0C: true, 0x0D: true, 0x10: true, 0x12: true, 0x13: true,
	0x1A: true, 0x1B: true, 0x1D: true, 0x1E: true,
}

func mapperFamilyFor(cartType byte) (MapperFamily, error) {
	switch {
	case cartType == 0x00:
		return MapperNone, nil
	case cartType >= 0x01 && cartType <= 0x03:
		return MapperMBC1, nil
	case cartType >= 0x05 && cartType <= 0x06:
		return MapperMBC2, nil
	case cartType >= 0x0F && cartType <= 0x13:
		return MapperMBC3, nil
	case cartType >= 0x19 && cartType <= 0x1E:
		return MapperMBC5, nil
	default:
		return 0, fmt.Errorf("%w: type $%02X", ErrUnsupportedMapper, cartType)
	}
}

func titleFromHeader(rom []byte) string {
	end := 0x144
	if end > len(rom) {
		end = len(rom)
	}
	raw := rom[0x134:end]
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b == 0 {
			break
		}
		if b < 0x20 || b > 0x7E {
			continue
		}
		out = append(out, b)
	}
	return string(out)
}

// Cartridge holds ROM/RAM banking state for every supported mapper
// family, dispatching via family rather than separate mapper types, in
// the teacher's single-struct-plus-switch style.
type Cartridge struct {
	rom  []byte
	ram  []byte
	rtc  *RTC

	family      MapperFamily
	hasBattery  bool
	title       string
	romBankMask uint16

	ramEnabled bool
	romBank    uint16
	ramBank    byte
	romMode    byte // MBC1 mode select: 0 = ROM banking, 1 = RAM banking
	mbc3Select byte // MBC3 $4000-5FFF raw value: 0-3 ram bank, 8-C RTC register
	lastLatchWrite byte

	mbc1Lo byte // MBC1 $2000-3FFF register, zero-quirk already folded in
	mbc1Hi byte // MBC1 $4000-5FFF register (2 bits), ROM-mode upper bank bits
}

// NewCartridge parses a ROM image's header and constructs the matching
// mapper state. now is only consulted when the header indicates an
// MBC3+RTC+battery cartridge.
func NewCartridge(rom []byte, now func() time.Time) (*Cartridge, error) {
	if len(rom) < 0x150 {
		return nil, ErrROMTooSmall
	}
	cartType := rom[0x147]
	ramSizeByte := rom[0x149]

	family, err := mapperFamilyFor(cartType)
	if err != nil {
		return nil, err
	}

	ramSize := 0
	if int(ramSizeByte) < len(ramSizeTable) {
		ramSize = ramSizeTable[ramSizeByte]
	}
	if family == MapperMBC2 {
		ramSize = 512
	} else if ramSize == 0 && impliedRAMTypes[cartType] {
		ramSize = 2 * 1024
	}

	c := &Cartridge{
		rom:        rom,
		ram:        make([]byte, ramSize),
		family:     family,
		hasBattery: batteryTypes[cartType],
		title:      titleFromHeader(rom),
		romBank:    1,
	}

	romBanks := len(rom) / 0x4000
	mask := uint16(1)
	for mask < uint16(romBanks) {
		mask <<= 1
	}
	c.romBankMask = mask - 1

	if family == MapperMBC3 && rtcTypes[cartType] {
		if now == nil {
			now = time.Now
		}
		c.rtc = NewRTC(now)
	}

	return c, nil
}

func (c *Cartridge) Title() string      { return c.title }
func (c *Cartridge) HasBattery() bool   { return c.hasBattery }
func (c *Cartridge) ROMChecksum() uint32 { return crc32.ChecksumIEEE(c.rom) }

// GetBatteryData returns a copy of external cartridge RAM for save-file
// persistence.
func (c *Cartridge) GetBatteryData() []byte {
	out := make([]byte, len(c.ram))
	copy(out, c.ram)
	return out
}

// SetBatteryData restores external cartridge RAM from a save file.
func (c *Cartridge) SetBatteryData(data []byte) error {
	if len(data) != len(c.ram) {
		return fmt.Errorf("%w: got %d want %d", ErrBatteryBlobSizeMismatch, len(data), len(c.ram))
	}
	copy(c.ram, data)
	return nil
}

func (c *Cartridge) romBankFor(addr uint16) int {
	switch c.family {
	case MapperNone:
		return int(addr / 0x4000)
	default:
		if addr < 0x4000 {
			return 0
		}
		bank := c.romBank & c.romBankMask
		return int(bank)
	}
}

func (c *Cartridge) ReadROM(addr uint16) byte {
	bank := c.romBankFor(addr)
	off := bank*0x4000 + int(addr%0x4000)
	if off < 0 || off >= len(c.rom) {
		return 0xFF
	}
	return c.rom[off]
}

func (c *Cartridge) WriteROM(addr uint16, val byte) {
	switch c.family {
	case MapperNone:
		// No registers; ROM-only carts ignore writes.
	case MapperMBC1:
		c.writeMBC1(addr, val)
	case MapperMBC2:
		c.writeMBC2(addr, val)
	case MapperMBC3:
		c.writeMBC3(addr, val)
	case MapperMBC5:
		c.writeMBC5(addr, val)
	}
}

func (c *Cartridge) ReadRAM(addr uint16) byte {
	switch c.family {
	case MapperMBC2:
		if len(c.ram) == 0 {
			return 0xFF
		}
		return c.ram[addr%uint16(len(c.ram))] | 0xF0
	case MapperMBC3:
		if c.mbc3Select >= 0x08 && c.mbc3Select <= 0x0C && c.rtc != nil {
			return c.rtc.ReadRegister(int(c.mbc3Select - 0x08))
		}
		return c.readBankedRAM(addr, c.mbc3Select&0x03)
	case MapperMBC1:
		bank := byte(0)
		if c.romMode != 0 {
			bank = c.ramBank
		}
		return c.readBankedRAM(addr, bank)
	case MapperMBC5:
		return c.readBankedRAM(addr, c.ramBank&0x0F)
	default:
		return c.readBankedRAM(addr, 0)
	}
}

func (c *Cartridge) readBankedRAM(addr uint16, bank byte) byte {
	if len(c.ram) == 0 {
		return 0xFF
	}
	off := int(bank)*0x2000 + int(addr)
	if off < 0 || off >= len(c.ram) {
		return 0xFF
	}
	return c.ram[off]
}

func (c *Cartridge) WriteRAM(addr uint16, val byte) {
	if !c.ramEnabled {
		return
	}
	switch c.family {
	case MapperMBC2:
		if len(c.ram) == 0 {
			return
		}
		c.ram[addr%uint16(len(c.ram))] = val & 0x0F
	case MapperMBC3:
		if c.mbc3Select >= 0x08 && c.mbc3Select <= 0x0C && c.rtc != nil {
			c.rtc.WriteRegister(int(c.mbc3Select-0x08), val)
			return
		}
		c.writeBankedRAM(addr, c.mbc3Select&0x03, val)
	case MapperMBC1:
		bank := byte(0)
		if c.romMode != 0 {
			bank = c.ramBank
		}
		c.writeBankedRAM(addr, bank, val)
	case MapperMBC5:
		c.writeBankedRAM(addr, c.ramBank&0x0F, val)
	default:
		c.writeBankedRAM(addr, 0, val)
	}
}

func (c *Cartridge) writeBankedRAM(addr uint16, bank byte, val byte) {
	if len(c.ram) == 0 {
		return
	}
	off := int(bank)*0x2000 + int(addr)
	if off < 0 || off >= len(c.ram) {
		return
	}
	c.ram[off] = val
}

func ramEnableWrite(val byte) bool { return val&0x0F == 0x0A }

func (c *Cartridge) writeMBC1(addr uint16, val byte) {
	switch {
	case addr < 0x2000:
		c.ramEnabled = ramEnableWrite(val)
	case addr < 0x4000:
		bank := val
		if bank&0x1F == 0 {
			bank |= 0x01
		}
		c.mbc1Lo = bank
		c.recomputeMBC1Bank()
	case addr < 0x6000:
		c.mbc1Hi = val & 0x03
		c.ramBank = val & 0x03
		c.recomputeMBC1Bank()
	case addr < 0x8000:
		c.romMode = val & 0x01
		c.recomputeMBC1Bank()
	}
}

// recomputeMBC1Bank derives the effective ROM bank register from the two
// MBC1 write targets so that a $2000-3FFF write never clobbers bits 5-6
// already latched by an earlier $4000-5FFF write (and vice versa).
func (c *Cartridge) recomputeMBC1Bank() {
	if c.romMode == 0 {
		c.romBank = uint16(c.mbc1Lo) | uint16(c.mbc1Hi)<<5
	} else {
		c.romBank = uint16(c.mbc1Lo)
	}
}

func (c *Cartridge) writeMBC2(addr uint16, val byte) {
	if addr >= 0x4000 {
		return
	}
	if addr&0x0100 != 0 {
		bank := val & 0x0F
		if bank == 0 {
			bank = 1
		}
		c.romBank = uint16(bank)
	} else {
		c.ramEnabled = ramEnableWrite(val)
	}
}

func (c *Cartridge) writeMBC3(addr uint16, val byte) {
	switch {
	case addr < 0x2000:
		c.ramEnabled = ramEnableWrite(val)
	case addr < 0x4000:
		bank := val & 0x7F
		if bank == 0 {
			bank = 1
		}
		c.romBank = uint16(bank)
	case addr < 0x6000:
		c.mbc3Select = val
	case addr < 0x8000:
		if c.lastLatchWrite == 0x00 && val == 0x01 && c.rtc != nil {
			c.rtc.Latch()
		}
		c.lastLatchWrite = val
	}
}

func (c *Cartridge) writeMBC5(addr uint16, val byte) {
	switch {
	case addr < 0x2000:
		c.ramEnabled = ramEnableWrite(val)
	case addr < 0x3000:
		c.romBank = c.romBank&0x100 | uint16(val)
	case addr < 0x4000:
		c.romBank = c.romBank&0xFF | uint16(val&0x01)<<8
	case addr < 0x6000:
		c.ramBank = val & 0x0F
	}
}

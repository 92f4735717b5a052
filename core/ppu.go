package core

import "sort"

// PPU owns VRAM, OAM, the LCD register file, the mode FSM, and the
// scanline compositor. It never touches the CPU directly: Update reports
// a render Signal plus whether a STAT condition fired, leaving interrupt
// delivery to Machine.
type PPU struct {
	vram [0x2000]byte
	oam  [160]byte

	lcdc, stat, scy, scx, lyc, bgp, obp0, obp1, wy, wx byte

	fsm          modeFSM
	lastLYCEqual bool

	framebuf [160 * 144 * 4]byte
}

func NewPPU() *PPU {
	return &PPU{}
}

func (p *PPU) lcdEnabled() bool { return p.lcdc&0x80 != 0 }

func (p *PPU) ReadVRAM(off uint16) byte   { return p.vram[off] }
func (p *PPU) WriteVRAM(off uint16, v byte) { p.vram[off] = v }
func (p *PPU) ReadOAM(off uint16) byte    { return p.oam[off] }
func (p *PPU) WriteOAM(off uint16, v byte) { p.oam[off] = v }

func (p *PPU) ReadRegister(addr uint16) byte {
	switch addr {
	case 0xFF40:
		return p.lcdc
	case 0xFF41:
		lyc := byte(0)
		if p.fsm.LY == p.lyc {
			lyc = 0x04
		}
		return 0x80 | p.stat | byte(p.fsm.Mode) | lyc
	case 0xFF42:
		return p.scy
	case 0xFF43:
		return p.scx
	case 0xFF44:
		return p.fsm.LY
	case 0xFF45:
		return p.lyc
	case 0xFF47:
		return p.bgp
	case 0xFF48:
		return p.obp0
	case 0xFF49:
		return p.obp1
	case 0xFF4A:
		return p.wy
	case 0xFF4B:
		return p.wx
	}
	return 0xFF
}

func (p *PPU) WriteRegister(addr uint16, v byte) {
	switch addr {
	case 0xFF40:
		old := p.lcdc
		p.lcdc = v
		if old&0x80 != 0 && v&0x80 == 0 {
			p.fsm.Reset()
		} else if old&0x80 == 0 && v&0x80 != 0 {
			p.fsm.Restart()
		}
	case 0xFF41:
		p.stat = v & 0x78
	case 0xFF42:
		p.scy = v
	case 0xFF43:
		p.scx = v
	case 0xFF44:
		// LY is read-only.
	case 0xFF45:
		p.lyc = v
	case 0xFF47:
		p.bgp = v
	case 0xFF48:
		p.obp0 = v
	case 0xFF49:
		p.obp1 = v
	case 0xFF4A:
		p.wy = v
	case 0xFF4B:
		p.wx = v
	}
}

// Update advances the mode FSM by tcycles T-states and reports the render
// cadence signal plus whether any enabled STAT source fired this call.
func (p *PPU) Update(tcycles int) (Signal, bool) {
	if !p.lcdEnabled() {
		return NoAction, false
	}
	prevMode := p.fsm.Mode
	sig := p.fsm.Advance(tcycles)
	statIRQ := false
	if p.fsm.Mode != prevMode {
		switch p.fsm.Mode {
		case OAMMode:
			if p.stat&0x20 != 0 {
				statIRQ = true
			}
		case HBlankMode:
			if p.stat&0x08 != 0 {
				statIRQ = true
			}
		case VBlankMode:
			if p.stat&0x10 != 0 {
				statIRQ = true
			}
		}
	}
	equal := p.fsm.LY == p.lyc
	if equal && !p.lastLYCEqual && p.stat&0x40 != 0 {
		statIRQ = true
	}
	p.lastLYCEqual = equal
	return sig, statIRQ
}

// RenderScanline composites the background, window, and sprite layers for
// the current LY into the framebuffer.
func (p *PPU) RenderScanline() {
	y := int(p.fsm.LY)
	if y < 0 || y >= 144 {
		return
	}
	bgp := UnpackPalette(p.bgp)

	var shadeRow [160]byte
	for i := range shadeRow {
		shadeRow[i] = bgp[0]
	}

	if p.lcdc&0x01 != 0 {
		p.renderBackground(y, &shadeRow, bgp)
		if p.lcdc&0x20 != 0 {
			p.renderWindow(y, &shadeRow, bgp)
		}
	}

	if p.lcdc&0x02 != 0 {
		p.renderSprites(y, &shadeRow, bgp)
	}

	for px := 0; px < 160; px++ {
		p.setPixel(px, y, shadeRow[px])
	}
}

func (p *PPU) resolveTileIndex(tileNum byte) int {
	if p.lcdc&0x10 != 0 {
		return int(tileNum)
	}
	return 256 + int(int8(tileNum))
}

func (p *PPU) renderBackground(y int, shadeRow *[160]byte, bgp [4]byte) {
	mapBase := uint16(0x1800)
	if p.lcdc&0x08 != 0 {
		mapBase = 0x1C00
	}
	for px := 0; px < 160; px++ {
		sy := (int(p.scy) + y) & 0xFF
		sx := (int(p.scx) + px) & 0xFF
		mapIdx := (sy/8)*32 + sx/8
		tileNum := p.vram[mapBase+uint16(mapIdx)]
		row := TileRow(p.vram[:0x1800], p.resolveTileIndex(tileNum), sy%8)
		shadeRow[px] = bgp[row[sx%8]]
	}
}

func (p *PPU) renderWindow(y int, shadeRow *[160]byte, bgp [4]byte) {
	if y < int(p.wy) {
		return
	}
	mapBase := uint16(0x1800)
	if p.lcdc&0x40 != 0 {
		mapBase = 0x1C00
	}
	winY := y - int(p.wy)
	wx := int(p.wx) - 7
	for px := 0; px < 160; px++ {
		sx := px - wx
		if sx < 0 {
			continue
		}
		mapIdx := (winY/8)*32 + sx/8
		if mapIdx < 0 || mapIdx >= 1024 {
			continue
		}
		tileNum := p.vram[mapBase+uint16(mapIdx)]
		row := TileRow(p.vram[:0x1800], p.resolveTileIndex(tileNum), winY%8)
		shadeRow[px] = bgp[row[sx%8]]
	}
}

func (p *PPU) renderSprites(y int, shadeRow *[160]byte, bgp [4]byte) {
	height := 8
	if p.lcdc&0x04 != 0 {
		height = 16
	}

	type entry struct {
		sp  Sprite
		idx int
	}
	var sprites []entry
	for i := 0; i < 40; i++ {
		sp := SpriteAt(p.oam[:], i)
		dy := y - sp.DisplayY()
		if dy < 0 || dy >= height {
			continue
		}
		sprites = append(sprites, entry{sp, i})
	}
	sort.Slice(sprites, func(a, b int) bool {
		if sprites[a].sp.DisplayX() != sprites[b].sp.DisplayX() {
			return sprites[a].sp.DisplayX() < sprites[b].sp.DisplayX()
		}
		return sprites[a].idx < sprites[b].idx
	})

	obp := [2][4]byte{UnpackPalette(p.obp0), UnpackPalette(p.obp1)}
	bg0 := bgp[0]
	var painted [160]bool

	for _, e := range sprites {
		sp := e.sp
		dy := y - sp.DisplayY()
		if sp.FlipY() {
			dy = height - 1 - dy
		}
		tileIdx := int(sp.Tile)
		if height == 16 {
			tileIdx &^= 1
			if dy >= 8 {
				tileIdx |= 1
				dy -= 8
			}
		}
		row := TileRow(p.vram[:0x1800], tileIdx, dy)
		for col := 0; col < 8; col++ {
			sx := sp.DisplayX() + col
			if sx < 0 || sx >= 160 || painted[sx] {
				continue
			}
			c := col
			if sp.FlipX() {
				c = 7 - col
			}
			colorIdx := row[c]
			if colorIdx == 0 {
				continue
			}
			if sp.BehindBG() && shadeRow[sx] != bg0 {
				continue
			}
			shadeRow[sx] = obp[sp.PaletteIndex()][colorIdx]
			painted[sx] = true
		}
	}
}

func shadeColor(shade byte) (r, g, b byte) {
	switch shade {
	case 0:
		return 255, 255, 255
	case 1:
		return 128, 128, 128
	case 2:
		return 64, 64, 64
	default:
		return 0, 0, 0
	}
}

func (p *PPU) setPixel(px, y int, shade byte) {
	idx := (y*160 + px) * 4
	r, g, b := shadeColor(shade)
	p.framebuf[idx] = r
	p.framebuf[idx+1] = g
	p.framebuf[idx+2] = b
	p.framebuf[idx+3] = 255
}

// Render returns the current RGBA framebuffer, zeroed when the LCD is
// disabled.
func (p *PPU) Render() []byte {
	out := make([]byte, len(p.framebuf))
	if p.lcdEnabled() {
		copy(out, p.framebuf[:])
	}
	return out
}

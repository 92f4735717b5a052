package core

import "time"

// Screen dimensions of the rendered framebuffer.
const (
	ScreenWidth  = 160
	ScreenHeight = 144
)

// Machine aggregates the cartridge, PPU, WRAM, timer, I/O, bus, and CPU
// into the runnable handheld, forwarding the host-facing operations
// (Tick, Render, PressButton, battery persistence) to its components.
type Machine struct {
	cart  *Cartridge
	ppu   *PPU
	wram  *WRAM
	timer *Timer
	io    *IO
	bus   *Bus
	cpu   *CPU
}

// New parses rom and constructs a fully wired Machine at its post-boot
// state (registers and I/O set to the values a real boot ROM leaves
// behind). now is forwarded to the cartridge's RTC, if any; pass nil to
// use the real wall clock.
func New(rom []byte, now func() time.Time) (*Machine, error) {
	cart, err := NewCartridge(rom, now)
	if err != nil {
		return nil, err
	}

	ppu := NewPPU()
	wram := NewWRAM()
	timer := NewTimer()
	io := NewIO()
	bus := NewBus(cart, ppu, wram, timer, io)
	cpu := NewCPU(bus)

	m := &Machine{cart: cart, ppu: ppu, wram: wram, timer: timer, io: io, bus: bus, cpu: cpu}
	m.postBoot()
	return m, nil
}

func (m *Machine) postBoot() {
	m.cpu.Reg.SetAF(0x01B0)
	m.cpu.Reg.SetBC(0x0013)
	m.cpu.Reg.SetDE(0x00D8)
	m.cpu.Reg.SetHL(0x014D)
	m.cpu.Reg.SP = 0xFFFE
	m.cpu.Reg.PC = 0x0100
	m.cpu.IME = false

	m.bus.Write(0xFF40, 0x91) // LCDC
	m.bus.Write(0xFF47, 0xFC) // BGP
	m.bus.Write(0xFF48, 0xFF) // OBP0
	m.bus.Write(0xFF49, 0xFF) // OBP1
	m.bus.Write(0xFF05, 0x00) // TIMA
	m.bus.Write(0xFF06, 0x00) // TMA
	m.bus.Write(0xFF07, 0x00) // TAC

	// Sound registers: the core never synthesizes audio (Non-goal), but
	// commercial ROMs poll these as ordinary I/O and expect the boot ROM's
	// values, so the generic register file is seeded the same way.
	m.bus.Write(0xFF10, 0x80)
	m.bus.Write(0xFF11, 0xBF)
	m.bus.Write(0xFF12, 0xF3)
	m.bus.Write(0xFF14, 0xBF)
	m.bus.Write(0xFF16, 0x3F)
	m.bus.Write(0xFF19, 0xBF)
	m.bus.Write(0xFF1A, 0x7F)
	m.bus.Write(0xFF1B, 0xFF)
	m.bus.Write(0xFF1C, 0x9F)
	m.bus.Write(0xFF1E, 0xBF)
	m.bus.Write(0xFF20, 0xFF)
	m.bus.Write(0xFF23, 0xBF)
	m.bus.Write(0xFF24, 0x77)
	m.bus.Write(0xFF25, 0xF3)
	m.bus.Write(0xFF26, 0xF1)
}

// Tick executes exactly one CPU instruction, steps the PPU and timer by
// the cycles it consumed, delivers at most one pending interrupt, and
// reports whether a full frame just completed.
func (m *Machine) Tick() bool {
	cycles := m.cpu.Step()

	sig, statIRQ := m.ppu.Update(cycles)
	if sig == RenderLine || sig == RenderFrame {
		m.ppu.RenderScanline()
	}
	if statIRQ {
		m.bus.RaiseInterrupt(IntStat)
	}
	if sig == RenderFrame {
		m.bus.RaiseInterrupt(IntVBlank)
	}

	if m.timer.Step(cycles) {
		m.bus.RaiseInterrupt(IntTimer)
	}
	if m.io.ConsumeJoypadIRQ() {
		m.bus.RaiseInterrupt(IntJoypad)
	}

	m.cpu.ServiceInterrupts()

	return sig == RenderFrame
}

// PressButton sets or clears one of the eight joypad inputs.
func (m *Machine) PressButton(b Button, pressed bool) {
	m.io.Press(b, pressed)
}

// Render returns the current RGBA framebuffer (160x144x4 bytes).
func (m *Machine) Render() []byte {
	return m.ppu.Render()
}

func (m *Machine) GetTitle() string { return m.cart.Title() }

func (m *Machine) HasBattery() bool { return m.cart.HasBattery() }

func (m *Machine) IsBatteryDirty() bool { return m.cpu.IsBatteryDirty() }

func (m *Machine) CleanBattery() { m.cpu.CleanBattery() }

func (m *Machine) GetBatteryData() []byte { return m.cart.GetBatteryData() }

func (m *Machine) SetBatteryData(data []byte) error { return m.cart.SetBatteryData(data) }

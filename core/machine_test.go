package core

import "testing"

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	rom := makeROM(0x00, 0x00, 2)
	m, err := New(rom, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestMachinePostBootRegisterState(t *testing.T) {
	m := newTestMachine(t)
	if m.cpu.Reg.AF() != 0x01B0 {
		t.Errorf("AF = %04X, want 01B0", m.cpu.Reg.AF())
	}
	if m.cpu.Reg.BC() != 0x0013 || m.cpu.Reg.DE() != 0x00D8 || m.cpu.Reg.HL() != 0x014D {
		t.Errorf("BC/DE/HL = %04X/%04X/%04X, want 0013/00D8/014D", m.cpu.Reg.BC(), m.cpu.Reg.DE(), m.cpu.Reg.HL())
	}
	if m.cpu.Reg.SP != 0xFFFE || m.cpu.Reg.PC != 0x0100 {
		t.Errorf("SP/PC = %04X/%04X, want FFFE/0100", m.cpu.Reg.SP, m.cpu.Reg.PC)
	}
	if m.cpu.IME {
		t.Error("IME should start false")
	}
}

func TestMachinePostBootIORegisterState(t *testing.T) {
	m := newTestMachine(t)
	if got := m.bus.Read(0xFF40); got != 0x91 {
		t.Errorf("LCDC = %02X, want 91", got)
	}
	if got := m.bus.Read(0xFF47); got != 0xFC {
		t.Errorf("BGP = %02X, want FC", got)
	}
}

func TestMachineBootFrameIsAllWhite(t *testing.T) {
	m := newTestMachine(t)
	for !m.Tick() {
	}
	out := m.Render()
	for i := 0; i < len(out); i += 4 {
		if out[i] != 0xFF || out[i+1] != 0xFF || out[i+2] != 0xFF {
			t.Fatalf("pixel at %d = %v, want white (blank VRAM/tile 0)", i/4, out[i:i+3])
		}
	}
}

func TestMachinePressButtonRaisesJoypadInterruptNextTick(t *testing.T) {
	m := newTestMachine(t)
	m.bus.Write(0xFFFF, IntJoypad) // enable joypad interrupt
	m.PressButton(ButtonStart, true)
	m.Tick()
	if m.bus.ifReg&IntJoypad == 0 {
		t.Fatalf("expected joypad IF bit set after press, IF=%02X", m.bus.ifReg)
	}
}

func TestMachineTitleAndBatteryForwarding(t *testing.T) {
	rom := makeROM(0x03, 0x02, 4)
	copy(rom[0x134:], []byte("ZELDA\x00"))
	m, err := New(rom, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.GetTitle() != "ZELDA" {
		t.Fatalf("GetTitle = %q, want ZELDA", m.GetTitle())
	}
	if !m.HasBattery() {
		t.Fatal("expected battery flag for cart type 03")
	}
	if m.IsBatteryDirty() {
		t.Fatal("battery should start clean")
	}
}

func TestMachineBatteryDirtyPropagatesFromCPUWrite(t *testing.T) {
	rom := makeROM(0x03, 0x02, 4)
	m, err := New(rom, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m.bus.Write(0x0000, 0x0A) // enable cart RAM
	m.cpu.write(0xA000, 0x55)
	if !m.IsBatteryDirty() {
		t.Fatal("expected battery-dirty after write into $A000-$BFFF")
	}
	m.CleanBattery()
	if m.IsBatteryDirty() {
		t.Fatal("expected battery-dirty cleared after CleanBattery")
	}
}

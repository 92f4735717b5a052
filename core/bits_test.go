package core

import "testing"

func TestGetSetBit(t *testing.T) {
	var b byte = 0
	b = SetBit(b, 3, true)
	if !GetBit(b, 3) {
		t.Fatalf("expected bit 3 set, got %08b", b)
	}
	b = SetBit(b, 3, false)
	if GetBit(b, 3) {
		t.Fatalf("expected bit 3 clear, got %08b", b)
	}
}

func TestToUint16RoundTrip(t *testing.T) {
	v := ToUint16(0x12, 0x34)
	if v != 0x1234 {
		t.Fatalf("got %04X want 1234", v)
	}
	if HiByte(v) != 0x12 || LoByte(v) != 0x34 {
		t.Fatalf("got hi=%02X lo=%02X", HiByte(v), LoByte(v))
	}
}

func TestHalfCarryAdd(t *testing.T) {
	cases := []struct {
		a, b byte
		want bool
	}{
		{0x0F, 0x01, true},
		{0x08, 0x01, false},
		{0xFF, 0x01, true},
	}
	for _, c := range cases {
		if got := HalfCarryAdd(c.a, c.b); got != c.want {
			t.Errorf("HalfCarryAdd(%02X,%02X) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestHalfCarrySub(t *testing.T) {
	if !HalfCarrySub(0x10, 0x01) {
		t.Fatal("expected borrow from bit 4")
	}
	if HalfCarrySub(0x11, 0x01) {
		t.Fatal("expected no borrow")
	}
}

func TestAddHLFlags(t *testing.T) {
	result, half, carry := AddHLFlags(0x0FFF, 0x0001)
	if result != 0x1000 || !half || carry {
		t.Fatalf("got result=%04X half=%v carry=%v", result, half, carry)
	}
	result, half, carry = AddHLFlags(0xFFFF, 0x0001)
	if result != 0x0000 || !half || !carry {
		t.Fatalf("got result=%04X half=%v carry=%v", result, half, carry)
	}
}

func TestPaletteRoundTrip(t *testing.T) {
	for b := 0; b < 256; b++ {
		p := UnpackPalette(byte(b))
		if got := PackPalette(p); got != byte(b) {
			t.Fatalf("PackPalette(UnpackPalette(%02X)) = %02X", b, got)
		}
	}
}

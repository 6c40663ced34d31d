// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package is31fl3731

import (
	"testing"
)

func allLEDs() []LED {
	var out []LED
	for m := MatrixA; m <= MatrixB; m++ {
		for r := uint8(1); r <= Rows; r++ {
			for c := uint8(1); c <= Cols; c++ {
				out = append(out, LED{Matrix: m, Row: r, Col: c})
			}
		}
	}
	return out
}

func TestLEDRoundTrip(t *testing.T) {
	pwm := map[byte]LED{}
	ctrl := map[[2]byte]LED{}
	for _, l := range allLEDs() {
		if !l.Valid() {
			t.Fatalf("%s not valid", l)
		}
		reg, bit := l.Control()
		if reg >= BlinkOffset || bit >= Cols {
			t.Fatalf("%s control = %#x:%d", l, reg, bit)
		}
		if prev, ok := ctrl[[2]byte{reg, bit}]; ok {
			t.Fatalf("%s and %s share control bit", l, prev)
		}
		ctrl[[2]byte{reg, bit}] = l
		if got, err := LEDFromControl(reg, bit); err != nil || got != l {
			t.Errorf("LEDFromControl(%#x, %d) = %s, %v; want %s", reg, bit, got, err, l)
		}

		breg, bbit := l.Blink()
		if breg != reg+BlinkOffset || bbit != bit {
			t.Errorf("%s blink = %#x:%d", l, breg, bbit)
		}
		if got, err := LEDFromControl(breg, bbit); err != nil || got != l {
			t.Errorf("LEDFromControl(%#x, %d) = %s, %v; want %s", breg, bbit, got, err, l)
		}

		p := l.PWM()
		if p < PWMOffset || p >= PageSize {
			t.Fatalf("%s PWM = %#x", l, p)
		}
		if prev, ok := pwm[p]; ok {
			t.Fatalf("%s and %s share PWM register %#x", l, prev, p)
		}
		pwm[p] = l
		if got, err := LEDFromPWM(p); err != nil || got != l {
			t.Errorf("LEDFromPWM(%#x) = %s, %v; want %s", p, got, err, l)
		}
	}
	if len(pwm) != NumLEDs || len(ctrl) != NumLEDs {
		t.Errorf("got %d PWM and %d control addresses, want %d", len(pwm), len(ctrl), NumLEDs)
	}
}

func TestLEDLayout(t *testing.T) {
	data := []struct {
		l    LED
		ctrl byte
		bit  uint8
		pwm  byte
	}{
		{LED{MatrixA, 1, 1}, 0x00, 0, 0x24},
		{LED{MatrixB, 1, 1}, 0x01, 0, 0x2c},
		{LED{MatrixA, 2, 8}, 0x02, 7, 0x3b},
		{LED{MatrixA, 4, 8}, 0x06, 7, 0x5b},
		{LED{MatrixB, 9, 8}, 0x11, 7, 0xb3},
	}
	for _, line := range data {
		reg, bit := line.l.Control()
		if reg != line.ctrl || bit != line.bit || line.l.PWM() != line.pwm {
			t.Errorf("%s: control %#x:%d pwm %#x; want %#x:%d pwm %#x", line.l, reg, bit, line.l.PWM(), line.ctrl, line.bit, line.pwm)
		}
	}
}

func TestLEDInvalid(t *testing.T) {
	for _, l := range []LED{{MatrixA, 0, 1}, {MatrixA, 10, 1}, {MatrixB, 1, 0}, {MatrixB, 1, 9}, {2, 1, 1}} {
		if l.Valid() {
			t.Errorf("%s reported valid", l)
		}
	}
	if _, err := LEDFromControl(0x24, 0); err == nil {
		t.Error("LEDFromControl(0x24) should fail")
	}
	if _, err := LEDFromControl(0, 8); err == nil {
		t.Error("LEDFromControl(bit 8) should fail")
	}
	if _, err := LEDFromPWM(0x23); err == nil {
		t.Error("LEDFromPWM(0x23) should fail")
	}
	if _, err := LEDFromPWM(0xb4); err == nil {
		t.Error("LEDFromPWM(0xb4) should fail")
	}
}

func TestMask(t *testing.T) {
	m := WhiteFoxMask
	if n := m.Count(); n != 71 {
		t.Errorf("WhiteFoxMask has %d LEDs, want 71", n)
	}
	leds := m.LEDs()
	if len(leds) != 71 {
		t.Fatalf("LEDs() = %d", len(leds))
	}
	if got := MaskOf(leds...); got != WhiteFoxMask {
		t.Errorf("MaskOf(LEDs()) = % x", got)
	}
	last := LED{MatrixA, 9, 8}
	if m.Has(last) {
		t.Errorf("%s should be absent", last)
	}
	m.Set(last)
	if !m.Has(last) || m[0x10] != 0xff {
		t.Errorf("Set(%s) = % x", last, m)
	}
	m.Clear(last)
	if m != WhiteFoxMask {
		t.Errorf("Clear(%s) = % x", last, m)
	}
	game := MaskOf(LED{MatrixA, 3, 3}, LED{MatrixB, 3, 3})
	if and := game.And(WhiteFoxMask); and.Count() != 1 {
		t.Errorf("And() = % x", and)
	}
}

func TestFrame(t *testing.T) {
	var f Frame
	l := LED{MatrixB, 5, 2}
	f.Set(l, 0x42)
	if f.Get(l) != 0x42 || f[l.PWM()-PWMOffset] != 0x42 {
		t.Errorf("Get(%s) = %#x", l, f.Get(l))
	}
	f.Set(LED{}, 0xff)
	if f.Get(LED{}) != 0 {
		t.Error("invalid LED stored")
	}
	f = Frame{}
	f.Fill(WhiteFoxMask, 0xff)
	n := 0
	for _, v := range f {
		if v == 0xff {
			n++
		}
	}
	if n != 71 {
		t.Errorf("Fill() set %d LEDs, want 71", n)
	}
}

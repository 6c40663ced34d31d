// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package is31fl3731

import (
	"errors"
	"fmt"
)

// Page identifies one of the register banks of the chip.
//
// Pages 0 to 7 are the LED frames. FunctionPage is the bank holding the global
// control registers.
type Page uint8

const (
	// NumFrames is the number of LED frame pages.
	NumFrames = 8
	// FunctionPage selects the function register bank. It is sent on the wire
	// as 0x0B.
	FunctionPage Page = NumFrames
)

func (p Page) valid() bool {
	return p <= FunctionPage
}

// wire returns the value written to the command register to select p.
func (p Page) wire() byte {
	if p == FunctionPage {
		return functionBank
	}
	return byte(p)
}

// size returns the number of addressable registers in the page.
func (p Page) size() int {
	if p == FunctionPage {
		return FunctionPageSize
	}
	return PageSize
}

func (p Page) String() string {
	if p == FunctionPage {
		return "function"
	}
	return fmt.Sprintf("frame%d", uint8(p))
}

const (
	commandRegister byte = 0xFD
	functionBank    byte = 0x0B
)

// LED frame layout.
const (
	ControlOffset byte = 0x00
	BlinkOffset   byte = 0x12
	PWMOffset     byte = 0x24

	// ControlSize is the number of on/off (and blink) control bytes.
	ControlSize = 0x12
	// NumLEDs is the number of PWM registers in a frame.
	NumLEDs = 0x90
	// PageSize is the number of registers in a frame page.
	PageSize = 0xB4
	// FunctionPageSize is the number of registers in the function page.
	FunctionPageSize = 0x0D
)

// Function page registers.
const (
	RegConfig       byte = 0x00
	RegPictureFrame byte = 0x01
	RegAutoPlay1    byte = 0x02
	RegAutoPlay2    byte = 0x03
	RegDisplay      byte = 0x05
	RegAudioSync    byte = 0x06
	RegFrameState   byte = 0x07
	RegBreath1      byte = 0x08
	RegBreath2      byte = 0x09
	RegShutdown     byte = 0x0A
	RegAGC          byte = 0x0B
	RegAudioADCRate byte = 0x0C
)

const (
	shutdownAsserted byte = 0x00
	shutdownReleased byte = 0x01
)

// Matrix is one of the two LED matrices driven by the chip.
type Matrix uint8

const (
	MatrixA Matrix = iota
	MatrixB
)

func (m Matrix) String() string {
	if m == MatrixB {
		return "B"
	}
	return "A"
}

const (
	// Rows is the number of rows (CAx/CBx lines) per matrix.
	Rows = 9
	// Cols is the number of LEDs on a row.
	Cols = 8
)

var errInvalidLED = errors.New("is31fl3731: invalid LED")

// LED addresses a single LED as (matrix, row, column). Row and Col are 1-based,
// as printed in the datasheet.
type LED struct {
	Matrix Matrix
	Row    uint8
	Col    uint8
}

// Valid reports whether the LED is addressable on the chip.
func (l LED) Valid() bool {
	return l.Matrix <= MatrixB && l.Row >= 1 && l.Row <= Rows && l.Col >= 1 && l.Col <= Cols
}

// line returns the interleaved index of the LED row: CA1, CB1, CA2, CB2, ...
func (l LED) line() int {
	return 2*(int(l.Row)-1) + int(l.Matrix)
}

// Control returns the on/off control register and bit for the LED.
func (l LED) Control() (reg byte, bit uint8) {
	return ControlOffset + byte(l.line()), l.Col - 1
}

// Blink returns the blink control register and bit for the LED.
func (l LED) Blink() (reg byte, bit uint8) {
	return BlinkOffset + byte(l.line()), l.Col - 1
}

// PWM returns the PWM register of the LED.
func (l LED) PWM() byte {
	return PWMOffset + byte(l.index())
}

// index returns the position of the LED within the PWM block.
func (l LED) index() int {
	return Cols*l.line() + int(l.Col) - 1
}

func (l LED) String() string {
	return fmt.Sprintf("C%s%d-%d", l.Matrix, l.Row, l.Col)
}

func ledFromLine(line int, bit uint8) LED {
	return LED{Matrix: Matrix(line % 2), Row: uint8(line/2) + 1, Col: bit + 1}
}

// LEDFromControl returns the LED controlled by bit of the on/off or blink
// control register reg.
func LEDFromControl(reg byte, bit uint8) (LED, error) {
	if bit >= Cols {
		return LED{}, errInvalidLED
	}
	switch {
	case reg < BlinkOffset:
		return ledFromLine(int(reg-ControlOffset), bit), nil
	case reg < PWMOffset:
		return ledFromLine(int(reg-BlinkOffset), bit), nil
	}
	return LED{}, errInvalidLED
}

// LEDFromPWM returns the LED driven by the PWM register reg.
func LEDFromPWM(reg byte) (LED, error) {
	if reg < PWMOffset || reg >= PageSize {
		return LED{}, errInvalidLED
	}
	i := int(reg - PWMOffset)
	return ledFromLine(i/Cols, uint8(i%Cols)), nil
}

// Mask is a bitmap of LEDs using the layout of the on/off control registers.
type Mask [ControlSize]byte

// WhiteFoxMask lists the LEDs populated on the WhiteFox keyboard: rows 1 to 8
// of matrix A plus the first seven LEDs of row 9.
var WhiteFoxMask = Mask{
	0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF,
	0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0x7F, 0x00,
}

// MaskOf returns a Mask with the given LEDs set. Invalid LEDs are ignored.
func MaskOf(leds ...LED) Mask {
	var m Mask
	for _, l := range leds {
		m.Set(l)
	}
	return m
}

// Has reports whether l is set in the mask.
func (m *Mask) Has(l LED) bool {
	if !l.Valid() {
		return false
	}
	reg, bit := l.Control()
	return m[reg]&(1<<bit) != 0
}

// Set adds l to the mask.
func (m *Mask) Set(l LED) {
	if !l.Valid() {
		return
	}
	reg, bit := l.Control()
	m[reg] |= 1 << bit
}

// Clear removes l from the mask.
func (m *Mask) Clear(l LED) {
	if !l.Valid() {
		return
	}
	reg, bit := l.Control()
	m[reg] &^= 1 << bit
}

// And returns the LEDs set in both masks.
func (m Mask) And(o Mask) Mask {
	for i := range m {
		m[i] &= o[i]
	}
	return m
}

// LEDs returns the LEDs set in the mask, in register order.
func (m *Mask) LEDs() []LED {
	var out []LED
	for i, b := range m {
		for bit := uint8(0); bit < Cols; bit++ {
			if b&(1<<bit) != 0 {
				out = append(out, ledFromLine(i, bit))
			}
		}
	}
	return out
}

// Count returns the number of LEDs set in the mask.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m {
		for ; b != 0; b &= b - 1 {
			n++
		}
	}
	return n
}

// Frame is the content of the PWM block of a frame page, one byte per LED in
// register order.
type Frame [NumLEDs]byte

// Set sets the PWM value of l. Invalid LEDs are ignored.
func (f *Frame) Set(l LED, v byte) {
	if l.Valid() {
		f[l.index()] = v
	}
}

// Get returns the PWM value of l.
func (f *Frame) Get(l LED) byte {
	if !l.Valid() {
		return 0
	}
	return f[l.index()]
}

// Fill sets every LED of m to v.
func (f *Frame) Fill(m Mask, v byte) {
	for _, l := range m.LEDs() {
		f[l.index()] = v
	}
}

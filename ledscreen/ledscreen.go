// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ledscreen prints the content of an IS31FL3731 frame to a terminal
// using ANSI color codes.
//
// Useful to try key bindings without the keyboard at hand.
package ledscreen

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/ledmatrix/is31fl3731"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Opts represents the options available for this display.
type Opts struct {
	// W is where the frame is printed. nil means stdout.
	W       io.Writer
	Palette *ansi256.Palette
	// Tint is the color of an LED at full brightness.
	Tint color.NRGBA

	_ struct{}
}

// Dev prints frames of the chip as a grid of 9 rows; matrix A on the left
// and matrix B on the right.
type Dev struct {
	w       io.Writer
	palette ansi256.Palette
	tint    color.NRGBA

	buf bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	tint := opts.Tint
	if tint == (color.NRGBA{}) {
		tint = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return &Dev{w: w, palette: *p, tint: tint}
}

func (d *Dev) String() string {
	return "LEDScreen"
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// Show prints a frame page: the registers 0x00 to 0xB3 of the chip. An LED
// is drawn with its PWM brightness when its control bit is set, and dark
// otherwise.
func (d *Dev) Show(page []byte) error {
	if len(page) != is31fl3731.PageSize {
		return errors.New("ledscreen: invalid page length")
	}
	var ctrl is31fl3731.Mask
	copy(ctrl[:], page[is31fl3731.ControlOffset:])
	d.buf.Reset()
	_, _ = d.buf.WriteString("\033[0m")
	for row := uint8(1); row <= is31fl3731.Rows; row++ {
		for m := is31fl3731.MatrixA; m <= is31fl3731.MatrixB; m++ {
			for col := uint8(1); col <= is31fl3731.Cols; col++ {
				l := is31fl3731.LED{Matrix: m, Row: row, Col: col}
				v := byte(0)
				if ctrl.Has(l) {
					v = page[l.PWM()]
				}
				_, _ = io.WriteString(&d.buf, d.palette.Block(d.scale(v)))
			}
			_, _ = d.buf.WriteString("\033[0m ")
		}
		_, _ = fmt.Fprintf(&d.buf, "\033[0m %d\n", row)
	}
	// Move back up so the next frame overwrites this one.
	_, _ = fmt.Fprintf(&d.buf, "\033[%dA", is31fl3731.Rows)
	_, err := d.buf.WriteTo(d.w)
	return err
}

func (d *Dev) scale(v byte) color.NRGBA {
	return color.NRGBA{
		R: byte(uint16(d.tint.R) * uint16(v) / 255),
		G: byte(uint16(d.tint.G) * uint16(v) / 255),
		B: byte(uint16(d.tint.B) * uint16(v) / 255),
		A: 255,
	}
}

var _ fmt.Stringer = &Dev{}

// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ledctl connects keyboard events to an IS31FL3731 without ever
// blocking the code scanning the keys.
//
// Key handling posts Commands through a Bridge into a mailbox. A Controller
// running in its own goroutine receives them and is the only writer to the
// chip once Setup returned.
package ledctl

import (
	"fmt"

	"github.com/GermanBionicSystems/ledmatrix/is31fl3731"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
)

// Command is a request sent to the Controller. It carries no payload.
type Command uint8

const (
	// ToggleAll switches every present LED between full brightness and off.
	ToggleAll Command = iota + 1
	// ToggleGame switches the game LEDs between full brightness and off.
	ToggleGame
	// CapsLockOn lights the caps lock LED.
	CapsLockOn
	// CapsLockOff turns the caps lock LED off.
	CapsLockOff
)

func (c Command) String() string {
	switch c {
	case ToggleAll:
		return "ToggleAll"
	case ToggleGame:
		return "ToggleGame"
	case CapsLockOn:
		return "CapsLockOn"
	case CapsLockOff:
		return "CapsLockOff"
	}
	return fmt.Sprintf("Command(%d)", uint8(c))
}

// GameMask lights W, A, S, D and the arrow keys of the WhiteFox.
var GameMask = is31fl3731.MaskOf(
	is31fl3731.LED{Matrix: is31fl3731.MatrixA, Row: 3, Col: 3},
	is31fl3731.LED{Matrix: is31fl3731.MatrixA, Row: 5, Col: 1},
	is31fl3731.LED{Matrix: is31fl3731.MatrixA, Row: 5, Col: 2},
	is31fl3731.LED{Matrix: is31fl3731.MatrixA, Row: 5, Col: 3},
	is31fl3731.LED{Matrix: is31fl3731.MatrixA, Row: 8, Col: 4},
	is31fl3731.LED{Matrix: is31fl3731.MatrixA, Row: 9, Col: 5},
	is31fl3731.LED{Matrix: is31fl3731.MatrixA, Row: 9, Col: 6},
	is31fl3731.LED{Matrix: is31fl3731.MatrixA, Row: 9, Col: 7},
)

// CapsLockLED sits under the key left of A.
var CapsLockLED = is31fl3731.LED{Matrix: is31fl3731.MatrixA, Row: 4, Col: 8}

// Setup is the early init hook: it resets the chip and enables the LEDs
// present on the board.
//
// On error the returned Dev must not be used. Key handling can keep posting
// Commands; they are dropped once the mailbox fills up.
func Setup(bus i2c.Bus, sdb gpio.PinOut, opts *is31fl3731.Opts, present is31fl3731.Mask) (*is31fl3731.Dev, error) {
	dev, err := is31fl3731.New(bus, sdb, opts)
	if err != nil {
		return nil, err
	}
	if err := dev.Init(); err != nil {
		return nil, err
	}
	if err := dev.EnableLEDs(present); err != nil {
		return nil, err
	}
	return dev, nil
}

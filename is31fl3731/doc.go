// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package is31fl3731 drives the ISSI IS31FL3731 144 LED matrix controller
// over I²C.
//
// The chip exposes eight frame pages and a function page behind a command
// register. Each frame holds the on/off bits, the blink bits and one PWM byte
// per LED, for two 9x8 matrices named A and B.
//
// Init must run before any other write. It walks the chip through hardware
// and software shutdown the way the chip expects at power up.
//
// # Datasheet
//
// https://www.issi.com/WW/pdf/31FL3731.pdf
package is31fl3731

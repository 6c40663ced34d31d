// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ledmatrix is a container for the WhiteFox LED matrix packages.
//
// is31fl3731 is the chip driver, mailbox and ledctl move key events to the
// goroutine owning the chip, and ledscreen previews frames in a terminal.
package ledmatrix

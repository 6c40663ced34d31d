// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package is31fl3731test implements a fake IS31FL3731 that can be used as an
// i2c.Bus in tests and demos.
package is31fl3731test

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

const (
	commandRegister = 0xFD
	functionBank    = 0x0B
	numFrames       = 8
	pageSize        = 0xB4
	functionSize    = 0x0D
	regShutdown     = 0x0A
)

// ErrNoAck is returned by Chip when a transaction is not acknowledged.
var ErrNoAck = errors.New("is31fl3731test: no acknowledge")

// Write is a register write as seen by the chip, after page selection.
type Write struct {
	Page byte // 0-7, or 0x0B for the function page.
	Reg  byte
	Data []byte
}

// Chip emulates the register file of an IS31FL3731.
//
// Frame pages and the function page are kept separately; the selected page is
// tracked the way the chip does, so a write lands in whatever page was
// selected last.
type Chip struct {
	// Addr is the address the chip answers to.
	Addr uint16
	// Fail, if set, is called before each transaction with its sequence
	// number (starting at 0). A non-nil error aborts the transaction with no
	// side effect.
	Fail func(n int, w []byte) error
	// OnChange, if set, is called after each write that modified a register.
	OnChange func()

	mu       sync.Mutex
	n        int
	selected byte
	frames   [numFrames][pageSize]byte
	function [functionSize]byte
	speed    physic.Frequency
	writes   []Write
}

// NewChip returns a chip answering at addr.
func NewChip(addr uint16) *Chip {
	return &Chip{Addr: addr}
}

func (c *Chip) String() string {
	return fmt.Sprintf("is31fl3731test.Chip(%#x)", c.Addr)
}

// SetSpeed implements i2c.Bus.
func (c *Chip) SetSpeed(f physic.Frequency) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f > 400*physic.KiloHertz {
		return errors.New("is31fl3731test: speed too high")
	}
	c.speed = f
	return nil
}

// Close implements i2c.BusCloser.
func (c *Chip) Close() error {
	return nil
}

// Tx implements i2c.Bus.
func (c *Chip) Tx(addr uint16, w, r []byte) error {
	c.mu.Lock()
	n := c.n
	c.n++
	fail := c.Fail
	c.mu.Unlock()
	if fail != nil {
		if err := fail(n, w); err != nil {
			return err
		}
	}

	c.mu.Lock()
	changed, err := c.tx(addr, w, r)
	cb := c.OnChange
	c.mu.Unlock()
	if changed && cb != nil {
		cb()
	}
	return err
}

func (c *Chip) tx(addr uint16, w, r []byte) (bool, error) {
	if addr != c.Addr || len(w) == 0 {
		return false, ErrNoAck
	}
	if w[0] == commandRegister {
		if len(w) != 2 || len(r) != 0 {
			return false, fmt.Errorf("is31fl3731test: bad page select % x", w)
		}
		if w[1] >= numFrames && w[1] != functionBank {
			// The chip ignores unknown pages.
			return false, nil
		}
		c.selected = w[1]
		return false, nil
	}
	page := c.page()
	reg := int(w[0])
	data := w[1:]
	if reg+len(data) > len(page) || reg+len(r) > len(page) {
		return false, fmt.Errorf("is31fl3731test: access past page %#x end at %#x", c.selected, reg)
	}
	copy(page[reg:], data)
	copy(r, page[reg:])
	if len(data) != 0 {
		c.writes = append(c.writes, Write{Page: c.selected, Reg: w[0], Data: append([]byte(nil), data...)})
	}
	return len(data) != 0, nil
}

func (c *Chip) page() []byte {
	if c.selected == functionBank {
		return c.function[:]
	}
	return c.frames[c.selected][:]
}

// Selected returns the page selected by the last page select command.
func (c *Chip) Selected() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Frame returns a copy of the registers of frame page p.
func (c *Chip) Frame(p int) [pageSize]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames[p]
}

// Function returns a copy of the function registers.
func (c *Chip) Function() [functionSize]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.function
}

// Active reports whether the chip is out of software shutdown.
func (c *Chip) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.function[regShutdown]&1 != 0
}

// Speed returns the last bus speed set.
func (c *Chip) Speed() physic.Frequency {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// Writes returns the register writes received so far.
func (c *Chip) Writes() []Write {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Write(nil), c.writes...)
}

// Reset clears the write log.
func (c *Chip) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = nil
}

var _ i2c.BusCloser = &Chip{}

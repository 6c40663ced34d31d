// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ledctl

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/GermanBionicSystems/ledmatrix/is31fl3731"
	"github.com/GermanBionicSystems/ledmatrix/mailbox"
)

// Driver is the subset of *is31fl3731.Dev used by the Controller.
type Driver interface {
	WritePWM(p is31fl3731.Page, f *is31fl3731.Frame) error
}

// Opts configures a Controller.
type Opts struct {
	// Present lists the LEDs populated on the board.
	Present is31fl3731.Mask
	// Game lists the LEDs switched by ToggleGame.
	Game is31fl3731.Mask
	// CapsLock is the LED driven by CapsLockOn and CapsLockOff.
	CapsLock is31fl3731.LED
	// Page is the frame written to.
	Page is31fl3731.Page
	// Logger receives driver errors. nil uses log.Default().
	Logger *log.Logger
	// Applied, if set, is called after each Command was handled.
	Applied func(c Command, err error)
}

// DefaultOpts matches the WhiteFox board.
var DefaultOpts = Opts{
	Present:  is31fl3731.WhiteFoxMask,
	Game:     GameMask,
	CapsLock: CapsLockLED,
}

// Controller owns the chip after Setup. It applies Commands one at a time.
type Controller struct {
	d    Driver
	mb   *mailbox.Mailbox[Command]
	opts Opts

	all  bool
	game bool
	caps bool
}

// NewController returns a Controller receiving from mb. A nil opts uses
// DefaultOpts.
func NewController(d Driver, mb *mailbox.Mailbox[Command], opts *Opts) *Controller {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return &Controller{d: d, mb: mb, opts: o}
}

// Run applies Commands until ctx is canceled. Driver errors are logged and
// do not stop the loop.
func (c *Controller) Run(ctx context.Context) error {
	for {
		cmd, err := c.mb.Receive(ctx)
		if err != nil {
			return err
		}
		err = c.Apply(cmd)
		if err != nil {
			c.opts.Logger.Printf("ledctl: %s: %v", cmd, err)
		}
		if c.opts.Applied != nil {
			c.opts.Applied(cmd, err)
		}
	}
}

var errUnknownCommand = errors.New("ledctl: unknown command")

// Apply updates the LED state for cmd and writes it to the chip.
//
// The state changes even if the write fails; the next Command rewrites the
// whole frame.
func (c *Controller) Apply(cmd Command) error {
	switch cmd {
	case ToggleAll:
		c.all = !c.all
	case ToggleGame:
		c.game = !c.game
	case CapsLockOn:
		c.caps = true
	case CapsLockOff:
		c.caps = false
	default:
		return fmt.Errorf("%w %d", errUnknownCommand, uint8(cmd))
	}
	f := c.Frame()
	return c.d.WritePWM(c.opts.Page, &f)
}

// Frame returns the PWM values for the current state.
func (c *Controller) Frame() is31fl3731.Frame {
	var f is31fl3731.Frame
	switch {
	case c.all:
		f.Fill(c.opts.Present, 0xFF)
	case c.game:
		f.Fill(c.opts.Game.And(c.opts.Present), 0xFF)
	}
	if c.caps && c.opts.Present.Has(c.opts.CapsLock) {
		f.Set(c.opts.CapsLock, 0xFF)
	}
	return f
}

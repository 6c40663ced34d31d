// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package is31fl3731

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultAddress is the address with the AD pin tied to GND.
const DefaultAddress uint16 = 0x74

var (
	// ErrInitFailed is returned by Init on a bus error, and by every write
	// issued after a failed Init.
	ErrInitFailed = errors.New("is31fl3731: initialization failed")
	// ErrNotInitialized is returned by reads and writes issued before Init
	// completed, or after Halt.
	ErrNotInitialized = errors.New("is31fl3731: not initialized")
	// ErrInvalidPage is returned for a page that is neither a frame nor the
	// function page.
	ErrInvalidPage = errors.New("is31fl3731: invalid page")
	// ErrOutOfRange is returned when a write runs past the end of a page.
	ErrOutOfRange = errors.New("is31fl3731: register out of range")

	errInvalidAddress = errors.New("is31fl3731: invalid address")
	errNegativeDelay  = errors.New("is31fl3731: negative duration")
)

// State is the lifecycle state of the chip as known by the driver.
type State uint8

const (
	StateUninitialized State = iota
	// StateReset means the function page is zeroed with the hardware shutdown
	// still asserted.
	StateReset
	StateSoftwareShutdown
	StateActive
	// StateFailed is entered when Init hits a bus error. It is terminal.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReset:
		return "reset"
	case StateSoftwareShutdown:
		return "software-shutdown"
	case StateActive:
		return "active"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Opts holds the configuration of the driver.
//
// A zero Addr, Timeout, SettleTime or PageSettleTime is replaced by the
// value in DefaultOpts; negative durations are rejected.
type Opts struct {
	// Addr is the I²C address of the chip, 0x74 to 0x77.
	Addr uint16
	// Speed is the bus clock. The chip supports up to 400kHz. 0 leaves the
	// bus untouched.
	Speed physic.Frequency
	// Timeout bounds every bus transaction.
	Timeout time.Duration
	// SettleTime is waited after each shutdown change and after releasing
	// the SDB pin.
	SettleTime time.Duration
	// PageSettleTime is waited after clearing each frame page.
	PageSettleTime time.Duration
}

// DefaultOpts is the configuration used when nil is passed to New.
var DefaultOpts = Opts{
	Addr:           DefaultAddress,
	Speed:          400 * physic.KiloHertz,
	Timeout:        100 * time.Millisecond,
	SettleTime:     10 * time.Millisecond,
	PageSettleTime: time.Millisecond,
}

// Dev is a handle to an IS31FL3731 LED matrix driver.
//
// Dev is not safe for concurrent use; after Init a single goroutine is
// expected to own it.
type Dev struct {
	t     *Transport
	sdb   gpio.PinOut
	opts  Opts
	state State
}

// New returns a driver for the chip at opts.Addr on bus. sdb is the pin wired
// to the hardware shutdown input; it may be nil if SDB is tied high.
//
// The chip is not touched until Init is called.
func New(bus i2c.Bus, sdb gpio.PinOut, opts *Opts) (*Dev, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Addr == 0 {
		o.Addr = DefaultAddress
	}
	for _, d := range []struct{ v, def *time.Duration }{
		{&o.Timeout, &DefaultOpts.Timeout},
		{&o.SettleTime, &DefaultOpts.SettleTime},
		{&o.PageSettleTime, &DefaultOpts.PageSettleTime},
	} {
		if *d.v < 0 {
			return nil, errNegativeDelay
		}
		if *d.v == 0 {
			*d.v = *d.def
		}
	}
	if o.Addr < 0x74 || o.Addr > 0x77 {
		return nil, errInvalidAddress
	}
	if o.Speed > 400*physic.KiloHertz {
		return nil, fmt.Errorf("is31fl3731: bus speed %s exceeds 400kHz", o.Speed)
	}
	if o.Speed != 0 {
		if err := bus.SetSpeed(o.Speed); err != nil {
			return nil, wrap(err)
		}
	}
	return &Dev{t: NewTransport(bus, o.Addr, o.Timeout), sdb: sdb, opts: o}, nil
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("is31fl3731: %w", err)
}

// State returns the lifecycle state of the chip.
func (d *Dev) State() State {
	return d.state
}

// SelectPage makes p the active page of the chip.
func (d *Dev) SelectPage(p Page) error {
	if err := d.usable(); err != nil {
		return err
	}
	return d.selectPage(p)
}

// WriteRegister writes v to register reg of page p.
//
// This takes two transactions. If the second one fails the page stays
// selected and the register content is unknown.
func (d *Dev) WriteRegister(p Page, reg, v byte) error {
	if err := d.usable(); err != nil {
		return err
	}
	return d.writeRegister(p, reg, v)
}

// WriteBlock writes data to consecutive registers of page p starting at
// start, in a single burst.
func (d *Dev) WriteBlock(p Page, start byte, data []byte) error {
	if err := d.usable(); err != nil {
		return err
	}
	return d.writeBlock(p, start, data)
}

// ReadRegister returns the content of register reg of page p.
func (d *Dev) ReadRegister(p Page, reg byte) (byte, error) {
	if err := d.usable(); err != nil {
		return 0, err
	}
	if int(reg) >= p.size() {
		return 0, ErrOutOfRange
	}
	if err := d.selectPage(p); err != nil {
		return 0, err
	}
	return d.t.Read(reg)
}

// Init resets the chip and brings it out of shutdown with every LED register
// cleared. Every other read or write requires a successful Init first.
//
// The order of the steps is required by the chip power up behavior. On
// failure the driver refuses any further write.
func (d *Dev) Init() error {
	if d.state == StateFailed {
		return ErrInitFailed
	}
	var zero [PageSize]byte
	steps := []struct {
		name  string
		do    func() error
		to    State
		delay time.Duration
	}{
		{"clear function page", func() error { return d.writeBlock(FunctionPage, 0, zero[:FunctionPageSize]) }, StateReset, 0},
		{"release SDB", d.releaseSDB, StateReset, d.opts.SettleTime},
		{"assert software shutdown", func() error { return d.writeRegister(FunctionPage, RegShutdown, shutdownAsserted) }, StateSoftwareShutdown, d.opts.SettleTime},
		{"clear function page", func() error { return d.writeBlock(FunctionPage, 0, zero[:FunctionPageSize]) }, StateSoftwareShutdown, d.opts.SettleTime},
		{"release software shutdown", func() error { return d.writeRegister(FunctionPage, RegShutdown, shutdownReleased) }, StateActive, d.opts.SettleTime},
	}
	for _, s := range steps {
		if err := s.do(); err != nil {
			return d.fail(s.name, err)
		}
		d.state = s.to
		if s.delay > 0 {
			sleep(s.delay)
		}
	}
	for p := Page(0); p < NumFrames; p++ {
		if err := d.writeBlock(p, 0, zero[:]); err != nil {
			return d.fail("clear "+p.String(), err)
		}
		sleep(d.opts.PageSettleTime)
	}
	return nil
}

func (d *Dev) fail(step string, err error) error {
	d.state = StateFailed
	return fmt.Errorf("%w: %s: %w", ErrInitFailed, step, err)
}

func (d *Dev) releaseSDB() error {
	if d.sdb == nil {
		return nil
	}
	return wrap(d.sdb.Out(gpio.High))
}

// EnableLEDs turns on the control bits of frame 0 for exactly the LEDs in m.
// Every other LED stays off.
func (d *Dev) EnableLEDs(m Mask) error {
	return d.WriteBlock(0, ControlOffset, m[:])
}

// SetLED turns the control bit of l in frame p on or off.
func (d *Dev) SetLED(p Page, l LED, on bool) error {
	if !l.Valid() {
		return errInvalidLED
	}
	reg, bit := l.Control()
	return d.updateBit(p, reg, bit, on)
}

// SetBlink enables or disables blinking of l in frame p.
func (d *Dev) SetBlink(p Page, l LED, on bool) error {
	if !l.Valid() {
		return errInvalidLED
	}
	reg, bit := l.Blink()
	return d.updateBit(p, reg, bit, on)
}

func (d *Dev) updateBit(p Page, reg byte, bit uint8, on bool) error {
	if p == FunctionPage {
		return ErrInvalidPage
	}
	v, err := d.ReadRegister(p, reg)
	if err != nil {
		return err
	}
	n := v &^ (1 << bit)
	if on {
		n |= 1 << bit
	}
	if n == v {
		return nil
	}
	return d.t.Write([]byte{reg, n})
}

// SetPWM sets the brightness of l in frame p.
func (d *Dev) SetPWM(p Page, l LED, v display.Intensity) error {
	if !l.Valid() {
		return errInvalidLED
	}
	if p == FunctionPage {
		return ErrInvalidPage
	}
	if v < 0 || v > 0xFF {
		return ErrOutOfRange
	}
	return d.WriteRegister(p, l.PWM(), byte(v))
}

// WritePWM writes the whole PWM block of frame p in one burst.
func (d *Dev) WritePWM(p Page, f *Frame) error {
	if p == FunctionPage {
		return ErrInvalidPage
	}
	return d.WriteBlock(p, PWMOffset, f[:])
}

// ShowFrame displays frame p in picture mode.
func (d *Dev) ShowFrame(p Page) error {
	if p == FunctionPage {
		return ErrInvalidPage
	}
	return d.WriteRegister(FunctionPage, RegPictureFrame, byte(p))
}

// Halt puts the chip in software shutdown and asserts SDB. Implements
// conn.Resource.
//
// Init must be called again before using the chip.
func (d *Dev) Halt() error {
	if d.state != StateActive {
		return nil
	}
	d.state = StateUninitialized
	if err := d.writeRegister(FunctionPage, RegShutdown, shutdownAsserted); err != nil {
		return err
	}
	if d.sdb != nil {
		if err := d.sdb.Out(gpio.Low); err != nil {
			return wrap(err)
		}
	}
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("IS31FL3731{%s}", d.t)
}

func (d *Dev) usable() error {
	switch d.state {
	case StateActive:
		return nil
	case StateFailed:
		return ErrInitFailed
	}
	return ErrNotInitialized
}

func (d *Dev) selectPage(p Page) error {
	if !p.valid() {
		return ErrInvalidPage
	}
	return d.t.Write([]byte{commandRegister, p.wire()})
}

func (d *Dev) writeRegister(p Page, reg, v byte) error {
	if int(reg) >= p.size() {
		return ErrOutOfRange
	}
	if err := d.selectPage(p); err != nil {
		return err
	}
	return d.t.Write([]byte{reg, v})
}

func (d *Dev) writeBlock(p Page, start byte, data []byte) error {
	if !p.valid() {
		return ErrInvalidPage
	}
	if int(start)+len(data) > p.size() {
		return ErrOutOfRange
	}
	if err := d.selectPage(p); err != nil {
		return err
	}
	w := make([]byte, 1+len(data))
	w[0] = start
	copy(w[1:], data)
	return d.t.Write(w)
}

var sleep = time.Sleep

var _ conn.Resource = &Dev{}

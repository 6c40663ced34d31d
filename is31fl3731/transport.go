// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package is31fl3731

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
)

var (
	// ErrTimeout is returned when a transaction did not complete in time.
	ErrTimeout = errors.New("is31fl3731: bus timeout")
	// ErrBusy is returned while a timed out transaction is still pending on
	// the bus.
	ErrBusy = errors.New("is31fl3731: bus busy")
)

// BusError is returned for any failed bus transaction: timeout, missing
// acknowledge or arbitration loss.
type BusError struct {
	Addr uint16
	W    []byte
	Err  error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("is31fl3731: bus error at %#x writing % x: %v", e.Addr, e.W, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// maxWrite is the largest transaction: a register offset followed by a whole
// frame page.
const maxWrite = 1 + PageSize

// Transport performs raw transactions with a chip on an I²C bus. It knows
// nothing about registers.
//
// Transport is not safe for concurrent use. The scratch buffers are only
// touched by the transaction in flight.
type Transport struct {
	d       i2c.Dev
	timeout time.Duration

	tx      [maxWrite]byte
	rx      [1]byte
	pending chan error
}

// NewTransport returns a Transport talking to addr on bus. A timeout of 0
// waits for the bus driver.
func NewTransport(bus i2c.Bus, addr uint16, timeout time.Duration) *Transport {
	return &Transport{d: i2c.Dev{Bus: bus, Addr: addr}, timeout: timeout}
}

// Write writes w in a single transaction.
func (t *Transport) Write(w []byte) error {
	return t.Tx(w, nil)
}

// Read writes reg and reads back one byte in the same transaction.
func (t *Transport) Read(reg byte) (byte, error) {
	if err := t.tx1([]byte{reg}, t.rx[:]); err != nil {
		return 0, err
	}
	return t.rx[0], nil
}

// Tx writes w then reads len(r) bytes into r.
func (t *Transport) Tx(w, r []byte) error {
	if len(r) > len(t.rx) {
		return &BusError{Addr: t.d.Addr, W: w, Err: errors.New("read too long")}
	}
	if err := t.tx1(w, t.rx[:len(r)]); err != nil {
		return err
	}
	copy(r, t.rx[:len(r)])
	return nil
}

func (t *Transport) tx1(w, r []byte) error {
	if len(w) > len(t.tx) {
		return &BusError{Addr: t.d.Addr, W: w, Err: errors.New("write too long")}
	}
	if t.pending != nil {
		select {
		case <-t.pending:
			t.pending = nil
		default:
			return &BusError{Addr: t.d.Addr, W: w, Err: ErrBusy}
		}
	}
	n := copy(t.tx[:], w)
	buf := t.tx[:n]
	if t.timeout <= 0 {
		if err := t.d.Tx(buf, r); err != nil {
			return &BusError{Addr: t.d.Addr, W: w, Err: err}
		}
		return nil
	}
	done := make(chan error, 1)
	go func() {
		done <- t.d.Tx(buf, r)
	}()
	timer := time.NewTimer(t.timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		if err != nil {
			return &BusError{Addr: t.d.Addr, W: w, Err: err}
		}
		return nil
	case <-timer.C:
		// The transaction still owns the buffers until it returns.
		t.pending = done
		return &BusError{Addr: t.d.Addr, W: w, Err: ErrTimeout}
	}
}

func (t *Transport) String() string {
	return t.d.String()
}

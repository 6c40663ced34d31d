// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ledctl

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/ledmatrix/is31fl3731"
	"github.com/GermanBionicSystems/ledmatrix/is31fl3731/is31fl3731test"
	"github.com/GermanBionicSystems/ledmatrix/mailbox"
	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

type posts []Command

func (p *posts) Post(c Command) error {
	*p = append(*p, c)
	return nil
}

func TestBridgeHandle(t *testing.T) {
	var got posts
	b := NewBridge(&got, nil)
	b.Handle(Event{Action: ActionLEDsAll, Pressed: true})
	b.Handle(Event{Action: ActionLEDsAll, Pressed: false})
	b.Handle(Event{Action: ActionLEDsGame, Pressed: true})
	b.Handle(Event{Action: 42, Pressed: true})
	b.Handle(Event{Action: ActionLEDsGame, Pressed: false})
	if diff := cmp.Diff(got, posts{ToggleAll, ToggleGame}); diff != "" {
		t.Errorf("posted (-got +want):\n%s", diff)
	}
}

func TestBridgeFullMailbox(t *testing.T) {
	mb := mailbox.New[Command](2)
	b := NewBridge(mb, nil)
	for range 5 {
		b.Handle(Event{Action: ActionLEDsGame, Pressed: true})
	}
	if mb.Len() != 2 || mb.Dropped() != 3 {
		t.Errorf("len=%d dropped=%d", mb.Len(), mb.Dropped())
	}
}

func TestBridgeHostLEDs(t *testing.T) {
	var got posts
	b := NewBridge(&got, nil)
	b.SetHostLEDs(false)
	b.SetHostLEDs(true)
	b.SetHostLEDs(true)
	b.SetHostLEDs(false)
	if diff := cmp.Diff(got, posts{CapsLockOn, CapsLockOff}); diff != "" {
		t.Errorf("posted (-got +want):\n%s", diff)
	}

	mb := mailbox.New[Command](1)
	_ = mb.Post(ToggleAll)
	b = NewBridge(mb, nil)
	b.SetHostLEDs(true)
	if mb.Dropped() != 1 {
		t.Fatalf("dropped = %d", mb.Dropped())
	}
	_, _ = mb.Receive(context.Background())
	b.SetHostLEDs(true)
	if c, _ := mb.Receive(context.Background()); c != CapsLockOn {
		t.Errorf("got %s after a dropped report", c)
	}
}

// frames records every frame written.
type frames struct {
	got []is31fl3731.Frame
	err error
}

func (f *frames) WritePWM(p is31fl3731.Page, fr *is31fl3731.Frame) error {
	f.got = append(f.got, *fr)
	return f.err
}

func count(f is31fl3731.Frame) int {
	n := 0
	for _, v := range f {
		if v == 0xFF {
			n++
		}
	}
	return n
}

func TestControllerApply(t *testing.T) {
	var drv frames
	c := NewController(&drv, mailbox.New[Command](1), nil)
	for _, cmd := range []Command{ToggleGame, ToggleAll, CapsLockOn, ToggleAll, ToggleGame, CapsLockOff} {
		if err := c.Apply(cmd); err != nil {
			t.Fatal(err)
		}
	}
	want := []int{8, 71, 71, 9, 1, 0}
	var got []int
	for _, f := range drv.got {
		got = append(got, count(f))
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("lit LEDs (-got +want):\n%s", diff)
	}
	if drv.got[4].Get(CapsLockLED) != 0xFF {
		t.Error("caps lock LED off")
	}
	if err := c.Apply(0); err == nil {
		t.Error("expected error on unknown command")
	}
}

// slowDriver blocks each write until it is allowed to proceed.
type slowDriver struct {
	entered chan struct{}
	proceed chan struct{}
}

func (s *slowDriver) WritePWM(p is31fl3731.Page, f *is31fl3731.Frame) error {
	s.entered <- struct{}{}
	<-s.proceed
	return nil
}

func TestRunFIFOWithDrops(t *testing.T) {
	const capacity = 4
	mb := mailbox.New[Command](capacity)
	drv := &slowDriver{entered: make(chan struct{}), proceed: make(chan struct{})}
	applied := make(chan Command, 16)
	c := NewController(drv, mb, &Opts{
		Present: is31fl3731.WhiteFoxMask,
		Game:    GameMask,
		Applied: func(c Command, err error) { applied <- c },
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- c.Run(ctx) }()

	if err := mb.Post(ToggleAll); err != nil {
		t.Fatal(err)
	}
	<-drv.entered

	sent := []Command{ToggleGame, CapsLockOn, ToggleAll, CapsLockOff, ToggleGame, ToggleGame}
	var full int
	for _, cmd := range sent {
		if err := mb.Post(cmd); errors.Is(err, mailbox.ErrFull) {
			full++
		} else if err != nil {
			t.Fatal(err)
		}
	}
	if full != len(sent)-capacity {
		t.Errorf("%d posts rejected, want %d", full, len(sent)-capacity)
	}

	var got []Command
	for i := 0; i < 1+capacity; i++ {
		if i > 0 {
			<-drv.entered
		}
		drv.proceed <- struct{}{}
		got = append(got, <-applied)
	}
	want := append([]Command{ToggleAll}, sent[:capacity]...)
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("applied (-got +want):\n%s", diff)
	}
	if mb.Dropped() != uint64(full) {
		t.Errorf("Dropped() = %d", mb.Dropped())
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v", err)
	}
}

func TestRunLogsErrors(t *testing.T) {
	var buf bytes.Buffer
	drv := &frames{err: errors.New("nack")}
	mb := mailbox.New[Command](4)
	applied := make(chan error, 4)
	o := DefaultOpts
	o.Logger = log.New(&buf, "", 0)
	o.Applied = func(c Command, err error) { applied <- err }
	c := NewController(drv, mb, &o)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	_ = mb.Post(ToggleAll)
	_ = mb.Post(ToggleAll)
	for range 2 {
		if err := <-applied; err == nil {
			t.Error("expected error")
		}
	}
	if n := strings.Count(buf.String(), "ledctl: ToggleAll: nack"); n != 2 {
		t.Errorf("log = %q", buf.String())
	}
}

var fastOpts = is31fl3731.Opts{
	Addr:           is31fl3731.DefaultAddress,
	SettleTime:     time.Microsecond,
	PageSettleTime: time.Microsecond,
}

func TestSetupAndToggle(t *testing.T) {
	chip := is31fl3731test.NewChip(is31fl3731.DefaultAddress)
	sdb := &gpiotest.Pin{N: "SDB"}
	dev, err := Setup(chip, sdb, &fastOpts, is31fl3731.WhiteFoxMask)
	if err != nil {
		t.Fatal(err)
	}
	if dev.State() != is31fl3731.StateActive || sdb.L != gpio.High {
		t.Fatalf("state=%s sdb=%s", dev.State(), sdb.L)
	}
	f := chip.Frame(0)
	if diff := cmp.Diff(f[:is31fl3731.ControlSize], is31fl3731.WhiteFoxMask[:]); diff != "" {
		t.Errorf("control (-got +want):\n%s", diff)
	}

	c := NewController(dev, mailbox.New[Command](1), nil)
	if err := c.Apply(ToggleAll); err != nil {
		t.Fatal(err)
	}
	f = chip.Frame(0)
	for _, l := range is31fl3731.WhiteFoxMask.LEDs() {
		if v := f[l.PWM()]; v != 0xFF {
			t.Errorf("%s = %#x", l, v)
		}
	}
	if v := f[is31fl3731.LED{Matrix: is31fl3731.MatrixB, Row: 1, Col: 1}.PWM()]; v != 0 {
		t.Errorf("absent LED lit")
	}
}

func TestSetupFailure(t *testing.T) {
	chip := is31fl3731test.NewChip(is31fl3731.DefaultAddress)
	chip.Fail = func(n int, w []byte) error { return is31fl3731test.ErrNoAck }
	if _, err := Setup(chip, nil, &fastOpts, is31fl3731.WhiteFoxMask); !errors.Is(err, is31fl3731.ErrInitFailed) {
		t.Fatalf("Setup() = %v", err)
	}
	// Key handling keeps working with nobody draining the mailbox.
	mb := mailbox.New[Command](2)
	b := NewBridge(mb, nil)
	for range 4 {
		b.Handle(Event{Action: ActionLEDsAll, Pressed: true})
	}
	if mb.Dropped() != 2 {
		t.Errorf("Dropped() = %d", mb.Dropped())
	}
}

// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// wfleds drives the WhiteFox LED matrix from key events read on stdin.
//
// Each input line is a key press: "a" toggles every LED, "g" toggles the game
// LEDs, "c" flips the caps lock state reported by the host and "q" quits.
//
// With -sim, a fake chip is used and its first frame is printed to the
// terminal after every change.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strings"

	"github.com/GermanBionicSystems/ledmatrix/is31fl3731"
	"github.com/GermanBionicSystems/ledmatrix/is31fl3731/is31fl3731test"
	"github.com/GermanBionicSystems/ledmatrix/ledctl"
	"github.com/GermanBionicSystems/ledmatrix/ledscreen"
	"github.com/GermanBionicSystems/ledmatrix/mailbox"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// chipAddr converts the -a flag to an I²C address.
func chipAddr(v uint) (uint16, error) {
	if v > math.MaxUint16 {
		return 0, fmt.Errorf("invalid I²C address %#x", v)
	}
	return uint16(v), nil
}

func mainImpl() error {
	busName := flag.String("b", "", "I²C bus to use")
	sdbName := flag.String("sdb", "", "GPIO wired to the SDB pin; empty if tied high")
	addr := flag.Uint("a", uint(is31fl3731.DefaultAddress), "I²C address of the chip")
	queue := flag.Int("q", mailbox.DefaultCapacity, "mailbox capacity")
	sim := flag.Bool("sim", false, "use a simulated chip printed to the terminal")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}
	a, err := chipAddr(*addr)
	if err != nil {
		return err
	}

	var bus i2c.Bus
	var sdb gpio.PinOut
	var onChange func()
	if *sim {
		chip := is31fl3731test.NewChip(a)
		screen := ledscreen.New(&ledscreen.Opts{})
		defer screen.Halt()
		onChange = func() {
			f := chip.Frame(0)
			if err := screen.Show(f[:]); err != nil {
				log.Printf("screen: %v", err)
			}
		}
		bus = chip
		sdb = &gpiotest.Pin{N: "SDB"}
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		b, err := i2creg.Open(*busName)
		if err != nil {
			return err
		}
		defer b.Close()
		bus = b
		if *sdbName != "" {
			p := gpioreg.ByName(*sdbName)
			if p == nil {
				return fmt.Errorf("unknown pin %q", *sdbName)
			}
			sdb = p
		}
	}

	opts := is31fl3731.DefaultOpts
	opts.Addr = a
	mb := mailbox.New[ledctl.Command](*queue)
	bridge := ledctl.NewBridge(mb, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	dev, err := ledctl.Setup(bus, sdb, &opts, is31fl3731.WhiteFoxMask)
	if err != nil {
		// Keys keep working; LED commands are dropped.
		fmt.Fprintf(os.Stderr, "wfleds: LEDs disabled: %v\n", err)
	} else {
		defer dev.Halt()
		c := ledctl.NewController(dev, mb, &ledctl.Opts{
			Present:  is31fl3731.WhiteFoxMask,
			Game:     ledctl.GameMask,
			CapsLock: ledctl.CapsLockLED,
			Applied: func(cmd ledctl.Command, err error) {
				log.Printf("%s: %v", cmd, err)
				if onChange != nil {
					onChange()
				}
			},
		})
		if onChange != nil {
			onChange()
		}
		g.Go(func() error { return c.Run(ctx) })
	}

	// The scanner may stay blocked on stdin; it is not waited for.
	go func() {
		if err := readKeys(ctx, os.Stdin, bridge); err != nil {
			log.Printf("stdin: %v", err)
		}
		stop()
	}()
	<-ctx.Done()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Printf("dropped %d commands", mb.Dropped())
	return nil
}

// readKeys feeds the bridge from r until EOF, "q" or ctx is done.
func readKeys(ctx context.Context, r io.Reader, b *ledctl.Bridge) error {
	caps := false
	s := bufio.NewScanner(r)
	for s.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		var a ledctl.Action
		switch strings.TrimSpace(s.Text()) {
		case "a":
			a = ledctl.ActionLEDsAll
		case "g":
			a = ledctl.ActionLEDsGame
		case "c":
			caps = !caps
			b.SetHostLEDs(caps)
			continue
		case "q":
			return nil
		default:
			continue
		}
		b.Handle(ledctl.Event{Action: a, Pressed: true})
		b.Handle(ledctl.Event{Action: a, Pressed: false})
	}
	return s.Err()
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "wfleds: %s.\n", err)
		os.Exit(1)
	}
}

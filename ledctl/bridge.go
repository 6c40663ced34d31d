// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ledctl

import (
	"sync/atomic"
)

// Action identifies a key action bound in the keymap.
type Action uint8

const (
	ActionLEDsAll Action = iota + 1
	ActionLEDsGame
)

// DefaultActions binds the keymap LED actions to their Command.
var DefaultActions = map[Action]Command{
	ActionLEDsAll:  ToggleAll,
	ActionLEDsGame: ToggleGame,
}

// Event is a key action transition.
type Event struct {
	Action  Action
	Pressed bool
}

// Poster accepts Commands without blocking.
type Poster interface {
	Post(Command) error
}

// Bridge turns key events into Commands.
//
// Its methods never block and never touch the bus, so they can be called
// from the key scanning path.
type Bridge struct {
	p       Poster
	actions map[Action]Command
	caps    atomic.Bool
}

// NewBridge returns a Bridge posting to p. A nil actions uses DefaultActions.
// actions must not be modified afterward.
func NewBridge(p Poster, actions map[Action]Command) *Bridge {
	if actions == nil {
		actions = DefaultActions
	}
	return &Bridge{p: p, actions: actions}
}

// Handle posts the Command bound to ev.Action when the key is pressed.
// Releases and unbound actions are ignored.
//
// A full mailbox drops the Command; a missed toggle is harmless.
func (b *Bridge) Handle(ev Event) {
	if !ev.Pressed {
		return
	}
	if c, ok := b.actions[ev.Action]; ok {
		_ = b.p.Post(c)
	}
}

// SetHostLEDs reports the keyboard LED state set by the host. Only caps lock
// is shown; a Command is posted when it changes.
func (b *Bridge) SetHostLEDs(capsLock bool) {
	if b.caps.Swap(capsLock) == capsLock {
		return
	}
	c := CapsLockOff
	if capsLock {
		c = CapsLockOn
	}
	if b.p.Post(c) != nil {
		// Retry on the next report.
		b.caps.Store(!capsLock)
	}
}

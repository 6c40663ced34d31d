// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mailbox implements a bounded FIFO handing messages from any number
// of producers to a single consumer.
//
// Post never blocks: when the mailbox is full the message is dropped and
// ErrFull is returned. Receive blocks the consumer until a message arrives.
package mailbox

import (
	"context"
	"errors"
	"sync/atomic"
)

// DefaultCapacity is used when New is called with a capacity <= 0.
const DefaultCapacity = 8

// ErrFull is returned by Post when the message was dropped.
var ErrFull = errors.New("mailbox: full")

// Mailbox is a bounded FIFO of messages of type T.
type Mailbox[T any] struct {
	ch      chan T
	dropped atomic.Uint64
}

// New returns an empty mailbox holding up to capacity messages.
func New[T any](capacity int) *Mailbox[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Mailbox[T]{ch: make(chan T, capacity)}
}

// Post enqueues v without waiting.
func (m *Mailbox[T]) Post(v T) error {
	select {
	case m.ch <- v:
		return nil
	default:
		m.dropped.Add(1)
		return ErrFull
	}
}

// Receive returns the oldest message, waiting for one if the mailbox is
// empty. It returns ctx.Err() if ctx is done first.
//
// Only one goroutine may call Receive.
func (m *Mailbox[T]) Receive(ctx context.Context) (T, error) {
	select {
	case v := <-m.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Len returns the number of queued messages.
func (m *Mailbox[T]) Len() int {
	return len(m.ch)
}

// Cap returns the capacity of the mailbox.
func (m *Mailbox[T]) Cap() int {
	return cap(m.ch)
}

// Dropped returns the number of messages rejected by Post so far.
func (m *Mailbox[T]) Dropped() uint64 {
	return m.dropped.Load()
}

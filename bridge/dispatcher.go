// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bridge

import (
	"context"
	"fmt"
	"time"
)

// DefaultPollInterval is how often the dispatcher checks the mailbox when
// the caller does not configure one.
const DefaultPollInterval = 250 * time.Millisecond

// Handler executes one command and returns result data for the status
// record. Implementations run on the dispatcher goroutine, one command at
// a time.
type Handler interface {
	Handle(ctx context.Context, cmd *Command) (map[string]any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, cmd *Command) (map[string]any, error)

func (f HandlerFunc) Handle(ctx context.Context, cmd *Command) (map[string]any, error) {
	return f(ctx, cmd)
}

// Dispatcher drains the mailbox at a fixed interval and executes each
// command sequentially.
type Dispatcher struct {
	mailbox  *Mailbox
	handler  Handler
	interval time.Duration
	now      func() time.Time
}

// NewDispatcher wires a mailbox to a handler. A non-positive interval
// selects DefaultPollInterval.
func NewDispatcher(mailbox *Mailbox, handler Handler, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Dispatcher{mailbox: mailbox, handler: handler, interval: interval, now: time.Now}
}

// Run polls until ctx is done. Each tick dispatches at most one command;
// the mailbox slot is always cleared, success or not.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Tick dispatches the pending command, if any. Exposed so tests and the
// server can drive the dispatcher without real time.
func (d *Dispatcher) Tick(ctx context.Context) {
	cmd := d.mailbox.Take()
	if cmd == nil {
		return
	}

	rec := StatusRecord{LastAction: cmd.Action, Timestamp: d.now().UTC()}
	if cmd.Action == "" {
		rec.LastAction = "unknown"
		rec.Error = "bridge: command has no action"
		d.mailbox.SetStatus(rec)
		slogger().Warn("bridge: dropped command without action")
		return
	}

	start := d.now()
	data, err := d.handler.Handle(ctx, cmd)
	if err != nil {
		rec.Error = err.Error()
		slogger().Warn("bridge: command failed", "action", cmd.Action, "err", err)
	} else {
		rec.Success = true
		rec.Data = data
		slogger().Info("bridge: command done", "action", cmd.Action,
			"elapsed", d.now().Sub(start).String())
	}
	d.mailbox.SetStatus(rec)
}

// ErrUnknownAction builds the error a handler returns for an action it
// does not implement.
func ErrUnknownAction(action string) error {
	return fmt.Errorf("bridge: unknown action %q", action)
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bridge

import (
	"sync"
	"time"
)

// Mailbox holds at most one pending command and the status of the last
// dispatched one. Submitting while a command is pending replaces it: the
// newest submission always wins.
type Mailbox struct {
	mu      sync.Mutex
	pending *Command
	status  StatusRecord
}

// NewMailbox returns an empty mailbox with a neutral initial status.
func NewMailbox() *Mailbox {
	return &Mailbox{
		status: StatusRecord{LastAction: "none", Success: true, Timestamp: time.Now().UTC()},
	}
}

// Put stores cmd as the pending command, dropping any previous one.
// It reports whether an unconsumed command was replaced.
func (m *Mailbox) Put(cmd *Command) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	replaced := m.pending != nil
	m.pending = cmd
	return replaced
}

// Take removes and returns the pending command, or nil when the slot is
// empty.
func (m *Mailbox) Take() *Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := m.pending
	m.pending = nil
	return cmd
}

// Status returns a copy of the last dispatch outcome.
func (m *Mailbox) Status() StatusRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// SetStatus overwrites the status record.
func (m *Mailbox) SetStatus(s StatusRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = s
}

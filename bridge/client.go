// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bridge

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client talks to a bridge server over its unix socket. One request and
// one response per call; the connection stays open across calls.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	enc     *json.Encoder
	timeout time.Duration
}

// Dial connects to the server socket. A zero timeout disables per-call
// deadlines.
func Dial(path string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return nil, fmt.Errorf("bridge: dial %s: %w", path, err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &Client{conn: conn, scanner: scanner, enc: json.NewEncoder(conn), timeout: timeout}, nil
}

// Submit queues cmd for dispatch and returns the status record current at
// acknowledgement time (the previous command's outcome, not this one's).
func (c *Client) Submit(cmd *Command) (*StatusRecord, error) {
	return c.roundTrip(&Request{Kind: KindSubmit, Command: cmd})
}

// Status fetches the outcome of the most recently dispatched command.
func (c *Client) Status() (*StatusRecord, error) {
	return c.roundTrip(&Request{Kind: KindStatus})
}

// WaitFor polls until the status record reflects a dispatch of action
// newer than since, or the deadline passes. Pass the Timestamp of the
// Submit acknowledgement as since; matching on the action alone would
// accept a stale record when consecutive commands share an action.
func (c *Client) WaitFor(action string, since time.Time, poll, deadline time.Duration) (*StatusRecord, error) {
	end := time.Now().Add(deadline)
	for {
		status, err := c.Status()
		if err != nil {
			return nil, err
		}
		if status.LastAction == action && status.Timestamp.After(since) {
			return status, nil
		}
		if time.Now().After(end) {
			return status, fmt.Errorf("bridge: timed out waiting for %q, last action %q",
				action, status.LastAction)
		}
		time.Sleep(poll)
	}
}

// Close closes the connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) roundTrip(req *Request) (*StatusRecord, error) {
	if c.timeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.timeout))
	}
	if err := c.enc.Encode(req); err != nil {
		return nil, fmt.Errorf("bridge: send request: %w", err)
	}
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return nil, fmt.Errorf("bridge: read response: %w", err)
		}
		return nil, fmt.Errorf("bridge: connection closed")
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("bridge: decode response: %w", err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("bridge: server rejected request: %s", resp.Error)
	}
	return resp.Status, nil
}

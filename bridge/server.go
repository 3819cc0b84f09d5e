// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// maxLineBytes bounds one request line; shader sources ride inside
// commands, so the limit is generous.
const maxLineBytes = 8 << 20

// Server accepts newline-delimited JSON requests on a unix domain socket
// and feeds submitted commands into the mailbox.
type Server struct {
	path    string
	mailbox *Mailbox

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	closed   bool
}

// NewServer prepares a server for the given socket path. Listening starts
// with Serve.
func NewServer(path string, mailbox *Mailbox) *Server {
	return &Server{path: path, mailbox: mailbox, conns: make(map[net.Conn]struct{})}
}

// Serve listens on the socket until ctx is done. A stale socket file from
// a previous run is removed before binding.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("bridge: socket dir: %w", err)
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("bridge: remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("bridge: listen %s: %w", s.path, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	slogger().Info("bridge: listening", "socket", s.path)

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.wg.Wait()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("bridge: accept: %w", err)
		}
		s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.serveConn(conn)
		}()
	}
}

// Close stops the listener and open connections and removes the socket
// file.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	listener := s.listener
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	if listener != nil {
		_ = listener.Close()
	}
	for _, c := range conns {
		_ = c.Close()
	}
	_ = os.Remove(s.path)
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *Server) serveConn(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		resp := s.handleRequest(line)
		if err := enc.Encode(resp); err != nil {
			slogger().Warn("bridge: write response", "err", err)
			return
		}
	}
}

func (s *Server) handleRequest(line []byte) *Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		slogger().Warn("bridge: malformed request", "err", err)
		return &Response{Error: fmt.Sprintf("bridge: malformed request: %v", err)}
	}

	switch req.Kind {
	case KindSubmit:
		if req.Command == nil {
			return &Response{Error: "bridge: submit without command"}
		}
		req.Command.SubmittedAt = time.Now().UTC()
		if replaced := s.mailbox.Put(req.Command); replaced {
			slogger().Info("bridge: pending command replaced", "action", req.Command.Action)
		}
		status := s.mailbox.Status()
		return &Response{OK: true, Status: &status}
	case KindStatus:
		status := s.mailbox.Status()
		return &Response{OK: true, Status: &status}
	default:
		return &Response{Error: fmt.Sprintf("bridge: unknown request kind %q", req.Kind)}
	}
}

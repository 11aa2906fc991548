// Package cos provides common low-level types and utilities for all dlsim packages.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

type (
	ErrInvalidSize struct {
		token  string
		detail string
	}
	ErrSignal struct {
		signal syscall.Signal
	}
)

var ErrWorkChanFull = errors.New("work channel full")

////////////////////
// ErrInvalidSize //
////////////////////

func NewErrInvalidSize(token, detail string) *ErrInvalidSize {
	return &ErrInvalidSize{token: token, detail: detail}
}

func (e *ErrInvalidSize) Token() string { return e.token }

func (e *ErrInvalidSize) Error() string {
	if e.detail == "" {
		return fmt.Sprintf("invalid size %q", e.token)
	}
	return fmt.Sprintf("invalid size %q (%s)", e.token, e.detail)
}

func IsErrInvalidSize(err error) bool {
	var e *ErrInvalidSize
	return errors.As(err, &e)
}

//
// IS-syscall helpers
//

// including "unexpected EOF" to accommodate early termination of the other side
func IsEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

func IsErrConnectionRefused(err error) (yes bool) { return errors.Is(err, syscall.ECONNREFUSED) }
func IsErrConnectionReset(err error) (yes bool)   { return errors.Is(err, syscall.ECONNRESET) }
func IsErrBrokenPipe(err error) (yes bool)        { return errors.Is(err, syscall.EPIPE) }

func IsRetriableConnErr(err error) (yes bool) {
	return IsErrConnectionRefused(err) || IsErrConnectionReset(err) || IsErrBrokenPipe(err)
}

// IsErrPeerGone reports whether a write error means the remote side went away.
func IsErrPeerGone(err error) bool {
	if err == nil {
		return false
	}
	if IsErrConnectionReset(err) || IsErrBrokenPipe(err) || IsEOF(err) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var nerr *net.OpError
	return errors.As(err, &nerr) && nerr.Op == "write"
}

func IsClientTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

//
// ErrSignal
//

// https://tldp.org/LDP/abs/html/exitcodes.html
func (e *ErrSignal) ExitCode() int               { return 128 + int(e.signal) }
func NewSignalError(s syscall.Signal) *ErrSignal { return &ErrSignal{signal: s} }
func (e *ErrSignal) Error() string               { return fmt.Sprintf("Signal %d", e.signal) }

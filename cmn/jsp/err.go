// Package jsp (JSON persistence) provides utilities to store and load arbitrary
// JSON-encoded structures with optional checksumming and compression.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package jsp

import (
	"errors"
	"fmt"
)

type (
	ErrBadSignature struct {
		tag      string
		got      string
		expected string
	}
	ErrVersion struct {
		tag      string
		got      uint32
		expected uint32
	}
	ErrBadCksum struct {
		tag      string
		got      uint64
		expected uint64
	}
)

func (e *ErrBadSignature) Error() string {
	return fmt.Sprintf("bad signature %q: got %s, expected %s", e.tag, e.got, e.expected)
}

func (e *ErrVersion) Error() string {
	return fmt.Sprintf("unsupported meta-version %q: got %d, expected %d", e.tag, e.got, e.expected)
}

func (e *ErrBadCksum) Error() string {
	return fmt.Sprintf("bad checksum %q: got %x, expected %x", e.tag, e.got, e.expected)
}

func IsErrBadCksum(err error) bool {
	var e *ErrBadCksum
	return errors.As(err, &e)
}

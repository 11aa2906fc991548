// Package dl implements simulated downloads: a synthetic byte source,
// a transfer monitor, and the per-request session controller.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package dl

import (
	"sync/atomic"

	"github.com/NVIDIA/dlsim/cmn/cos"
	"github.com/NVIDIA/dlsim/cmn/debug"
)

// chunks up to slabSize are views into the shared zero slab (must not be modified)
const slabSize = 256 * cos.KiB

var zeroSlab = make([]byte, slabSize)

// Source emits exactly `size` zero bytes in chunks sized by the consumer.
// It is finite and not restartable; Cancel forces the end of sequence.
type Source struct {
	size      int64
	remaining atomic.Int64
	cancelled atomic.Bool
}

func NewSource(size int64) *Source {
	debug.Assert(size > 0, size)
	src := &Source{size: size}
	src.remaining.Store(size)
	return src
}

// NextChunk returns min(hint, remaining) zero bytes, or nil when exhausted.
func (src *Source) NextChunk(hint int) []byte {
	n := src.take(int64(max(hint, 1)))
	if n == 0 {
		return nil
	}
	if n <= slabSize {
		return zeroSlab[:n:n]
	}
	return make([]byte, n)
}

func (src *Source) take(want int64) int64 {
	for {
		if src.cancelled.Load() {
			return 0
		}
		rem := src.remaining.Load()
		if rem == 0 {
			return 0
		}
		n := min(want, rem)
		if src.remaining.CompareAndSwap(rem, rem-n) {
			return n
		}
	}
}

// Cancel is idempotent and safe to call from any goroutine.
func (src *Source) Cancel() { src.cancelled.Store(true) }

func (src *Source) Remaining() int64 { return src.remaining.Load() }
func (src *Source) Emitted() int64   { return src.size - src.remaining.Load() }

//go:build !mono

// Package mono provides low-level monotonic time
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

var epoch = time.Now()

// monotonic nanoseconds since process start (time.Since reads the monotonic clock)
func NanoTime() int64 { return int64(time.Since(epoch)) }

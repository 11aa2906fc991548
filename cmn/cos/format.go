// Package cos provides common low-level types and utilities for all dlsim packages.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"fmt"
	"strconv"
)

// FormatBigI64 renders n with thousands separators, e.g. 1234567 => "1,234,567"
func FormatBigI64(n int64) (s string) {
	if n < 0 {
		return "-" + FormatBigI64(-n)
	}
	if n < 1000 {
		return strconv.FormatInt(n, 10)
	}
	for n > 0 {
		rem := n % 1000
		n = (n - rem) / 1000
		if s == "" {
			s = fmt.Sprintf("%03d", rem)
			continue
		}
		if n == 0 {
			s = strconv.FormatInt(rem, 10) + "," + s
		} else {
			s = fmt.Sprintf("%03d", rem) + "," + s
		}
	}
	return s
}

// FormatRate renders bytes-per-second for display, e.g. "1.5MiB/s"
func FormatRate(bps float64) string {
	return ToSizeIEC(int64(bps), 2) + "/s"
}

func Plural(num int) (s string) {
	if num != 1 {
		s = "s"
	}
	return
}

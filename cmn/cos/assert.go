// Package cos provides common low-level types and utilities for all dlsim packages.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"fmt"
	"os"

	"github.com/NVIDIA/dlsim/cmn/nlog"
)

const assertMsg = "assertion failed"

// NOTE: Not to be used in the datapath - consider instead one of the flavors below.
func Assertf(cond bool, f string, a ...any) {
	if !cond {
		AssertMsg(cond, fmt.Sprintf(f, a...))
	}
}

func Assert(cond bool) {
	if !cond {
		nlog.Flush()
		panic(assertMsg)
	}
}

// NOTE: when using Sprintf and such, `if (!cond) { AssertMsg(false, msg) }` is the preferable usage.
func AssertMsg(cond bool, msg string) {
	if !cond {
		nlog.Flush()
		panic(assertMsg + ": " + msg)
	}
}

func AssertNoErr(err error) {
	if err != nil {
		nlog.Flush()
		panic(err)
	}
}

// ExitLogf logs the error and terminates the process
func ExitLogf(f string, a ...any) {
	msg := fmt.Sprintf("FATAL ERROR: "+f, a...)
	nlog.Errorln(msg)
	nlog.Flush()
	os.Stderr.WriteString(msg + "\n")
	os.Exit(1)
}

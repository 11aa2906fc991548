//go:build debug

// Package debug provides debug utilities
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package debug

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"
)

func ON() bool { return true }

func _panic(a ...any) {
	msg := "DEBUG PANIC: "
	if len(a) > 0 {
		msg += fmt.Sprint(a...)
	}
	os.Stderr.WriteString(msg + "\n")
	os.Stderr.Write(debug.Stack())
	panic(msg)
}

func Assert(cond bool, a ...any) {
	if !cond {
		_panic(a...)
	}
}

func AssertFunc(f func() bool, a ...any) {
	Assert(f(), a...)
}

func AssertNoErr(err error) {
	if err != nil {
		_panic(err)
	}
}

func Assertf(cond bool, f string, a ...any) {
	if !cond {
		_panic(fmt.Sprintf(f, a...))
	}
}

func AssertMutexLocked(m *sync.Mutex) {
	if m.TryLock() {
		m.Unlock()
		_panic("mutex not locked")
	}
}

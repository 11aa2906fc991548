// Package hk provides mechanism for registering periodic
// functions which are invoked at specified intervals.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package hk

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/NVIDIA/dlsim/cmn/cos"
	"github.com/NVIDIA/dlsim/cmn/nlog"
)

func (hk *hk) setSignal() {
	signal.Notify(hk.sigCh,
		// ignore, log
		syscall.SIGHUP, // kill -SIGHUP
		// terminate
		syscall.SIGINT,  // kill -SIGINT (Ctrl-C)
		syscall.SIGTERM, // kill -SIGTERM
		syscall.SIGQUIT, // kill -SIGQUIT
	)
}

func (hk *hk) handleSignal(s syscall.Signal) error {
	if s == syscall.SIGHUP {
		// no-op: show up in the log with some useful info
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		nfd, erf := numOpenFiles()
		nlog.Infoln("ngr [", runtime.NumGoroutine(), runtime.NumCPU(), "] heap [",
			cos.ToSizeIEC(int64(mem.HeapAlloc), 1), "]", "num-fd [", nfd, erf, "]")
		return nil
	}

	signal.Stop(hk.sigCh)
	err := cos.NewSignalError(s)
	hk.Stop(err)
	return err
}

func numOpenFiles() (int, error) {
	entries, err := os.ReadDir("/proc/self/fd")
	return len(entries), err
}

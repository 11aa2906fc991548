// Package nlog - dlsim logger, provides buffering, timestamping, writing, and
// flushing/rotating
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import "flag"

var (
	MaxSize int64 = 4 * 1024 * 1024
)

func InitFlags(flset *flag.FlagSet) {
	flset.BoolVar(&toStderr, "logtostderr", false, "log to standard error instead of files")
	flset.BoolVar(&alsoToStderr, "alsologtostderr", false, "log to standard error as well as files")
}

func Infoln(args ...any)                { log(sevInfo, 0, "", args...) }
func Warningln(args ...any)             { log(sevWarn, 0, "", args...) }
func Errorln(args ...any)               { log(sevErr, 0, "", args...) }
func Errorf(format string, args ...any) { log(sevErr, 0, format, args...) }

// must be called prior to the first log line
func SetLogDirRole(dir, role string) { logDir, role_ = dir, role }
func SetTitle(s string)              { title = s }
func SetToStderr(v bool)             { toStderr = v }

func Stopping() bool { return stopping.Load() }

func Flush() {
	for _, nlog := range nlogs {
		if nlog != nil {
			nlog.flush()
		}
	}
}

func FlushExit() {
	stopping.Store(true)
	Flush()
	for _, nlog := range nlogs {
		if nlog != nil {
			nlog.close()
		}
	}
}

// Package nlog - dlsim logger, provides buffering, timestamping, writing, and
// flushing/rotating
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	nlogBufSize  = 64 * 1024
	nlogLineSize = 4 * 1024
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

type (
	nlog struct {
		file *os.File
		pw   *fixed
		size int64
		sev  severity
		mw   sync.Mutex
	}
)

//
// nlog
//

func newNlog(sev severity) *nlog {
	return &nlog{
		sev: sev,
		pw:  &fixed{buf: make([]byte, nlogBufSize)},
	}
}

// main function
func log(sev severity, depth int, format string, args ...any) {
	onceInitFiles.Do(initFiles)

	fb := alloc()
	sprintf(sev, depth, format, fb, args...)
	line := fb.buf[:fb.woff]
	switch {
	case toStderr || nlogs[sevInfo] == nil:
		os.Stderr.Write(line)
	default:
		if alsoToStderr || sev >= sevWarn {
			os.Stderr.Write(line)
		}
		if sev >= sevWarn {
			nlogs[sevErr].write(line)
		}
		nlogs[sevInfo].write(line)
	}
	free(fb)
}

func (nlog *nlog) write(line []byte) {
	nlog.mw.Lock()
	if nlog.pw.avail() < len(line) {
		nlog._flush()
	}
	nlog.pw.Write(line)
	nlog.mw.Unlock()
}

func (nlog *nlog) flush() {
	nlog.mw.Lock()
	nlog._flush()
	nlog.mw.Unlock()
}

// under mw-lock
func (nlog *nlog) _flush() {
	if nlog.pw.woff == 0 || nlog.file == nil {
		return
	}
	n, err := nlog.pw.flush(nlog.file)
	nlog.pw.reset()
	if err != nil {
		return
	}
	nlog.size += int64(n)
	if nlog.size >= MaxSize {
		nlog.file.Close()
		if err := nlog.rotate(time.Now()); err != nil {
			os.Stderr.WriteString("Error: [nlog] rotate: " + err.Error() + "\n")
		}
	}
}

func (nlog *nlog) close() {
	nlog.mw.Lock()
	if nlog.file != nil {
		nlog.file.Close()
		nlog.file = nil
	}
	nlog.mw.Unlock()
}

func (nlog *nlog) rotate(now time.Time) (err error) {
	var (
		s    = fmt.Sprintf("host %s, %s for %s/%s\n", host, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		snow = now.Format("2006/01/02 15:04:05")
	)
	nlog.size = 0
	if nlog.file, _, err = fcreate(sevText[nlog.sev], now); err != nil {
		return
	}
	if title == "" {
		_, err = nlog.file.WriteString("Started up at " + snow + ", " + s)
	} else {
		nlog.file.WriteString("Rotated at " + snow + ", " + s)
		_, err = nlog.file.WriteString(title)
	}
	return
}

//
// utils
//

func formatHdr(s severity, depth int, fb *fixed) {
	const char = "IWE"
	fb.writeByte(char[s])
	fb.writeByte(' ')
	fb.writeStamp()
	fb.writeByte(' ')

	_, fn, ln, ok := runtime.Caller(3 + depth)
	if !ok {
		return
	}
	idx := strings.LastIndexByte(fn, filepath.Separator)
	if idx > 0 {
		fn = fn[idx+1:]
	}
	if l := len(fn); l > 3 {
		fn = fn[:l-3]
	}
	if _, redact := redactFnames[fn]; redact {
		return
	}
	fb.writeString(fn)
	fb.writeByte(':')
	fb.writeString(strconv.Itoa(ln))
	fb.writeByte(' ')
}

func sprintf(sev severity, depth int, format string, fb *fixed, args ...any) {
	formatHdr(sev, depth+1, fb)
	if format == "" {
		fmt.Fprintln(fb, args...)
	} else {
		fmt.Fprintf(fb, format, args...)
	}
	fb.eol()
}

//
// line buffer pool
//

func alloc() (fb *fixed) {
	fb = pool.Get().(*fixed)
	fb.reset()
	return
}

func free(fb *fixed) { pool.Put(fb) }

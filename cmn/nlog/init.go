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
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	host = "unknown"
	// assorted filenames that we don't want to show up
	redactFnames = map[string]int{
		"err": 0,
	}
	sevText = []string{sevInfo: "INFO", sevWarn: "WARNING", sevErr: "ERROR"}
)

var (
	// of `fixed` line bufs
	pool = sync.Pool{
		New: func() any {
			return &fixed{buf: make([]byte, nlogLineSize)}
		},
	}
)

var (
	nlogs [sevErr + 1]*nlog

	logDir string
	arg0   string
	role_  string
	title  string

	toStderr     bool
	alsoToStderr bool

	pid int

	onceInitFiles sync.Once

	stopping atomic.Bool // true when exiting
)

func init() {
	pid = os.Getpid()
	arg0 = filepath.Base(os.Args[0])
	if h, err := os.Hostname(); err == nil {
		host = _shortHost(h)
	}
}

// no log dir: stderr only
func initFiles() {
	if logDir == "" {
		toStderr = true
		return
	}
	if err := fcreateAll(); err != nil {
		os.Stderr.WriteString(fmt.Sprintf("Error: unable to create logs in %q: %v (logging to stderr)\n", logDir, err))
		toStderr = true
	}
}

func fcreateAll() error {
	now := time.Now()
	for _, s := range []severity{sevInfo, sevErr} {
		nlog := newNlog(s)
		if err := nlog.rotate(now); err != nil {
			return err
		}
		nlogs[s] = nlog
	}
	return nil
}

func sname() (name string) {
	name = arg0
	if role_ != "" {
		name += "-" + role_
	}
	return
}

func _shortHost(hostname string) string {
	if before, _, ok := strings.Cut(hostname, "."); ok {
		return before
	}
	return hostname
}

func fcreate(tag string, t time.Time) (f *os.File, fname string, err error) {
	err = os.MkdirAll(logDir, os.ModePerm)
	if err != nil {
		return
	}
	name, link := logfname(tag, t)
	fname = filepath.Join(logDir, name)
	f, err = os.OpenFile(fname, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return
	}
	// re-symlink
	symlink := filepath.Join(logDir, link)
	os.Remove(symlink)
	os.Symlink(name, symlink)
	return
}

func logfname(tag string, t time.Time) (name, link string) {
	s := sname()
	name = fmt.Sprintf("%s.%s.%s.%02d%02d-%02d%02d%02d.%d",
		s,
		host,
		tag,
		t.Month(),
		t.Day(),
		t.Hour(),
		t.Minute(),
		t.Second(),
		pid)
	return name, s + "." + tag
}

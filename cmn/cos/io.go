// Package cos provides common low-level types and utilities for all dlsim packages.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"io"
	"os"
	"path/filepath"

	"github.com/NVIDIA/dlsim/cmn/debug"
)

const (
	PermRWR       os.FileMode = 0o640
	configDirMode os.FileMode = 0o755
)

// CreateDir creates directory if does not exist.
// If the directory already exists returns nil.
func CreateDir(dir string) error {
	return os.MkdirAll(dir, configDirMode)
}

// CreateFile creates a new write-only (O_WRONLY) file with default cos.PermRWR permissions.
// NOTE: if the file pathname doesn't exist it'll be created.
// NOTE: if the file already exists it'll be also silently truncated.
func CreateFile(fqn string) (*os.File, error) {
	if err := CreateDir(filepath.Dir(fqn)); err != nil {
		return nil, err
	}
	return os.OpenFile(fqn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, PermRWR)
}

// RemoveFile removes path; returns nil upon success or if the path does not exist.
func RemoveFile(path string) (err error) {
	err = os.Remove(path)
	if os.IsNotExist(err) {
		err = nil
	}
	return
}

// DrainReader reads and discards all the data from a reader.
func DrainReader(r io.Reader) (int64, error) {
	n, err := io.Copy(io.Discard, r)
	if err == nil || IsEOF(err) {
		return n, nil
	}
	return n, err
}

func Close(closer io.Closer) {
	err := closer.Close()
	debug.AssertNoErr(err)
}

// Package jsp (JSON persistence) provides utilities to store and load arbitrary
// JSON-encoded structures with optional checksumming and compression.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package jsp

import (
	"os"
	"strconv"
	"time"

	"github.com/NVIDIA/dlsim/cmn/cos"
	"github.com/NVIDIA/dlsim/cmn/nlog"
)

//////////////////
// main methods //
//////////////////

// write to a temp file and rename
func Save(filepath string, v any, opts Options) (err error) {
	var (
		file *os.File
		tmp  = filepath + ".tmp." + strconv.FormatInt(time.Now().UnixNano(), 36)
	)
	if file, err = cos.CreateFile(tmp); err != nil {
		return
	}
	defer func() {
		if err != nil {
			if errRm := os.Remove(tmp); errRm != nil {
				nlog.Errorln("failed to remove", tmp, "err:", errRm)
			}
		}
	}()
	if err = Encode(file, v, opts); err != nil {
		file.Close()
		return
	}
	if err = file.Close(); err != nil {
		return
	}
	err = os.Rename(tmp, filepath)
	return
}

func Load(filepath string, v any, opts Options) error {
	file, err := os.Open(filepath)
	if err != nil {
		return err
	}
	err = Decode(file, v, opts, filepath)
	file.Close()
	if err != nil && IsErrBadCksum(err) {
		if errRm := os.Remove(filepath); errRm == nil {
			nlog.Errorf("bad checksum: removing %s", filepath)
		} else {
			nlog.Errorf("bad checksum: failed to remove %s: %v", filepath, errRm)
		}
	}
	return err
}

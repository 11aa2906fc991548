// Package main for the dlsim daemon executable.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"os"

	"github.com/NVIDIA/dlsim/ais"
)

const version = "1.0"

var (
	build     string
	buildtime string
)

func main() {
	v := version
	if build != "" {
		v += "." + build
	}
	os.Exit(ais.Run(v, buildtime, os.Args[1:]))
}

// The main package for the `dlloader` executable.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"os"

	"github.com/NVIDIA/dlsim/bench/tools/dlloader"
)

func main() {
	os.Exit(dlloader.Start(os.Args[1:]))
}

// Package ais provides the dlsim HTTP server: download, status page,
// statistics API, and metrics.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package ais

import (
	"path/filepath"

	"github.com/NVIDIA/dlsim/cmn"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Daemon config", func() {
	It("should apply flags, file, and environment in order", func() {
		path := filepath.Join(GinkgoT().TempDir(), "dlsim.yaml")
		config := cmn.DefaultConfig()
		config.Net.Port = 9000
		Expect(cmn.SaveConfig(path, config)).To(Succeed())
		GinkgoT().Setenv(cmn.EnvDB, ":memory:")

		flags, err := parseFlags([]string{"-config", path})
		Expect(err).NotTo(HaveOccurred())
		loaded, err := loadConfig(flags)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Net.Port).To(Equal(9000))
		Expect(loaded.Stats.DBPath).To(Equal(":memory:"))
	})

	It("should fail on an invalid configuration", func() {
		GinkgoT().Setenv(cmn.EnvPort, "0")
		flags, err := parseFlags(nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = loadConfig(flags)
		Expect(err).To(HaveOccurred())
	})

	It("should reject unknown flags", func() {
		_, err := parseFlags([]string{"-no-such-flag"})
		Expect(err).To(HaveOccurred())
	})
})

// Package hk provides mechanism for registering periodic
// functions which are invoked at specified intervals.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package hk_test

import (
	"sync/atomic"
	"time"

	"github.com/NVIDIA/dlsim/hk"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Housekeeper", func() {
	It("should call a registered action periodically", func() {
		var cnt atomic.Int32
		hk.Reg("periodic", func(int64) time.Duration {
			cnt.Add(1)
			return 20 * time.Millisecond
		}, 20*time.Millisecond)
		defer hk.Unreg("periodic")

		Eventually(cnt.Load, time.Second, 10*time.Millisecond).Should(BeNumerically(">=", 3))
	})

	It("should call right away when the interval is zero", func() {
		var cnt atomic.Int32
		hk.Reg("immediate", func(int64) time.Duration {
			cnt.Add(1)
			return time.Hour
		}, 0)
		defer hk.Unreg("immediate")

		Eventually(cnt.Load, time.Second, 10*time.Millisecond).Should(BeEquivalentTo(1))
		Consistently(cnt.Load, 100*time.Millisecond, 20*time.Millisecond).Should(BeEquivalentTo(1))
	})

	It("should stop calling after the action unregisters itself", func() {
		var cnt atomic.Int32
		hk.Reg("once", func(int64) time.Duration {
			cnt.Add(1)
			return hk.UnregInterval
		}, 10*time.Millisecond)

		Eventually(cnt.Load, time.Second, 10*time.Millisecond).Should(BeEquivalentTo(1))
		Consistently(cnt.Load, 100*time.Millisecond, 20*time.Millisecond).Should(BeEquivalentTo(1))
	})

	It("should not call an action after Unreg", func() {
		var cnt atomic.Int32
		hk.Reg("unreg", func(int64) time.Duration {
			cnt.Add(1)
			return 10 * time.Millisecond
		}, 10*time.Millisecond)
		Eventually(cnt.Load, time.Second, 5*time.Millisecond).Should(BeNumerically(">=", 1))

		hk.Unreg("unreg")
		time.Sleep(30 * time.Millisecond)
		n := cnt.Load()
		Consistently(cnt.Load, 100*time.Millisecond, 20*time.Millisecond).Should(Equal(n))
	})
})

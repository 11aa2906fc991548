// Package stats keeps the process-wide download statistics: counters,
// speed samples, persistence, and Prometheus export.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package stats_test

import (
	"errors"
	"testing"

	"github.com/NVIDIA/dlsim/dbdriver"
	"github.com/NVIDIA/dlsim/stats"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestStats(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, t.Name())
}

var errDiskGone = errors.New("disk gone")

// failingDriver fails every write once `broken` is set
type failingDriver struct {
	*dbdriver.DBMock
	broken bool
}

func (d *failingDriver) SetString(collection, key, data string) error {
	if d.broken {
		return errDiskGone
	}
	return d.DBMock.SetString(collection, key, data)
}

// reload reads back the persisted record the way a restart would
func reload(driver dbdriver.Driver) stats.Statistics {
	GinkgoHelper()
	store, err := stats.NewStore(driver)
	Expect(err).NotTo(HaveOccurred())
	return store.Snapshot()
}

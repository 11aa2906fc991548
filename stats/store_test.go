// Package stats keeps the process-wide download statistics: counters,
// speed samples, persistence, and Prometheus export.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package stats_test

import (
	"sync"

	"github.com/NVIDIA/dlsim/dbdriver"
	"github.com/NVIDIA/dlsim/stats"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store", func() {
	var (
		driver *dbdriver.DBMock
		store  *stats.Store
	)

	BeforeEach(func() {
		var err error
		driver = dbdriver.NewDBMock()
		store, err = stats.NewStore(driver)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should start from zeros and persist them", func() {
		Expect(store.Snapshot()).To(Equal(stats.Statistics{}))
		snap := store.Snapshot()
		_, ok := snap.AvgSpeed()
		Expect(ok).To(BeFalse())

		_, err := driver.GetString(stats.Collection, stats.RecordKey)
		Expect(err).NotTo(HaveOccurred())
		Expect(reload(driver)).To(Equal(stats.Statistics{}))
	})

	It("should apply progress samples as a unit", func() {
		Expect(store.RecordProgress(1000, 2000)).To(Succeed())
		Expect(store.RecordProgress(500, 1000)).To(Succeed())

		snap := store.Snapshot()
		Expect(snap.TransferredBytes).To(BeEquivalentTo(1500))
		Expect(snap.SpeedSampleSum).To(BeNumerically("==", 3000))
		Expect(snap.SpeedSampleCount).To(BeEquivalentTo(2))
		Expect(snap.DownloadCount).To(BeZero())

		avg, ok := snap.AvgSpeed()
		Expect(ok).To(BeTrue())
		Expect(avg).To(BeNumerically("==", 1500))
	})

	It("should write every mutation through", func() {
		Expect(store.RecordProgress(42, 4200)).To(Succeed())
		Expect(store.RecordCompletion()).To(Succeed())

		Expect(reload(driver)).To(Equal(store.Snapshot()))
	})

	It("should load the persisted record on restart", func() {
		Expect(store.RecordProgress(100, 10)).To(Succeed())
		Expect(store.RecordCompletion()).To(Succeed())

		again, err := stats.NewStore(driver)
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Snapshot()).To(Equal(store.Snapshot()))
	})

	It("should reject an unsigned record", func() {
		Expect(driver.SetString(stats.Collection, stats.RecordKey, `{"downloads":-1}`)).To(Succeed())
		_, err := stats.NewStore(driver)
		Expect(err).To(MatchError(ContainSubstring("corrupted statistics record")))
	})

	It("should detect a damaged record by its checksum", func() {
		Expect(store.RecordProgress(1000, 2000)).To(Succeed())
		data, err := driver.GetString(stats.Collection, stats.RecordKey)
		Expect(err).NotTo(HaveOccurred())

		b := []byte(data)
		b[len(b)-1] ^= 0xff
		Expect(driver.SetString(stats.Collection, stats.RecordKey, string(b))).To(Succeed())

		_, err = stats.NewStore(driver)
		Expect(err).To(MatchError(ContainSubstring("bad checksum")))
	})

	It("should store the record signed", func() {
		data, err := driver.GetString(stats.Collection, stats.RecordKey)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(HavePrefix("dlsim"))
	})

	It("should not lose updates under concurrency", func() {
		const (
			workers = 16
			iters   = 200
		)
		var wg sync.WaitGroup
		for w := range workers {
			wg.Add(1)
			go func(delta int64) {
				defer GinkgoRecover()
				defer wg.Done()
				for range iters {
					Expect(store.RecordProgress(delta, float64(delta))).To(Succeed())
				}
				Expect(store.RecordCompletion()).To(Succeed())
			}(int64(w + 1))
		}
		wg.Wait()

		// sum(1..16) = 136
		snap := store.Snapshot()
		Expect(snap.TransferredBytes).To(BeEquivalentTo(136 * iters))
		Expect(snap.SpeedSampleSum).To(BeNumerically("==", 136*iters))
		Expect(snap.SpeedSampleCount).To(BeEquivalentTo(workers * iters))
		Expect(snap.DownloadCount).To(BeEquivalentTo(workers))
	})

	It("should track active sessions and report derived values", func() {
		store.IncActive()
		store.IncActive()
		store.DecActive()
		Expect(store.RecordProgress(10, 100)).To(Succeed())
		Expect(store.RecordProgress(10, 300)).To(Succeed())

		r := store.Report()
		Expect(r.Active).To(BeEquivalentTo(1))
		Expect(r.AvgSpeed).To(BeNumerically("==", 200))
		Expect(r.TransferredBytes).To(BeEquivalentTo(20))
		Expect(store.LogLine()).To(ContainSubstring("active 1"))
	})

	Describe("storage failures", func() {
		var fd *failingDriver

		BeforeEach(func() {
			var err error
			fd = &failingDriver{DBMock: dbdriver.NewDBMock()}
			store, err = stats.NewStore(fd)
			Expect(err).NotTo(HaveOccurred())
			fd.broken = true
		})

		It("should keep in-memory updates and report the failure", func() {
			err := store.RecordProgress(7, 70)
			Expect(err).To(HaveOccurred())
			Expect(stats.IsErrStorageUnavailable(err)).To(BeTrue())
			Expect(err).To(MatchError(errDiskGone))

			err = store.RecordCompletion()
			Expect(stats.IsErrStorageUnavailable(err)).To(BeTrue())

			snap := store.Snapshot()
			Expect(snap.TransferredBytes).To(BeEquivalentTo(7))
			Expect(snap.DownloadCount).To(BeEquivalentTo(1))
		})

		It("should resume persisting once storage is back", func() {
			Expect(store.RecordCompletion()).NotTo(Succeed())
			fd.broken = false
			Expect(store.RecordCompletion()).To(Succeed())

			Expect(reload(fd).DownloadCount).To(BeEquivalentTo(2))
		})
	})
})

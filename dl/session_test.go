// Package dl implements simulated downloads: a synthetic byte source,
// a transfer monitor, and the per-request session controller.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package dl_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/NVIDIA/dlsim/cmn/cos"
	"github.com/NVIDIA/dlsim/dbdriver"
	"github.com/NVIDIA/dlsim/dl"
	"github.com/NVIDIA/dlsim/stats"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Controller", func() {
	var (
		store *stats.Store
		ctrl  *dl.Controller
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		store, err = stats.NewStore(dbdriver.NewDBMock())
		Expect(err).NotTo(HaveOccurred())
		ctrl = dl.NewController(dl.Config{ChunkSize: 16 * cos.KiB, SampleInterval: 10 * time.Millisecond}, store)
		ctx = context.Background()
	})

	It("should reject an invalid size without touching statistics", func() {
		d := &memDelivery{}
		sess, err := ctrl.Run(ctx, "0MB", "zero.bin", d)
		Expect(err).To(HaveOccurred())
		Expect(cos.IsErrInvalidSize(err)).To(BeTrue())
		Expect(sess.State()).To(Equal(dl.Rejected))
		Expect(d.announced).To(BeZero())
		Expect(d.total()).To(BeZero())
		Expect(store.Snapshot()).To(Equal(stats.Statistics{}))
	})

	It("should deliver exactly the requested number of bytes", func() {
		d := &memDelivery{}
		sess, err := ctrl.Run(ctx, "1000", "test.bin", d)
		Expect(err).NotTo(HaveOccurred())
		Expect(sess.State()).To(Equal(dl.Completed))
		Expect(sess.Size()).To(BeEquivalentTo(1000))
		Expect(sess.Remaining()).To(BeZero())
		Expect(sess.ID()).NotTo(BeEmpty())

		Expect(d.announced).To(Equal(1))
		Expect(*d.meta).To(Equal(dl.Meta{SessionID: sess.ID(), Size: 1000, ContentType: cos.ContentBinary, Filename: "test.bin"}))
		Expect(d.total()).To(BeEquivalentTo(1000))

		snap := store.Snapshot()
		Expect(snap.DownloadCount).To(BeEquivalentTo(1))
		Expect(snap.TransferredBytes).To(BeEquivalentTo(1000))
		Expect(snap.SpeedSampleCount).To(BeNumerically(">=", 1))
		Expect(store.Active()).To(BeZero())
	})

	It("should cancel when the consumer disconnects mid-stream", func() {
		d := &memDelivery{limit: 2_000_000}
		sess, err := ctrl.Run(ctx, "5MB", "big.bin", d)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, dl.ErrConsumerDisconnected)).To(BeTrue())
		Expect(sess.State()).To(Equal(dl.Cancelled))
		Expect(d.total()).To(BeEquivalentTo(2_000_000))
		Expect(sess.Delivered()).To(BeEquivalentTo(2_000_000))
		Expect(sess.Transferred()).To(BeNumerically(">", 2_000_000))

		snap := store.Snapshot()
		Expect(snap.DownloadCount).To(BeZero())
		Expect(snap.TransferredBytes).To(BeEquivalentTo(2_000_000))
	})

	It("should cancel when the request context is done", func() {
		cctx, cancel := context.WithCancel(ctx)
		defer cancel()
		d := &memDelivery{limit: 100 * cos.KiB, cancel: cancel}
		sess, err := ctrl.Run(cctx, "10MB", "ctx.bin", d)
		Expect(errors.Is(err, dl.ErrConsumerDisconnected)).To(BeTrue())
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(sess.State()).To(Equal(dl.Cancelled))
		Expect(sess.Transferred()).To(BeNumerically("<", 10*cos.MiB))

		snap := store.Snapshot()
		Expect(snap.DownloadCount).To(BeZero())
		Expect(snap.TransferredBytes).To(Equal(d.total()))
	})

	It("should use the delivery's own chunk hint", func() {
		d := &hintedDelivery{memDelivery{hint: 7}}
		_, err := ctrl.Run(ctx, "100B", "hint.bin", d)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.chunks).To(HaveLen(15))
		for _, c := range d.chunks {
			Expect(c).To(BeNumerically("<=", 7))
		}
	})

	It("should sample progress periodically for slow consumers", func() {
		d := &memDelivery{delay: 3 * time.Millisecond}
		_, err := ctrl.Run(ctx, "256KB", "slow.bin", d)
		Expect(err).NotTo(HaveOccurred())

		snap := store.Snapshot()
		Expect(snap.SpeedSampleCount).To(BeNumerically(">=", 2))
		Expect(snap.TransferredBytes).To(BeEquivalentTo(256 * cos.KiB))
		avg, ok := snap.AvgSpeed()
		Expect(ok).To(BeTrue())
		Expect(avg).To(BeNumerically(">", 0))
	})

	It("should account two concurrent sessions", func() {
		var wg sync.WaitGroup
		for range 2 {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				sess, err := ctrl.Run(ctx, "1000000", "c.bin", &memDelivery{})
				Expect(err).NotTo(HaveOccurred())
				Expect(sess.State()).To(Equal(dl.Completed))
			}()
		}
		wg.Wait()

		snap := store.Snapshot()
		Expect(snap.DownloadCount).To(BeEquivalentTo(2))
		Expect(snap.TransferredBytes).To(BeEquivalentTo(2_000_000))
	})

	It("should sum the deltas of K concurrent sessions exactly", func() {
		const k = 12
		var (
			wg    sync.WaitGroup
			total int64
		)
		for range k {
			size := rand.Int64N(cos.MiB) + 1
			total += size
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				d := &memDelivery{}
				_, err := ctrl.Run(ctx, cos.ToSizeCanon(size), "k.bin", d)
				Expect(err).NotTo(HaveOccurred())
				Expect(d.total()).To(Equal(size))
			}()
		}
		wg.Wait()

		snap := store.Snapshot()
		Expect(snap.DownloadCount).To(BeEquivalentTo(k))
		Expect(snap.TransferredBytes).To(Equal(total))
	})

	Describe("storage failures", func() {
		var fd *failingDriver

		BeforeEach(func() {
			var err error
			fd = &failingDriver{DBMock: dbdriver.NewDBMock()}
			store, err = stats.NewStore(fd)
			Expect(err).NotTo(HaveOccurred())
			ctrl = dl.NewController(dl.Config{ChunkSize: 4 * cos.KiB, SampleInterval: time.Millisecond}, store)
			fd.broken.Store(true)
		})

		It("should keep delivering and counting in memory", func() {
			d := &memDelivery{delay: 50 * time.Microsecond}
			sess, err := ctrl.Run(ctx, "200KB", "nodisk.bin", d)
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.State()).To(Equal(dl.Completed))
			Expect(d.total()).To(BeEquivalentTo(200 * cos.KiB))
			Expect(fd.failed.Load()).To(BeNumerically(">=", 2))

			snap := store.Snapshot()
			Expect(snap.DownloadCount).To(BeEquivalentTo(1))
			Expect(snap.TransferredBytes).To(BeEquivalentTo(200 * cos.KiB))
			Expect(snap.SpeedSampleCount).To(BeNumerically(">=", 1))
		})
	})
})

// Package ais provides the dlsim HTTP server: download, status page,
// statistics API, and metrics.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package ais

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/NVIDIA/dlsim/cmn"
	"github.com/NVIDIA/dlsim/cmn/cos"
	"github.com/NVIDIA/dlsim/dbdriver"
	"github.com/NVIDIA/dlsim/stats"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/tinylib/msgp/msgp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Server", func() {
	var (
		store  *stats.Store
		ts     *httptest.Server
		client *http.Client
	)

	BeforeEach(func() {
		var err error
		store, err = stats.NewStore(dbdriver.NewDBMock())
		Expect(err).NotTo(HaveOccurred())

		config := cmn.DefaultConfig()
		config.Stream.SampleInterval = cos.Duration(20 * time.Millisecond)
		ts = httptest.NewServer(newServer(config, store).handler())
		client = &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		}
	})

	AfterEach(func() {
		ts.Close()
	})

	get := func(path string, hdrs ...string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, ts.URL+path, http.NoBody)
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < len(hdrs); i += 2 {
			req.Header.Set(hdrs[i], hdrs[i+1])
		}
		resp, err := client.Do(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	readAll := func(resp *http.Response) []byte {
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return b
	}

	Describe("download", func() {
		It("should stream exactly the requested number of zero bytes", func() {
			resp := get("/1000/test.bin")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get(cos.HdrContentType)).To(Equal(cos.ContentBinary))
			Expect(resp.Header.Get(cos.HdrContentLength)).To(Equal("1000"))
			Expect(resp.Header.Get(cos.HdrContentDisposition)).To(Equal("attachment; filename=test.bin"))
			Expect(resp.Header.Get(cos.HdrSessionID)).NotTo(BeEmpty())

			body := readAll(resp)
			Expect(body).To(Equal(make([]byte, 1000)))

			Eventually(func() int64 { return store.Snapshot().DownloadCount }).Should(BeEquivalentTo(1))
			Expect(store.Snapshot().TransferredBytes).To(BeEquivalentTo(1000))
			Expect(store.Active()).To(BeZero())
		})

		It("should stream large sizes given with a unit", func() {
			resp := get("/3MB/big.iso")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			n, err := cos.DrainReader(resp.Body)
			resp.Body.Close()
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeEquivalentTo(3 * cos.MiB))
			Eventually(func() int64 { return store.Snapshot().TransferredBytes }).Should(BeEquivalentTo(3 * cos.MiB))
		})

		It("should reject an unparsable size with a JSON payload", func() {
			resp := get("/0MB/zero.bin")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(resp.Header.Get(cos.HdrContentType)).To(Equal(cos.ContentJSON))

			var payload map[string]any
			Expect(jsoniter.Unmarshal(readAll(resp), &payload)).To(Succeed())
			Expect(payload).To(Equal(map[string]any{
				"success": false,
				"message": "Could not parse the filesize '0MB' into bytes",
			}))
			Expect(store.Snapshot()).To(Equal(stats.Statistics{}))
		})

		It("should count partial bytes but not completion when the client goes away", func() {
			resp := get("/1GB/huge.bin")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			_, err := io.CopyN(io.Discard, resp.Body, cos.MiB)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			Eventually(store.Active, 5*time.Second).Should(BeZero())
			snap := store.Snapshot()
			Expect(snap.DownloadCount).To(BeZero())
			Expect(snap.TransferredBytes).To(BeNumerically(">=", cos.MiB))
			Expect(snap.TransferredBytes).To(BeNumerically("<", cos.GiB))
		})

		It("should answer HEAD with headers only", func() {
			resp, err := client.Head(ts.URL + "/10MB/file.bin")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.ContentLength).To(BeEquivalentTo(10 * cos.MiB))
			Expect(store.Snapshot()).To(Equal(stats.Statistics{}))
		})
	})

	It("should redirect unmatched paths to the status page", func() {
		for _, path := range []string{"/foo", "/a/b/c", "/v1"} {
			resp := get(path)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusFound), path)
			Expect(resp.Header.Get(cos.HdrLocation)).To(Equal("/"), path)
		}
	})

	Describe("status page", func() {
		It("should show n/a before the first sample", func() {
			resp := get("/")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			page := string(readAll(resp))
			Expect(page).To(ContainSubstring(`<td id="downloads">0</td>`))
			Expect(page).To(ContainSubstring(`<td id="speed">n/a</td>`))
			Expect(page).To(ContainSubstring(`<td id="transfer">0B</td>`))
		})

		It("should render formatted statistics", func() {
			for range 1234 {
				Expect(store.RecordCompletion()).To(Succeed())
			}
			Expect(store.RecordProgress(1536*cos.KiB, 2*cos.MiB)).To(Succeed())

			page := string(readAll(get("/")))
			Expect(page).To(ContainSubstring(`<td id="downloads">1,234</td>`))
			Expect(page).To(ContainSubstring(`<td id="speed">2MiB/s</td>`))
			Expect(page).To(ContainSubstring(`<td id="transfer">1.5MiB</td>`))
		})
	})

	Describe("stats API", func() {
		BeforeEach(func() {
			Expect(store.RecordProgress(100, 1000)).To(Succeed())
			Expect(store.RecordProgress(100, 3000)).To(Succeed())
			Expect(store.RecordCompletion()).To(Succeed())
		})

		It("should return JSON by default", func() {
			resp := get(pathStats)
			Expect(resp.Header.Get(cos.HdrContentType)).To(Equal(cos.ContentJSON))
			var report stats.Report
			Expect(jsoniter.Unmarshal(readAll(resp), &report)).To(Succeed())
			Expect(report.DownloadCount).To(BeEquivalentTo(1))
			Expect(report.TransferredBytes).To(BeEquivalentTo(200))
			Expect(report.AvgSpeed).To(BeNumerically("==", 2000))
		})

		It("should return msgpack when asked", func() {
			resp := get(pathStats, cos.HdrAccept, cos.ContentMsgPack)
			Expect(resp.Header.Get(cos.HdrContentType)).To(Equal(cos.ContentMsgPack))
			var report stats.Report
			Expect(report.DecodeMsg(msgp.NewReader(bytes.NewReader(readAll(resp))))).To(Succeed())
			Expect(report.SpeedSampleCount).To(BeEquivalentTo(2))
			Expect(report.AvgSpeed).To(BeNumerically("==", 2000))
		})

		It("should push reports over websocket", func() {
			url := "ws" + strings.TrimPrefix(ts.URL, "http") + pathStatsWS
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			Expect(err).NotTo(HaveOccurred())
			defer conn.Close()

			conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			_, msg, err := conn.ReadMessage()
			Expect(err).NotTo(HaveOccurred())
			var report stats.Report
			Expect(jsoniter.Unmarshal(msg, &report)).To(Succeed())
			Expect(report.DownloadCount).To(BeEquivalentTo(1))
		})

		It("should fail a push once the connection is gone", func() {
			var (
				srv  = newServer(cmn.DefaultConfig(), store)
				errs = make(chan error, 1)
			)
			wts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				conn, err := srv.upgrader.Upgrade(w, r, nil)
				if err != nil {
					errs <- err
					return
				}
				conn.Close()
				errs <- srv.wsPush(conn)
			}))
			defer wts.Close()

			conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(wts.URL, "http"), nil)
			Expect(err).NotTo(HaveOccurred())
			defer conn.Close()
			Eventually(errs).Should(Receive(MatchError(net.ErrClosed)))
		})

		It("should export Prometheus metrics", func() {
			body := string(readAll(get(pathMetrics)))
			Expect(body).To(ContainSubstring("dlsim_dl_n 1"))
			Expect(body).To(ContainSubstring("dlsim_dl_size 200"))
			Expect(body).To(ContainSubstring("dlsim_dl_speed_bps_count 2"))
		})
	})
})

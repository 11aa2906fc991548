// Package ais provides the dlsim HTTP server: download, status page,
// statistics API, and metrics.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package ais

import (
	"net/http"
	"strings"
	"time"

	"github.com/NVIDIA/dlsim/cmn"
	"github.com/NVIDIA/dlsim/cmn/cos"
	"github.com/NVIDIA/dlsim/dl"
	"github.com/NVIDIA/dlsim/stats"
	"github.com/NVIDIA/dlsim/tracing"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// URL paths
const (
	pathStatus  = "/"
	pathStats   = "/v1/stats"
	pathStatsWS = "/v1/stats/ws"
	pathMetrics = "/metrics"
)

type server struct {
	config   *cmn.Config
	store    *stats.Store
	ctrl     *dl.Controller
	upgrader websocket.Upgrader
	wsIval   time.Duration
}

func newServer(config *cmn.Config, store *stats.Store) *server {
	ctrl := dl.NewController(dl.Config{
		ChunkSize:      int(config.Stream.ChunkSize),
		SampleInterval: config.Stream.SampleInterval.D(),
	}, store)
	return &server{
		config: config,
		store:  store,
		ctrl:   ctrl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cos.KiB,
			WriteBufferSize: 4 * cos.KiB,
		},
		wsIval: max(config.Stream.SampleInterval.D(), time.Second),
	}
}

func (s *server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.statusPage)
	mux.HandleFunc("GET "+pathStats, s.getStats)
	mux.HandleFunc("GET "+pathStatsWS, s.statsWS)
	mux.Handle("GET "+pathMetrics, promhttp.HandlerFor(s.store.Gatherer(), promhttp.HandlerOpts{}))
	mux.Handle("GET /{filesize}/{filename}", tracing.NewTraceableHandler(http.HandlerFunc(s.download), "download"))
	mux.HandleFunc("/", redirect)
	return mux
}

// any unmatched path
func redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, pathStatus, http.StatusFound)
}

// GET /v1/stats (JSON or msgpack, by Accept)
func (s *server) getStats(w http.ResponseWriter, r *http.Request) {
	report := s.store.Report()
	if strings.Contains(r.Header.Get(cos.HdrAccept), cos.ContentMsgPack) {
		writeMsgPack(w, r, report, "stats")
		return
	}
	writeJSON(w, r, report, "stats")
}

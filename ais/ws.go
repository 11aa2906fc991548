// Package ais provides the dlsim HTTP server: download, status page,
// statistics API, and metrics.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package ais

import (
	"net/http"
	"time"

	"github.com/NVIDIA/dlsim/cmn/cos"
	"github.com/NVIDIA/dlsim/cmn/nlog"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait = 5 * time.Second
	wsMaxRead   = 512
)

// GET /v1/stats/ws: push a JSON report every wsIval until the client goes away
func (s *server) statsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// (the upgrader has already replied)
		nlog.Warningln("stats-ws: upgrade failed:", err)
		return
	}
	defer conn.Close()

	gone := make(chan struct{})
	go wsReadPump(conn, gone)

	ticker := time.NewTicker(s.wsIval)
	defer ticker.Stop()
	for {
		if err := s.wsPush(conn); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !cos.IsErrPeerGone(err) {
				nlog.Warningln("stats-ws:", r.RemoteAddr, err)
			}
			return
		}
		select {
		case <-ticker.C:
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (s *server) wsPush(conn *websocket.Conn) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	wr, err := conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	if err := cos.JSON.NewEncoder(wr).Encode(s.store.Report()); err != nil {
		wr.Close()
		return err
	}
	return wr.Close()
}

// drains (and discards) client messages; closes `gone` upon disconnect
func wsReadPump(conn *websocket.Conn, gone chan struct{}) {
	defer close(gone)
	conn.SetReadLimit(wsMaxRead)
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

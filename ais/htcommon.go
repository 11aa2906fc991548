// Package ais provides the dlsim HTTP server: download, status page,
// statistics API, and metrics.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package ais

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/NVIDIA/dlsim/cmn/cos"
	"github.com/NVIDIA/dlsim/cmn/nlog"

	jsoniter "github.com/json-iterator/go"
	"github.com/tinylib/msgp/msgp"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type (
	netServer struct {
		s       *http.Server
		handler http.Handler
		mu      sync.Mutex
		stopped bool
	}
	nlogWriter struct{}

	// error payload (see writeErr)
	errPayload struct {
		Message string `json:"message"`
		Success bool   `json:"success"`
	}
)

////////////////
// nlogWriter //
////////////////

const tlsHandshakeErrorPrefix = "http: TLS handshake error"

func (*nlogWriter) Write(p []byte) (int, error) {
	s := string(p)
	// Ignore TLS handshake errors (see: https://github.com/golang/go/issues/26918).
	if strings.Contains(s, tlsHandshakeErrorPrefix) {
		return len(p), nil
	}
	nlog.Errorln(strings.TrimSuffix(s, "\n"))
	return len(p), nil
}

///////////////
// netServer //
///////////////

// listen blocks until the server is shut down (nil) or fails to serve.
func (server *netServer) listen(ln net.Listener) error {
	server.mu.Lock()
	if server.stopped {
		server.mu.Unlock()
		return nil
	}
	server.s = &http.Server{
		Handler:           server.handler,
		ErrorLog:          log.New(&nlogWriter{}, "", 0),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s := server.s
	server.mu.Unlock()

	nlog.Infoln("listening on", ln.Addr().String())
	err := s.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (server *netServer) shutdown() {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.stopped = true
	if server.s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := server.s.Shutdown(ctx); err != nil {
		nlog.Warningln("http server shutdown err:", err)
		server.s.Close()
	}
	cancel()
}

//
// write helpers
//

func writeJSON(w http.ResponseWriter, r *http.Request, v any, tag string) (ok bool) {
	ok = true
	w.Header().Set(cos.HdrContentType, cos.ContentJSON)
	if err := jsoniter.NewEncoder(w).Encode(v); err != nil {
		handleWriteError(r, tag, err)
		ok = false
	}
	return
}

func writeMsgPack(w http.ResponseWriter, r *http.Request, v msgp.Encodable, tag string) (ok bool) {
	mw := msgp.NewWriterSize(w, 4*cos.KiB)
	w.Header().Set(cos.HdrContentType, cos.ContentMsgPack)
	err := v.EncodeMsg(mw)
	if err == nil {
		err = mw.Flush()
	}
	if err != nil {
		handleWriteError(r, tag, err)
		return false
	}
	return true
}

func writeErr(w http.ResponseWriter, r *http.Request, msg string, status int) {
	w.Header().Set(cos.HdrContentType, cos.ContentJSON)
	w.Header().Set(cos.HdrContentTypeOptions, "nosniff")
	w.WriteHeader(status)
	if err := jsoniter.NewEncoder(w).Encode(&errPayload{Success: false, Message: msg}); err != nil {
		handleWriteError(r, "error-payload", err)
	}
}

func handleWriteError(r *http.Request, tag string, err error) {
	if cos.IsErrPeerGone(err) {
		nlog.Infoln(tag+":", r.RemoteAddr, "went away:", err)
		return
	}
	nlog.Errorln(tag+": failed to write bytes to", r.RemoteAddr, "err:", err)
}

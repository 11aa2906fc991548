// Package dlloader is a load generator for dlsim: it runs concurrent
// downloads and reports client-side throughput along with server statistics.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package dlloader

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/NVIDIA/dlsim/cmn/cos"
	"github.com/NVIDIA/dlsim/stats"

	"github.com/tinylib/msgp/msgp"
	"github.com/valyala/fasthttp"
)

const ua = "dlloader"

// overriding fasthttp default `const DefaultDialTimeout = 3 * time.Second`
func dialTimeout(addr string) (net.Conn, error) {
	return fasthttp.DialTimeout(addr, 10*time.Second)
}

func newClient(workers int) *fasthttp.Client {
	return &fasthttp.Client{
		Name:               ua,
		Dial:               dialTimeout,
		MaxConnsPerHost:    workers,
		ReadBufferSize:     32 * cos.KiB,
		StreamResponseBody: true,
	}
}

type dlResult struct {
	sessID  string
	n       int64
	elapsed time.Duration
	aborted bool
}

// download reads the response body to the end, or only `abortAfter` bytes.
func download(client *fasthttp.Client, url string, size, abortAfter int64, timeout time.Duration) (res dlResult, err error) {
	req, resp := fasthttp.AcquireRequest(), fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.Header.SetMethod(http.MethodGet)
	req.SetRequestURI(url)
	req.Header.Set(cos.HdrUserAgent, ua)
	aborting := abortAfter > 0 && abortAfter < size
	if aborting {
		// do not return a half-read connection to the pool
		req.SetConnectionClose()
	}
	started := time.Now()
	if timeout > 0 {
		err = client.DoTimeout(req, resp, timeout)
	} else {
		err = client.Do(req, resp)
	}
	if err != nil {
		return res, err
	}
	if sc := resp.StatusCode(); sc != http.StatusOK {
		return res, fmt.Errorf("GET %s: status %d: %s", url, sc, bytes.TrimSpace(resp.Body()))
	}
	res.sessID = string(resp.Header.Peek(cos.HdrSessionID))

	body := resp.BodyStream()
	if body == nil { // not streamed (small body)
		res.n = int64(len(resp.Body()))
	} else if aborting {
		res.n, err = io.CopyN(io.Discard, body, abortAfter)
		res.aborted = true
		resp.CloseBodyStream()
	} else {
		res.n, err = cos.DrainReader(body)
	}
	res.elapsed = time.Since(started)
	if err == nil && !res.aborted && res.n != size {
		err = fmt.Errorf("GET %s: received %d bytes, expected %d", url, res.n, size)
	}
	return res, err
}

// fetchStats gets the server's statistics as msgpack.
func fetchStats(client *fasthttp.Client, baseURL string) (*stats.Report, error) {
	req, resp := fasthttp.AcquireRequest(), fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.SetRequestURI(baseURL + "/v1/stats")
	req.Header.Set(cos.HdrAccept, cos.ContentMsgPack)
	req.Header.Set(cos.HdrUserAgent, ua)
	if err := client.DoTimeout(req, resp, 10*time.Second); err != nil {
		return nil, err
	}
	if sc := resp.StatusCode(); sc != http.StatusOK {
		return nil, fmt.Errorf("GET /v1/stats: status %d", sc)
	}
	var (
		report = &stats.Report{}
		body   io.Reader
	)
	if bs := resp.BodyStream(); bs != nil {
		body = bs
	} else {
		body = bytes.NewReader(resp.Body())
	}
	if err := report.DecodeMsg(msgp.NewReaderSize(body, 4*cos.KiB)); err != nil {
		return nil, err
	}
	return report, nil
}

// Package ais provides the dlsim HTTP server: download, status page,
// statistics API, and metrics.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package ais

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/NVIDIA/dlsim/cmn/cos"
	"github.com/NVIDIA/dlsim/cmn/nlog"
	"github.com/NVIDIA/dlsim/dl"
)

// httpDelivery streams a session to the response writer.
type httpDelivery struct {
	w http.ResponseWriter
}

// interface guard
var _ dl.Delivery = (*httpDelivery)(nil)

func (d *httpDelivery) Announce(meta *dl.Meta) error {
	setDownloadHeaders(d.w.Header(), meta)
	d.w.WriteHeader(http.StatusOK)
	return nil
}

func (d *httpDelivery) Write(p []byte) (int, error) { return d.w.Write(p) }

func setDownloadHeaders(hdr http.Header, meta *dl.Meta) {
	hdr.Set(cos.HdrContentType, meta.ContentType)
	hdr.Set(cos.HdrContentLength, strconv.FormatInt(meta.Size, 10))
	hdr.Set(cos.HdrContentDisposition, contentDisposition(meta.Filename))
	hdr.Set(cos.HdrCacheControl, "no-store")
	hdr.Set(cos.HdrContentTypeOptions, "nosniff")
	if meta.SessionID != "" {
		hdr.Set(cos.HdrSessionID, meta.SessionID)
	}
}

func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

func invalidSizeMsg(token string) string {
	return "Could not parse the filesize '" + token + "' into bytes"
}

// GET /{filesize}/{filename}
func (s *server) download(w http.ResponseWriter, r *http.Request) {
	var (
		token    = r.PathValue("filesize")
		filename = r.PathValue("filename")
	)
	if r.Method == http.MethodHead {
		s.downloadHead(w, r, token, filename)
		return
	}
	sess, err := s.ctrl.Run(r.Context(), token, filename, &httpDelivery{w: w})
	switch {
	case err == nil:
		nlog.Infoln(sess.String(), "completed in", sess.Duration())
	case cos.IsErrInvalidSize(err):
		writeErr(w, r, invalidSizeMsg(token), http.StatusBadRequest)
	case errors.Is(err, dl.ErrConsumerDisconnected):
		nlog.Infoln(err, "after", cos.ToSizeIEC(sess.Delivered(), 2))
	default:
		nlog.Errorln(err)
	}
}

// HEAD: headers only, no session
func (*server) downloadHead(w http.ResponseWriter, r *http.Request, token, filename string) {
	size, err := cos.ParseSize(token)
	if err != nil {
		writeErr(w, r, invalidSizeMsg(token), http.StatusBadRequest)
		return
	}
	setDownloadHeaders(w.Header(), &dl.Meta{Size: size, ContentType: cos.ContentBinary, Filename: filename})
	w.WriteHeader(http.StatusOK)
}

// Package cos provides common low-level types and utilities for all dlsim packages.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

// References:
// - Standard HTTP headers: https://developer.mozilla.org/en-US/docs/Web/HTTP/Headers

const (
	HdrContentType        = "Content-Type"
	HdrContentLength      = "Content-Length"
	HdrContentDisposition = "Content-Disposition"
	HdrContentTypeOptions = "X-Content-Type-Options"
	HdrAccept             = "Accept"
	HdrLocation           = "Location"
	HdrUserAgent          = "User-Agent"
	HdrCacheControl       = "Cache-Control"

	// dlsim
	HdrSessionID = "X-Dlsim-Session"
)

// Ref: https://www.iana.org/assignments/media-types/media-types.xhtml
const (
	ContentJSON    = "application/json"
	ContentMsgPack = "application/msgpack"
	ContentBinary  = "application/octet-stream"
	ContentHTML    = "text/html; charset=utf-8"
)

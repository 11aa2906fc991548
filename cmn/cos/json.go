// Package cos provides common low-level types and utilities for all dlsim packages.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	jsoniter "github.com/json-iterator/go"
)

// JSON is used to Marshal/Unmarshal API json messages and is initialized in init function.
var JSON jsoniter.API

func init() {
	jsonConf := jsoniter.Config{
		EscapeHTML:             false, // we don't send HTMLs
		ValidateJsonRawMessage: false,
		DisallowUnknownFields:  false, // persisted records may carry fields of a newer version
		SortMapKeys:            true,
	}
	JSON = jsonConf.Froze()
}

// MustMarshal marshals v and panics if error occurs.
func MustMarshal(v any) []byte {
	b, err := JSON.Marshal(v)
	AssertNoErr(err)
	return b
}

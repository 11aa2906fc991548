// Package cmn provides common types and utilities for dlsim packages.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

// NOTE: BEWARE: `shortid` uses hardcoded 01/2016 as a starting timestamp
import (
	"math/rand/v2"
	"strconv"
	"sync/atomic"

	"github.com/teris-io/shortid"
)

const (
	// Alphabet for generating IDs similar to the shortid.DEFAULT_ABC
	idABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"
)

var (
	sids   [4]*shortid.Shortid
	sidSeq atomic.Uint64
)

func init() { InitShortid(rand.Uint64()) }

func InitShortid(seed uint64) {
	for i := range sids {
		sids[i] = shortid.MustNew(uint8(i+1) /*worker*/, idABC, seed)
	}
}

// GenSessionID generates short, unique, and log-friendly session IDs.
func GenSessionID() (id string) {
	var err error
	for _, sid := range sids {
		id, err = sid.Generate()
		if err == nil &&
			id[0] != '-' && id[0] != '_' && id[len(id)-1] != '-' && id[len(id)-1] != '_' {
			return
		}
	}
	return "s" + strconv.FormatUint(sidSeq.Add(1), 36)
}

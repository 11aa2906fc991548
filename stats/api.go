// Package stats keeps the process-wide download statistics: counters,
// speed samples, persistence, and Prometheus export.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"errors"
	"fmt"

	"github.com/NVIDIA/dlsim/cmn/jsp"
)

// storage location of the single statistics record
const (
	Collection = "stats"
	RecordKey  = "global"
)

// the record is stored signed, checksummed (xxhash), and lz4-compressed
const recordMetaver = 1

var recordOpts = jsp.CCSign(recordMetaver)

type (
	// Statistics is the persisted record.
	Statistics struct {
		DownloadCount    int64   `json:"downloads"`
		TransferredBytes int64   `json:"transfer"`
		SpeedSampleSum   float64 `json:"speed.total"`
		SpeedSampleCount int64   `json:"speed.count"`
	}

	// Report is what the stats API returns: the record plus derived values.
	Report struct {
		Statistics
		AvgSpeed float64 `json:"speed.avg"` // zero when there are no samples
		Active   int64   `json:"active"`
	}

	ErrStorageUnavailable struct {
		err error
		op  string
	}
)

////////////////
// Statistics //
////////////////

// AvgSpeed returns the average sampled speed (bytes/second); ok is false
// until the first sample is recorded.
func (s *Statistics) AvgSpeed() (avg float64, ok bool) {
	if s.SpeedSampleCount == 0 {
		return 0, false
	}
	return s.SpeedSampleSum / float64(s.SpeedSampleCount), true
}

func (s *Statistics) String() string {
	return fmt.Sprintf("stats[downloads=%d transfer=%d speed=%.0f/%d]",
		s.DownloadCount, s.TransferredBytes, s.SpeedSampleSum, s.SpeedSampleCount)
}

func (s *Statistics) valid() bool {
	return s.DownloadCount >= 0 && s.TransferredBytes >= 0 && s.SpeedSampleSum >= 0 && s.SpeedSampleCount >= 0
}

///////////////////////////
// ErrStorageUnavailable //
///////////////////////////

func NewErrStorageUnavailable(op string, err error) *ErrStorageUnavailable {
	return &ErrStorageUnavailable{op: op, err: err}
}

func (e *ErrStorageUnavailable) Error() string {
	return fmt.Sprintf("statistics storage unavailable (%s): %v", e.op, e.err)
}

func (e *ErrStorageUnavailable) Unwrap() error { return e.err }

func IsErrStorageUnavailable(err error) bool {
	var e *ErrStorageUnavailable
	return errors.As(err, &e)
}

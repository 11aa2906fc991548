// Package stats keeps the process-wide download statistics: counters,
// speed samples, persistence, and Prometheus export.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"bytes"
	"strings"
	"sync"
	ratomic "sync/atomic"

	"github.com/NVIDIA/dlsim/cmn/cos"
	"github.com/NVIDIA/dlsim/cmn/debug"
	"github.com/NVIDIA/dlsim/cmn/jsp"
	"github.com/NVIDIA/dlsim/cmn/nlog"
	"github.com/NVIDIA/dlsim/dbdriver"

	"github.com/pkg/errors"
)

// Store owns the Statistics record. All mutations happen under its mutex
// and are written through to the driver before returning.
type Store struct {
	driver dbdriver.Driver
	prom   *promStats
	stats  Statistics
	active int64 // (atomic) in-flight sessions
	mu     sync.Mutex
}

func NewStore(driver dbdriver.Driver) (*Store, error) {
	s := &Store{driver: driver}
	data, err := driver.GetString(Collection, RecordKey)
	switch {
	case err == nil:
		if err := decodeRecord(data, &s.stats); err != nil {
			return nil, errors.Wrap(err, "corrupted statistics record")
		}
		if !s.stats.valid() {
			return nil, errors.Errorf("corrupted statistics record: %s", s.stats.String())
		}
	case dbdriver.IsErrNotFound(err):
		s.stats = Statistics{}
		if err := s.write(&s.stats); err != nil {
			return nil, errors.Wrap(err, "failed to initialize statistics record")
		}
	default:
		return nil, errors.Wrap(err, "failed to load statistics record")
	}
	s.prom = newPromStats(s)
	return s, nil
}

// RecordProgress adds one monitor sample: `delta` bytes at `speed` bytes/second.
func (s *Store) RecordProgress(delta int64, speed float64) error {
	debug.Assertf(delta >= 0 && speed >= 0, "invalid sample: %d, %f", delta, speed)
	s.mu.Lock()
	s.stats.TransferredBytes += delta
	s.stats.SpeedSampleSum += speed
	s.stats.SpeedSampleCount++
	err := s.persist("progress")
	s.mu.Unlock()

	s.prom.observe(speed)
	return err
}

func (s *Store) RecordCompletion() error {
	s.mu.Lock()
	s.stats.DownloadCount++
	err := s.persist("completion")
	s.mu.Unlock()
	return err
}

// Snapshot returns a consistent copy of all counters.
func (s *Store) Snapshot() Statistics {
	s.mu.Lock()
	stats := s.stats
	s.mu.Unlock()
	return stats
}

func (s *Store) Report() *Report {
	r := &Report{Statistics: s.Snapshot(), Active: s.Active()}
	r.AvgSpeed, _ = r.Statistics.AvgSpeed()
	return r
}

func (s *Store) IncActive()    { ratomic.AddInt64(&s.active, 1) }
func (s *Store) DecActive()    { ratomic.AddInt64(&s.active, -1) }
func (s *Store) Active() int64 { return ratomic.LoadInt64(&s.active) }

// LogLine is periodically called by the housekeeper.
func (s *Store) LogLine() string {
	stats := s.Snapshot()
	avg := "n/a"
	if v, ok := stats.AvgSpeed(); ok {
		avg = cos.FormatRate(v)
	}
	return "downloads " + cos.FormatBigI64(stats.DownloadCount) + ", transfer " +
		cos.ToSizeIEC(stats.TransferredBytes, 2) + ", avg speed " + avg +
		", active " + cos.FormatBigI64(s.Active())
}

// under lock; in-memory counters stay updated on failure
func (s *Store) persist(op string) error {
	debug.AssertMutexLocked(&s.mu)
	stats := s.stats
	if err := s.write(&stats); err != nil {
		nlog.Warningln("failed to persist statistics (", op, "):", err)
		return NewErrStorageUnavailable(op, err)
	}
	return nil
}

func (s *Store) write(stats *Statistics) error {
	var buf bytes.Buffer
	if err := jsp.Encode(&buf, stats, recordOpts); err != nil {
		return err
	}
	return s.driver.SetString(Collection, RecordKey, buf.String())
}

func decodeRecord(data string, stats *Statistics) error {
	return jsp.Decode(strings.NewReader(data), stats, recordOpts, Collection+"/"+RecordKey)
}

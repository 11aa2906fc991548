// Package dl implements simulated downloads: a synthetic byte source,
// a transfer monitor, and the per-request session controller.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package dl

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NVIDIA/dlsim/cmn/cos"
	"github.com/NVIDIA/dlsim/cmn/mono"
)

const (
	DefaultSampleInterval = time.Second
	minElapsed            = time.Millisecond
)

type (
	// Sample is one throughput measurement.
	Sample struct {
		Delta   int64         // bytes since the previous sample
		Speed   float64       // bytes per second
		Elapsed time.Duration // since the previous sample (or start)
	}

	// Monitor counts bytes written through it and periodically reports
	// progress to `sink` from its own goroutine.
	Monitor struct {
		w        io.Writer
		sink     func(Sample)
		stopCh   cos.StopCh
		done     chan struct{}
		total    atomic.Int64
		reported int64 // owned by the sampling goroutine, then by Stop
		last     int64 // mono time of the previous sample
		interval time.Duration
		once     sync.Once
	}
)

// interface guard
var _ io.Writer = (*Monitor)(nil)

func NewMonitor(w io.Writer, interval time.Duration, sink func(Sample)) *Monitor {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	m := &Monitor{
		w:        w,
		sink:     sink,
		interval: interval,
		done:     make(chan struct{}),
		last:     mono.NanoTime(),
	}
	m.stopCh.Init()
	go m.run()
	return m
}

func (m *Monitor) Write(p []byte) (int, error) {
	n, err := m.w.Write(p)
	m.total.Add(int64(n))
	return n, err
}

func (m *Monitor) Total() int64 { return m.total.Load() }

func (m *Monitor) run() {
	ticker := time.NewTicker(m.interval)
	defer func() {
		ticker.Stop()
		close(m.done)
	}()
	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-m.stopCh.Listen():
			return
		}
	}
}

func (m *Monitor) sample() {
	var (
		total = m.total.Load()
		delta = total - m.reported
	)
	if delta <= 0 {
		return
	}
	now := mono.NanoTime()
	elapsed := max(time.Duration(now-m.last), minElapsed)
	m.reported, m.last = total, now
	m.sink(Sample{Delta: delta, Speed: float64(delta) / elapsed.Seconds(), Elapsed: elapsed})
}

// Stop joins the sampling goroutine and reports the remaining partial interval.
func (m *Monitor) Stop() {
	m.once.Do(func() {
		m.stopCh.Close()
		<-m.done
		m.sample()
	})
}

// Package dlloader is a load generator for dlsim: it runs concurrent
// downloads and reports client-side throughput along with server statistics.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package dlloader

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/NVIDIA/dlsim/cmn/cos"
	"github.com/NVIDIA/dlsim/stats"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"
)

type summary struct {
	Server    *stats.Report `json:"server,omitempty"`
	Errors    []string      `json:"errors,omitempty"`
	Bytes     int64         `json:"bytes"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Completed int           `json:"completed"`
	Aborted   int           `json:"aborted"`
	Failed    int           `json:"failed"`
	mu        sync.Mutex
}

const maxReportedErrs = 8

func (s *summary) add(res dlResult, err error) {
	s.mu.Lock()
	s.Bytes += res.n
	switch {
	case err != nil:
		s.Failed++
		if len(s.Errors) < maxReportedErrs {
			s.Errors = append(s.Errors, err.Error())
		}
	case res.aborted:
		s.Aborted++
	default:
		s.Completed++
	}
	s.mu.Unlock()
}

func (s *summary) throughput() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Bytes) / s.Elapsed.Seconds()
}

// Start is the dlloader entry point; returns the process exit code.
func Start(args []string) int {
	p, err := parseParams(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum := run(ctx, p)
	if err := sum.print(os.Stdout, p); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if sum.Failed > 0 {
		return 1
	}
	return 0
}

func run(ctx context.Context, p *params) *summary {
	var (
		sum     = &summary{}
		client  = newClient(p.workers)
		url     = p.downloadURL()
		started = time.Now()
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for range p.count {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res, err := download(client, url, p.size, p.abortAfter, p.timeout)
			sum.add(res, err)
			return nil
		})
	}
	g.Wait()
	sum.Elapsed = time.Since(started)

	if !p.noStats {
		report, err := fetchStats(client, p.url)
		if err != nil {
			sum.add(dlResult{}, fmt.Errorf("failed to fetch server stats: %w", err))
		} else {
			sum.Server = report
		}
	}
	return sum
}

func (s *summary) print(w io.Writer, p *params) error {
	if p.jsonOut {
		enc := jsoniter.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	fmt.Fprintf(w, "%s: %d download%s of %s by %d worker%s\n", p.url, p.count, cos.Plural(p.count),
		cos.ToSizeIEC(p.size, 2), p.workers, cos.Plural(p.workers))
	fmt.Fprintf(w, "  completed %d, aborted %d, failed %d\n", s.Completed, s.Aborted, s.Failed)
	fmt.Fprintf(w, "  received %s in %v (%s)\n", cos.ToSizeIEC(s.Bytes, 2), s.Elapsed.Round(time.Millisecond),
		cos.FormatRate(s.throughput()))
	for _, e := range s.Errors {
		fmt.Fprintln(w, "  error:", e)
	}
	if s.Server != nil {
		avg := "n/a"
		if s.Server.SpeedSampleCount > 0 {
			avg = cos.FormatRate(s.Server.AvgSpeed)
		}
		fmt.Fprintf(w, "server: downloads %s, transfer %s, avg speed %s, active %d\n",
			cos.FormatBigI64(s.Server.DownloadCount), cos.ToSizeIEC(s.Server.TransferredBytes, 2), avg, s.Server.Active)
	}
	return nil
}

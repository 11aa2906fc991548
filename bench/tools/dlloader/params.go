// Package dlloader is a load generator for dlsim: it runs concurrent
// downloads and reports client-side throughput along with server statistics.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package dlloader

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/NVIDIA/dlsim/cmn/cos"
)

const usageExamples = `# 1. 8 workers, 100 downloads of 10MB each:
     $ dlloader -url=http://localhost:8080 -workers=8 -count=100 -size=10MB
# 2. Abort every download after 1MB (exercises server-side cancellation):
     $ dlloader -size=1GB -count=20 -abort-after=1MB
# 3. JSON summary, including server statistics:
     $ dlloader -size=512K -count=1000 -json
`

type params struct {
	url        string
	sizeToken  string
	name       string
	abortToken string
	timeout    time.Duration
	size       int64
	abortAfter int64 // 0: read to the end
	workers    int
	count      int
	jsonOut    bool
	noStats    bool
}

func parseParams(args []string, output io.Writer) (*params, error) {
	var (
		p     = &params{}
		flset = flag.NewFlagSet("dlloader", flag.ContinueOnError)
	)
	flset.SetOutput(output)
	flset.StringVar(&p.url, "url", "http://localhost:8080", "dlsim endpoint")
	flset.StringVar(&p.sizeToken, "size", "1MB", "download size (e.g. 1000, 64K, 10MB, 1.5GiB)")
	flset.StringVar(&p.name, "name", "dlloader.bin", "requested file name")
	flset.StringVar(&p.abortToken, "abort-after", "", "abort each download after reading this many bytes")
	flset.DurationVar(&p.timeout, "timeout", 0, "per-download timeout (0: none)")
	flset.IntVar(&p.workers, "workers", 4, "number of concurrent workers")
	flset.IntVar(&p.count, "count", 16, "total number of downloads")
	flset.BoolVar(&p.jsonOut, "json", false, "print summary as JSON")
	flset.BoolVar(&p.noStats, "no-stats", false, "do not fetch server statistics")
	flset.Usage = func() {
		fmt.Fprintln(output, "Usage: dlloader [flags]")
		flset.PrintDefaults()
		fmt.Fprint(output, "\nExamples:\n"+usageExamples+"\n")
	}
	if err := flset.Parse(args); err != nil {
		return nil, err
	}
	return p, p.validate()
}

func (p *params) validate() (err error) {
	p.url = strings.TrimSuffix(p.url, "/")
	if !strings.HasPrefix(p.url, "http://") && !strings.HasPrefix(p.url, "https://") {
		return fmt.Errorf("invalid url %q", p.url)
	}
	if p.size, err = cos.ParseSize(p.sizeToken); err != nil {
		return err
	}
	if p.abortToken != "" {
		if p.abortAfter, err = cos.ParseSize(p.abortToken); err != nil {
			return err
		}
	}
	if p.workers <= 0 || p.count <= 0 {
		return errors.New("workers and count must be positive")
	}
	if p.name == "" || strings.Contains(p.name, "/") {
		return fmt.Errorf("invalid file name %q", p.name)
	}
	return nil
}

func (p *params) downloadURL() string {
	return p.url + "/" + p.sizeToken + "/" + p.name
}

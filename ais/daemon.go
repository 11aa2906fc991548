// Package ais provides the dlsim HTTP server: download, status page,
// statistics API, and metrics.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package ais

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/NVIDIA/dlsim/cmn"
	"github.com/NVIDIA/dlsim/cmn/cos"
	"github.com/NVIDIA/dlsim/cmn/nlog"
	"github.com/NVIDIA/dlsim/dbdriver"
	"github.com/NVIDIA/dlsim/hk"
	"github.com/NVIDIA/dlsim/stats"
	"github.com/NVIDIA/dlsim/tracing"

	"golang.org/x/sync/errgroup"
)

type (
	cliFlags struct {
		confPath   string
		dumpConfig string
		version    bool
	}

	// daemon runs the housekeeper and the HTTP server; the first to
	// terminate stops the other.
	daemon struct {
		config *cmn.Config
		driver dbdriver.Driver
		store  *stats.Store
		srv    *server
		net    netServer
		ln     net.Listener
	}
)

func parseFlags(args []string) (*cliFlags, error) {
	var (
		flags = &cliFlags{}
		flset = flag.NewFlagSet("dlsim", flag.ContinueOnError)
	)
	flset.StringVar(&flags.confPath, "config", "", "configuration file (.json, .yaml)")
	flset.StringVar(&flags.dumpConfig, "dump-config", "", "write the effective configuration to the given file and exit")
	flset.BoolVar(&flags.version, "version", false, "show version and exit")
	nlog.InitFlags(flset)
	return flags, flset.Parse(args)
}

func loadConfig(flags *cliFlags) (config *cmn.Config, err error) {
	if flags.confPath != "" {
		config, err = cmn.LoadConfig(flags.confPath)
	} else {
		config = cmn.DefaultConfig()
	}
	if err != nil {
		return nil, err
	}
	if err = config.LoadFromEnv(); err != nil {
		return nil, err
	}
	return config, config.Validate()
}

func initLog(config *cmn.Config, version string) {
	if config.Log.Dir != "" {
		if err := cos.CreateDir(config.Log.Dir); err != nil {
			fmt.Fprintln(os.Stderr, "failed to create log dir:", err)
		}
	}
	nlog.SetLogDirRole(config.Log.Dir, "dlsim")
	if config.Log.ToStderr {
		nlog.SetToStderr(true)
	}
	nlog.MaxSize = int64(config.Log.MaxSize)
	nlog.SetTitle("dlsim " + version)
}

// Run is the daemon's entry point; returns the process exit code.
func Run(version, buildtime string, args []string) int {
	flags, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if flags.version {
		fmt.Println("dlsim", version, buildtime)
		return 0
	}
	config, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		return 1
	}
	if flags.dumpConfig != "" {
		if err := cmn.SaveConfig(flags.dumpConfig, config); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	initLog(config, version)
	defer nlog.FlushExit()

	nlog.Infoln("dlsim", version, "build", buildtime)
	d := &daemon{config: config}
	if err := d.init(version); err != nil {
		nlog.Errorln("failed to start:", err)
		d.cleanup()
		return 1
	}
	err = d.run()
	d.cleanup()

	var esig *cos.ErrSignal
	switch {
	case err == nil:
		nlog.Infoln("Terminated OK")
		return 0
	case errors.As(err, &esig):
		nlog.Infoln("Terminated OK via", err)
		return esig.ExitCode()
	default:
		nlog.Errorln("Terminated with err:", err)
		return 1
	}
}

func (d *daemon) init(version string) (err error) {
	if err = tracing.Init(&d.config.Tracing, version); err != nil {
		return err
	}
	dbPath := d.config.Stats.DBPath
	if dbPath != dbdriver.MemoryPath {
		if err = cos.CreateDir(filepath.Dir(dbPath)); err != nil {
			return err
		}
	}
	if d.driver, err = dbdriver.NewBuntDB(dbPath); err != nil {
		return err
	}
	if d.store, err = stats.NewStore(d.driver); err != nil {
		return err
	}
	snap := d.store.Snapshot()
	nlog.Infoln("loaded", snap.String(), "from", dbPath)

	if d.ln, err = net.Listen("tcp", d.config.ListenAddr()); err != nil {
		return err
	}
	d.srv = newServer(d.config, d.store)
	d.net.handler = d.srv.handler()
	hk.Init()
	return nil
}

func (d *daemon) run() error {
	var g errgroup.Group
	g.Go(func() error {
		err := hk.HK.Run()
		d.net.shutdown()
		return err
	})
	hk.WaitStarted()
	d.regHK()

	g.Go(func() error {
		err := d.net.listen(d.ln)
		hk.HK.Stop(err)
		return err
	})
	return g.Wait()
}

func (d *daemon) regHK() {
	hk.Reg(hk.NameLogFlush, func(int64) time.Duration {
		nlog.Flush()
		return d.config.Log.FlushTime.D()
	}, d.config.Log.FlushTime.D())

	if ival := d.config.Stats.LogInterval.D(); ival > 0 {
		hk.Reg(hk.NameStatsLog, func(int64) time.Duration {
			nlog.Infoln(d.store.LogLine())
			return ival
		}, ival)
	}
}

func (d *daemon) cleanup() {
	if d.ln != nil {
		d.ln.Close()
	}
	if d.driver != nil {
		if err := d.driver.Close(); err != nil {
			nlog.Errorln("failed to close statistics db:", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := tracing.Shutdown(ctx); err != nil {
		nlog.Warningln("tracing shutdown:", err)
	}
	cancel()
}

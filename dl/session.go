// Package dl implements simulated downloads: a synthetic byte source,
// a transfer monitor, and the per-request session controller.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package dl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/NVIDIA/dlsim/cmn"
	"github.com/NVIDIA/dlsim/cmn/cos"
	"github.com/NVIDIA/dlsim/cmn/nlog"
	"github.com/NVIDIA/dlsim/stats"
)

const DefaultChunkSize = 64 * cos.KiB

// session states
const (
	Validating State = iota
	Streaming
	Completed
	Cancelled
	Rejected
)

var ErrConsumerDisconnected = errors.New("consumer disconnected")

type (
	State int32

	Config struct {
		ChunkSize      int
		SampleInterval time.Duration
	}

	// Recorder receives progress samples and completions (see stats.Store).
	Recorder interface {
		RecordProgress(delta int64, speed float64) error
		RecordCompletion() error
	}
	// optional: in-flight accounting
	activeTracker interface {
		IncActive()
		DecActive()
	}

	Meta struct {
		SessionID   string
		ContentType string
		Filename    string
		Size        int64
	}

	// Delivery is the consumer side: it learns the payload metadata before
	// the first byte, and receives the bytes via Write.
	Delivery interface {
		io.Writer
		Announce(meta *Meta) error
	}
	// ChunkHinter is implemented by deliveries that prefer a specific chunk size.
	ChunkHinter interface {
		ChunkHint() int
	}

	Controller struct {
		rec Recorder
		cfg Config
	}

	Session struct {
		started  time.Time
		src      *Source
		mon      *Monitor
		id       string
		filename string
		token    string
		size     int64
		finished atomic.Int64 // unix nano
		state    atomic.Int32
	}
)

func (s State) String() string {
	switch s {
	case Validating:
		return "validating"
	case Streaming:
		return "streaming"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

////////////////
// Controller //
////////////////

func NewController(cfg Config, rec Recorder) *Controller {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = DefaultSampleInterval
	}
	return &Controller{cfg: cfg, rec: rec}
}

// Run executes one download session to its end. Returned errors:
// *cos.ErrInvalidSize (rejected, nothing announced), or an error wrapping
// ErrConsumerDisconnected (cancelled). The session is always returned.
func (c *Controller) Run(ctx context.Context, sizeToken, filename string, delivery Delivery) (*Session, error) {
	sess := &Session{
		id:       cmn.GenSessionID(),
		token:    sizeToken,
		filename: filename,
		started:  time.Now(),
	}
	size, err := cos.ParseSize(sizeToken)
	if err != nil {
		sess.finish(Rejected)
		return sess, err
	}
	sess.size = size
	sess.src = NewSource(size)
	stop := context.AfterFunc(ctx, sess.src.Cancel)
	defer stop()

	if at, ok := c.rec.(activeTracker); ok {
		at.IncActive()
		defer at.DecActive()
	}

	meta := &Meta{SessionID: sess.id, Size: size, ContentType: cos.ContentBinary, Filename: filename}
	if err := delivery.Announce(meta); err != nil {
		sess.src.Cancel()
		sess.finish(Cancelled)
		return sess, c.disconnected(ctx, sess, err)
	}
	sess.setState(Streaming)

	hint := c.cfg.ChunkSize
	if h, ok := delivery.(ChunkHinter); ok && h.ChunkHint() > 0 {
		hint = h.ChunkHint()
	}

	mon := NewMonitor(delivery, c.cfg.SampleInterval, func(s Sample) { c.progress(sess, s) })
	sess.mon = mon
	var werr error
	for {
		chunk := sess.src.NextChunk(hint)
		if chunk == nil {
			break
		}
		if _, werr = mon.Write(chunk); werr != nil {
			sess.src.Cancel()
			break
		}
	}
	mon.Stop()

	if werr == nil && sess.src.Remaining() == 0 {
		if err := c.rec.RecordCompletion(); err != nil && !stats.IsErrStorageUnavailable(err) {
			nlog.Warningln(sess.String(), "failed to record completion:", err)
		}
		sess.finish(Completed)
		return sess, nil
	}
	sess.finish(Cancelled)
	return sess, c.disconnected(ctx, sess, werr)
}

// on the sampling goroutine; storage failures never abort delivery
func (c *Controller) progress(sess *Session, s Sample) {
	if err := c.rec.RecordProgress(s.Delta, s.Speed); err != nil && !stats.IsErrStorageUnavailable(err) {
		nlog.Warningln(sess.String(), "failed to record progress:", err)
	}
}

// the returned error wraps both ErrConsumerDisconnected and the cause
func (*Controller) disconnected(ctx context.Context, sess *Session, cause error) error {
	if cause == nil {
		cause = context.Cause(ctx)
	}
	if cause == nil {
		return fmt.Errorf("%s: %w", sess, ErrConsumerDisconnected)
	}
	switch {
	case cos.IsRetriableConnErr(cause), cos.IsErrPeerGone(cause), cos.IsClientTimeout(cause):
	default:
		nlog.Errorln(sess.String(), "unexpected delivery error:", cause)
	}
	return fmt.Errorf("%s: %w: %w", sess, ErrConsumerDisconnected, cause)
}

/////////////
// Session //
/////////////

func (sess *Session) ID() string         { return sess.id }
func (sess *Session) Filename() string   { return sess.filename }
func (sess *Session) Size() int64        { return sess.size }
func (sess *Session) Started() time.Time { return sess.started }
func (sess *Session) State() State       { return State(sess.state.Load()) }

func (sess *Session) setState(s State) { sess.state.Store(int32(s)) }

func (sess *Session) finish(s State) {
	sess.finished.Store(time.Now().UnixNano())
	sess.setState(s)
}

// Transferred returns the number of bytes taken from the source so far,
// including a chunk the consumer may have only partially accepted.
func (sess *Session) Transferred() int64 {
	if sess.src == nil {
		return 0
	}
	return sess.src.Emitted()
}

// Delivered returns the number of bytes the consumer accepted.
func (sess *Session) Delivered() int64 {
	if sess.mon == nil {
		return 0
	}
	return sess.mon.Total()
}

func (sess *Session) Remaining() int64 {
	if sess.src == nil {
		return 0
	}
	return sess.src.Remaining()
}

func (sess *Session) Duration() time.Duration {
	if fin := sess.finished.Load(); fin != 0 {
		return time.Duration(fin - sess.started.UnixNano())
	}
	return time.Since(sess.started)
}

func (sess *Session) String() string {
	if sess.size == 0 {
		return "dl[" + sess.id + " " + sess.token + "]"
	}
	return "dl[" + sess.id + " " + cos.ToSizeIEC(sess.size, 2) + " " + sess.filename + "]"
}

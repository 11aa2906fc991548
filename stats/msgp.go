// Package stats keeps the process-wide download statistics: counters,
// speed samples, persistence, and Prometheus export.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"github.com/tinylib/msgp/msgp"
)

// msgpack field names (same as JSON)
const (
	mpDownloads = "downloads"
	mpTransfer  = "transfer"
	mpSpeedSum  = "speed.total"
	mpSpeedCnt  = "speed.count"
	mpSpeedAvg  = "speed.avg"
	mpActive    = "active"
)

// interface guard
var (
	_ msgp.Encodable = (*Report)(nil)
	_ msgp.Decodable = (*Report)(nil)
	_ msgp.Sizer     = (*Report)(nil)
)

// EncodeMsg implements msgp.Encodable
func (z *Report) EncodeMsg(en *msgp.Writer) (err error) {
	if err = en.WriteMapHeader(6); err != nil {
		return
	}
	if err = en.WriteString(mpDownloads); err != nil {
		return
	}
	if err = en.WriteInt64(z.DownloadCount); err != nil {
		return msgp.WrapError(err, "DownloadCount")
	}
	if err = en.WriteString(mpTransfer); err != nil {
		return
	}
	if err = en.WriteInt64(z.TransferredBytes); err != nil {
		return msgp.WrapError(err, "TransferredBytes")
	}
	if err = en.WriteString(mpSpeedSum); err != nil {
		return
	}
	if err = en.WriteFloat64(z.SpeedSampleSum); err != nil {
		return msgp.WrapError(err, "SpeedSampleSum")
	}
	if err = en.WriteString(mpSpeedCnt); err != nil {
		return
	}
	if err = en.WriteInt64(z.SpeedSampleCount); err != nil {
		return msgp.WrapError(err, "SpeedSampleCount")
	}
	if err = en.WriteString(mpSpeedAvg); err != nil {
		return
	}
	if err = en.WriteFloat64(z.AvgSpeed); err != nil {
		return msgp.WrapError(err, "AvgSpeed")
	}
	if err = en.WriteString(mpActive); err != nil {
		return
	}
	if err = en.WriteInt64(z.Active); err != nil {
		return msgp.WrapError(err, "Active")
	}
	return
}

// DecodeMsg implements msgp.Decodable; unknown fields are skipped
func (z *Report) DecodeMsg(dc *msgp.Reader) (err error) {
	var (
		field []byte
		n     uint32
	)
	if n, err = dc.ReadMapHeader(); err != nil {
		return
	}
	for ; n > 0; n-- {
		if field, err = dc.ReadMapKeyPtr(); err != nil {
			return
		}
		switch msgp.UnsafeString(field) {
		case mpDownloads:
			z.DownloadCount, err = dc.ReadInt64()
		case mpTransfer:
			z.TransferredBytes, err = dc.ReadInt64()
		case mpSpeedSum:
			z.SpeedSampleSum, err = dc.ReadFloat64()
		case mpSpeedCnt:
			z.SpeedSampleCount, err = dc.ReadInt64()
		case mpSpeedAvg:
			z.AvgSpeed, err = dc.ReadFloat64()
		case mpActive:
			z.Active, err = dc.ReadInt64()
		default:
			err = dc.Skip()
		}
		if err != nil {
			return msgp.WrapError(err, string(field))
		}
	}
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (*Report) Msgsize() int {
	return msgp.MapHeaderSize +
		msgp.StringPrefixSize + len(mpDownloads) + msgp.Int64Size +
		msgp.StringPrefixSize + len(mpTransfer) + msgp.Int64Size +
		msgp.StringPrefixSize + len(mpSpeedSum) + msgp.Float64Size +
		msgp.StringPrefixSize + len(mpSpeedCnt) + msgp.Int64Size +
		msgp.StringPrefixSize + len(mpSpeedAvg) + msgp.Float64Size +
		msgp.StringPrefixSize + len(mpActive) + msgp.Int64Size
}

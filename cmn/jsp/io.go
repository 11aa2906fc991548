// Package jsp (JSON persistence) provides utilities to store and load arbitrary
// JSON-encoded structures with optional checksumming and compression.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package jsp

import (
	"bytes"
	"encoding/binary"
	"hash"
	"io"

	"github.com/OneOfOne/xxhash"
	jsoniter "github.com/json-iterator/go"
	"github.com/pierrec/lz4/v4"
)

const (
	signature = "dlsim" // file signature
	version   = 1       // jsp encoding version

	sizeofI64 = 8
	//                            0 ---------------- 63  64 ------ 95 | 96 ------ 127
	prefLen = 2 * sizeofI64 // [ signature | jsp ver | meta version |   bit flags  ]
)

const (
	flagCompress = 1 << iota
	flagChecksum
)

func Encode(writer io.Writer, v any, opts Options) (err error) {
	var (
		body    = &bytes.Buffer{}
		w       io.Writer
		zw      *lz4.Writer
		encoder *jsoniter.Encoder
	)
	w = body
	if opts.Compress {
		zw = lz4.NewWriter(body)
		w = zw
	}
	encoder = jsoniter.NewEncoder(w)
	if opts.Indent {
		encoder.SetIndent("", "  ")
	}
	if err = encoder.Encode(v); err != nil {
		return
	}
	if zw != nil {
		if err = zw.Close(); err != nil {
			return
		}
	}
	if opts.Signature {
		var prefix [prefLen]byte
		// 1st 64-bit word
		copy(prefix[:], signature)
		l := len(signature)
		prefix[l] = version

		// 2nd 64-bit word: meta version | packing info
		var packingInfo uint32
		if opts.Compress {
			packingInfo |= flagCompress
		}
		if opts.Checksum {
			packingInfo |= flagChecksum
		}
		binary.BigEndian.PutUint32(prefix[sizeofI64:], opts.Metaver)
		binary.BigEndian.PutUint32(prefix[sizeofI64+4:], packingInfo)
		if _, err = writer.Write(prefix[:]); err != nil {
			return
		}
	}
	if opts.Checksum {
		var (
			hsum [sizeofI64]byte
			h    = xxhash.New64()
		)
		h.Write(body.Bytes())
		binary.BigEndian.PutUint64(hsum[:], h.Sum64())
		if _, err = writer.Write(hsum[:]); err != nil {
			return
		}
	}
	_, err = writer.Write(body.Bytes())
	return
}

func Decode(reader io.Reader, v any, opts Options, tag string) error {
	if opts.Signature {
		var prefix [prefLen]byte
		if _, err := io.ReadFull(reader, prefix[:]); err != nil {
			return err
		}
		l := len(signature)
		if signature != string(prefix[:l]) {
			return &ErrBadSignature{tag, string(prefix[:l]), signature}
		}
		if prefix[l] != version {
			return &ErrVersion{tag, uint32(prefix[l]), version}
		}
		metaver := binary.BigEndian.Uint32(prefix[sizeofI64:])
		if opts.Metaver != 0 && metaver != opts.Metaver {
			return &ErrVersion{tag, metaver, opts.Metaver}
		}
		packingInfo := binary.BigEndian.Uint32(prefix[sizeofI64+4:])
		opts.Compress = packingInfo&flagCompress != 0
		opts.Checksum = packingInfo&flagChecksum != 0
	}
	var r = reader
	if opts.Checksum {
		var (
			hsum [sizeofI64]byte
			h    hash.Hash64 = xxhash.New64()
			buf              = &bytes.Buffer{}
		)
		if _, err := io.ReadFull(reader, hsum[:]); err != nil {
			return err
		}
		if _, err := io.Copy(io.MultiWriter(buf, h), reader); err != nil {
			return err
		}
		expected, actual := binary.BigEndian.Uint64(hsum[:]), h.Sum64()
		if expected != actual {
			return &ErrBadCksum{tag, actual, expected}
		}
		r = buf
	}
	if opts.Compress {
		r = lz4.NewReader(r)
	}
	return jsoniter.NewDecoder(r).Decode(v)
}

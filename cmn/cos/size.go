// Package cos provides common low-level types and utilities for all dlsim packages.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// binary units; the "KB" family is an alias for "KiB" (see ParseSize)
const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
	TiB = 1024 * GiB
	PiB = 1024 * TiB
)

type unit struct {
	suffix string
	mult   int64
}

// longest suffixes first
var units = []unit{
	{"KIB", KiB}, {"MIB", MiB}, {"GIB", GiB}, {"TIB", TiB}, {"PIB", PiB},
	{"KB", KiB}, {"MB", MiB}, {"GB", GiB}, {"TB", TiB}, {"PB", PiB},
	{"K", KiB}, {"M", MiB}, {"G", GiB}, {"T", TiB}, {"P", PiB},
	{"B", 1},
}

// canonical (formatting) units, largest first
var canon = []unit{{"PB", PiB}, {"TB", TiB}, {"GB", GiB}, {"MB", MiB}, {"KB", KiB}}

func _suffix(s string) (string, int64) {
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			return u.suffix, u.mult
		}
	}
	return "", 1
}

/////////////
// SizeIEC //
/////////////

// is used in cmn/config (compare w/ duration.go)

type SizeIEC int64

func (siz SizeIEC) MarshalJSON() ([]byte, error) { return jsoniter.Marshal(siz.String()) }
func (siz SizeIEC) String() string               { return ToSizeCanon(int64(siz)) }

func (siz *SizeIEC) UnmarshalJSON(b []byte) (err error) {
	var (
		n   int64
		val string
	)
	if err = jsoniter.Unmarshal(b, &val); err != nil {
		return
	}
	n, err = ParseSize(val)
	*siz = SizeIEC(n)
	return
}

func (siz SizeIEC) MarshalYAML() (any, error) { return siz.String(), nil }

func (siz *SizeIEC) UnmarshalYAML(unmarshal func(any) error) error {
	var val string
	if err := unmarshal(&val); err != nil {
		return err
	}
	n, err := ParseSize(val)
	if err != nil {
		return err
	}
	*siz = SizeIEC(n)
	return nil
}

// ParseSize converts a human-readable size token (e.g. "10MB", "1.5k", "1000")
// into a positive number of bytes. Suffixes are case-insensitive and binary:
// K, KB, and KiB all mean 1024.
func ParseSize(token string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(token))
	if s == "" {
		return 0, NewErrInvalidSize(token, "empty")
	}
	suffix, mult := _suffix(s)
	num := strings.TrimSpace(strings.TrimSuffix(s, suffix))
	if num == "" || !isNumeric(num) {
		return 0, NewErrInvalidSize(token, "")
	}
	if strings.IndexByte(num, '.') < 0 {
		val, err := strconv.ParseInt(num, 10, 64)
		if err != nil {
			return 0, NewErrInvalidSize(token, "out of range")
		}
		if val > math.MaxInt64/mult {
			return 0, NewErrInvalidSize(token, "out of range")
		}
		if val == 0 {
			return 0, NewErrInvalidSize(token, "zero")
		}
		return val * mult, nil
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, NewErrInvalidSize(token, "")
	}
	f *= float64(mult)
	if f >= math.MaxInt64 {
		return 0, NewErrInvalidSize(token, "out of range")
	}
	val := int64(f)
	if val <= 0 {
		return 0, NewErrInvalidSize(token, "zero")
	}
	return val, nil
}

// digits with at most one decimal point; no sign, no exponent
func isNumeric(s string) bool {
	var dot, digits int
	for i := range len(s) {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dot++
		default:
			return false
		}
	}
	return dot <= 1 && digits > 0
}

// ToSizeCanon formats n using the largest unit that divides it exactly,
// so that ParseSize(ToSizeCanon(n)) == n.
func ToSizeCanon(n int64) string {
	for _, u := range canon {
		if n >= u.mult && n%u.mult == 0 {
			return strconv.FormatInt(n/u.mult, 10) + u.suffix
		}
	}
	return strconv.FormatInt(n, 10) + "B"
}

// ToSizeIEC formats bytes for display, e.g. ToSizeIEC(1536, 2) = "1.5KiB"
// (trailing zeros trimmed).
func ToSizeIEC(b int64, digits int) string {
	switch {
	case b >= PiB:
		return _fmt(float64(b)/PiB, digits, "PiB")
	case b >= TiB:
		return _fmt(float64(b)/TiB, digits, "TiB")
	case b >= GiB:
		return _fmt(float64(b)/GiB, digits, "GiB")
	case b >= MiB:
		return _fmt(float64(b)/MiB, digits, "MiB")
	case b >= KiB:
		return _fmt(float64(b)/KiB, digits, "KiB")
	default:
		return fmt.Sprintf("%dB", b)
	}
}

func _fmt(v float64, digits int, suffix string) string {
	s := strconv.FormatFloat(v, 'f', digits, 64)
	if strings.IndexByte(s, '.') >= 0 {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s + suffix
}

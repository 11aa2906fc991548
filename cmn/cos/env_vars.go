// Package cos provides common low-level types and utilities for all dlsim packages.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"os"
	"strconv"
	"strings"
)

// GetEnvOrDefault returns the value of the environment variable if it exists,
// otherwise it returns the provided default value.
func GetEnvOrDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

// IsParseEnvBoolOrDefault parses a boolean from the environment variable string
// or returns the default value if the variable is not set.
func IsParseEnvBoolOrDefault(envVar string, defaultValue bool) (bool, error) {
	if value := os.Getenv(envVar); value != "" {
		return ParseBool(value)
	}
	return defaultValue, nil
}

func ParseBool(s string) (bool, error) {
	// the two most common
	if s == "" {
		return false, nil
	}
	if s == "true" {
		return true, nil
	}
	// add. options
	switch strings.ToLower(s) {
	case "y", "yes", "on":
		return true, nil
	case "n", "no", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}

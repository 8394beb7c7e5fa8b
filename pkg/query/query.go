// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses list-valued URL query parameters.
package query

import (
	"strconv"
	"strings"
)

// StringSlice parses a single comma-separated query string
// into a trimmed slice of strings.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for _, v := range strings.Split(val, ",") {
		clean := strings.TrimSpace(v)
		if clean != "" {
			res = append(res, clean)
		}
	}
	return res
}

// FloatSlice parses a comma-separated list of numbers.
// Unlike [StringSlice] a single malformed entry fails the whole list.
func FloatSlice(val string) ([]float64, bool) {
	parts := StringSlice(val)
	if len(parts) == 0 {
		return nil, false
	}

	res := make([]float64, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, false
		}
		res = append(res, f)
	}
	return res, true
}

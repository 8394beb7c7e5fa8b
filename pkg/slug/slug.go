// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug generates ASCII URL slugs from arbitrary Unicode strings.
//
// # Usage
//
// Listing URLs carry a slug of the title (e.g., "gangnam-corner-shop").
// Accents are folded to ASCII; any other non-alphanumeric run becomes a
// single hyphen.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength bounds a slug produced by [From].
const MaxLength = 60

var (
	// separators matches every run of characters outside [a-z0-9].
	separators = regexp.MustCompile(`[^a-z0-9]+`)

	// foldAccents decomposes to NFD and drops combining marks: é -> e.
	foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// From converts s into a lowercase ASCII slug of at most [MaxLength] bytes.
//
// A slug that would exceed the limit is cut at its last hyphen before the
// limit, so words are never split. Returns "" when s has no ASCII letters
// or digits.
func From(s string) string {
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}

	result := separators.ReplaceAllString(strings.ToLower(folded), "-")
	result = strings.Trim(result, "-")

	if len(result) <= MaxLength {
		return result
	}

	result = result[:MaxLength]
	if cut := strings.LastIndex(result, "-"); cut > 0 {
		result = result[:cut]
	}
	return strings.Trim(result, "-")
}

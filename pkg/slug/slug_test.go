// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Gangnam Corner Shop", "gangnam-corner-shop"},
		{"  Café -- Bar & Grill!  ", "cafe-bar-grill"},
		{"Unit 3B, 2nd Floor", "unit-3b-2nd-floor"},
		{"강남 상가", ""},
		{"", ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, From(tc.input), tc.input)
	}
}

func TestFrom_CutsAtWordBoundary(t *testing.T) {
	title := strings.Repeat("storefront ", 10)

	got := From(title)
	assert.LessOrEqual(t, len(got), MaxLength)
	assert.False(t, strings.HasSuffix(got, "-"))
	for _, word := range strings.Split(got, "-") {
		assert.Equal(t, "storefront", word)
	}
}

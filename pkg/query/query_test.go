// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringSlice(t *testing.T) {
	assert.Nil(t, StringSlice(""))
	assert.Equal(t, []string{"retail", "office"}, StringSlice(" retail, ,office "))
}

func TestFloatSlice(t *testing.T) {
	values, ok := FloatSlice("106.6,10.7,106.8,10.9")
	assert.True(t, ok)
	assert.Equal(t, []float64{106.6, 10.7, 106.8, 10.9}, values)

	_, ok = FloatSlice("106.6,north,106.8")
	assert.False(t, ok)

	_, ok = FloatSlice("")
	assert.False(t, ok)
}

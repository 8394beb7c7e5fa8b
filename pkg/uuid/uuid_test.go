// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_TimeOrdered(t *testing.T) {
	first, second := New(), New()

	assert.True(t, Valid(first))
	assert.NotEqual(t, first, second)
	assert.Equal(t, "7", first[14:15])
	assert.Less(t, first, second)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("01234567-89ab-7def-8123-456789abcdef"))
	assert.False(t, Valid("gangnam-corner-shop-89abcdef"))
	assert.False(t, Valid("0123456789ab7def8123456789abcdef"))
	assert.False(t, Valid("{01234567-89ab-7def-8123-456789abcdef}"))
	assert.False(t, Valid(""))
}

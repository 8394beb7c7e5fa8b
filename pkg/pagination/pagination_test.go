// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Clamps(t *testing.T) {
	assert.Equal(t, Params{Page: 3, Limit: 50}, New(3, 50))
	assert.Equal(t, Params{Page: DefaultPage, Limit: DefaultLimit}, New(0, 0))
	assert.Equal(t, Params{Page: DefaultPage, Limit: DefaultLimit}, New(-2, MaxLimit+1))
}

func TestFromRequest(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/?page=2&limit=10", nil)
	params := FromRequest(request)
	assert.Equal(t, Params{Page: 2, Limit: 10}, params)
	assert.Equal(t, 10, params.Offset())

	request = httptest.NewRequest(http.MethodGet, "/?page=abc&limit=", nil)
	assert.Equal(t, Params{Page: DefaultPage, Limit: DefaultLimit}, FromRequest(request))
}

func TestNewMeta(t *testing.T) {
	assert.Equal(t, Meta{Page: 1, Limit: 20, Total: 41, TotalPages: 3}, NewMeta(1, 20, 41))
	assert.Equal(t, 0, NewMeta(1, 20, 0).TotalPages)
	assert.Equal(t, 0, NewMeta(1, 0, 5).TotalPages)
}

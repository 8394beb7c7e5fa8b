// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/propmap/internal/platform/sec"
)

func newTokenService(t *testing.T, issuer string) *sec.TokenService {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privatePEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})

	service, err := sec.NewTokenServiceFromPEM(privatePEM, publicPEM, issuer)
	require.NoError(t, err)
	return service
}

/*
TestTokenService_RoundTrip verifies identity claims survive signing.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := newTokenService(t, "propmap.test")

	token, err := service.GenerateAccessToken("user-1", "a@b.test", time.Minute)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.test", claims.Email)
}

func TestTokenService_Expired(t *testing.T) {
	service := newTokenService(t, "propmap.test")

	token, err := service.GenerateAccessToken("user-1", "a@b.test", -time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.ErrorIs(t, err, sec.ErrTokenExpired)
}

func TestTokenService_ForeignKey(t *testing.T) {
	signer := newTokenService(t, "propmap.test")
	verifier := newTokenService(t, "propmap.test")

	token, err := signer.GenerateAccessToken("user-1", "a@b.test", time.Minute)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, sec.ErrTokenExpired)
}

func TestHashToken_Deterministic(t *testing.T) {
	token, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	assert.Equal(t, sec.HashToken(token), sec.HashToken(token))
	assert.NotEqual(t, token, sec.HashToken(token))
	assert.Len(t, sec.HashToken(token), 64)
}

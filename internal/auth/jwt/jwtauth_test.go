package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken(t *testing.T) {
	jwtAuth, err := New(Config{JWTSecret: "secret"})
	require.NoError(t, err)

	tok, err := NewToken(jwtAuth, time.Hour, "merchandiser")
	require.NoError(t, err)

	sub, err := VerifyToken(jwtAuth, tok)
	require.NoError(t, err)
	assert.Equal(t, "merchandiser", sub)

	other, err := New(Config{JWTSecret: "other"})
	require.NoError(t, err)
	_, err = VerifyToken(other, tok)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	jwtAuth, err := New(Config{JWTSecret: "secret"})
	require.NoError(t, err)

	tok, err := NewToken(jwtAuth, -time.Hour, "")
	require.NoError(t, err)
	_, err = VerifyToken(jwtAuth, tok)
	assert.Error(t, err)
}

func TestConfig(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	assert.Equal(t, 2*time.Hour, Config{JWTTTL: "2h"}.TTL())
	assert.Equal(t, defaultTTL, Config{JWTTTL: "soon"}.TTL())
	assert.Equal(t, defaultTTL, Config{}.TTL())
}

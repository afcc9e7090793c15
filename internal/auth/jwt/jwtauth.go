package jwt

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
)

const defaultTTL = 24 * time.Hour

type Config struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTTTL    string `mapstructure:"jwt_ttl"`
}

// TTL parses the configured token lifetime, falling back to a day.
func (c Config) TTL() time.Duration {
	ttl, err := time.ParseDuration(c.JWTTTL)
	if err != nil || ttl <= 0 {
		return defaultTTL
	}
	return ttl
}

// New creates the HS256 signer that issues and verifies admin tokens.
func New(c Config) (*jwtauth.JWTAuth, error) {
	if c.JWTSecret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return jwtauth.New("HS256", []byte(c.JWTSecret), nil), nil
}

// VerifyToken checks the signature and expiry and returns the subject.
func VerifyToken(jwtAuth *jwtauth.JWTAuth, token string) (string, error) {
	t, err := jwtauth.VerifyToken(jwtAuth, token)
	if err != nil {
		return "", err
	}
	return t.Subject(), nil
}

// NewToken creates a token for subject that expires after ttl.
func NewToken(jwtAuth *jwtauth.JWTAuth, ttl time.Duration, subject string) (string, error) {
	claims := map[string]interface{}{
		"exp": time.Now().Add(ttl).Unix(),
	}
	if subject != "" {
		claims["sub"] = subject
	}
	_, ts, err := jwtAuth.Encode(claims)
	return ts, err
}

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParse(t *testing.T) {
	token, err := Issue("s3cret", "uploader-1", time.Hour)
	require.NoError(t, err)

	sub, err := Parse("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, "uploader-1", sub)
}

func TestIssueEmptySecret(t *testing.T) {
	_, err := Issue("", "x", time.Hour)
	assert.Error(t, err)
}

func TestParseRejects(t *testing.T) {
	good, err := Issue("s3cret", "u", time.Hour)
	require.NoError(t, err)
	expired, err := Issue("s3cret", "u", -time.Minute)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "u"}).
		SignedString([]byte("s3cret"))
	require.NoError(t, err)

	tests := map[string]struct {
		secret string
		token  string
	}{
		"wrong secret": {"other", good},
		"expired":      {"s3cret", expired},
		"garbage":      {"s3cret", "not.a.jwt"},
		"empty":        {"s3cret", ""},
		"alg none":     {"s3cret", none},
		"other alg":    {"s3cret", hs512},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(tt.secret, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

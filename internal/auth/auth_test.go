package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_IssueAndParse(t *testing.T) {
	j := &JWTer{Secret: []byte("s3cret"), Issuer: "test", TTL: time.Hour}

	tok, err := j.Issue("user-1")
	require.NoError(t, err)

	claims, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UID)
}

func TestJWT_RejectsBadTokens(t *testing.T) {
	j := &JWTer{Secret: []byte("s3cret"), Issuer: "test", TTL: time.Hour}

	other := &JWTer{Secret: []byte("other"), Issuer: "test", TTL: time.Hour}
	forged, _ := other.Issue("user-1")
	_, err := j.Parse(forged)
	assert.Error(t, err)

	wrongIssuer := &JWTer{Secret: []byte("s3cret"), Issuer: "someone-else", TTL: time.Hour}
	tok, _ := wrongIssuer.Issue("user-1")
	_, err = j.Parse(tok)
	assert.Error(t, err)

	expired := &JWTer{Secret: []byte("s3cret"), Issuer: "test", TTL: -time.Hour}
	tok, _ = expired.Issue("user-1")
	_, err = j.Parse(tok)
	assert.Error(t, err)

	_, err = j.Parse("not-a-jwt")
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, CheckPassword("hunter2", h))
	assert.False(t, CheckPassword("hunter3", h))
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	_, ok = BearerToken("bearer ")
	assert.False(t, ok)
	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = BearerToken("")
	assert.False(t, ok)
}

func TestUserIDContext(t *testing.T) {
	_, ok := UserIDFrom(context.Background())
	assert.False(t, ok)

	uid, ok := UserIDFrom(WithUserID(context.Background(), "u-9"))
	assert.True(t, ok)
	assert.Equal(t, "u-9", uid)
}

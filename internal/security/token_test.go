package security_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flockd/internal/domain"
	"flockd/internal/security"
)

func TestTokenRoundTrip(t *testing.T) {
	codec := security.NewTokenCodec("secret")

	token, err := codec.Sign("user@example.com")
	require.NoError(t, err)

	email, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := security.NewTokenCodec("secret-a").Sign("user@example.com")
	require.NoError(t, err)

	_, err = security.NewTokenCodec("secret-b").Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokenRejectsGarbage(t *testing.T) {
	codec := security.NewTokenCodec("secret")

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := codec.Verify(token)
		assert.ErrorIs(t, err, domain.ErrUnauthorized, "token %q", token)
	}
}

func TestTokenRejectsEmptyClaim(t *testing.T) {
	codec := security.NewTokenCodec("secret")

	token, err := codec.Sign("")
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestPasswordHasher(t *testing.T) {
	hasher := security.NewPasswordHasher(4)

	digest, err := hasher.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", digest)

	assert.NoError(t, hasher.Verify("password123", digest))
	assert.Error(t, hasher.Verify("wrongpass", digest))
}

package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flockd/internal/domain"
)

func TestRegister(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		uid, token, err := e.auth.Register(ctx, "hayden@example.com", "password123", "Hayden", "Jacobs")
		require.NoError(t, err)
		assert.Equal(t, int64(0), uid)
		assert.NotEmpty(t, token)

		user, err := e.auth.Resolve(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, uid, user.ID)
		assert.Equal(t, "haydenjacobs0", user.Handle)
	})

	t.Run("FirstUserIsGlobalOwner", func(t *testing.T) {
		_, token := e.register(t, "second@example.com", "Second", "User")
		first, err := e.users.Profile(ctx, token, 0)
		require.NoError(t, err)
		assert.Equal(t, domain.PermOwner, first.Permission)

		second, err := e.users.Profile(ctx, token, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.PermMember, second.Permission)
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		for _, email := range []string{"", "not-an-email", "a b@example.com", "user@", "@example.com"} {
			_, _, err := e.auth.Register(ctx, email, "password123", "A", "B")
			assert.ErrorIs(t, err, domain.ErrInvalidInput, "email %q", email)
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, _, err := e.auth.Register(ctx, "hayden@example.com", "password123", "Other", "Person")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		_, _, err := e.auth.Register(ctx, "pw@example.com", "12345", "A", "B")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("NameBounds", func(t *testing.T) {
		_, _, err := e.auth.Register(ctx, "n1@example.com", "password123", "", "B")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, _, err = e.auth.Register(ctx, "n2@example.com", "password123", "A", longString(51))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestGeneratedHandles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, t1 := e.register(t, "h1@example.com", "Hayden", "Jacobs")
	e.register(t, "h2@example.com", "Hayden", "Jacobs")

	u1, err := e.users.Profile(ctx, t1, 0)
	require.NoError(t, err)
	u2, err := e.users.Profile(ctx, t1, 1)
	require.NoError(t, err)

	assert.Equal(t, "haydenjacobs0", u1.Handle)
	assert.Equal(t, "haydenjacobs1", u2.Handle)

	// Long names are truncated to 18 characters before the suffix.
	_, _ = e.register(t, "h3@example.com", "Abcdefghij", "Klmnopqrstuvwxyz")
	u3, err := e.users.Profile(ctx, t1, 2)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u3.Handle, "abcdefghijklmnopqr"))
	assert.Equal(t, "abcdefghijklmnopqr0", u3.Handle)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid, _ := e.register(t, "login@example.com", "Log", "In")

	t.Run("Success", func(t *testing.T) {
		gotUID, token, err := e.auth.Login(ctx, "login@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, uid, gotUID)

		user, err := e.auth.Resolve(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, uid, user.ID)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, _, err := e.auth.Login(ctx, "login@example.com", "wrongpass")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		_, _, err := e.auth.Login(ctx, "nobody@example.com", "password123")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestLogout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, token := e.register(t, "out@example.com", "Log", "Out")

	ok, err := e.auth.Logout(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)

	// The token still verifies but no session matches it anymore.
	_, err = e.auth.Resolve(ctx, token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	ok, err = e.auth.Logout(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)

	// A fresh login re-installs the session.
	_, token2, err := e.auth.Login(ctx, "out@example.com", "password123")
	require.NoError(t, err)
	_, err = e.auth.Resolve(ctx, token2)
	assert.NoError(t, err)
}

func TestResolveRejectsGarbage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := e.auth.Resolve(ctx, token)
		assert.ErrorIs(t, err, domain.ErrUnauthorized, "token %q", token)
	}
}

func TestPasswordReset(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid, _ := e.register(t, "reset@example.com", "Re", "Set")

	t.Run("UnknownEmail", func(t *testing.T) {
		err := e.auth.RequestPasswordReset(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("FullFlow", func(t *testing.T) {
		require.NoError(t, e.auth.RequestPasswordReset(ctx, "reset@example.com"))

		mail := e.mailer.last(t)
		assert.Equal(t, "reset@example.com", mail.email)
		assert.True(t, strings.HasPrefix(mail.ticket, "RS0-"), "ticket %q embeds the user id", mail.ticket)

		require.NoError(t, e.auth.ResetPassword(ctx, mail.ticket, "newpassword"))

		_, _, err := e.auth.Login(ctx, "reset@example.com", "password123")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		gotUID, _, err := e.auth.Login(ctx, "reset@example.com", "newpassword")
		require.NoError(t, err)
		assert.Equal(t, uid, gotUID)

		// The ticket is single-use.
		err = e.auth.ResetPassword(ctx, mail.ticket, "anotherpass")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("BadTicket", func(t *testing.T) {
		err := e.auth.ResetPassword(ctx, "RS99-nope", "newpassword")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("ShortNewPassword", func(t *testing.T) {
		require.NoError(t, e.auth.RequestPasswordReset(ctx, "reset@example.com"))
		err := e.auth.ResetPassword(ctx, e.mailer.last(t).ticket, "tiny")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

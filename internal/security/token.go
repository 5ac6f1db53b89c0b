package security

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"flockd/internal/domain"
)

// TokenCodec signs and verifies session tokens. The token is a JWT carrying
// the user's email as its only claim; everything outside this package treats
// it as opaque.
type TokenCodec struct {
	secret []byte
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret)}
}

// Sign creates a token embedding the given email claim.
func (t *TokenCodec) Sign(email string) (string, error) {
	claims := jwt.MapClaims{"email": email}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify validates a token and returns its email claim. Tokens with a
// missing or empty claim are invalid: logout clears the session tag to the
// empty marker, so an empty claim must never resolve to a session.
func (t *TokenCodec) Verify(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%w: malformed token", domain.ErrUnauthorized)
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return "", fmt.Errorf("%w: empty token claim", domain.ErrUnauthorized)
	}
	return email, nil
}

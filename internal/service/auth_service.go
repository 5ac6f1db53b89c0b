package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"flockd/internal/domain"
	"flockd/internal/security"
)

// Conservative by design: local part, @, domain, 2-3 letter TLD.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9]+([._]?[a-zA-Z0-9]+)+@(\w+\.)+\w{2,3}$`)

const ticketAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// AuthService owns identity: registration, login/logout, session resolution
// and the password-reset flow.
type AuthService struct {
	users  domain.UserRepository
	tokens *security.TokenCodec
	hash   *security.PasswordHasher
	mailer domain.Mailer
	log    *zap.Logger
}

var _ SessionResolver = (*AuthService)(nil)

func NewAuthService(users domain.UserRepository, tokens *security.TokenCodec, hash *security.PasswordHasher, mailer domain.Mailer, log *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		hash:   hash,
		mailer: mailer,
		log:    log,
	}
}

// Resolve maps a token to the user whose active session matches its claim.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.User, error) {
	email, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetBySessionTag(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: no active session", domain.ErrUnauthorized)
	}
	return user, nil
}

// Register creates a user and logs them in. The very first registration is
// granted global Owner permission.
func (s *AuthService) Register(ctx context.Context, email, password, first, last string) (int64, string, error) {
	if !emailPattern.MatchString(email) {
		return 0, "", fmt.Errorf("%w: invalid email %q", domain.ErrInvalidInput, email)
	}
	if existing, err := s.users.GetByEmail(ctx, email); err != nil {
		return 0, "", err
	} else if existing != nil {
		return 0, "", fmt.Errorf("%w: email %q already registered", domain.ErrInvalidInput, email)
	}
	if utf8.RuneCountInString(password) < 6 {
		return 0, "", fmt.Errorf("%w: password shorter than 6 characters", domain.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(first); n < 1 || n > 50 {
		return 0, "", fmt.Errorf("%w: first name not between 1 and 50 characters", domain.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(last); n < 1 || n > 50 {
		return 0, "", fmt.Errorf("%w: last name not between 1 and 50 characters", domain.ErrInvalidInput)
	}

	digest, err := s.hash.Hash(password)
	if err != nil {
		return 0, "", fmt.Errorf("hash password: %w", err)
	}
	handle, err := s.generateHandle(ctx, first, last)
	if err != nil {
		return 0, "", err
	}

	existing, err := s.users.List(ctx)
	if err != nil {
		return 0, "", err
	}
	perm := domain.PermMember
	if len(existing) == 0 {
		perm = domain.PermOwner
	}

	user := &domain.User{
		Handle:     handle,
		FirstName:  first,
		LastName:   last,
		Email:      email,
		Digest:     digest,
		Permission: perm,
		Channels:   []int64{},
		Sent:       []int64{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return 0, "", err
	}

	s.log.Info("user registered",
		zap.Int64("uid", user.ID),
		zap.String("handle", handle),
	)

	// Registration implies login; the returned token is the login token.
	_, token, err := s.Login(ctx, email, password)
	if err != nil {
		return 0, "", err
	}
	return user.ID, token, nil
}

// Login verifies credentials, installs the session tag (overwriting any
// previous session) and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (int64, string, error) {
	if !emailPattern.MatchString(email) {
		return 0, "", fmt.Errorf("%w: invalid email %q", domain.ErrInvalidInput, email)
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return 0, "", err
	}
	if user == nil {
		return 0, "", fmt.Errorf("%w: email %q does not belong to a user", domain.ErrInvalidInput, email)
	}
	if err := s.hash.Verify(password, user.Digest); err != nil {
		return 0, "", fmt.Errorf("%w: incorrect password", domain.ErrInvalidInput)
	}

	if err := s.users.SetSessionTag(ctx, user.ID, email); err != nil {
		return 0, "", err
	}
	token, err := s.tokens.Sign(email)
	if err != nil {
		return 0, "", fmt.Errorf("sign token: %w", err)
	}
	return user.ID, token, nil
}

// Logout clears the caller's session tag. It reports false, not an error,
// when the token verifies but no session matches it anymore.
func (s *AuthService) Logout(ctx context.Context, token string) (bool, error) {
	email, err := s.tokens.Verify(token)
	if err != nil {
		return false, err
	}
	user, err := s.users.GetBySessionTag(ctx, email)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	if err := s.users.SetSessionTag(ctx, user.ID, ""); err != nil {
		return false, err
	}
	return true, nil
}

// RequestPasswordReset issues a single-use ticket and hands it to the mail
// gateway. Delivery is fire-and-forget: failures are logged, never surfaced.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: %s is not a registered email", domain.ErrUnauthorized, email)
	}

	ticket, err := generateTicket(user.ID, len(user.Digest))
	if err != nil {
		return fmt.Errorf("generate reset ticket: %w", err)
	}
	if err := s.users.SetResetTicket(ctx, user.ID, ticket); err != nil {
		return err
	}

	if err := s.mailer.Deliver(ctx, email, ticket); err != nil {
		s.log.Warn("reset ticket delivery failed",
			zap.String("email", email),
			zap.Error(err),
		)
	}
	return nil
}

// ResetPassword replaces the digest of every user whose current ticket
// equals the given one (exactly one, since tickets embed the user id) and
// consumes the ticket.
func (s *AuthService) ResetPassword(ctx context.Context, ticket, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < 6 {
		return fmt.Errorf("%w: password shorter than 6 characters", domain.ErrInvalidInput)
	}
	digest, err := s.hash.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	updated, err := s.users.ResetDigestByTicket(ctx, ticket, digest)
	if err != nil {
		return err
	}
	if updated == 0 {
		return fmt.Errorf("%w: incorrect reset code", domain.ErrInvalidInput)
	}
	return nil
}

// generateHandle derives a unique handle from the lowercased name, truncated
// to 18 characters, with a numeric suffix bumped until free.
func (s *AuthService) generateHandle(ctx context.Context, first, last string) (string, error) {
	base := []rune(strings.ToLower(first + last))
	if len(base) > 18 {
		base = base[:18]
	}
	for n := 0; ; n++ {
		handle := string(base) + strconv.Itoa(n)
		taken, err := s.users.GetByHandle(ctx, handle)
		if err != nil {
			return "", err
		}
		if taken == nil {
			return handle, nil
		}
	}
}

// The ticket is "RS<uid>-<random>", random sized to the digest so its length
// tracks the stored credential's.
func generateTicket(uid int64, length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(ticketAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = ticketAlphabet[idx.Int64()]
	}
	return "RS" + strconv.FormatInt(uid, 10) + "-" + string(buf), nil
}

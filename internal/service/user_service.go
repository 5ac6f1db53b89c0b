package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"flockd/internal/domain"
)

// UserService provides profile operations, the user directory and the
// admin permission change.
type UserService struct {
	sessions SessionResolver
	users    domain.UserRepository
	cropper  domain.ImageCropper
}

func NewUserService(sessions SessionResolver, users domain.UserRepository, cropper domain.ImageCropper) *UserService {
	return &UserService{
		sessions: sessions,
		users:    users,
		cropper:  cropper,
	}
}

// Profile returns any user's public profile.
func (s *UserService) Profile(ctx context.Context, token string, uid int64) (*domain.User, error) {
	if _, err := s.sessions.Resolve(ctx, token); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: unknown user %d", domain.ErrInvalidInput, uid)
	}
	return user, nil
}

// All returns every user's public profile, in id order.
func (s *UserService) All(ctx context.Context, token string) ([]*domain.User, error) {
	if _, err := s.sessions.Resolve(ctx, token); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// SetName updates the caller's first and last name.
func (s *UserService) SetName(ctx context.Context, token, first, last string) error {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}
	if n := utf8.RuneCountInString(first); n < 1 || n > 50 {
		return fmt.Errorf("%w: first name not between 1 and 50 characters", domain.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(last); n < 1 || n > 50 {
		return fmt.Errorf("%w: last name not between 1 and 50 characters", domain.ErrInvalidInput)
	}
	return s.users.SetNames(ctx, user.ID, first, last)
}

// SetEmail updates the caller's email. Any address already held by a user,
// the caller's own included, is rejected as taken.
func (s *UserService) SetEmail(ctx context.Context, token, email string) error {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: invalid email %q", domain.ErrInvalidInput, email)
	}
	taken, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if taken != nil {
		return fmt.Errorf("%w: email %q already exists", domain.ErrInvalidInput, email)
	}
	return s.users.SetEmail(ctx, user.ID, email)
}

// SetHandle updates the caller's handle; 3-20 characters, unique.
func (s *UserService) SetHandle(ctx context.Context, token, handle string) error {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}
	if n := utf8.RuneCountInString(handle); n < 3 || n > 20 {
		return fmt.Errorf("%w: handle not between 3 and 20 characters", domain.ErrInvalidInput)
	}
	taken, err := s.users.GetByHandle(ctx, handle)
	if err != nil {
		return err
	}
	if taken != nil {
		return fmt.Errorf("%w: handle %q already taken", domain.ErrInvalidInput, handle)
	}
	return s.users.SetHandle(ctx, user.ID, handle)
}

// UploadPhoto hands the URL and crop rectangle to the image-cropping
// collaborator and stores the returned reference verbatim.
func (s *UserService) UploadPhoto(ctx context.Context, token, url string, x0, y0, x1, y1 int) error {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}
	ref, err := s.cropper.FetchAndCrop(ctx, url, x0, y0, x1, y1)
	if err != nil {
		return err
	}
	return s.users.SetAvatar(ctx, user.ID, ref)
}

// ChangePermission sets a user's global permission level. Global Owners only.
func (s *UserService) ChangePermission(ctx context.Context, token string, targetID int64, perm int) error {
	actor, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}
	if actor.Permission != domain.PermOwner {
		return fmt.Errorf("%w: user %d is not a global owner", domain.ErrUnauthorized, actor.ID)
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("%w: unknown user %d", domain.ErrInvalidInput, targetID)
	}
	if perm != int(domain.PermOwner) && perm != int(domain.PermMember) {
		return fmt.Errorf("%w: %d is not a valid permission", domain.ErrInvalidInput, perm)
	}
	return s.users.SetPermission(ctx, targetID, domain.Permission(perm))
}

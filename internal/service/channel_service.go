package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"flockd/internal/domain"
)

// ChannelService owns channel records, membership and ownership.
type ChannelService struct {
	sessions SessionResolver
	users    domain.UserRepository
	channels domain.ChannelRepository
}

func NewChannelService(sessions SessionResolver, users domain.UserRepository, channels domain.ChannelRepository) *ChannelService {
	return &ChannelService{
		sessions: sessions,
		users:    users,
		channels: channels,
	}
}

// Create makes a new channel; the creator is its sole member and owner.
func (s *ChannelService) Create(ctx context.Context, token, name string, isPublic bool) (int64, error) {
	creator, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return 0, err
	}
	if utf8.RuneCountInString(name) > 20 {
		return 0, fmt.Errorf("%w: name %q is more than 20 characters", domain.ErrInvalidInput, name)
	}
	ch, err := s.channels.Create(ctx, name, isPublic, creator.ID)
	if err != nil {
		return 0, err
	}
	return ch.ID, nil
}

// List returns the channels the caller is a member of, in join order.
func (s *ChannelService) List(ctx context.Context, token string) ([]domain.ChannelSummary, error) {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.channels.ListForUser(ctx, user.ID)
}

// ListAll returns every channel, in creation order.
func (s *ChannelService) ListAll(ctx context.Context, token string) ([]domain.ChannelSummary, error) {
	if _, err := s.sessions.Resolve(ctx, token); err != nil {
		return nil, err
	}
	return s.channels.ListAll(ctx)
}

// Join adds the caller to the channel. Private channels admit only global
// Owners, who also become channel owners on join.
func (s *ChannelService) Join(ctx context.Context, token string, channelID int64) error {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if ch == nil {
		return fmt.Errorf("%w: unknown channel %d", domain.ErrInvalidInput, channelID)
	}
	if !ch.IsPublic && user.Permission != domain.PermOwner {
		return fmt.Errorf("%w: no permission to join channel %d", domain.ErrUnauthorized, channelID)
	}
	return s.channels.Join(ctx, channelID, user.ID, user.Permission == domain.PermOwner)
}

// Leave removes the caller from the member and owner sets.
func (s *ChannelService) Leave(ctx context.Context, token string, channelID int64) error {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if ch == nil {
		return fmt.Errorf("%w: unknown channel %d", domain.ErrInvalidInput, channelID)
	}
	if !ch.IsMember(user.ID) {
		return fmt.Errorf("%w: not in channel %d", domain.ErrUnauthorized, channelID)
	}
	return s.channels.Leave(ctx, channelID, user.ID)
}

// Invite adds the target as a plain member, with no owner promotion even for
// global Owners; they get that on join, not on invite.
func (s *ChannelService) Invite(ctx context.Context, token string, channelID, targetID int64) error {
	inviter, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if ch == nil {
		return fmt.Errorf("%w: unknown channel %d", domain.ErrInvalidInput, channelID)
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("%w: unknown user %d", domain.ErrInvalidInput, targetID)
	}
	if ch.IsMember(targetID) {
		return fmt.Errorf("%w: user %d is already a member", domain.ErrInvalidInput, targetID)
	}
	if !ch.IsMember(inviter.ID) && !ch.IsOwner(inviter.ID) {
		return fmt.Errorf("%w: not in channel %d", domain.ErrUnauthorized, channelID)
	}
	return s.channels.AddMember(ctx, channelID, targetID)
}

// Details returns the channel name plus owner and non-owner member profiles.
func (s *ChannelService) Details(ctx context.Context, token string, channelID int64) (*ChannelDetails, error) {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, fmt.Errorf("%w: unknown channel %d", domain.ErrInvalidInput, channelID)
	}
	if !ch.IsMember(user.ID) && !ch.IsOwner(user.ID) {
		return nil, fmt.Errorf("%w: not in channel %d", domain.ErrUnauthorized, channelID)
	}

	details := &ChannelDetails{
		Name:         ch.Name,
		OwnerMembers: []domain.MemberProfile{},
		AllMembers:   []domain.MemberProfile{},
	}
	for _, uid := range ch.Owners {
		p, err := s.memberProfile(ctx, uid)
		if err != nil {
			return nil, err
		}
		details.OwnerMembers = append(details.OwnerMembers, p)
	}
	for _, uid := range ch.Members {
		if ch.IsOwner(uid) {
			continue
		}
		p, err := s.memberProfile(ctx, uid)
		if err != nil {
			return nil, err
		}
		details.AllMembers = append(details.AllMembers, p)
	}
	return details, nil
}

// AddOwner promotes the target to channel owner, adding membership first if
// needed. The actor must be a channel owner or global Owner.
func (s *ChannelService) AddOwner(ctx context.Context, token string, channelID, targetID int64) error {
	actor, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if ch == nil {
		return fmt.Errorf("%w: unknown channel %d", domain.ErrInvalidInput, channelID)
	}
	if !ch.IsOwner(actor.ID) && actor.Permission != domain.PermOwner {
		return fmt.Errorf("%w: not an owner of channel %d", domain.ErrUnauthorized, channelID)
	}
	if ch.IsOwner(targetID) {
		return fmt.Errorf("%w: user %d is already an owner", domain.ErrInvalidInput, targetID)
	}
	return s.channels.AddOwner(ctx, channelID, targetID)
}

// RemoveOwner demotes the target. A global Owner target is rejected with
// invalid-input before the actor's own authority is even considered; global
// Owners cannot be demoted this way.
func (s *ChannelService) RemoveOwner(ctx context.Context, token string, channelID, targetID int64) error {
	actor, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if ch == nil {
		return fmt.Errorf("%w: unknown channel %d", domain.ErrInvalidInput, channelID)
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("%w: unknown user %d", domain.ErrInvalidInput, targetID)
	}
	if target.Permission == domain.PermOwner {
		return fmt.Errorf("%w: a global owner cannot be demoted", domain.ErrInvalidInput)
	}
	if !ch.IsOwner(actor.ID) && actor.Permission != domain.PermOwner {
		return fmt.Errorf("%w: not an owner of channel %d", domain.ErrUnauthorized, channelID)
	}
	if !ch.IsOwner(targetID) {
		return fmt.Errorf("%w: user %d is not an owner", domain.ErrInvalidInput, targetID)
	}
	return s.channels.RemoveOwner(ctx, channelID, targetID)
}

func (s *ChannelService) memberProfile(ctx context.Context, uid int64) (domain.MemberProfile, error) {
	u, err := s.users.GetByID(ctx, uid)
	if err != nil || u == nil {
		return domain.MemberProfile{}, fmt.Errorf("%w: unknown user %d", domain.ErrInvalidInput, uid)
	}
	return domain.MemberProfile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		AvatarRef: u.AvatarRef,
	}, nil
}

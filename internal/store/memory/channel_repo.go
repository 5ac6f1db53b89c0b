package memory

import (
	"context"
	"fmt"

	"flockd/internal/domain"
)

type ChannelRepo struct {
	s *Store
}

var _ domain.ChannelRepository = (*ChannelRepo)(nil)

func (r *ChannelRepo) Create(ctx context.Context, name string, isPublic bool, creatorID int64) (*domain.Channel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	creator, ok := r.s.users[creatorID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown user %d", domain.ErrInvalidInput, creatorID)
	}

	ch := &domain.Channel{
		ID:       r.s.nextChannelID,
		Name:     name,
		IsPublic: isPublic,
		Members:  []int64{creatorID},
		Owners:   []int64{creatorID},
	}
	r.s.nextChannelID++
	r.s.channels[ch.ID] = ch
	creator.Channels = append(creator.Channels, ch.ID)

	return cloneChannelMeta(ch), nil
}

func (r *ChannelRepo) GetByID(ctx context.Context, id int64) (*domain.Channel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ch, ok := r.s.channels[id]
	if !ok {
		return nil, nil
	}
	return cloneChannelMeta(ch), nil
}

func (r *ChannelRepo) ListAll(ctx context.Context) ([]domain.ChannelSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.ChannelSummary, 0, len(r.s.channels))
	for _, ch := range r.s.channelsInOrder() {
		out = append(out, domain.ChannelSummary{ID: ch.ID, Name: ch.Name})
	}
	return out, nil
}

func (r *ChannelRepo) ListForUser(ctx context.Context, userID int64) ([]domain.ChannelSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown user %d", domain.ErrInvalidInput, userID)
	}
	out := make([]domain.ChannelSummary, 0, len(u.Channels))
	for _, id := range u.Channels {
		if ch, ok := r.s.channels[id]; ok {
			out = append(out, domain.ChannelSummary{ID: ch.ID, Name: ch.Name})
		}
	}
	return out, nil
}

func (r *ChannelRepo) Join(ctx context.Context, channelID, userID int64, asOwner bool) error {
	return r.mutate(channelID, userID, func(ch *domain.Channel, u *domain.User) {
		if !containsID(u.Channels, channelID) {
			u.Channels = append(u.Channels, channelID)
		}
		if !containsID(ch.Members, userID) {
			ch.Members = append(ch.Members, userID)
		}
		if asOwner && !containsID(ch.Owners, userID) {
			ch.Owners = append(ch.Owners, userID)
		}
	})
}

func (r *ChannelRepo) Leave(ctx context.Context, channelID, userID int64) error {
	return r.mutate(channelID, userID, func(ch *domain.Channel, u *domain.User) {
		u.Channels = removeID(u.Channels, channelID)
		ch.Members = removeID(ch.Members, userID)
		ch.Owners = removeID(ch.Owners, userID)
	})
}

func (r *ChannelRepo) AddMember(ctx context.Context, channelID, userID int64) error {
	return r.mutate(channelID, userID, func(ch *domain.Channel, u *domain.User) {
		if !containsID(ch.Members, userID) {
			ch.Members = append(ch.Members, userID)
			u.Channels = append(u.Channels, channelID)
		}
	})
}

func (r *ChannelRepo) AddOwner(ctx context.Context, channelID, userID int64) error {
	return r.mutate(channelID, userID, func(ch *domain.Channel, u *domain.User) {
		if !containsID(ch.Owners, userID) {
			ch.Owners = append(ch.Owners, userID)
		}
		// Owners are always members too.
		if !containsID(ch.Members, userID) {
			ch.Members = append(ch.Members, userID)
			u.Channels = append(u.Channels, channelID)
		}
	})
}

func (r *ChannelRepo) RemoveOwner(ctx context.Context, channelID, userID int64) error {
	return r.mutate(channelID, userID, func(ch *domain.Channel, u *domain.User) {
		ch.Owners = removeID(ch.Owners, userID)
	})
}

func (r *ChannelRepo) mutate(channelID, userID int64, fn func(*domain.Channel, *domain.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ch, ok := r.s.channels[channelID]
	if !ok {
		return fmt.Errorf("%w: unknown channel %d", domain.ErrInvalidInput, channelID)
	}
	u, ok := r.s.users[userID]
	if !ok {
		return fmt.Errorf("%w: unknown user %d", domain.ErrInvalidInput, userID)
	}
	fn(ch, u)
	return nil
}

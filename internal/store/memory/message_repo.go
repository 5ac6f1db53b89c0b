package memory

import (
	"context"
	"fmt"

	"flockd/internal/domain"
)

type MessageRepo struct {
	s *Store
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

func (r *MessageRepo) Append(ctx context.Context, m *domain.Message) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.append(m)
}

// append assumes the lock is held; shared with Broadcast and the standup
// flush so compound insertions stay atomic.
func (r *MessageRepo) append(m *domain.Message) (int64, error) {
	ch, ok := r.s.channels[m.ChannelID]
	if !ok {
		return 0, fmt.Errorf("%w: unknown channel %d", domain.ErrInvalidInput, m.ChannelID)
	}
	sender, ok := r.s.users[m.SenderID]
	if !ok {
		return 0, fmt.Errorf("%w: unknown user %d", domain.ErrInvalidInput, m.SenderID)
	}

	m.ID = r.s.nextMessageID
	r.s.nextMessageID++
	if m.Reacts == nil {
		m.Reacts = emptyReacts()
	}

	stored := cloneMessage(m)
	ch.Messages = append([]*domain.Message{stored}, ch.Messages...)
	sender.Sent = append(sender.Sent, stored.ID)
	return stored.ID, nil
}

func (r *MessageRepo) Find(ctx context.Context, messageID int64) (*domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if m := r.find(messageID); m != nil {
		return cloneMessage(m), nil
	}
	return nil, nil
}

func (r *MessageRepo) find(messageID int64) *domain.Message {
	for _, ch := range r.s.channelsInOrder() {
		for _, m := range ch.Messages {
			if m.ID == messageID {
				return m
			}
		}
	}
	return nil
}

func (r *MessageRepo) TotalIssued(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.nextMessageID, nil
}

func (r *MessageRepo) Remove(ctx context.Context, messageID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, ch := range r.s.channelsInOrder() {
		for i, m := range ch.Messages {
			if m.ID != messageID {
				continue
			}
			ch.Messages = append(ch.Messages[:i], ch.Messages[i+1:]...)
			if sender, ok := r.s.users[m.SenderID]; ok {
				sender.Sent = removeID(sender.Sent, messageID)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: message %d does not exist", domain.ErrInvalidInput, messageID)
}

func (r *MessageRepo) SetBody(ctx context.Context, messageID int64, body string) error {
	return r.mutate(messageID, func(m *domain.Message) error {
		m.Body = body
		return nil
	})
}

func (r *MessageRepo) SetPinned(ctx context.Context, messageID int64, pinned bool) error {
	return r.mutate(messageID, func(m *domain.Message) error {
		m.Pinned = pinned
		return nil
	})
}

func (r *MessageRepo) React(ctx context.Context, messageID, kind, uid int64) error {
	return r.mutate(messageID, func(m *domain.Message) error {
		react := findReact(m, kind)
		if react == nil {
			return fmt.Errorf("%w: invalid reaction kind %d", domain.ErrInvalidInput, kind)
		}
		if containsID(react.UIDs, uid) {
			return fmt.Errorf("%w: already reacted with kind %d", domain.ErrInvalidInput, kind)
		}
		react.UIDs = append(react.UIDs, uid)
		return nil
	})
}

func (r *MessageRepo) Unreact(ctx context.Context, messageID, kind, uid int64) error {
	return r.mutate(messageID, func(m *domain.Message) error {
		react := findReact(m, kind)
		if react == nil {
			return fmt.Errorf("%w: invalid reaction kind %d", domain.ErrInvalidInput, kind)
		}
		if !containsID(react.UIDs, uid) {
			return fmt.Errorf("%w: no reaction of kind %d to remove", domain.ErrInvalidInput, kind)
		}
		react.UIDs = removeID(react.UIDs, uid)
		return nil
	})
}

func (r *MessageRepo) ListChannel(ctx context.Context, channelID int64) ([]*domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ch, ok := r.s.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown channel %d", domain.ErrInvalidInput, channelID)
	}
	out := make([]*domain.Message, len(ch.Messages))
	for i, m := range ch.Messages {
		out[i] = cloneMessage(m)
	}
	return out, nil
}

func (r *MessageRepo) Broadcast(ctx context.Context, senderID int64, body string, now int64) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	channels := r.s.channelsInOrder()
	ids := make([]int64, 0, len(channels))
	for _, ch := range channels {
		id, err := r.append(&domain.Message{
			ChannelID: ch.ID,
			SenderID:  senderID,
			Body:      body,
			CreatedAt: now,
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *MessageRepo) mutate(messageID int64, fn func(*domain.Message) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m := r.find(messageID)
	if m == nil {
		return fmt.Errorf("%w: message %d does not exist", domain.ErrInvalidInput, messageID)
	}
	return fn(m)
}

func findReact(m *domain.Message, kind int64) *domain.React {
	for i := range m.Reacts {
		if m.Reacts[i].ID == kind {
			return &m.Reacts[i]
		}
	}
	return nil
}

func emptyReacts() []domain.React {
	reacts := make([]domain.React, 0, len(domain.ReactionKinds))
	for _, kind := range domain.ReactionKinds {
		reacts = append(reacts, domain.React{ID: kind, UIDs: []int64{}})
	}
	return reacts
}

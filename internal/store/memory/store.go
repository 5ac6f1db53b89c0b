// Package memory implements the domain repositories over a single
// process-local store: two keyed collections (users, channels) plus the
// global message id sequence, guarded by one coarse RWMutex. Nothing
// survives a process restart.
package memory

import (
	"sync"

	"flockd/internal/domain"
)

// Store owns all mutable state. Every exported repository method locks the
// store for its whole duration, so each operation is atomic; the compound
// mutations (broadcast, standup flush) are single locked methods as well.
type Store struct {
	mu sync.RWMutex

	users    map[int64]*domain.User
	channels map[int64]*domain.Channel

	nextUserID    int64
	nextChannelID int64
	nextMessageID int64
}

func New() *Store {
	return &Store{
		users:    make(map[int64]*domain.User),
		channels: make(map[int64]*domain.Channel),
	}
}

// Reset wipes every collection back to empty. Message ids restart from zero;
// this is the test-isolation hook, not a runtime operation.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[int64]*domain.User)
	s.channels = make(map[int64]*domain.Channel)
	s.nextUserID = 0
	s.nextChannelID = 0
	s.nextMessageID = 0
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Channels returns the channel repository view of the store.
func (s *Store) Channels() *ChannelRepo { return &ChannelRepo{s: s} }

// Messages returns the message repository view of the store.
func (s *Store) Messages() *MessageRepo { return &MessageRepo{s: s} }

// Standups returns the standup repository view of the store.
func (s *Store) Standups() *StandupRepo { return &StandupRepo{s: s} }

// Channel ids are dense, so iterating 0..nextChannelID visits every channel
// in creation order. Callers must hold the lock.
func (s *Store) channelsInOrder() []*domain.Channel {
	out := make([]*domain.Channel, 0, len(s.channels))
	for id := int64(0); id < s.nextChannelID; id++ {
		if ch, ok := s.channels[id]; ok {
			out = append(out, ch)
		}
	}
	return out
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Channels = append([]int64(nil), u.Channels...)
	c.Sent = append([]int64(nil), u.Sent...)
	return &c
}

// cloneChannelMeta copies everything but the message list, which is only
// handed out through the message repository.
func cloneChannelMeta(ch *domain.Channel) *domain.Channel {
	c := *ch
	c.Members = append([]int64(nil), ch.Members...)
	c.Owners = append([]int64(nil), ch.Owners...)
	c.Messages = nil
	c.Standup.Lines = append([]string(nil), ch.Standup.Lines...)
	return &c
}

func cloneMessage(m *domain.Message) *domain.Message {
	c := *m
	c.Reacts = make([]domain.React, len(m.Reacts))
	for i, r := range m.Reacts {
		c.Reacts[i] = domain.React{ID: r.ID, UIDs: append([]int64(nil), r.UIDs...)}
	}
	return &c
}

func removeID(ids []int64, id int64) []int64 {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

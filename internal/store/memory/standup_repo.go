package memory

import (
	"context"
	"fmt"
	"strings"

	"flockd/internal/domain"
)

type StandupRepo struct {
	s *Store
}

var _ domain.StandupRepository = (*StandupRepo)(nil)

func (r *StandupRepo) Get(ctx context.Context, channelID int64) (domain.Standup, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ch, ok := r.s.channels[channelID]
	if !ok {
		return domain.Standup{}, fmt.Errorf("%w: unknown channel %d", domain.ErrInvalidInput, channelID)
	}
	su := ch.Standup
	su.Lines = append([]string(nil), ch.Standup.Lines...)
	return su, nil
}

func (r *StandupRepo) Start(ctx context.Context, channelID, starterID, finishAt int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ch, ok := r.s.channels[channelID]
	if !ok {
		return fmt.Errorf("%w: unknown channel %d", domain.ErrInvalidInput, channelID)
	}
	if ch.Standup.Active {
		return fmt.Errorf("%w: a standup is already active in channel %d", domain.ErrInvalidInput, channelID)
	}
	ch.Standup = domain.Standup{
		Active:    true,
		StarterID: starterID,
		FinishAt:  finishAt,
	}
	return nil
}

func (r *StandupRepo) AppendLine(ctx context.Context, channelID int64, line string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ch, ok := r.s.channels[channelID]
	if !ok {
		return fmt.Errorf("%w: unknown channel %d", domain.ErrInvalidInput, channelID)
	}
	// Re-checked under the lock: a line accepted here is guaranteed to be in
	// the buffer before any flush drains it.
	if !ch.Standup.Active {
		return fmt.Errorf("%w: no active standup in channel %d", domain.ErrInvalidInput, channelID)
	}
	ch.Standup.Lines = append(ch.Standup.Lines, line)
	return nil
}

// Flush drains and resets the buffer and inserts the aggregate message in one
// critical section, so no AppendLine can interleave between the drain and the
// reset, and none can land after the reset (it fails "no active standup").
func (r *StandupRepo) Flush(ctx context.Context, channelID int64, now int64) (*domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ch, ok := r.s.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown channel %d", domain.ErrInvalidInput, channelID)
	}

	starterID := ch.Standup.StarterID
	body := strings.Join(ch.Standup.Lines, "\n")
	ch.Standup = domain.Standup{}

	if body == "" {
		return nil, nil
	}

	msg := &domain.Message{
		ChannelID: channelID,
		SenderID:  starterID,
		Body:      body,
		CreatedAt: now,
	}
	if _, err := (&MessageRepo{s: r.s}).append(msg); err != nil {
		return nil, err
	}
	return cloneMessage(msg), nil
}

package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"flockd/internal/domain"
)

// StandupService runs the ephemeral standup buffers: a timed window during
// which sends are buffered, then collapsed into one aggregate message when
// the one-shot timer fires.
type StandupService struct {
	sessions SessionResolver
	channels domain.ChannelRepository
	standups domain.StandupRepository
	events   EventSink
	log      *zap.Logger
}

func NewStandupService(
	sessions SessionResolver,
	channels domain.ChannelRepository,
	standups domain.StandupRepository,
	events EventSink,
	log *zap.Logger,
) *StandupService {
	return &StandupService{
		sessions: sessions,
		channels: channels,
		standups: standups,
		events:   events,
		log:      log,
	}
}

// Start activates a standup for the given number of seconds and arms the
// flush timer. The caller becomes the author of the eventual aggregate.
func (s *StandupService) Start(ctx context.Context, token string, channelID, seconds int64) (int64, error) {
	starter, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return 0, err
	}
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return 0, err
	}
	if ch == nil {
		return 0, fmt.Errorf("%w: unknown channel %d", domain.ErrInvalidInput, channelID)
	}

	finishAt := time.Now().Unix() + seconds
	if err := s.standups.Start(ctx, channelID, starter.ID, finishAt); err != nil {
		return 0, err
	}

	// There is no cancel operation; the timer always fires.
	time.AfterFunc(time.Duration(seconds)*time.Second, func() {
		s.flush(channelID)
	})

	s.log.Info("standup started",
		zap.Int64("channel_id", channelID),
		zap.Int64("uid", starter.ID),
		zap.Int64("finish_at", finishAt),
	)
	return finishAt, nil
}

// Active reports whether a standup is running and, if so, when it ends.
func (s *StandupService) Active(ctx context.Context, token string, channelID int64) (bool, *int64, error) {
	if _, err := s.sessions.Resolve(ctx, token); err != nil {
		return false, nil, err
	}
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return false, nil, err
	}
	if ch == nil {
		return false, nil, fmt.Errorf("%w: unknown channel %d", domain.ErrInvalidInput, channelID)
	}
	su, err := s.standups.Get(ctx, channelID)
	if err != nil {
		return false, nil, err
	}
	if !su.Active {
		return false, nil, nil
	}
	finish := su.FinishAt
	return true, &finish, nil
}

// Send buffers one "handle: text" line. It never produces a channel message
// by itself.
func (s *StandupService) Send(ctx context.Context, token string, channelID int64, text string) error {
	sender, err := s.sessions.Resolve(ctx, token)
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
	if !ch.IsMember(sender.ID) {
		return fmt.Errorf("%w: not a member of channel %d", domain.ErrUnauthorized, channelID)
	}
	su, err := s.standups.Get(ctx, channelID)
	if err != nil {
		return err
	}
	if !su.Active {
		return fmt.Errorf("%w: no active standup in channel %d", domain.ErrInvalidInput, channelID)
	}
	if utf8.RuneCountInString(text) > maxBodyLen {
		return fmt.Errorf("%w: message is longer than %d characters", domain.ErrInvalidInput, maxBodyLen)
	}

	return s.standups.AppendLine(ctx, channelID, sender.Handle+": "+text)
}

// flush runs on the timer goroutine. The repository drains, resets and
// inserts in one critical section, so no buffered line is lost to a racing
// Send and no Send can slip in after the reset.
func (s *StandupService) flush(channelID int64) {
	ctx := context.Background()
	msg, err := s.standups.Flush(ctx, channelID, time.Now().Unix())
	if err != nil {
		s.log.Error("standup flush failed",
			zap.Int64("channel_id", channelID),
			zap.Error(err),
		)
		return
	}
	if msg == nil {
		return
	}

	s.log.Info("standup flushed",
		zap.Int64("channel_id", channelID),
		zap.Int64("message_id", msg.ID),
	)
	if ch, err := s.channels.GetByID(ctx, channelID); err == nil && ch != nil {
		s.events.MessagePosted(channelID, ch.Members, viewFor(msg, 0))
	}
}

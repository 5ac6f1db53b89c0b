package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"flockd/internal/domain"
)

// pageSize is the pagination window.
const pageSize = 50

// maxBodyLen is the longest allowed message body.
const maxBodyLen = 1000

// MessageService owns the message log: send paths, lifecycle mutations,
// reactions, pinning, pagination and search.
type MessageService struct {
	sessions SessionResolver
	users    domain.UserRepository
	channels domain.ChannelRepository
	messages domain.MessageRepository
	events   EventSink
	log      *zap.Logger
}

func NewMessageService(
	sessions SessionResolver,
	users domain.UserRepository,
	channels domain.ChannelRepository,
	messages domain.MessageRepository,
	events EventSink,
	log *zap.Logger,
) *MessageService {
	return &MessageService{
		sessions: sessions,
		users:    users,
		channels: channels,
		messages: messages,
		events:   events,
		log:      log,
	}
}

// Send posts a message to a channel the caller belongs to.
func (s *MessageService) Send(ctx context.Context, token string, channelID int64, body string) (int64, error) {
	if err := checkBodyLen(body); err != nil {
		return 0, err
	}
	if body == "" {
		return 0, fmt.Errorf("%w: message cannot be empty", domain.ErrInvalidInput)
	}
	sender, err := s.sessions.Resolve(ctx, token)
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
	if !ch.IsMember(sender.ID) && !ch.IsOwner(sender.ID) {
		return 0, fmt.Errorf("%w: not a member of channel %d", domain.ErrUnauthorized, channelID)
	}

	msg := &domain.Message{
		ChannelID: channelID,
		SenderID:  sender.ID,
		Body:      body,
		CreatedAt: time.Now().Unix(),
	}
	id, err := s.messages.Append(ctx, msg)
	if err != nil {
		return 0, err
	}
	s.events.MessagePosted(channelID, ch.Members, viewFor(msg, 0))
	return id, nil
}

// SendLater stores the message immediately with a future timestamp; reads
// filter it out until wall-clock time passes it, so no timer is involved.
func (s *MessageService) SendLater(ctx context.Context, token string, channelID int64, body string, deliverAt int64) (int64, error) {
	if err := checkBodyLen(body); err != nil {
		return 0, err
	}
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return 0, err
	}
	if ch == nil {
		return 0, fmt.Errorf("%w: unknown channel %d", domain.ErrInvalidInput, channelID)
	}
	sender, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return 0, err
	}
	if deliverAt < time.Now().Unix() {
		return 0, fmt.Errorf("%w: cannot send a message in past time", domain.ErrInvalidInput)
	}
	if !ch.IsMember(sender.ID) && !ch.IsOwner(sender.ID) {
		return 0, fmt.Errorf("%w: not a member of channel %d", domain.ErrUnauthorized, channelID)
	}

	return s.messages.Append(ctx, &domain.Message{
		ChannelID: channelID,
		SenderID:  sender.ID,
		Body:      body,
		CreatedAt: deliverAt,
	})
}

// Remove deletes a message. The caller must be its sender, an owner of its
// channel, or a global Owner.
func (s *MessageService) Remove(ctx context.Context, token string, messageID int64) error {
	total, err := s.messages.TotalIssued(ctx)
	if err != nil {
		return err
	}
	if messageID < 0 || messageID > total {
		return fmt.Errorf("%w: invalid message id %d", domain.ErrInvalidInput, messageID)
	}
	caller, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}
	msg, err := s.messages.Find(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return fmt.Errorf("%w: message %d does not exist", domain.ErrInvalidInput, messageID)
	}
	if err := s.authorizeMutation(ctx, caller, msg); err != nil {
		return err
	}
	return s.messages.Remove(ctx, messageID)
}

// Edit replaces the body in place, keeping the timestamp. Editing to the
// empty string is a removal.
func (s *MessageService) Edit(ctx context.Context, token string, messageID int64, newBody string) error {
	if err := checkBodyLen(newBody); err != nil {
		return err
	}
	if newBody == "" {
		return s.Remove(ctx, token, messageID)
	}
	caller, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}
	msg, err := s.messages.Find(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return fmt.Errorf("%w: message %d does not exist", domain.ErrInvalidInput, messageID)
	}
	if err := s.authorizeMutation(ctx, caller, msg); err != nil {
		return err
	}
	return s.messages.SetBody(ctx, messageID, newBody)
}

// React records a reaction. Any valid session may react; reacting twice with
// the same kind is rejected.
func (s *MessageService) React(ctx context.Context, token string, messageID, kind int64) error {
	caller, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}
	if err := checkReactionKind(kind); err != nil {
		return err
	}
	return s.messages.React(ctx, messageID, kind, caller.ID)
}

// Unreact removes a previously recorded reaction.
func (s *MessageService) Unreact(ctx context.Context, token string, messageID, kind int64) error {
	caller, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}
	if err := checkReactionKind(kind); err != nil {
		return err
	}
	return s.messages.Unreact(ctx, messageID, kind, caller.ID)
}

// Pin marks a message pinned. Checks run in a fixed order callers rely on:
// existence, pinned state, membership, ownership.
func (s *MessageService) Pin(ctx context.Context, token string, messageID int64) error {
	return s.setPinned(ctx, token, messageID, true)
}

// Unpin removes the pinned mark, with the same check order as Pin.
func (s *MessageService) Unpin(ctx context.Context, token string, messageID int64) error {
	return s.setPinned(ctx, token, messageID, false)
}

func (s *MessageService) setPinned(ctx context.Context, token string, messageID int64, pinned bool) error {
	caller, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}
	msg, err := s.messages.Find(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return fmt.Errorf("%w: message %d does not exist", domain.ErrInvalidInput, messageID)
	}
	if msg.Pinned == pinned {
		state := "unpinned"
		if pinned {
			state = "pinned"
		}
		return fmt.Errorf("%w: message %d is already %s", domain.ErrInvalidInput, messageID, state)
	}
	ch, err := s.channels.GetByID(ctx, msg.ChannelID)
	if err != nil {
		return err
	}
	if !ch.IsMember(caller.ID) {
		return fmt.Errorf("%w: not a member of the message's channel", domain.ErrUnauthorized)
	}
	if !ch.IsOwner(caller.ID) {
		return fmt.Errorf("%w: not an owner of the message's channel", domain.ErrUnauthorized)
	}
	return s.messages.SetPinned(ctx, messageID, pinned)
}

// Page returns up to 50 messages from start, newest first by timestamp,
// hiding messages whose timestamp is still in the future. End is -1 once the
// window reaches the end of the channel's messages.
func (s *MessageService) Page(ctx context.Context, token string, channelID int64, start int) (*MessagePage, error) {
	caller, err := s.sessions.Resolve(ctx, token)
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
	if !ch.IsMember(caller.ID) && !ch.IsOwner(caller.ID) {
		return nil, fmt.Errorf("%w: not in channel %d", domain.ErrUnauthorized, channelID)
	}

	msgs, err := s.messages.ListChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if start > len(msgs) {
		return nil, fmt.Errorf("%w: start %d is past the end", domain.ErrInvalidInput, start)
	}

	end := start + pageSize
	if len(msgs) < end {
		end = -1
	}
	window := msgs[start:]
	if end != -1 {
		window = msgs[start : start+pageSize]
	}

	// The window is sliced before time-filtering, so a page can come back
	// shorter than 50 even mid-channel when it contains delayed sends.
	now := time.Now().Unix()
	visible := make([]*domain.Message, 0, len(window))
	for _, m := range window {
		if m.CreatedAt <= now {
			visible = append(visible, m)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].CreatedAt > visible[j].CreatedAt
	})

	page := &MessagePage{
		Messages: make([]MessageView, 0, len(visible)),
		Start:    start,
		End:      end,
	}
	for _, m := range visible {
		page.Messages = append(page.Messages, viewFor(m, caller.ID))
	}
	return page, nil
}

// Broadcast inserts one copy of the body into every channel, members or not.
// Global Owners only.
func (s *MessageService) Broadcast(ctx context.Context, token, body string) ([]int64, error) {
	sender, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if sender.Permission != domain.PermOwner {
		return nil, fmt.Errorf("%w: broadcast is restricted to global owners", domain.ErrUnauthorized)
	}
	if n := utf8.RuneCountInString(body); n > maxBodyLen || n < 1 {
		return nil, fmt.Errorf("%w: message length out of range", domain.ErrInvalidInput)
	}

	ids, err := s.messages.Broadcast(ctx, sender.ID, body, time.Now().Unix())
	if err != nil {
		return nil, err
	}
	s.log.Info("broadcast sent",
		zap.Int64("uid", sender.ID),
		zap.Int("channels", len(ids)),
	)
	if len(ids) > 0 {
		s.events.MessageBroadcast(MessageView{
			MessageID:   ids[0],
			UID:         sender.ID,
			Message:     body,
			TimeCreated: time.Now().Unix(),
			Reacts:      []ReactView{},
		})
	}
	return ids, nil
}

// Search returns every message containing the query (case-sensitive; the
// empty query matches everything) across the caller's channels, in
// encounter order: membership order by channel, stored order within one.
func (s *MessageService) Search(ctx context.Context, token, query string) ([]MessageView, error) {
	caller, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	results := []MessageView{}
	for _, channelID := range caller.Channels {
		msgs, err := s.messages.ListChannel(ctx, channelID)
		if err != nil {
			return nil, err
		}
		for _, m := range msgs {
			if strings.Contains(m.Body, query) {
				results = append(results, viewFor(m, caller.ID))
			}
		}
	}
	return results, nil
}

// authorizeMutation applies the shared edit/remove rule: sender of the
// message, owner of its channel, or global Owner.
func (s *MessageService) authorizeMutation(ctx context.Context, caller *domain.User, msg *domain.Message) error {
	ch, err := s.channels.GetByID(ctx, msg.ChannelID)
	if err != nil {
		return err
	}
	if !caller.SentContains(msg.ID) && !ch.IsOwner(caller.ID) && caller.Permission != domain.PermOwner {
		return fmt.Errorf("%w: no right to modify message %d", domain.ErrUnauthorized, msg.ID)
	}
	return nil
}

func checkBodyLen(body string) error {
	if utf8.RuneCountInString(body) > maxBodyLen {
		return fmt.Errorf("%w: message is longer than %d characters", domain.ErrInvalidInput, maxBodyLen)
	}
	return nil
}

func checkReactionKind(kind int64) error {
	for _, k := range domain.ReactionKinds {
		if k == kind {
			return nil
		}
	}
	return fmt.Errorf("%w: invalid reaction kind %d", domain.ErrInvalidInput, kind)
}

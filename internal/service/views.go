package service

import (
	"context"

	"flockd/internal/domain"
)

// SessionResolver maps an opaque token to the user holding the matching
// active session. Every service operation resolves its caller through this
// before touching any other state. AuthService is the implementation.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*domain.User, error)
}

// ReactView is one reaction kind on a message, annotated for the viewer.
type ReactView struct {
	ReactID           int64   `json:"react_id"`
	UIDs              []int64 `json:"u_ids"`
	IsThisUserReacted bool    `json:"is_this_user_reacted"`
}

// MessageView is the per-viewer projection of a message.
type MessageView struct {
	MessageID   int64       `json:"message_id"`
	UID         int64       `json:"u_id"`
	Message     string      `json:"message"`
	TimeCreated int64       `json:"time_created"`
	Reacts      []ReactView `json:"reacts"`
	IsPinned    bool        `json:"is_pinned"`
}

// MessagePage is one pagination window. End is -1 when the page reaches the
// end of the channel's messages, else Start+50.
type MessagePage struct {
	Messages []MessageView `json:"messages"`
	Start    int           `json:"start"`
	End      int           `json:"end"`
}

// ChannelDetails is the membership view of one channel: owners first, then
// the members who are not owners.
type ChannelDetails struct {
	Name         string                 `json:"name"`
	OwnerMembers []domain.MemberProfile `json:"owner_members"`
	AllMembers   []domain.MemberProfile `json:"all_members"`
}

func viewFor(m *domain.Message, viewerID int64) MessageView {
	reacts := make([]ReactView, len(m.Reacts))
	for i, r := range m.Reacts {
		reacted := false
		for _, uid := range r.UIDs {
			if uid == viewerID {
				reacted = true
				break
			}
		}
		reacts[i] = ReactView{
			ReactID:           r.ID,
			UIDs:              append([]int64{}, r.UIDs...),
			IsThisUserReacted: reacted,
		}
	}
	return MessageView{
		MessageID:   m.ID,
		UID:         m.SenderID,
		Message:     m.Body,
		TimeCreated: m.CreatedAt,
		Reacts:      reacts,
		IsPinned:    m.Pinned,
	}
}

// EventSink receives live notifications about newly visible messages. The
// websocket hub implements it; NopSink is for tests and headless use.
type EventSink interface {
	// MessagePosted notifies the given channel members of a new message.
	MessagePosted(channelID int64, recipients []int64, msg MessageView)
	// MessageBroadcast notifies every connected user of a broadcast copy.
	MessageBroadcast(msg MessageView)
}

type NopSink struct{}

func (NopSink) MessagePosted(int64, []int64, MessageView) {}
func (NopSink) MessageBroadcast(MessageView)              {}

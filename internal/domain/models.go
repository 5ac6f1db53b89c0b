package domain

// Permission is a user's global permission level.
type Permission int

const (
	PermOwner  Permission = 1
	PermMember Permission = 2
)

// ReactionKinds lists the reaction kinds currently implemented.
var ReactionKinds = []int64{1}

// User represents an application user.
//
// SessionTag holds the email claim of the user's single active session; it is
// set on login, overwritten by a later login and cleared to "" on logout.
// Digest is a one-way bcrypt digest; the plaintext password is never stored.
type User struct {
	ID          int64      `json:"u_id"`
	Handle      string     `json:"handle_str"`
	FirstName   string     `json:"name_first"`
	LastName    string     `json:"name_last"`
	Email       string     `json:"email"`
	Digest      string     `json:"-"`
	SessionTag  string     `json:"-"`
	ResetTicket string     `json:"-"`
	Permission  Permission `json:"permission_id"`
	Channels    []int64    `json:"-"` // channel ids in join order
	Sent        []int64    `json:"-"` // ids of messages authored, in send order
	AvatarRef   string     `json:"profile_img_url"`
}

// SentContains reports whether the user authored the given message id.
func (u *User) SentContains(messageID int64) bool {
	return containsID(u.Sent, messageID)
}

// React holds the reactor set for one reaction kind on one message.
type React struct {
	ID   int64   `json:"react_id"`
	UIDs []int64 `json:"u_ids"`
}

// Message is a single channel message. CreatedAt is unix seconds and may be
// in the future for a delayed send; such messages are hidden from pagination
// until wall-clock time passes them.
type Message struct {
	ID        int64
	ChannelID int64
	SenderID  int64
	Body      string
	CreatedAt int64
	Pinned    bool
	Reacts    []React
}

// Standup is the per-channel ephemeral buffer. At most one standup is active
// per channel; StarterID identifies the user the eventual flush message is
// authored by, Lines accumulate as "handle: text".
type Standup struct {
	Active    bool
	StarterID int64
	FinishAt  int64 // unix seconds, 0 while inactive
	Lines     []string
}

// Channel is a chat channel. Members and Owners are kept in join order and
// Owners is always a subset of Members. Messages are stored newest-first.
type Channel struct {
	ID       int64
	Name     string
	IsPublic bool
	Members  []int64
	Owners   []int64
	Messages []*Message
	Standup  Standup
}

// ChannelSummary is the listing projection (id + name).
type ChannelSummary struct {
	ID   int64  `json:"channel_id"`
	Name string `json:"name"`
}

// MemberProfile is the minimal public profile embedded in channel details.
type MemberProfile struct {
	ID        int64  `json:"u_id"`
	FirstName string `json:"name_first"`
	LastName  string `json:"name_last"`
	AvatarRef string `json:"profile_img_url"`
}

// IsOwner reports whether uid is in the channel's owner set.
func (c *Channel) IsOwner(uid int64) bool {
	return containsID(c.Owners, uid)
}

// IsMember reports whether uid is in the channel's member set.
func (c *Channel) IsMember(uid int64) bool {
	return containsID(c.Members, uid)
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

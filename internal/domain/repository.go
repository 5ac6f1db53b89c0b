package domain

import "context"

// UserRepository defines operations on the user collection. Get-style methods
// return (nil, nil) when no record matches; every method is atomic with
// respect to the shared store.
type UserRepository interface {
	// Create assigns the next sequential id and stores the user.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByHandle(ctx context.Context, handle string) (*User, error)
	// GetBySessionTag finds the user whose active session carries the tag.
	GetBySessionTag(ctx context.Context, tag string) (*User, error)
	// List returns all users in id order.
	List(ctx context.Context) ([]*User, error)
	SetSessionTag(ctx context.Context, id int64, tag string) error
	SetNames(ctx context.Context, id int64, first, last string) error
	SetEmail(ctx context.Context, id int64, email string) error
	SetHandle(ctx context.Context, id int64, handle string) error
	SetAvatar(ctx context.Context, id int64, ref string) error
	SetPermission(ctx context.Context, id int64, perm Permission) error
	SetResetTicket(ctx context.Context, id int64, ticket string) error
	// ResetDigestByTicket replaces the digest of every user whose current
	// reset ticket equals the given ticket, clears those tickets, and
	// reports how many users were updated.
	ResetDigestByTicket(ctx context.Context, ticket, digest string) (int, error)
}

// ChannelRepository defines operations on channel records and membership.
// Membership mutations keep the owner set a subset of the member set and the
// per-user channel list in sync.
type ChannelRepository interface {
	// Create stores a new channel whose creator is sole member and owner.
	Create(ctx context.Context, name string, isPublic bool, creatorID int64) (*Channel, error)
	// GetByID returns a copy of the channel without its message list, or
	// (nil, nil) when the id is unknown.
	GetByID(ctx context.Context, id int64) (*Channel, error)
	ListAll(ctx context.Context) ([]ChannelSummary, error)
	ListForUser(ctx context.Context, userID int64) ([]ChannelSummary, error)
	// Join adds the user as member, and as owner too when asOwner is set.
	// Already-present ids are not duplicated.
	Join(ctx context.Context, channelID, userID int64, asOwner bool) error
	// Leave removes the user from both the member and owner sets.
	Leave(ctx context.Context, channelID, userID int64) error
	// AddMember adds a plain member (the invite path: no owner promotion).
	AddMember(ctx context.Context, channelID, userID int64) error
	// AddOwner promotes the user, adding membership first if needed.
	AddOwner(ctx context.Context, channelID, userID int64) error
	RemoveOwner(ctx context.Context, channelID, userID int64) error
}

// MessageRepository defines operations on the per-channel message lists and
// the global message id sequence.
type MessageRepository interface {
	// Append assigns the next global id, prepends the message to its
	// channel's list and records it in the sender's sent set.
	Append(ctx context.Context, m *Message) (int64, error)
	// Find returns a copy of the message (ChannelID populated) or (nil, nil).
	Find(ctx context.Context, messageID int64) (*Message, error)
	// TotalIssued returns the number of message ids ever assigned.
	TotalIssued(ctx context.Context) (int64, error)
	// Remove deletes the message and unregisters it from its sender.
	Remove(ctx context.Context, messageID int64) error
	SetBody(ctx context.Context, messageID int64, body string) error
	SetPinned(ctx context.Context, messageID int64, pinned bool) error
	// React adds uid to the reactor set of the given kind; reacting twice
	// with the same kind fails ErrInvalidInput. Unreact is the inverse.
	React(ctx context.Context, messageID, kind, uid int64) error
	Unreact(ctx context.Context, messageID, kind, uid int64) error
	// ListChannel returns copies of the channel's messages in stored
	// (newest-first) order.
	ListChannel(ctx context.Context, channelID int64) ([]*Message, error)
	// Broadcast inserts one copy of the body into every channel as a single
	// atomic step and returns the assigned ids in channel order.
	Broadcast(ctx context.Context, senderID int64, body string, now int64) ([]int64, error)
}

// StandupRepository defines operations on the per-channel standup buffers.
type StandupRepository interface {
	Get(ctx context.Context, channelID int64) (Standup, error)
	// Start activates the buffer; a second start while active fails
	// ErrInvalidInput.
	Start(ctx context.Context, channelID, starterID, finishAt int64) error
	// AppendLine buffers a line; fails ErrInvalidInput once inactive.
	AppendLine(ctx context.Context, channelID int64, line string) error
	// Flush atomically drains the buffer, resets it to inactive and, when
	// any lines were buffered, inserts the newline-joined aggregate as an
	// ordinary message authored by the starter. Returns the inserted
	// message, or nil when the buffer was empty.
	Flush(ctx context.Context, channelID int64, now int64) (*Message, error)
}

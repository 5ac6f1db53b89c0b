package memory

import (
	"context"
	"fmt"

	"flockd/internal/domain"
)

type UserRepo struct {
	s *Store
}

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u.ID = r.s.nextUserID
	r.s.nextUserID++
	stored := cloneUser(u)
	r.s.users[stored.ID] = stored
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findFirst(func(u *domain.User) bool { return u.Email == email })
}

func (r *UserRepo) GetByHandle(ctx context.Context, handle string) (*domain.User, error) {
	return r.findFirst(func(u *domain.User) bool { return u.Handle == handle })
}

func (r *UserRepo) GetBySessionTag(ctx context.Context, tag string) (*domain.User, error) {
	if tag == "" {
		// Logged-out users carry the empty tag; it must never match.
		return nil, nil
	}
	return r.findFirst(func(u *domain.User) bool { return u.SessionTag == tag })
}

func (r *UserRepo) List(ctx context.Context) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.User, 0, len(r.s.users))
	for id := int64(0); id < r.s.nextUserID; id++ {
		if u, ok := r.s.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *UserRepo) SetSessionTag(ctx context.Context, id int64, tag string) error {
	return r.mutate(id, func(u *domain.User) { u.SessionTag = tag })
}

func (r *UserRepo) SetNames(ctx context.Context, id int64, first, last string) error {
	return r.mutate(id, func(u *domain.User) {
		u.FirstName = first
		u.LastName = last
	})
}

func (r *UserRepo) SetEmail(ctx context.Context, id int64, email string) error {
	return r.mutate(id, func(u *domain.User) { u.Email = email })
}

func (r *UserRepo) SetHandle(ctx context.Context, id int64, handle string) error {
	return r.mutate(id, func(u *domain.User) { u.Handle = handle })
}

func (r *UserRepo) SetAvatar(ctx context.Context, id int64, ref string) error {
	return r.mutate(id, func(u *domain.User) { u.AvatarRef = ref })
}

func (r *UserRepo) SetPermission(ctx context.Context, id int64, perm domain.Permission) error {
	return r.mutate(id, func(u *domain.User) { u.Permission = perm })
}

func (r *UserRepo) SetResetTicket(ctx context.Context, id int64, ticket string) error {
	return r.mutate(id, func(u *domain.User) { u.ResetTicket = ticket })
}

func (r *UserRepo) ResetDigestByTicket(ctx context.Context, ticket, digest string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	updated := 0
	for id := int64(0); id < r.s.nextUserID; id++ {
		u, ok := r.s.users[id]
		if !ok || u.ResetTicket == "" || u.ResetTicket != ticket {
			continue
		}
		u.Digest = digest
		u.ResetTicket = ""
		updated++
	}
	return updated, nil
}

func (r *UserRepo) findFirst(match func(*domain.User) bool) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for id := int64(0); id < r.s.nextUserID; id++ {
		if u, ok := r.s.users[id]; ok && match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepo) mutate(id int64, fn func(*domain.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return fmt.Errorf("%w: unknown user %d", domain.ErrInvalidInput, id)
	}
	fn(u)
	return nil
}

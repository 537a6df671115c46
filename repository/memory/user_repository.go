package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"matka/models"
	"matka/service"
)

type userRepository struct {
	s *state
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.s.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return service.ErrUsernameTaken
		}
	}
	if user.WalletBalance < 0 {
		return fmt.Errorf("%w: negative opening balance", service.ErrInsufficientFunds)
	}

	now := time.Now()
	user.ID = r.s.nextID("users")
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = copyUser(user)
	return nil
}

func (r *userRepository) UpdateStatus(ctx context.Context, id int64, status models.UserStatus) error {
	u, ok := r.s.users[id]
	if !ok {
		return service.ErrUserNotFound
	}
	u.Status = status
	u.UpdatedAt = time.Now()
	return nil
}

// AdjustBalance runs under the store lock held by the unit of work, which makes the
// read-modify-write atomic
func (r *userRepository) AdjustBalance(ctx context.Context, id int64, delta int64) (*models.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	if u.WalletBalance+delta < 0 {
		return nil, fmt.Errorf("%w: have %d, need %d", service.ErrInsufficientFunds, u.WalletBalance, -delta)
	}
	u.WalletBalance += delta
	u.UpdatedAt = time.Now()
	return copyUser(u), nil
}

func (r *userRepository) ListBySubadmin(ctx context.Context, subadminID int64) ([]*models.User, error) {
	return r.filter(func(u *models.User) bool { return u.IsManagedBy(subadminID) }), nil
}

func (r *userRepository) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	return r.filter(func(u *models.User) bool { return u.Role == role }), nil
}

func (r *userRepository) filter(keep func(*models.User) bool) []*models.User {
	users := make([]*models.User, 0)
	for _, u := range r.s.users {
		if keep(u) {
			users = append(users, copyUser(u))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

package service

import (
	"context"
	"fmt"

	"matka/models"
)

// Authorization rules live here as small pure functions so the role matrix can be
// tested without any storage.

func requireAdmin(actor models.Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin role required", ErrUnauthorized)
	}
	return nil
}

// CanViewUser reports whether the actor may read a user's account, wallet and history.
func CanViewUser(actor models.Actor, target *models.User) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleSubadmin:
		return target.ID == actor.ID || target.IsManagedBy(actor.ID)
	case models.RolePlayer:
		return target.ID == actor.ID
	}
	return false
}

// CanSubmitTransaction decides whether the actor may open a request of txType for the
// target user, and whether the request is flagged as a subadmin transaction.
func CanSubmitTransaction(actor models.Actor, target *models.User, txType models.TransactionType) (bool, error) {
	if txType == models.TransactionTypeAdjustment && !actor.IsAdmin() {
		return false, fmt.Errorf("%w: adjustments are admin only", ErrUnauthorized)
	}

	switch actor.Role {
	case models.RoleAdmin:
		return target.Role == models.RoleSubadmin, nil
	case models.RoleSubadmin:
		if target.ID == actor.ID {
			return true, nil
		}
		if target.IsManagedBy(actor.ID) {
			return false, nil
		}
	case models.RolePlayer:
		if target.ID == actor.ID {
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: cannot submit for user %d", ErrUnauthorized, target.ID)
}

// CanDecideTransaction reports whether the actor may approve or reject txn, owned by owner.
// Subadmin-flagged transactions need an admin.
func CanDecideTransaction(actor models.Actor, txn *models.Transaction, owner *models.User) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleSubadmin:
		if !txn.IsSubadminTransaction && owner != nil && owner.IsManagedBy(actor.ID) {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot decide transaction %d", ErrUnauthorized, txn.ID)
}

// CanCreateUser checks that the actor may provision an account of the requested role.
// Subadmins may only create players, which are always assigned to themselves.
func CanCreateUser(actor models.Actor, role models.Role, subadminID *int64) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleSubadmin:
		if role == models.RolePlayer && (subadminID == nil || *subadminID == actor.ID) {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot create %s accounts", ErrUnauthorized, role)
}

// CanSetUserStatus checks that the actor may block or unblock the target.
func CanSetUserStatus(actor models.Actor, target *models.User) error {
	if target.ID == actor.ID {
		return fmt.Errorf("%w: cannot change own status", ErrUnauthorized)
	}
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleSubadmin:
		if target.IsManagedBy(actor.ID) {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot change status of user %d", ErrUnauthorized, target.ID)
}

// loadActor resolves the acting account inside a unit of work and checks it is
// still active and still holds the role it claims.
func loadActor(ctx context.Context, uow UnitOfWork, actor models.Actor) (*models.User, error) {
	user, err := uow.UserRepository().GetByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}
	if user == nil || user.Role != actor.Role {
		return nil, fmt.Errorf("%w: unknown actor %d", ErrUnauthorized, actor.ID)
	}
	if !user.IsActive() {
		return nil, ErrUserBlocked
	}
	return user, nil
}

// visibleUserIDs narrows a requested set of users to those the actor may see.
// An empty result with ok=true means every user (admin only); ok=false means
// nothing is visible and the caller should return an empty list.
func visibleUserIDs(ctx context.Context, uow UnitOfWork, actor models.Actor, requested []int64) (ids []int64, ok bool, err error) {
	var allowed []int64
	switch actor.Role {
	case models.RoleAdmin:
		return requested, true, nil
	case models.RoleSubadmin:
		players, err := uow.UserRepository().ListBySubadmin(ctx, actor.ID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to list managed players: %w", err)
		}
		allowed = append(allowed, actor.ID)
		for _, p := range players {
			allowed = append(allowed, p.ID)
		}
	case models.RolePlayer:
		allowed = []int64{actor.ID}
	default:
		return nil, false, nil
	}

	if len(requested) == 0 {
		return allowed, true, nil
	}

	permitted := make(map[int64]bool, len(allowed))
	for _, id := range allowed {
		permitted[id] = true
	}
	for _, id := range requested {
		if permitted[id] {
			ids = append(ids, id)
		}
	}
	return ids, len(ids) > 0, nil
}

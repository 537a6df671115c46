package service

import (
	"context"
	"fmt"

	"matka/models"

	log "github.com/sirupsen/logrus"
)

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
	hasher     PasswordHasher
	tokens     TokenIssuer
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, hasher PasswordHasher, tokens TokenIssuer) UserService {
	return &userService{
		uowFactory: uowFactory,
		hasher:     hasher,
		tokens:     tokens,
	}
}

func (s *userService) CreateUser(ctx context.Context, actor models.Actor, req CreateUserRequest) (*models.User, error) {
	if err := CanCreateUser(actor, req.Role, req.SubadminID); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	subadminID := req.SubadminID
	if actor.IsSubadmin() {
		subadminID = &actor.ID
	}
	if subadminID != nil && req.Role != models.RolePlayer {
		return nil, fmt.Errorf("%w: only players have a managing subadmin", ErrInvalidRequest)
	}

	// Hashed before the unit of work begins
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := loadActor(ctx, uow, actor); err != nil {
		return nil, err
	}

	if subadminID != nil && !actor.IsSubadmin() {
		manager, err := uow.UserRepository().GetByID(ctx, *subadminID)
		if err != nil {
			return nil, fmt.Errorf("failed to get subadmin: %w", err)
		}
		if manager == nil || manager.Role != models.RoleSubadmin {
			return nil, fmt.Errorf("%w: user %d is not a subadmin", ErrInvalidRequest, *subadminID)
		}
	}

	existing, err := uow.UserRepository().GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       models.UserStatusActive,
		SubadminID:   subadminID,
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":    user.ID,
		"username":  user.Username,
		"role":      user.Role,
		"createdBy": actor.ID,
	}).Info("User created")

	return user, nil
}

func (s *userService) SetUserStatus(ctx context.Context, actor models.Actor, userID int64, status models.UserStatus) (*models.User, error) {
	if status != models.UserStatusActive && status != models.UserStatusBlocked {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, status)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := loadActor(ctx, uow, actor); err != nil {
		return nil, err
	}

	target, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if target == nil {
		return nil, ErrUserNotFound
	}
	if err := CanSetUserStatus(actor, target); err != nil {
		return nil, err
	}

	if err := uow.UserRepository().UpdateStatus(ctx, userID, status); err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	target.Status = status

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":    userID,
		"status":    status,
		"changedBy": actor.ID,
	}).Info("User status changed")

	return target, nil
}

func (s *userService) GetUser(ctx context.Context, actor models.Actor, userID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !CanViewUser(actor, user) {
		return nil, fmt.Errorf("%w: cannot view user %d", ErrUnauthorized, userID)
	}
	return user, nil
}

func (s *userService) ListPlayers(ctx context.Context, actor models.Actor) ([]*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	var users []*models.User
	var err error
	switch actor.Role {
	case models.RoleAdmin:
		users, err = uow.UserRepository().ListByRole(ctx, models.RolePlayer)
	case models.RoleSubadmin:
		users, err = uow.UserRepository().ListBySubadmin(ctx, actor.ID)
	default:
		return nil, fmt.Errorf("%w: players cannot list accounts", ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return users, nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*models.Actor, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if !user.IsActive() {
		return nil, ErrUserBlocked
	}

	return &models.Actor{ID: user.ID, Role: user.Role}, nil
}

func (s *userService) Login(ctx context.Context, username, password string) (string, error) {
	if s.tokens == nil {
		return "", fmt.Errorf("token issuer not configured")
	}

	actor, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(*actor)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

func (s *userService) EnsureAdmin(ctx context.Context, username, password string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.UserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		if existing.Role != models.RoleAdmin {
			log.WithField("username", username).Warn("Bootstrap admin username belongs to a non-admin account")
		}
		return existing, nil
	}

	if err := validateRequest(CreateUserRequest{Username: username, Password: password, Role: models.RoleAdmin}); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Status:       models.UserStatusActive,
	}
	if err := uow.UserRepository().Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("username", username).Info("Bootstrap admin created")
	return admin, nil
}

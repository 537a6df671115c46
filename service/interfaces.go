package service

import (
	"context"

	"matka/events"
	"matka/models"

	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by ID, returning nil if it does not exist
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByUsername retrieves a user by username, returning nil if it does not exist
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// Create inserts a new user and fills in its ID and timestamps
	Create(ctx context.Context, user *models.User) error

	// UpdateStatus changes a user's active/blocked status
	UpdateStatus(ctx context.Context, id int64, status models.UserStatus) error

	// AdjustBalance applies a signed delta to the wallet in one atomic read-modify-write.
	// Fails with ErrInsufficientFunds if the result would be negative and ErrUserNotFound
	// if the user does not exist.
	AdjustBalance(ctx context.Context, id int64, delta int64) (*models.User, error)

	// ListBySubadmin returns the players managed by a subadmin
	ListBySubadmin(ctx context.Context, subadminID int64) ([]*models.User, error)

	// ListByRole returns all users with a role
	ListByRole(ctx context.Context, role models.Role) ([]*models.User, error)
}

// BalanceHistoryRepository defines the interface for the wallet audit trail
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns the most recent balance history for a user
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error)
}

// MarketRepository defines the interface for markets and their game associations
type MarketRepository interface {
	Create(ctx context.Context, market *models.Market) error
	GetByID(ctx context.Context, id int64) (*models.Market, error)

	// GetByIDForUpdate retrieves a market and locks it until the unit of work ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Market, error)

	// GetByIDForShare retrieves a market and blocks concurrent state changes, but not
	// other readers, until the unit of work ends
	GetByIDForShare(ctx context.Context, id int64) (*models.Market, error)

	// Update persists status, times and result
	Update(ctx context.Context, market *models.Market) error
	List(ctx context.Context) ([]*models.Market, error)

	// AddGame associates a game type, failing with ErrMarketGameExists on duplicates
	AddGame(ctx context.Context, marketID, gameTypeID int64) error

	// RemoveGame deletes an association, returning false if none existed
	RemoveGame(ctx context.Context, marketID, gameTypeID int64) (bool, error)

	// GetGame returns the game type if it is associated with the market, nil otherwise
	GetGame(ctx context.Context, marketID, gameTypeID int64) (*models.GameType, error)

	// ListGames returns the game types associated with a market
	ListGames(ctx context.Context, marketID int64) ([]*models.GameType, error)
}

// GameTypeRepository defines the interface for game type data access
type GameTypeRepository interface {
	Create(ctx context.Context, gameType *models.GameType) error
	GetByID(ctx context.Context, id int64) (*models.GameType, error)
	Update(ctx context.Context, gameType *models.GameType) error
	List(ctx context.Context) ([]*models.GameType, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create inserts a new bet and fills in its ID and timestamps
	Create(ctx context.Context, bet *models.Bet) error

	GetByID(ctx context.Context, id int64) (*models.Bet, error)

	// GetByIDForUpdate retrieves a bet and locks it until the unit of work ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Bet, error)

	// MarkSettled moves a pending bet to a terminal status, failing with
	// ErrBetNotPending if it was already settled
	MarkSettled(ctx context.Context, bet *models.Bet) error

	// ListPendingIDsByMarket returns the IDs of bets awaiting settlement in a market
	ListPendingIDsByMarket(ctx context.Context, marketID int64) ([]int64, error)

	List(ctx context.Context, filter models.BetFilter) ([]*models.Bet, error)
}

// TransactionRepository defines the interface for transaction data access
type TransactionRepository interface {
	// Create inserts a new transaction and fills in its ID, reference and timestamps
	Create(ctx context.Context, txn *models.Transaction) error

	GetByID(ctx context.Context, id int64) (*models.Transaction, error)

	// GetByIDForUpdate retrieves a transaction and locks it until the unit of work ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Transaction, error)

	// Decide persists an approval or rejection, failing with ErrNotPending if the
	// stored transaction is no longer pending
	Decide(ctx context.Context, txn *models.Transaction) error

	List(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and releases its pending events
	Commit() error

	// Rollback rolls back the transaction; a no-op after Commit
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	MarketRepository() MarketRepository
	GameTypeRepository() GameTypeRepository
	BetRepository() BetRepository
	TransactionRepository() TransactionRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// WalletService is the wallet ledger: the only path that changes a balance
type WalletService interface {
	// AdjustBalance applies a signed delta in its own unit of work
	AdjustBalance(ctx context.Context, userID int64, delta int64) (*models.User, error)

	// GetBalance returns a user's balance if the actor may see it
	GetBalance(ctx context.Context, actor models.Actor, userID int64) (int64, error)

	// History returns the wallet audit trail for a user if the actor may see it
	History(ctx context.Context, actor models.Actor, userID int64, limit int) ([]*models.BalanceHistory, error)
}

// PlaceBetRequest carries the caller's bet selection
type PlaceBetRequest struct {
	MarketID       int64 `validate:"gt=0"`
	GameTypeID     int64 `validate:"gt=0"`
	SelectedNumber string
	BetAmount      int64
}

// BetService manages the bet lifecycle
type BetService interface {
	// PlaceBet validates, prices and accepts a bet, debiting the wallet atomically
	PlaceBet(ctx context.Context, actor models.Actor, req PlaceBetRequest) (*models.Bet, error)

	// SettleMarket settles every pending bet of a market whose result is declared.
	// Each bet is settled in its own unit of work; failures are isolated and reported.
	SettleMarket(ctx context.Context, marketID int64) (*models.SettlementReport, error)

	// GetBet returns a bet if the actor may see it
	GetBet(ctx context.Context, actor models.Actor, betID int64) (*models.Bet, error)

	// ListBets returns bets visible to the actor
	ListBets(ctx context.Context, actor models.Actor, filter models.BetFilter) ([]*models.Bet, error)
}

// CreateGameTypeRequest carries a new game type definition
type CreateGameTypeRequest struct {
	Name         string          `validate:"required,max=100"`
	Type         models.GameKind `validate:"required,oneof=jodi hurf cross odd_even"`
	MinBetAmount int64           `validate:"gt=0"`
	MaxBetAmount int64           `validate:"gtefield=MinBetAmount"`
	PayoutRatio  decimal.Decimal
}

// UpdateGameTypeRequest carries changes to limits and payout; nil fields are left as is
type UpdateGameTypeRequest struct {
	MinBetAmount *int64
	MaxBetAmount *int64
	PayoutRatio  *decimal.Decimal
}

// MarketService manages the market lifecycle and game catalogue
type MarketService interface {
	CreateMarket(ctx context.Context, actor models.Actor, name string) (*models.Market, error)
	OpenMarket(ctx context.Context, actor models.Actor, marketID int64) (*models.Market, error)
	CloseMarket(ctx context.Context, actor models.Actor, marketID int64) (*models.Market, error)

	// DeclareResult records the result of a closed market once, then settles its bets
	DeclareResult(ctx context.Context, actor models.Actor, marketID int64, result string) (*models.Market, *models.SettlementReport, error)

	// ResettleMarket re-runs settlement for bets left pending after a failed run
	ResettleMarket(ctx context.Context, actor models.Actor, marketID int64) (*models.SettlementReport, error)

	GetMarket(ctx context.Context, marketID int64) (*models.Market, error)
	ListMarkets(ctx context.Context) ([]*models.Market, error)

	CreateGameType(ctx context.Context, actor models.Actor, req CreateGameTypeRequest) (*models.GameType, error)
	UpdateGameType(ctx context.Context, actor models.Actor, gameTypeID int64, req UpdateGameTypeRequest) (*models.GameType, error)
	ListGameTypes(ctx context.Context) ([]*models.GameType, error)

	AddGameToMarket(ctx context.Context, actor models.Actor, marketID, gameTypeID int64) error
	RemoveGameFromMarket(ctx context.Context, actor models.Actor, marketID, gameTypeID int64) error
	ListMarketGames(ctx context.Context, marketID int64) ([]*models.GameType, error)
}

// TransactionRequest carries a deposit, withdrawal or adjustment submission
type TransactionRequest struct {
	UserID  int64                  `validate:"required,gt=0"`
	Type    models.TransactionType `validate:"required,oneof=deposit withdrawal bet winning adjustment"`
	Amount  int64                  `validate:"gt=0"`
	Remarks string                 `validate:"max=500"`
}

// TransactionService manages the deposit/withdrawal approval workflow
type TransactionService interface {
	CreateRequest(ctx context.Context, actor models.Actor, req TransactionRequest) (*models.Transaction, error)
	Approve(ctx context.Context, actor models.Actor, transactionID int64, remarks string) (*models.Transaction, error)
	Reject(ctx context.Context, actor models.Actor, transactionID int64, remarks string) (*models.Transaction, error)
	GetTransaction(ctx context.Context, actor models.Actor, transactionID int64) (*models.Transaction, error)
	ListTransactions(ctx context.Context, actor models.Actor, filter models.TransactionFilter) ([]*models.Transaction, error)
}

// CreateUserRequest carries a new account definition
type CreateUserRequest struct {
	Username   string      `validate:"required,min=3,max=50"`
	Password   string      `validate:"required,min=6,max=72"`
	Role       models.Role `validate:"required,oneof=admin subadmin player"`
	SubadminID *int64
}

// PasswordHasher is the credential collaborator used for provisioning and login
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

// TokenIssuer mints actor tokens for the external layer
type TokenIssuer interface {
	Issue(actor models.Actor) (string, error)
}

// UserService manages account provisioning and authentication
type UserService interface {
	CreateUser(ctx context.Context, actor models.Actor, req CreateUserRequest) (*models.User, error)
	SetUserStatus(ctx context.Context, actor models.Actor, userID int64, status models.UserStatus) (*models.User, error)
	GetUser(ctx context.Context, actor models.Actor, userID int64) (*models.User, error)
	ListPlayers(ctx context.Context, actor models.Actor) ([]*models.User, error)

	// Authenticate verifies credentials and returns the actor for an active user
	Authenticate(ctx context.Context, username, password string) (*models.Actor, error)

	// Login authenticates and issues an actor token
	Login(ctx context.Context, username, password string) (string, error)

	// EnsureAdmin creates the bootstrap admin if no user with that username exists
	EnsureAdmin(ctx context.Context, username, password string) (*models.User, error)
}

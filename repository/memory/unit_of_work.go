package memory

import (
	"context"
	"fmt"

	"matka/events"
	"matka/service"
)

// unitOfWork implements the UnitOfWork interface over a Store
type unitOfWork struct {
	store            *Store
	working          *state
	transactionalBus *events.TransactionalBus

	userRepo           service.UserRepository
	balanceHistoryRepo service.BalanceHistoryRepository
	marketRepo         service.MarketRepository
	gameTypeRepo       service.GameTypeRepository
	betRepo            service.BetRepository
	transactionRepo    service.TransactionRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(store *Store, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		store:    store,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	store    *Store
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		store:            f.store,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin takes the store lock and starts working on a private copy
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.working != nil {
		return fmt.Errorf("transaction already started")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.store.mu.Lock()
	u.working = u.store.state.clone()

	u.userRepo = &userRepository{s: u.working}
	u.balanceHistoryRepo = &balanceHistoryRepository{s: u.working}
	u.marketRepo = &marketRepository{s: u.working}
	u.gameTypeRepo = &gameTypeRepository{s: u.working}
	u.betRepo = &betRepository{s: u.working}
	u.transactionRepo = &transactionRepository{s: u.working}

	return nil
}

// Commit publishes the working copy as the committed state
func (u *unitOfWork) Commit() error {
	if u.working == nil {
		return fmt.Errorf("no transaction to commit")
	}

	u.store.state = u.working
	u.working = nil
	u.store.mu.Unlock()

	u.transactionalBus.Flush()
	return nil
}

// Rollback drops the working copy; a no-op after Commit
func (u *unitOfWork) Rollback() error {
	if u.working == nil {
		return nil
	}

	u.working = nil
	u.store.mu.Unlock()

	u.transactionalBus.Discard()
	return nil
}

func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

func (u *unitOfWork) BalanceHistoryRepository() service.BalanceHistoryRepository {
	if u.balanceHistoryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.balanceHistoryRepo
}

func (u *unitOfWork) MarketRepository() service.MarketRepository {
	if u.marketRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.marketRepo
}

func (u *unitOfWork) GameTypeRepository() service.GameTypeRepository {
	if u.gameTypeRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.gameTypeRepo
}

func (u *unitOfWork) BetRepository() service.BetRepository {
	if u.betRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.betRepo
}

func (u *unitOfWork) TransactionRepository() service.TransactionRepository {
	if u.transactionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionRepo
}

func (u *unitOfWork) EventBus() service.EventPublisher {
	return u.transactionalBus
}

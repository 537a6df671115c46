package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"matka/events"
	"matka/models"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultListLimit = 100

type betService struct {
	uowFactory UnitOfWorkFactory
	limiter    *BetRateLimiter
	workers    int
}

// NewBetService creates a new bet service. workers bounds settlement concurrency;
// a nil limiter disables rate limiting.
func NewBetService(uowFactory UnitOfWorkFactory, limiter *BetRateLimiter, workers int) BetService {
	if workers < 1 {
		workers = 1
	}
	return &betService{
		uowFactory: uowFactory,
		limiter:    limiter,
		workers:    workers,
	}
}

func (s *betService) PlaceBet(ctx context.Context, actor models.Actor, req PlaceBetRequest) (*models.Bet, error) {
	if actor.Role != models.RolePlayer {
		return nil, fmt.Errorf("%w: only players can place bets", ErrUnauthorized)
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if !s.limiter.Allow(actor.ID) {
		return nil, ErrRateLimited
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := loadActor(ctx, uow, actor)
	if err != nil {
		return nil, err
	}

	// The shared lock keeps the market from closing underneath the bet
	market, err := uow.MarketRepository().GetByIDForShare(ctx, req.MarketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	if market == nil || !market.IsOpen() {
		return nil, ErrMarketNotOpen
	}

	gameType, err := uow.MarketRepository().GetGame(ctx, market.ID, req.GameTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get market game: %w", err)
	}
	if gameType == nil {
		return nil, ErrGameNotAvailable
	}

	if err := ValidateSelection(gameType.Type, req.SelectedNumber); err != nil {
		return nil, err
	}

	if !gameType.AllowsAmount(req.BetAmount) {
		return nil, fmt.Errorf("%w: %d not within %d-%d", ErrBetAmountOutOfRange, req.BetAmount, gameType.MinBetAmount, gameType.MaxBetAmount)
	}

	if user.WalletBalance < req.BetAmount {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, user.WalletBalance, req.BetAmount)
	}

	bet := &models.Bet{
		UserID:            user.ID,
		MarketID:          market.ID,
		GameTypeID:        gameType.ID,
		SelectedNumber:    req.SelectedNumber,
		BetAmount:         req.BetAmount,
		PotentialWinnings: PotentialWinnings(req.BetAmount, gameType.PayoutRatio),
		Status:            models.BetStatusPending,
	}
	if err := uow.BetRepository().Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	txn := systemTransaction(user.ID, models.TransactionTypeBet, bet.BetAmount, bet.ID)
	if err := uow.TransactionRepository().Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record bet transaction: %w", err)
	}

	if _, err := applyBalanceChange(ctx, uow, user.ID, -bet.BetAmount, models.TransactionTypeBet, &txn.ID); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.BetPlacedEvent{
		BetID:             bet.ID,
		UserID:            bet.UserID,
		MarketID:          bet.MarketID,
		GameTypeID:        bet.GameTypeID,
		GameKind:          gameType.Type,
		SelectedNumber:    bet.SelectedNumber,
		Amount:            bet.BetAmount,
		PotentialWinnings: bet.PotentialWinnings,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"betID":     bet.ID,
		"userID":    bet.UserID,
		"marketID":  bet.MarketID,
		"gameType":  gameType.Type,
		"selection": bet.SelectedNumber,
		"amount":    bet.BetAmount,
		"potential": bet.PotentialWinnings,
	}).Info("Bet placed")

	return bet, nil
}

// systemTransaction builds an already approved ledger entry for a bet side effect
func systemTransaction(userID int64, txType models.TransactionType, amount, betID int64) *models.Transaction {
	now := time.Now()
	return &models.Transaction{
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		Status:      models.TransactionStatusApproved,
		ReferenceID: &betID,
		ProcessedAt: &now,
	}
}

type settleOutcome struct {
	status  models.BetStatus
	payout  int64
	skipped bool
}

func (s *betService) SettleMarket(ctx context.Context, marketID int64) (*models.SettlementReport, error) {
	market, betIDs, kinds, err := s.loadSettlementWork(ctx, marketID)
	if err != nil {
		return nil, err
	}
	result := *market.Result

	report := &models.SettlementReport{
		MarketID: marketID,
		Result:   result,
	}

	log.WithFields(log.Fields{
		"marketID":    marketID,
		"result":      result,
		"pendingBets": len(betIDs),
		"workers":     s.workers,
	}).Info("Settling market")

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.workers)

	for _, betID := range betIDs {
		g.Go(func() error {
			outcome, err := s.settleBet(ctx, betID, result, kinds)

			mu.Lock()
			defer mu.Unlock()

			// One bet failing never stops the others
			if err != nil {
				report.Failed++
				report.FailedBets = append(report.FailedBets, betID)
				log.WithFields(log.Fields{
					"marketID": marketID,
					"betID":    betID,
					"error":    err,
				}).Error("Failed to settle bet")
				return nil
			}

			if outcome.skipped {
				report.Skipped++
				return nil
			}

			report.Settled++
			if outcome.status == models.BetStatusWon {
				report.Won++
				report.TotalPayout += outcome.payout
			} else {
				report.Lost++
			}
			return nil
		})
	}
	_ = g.Wait()

	log.WithFields(log.Fields{
		"marketID":    marketID,
		"settled":     report.Settled,
		"won":         report.Won,
		"lost":        report.Lost,
		"skipped":     report.Skipped,
		"failed":      report.Failed,
		"totalPayout": report.TotalPayout,
	}).Info("Market settlement finished")

	return report, nil
}

// loadSettlementWork reads the declared market, its pending bets and the game kinds
func (s *betService) loadSettlementWork(ctx context.Context, marketID int64) (*models.Market, []int64, map[int64]models.GameKind, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	market, err := uow.MarketRepository().GetByID(ctx, marketID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get market: %w", err)
	}
	if market == nil {
		return nil, nil, nil, ErrMarketNotFound
	}
	if market.IsOpen() {
		return nil, nil, nil, ErrMarketNotClosed
	}
	if !market.HasResult() {
		return nil, nil, nil, fmt.Errorf("%w: market %d has no declared result", ErrInvalidResult, marketID)
	}

	betIDs, err := uow.BetRepository().ListPendingIDsByMarket(ctx, marketID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list pending bets: %w", err)
	}

	gameTypes, err := uow.GameTypeRepository().List(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list game types: %w", err)
	}
	kinds := make(map[int64]models.GameKind, len(gameTypes))
	for _, gt := range gameTypes {
		kinds[gt.ID] = gt.Type
	}

	return market, betIDs, kinds, nil
}

// settleBet settles one bet atomically: status transition, credit and winning record
func (s *betService) settleBet(ctx context.Context, betID int64, result string, kinds map[int64]models.GameKind) (settleOutcome, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return settleOutcome{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetByIDForUpdate(ctx, betID)
	if err != nil {
		return settleOutcome{}, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return settleOutcome{}, ErrBetNotFound
	}
	if !bet.IsPending() {
		return settleOutcome{skipped: true}, nil
	}

	kind, ok := kinds[bet.GameTypeID]
	if !ok {
		return settleOutcome{}, fmt.Errorf("%w: %d", ErrGameTypeNotFound, bet.GameTypeID)
	}

	status, err := Settle(kind, bet.SelectedNumber, result)
	if err != nil {
		return settleOutcome{}, err
	}

	now := time.Now()
	bet.Status = status
	bet.SettledAt = &now
	if err := uow.BetRepository().MarkSettled(ctx, bet); err != nil {
		if errors.Is(err, ErrBetNotPending) {
			return settleOutcome{skipped: true}, nil
		}
		return settleOutcome{}, fmt.Errorf("failed to mark bet settled: %w", err)
	}

	var payout int64
	if status == models.BetStatusWon && bet.PotentialWinnings > 0 {
		payout = bet.PotentialWinnings
		txn := systemTransaction(bet.UserID, models.TransactionTypeWinning, payout, bet.ID)
		if err := uow.TransactionRepository().Create(ctx, txn); err != nil {
			return settleOutcome{}, fmt.Errorf("failed to record winning transaction: %w", err)
		}
		if _, err := applyBalanceChange(ctx, uow, bet.UserID, payout, models.TransactionTypeWinning, &txn.ID); err != nil {
			return settleOutcome{}, err
		}
	}

	uow.EventBus().Publish(events.BetSettledEvent{
		BetID:    bet.ID,
		UserID:   bet.UserID,
		MarketID: bet.MarketID,
		Status:   status,
		Amount:   bet.BetAmount,
		Payout:   payout,
	})

	if err := uow.Commit(); err != nil {
		return settleOutcome{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return settleOutcome{status: status, payout: payout}, nil
}

func (s *betService) GetBet(ctx context.Context, actor models.Actor, betID int64) (*models.Bet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, ErrBetNotFound
	}

	if !actor.IsAdmin() && bet.UserID != actor.ID {
		owner, err := uow.UserRepository().GetByID(ctx, bet.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to get bet owner: %w", err)
		}
		if owner == nil || !CanViewUser(actor, owner) {
			return nil, fmt.Errorf("%w: cannot view bet %d", ErrUnauthorized, betID)
		}
	}

	return bet, nil
}

func (s *betService) ListBets(ctx context.Context, actor models.Actor, filter models.BetFilter) ([]*models.Bet, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ids, ok, err := visibleUserIDs(ctx, uow, actor, filter.UserIDs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*models.Bet{}, nil
	}
	filter.UserIDs = ids

	bets, err := uow.BetRepository().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}
	return bets, nil
}

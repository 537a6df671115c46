package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"matka/events"
	"matka/models"

	log "github.com/sirupsen/logrus"
)

type marketService struct {
	uowFactory UnitOfWorkFactory
	bets       BetService
}

// NewMarketService creates a new market service. Declared results are settled through bets.
func NewMarketService(uowFactory UnitOfWorkFactory, bets BetService) MarketService {
	return &marketService{
		uowFactory: uowFactory,
		bets:       bets,
	}
}

func (s *marketService) CreateMarket(ctx context.Context, actor models.Actor, name string) (*models.Market, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, fmt.Errorf("%w: market name must be 1-100 characters", ErrInvalidRequest)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	market := &models.Market{
		Name:      name,
		Status:    models.MarketStatusClosed,
		CreatedBy: actor.ID,
	}
	if err := uow.MarketRepository().Create(ctx, market); err != nil {
		return nil, fmt.Errorf("failed to create market: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"marketID": market.ID,
		"name":     market.Name,
		"adminID":  actor.ID,
	}).Info("Market created")

	return market, nil
}

func (s *marketService) OpenMarket(ctx context.Context, actor models.Actor, marketID int64) (*models.Market, error) {
	return s.transition(ctx, actor, marketID, func(m *models.Market, now time.Time) error {
		if m.HasResult() {
			return ErrResultAlreadyDeclared
		}
		if m.IsOpen() {
			return fmt.Errorf("%w: market %d is already open", ErrMarketNotClosed, m.ID)
		}
		m.Status = models.MarketStatusOpen
		m.OpenTime = &now
		return nil
	})
}

func (s *marketService) CloseMarket(ctx context.Context, actor models.Actor, marketID int64) (*models.Market, error) {
	return s.transition(ctx, actor, marketID, func(m *models.Market, now time.Time) error {
		if !m.IsOpen() {
			return ErrMarketNotOpen
		}
		m.Status = models.MarketStatusClosed
		m.CloseTime = &now
		return nil
	})
}

// transition applies a state change to a locked market and publishes it
func (s *marketService) transition(ctx context.Context, actor models.Actor, marketID int64, apply func(*models.Market, time.Time) error) (*models.Market, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	market, err := uow.MarketRepository().GetByIDForUpdate(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	if market == nil {
		return nil, ErrMarketNotFound
	}

	oldStatus := market.Status
	if err := apply(market, time.Now()); err != nil {
		return nil, err
	}

	if err := uow.MarketRepository().Update(ctx, market); err != nil {
		return nil, fmt.Errorf("failed to update market: %w", err)
	}

	uow.EventBus().Publish(events.MarketStateChangeEvent{
		MarketID:  market.ID,
		Name:      market.Name,
		OldStatus: oldStatus,
		NewStatus: market.Status,
		Result:    market.Result,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"marketID":  market.ID,
		"oldStatus": oldStatus,
		"newStatus": market.Status,
		"result":    market.Result,
		"adminID":   actor.ID,
	}).Info("Market state changed")

	return market, nil
}

func (s *marketService) DeclareResult(ctx context.Context, actor models.Actor, marketID int64, result string) (*models.Market, *models.SettlementReport, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, nil, err
	}
	if err := ValidateResult(result); err != nil {
		return nil, nil, err
	}

	market, err := s.transition(ctx, actor, marketID, func(m *models.Market, now time.Time) error {
		if m.HasResult() {
			return ErrResultAlreadyDeclared
		}
		if m.IsOpen() {
			return ErrMarketNotClosed
		}
		m.Result = &result
		m.ResultDeclaredAt = &now
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	// The result is committed before settlement starts; a failed run can be retried
	// with ResettleMarket.
	report, err := s.bets.SettleMarket(ctx, market.ID)
	if err != nil {
		return market, nil, fmt.Errorf("result declared but settlement failed: %w", err)
	}

	return market, report, nil
}

func (s *marketService) ResettleMarket(ctx context.Context, actor models.Actor, marketID int64) (*models.SettlementReport, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.bets.SettleMarket(ctx, marketID)
}

func (s *marketService) GetMarket(ctx context.Context, marketID int64) (*models.Market, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	market, err := uow.MarketRepository().GetByID(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	if market == nil {
		return nil, ErrMarketNotFound
	}
	return market, nil
}

func (s *marketService) ListMarkets(ctx context.Context) ([]*models.Market, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	markets, err := uow.MarketRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list markets: %w", err)
	}
	return markets, nil
}

func (s *marketService) CreateGameType(ctx context.Context, actor models.Actor, req CreateGameTypeRequest) (*models.GameType, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if !req.PayoutRatio.IsPositive() {
		return nil, fmt.Errorf("%w: payout ratio must be positive", ErrInvalidRequest)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	gameType := &models.GameType{
		Name:         req.Name,
		Type:         req.Type,
		MinBetAmount: req.MinBetAmount,
		MaxBetAmount: req.MaxBetAmount,
		PayoutRatio:  req.PayoutRatio,
		CreatedBy:    actor.ID,
	}
	if err := uow.GameTypeRepository().Create(ctx, gameType); err != nil {
		return nil, fmt.Errorf("failed to create game type: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"gameTypeID":  gameType.ID,
		"type":        gameType.Type,
		"payoutRatio": gameType.PayoutRatio.String(),
	}).Info("Game type created")

	return gameType, nil
}

// UpdateGameType changes limits and payout for future bets. Potential winnings of
// placed bets were fixed at placement and are not touched.
func (s *marketService) UpdateGameType(ctx context.Context, actor models.Actor, gameTypeID int64, req UpdateGameTypeRequest) (*models.GameType, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	gameType, err := uow.GameTypeRepository().GetByID(ctx, gameTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game type: %w", err)
	}
	if gameType == nil {
		return nil, ErrGameTypeNotFound
	}

	if req.MinBetAmount != nil {
		gameType.MinBetAmount = *req.MinBetAmount
	}
	if req.MaxBetAmount != nil {
		gameType.MaxBetAmount = *req.MaxBetAmount
	}
	if req.PayoutRatio != nil {
		gameType.PayoutRatio = *req.PayoutRatio
	}

	if gameType.MinBetAmount <= 0 || gameType.MaxBetAmount < gameType.MinBetAmount {
		return nil, fmt.Errorf("%w: bet limits must satisfy 0 < min <= max", ErrInvalidRequest)
	}
	if !gameType.PayoutRatio.IsPositive() {
		return nil, fmt.Errorf("%w: payout ratio must be positive", ErrInvalidRequest)
	}

	if err := uow.GameTypeRepository().Update(ctx, gameType); err != nil {
		return nil, fmt.Errorf("failed to update game type: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return gameType, nil
}

func (s *marketService) ListGameTypes(ctx context.Context) ([]*models.GameType, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	gameTypes, err := uow.GameTypeRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list game types: %w", err)
	}
	return gameTypes, nil
}

func (s *marketService) AddGameToMarket(ctx context.Context, actor models.Actor, marketID, gameTypeID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	market, err := uow.MarketRepository().GetByID(ctx, marketID)
	if err != nil {
		return fmt.Errorf("failed to get market: %w", err)
	}
	if market == nil {
		return ErrMarketNotFound
	}

	gameType, err := uow.GameTypeRepository().GetByID(ctx, gameTypeID)
	if err != nil {
		return fmt.Errorf("failed to get game type: %w", err)
	}
	if gameType == nil {
		return ErrGameTypeNotFound
	}

	if err := uow.MarketRepository().AddGame(ctx, marketID, gameTypeID); err != nil {
		return fmt.Errorf("failed to add game to market: %w", err)
	}

	return uow.Commit()
}

// RemoveGameFromMarket detaches a game type so no new bets are taken on it.
// Bets already placed still settle.
func (s *marketService) RemoveGameFromMarket(ctx context.Context, actor models.Actor, marketID, gameTypeID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	removed, err := uow.MarketRepository().RemoveGame(ctx, marketID, gameTypeID)
	if err != nil {
		return fmt.Errorf("failed to remove game from market: %w", err)
	}
	if !removed {
		return fmt.Errorf("market game %w", ErrNotFound)
	}

	return uow.Commit()
}

func (s *marketService) ListMarketGames(ctx context.Context, marketID int64) ([]*models.GameType, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	market, err := uow.MarketRepository().GetByID(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	if market == nil {
		return nil, ErrMarketNotFound
	}

	games, err := uow.MarketRepository().ListGames(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list market games: %w", err)
	}
	return games, nil
}

package service

import (
	"context"
	"errors"
	"testing"

	"matka/events"
	"matka/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func openMarket() *models.Market {
	return &models.Market{ID: 10, Name: "Kalyan", Status: models.MarketStatusOpen}
}

func jodiGame() *models.GameType {
	return &models.GameType{
		ID:           20,
		Name:         "Jodi",
		Type:         models.GameKindJodi,
		MinBetAmount: 10,
		MaxBetAmount: 1000,
		PayoutRatio:  decimal.NewFromInt(90),
	}
}

func activePlayer(balance int64) *models.User {
	return &models.User{ID: 3, Username: "player", Role: models.RolePlayer, Status: models.UserStatusActive, WalletBalance: balance}
}

// newMockSetup wires a factory handing out one unit of work over fresh repository mocks
func newMockSetup(ctx context.Context) (*MockUnitOfWorkFactory, *MockUnitOfWork, *MockRepositories) {
	repos := NewMockRepositories()
	uow := NewMockUnitOfWork(repos)
	factory := new(MockUnitOfWorkFactory)

	factory.On("Create").Return(uow)
	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback").Return(nil)
	return factory, uow, repos
}

func TestBetService_PlaceBet(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockSetup(ctx)
	uow.On("Commit").Return(nil)

	repos.Users.On("GetByID", ctx, int64(3)).Return(activePlayer(1000), nil)
	repos.Markets.On("GetByIDForShare", ctx, int64(10)).Return(openMarket(), nil)
	repos.Markets.On("GetGame", ctx, int64(10), int64(20)).Return(jodiGame(), nil)

	repos.Bets.On("Create", ctx, mock.MatchedBy(func(b *models.Bet) bool {
		return b.UserID == 3 &&
			b.BetAmount == 100 &&
			b.PotentialWinnings == 9000 &&
			b.Status == models.BetStatusPending
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Bet).ID = 100
	})

	repos.Transactions.On("Create", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.Type == models.TransactionTypeBet &&
			txn.Status == models.TransactionStatusApproved &&
			txn.Amount == 100 &&
			txn.ReferenceID != nil && *txn.ReferenceID == 100
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Transaction).ID = 200
	})

	repos.Users.On("AdjustBalance", ctx, int64(3), int64(-100)).Return(activePlayer(900), nil)
	repos.History.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.BalanceBefore == 1000 &&
			h.BalanceAfter == 900 &&
			h.ChangeAmount == -100 &&
			h.Reason == models.TransactionTypeBet &&
			*h.TransactionID == 200
	})).Return(nil)

	svc := NewBetService(factory, nil, 1)
	bet, err := svc.PlaceBet(ctx, testPlayer, PlaceBetRequest{
		MarketID:       10,
		GameTypeID:     20,
		SelectedNumber: "27",
		BetAmount:      100,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(100), bet.ID)
	assert.Equal(t, int64(9000), bet.PotentialWinnings)
	assert.True(t, bet.IsPending())

	published := uow.Published()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventTypeBalanceChange, published[0].Type())
	assert.Equal(t, events.EventTypeBetPlaced, published[1].Type())

	uow.AssertExpectations(t)
	repos.Users.AssertExpectations(t)
	repos.Bets.AssertExpectations(t)
	repos.Transactions.AssertExpectations(t)
	repos.History.AssertExpectations(t)
}

func TestBetService_PlaceBet_Rejections(t *testing.T) {
	ctx := context.Background()
	closed := openMarket()
	closed.Status = models.MarketStatusClosed

	tests := []struct {
		name      string
		user      *models.User
		market    *models.Market
		game      *models.GameType
		selection string
		amount    int64
		wantErr   error
	}{
		{"market closed", activePlayer(1000), closed, nil, "27", 100, ErrMarketNotOpen},
		{"market missing", activePlayer(1000), nil, nil, "27", 100, ErrMarketNotOpen},
		{"game not offered", activePlayer(1000), openMarket(), nil, "27", 100, ErrGameNotAvailable},
		{"bad selection", activePlayer(1000), openMarket(), jodiGame(), "7", 100, ErrInvalidSelection},
		{"below minimum", activePlayer(1000), openMarket(), jodiGame(), "27", 5, ErrBetAmountOutOfRange},
		{"above maximum", activePlayer(5000), openMarket(), jodiGame(), "27", 1001, ErrBetAmountOutOfRange},
		{"insufficient funds", activePlayer(50), openMarket(), jodiGame(), "27", 100, ErrInsufficientFunds},
		{"blocked player", &models.User{ID: 3, Role: models.RolePlayer, Status: models.UserStatusBlocked}, nil, nil, "27", 100, ErrUserBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory, uow, repos := newMockSetup(ctx)
			repos.Users.On("GetByID", ctx, int64(3)).Return(tt.user, nil)
			repos.Markets.On("GetByIDForShare", ctx, int64(10)).Return(tt.market, nil).Maybe()
			repos.Markets.On("GetGame", ctx, int64(10), int64(20)).Return(tt.game, nil).Maybe()

			svc := NewBetService(factory, nil, 1)
			_, err := svc.PlaceBet(ctx, testPlayer, PlaceBetRequest{
				MarketID:       10,
				GameTypeID:     20,
				SelectedNumber: tt.selection,
				BetAmount:      tt.amount,
			})

			assert.ErrorIs(t, err, tt.wantErr)
			uow.AssertNotCalled(t, "Commit")
			repos.Bets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			repos.Users.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
			assert.Empty(t, uow.Published())
		})
	}
}

func TestBetService_PlaceBet_RejectedBeforeStorage(t *testing.T) {
	ctx := context.Background()
	factory := new(MockUnitOfWorkFactory)
	svc := NewBetService(factory, nil, 1)

	_, err := svc.PlaceBet(ctx, testAdmin, PlaceBetRequest{MarketID: 10, GameTypeID: 20, SelectedNumber: "27", BetAmount: 100})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.PlaceBet(ctx, testPlayer, PlaceBetRequest{GameTypeID: 20, SelectedNumber: "27", BetAmount: 100})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	factory.AssertNotCalled(t, "Create")
}

func TestBetService_PlaceBet_RateLimited(t *testing.T) {
	ctx := context.Background()
	factory, _, repos := newMockSetup(ctx)
	repos.Users.On("GetByID", ctx, int64(3)).Return(nil, nil)

	svc := NewBetService(factory, NewBetRateLimiter(0.001, 1), 1)
	req := PlaceBetRequest{MarketID: 10, GameTypeID: 20, SelectedNumber: "27", BetAmount: 100}

	_, err := svc.PlaceBet(ctx, testPlayer, req)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.PlaceBet(ctx, testPlayer, req)
	assert.ErrorIs(t, err, ErrRateLimited)
	factory.AssertNumberOfCalls(t, "Create", 1)
}

func TestBetService_SettleMarket(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockSetup(ctx)
	uow.On("Commit").Return(nil)

	result := "27"
	market := &models.Market{ID: 10, Status: models.MarketStatusClosed, Result: &result}
	repos.Markets.On("GetByID", ctx, int64(10)).Return(market, nil)
	repos.Bets.On("ListPendingIDsByMarket", ctx, int64(10)).Return([]int64{1, 2, 3, 4, 5}, nil)
	repos.GameTypes.On("List", ctx).Return([]*models.GameType{jodiGame()}, nil)

	pending := func(id int64, selection string) *models.Bet {
		return &models.Bet{ID: id, UserID: 3, MarketID: 10, GameTypeID: 20, SelectedNumber: selection,
			BetAmount: 100, PotentialWinnings: 9000, Status: models.BetStatusPending}
	}
	repos.Bets.On("GetByIDForUpdate", ctx, int64(1)).Return(pending(1, "27"), nil)
	repos.Bets.On("GetByIDForUpdate", ctx, int64(2)).Return(pending(2, "13"), nil)
	repos.Bets.On("GetByIDForUpdate", ctx, int64(3)).Return(&models.Bet{ID: 3, Status: models.BetStatusWon}, nil)
	repos.Bets.On("GetByIDForUpdate", ctx, int64(4)).Return(nil, errors.New("connection reset"))
	repos.Bets.On("GetByIDForUpdate", ctx, int64(5)).Return(pending(5, "27"), nil)

	repos.Bets.On("MarkSettled", ctx, mock.MatchedBy(func(b *models.Bet) bool { return b.ID == 1 && b.Status == models.BetStatusWon })).Return(nil)
	repos.Bets.On("MarkSettled", ctx, mock.MatchedBy(func(b *models.Bet) bool { return b.ID == 2 && b.Status == models.BetStatusLost })).Return(nil)
	repos.Bets.On("MarkSettled", ctx, mock.MatchedBy(func(b *models.Bet) bool { return b.ID == 5 })).Return(ErrBetNotPending)

	repos.Transactions.On("Create", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.Type == models.TransactionTypeWinning && txn.Amount == 9000 && *txn.ReferenceID == 1
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Transaction).ID = 300
	})
	repos.Users.On("AdjustBalance", ctx, int64(3), int64(9000)).Return(activePlayer(9900), nil)
	repos.History.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.ChangeAmount == 9000 && h.Reason == models.TransactionTypeWinning
	})).Return(nil)

	svc := NewBetService(factory, nil, 1)
	report, err := svc.SettleMarket(ctx, 10)

	require.NoError(t, err)
	assert.Equal(t, "27", report.Result)
	assert.Equal(t, 2, report.Settled)
	assert.Equal(t, 1, report.Won)
	assert.Equal(t, 1, report.Lost)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []int64{4}, report.FailedBets)
	assert.Equal(t, int64(9000), report.TotalPayout)

	repos.Users.AssertNumberOfCalls(t, "AdjustBalance", 1)
	repos.Transactions.AssertExpectations(t)
}

func TestBetService_SettleMarket_RequiresResult(t *testing.T) {
	ctx := context.Background()

	t.Run("open market", func(t *testing.T) {
		factory, _, repos := newMockSetup(ctx)
		repos.Markets.On("GetByID", ctx, int64(10)).Return(openMarket(), nil)

		_, err := NewBetService(factory, nil, 1).SettleMarket(ctx, 10)
		assert.ErrorIs(t, err, ErrMarketNotClosed)
	})

	t.Run("no result", func(t *testing.T) {
		factory, _, repos := newMockSetup(ctx)
		repos.Markets.On("GetByID", ctx, int64(10)).Return(&models.Market{ID: 10, Status: models.MarketStatusClosed}, nil)

		_, err := NewBetService(factory, nil, 1).SettleMarket(ctx, 10)
		assert.ErrorIs(t, err, ErrInvalidResult)
	})

	t.Run("missing market", func(t *testing.T) {
		factory, _, repos := newMockSetup(ctx)
		repos.Markets.On("GetByID", ctx, int64(10)).Return(nil, nil)

		_, err := NewBetService(factory, nil, 1).SettleMarket(ctx, 10)
		assert.ErrorIs(t, err, ErrMarketNotFound)
	})
}

package service

// Core bundles the services the external request layer calls into
type Core struct {
	Users        UserService
	Wallet       WalletService
	Bets         BetService
	Markets      MarketService
	Transactions TransactionService
}

// CoreOptions tunes the services built by NewCore
type CoreOptions struct {
	SettlementWorkers int
	BetLimiter        *BetRateLimiter
	Hasher            PasswordHasher
	Tokens            TokenIssuer
}

// NewCore wires every service to one storage backend
func NewCore(uowFactory UnitOfWorkFactory, opts CoreOptions) *Core {
	bets := NewBetService(uowFactory, opts.BetLimiter, opts.SettlementWorkers)
	return &Core{
		Users:        NewUserService(uowFactory, opts.Hasher, opts.Tokens),
		Wallet:       NewWalletService(uowFactory),
		Bets:         bets,
		Markets:      NewMarketService(uowFactory, bets),
		Transactions: NewTransactionService(uowFactory),
	}
}

package app

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/engagement-engine/internal/auth"
	"github.com/oggyb/engagement-engine/internal/balance"
	"github.com/oggyb/engagement-engine/internal/cache"
	"github.com/oggyb/engagement-engine/internal/config"
	"github.com/oggyb/engagement-engine/internal/domain"
	"github.com/oggyb/engagement-engine/internal/entitlement"
	"github.com/oggyb/engagement-engine/internal/events"
	"github.com/oggyb/engagement-engine/internal/matching"
	"github.com/oggyb/engagement-engine/internal/quota"
	"github.com/oggyb/engagement-engine/internal/repository"
	"github.com/oggyb/engagement-engine/internal/reward"
	"github.com/oggyb/engagement-engine/internal/staking"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.) and the
// engines built on top of them.
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Clock      domain.Clock
	Tokens     *auth.Tokens
	Events     events.Publisher

	Balances     *balance.Store
	Entitlements *entitlement.Resolver
	Rewards      *reward.Distributor
	Matching     *matching.Engine
	Staking      *staking.Ledger
}

// New creates a new AppContext. Economic parameters are parsed from cfg
// here, so a bad value fails the boot instead of the first request.
func New(
	cfg *config.Config,
	db *gorm.DB,
	rdb *cache.RedisCache,
	publisher events.Publisher,
	clock domain.Clock,
	logger *slog.Logger,
) (*AppContext, error) {
	prices, err := entitlement.ParsePrices(cfg.Plans.BasicPrice, cfg.Plans.PremiumPrice, cfg.Plans.VIPPrice)
	if err != nil {
		return nil, fmt.Errorf("plan prices: %w", err)
	}
	rates, err := reward.ParseRates(cfg)
	if err != nil {
		return nil, fmt.Errorf("reward rates: %w", err)
	}
	stakingCfg, err := staking.ParseConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("staking config: %w", err)
	}

	balances := balance.NewStore(db, clock, logger)
	resolver := entitlement.NewResolver(repository.NewSubscriptionRepository(db), balances, prices, clock, logger)
	rewards := reward.NewDistributor(repository.NewRewardRepository(db), balances, rates, clock, logger)
	engine := matching.NewEngine(matching.Deps{
		DB:           db,
		Quota:        quota.NewTracker(rdb, clock, logger),
		Entitlements: resolver,
		Likes:        rdb,
		Events:       publisher,
		Rewards:      rewards,
		Clock:        clock,
		Logger:       logger,
	})

	return &AppContext{
		DB:           db,
		RedisCache:   rdb,
		Logger:       logger,
		Clock:        clock,
		Tokens:       auth.NewTokens(cfg),
		Events:       publisher,
		Balances:     balances,
		Entitlements: resolver,
		Rewards:      rewards,
		Matching:     engine,
		Staking:      staking.NewLedger(stakingCfg, repository.NewStakeRepository(db), balances, clock, logger),
	}, nil
}

package staking

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/oggyb/engagement-engine/internal/config"
	"github.com/oggyb/engagement-engine/internal/domain"
)

// Year is the APR reference period.
const Year = 365 * 24 * time.Hour

const bpsDenominator = 10_000

// Config is loaded once at boot and read-only afterwards, so it is shared
// without locking. Durations and AprBps are parallel lists.
type Config struct {
	MinStake  domain.Amount
	MaxStake  domain.Amount
	Durations []time.Duration
	AprBps    []int64
}

// ParseConfig reads and validates the staking section of cfg.
func ParseConfig(cfg *config.Config) (Config, error) {
	minStake, err := domain.ParseAmount(cfg.Staking.MinStake)
	if err != nil {
		return Config{}, fmt.Errorf("STAKING_MIN: %w", err)
	}
	maxStake, err := domain.ParseAmount(cfg.Staking.MaxStake)
	if err != nil {
		return Config{}, fmt.Errorf("STAKING_MAX: %w", err)
	}

	var durations []time.Duration
	for _, raw := range strings.Split(cfg.Staking.Durations, ",") {
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return Config{}, fmt.Errorf("STAKING_DURATIONS: %w", err)
		}
		durations = append(durations, d)
	}

	var apr []int64
	for _, raw := range strings.Split(cfg.Staking.AprBps, ",") {
		bps, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("STAKING_APR_BPS: %w", err)
		}
		apr = append(apr, bps)
	}

	c := Config{MinStake: minStake, MaxStake: maxStake, Durations: durations, AprBps: apr}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.MinStake.Sign() <= 0 {
		return fmt.Errorf("staking: min stake must be positive, got %s", c.MinStake)
	}
	if c.MaxStake.Cmp(c.MinStake) < 0 {
		return fmt.Errorf("staking: max stake %s below min stake %s", c.MaxStake, c.MinStake)
	}
	if len(c.Durations) == 0 {
		return fmt.Errorf("staking: no lock durations configured")
	}
	if len(c.Durations) != len(c.AprBps) {
		return fmt.Errorf("staking: %d durations but %d APR rates", len(c.Durations), len(c.AprBps))
	}
	for i, d := range c.Durations {
		if d <= 0 {
			return fmt.Errorf("staking: duration %d must be positive", i)
		}
		if c.AprBps[i] < 0 {
			return fmt.Errorf("staking: APR %d must not be negative", i)
		}
	}
	return nil
}

// Tier returns the duration and APR behind durationIndex.
func (c Config) Tier(durationIndex int) (time.Duration, int64, error) {
	if durationIndex < 0 || durationIndex >= len(c.Durations) {
		return 0, 0, fmt.Errorf("%w: index %d, have %d tiers", domain.ErrInvalidDuration, durationIndex, len(c.Durations))
	}
	return c.Durations[durationIndex], c.AprBps[durationIndex], nil
}

// Reward is amount × aprBps/10000 × duration/Year, floored. The whole
// computation stays on big integers.
func Reward(amount domain.Amount, aprBps int64, duration time.Duration) domain.Amount {
	num := amount.Big()
	num.Mul(num, big.NewInt(aprBps))
	num.Mul(num, big.NewInt(int64(duration)))

	den := big.NewInt(bpsDenominator)
	den.Mul(den, big.NewInt(int64(Year)))

	return domain.AmountFromBig(num.Quo(num, den))
}

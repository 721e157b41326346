package api

import "github.com/oggyb/engagement-engine/internal/domain"

// Timestamps are unix nanoseconds. Amounts are decimal strings.

type Empty struct{}

// Matching

type Location struct {
	City      string  `json:"city,omitempty" validate:"max=128"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

type Preferences struct {
	MinAge        int     `json:"minAge" validate:"gte=0,lte=120"`
	MaxAge        int     `json:"maxAge" validate:"gte=0,lte=120"`
	Gender        string  `json:"gender,omitempty" validate:"max=32"`
	MaxDistanceKm float64 `json:"maxDistanceKm" validate:"gte=0"`
}

type Profile struct {
	UserID      string      `json:"userId"`
	Name        string      `json:"name" validate:"required,max=128"`
	Age         int         `json:"age" validate:"required,gte=18,lte=120"`
	Gender      string      `json:"gender" validate:"required,max=32"`
	Bio         string      `json:"bio,omitempty" validate:"max=1024"`
	Photos      []string    `json:"photos,omitempty" validate:"max=12"`
	Interests   []string    `json:"interests,omitempty" validate:"max=32"`
	Location    Location    `json:"location"`
	Preferences Preferences `json:"preferences"`
	Verified    bool        `json:"verified"`
	LastActive  int64       `json:"lastActive"`
	// DistanceKm is filled on discovery results only.
	DistanceKm float64 `json:"distanceKm,omitempty"`
}

type PutProfileRequest struct {
	Profile Profile `json:"profile"`
}

type GetProfileRequest struct {
	// UserID defaults to the caller.
	UserID string `json:"userId,omitempty" validate:"max=128"`
}

type ProfileResponse struct {
	Profile Profile `json:"profile"`
}

type GetPotentialMatchesRequest struct {
	Prioritized bool `json:"prioritized"`
	Limit       int  `json:"limit" validate:"gte=0"`
}

type GetPotentialMatchesResponse struct {
	Profiles []Profile `json:"profiles"`
}

type SwipeRequest struct {
	TargetUserID string `json:"targetUserId" validate:"required,max=128"`
	Direction    string `json:"direction" validate:"required,oneof=like pass LIKE PASS"`
}

type Match struct {
	ID          string `json:"id"`
	User1       string `json:"user1"`
	User2       string `json:"user2"`
	ChatID      string `json:"chatId"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"createdAt"`
	UnmatchedAt int64  `json:"unmatchedAt,omitempty"`
	UnmatchedBy string `json:"unmatchedBy,omitempty"`
}

type SwipeResponse struct {
	Matched   bool   `json:"matched"`
	NewMatch  bool   `json:"newMatch"`
	Match     *Match `json:"match,omitempty"`
	Remaining int64  `json:"remaining"`
}

type GetMatchesResponse struct {
	Matches []Match `json:"matches"`
}

type MatchRequest struct {
	MatchID string `json:"matchId" validate:"required,max=64"`
}

type MatchResponse struct {
	Match Match `json:"match"`
}

type UnmatchResponse struct {
	Unmatched bool `json:"unmatched"`
}

type SwipesRemainingResponse struct {
	Remaining int64 `json:"remaining"`
}

type ListLikedYouRequest struct {
	NewOnly         bool   `json:"newOnly"`
	PaginationToken string `json:"paginationToken,omitempty"`
	Limit           int    `json:"limit" validate:"gte=0"`
}

type Liker struct {
	ActorID string `json:"actorId"`
	LikedAt int64  `json:"likedAt"`
}

type ListLikedYouResponse struct {
	Likers              []Liker `json:"likers"`
	NextPaginationToken string  `json:"nextPaginationToken,omitempty"`
}

type CountLikedYouResponse struct {
	Count int64 `json:"count"`
}

// Subscription

type FeatureSet struct {
	MaxSwipesPerDay   int64 `json:"maxSwipesPerDay"`
	MaxMessagesPerDay int64 `json:"maxMessagesPerDay"`
	CanSeeWhoLikedYou bool  `json:"canSeeWhoLikedYou"`
	PriorityMatching  bool  `json:"priorityMatching"`
	ProfileBoosts     int64 `json:"profileBoosts"`
	HideAds           bool  `json:"hideAds"`
	VerifiedBadge     bool  `json:"verifiedBadge"`
	CustomTheme       bool  `json:"customTheme"`
}

type Plan struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Price            domain.Amount `json:"price"`
	Features         []string      `json:"features"`
	Limits           FeatureSet    `json:"limits"`
	MaxSwipes        int64         `json:"maxSwipes"`
	PriorityMatching bool          `json:"priorityMatching"`
}

type PlansResponse struct {
	Plans []Plan `json:"plans"`
}

type SubscriptionState struct {
	Active bool `json:"active"`
	// Plan is the purchased plan; EffectivePlan is "free" once it expired.
	Plan          string     `json:"plan"`
	EffectivePlan string     `json:"effectivePlan"`
	StartDate     int64      `json:"startDate"`
	EndDate       int64      `json:"endDate"`
	AutoRenew     bool       `json:"autoRenew"`
	Features      FeatureSet `json:"features"`
}

type SubscribeRequest struct {
	Plan   string `json:"plan" validate:"required,max=16"`
	Months int    `json:"months" validate:"required,gte=1,lte=120"`
}

type RenewRequest struct {
	Months int `json:"months" validate:"required,gte=1,lte=120"`
}

type SetAutoRenewRequest struct {
	Enabled bool `json:"enabled"`
}

type FeatureAccessRequest struct {
	Feature string `json:"feature" validate:"required,max=64"`
}

type FeatureAccessResponse struct {
	Allowed bool `json:"allowed"`
}

// Staking

type StakingConfig struct {
	MinStake  domain.Amount `json:"minStake"`
	MaxStake  domain.Amount `json:"maxStake"`
	Durations []int64       `json:"durations"`
	AprRates  []int64       `json:"aprRates"`
}

type Stake struct {
	ID            string        `json:"id"`
	Index         int           `json:"index"`
	Amount        domain.Amount `json:"amount"`
	DurationIndex int           `json:"durationIndex"`
	Duration      int64         `json:"duration"`
	AprBps        int64         `json:"aprBps"`
	StartTime     int64         `json:"startTime"`
	UnlockTime    int64         `json:"unlockTime"`
	Reward        domain.Amount `json:"reward"`
	Claimed       bool          `json:"claimed"`
	ClaimedAt     int64         `json:"claimedAt,omitempty"`
	Payout        domain.Amount `json:"payout"`
}

type StakeRequest struct {
	Amount        domain.Amount `json:"amount"`
	DurationIndex int           `json:"durationIndex" validate:"gte=0"`
}

type StakeResponse struct {
	Stake Stake `json:"stake"`
}

// UnstakeRequest addresses a stake by per-owner index or by id; id wins
// when both are set.
type UnstakeRequest struct {
	StakeIndex int    `json:"stakeIndex" validate:"gte=0"`
	StakeID    string `json:"stakeId,omitempty" validate:"omitempty,uuid"`
}

type UnstakeResponse struct {
	Payout domain.Amount `json:"payout"`
}

type StakesResponse struct {
	Stakes []Stake `json:"stakes"`
}

type BalanceResponse struct {
	Balance domain.Amount `json:"balance"`
}

type RewardStateResponse struct {
	LastRewardTime int64         `json:"lastRewardTime"`
	DailyRewards   domain.Amount `json:"dailyRewards"`
	TotalRewards   domain.Amount `json:"totalRewards"`
}

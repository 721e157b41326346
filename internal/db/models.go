package db

import (
	"gorm.io/datatypes"

	"github.com/oggyb/engagement-engine/internal/domain"
)

// All timestamps below are unix nanoseconds taken from the engine clock,
// never from the database server.

// Profile is the discovery card of a user. One row per user, upserted by its
// owner; rows are superseded, never deleted.
type Profile struct {
	UserID          string                      `gorm:"primaryKey;size:128"`
	Name            string                      `gorm:"size:128;not null"`
	Age             int                         `gorm:"not null;index:idx_profiles_gender_age,priority:2"`
	Gender          string                      `gorm:"size:32;not null;index:idx_profiles_gender_age,priority:1"`
	Bio             string                      `gorm:"size:1024"`
	Photos          datatypes.JSONSlice[string] `gorm:"type:json"`
	Interests       datatypes.JSONSlice[string] `gorm:"type:json"`
	City            string                      `gorm:"size:128"`
	Latitude        float64
	Longitude       float64
	PrefMinAge      int
	PrefMaxAge      int
	PrefGender      string `gorm:"size:32"`
	PrefMaxDistance float64
	Verified        bool  `gorm:"default:false"`
	LastActive      int64 `gorm:"not null;index"`
	UpdatedAt       int64 `gorm:"autoUpdateTime:false"`
}

// Decision is the current swipe decision of an actor on a recipient.
//
// Composite PK: (ActorID, RecipientID)
//   - Ensures a single row per pair (overwrite guarantee).
//
// Indexes:
//   - idx_recipient_liked_updated_actor(recipient_id, liked, updated_at DESC, actor_id)
//     Optimizes queries for "who liked me" lists with pagination.
//   - idx_actor_recipient_liked(actor_id, recipient_id, liked)
//     Optimizes O(1) lookup for mutual like checks.
type Decision struct {
	ActorID     string `gorm:"primaryKey;size:128;index:idx_actor_recipient_liked,priority:1"`
	RecipientID string `gorm:"primaryKey;size:128;index:idx_recipient_liked_updated_actor,priority:1;index:idx_actor_recipient_liked,priority:2"`
	Liked       bool   `gorm:"not null;index:idx_recipient_liked_updated_actor,priority:2;index:idx_actor_recipient_liked,priority:3"`
	CreatedAt   int64  `gorm:"autoCreateTime:false"`
	UpdatedAt   int64  `gorm:"autoUpdateTime:false;index:idx_recipient_liked_updated_actor,priority:3,sort:desc"`
}

// SwipeEvent is the append-only audit trail of every recorded swipe.
type SwipeEvent struct {
	ID        string `gorm:"primaryKey;size:36"`
	ActorID   string `gorm:"size:128;not null;index:idx_swipe_events_actor_created,priority:1"`
	TargetID  string `gorm:"size:128;not null"`
	Liked     bool   `gorm:"not null"`
	CreatedAt int64  `gorm:"autoCreateTime:false;index:idx_swipe_events_actor_created,priority:2"`
}

const (
	MatchStatusMatched   = "matched"
	MatchStatusUnmatched = "unmatched"
)

// Match is materialized only once both sides liked each other.
// ID is domain.MatchID(User1ID, User2ID); User1ID < User2ID.
type Match struct {
	ID          string `gorm:"primaryKey;size:64"`
	User1ID     string `gorm:"size:128;not null;index"`
	User2ID     string `gorm:"size:128;not null;index"`
	ChatID      string `gorm:"size:64;not null"`
	Status      string `gorm:"size:16;not null;index"`
	CreatedAt   int64  `gorm:"autoCreateTime:false"`
	UnmatchedAt int64
	UnmatchedBy string `gorm:"size:128"`
}

// Subscription stores the last purchased tier. Expiry is never written
// back: the effective tier is derived from EndTime at read time.
type Subscription struct {
	UserID    string `gorm:"primaryKey;size:128"`
	Tier      string `gorm:"size:16;not null"`
	StartTime int64  `gorm:"not null"`
	EndTime   int64  `gorm:"not null;index"`
	AutoRenew bool   `gorm:"not null;default:false;index"`
	UpdatedAt int64  `gorm:"autoUpdateTime:false"`
}

// Stake is one escrowed staking position. Rows are never deleted; Claimed
// flips once, on unstake.
type Stake struct {
	ID            string        `gorm:"primaryKey;size:36"`
	OwnerID       string        `gorm:"size:128;not null;uniqueIndex:idx_stakes_owner_idx,priority:1"`
	Idx           int           `gorm:"not null;uniqueIndex:idx_stakes_owner_idx,priority:2"`
	Amount        domain.Amount `gorm:"type:varchar(80);not null"`
	DurationIndex int           `gorm:"not null"`
	DurationNs    int64         `gorm:"not null"`
	AprBps        int64         `gorm:"not null"`
	StartTime     int64         `gorm:"not null"`
	Claimed       bool          `gorm:"not null;default:false"`
	ClaimedAt     int64
	Payout        domain.Amount `gorm:"type:varchar(80)"`
}

// RewardState tracks token rewards handed to a user.
type RewardState struct {
	UserID         string        `gorm:"primaryKey;size:128"`
	LastRewardTime int64         `gorm:"not null"`
	Day            string        `gorm:"size:8;not null"`
	DailyRewards   domain.Amount `gorm:"type:varchar(80);not null"`
	TotalRewards   domain.Amount `gorm:"type:varchar(80);not null"`
}

// Balance backs the development ledger adapter (balance.Store).
type Balance struct {
	UserID    string        `gorm:"primaryKey;size:128"`
	Amount    domain.Amount `gorm:"type:varchar(80);not null"`
	UpdatedAt int64         `gorm:"autoUpdateTime:false"`
}

// Models lists every table owned by this service, in migration order.
func Models() []any {
	return []any{
		&Profile{}, &Decision{}, &SwipeEvent{}, &Match{},
		&Subscription{}, &Stake{}, &RewardState{}, &Balance{},
	}
}

package db

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/engagement-engine/internal/domain"
)

// SeedUsers is how many demo users SeedTestData creates (user1..userN).
const SeedUsers = 20

// SeedBalance is the starting token balance of every demo user.
const SeedBalance = 1000

// SeedTestData resets the database and populates it with demo profiles,
// balances and one-sided likes.
//
// Behavior:
//  1. Clears every engine table.
//  2. Creates 20 profiles (10 male, 10 female) spread around Berlin, each
//     open to the other gender within 50km.
//  3. Funds every user with SeedBalance tokens.
//  4. Generates ~100 likes/passes. Only one direction is seeded per pair:
//     matches are formed by the engine, never by the seeder.
//
// Returns the seeded user ids.
func SeedTestData(db *gorm.DB, now time.Time, log *slog.Logger) ([]domain.UserID, error) {
	r := rand.New(rand.NewSource(now.UnixNano()))

	// --- Fresh start ---
	for _, m := range Models() {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
			return nil, fmt.Errorf("failed to clear %T: %w", m, err)
		}
	}
	log.Info("cleared existing data")

	ids := make([]domain.UserID, 0, SeedUsers)
	genders := make(map[domain.UserID]string, SeedUsers)
	ts := domain.Nanos(now)

	// --- Seed profiles and balances ---
	for i := 1; i <= SeedUsers; i++ {
		id := domain.UserID(fmt.Sprintf("user%d", i))
		gender, wants := "male", "female"
		if i > SeedUsers/2 {
			gender, wants = "female", "male"
		}
		p := Profile{
			UserID:          string(id),
			Name:            fmt.Sprintf("User %d", i),
			Age:             20 + r.Intn(20),
			Gender:          gender,
			Bio:             "seeded demo profile",
			Interests:       []string{"music", "hiking", "go"}[:1+r.Intn(3)],
			City:            "Berlin",
			Latitude:        52.52 + (r.Float64()-0.5)*0.2,
			Longitude:       13.40 + (r.Float64()-0.5)*0.2,
			PrefMinAge:      18,
			PrefMaxAge:      60,
			PrefGender:      wants,
			PrefMaxDistance: 50,
			LastActive:      ts - int64(r.Intn(500))*int64(time.Hour),
			UpdatedAt:       ts,
		}
		if err := db.Create(&p).Error; err != nil {
			return nil, fmt.Errorf("failed to seed profile: %w", err)
		}
		b := Balance{UserID: string(id), Amount: domain.NewAmount(SeedBalance), UpdatedAt: ts}
		if err := db.Create(&b).Error; err != nil {
			return nil, fmt.Errorf("failed to seed balance: %w", err)
		}
		ids = append(ids, id)
		genders[id] = gender
	}
	log.Info("seeded profiles", "count", len(ids))

	// --- Seed decisions ---
	seen := make(map[[2]domain.UserID]bool)
	counter := 0
	for _, actor := range ids {
		for j := 0; j < 5; j++ { // each user decides on ~5 others
			recipient := ids[r.Intn(len(ids))]
			if actor == recipient || genders[actor] == genders[recipient] {
				continue
			}
			a, b := domain.SortPair(actor, recipient)
			if seen[[2]domain.UserID{a, b}] {
				continue
			}
			seen[[2]domain.UserID{a, b}] = true

			// like probability 70%
			d := Decision{
				ActorID:     string(actor),
				RecipientID: string(recipient),
				Liked:       r.Intn(100) < 70,
				CreatedAt:   ts,
				UpdatedAt:   ts - int64(counter)*int64(time.Minute),
			}
			if err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "actor_id"}, {Name: "recipient_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"liked", "updated_at"}),
			}).Create(&d).Error; err != nil {
				return nil, fmt.Errorf("failed to seed decision: %w", err)
			}
			counter++
		}
	}
	log.Info("seeded decisions", "count", counter)

	return ids, nil
}

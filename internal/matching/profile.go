package matching

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/oggyb/engagement-engine/internal/db"
	"github.com/oggyb/engagement-engine/internal/domain"
	"github.com/oggyb/engagement-engine/internal/reward"
)

// Preferences filter who is offered to a user, and to whom the user is
// offered. Zero values mean "no restriction".
type Preferences struct {
	MinAge        int
	MaxAge        int
	Gender        string
	MaxDistanceKm float64
}

type Location struct {
	City      string
	Latitude  float64
	Longitude float64
}

// Known reports whether coordinates were provided.
func (l Location) Known() bool { return l.Latitude != 0 || l.Longitude != 0 }

type Profile struct {
	User        domain.UserID
	Name        string
	Age         int
	Gender      string
	Bio         string
	Photos      []string
	Interests   []string
	Location    Location
	Preferences Preferences
	Verified    bool
	LastActive  time.Time
}

// PutProfile supersedes the owner's profile. The first write also earns
// the profile reward.
func (e *Engine) PutProfile(ctx context.Context, p Profile) (Profile, error) {
	if !p.User.Valid() {
		return Profile{}, fmt.Errorf("%w: empty user id", domain.ErrInvalidTarget)
	}
	existed, err := e.profiles.Exists(ctx, string(p.User))
	if err != nil {
		return Profile{}, fmt.Errorf("check profile: %w", err)
	}

	now := e.clock.Now()
	p.LastActive = now
	row := toProfileRow(p)
	row.UpdatedAt = domain.Nanos(now)
	if err := e.profiles.Upsert(ctx, &row); err != nil {
		return Profile{}, fmt.Errorf("save profile: %w", err)
	}

	if !existed {
		e.reward(ctx, p.User, reward.KindProfileUpdate)
	}
	e.logger.Debug("profile saved", "user", p.User, "created", !existed)
	return p, nil
}

func (e *Engine) GetProfile(ctx context.Context, user domain.UserID) (Profile, error) {
	row, err := e.profiles.Get(ctx, string(user))
	if err != nil {
		return Profile{}, err
	}
	return fromProfileRow(row), nil
}

// accepts reports whether p's preferences admit other.
func (p Profile) accepts(other Profile) bool {
	pref := p.Preferences
	if pref.MinAge > 0 && other.Age < pref.MinAge {
		return false
	}
	if pref.MaxAge > 0 && other.Age > pref.MaxAge {
		return false
	}
	if !anyGender(pref.Gender) && !strings.EqualFold(pref.Gender, other.Gender) {
		return false
	}
	if pref.MaxDistanceKm > 0 && p.Location.Known() && other.Location.Known() &&
		distanceKm(p.Location, other.Location) > pref.MaxDistanceKm {
		return false
	}
	return true
}

// compatible is the mutual check: both sides accept each other.
func compatible(a, b Profile) bool { return a.accepts(b) && b.accepts(a) }

func anyGender(g string) bool {
	g = strings.TrimSpace(g)
	return g == "" || strings.EqualFold(g, "any")
}

// distanceKm is the great-circle distance between a and b.
func distanceKm(a, b Location) float64 {
	const earthRadius = 6371 // km

	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Latitude*math.Pi/180)*math.Cos(b.Latitude*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadius * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toProfileRow(p Profile) db.Profile {
	return db.Profile{
		UserID:          string(p.User),
		Name:            p.Name,
		Age:             p.Age,
		Gender:          strings.ToLower(strings.TrimSpace(p.Gender)),
		Bio:             p.Bio,
		Photos:          p.Photos,
		Interests:       p.Interests,
		City:            p.Location.City,
		Latitude:        p.Location.Latitude,
		Longitude:       p.Location.Longitude,
		PrefMinAge:      p.Preferences.MinAge,
		PrefMaxAge:      p.Preferences.MaxAge,
		PrefGender:      strings.ToLower(strings.TrimSpace(p.Preferences.Gender)),
		PrefMaxDistance: p.Preferences.MaxDistanceKm,
		Verified:        p.Verified,
		LastActive:      domain.Nanos(p.LastActive),
	}
}

func fromProfileRow(row db.Profile) Profile {
	return Profile{
		User:      domain.UserID(row.UserID),
		Name:      row.Name,
		Age:       row.Age,
		Gender:    row.Gender,
		Bio:       row.Bio,
		Photos:    row.Photos,
		Interests: row.Interests,
		Location: Location{
			City:      row.City,
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
		},
		Preferences: Preferences{
			MinAge:        row.PrefMinAge,
			MaxAge:        row.PrefMaxAge,
			Gender:        row.PrefGender,
			MaxDistanceKm: row.PrefMaxDistance,
		},
		Verified:   row.Verified,
		LastActive: domain.FromNanos(row.LastActive),
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/oggyb/engagement-engine/internal/auth"
	"github.com/oggyb/engagement-engine/internal/config"
	"github.com/oggyb/engagement-engine/internal/db"
	"github.com/oggyb/engagement-engine/internal/domain"
	"github.com/oggyb/engagement-engine/internal/logger"
)

// Seeds demo data and prints a bearer token per demo user, for grpcurl:
//
//	grpcurl -plaintext -H "authorization: Bearer $TOKEN" ...
func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	users, err := db.SeedTestData(database, domain.SystemClock{}.Now(), log)
	if err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	tokens := auth.NewTokens(cfg)
	for _, u := range users {
		tok, err := tokens.Issue(u)
		if err != nil {
			log.Error("failed to issue token", "user", u, "err", err)
			os.Exit(1)
		}
		fmt.Printf("%s\t%s\n", u, tok)
	}

	log.Info("seeding completed", "users", len(users))
}

// Command devtoken prints access tokens for local testing and seeds a
// statistics row for each generated user.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/johnquangdev/meeting-stats/internal/adapter/repository"
	"github.com/johnquangdev/meeting-stats/internal/domain/entities"
	"github.com/johnquangdev/meeting-stats/internal/domain/repositories"
	"github.com/johnquangdev/meeting-stats/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-stats/pkg/config"
	pkgjwt "github.com/johnquangdev/meeting-stats/pkg/jwt"
)

func main() {
	users := pflag.StringSlice("user", []string{"alice@test.local", "bob@test.local"}, "emails to issue tokens for")
	seed := pflag.Bool("seed", true, "create an empty statistics row for each user")
	expiry := pflag.Duration("expiry", 24*time.Hour, "token lifetime")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatalf("Refusing to mint development tokens in production")
	}

	jwtManager := pkgjwt.NewManager(cfg.JWT.AccessSecret, *expiry)

	var statsRepo repositories.StatisticsRepository
	if *seed {
		db, err := database.Open(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.CloseDB(db)
		if _, err := database.Migrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		statsRepo = repository.NewStatisticsRepository(db)
	}

	log.Println("🔑 Creating test tokens...")
	for _, email := range *users {
		// Stable ids so reruns reuse the same statistics rows
		userID := uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email))

		if statsRepo != nil {
			if err := statsRepo.CreateIfNotExists(context.Background(), entities.NewUserStatistics(userID, time.Now().UTC())); err != nil {
				log.Fatalf("Failed to seed statistics for %s: %v", email, err)
			}
		}

		token, err := jwtManager.GenerateAccessToken(userID, email)
		if err != nil {
			log.Fatalf("Failed to generate token for %s: %v", email, err)
		}

		fmt.Printf("%s\t%s\t%s\n", email, userID, token)
	}
}

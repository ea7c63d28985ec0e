// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev admin (username "admin") already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"community-poll-hub/backend/internal/config"
	"community-poll-hub/backend/internal/db"
	"community-poll-hub/backend/internal/security"
	userdomain "community-poll-hub/backend/internal/user/domain"
	userrepo "community-poll-hub/backend/internal/user/repository"
)

const devPassword = "password123"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; create a .env or set DATABASE_URL")
		os.Exit(1)
	}
	if cfg.Env == "production" {
		fmt.Fprintln(os.Stderr, "seed: refusing to run with APP_ENV=production")
		os.Exit(1)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)
	hasher := security.NewHasher(cfg.BcryptCost)

	existing, err := users.GetByUsername(ctx, "admin")
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if existing != nil {
		log.Println("seed: dev users already present, nothing to do")
		return
	}

	seed := []struct {
		username string
		email    string
		role     userdomain.Role
	}{
		{"admin", "admin@example.com", userdomain.RoleAdmin},
		{"organizer", "organizer@example.com", userdomain.RoleOrganizer},
		{"voter", "voter@example.com", userdomain.RoleVoter},
	}

	hash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	now := time.Now().UTC()
	for _, s := range seed {
		u := &userdomain.User{
			ID:           uuid.New().String(),
			Username:     s.username,
			Email:        s.email,
			PasswordHash: hash,
			Role:         s.role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := u.Validate(); err != nil {
			log.Fatalf("seed %s: %v", s.username, err)
		}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("seed %s: %v", s.username, err)
		}
		log.Printf("seed: created %s (%s)", s.username, s.role.String())
	}
}

// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev admin (admin@example.com) already exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Sonu113077/rider-earnings-navigator/internal/config"
	"github.com/Sonu113077/rider-earnings-navigator/internal/db"
	earningsrepo "github.com/Sonu113077/rider-earnings-navigator/internal/earnings/repository"
	earningssvc "github.com/Sonu113077/rider-earnings-navigator/internal/earnings/service"
	"github.com/Sonu113077/rider-earnings-navigator/internal/idp/local"
	notificationdomain "github.com/Sonu113077/rider-earnings-navigator/internal/notification/domain"
	notificationrepo "github.com/Sonu113077/rider-earnings-navigator/internal/notification/repository"
	profiledomain "github.com/Sonu113077/rider-earnings-navigator/internal/profile/domain"
	profilerepo "github.com/Sonu113077/rider-earnings-navigator/internal/profile/repository"
	"github.com/Sonu113077/rider-earnings-navigator/internal/security"
)

const (
	adminEmail  = "admin@example.com"
	riderEmail  = "rider@example.com"
	devPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := local.NewPostgresStore(conn)

	existing, err := users.GetUserByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (admin@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	adminID := uuid.NewString()
	riderID := uuid.NewString()

	for _, u := range []*local.User{
		{ID: adminID, Email: adminEmail, PasswordHash: passwordHash, FullName: "Dev Admin", CreatedAt: now, UpdatedAt: now},
		{ID: riderID, Email: riderEmail, PasswordHash: passwordHash, FullName: "Dev Rider", Phone: "9999999999", CreatedAt: now, UpdatedAt: now},
	} {
		if err := users.CreateUser(ctx, u); err != nil {
			log.Fatalf("create user %s: %v", u.Email, err)
		}
	}

	profiles := profilerepo.NewPostgresRepository(conn)
	for _, p := range []*profiledomain.Profile{
		{ID: adminID, Username: "admin", FullName: "Dev Admin", Email: adminEmail, Role: profiledomain.RoleAdmin, IsApproved: true, CreatedAt: now, UpdatedAt: now},
		{ID: riderID, Username: "rider", FullName: "Dev Rider", Email: riderEmail, Mobile: "9999999999", Role: profiledomain.RoleUser, IsApproved: true, CreatedAt: now, UpdatedAt: now},
	} {
		if err := profiles.Create(ctx, p); err != nil {
			log.Fatalf("create profile %s: %v", p.Email, err)
		}
	}

	earnings := earningssvc.NewService(earningsrepo.NewPostgresRepository(conn), nil, nil)
	for i := 0; i < 14; i++ {
		day := now.AddDate(0, 0, -i)
		if _, err := earnings.Record(ctx, riderID, day, 800+float64(i%5)*75, 12+i%4, 7.5); err != nil {
			log.Fatalf("seed earnings: %v", err)
		}
	}

	notices := notificationrepo.NewPostgresRepository(conn)
	if err := notices.Create(ctx, &notificationdomain.Notification{
		ID:        uuid.NewString(),
		UserID:    riderID,
		Title:     "Welcome",
		Body:      "Your rider account is ready. Earnings for the last two weeks are loaded.",
		CreatedAt: now,
	}); err != nil {
		log.Fatalf("seed notification: %v", err)
	}

	log.Printf("Seeded dev admin (%s) and rider (%s) with password %q.", adminEmail, riderEmail, devPassword)
}

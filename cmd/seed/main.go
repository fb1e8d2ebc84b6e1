// seed stitches together the standard test fixtures: one supplier and one
// restaurant principal, each backed by a company. Safe to re-run; existing
// users are left alone.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/restomarket/restomarket/models"
	"github.com/restomarket/restomarket/store"
)

var log = logrus.New()

func main() {
	_ = godotenv.Load()

	db, err := store.Open(os.Getenv("DATABASE_URL"), envOr("DATABASE_PATH", "restomarket.db"), os.Getenv("DATABASE_DRIVER"))
	if err != nil {
		log.Fatalf("error in connecting to db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.Migrate(ctx, db); err != nil {
		log.Fatalf("error in migrations: %v", err)
	}
	s := store.New(db)

	seedPrincipal(ctx, s, models.Company{
		Type:  models.CompanyTypeSupplier,
		Name:  "Fresh Foods Supply",
		INN:   "7707083893",
		Email: "supplier1@example.com",
	}, "supplier1@example.com", envOr("SEED_SUPPLIER_PASSWORD", "supplier-pass"))

	// The restaurant company is seeded without an INN on purpose: the
	// verifier's backfill path is expected to patch it in.
	seedPrincipal(ctx, s, models.Company{
		Type:  models.CompanyTypeCustomer,
		Name:  "Trattoria Uno",
		Email: "restaurant1@example.com",
	}, "restaurant1@example.com", envOr("SEED_RESTAURANT_PASSWORD", "restaurant-pass"))
}

func seedPrincipal(ctx context.Context, s *store.Store, company models.Company, email, password string) {
	if _, err := s.GetUserByEmail(ctx, email); err == nil {
		log.Printf("user %s already seeded, skipping", email)
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Fatalf("lookup %s: %v", email, err)
	}

	if err := s.CreateCompany(ctx, &company); err != nil {
		log.Fatalf("create company for %s: %v", email, err)
	}
	user := models.User{Email: email, Password: password, CompanyID: company.ID}
	if err := user.HashPassword(); err != nil {
		log.Fatalf("hash password for %s: %v", email, err)
	}
	if err := s.CreateUser(ctx, &user); err != nil {
		log.Fatalf("create user %s: %v", email, err)
	}
	log.WithFields(logrus.Fields{
		"email":      email,
		"company_id": company.ID,
		"type":       company.Type,
	}).Info("seeded principal")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

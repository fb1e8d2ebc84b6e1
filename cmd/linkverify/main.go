// linkverify force-links a supplier and a restaurant directly in storage and
// verifies the linkage is visible through the HTTP API. It exits 0 only when
// every check passes, so automation can use it as a gate.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/restomarket/restomarket/apperr"
	"github.com/restomarket/restomarket/store"
	"github.com/restomarket/restomarket/verifier"
)

var log = logrus.New()

func main() {
	_ = godotenv.Load()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := verifier.Config{
		BaseURL: os.Getenv("LINKVERIFY_API_BASE"),
		Supplier: verifier.Credentials{
			Email:    os.Getenv("LINKVERIFY_SUPPLIER_EMAIL"),
			Password: os.Getenv("LINKVERIFY_SUPPLIER_PASSWORD"),
		},
		Restaurant: verifier.Credentials{
			Email:    os.Getenv("LINKVERIFY_RESTAURANT_EMAIL"),
			Password: os.Getenv("LINKVERIFY_RESTAURANT_PASSWORD"),
		},
	}
	cfg.Defaults()

	db, err := store.Open(os.Getenv("DATABASE_URL"), envOr("DATABASE_PATH", "restomarket.db"), os.Getenv("DATABASE_DRIVER"))
	if err != nil {
		log.Errorf("error in connecting to db: %v", err)
		os.Exit(1)
	}
	storage := verifier.NewStorageGateway(db)

	v := verifier.New(cfg, verifier.NewClient(cfg.BaseURL), storage, log)
	report, err := v.Run(context.Background())
	if closeErr := storage.Close(); closeErr != nil {
		log.Warnf("closing storage: %v", closeErr)
	}
	if err != nil {
		log.WithFields(apperr.Payload(err)).Error("VERIFY FAILED")
		os.Exit(1)
	}

	log.WithFields(logrus.Fields{
		"supplier_company":   report.SupplierCompanyID,
		"restaurant_company": report.RestaurantCompanyID,
		"before_count":       report.BeforeCount,
		"after_count":        report.AfterCount,
		"already_had":        report.AlreadyLinked,
		"added":              report.Added,
	}).Info("VERIFY OK")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Package verifier implements the supplier-restaurant linkage verification
// flow: authenticate both principals through the API, capture the supplier's
// restaurant listing, force the linkage directly in storage, then confirm the
// write is readable back from storage (Verify-1) and visible through the API
// (Verify-2). The API and storage sides sit behind interfaces so the
// cross-check logic is a pure function of two independent sources of truth.
package verifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/restomarket/restomarket/apperr"
	"github.com/restomarket/restomarket/models"
)

// Credentials of one test principal.
type Credentials struct {
	Email    string
	Password string
}

// Config enumerates everything the verifier needs. All fields have defaults
// matching the standard demo fixtures.
type Config struct {
	BaseURL    string
	Supplier   Credentials
	Restaurant Credentials
}

func (c *Config) Defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8080"
	}
	if c.Supplier.Email == "" {
		c.Supplier.Email = "supplier1@example.com"
	}
	if c.Supplier.Password == "" {
		c.Supplier.Password = "supplier-pass"
	}
	if c.Restaurant.Email == "" {
		c.Restaurant.Email = "restaurant1@example.com"
	}
	if c.Restaurant.Password == "" {
		c.Restaurant.Password = "restaurant-pass"
	}
}

// Identity is what the who-am-I endpoint reports for a principal.
type Identity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CompanyID string `json:"companyId"`
}

// Restaurant is one row of the supplier-scoped listing.
type Restaurant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	INN  string `json:"inn"`
}

// ApiGateway is the HTTP side: identity and listing exactly as a real client
// would obtain them.
type ApiGateway interface {
	Login(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context, token string) (Identity, error)
	Restaurants(ctx context.Context, token string) ([]Restaurant, error)
}

// StorageGateway is the out-of-band side: direct reads and writes against the
// persistence layer, bypassing the service API.
type StorageGateway interface {
	Company(ctx context.Context, id string) (*models.Company, error)
	UpsertLinkage(ctx context.Context, supplierID, restaurantID string) (*models.Linkage, bool, error)
	BackfillCompany(ctx context.Context, id string) error
	AcceptedLinkages(ctx context.Context, supplierID string) ([]models.Linkage, error)
	Close() error
}

// Report is the success payload of one verification run.
type Report struct {
	SupplierCompanyID   string `json:"supplierCompanyId"`
	RestaurantCompanyID string `json:"restaurantCompanyId"`
	BeforeCount         int    `json:"before_count"`
	AfterCount          int    `json:"after_count"`
	AlreadyLinked       bool   `json:"alreadyHad"`
	Added               bool   `json:"added"`
}

// Verifier runs the flow. Strictly sequential, fail-fast, no retries: the
// first failing check aborts the run with a structured diagnostic.
type Verifier struct {
	cfg   Config
	api   ApiGateway
	store StorageGateway
	log   *logrus.Logger
}

func New(cfg Config, api ApiGateway, store StorageGateway, log *logrus.Logger) *Verifier {
	cfg.Defaults()
	if log == nil {
		log = logrus.New()
	}
	return &Verifier{cfg: cfg, api: api, store: store, log: log}
}

// Run executes the whole verification sequence and returns the report, or the
// first error. Errors carry an apperr class naming the failing layer.
func (v *Verifier) Run(ctx context.Context) (*Report, error) {
	// Identities come from the API only, never from storage, so that
	// storage-side ids cannot silently diverge from what a real client sees.
	supplier, supplierToken, err := v.resolve(ctx, v.cfg.Supplier)
	if err != nil {
		return nil, err
	}
	restaurant, _, err := v.resolve(ctx, v.cfg.Restaurant)
	if err != nil {
		return nil, err
	}
	v.log.WithFields(logrus.Fields{
		"supplier_company":   supplier.CompanyID,
		"restaurant_company": restaurant.CompanyID,
	}).Info("identities resolved")

	before, err := v.api.Restaurants(ctx, supplierToken)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrResolution, "baseline listing failed")
	}
	alreadyLinked, err := v.alreadyLinked(ctx, before, restaurant.CompanyID)
	if err != nil {
		return nil, err
	}

	linkage, created, err := v.store.UpsertLinkage(ctx, supplier.CompanyID, restaurant.CompanyID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrDatabase, "linkage upsert failed")
	}
	v.log.WithFields(logrus.Fields{
		"linkage_id": linkage.ID,
		"created":    created,
	}).Info("linkage forced in storage")

	if err := v.store.BackfillCompany(ctx, restaurant.CompanyID); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrDatabase, "company backfill failed")
	}

	if err := v.verifyStorage(ctx, supplier.CompanyID, restaurant.CompanyID); err != nil {
		return nil, err
	}

	after, err := v.api.Restaurants(ctx, supplierToken)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrResolution, "post-mutation listing failed")
	}
	if err := v.verifyAPI(before, after, restaurant.CompanyID, alreadyLinked); err != nil {
		return nil, err
	}

	report := &Report{
		SupplierCompanyID:   supplier.CompanyID,
		RestaurantCompanyID: restaurant.CompanyID,
		BeforeCount:         len(before),
		AfterCount:          len(after),
		AlreadyLinked:       alreadyLinked,
		Added:               !alreadyLinked,
	}
	v.log.WithFields(logrus.Fields{
		"before_count": report.BeforeCount,
		"after_count":  report.AfterCount,
		"added":        report.Added,
	}).Info("linkage verified")
	return report, nil
}

// resolve logs the principal in and establishes its company id through the
// who-am-I endpoint.
func (v *Verifier) resolve(ctx context.Context, creds Credentials) (Identity, string, error) {
	token, err := v.api.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		return Identity{}, "", apperr.Wrap(err, apperr.WithFields(apperr.ErrResolution, map[string]any{
			"email": creds.Email,
		}), fmt.Sprintf("login failed for %s", creds.Email))
	}
	identity, err := v.api.Me(ctx, token)
	if err != nil {
		return Identity{}, "", apperr.Wrap(err, apperr.WithFields(apperr.ErrResolution, map[string]any{
			"email": creds.Email,
		}), fmt.Sprintf("identity lookup failed for %s", creds.Email))
	}
	if identity.CompanyID == "" {
		return Identity{}, "", apperr.WithFields(apperr.New(
			apperr.ErrResolution.Code, apperr.ErrResolution.Status,
			fmt.Sprintf("user %s has no company id", creds.Email),
		), map[string]any{"email": creds.Email})
	}
	return identity, token, nil
}

// alreadyLinked reports whether the restaurant is present in the baseline.
// A company-id match is authoritative. A shared non-empty tax id only marks
// the pair as already linked (relaxing the count check for substituted ids);
// it never changes which id gets mutated or matched later.
func (v *Verifier) alreadyLinked(ctx context.Context, before []Restaurant, restaurantID string) (bool, error) {
	for _, r := range before {
		if r.ID == restaurantID {
			return true, nil
		}
	}
	company, err := v.store.Company(ctx, restaurantID)
	if err != nil {
		return false, apperr.Wrap(err, apperr.WithFields(apperr.ErrResolution, map[string]any{
			"company_id": restaurantID,
		}), "restaurant company lookup failed")
	}
	if company.INN == "" || company.INN == models.PlaceholderINN {
		return false, nil
	}
	for _, r := range before {
		if r.INN == company.INN {
			return true, nil // substituted id, same real-world entity
		}
	}
	return false, nil
}

// verifyStorage is Verify-1: the linkage the run just wrote must be readable
// back from the linkage collection. Failing here isolates a storage-layer
// defect from an API-layer one.
func (v *Verifier) verifyStorage(ctx context.Context, supplierID, restaurantID string) error {
	linkages, err := v.store.AcceptedLinkages(ctx, supplierID)
	if err != nil {
		return apperr.Wrap(err, apperr.ErrStorageConsistency, "linkage read-back failed")
	}
	for _, l := range linkages {
		// RestaurantID is already normalized across the column rename at the
		// storage boundary.
		if l.RestaurantID == restaurantID {
			return nil
		}
	}
	filter := map[string]any{"supplier_id": supplierID, "contract_accepted": true}
	v.log.WithFields(logrus.Fields{
		"filter":   dump(filter),
		"linkages": dump(linkages),
	}).Error("verify-1: linkage not found in storage after upsert")
	return apperr.WithFields(apperr.New(
		apperr.ErrStorageConsistency.Code, apperr.ErrStorageConsistency.Status,
		"linkage not readable back from storage",
	), map[string]any{
		"filter":        filter,
		"restaurant_id": restaurantID,
	})
}

// verifyAPI is Verify-2: three independent assertions against the fresh
// listing. Presence, count law and projection completeness.
func (v *Verifier) verifyAPI(before, after []Restaurant, restaurantID string, alreadyLinked bool) error {
	var visible *Restaurant
	for i := range after {
		if after[i].ID == restaurantID {
			visible = &after[i]
			break
		}
	}
	if visible == nil {
		v.dumpListings(before, after)
		return apperr.WithFields(apperr.New(
			apperr.ErrVisibilityMissing.Code, apperr.ErrVisibilityMissing.Status,
			"restaurant missing from listing after linkage",
		), map[string]any{"restaurant_id": restaurantID})
	}

	want := len(before)
	if !alreadyLinked {
		want++
	}
	if len(after) != want {
		v.dumpListings(before, after)
		return apperr.WithFields(apperr.New(
			apperr.ErrVisibilityCount.Code, apperr.ErrVisibilityCount.Status,
			fmt.Sprintf("listing count is %d, want %d", len(after), want),
		), map[string]any{
			"before_count": len(before),
			"after_count":  len(after),
			"already_had":  alreadyLinked,
		})
	}

	if placeholderName(visible.Name) || visible.INN == "" {
		v.dumpListings(before, after)
		return apperr.WithFields(apperr.New(
			apperr.ErrVisibilityProjection.Code, apperr.ErrVisibilityProjection.Status,
			"restaurant projection incomplete",
		), map[string]any{
			"restaurant_id": restaurantID,
			"name":          visible.Name,
			"inn":           visible.INN,
		})
	}
	return nil
}

// placeholderName reports whether a display name looks like a sentinel the
// API substitutes for missing data rather than a real company name.
func placeholderName(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "n/a", "na", "unavailable", "-", "—":
		return true
	}
	return false
}

// dumpListings prints the full before/after payloads verbatim so a failed run
// can be triaged offline.
func (v *Verifier) dumpListings(before, after []Restaurant) {
	v.log.WithFields(logrus.Fields{
		"before": dump(before),
		"after":  dump(after),
	}).Error("verify-2 diagnostic payloads")
}

func dump(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}

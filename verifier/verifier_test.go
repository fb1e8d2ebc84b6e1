package verifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/restomarket/restomarket/apperr"
	"github.com/restomarket/restomarket/models"
)

// world is an in-memory backend implementing both gateways, so the verifier
// can be driven through every scenario without a network or a database.
type world struct {
	users     map[string]worldUser
	companies map[string]*models.Company
	linkages  map[string]*models.Linkage

	dropWrites  bool // upsert acks but persists nothing
	hideFromAPI bool // listing never shows the linkage
	noBackfill  bool // backfill acks but patches nothing
	doubleRow   bool // listing shows the linked restaurant twice

	listCalls int
}

type worldUser struct {
	password  string
	companyID string
}

func newWorld() *world {
	return &world{
		users: map[string]worldUser{
			"supplier1@example.com":   {password: "supplier-pass", companyID: "sup-1"},
			"restaurant1@example.com": {password: "restaurant-pass", companyID: "rest-1"},
		},
		companies: map[string]*models.Company{
			"sup-1":  {ID: "sup-1", Type: models.CompanyTypeSupplier, Name: "Fresh Foods Supply", INN: "7707083893"},
			"rest-1": {ID: "rest-1", Type: models.CompanyTypeCustomer, Name: "Trattoria Uno", INN: "5029069967"},
		},
		linkages: map[string]*models.Linkage{},
	}
}

// --- ApiGateway ---

func (w *world) Login(_ context.Context, email, password string) (string, error) {
	u, ok := w.users[email]
	if !ok || u.password != password {
		return "", errors.New("login: status 401: wrong email or password")
	}
	return "token:" + email, nil
}

func (w *world) Me(_ context.Context, token string) (Identity, error) {
	email := strings.TrimPrefix(token, "token:")
	u, ok := w.users[email]
	if !ok {
		return Identity{}, errors.New("me: status 401")
	}
	return Identity{ID: email, Email: email, CompanyID: u.companyID}, nil
}

func (w *world) Restaurants(_ context.Context, token string) ([]Restaurant, error) {
	w.listCalls++
	email := strings.TrimPrefix(token, "token:")
	supplierID := w.users[email].companyID
	out := []Restaurant{}
	if w.hideFromAPI {
		return out, nil
	}
	for _, l := range w.linkages {
		if l.SupplierID != supplierID || !l.Visible() {
			continue
		}
		view := Restaurant{ID: l.RestaurantID, Name: "N/A"}
		if c, ok := w.companies[l.RestaurantID]; ok {
			if c.Name != "" {
				view.Name = c.Name
			}
			view.INN = c.INN
		}
		out = append(out, view)
		if w.doubleRow {
			out = append(out, view)
		}
	}
	return out, nil
}

// --- StorageGateway ---

func (w *world) Company(_ context.Context, id string) (*models.Company, error) {
	c, ok := w.companies[id]
	if !ok {
		return nil, errors.New("company not found")
	}
	return c, nil
}

func (w *world) UpsertLinkage(_ context.Context, supplierID, restaurantID string) (*models.Linkage, bool, error) {
	linkage := &models.Linkage{
		ID: "link-1", SupplierID: supplierID, RestaurantID: restaurantID,
		ContractAccepted: true, OrdersEnabled: true, Status: models.LinkStatusAccepted,
	}
	if w.dropWrites {
		return linkage, true, nil
	}
	key := supplierID + "|" + restaurantID
	existing, ok := w.linkages[key]
	if ok {
		existing.ContractAccepted = true
		existing.IsPaused = false
		existing.OrdersEnabled = true
		return existing, false, nil
	}
	w.linkages[key] = linkage
	return linkage, true, nil
}

func (w *world) BackfillCompany(_ context.Context, id string) error {
	if w.noBackfill {
		return nil
	}
	c, ok := w.companies[id]
	if !ok {
		return errors.New("company not found")
	}
	if c.Name == "" {
		c.Name = "Restaurant " + id
	}
	if c.INN == "" {
		c.INN = models.PlaceholderINN
	}
	if c.Type == "" {
		c.Type = models.CompanyTypeCustomer
	}
	return nil
}

func (w *world) AcceptedLinkages(_ context.Context, supplierID string) ([]models.Linkage, error) {
	out := []models.Linkage{}
	for _, l := range w.linkages {
		if l.SupplierID == supplierID && l.ContractAccepted {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (w *world) Close() error { return nil }

func testVerifier(w *world) *Verifier {
	return New(Config{}, w, w, quietLogger())
}

func TestRunLinksFreshPair(t *testing.T) {
	w := newWorld()
	report, err := testVerifier(w).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.AlreadyLinked {
		t.Error("fresh pair reported as already linked")
	}
	if !report.Added {
		t.Error("fresh pair should report added=true")
	}
	if report.BeforeCount != 0 || report.AfterCount != 1 {
		t.Errorf("counts = %d/%d, want 0/1", report.BeforeCount, report.AfterCount)
	}
	if report.SupplierCompanyID != "sup-1" || report.RestaurantCompanyID != "rest-1" {
		t.Errorf("unexpected company ids: %+v", report)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	w := newWorld()
	v := testVerifier(w)
	first, err := v.Run(context.Background())
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := v.Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if !second.AlreadyLinked || second.Added {
		t.Errorf("second run: alreadyHad=%v added=%v, want true/false", second.AlreadyLinked, second.Added)
	}
	if second.AfterCount != first.AfterCount {
		t.Errorf("after counts differ between runs: %d vs %d", first.AfterCount, second.AfterCount)
	}
	if second.BeforeCount != second.AfterCount {
		t.Errorf("idempotent run changed the listing: %d -> %d", second.BeforeCount, second.AfterCount)
	}
}

func TestRunBackfillsMissingINN(t *testing.T) {
	w := newWorld()
	w.companies["rest-1"].INN = ""
	report, err := testVerifier(w).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !report.Added {
		t.Error("expected added=true")
	}
	if got := w.companies["rest-1"].INN; got != models.PlaceholderINN {
		t.Errorf("inn = %q, want placeholder %q", got, models.PlaceholderINN)
	}
}

func TestRunFailsAtStorageCheckWhenWriteDropped(t *testing.T) {
	w := newWorld()
	w.dropWrites = true
	_, err := testVerifier(w).Run(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}
	if code := apperr.Code(err); code != "storage_consistency_error" {
		t.Errorf("code = %q, want storage_consistency_error", code)
	}
	// Verify-2 must never run when Verify-1 fails: only the baseline listing
	// call is allowed.
	if w.listCalls != 1 {
		t.Errorf("listing called %d times, want 1", w.listCalls)
	}
}

func TestRunFailsWhenAPIDoesNotReflectLink(t *testing.T) {
	w := newWorld()
	w.hideFromAPI = true
	_, err := testVerifier(w).Run(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}
	if code := apperr.Code(err); code != "api_visibility_missing_record" {
		t.Errorf("code = %q, want api_visibility_missing_record", code)
	}
}

func TestRunFailsOnWrongCount(t *testing.T) {
	w := newWorld()
	w.doubleRow = true
	_, err := testVerifier(w).Run(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}
	if code := apperr.Code(err); code != "api_visibility_wrong_count" {
		t.Errorf("code = %q, want api_visibility_wrong_count", code)
	}
}

func TestRunFailsOnPlaceholderProjection(t *testing.T) {
	w := newWorld()
	w.companies["rest-1"].Name = ""
	w.companies["rest-1"].INN = ""
	w.noBackfill = true
	_, err := testVerifier(w).Run(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}
	if code := apperr.Code(err); code != "api_visibility_incomplete_projection" {
		t.Errorf("code = %q, want api_visibility_incomplete_projection", code)
	}
}

func TestRunFailsOnBadCredentials(t *testing.T) {
	w := newWorld()
	v := New(Config{Supplier: Credentials{Email: "supplier1@example.com", Password: "wrong"}}, w, w, quietLogger())
	_, err := v.Run(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}
	if code := apperr.Code(err); code != "resolution_error" {
		t.Errorf("code = %q, want resolution_error", code)
	}
}

func TestRunFailsWhenPrincipalHasNoCompany(t *testing.T) {
	w := newWorld()
	w.users["restaurant1@example.com"] = worldUser{password: "restaurant-pass", companyID: ""}
	_, err := testVerifier(w).Run(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}
	if code := apperr.Code(err); code != "resolution_error" {
		t.Errorf("code = %q, want resolution_error", code)
	}
	if !strings.Contains(err.Error(), "restaurant1@example.com") {
		t.Errorf("error should name the offending email, got: %v", err)
	}
}

func TestAlreadyLinkedMatchesSharedINN(t *testing.T) {
	w := newWorld()
	v := testVerifier(w)
	ctx := context.Background()

	// direct id match
	got, err := v.alreadyLinked(ctx, []Restaurant{{ID: "rest-1"}}, "rest-1")
	if err != nil || !got {
		t.Errorf("id match: got %v, %v, want true", got, err)
	}

	// different id, same tax id: treated as the same entity
	before := []Restaurant{{ID: "rest-old", Name: "Trattoria Uno", INN: "5029069967"}}
	got, err = v.alreadyLinked(ctx, before, "rest-1")
	if err != nil || !got {
		t.Errorf("shared inn: got %v, %v, want true", got, err)
	}

	// the placeholder tax id never counts as a match
	w.companies["rest-1"].INN = models.PlaceholderINN
	before[0].INN = models.PlaceholderINN
	got, err = v.alreadyLinked(ctx, before, "rest-1")
	if err != nil || got {
		t.Errorf("placeholder inn: got %v, %v, want false", got, err)
	}

	// no match at all
	got, err = v.alreadyLinked(ctx, nil, "rest-1")
	if err != nil || got {
		t.Errorf("empty baseline: got %v, %v, want false", got, err)
	}
}

func TestPlaceholderName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"", true},
		{"N/A", true},
		{"unavailable", true},
		{" - ", true},
		{"Trattoria Uno", false},
		{"Navy Canteen", false},
	}
	for _, tt := range tests {
		if got := placeholderName(tt.name); got != tt.want {
			t.Errorf("placeholderName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

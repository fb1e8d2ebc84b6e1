package supplier

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/restomarket/restomarket/gateway"
	"github.com/restomarket/restomarket/models"
	"github.com/restomarket/restomarket/store"
)

func testService(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.Open("", filepath.Join(t.TempDir(), "test.db"), "sqlite3")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := store.New(db)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	auth := &gateway.JWTAuth{Key: []byte("test-key")}
	svc := &Service{Store: s, Logger: logger, Auth: auth}

	r := gin.New()
	r.POST("/api/auth/login", svc.Login)
	authed := r.Group("/api", auth.AuthMiddleware())
	authed.GET("/auth/me", svc.Me)
	authed.GET("/supplier/restaurants", svc.MyRestaurants)
	authed.POST("/supplier/links/:restaurantId/accept", svc.AcceptLink)
	authed.POST("/supplier/links/:restaurantId/pause", svc.PauseLink)
	return r, s
}

func seedPrincipal(t *testing.T, s *store.Store, email, password string, company models.Company) string {
	t.Helper()
	ctx := context.Background()
	if err := s.CreateCompany(ctx, &company); err != nil {
		t.Fatalf("create company: %v", err)
	}
	user := models.User{Email: email, Password: password, CompanyID: company.ID}
	if err := user.HashPassword(); err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := s.CreateUser(ctx, &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return company.ID
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, w.Body.Bytes()
}

func login(t *testing.T, r *gin.Engine, email, password string) string {
	t.Helper()
	w, body := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", w.Code, body)
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return out.AccessToken
}

func TestLoginAndMe(t *testing.T) {
	r, s := testService(t)
	companyID := seedPrincipal(t, s, "supplier1@example.com", "supplier-pass", models.Company{
		Type: models.CompanyTypeSupplier, Name: "Fresh Foods Supply", INN: "7707083893",
	})

	token := login(t, r, "supplier1@example.com", "supplier-pass")

	w, body := doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d: %s", w.Code, body)
	}
	var me struct {
		Email     string `json:"email"`
		CompanyID string `json:"companyId"`
	}
	if err := json.Unmarshal(body, &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.CompanyID != companyID || me.Email != "supplier1@example.com" {
		t.Errorf("unexpected identity: %+v", me)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	r, s := testService(t)
	seedPrincipal(t, s, "supplier1@example.com", "supplier-pass", models.Company{Type: models.CompanyTypeSupplier})

	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "supplier1@example.com", "password": "wrong-pass",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestMeRequiresToken(t *testing.T) {
	r, _ := testService(t)
	w, _ := doJSON(t, r, http.MethodGet, "/api/auth/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRestaurantListingFollowsLinkState(t *testing.T) {
	r, s := testService(t)
	seedPrincipal(t, s, "supplier1@example.com", "supplier-pass", models.Company{
		Type: models.CompanyTypeSupplier, Name: "Fresh Foods Supply", INN: "7707083893",
	})
	restaurantID := seedPrincipal(t, s, "restaurant1@example.com", "restaurant-pass", models.Company{
		Type: models.CompanyTypeCustomer, Name: "Trattoria Uno", INN: "5029069967",
	})
	token := login(t, r, "supplier1@example.com", "supplier-pass")

	// empty before any linkage, and always a JSON array
	w, body := doJSON(t, r, http.MethodGet, "/api/supplier/restaurants", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("listing status = %d", w.Code)
	}
	var listing []models.RestaurantView
	if err := json.Unmarshal(body, &listing); err != nil {
		t.Fatalf("listing is not an array: %s", body)
	}
	if len(listing) != 0 {
		t.Fatalf("listing before linking = %+v, want empty", listing)
	}

	// accept the link, restaurant becomes visible
	w, body = doJSON(t, r, http.MethodPost, "/api/supplier/links/"+restaurantID+"/accept", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("accept status = %d: %s", w.Code, body)
	}
	_, body = doJSON(t, r, http.MethodGet, "/api/supplier/restaurants", token, nil)
	if err := json.Unmarshal(body, &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing) != 1 || listing[0].ID != restaurantID || listing[0].Name != "Trattoria Uno" {
		t.Fatalf("listing after accept = %+v", listing)
	}

	// pausing hides it again
	w, _ = doJSON(t, r, http.MethodPost, "/api/supplier/links/"+restaurantID+"/pause", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pause status = %d", w.Code)
	}
	_, body = doJSON(t, r, http.MethodGet, "/api/supplier/restaurants", token, nil)
	if err := json.Unmarshal(body, &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing) != 0 {
		t.Fatalf("paused restaurant still visible: %+v", listing)
	}
}

func TestListingSubstitutesSentinelForMissingName(t *testing.T) {
	r, s := testService(t)
	seedPrincipal(t, s, "supplier1@example.com", "supplier-pass", models.Company{
		Type: models.CompanyTypeSupplier, Name: "Fresh Foods Supply",
	})
	restaurantID := seedPrincipal(t, s, "restaurant1@example.com", "restaurant-pass", models.Company{
		Type: models.CompanyTypeCustomer, // no name, no inn
	})
	token := login(t, r, "supplier1@example.com", "supplier-pass")

	if _, body := doJSON(t, r, http.MethodPost, "/api/supplier/links/"+restaurantID+"/accept", token, nil); len(body) == 0 {
		t.Fatal("accept returned no body")
	}
	_, body := doJSON(t, r, http.MethodGet, "/api/supplier/restaurants", token, nil)
	var listing []models.RestaurantView
	if err := json.Unmarshal(body, &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing) != 1 || listing[0].Name != NameUnavailable {
		t.Fatalf("listing = %+v, want sentinel name %q", listing, NameUnavailable)
	}
}

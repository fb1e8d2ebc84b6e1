package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Company types. Every supplier and every restaurant is backed by exactly one
// company row.
const (
	CompanyTypeSupplier = "supplier"
	CompanyTypeCustomer = "customer"
)

// LinkStatusAccepted is the status a linkage carries once the supplier has
// approved the restaurant.
const LinkStatusAccepted = "ACCEPTED"

// PlaceholderINN is injected by the company backfill when a restaurant record
// has no tax id. It satisfies the INN checksum so validation stays quiet.
const PlaceholderINN = "0000000000"

// User is a login principal. Authentication yields a bearer token scoped to
// the user's company.
type User struct {
	ID        string     `db:"id" json:"id"`
	Email     string     `db:"email" json:"email" binding:"required,email"`
	Password  string     `db:"password" json:"password,omitempty" binding:"required,min=8"`
	CompanyID string     `db:"company_id" json:"companyId"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

func (u *User) SanitizeEmail() {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), 8)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// Company backs both suppliers and restaurants ("customers").
type Company struct {
	ID        string    `db:"id" json:"id"`
	Type      string    `db:"type" json:"type" binding:"omitempty,oneof=supplier customer"`
	Name      string    `db:"name" json:"name"`
	INN       string    `db:"inn" json:"inn" binding:"omitempty,inn"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Linkage is the approval relationship letting a restaurant order from a
// supplier. One row per (supplier, restaurant) pair, kept unique by
// filter-based upserts rather than a schema constraint.
type Linkage struct {
	ID               string    `db:"id" json:"id"`
	SupplierID       string    `db:"supplier_id" json:"supplierId"`
	RestaurantID     string    `db:"restaurant_id" json:"restaurantId"`
	ContractAccepted bool      `db:"contract_accepted" json:"contractAccepted"`
	IsPaused         bool      `db:"is_paused" json:"isPaused"`
	OrdersEnabled    bool      `db:"orders_enabled" json:"ordersEnabled"`
	Status           string    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// Visible reports whether the linkage lets the supplier see the restaurant.
func (l Linkage) Visible() bool {
	return l.ContractAccepted && !l.IsPaused
}

// RestaurantView is the supplier-facing projection of a linked restaurant.
type RestaurantView struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	INN  string `db:"inn" json:"inn"`
}

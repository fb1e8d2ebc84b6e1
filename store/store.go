package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/restomarket/restomarket/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// Store provides manual-SQL data access for users, companies and linkages.
type Store struct {
	DB *DB
}

func New(db *DB) *Store {
	return &Store{DB: db}
}

func (s *Store) ensureDB() (*sqlx.DB, error) {
	if s == nil || s.DB == nil || s.DB.DB == nil {
		return nil, fmt.Errorf("nil db")
	}
	return s.DB.DB, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	db, err := s.ensureDB()
	if err != nil {
		return err
	}
	user.SanitizeEmail()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stmt := s.DB.Rebind(`INSERT INTO users(id, email, password, company_id, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?)`)
	if _, err := db.ExecContext(ctx, stmt, user.ID, user.Email, user.Password, user.CompanyID, now, now); err != nil {
		return err
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	stmt := s.DB.Rebind("SELECT * FROM users WHERE email = ? AND deleted_at IS NULL")
	var user models.User
	if err := db.GetContext(ctx, &user, stmt, strings.ToLower(strings.TrimSpace(email))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	stmt := s.DB.Rebind("SELECT * FROM users WHERE id = ? AND deleted_at IS NULL")
	var user models.User
	if err := db.GetContext(ctx, &user, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateCompany(ctx context.Context, company *models.Company) error {
	db, err := s.ensureDB()
	if err != nil {
		return err
	}
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stmt := s.DB.Rebind(`INSERT INTO companies(id, type, name, inn, email, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)`)
	if _, err := db.ExecContext(ctx, stmt, company.ID, company.Type, company.Name, company.INN, company.Email, now, now); err != nil {
		return err
	}
	company.CreatedAt = now
	company.UpdatedAt = now
	return nil
}

func (s *Store) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	stmt := s.DB.Rebind("SELECT * FROM companies WHERE id = ?")
	var company models.Company
	if err := db.GetContext(ctx, &company, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &company, nil
}

// BackfillCompany patches ONLY the missing display attributes of a company so
// a visibility join cannot fail on absent data. Attributes that are already
// set are never overwritten.
func (s *Store) BackfillCompany(ctx context.Context, id string) error {
	db, err := s.ensureDB()
	if err != nil {
		return err
	}
	company, err := s.GetCompany(ctx, id)
	if err != nil {
		return err
	}

	sets := []string{}
	args := []any{}
	if company.Name == "" {
		sets = append(sets, "name = ?")
		args = append(args, "Restaurant "+shortID(id))
	}
	if company.INN == "" {
		sets = append(sets, "inn = ?")
		args = append(args, models.PlaceholderINN)
	}
	if company.Type == "" {
		sets = append(sets, "type = ?")
		args = append(args, models.CompanyTypeCustomer)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	stmt := s.DB.Rebind("UPDATE companies SET " + strings.Join(sets, ", ") + " WHERE id = ?")
	_, err = db.ExecContext(ctx, stmt, args...)
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

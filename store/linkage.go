package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/restomarket/restomarket/models"
)

// linkageRow carries the raw supplier_restaurant_settings row. The restaurant
// reference went through a column rename; old writers populated
// legacy_restaurant_id only, so reads must coalesce the two.
type linkageRow struct {
	models.Linkage
	LegacyRestaurantID string `db:"legacy_restaurant_id"`
}

func (r linkageRow) normalize() models.Linkage {
	l := r.Linkage
	if l.RestaurantID == "" {
		l.RestaurantID = r.LegacyRestaurantID
	}
	return l
}

// pairFilter matches a linkage row for the pair under either column name.
const pairFilter = "supplier_id = ? AND (restaurant_id = ? OR (restaurant_id = '' AND legacy_restaurant_id = ?))"

// UpsertLinkage drives the pair to the fully-accepted state. The update runs
// on every call; id and created_at are stamped only when no row matched the
// pair filter and a fresh insert was needed. The bool result reports whether
// a row was created.
func (s *Store) UpsertLinkage(ctx context.Context, supplierID, restaurantID string) (*models.Linkage, bool, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, false, err
	}
	now := time.Now().UTC()

	stmt := s.DB.Rebind(`UPDATE supplier_restaurant_settings
		SET contract_accepted = ?, is_paused = ?, orders_enabled = ?, status = ?, updated_at = ?
		WHERE ` + pairFilter)
	res, err := db.ExecContext(ctx, stmt,
		true, false, true, models.LinkStatusAccepted, now,
		supplierID, restaurantID, restaurantID,
	)
	if err != nil {
		return nil, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	created := false
	if affected == 0 {
		insert := s.DB.Rebind(`INSERT INTO supplier_restaurant_settings(
			id, supplier_id, restaurant_id, legacy_restaurant_id,
			contract_accepted, is_paused, orders_enabled, status, created_at, updated_at
		) VALUES(?, ?, ?, '', ?, ?, ?, ?, ?, ?)`)
		if _, err := db.ExecContext(ctx, insert,
			uuid.NewString(), supplierID, restaurantID,
			true, false, true, models.LinkStatusAccepted, now, now,
		); err != nil {
			return nil, false, err
		}
		created = true
	}

	linkage, err := s.getLinkage(ctx, supplierID, restaurantID)
	if err != nil {
		return nil, false, err
	}
	return linkage, created, nil
}

func (s *Store) getLinkage(ctx context.Context, supplierID, restaurantID string) (*models.Linkage, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	stmt := s.DB.Rebind("SELECT * FROM supplier_restaurant_settings WHERE " + pairFilter)
	var row linkageRow
	if err := db.GetContext(ctx, &row, stmt, supplierID, restaurantID, restaurantID); err != nil {
		return nil, err
	}
	linkage := row.normalize()
	return &linkage, nil
}

// PauseLinkage flips is_paused on an existing linkage. It never inserts; an
// unknown pair reports ErrNotFound.
func (s *Store) PauseLinkage(ctx context.Context, supplierID, restaurantID string, paused bool) error {
	db, err := s.ensureDB()
	if err != nil {
		return err
	}
	stmt := s.DB.Rebind(`UPDATE supplier_restaurant_settings
		SET is_paused = ?, updated_at = ? WHERE ` + pairFilter)
	res, err := db.ExecContext(ctx, stmt, paused, time.Now().UTC(), supplierID, restaurantID, restaurantID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AcceptedLinkages lists the supplier's contract-accepted linkages with the
// restaurant reference normalized across the column rename.
func (s *Store) AcceptedLinkages(ctx context.Context, supplierID string) ([]models.Linkage, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	stmt := s.DB.Rebind("SELECT * FROM supplier_restaurant_settings WHERE supplier_id = ? AND contract_accepted")
	var rows []linkageRow
	if err := db.SelectContext(ctx, &rows, stmt, supplierID); err != nil {
		return nil, err
	}
	linkages := make([]models.Linkage, 0, len(rows))
	for _, row := range rows {
		linkages = append(linkages, row.normalize())
	}
	return linkages, nil
}

// VisibleRestaurants is the supplier-facing read path: confirmed, non-paused
// linkages joined to company display data.
func (s *Store) VisibleRestaurants(ctx context.Context, supplierID string) ([]models.RestaurantView, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	stmt := s.DB.Rebind(`SELECT c.id AS id, c.name AS name, c.inn AS inn
		FROM supplier_restaurant_settings s
		JOIN companies c ON c.id = COALESCE(NULLIF(s.restaurant_id, ''), s.legacy_restaurant_id)
		WHERE s.supplier_id = ? AND s.contract_accepted AND NOT s.is_paused
		ORDER BY c.name, c.id`)
	var views []models.RestaurantView
	if err := db.SelectContext(ctx, &views, stmt, supplierID); err != nil {
		return nil, err
	}
	return views, nil
}

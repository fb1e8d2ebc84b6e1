package verifier

import (
	"context"

	"github.com/restomarket/restomarket/models"
	"github.com/restomarket/restomarket/store"
)

// storeGateway adapts store.Store to StorageGateway and owns the underlying
// connection: Close releases it.
type storeGateway struct {
	store *store.Store
	db    *store.DB
}

// NewStorageGateway wraps an open database handle for use by the verifier.
func NewStorageGateway(db *store.DB) StorageGateway {
	return &storeGateway{store: store.New(db), db: db}
}

func (g *storeGateway) Company(ctx context.Context, id string) (*models.Company, error) {
	return g.store.GetCompany(ctx, id)
}

func (g *storeGateway) UpsertLinkage(ctx context.Context, supplierID, restaurantID string) (*models.Linkage, bool, error) {
	return g.store.UpsertLinkage(ctx, supplierID, restaurantID)
}

func (g *storeGateway) BackfillCompany(ctx context.Context, id string) error {
	return g.store.BackfillCompany(ctx, id)
}

func (g *storeGateway) AcceptedLinkages(ctx context.Context, supplierID string) ([]models.Linkage, error) {
	return g.store.AcceptedLinkages(ctx, supplierID)
}

func (g *storeGateway) Close() error {
	return g.db.Close()
}

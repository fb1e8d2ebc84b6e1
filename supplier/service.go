// Package supplier hosts the HTTP handlers the marketplace frontend talks to:
// login, identity and the supplier-scoped restaurant listing.
package supplier

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/restomarket/restomarket/gateway"
	"github.com/restomarket/restomarket/models"
	"github.com/restomarket/restomarket/store"
)

// NameUnavailable is what the listing projection shows for a company with no
// stored display name.
const NameUnavailable = "N/A"

// Service wires the handlers to their collaborators. Redis is optional; when
// nil the login rate limit is disabled.
type Service struct {
	Store  *store.Store
	Config models.Config
	Logger *logrus.Logger
	Auth   *gateway.JWTAuth
	Redis  *redis.Client
}

// Package store persists client books in SQLite or Postgres.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/advisor-cli/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// ClientFilter specifies criteria for listing clients.
type ClientFilter struct {
	Stage model.LifecycleStage `json:"stage,omitempty"`
	Limit int                  `json:"limit,omitempty"`
}

// Store defines the persistence interface for advisor client data. It is
// the data layer the scoring engine reads from; the engine itself never
// writes.
type Store interface {
	// Clients
	UpsertClient(ctx context.Context, c model.ClientProfile) error
	GetClient(ctx context.Context, id string) (*model.ClientProfile, error)
	ListClients(ctx context.Context, filter ClientFilter) ([]model.ClientProfile, error)

	// Catalog
	UpsertInvestment(ctx context.Context, p model.InvestmentProduct) error
	ListInvestments(ctx context.Context) ([]model.InvestmentProduct, error)

	// Holdings, joined to the catalog so ProductType is populated.
	UpsertHolding(ctx context.Context, h model.PortfolioHolding) error
	ListHoldings(ctx context.Context, clientID string) ([]model.PortfolioHolding, error)

	// Activities
	RecordActivity(ctx context.Context, a model.Activity) error
	LastContacts(ctx context.Context) (map[string]time.Time, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// BulkWriter is implemented by stores that can load many records in one
// round trip. Callers type-assert for it and fall back to per-row upserts.
type BulkWriter interface {
	BulkUpsertClients(ctx context.Context, clients []model.ClientProfile) (int64, error)
	BulkUpsertActivities(ctx context.Context, activities []model.Activity) (int64, error)
}

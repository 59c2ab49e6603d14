package scorer

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/advisor-cli/internal/model"
	"github.com/sells-group/advisor-cli/internal/store"
)

// ServiceConfig tunes the store-backed scoring service.
type ServiceConfig struct {
	Concurrency        int
	NeverContactedDays int
	DefaultLimit       int
}

// NoLimit as TaskFilter.Limit returns every client, ignoring DefaultLimit.
const NoLimit = -1

// TaskFilter narrows a task list. A zero Limit means the configured default.
type TaskFilter struct {
	Priority model.Priority `json:"priority,omitempty"`
	Limit    int            `json:"limit,omitempty"`
}

// Service loads clients, holdings, and the catalog from a Store and runs the
// pure scoring functions over them.
type Service struct {
	store store.Store
	cfg   ServiceConfig
	now   func() time.Time
}

// NewService creates a Service backed by the given store.
func NewService(st store.Store, cfg ServiceConfig) *Service {
	return &Service{store: st, cfg: cfg, now: time.Now}
}

// RecommendForClient ranks the stored catalog for one stored client.
func (s *Service) RecommendForClient(ctx context.Context, clientID string) ([]model.Recommendation, error) {
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: load client %s", clientID)
	}
	holdings, err := s.store.ListHoldings(ctx, clientID)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: load holdings for %s", clientID)
	}
	catalog, err := s.store.ListInvestments(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: load catalog")
	}

	req := RecommendRequest{Client: *client, Holdings: holdings}
	if err := ValidateRecommendRequest(req); err != nil {
		return nil, err
	}
	if err := ValidateCatalog(catalog); err != nil {
		return nil, err
	}

	recs := Recommend(*client, holdings, catalog)

	zap.L().Info("scorer: recommended products",
		zap.String("client_id", clientID),
		zap.Int("catalog_size", len(catalog)),
		zap.Int("recommendations", len(recs)),
	)
	return recs, nil
}

// PrioritizeClient scores contact urgency for one stored client.
func (s *Service) PrioritizeClient(ctx context.Context, clientID string) (*model.TaskPriorityResult, error) {
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: load client %s", clientID)
	}
	if err := client.Validate(); err != nil {
		return nil, err
	}
	last, err := s.store.LastContacts(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: load last contacts")
	}

	result := Prioritize(*client, s.daysSince(last, clientID))

	zap.L().Info("scorer: prioritized client",
		zap.String("client_id", clientID),
		zap.Int("priority_score", result.PriorityScore),
		zap.String("priority", string(result.Priority)),
	)
	return &result, nil
}

// TaskList prioritizes every stored client and returns them ordered by
// urgency, optionally restricted to one tier and capped by a limit.
func (s *Service) TaskList(ctx context.Context, filter TaskFilter) ([]model.TaskPriorityResult, error) {
	clients, err := s.store.ListClients(ctx, store.ClientFilter{})
	if err != nil {
		return nil, eris.Wrap(err, "scorer: load clients")
	}
	last, err := s.store.LastContacts(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: load last contacts")
	}

	reqs := make([]TaskRequest, 0, len(clients))
	for _, c := range clients {
		reqs = append(reqs, TaskRequest{Client: c, DaysSinceContact: s.daysSince(last, c.ID)})
	}

	tasks, err := PrioritizeBatch(ctx, reqs, s.cfg.Concurrency)
	if err != nil {
		return nil, err
	}

	if filter.Priority != "" {
		filtered := tasks[:0]
		for _, t := range tasks {
			if t.Priority == filter.Priority {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}

	limit := s.cfg.DefaultLimit
	switch {
	case filter.Limit == NoLimit:
		limit = 0
	case filter.Limit > 0:
		limit = filter.Limit
	}
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}

	zap.L().Info("scorer: task list complete",
		zap.Int("clients_scored", len(clients)),
		zap.Int("tasks_returned", len(tasks)),
	)
	return tasks, nil
}

func (s *Service) daysSince(last map[string]time.Time, clientID string) int {
	var at *time.Time
	if t, ok := last[clientID]; ok {
		at = &t
	}
	return DaysSinceContact(at, s.now(), s.cfg.NeverContactedDays)
}

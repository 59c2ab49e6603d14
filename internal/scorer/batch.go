package scorer

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/advisor-cli/internal/model"
)

// DefaultConcurrency is used when a batch is given a non-positive limit.
const DefaultConcurrency = 4

// RecommendRequest pairs a client with their current holdings.
type RecommendRequest struct {
	Client   model.ClientProfile      `json:"client"`
	Holdings []model.PortfolioHolding `json:"holdings"`
}

// RecommendResult is the ranked output for one client in a batch.
type RecommendResult struct {
	ClientID        string                 `json:"client_id"`
	Recommendations []model.Recommendation `json:"recommendations"`
}

// TaskRequest pairs a client with their contact staleness.
type TaskRequest struct {
	Client           model.ClientProfile `json:"client"`
	DaysSinceContact int                 `json:"days_since_contact"`
}

// ValidateCatalog checks every product in a catalog.
func ValidateCatalog(catalog []model.InvestmentProduct) error {
	for _, p := range catalog {
		if err := p.Validate(); err != nil {
			return eris.Wrap(err, "scorer: catalog")
		}
	}
	return nil
}

// ValidateRecommendRequest checks a client and their holdings.
func ValidateRecommendRequest(req RecommendRequest) error {
	if err := req.Client.Validate(); err != nil {
		return err
	}
	for _, h := range req.Holdings {
		if err := h.Validate(); err != nil {
			return eris.Wrapf(err, "scorer: holdings for client %s", req.Client.ID)
		}
	}
	return nil
}

// RecommendBatch scores the catalog for many clients in parallel. All inputs
// are validated before any scoring starts. Results keep request order.
func RecommendBatch(ctx context.Context, requests []RecommendRequest, catalog []model.InvestmentProduct, concurrency int) ([]RecommendResult, error) {
	if err := ValidateCatalog(catalog); err != nil {
		return nil, err
	}
	for _, req := range requests {
		if err := ValidateRecommendRequest(req); err != nil {
			return nil, eris.Wrap(err, "scorer: recommend batch")
		}
	}

	results := make([]RecommendResult, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limitOrDefault(concurrency))

	for i, req := range requests {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = RecommendResult{
				ClientID:        req.Client.ID,
				Recommendations: Recommend(req.Client, req.Holdings, catalog),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "scorer: recommend batch")
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "scorer: recommend batch")
	}
	return results, nil
}

// PrioritizeBatch scores many clients in parallel and returns them ordered
// by priority score, highest first. Equal scores keep request order.
func PrioritizeBatch(ctx context.Context, requests []TaskRequest, concurrency int) ([]model.TaskPriorityResult, error) {
	for _, req := range requests {
		if err := req.Client.Validate(); err != nil {
			return nil, eris.Wrap(err, "scorer: prioritize batch")
		}
	}

	results := make([]model.TaskPriorityResult, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limitOrDefault(concurrency))

	for i, req := range requests {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = Prioritize(req.Client, req.DaysSinceContact)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "scorer: prioritize batch")
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "scorer: prioritize batch")
	}

	SortTasks(results)
	return results, nil
}

// SortTasks orders task results by descending priority score, stably.
func SortTasks(tasks []model.TaskPriorityResult) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].PriorityScore > tasks[j].PriorityScore
	})
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return DefaultConcurrency
	}
	return n
}

package scorer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/advisor-cli/internal/model"
)

func TestRecommendBatch_KeepsRequestOrder(t *testing.T) {
	var reqs []RecommendRequest
	for i := 0; i < 20; i++ {
		c := youngGrowthClient()
		c.ID = fmt.Sprintf("c%02d", i)
		c.Age = 25 + i*3
		reqs = append(reqs, RecommendRequest{Client: c})
	}

	results, err := RecommendBatch(context.Background(), reqs, fullCatalog(), 3)
	require.NoError(t, err)
	require.Len(t, results, len(reqs))

	for i, r := range results {
		assert.Equal(t, reqs[i].Client.ID, r.ClientID)
		assert.Equal(t, Recommend(reqs[i].Client, nil, fullCatalog()), r.Recommendations)
	}
}

func TestRecommendBatch_ValidatesBeforeScoring(t *testing.T) {
	bad := youngGrowthClient()
	bad.ConversionProbability = 140

	_, err := RecommendBatch(context.Background(), []RecommendRequest{
		{Client: youngGrowthClient()},
		{Client: bad},
	}, fullCatalog(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conversion_probability")
}

func TestRecommendBatch_InvalidCatalog(t *testing.T) {
	catalog := fullCatalog()
	catalog[2].MinInvestment = 0

	_, err := RecommendBatch(context.Background(), []RecommendRequest{{Client: youngGrowthClient()}}, catalog, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scorer: catalog")
}

func TestRecommendBatch_InvalidHolding(t *testing.T) {
	req := RecommendRequest{
		Client:   youngGrowthClient(),
		Holdings: []model.PortfolioHolding{{ClientID: "c1"}},
	}
	_, err := RecommendBatch(context.Background(), []RecommendRequest{req}, fullCatalog(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "holdings for client c1")
}

func TestRecommendBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RecommendBatch(ctx, []RecommendRequest{{Client: youngGrowthClient()}}, fullCatalog(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecommendBatch_Empty(t *testing.T) {
	results, err := RecommendBatch(context.Background(), nil, fullCatalog(), 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPrioritizeBatch_SortsByScore(t *testing.T) {
	reqs := []TaskRequest{
		{Client: model.ClientProfile{ID: "routine", Age: 30}, DaysSinceContact: 1},
		{Client: model.ClientProfile{ID: "hot", Age: 30, ConversionProbability: 75, PortfolioValue: 600000, LifecycleStage: model.StageOpportunity}, DaysSinceContact: 20},
		{Client: model.ClientProfile{ID: "warm-a", Age: 30}, DaysSinceContact: 10},
		{Client: model.ClientProfile{ID: "warm-b", Age: 30}, DaysSinceContact: 9},
	}

	results, err := PrioritizeBatch(context.Background(), reqs, 2)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "hot", results[0].ClientID)
	assert.Equal(t, "warm-a", results[1].ClientID)
	assert.Equal(t, "warm-b", results[2].ClientID)
	assert.Equal(t, "routine", results[3].ClientID)
}

func TestPrioritizeBatch_InvalidClient(t *testing.T) {
	_, err := PrioritizeBatch(context.Background(), []TaskRequest{
		{Client: model.ClientProfile{ID: "c1", Age: 0}},
	}, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scorer: prioritize batch")
}

func TestSortTasks_Stable(t *testing.T) {
	tasks := []model.TaskPriorityResult{
		{ClientID: "a", PriorityScore: 10},
		{ClientID: "b", PriorityScore: 30},
		{ClientID: "c", PriorityScore: 10},
	}
	SortTasks(tasks)
	assert.Equal(t, "b", tasks[0].ClientID)
	assert.Equal(t, "a", tasks[1].ClientID)
	assert.Equal(t, "c", tasks[2].ClientID)
}

func TestLimitOrDefault(t *testing.T) {
	assert.Equal(t, DefaultConcurrency, limitOrDefault(0))
	assert.Equal(t, DefaultConcurrency, limitOrDefault(-3))
	assert.Equal(t, 7, limitOrDefault(7))
}

package scorer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/advisor-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func youngGrowthClient() model.ClientProfile {
	return model.ClientProfile{
		ID:                    "c1",
		Name:                  "Avery",
		Age:                   28,
		AnnualIncome:          150000,
		RiskTolerance:         model.RiskHigh,
		Interests:             []string{"growth"},
		LifecycleStage:        model.StageLead,
		ConversionProbability: 80,
	}
}

func stockAndBond() []model.InvestmentProduct {
	return []model.InvestmentProduct{
		{ID: "bond-1", Name: "Treasury Bond", Type: model.ProductBond, RiskLevel: model.RiskLow, MinInvestment: 1000, ExpectedReturn: 4},
		{ID: "stock-1", Name: "Tech Stock", Type: model.ProductStock, RiskLevel: model.RiskHigh, MinInvestment: 5000, ExpectedReturn: 12},
	}
}

func fullCatalog() []model.InvestmentProduct {
	return []model.InvestmentProduct{
		{ID: "p1", Name: "Tech Stock", Type: model.ProductStock, RiskLevel: model.RiskHigh, MinInvestment: 5000, ExpectedReturn: 12},
		{ID: "p2", Name: "Index Fund", Type: model.ProductMutualFund, RiskLevel: model.RiskMedium, MinInvestment: 3000, ExpectedReturn: 8},
		{ID: "p3", Name: "Treasury Bond", Type: model.ProductBond, RiskLevel: model.RiskLow, MinInvestment: 1000, ExpectedReturn: 4},
		{ID: "p4", Name: "Income Notes", Type: model.ProductFixedIncome, RiskLevel: model.RiskLow, MinInvestment: 2000, ExpectedReturn: 5},
		{ID: "p5", Name: "Balanced Fund", Type: model.ProductBalanced, RiskLevel: model.RiskMedium, MinInvestment: 2500, ExpectedReturn: 6.5},
		{ID: "p6", Name: "Dividend Kings", Type: model.ProductDividend, RiskLevel: model.RiskMedium, MinInvestment: 4000, ExpectedReturn: 7},
		{ID: "p7", Name: "Crypto Basket", Type: model.ProductCrypto, RiskLevel: model.RiskHigh, MinInvestment: 500, ExpectedReturn: 20},
	}
}

// --- Tables ---

func TestRiskMatch(t *testing.T) {
	tests := []struct {
		risk  model.RiskLevel
		ptype string
		want  float64
	}{
		{model.RiskHigh, model.ProductStock, 100},
		{model.RiskHigh, model.ProductBond, 10},
		{model.RiskMedium, model.ProductBalanced, 100},
		{model.RiskMedium, model.ProductCrypto, 30},
		{model.RiskLow, model.ProductBond, 100},
		{model.RiskLow, model.ProductCrypto, 0},
		{model.RiskLow, "real_estate", 50},
		{"", model.ProductStock, 50},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.risk, tt.ptype), func(t *testing.T) {
			assert.InDelta(t, tt.want, RiskMatch(tt.risk, tt.ptype), 0.001)
		})
	}
}

func TestInterestProducts(t *testing.T) {
	assert.Equal(t, []string{model.ProductStock, model.ProductMutualFund, model.ProductCrypto}, InterestProducts("growth"))
	assert.Equal(t, InterestProducts("income"), InterestProducts(" Income "))
	assert.Nil(t, InterestProducts("gardening"))

	// Returned slices are copies.
	got := InterestProducts("crypto")
	got[0] = "mutated"
	assert.Equal(t, []string{model.ProductCrypto}, InterestProducts("crypto"))
}

func TestAgeBandScore(t *testing.T) {
	tests := []struct {
		age  int
		risk model.RiskLevel
		want float64
	}{
		{28, model.RiskHigh, 90},
		{34, model.RiskMedium, 70},
		{34, model.RiskLow, 50},
		{35, model.RiskMedium, 90},
		{49, model.RiskHigh, 60},
		{49, model.RiskLow, 70},
		{50, model.RiskMedium, 80},
		{64, model.RiskLow, 90},
		{64, model.RiskHigh, 40},
		{65, model.RiskLow, 100},
		{80, model.RiskMedium, 50},
		{80, model.RiskHigh, 20},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%s", tt.age, tt.risk), func(t *testing.T) {
			assert.InDelta(t, tt.want, ageBandScore(tt.age, tt.risk), 0.001)
		})
	}
}

// --- Factors ---

func TestScoreInterestMatch(t *testing.T) {
	tests := []struct {
		name      string
		interests []string
		ptype     string
		want      float64
		matched   []string
	}{
		{"no interests", nil, model.ProductStock, 50, nil},
		{"unknown tag", []string{"art"}, model.ProductStock, 50, nil},
		{"primary type", []string{"growth"}, model.ProductStock, 90, []string{"growth"}},
		{"secondary type", []string{"growth"}, model.ProductMutualFund, 80, []string{"growth"}},
		{"best tag wins", []string{"esg", "growth"}, model.ProductMutualFund, 90, []string{"esg", "growth"}},
		{"no match", []string{"income"}, model.ProductCrypto, 50, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, matched := scoreInterestMatch(tt.interests, tt.ptype)
			assert.InDelta(t, tt.want, got, 0.001)
			assert.Equal(t, tt.matched, matched)
		})
	}
}

func TestScoreIncomeSuitability(t *testing.T) {
	tests := []struct {
		name   string
		income float64
		min    float64
		want   float64
	}{
		{"ratio above 10", 150000, 1000, 100},
		{"ratio exactly 10", 120000, 1000, 80},
		{"ratio above 5", 72000, 1000, 80},
		{"ratio above 2", 150000, 5000, 60},
		{"ratio above 1", 13000, 1000, 40},
		{"ratio exactly 1", 12000, 1000, 20},
		{"zero income", 0, 1000, 20},
		{"zero minimum", 50000, 0, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoreIncomeSuitability(tt.income, tt.min), 0.001)
		})
	}
}

func TestScorePastSuccess(t *testing.T) {
	stock := func(perf float64) model.PortfolioHolding {
		return model.PortfolioHolding{ClientID: "c1", InvestmentID: "x", ProductType: model.ProductStock, PerformancePct: perf}
	}
	bond := model.PortfolioHolding{ClientID: "c1", InvestmentID: "b", ProductType: model.ProductBond, PerformancePct: 50}

	tests := []struct {
		name     string
		holdings []model.PortfolioHolding
		want     float64
	}{
		{"no holdings", nil, 50},
		{"no same type", []model.PortfolioHolding{bond}, 40},
		{"avg above 15", []model.PortfolioHolding{stock(20), stock(12)}, 100},
		{"avg above 10", []model.PortfolioHolding{stock(11)}, 85},
		{"avg above 5", []model.PortfolioHolding{stock(6), bond}, 70},
		{"avg above 0", []model.PortfolioHolding{stock(1)}, 55},
		{"avg exactly 0", []model.PortfolioHolding{stock(5), stock(-5)}, 30},
		{"losses", []model.PortfolioHolding{stock(-10)}, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scorePastSuccess(tt.holdings, model.ProductStock), 0.001)
		})
	}
}

// --- Recommend ---

func TestRecommend_NewClientScenario(t *testing.T) {
	recs := Recommend(youngGrowthClient(), nil, stockAndBond())
	require.Len(t, recs, 2)

	first := recs[0]
	assert.Equal(t, "stock-1", first.InvestmentID)
	assert.InDelta(t, 84, first.Score, 0.001)
	assert.Equal(t, 66, first.Confidence)
	assert.Equal(t,
		"Matches your high risk tolerance; Aligns with your interest in growth; Age-appropriate investment strategy; Expected return: 12.0% annually",
		first.Reason)
	assert.Equal(t, model.ScoringFactors{
		RiskMatch: 100, InterestMatch: 90, AgeSuitability: 90, IncomeSuitability: 60, PastSuccess: 50,
	}, first.Factors)

	second := recs[1]
	assert.Equal(t, "bond-1", second.InvestmentID)
	assert.InDelta(t, 43, second.Score, 0.001)
	assert.Equal(t, 34, second.Confidence)
	assert.Equal(t, "Diversification opportunity for your portfolio; Expected return: 4.0% annually", second.Reason)
}

func TestRecommend_EmptyCatalog(t *testing.T) {
	recs := Recommend(youngGrowthClient(), nil, nil)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestRecommend_CapsAndOrders(t *testing.T) {
	recs := Recommend(youngGrowthClient(), nil, fullCatalog())
	require.Len(t, recs, MaxRecommendations)

	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Score, recs[i].Score)
	}

	sum := recs[0].Confidence + recs[1].Confidence + recs[2].Confidence
	assert.Contains(t, []int{99, 100, 101}, sum)

	// Ranks four and five report their raw rounded score.
	for _, r := range recs[3:] {
		assert.InDelta(t, r.Score, float64(r.Confidence), 0.5)
	}
	for _, r := range recs {
		assert.GreaterOrEqual(t, r.Confidence, 0)
		assert.LessOrEqual(t, r.Confidence, 100)
		assert.Contains(t, r.Reason, "Expected return:")
	}
}

func TestRecommend_Deterministic(t *testing.T) {
	client := youngGrowthClient()
	holdings := []model.PortfolioHolding{
		{ClientID: "c1", InvestmentID: "p1", ProductType: model.ProductStock, PerformancePct: 18},
	}
	a := Recommend(client, holdings, fullCatalog())
	b := Recommend(client, holdings, fullCatalog())
	assert.Equal(t, a, b)
}

func TestRecommend_TiesKeepCatalogOrder(t *testing.T) {
	catalog := []model.InvestmentProduct{
		{ID: "a", Type: model.ProductStock, RiskLevel: model.RiskHigh, MinInvestment: 100},
		{ID: "b", Type: model.ProductStock, RiskLevel: model.RiskHigh, MinInvestment: 100},
		{ID: "c", Type: model.ProductStock, RiskLevel: model.RiskHigh, MinInvestment: 100},
	}
	recs := Recommend(youngGrowthClient(), nil, catalog)
	require.Len(t, recs, 3)
	assert.Equal(t, "a", recs[0].InvestmentID)
	assert.Equal(t, "b", recs[1].InvestmentID)
	assert.Equal(t, "c", recs[2].InvestmentID)
	assert.Equal(t, 33, recs[0].Confidence)
}

func TestRecommend_DoesNotMutateInputs(t *testing.T) {
	client := youngGrowthClient()
	catalog := fullCatalog()
	before := fullCatalog()

	Recommend(client, nil, catalog)
	assert.Equal(t, before, catalog)
	assert.Equal(t, youngGrowthClient(), client)
}

func TestRecommend_PastSuccessRaisesScore(t *testing.T) {
	client := youngGrowthClient()
	catalog := []model.InvestmentProduct{stockAndBond()[1]}

	base := Recommend(client, nil, catalog)[0]
	winner := Recommend(client, []model.PortfolioHolding{
		{ClientID: "c1", InvestmentID: "old", ProductType: model.ProductStock, PerformancePct: 25},
	}, catalog)[0]

	assert.Greater(t, winner.Score, base.Score)
	assert.Contains(t, winner.Reason, "Similar to your successful past investments")
}

func TestScoreProduct(t *testing.T) {
	factors, score := ScoreProduct(youngGrowthClient(), nil, stockAndBond()[1])
	assert.InDelta(t, 100, factors.RiskMatch, 0.001)
	assert.InDelta(t, 84, score, 0.001)
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 50, confidence(0, 50, 100))
	assert.Equal(t, 0, confidence(1, 0, 0))
	assert.Equal(t, 42, confidence(3, 42.4, 150))
	assert.Equal(t, 43, confidence(4, 42.5, 150))
}

func TestBuildRationale_MultipleInterests(t *testing.T) {
	client := youngGrowthClient()
	client.Interests = []string{"technology", "income", "growth"}

	c := candidate{
		product:  model.InvestmentProduct{Type: model.ProductStock, ExpectedReturn: 9.3},
		factors:  model.ScoringFactors{RiskMatch: 80, InterestMatch: 90, AgeSuitability: 80, PastSuccess: 71},
		interest: []string{"technology", "growth"},
	}
	assert.Equal(t,
		"Aligns with your interest in technology, growth; Similar to your successful past investments; Expected return: 9.3% annually",
		buildRationale(client, c))
}

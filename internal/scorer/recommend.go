// Package scorer ranks investment products for a client and orders clients
// by how urgently an advisor should follow up. Scoring is pure and
// deterministic; Service adds store access and batching around it.
package scorer

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/advisor-cli/internal/model"
)

// MaxRecommendations caps the number of products returned per client.
const MaxRecommendations = 5

// normalizedRanks is how many leading recommendations share a confidence
// pool summing to ~100. Lower ranks report their raw score.
const normalizedRanks = 3

// candidate is a scored product before ranking.
type candidate struct {
	product  model.InvestmentProduct
	factors  model.ScoringFactors
	score    float64
	interest []string
}

// Recommend ranks catalog products for a client and returns up to
// MaxRecommendations, best first. It never mutates its inputs and returns an
// empty slice for an empty catalog. Callers validate records beforehand.
func Recommend(client model.ClientProfile, holdings []model.PortfolioHolding, catalog []model.InvestmentProduct) []model.Recommendation {
	candidates := make([]candidate, 0, len(catalog))
	for _, p := range catalog {
		factors, matched := scoreFactors(client, holdings, p)
		candidates = append(candidates, candidate{
			product:  p,
			factors:  factors,
			score:    combine(factors),
			interest: matched,
		})
	}

	// Stable so equal scores keep catalog order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > MaxRecommendations {
		candidates = candidates[:MaxRecommendations]
	}

	var topSum float64
	for i := 0; i < len(candidates) && i < normalizedRanks; i++ {
		topSum += candidates[i].score
	}

	recs := make([]model.Recommendation, 0, len(candidates))
	for i, c := range candidates {
		recs = append(recs, model.Recommendation{
			InvestmentID:   c.product.ID,
			InvestmentName: c.product.Name,
			InvestmentType: c.product.Type,
			Confidence:     confidence(i, c.score, topSum),
			Reason:         buildRationale(client, c),
			ExpectedReturn: c.product.ExpectedReturn,
			RiskLevel:      c.product.RiskLevel,
			Score:          c.score,
			Factors:        c.factors,
		})
	}
	return recs
}

// ScoreProduct returns the factor breakdown and combined score for a single
// product, for auditing a ranking.
func ScoreProduct(client model.ClientProfile, holdings []model.PortfolioHolding, product model.InvestmentProduct) (model.ScoringFactors, float64) {
	factors, _ := scoreFactors(client, holdings, product)
	return factors, combine(factors)
}

func scoreFactors(client model.ClientProfile, holdings []model.PortfolioHolding, p model.InvestmentProduct) (model.ScoringFactors, []string) {
	interest, matched := scoreInterestMatch(client.Interests, p.Type)
	return model.ScoringFactors{
		RiskMatch:         RiskMatch(client.RiskTolerance, p.Type),
		InterestMatch:     interest,
		AgeSuitability:    ageBandScore(client.Age, p.RiskLevel),
		IncomeSuitability: scoreIncomeSuitability(client.AnnualIncome, p.MinInvestment),
		PastSuccess:       scorePastSuccess(holdings, p.Type),
	}, matched
}

func combine(f model.ScoringFactors) float64 {
	return f.RiskMatch*riskWeight +
		f.InterestMatch*interestWeight +
		f.AgeSuitability*ageWeight +
		f.IncomeSuitability*incomeWeight +
		f.PastSuccess*pastWeight
}

// confidence normalizes the top ranks against each other; later ranks keep
// their raw rounded score.
func confidence(rank int, score, topSum float64) int {
	if rank >= normalizedRanks {
		return int(math.Round(score))
	}
	if topSum <= 0 {
		return 0
	}
	return int(math.Round(score / topSum * 100))
}

// scoreInterestMatch returns 50 with no matching interest, at least 80 when a
// client interest implies the product type, and 90 when it is that
// interest's primary type. It also returns the matching tags in the order
// the client declared them.
func scoreInterestMatch(interests []string, productType string) (float64, []string) {
	score := neutralScore
	var matched []string
	for _, tag := range interests {
		types := InterestProducts(tag)
		for i, t := range types {
			if t != productType {
				continue
			}
			tagScore := 80.0
			if i == 0 {
				tagScore = 90
			}
			score = math.Max(score, tagScore)
			matched = append(matched, tag)
			break
		}
	}
	return score, matched
}

// scoreIncomeSuitability compares annual income with twelve times the
// product minimum.
func scoreIncomeSuitability(income, minInvestment float64) float64 {
	if minInvestment <= 0 {
		return neutralScore
	}
	ratio := income / (minInvestment * 12)
	switch {
	case ratio > 10:
		return 100
	case ratio > 5:
		return 80
	case ratio > 2:
		return 60
	case ratio > 1:
		return 40
	default:
		return 20
	}
}

// scorePastSuccess rates the client's realized performance with products of
// the same type. Clients without any holdings get a neutral 50; clients with
// holdings but none of this type get 40.
func scorePastSuccess(holdings []model.PortfolioHolding, productType string) float64 {
	if len(holdings) == 0 {
		return neutralScore
	}

	var perf []float64
	for _, h := range holdings {
		if h.ProductType == productType {
			perf = append(perf, h.PerformancePct)
		}
	}
	if len(perf) == 0 {
		return 40
	}

	avg := stat.Mean(perf, nil)
	switch {
	case avg > 15:
		return 100
	case avg > 10:
		return 85
	case avg > 5:
		return 70
	case avg > 0:
		return 55
	default:
		return 30
	}
}

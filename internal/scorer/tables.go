package scorer

import (
	"strings"

	"github.com/sells-group/advisor-cli/internal/model"
)

// neutralScore is used whenever a table has no opinion.
const neutralScore = 50.0

// Factor weights. They sum to 1.0 so the combined score stays on the
// 0-100 scale of its inputs.
const (
	riskWeight     = 0.30
	interestWeight = 0.25
	ageWeight      = 0.20
	incomeWeight   = 0.10
	pastWeight     = 0.15
)

// riskMatchTable scores how well a product type suits a risk tolerance.
var riskMatchTable = map[model.RiskLevel]map[string]float64{
	model.RiskHigh: {
		model.ProductStock:       100,
		model.ProductMutualFund:  70,
		model.ProductBond:        10,
		model.ProductFixedIncome: 20,
		model.ProductBalanced:    50,
		model.ProductDividend:    60,
		model.ProductCrypto:      90,
	},
	model.RiskMedium: {
		model.ProductStock:       60,
		model.ProductMutualFund:  90,
		model.ProductBond:        50,
		model.ProductFixedIncome: 60,
		model.ProductBalanced:    100,
		model.ProductDividend:    80,
		model.ProductCrypto:      30,
	},
	model.RiskLow: {
		model.ProductStock:       10,
		model.ProductMutualFund:  50,
		model.ProductBond:        100,
		model.ProductFixedIncome: 90,
		model.ProductBalanced:    60,
		model.ProductDividend:    70,
		model.ProductCrypto:      0,
	},
}

// interestProductMap lists the product types an interest implies. The first
// entry is the primary association.
var interestProductMap = map[string][]string{
	"growth":          {model.ProductStock, model.ProductMutualFund, model.ProductCrypto},
	"income":          {model.ProductDividend, model.ProductBond, model.ProductFixedIncome},
	"retirement":      {model.ProductBalanced, model.ProductMutualFund, model.ProductBond},
	"stability":       {model.ProductBond, model.ProductFixedIncome, model.ProductBalanced},
	"preservation":    {model.ProductFixedIncome, model.ProductBond},
	"technology":      {model.ProductStock, model.ProductCrypto},
	"crypto":          {model.ProductCrypto},
	"esg":             {model.ProductMutualFund, model.ProductStock},
	"diversification": {model.ProductMutualFund, model.ProductBalanced},
	"dividends":       {model.ProductDividend, model.ProductStock},
}

// RiskMatch returns the risk-compatibility score for a tolerance and product
// type, or 50 when the table has no entry.
func RiskMatch(tolerance model.RiskLevel, productType string) float64 {
	row, ok := riskMatchTable[tolerance]
	if !ok {
		return neutralScore
	}
	score, ok := row[productType]
	if !ok {
		return neutralScore
	}
	return score
}

// InterestProducts returns a copy of the product types mapped to an
// interest tag. Tags are matched case-insensitively.
func InterestProducts(tag string) []string {
	types, ok := interestProductMap[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return nil
	}
	out := make([]string, len(types))
	copy(out, types)
	return out
}

// ageBandScore applies the four age bands to a product's risk level.
func ageBandScore(age int, risk model.RiskLevel) float64 {
	switch {
	case age < 35:
		switch risk {
		case model.RiskHigh:
			return 90
		case model.RiskMedium:
			return 70
		default:
			return 50
		}
	case age < 50:
		switch risk {
		case model.RiskMedium:
			return 90
		case model.RiskHigh:
			return 60
		default:
			return 70
		}
	case age < 65:
		switch risk {
		case model.RiskMedium:
			return 80
		case model.RiskLow:
			return 90
		default:
			return 40
		}
	default:
		switch risk {
		case model.RiskLow:
			return 100
		case model.RiskMedium:
			return 50
		default:
			return 20
		}
	}
}

package model

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Common product types. The type is open-ended; anything else is scored
// with neutral defaults.
const (
	ProductStock       = "stock"
	ProductMutualFund  = "mutual_fund"
	ProductBond        = "bond"
	ProductFixedIncome = "fixed_income"
	ProductBalanced    = "balanced"
	ProductDividend    = "dividend"
	ProductCrypto      = "crypto"
)

// InvestmentProduct is a candidate product in the advisor's catalog.
type InvestmentProduct struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	Type           string    `json:"type" yaml:"type"`
	RiskLevel      RiskLevel `json:"risk_level" yaml:"risk_level"`
	MinInvestment  float64   `json:"min_investment" yaml:"min_investment"`
	ExpectedReturn float64   `json:"expected_return" yaml:"expected_return"`
}

// Validate rejects products the income factor cannot score.
func (p InvestmentProduct) Validate() error {
	var errs []string
	if strings.TrimSpace(p.ID) == "" {
		errs = append(errs, "id is required")
	}
	if !finite(p.MinInvestment) || p.MinInvestment <= 0 {
		errs = append(errs, fmt.Sprintf("min_investment must be > 0 (got %.2f)", p.MinInvestment))
	}
	if !finite(p.ExpectedReturn) {
		errs = append(errs, fmt.Sprintf("expected_return must be finite (got %.2f)", p.ExpectedReturn))
	}
	if len(errs) > 0 {
		return eris.Errorf("model: invalid investment %q: %s", p.ID, strings.Join(errs, "; "))
	}
	return nil
}

// PortfolioHolding is a client's existing position. ProductType mirrors the
// underlying product so past performance can be grouped without a catalog.
type PortfolioHolding struct {
	ID             string  `json:"id" yaml:"id"`
	ClientID       string  `json:"client_id" yaml:"client_id"`
	InvestmentID   string  `json:"investment_id" yaml:"investment_id"`
	ProductType    string  `json:"product_type" yaml:"product_type"`
	AmountInvested float64 `json:"amount_invested" yaml:"amount_invested"`
	CurrentValue   float64 `json:"current_value" yaml:"current_value"`
	PerformancePct float64 `json:"performance_pct" yaml:"performance_pct"`
}

// Validate checks the holding references a client and a product.
func (h PortfolioHolding) Validate() error {
	var errs []string
	if strings.TrimSpace(h.ClientID) == "" {
		errs = append(errs, "client_id is required")
	}
	if strings.TrimSpace(h.InvestmentID) == "" {
		errs = append(errs, "investment_id is required")
	}
	if !finite(h.AmountInvested) || h.AmountInvested < 0 {
		errs = append(errs, fmt.Sprintf("amount_invested must be >= 0 (got %.2f)", h.AmountInvested))
	}
	if !finite(h.CurrentValue) || !finite(h.PerformancePct) {
		errs = append(errs, "current_value and performance_pct must be finite")
	}
	if len(errs) > 0 {
		return eris.Errorf("model: invalid holding %q: %s", h.ID, strings.Join(errs, "; "))
	}
	return nil
}

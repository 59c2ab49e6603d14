// Package model defines the client, product, and result types shared by the
// scoring engine, the stores, and the API.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// RiskLevel classifies a client's risk appetite or a product's volatility.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// LifecycleStage is a client's position in the sales funnel.
type LifecycleStage string

const (
	StageLead        LifecycleStage = "lead"
	StageQualified   LifecycleStage = "qualified"
	StageOpportunity LifecycleStage = "opportunity"
	StageCustomer    LifecycleStage = "customer"
)

// ContactChannel is the client's preferred way of being contacted.
type ContactChannel string

const (
	ContactEmail   ContactChannel = "email"
	ContactPhone   ContactChannel = "phone"
	ContactMeeting ContactChannel = "meeting"
)

// ClientProfile is a single advisor client as seen by the scoring engine.
type ClientProfile struct {
	ID                    string         `json:"id" yaml:"id"`
	Name                  string         `json:"name,omitempty" yaml:"name"`
	Age                   int            `json:"age" yaml:"age"`
	AnnualIncome          float64        `json:"annual_income" yaml:"annual_income"`
	RiskTolerance         RiskLevel      `json:"risk_tolerance" yaml:"risk_tolerance"`
	Interests             []string       `json:"interests" yaml:"interests"`
	LifecycleStage        LifecycleStage `json:"lifecycle_stage" yaml:"lifecycle_stage"`
	ConversionProbability float64        `json:"conversion_probability" yaml:"conversion_probability"`
	PortfolioValue        float64        `json:"portfolio_value" yaml:"portfolio_value"`
	PreferredContact      ContactChannel `json:"preferred_contact" yaml:"preferred_contact"`
}

// Validate rejects structurally invalid profiles. Empty or unknown enum
// values are allowed; the scorers fall back to neutral defaults for them.
func (c ClientProfile) Validate() error {
	var errs []string
	if strings.TrimSpace(c.ID) == "" {
		errs = append(errs, "id is required")
	}
	if c.Age <= 0 {
		errs = append(errs, fmt.Sprintf("age must be > 0 (got %d)", c.Age))
	}
	if !finite(c.AnnualIncome) || c.AnnualIncome < 0 {
		errs = append(errs, fmt.Sprintf("annual_income must be >= 0 (got %.2f)", c.AnnualIncome))
	}
	if !(c.ConversionProbability >= 0 && c.ConversionProbability <= 100) {
		errs = append(errs, fmt.Sprintf("conversion_probability must be between 0 and 100 (got %.2f)", c.ConversionProbability))
	}
	if !finite(c.PortfolioValue) || c.PortfolioValue < 0 {
		errs = append(errs, fmt.Sprintf("portfolio_value must be >= 0 (got %.2f)", c.PortfolioValue))
	}

	if len(errs) > 0 {
		return eris.Errorf("model: invalid client %q: %s", c.ID, strings.Join(errs, "; "))
	}
	return nil
}

// finite reports whether v is neither NaN nor an infinity.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ActivityType describes a logged advisor touchpoint.
type ActivityType string

const (
	ActivityCall    ActivityType = "call"
	ActivityEmail   ActivityType = "email"
	ActivityMeeting ActivityType = "meeting"
	ActivityNote    ActivityType = "note"
)

// Activity is a contact event with a client. The data layer derives
// days-since-contact from the most recent one.
type Activity struct {
	ID         string       `json:"id" yaml:"id"`
	ClientID   string       `json:"client_id" yaml:"client_id"`
	Type       ActivityType `json:"type" yaml:"type"`
	Notes      string       `json:"notes,omitempty" yaml:"notes"`
	OccurredAt time.Time    `json:"occurred_at" yaml:"occurred_at"`
}

// Validate checks that an activity can be attributed to a client.
func (a Activity) Validate() error {
	var errs []string
	if strings.TrimSpace(a.ClientID) == "" {
		errs = append(errs, "client_id is required")
	}
	if a.OccurredAt.IsZero() {
		errs = append(errs, "occurred_at is required")
	}
	if len(errs) > 0 {
		return eris.Errorf("model: invalid activity %q: %s", a.ID, strings.Join(errs, "; "))
	}
	return nil
}

// ParseRiskLevel normalizes a free-text risk level. Unrecognized input
// yields the empty level, which scores neutrally.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(normalize(s)) {
	case RiskLow:
		return RiskLow
	case RiskMedium:
		return RiskMedium
	case RiskHigh:
		return RiskHigh
	default:
		return ""
	}
}

// ParseLifecycleStage normalizes a free-text lifecycle stage.
func ParseLifecycleStage(s string) LifecycleStage {
	switch LifecycleStage(normalize(s)) {
	case StageLead:
		return StageLead
	case StageQualified:
		return StageQualified
	case StageOpportunity:
		return StageOpportunity
	case StageCustomer:
		return StageCustomer
	default:
		return ""
	}
}

// ParseContactChannel normalizes a free-text contact preference.
func ParseContactChannel(s string) ContactChannel {
	switch ContactChannel(normalize(s)) {
	case ContactEmail:
		return ContactEmail
	case ContactPhone:
		return ContactPhone
	case ContactMeeting:
		return ContactMeeting
	default:
		return ""
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

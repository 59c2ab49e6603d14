package model

// ScoringFactors holds the five sub-scores behind a recommendation, each 0-100.
type ScoringFactors struct {
	RiskMatch         float64 `json:"risk_match"`
	InterestMatch     float64 `json:"interest_match"`
	AgeSuitability    float64 `json:"age_suitability"`
	IncomeSuitability float64 `json:"income_suitability"`
	PastSuccess       float64 `json:"past_success"`
}

// Recommendation is one ranked product for a client. Confidence is relative
// conviction among the top picks, not a probability.
type Recommendation struct {
	InvestmentID   string         `json:"investment_id"`
	InvestmentName string         `json:"investment_name"`
	InvestmentType string         `json:"investment_type"`
	Confidence     int            `json:"confidence"`
	Reason         string         `json:"reason"`
	ExpectedReturn float64        `json:"expected_return"`
	RiskLevel      RiskLevel      `json:"risk_level"`
	Score          float64        `json:"score"`
	Factors        ScoringFactors `json:"factors"`
}

// Priority is the contact urgency tier for a client.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ContactAction is the recommended way to reach out.
type ContactAction string

const (
	ActionCall  ContactAction = "call"
	ActionEmail ContactAction = "email"
)

// TaskPriorityResult is the follow-up recommendation for one client.
type TaskPriorityResult struct {
	ClientID          string        `json:"client_id"`
	ClientName        string        `json:"client_name,omitempty"`
	Priority          Priority      `json:"priority"`
	PriorityScore     int           `json:"priority_score"`
	Reason            string        `json:"reason"`
	RecommendedAction ContactAction `json:"recommended_action"`
}

// ParsePriority normalizes a tier name; ok is false for unknown input.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(normalize(s)) {
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityLow:
		return PriorityLow, true
	default:
		return "", false
	}
}

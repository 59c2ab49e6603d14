package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validClient() ClientProfile {
	return ClientProfile{
		ID:                    "c-1",
		Name:                  "Dana Reyes",
		Age:                   42,
		AnnualIncome:          120_000,
		RiskTolerance:         RiskMedium,
		Interests:             []string{"retirement"},
		LifecycleStage:        StageQualified,
		ConversionProbability: 55,
		PortfolioValue:        250_000,
		PreferredContact:      ContactPhone,
	}
}

func TestClientProfile_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *ClientProfile)
		wantErr string
	}{
		{"valid", func(*ClientProfile) {}, ""},
		{"missing id", func(c *ClientProfile) { c.ID = " " }, "id is required"},
		{"zero age", func(c *ClientProfile) { c.Age = 0 }, "age must be > 0"},
		{"negative income", func(c *ClientProfile) { c.AnnualIncome = -1 }, "annual_income must be >= 0"},
		{"conversion above 100", func(c *ClientProfile) { c.ConversionProbability = 100.5 }, "conversion_probability"},
		{"conversion below 0", func(c *ClientProfile) { c.ConversionProbability = -3 }, "conversion_probability"},
		{"negative portfolio", func(c *ClientProfile) { c.PortfolioValue = -10 }, "portfolio_value"},
		{"NaN income", func(c *ClientProfile) { c.AnnualIncome = math.NaN() }, "annual_income"},
		{"infinite income", func(c *ClientProfile) { c.AnnualIncome = math.Inf(1) }, "annual_income"},
		{"NaN conversion", func(c *ClientProfile) { c.ConversionProbability = math.NaN() }, "conversion_probability"},
		{"NaN portfolio", func(c *ClientProfile) { c.PortfolioValue = math.NaN() }, "portfolio_value"},
		{"infinite portfolio", func(c *ClientProfile) { c.PortfolioValue = math.Inf(1) }, "portfolio_value"},
		{"unknown enums are fine", func(c *ClientProfile) {
			c.RiskTolerance = ""
			c.LifecycleStage = "prospect"
			c.PreferredContact = "sms"
			c.Interests = nil
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := validClient()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClientProfile_Validate_ReportsAllViolations(t *testing.T) {
	c := validClient()
	c.Age = -1
	c.AnnualIncome = -5
	c.ConversionProbability = 150

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "age")
	assert.Contains(t, err.Error(), "annual_income")
	assert.Contains(t, err.Error(), "conversion_probability")
}

func TestActivity_Validate(t *testing.T) {
	ok := Activity{ClientID: "c-1", Type: ActivityCall, OccurredAt: time.Now()}
	assert.NoError(t, ok.Validate())

	err := Activity{Type: ActivityEmail}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client_id is required")
	assert.Contains(t, err.Error(), "occurred_at is required")
}

func TestParseEnums(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RiskHigh, ParseRiskLevel(" HIGH "))
	assert.Equal(t, RiskLow, ParseRiskLevel("low"))
	assert.Equal(t, RiskLevel(""), ParseRiskLevel("aggressive"))

	assert.Equal(t, StageOpportunity, ParseLifecycleStage("Opportunity"))
	assert.Equal(t, LifecycleStage(""), ParseLifecycleStage("churned"))

	assert.Equal(t, ContactMeeting, ParseContactChannel("Meeting"))
	assert.Equal(t, ContactChannel(""), ParseContactChannel("fax"))

	p, ok := ParsePriority("Medium")
	assert.True(t, ok)
	assert.Equal(t, PriorityMedium, p)
	_, ok = ParsePriority("urgent")
	assert.False(t, ok)
}

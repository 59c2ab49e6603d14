package scorer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/advisor-cli/internal/model"
)

func TestPrioritize(t *testing.T) {
	tests := []struct {
		name     string
		client   model.ClientProfile
		days     int
		score    int
		priority model.Priority
		action   model.ContactAction
		reason   string
	}{
		{
			name: "hot opportunity",
			client: model.ClientProfile{
				ID: "c1", Age: 40, ConversionProbability: 75, PortfolioValue: 600000,
				LifecycleStage: model.StageOpportunity, PreferredContact: model.ContactEmail,
			},
			days:     20,
			score:    105,
			priority: model.PriorityHigh,
			action:   model.ActionCall,
			reason:   "no contact in 2+ weeks, high conversion probability, high-value portfolio, active opportunity",
		},
		{
			name: "routine follow-up",
			client: model.ClientProfile{
				ID: "c2", Age: 40, ConversionProbability: 30, PortfolioValue: 50000,
				LifecycleStage: model.StageLead,
			},
			days:     1,
			score:    0,
			priority: model.PriorityLow,
			action:   model.ActionEmail,
			reason:   "routine follow-up",
		},
		{
			name: "exactly high boundary",
			client: model.ClientProfile{
				ID: "c3", Age: 40, LifecycleStage: model.StageQualified,
			},
			days:     15,
			score:    50,
			priority: model.PriorityHigh,
			action:   model.ActionCall,
			reason:   "no contact in 2+ weeks, qualified lead",
		},
		{
			name: "just under high",
			client: model.ClientProfile{
				ID: "c4", Age: 40, PortfolioValue: 250000, PreferredContact: model.ContactPhone,
			},
			days:     30,
			score:    48,
			priority: model.PriorityMedium,
			action:   model.ActionCall,
			reason:   "no contact in 2+ weeks, significant portfolio",
		},
		{
			name:     "exactly medium boundary",
			client:   model.ClientProfile{ID: "c5", Age: 40, PreferredContact: model.ContactMeeting},
			days:     8,
			score:    25,
			priority: model.PriorityMedium,
			action:   model.ActionEmail,
			reason:   "no contact in over a week",
		},
		{
			name:     "staleness plus moderate conversion",
			client:   model.ClientProfile{ID: "c6", Age: 40, ConversionProbability: 51},
			days:     4,
			score:    25,
			priority: model.PriorityMedium,
			action:   model.ActionEmail,
			reason:   "no contact in 3+ days, moderate conversion probability",
		},
		{
			name:     "thresholds are strict",
			client:   model.ClientProfile{ID: "c7", Age: 40, ConversionProbability: 70, PortfolioValue: 500000},
			days:     14,
			score:    48,
			priority: model.PriorityMedium,
			action:   model.ActionEmail,
			reason:   "no contact in over a week, moderate conversion probability, significant portfolio",
		},
		{
			name:     "customer stage adds nothing",
			client:   model.ClientProfile{ID: "c8", Age: 40, LifecycleStage: model.StageCustomer},
			days:     3,
			score:    0,
			priority: model.PriorityLow,
			action:   model.ActionEmail,
			reason:   "routine follow-up",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Prioritize(tt.client, tt.days)
			assert.Equal(t, tt.client.ID, got.ClientID)
			assert.Equal(t, tt.score, got.PriorityScore)
			assert.Equal(t, tt.priority, got.Priority)
			assert.Equal(t, tt.action, got.RecommendedAction)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestPrioritize_MonotonicInStaleness(t *testing.T) {
	client := model.ClientProfile{ID: "c1", Age: 40, ConversionProbability: 60}
	prev := -1
	for days := 0; days <= 40; days++ {
		got := Prioritize(client, days).PriorityScore
		assert.GreaterOrEqual(t, got, prev, "days=%d", days)
		prev = got
	}
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, model.PriorityHigh, tierFor(105))
	assert.Equal(t, model.PriorityHigh, tierFor(50))
	assert.Equal(t, model.PriorityMedium, tierFor(49))
	assert.Equal(t, model.PriorityMedium, tierFor(25))
	assert.Equal(t, model.PriorityLow, tierFor(24))
	assert.Equal(t, model.PriorityLow, tierFor(0))
}

func TestDaysSinceContact(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}

	assert.Equal(t, 30, DaysSinceContact(nil, now, 30))
	assert.Equal(t, 30, DaysSinceContact(&time.Time{}, now, 30))
	assert.Equal(t, 0, DaysSinceContact(at(23*time.Hour), now, 30))
	assert.Equal(t, 1, DaysSinceContact(at(24*time.Hour), now, 30))
	assert.Equal(t, 7, DaysSinceContact(at(7*24*time.Hour+time.Hour), now, 30))
	assert.Equal(t, 0, DaysSinceContact(at(-48*time.Hour), now, 30))
}

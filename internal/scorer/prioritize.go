package scorer

import (
	"math"
	"strings"
	"time"

	"github.com/sells-group/advisor-cli/internal/model"
)

// Tier cutoffs on the additive priority score.
const (
	highPriorityMin   = 50
	mediumPriorityMin = 25
)

const routineFollowUp = "routine follow-up"

// Prioritize computes how urgently an advisor should contact a client. The
// score is additive across contact staleness, conversion likelihood,
// portfolio value, and lifecycle stage. It is a pure function of its inputs.
func Prioritize(client model.ClientProfile, daysSinceContact int) model.TaskPriorityResult {
	var (
		score   int
		reasons []string
	)
	add := func(points int, reason string) {
		score += points
		reasons = append(reasons, reason)
	}

	switch {
	case daysSinceContact > 14:
		add(40, "no contact in 2+ weeks")
	case daysSinceContact > 7:
		add(25, "no contact in over a week")
	case daysSinceContact > 3:
		add(10, "no contact in 3+ days")
	}

	switch {
	case client.ConversionProbability > 70:
		add(30, "high conversion probability")
	case client.ConversionProbability > 50:
		add(15, "moderate conversion probability")
	}

	switch {
	case client.PortfolioValue > 500_000:
		add(15, "high-value portfolio")
	case client.PortfolioValue > 200_000:
		add(8, "significant portfolio")
	}

	switch client.LifecycleStage {
	case model.StageOpportunity:
		add(20, "active opportunity")
	case model.StageQualified:
		add(10, "qualified lead")
	}

	reason := routineFollowUp
	if len(reasons) > 0 {
		reason = strings.Join(reasons, ", ")
	}

	priority := tierFor(score)
	return model.TaskPriorityResult{
		ClientID:          client.ID,
		ClientName:        client.Name,
		Priority:          priority,
		PriorityScore:     score,
		Reason:            reason,
		RecommendedAction: recommendAction(priority, client.PreferredContact),
	}
}

func tierFor(score int) model.Priority {
	switch {
	case score >= highPriorityMin:
		return model.PriorityHigh
	case score >= mediumPriorityMin:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// recommendAction always calls high-priority clients; otherwise it honors
// the client's preference, defaulting to email.
func recommendAction(p model.Priority, preferred model.ContactChannel) model.ContactAction {
	if p == model.PriorityHigh {
		return model.ActionCall
	}
	if preferred == model.ContactPhone {
		return model.ActionCall
	}
	return model.ActionEmail
}

// DaysSinceContact converts the last contact time into whole elapsed days.
// A client with no contact on record is treated as neverContacted days stale.
func DaysSinceContact(last *time.Time, now time.Time, neverContacted int) int {
	if last == nil || last.IsZero() {
		return neverContacted
	}
	elapsed := now.Sub(*last)
	if elapsed <= 0 {
		return 0
	}
	return int(math.Floor(elapsed.Hours() / 24))
}

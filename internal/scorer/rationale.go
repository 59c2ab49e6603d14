package scorer

import (
	"fmt"
	"strings"

	"github.com/sells-group/advisor-cli/internal/model"
)

// Clause thresholds: a factor must clear these to be mentioned.
const (
	riskClauseMin     = 80
	interestClauseMin = 70
	ageClauseMin      = 80
	pastClauseMin     = 70
)

const (
	rationaleSep       = "; "
	diversifyRationale = "Diversification opportunity for your portfolio"
)

// buildRationale explains which factors drove a recommendation.
func buildRationale(client model.ClientProfile, c candidate) string {
	var clauses []string

	if c.factors.RiskMatch > riskClauseMin {
		clauses = append(clauses, fmt.Sprintf("Matches your %s risk tolerance", client.RiskTolerance))
	}
	if c.factors.InterestMatch > interestClauseMin && len(c.interest) > 0 {
		clauses = append(clauses, "Aligns with your interest in "+strings.Join(c.interest, ", "))
	}
	if c.factors.AgeSuitability > ageClauseMin {
		clauses = append(clauses, "Age-appropriate investment strategy")
	}
	if c.factors.PastSuccess > pastClauseMin {
		clauses = append(clauses, "Similar to your successful past investments")
	}

	if len(clauses) == 0 {
		clauses = append(clauses, diversifyRationale)
	}
	clauses = append(clauses, fmt.Sprintf("Expected return: %.1f%% annually", c.product.ExpectedReturn))

	return strings.Join(clauses, rationaleSep)
}

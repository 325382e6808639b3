package advisor

import "github.com/Lssat0415/cbk-agent-chatbox/internal/models"

// ComputeAllocation derives the cash/bond/equity split from risk, horizon
// and interest tags. Deterministic and idempotent; the result always sums
// to exactly 100 with no negative component.
//
// A horizon of 36 months or more counts as long term; an unspecified
// horizon defaults to long term.
func ComputeAllocation(risk models.RiskLevel, horizonMonths *int, tags []models.InterestTag) models.Allocation {
	long := horizonMonths == nil || *horizonMonths >= 36

	// Base table by risk and horizon length. Balanced ignores the horizon.
	cash, bond := 15, 45
	switch risk {
	case models.RiskConservative:
		if long {
			cash, bond = 20, 55
		} else {
			cash, bond = 30, 50
		}
	case models.RiskAggressive:
		if long {
			cash, bond = 10, 25
		} else {
			cash, bond = 15, 35
		}
	}
	equity := 100 - cash - bond

	// Tag adjustments apply in this fixed order, each re-deriving the
	// residual component against the values already mutated above it.
	if hasTag(tags, models.TagCashManagement) {
		cash = min(40, cash+10)
		bond = max(10, bond-5)
		equity = 100 - cash - bond
	}
	if hasTag(tags, models.TagIndexETF) {
		equity = min(70, equity+5)
		bond = max(10, bond-3)
		cash = 100 - equity - bond
	}
	if hasTag(tags, models.TagFixedIncome) {
		bond = min(70, bond+8)
		equity = max(5, equity-6)
		cash = 100 - equity - bond
	}

	return models.Allocation{Cash: cash, Bond: bond, Equity: equity}
}

func hasTag(tags []models.InterestTag, tag models.InterestTag) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

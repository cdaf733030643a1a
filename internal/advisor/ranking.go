package advisor

import (
	"sort"

	"github.com/ppiankov/snowspectre/internal/models"
)

const (
	// DefaultMinCostUSD excludes warehouses too cheap to bother recommending.
	DefaultMinCostUSD = 10.0
	// DefaultTopRecommendations caps the fleet-wide recommendation list.
	DefaultTopRecommendations = 5
)

// RankFleet filters and orders estimates for a fleet-wide recommendation
// list: estimates without a recommendation or below the cost floor are
// dropped, the rest are sorted by savings (largest first) and truncated.
func RankFleet(estimates []*models.CostEstimate, minCostUSD float64, top int) []models.CostEstimate {
	ranked := make([]models.CostEstimate, 0, len(estimates))
	for _, est := range estimates {
		if !est.HasRecommendation() {
			continue
		}
		if est.CurrentCostUSD < minCostUSD {
			continue
		}
		ranked = append(ranked, *est)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].SavingsUSD > ranked[j].SavingsUSD
	})

	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	return ranked
}

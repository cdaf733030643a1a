package advisor

import (
	"fmt"

	"github.com/ppiankov/snowspectre/internal/models"
	"github.com/ppiankov/snowspectre/internal/tiers"
)

const (
	// DefaultCreditUnitPrice is the USD price of one compute credit.
	DefaultCreditUnitPrice = 3.0

	downsizeAvgExecSeconds = 60.0
	downsizeMaxQueryCount  = 100
	autoSuspendQueryCount  = 50
	autoSuspendCostFactor  = 0.7
)

// Advisor produces rightsizing recommendations from aggregated usage.
// It is a pure computation: identical inputs yield identical estimates.
type Advisor struct {
	creditUnitPrice float64
}

// New creates an advisor. A non-positive price falls back to the default.
func New(creditUnitPrice float64) *Advisor {
	if creditUnitPrice <= 0 {
		creditUnitPrice = DefaultCreditUnitPrice
	}
	return &Advisor{creditUnitPrice: creditUnitPrice}
}

// Recommend evaluates one warehouse against its usage window.
//
// Cost basis: metered credits when available, otherwise an estimate from the
// tier's multiplier and total execution time. The decision rules are checked
// in a fixed order and the first match wins. Currency values are kept at full
// precision here; rounding belongs to the reporter.
func (a *Advisor) Recommend(tier models.SizeTier, usage *models.UsageWindow) *models.CostEstimate {
	est := &models.CostEstimate{
		WarehouseName: usage.WarehouseName,
		CurrentTier:   tier,
		PeriodDays:    usage.PeriodDays,
	}

	creditBased := usage.CreditsUsed > 0
	if creditBased {
		est.CurrentCostUSD = usage.CreditsUsed * a.creditUnitPrice
	} else {
		est.CurrentCostUSD = tier.CostMultiplier * a.creditUnitPrice * (usage.TotalExecutionTimeSeconds / 3600)
	}

	// Rule 1: long queries on a lightly used warehouse suggest the size is
	// not the bottleneck worth paying for.
	if usage.AvgExecutionTimeSeconds > downsizeAvgExecSeconds && usage.QueryCount < downsizeMaxQueryCount {
		if smaller, ok := tiers.Below(tier); ok {
			est.RecommendedTier = &smaller
			if creditBased {
				est.RecommendedCostUSD = est.CurrentCostUSD * smaller.CostMultiplier / tier.CostMultiplier
			} else {
				est.RecommendedCostUSD = smaller.CostMultiplier * a.creditUnitPrice * (usage.TotalExecutionTimeSeconds / 3600)
			}
			est.Rationale = fmt.Sprintf("Downsize from %s to %s", tier.Name, smaller.Name)
			finalize(est)
			return est
		}
	}

	// Rule 2: very low query volume points at idle time, not at sizing.
	if usage.QueryCount < autoSuspendQueryCount {
		est.RecommendedCostUSD = est.CurrentCostUSD * autoSuspendCostFactor
		est.Rationale = "Configure auto-suspend to reduce idle time"
		finalize(est)
		return est
	}

	// No recommendation. Costs carry over unchanged so savings stay zero and
	// callers can skip the estimate.
	est.RecommendedCostUSD = est.CurrentCostUSD
	return est
}

// CreditUnitPrice returns the configured USD price per credit.
func (a *Advisor) CreditUnitPrice() float64 {
	return a.creditUnitPrice
}

func finalize(est *models.CostEstimate) {
	est.SavingsUSD = est.CurrentCostUSD - est.RecommendedCostUSD
	if est.CurrentCostUSD > 0 {
		est.SavingsPercent = est.SavingsUSD / est.CurrentCostUSD * 100
	}
}

package tiers

import (
	"fmt"
	"strings"

	"github.com/ppiankov/snowspectre/internal/models"
)

// ErrUnknownTier is returned by Lookup for size names outside the catalog.
var ErrUnknownTier = fmt.Errorf("unknown warehouse size")

// catalog is the ordered warehouse size table. Cost multipliers double per
// step, matching per-hour credit consumption of each size.
var catalog = []models.SizeTier{
	{Name: "X-Small", CostMultiplier: 1, Ordinal: 0},
	{Name: "Small", CostMultiplier: 2, Ordinal: 1},
	{Name: "Medium", CostMultiplier: 4, Ordinal: 2},
	{Name: "Large", CostMultiplier: 8, Ordinal: 3},
	{Name: "X-Large", CostMultiplier: 16, Ordinal: 4},
	{Name: "2X-Large", CostMultiplier: 32, Ordinal: 5},
	{Name: "3X-Large", CostMultiplier: 64, Ordinal: 6},
	{Name: "4X-Large", CostMultiplier: 128, Ordinal: 7},
}

// All returns the full catalog in ascending size order.
func All() []models.SizeTier {
	out := make([]models.SizeTier, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a tier by name. Matching is case-insensitive and tolerates
// the "XSMALL" spelling some metadata sources report.
func Lookup(name string) (models.SizeTier, error) {
	normalized := normalizeName(name)
	for _, tier := range catalog {
		if normalizeName(tier.Name) == normalized {
			return tier, nil
		}
	}
	return models.SizeTier{}, fmt.Errorf("%w: %q", ErrUnknownTier, name)
}

// Resolve is the permissive variant of Lookup: unknown or empty size names
// fall back to the smallest tier so incomplete upstream metadata never
// blocks analysis.
func Resolve(name string) models.SizeTier {
	tier, err := Lookup(name)
	if err != nil {
		return catalog[0]
	}
	return tier
}

// Below returns the next smaller tier, or false if tier is already the smallest.
func Below(tier models.SizeTier) (models.SizeTier, bool) {
	if tier.Ordinal <= 0 || tier.Ordinal >= len(catalog) {
		return models.SizeTier{}, false
	}
	return catalog[tier.Ordinal-1], true
}

// Above returns the next larger tier, or false if tier is already the largest.
func Above(tier models.SizeTier) (models.SizeTier, bool) {
	if tier.Ordinal < 0 || tier.Ordinal >= len(catalog)-1 {
		return models.SizeTier{}, false
	}
	return catalog[tier.Ordinal+1], true
}

func normalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

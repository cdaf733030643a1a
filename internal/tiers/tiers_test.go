package tiers

import (
	"errors"
	"testing"
)

func TestLookup(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		want     string
		wantOrd  int
		wantMult float64
		wantErr  bool
	}{
		{name: "exact", input: "Large", want: "Large", wantOrd: 3, wantMult: 8},
		{name: "lowercase", input: "x-small", want: "X-Small", wantOrd: 0, wantMult: 1},
		{name: "no_hyphen", input: "XSMALL", want: "X-Small", wantOrd: 0, wantMult: 1},
		{name: "largest", input: "4X-Large", want: "4X-Large", wantOrd: 7, wantMult: 128},
		{name: "unknown", input: "Gigantic", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tier, err := Lookup(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownTier) {
					t.Fatalf("expected ErrUnknownTier, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup(%q) failed: %v", tc.input, err)
			}
			if tier.Name != tc.want || tier.Ordinal != tc.wantOrd || tier.CostMultiplier != tc.wantMult {
				t.Fatalf("Lookup(%q) = %+v, want name=%q ordinal=%d multiplier=%v",
					tc.input, tier, tc.want, tc.wantOrd, tc.wantMult)
			}
		})
	}
}

func TestResolveFallsBackToXSmall(t *testing.T) {
	tier := Resolve("NONSENSE")
	if tier.Name != "X-Small" || tier.Ordinal != 0 {
		t.Fatalf("expected X-Small fallback, got %+v", tier)
	}
}

func TestBelowAboveMirrorCatalogOrder(t *testing.T) {
	all := All()
	for i, tier := range all {
		below, ok := Below(tier)
		if i == 0 {
			if ok {
				t.Fatalf("expected no tier below %s", tier.Name)
			}
		} else if !ok || below.Ordinal != i-1 {
			t.Fatalf("Below(%s) = %+v ok=%v, want ordinal %d", tier.Name, below, ok, i-1)
		}

		above, ok := Above(tier)
		if i == len(all)-1 {
			if ok {
				t.Fatalf("expected no tier above %s", tier.Name)
			}
		} else if !ok || above.Ordinal != i+1 {
			t.Fatalf("Above(%s) = %+v ok=%v, want ordinal %d", tier.Name, above, ok, i+1)
		}
	}
}

func TestCatalogStrictlyIncreasing(t *testing.T) {
	all := All()
	for i := 1; i < len(all); i++ {
		if all[i].CostMultiplier <= all[i-1].CostMultiplier {
			t.Fatalf("cost multiplier not increasing at %s", all[i].Name)
		}
		if all[i].Ordinal != all[i-1].Ordinal+1 {
			t.Fatalf("ordinal gap at %s", all[i].Name)
		}
	}
}

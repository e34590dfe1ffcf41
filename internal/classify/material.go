// Package classify maps free-text material descriptions onto the fixed
// material taxonomy by keyword scoring. It is stateless and does no I/O.
package classify

import (
	"strings"

	"github.com/wastetrack/ticketscan/internal/model"
)

// materialKeywords is the per-type keyword table. Scoring counts substring
// hits; ties are broken by the taxonomy's declaration order, so the table is
// consulted through model.MaterialTypes(), never by map iteration.
var materialKeywords = map[model.MaterialType][]string{
	model.MaterialConcrete:         {"concrete", "cement", "rebar", "sidewalk", "foundation"},
	model.MaterialAsphalt:          {"asphalt", "pavement", "blacktop", "tar"},
	model.MaterialMetalFerrous:     {"steel", "iron", "ferrous", "metal scrap", "rebar"},
	model.MaterialMetalNonferrous:  {"aluminum", "copper", "brass", "non-ferrous", "nonferrous"},
	model.MaterialWoodClean:        {"clean wood", "untreated wood", "lumber", "pallet", "timber"},
	model.MaterialWoodTreated:      {"treated wood", "pressure treated", "painted wood"},
	model.MaterialCardboard:        {"cardboard", "occ", "corrugated"},
	model.MaterialPaper:            {"paper", "office paper", "newspaper"},
	model.MaterialPlastic:          {"plastic", "hdpe", "ldpe", "pet", "pvc"},
	model.MaterialGlass:            {"glass", "window", "bottle"},
	model.MaterialDrywall:          {"drywall", "sheetrock", "gypsum", "wallboard"},
	model.MaterialInsulation:       {"insulation", "fiberglass", "foam board"},
	model.MaterialRoofing:          {"roofing", "shingle", "tar paper", "roof"},
	model.MaterialBrickMasonry:     {"brick", "block", "masonry", "cmu", "stone"},
	model.MaterialSoilLandClearing: {"soil", "dirt", "land clearing", "brush", "vegetation"},
	model.MaterialMixedCND:         {"mixed", "c&d", "c and d", "construction", "demolition", "debris"},
	model.MaterialHazardous:        {"hazardous", "hazmat", "asbestos", "lead", "contaminated"},
}

// Material classifies a free-text material description.
//
// Empty input yields (other, 0.0). Input matching no keyword yields
// (other, 0.3) - never anything in between. Otherwise the type with the most
// keyword hits wins and confidence is min(0.5 + hits*0.15, 0.95).
func Material(description string) (model.MaterialType, float64) {
	if strings.TrimSpace(description) == "" {
		return model.MaterialOther, 0.0
	}

	lower := strings.ToLower(description)

	best := model.MaterialOther
	bestHits := 0
	for _, mt := range model.MaterialTypes() {
		hits := 0
		for _, kw := range materialKeywords[mt] {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = mt
			bestHits = hits
		}
	}

	if bestHits == 0 {
		return model.MaterialOther, 0.3
	}

	confidence := 0.5 + float64(bestHits)*0.15
	if confidence > 0.95 {
		confidence = 0.95
	}
	return best, confidence
}

package search

import (
	"sort"
	"strings"

	"github.com/sourcing-buddy/backend/internal/storage/models"
)

// FacetSelection maps a facet name to the set of selected values. A facet
// with an empty selection imposes no constraint.
type FacetSelection map[string][]string

// FacetFields lists the categorical fields offered as narrowing filters.
var FacetFields = []string{
	"material_group",
	"material_type",
	"company_created",
	"purchasing_org",
	"vendor_code",
}

// ApplyFacets keeps a record iff, for every facet with a non-empty selection,
// the record's value is one of the selected values. Pure and idempotent.
func ApplyFacets(results []models.SearchResult, selection FacetSelection) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		if matchesFacets(r, selection) {
			out = append(out, r)
		}
	}
	return out
}

func matchesFacets(r models.SearchResult, selection FacetSelection) bool {
	for _, facet := range FacetFields {
		selected := selection[facet]
		if len(selected) == 0 {
			continue
		}
		value := facetValue(r.PartRecord, facet)
		found := false
		for _, s := range selected {
			if value == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// FacetOptions derives, for each facet field, the sorted set of distinct
// non-empty values observed in the given result set.
func FacetOptions(results []models.SearchResult) map[string][]string {
	options := make(map[string][]string, len(FacetFields))
	for _, facet := range FacetFields {
		seen := make(map[string]bool)
		var values []string
		for _, r := range results {
			v := facetValue(r.PartRecord, facet)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			values = append(values, v)
		}
		sort.Strings(values)
		options[facet] = values
	}
	return options
}

func facetValue(r models.PartRecord, facet string) string {
	switch facet {
	case "material_group":
		return r.MaterialGroup
	case "material_type":
		return r.MaterialType
	case "company_created":
		return r.CompanyCreated
	case "purchasing_org":
		return r.PurchasingOrg
	case "vendor_code":
		return r.VendorCode
	default:
		return ""
	}
}

// RefinementRule pairs a phrase predicate with the filter it applies. Rules
// are evaluated in order and only the first match is applied, which keeps the
// priority order an explicit, testable artifact.
type RefinementRule struct {
	Name    string
	Matches func(phrase string) bool
	Keep    func(r models.SearchResult) bool
}

func phraseContains(substrings ...string) func(string) bool {
	return func(phrase string) bool {
		for _, s := range substrings {
			if strings.Contains(phrase, s) {
				return true
			}
		}
		return false
	}
}

func materialContains(substring string) func(models.SearchResult) bool {
	return func(r models.SearchResult) bool {
		material := strings.ToLower(r.BasicMaterial + " " + r.MaterialGroup)
		return strings.Contains(material, substring)
	}
}

// RefinementRules is the ordered first-match-wins rule set for conversational
// refinement.
var RefinementRules = []RefinementRule{
	{
		Name:    "grade-316",
		Matches: phraseContains("316"),
		Keep:    materialContains("316"),
	},
	{
		Name:    "grade-304",
		Matches: phraseContains("304"),
		Keep:    materialContains("304"),
	},
	{
		Name:    "in-stock",
		Matches: phraseContains("in stock", "stock"),
		Keep: func(r models.SearchResult) bool {
			return r.InStock
		},
	},
	{
		Name:    "previously-ordered",
		Matches: phraseContains("previously ordered", "ordered"),
		Keep: func(r models.SearchResult) bool {
			return r.POValue != nil
		},
	},
	{
		Name:    "chrome",
		Matches: phraseContains("chrome"),
		Keep:    materialContains("chrome"),
	},
	{
		Name:    "steel",
		Matches: phraseContains("steel"),
		Keep:    materialContains("steel"),
	},
}

// Refine narrows an existing result set by a free-text follow-up phrase. The
// first rule whose predicate matches the phrase is applied; when no rule
// matches the set passes through unchanged and the returned rule name is
// empty.
func Refine(results []models.SearchResult, phrase string) ([]models.SearchResult, string) {
	lower := strings.ToLower(phrase)

	for _, rule := range RefinementRules {
		if !rule.Matches(lower) {
			continue
		}
		out := make([]models.SearchResult, 0, len(results))
		for _, r := range results {
			if rule.Keep(r) {
				out = append(out, r)
			}
		}
		return out, rule.Name
	}

	return results, ""
}

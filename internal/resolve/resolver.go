// Package resolve maps free-text place labels, typically map-click feature
// names or search input, onto canonical state names present in the loaded
// dataset.
//
// Map feature labels and CSV district names never perfectly agree on casing
// or administrative suffixes ("Hassan district" vs "Hassan"), so resolution
// runs through matching tiers ordered most-specific-first. The first tier
// producing a candidate wins; ties within a tier are broken by record order.
package resolve

import (
	"strings"

	"groundwater-platform/internal/models"
)

// Tier identifies which matching tier produced a resolution. Exposed so
// callers can count tier hits in metrics.
type Tier string

const (
	TierDistrictExact     Tier = "district_exact"
	TierDistrictSubstring Tier = "district_substring"
	TierDistrictToken     Tier = "district_token"
	TierStateExact        Tier = "state_exact"
	TierStateSubstring    Tier = "state_substring"
	TierSelfState         Tier = "self_state"
	TierNone              Tier = "none"
)

// Resolution is the outcome of a resolve attempt. State carries the exact
// casing stored on the matched record so display preserves the dataset's
// capitalization.
type Resolution struct {
	State   string
	Tier    Tier
	Matched bool
}

// Resolve finds the canonical state for a candidate label. suppliedState is
// an optional state-like label provided separately (a map feature usually
// carries both a district and a state property); it is consulted only after
// every district tier has failed. A failed resolution is not an error: the
// caller keeps its previous selection.
func Resolve(candidate, suppliedState string, records []models.Record) Resolution {
	cand := strings.ToLower(strings.TrimSpace(candidate))

	if cand != "" {
		// Tier 1: exact district match.
		for i := range records {
			d := strings.ToLower(records[i].District)
			if d != "" && d == cand {
				return Resolution{State: records[i].State, Tier: TierDistrictExact, Matched: true}
			}
		}

		// Tier 2: substring in either direction, covering suffixed labels
		// like "East Godavari District".
		for i := range records {
			d := strings.ToLower(records[i].District)
			if d != "" && (strings.Contains(cand, d) || strings.Contains(d, cand)) {
				return Resolution{State: records[i].State, Tier: TierDistrictSubstring, Matched: true}
			}
		}

		// Tier 3: token overlap between the candidate and the district.
		tokens := strings.Fields(cand)
		for i := range records {
			d := strings.ToLower(records[i].District)
			if d == "" {
				continue
			}
			for _, tok := range tokens {
				if strings.Contains(d, tok) || strings.Contains(tok, d) {
					return Resolution{State: records[i].State, Tier: TierDistrictToken, Matched: true}
				}
			}
		}
	}

	states := canonicalStates(records)

	// Tier 4: separately supplied state label, exact then substring.
	if sup := strings.ToLower(strings.TrimSpace(suppliedState)); sup != "" {
		for _, st := range states {
			if strings.ToLower(st) == sup {
				return Resolution{State: st, Tier: TierStateExact, Matched: true}
			}
		}
		for _, st := range states {
			s := strings.ToLower(st)
			if strings.Contains(sup, s) || strings.Contains(s, sup) {
				return Resolution{State: st, Tier: TierStateSubstring, Matched: true}
			}
		}
	}

	// Tier 5: the candidate itself names a state.
	if cand != "" {
		for _, st := range states {
			if strings.ToLower(st) == cand {
				return Resolution{State: st, Tier: TierSelfState, Matched: true}
			}
		}
	}

	return Resolution{Tier: TierNone}
}

// canonicalStates lists the distinct non-empty state names in record order,
// keeping the first-seen casing as canonical.
func canonicalStates(records []models.Record) []string {
	seen := make(map[string]bool, 32)
	var states []string
	for i := range records {
		st := records[i].State
		if st == "" {
			continue
		}
		key := strings.ToLower(st)
		if !seen[key] {
			seen[key] = true
			states = append(states, st)
		}
	}
	return states
}

// FindStatesInText scans free text for canonical state names, in the order
// they appear in the text. Used by chat intent detection ("compare Karnataka
// and Kerala").
func FindStatesInText(text string, records []models.Record) []string {
	lower := strings.ToLower(text)
	type hit struct {
		pos   int
		state string
	}
	var hits []hit
	for _, st := range canonicalStates(records) {
		if idx := strings.Index(lower, strings.ToLower(st)); idx >= 0 {
			hits = append(hits, hit{pos: idx, state: st})
		}
	}
	// Insertion sort by text position; the list is tiny.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	states := make([]string, 0, len(hits))
	for _, h := range hits {
		states = append(states, h.state)
	}
	return states
}

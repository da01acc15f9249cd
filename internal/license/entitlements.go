package license

import "strings"

// onlineTierPlans is the recognized vocabulary of long-duration or unlimited
// plans that grant the online tier.
var onlineTierPlans = map[string]bool{
	// one-year variants
	"1y":        true,
	"1-year":    true,
	"12m":       true,
	"12-months": true,
	"year":      true,
	"yearly":    true,
	// unlimited variants
	"lifetime":  true,
	"life-time": true,
	"permanent": true,
	"forever":   true,
}

// IsActive reports whether the record grants any access at all.
func IsActive(r *Record) bool {
	return r != nil && r.Status == StatusActive
}

// IsOnlineTier reports whether the record's plan grants the online tier.
// The plan string is matched case-insensitively with whitespace normalized
// to hyphens; an absent or unrecognized plan grants nothing.
func IsOnlineTier(r *Record) bool {
	if r == nil {
		return false
	}
	return onlineTierPlans[normalizePlan(r.Plan)]
}

func normalizePlan(plan string) string {
	plan = strings.ToLower(strings.TrimSpace(plan))
	return strings.Join(strings.Fields(plan), "-")
}

package session

import (
	"fmt"
	"strings"

	"github.com/keydeck/keydeck/internal/license"
)

// StripState is the one-line license banner above the grid.
type StripState struct {
	Badge       string `json:"badge"`
	BadgeClass  string `json:"badge_class"`
	Text        string `json:"text"`
	ActionLabel string `json:"action_label"` // top button: Activate / Show Details
}

// Strip derives the banner from a license record.
func Strip(r *license.Record) StripState {
	strip := StripState{ActionLabel: "Activate"}
	if r == nil {
		strip.Badge = "NOT ACTIVATED"
		strip.BadgeClass = "badge warn"
		strip.Text = "Please activate to use Steam Guard fetcher."
		return strip
	}

	switch r.Status {
	case license.StatusActive:
		strip.Badge = "ACTIVE"
		strip.BadgeClass = "badge"
		strip.ActionLabel = "Show Details"
		var details []string
		if r.Plan != "" {
			details = append(details, "Plan: "+r.Plan)
		}
		if r.ExpiryDate != "" {
			details = append(details, "Expires: "+r.ExpiryDate)
		}
		if r.DaysLeft != nil {
			details = append(details, daysWord(*r.DaysLeft)+" left")
		}
		if !r.Online {
			details = append(details, "(offline check)")
		}
		strip.Text = strings.Join(details, " • ")

	case license.StatusExpired:
		strip.Badge = "EXPIRED"
		strip.BadgeClass = "badge err"
		strip.Text = "Your license expired."
		if r.ExpiryDate != "" {
			strip.Text = "Your license expired on " + r.ExpiryDate + "."
		}

	case license.StatusRevoked:
		strip.Badge = "REVOKED"
		strip.BadgeClass = "badge err"
		strip.Text = "Your CD-Key is no longer valid on the server."

	default:
		strip.Badge = "NOT ACTIVATED"
		strip.BadgeClass = "badge warn"
		strip.Text = "Please activate to use Steam Guard fetcher."
	}
	return strip
}

func daysWord(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// Package catalog owns the game catalog and the filter/pagination engine
// that derives the visible page from it.
package catalog

import "fmt"

// Item is one catalog entry. RecordID is the stable internal identity and
// the only key used for selection and detail lookup; AppID is an external
// product identifier kept for display and search, and is not guaranteed
// unique across items.
type Item struct {
	RecordID        string `json:"record_id"`
	AppID           int64  `json:"appid"`
	Name            string `json:"name"`
	OnlineSupported bool   `json:"online_supported"`

	// Passthrough fields consumed only by the detail panel.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

const coverCDNBase = "https://steamcdn-a.akamaihd.net/steam/apps"

// CoverURL returns the portrait cover art URL for the grid card.
func (i Item) CoverURL() string {
	return fmt.Sprintf("%s/%d/library_600x900.jpg", coverCDNBase, i.AppID)
}

// HeaderURL returns the landscape header art URL for the detail panel.
func (i Item) HeaderURL() string {
	return fmt.Sprintf("%s/%d/header.jpg", coverCDNBase, i.AppID)
}
